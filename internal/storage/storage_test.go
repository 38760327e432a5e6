package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSessionStore(t *testing.T) {
	s := New[string]()
	s.Set("a", "first")
	s.Set("b", "second")

	if v, ok := s.Get("a"); !ok || v != "first" {
		t.Errorf("Expected first, got %q (found=%v)", v, ok)
	}

	all := s.GetAll()
	if len(all) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(all))
	}
	delete(all, "a")
	if _, ok := s.Get("a"); !ok {
		t.Error("Expected GetAll to return a copy")
	}

	s.Delete("a")
	if _, ok := s.Get("a"); ok {
		t.Error("Expected session a to be deleted")
	}
}

func TestFlagStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "flags.db")

	fs, err := OpenFlags(path)
	if err != nil {
		t.Fatalf("OpenFlags: %v", err)
	}
	if _, ok, err := fs.Get(ctx, "missing"); err != nil || ok {
		t.Errorf("Expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := fs.Set(ctx, "cabcoat_gen_count", "1"); err != nil {
		t.Fatal(err)
	}
	if err := fs.Set(ctx, "cabcoat_gen_count", "2"); err != nil {
		t.Fatal(err)
	}
	if err := fs.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenFlags(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "cabcoat_gen_count")
	if err != nil || !ok || v != "2" {
		t.Errorf("Expected persisted value 2, got %q ok=%v err=%v", v, ok, err)
	}
}
