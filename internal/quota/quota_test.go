package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type mapKV struct {
	values map[string]string
	setErr error
}

func newMapKV() *mapKV {
	return &mapKV{values: map[string]string{}}
}

func (m *mapKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapKV) Set(_ context.Context, key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func TestAllowBoundary(t *testing.T) {
	tests := []struct {
		name  string
		state State
		limit int
		want  Decision
	}{
		{name: "below limit", state: State{FreeGenerationsUsed: 1}, limit: 2, want: Allowed},
		{name: "at limit", state: State{FreeGenerationsUsed: 2}, limit: 2, want: RequiresUnlock},
		{name: "over limit", state: State{FreeGenerationsUsed: 7}, limit: 2, want: RequiresUnlock},
		{name: "unlocked ignores counter", state: State{FreeGenerationsUsed: 99, UnlockedEmail: "a@b.co"}, limit: 2, want: Allowed},
		{name: "limit three", state: State{FreeGenerationsUsed: 2}, limit: 3, want: Allowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allow(tt.state, tt.limit); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestGateLifecycle(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()

	g, err := NewGate(ctx, kv, 2)
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}

	for i := 0; i < 2; i++ {
		if g.Allow() != Allowed {
			t.Fatalf("Expected generation %d to be allowed", i+1)
		}
		if err := g.RecordGeneration(ctx); err != nil {
			t.Fatalf("RecordGeneration: %v", err)
		}
	}

	if g.Allow() != RequiresUnlock {
		t.Error("Expected unlock to be required after the free generations")
	}
	if kv.values[CountKey] != "2" {
		t.Errorf("Expected persisted count 2, got %q", kv.values[CountKey])
	}

	if err := g.Unlock(ctx, "not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("Expected ErrInvalidEmail, got %v", err)
	}
	if err := g.Unlock(ctx, "home@example.com"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if g.Allow() != Allowed {
		t.Error("Expected allowed after unlock")
	}

	if err := g.RecordGeneration(ctx); err != nil {
		t.Fatalf("RecordGeneration: %v", err)
	}
	if g.State().FreeGenerationsUsed != 2 {
		t.Errorf("Expected counter to stay at 2 once unlocked, got %d", g.State().FreeGenerationsUsed)
	}

	st := g.Status()
	if !st.Unlocked || st.Remaining != -1 || st.Email != "home@example.com" {
		t.Errorf("Unexpected status %+v", st)
	}
}

func TestGateSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()

	first, err := NewGate(ctx, kv, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.RecordGeneration(ctx); err != nil {
		t.Fatal(err)
	}

	second, err := NewGate(ctx, kv, 2)
	if err != nil {
		t.Fatal(err)
	}
	if second.State().FreeGenerationsUsed != 1 {
		t.Errorf("Expected count 1 after reload, got %d", second.State().FreeGenerationsUsed)
	}
	if st := second.Status(); st.Remaining != 1 {
		t.Errorf("Expected 1 remaining, got %d", st.Remaining)
	}
}

func TestGateIgnoresMalformedCount(t *testing.T) {
	kv := newMapKV()
	kv.values[CountKey] = "lots"

	g, err := NewGate(context.Background(), kv, 0)
	if err != nil {
		t.Fatal(err)
	}
	if g.Limit() != DefaultLimit {
		t.Errorf("Expected default limit %d, got %d", DefaultLimit, g.Limit())
	}
	if g.State().FreeGenerationsUsed != 0 {
		t.Errorf("Expected count 0, got %d", g.State().FreeGenerationsUsed)
	}
}

func TestRecordGenerationPersistFailure(t *testing.T) {
	kv := newMapKV()
	g, err := NewGate(context.Background(), kv, 2)
	if err != nil {
		t.Fatal(err)
	}
	kv.setErr = errors.New("disk full")

	if err := g.RecordGeneration(context.Background()); err == nil {
		t.Error("Expected persistence error")
	}
	if g.State().FreeGenerationsUsed != 1 {
		t.Errorf("Expected in-memory count to advance despite the failure, got %d", g.State().FreeGenerationsUsed)
	}
	if g.Allow() != Allowed {
		t.Error("Expected second generation to be allowed")
	}
}

func TestReserveCountsInFlight(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	kv.values[CountKey] = "1"
	g, err := NewGate(ctx, kv, 2)
	if err != nil {
		t.Fatal(err)
	}

	first, d := g.Reserve()
	if d != Allowed {
		t.Fatalf("Expected first reservation allowed, got %s", d)
	}
	if _, d := g.Reserve(); d != RequiresUnlock {
		t.Errorf("Expected second reservation to require unlock, got %s", d)
	}
	if st := g.Status(); st.Remaining != 0 {
		t.Errorf("Expected 0 remaining while reserved, got %d", st.Remaining)
	}

	g.Release(first)
	second, d := g.Reserve()
	if d != Allowed {
		t.Fatalf("Expected released slot to be reusable, got %s", d)
	}
	if err := g.Commit(ctx, second); err != nil {
		t.Fatal(err)
	}
	if g.State().FreeGenerationsUsed != 2 || kv.values[CountKey] != "2" {
		t.Errorf("Expected count 2, got %d (persisted %q)", g.State().FreeGenerationsUsed, kv.values[CountKey])
	}
	if g.Allow() != RequiresUnlock {
		t.Error("Expected unlock to be required after commit")
	}
}

func TestReserveConcurrent(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	kv.values[CountKey] = "1"
	g, err := NewGate(ctx, kv, 2)
	if err != nil {
		t.Fatal(err)
	}

	const callers = 8
	results := make(chan Reservation, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r, d := g.Reserve(); d == Allowed {
				results <- r
			}
		}()
	}
	wg.Wait()
	close(results)

	granted := 0
	for r := range results {
		granted++
		if err := g.Commit(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	if granted != 1 {
		t.Errorf("Expected exactly 1 reservation granted, got %d", granted)
	}
	if used := g.State().FreeGenerationsUsed; used != 2 {
		t.Errorf("Expected count 2, got %d", used)
	}
}

func TestReserveAfterUnlock(t *testing.T) {
	ctx := context.Background()
	g, err := NewGate(ctx, newMapKV(), 2)
	if err != nil {
		t.Fatal(err)
	}
	r, _ := g.Reserve()
	if err := g.Unlock(ctx, "home@example.com"); err != nil {
		t.Fatal(err)
	}
	if err := g.Commit(ctx, r); err != nil {
		t.Fatal(err)
	}
	if g.State().FreeGenerationsUsed != 0 {
		t.Errorf("Expected no count once unlocked, got %d", g.State().FreeGenerationsUsed)
	}
	if _, d := g.Reserve(); d != Allowed {
		t.Errorf("Expected unlocked gate to allow, got %s", d)
	}
}
