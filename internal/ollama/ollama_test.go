package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cabcoat/cabcoat/internal/models"
)

func TestNewDefaults(t *testing.T) {
	o := New("", "")
	if o.URL != DefaultURL || o.Model() != DefaultModel {
		t.Errorf("Expected defaults, got %s %s", o.URL, o.Model())
	}
	if got := New("http://gpu:11434/", "llava").URL; got != "http://gpu:11434" {
		t.Errorf("Expected trailing slash trimmed, got %s", got)
	}
}

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var body struct {
			Model  string   `json:"model"`
			Images []string `json:"images"`
			Format string   `json:"format"`
			Stream bool     `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if body.Model != "llava" || body.Format != "json" || body.Stream {
			t.Errorf("Unexpected request %+v", body)
		}
		if len(body.Images) != 1 || body.Images[0] != "AQID" {
			t.Errorf("Expected one base64 image, got %v", body.Images)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"response": `{"isKitchen":false,"reasoning":"This is a bathroom vanity.","suggestedColors":[]}`,
		})
	}))
	defer srv.Close()

	got, err := New(srv.URL, "llava").Analyze(context.Background(), models.Image{Data: []byte{1, 2, 3}, MimeType: "image/png"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.IsKitchen || got.Reasoning != "This is a bathroom vanity." {
		t.Errorf("Unexpected analysis %+v", got)
	}
}

func TestAnalyzeStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `model "llava" not found`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "llava").Analyze(context.Background(), models.Image{Data: []byte{1}})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected status error, got %v", err)
	}
}
