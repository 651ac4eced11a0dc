package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestEmbedReassociatesByIndex(t *testing.T) {
	inputs := []string{"first", "second", "third"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Input) != len(inputs) {
			t.Fatalf("expected %d inputs, got %d", len(inputs), len(req.Input))
		}

		// Reply in reverse order; only the index field carries the pairing.
		var data []map[string]any
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"index":     i,
				"embedding": []float64{float64(i + 1), 0, 0},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{"data": data}); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer srv.Close()

	c, err := NewClient(testLogger(t), Config{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	vecs, err := c.Embed(context.Background(), inputs)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vecs) != len(inputs) {
		t.Fatalf("expected %d vectors, got %d", len(inputs), len(vecs))
	}
	for i, v := range vecs {
		if len(v) != 3 || v[0] != float32(i+1) {
			t.Fatalf("vector %d paired with wrong input: %v", i, v)
		}
	}
}

func TestEmbedRetriesOnceWhenIndicesMissing(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		data := []map[string]any{{"index": 0, "embedding": []float64{1, 0}}}
		if calls > 1 {
			data = append(data, map[string]any{"index": 1, "embedding": []float64{0, 1}})
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":%s}`, mustJSON(t, data))
	}))
	defer srv.Close()

	c, err := NewClient(testLogger(t), Config{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	vecs, err := c.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected one retry after incomplete response, got %d calls", calls)
	}
	if len(vecs) != 2 || len(vecs[0]) == 0 || len(vecs[1]) == 0 {
		t.Fatalf("incomplete vectors after retry: %v", vecs)
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(raw)
}
