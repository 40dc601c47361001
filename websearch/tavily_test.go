package websearch_test

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sachinbkale27/agentic-rag/config"
	"github.com/sachinbkale27/agentic-rag/websearch"
)

func newClient(endpoint string) *websearch.Client {
	return websearch.NewClient(config.SearchConfig{
		APIKey:   "test-key",
		Endpoint: endpoint,
	}, log.New(io.Discard, "", 0))
}

func TestSearchConcatenatesResultContent(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"content": "Pizza is made by", "url": "https://example.com/a"},
				{"content": "baking dough."},
			},
		})
	}))
	defer server.Close()

	got, err := newClient(server.URL).Search(context.Background(), "How to make pizza?", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Pizza is made by baking dough." {
		t.Fatalf("unexpected result: %q", got)
	}

	if captured["api_key"] != "test-key" {
		t.Fatalf("expected api_key in request body, got %v", captured["api_key"])
	}
	if captured["query"] != "How to make pizza?" {
		t.Fatalf("expected query in request body, got %v", captured["query"])
	}
	if captured["max_results"] != float64(3) {
		t.Fatalf("expected max_results 3, got %v", captured["max_results"])
	}
}

func TestSearchEmptyResultsArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	}))
	defer server.Close()

	got, err := newClient(server.URL).Search(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestSearchDegradesOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	got, err := newClient(server.URL).Search(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("transport failures must not be errors: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty string on server error, got %q", got)
	}
}

func TestSearchDegradesOnMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	got, err := newClient(server.URL).Search(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("parse failures must not be errors: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty string on malformed response, got %q", got)
	}
}

func TestSearchDegradesWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	got, err := newClient(server.URL).Search(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("connection failures must not be errors: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty string when endpoint is unreachable, got %q", got)
	}
}
