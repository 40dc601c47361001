package api_test

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sachinbkale27/agentic-rag/api"
	"github.com/sachinbkale27/agentic-rag/config"
)

func testServer() *api.Server {
	cfg := config.Config{}
	return api.New(cfg, log.New(io.Discard, "", 0))
}

func doRequest(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "ok" {
		t.Fatalf("expected ok, got %q", resp.Message)
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/api/ask", `{"question": "   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAskRejectsMalformedJSON(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/api/ask", `{"question": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAskRejectsUnknownFields(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/api/ask", `{"question": "q", "model": "gpt-4"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAskRequiresPost(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/api/ask", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestClearRequiresConfirmation(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/api/clear", `{"confirm": false}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.Error, "confirm") {
		t.Fatalf("error should mention confirmation, got %q", resp.Error)
	}
}

func TestErrorsAreJSON(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/api/ask", `not json`)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected json content type, got %q", ct)
	}
}
