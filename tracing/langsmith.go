package tracing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sachinbkale27/agentic-rag/config"
)

// LangSmith sends run records to the LangSmith runs API: POST /runs to open a
// run, PATCH /runs/{id} to close it.
type LangSmith struct {
	apiKey   string
	project  string
	endpoint string
	client   *http.Client
	logger   *log.Logger
}

func NewLangSmith(cfg config.TracingConfig, logger *log.Logger) *LangSmith {
	if logger == nil {
		logger = log.Default()
	}

	t := &LangSmith{
		apiKey:   cfg.APIKey,
		project:  cfg.Project,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}

	if !cfg.Enabled {
		t.apiKey = ""
	}

	if t.configured() {
		logger.Printf("langsmith tracing enabled for project %s", t.project)
	} else {
		logger.Printf("langsmith tracing disabled")
	}

	return t
}

func (t *LangSmith) configured() bool {
	return t.apiKey != "" && t.endpoint != ""
}

func (t *LangSmith) StartRun(runType, name string, inputs map[string]any, parentRunID string) string {
	if !t.configured() {
		return ""
	}

	runID := uuid.NewString()

	run := map[string]any{
		"id":              runID,
		"name":            name,
		"run_type":        runType,
		"inputs":          orEmpty(inputs),
		"start_time":      time.Now().UTC().Format(time.RFC3339Nano),
		"execution_order": 1,
		"session_name":    t.project,
		"extra": map[string]any{
			"runtime": map[string]any{"platform": "go", "sdk": "custom"},
		},
	}
	if parentRunID != "" {
		run["parent_run_id"] = parentRunID
	}

	if err := t.send(http.MethodPost, "runs", run); err != nil {
		t.logger.Printf("failed to start langsmith run %s: %v", name, err)
		return ""
	}
	return runID
}

func (t *LangSmith) EndRun(runID string, outputs map[string]any, runErr error) {
	if !t.configured() || runID == "" {
		return
	}

	update := map[string]any{
		"end_time": time.Now().UTC().Format(time.RFC3339Nano),
		"outputs":  orEmpty(outputs),
	}
	if runErr != nil {
		update["error"] = runErr.Error()
	}

	if err := t.send(http.MethodPatch, "runs/"+runID, update); err != nil {
		t.logger.Printf("failed to end langsmith run %s: %v", runID, err)
	}
}

func (t *LangSmith) send(method, path string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal run payload: %w", err)
	}

	req, err := http.NewRequest(method, t.endpoint+"/"+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send run payload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("langsmith API error %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

var _ Tracer = (*LangSmith)(nil)
