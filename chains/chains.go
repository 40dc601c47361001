// Package chains implements the LLM-backed judgment and generation calls.
// Each chain is one chat completion with a fixed system instruction and a
// templated user message; judgment chains parse the reply into a one-field
// structured result and fail the call when the reply does not fit.
package chains

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sachinbkale27/agentic-rag/llm"
)

func invokeStructured(ctx context.Context, client llm.Client, system, user string, out any) error {
	raw, err := client.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	})
	if err != nil {
		return fmt.Errorf("llm generate: %w", err)
	}

	payload := extractJSON(raw)
	if payload == "" {
		return fmt.Errorf("no JSON object in model output %q", raw)
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("parse structured output %q: %w", raw, err)
	}

	return nil
}

// extractJSON returns the outermost JSON object in the reply, tolerating
// surrounding prose and markdown code fences.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return ""
	}
	return raw[start : end+1]
}
