package chains_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sachinbkale27/agentic-rag/chains"
	"github.com/sachinbkale27/agentic-rag/llm"
	"github.com/sachinbkale27/agentic-rag/workflow"
)

type stubLLM struct {
	reply    string
	err      error
	messages []llm.Message
}

func (s *stubLLM) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	s.messages = messages
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

var _ llm.Client = (*stubLLM)(nil)

func TestRouterParsesDatasource(t *testing.T) {
	client := &stubLLM{reply: `{"datasource": "vectorstore"}`}
	router := chains.NewRouter(client)

	decision, err := router.Route(context.Background(), "What are LLM agents?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Datasource != workflow.DatasourceVectorstore {
		t.Fatalf("expected vectorstore, got %q", decision.Datasource)
	}

	if len(client.messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(client.messages))
	}
	if client.messages[0].Role != llm.RoleSystem {
		t.Fatalf("first message should be the system instruction, got role %q", client.messages[0].Role)
	}
	if !strings.Contains(client.messages[1].Content, "What are LLM agents?") {
		t.Fatalf("user message should carry the question, got %q", client.messages[1].Content)
	}
}

func TestRouterToleratesCodeFences(t *testing.T) {
	client := &stubLLM{reply: "```json\n{\"datasource\": \"web_search\"}\n```"}
	router := chains.NewRouter(client)

	decision, err := router.Route(context.Background(), "How to make pizza?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Datasource != workflow.DatasourceWebSearch {
		t.Fatalf("expected web_search, got %q", decision.Datasource)
	}
}

func TestRouterRejectsNonJSONOutput(t *testing.T) {
	client := &stubLLM{reply: "I would use the vectorstore for this."}
	router := chains.NewRouter(client)

	if _, err := router.Route(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for unparseable output")
	}
}

func TestRouterPropagatesLLMError(t *testing.T) {
	client := &stubLLM{err: errors.New("rate limited")}
	router := chains.NewRouter(client)

	if _, err := router.Route(context.Background(), "anything"); err == nil {
		t.Fatal("expected llm error to propagate")
	}
}

func TestRelevanceGraderParsesBoolean(t *testing.T) {
	client := &stubLLM{reply: `{"relevant": true}`}
	grader := chains.NewRelevanceGrader(client)

	grade, err := grader.GradeRelevance(context.Background(), "agents plan and act", "What are LLM agents?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !grade.Relevant {
		t.Fatal("expected relevant=true")
	}
}

func TestRelevanceGraderRejectsStringScore(t *testing.T) {
	// The schema is boolean; a yes/no string must fail the call, not
	// silently default.
	client := &stubLLM{reply: `{"relevant": "yes"}`}
	grader := chains.NewRelevanceGrader(client)

	if _, err := grader.GradeRelevance(context.Background(), "doc", "question"); err == nil {
		t.Fatal("expected error for non-boolean score")
	}
}

func TestGroundednessGraderParsesBoolean(t *testing.T) {
	client := &stubLLM{reply: `{"grounded": false}`}
	grader := chains.NewGroundednessGrader(client)

	grade, err := grader.GradeGroundedness(context.Background(), "facts", "generation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if grade.Grounded {
		t.Fatal("expected grounded=false")
	}
	if !strings.Contains(client.messages[1].Content, "Set of facts:") {
		t.Fatalf("user message should carry the facts, got %q", client.messages[1].Content)
	}
}

func TestAnswerGraderParsesBoolean(t *testing.T) {
	client := &stubLLM{reply: `{"addresses_question": true}`}
	grader := chains.NewAnswerGrader(client)

	grade, err := grader.GradeAnswer(context.Background(), "question", "generation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !grade.AddressesQuestion {
		t.Fatal("expected addresses_question=true")
	}
}

func TestGeneratorReturnsTrimmedAnswer(t *testing.T) {
	client := &stubLLM{reply: "  Agents are LLM-driven systems.\n"}
	generator := chains.NewGenerator(client)

	answer, err := generator.Generate(context.Background(), "context text", "What are LLM agents?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Agents are LLM-driven systems." {
		t.Fatalf("expected trimmed answer, got %q", answer)
	}
	if !strings.Contains(client.messages[1].Content, "Context: context text") {
		t.Fatalf("user message should carry the context, got %q", client.messages[1].Content)
	}
}
