package chains

import (
	"context"
	"fmt"

	"github.com/sachinbkale27/agentic-rag/llm"
	"github.com/sachinbkale27/agentic-rag/workflow"
)

const relevanceInstruction = `You are a grader assessing relevance of a retrieved document to a user question.
If the document contains keyword(s) or semantic meaning related to the question, grade it as relevant.
Respond with a JSON object of the form {"relevant": true} or {"relevant": false}.`

// RelevanceGrader judges one document against the question.
type RelevanceGrader struct {
	client llm.Client
}

func NewRelevanceGrader(client llm.Client) *RelevanceGrader {
	return &RelevanceGrader{client: client}
}

func (g *RelevanceGrader) GradeRelevance(ctx context.Context, document, question string) (workflow.RelevanceGrade, error) {
	var out struct {
		Relevant bool `json:"relevant"`
	}

	user := fmt.Sprintf("Retrieved document:\n%s\n\nUser question: %s", document, question)
	if err := invokeStructured(ctx, g.client, relevanceInstruction, user, &out); err != nil {
		return workflow.RelevanceGrade{}, fmt.Errorf("grade relevance: %w", err)
	}

	return workflow.RelevanceGrade{Relevant: out.Relevant}, nil
}

var _ workflow.RelevanceGrader = (*RelevanceGrader)(nil)
