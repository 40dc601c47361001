package chains

import (
	"context"
	"fmt"

	"github.com/sachinbkale27/agentic-rag/llm"
	"github.com/sachinbkale27/agentic-rag/workflow"
)

const answerInstruction = `You are a grader assessing whether an answer addresses / resolves a question.
Respond with a JSON object of the form {"addresses_question": true} or {"addresses_question": false}.
True means that the answer resolves the question.`

// AnswerGrader judges whether a generation actually answers the question.
type AnswerGrader struct {
	client llm.Client
}

func NewAnswerGrader(client llm.Client) *AnswerGrader {
	return &AnswerGrader{client: client}
}

func (g *AnswerGrader) GradeAnswer(ctx context.Context, question, generation string) (workflow.AnswerGrade, error) {
	var out struct {
		AddressesQuestion bool `json:"addresses_question"`
	}

	user := fmt.Sprintf("User question:\n%s\n\nLLM generation: %s", question, generation)
	if err := invokeStructured(ctx, g.client, answerInstruction, user, &out); err != nil {
		return workflow.AnswerGrade{}, fmt.Errorf("grade answer: %w", err)
	}

	return workflow.AnswerGrade{AddressesQuestion: out.AddressesQuestion}, nil
}

var _ workflow.AnswerGrader = (*AnswerGrader)(nil)
