package chains

import (
	"context"
	"fmt"

	"github.com/sachinbkale27/agentic-rag/llm"
	"github.com/sachinbkale27/agentic-rag/workflow"
)

const groundednessInstruction = `You are a grader assessing whether an LLM generation is grounded in / supported by a set of retrieved facts.
Respond with a JSON object of the form {"grounded": true} or {"grounded": false}.
True means that the answer is grounded in / supported by the set of facts.`

// GroundednessGrader detects hallucinations: generated claims not supported
// by the provided context.
type GroundednessGrader struct {
	client llm.Client
}

func NewGroundednessGrader(client llm.Client) *GroundednessGrader {
	return &GroundednessGrader{client: client}
}

func (g *GroundednessGrader) GradeGroundedness(ctx context.Context, documents, generation string) (workflow.GroundednessGrade, error) {
	var out struct {
		Grounded bool `json:"grounded"`
	}

	user := fmt.Sprintf("Set of facts:\n%s\n\nLLM generation: %s", documents, generation)
	if err := invokeStructured(ctx, g.client, groundednessInstruction, user, &out); err != nil {
		return workflow.GroundednessGrade{}, fmt.Errorf("grade groundedness: %w", err)
	}

	return workflow.GroundednessGrade{Grounded: out.Grounded}, nil
}

var _ workflow.GroundednessGrader = (*GroundednessGrader)(nil)
