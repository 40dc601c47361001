package chains

import (
	"context"
	"fmt"
	"strings"

	"github.com/sachinbkale27/agentic-rag/llm"
	"github.com/sachinbkale27/agentic-rag/workflow"
)

const generatorInstruction = `You are an assistant for question-answering tasks.
Use the following pieces of retrieved context to answer the question.
If you don't know the answer, just say that you don't know.
Use three sentences maximum and keep the answer concise.`

// Generator produces the free-text answer. Retries belong to the workflow,
// not here.
type Generator struct {
	client llm.Client
}

func NewGenerator(client llm.Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, contextText, question string) (string, error) {
	user := fmt.Sprintf("Question: %s\nContext: %s\nAnswer:", question, contextText)

	answer, err := g.client.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: generatorInstruction},
		{Role: llm.RoleUser, Content: user},
	})
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	return strings.TrimSpace(answer), nil
}

var _ workflow.Generator = (*Generator)(nil)
