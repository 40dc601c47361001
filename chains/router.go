package chains

import (
	"context"
	"fmt"

	"github.com/sachinbkale27/agentic-rag/llm"
	"github.com/sachinbkale27/agentic-rag/workflow"
)

const routerInstruction = `You are an expert at routing a user question to a vectorstore or web_search.
The vectorstore contains documents related to agents, prompt engineering and adversarial attacks.
Use the vectorstore for questions on these topics. For everything else, use web_search.
Respond with a JSON object of the form {"datasource": "vectorstore"} or {"datasource": "web_search"}.`

// Router picks the datasource for a question.
type Router struct {
	client llm.Client
}

func NewRouter(client llm.Client) *Router {
	return &Router{client: client}
}

func (r *Router) Route(ctx context.Context, question string) (workflow.RouteDecision, error) {
	var out struct {
		Datasource string `json:"datasource"`
	}

	user := fmt.Sprintf("Question: %s", question)
	if err := invokeStructured(ctx, r.client, routerInstruction, user, &out); err != nil {
		return workflow.RouteDecision{}, fmt.Errorf("route question: %w", err)
	}

	return workflow.RouteDecision{Datasource: workflow.Datasource(out.Datasource)}, nil
}

var _ workflow.Router = (*Router)(nil)
