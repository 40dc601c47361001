package retrieval

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sachinbkale27/agentic-rag/embeddings"
	"github.com/sachinbkale27/agentic-rag/workflow"
)

// Gateway embeds a query and searches the store, returning documents ordered
// by descending similarity. An empty result is valid, not an error.
type Gateway struct {
	store    Store
	embedder embeddings.Embedder
}

func NewGateway(store Store, embedder embeddings.Embedder) *Gateway {
	return &Gateway{store: store, embedder: embedder}
}

func (g *Gateway) Retrieve(ctx context.Context, query string, limit int) ([]workflow.Document, error) {
	if g.embedder == nil {
		return nil, fmt.Errorf("embedder is not configured")
	}
	if g.store == nil {
		return nil, fmt.Errorf("vector store is not configured")
	}

	vectors, err := g.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}

	matches, err := g.store.SimilarChunks(ctx, vectors[0], limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make([]workflow.Document, len(matches))
	for i, m := range matches {
		docs[i] = workflow.Document{
			Text: m.Content,
			Metadata: map[string]string{
				workflow.MetadataSource: m.Source,
				"title":                 m.Title,
				"score":                 strconv.FormatFloat(m.Score, 'f', 4, 64),
			},
		}
	}

	return docs, nil
}

var _ workflow.Retriever = (*Gateway)(nil)
