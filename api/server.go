// Package api exposes the question-answering workflow and the ingestion
// pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sachinbkale27/agentic-rag/chains"
	"github.com/sachinbkale27/agentic-rag/config"
	"github.com/sachinbkale27/agentic-rag/database"
	"github.com/sachinbkale27/agentic-rag/embeddings"
	"github.com/sachinbkale27/agentic-rag/ingestion"
	"github.com/sachinbkale27/agentic-rag/llm"
	"github.com/sachinbkale27/agentic-rag/retrieval"
	"github.com/sachinbkale27/agentic-rag/tracing"
	"github.com/sachinbkale27/agentic-rag/websearch"
	"github.com/sachinbkale27/agentic-rag/workflow"
)

type Server struct {
	cfg     config.Config
	logger  *log.Logger
	handler http.Handler
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type askRequest struct {
	Question string `json:"question"`
}

type ingestRequest struct {
	Dir  string   `json:"dir"`
	URLs []string `json:"urls"`
}

type clearRequest struct {
	Confirm bool `json:"confirm"`
}

func New(cfg config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{cfg: cfg, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/ask", s.handleAsk).Methods(http.MethodPost)
	r.HandleFunc("/api/ingest", s.handleIngest).Methods(http.MethodPost)
	r.HandleFunc("/api/clear", s.handleClear).Methods(http.MethodPost)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("question cannot be empty"))
		return
	}

	ctx := r.Context()

	pgPool, err := database.NewPostgresPool(ctx, s.cfg.PostgresDSN)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("postgres connection: %w", err))
		return
	}
	defer pgPool.Close()

	wf, err := s.newWorkflow(pgPool)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	state, err := wf.Invoke(ctx, req.Question)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("workflow failed: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, state.Result())
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	dir := strings.TrimSpace(req.Dir)
	if dir == "" && len(req.URLs) == 0 {
		dir = s.cfg.DataDir
	}

	ctx := r.Context()

	pgPool, err := database.NewPostgresPool(ctx, s.cfg.PostgresDSN)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("postgres connection: %w", err))
		return
	}
	defer pgPool.Close()

	embedder, err := embeddings.NewEmbedder(s.cfg)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("embedder setup: %w", err))
		return
	}

	svc := ingestion.NewService(pgPool, embedder, s.logger, s.cfg.Embeddings.Dimension)

	if dir != "" {
		if err := svc.IngestDirectory(ctx, dir); err != nil {
			s.writeError(w, http.StatusInternalServerError, fmt.Errorf("ingestion failed: %w", err))
			return
		}
	}
	if len(req.URLs) > 0 {
		if err := svc.IngestURLs(ctx, req.URLs); err != nil {
			s.writeError(w, http.StatusInternalServerError, fmt.Errorf("url ingestion failed: %w", err))
			return
		}
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ingestion complete"})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if !req.Confirm {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("confirm must be true to clear ingested data"))
		return
	}

	ctx := r.Context()

	pgPool, err := database.NewPostgresPool(ctx, s.cfg.PostgresDSN)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("postgres connection: %w", err))
		return
	}
	defer pgPool.Close()

	if err := clearData(ctx, pgPool); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ingested data cleared"})
}

// newWorkflow wires the chains and gateways against shared provider config.
func (s *Server) newWorkflow(pool *pgxpool.Pool) (*workflow.Workflow, error) {
	embedder, err := embeddings.NewEmbedder(s.cfg)
	if err != nil {
		return nil, fmt.Errorf("embedder setup: %w", err)
	}

	llmClient, err := llm.NewClient(s.cfg)
	if err != nil {
		return nil, fmt.Errorf("llm setup: %w", err)
	}

	deps := workflow.Deps{
		Router:       chains.NewRouter(llmClient),
		Retriever:    retrieval.NewGateway(retrieval.NewPostgresStore(pool), embedder),
		Searcher:     websearch.NewClient(s.cfg.Search, s.logger),
		Relevance:    chains.NewRelevanceGrader(llmClient),
		Groundedness: chains.NewGroundednessGrader(llmClient),
		Answer:       chains.NewAnswerGrader(llmClient),
		Generator:    chains.NewGenerator(llmClient),
	}

	return workflow.New(deps, workflow.Options{
		RetrievalLimit:      s.cfg.RetrievalLimit,
		SearchMaxResults:    s.cfg.Search.MaxResults,
		GroundednessRetries: s.cfg.GroundednessRetries,
		Tracer:              tracing.NewLangSmith(s.cfg.Tracing, s.logger),
		Logger:              s.logger,
	}), nil
}

func clearData(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, "TRUNCATE rag_chunks, rag_documents"); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

func decodeJSON(r *http.Request, dst any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Printf("http error: %v", err)
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
