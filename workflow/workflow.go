// Package workflow drives the routing, retrieval, grading, generation, and
// self-correction sequence for one question at a time.
package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sachinbkale27/agentic-rag/tracing"
)

const (
	defaultRetrievalLimit      = 4
	defaultSearchMaxResults    = 3
	defaultGroundednessRetries = 3
)

// Router picks the datasource that should service a question.
type Router interface {
	Route(ctx context.Context, question string) (RouteDecision, error)
}

// RelevanceGrader judges one document against the question.
type RelevanceGrader interface {
	GradeRelevance(ctx context.Context, document, question string) (RelevanceGrade, error)
}

// GroundednessGrader judges a generation against the documents it came from.
type GroundednessGrader interface {
	GradeGroundedness(ctx context.Context, documents, generation string) (GroundednessGrade, error)
}

// AnswerGrader judges whether a generation addresses the question.
type AnswerGrader interface {
	GradeAnswer(ctx context.Context, question, generation string) (AnswerGrade, error)
}

// Generator produces an answer from concatenated context and the question.
type Generator interface {
	Generate(ctx context.Context, contextText, question string) (string, error)
}

// Retriever returns up to limit passages ranked by similarity to the query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]Document, error)
}

// WebSearcher returns concatenated search result text for the query. An empty
// string means no new information and is not an error.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) (string, error)
}

// Deps are the collaborators the workflow calls into. All fields are required.
type Deps struct {
	Router       Router
	Retriever    Retriever
	Searcher     WebSearcher
	Relevance    RelevanceGrader
	Groundedness GroundednessGrader
	Answer       AnswerGrader
	Generator    Generator
}

type Options struct {
	// RetrievalLimit is the K passed to the retriever. Default 4.
	RetrievalLimit int
	// SearchMaxResults is passed to the web searcher. Default 3.
	SearchMaxResults int
	// GroundednessRetries caps re-generations when the groundedness check
	// keeps failing; once spent, the last generation is returned as a
	// best-effort answer instead of looping further. Default 3.
	GroundednessRetries int

	Tracer tracing.Tracer
	Logger *log.Logger
}

// Workflow executes the fixed state machine. Safe for concurrent Invoke calls:
// all per-question data lives in the State value.
type Workflow struct {
	deps Deps

	retrievalLimit      int
	searchMaxResults    int
	groundednessRetries int

	tracer tracing.Tracer
	logger *log.Logger
}

func New(deps Deps, opts Options) *Workflow {
	if opts.RetrievalLimit <= 0 {
		opts.RetrievalLimit = defaultRetrievalLimit
	}
	if opts.SearchMaxResults <= 0 {
		opts.SearchMaxResults = defaultSearchMaxResults
	}
	if opts.GroundednessRetries <= 0 {
		opts.GroundednessRetries = defaultGroundednessRetries
	}
	if opts.Tracer == nil {
		opts.Tracer = tracing.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Workflow{
		deps:                deps,
		retrievalLimit:      opts.RetrievalLimit,
		searchMaxResults:    opts.SearchMaxResults,
		groundednessRetries: opts.GroundednessRetries,
		tracer:              opts.Tracer,
		logger:              opts.Logger,
	}
}

// Invoke runs the full workflow for one question and returns the final state.
// The caller sees either a complete result or a single terminal error; there
// is no partial-result contract.
func (w *Workflow) Invoke(ctx context.Context, question string) (State, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return State{}, fmt.Errorf("question cannot be empty")
	}
	if err := w.checkDeps(); err != nil {
		return State{}, err
	}

	w.logger.Printf("starting workflow for question: %s", question)

	runID := w.tracer.StartRun(tracing.RunTypeChain, "AgenticRAGWorkflow",
		map[string]any{"question": question}, "")

	final, err := w.run(ctx, runID, State{Question: question})
	if err != nil {
		w.tracer.EndRun(runID, nil, err)
		return State{}, err
	}

	w.logger.Printf("workflow completed, answer: %s", final.Generation)
	w.tracer.EndRun(runID, map[string]any{
		"question":       final.Question,
		"answer":         final.Generation,
		"documents_used": len(final.Documents),
	}, nil)

	return final, nil
}

func (w *Workflow) run(ctx context.Context, parentRunID string, state State) (State, error) {
	route, err := w.routeQuestion(ctx, parentRunID, state.Question)
	if err != nil {
		return State{}, err
	}

	// The pure web-search path answers directly and deliberately bypasses
	// both quality gates; only the vectorstore path is quality-checked.
	if route == DatasourceWebSearch {
		state, err = w.webSearch(ctx, parentRunID, state)
		if err != nil {
			return State{}, err
		}
		return w.generate(ctx, parentRunID, state)
	}

	state, err = w.retrieve(ctx, parentRunID, state)
	if err != nil {
		return State{}, err
	}

	state, err = w.gradeDocuments(ctx, parentRunID, state)
	if err != nil {
		return State{}, err
	}

	if state.NeedsWebSearch {
		w.logger.Printf("decision: not all documents are relevant, supplementing with web search")
		state, err = w.webSearch(ctx, parentRunID, state)
		if err != nil {
			return State{}, err
		}
	} else {
		w.logger.Printf("decision: generate")
	}

	state, err = w.generate(ctx, parentRunID, state)
	if err != nil {
		return State{}, err
	}

	return w.checkGeneration(ctx, parentRunID, state)
}

func (w *Workflow) routeQuestion(ctx context.Context, parentRunID, question string) (Datasource, error) {
	w.logger.Printf("routing question")
	runID := w.tracer.StartRun(tracing.RunTypeChain, "RouteQuestion",
		map[string]any{"question": question}, parentRunID)

	decision, err := w.deps.Router.Route(ctx, question)
	if err != nil {
		w.tracer.EndRun(runID, nil, err)
		return "", fmt.Errorf("route question: %w", err)
	}

	w.tracer.EndRun(runID, map[string]any{"datasource": string(decision.Datasource)}, nil)

	switch decision.Datasource {
	case DatasourceVectorstore:
		w.logger.Printf("route: vectorstore")
		return DatasourceVectorstore, nil
	case DatasourceWebSearch:
		w.logger.Printf("route: web search")
		return DatasourceWebSearch, nil
	default:
		// Unrecognized datasource values fall back to web search rather
		// than failing the request.
		w.logger.Printf("route: unrecognized datasource %q, defaulting to web search", decision.Datasource)
		return DatasourceWebSearch, nil
	}
}

func (w *Workflow) retrieve(ctx context.Context, parentRunID string, state State) (State, error) {
	w.logger.Printf("retrieving documents")
	runID := w.tracer.StartRun(tracing.RunTypeRetriever, "RetrieveDocuments",
		map[string]any{"question": state.Question}, parentRunID)

	docs, err := w.deps.Retriever.Retrieve(ctx, state.Question, w.retrievalLimit)
	if err != nil {
		w.tracer.EndRun(runID, nil, err)
		return State{}, fmt.Errorf("retrieve documents: %w", err)
	}
	if docs == nil {
		docs = []Document{}
	}

	w.tracer.EndRun(runID, map[string]any{"num_documents": len(docs)}, nil)
	return state.withDocuments(docs), nil
}

func (w *Workflow) gradeDocuments(ctx context.Context, parentRunID string, state State) (State, error) {
	w.logger.Printf("grading document relevance")
	runID := w.tracer.StartRun(tracing.RunTypeChain, "GradeDocuments",
		map[string]any{"question": state.Question, "num_documents": len(state.Documents)}, parentRunID)

	kept := make([]Document, 0, len(state.Documents))
	dropped := 0

	for _, doc := range state.Documents {
		grade, err := w.deps.Relevance.GradeRelevance(ctx, doc.Text, state.Question)
		if err != nil {
			w.tracer.EndRun(runID, nil, err)
			return State{}, fmt.Errorf("grade document relevance: %w", err)
		}
		if grade.Relevant {
			kept = append(kept, doc)
		} else {
			dropped++
		}
	}

	w.tracer.EndRun(runID, map[string]any{
		"relevant_documents": len(kept),
		"total_documents":    len(state.Documents),
		"needs_web_search":   dropped > 0,
	}, nil)

	return state.withDocuments(kept).withNeedsWebSearch(dropped > 0), nil
}

func (w *Workflow) webSearch(ctx context.Context, parentRunID string, state State) (State, error) {
	w.logger.Printf("performing web search")
	runID := w.tracer.StartRun(tracing.RunTypeTool, "WebSearch",
		map[string]any{"question": state.Question}, parentRunID)

	results, err := w.deps.Searcher.Search(ctx, state.Question, w.searchMaxResults)
	if err != nil {
		w.tracer.EndRun(runID, nil, err)
		return State{}, fmt.Errorf("web search: %w", err)
	}

	if strings.TrimSpace(results) == "" {
		// Degraded search yields no new information; carry on with what
		// we have instead of appending an empty document.
		w.logger.Printf("web search returned no content")
		w.tracer.EndRun(runID, map[string]any{
			"search_results_length": 0,
			"total_documents":       len(state.Documents),
		}, nil)
		return state, nil
	}

	state = state.withAppended(WebSearchDocument(results))
	w.tracer.EndRun(runID, map[string]any{
		"search_results_length": len(results),
		"total_documents":       len(state.Documents),
	}, nil)
	return state, nil
}

func (w *Workflow) generate(ctx context.Context, parentRunID string, state State) (State, error) {
	w.logger.Printf("generating answer from %d documents", len(state.Documents))
	contextText := state.ContextText()

	runID := w.tracer.StartRun(tracing.RunTypeLLM, "GenerateAnswer", map[string]any{
		"question":      state.Question,
		"context":       truncate(contextText, 500),
		"num_documents": len(state.Documents),
	}, parentRunID)

	generation, err := w.deps.Generator.Generate(ctx, contextText, state.Question)
	if err != nil {
		w.tracer.EndRun(runID, nil, err)
		return State{}, fmt.Errorf("generate answer: %w", err)
	}

	w.tracer.EndRun(runID, map[string]any{"generation": generation}, nil)
	return state.withGeneration(generation), nil
}

// checkGeneration runs the two-stage quality gate. An always-failing
// groundedness grader would otherwise regenerate forever, so regenerations
// are capped; once the cap is reached the last generation is returned as-is.
func (w *Workflow) checkGeneration(ctx context.Context, parentRunID string, state State) (State, error) {
	for attempt := 0; ; attempt++ {
		w.logger.Printf("checking groundedness")
		grounded, err := w.gradeGroundedness(ctx, parentRunID, state)
		if err != nil {
			return State{}, err
		}

		if !grounded {
			if attempt >= w.groundednessRetries {
				w.logger.Printf("groundedness retries exhausted after %d regenerations, returning last answer", attempt)
				return state, nil
			}
			w.logger.Printf("decision: generation is not grounded in documents, regenerating")
			state, err = w.generate(ctx, parentRunID, state)
			if err != nil {
				return State{}, err
			}
			continue
		}

		w.logger.Printf("decision: generation is grounded, grading answer against question")
		addresses, err := w.gradeAnswer(ctx, parentRunID, state)
		if err != nil {
			return State{}, err
		}

		if addresses {
			w.logger.Printf("decision: generation addresses question")
			return state, nil
		}

		// One corrective pass: add a web search result and regenerate,
		// then stop regardless of the new answer's quality.
		w.logger.Printf("decision: generation does not address question, adding web search context")
		state, err = w.webSearch(ctx, parentRunID, state)
		if err != nil {
			return State{}, err
		}
		return w.generate(ctx, parentRunID, state)
	}
}

func (w *Workflow) gradeGroundedness(ctx context.Context, parentRunID string, state State) (bool, error) {
	runID := w.tracer.StartRun(tracing.RunTypeChain, "CheckGroundedness",
		map[string]any{"num_documents": len(state.Documents)}, parentRunID)

	grade, err := w.deps.Groundedness.GradeGroundedness(ctx, state.ContextText(), state.Generation)
	if err != nil {
		w.tracer.EndRun(runID, nil, err)
		return false, fmt.Errorf("grade groundedness: %w", err)
	}

	w.tracer.EndRun(runID, map[string]any{"grounded": grade.Grounded}, nil)
	return grade.Grounded, nil
}

func (w *Workflow) gradeAnswer(ctx context.Context, parentRunID string, state State) (bool, error) {
	runID := w.tracer.StartRun(tracing.RunTypeChain, "GradeAnswer",
		map[string]any{"question": state.Question}, parentRunID)

	grade, err := w.deps.Answer.GradeAnswer(ctx, state.Question, state.Generation)
	if err != nil {
		w.tracer.EndRun(runID, nil, err)
		return false, fmt.Errorf("grade answer: %w", err)
	}

	w.tracer.EndRun(runID, map[string]any{"addresses_question": grade.AddressesQuestion}, nil)
	return grade.AddressesQuestion, nil
}

func (w *Workflow) checkDeps() error {
	switch {
	case w.deps.Router == nil:
		return fmt.Errorf("router is not configured")
	case w.deps.Retriever == nil:
		return fmt.Errorf("retriever is not configured")
	case w.deps.Searcher == nil:
		return fmt.Errorf("web searcher is not configured")
	case w.deps.Relevance == nil:
		return fmt.Errorf("relevance grader is not configured")
	case w.deps.Groundedness == nil:
		return fmt.Errorf("groundedness grader is not configured")
	case w.deps.Answer == nil:
		return fmt.Errorf("answer grader is not configured")
	case w.deps.Generator == nil:
		return fmt.Errorf("generator is not configured")
	}
	return nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
