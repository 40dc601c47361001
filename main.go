package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sachinbkale27/agentic-rag/api"
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

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "ask":
		askCmd(cfg, logger, os.Args[2:])
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "ingest":
		ingestCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func askCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	question := flags.String("question", "", "question to run through the workflow")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ask flags: %v", err)
	}

	if strings.TrimSpace(*question) == "" {
		fmt.Print("Enter your question: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			*question = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Fatalf("read question: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgPool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	wf := workflow.New(workflow.Deps{
		Router:       chains.NewRouter(llmClient),
		Retriever:    retrieval.NewGateway(retrieval.NewPostgresStore(pgPool), embedder),
		Searcher:     websearch.NewClient(cfg.Search, logger),
		Relevance:    chains.NewRelevanceGrader(llmClient),
		Groundedness: chains.NewGroundednessGrader(llmClient),
		Answer:       chains.NewAnswerGrader(llmClient),
		Generator:    chains.NewGenerator(llmClient),
	}, workflow.Options{
		RetrievalLimit:      cfg.RetrievalLimit,
		SearchMaxResults:    cfg.Search.MaxResults,
		GroundednessRetries: cfg.GroundednessRetries,
		Tracer:              tracing.NewLangSmith(cfg.Tracing, logger),
		Logger:              logger,
	})

	state, err := wf.Invoke(ctx, *question)
	if err != nil {
		logger.Fatalf("workflow failed: %v", err)
	}

	result := state.Result()
	fmt.Println(result.Generation)
	fmt.Printf("\n(%d documents used)\n", result.DocumentsUsed)
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", cfg.ListenAddr, "address to listen on")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server := &http.Server{
		Addr:    *addr,
		Handler: api.New(cfg, logger).Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("server shutdown: %v", err)
		}
	}()

	logger.Printf("listening on %s", *addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("serve: %v", err)
	}
}

func ingestCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	dataDir := flags.String("dir", "", "path to directory containing markdown or PDF documents")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ingest flags: %v", err)
	}
	urls := flags.Args()

	dir := strings.TrimSpace(*dataDir)
	if dir == "" && len(urls) == 0 {
		dir = cfg.DataDir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgPool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	svc := ingestion.NewService(pgPool, embedder, logger, cfg.Embeddings.Dimension)

	if dir != "" {
		logger.Printf("ingesting documents from %s using %s/%s embeddings", dir, strings.ToUpper(cfg.Embeddings.Provider), cfg.Embeddings.Model)
		if err := svc.IngestDirectory(ctx, dir); err != nil {
			logger.Fatalf("ingestion failed: %v", err)
		}
	}

	if len(urls) > 0 {
		if err := svc.IngestURLs(ctx, urls); err != nil {
			logger.Fatalf("url ingestion failed: %v", err)
		}
	}
}

func clearCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse clear flags: %v", err)
	}

	if !*confirmed {
		fmt.Print("This will permanently delete ingested RAG data from Postgres. Continue? [y/N]: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Fatalf("read confirmation: %v", err)
			}
			logger.Println("clear aborted")
			return
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			logger.Println("clear aborted")
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgPool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	if _, err := pgPool.Exec(ctx, "TRUNCATE rag_chunks, rag_documents"); err != nil {
		logger.Fatalf("truncate postgres tables: %v", err)
	}
	logger.Println("cleared rag_documents and rag_chunks")
}

func printUsage() {
	fmt.Println("Usage: agentic-rag <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  ask      Run one question through the routing/retrieval/grading workflow")
	fmt.Println("  serve    Expose the workflow and ingestion over HTTP")
	fmt.Println("  ingest   Ingest markdown/PDF files or URLs into the vector store")
	fmt.Println("  clear    Remove ingested data from Postgres")
}
