package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type LLMConfig struct {
	Provider string
	Model    string
}

type EmbeddingsConfig struct {
	Provider  string
	Model     string
	Dimension int
}

type SearchConfig struct {
	APIKey     string
	Endpoint   string
	MaxResults int
}

type TracingConfig struct {
	Enabled  bool
	APIKey   string
	Project  string
	Endpoint string
}

type Config struct {
	PostgresDSN string
	DataDir     string
	ListenAddr  string

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	LLM        LLMConfig
	Embeddings EmbeddingsConfig
	Search     SearchConfig
	Tracing    TracingConfig

	RetrievalLimit      int
	GroundednessRetries int
}

func Load() Config {
	// A missing .env file is fine; deployed environments set variables directly.
	_ = godotenv.Load()

	return Config{
		PostgresDSN: getEnv("POSTGRES_DSN", "postgres://localhost:5432/agentic-rag?sslmode=disable"),
		DataDir:     getEnv("DATA_DIR", "data"),
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),

		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),

		LLM: LLMConfig{
			Provider: getEnv("LLM_PROVIDER", ProviderOpenAI),
			Model:    getEnv("LLM_MODEL", "gpt-4"),
		},
		Embeddings: EmbeddingsConfig{
			Provider:  getEnv("EMBEDDINGS_PROVIDER", ProviderOpenAI),
			Model:     getEnv("EMBEDDINGS_MODEL", "text-embedding-ada-002"),
			Dimension: getEnvInt("EMBEDDINGS_DIMENSION", 1536),
		},
		Search: SearchConfig{
			APIKey:     getEnv("TAVILY_API_KEY", ""),
			Endpoint:   getEnv("TAVILY_ENDPOINT", "https://api.tavily.com/search"),
			MaxResults: getEnvInt("SEARCH_MAX_RESULTS", 3),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvBool("LANGSMITH_TRACING_ENABLED", true),
			APIKey:   getEnv("LANGSMITH_API_KEY", ""),
			Project:  getEnv("LANGSMITH_PROJECT", "agentic-rag"),
			Endpoint: getEnv("LANGSMITH_ENDPOINT", "https://api.smith.langchain.com"),
		},

		RetrievalLimit:      getEnvInt("RETRIEVAL_LIMIT", 4),
		GroundednessRetries: getEnvInt("GROUNDEDNESS_RETRIES", 3),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
