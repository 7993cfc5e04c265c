package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Local model server (Ollama-compatible)
	OllamaBaseURL  string
	LLMModel       string
	MindmapModel   string
	FlashquizModel string
	SummaryModel   string
	EmbeddingModel string
	EmbeddingDim   int

	// Offline corpus server (Kiwix-compatible)
	CorpusBaseURL     string
	SearchPageLength  int
	HTTPTimeout       time.Duration
	SearchConcurrency int

	// Context preparation
	ChunkSize        int
	ChunkOverlap     int
	MaxFallbackWords int
	TopChunks        int
	TopHits          int

	// Cache lookup
	SimilarityThreshold float64

	// Generation parameters
	MindmapTemperature   float64
	FlashquizTemperature float64
	SummaryTemperature   float64
	MindmapMaxTokens     int
	FlashquizMaxTokens   int
	SummaryMaxTokens     int
	TranslateMaxTokens   int
	KeywordMaxTokens     int
	QuestionCount        int

	ServerPort string
	ServerHost string

	// Observability
	JaegerEndpoint string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "lentera"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://127.0.0.1:11434"),
		LLMModel:       getEnv("DEFAULT_LLM_MODEL", "hf.co/second-state/gemma-3n-E2B-it-GGUF:Q5_K_S"),
		MindmapModel:   getEnv("MINDMAP_MODEL", "hf.co/second-state/gemma-3n-E2B-it-GGUF:Q5_K_S"),
		FlashquizModel: getEnv("FLASHQUIZ_MODEL", "hf.co/second-state/gemma-3n-E2B-it-GGUF:Q5_K_S"),
		SummaryModel:   getEnv("SUMMARY_MODEL", "hf.co/second-state/gemma-3n-E2B-it-GGUF:Q5_K_S"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "all-minilm:l12-v2"),
		EmbeddingDim:   getEnvInt("EMBEDDING_DIM", 384),

		CorpusBaseURL:     getEnv("CONTENT_FETCH_BASE", "http://127.0.0.1:8090"),
		SearchPageLength:  getEnvInt("SEARCH_PAGE_LENGTH", 140),
		HTTPTimeout:       time.Duration(getEnvInt("HTTP_TIMEOUT_MS", 5000)) * time.Millisecond,
		SearchConcurrency: getEnvInt("KIWIX_CONCURRENCY_LIMIT", 4),

		ChunkSize:        getEnvInt("DEFAULT_CHUNK_SIZE", 300),
		ChunkOverlap:     getEnvInt("DEFAULT_CHUNK_OVERLAP", 30),
		MaxFallbackWords: getEnvInt("MAX_WORDS", 1000),
		TopChunks:        getEnvInt("TOP_CHUNKS", 7),
		TopHits:          getEnvInt("TOP_HITS", 25),

		SimilarityThreshold: getEnvFloat("DEFAULT_SIMILARITY_THRESHOLD", 90),

		MindmapTemperature:   getEnvFloat("MINDMAP_TEMPERATURE", 0.5),
		FlashquizTemperature: getEnvFloat("FLASHQUIZ_TEMPERATURE", 0.2),
		SummaryTemperature:   getEnvFloat("SUMMARY_TEMPERATURE", 0.2),
		MindmapMaxTokens:     getEnvInt("MINDMAP_MAX_TOKENS", 1024),
		FlashquizMaxTokens:   getEnvInt("FLASHQUIZ_MAX_TOKENS", 1024),
		SummaryMaxTokens:     getEnvInt("SUMMARY_MAX_TOKENS", 512),
		TranslateMaxTokens:   getEnvInt("TRANSLATE_MAX_TOKENS", 128),
		KeywordMaxTokens:     getEnvInt("KEYWORD_MAX_TOKENS", 128),
		QuestionCount:        getEnvInt("DEFAULT_QUESTION_COUNT", 5),

		ServerPort: getEnv("SERVER_PORT", "8080"),
		ServerHost: getEnv("SERVER_HOST", "localhost"),

		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("DEFAULT_CHUNK_OVERLAP (%d) must be smaller than DEFAULT_CHUNK_SIZE (%d)",
			cfg.ChunkOverlap, cfg.ChunkSize)
	}

	return cfg, nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
