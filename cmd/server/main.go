package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lentera/internal/api"
	"lentera/internal/config"
	"lentera/internal/db"
	"lentera/internal/kiwix"
	"lentera/internal/ollama"
	"lentera/internal/progress"
	"lentera/internal/repository"
	"lentera/internal/services"
	"lentera/internal/telemetry"
)

func main() {
	log.Println("Starting lentera search service...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Tracing goes up first so every later init is traced.
	jaegerShutdown, err := telemetry.InitJaeger("lentera", cfg.JaegerEndpoint)
	if err != nil {
		log.Printf("Failed to initialize Jaeger: %v (continuing without tracing)", err)
		jaegerShutdown = func(ctx context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown Jaeger: %v", err)
		}
	}()

	database, err := db.NewGorm(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Upstream clients. Ollama gets no timeout on the shared client since
	// completions can run for minutes; the corpus client uses the short
	// per-request timeout.
	ollamaClient := ollama.NewClient(cfg.OllamaBaseURL, 0)
	kiwixClient := kiwix.NewClient(cfg.CorpusBaseURL, cfg.SearchPageLength, cfg.HTTPTimeout)

	contentRepo := repository.NewContentRepository(database.DB)
	artifactRepo := repository.NewArtifactRepository(database.DB)

	hub := progress.NewHub()
	hub.Start()

	translator := services.NewTranslator(ollamaClient, cfg.LLMModel, cfg.TranslateMaxTokens)
	keywords := services.NewKeywordExtractor(ollamaClient, cfg.LLMModel, cfg.KeywordMaxTokens)
	federated := services.NewFederatedSearchClient(kiwixClient, cfg.SearchConcurrency)
	reranker := services.NewReranker(ollamaClient, cfg.EmbeddingModel)

	searchService := services.NewSemanticSearchService(
		ollamaClient,
		cfg.EmbeddingModel,
		translator,
		keywords,
		federated,
		reranker,
		contentRepo,
		hub,
		cfg.SimilarityThreshold,
	)

	builder := services.NewContextBuilder(ollamaClient, kiwixClient, cfg.EmbeddingModel, services.ContextBuilderConfig{
		ChunkSize:        cfg.ChunkSize,
		ChunkOverlap:     cfg.ChunkOverlap,
		MaxFallbackWords: cfg.MaxFallbackWords,
		TopHits:          cfg.TopHits,
		TopChunks:        cfg.TopChunks,
	})
	preprocessor := services.NewPreprocessor(ollamaClient, cfg.EmbeddingModel, services.DefaultMaxSentences)

	generator := services.NewGeneratorService(
		ollamaClient,
		builder,
		preprocessor,
		contentRepo,
		artifactRepo,
		services.GeneratorConfig{
			MindmapModel:         cfg.MindmapModel,
			FlashquizModel:       cfg.FlashquizModel,
			SummaryModel:         cfg.SummaryModel,
			MindmapTemperature:   cfg.MindmapTemperature,
			FlashquizTemperature: cfg.FlashquizTemperature,
			SummaryTemperature:   cfg.SummaryTemperature,
			MindmapMaxTokens:     cfg.MindmapMaxTokens,
			FlashquizMaxTokens:   cfg.FlashquizMaxTokens,
			SummaryMaxTokens:     cfg.SummaryMaxTokens,
			QuestionCount:        cfg.QuestionCount,
		},
	)

	handler := api.NewHandler(searchService, generator, hub)
	router := api.SetupRoutes(handler)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
		// Searches against a cold model can take a while; keep the write
		// window generous.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on http://%s", addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	hub.Shutdown()

	log.Println("Server shutdown complete")
}
