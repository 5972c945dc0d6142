package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"bookrag/internal/api"
	"bookrag/internal/config"
	"bookrag/internal/embedding/openai"
	"bookrag/internal/generation"
	"bookrag/internal/service"
	"bookrag/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/bookrag/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	embedder, err := openai.NewEmbedder(openai.Config{
		APIKey:    cfg.OpenAIKey(),
		Model:     cfg.OpenAI.EmbeddingModel,
		BatchSize: cfg.OpenAI.BatchSize,
	})
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	generator, err := generation.New(generation.Config{
		APIKey:      cfg.OpenAIKey(),
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	index := qdrant.NewIndex(qdrant.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.QdrantKey(),
		Collection: cfg.Qdrant.Collection,
		Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
	})

	rag := service.NewRAGService(embedder, index, generator)
	server := api.NewServer(rag, cfg.Server.AllowedOrigins, cfg.Server.RateLimitPerMinute)

	log.Printf("listening on %s", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, server.Routes()); err != nil {
		log.Fatal(err)
	}
}
