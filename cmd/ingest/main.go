package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"bookrag/internal/chunker"
	"bookrag/internal/config"
	"bookrag/internal/embedding/openai"
	"bookrag/internal/markdown"
	"bookrag/internal/service"
	"bookrag/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath   string
		docsPath  string
		chunkSize int
		overlap   int
		recreate  bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&docsPath, "docs", "docs", "Path to the Markdown docs directory")
	flag.IntVar(&chunkSize, "chunk-size", 0, "Chunk size in words (overrides config)")
	flag.IntVar(&overlap, "overlap", 0, "Overlap size in words (overrides config)")
	flag.BoolVar(&recreate, "recreate", false, "Recreate the collection (deletes existing data)")
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
	if chunkSize > 0 {
		cfg.Chunker.ChunkSize = chunkSize
	}
	if overlap > 0 {
		cfg.Chunker.OverlapSize = overlap
	}

	parser, err := markdown.NewParser(docsPath)
	if err != nil {
		log.Fatalf("parser init failed: %v", err)
	}
	docs, err := parser.ParseAll()
	if err != nil {
		log.Fatalf("parsing documents failed: %v", err)
	}
	if len(docs) == 0 {
		log.Fatalf("no Markdown documents found under %s", docsPath)
	}
	fmt.Printf("Found %d documents\n", len(docs))

	embedder, err := openai.NewEmbedder(openai.Config{
		APIKey:    cfg.OpenAIKey(),
		Model:     cfg.OpenAI.EmbeddingModel,
		BatchSize: cfg.OpenAI.BatchSize,
	})
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	index := qdrant.NewIndex(qdrant.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.QdrantKey(),
		Collection: cfg.Qdrant.Collection,
		Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
	})
	index.OnProgress = func(done, total int) {
		fmt.Printf("Upserted %d/%d chunks\n", done, total)
	}

	ing := service.NewIngestor(
		chunker.New(cfg.Chunker.ChunkSize, cfg.Chunker.OverlapSize, cfg.Chunker.BoundariesEnabled()),
		embedder,
		index,
	)
	ing.Progress = func(format string, args ...any) {
		fmt.Printf(format+"\n", args...)
	}

	summary, err := ing.Ingest(context.Background(), docs, recreate)
	if err != nil {
		log.Fatalf("ingest failed after %d/%d chunks upserted: %v", summary.Upserted, summary.Chunks, err)
	}
	fmt.Printf("Done: %d documents, %d chunks, %d embedded, %d upserted\n",
		summary.Documents, summary.Chunks, summary.Embedded, summary.Upserted)
}
