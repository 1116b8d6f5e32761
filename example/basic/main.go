package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/siherrmann/docqa"
	"github.com/siherrmann/docqa/config"
	"github.com/siherrmann/docqa/helper"
	"github.com/siherrmann/docqa/model"
)

const sampleContent = `This is a sample document about vector databases.

Vector databases store embeddings, numeric representations of text, next to the text itself.
A question is embedded the same way and the closest stored chunks are returned.

PostgreSQL with the pgvector extension can be used as a vector database.
It supports cosine distance and HNSW indexes for fast approximate search.

Retrieval augmented generation passes the retrieved chunks to a language model,
which answers the question using only that context.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	cfg := &config.Config{
		Log:        config.LogConfig{Level: "info"},
		Collection: docqa.DefaultCollection,
		Chunker:    config.ChunkerConfig{Size: 300, Overlap: 60},
		// Local sentence transformer, 384 dimensions
		Embedding: config.EmbeddingConfig{Provider: config.ProviderHugot},
		LLM:       config.LLMConfig{Provider: config.ProviderOpenAI, APIKey: os.Getenv("OPENAI_API_KEY")},
		Store: config.StoreConfig{
			Type: config.StorePgvector,
			Database: helper.DatabaseConfiguration{
				Host:     "localhost",
				Port:     dbPort,
				Database: "database",
				Username: "user",
				Password: "password",
				Schema:   "public",
				SSLMode:  "disable",
			},
		},
		Query: config.QueryConfig{TopK: 3, Temperature: 0.3, MaxTokens: 512, IncludeSources: true},
	}
	if cfg.LLM.APIKey == "" {
		// Retrieval works without a key, answering does not
		cfg.LLM.APIKey = "unset"
	}

	d, err := docqa.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create docqa: %v", err)
	}
	defer d.Close()

	ctx := context.Background()

	fmt.Println("Ingesting document...")
	doc := model.NewDocument("vector_databases.txt", []byte(sampleContent), model.Metadata{
		"author": "Example Author",
		"topic":  "vector databases",
	})
	result, err := d.Ingest(ctx, doc)
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}
	fmt.Printf("Stored %d chunks of %s in %s\n", result.Chunks, result.DocumentID, result.Collection)

	question := "Which index does pgvector support?"
	fmt.Printf("\nRetrieving: %s\n", question)
	results, err := d.Engine.Retrieve(ctx, d.Collection, question)
	if err != nil {
		log.Fatalf("Failed to retrieve: %v", err)
	}
	for i, r := range results {
		fmt.Printf("\n--- Result %d ---\n", i+1)
		fmt.Printf("Score: %.4f\n", r.Score)
		fmt.Printf("Content: %s\n", r.Record.Text)
	}

	if os.Getenv("OPENAI_API_KEY") == "" {
		fmt.Println("\nSet OPENAI_API_KEY to generate an answer.")
		return
	}

	answer, err := d.Answer(ctx, question)
	if err != nil {
		log.Fatalf("Failed to answer: %v", err)
	}
	fmt.Printf("\nAnswer: %s\n", answer.Text)
}
