package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/siherrmann/docqa"
	"github.com/siherrmann/docqa/core/embedding"
	"github.com/siherrmann/docqa/core/llm"
	"github.com/siherrmann/docqa/core/pipeline"
	"github.com/siherrmann/docqa/core/vectorstore"
	"github.com/siherrmann/docqa/helper"
	"github.com/siherrmann/docqa/model"
)

const kjvRepoURL = "https://raw.githubusercontent.com/arleym/kjv-markdown/master"

var kjvBooks = []string{
	"01 - Genesis - KJV.md",
	"02 - Exodus - KJV.md",
}

func downloadBook(ctx context.Context, bookName string) ([]byte, error) {
	downloadURL := fmt.Sprintf("%s/%s", kjvRepoURL, url.PathEscape(bookName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", bookName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: status %d", bookName, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// extractBookTitle turns "01 - Genesis - KJV.md" into "Genesis"
func extractBookTitle(bookName string) string {
	parts := strings.Split(strings.TrimSuffix(bookName, ".md"), " - ")
	if len(parts) >= 2 {
		return parts[1]
	}
	return bookName
}

func main() {
	logger := helper.NewLogger(os.Stdout, "info")

	embedder, err := embedding.NewHugotEmbedder(embedding.DefaultHugotModel, 384)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	lm := llm.NewOpenAIModel(llm.OpenAIConfig{APIKey: os.Getenv("OPENAI_API_KEY")})
	d := docqa.NewWithComponents(vectorstore.NewMemoryStore(), embedder, lm, docqa.Options{
		Collection: "kjv",
		Chunker:    pipeline.FixedSizeChunker(800, 160),
		BatchSize:  32,
		Logger:     logger,
	})
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	fmt.Println("Downloading KJV books from GitHub...")
	totalChunks := 0
	for i, bookName := range kjvBooks {
		fmt.Printf("Downloading %s (%d/%d)...\n", bookName, i+1, len(kjvBooks))
		content, err := downloadBook(ctx, bookName)
		if err != nil {
			log.Printf("Warning: %v, skipping...", err)
			continue
		}

		title := extractBookTitle(bookName)
		doc := model.NewDocument(bookName, content, model.Metadata{
			"book":   title,
			"source": "King James Version (KJV)",
		})

		result, err := d.Ingest(ctx, doc)
		if err != nil {
			log.Printf("Warning: failed to ingest %s: %v, skipping...", title, err)
			continue
		}
		fmt.Printf("  Inserted %d chunks from %s\n", result.Chunks, title)
		totalChunks += result.Chunks
	}
	fmt.Printf("\nIndexed %d chunks\n\n", totalChunks)

	question := "What did Moses do on the mountain?"
	fmt.Printf("Searching: %q\n", question)
	fmt.Println(strings.Repeat("=", 20))

	results, err := d.Engine.Retrieve(ctx, d.Collection, question)
	if err != nil {
		log.Fatalf("Failed to retrieve: %v", err)
	}
	for i, r := range results {
		fmt.Printf("\n[%d] %s (%.4f)\n%s\n", i+1, r.Record.Metadata.String("book"), r.Score, r.Record.Text)
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
