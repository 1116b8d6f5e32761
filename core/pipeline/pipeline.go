package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/docqa/core/embedding"
	"github.com/siherrmann/docqa/core/vectorstore"
	"github.com/siherrmann/docqa/model"
)

// DefaultBatchSize is the number of chunk texts sent per embedding call
const DefaultBatchSize = 96

// Pipeline ingests documents: extract text, chunk, embed and store.
// Ingest is synchronous and returns once every record is stored or a stage failed.
type Pipeline struct {
	Extractors map[model.Format]ExtractFunc
	Chunker    ChunkFunc
	Embedder   embedding.Embedder
	Store      vectorstore.Store
	BatchSize  int

	log *slog.Logger
}

// NewPipeline creates a pipeline with the default extractors
func NewPipeline(chunker ChunkFunc, embedder embedding.Embedder, store vectorstore.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if chunker == nil {
		chunker = DefaultChunker()
	}

	return &Pipeline{
		Extractors: DefaultExtractors(),
		Chunker:    chunker,
		Embedder:   embedder,
		Store:      store,
		BatchSize:  DefaultBatchSize,
		log:        logger,
	}
}

// SetExtractor registers or replaces the extractor of a format
func (p *Pipeline) SetExtractor(format model.Format, extractor ExtractFunc) {
	p.Extractors[format] = extractor
}

// Ingest runs a document through all stages into collection.
// A failure returns a *model.IngestionError naming the stage that could not
// be reached. Records stored before a failure are not removed.
func (p *Pipeline) Ingest(ctx context.Context, collection string, doc *model.Document) (*model.IngestResult, error) {
	if doc == nil {
		return nil, &model.IngestionError{Stage: model.StageReceived, Err: model.ErrEmptyDocument}
	}
	doc.EnsureID()

	start := time.Now()
	result := &model.IngestResult{DocumentID: doc.ID, Collection: collection, Stage: model.StageReceived}
	log := p.log.With(slog.String("document_id", doc.ID), slog.String("collection", collection))
	log.Debug("Received document", slog.String("format", string(doc.Format)), slog.Int("bytes", len(doc.Content)))

	fail := func(stage model.IngestStage, err error) (*model.IngestResult, error) {
		result.Stage = model.StageFailed
		log.Warn("Ingestion failed", slog.String("stage", string(stage)), slog.Any("error", err))
		return result, &model.IngestionError{Stage: stage, DocumentID: doc.ID, Err: err}
	}

	// Received -> TextExtracted
	if err := ctx.Err(); err != nil {
		return fail(model.StageTextExtracted, err)
	}
	text := doc.Text
	if text == "" {
		var err error
		text, err = extract(p.Extractors, doc)
		if err != nil {
			return fail(model.StageTextExtracted, err)
		}
		doc.Text = text
	}
	// Raw content is not needed past this point
	doc.Content = nil
	result.Stage = model.StageTextExtracted
	log.Debug("Extracted text", slog.Int("characters", len([]rune(text))))

	// TextExtracted -> Chunked
	chunks, err := p.Chunker(text, doc.ID)
	if err != nil {
		return fail(model.StageChunked, err)
	}
	result.Stage = model.StageChunked
	log.Debug("Chunked text", slog.Int("chunks", len(chunks)))

	if len(chunks) == 0 {
		result.Stage = model.StageDone
		log.Info("Ingested document without content", slog.Duration("took", time.Since(start)))
		return result, nil
	}

	// Chunked -> Embedded
	if err := ctx.Err(); err != nil {
		return fail(model.StageEmbedded, err)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedding.EmbedInBatches(ctx, p.Embedder, texts, p.BatchSize)
	if err != nil {
		return fail(model.StageEmbedded, err)
	}
	if len(vectors) != len(chunks) {
		return fail(model.StageEmbedded, fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(chunks)))
	}
	result.Stage = model.StageEmbedded
	log.Debug("Embedded chunks", slog.Int("vectors", len(vectors)))

	// Embedded -> Stored
	if err := ctx.Err(); err != nil {
		return fail(model.StageStored, err)
	}
	records := make([]model.Record, len(chunks))
	for i, c := range chunks {
		records[i] = model.NewRecord(doc, c, vectors[i])
	}
	if err := p.Store.Upsert(ctx, collection, records); err != nil {
		return fail(model.StageStored, err)
	}
	result.Stage = model.StageStored

	// Stored -> Done
	result.Chunks = len(records)
	result.Stage = model.StageDone
	log.Info("Ingested document", slog.Int("chunks", result.Chunks), slog.Duration("took", time.Since(start)))

	return result, nil
}
