package model

import (
	"fmt"

	"github.com/google/uuid"
)

// recordNamespace is the UUIDv5 namespace for record keys
var recordNamespace = uuid.MustParse("6f1c1e8a-3b7d-4c52-9a39-0d2f5b8e4c11")

// Record is the unit stored in a vector index: one embedded chunk
type Record struct {
	Key       uuid.UUID `json:"key"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
}

// RecordKey derives the stable key of a chunk from its document and ordinal.
// Ingesting the same document again yields the same keys.
func RecordKey(documentID string, index int) uuid.UUID {
	return uuid.NewSHA1(recordNamespace, []byte(fmt.Sprintf("%s#%d", documentID, index)))
}

// NewRecord builds the record for an embedded chunk
func NewRecord(doc *Document, chunk Chunk, embedding []float32) Record {
	metadata := Metadata{}
	for k, v := range doc.Metadata {
		metadata[k] = v
	}
	metadata[MetadataDocumentID] = chunk.DocumentID
	metadata[MetadataChunkIndex] = chunk.Index
	metadata[MetadataStart] = chunk.Start
	metadata[MetadataEnd] = chunk.End
	if doc.Filename != "" {
		metadata[MetadataFilename] = doc.Filename
	}
	if doc.Format != "" {
		metadata[MetadataFormat] = string(doc.Format)
	}

	return Record{
		Key:       RecordKey(chunk.DocumentID, chunk.Index),
		Text:      chunk.Text,
		Embedding: embedding,
		Metadata:  metadata,
	}
}
