package model

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidChunkConfig = errors.New("chunk overlap must be positive and smaller than the chunk size")
	ErrEmptyQuestion      = errors.New("question is empty")
	ErrUnsupportedFormat  = errors.New("unsupported document format")
	ErrEmptyDocument      = errors.New("document is empty")
)

// NoContentMessage is reported when a question is asked before anything was ingested
const NoContentMessage = "no indexed content available — nothing has been uploaded yet"

// ExtractionError is returned when a document's text cannot be extracted
type ExtractionError struct {
	DocumentID string
	Format     Format
	Err        error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract text from %s document %q: %v", e.Format, e.DocumentID, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EmbeddingErrorKind classifies embedding service failures
type EmbeddingErrorKind string

const (
	EmbeddingErrorNetwork         EmbeddingErrorKind = "network"
	EmbeddingErrorAuth            EmbeddingErrorKind = "auth"
	EmbeddingErrorRateLimited     EmbeddingErrorKind = "rate_limited"
	EmbeddingErrorService         EmbeddingErrorKind = "service"
	EmbeddingErrorInvalidResponse EmbeddingErrorKind = "invalid_response"
)

// EmbeddingKindFromStatus maps an HTTP status code to an error kind
func EmbeddingKindFromStatus(status int) EmbeddingErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return EmbeddingErrorAuth
	case status == http.StatusTooManyRequests:
		return EmbeddingErrorRateLimited
	case status == 0:
		return EmbeddingErrorNetwork
	default:
		return EmbeddingErrorService
	}
}

// EmbeddingServiceError is returned when the embedding service fails
type EmbeddingServiceError struct {
	Kind       EmbeddingErrorKind
	StatusCode int
	Err        error
}

func (e *EmbeddingServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("embedding service %s error (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("embedding service %s error: %v", e.Kind, e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// VectorStoreError is returned for vector store failures other than
// missing collections and dimension mismatches.
type VectorStoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *VectorStoreError) Error() string {
	return fmt.Sprintf("vector store %s on collection %q: %v", e.Op, e.Collection, e.Err)
}

func (e *VectorStoreError) Unwrap() error { return e.Err }

// CollectionNotFoundError is returned when querying a collection that was never populated
type CollectionNotFoundError struct {
	Collection string
}

func (e *CollectionNotFoundError) Error() string {
	return fmt.Sprintf("collection %q not found", e.Collection)
}

// DimensionMismatchError is returned when a vector does not match the collection dimension
type DimensionMismatchError struct {
	Collection string
	Expected   int
	Actual     int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("collection %q expects vectors of dimension %d, got %d", e.Collection, e.Expected, e.Actual)
}

// LanguageModelError is returned when the language model call fails
type LanguageModelError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *LanguageModelError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("language model %s failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("language model %s failed: %v", e.Provider, e.Err)
}

func (e *LanguageModelError) Unwrap() error { return e.Err }

// Retryable reports whether the caller may retry the request.
// Nothing in this module retries on its own.
func (e *LanguageModelError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// IngestionError tags a failed ingestion with the stage it was trying to reach
type IngestionError struct {
	Stage      IngestStage
	DocumentID string
	Err        error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest document %q: stage %s: %v", e.DocumentID, e.Stage, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// QueryError tags a failed question with the step that failed
type QueryError struct {
	Stage QueryStage
	Err   error
}

func (e *QueryError) Error() string {
	var notFound *CollectionNotFoundError
	if errors.As(e.Err, &notFound) {
		return fmt.Sprintf("%s: %v", NoContentMessage, e.Err)
	}
	return fmt.Sprintf("answer question: stage %s: %v", e.Stage, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// IsNoContent reports whether err means nothing was ingested into the collection
func IsNoContent(err error) bool {
	var notFound *CollectionNotFoundError
	return errors.As(err, &notFound)
}
