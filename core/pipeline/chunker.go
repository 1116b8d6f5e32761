package pipeline

import (
	"fmt"

	"github.com/siherrmann/docqa/model"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// ChunkFunc splits the extracted text of a document into chunks
type ChunkFunc func(text string, documentID string) ([]model.Chunk, error)

// Chunk splits text into windows of at most maxSize characters.
// Consecutive windows share exactly overlap characters, the last window
// ends at the end of the text and may be shorter. Offsets count runes.
func Chunk(text string, maxSize int, overlap int) ([]model.Chunk, error) {
	if overlap <= 0 || overlap >= maxSize {
		return nil, fmt.Errorf("chunk size %d, overlap %d: %w", maxSize, overlap, model.ErrInvalidChunkConfig)
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return []model.Chunk{}, nil
	}

	step := maxSize - overlap
	chunks := make([]model.Chunk, 0, (n+step-1)/step)
	for start := 0; ; start += step {
		end := min(start+maxSize, n)
		chunks = append(chunks, model.Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
		if end == n {
			break
		}
	}

	return chunks, nil
}

// FixedSizeChunker creates a chunker with fixed window size and overlap
func FixedSizeChunker(maxSize int, overlap int) ChunkFunc {
	return func(text string, documentID string) ([]model.Chunk, error) {
		chunks, err := Chunk(text, maxSize, overlap)
		if err != nil {
			return nil, err
		}
		for i := range chunks {
			chunks[i].DocumentID = documentID
		}
		return chunks, nil
	}
}

// DefaultChunker splits into 1000 character chunks with 200 characters overlap
func DefaultChunker() ChunkFunc {
	return FixedSizeChunker(DefaultChunkSize, DefaultChunkOverlap)
}
