package model

// Chunk is a contiguous character span of a document's extracted text.
// Start and End are rune offsets, End is exclusive.
type Chunk struct {
	DocumentID string `json:"document_id"`
	Index      int    `json:"index"`
	Text       string `json:"text"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// Len returns the length of the chunk in characters
func (c Chunk) Len() int {
	return c.End - c.Start
}
