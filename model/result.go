package model

// RetrievalResult represents a record retrieved by a similarity query
type RetrievalResult struct {
	Record *Record `json:"record"`
	Score  float64 `json:"score"` // Cosine similarity, higher is closer
}

// Answer is the result of a question answered against a collection
type Answer struct {
	Question   string             `json:"question"`
	Collection string             `json:"collection"`
	Text       string             `json:"answer"`
	// Number of records given to the model as context
	Retrieved  int                `json:"retrieved"`
	Sources    []*RetrievalResult `json:"sources,omitempty"`
}

// IngestResult describes a finished ingestion
type IngestResult struct {
	DocumentID string      `json:"document_id"`
	Collection string      `json:"collection"`
	Chunks     int         `json:"chunks"`
	Stage      IngestStage `json:"stage"`
}
