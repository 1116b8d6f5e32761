package model

// QueryConfig represents configuration for answering a question
type QueryConfig struct {
	TopK        int     `json:"top_k"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	// Return the retrieved records with the answer
	IncludeSources bool `json:"include_sources"`
}

// DefaultQueryConfig returns the default configuration
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:           4,
		Temperature:    0.3,
		MaxTokens:      1024,
		IncludeSources: true,
	}
}
