package model

import "time"

// Collection is a named set of records with a fixed vector dimension
type Collection struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Dimension int       `json:"dimension"`
	CreatedAt time.Time `json:"created_at"`
}
