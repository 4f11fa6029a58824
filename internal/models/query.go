package models

import (
	"fmt"
	"strings"
)

// AskRequest is a natural-language question.
type AskRequest struct {
	Question string `json:"question"`
}

// Validate trims the question and rejects empty ones.
func (q *AskRequest) Validate() error {
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	return nil
}

// SearchRequest asks for the top-k segments nearest to Query.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// Validate ensures the query is non-empty and caps TopK at 100.
// A TopK of zero or less is left for the engine to default.
func (q *SearchRequest) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.TopK > 100 {
		q.TopK = 100
	}
	return nil
}
