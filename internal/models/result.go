package models

// Hit is a retrieved segment with its distance to the query.
// Relevance is 1 - Distance: a display heuristic that can go negative, not a probability.
type Hit struct {
	Position  int     `json:"position"`
	Filename  string  `json:"filename"`
	Text      string  `json:"text"`
	Distance  float64 `json:"distance"`
	Relevance float64 `json:"relevance"`
}

// SearchResponse is the response for a retrieval-only request.
type SearchResponse struct {
	Query     string `json:"query"`
	Hits      []*Hit `json:"hits"`
	Context   string `json:"context"`
	QueryTime int64  `json:"query_time_ms"`
}

// Timings reports the duration of each stage of answering a question,
// formatted as seconds with two decimals (e.g. "0.42s").
type Timings struct {
	ContextSearch    string `json:"context_search"`
	AnswerGeneration string `json:"answer_generation"`
	Total            string `json:"total"`
}

// AskResponse is the response for a question.
type AskResponse struct {
	Status  string  `json:"status"`
	Answer  string  `json:"answer"`
	Timings Timings `json:"timings"`
}

// UploadResponse is the response for a successful upload.
type UploadResponse struct {
	Status         string `json:"status"`
	Filename       string `json:"filename"`
	Segments       int    `json:"segments"`
	ProcessingTime string `json:"processing_time"`
}
