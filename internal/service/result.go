package service

import (
	"time"

	"contractqa/internal/domain"
	"contractqa/internal/extract"
)

// Hit is one retrieved segment and its raw score.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Context is a segment handed to the answering stage.
type Context struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

// Timings are per-stage wall clock durations in milliseconds.
type Timings struct {
	RetrievalMS float64 `json:"retrieval_ms"`
	MMRMS       float64 `json:"mmr_ms"`
	AnswerMS    float64 `json:"answer_ms"`
	TotalMS     float64 `json:"total_ms"`
}

// Meta records how a question was processed.
type Meta struct {
	DocumentID string         `json:"document_id,omitempty"`
	Engine     string         `json:"engine"`
	K          int            `json:"k"`
	Lambda     float64        `json:"lambda"`
	Query      string         `json:"query"`
	Intent     extract.Intent `json:"intent"`
	Generator  string         `json:"generator,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Result is the full outcome of one question.
type Result struct {
	Question string         `json:"question"`
	Answer   domain.Answer  `json:"answer"`
	Outcome  domain.Outcome `json:"outcome"`
	Hits     []Hit          `json:"hits"`
	Contexts []Context      `json:"contexts"`
	Timings  Timings        `json:"timings"`
	Meta     Meta           `json:"meta"`
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
