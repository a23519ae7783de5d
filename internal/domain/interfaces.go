package domain

import (
	"context"
	"time"
)

// Segmenter splits raw analysis text into an ordered corpus of segments.
type Segmenter interface {
	Segment(raw string) (*Corpus, error)
}

// GenerateRequest carries one call to the generative collaborator.
type GenerateRequest struct {
	Prompt      string
	Context     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Generator produces free text conditioned on a question and retrieved context.
// Any error it returns is treated as recoverable by the answering pipeline.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Summarizer produces a brief overview of a corpus.
type Summarizer interface {
	Summarize(segments []Segment, maxSentences int) (Overview, error)
}

// Overview is an extractive summary whose sentences cite their segments.
type Overview struct {
	Text      string   `json:"text"`
	Citations []string `json:"citations"`
}
