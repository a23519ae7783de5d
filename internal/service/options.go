package service

import (
	"time"

	"contractqa/internal/embedding/tfidf"
	"contractqa/internal/ranker"
)

// Options tunes retrieval and answering.
type Options struct {
	Index tfidf.Options

	// K is the number of segments selected per question.
	K int
	// Lambda trades relevance (1) against diversity (0) in MMR.
	Lambda float64
	// PoolFactor sizes the raw top-N pool handed to MMR as PoolFactor*K.
	PoolFactor int
	// MinRelevance is the best score a question needs to be answered at all.
	MinRelevance float64
	RewriteQuery bool

	Temperature float64
	MaxTokens   int
	LLMTimeout  time.Duration

	// FallbackExcerpts is how many candidates the degraded answer quotes.
	FallbackExcerpts int
	ExcerptChars     int

	CacheTTL time.Duration
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Index:            tfidf.DefaultOptions(),
		K:                5,
		Lambda:           ranker.DefaultLambda,
		PoolFactor:       2,
		MinRelevance:     0.05,
		RewriteQuery:     true,
		Temperature:      0,
		MaxTokens:        512,
		LLMTimeout:       12 * time.Second,
		FallbackExcerpts: 2,
		ExcerptChars:     600,
		CacheTTL:         30 * time.Minute,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.K <= 0 {
		o.K = d.K
	}
	if o.Lambda < 0 || o.Lambda > 1 {
		o.Lambda = d.Lambda
	}
	if o.PoolFactor <= 0 {
		o.PoolFactor = d.PoolFactor
	}
	if o.MinRelevance < 0 {
		o.MinRelevance = 0
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = d.MaxTokens
	}
	if o.LLMTimeout <= 0 {
		o.LLMTimeout = d.LLMTimeout
	}
	if o.FallbackExcerpts <= 0 {
		o.FallbackExcerpts = d.FallbackExcerpts
	}
	if o.ExcerptChars <= 0 {
		o.ExcerptChars = d.ExcerptChars
	}
	return o
}
