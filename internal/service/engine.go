// Package service answers questions over one document's segments: retrieve,
// diversify, extract, and only then generate.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contractqa/internal/cache"
	"contractqa/internal/domain"
	"contractqa/internal/embedding/tfidf"
	"contractqa/internal/extract"
	"contractqa/internal/indexstore"
	"contractqa/internal/logger"
	"contractqa/internal/ranker"
)

// Handle is an immutable, queryable index for one document.
type Handle struct {
	DocumentID string
	Index      *tfidf.Index
	Corpus     *domain.Corpus
	Meta       indexstore.Meta
}

// Engine builds, caches and queries document handles. It is safe for
// concurrent use.
type Engine struct {
	opts      Options
	gen       domain.Generator
	store     indexstore.Storage
	extractor *extract.Extractor
	handles   *cache.Cache[*Handle]
	now       func() time.Time
}

// NewEngine creates an engine. gen and store may be nil: without a generator
// every non-extractive answer degrades to excerpts, without a store handles
// live only in memory.
func NewEngine(opts Options, gen domain.Generator, store indexstore.Storage) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		opts:      opts,
		gen:       gen,
		store:     store,
		extractor: extract.NewExtractor(),
		handles:   cache.New[*Handle](opts.CacheTTL),
		now:       time.Now,
	}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// BuildIndex builds a handle for corpus. An empty docID is replaced by the
// corpus fingerprint.
func (e *Engine) BuildIndex(docID string, corpus *domain.Corpus) (*Handle, error) {
	if corpus == nil || corpus.Len() == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if docID == "" {
		docID = corpus.Fingerprint()
	}
	start := e.now()
	ix, err := tfidf.Build(corpus, e.opts.Index)
	if err != nil {
		return nil, err
	}
	h := &Handle{
		DocumentID: docID,
		Index:      ix,
		Corpus:     corpus,
		Meta:       indexstore.NewBundle(docID, ix, start).Meta,
	}
	logger.Info("built index for %s: %d segments, %d terms in %s", docID, corpus.Len(), ix.VocabularySize(), time.Since(start).Round(time.Millisecond))
	return h, nil
}

// Ask answers question against h with the configured k and lambda.
func (e *Engine) Ask(ctx context.Context, h *Handle, question string) (Result, error) {
	return e.AskWith(ctx, h, question, e.opts.K, e.opts.Lambda)
}

// AskWith answers question against h. Only ErrInvalidQuery is returned as an
// error; collaborator failures become a degraded answer.
func (e *Engine) AskWith(ctx context.Context, h *Handle, question string, k int, lambda float64) (Result, error) {
	if h == nil {
		return Result{}, domain.ErrEmptyCorpus
	}
	res, err := e.run(ctx, question, h.Index, k, lambda)
	res.Meta.DocumentID = h.DocumentID
	return res, err
}

// Answer runs the answering pipeline directly on an index and its corpus.
func (e *Engine) Answer(ctx context.Context, question string, ix *tfidf.Index, corpus *domain.Corpus, k int, lambda float64) (domain.Answer, error) {
	if ix == nil || corpus == nil || ix.Len() != corpus.Len() {
		return domain.Answer{}, fmt.Errorf("%w: index does not match corpus", domain.ErrCorruptIndex)
	}
	if built := ix.Corpus(); built != corpus && (built == nil || built.Fingerprint() != corpus.Fingerprint()) {
		return domain.Answer{}, fmt.Errorf("%w: index was built from a different corpus", domain.ErrCorruptIndex)
	}
	res, err := e.run(ctx, question, ix, k, lambda)
	if err != nil {
		return domain.Answer{}, err
	}
	return res.Answer, nil
}

func (e *Engine) run(ctx context.Context, question string, ix *tfidf.Index, k int, lambda float64) (Result, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return Result{}, domain.ErrInvalidQuery
	}
	if k <= 0 {
		k = e.opts.K
	}
	started := e.now()
	intent := extract.ClassifyIntent(q)
	query := q
	if e.opts.RewriteQuery {
		query = extract.RewriteQuery(q)
	}
	res := Result{
		Question: q,
		Meta: Meta{
			Engine: indexstore.EngineTFIDF,
			K:      k,
			Lambda: lambda,
			Query:  query,
			Intent: intent,
		},
	}
	logger.Debug("received %q (intent %s)", q, intent)

	// Scored. Relevance is judged on the question as asked; boost terms only
	// reorder the pool of a question that already matched.
	t := time.Now()
	poolSize := e.opts.PoolFactor * k
	pool := ranker.TopN(ix.Score(q), poolSize)
	matched := len(pool) > 0 && pool[0].Score >= e.opts.MinRelevance
	if matched && query != q {
		pool = ranker.TopN(ix.Score(query), poolSize)
	}
	res.Timings.RetrievalMS = ms(time.Since(t))
	for _, c := range pool {
		res.Hits = append(res.Hits, Hit{ID: c.SegmentID, Score: c.Score})
	}
	if !matched {
		logger.Debug("no match: best score below %.2f", e.opts.MinRelevance)
		res.Outcome = domain.OutcomeNoMatch
		res.Answer = domain.Answer{Text: domain.NoRelevantInformation, Citations: []string{}, Mode: domain.ModeNone}
		res.Timings.TotalMS = ms(time.Since(started))
		return res, nil
	}

	// Ranked
	t = time.Now()
	selected := ranker.Select(pool, k, lambda, ix.Similarity)
	res.Timings.MMRMS = ms(time.Since(t))
	corpus := ix.Corpus()
	for _, c := range selected {
		seg := corpus.At(c.Index)
		res.Contexts = append(res.Contexts, Context{ID: seg.ID, Title: seg.Title, Text: seg.Text})
	}

	t = time.Now()
	if ans := e.extractor.TryExtract(selected, intent); ans != nil {
		logger.Debug("extractive hit citing %v", ans.Citations)
		res.Outcome = domain.OutcomeExtractiveHit
		res.Answer = *ans
		return finish(res, started, t), nil
	}

	// GenerativeAttempt
	text, err := e.generate(ctx, q, selected)
	if err != nil {
		logger.Warn("generative answer unavailable, falling back to excerpts: %v", err)
		res.Outcome = domain.OutcomeDegradedFallback
		res.Answer = e.fallback(selected)
		res.Meta.Error = err.Error()
		return finish(res, started, t), nil
	}
	res.Outcome = domain.OutcomeGenerativeHit
	res.Meta.Generator = e.gen.Name()
	res.Answer = domain.Answer{Text: text, Citations: candidateIDs(selected), Mode: domain.ModeGenerative}
	return finish(res, started, t), nil
}

// finish stamps the answer and total timings on a terminal result.
func finish(res Result, started, answerStart time.Time) Result {
	res.Timings.AnswerMS = ms(time.Since(answerStart))
	res.Timings.TotalMS = ms(time.Since(started))
	return res
}

// generate calls the collaborator under the configured timeout. A collaborator
// that ignores its context is abandoned once the deadline passes.
func (e *Engine) generate(ctx context.Context, question string, selected []domain.ScoredCandidate) (string, error) {
	if e.gen == nil {
		return "", domain.ErrGeneratorUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, e.opts.LLMTimeout)
	defer cancel()

	req := domain.GenerateRequest{
		Prompt:      question,
		Context:     buildContext(selected),
		Temperature: e.opts.Temperature,
		MaxTokens:   e.opts.MaxTokens,
		Timeout:     e.opts.LLMTimeout,
	}
	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		text, err := e.gen.Generate(ctx, req)
		done <- reply{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", domain.ErrCollaborator, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrCollaborator, r.err)
		}
		text := strings.TrimSpace(r.text)
		if text == "" {
			return "", fmt.Errorf("%w: empty response", domain.ErrCollaborator)
		}
		return text, nil
	}
}

// fallback quotes the top candidates when no generated answer is available.
func (e *Engine) fallback(selected []domain.ScoredCandidate) domain.Answer {
	n := min(e.opts.FallbackExcerpts, len(selected))
	parts := make([]string, 0, n)
	ids := make([]string, 0, n)
	for _, c := range selected[:n] {
		parts = append(parts, excerpt(c.Text, e.opts.ExcerptChars))
		ids = append(ids, c.SegmentID)
	}
	return domain.Answer{Text: strings.Join(parts, "\n\n"), Citations: ids, Mode: domain.ModeExtractive}
}

func buildContext(selected []domain.ScoredCandidate) string {
	var b strings.Builder
	for i, c := range selected {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s] %s", c.SegmentID, c.Text)
	}
	return b.String()
}

func candidateIDs(cands []domain.ScoredCandidate) []string {
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.SegmentID
	}
	return ids
}

// excerpt cuts text at a word boundary near limit runes.
func excerpt(text string, limit int) string {
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	cut := string(r[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:") + "…"
}
