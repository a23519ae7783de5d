package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/viper"

	"contractqa/internal/chunker"
	"contractqa/internal/config"
	"contractqa/internal/domain"
	"contractqa/internal/indexstore"
	"contractqa/internal/indexstore/file"
	"contractqa/internal/indexstore/sqlite"
	"contractqa/internal/llm"
	"contractqa/internal/logger"
	"contractqa/internal/service"
	"contractqa/internal/summarizer"
)

// Keys that flags and CONTRACTQA_* variables may override.
var overrideKeys = []string{
	"verbose",
	"store.type", "store.dir",
	"llm.provider", "llm.model",
	"retrieval.k", "retrieval.lambda",
}

// loadConfig layers flags and environment over the config file and defaults.
func loadConfig(v *viper.Viper) (*config.AppConfig, string, error) {
	var (
		cfg  *config.AppConfig
		path = cfgFile
		err  error
	)
	if path == "" {
		cfg, path, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cfg, v)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	logger.Debug("config loaded from %s", path)
	return cfg, path, nil
}

func applyOverrides(cfg *config.AppConfig, v *viper.Viper) {
	if v.IsSet("store.type") && v.GetString("store.type") != "" {
		cfg.Store.Type = v.GetString("store.type")
	}
	if v.IsSet("store.dir") && v.GetString("store.dir") != "" {
		cfg.Store.Dir = v.GetString("store.dir")
	}
	if v.IsSet("llm.provider") && v.GetString("llm.provider") != "" {
		cfg.LLM.Provider = v.GetString("llm.provider")
	}
	if v.IsSet("llm.model") && v.GetString("llm.model") != "" {
		cfg.LLM.Model = v.GetString("llm.model")
	}
	if v.IsSet("retrieval.k") && v.GetInt("retrieval.k") != 0 {
		cfg.Retrieval.K = v.GetInt("retrieval.k")
	}
	if v.IsSet("retrieval.lambda") {
		cfg.Retrieval.Lambda = v.GetFloat64("retrieval.lambda")
	}
}

// newStore returns the configured storage and the file extension of its
// locations. A nil storage keeps indexes in memory only.
func newStore(cfg config.StoreConfig) (indexstore.Storage, string, error) {
	switch cfg.Type {
	case "file", "":
		return file.NewStorage(), ".index.json", nil
	case "sqlite":
		return sqlite.NewStorage(), ".index.db", nil
	case "none":
		return nil, "", nil
	default:
		return nil, "", fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}

// newGenerator builds the configured generator. A missing API key is not
// fatal: answers then degrade to excerpts.
func newGenerator(cfg llm.Config) (domain.Generator, error) {
	gen, err := llm.New(cfg)
	if errors.Is(err, domain.ErrGeneratorUnavailable) {
		logger.Warn("%v; generative answers disabled", err)
		return nil, nil
	}
	return gen, err
}

// readCorpus segments the analysis at path. Files ending in .json are parsed
// segment lists; anything else is raw analysis text.
func readCorpus(path string, cfg config.SegmenterConfig) (*domain.Corpus, error) {
	var (
		corpus *domain.Corpus
		err    error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, openErr
		}
		defer f.Close()
		corpus, err = chunker.LoadParsed(f)
	} else {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, readErr
		}
		corpus, err = chunker.NewSectionSegmenter(cfg.MinChars).Segment(string(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.RefineSentences {
		return chunker.NewSentenceRefiner(cfg.SentencesPerSegment, cfg.OverlapSentences).Refine(corpus)
	}
	return corpus, nil
}

// session is one document opened against the engine.
type session struct {
	cfg      *config.AppConfig
	engine   *service.Engine
	path     string
	docID    string
	location string
	current  atomic.Pointer[service.Handle]
}

func newSession(path string) (*session, error) {
	cfg, _, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	store, ext, err := newStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	gen, err := newGenerator(cfg.Generator())
	if err != nil {
		return nil, err
	}
	s := &session{
		cfg:    cfg,
		engine: service.NewEngine(cfg.ServiceOptions(), gen, store),
		path:   path,
		docID:  service.DocumentID(path),
	}
	if store != nil {
		s.location = filepath.Join(cfg.Store.Dir, s.docID+ext)
	}
	return s, nil
}

// open returns the cached, persisted or freshly built handle.
func (s *session) open() (*service.Handle, error) {
	corpus, err := readCorpus(s.path, s.cfg.Segmenter)
	if err != nil {
		return nil, err
	}
	h, err := s.engine.Open(s.docID, corpus, s.location)
	if err != nil {
		return nil, err
	}
	s.current.Store(h)
	return h, nil
}

// rebuild re-reads the document and swaps in a new handle.
func (s *session) rebuild() (*service.Handle, error) {
	corpus, err := readCorpus(s.path, s.cfg.Segmenter)
	if err != nil {
		return nil, err
	}
	h, err := s.engine.Rebuild(s.docID, corpus, s.location)
	if err != nil {
		return nil, err
	}
	s.current.Store(h)
	return h, nil
}

func (s *session) handle() *service.Handle {
	if h, ok := s.engine.Cached(s.docID); ok {
		return h
	}
	return s.current.Load()
}

// Ask answers question against the current handle.
func (s *session) Ask(ctx context.Context, question string) (service.Result, error) {
	return s.engine.Ask(ctx, s.handle(), question)
}

func (s *session) overview(h *service.Handle) domain.Overview {
	ov, err := summarizer.NewFrequencySummarizer().Summarize(h.Corpus.Segments(), s.cfg.Summarizer.MaxSentences)
	if err != nil {
		logger.Warn("overview unavailable: %v", err)
	}
	return ov
}
