package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"contractqa/internal/embedding/tfidf"
	"contractqa/internal/llm"
	"contractqa/internal/service"
)

// SegmenterConfig configures how analysis text is split into segments.
type SegmenterConfig struct {
	MinChars            int  `yaml:"min_chars"`
	RefineSentences     bool `yaml:"refine_sentences"`
	SentencesPerSegment int  `yaml:"sentences_per_segment"`
	OverlapSentences    int  `yaml:"overlap_sentences"`
}

// IndexConfig configures the TF-IDF vectorizer.
type IndexConfig struct {
	MaxN        int  `yaml:"max_n"`
	MaxFeatures int  `yaml:"max_features"`
	Sublinear   bool `yaml:"sublinear"`
	Stopwords   bool `yaml:"stopwords"`
}

// RetrievalConfig tunes ranking and answer composition.
type RetrievalConfig struct {
	K                int     `yaml:"k"`
	Lambda           float64 `yaml:"lambda"`
	PoolFactor       int     `yaml:"pool_factor"`
	MinRelevance     float64 `yaml:"min_relevance"`
	RewriteQuery     bool    `yaml:"rewrite_query"`
	FallbackExcerpts int     `yaml:"fallback_excerpts"`
	ExcerptChars     int     `yaml:"excerpt_chars"`
}

// LLMConfig selects and configures the generative collaborator.
type LLMConfig struct {
	Provider          string  `yaml:"provider"`
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Model             string  `yaml:"model"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float64 `yaml:"temperature"`
	MaxRetries        int     `yaml:"max_retries"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
}

// StoreConfig selects where built indexes are persisted.
type StoreConfig struct {
	Type string `yaml:"type"`
	Dir  string `yaml:"dir"`
}

// CacheConfig configures the in-process handle cache.
type CacheConfig struct {
	TTLMinutes int `yaml:"ttl_minutes"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Segmenter  SegmenterConfig  `yaml:"segmenter"`
	Index      IndexConfig      `yaml:"index"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	LLM        LLMConfig        `yaml:"llm"`
	Store      StoreConfig      `yaml:"store"`
	Cache      CacheConfig      `yaml:"cache"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Keys missing from the file keep their default values.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault tries ./contractqa.yaml first, then ~/.config/contractqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/contractqa/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "contractqa.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultUserConfigPath is ~/.config/contractqa/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "contractqa", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	opts := service.DefaultOptions()
	return &AppConfig{
		Segmenter: SegmenterConfig{MinChars: 80, SentencesPerSegment: 3, OverlapSentences: 1},
		Index: IndexConfig{
			MaxN:        opts.Index.MaxN,
			MaxFeatures: opts.Index.MaxFeatures,
			Sublinear:   opts.Index.Sublinear,
			Stopwords:   opts.Index.Stopwords,
		},
		Retrieval: RetrievalConfig{
			K:                opts.K,
			Lambda:           opts.Lambda,
			PoolFactor:       opts.PoolFactor,
			MinRelevance:     opts.MinRelevance,
			RewriteQuery:     opts.RewriteQuery,
			FallbackExcerpts: opts.FallbackExcerpts,
			ExcerptChars:     opts.ExcerptChars,
		},
		LLM: LLMConfig{
			Provider:          "openai",
			BaseURL:           "https://api.openai.com/v1",
			APIKeyEnv:         "OPENAI_API_KEY",
			Model:             "gpt-4o-mini",
			TimeoutSecs:       int(opts.LLMTimeout / time.Second),
			MaxTokens:         opts.MaxTokens,
			Temperature:       opts.Temperature,
			MaxRetries:        2,
			RequestsPerMinute: 30,
		},
		Store:      StoreConfig{Type: "file", Dir: ".contractqa"},
		Cache:      CacheConfig{TTLMinutes: int(opts.CacheTTL / time.Minute)},
		Summarizer: SummarizerConfig{Type: "frequency", MaxSentences: 5},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	d := Default()
	// min_chars: 0 turns merging off; absent keys already hold the default.
	if cfg.Segmenter.MinChars < 0 {
		cfg.Segmenter.MinChars = 0
	}
	if cfg.Segmenter.SentencesPerSegment <= 0 {
		cfg.Segmenter.SentencesPerSegment = d.Segmenter.SentencesPerSegment
	}
	if cfg.Index.MaxN <= 0 {
		cfg.Index.MaxN = d.Index.MaxN
	}
	if cfg.Retrieval.PoolFactor <= 0 {
		cfg.Retrieval.PoolFactor = d.Retrieval.PoolFactor
	}
	if cfg.Retrieval.FallbackExcerpts <= 0 {
		cfg.Retrieval.FallbackExcerpts = d.Retrieval.FallbackExcerpts
	}
	if cfg.Retrieval.ExcerptChars <= 0 {
		cfg.Retrieval.ExcerptChars = d.Retrieval.ExcerptChars
	}
	if cfg.LLM.Provider == "openai" {
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = d.LLM.BaseURL
		}
		if cfg.LLM.APIKeyEnv == "" {
			cfg.LLM.APIKeyEnv = d.LLM.APIKeyEnv
		}
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = d.LLM.Model
		}
	}
	if cfg.LLM.TimeoutSecs <= 0 {
		cfg.LLM.TimeoutSecs = d.LLM.TimeoutSecs
	}
	if cfg.LLM.MaxTokens <= 0 {
		cfg.LLM.MaxTokens = d.LLM.MaxTokens
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = d.Store.Type
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = d.Store.Dir
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = d.Summarizer.Type
	}
	if cfg.Summarizer.MaxSentences <= 0 {
		cfg.Summarizer.MaxSentences = d.Summarizer.MaxSentences
	}
}

// Validate rejects settings the engine cannot run with.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Retrieval.K <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.k must be positive, got %d", c.Retrieval.K))
	}
	if c.Retrieval.Lambda < 0 || c.Retrieval.Lambda > 1 {
		errs = append(errs, fmt.Errorf("retrieval.lambda must be within [0,1], got %g", c.Retrieval.Lambda))
	}
	if c.Retrieval.MinRelevance < 0 || c.Retrieval.MinRelevance > 1 {
		errs = append(errs, fmt.Errorf("retrieval.min_relevance must be within [0,1], got %g", c.Retrieval.MinRelevance))
	}
	if c.Index.MaxN < 1 || c.Index.MaxN > 5 {
		errs = append(errs, fmt.Errorf("index.max_n must be within [1,5], got %d", c.Index.MaxN))
	}
	if c.Index.MaxFeatures < 0 {
		errs = append(errs, fmt.Errorf("index.max_features must not be negative, got %d", c.Index.MaxFeatures))
	}
	if c.Segmenter.OverlapSentences < 0 || c.Segmenter.OverlapSentences >= c.Segmenter.SentencesPerSegment {
		errs = append(errs, fmt.Errorf("segmenter.overlap_sentences must be within [0,%d), got %d", c.Segmenter.SentencesPerSegment, c.Segmenter.OverlapSentences))
	}
	switch c.Store.Type {
	case "file", "sqlite", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown store type: %s (supported: file, sqlite, none)", c.Store.Type))
	}
	if c.Summarizer.Type != "frequency" {
		errs = append(errs, fmt.Errorf("unknown summarizer: %s", c.Summarizer.Type))
	}
	return errors.Join(errs...)
}

// ServiceOptions converts the retrieval, index and llm sections into engine options.
func (c *AppConfig) ServiceOptions() service.Options {
	return service.Options{
		Index: tfidf.Options{
			MaxN:        c.Index.MaxN,
			MaxFeatures: c.Index.MaxFeatures,
			Sublinear:   c.Index.Sublinear,
			Stopwords:   c.Index.Stopwords,
		},
		K:                c.Retrieval.K,
		Lambda:           c.Retrieval.Lambda,
		PoolFactor:       c.Retrieval.PoolFactor,
		MinRelevance:     c.Retrieval.MinRelevance,
		RewriteQuery:     c.Retrieval.RewriteQuery,
		Temperature:      c.LLM.Temperature,
		MaxTokens:        c.LLM.MaxTokens,
		LLMTimeout:       time.Duration(c.LLM.TimeoutSecs) * time.Second,
		FallbackExcerpts: c.Retrieval.FallbackExcerpts,
		ExcerptChars:     c.Retrieval.ExcerptChars,
		CacheTTL:         time.Duration(c.Cache.TTLMinutes) * time.Minute,
	}
}

// Generator converts the llm section into a generator config.
func (c *AppConfig) Generator() llm.Config {
	return llm.Config{
		Provider:          c.LLM.Provider,
		BaseURL:           c.LLM.BaseURL,
		APIKeyEnv:         c.LLM.APIKeyEnv,
		Model:             c.LLM.Model,
		Timeout:           time.Duration(c.LLM.TimeoutSecs) * time.Second,
		MaxRetries:        c.LLM.MaxRetries,
		RequestsPerMinute: c.LLM.RequestsPerMinute,
	}
}
