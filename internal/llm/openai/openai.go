// Package openai implements the generative collaborator against any
// OpenAI-compatible chat completions endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"contractqa/internal/domain"
)

const systemPrompt = "You answer questions about a contract using only the numbered excerpts provided. " +
	"Quote the contract where possible. If the excerpts do not contain the answer, say so."

// Config configures the chat completions client.
type Config struct {
	BaseURL    string
	APIKey     string
	APIKeyEnv  string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Generator implements domain.Generator.
type Generator struct {
	client     *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
}

var _ domain.Generator = (*Generator)(nil)

// NewGenerator creates a generator. The API key is read from cfg.APIKey, or
// from the environment variable named by cfg.APIKeyEnv.
func NewGenerator(cfg Config) (*Generator, error) {
	key := cfg.APIKey
	if key == "" && cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("%w: missing API key in env %s", domain.ErrGeneratorUnavailable, cfg.APIKeyEnv)
	}
	clientConfig := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Generator{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Name returns the identifier of this generator implementation.
func (g *Generator) Name() string { return "openai" }

// Generate sends one chat completion. Every failure is wrapped with
// domain.ErrCollaborator. The request timeout bounds all retries together.
func (g *Generator) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = g.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(req)},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: temperature(req.Temperature),
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		resp, err := g.client.CreateChatCompletion(ctx, chatReq)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("%w: no choices returned", domain.ErrCollaborator)
			}
			text := strings.TrimSpace(resp.Choices[0].Message.Content)
			if text == "" {
				return "", fmt.Errorf("%w: empty completion", domain.ErrCollaborator)
			}
			return text, nil
		}
		lastErr = err
		if !retryable(err) || attempt == g.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", domain.ErrCollaborator, ctx.Err())
		case <-time.After(retryDelay(attempt)):
		}
	}
	return "", fmt.Errorf("%w: %v", domain.ErrCollaborator, lastErr)
}

func userPrompt(req domain.GenerateRequest) string {
	var b strings.Builder
	b.WriteString("Contract excerpts:\n")
	b.WriteString(req.Context)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(req.Prompt)
	return b.String()
}

// temperature maps 0 to the smallest positive float32, since the client
// omits a zero temperature and the server would apply its own default.
func temperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func retryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return true
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
