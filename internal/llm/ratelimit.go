package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"contractqa/internal/domain"
)

type rateLimited struct {
	next    domain.Generator
	limiter *rate.Limiter
}

// RateLimited wraps gen so that at most perMinute calls start per minute.
// A call that cannot get a slot before its context ends fails with
// domain.ErrCollaborator instead of waiting. perMinute <= 0 returns gen as is.
func RateLimited(gen domain.Generator, perMinute, burst int) domain.Generator {
	if perMinute <= 0 {
		return gen
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimited{
		next:    gen,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
	}
}

func (r *rateLimited) Name() string { return r.next.Name() }

func (r *rateLimited) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit: %v", domain.ErrCollaborator, err)
	}
	return r.next.Generate(ctx, req)
}
