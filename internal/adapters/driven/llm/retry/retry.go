// Package retry bounds and paces LLM provider calls.
//
// Only failures classified as rate limiting or provider unavailability are
// retried. Everything else, including rejected credentials, returns at once.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Default policy values.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 30 * time.Second
)

// Policy bounds retries.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int

	// BaseDelay is the first backoff; it doubles per attempt up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

func (p Policy) normalised() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = max(DefaultMaxDelay, p.BaseDelay)
	}
	return p
}

// backoff returns the wait before the next attempt. A provider-supplied
// Retry-After wins when present.
func (p Policy) backoff(attempt int, err error) time.Duration {
	if d := domain.RetryAfter(err); d > 0 {
		return min(d, p.MaxDelay)
	}
	d := p.BaseDelay << (attempt - 1)
	if d <= 0 || d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do calls fn until it succeeds, fails with a non-retryable error, or
// the policy's attempts are exhausted. limiter may be nil.
func Do(ctx context.Context, limiter *Limiter, policy Policy, fn func(context.Context) (string, error)) (string, error) {
	policy = policy.normalised()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		if !domain.IsRetryable(err) || ctx.Err() != nil {
			return "", err
		}
		lastErr = err

		if attempt == policy.MaxAttempts {
			break
		}

		delay := policy.backoff(attempt, err)
		logger.Debug("provider call failed (attempt %d/%d), retrying in %s: %v",
			attempt, policy.MaxAttempts, delay, err)

		if limiter != nil && domain.IsRateLimited(err) {
			// Shared with concurrent callers of the same provider.
			limiter.RecordRateLimitError(delay)
			continue
		}
		if err := sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("after %d attempts: %w", policy.MaxAttempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ensure Provider implements the interface.
var _ driven.LLMProvider = (*Provider)(nil)

// Provider decorates an LLMProvider with pacing and bounded retries.
type Provider struct {
	inner   driven.LLMProvider
	limiter *Limiter
	policy  Policy
}

// Wrap returns p with retries. limiter may be shared across providers of the same name.
func Wrap(p driven.LLMProvider, limiter *Limiter, policy Policy) *Provider {
	return &Provider{inner: p, limiter: limiter, policy: policy}
}

// Generate calls the inner provider under the retry policy.
func (p *Provider) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return Do(ctx, p.limiter, p.policy, func(ctx context.Context) (string, error) {
		return p.inner.Generate(ctx, prompt, opts)
	})
}

// Name returns the inner provider's name.
func (p *Provider) Name() domain.ProviderName {
	return p.inner.Name()
}

// ModelName returns the inner provider's model.
func (p *Provider) ModelName() string {
	return p.inner.ModelName()
}
