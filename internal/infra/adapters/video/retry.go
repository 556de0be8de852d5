package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ai-reel-studio/internal/domain"
	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/adapter"
	"ai-reel-studio/internal/infra/metrics"
)

// Compile-time check
var _ adapter.VideoGenerator = (*RetryingGenerator)(nil)

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

func (c *RetryConfig) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 20 * time.Second
	}
}

// RetryingGenerator wraps a VideoGenerator with bounded retries, rate-limit
// aware backoff and credential rotation. Rotation is free and immediate, so
// it is preferred over waiting whenever more than one credential exists;
// the linear wait (base * attempt) is the fallback when it cannot help.
type RetryingGenerator struct {
	inner adapter.VideoGenerator
	keys  adapter.Keyring
	cfg   RetryConfig
	log   *zerolog.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetryingGenerator(inner adapter.VideoGenerator, keys adapter.Keyring, cfg RetryConfig, logger *zerolog.Logger) *RetryingGenerator {
	cfg.applyDefaults()
	return &RetryingGenerator{
		inner: inner,
		keys:  keys,
		cfg:   cfg,
		log:   logger,
		sleep: sleepCtx,
	}
}

func (r *RetryingGenerator) Generate(ctx context.Context, job model.SceneJob) error {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		r.log.Info().
			Str("scene", string(job.Slot)).
			Int("attempt", attempt).
			Int("max_attempts", r.cfg.MaxAttempts).
			Msg("requesting scene generation")

		err := r.inner.Generate(ctx, job)
		if err == nil {
			metrics.IncSceneAttempt("success")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err

		if errors.Is(err, domain.ErrRateLimited) {
			metrics.IncSceneAttempt("rate_limited")
			wait := r.cfg.BaseDelay * time.Duration(attempt)
			r.log.Warn().Str("scene", string(job.Slot)).Dur("wait", wait).Msg("rate limited, backing off")
			if err := r.sleep(ctx, wait); err != nil {
				return err
			}
			// Rotation after the wait is opportunistic; a fresh key may start
			// with a clean rate-limit window.
			if r.keys.Rotate() {
				r.log.Info().Msg("credential rotated after rate limit")
			}
			continue
		}

		metrics.IncSceneAttempt("error")
		if r.keys.Rotate() {
			r.log.Info().Str("scene", string(job.Slot)).Msg("credential rotated, retrying immediately")
			continue
		}
		wait := r.cfg.BaseDelay * time.Duration(attempt)
		r.log.Warn().Str("scene", string(job.Slot)).Dur("wait", wait).Msg("single credential, waiting before retry")
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}

	metrics.IncSceneAttempt("exhausted")
	return fmt.Errorf("%w after %d attempts: %v", domain.ErrExhausted, r.cfg.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
