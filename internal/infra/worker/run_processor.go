package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"ai-reel-studio/internal/domain"
	"ai-reel-studio/internal/usecase"
)

// RunProcessor polls for queued reel runs and executes them on the pool.
type RunProcessor struct {
	runs usecase.RunUseCase
	log  *zerolog.Logger
}

func NewRunProcessor(runs usecase.RunUseCase, log *zerolog.Logger) *RunProcessor {
	return &RunProcessor{runs: runs, log: log}
}

// Start runs the claim loop. This should be run in a goroutine.
func (p *RunProcessor) Start(ctx context.Context, pool *Pool) {
	p.log.Info().Msg("run processor started")
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("run processor stopping")
			return
		case <-ticker.C:
			_ = pool.Submit(func(ctx context.Context) error {
				p.processOne(ctx)
				return nil
			})
		}
	}
}

func (p *RunProcessor) processOne(ctx context.Context) {
	run, err := p.runs.ClaimNext(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			p.log.Error().Err(err).Msg("failed to claim run")
		}
		return // queue is empty
	}

	log := p.log.With().Str("run_id", run.ID).Logger()
	log.Info().Str("user_id", run.UserID).Msg("processing run")
	start := time.Now()

	if err := p.runs.Process(ctx, run); err != nil {
		log.Error().Err(err).Msg("run failed")
	}
	log.Info().Str("status", string(run.Status)).Dur("duration", time.Since(start)).Msg("run finished")
}
