package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"ai-reel-studio/internal/domain"
	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/adapter"
	"ai-reel-studio/internal/infra/logging"
	"ai-reel-studio/internal/infra/metrics"
)

// Compile-time check
var _ SceneUseCase = (*sceneUC)(nil)

// SceneUseCase drives scene prompt design and scene video generation.
type SceneUseCase interface {
	ScenePrompts(ctx context.Context, images map[model.SceneSlot]string) (map[model.SceneSlot]string, error)
	GenerateScene(ctx context.Context, job model.SceneJob) model.SceneOutcome
	// GenerateAll walks the four slots strictly in order, one at a time,
	// waiting the configured delay between consecutive slots. A slot that
	// exhausts its retries does not stop the walk. The returned error is
	// domain.ErrNoScenes when not a single slot succeeded.
	GenerateAll(ctx context.Context, prompts, images map[model.SceneSlot]string, outDir string) ([]model.SceneOutcome, error)
}

type sceneUC struct {
	director adapter.PromptDirector
	gen      adapter.VideoGenerator
	delay    time.Duration
	log      *zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewSceneUseCase(director adapter.PromptDirector, gen adapter.VideoGenerator, interSceneDelay time.Duration, logger *zerolog.Logger) *sceneUC {
	return &sceneUC{
		director: director,
		gen:      gen,
		delay:    interSceneDelay,
		log:      logger,
		sleep:    sleepCtx,
	}
}

func (s *sceneUC) ScenePrompts(ctx context.Context, images map[model.SceneSlot]string) (map[model.SceneSlot]string, error) {
	defer logging.TraceDuration(s.log, "SceneUC.ScenePrompts")()

	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no images", domain.ErrInvalidArgument)
	}
	return s.director.ScenePrompts(ctx, images)
}

func (s *sceneUC) GenerateScene(ctx context.Context, job model.SceneJob) model.SceneOutcome {
	started := time.Now()
	log := s.log.With().Str("scene", string(job.Slot)).Logger()
	log.Info().Str("image", job.ImagePath).Msg("generating scene")

	err := s.gen.Generate(ctx, job)
	outcome := model.SceneOutcome{Slot: job.Slot}
	switch {
	case err == nil:
		outcome.Status = model.SceneStatusSuccess
		outcome.OutputPath = job.OutputPath
	case errors.Is(err, domain.ErrExhausted):
		outcome.Status = model.SceneStatusExhausted
		outcome.Error = err.Error()
	default:
		outcome.Status = model.SceneStatusSkipped
		outcome.Error = err.Error()
	}
	metrics.ObserveSceneLatency(string(job.Slot), string(outcome.Status), time.Since(started).Seconds())
	log.Info().Str("status", string(outcome.Status)).Msg("scene finished")
	return outcome
}

func (s *sceneUC) GenerateAll(ctx context.Context, prompts, images map[model.SceneSlot]string, outDir string) ([]model.SceneOutcome, error) {
	defer logging.TraceDuration(s.log, "SceneUC.GenerateAll")()

	outcomes := make([]model.SceneOutcome, 0, len(model.SceneSlots))
	for i, slot := range model.SceneSlots {
		if ctx.Err() != nil {
			outcomes = append(outcomes, model.SceneOutcome{
				Slot:   slot,
				Status: model.SceneStatusSkipped,
				Error:  ctx.Err().Error(),
			})
			continue
		}
		prompt, okP := prompts[slot]
		image, okI := images[slot]
		if !okP || !okI {
			outcomes = append(outcomes, model.SceneOutcome{
				Slot:   slot,
				Status: model.SceneStatusSkipped,
				Error:  "missing prompt or image",
			})
			continue
		}

		if i > 0 && s.delay > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				outcomes = append(outcomes, model.SceneOutcome{
					Slot:   slot,
					Status: model.SceneStatusSkipped,
					Error:  err.Error(),
				})
				continue
			}
		}

		job := model.SceneJob{
			Slot:       slot,
			Prompt:     prompt,
			ImagePath:  image,
			OutputPath: filepath.Join(outDir, string(slot)+".mp4"),
		}
		outcomes = append(outcomes, s.GenerateScene(ctx, job))
	}

	if len(model.SuccessfulOutcomes(outcomes)) == 0 {
		return outcomes, domain.ErrNoScenes
	}
	return outcomes, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
