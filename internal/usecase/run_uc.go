package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"ai-reel-studio/internal/domain"
	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/repository"
	"ai-reel-studio/internal/infra/logging"
	"ai-reel-studio/internal/infra/metrics"
)

// Compile-time check
var _ RunUseCase = (*runUC)(nil)

// RunUseCase manages asynchronous end-to-end pipeline runs.
type RunUseCase interface {
	Enqueue(ctx context.Context, userID string, images map[model.SceneSlot]string) (*model.ReelRun, error)
	Get(ctx context.Context, id string) (*model.ReelRun, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.ReelRun, error)
	// ClaimNext atomically picks up the oldest queued run, or
	// domain.ErrNotFound when the queue is empty.
	ClaimNext(ctx context.Context) (*model.ReelRun, error)
	// Process executes the claimed run to completion and persists the result.
	Process(ctx context.Context, run *model.ReelRun) error
}

type runUC struct {
	runs     repository.RunRepository
	scenes   SceneUseCase
	reel     ReelUseCase
	accounts AccountUseCase

	outputDir string
	log       *zerolog.Logger
}

func NewRunUseCase(runs repository.RunRepository, scenes SceneUseCase, reel ReelUseCase, accounts AccountUseCase,
	outputDir string, logger *zerolog.Logger) *runUC {
	return &runUC{
		runs:      runs,
		scenes:    scenes,
		reel:      reel,
		accounts:  accounts,
		outputDir: outputDir,
		log:       logger,
	}
}

func (u *runUC) Enqueue(ctx context.Context, userID string, images map[model.SceneSlot]string) (*model.ReelRun, error) {
	defer logging.TraceDuration(u.log, "RunUC.Enqueue")()

	if userID == "" || len(images) == 0 {
		return nil, fmt.Errorf("%w: user and images are required", domain.ErrInvalidArgument)
	}
	run := model.NewReelRun(userID, images)
	if err := u.runs.Save(ctx, repository.NoTX, run); err != nil {
		return nil, err
	}
	u.log.Info().Str("run_id", run.ID).Str("user_id", userID).Msg("run enqueued")
	return run, nil
}

func (u *runUC) Get(ctx context.Context, id string) (*model.ReelRun, error) {
	return u.runs.FindByID(ctx, repository.NoTX, id)
}

func (u *runUC) ListByUser(ctx context.Context, userID string, limit int) ([]*model.ReelRun, error) {
	return u.runs.ListByUser(ctx, repository.NoTX, userID, limit)
}

func (u *runUC) ClaimNext(ctx context.Context) (*model.ReelRun, error) {
	return u.runs.FetchAndMarkProcessing(ctx)
}

// Process runs prompts -> scenes -> merge -> voiceover -> captions. Scene
// failures are tolerated as long as at least one scene survives; any failure
// in a later stage fails the run.
func (u *runUC) Process(ctx context.Context, run *model.ReelRun) error {
	log := u.log.With().Str("run_id", run.ID).Logger()
	defer logging.TraceDuration(&log, "RunUC.Process")()

	err := u.process(ctx, &log, run)
	if err != nil {
		run.Status = model.RunStatusFailed
		run.LastError = err.Error()
		metrics.IncRun("failed")
	} else {
		run.Status = model.RunStatusCompleted
		run.LastError = ""
		metrics.IncRun("completed")
	}
	if saveErr := u.runs.Save(ctx, repository.NoTX, run); saveErr != nil {
		log.Error().Err(saveErr).Msg("failed to persist run result")
		if err == nil {
			err = saveErr
		}
	}
	return err
}

// UserDir is the per-user artifact root under the output dir. The web file
// endpoints serve exactly this tree, so every run artifact must live in it.
func UserDir(root, userID string) string {
	return filepath.Join(root, "users", userID)
}

func (u *runUC) process(ctx context.Context, log *zerolog.Logger, run *model.ReelRun) error {
	dir := filepath.Join(UserDir(u.outputDir, run.UserID), "runs", run.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}

	prompts, err := u.stagePrompts(ctx, run)
	if err != nil {
		return fmt.Errorf("scene prompts: %w", err)
	}
	run.Prompts = prompts
	if err := u.runs.Save(ctx, repository.NoTX, run); err != nil {
		log.Warn().Err(err).Msg("failed to checkpoint prompts")
	}

	outcomes, err := u.stageScenes(ctx, run, dir)
	run.Outcomes = outcomes
	if err != nil {
		return fmt.Errorf("generate scenes: %w", err)
	}
	log.Info().Int("completed", run.CompletedScenes()).Msg("scenes generated")

	merged := filepath.Join(dir, "merged.mp4")
	if err := u.stage(ctx, "merge", func(ctx context.Context) error {
		return u.reel.Merge(ctx, outcomes, merged)
	}); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	run.MergedPath = merged

	audio := filepath.Join(dir, "voiceover.mp3")
	var script string
	if err := u.stage(ctx, "voiceover", func(ctx context.Context) error {
		var verr error
		script, verr = u.reel.Voiceover(ctx, merged, audio)
		return verr
	}); err != nil {
		return fmt.Errorf("voiceover: %w", err)
	}
	run.Script = script
	if werr := os.WriteFile(filepath.Join(dir, "script.txt"), []byte(script), 0o644); werr != nil {
		log.Warn().Err(werr).Msg("failed to save voiceover script")
	}

	withAudio := filepath.Join(dir, "with_audio.mp4")
	if err := u.stage(ctx, "attach_audio", func(ctx context.Context) error {
		return u.reel.AttachAudio(ctx, merged, audio, withAudio)
	}); err != nil {
		return fmt.Errorf("attach audio: %w", err)
	}

	srt := filepath.Join(dir, "captions.srt")
	if err := u.stage(ctx, "captions", func(ctx context.Context) error {
		return u.reel.Captions(ctx, withAudio, srt)
	}); err != nil {
		return fmt.Errorf("captions: %w", err)
	}
	run.CaptionsPath = srt

	final := filepath.Join(dir, "final.mp4")
	if err := u.stage(ctx, "burn_captions", func(ctx context.Context) error {
		return u.reel.BurnCaptions(ctx, withAudio, srt, final)
	}); err != nil {
		return fmt.Errorf("burn captions: %w", err)
	}
	run.FinalPath = final

	if err := u.accounts.IncrementVideoCount(ctx, run.UserID); err != nil {
		log.Warn().Err(err).Msg("failed to increment video count")
	}
	return nil
}

func (u *runUC) stagePrompts(ctx context.Context, run *model.ReelRun) (map[model.SceneSlot]string, error) {
	var prompts map[model.SceneSlot]string
	err := u.stage(ctx, "prompts", func(ctx context.Context) error {
		var perr error
		prompts, perr = u.scenes.ScenePrompts(ctx, run.SceneImages)
		return perr
	})
	return prompts, err
}

func (u *runUC) stageScenes(ctx context.Context, run *model.ReelRun, dir string) ([]model.SceneOutcome, error) {
	var outcomes []model.SceneOutcome
	err := u.stage(ctx, "scenes", func(ctx context.Context) error {
		var serr error
		outcomes, serr = u.scenes.GenerateAll(ctx, run.Prompts, run.SceneImages, dir)
		return serr
	})
	return outcomes, err
}

func (u *runUC) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	started := time.Now()
	err := fn(ctx)
	metrics.ObserveStage(name, time.Since(started).Seconds(), err == nil)
	return err
}
