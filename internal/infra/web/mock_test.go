//go:build !integration

package web_test

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"ai-reel-studio/internal/domain"
	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/infra/web"
	"ai-reel-studio/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestAuth() *web.AuthManager {
	return web.NewAuthManager("test-secret", false, "", time.Hour)
}

// ---- Mock AccountUseCase ----

type mockAccounts struct {
	SignupFunc    func(ctx context.Context, username, password string) (*model.User, error)
	LoginFunc     func(ctx context.Context, username, password string) (*model.User, error)
	GetFunc       func(ctx context.Context, id string) (*model.User, error)
	IncrementFunc func(ctx context.Context, id string) error
}

var _ usecase.AccountUseCase = (*mockAccounts)(nil)

func (m *mockAccounts) Signup(ctx context.Context, username, password string) (*model.User, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, username, password)
	}
	return &model.User{ID: "user-1", Username: username}, nil
}

func (m *mockAccounts) Login(ctx context.Context, username, password string) (*model.User, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password)
	}
	return &model.User{ID: "user-1", Username: username}, nil
}

func (m *mockAccounts) Get(ctx context.Context, id string) (*model.User, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &model.User{ID: id, Username: "someone", VideoCount: 3}, nil
}

func (m *mockAccounts) IncrementVideoCount(ctx context.Context, id string) error {
	if m.IncrementFunc != nil {
		return m.IncrementFunc(ctx, id)
	}
	return nil
}

func (m *mockAccounts) Count(ctx context.Context) (int, error) { return 1, nil }

// ---- Mock LeaderboardUseCase ----

type mockBoard struct {
	LeaderboardFunc func(ctx context.Context) ([]model.LeaderboardEntry, error)
}

var _ usecase.LeaderboardUseCase = (*mockBoard)(nil)

func (m *mockBoard) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	if m.LeaderboardFunc != nil {
		return m.LeaderboardFunc(ctx)
	}
	return []model.LeaderboardEntry{{Username: "top", VideoCount: 9}}, nil
}

// ---- Mock SceneUseCase ----

type mockScenes struct {
	ScenePromptsFunc func(ctx context.Context, images map[model.SceneSlot]string) (map[model.SceneSlot]string, error)
	GenerateAllFunc  func(ctx context.Context, prompts, images map[model.SceneSlot]string, outDir string) ([]model.SceneOutcome, error)
}

var _ usecase.SceneUseCase = (*mockScenes)(nil)

func (m *mockScenes) ScenePrompts(ctx context.Context, images map[model.SceneSlot]string) (map[model.SceneSlot]string, error) {
	if m.ScenePromptsFunc != nil {
		return m.ScenePromptsFunc(ctx, images)
	}
	prompts := make(map[model.SceneSlot]string, len(images))
	for slot := range images {
		prompts[slot] = "prompt " + string(slot)
	}
	return prompts, nil
}

func (m *mockScenes) GenerateScene(ctx context.Context, job model.SceneJob) model.SceneOutcome {
	return model.SceneOutcome{Slot: job.Slot, Status: model.SceneStatusSuccess, OutputPath: job.OutputPath}
}

func (m *mockScenes) GenerateAll(ctx context.Context, prompts, images map[model.SceneSlot]string, outDir string) ([]model.SceneOutcome, error) {
	if m.GenerateAllFunc != nil {
		return m.GenerateAllFunc(ctx, prompts, images, outDir)
	}
	outcomes := make([]model.SceneOutcome, 0, len(model.SceneSlots))
	for _, slot := range model.SceneSlots {
		outcomes = append(outcomes, model.SceneOutcome{Slot: slot, Status: model.SceneStatusSuccess, OutputPath: string(slot) + ".mp4"})
	}
	return outcomes, nil
}

// ---- Mock ReelUseCase ----

type mockReel struct {
	MergeFunc func(ctx context.Context, outcomes []model.SceneOutcome, outPath string) error
}

var _ usecase.ReelUseCase = (*mockReel)(nil)

func (m *mockReel) Merge(ctx context.Context, outcomes []model.SceneOutcome, outPath string) error {
	if m.MergeFunc != nil {
		return m.MergeFunc(ctx, outcomes, outPath)
	}
	return nil
}

func (m *mockReel) Voiceover(ctx context.Context, videoPath, audioOut string) (string, error) {
	return "a short narration", nil
}

func (m *mockReel) AttachAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	return nil
}

func (m *mockReel) Captions(ctx context.Context, mediaPath, srtOut string) error { return nil }

func (m *mockReel) BurnCaptions(ctx context.Context, videoPath, srtPath, outPath string) error {
	return nil
}

// ---- Mock RunUseCase ----

type mockRuns struct {
	runs map[string]*model.ReelRun
}

var _ usecase.RunUseCase = (*mockRuns)(nil)

func newMockRuns() *mockRuns { return &mockRuns{runs: make(map[string]*model.ReelRun)} }

func (m *mockRuns) Enqueue(ctx context.Context, userID string, images map[model.SceneSlot]string) (*model.ReelRun, error) {
	run := model.NewReelRun(userID, images)
	m.runs[run.ID] = run
	return run, nil
}

func (m *mockRuns) Get(ctx context.Context, id string) (*model.ReelRun, error) {
	run, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return run, nil
}

func (m *mockRuns) ListByUser(ctx context.Context, userID string, limit int) ([]*model.ReelRun, error) {
	var out []*model.ReelRun
	for _, run := range m.runs {
		if run.UserID == userID {
			out = append(out, run)
		}
	}
	return out, nil
}

func (m *mockRuns) ClaimNext(ctx context.Context) (*model.ReelRun, error) {
	return nil, domain.ErrNotFound
}

func (m *mockRuns) Process(ctx context.Context, run *model.ReelRun) error {
	return errors.New("not implemented")
}
