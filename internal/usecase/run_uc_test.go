//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ai-reel-studio/internal/domain"
	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/usecase"
)

// ---- Mock SceneUseCase ----

type mockSceneUC struct {
	ScenePromptsFunc func(ctx context.Context, images map[model.SceneSlot]string) (map[model.SceneSlot]string, error)
	GenerateAllFunc  func(ctx context.Context, prompts, images map[model.SceneSlot]string, outDir string) ([]model.SceneOutcome, error)
}

func (m *mockSceneUC) ScenePrompts(ctx context.Context, images map[model.SceneSlot]string) (map[model.SceneSlot]string, error) {
	if m.ScenePromptsFunc != nil {
		return m.ScenePromptsFunc(ctx, images)
	}
	prompts := make(map[model.SceneSlot]string, len(images))
	for slot := range images {
		prompts[slot] = "prompt " + string(slot)
	}
	return prompts, nil
}

func (m *mockSceneUC) GenerateScene(ctx context.Context, job model.SceneJob) model.SceneOutcome {
	return model.SceneOutcome{Slot: job.Slot, Status: model.SceneStatusSuccess, OutputPath: job.OutputPath}
}

func (m *mockSceneUC) GenerateAll(ctx context.Context, prompts, images map[model.SceneSlot]string, outDir string) ([]model.SceneOutcome, error) {
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

type mockReelUC struct {
	mu     sync.Mutex
	Stages []string // which post-production steps ran, in order

	MergeFunc     func(ctx context.Context, outcomes []model.SceneOutcome, outPath string) error
	VoiceoverFunc func(ctx context.Context, videoPath, audioOut string) (string, error)
	CaptionsFunc  func(ctx context.Context, mediaPath, srtOut string) error
}

func (m *mockReelUC) record(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stages = append(m.Stages, stage)
}

func (m *mockReelUC) Merge(ctx context.Context, outcomes []model.SceneOutcome, outPath string) error {
	m.record("merge")
	if m.MergeFunc != nil {
		return m.MergeFunc(ctx, outcomes, outPath)
	}
	return nil
}

func (m *mockReelUC) Voiceover(ctx context.Context, videoPath, audioOut string) (string, error) {
	m.record("voiceover")
	if m.VoiceoverFunc != nil {
		return m.VoiceoverFunc(ctx, videoPath, audioOut)
	}
	return "a short narration", nil
}

func (m *mockReelUC) AttachAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	m.record("attach_audio")
	return nil
}

func (m *mockReelUC) Captions(ctx context.Context, mediaPath, srtOut string) error {
	m.record("captions")
	if m.CaptionsFunc != nil {
		return m.CaptionsFunc(ctx, mediaPath, srtOut)
	}
	return nil
}

func (m *mockReelUC) BurnCaptions(ctx context.Context, videoPath, srtPath, outPath string) error {
	m.record("burn_captions")
	return nil
}

// ---- Mock AccountUseCase ----

type mockAccountUC struct {
	mu         sync.Mutex
	Increments []string
}

func (m *mockAccountUC) Signup(ctx context.Context, username, password string) (*model.User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAccountUC) Login(ctx context.Context, username, password string) (*model.User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAccountUC) Get(ctx context.Context, id string) (*model.User, error) {
	return &model.User{ID: id}, nil
}

func (m *mockAccountUC) IncrementVideoCount(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Increments = append(m.Increments, id)
	return nil
}

func (m *mockAccountUC) Count(ctx context.Context) (int, error) { return 0, nil }

func TestRunUseCase_Enqueue(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("should persist a queued run", func(t *testing.T) {
		repo := newMemRunRepo()
		uc := usecase.NewRunUseCase(repo, &mockSceneUC{}, &mockReelUC{}, &mockAccountUC{}, t.TempDir(), testLogger)

		run, err := uc.Enqueue(ctx, "user-1", allSlotImages())
		if err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		if run.Status != model.RunStatusQueued {
			t.Errorf("expected queued status, got %s", run.Status)
		}
		stored, err := uc.Get(ctx, run.ID)
		if err != nil {
			t.Fatalf("stored run not found: %v", err)
		}
		if stored.UserID != "user-1" || len(stored.SceneImages) != 4 {
			t.Errorf("stored run mismatch: %+v", stored)
		}
	})

	t.Run("should reject missing user or images", func(t *testing.T) {
		uc := usecase.NewRunUseCase(newMemRunRepo(), &mockSceneUC{}, &mockReelUC{}, &mockAccountUC{}, t.TempDir(), testLogger)
		if _, err := uc.Enqueue(ctx, "", allSlotImages()); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("missing user: expected ErrInvalidArgument, got %v", err)
		}
		if _, err := uc.Enqueue(ctx, "user-1", nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("missing images: expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestRunUseCase_ClaimNext(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("should claim the oldest queued run once", func(t *testing.T) {
		repo := newMemRunRepo()
		uc := usecase.NewRunUseCase(repo, &mockSceneUC{}, &mockReelUC{}, &mockAccountUC{}, t.TempDir(), testLogger)
		first, _ := uc.Enqueue(ctx, "user-1", allSlotImages())
		_, _ = uc.Enqueue(ctx, "user-1", allSlotImages())

		claimed, err := uc.ClaimNext(ctx)
		if err != nil {
			t.Fatalf("ClaimNext failed: %v", err)
		}
		if claimed.ID != first.ID {
			t.Errorf("expected the oldest run %s, got %s", first.ID, claimed.ID)
		}
		if claimed.Status != model.RunStatusProcessing {
			t.Errorf("claimed run should be processing, got %s", claimed.Status)
		}
	})

	t.Run("should report an empty queue as not found", func(t *testing.T) {
		uc := usecase.NewRunUseCase(newMemRunRepo(), &mockSceneUC{}, &mockReelUC{}, &mockAccountUC{}, t.TempDir(), testLogger)
		if _, err := uc.ClaimNext(ctx); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRunUseCase_Process(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	newRun := func() *model.ReelRun {
		run := model.NewReelRun("user-1", allSlotImages())
		run.Status = model.RunStatusProcessing
		return run
	}

	t.Run("should complete the full pipeline in order", func(t *testing.T) {
		// --- Arrange ---
		repo := newMemRunRepo()
		reel := &mockReelUC{}
		accounts := &mockAccountUC{}
		uc := usecase.NewRunUseCase(repo, &mockSceneUC{}, reel, accounts, t.TempDir(), testLogger)
		run := newRun()
		_ = repo.Save(ctx, nil, run)

		// --- Act ---
		if err := uc.Process(ctx, run); err != nil {
			t.Fatalf("Process failed: %v", err)
		}

		// --- Assert ---
		wantStages := []string{"merge", "voiceover", "attach_audio", "captions", "burn_captions"}
		if len(reel.Stages) != len(wantStages) {
			t.Fatalf("expected stages %v, got %v", wantStages, reel.Stages)
		}
		for i, s := range wantStages {
			if reel.Stages[i] != s {
				t.Errorf("stage %d: expected %s, got %s", i, s, reel.Stages[i])
			}
		}
		stored, _ := repo.FindByID(ctx, nil, run.ID)
		if stored.Status != model.RunStatusCompleted {
			t.Errorf("expected completed, got %s", stored.Status)
		}
		if stored.FinalPath == "" || stored.CaptionsPath == "" || stored.Script == "" {
			t.Errorf("artifacts missing on completed run: %+v", stored)
		}
		if len(accounts.Increments) != 1 || accounts.Increments[0] != "user-1" {
			t.Errorf("video count not incremented exactly once: %v", accounts.Increments)
		}
	})

	t.Run("should still complete when some scenes fail", func(t *testing.T) {
		repo := newMemRunRepo()
		scenes := &mockSceneUC{GenerateAllFunc: func(ctx context.Context, prompts, images map[model.SceneSlot]string, outDir string) ([]model.SceneOutcome, error) {
			return []model.SceneOutcome{
				{Slot: model.SlotHeroReveal, Status: model.SceneStatusSuccess, OutputPath: "scene1.mp4"},
				{Slot: model.SlotSideGeometry, Status: model.SceneStatusExhausted, Error: "exhausted"},
				{Slot: model.SlotOrbit, Status: model.SceneStatusSuccess, OutputPath: "scene3.mp4"},
				{Slot: model.SlotDetail, Status: model.SceneStatusExhausted, Error: "exhausted"},
			}, nil
		}}
		var mergedOutcomes []model.SceneOutcome
		reel := &mockReelUC{MergeFunc: func(ctx context.Context, outcomes []model.SceneOutcome, outPath string) error {
			mergedOutcomes = model.SuccessfulOutcomes(outcomes)
			return nil
		}}
		uc := usecase.NewRunUseCase(repo, scenes, reel, &mockAccountUC{}, t.TempDir(), testLogger)
		run := newRun()
		_ = repo.Save(ctx, nil, run)

		if err := uc.Process(ctx, run); err != nil {
			t.Fatalf("partial scene failure must not fail the run: %v", err)
		}
		if len(mergedOutcomes) != 2 {
			t.Fatalf("merge should receive exactly the 2 surviving scenes, got %d", len(mergedOutcomes))
		}
		if mergedOutcomes[0].Slot != model.SlotHeroReveal || mergedOutcomes[1].Slot != model.SlotOrbit {
			t.Errorf("unexpected surviving slots: %+v", mergedOutcomes)
		}
	})

	t.Run("should fail the run when no scene succeeds", func(t *testing.T) {
		repo := newMemRunRepo()
		scenes := &mockSceneUC{GenerateAllFunc: func(ctx context.Context, prompts, images map[model.SceneSlot]string, outDir string) ([]model.SceneOutcome, error) {
			outcomes := make([]model.SceneOutcome, 0, len(model.SceneSlots))
			for _, slot := range model.SceneSlots {
				outcomes = append(outcomes, model.SceneOutcome{Slot: slot, Status: model.SceneStatusExhausted, Error: "exhausted"})
			}
			return outcomes, domain.ErrNoScenes
		}}
		reel := &mockReelUC{}
		accounts := &mockAccountUC{}
		uc := usecase.NewRunUseCase(repo, scenes, reel, accounts, t.TempDir(), testLogger)
		run := newRun()
		_ = repo.Save(ctx, nil, run)

		err := uc.Process(ctx, run)
		if !errors.Is(err, domain.ErrNoScenes) {
			t.Fatalf("expected ErrNoScenes, got %v", err)
		}
		stored, _ := repo.FindByID(ctx, nil, run.ID)
		if stored.Status != model.RunStatusFailed {
			t.Errorf("expected failed, got %s", stored.Status)
		}
		if len(stored.Outcomes) != 4 {
			t.Errorf("outcomes should be persisted even on failure, got %d", len(stored.Outcomes))
		}
		if len(reel.Stages) != 0 {
			t.Errorf("no post-production should run, got %v", reel.Stages)
		}
		if len(accounts.Increments) != 0 {
			t.Errorf("video count must not change on failure: %v", accounts.Increments)
		}
	})

	t.Run("should fail the run when a later stage errors", func(t *testing.T) {
		repo := newMemRunRepo()
		reel := &mockReelUC{VoiceoverFunc: func(ctx context.Context, videoPath, audioOut string) (string, error) {
			return "", errors.New("tts outage")
		}}
		accounts := &mockAccountUC{}
		uc := usecase.NewRunUseCase(repo, &mockSceneUC{}, reel, accounts, t.TempDir(), testLogger)
		run := newRun()
		_ = repo.Save(ctx, nil, run)

		if err := uc.Process(ctx, run); err == nil {
			t.Fatal("expected an error from the voiceover stage")
		}
		stored, _ := repo.FindByID(ctx, nil, run.ID)
		if stored.Status != model.RunStatusFailed {
			t.Errorf("expected failed, got %s", stored.Status)
		}
		if stored.LastError == "" {
			t.Error("LastError should describe the failure")
		}
		if len(accounts.Increments) != 0 {
			t.Errorf("video count must not change on failure: %v", accounts.Increments)
		}
	})
}
