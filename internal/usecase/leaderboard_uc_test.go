//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/repository"
	"ai-reel-studio/internal/usecase"
)

func TestLeaderboardUseCase(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	seed := func(repo *memUserRepo, users map[string]int) {
		for name, count := range users {
			_ = repo.Save(ctx, nil, &model.User{ID: "id-" + name, Username: name, VideoCount: count})
		}
	}

	t.Run("should sort by video count, highest first", func(t *testing.T) {
		// --- Arrange ---
		repo := newMemUserRepo()
		seed(repo, map[string]int{"low": 1, "top": 9, "mid": 4, "zero": 0})
		uc := usecase.NewLeaderboardUseCase(repo, &mockBoardCache{}, testLogger)

		// --- Act ---
		entries, err := uc.Leaderboard(ctx)
		if err != nil {
			t.Fatalf("Leaderboard failed: %v", err)
		}

		// --- Assert ---
		if len(entries) != 4 {
			t.Fatalf("expected 4 entries, got %d", len(entries))
		}
		wantOrder := []string{"top", "mid", "low", "zero"}
		for i, name := range wantOrder {
			if entries[i].Username != name {
				t.Errorf("position %d: expected %q, got %q", i, name, entries[i].Username)
			}
		}
	})

	t.Run("should keep ties in their incoming order", func(t *testing.T) {
		// The map-backed repo has no stable order, so pin the input directly.
		input := []model.LeaderboardEntry{
			{Username: "first", VideoCount: 5},
			{Username: "second", VideoCount: 5},
			{Username: "third", VideoCount: 5},
		}
		uc := usecase.NewLeaderboardUseCase(&fixedOrderRepo{entries: input}, &mockBoardCache{}, testLogger)

		entries, err := uc.Leaderboard(ctx)
		if err != nil {
			t.Fatalf("Leaderboard failed: %v", err)
		}
		for i, want := range []string{"first", "second", "third"} {
			if entries[i].Username != want {
				t.Errorf("tie order broken at %d: got %q, want %q", i, entries[i].Username, want)
			}
		}
	})

	t.Run("should serve from the cache when populated", func(t *testing.T) {
		repo := newMemUserRepo()
		seed(repo, map[string]int{"fresh": 100})
		cached := []model.LeaderboardEntry{{Username: "stale", VideoCount: 1}}
		cache := &mockBoardCache{entries: cached}
		uc := usecase.NewLeaderboardUseCase(repo, cache, testLogger)

		entries, err := uc.Leaderboard(ctx)
		if err != nil {
			t.Fatalf("Leaderboard failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Username != "stale" {
			t.Fatalf("expected the cached entries, got %+v", entries)
		}
	})

	t.Run("should fill the cache after a miss", func(t *testing.T) {
		repo := newMemUserRepo()
		seed(repo, map[string]int{"only": 2})
		cache := &mockBoardCache{}
		uc := usecase.NewLeaderboardUseCase(repo, cache, testLogger)

		if _, err := uc.Leaderboard(ctx); err != nil {
			t.Fatalf("Leaderboard failed: %v", err)
		}
		if len(cache.entries) != 1 || cache.entries[0].Username != "only" {
			t.Errorf("cache was not populated: %+v", cache.entries)
		}
	})

	t.Run("should surface repository errors", func(t *testing.T) {
		repo := &fixedOrderRepo{err: errors.New("db down")}
		uc := usecase.NewLeaderboardUseCase(repo, &mockBoardCache{}, testLogger)
		if _, err := uc.Leaderboard(ctx); err == nil {
			t.Fatal("expected an error")
		}
	})
}

// fixedOrderRepo overrides Leaderboard with a deterministic slice.
type fixedOrderRepo struct {
	memUserRepo
	entries []model.LeaderboardEntry
	err     error
}

func (f *fixedOrderRepo) Leaderboard(ctx context.Context, _ repository.Tx) ([]model.LeaderboardEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}
