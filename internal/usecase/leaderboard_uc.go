package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/repository"
	"ai-reel-studio/internal/infra/logging"
)

// Compile-time check
var _ LeaderboardUseCase = (*leaderboardUC)(nil)

type LeaderboardUseCase interface {
	// Leaderboard returns all users sorted by video count, highest first.
	// Users with equal counts keep their repository order.
	Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
}

// LeaderboardCache is the read-through cache in front of the users table.
type LeaderboardCache interface {
	Get(ctx context.Context) ([]model.LeaderboardEntry, error)
	Set(ctx context.Context, entries []model.LeaderboardEntry) error
	Invalidate(ctx context.Context) error
}

type leaderboardUC struct {
	users repository.UserRepository
	cache LeaderboardCache
	log   *zerolog.Logger
}

func NewLeaderboardUseCase(users repository.UserRepository, cache LeaderboardCache, logger *zerolog.Logger) *leaderboardUC {
	return &leaderboardUC{users: users, cache: cache, log: logger}
}

func (l *leaderboardUC) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	defer logging.TraceDuration(l.log, "LeaderboardUC.Leaderboard")()

	if l.cache != nil {
		if cached, err := l.cache.Get(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	entries, err := l.users.Leaderboard(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	sorted := sortByVideoCount(entries)

	if l.cache != nil {
		if err := l.cache.Set(ctx, sorted); err != nil {
			l.log.Warn().Err(err).Msg("failed to cache leaderboard")
		}
	}
	return sorted, nil
}

// sortByVideoCount is a stable merge sort, descending by video count.
func sortByVideoCount(entries []model.LeaderboardEntry) []model.LeaderboardEntry {
	if len(entries) <= 1 {
		out := make([]model.LeaderboardEntry, len(entries))
		copy(out, entries)
		return out
	}
	mid := len(entries) / 2
	left := sortByVideoCount(entries[:mid])
	right := sortByVideoCount(entries[mid:])
	return mergeEntries(left, right)
}

func mergeEntries(left, right []model.LeaderboardEntry) []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, 0, len(left)+len(right))
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		// >= keeps the left side first on ties, making the sort stable.
		if left[i].VideoCount >= right[j].VideoCount {
			out = append(out, left[i])
			i++
		} else {
			out = append(out, right[j])
			j++
		}
	}
	out = append(out, left[i:]...)
	out = append(out, right[j:]...)
	return out
}
