package repository

import (
	"context"

	"ai-reel-studio/internal/domain/model"
)

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByUsername(ctx context.Context, tx Tx, username string) (*model.User, error)
	IncrementVideoCount(ctx context.Context, tx Tx, id string) error
	CountUsers(ctx context.Context, tx Tx) (int, error)
	// Leaderboard returns one entry per user in arbitrary order; callers sort.
	Leaderboard(ctx context.Context, tx Tx) ([]model.LeaderboardEntry, error)
}
