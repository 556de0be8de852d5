package repository

import (
	"context"

	"ai-reel-studio/internal/domain/model"
)

type RunRepository interface {
	Save(ctx context.Context, tx Tx, run *model.ReelRun) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.ReelRun, error)
	// FetchAndMarkProcessing claims the oldest queued run, or domain.ErrNotFound
	// when the queue is empty. The claim is atomic so a single run is never
	// executed twice.
	FetchAndMarkProcessing(ctx context.Context) (*model.ReelRun, error)
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.ReelRun, error)
}
