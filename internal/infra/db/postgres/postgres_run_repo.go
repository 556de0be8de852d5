package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-reel-studio/internal/domain"
	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/repository"
)

// Ensure compile-time conformance
var _ repository.RunRepository = (*PgxRunRepo)(nil)

type PgxRunRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewPgxRunRepository(pool *pgxpool.Pool, tm repository.TransactionManager) *PgxRunRepo {
	return &PgxRunRepo{pool: pool, tm: tm}
}

const runColumns = `id, user_id, status, prompts, scene_images, outcomes,
        merged_path, final_path, captions_path, script, last_error, created_at, updated_at`

func (r *PgxRunRepo) Save(ctx context.Context, tx repository.Tx, run *model.ReelRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidArgument
	}
	prompts, err := json.Marshal(run.Prompts)
	if err != nil {
		return fmt.Errorf("marshal prompts: %w", err)
	}
	images, err := json.Marshal(run.SceneImages)
	if err != nil {
		return fmt.Errorf("marshal scene images: %w", err)
	}
	outcomes, err := json.Marshal(run.Outcomes)
	if err != nil {
		return fmt.Errorf("marshal outcomes: %w", err)
	}
	run.UpdatedAt = time.Now()
	query := `
        INSERT INTO reel_runs (` + runColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        ON CONFLICT (id) DO UPDATE SET
            status        = EXCLUDED.status,
            prompts       = EXCLUDED.prompts,
            scene_images  = EXCLUDED.scene_images,
            outcomes      = EXCLUDED.outcomes,
            merged_path   = EXCLUDED.merged_path,
            final_path    = EXCLUDED.final_path,
            captions_path = EXCLUDED.captions_path,
            script        = EXCLUDED.script,
            last_error    = EXCLUDED.last_error,
            updated_at    = EXCLUDED.updated_at`
	_, err = execSQL(ctx, r.pool, tx, query,
		run.ID, run.UserID, string(run.Status), prompts, images, outcomes,
		run.MergedPath, run.FinalPath, run.CaptionsPath, run.Script, run.LastError,
		run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func (r *PgxRunRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ReelRun, error) {
	query := `SELECT ` + runColumns + ` FROM reel_runs WHERE id = $1`
	row, err := pickRow(ctx, r.pool, tx, query, id)
	if err != nil {
		return nil, err
	}
	return scanRun(row)
}

// FetchAndMarkProcessing atomically claims the oldest queued run. The row
// lock with SKIP LOCKED lets concurrent workers poll without ever claiming
// the same run.
func (r *PgxRunRepo) FetchAndMarkProcessing(ctx context.Context) (*model.ReelRun, error) {
	var claimed *model.ReelRun
	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		query := `SELECT ` + runColumns + `
            FROM reel_runs
            WHERE status = $1
            ORDER BY created_at, id
            LIMIT 1
            FOR UPDATE SKIP LOCKED`
		row, err := pickRow(ctx, r.pool, tx, query, string(model.RunStatusQueued))
		if err != nil {
			return err
		}
		run, err := scanRun(row)
		if err != nil {
			return err
		}
		run.Status = model.RunStatusProcessing
		if err := r.Save(ctx, tx, run); err != nil {
			return err
		}
		claimed = run
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *PgxRunRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.ReelRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + runColumns + `
        FROM reel_runs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := pickRows(ctx, r.pool, tx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*model.ReelRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (*model.ReelRun, error) {
	var (
		run      model.ReelRun
		status   string
		prompts  []byte
		images   []byte
		outcomes []byte
	)
	err := row.Scan(&run.ID, &run.UserID, &status, &prompts, &images, &outcomes,
		&run.MergedPath, &run.FinalPath, &run.CaptionsPath, &run.Script, &run.LastError,
		&run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Status = model.RunStatus(status)
	if len(prompts) > 0 {
		if err := json.Unmarshal(prompts, &run.Prompts); err != nil {
			return nil, fmt.Errorf("unmarshal prompts: %w", err)
		}
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &run.SceneImages); err != nil {
			return nil, fmt.Errorf("unmarshal scene images: %w", err)
		}
	}
	if len(outcomes) > 0 {
		if err := json.Unmarshal(outcomes, &run.Outcomes); err != nil {
			return nil, fmt.Errorf("unmarshal outcomes: %w", err)
		}
	}
	return &run, nil
}
