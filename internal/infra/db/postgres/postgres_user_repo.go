package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-reel-studio/internal/domain"
	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/repository"
)

// Ensure compile-time conformance
var _ repository.UserRepository = (*PgxUserRepo)(nil)

type PgxUserRepo struct {
	pool *pgxpool.Pool
}

func NewPgxUserRepository(pool *pgxpool.Pool) *PgxUserRepo {
	return &PgxUserRepo{pool: pool}
}

func (r *PgxUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if u == nil || u.ID == "" {
		return domain.ErrInvalidArgument
	}
	query := `
        INSERT INTO users (id, username, password_hash, video_count, registered_at, last_active_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO UPDATE SET
            username       = EXCLUDED.username,
            password_hash  = EXCLUDED.password_hash,
            video_count    = EXCLUDED.video_count,
            last_active_at = EXCLUDED.last_active_at`
	_, err := execSQL(ctx, r.pool, tx, query,
		u.ID, u.Username, u.PasswordHash, u.VideoCount, u.RegisteredAt, u.LastActiveAt)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *PgxUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	query := `
        SELECT id, username, password_hash, video_count, registered_at, last_active_at
        FROM users WHERE id = $1`
	return r.scanOne(ctx, tx, query, id)
}

func (r *PgxUserRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.User, error) {
	query := `
        SELECT id, username, password_hash, video_count, registered_at, last_active_at
        FROM users WHERE username = $1`
	return r.scanOne(ctx, tx, query, username)
}

func (r *PgxUserRepo) scanOne(ctx context.Context, tx repository.Tx, query string, arg interface{}) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, query, arg)
	if err != nil {
		return nil, err
	}
	var u model.User
	err = row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.VideoCount, &u.RegisteredAt, &u.LastActiveAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *PgxUserRepo) IncrementVideoCount(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx,
		`UPDATE users SET video_count = video_count + 1, last_active_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment video count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PgxUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *PgxUserRepo) Leaderboard(ctx context.Context, tx repository.Tx) ([]model.LeaderboardEntry, error) {
	rows, err := pickRows(ctx, r.pool, tx, `SELECT username, video_count FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.VideoCount); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
