package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"ai-reel-studio/internal/domain"
	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/repository"
	"ai-reel-studio/internal/infra/logging"
)

// Compile-time check
var _ AccountUseCase = (*accountUC)(nil)

// AccountUseCase exposes signup/login and per-account bookkeeping.
type AccountUseCase interface {
	Signup(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	IncrementVideoCount(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type accountUC struct {
	users repository.UserRepository
	tm    repository.TransactionManager
	cache LeaderboardInvalidator
	log   *zerolog.Logger
}

// LeaderboardInvalidator is the slice of the leaderboard cache the account
// flow needs: video counts feed the leaderboard, so every increment evicts it.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context) error
}

func NewAccountUseCase(users repository.UserRepository, tm repository.TransactionManager, cache LeaderboardInvalidator, logger *zerolog.Logger) *accountUC {
	return &accountUC{users: users, tm: tm, cache: cache, log: logger}
}

func (a *accountUC) Signup(ctx context.Context, username, password string) (*model.User, error) {
	defer logging.TraceDuration(a.log, "AccountUC.Signup")()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *model.User
	// Serializable so the existence check and the insert act as one atomic
	// operation; two concurrent signups with the same name cannot both win.
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err = a.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		_, err := a.users.FindByUsername(ctx, tx, username)
		if err == nil {
			return domain.ErrAlreadyExists
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		nu, err := model.NewUser("", username, string(hash))
		if err != nil {
			return err
		}
		if err := a.users.Save(ctx, tx, nu); err != nil {
			return err
		}
		user = nu
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.log.Info().Str("user_id", user.ID).Msg("account created")
	return user, nil
}

func (a *accountUC) Login(ctx context.Context, username, password string) (*model.User, error) {
	defer logging.TraceDuration(a.log, "AccountUC.Login")()

	user, err := a.users.FindByUsername(ctx, repository.NoTX, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Same error as a wrong password so probing cannot enumerate names.
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user.Touch()
	if err := a.users.Save(ctx, repository.NoTX, user); err != nil {
		a.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to update last active time")
	}
	return user, nil
}

func (a *accountUC) Get(ctx context.Context, id string) (*model.User, error) {
	return a.users.FindByID(ctx, repository.NoTX, id)
}

func (a *accountUC) IncrementVideoCount(ctx context.Context, id string) error {
	defer logging.TraceDuration(a.log, "AccountUC.IncrementVideoCount")()

	if err := a.users.IncrementVideoCount(ctx, repository.NoTX, id); err != nil {
		return err
	}
	if a.cache != nil {
		if err := a.cache.Invalidate(ctx); err != nil {
			a.log.Warn().Err(err).Msg("failed to invalidate leaderboard cache")
		}
	}
	return nil
}

func (a *accountUC) Count(ctx context.Context) (int, error) {
	return a.users.CountUsers(ctx, repository.NoTX)
}
