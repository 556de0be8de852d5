//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-reel-studio/internal/domain"
	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock TransactionManager ----

// mockTxManager runs the callback directly with a nil handle; repositories in
// tests are in-memory and do not care about transactions.
type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// ---- In-memory UserRepository ----

type memUserRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.User // by ID
	saveErr error                  // used by tests to simulate save failures
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) Save(ctx context.Context, _ repository.Tx, u *model.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByUsername(ctx context.Context, _ repository.Tx, username string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) IncrementVideoCount(ctx context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.VideoCount++
	return nil
}

func (m *memUserRepo) CountUsers(ctx context.Context, _ repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

func (m *memUserRepo) Leaderboard(ctx context.Context, _ repository.Tx) ([]model.LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.LeaderboardEntry, 0, len(m.store))
	for _, u := range m.store {
		out = append(out, model.LeaderboardEntry{Username: u.Username, VideoCount: u.VideoCount})
	}
	return out, nil
}

// ---- In-memory RunRepository ----

type memRunRepo struct {
	mu    sync.RWMutex
	store map[string]*model.ReelRun
	order []string // insertion order stands in for created_at ordering
}

func newMemRunRepo() *memRunRepo {
	return &memRunRepo{store: make(map[string]*model.ReelRun)}
}

func (m *memRunRepo) Save(ctx context.Context, _ repository.Tx, run *model.ReelRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[run.ID]; !ok {
		m.order = append(m.order, run.ID)
	}
	cp := *run
	m.store[run.ID] = &cp
	return nil
}

func (m *memRunRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.ReelRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (m *memRunRepo) FetchAndMarkProcessing(ctx context.Context) (*model.ReelRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		run := m.store[id]
		if run.Status == model.RunStatusQueued {
			run.Status = model.RunStatusProcessing
			cp := *run
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRunRepo) ListByUser(ctx context.Context, _ repository.Tx, userID string, limit int) ([]*model.ReelRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.ReelRun
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		if run := m.store[m.order[i]]; run.UserID == userID {
			cp := *run
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Mock leaderboard cache ----

type mockBoardCache struct {
	mu            sync.Mutex
	entries       []model.LeaderboardEntry
	invalidations int

	GetFunc func(ctx context.Context) ([]model.LeaderboardEntry, error)
}

func (c *mockBoardCache) Get(ctx context.Context) ([]model.LeaderboardEntry, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries, nil
}

func (c *mockBoardCache) Set(ctx context.Context, entries []model.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = entries
	return nil
}

func (c *mockBoardCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	c.entries = nil
	return nil
}

// ---- Mock PromptDirector ----

type mockDirector struct {
	ScenePromptsFunc    func(ctx context.Context, images map[model.SceneSlot]string) (map[model.SceneSlot]string, error)
	VoiceoverScriptFunc func(ctx context.Context, videoPath string, durationSec float64) (string, error)
}

func (m *mockDirector) ScenePrompts(ctx context.Context, images map[model.SceneSlot]string) (map[model.SceneSlot]string, error) {
	if m.ScenePromptsFunc != nil {
		return m.ScenePromptsFunc(ctx, images)
	}
	out := make(map[model.SceneSlot]string, len(images))
	for slot := range images {
		out[slot] = "prompt for " + string(slot)
	}
	return out, nil
}

func (m *mockDirector) VoiceoverScript(ctx context.Context, videoPath string, durationSec float64) (string, error) {
	if m.VoiceoverScriptFunc != nil {
		return m.VoiceoverScriptFunc(ctx, videoPath, durationSec)
	}
	return "a short narration", nil
}

// ---- Mock VideoGenerator ----

type mockGenerator struct {
	mu    sync.Mutex
	Slots []model.SceneSlot // generation order, for sequencing assertions

	GenerateFunc func(ctx context.Context, job model.SceneJob) error
}

func (m *mockGenerator) Generate(ctx context.Context, job model.SceneJob) error {
	m.mu.Lock()
	m.Slots = append(m.Slots, job.Slot)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, job)
	}
	return nil
}
