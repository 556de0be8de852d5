package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// ReelRun is one asynchronous end-to-end pipeline execution: four scenes,
// merge, voiceover, captions. Partial scene failure still completes the run;
// the run fails only when zero scenes succeed or a later stage errors.
type ReelRun struct {
	ID            string
	UserID        string
	Status        RunStatus
	Prompts       map[SceneSlot]string
	SceneImages   map[SceneSlot]string
	Outcomes      []SceneOutcome
	MergedPath    string
	FinalPath     string
	CaptionsPath  string
	Script        string
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewReelRun(userID string, images map[SceneSlot]string) *ReelRun {
	now := time.Now()
	return &ReelRun{
		ID:          ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		UserID:      userID,
		Status:      RunStatusQueued,
		SceneImages: images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (r *ReelRun) CompletedScenes() int {
	return len(SuccessfulOutcomes(r.Outcomes))
}
