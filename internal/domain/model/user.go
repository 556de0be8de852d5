package model

import (
	"time"

	"ai-reel-studio/internal/domain"

	"github.com/google/uuid"
)

// User is a domain entity representing an account in our system.
// PasswordHash is a bcrypt hash; the plaintext never leaves the usecase layer.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	VideoCount   int
	RegisteredAt time.Time
	LastActiveAt time.Time
}

func NewUser(id, username, passwordHash string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if username == "" {
		return nil, domain.ErrInvalidArgument
	}
	if passwordHash == "" {
		return nil, domain.ErrInvalidArgument
	}
	u := &User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		VideoCount:   0,
		RegisteredAt: time.Now(),
		LastActiveAt: time.Now(),
	}
	return u, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.LastActiveAt = time.Now() }

// LeaderboardEntry is the projection served by the leaderboard endpoint.
type LeaderboardEntry struct {
	Username   string `json:"username"`
	VideoCount int    `json:"video_count"`
}
