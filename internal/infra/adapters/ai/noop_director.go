package ai

import (
	"context"
	"fmt"
	"time"

	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/adapter"
)

var _ adapter.PromptDirector = (*NoopDirector)(nil)

// NoopDirector implements adapter.PromptDirector for local/dev testing.
type NoopDirector struct{}

func NewNoopDirector() *NoopDirector { return &NoopDirector{} }

func (n *NoopDirector) ScenePrompts(ctx context.Context, images map[model.SceneSlot]string) (map[model.SceneSlot]string, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	out := make(map[model.SceneSlot]string, len(model.SceneSlots))
	for i, slot := range model.SceneSlots {
		out[slot] = fmt.Sprintf("noop cinematic prompt %d", i+1)
	}
	return out, nil
}

func (n *NoopDirector) VoiceoverScript(ctx context.Context, videoPath string, durationSec float64) (string, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return "This is a noop voiceover script.", nil
}
