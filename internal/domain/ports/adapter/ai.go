package adapter

import (
	"context"

	"ai-reel-studio/internal/domain/model"
)

// PromptDirector designs the four scene prompts from product photos and
// writes the voiceover script for a finished cut. Backed by a multimodal
// language model.
type PromptDirector interface {
	// ScenePrompts receives one image path per slot and returns one cinematic
	// prompt per slot.
	ScenePrompts(ctx context.Context, images map[model.SceneSlot]string) (map[model.SceneSlot]string, error)
	// VoiceoverScript writes a script timed to the given duration in seconds.
	VoiceoverScript(ctx context.Context, videoPath string, durationSec float64) (string, error)
}
