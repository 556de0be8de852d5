package adapter

import (
	"context"

	"ai-reel-studio/internal/domain/model"
)

// SpeechSynthesizer turns a voiceover script into an audio file on disk.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, script, outPath string) error
}

// Transcriber produces word-level timestamps for the audio track of a media
// file. The caption builder chunks the words into cues.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) ([]model.TranscriptWord, error)
}
