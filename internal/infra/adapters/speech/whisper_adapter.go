package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Transcriber = (*WhisperAdapter)(nil)

// WhisperAdapter implements adapter.Transcriber using the OpenAI audio API
// with word-level timestamp granularity.
type WhisperAdapter struct {
	client openai.Client
	model  string
}

func NewWhisperAdapter(apiKey, modelName string) (*WhisperAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if modelName == "" {
		modelName = string(openai.AudioModelWhisper1)
	}
	return &WhisperAdapter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  modelName,
	}, nil
}

func (w *WhisperAdapter) Transcribe(ctx context.Context, mediaPath string) ([]model.TranscriptWord, error) {
	f, err := os.Open(mediaPath)
	if err != nil {
		return nil, fmt.Errorf("open media: %w", err)
	}
	defer f.Close()

	resp, err := w.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:                   f,
		Model:                  openai.AudioModel(w.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word"},
	})
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	words := make([]model.TranscriptWord, 0, len(resp.Words))
	for _, wd := range resp.Words {
		words = append(words, model.TranscriptWord{
			Word:  wd.Word,
			Start: time.Duration(wd.Start * float64(time.Second)),
			End:   time.Duration(wd.End * float64(time.Second)),
		})
	}
	return words, nil
}
