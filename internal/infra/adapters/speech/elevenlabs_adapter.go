package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"ai-reel-studio/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.SpeechSynthesizer = (*ElevenLabsAdapter)(nil)

// ElevenLabsAdapter implements adapter.SpeechSynthesizer against the
// ElevenLabs text-to-speech REST API.
// Docs: https://elevenlabs.io/docs/api-reference/text-to-speech
// Authorization: xi-api-key header.
type ElevenLabsAdapter struct {
	apiKey  string
	base    string // e.g., https://api.elevenlabs.io/v1
	voiceID string
	modelID string
	client  *http.Client
}

func NewElevenLabsAdapter(apiKey, voiceID, modelID, base string) (*ElevenLabsAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("elevenlabs api key empty")
	}
	if voiceID == "" {
		voiceID = "21m00Tcm4TlvDq8ikWAM"
	}
	if modelID == "" {
		modelID = "eleven_multilingual_v2"
	}
	if base == "" {
		base = "https://api.elevenlabs.io/v1"
	}
	return &ElevenLabsAdapter{
		apiKey:  apiKey,
		base:    strings.TrimRight(base, "/"),
		voiceID: voiceID,
		modelID: modelID,
		client:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (e *ElevenLabsAdapter) Synthesize(ctx context.Context, script, outPath string) error {
	reqBody := struct {
		Text          string `json:"text"`
		ModelID       string `json:"model_id"`
		VoiceSettings struct {
			Stability       float64 `json:"stability"`
			SimilarityBoost float64 `json:"similarity_boost"`
		} `json:"voice_settings"`
	}{Text: script, ModelID: e.modelID}
	reqBody.VoiceSettings.Stability = 0.6
	reqBody.VoiceSettings.SimilarityBoost = 0.7

	b, _ := json.Marshal(reqBody)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, e.base+"/text-to-speech/"+e.voiceID, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("elevenlabs http %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(outPath)
		return err
	}
	return nil
}
