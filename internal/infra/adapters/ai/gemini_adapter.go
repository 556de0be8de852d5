package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/adapter"
)

var _ adapter.PromptDirector = (*GeminiDirector)(nil)

const scenePromptInstruction = `You are an elite cinematic advertisement director and AI video engineer.

You are given 4 images of the SAME product from different angles.
Infer product category, material, surface behavior, scale.

Rules:
- Same dark premium studio
- Soft volumetric fog
- Controlled rim lighting
- Glossy floor reflections
- Vertical 9:16 framing
- No distortion

Scene logic:
1. Hero reveal
2. Side geometry
3. 3D orbit / depth
4. Important detail close-up

Return STRICT JSON ONLY:

{
  "scene1": "",
  "scene2": "",
  "scene3": "",
  "scene4": ""
}`

type GeminiDirector struct {
	client       *genai.Client
	defaultModel string
}

// NewGeminiDirector creates a prompt director using the official SDK.
func NewGeminiDirector(ctx context.Context, apiKey, baseURL, defaultModel string) (*GeminiDirector, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if defaultModel == "" {
		defaultModel = "gemini-2.5-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiDirector{client: c, defaultModel: defaultModel}, nil
}

// ScenePrompts sends all four product photos in one call and expects one
// prompt per slot back as strict JSON.
func (g *GeminiDirector) ScenePrompts(ctx context.Context, images map[model.SceneSlot]string) (map[model.SceneSlot]string, error) {
	parts := []*genai.Part{{Text: scenePromptInstruction}}
	for _, slot := range model.SceneSlots {
		path, ok := images[slot]
		if !ok {
			return nil, fmt.Errorf("gemini: missing image for %s", slot)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", path, err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: mimeForImage(path), Data: data},
		})
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.defaultModel,
		[]*genai.Content{{Role: genai.RoleUser, Parts: parts}}, nil)
	if err != nil {
		return nil, err
	}
	text := firstText(resp)
	if text == "" {
		return nil, errors.New("gemini: empty prompt response")
	}

	var raw map[string]string
	if err := json.Unmarshal([]byte(stripJSONFences(text)), &raw); err != nil {
		return nil, fmt.Errorf("gemini: parse scene prompts: %w", err)
	}
	out := make(map[model.SceneSlot]string, len(model.SceneSlots))
	for _, slot := range model.SceneSlots {
		p, ok := raw[string(slot)]
		if !ok || p == "" {
			return nil, fmt.Errorf("gemini: no prompt for %s", slot)
		}
		out[slot] = p
	}
	return out, nil
}

// VoiceoverScript uploads the merged cut and asks for a script whose word
// count matches the runtime at a normal speaking pace (~2.5 words/second).
func (g *GeminiDirector) VoiceoverScript(ctx context.Context, videoPath string, durationSec float64) (string, error) {
	targetWords := int(durationSec * 2.5)
	instruction := fmt.Sprintf(`You are a professional cinematic advertisement voiceover writer.

STRICT RULES:
- Script MUST be approximately %.0f seconds long to match the video flow.
- Target word count: ~%d words.
- The script should NOT be too short. Fill the %.0f seconds.
- Use <emphasis> and <break> tags to control pacing.
- Natural sentences only.
- Return only formatted text.`, durationSec, targetWords, durationSec)

	data, err := os.ReadFile(videoPath)
	if err != nil {
		return "", fmt.Errorf("read video: %w", err)
	}
	parts := []*genai.Part{
		{Text: instruction},
		{InlineData: &genai.Blob{MIMEType: "video/mp4", Data: data}},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.defaultModel,
		[]*genai.Content{{Role: genai.RoleUser, Parts: parts}}, nil)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(firstText(resp))
	if text == "" {
		return "", errors.New("gemini: empty script response")
	}
	return text, nil
}

// --- internal ---

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c.Content == nil || len(c.Content.Parts) == 0 {
		return ""
	}
	return c.Content.Parts[0].Text
}

// stripJSONFences removes markdown code fences the model sometimes wraps
// around its JSON despite the strict-JSON instruction.
func stripJSONFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func mimeForImage(path string) string {
	l := strings.ToLower(path)
	switch {
	case strings.HasSuffix(l, ".jpg"), strings.HasSuffix(l, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(l, ".webp"):
		return "image/webp"
	default:
		return "image/png"
	}
}
