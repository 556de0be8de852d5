package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"ai-reel-studio/internal/domain"
	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/adapter"
	"ai-reel-studio/internal/infra/logging"
	"ai-reel-studio/internal/infra/media"
)

// Compile-time check
var _ ReelUseCase = (*reelUC)(nil)

// ReelUseCase covers everything after the scenes exist: merging, voiceover,
// audio attachment and captions.
type ReelUseCase interface {
	// Merge concatenates the successful scene clips in slot order.
	Merge(ctx context.Context, outcomes []model.SceneOutcome, outPath string) error
	// Voiceover writes a narration audio file timed to the video and returns
	// the generated script.
	Voiceover(ctx context.Context, videoPath, audioOut string) (string, error)
	AttachAudio(ctx context.Context, videoPath, audioPath, outPath string) error
	// Captions transcribes the media's audio track and writes an SRT file.
	Captions(ctx context.Context, mediaPath, srtOut string) error
	BurnCaptions(ctx context.Context, videoPath, srtPath, outPath string) error
}

type reelUC struct {
	ff       *media.FFmpeg
	director adapter.PromptDirector
	tts      adapter.SpeechSynthesizer
	stt      adapter.Transcriber

	width, height, fps int
	style              model.CaptionStyle
	maxWords           int

	log *zerolog.Logger
}

func NewReelUseCase(ff *media.FFmpeg, director adapter.PromptDirector, tts adapter.SpeechSynthesizer, stt adapter.Transcriber,
	width, height, fps int, style model.CaptionStyle, maxWords int, logger *zerolog.Logger) *reelUC {
	if maxWords <= 0 {
		maxWords = 3
	}
	return &reelUC{
		ff:       ff,
		director: director,
		tts:      tts,
		stt:      stt,
		width:    width,
		height:   height,
		fps:      fps,
		style:    style,
		maxWords: maxWords,
		log:      logger,
	}
}

func (r *reelUC) Merge(ctx context.Context, outcomes []model.SceneOutcome, outPath string) error {
	defer logging.TraceDuration(r.log, "ReelUC.Merge")()

	ok := model.SuccessfulOutcomes(outcomes)
	if len(ok) == 0 {
		return domain.ErrNoScenes
	}
	inputs := make([]string, 0, len(ok))
	for _, o := range ok {
		inputs = append(inputs, o.OutputPath)
	}
	r.log.Info().Int("scenes", len(inputs)).Str("out", outPath).Msg("merging scenes")
	return r.ff.Concat(ctx, inputs, outPath, r.width, r.height, r.fps)
}

func (r *reelUC) Voiceover(ctx context.Context, videoPath, audioOut string) (string, error) {
	defer logging.TraceDuration(r.log, "ReelUC.Voiceover")()

	duration, err := r.ff.Duration(ctx, videoPath)
	if err != nil {
		return "", fmt.Errorf("probe video duration: %w", err)
	}
	script, err := r.director.VoiceoverScript(ctx, videoPath, duration)
	if err != nil {
		return "", fmt.Errorf("write voiceover script: %w", err)
	}
	script = strings.TrimSpace(script)
	if script == "" {
		return "", fmt.Errorf("%w: empty voiceover script", domain.ErrInvalidArgument)
	}

	raw := audioOut + ".raw.mp3"
	if err := r.tts.Synthesize(ctx, script, raw); err != nil {
		return "", fmt.Errorf("synthesize voiceover: %w", err)
	}
	defer os.Remove(raw)

	// Pad or trim the narration so the audio track is exactly as long as
	// the video; otherwise the attach step would cut the final frames.
	if err := r.ff.PadAudio(ctx, raw, audioOut, duration); err != nil {
		return "", fmt.Errorf("pad voiceover: %w", err)
	}
	return script, nil
}

func (r *reelUC) AttachAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	defer logging.TraceDuration(r.log, "ReelUC.AttachAudio")()
	return r.ff.AttachAudio(ctx, videoPath, audioPath, outPath)
}

func (r *reelUC) Captions(ctx context.Context, mediaPath, srtOut string) error {
	defer logging.TraceDuration(r.log, "ReelUC.Captions")()

	words, err := r.stt.Transcribe(ctx, mediaPath)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	if len(words) == 0 {
		return fmt.Errorf("%w: transcript is empty", domain.ErrInvalidArgument)
	}
	cues := media.BuildCues(words, r.maxWords)
	return media.WriteSRT(cues, srtOut)
}

func (r *reelUC) BurnCaptions(ctx context.Context, videoPath, srtPath, outPath string) error {
	defer logging.TraceDuration(r.log, "ReelUC.BurnCaptions")()
	return r.ff.BurnSubtitles(ctx, videoPath, srtPath, outPath, r.style)
}
