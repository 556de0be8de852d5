package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"ai-reel-studio/internal/config"
	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/adapter"
	aiAdapters "ai-reel-studio/internal/infra/adapters/ai"
	speechAdapters "ai-reel-studio/internal/infra/adapters/speech"
	videoAdapters "ai-reel-studio/internal/infra/adapters/video"
	"ai-reel-studio/internal/infra/logging"
	"ai-reel-studio/internal/infra/media"
	"ai-reel-studio/internal/usecase"
)

// reelgen runs the full pipeline once from the command line: four product
// photos in, one captioned vertical ad out. No database, no queue.
func main() {
	envFile := flag.String("env", ".env", "path to .env file with API keys")
	outDir := flag.String("out", "out", "output directory")
	maxAttempts := flag.Int("max-attempts", 3, "retry attempts per scene")
	baseDelay := flag.Duration("base-delay", 20*time.Second, "base retry delay")
	interDelay := flag.Duration("scene-delay", 20*time.Second, "delay between scenes")
	skipAudio := flag.Bool("no-audio", false, "skip voiceover and captions")
	flag.Parse()

	if flag.NArg() != len(model.SceneSlots) {
		log.Fatalf("usage: reelgen [flags] <scene1.png> <scene2.png> <scene3.png> <scene4.png>")
	}

	_ = godotenv.Load(*envFile)

	logger := logging.New(config.LogConfig{Level: "info", Format: "console"}, true)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, flag.Args(), *outDir, *maxAttempts, *baseDelay, *interDelay, *skipAudio); err != nil {
		logger.Fatal().Err(err).Msg("pipeline failed")
	}
}

func run(ctx context.Context, logger *zerolog.Logger, photos []string, outDir string,
	maxAttempts int, baseDelay, interDelay time.Duration, skipAudio bool) error {

	keys := splitKeys(os.Getenv("DEAPI_KEYS"))
	keyring, err := videoAdapters.NewKeyring(keys)
	if err != nil {
		return fmt.Errorf("DEAPI_KEYS env is required: %w", err)
	}

	var generator adapter.VideoGenerator = videoAdapters.NewDEAPIClient(videoAdapters.DEAPIConfig{}, keyring, logger)
	generator = videoAdapters.NewRetryingGenerator(generator, keyring, videoAdapters.RetryConfig{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
	}, logger)

	director, err := aiAdapters.NewGeminiDirector(ctx, os.Getenv("GEMINI_API_KEY"), "", "")
	if err != nil {
		return fmt.Errorf("GEMINI_API_KEY env is required: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	// Normalize the photos to the vertical canvas before anything else.
	images := make(map[model.SceneSlot]string, len(model.SceneSlots))
	for i, slot := range model.SceneSlots {
		out := filepath.Join(outDir, string(slot)+".png")
		if _, err := media.VerticalSafe(photos[i], out, 432, 768); err != nil {
			return fmt.Errorf("prepare %s: %w", photos[i], err)
		}
		images[slot] = out
	}

	sceneUC := usecase.NewSceneUseCase(director, generator, interDelay, logger)

	logger.Info().Msg("designing scene prompts")
	prompts, err := sceneUC.ScenePrompts(ctx, images)
	if err != nil {
		return fmt.Errorf("scene prompts: %w", err)
	}

	logger.Info().Msg("generating scenes")
	outcomes, err := sceneUC.GenerateAll(ctx, prompts, images, outDir)
	if err != nil {
		return fmt.Errorf("generate scenes: %w", err)
	}
	for _, o := range outcomes {
		logger.Info().Str("scene", string(o.Slot)).Str("status", string(o.Status)).Msg("scene result")
	}

	ff := media.NewFFmpeg("", "", logger)
	var reel usecase.ReelUseCase
	if skipAudio {
		reel = usecase.NewReelUseCase(ff, director, nil, nil, 432, 768, 30, model.DefaultCaptionStyle(), 3, logger)
	} else {
		tts, err := speechAdapters.NewElevenLabsAdapter(os.Getenv("ELEVEN_API_KEY"), "", "", "")
		if err != nil {
			return fmt.Errorf("ELEVEN_API_KEY env is required: %w", err)
		}
		stt, err := speechAdapters.NewWhisperAdapter(os.Getenv("OPENAI_API_KEY"), "")
		if err != nil {
			return fmt.Errorf("OPENAI_API_KEY env is required: %w", err)
		}
		reel = usecase.NewReelUseCase(ff, director, tts, stt, 432, 768, 30, model.DefaultCaptionStyle(), 3, logger)
	}

	merged := filepath.Join(outDir, "merged.mp4")
	logger.Info().Msg("merging scenes")
	if err := reel.Merge(ctx, outcomes, merged); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	if skipAudio {
		logger.Info().Str("file", merged).Msg("done")
		return nil
	}

	audio := filepath.Join(outDir, "voiceover.mp3")
	logger.Info().Msg("writing voiceover")
	script, err := reel.Voiceover(ctx, merged, audio)
	if err != nil {
		return fmt.Errorf("voiceover: %w", err)
	}
	logger.Info().Str("script", script).Msg("voiceover ready")
	if err := os.WriteFile(filepath.Join(outDir, "script.txt"), []byte(script), 0o644); err != nil {
		logger.Warn().Err(err).Msg("failed to save voiceover script")
	}

	withAudio := filepath.Join(outDir, "with_audio.mp4")
	if err := reel.AttachAudio(ctx, merged, audio, withAudio); err != nil {
		return fmt.Errorf("attach audio: %w", err)
	}

	srt := filepath.Join(outDir, "captions.srt")
	logger.Info().Msg("transcribing captions")
	if err := reel.Captions(ctx, withAudio, srt); err != nil {
		return fmt.Errorf("captions: %w", err)
	}

	final := filepath.Join(outDir, "final.mp4")
	if err := reel.BurnCaptions(ctx, withAudio, srt, final); err != nil {
		return fmt.Errorf("burn captions: %w", err)
	}
	logger.Info().Str("file", final).Msg("done")
	return nil
}

func splitKeys(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
