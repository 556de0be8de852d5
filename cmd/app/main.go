package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ai-reel-studio/internal/config"
	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/adapter"
	aiAdapters "ai-reel-studio/internal/infra/adapters/ai"
	speechAdapters "ai-reel-studio/internal/infra/adapters/speech"
	videoAdapters "ai-reel-studio/internal/infra/adapters/video"
	pg "ai-reel-studio/internal/infra/db/postgres"
	"ai-reel-studio/internal/infra/logging"
	"ai-reel-studio/internal/infra/media"
	"ai-reel-studio/internal/infra/metrics"
	red "ai-reel-studio/internal/infra/redis"
	"ai-reel-studio/internal/infra/web"
	"ai-reel-studio/internal/infra/worker"
	"ai-reel-studio/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop AI adapters where keys are missing)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	boardCache := red.NewLeaderboardCache(redisClient, cfg.Redis.TTL)

	// ---- Repositories ----
	userRepo := pg.NewPgxUserRepository(pool)
	runRepo := pg.NewPgxRunRepository(pool, tm)

	// ---- Video generation ----
	var generator adapter.VideoGenerator
	if len(cfg.Video.Keys) == 0 && cfg.Runtime.Dev {
		generator = videoAdapters.NewNoopGenerator(logger)
		logger.Warn().Msg("video generator: noop (no vendor keys)")
	} else {
		keyring, err := videoAdapters.NewKeyring(cfg.Video.Keys)
		if err != nil {
			log.Fatalf("keyring: %v", err)
		}
		generator = videoAdapters.NewDEAPIClient(videoAdapters.DEAPIConfig{
			BaseURL:      cfg.Video.BaseURL,
			Width:        cfg.Video.Width,
			Height:       cfg.Video.Height,
			FPS:          cfg.Video.FPS,
			Frames:       cfg.Video.Frames,
			Steps:        cfg.Video.Steps,
			Guidance:     cfg.Video.Guidance,
			Model:        cfg.Video.Model,
			Motion:       cfg.Video.Motion,
			PollInterval: cfg.Video.PollInterval,
		}, keyring, logger)
		generator = videoAdapters.NewRetryingGenerator(generator, keyring, videoAdapters.RetryConfig{
			MaxAttempts: cfg.Video.MaxAttempts,
			BaseDelay:   cfg.Video.BaseDelay,
		}, logger)
	}

	// ---- Prompt director ----
	var director adapter.PromptDirector
	if cfg.AI.GeminiKey != "" {
		director, err = aiAdapters.NewGeminiDirector(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.GeminiModel)
		if err != nil {
			log.Fatalf("gemini director: %v", err)
		}
		logger.Info().Str("model", cfg.AI.GeminiModel).Msg("prompt director: Gemini")
	} else if cfg.Runtime.Dev {
		director = aiAdapters.NewNoopDirector()
		logger.Warn().Msg("prompt director: noop (no gemini key)")
	} else {
		log.Fatalf("ai.gemini_key is required (or GEMINI_API_KEY env)")
	}

	// ---- Speech ----
	tts, err := speechAdapters.NewElevenLabsAdapter(cfg.Speech.ElevenKey, cfg.Speech.VoiceID, cfg.Speech.VoiceModel, cfg.Speech.ElevenURL)
	if err != nil {
		log.Fatalf("elevenlabs: %v", err)
	}
	stt, err := speechAdapters.NewWhisperAdapter(cfg.AI.OpenAIKey, cfg.AI.WhisperModel)
	if err != nil {
		log.Fatalf("whisper: %v", err)
	}

	// ---- Media toolchain ----
	ff := media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath, logger)
	if err := os.MkdirAll(cfg.Media.OutputDir, 0o755); err != nil {
		log.Fatalf("output dir: %v", err)
	}

	// ---- Use cases ----
	accountUC := usecase.NewAccountUseCase(userRepo, tm, boardCache, logger)
	boardUC := usecase.NewLeaderboardUseCase(userRepo, boardCache, logger)
	sceneUC := usecase.NewSceneUseCase(director, generator, cfg.Video.InterSceneDelay, logger)
	reelUC := usecase.NewReelUseCase(ff, director, tts, stt,
		cfg.Video.Width, cfg.Video.Height, cfg.Video.FPS, captionStyle(cfg.Caption), cfg.Caption.MaxWords, logger)
	runUC := usecase.NewRunUseCase(runRepo, sceneUC, reelUC, accountUC, cfg.Media.OutputDir, logger)

	// ---- Workers ----
	pool2 := worker.NewPool(cfg.Worker.Workers)
	pool2.Start(ctx)
	defer pool2.Stop()
	go worker.NewRunProcessor(runUC, logger).Start(ctx, pool2)

	// ---- HTTP ----
	authMgr := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.SecureCookie, cfg.Auth.CookieDomain, cfg.Auth.SessionTTL)
	srv := web.NewServer(accountUC, boardUC, sceneUC, reelUC, runUC, authMgr, rateLimiter, web.Config{
		OutputDir: cfg.Media.OutputDir,
		Width:     cfg.Video.Width,
		Height:    cfg.Video.Height,
	}, logger)
	router := srv.Router()
	metrics.MustRegister()
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}

func captionStyle(c config.CaptionConfig) model.CaptionStyle {
	style := model.DefaultCaptionStyle()
	if c.FontName != "" {
		style.FontName = c.FontName
	}
	if c.FontSize > 0 {
		style.FontSize = c.FontSize
	}
	if c.FontColor != "" {
		style.FontColor = c.FontColor
	}
	if c.StrokeColor != "" {
		style.StrokeColor = c.StrokeColor
	}
	if c.StrokeWidth > 0 {
		style.StrokeWidth = c.StrokeWidth
	}
	if c.Position != "" {
		style.Position = c.Position
	}
	return style
}
