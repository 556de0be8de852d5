// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	GeminiKey    string `yaml:"gemini_key"`
	GeminiURL    string `yaml:"gemini_url"`
	GeminiModel  string `yaml:"gemini_model"`
	OpenAIKey    string `yaml:"openai_key"` // Whisper transcription
	WhisperModel string `yaml:"whisper_model"`
}

type VideoConfig struct {
	Keys            []string      `yaml:"keys"` // ordered DEAPI credentials
	BaseURL         string        `yaml:"base_url"`
	Width           int           `yaml:"width"`
	Height          int           `yaml:"height"`
	FPS             int           `yaml:"fps"`
	Frames          int           `yaml:"frames"`
	Steps           int           `yaml:"steps"`
	Guidance        int           `yaml:"guidance"`
	Model           string        `yaml:"model"`
	Motion          string        `yaml:"motion"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxAttempts     int           `yaml:"max_attempts"` // 0 = len(keys)+1
	BaseDelay       time.Duration `yaml:"base_delay"`
	InterSceneDelay time.Duration `yaml:"inter_scene_delay"`
}

type SpeechConfig struct {
	ElevenKey  string `yaml:"eleven_key"`
	ElevenURL  string `yaml:"eleven_url"`
	VoiceID    string `yaml:"voice_id"`
	VoiceModel string `yaml:"voice_model"`
}

type CaptionConfig struct {
	MaxWords    int    `yaml:"max_words"`
	FontName    string `yaml:"font_name"`
	FontSize    int    `yaml:"font_size"`
	FontColor   string `yaml:"font_color"`
	StrokeColor string `yaml:"stroke_color"`
	StrokeWidth int    `yaml:"stroke_width"`
	Position    string `yaml:"position"`
}

type MediaConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
	OutputDir   string `yaml:"output_dir"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	CookieDomain string        `yaml:"cookie_domain"`
	SecureCookie bool          `yaml:"secure_cookie"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
}

type WorkerConfig struct {
	Workers int `yaml:"workers"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Video    VideoConfig    `yaml:"video"`
	Speech   SpeechConfig   `yaml:"speech"`
	Caption  CaptionConfig  `yaml:"caption"`
	Media    MediaConfig    `yaml:"media"`
	Auth     AuthConfig     `yaml:"auth"`
	Worker   WorkerConfig   `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Secrets may also come from the environment (useful for deploys where
	// the YAML is committed and keys are not).
	if env := os.Getenv("DEAPI_KEYS"); env != "" {
		cfg.Video.Keys = splitKeys(env)
	}
	if env := os.Getenv("GEMINI_API_KEY"); env != "" {
		cfg.AI.GeminiKey = env
	}
	if env := os.Getenv("ELEVEN_API_KEY"); env != "" {
		cfg.Speech.ElevenKey = env
	}
	if env := os.Getenv("OPENAI_API_KEY"); env != "" {
		cfg.AI.OpenAIKey = env
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.AI.GeminiModel == "" {
		cfg.AI.GeminiModel = "gemini-2.5-flash"
	}
	if cfg.Video.MaxAttempts <= 0 {
		cfg.Video.MaxAttempts = len(cfg.Video.Keys) + 1
	}
	if cfg.Video.BaseDelay <= 0 {
		cfg.Video.BaseDelay = 20 * time.Second
	}
	if cfg.Video.InterSceneDelay <= 0 {
		cfg.Video.InterSceneDelay = 20 * time.Second
	}
	if cfg.Caption.MaxWords <= 0 {
		cfg.Caption.MaxWords = 3
	}
	if cfg.Media.OutputDir == "" {
		cfg.Media.OutputDir = "out"
	}
	if cfg.Auth.SessionTTL <= 0 {
		cfg.Auth.SessionTTL = 24 * time.Hour
	}
	if cfg.Worker.Workers <= 0 {
		cfg.Worker.Workers = 2
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation. Dev mode may run keyless on the noop generator.
	if len(cfg.Video.Keys) == 0 && !dev {
		return nil, errors.New("video.keys is required (or DEAPI_KEYS env)")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
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

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
