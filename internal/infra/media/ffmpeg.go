package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"ai-reel-studio/internal/domain/model"
)

// FFmpeg wraps the ffmpeg/ffprobe binaries for the compositing steps the
// pipeline needs: concat, duration probe, audio padding, audio attach and
// subtitle burn. No in-process video processing happens here.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	log         *zerolog.Logger
}

func NewFFmpeg(ffmpegPath, ffprobePath string, logger *zerolog.Logger) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, log: logger}
}

// Duration returns the container duration in seconds.
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	out, err := f.run(ctx, f.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", out, err)
	}
	return d, nil
}

// Concat merges the clips in order into a single video scaled to the target
// frame. Inputs come pre-rendered at the same dimensions; the scale filter
// is belt and braces for vendor size drift.
func (f *FFmpeg) Concat(ctx context.Context, inputs []string, outPath string, width, height, fps int) error {
	if len(inputs) == 0 {
		return fmt.Errorf("concat: no inputs")
	}
	listFile, err := writeConcatList(inputs, outPath)
	if err != nil {
		return err
	}
	defer os.Remove(listFile)

	_, err = f.run(ctx, f.ffmpegPath,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-r", strconv.Itoa(fps),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		outPath,
	)
	return err
}

// PadAudio extends the audio with trailing silence up to the video duration
// so the attach step never truncates the final frames.
func (f *FFmpeg) PadAudio(ctx context.Context, inPath, outPath string, durationSec float64) error {
	_, err := f.run(ctx, f.ffmpegPath,
		"-y",
		"-i", inPath,
		"-af", "apad",
		"-t", fmt.Sprintf("%.3f", durationSec),
		outPath,
	)
	return err
}

// AttachAudio muxes the voiceover onto the video track.
func (f *FFmpeg) AttachAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	_, err := f.run(ctx, f.ffmpegPath,
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "libx264",
		"-c:a", "aac",
		outPath,
	)
	return err
}

// BurnSubtitles renders SRT cues into the video using the subtitles filter.
func (f *FFmpeg) BurnSubtitles(ctx context.Context, videoPath, srtPath, outPath string, style model.CaptionStyle) error {
	_, err := f.run(ctx, f.ffmpegPath,
		"-y",
		"-i", videoPath,
		"-vf", fmt.Sprintf("subtitles=%s:force_style='%s'", escapeFilterPath(srtPath), forceStyle(style)),
		"-c:v", "libx264",
		"-c:a", "copy",
		outPath,
	)
	return err
}

// --- internal ---

func (f *FFmpeg) run(ctx context.Context, bin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	f.log.Debug().Str("bin", bin).Strs("args", args).Msg("exec")
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", filepath.Base(bin), err, tail(stderr.String(), 400))
	}
	return stdout.String(), nil
}

func writeConcatList(inputs []string, outPath string) (string, error) {
	listFile := outPath + ".files.txt"
	var b strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := os.WriteFile(listFile, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return listFile, nil
}

func forceStyle(s model.CaptionStyle) string {
	parts := []string{
		"FontSize=" + strconv.Itoa(s.FontSize),
		"PrimaryColour=" + assColour(s.FontColor),
		"OutlineColour=" + assColour(s.StrokeColor),
		"Outline=" + strconv.Itoa(s.StrokeWidth),
		"Alignment=" + assAlignment(s.Position),
	}
	if s.FontName != "" {
		parts = append(parts, "FontName="+s.FontName)
	}
	return strings.Join(parts, ",")
}

// assColour maps the handful of colour names the API accepts onto ASS
// &HBBGGRR values; anything unknown falls back to white.
func assColour(name string) string {
	switch strings.ToLower(name) {
	case "black":
		return "&H000000"
	case "yellow":
		return "&H00FFFF"
	case "red":
		return "&H0000FF"
	default:
		return "&HFFFFFF"
	}
}

func assAlignment(position string) string {
	switch strings.ToLower(position) {
	case "top":
		return "8"
	case "center":
		return "5"
	default: // bottom
		return "2"
	}
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, `\`, `\\`)
	p = strings.ReplaceAll(p, ":", `\:`)
	return p
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
