package media

import (
	"fmt"
	"os"
	"strings"
	"time"

	"ai-reel-studio/internal/domain/model"
)

// BuildCues chunks word-level timestamps into short caption cues of at most
// maxWords words, the way short-form captions are displayed: each cue spans
// from its first word's start to its last word's end.
func BuildCues(words []model.TranscriptWord, maxWords int) []model.CaptionCue {
	if maxWords <= 0 {
		maxWords = 3
	}
	cues := make([]model.CaptionCue, 0, (len(words)+maxWords-1)/maxWords)
	index := 1
	for i := 0; i < len(words); i += maxWords {
		end := i + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunk := words[i:end]
		texts := make([]string, 0, len(chunk))
		for _, w := range chunk {
			if t := strings.TrimSpace(w.Word); t != "" {
				texts = append(texts, t)
			}
		}
		if len(texts) == 0 {
			continue
		}
		cues = append(cues, model.CaptionCue{
			Index: index,
			Start: chunk[0].Start,
			End:   chunk[len(chunk)-1].End,
			Text:  strings.Join(texts, " "),
		})
		index++
	}
	return cues
}

// WriteSRT renders cues into a UTF-8 SRT file.
func WriteSRT(cues []model.CaptionCue, outPath string) error {
	var b strings.Builder
	for i, cue := range cues {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", cue.Index, SRTTimestamp(cue.Start), SRTTimestamp(cue.End), cue.Text)
	}
	return os.WriteFile(outPath, []byte(b.String()), 0o644)
}

// SRTTimestamp formats a duration as HH:MM:SS,mmm.
func SRTTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	ms := (d - s*time.Second) / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
