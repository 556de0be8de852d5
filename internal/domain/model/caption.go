package model

import "time"

// TranscriptWord is one word with its spoken interval, as reported by the
// transcriber with word-level timestamps.
type TranscriptWord struct {
	Word  string
	Start time.Duration
	End   time.Duration
}

// CaptionCue is one rendered caption: a short word group shown between
// Start and End. Index is the 1-based SRT sequence number.
type CaptionCue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// CaptionStyle controls how cues are burned into the video.
type CaptionStyle struct {
	FontName    string
	FontSize    int
	FontColor   string
	StrokeColor string
	StrokeWidth int
	Position    string // "top" | "bottom" | "center"
}

func DefaultCaptionStyle() CaptionStyle {
	return CaptionStyle{
		FontSize:    40,
		FontColor:   "white",
		StrokeColor: "black",
		StrokeWidth: 2,
		Position:    "bottom",
	}
}
