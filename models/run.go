package models

import (
	"time"

	"github.com/google/uuid"
)

// RenderedClip is one line's rendered video segment: looping background
// video muxed with the synthesized audio, trimmed to the audio length.
type RenderedClip struct {
	Index     int    `json:"index"`
	Path      string `json:"path"`
	AudioPath string `json:"audio_path"`
}

// Run is one end-to-end pipeline invocation with its own isolated set of
// temporary artifacts.
type Run struct {
	ID         string         `json:"id"`
	Clips      []RenderedClip `json:"clips"`
	OutputPath string         `json:"output_path"`
	StartedAt  time.Time      `json:"started_at"`
}

func NewRun() *Run {
	return &Run{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
	}
}
