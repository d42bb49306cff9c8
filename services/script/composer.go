package script

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
)

// TranscriptExtractor fetches the plain-text transcript of a video link.
type TranscriptExtractor interface {
	Transcript(ctx context.Context, url string) (string, error)
}

// ComposeInput carries the optional prompt materials for one run.
type ComposeInput struct {
	TopicText     string
	VideoURL      string
	TopicFilePath string
	LengthMinutes float64
}

// Composer assembles the prompt payload for the script generator.
type Composer struct {
	extractor TranscriptExtractor
	logger    zerolog.Logger
}

func NewComposer(extractor TranscriptExtractor, logger zerolog.Logger) *Composer {
	return &Composer{extractor: extractor, logger: logger}
}

// Compose builds the ordered prompt parts. The leading instruction part is
// always present; transcript extraction failure degrades into a textual
// note instead of failing the run. The generator always receives at least
// two parts.
func (c *Composer) Compose(ctx context.Context, in ComposeInput) ([]genai.Part, error) {
	parts := []genai.Part{genai.Text(instruction(in.LengthMinutes))}

	if text := strings.TrimSpace(in.TopicText); text != "" {
		parts = append(parts, genai.Text("Topic: "+text))
	}

	if in.VideoURL != "" {
		transcript, err := c.extractor.Transcript(ctx, in.VideoURL)
		if err != nil {
			c.logger.Warn().Err(err).Str("url", in.VideoURL).
				Msg("Transcript extraction failed, degrading to a note")
			parts = append(parts, genai.Text(
				"A video link was provided but its transcript could not be retrieved. "+
					"Base the discussion on the other materials."))
		} else {
			parts = append(parts, genai.Text("Transcript of the provided video:\n"+transcript))
		}
	}

	if in.TopicFilePath != "" {
		data, err := os.ReadFile(in.TopicFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read topic file: %w", err)
		}
		parts = append(parts, genai.Blob{
			MIMEType: DetectContentType(in.TopicFilePath, data),
			Data:     data,
		})
	}

	// The model must always receive some topic material.
	if len(parts) == 1 {
		parts = append(parts, genai.Text(
			"No topic material was provided. Invent an original, engaging podcast topic yourself."))
	}

	return parts, nil
}

func instruction(lengthMinutes float64) string {
	return fmt.Sprintf(`You are writing the script for a two-person podcast episode of roughly %.0f minutes.
The two speakers are "Man" and "Woman". Write a natural back-and-forth conversation.

Respond with ONLY a JSON array, no surrounding prose. Each element must be an object:
{"speaker": "Man" or "Woman", "line": "what they say"}

The array order is the speaking order.`, lengthMinutes)
}

// DetectContentType resolves the MIME type of an uploaded reference file,
// preferring the extension, then content sniffing, then a generic binary
// fallback.
func DetectContentType(path string, data []byte) string {
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		if i := strings.Index(byExt, ";"); i > 0 {
			byExt = byExt[:i]
		}
		return byExt
	}
	if len(data) > 0 {
		if sniffed := http.DetectContentType(data); sniffed != "" {
			if i := strings.Index(sniffed, ";"); i > 0 {
				sniffed = sniffed[:i]
			}
			return sniffed
		}
	}
	return "application/octet-stream"
}
