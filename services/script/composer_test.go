package script

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
)

type fakeExtractor struct {
	transcript string
	err        error
	called     bool
}

func (f *fakeExtractor) Transcript(ctx context.Context, url string) (string, error) {
	f.called = true
	return f.transcript, f.err
}

func textParts(parts []genai.Part) []string {
	var out []string
	for _, p := range parts {
		if t, ok := p.(genai.Text); ok {
			out = append(out, string(t))
		}
	}
	return out
}

func TestComposeInstructionAlwaysFirst(t *testing.T) {
	c := NewComposer(&fakeExtractor{}, zerolog.Nop())

	parts, err := c.Compose(context.Background(), ComposeInput{TopicText: "space travel", LengthMinutes: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, ok := parts[0].(genai.Text)
	if !ok {
		t.Fatal("expected leading instruction text part")
	}
	if !strings.Contains(string(first), "5 minutes") {
		t.Errorf("instruction missing target length: %q", first)
	}
	if !strings.Contains(string(first), "JSON array") {
		t.Errorf("instruction missing output shape: %q", first)
	}
}

func TestComposeNoMaterialInventsTopic(t *testing.T) {
	c := NewComposer(&fakeExtractor{}, zerolog.Nop())

	parts, err := c.Compose(context.Background(), ComposeInput{LengthMinutes: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if !strings.Contains(textParts(parts)[1], "Invent an original") {
		t.Errorf("expected invent-topic part, got %v", textParts(parts))
	}
}

func TestComposeTranscriptSuccess(t *testing.T) {
	extractor := &fakeExtractor{transcript: "the transcript text"}
	c := NewComposer(extractor, zerolog.Nop())

	parts, err := c.Compose(context.Background(), ComposeInput{
		VideoURL:      "https://youtu.be/abc",
		LengthMinutes: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !extractor.called {
		t.Error("expected extractor to be called")
	}

	texts := textParts(parts)
	if !strings.Contains(texts[1], "the transcript text") {
		t.Errorf("expected transcript part, got %v", texts)
	}
}

func TestComposeTranscriptFailureDegrades(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New("no captions")}
	c := NewComposer(extractor, zerolog.Nop())

	parts, err := c.Compose(context.Background(), ComposeInput{
		VideoURL:      "https://youtu.be/abc",
		LengthMinutes: 5,
	})
	if err != nil {
		t.Fatalf("extraction failure must not fail composition: %v", err)
	}

	texts := textParts(parts)
	found := false
	for _, text := range texts {
		if strings.Contains(text, "could not be retrieved") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected degraded-context note, got %v", texts)
	}
}

func TestComposeTopicFileBlob(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("reference material"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewComposer(&fakeExtractor{}, zerolog.Nop())
	parts, err := c.Compose(context.Background(), ComposeInput{
		TopicFilePath: path,
		LengthMinutes: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var blob genai.Blob
	found := false
	for _, p := range parts {
		if b, ok := p.(genai.Blob); ok {
			blob = b
			found = true
		}
	}
	if !found {
		t.Fatal("expected a blob part for the topic file")
	}
	if blob.MIMEType != "text/plain" {
		t.Errorf("expected text/plain, got %q", blob.MIMEType)
	}
	if string(blob.Data) != "reference material" {
		t.Errorf("unexpected blob data: %q", blob.Data)
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		path string
		data []byte
		want string
	}{
		{"doc.pdf", nil, "application/pdf"},
		{"notes.txt", nil, "text/plain"},
		{"mystery", []byte("%PDF-1.4 rest of file"), "application/pdf"},
		{"mystery", nil, "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := DetectContentType(tt.path, tt.data); got != tt.want {
			t.Errorf("DetectContentType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
