package podcast

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"podforge/models"
	"podforge/services/script"
	"podforge/services/sources"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
)

type fakeResolver struct {
	workDir string
}

func (f *fakeResolver) Resolve(ctx context.Context, speaker models.Speaker, sel sources.Selection, reg sources.Registrar) (string, error) {
	path := filepath.Join(f.workDir, "bg_"+speaker.String()+".mp4")
	reg.Register(path)
	if err := os.WriteFile(path, []byte("bg"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type fakeComposer struct{}

func (fakeComposer) Compose(ctx context.Context, in script.ComposeInput) ([]genai.Part, error) {
	return []genai.Part{genai.Text("instruction"), genai.Text("topic")}, nil
}

type fakeGenerator struct {
	dialogue models.Dialogue
	err      error
}

func (f *fakeGenerator) Generate(ctx context.Context, apiKey string, parts []genai.Part) (models.Dialogue, error) {
	return f.dialogue, f.err
}

type fakeSynth struct {
	texts  []string
	voices []string
	failAt int // 1-based call index to fail on, 0 = never
	calls  int
}

func (f *fakeSynth) Synthesize(ctx context.Context, apiKey, text, languageCode, voice string) ([]byte, error) {
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return nil, errors.New("synthesis backend unavailable")
	}
	f.texts = append(f.texts, text)
	f.voices = append(f.voices, voice)
	return []byte("mp3-bytes"), nil
}

type fakeEngine struct {
	concatClips []string
}

func (f *fakeEngine) Probe(ctx context.Context, path string) (float64, error) {
	return 2.5, nil
}

func (f *fakeEngine) LoopClip(ctx context.Context, videoPath, audioPath string, seconds float64, outPath string) error {
	return os.WriteFile(outPath, []byte("clip"), 0o644)
}

func (f *fakeEngine) Concat(ctx context.Context, clipPaths []string, manifestPath, outPath string) error {
	f.concatClips = append([]string(nil), clipPaths...)
	if err := os.WriteFile(manifestPath, []byte("manifest"), 0o644); err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte("final"), 0o644)
}

func newTestService(t *testing.T, gen Generator, synth Synthesizer, engine MediaEngine) (*Service, string, string) {
	t.Helper()
	workDir := t.TempDir()
	outputDir := t.TempDir()
	svc := NewService(
		&fakeResolver{workDir: workDir},
		fakeComposer{},
		gen,
		synth,
		engine,
		Config{
			WorkDir:         workDir,
			OutputDir:       outputDir,
			OutputRetention: time.Hour,
		},
		zerolog.Nop(),
	)
	return svc, workDir, outputDir
}

func testRequest() Request {
	return Request{
		APIKey:        "key",
		LengthMinutes: 5,
		LanguageCode:  "en-US",
		ManVoice:      "en-US-Chirp-Man",
		WomanVoice:    "en-US-Chirp-Woman",
	}
}

func waitForEmptyDir(t *testing.T, dir string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	entries, _ := os.ReadDir(dir)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	t.Fatalf("intermediate artifacts not cleaned up: %v", names)
}

func TestGenerateSuccess(t *testing.T) {
	gen := &fakeGenerator{dialogue: models.Dialogue{
		{Speaker: "Man", Line: "Hi"},
		{Speaker: "Woman", Line: "Hello"},
		{Speaker: "Man", Line: "Let's begin"},
	}}
	synth := &fakeSynth{}
	engine := &fakeEngine{}
	svc, workDir, outputDir := newTestService(t, gen, synth, engine)

	name, err := svc.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(name, "podcast_") || !strings.HasSuffix(name, ".mp4") {
		t.Errorf("unexpected output name %q", name)
	}

	// One clip per dialogue line, concatenated in dialogue order.
	if len(engine.concatClips) != 3 {
		t.Fatalf("expected 3 clips, got %d", len(engine.concatClips))
	}
	for i, clip := range engine.concatClips {
		if !strings.Contains(clip, "_clip_") {
			t.Errorf("unexpected clip path %q", clip)
		}
		if i > 0 && engine.concatClips[i-1] >= clip {
			t.Errorf("clips out of order: %v", engine.concatClips)
		}
	}

	// Lines were synthesized sequentially in document order with the
	// speaker's voice.
	wantTexts := []string{"Hi", "Hello", "Let's begin"}
	for i, want := range wantTexts {
		if synth.texts[i] != want {
			t.Errorf("synth order: got %v, want %v", synth.texts, wantTexts)
			break
		}
	}
	wantVoices := []string{"en-US-Chirp-Man", "en-US-Chirp-Woman", "en-US-Chirp-Man"}
	for i, want := range wantVoices {
		if synth.voices[i] != want {
			t.Errorf("voice routing: got %v, want %v", synth.voices, wantVoices)
			break
		}
	}

	// The deliverable survives; intermediates are scheduled away.
	if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
		t.Errorf("final output missing: %v", err)
	}
	waitForEmptyDir(t, workDir)
}

func TestGenerateFailureCleansUpImmediately(t *testing.T) {
	gen := &fakeGenerator{dialogue: models.Dialogue{
		{Speaker: "Man", Line: "Hi"},
		{Speaker: "Woman", Line: "Hello"},
	}}
	synth := &fakeSynth{failAt: 2}
	svc, workDir, outputDir := newTestService(t, gen, synth, &fakeEngine{})

	_, err := svc.Generate(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error")
	}

	// Cleanup is synchronous on the failure path: nothing may remain.
	entries, readErr := os.ReadDir(workDir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("artifacts left behind after failure: %v", names)
	}

	outEntries, _ := os.ReadDir(outputDir)
	if len(outEntries) != 0 {
		t.Error("no output may exist after a failed run")
	}
}

func TestGenerateScriptFailureLeavesNoArtifacts(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("malformed response")}
	svc, workDir, _ := newTestService(t, gen, &fakeSynth{}, &fakeEngine{})

	_, err := svc.Generate(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error")
	}

	entries, readErr := os.ReadDir(workDir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		t.Errorf("downloaded sources must be cleaned up after script failure, found %d entries", len(entries))
	}
}

func TestGenerateClipCountMatchesDialogue(t *testing.T) {
	gen := &fakeGenerator{dialogue: models.Dialogue{
		{Speaker: "Woman", Line: "Solo episode"},
	}}
	engine := &fakeEngine{}
	svc, _, _ := newTestService(t, gen, &fakeSynth{}, engine)

	if _, err := svc.Generate(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(engine.concatClips) != 1 {
		t.Errorf("expected 1 clip, got %d", len(engine.concatClips))
	}
}
