// Package podcast drives the full media generation pipeline for one
// request: resolve background sources, compose the prompt, generate the
// dialogue, render each line into a clip, and concatenate the result.
package podcast

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "podforge/errors"
	"podforge/models"
	"podforge/services/script"
	"podforge/services/sources"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
)

// SourceResolver resolves one speaker's background-video selection.
type SourceResolver interface {
	Resolve(ctx context.Context, speaker models.Speaker, sel sources.Selection, reg sources.Registrar) (string, error)
}

// Composer assembles the prompt material for the generator.
type Composer interface {
	Compose(ctx context.Context, in script.ComposeInput) ([]genai.Part, error)
}

// Generator produces the dialogue script from prompt material.
type Generator interface {
	Generate(ctx context.Context, apiKey string, parts []genai.Part) (models.Dialogue, error)
}

// Synthesizer converts one line of text into encoded audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, apiKey, text, languageCode, voice string) ([]byte, error)
}

// MediaEngine is the transform contract the pipeline depends on.
type MediaEngine interface {
	Probe(ctx context.Context, path string) (float64, error)
	LoopClip(ctx context.Context, videoPath, audioPath string, seconds float64, outPath string) error
	Concat(ctx context.Context, clipPaths []string, manifestPath, outPath string) error
}

// Request is one podcast generation job.
type Request struct {
	APIKey        string
	TopicText     string
	VideoURL      string
	TopicFilePath string
	LengthMinutes float64
	LanguageCode  string

	ManVoice   string
	WomanVoice string

	ManVideo   sources.Selection
	WomanVideo sources.Selection
}

type Config struct {
	WorkDir         string
	OutputDir       string
	OutputRetention time.Duration
}

type Service struct {
	resolver SourceResolver
	composer Composer
	gen      Generator
	synth    Synthesizer
	engine   MediaEngine
	config   Config
	logger   zerolog.Logger
}

func NewService(
	resolver SourceResolver,
	composer Composer,
	gen Generator,
	synth Synthesizer,
	engine MediaEngine,
	config Config,
	logger zerolog.Logger,
) *Service {
	return &Service{
		resolver: resolver,
		composer: composer,
		gen:      gen,
		synth:    synth,
		engine:   engine,
		config:   config,
		logger:   logger,
	}
}

// Generate runs the whole pipeline and returns the output file name under
// the output directory. On any failure every artifact registered so far is
// deleted immediately before the error is surfaced; on success the
// intermediates are scheduled for cleanup and the final file is deleted
// after the retention window.
func (s *Service) Generate(ctx context.Context, req Request) (string, error) {
	run := models.NewRun()
	logger := s.logger.With().Str("run_id", run.ID).Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Msg("Starting podcast generation")

	janitor := NewJanitor(logger)
	name, err := s.execute(ctx, run, req, janitor, logger)
	if err != nil {
		janitor.Release()
		logger.Error().Err(err).Msg("Podcast generation failed")
		return "", err
	}

	// Intermediates go as soon as the response is out; the deliverable
	// stays for the retention window so the caller can fetch it.
	janitor.Schedule(0)

	final := NewJanitor(logger)
	final.Register(run.OutputPath)
	final.Schedule(s.config.OutputRetention)

	logger.Info().Str("output", name).Msg("Podcast generation succeeded")
	return name, nil
}

func (s *Service) execute(ctx context.Context, run *models.Run, req Request, janitor *Janitor, logger zerolog.Logger) (string, error) {
	const op = "PodcastService.execute"

	manVideo, womanVideo, err := s.resolveSources(ctx, req, janitor)
	if err != nil {
		return "", err
	}

	parts, err := s.composer.Compose(ctx, script.ComposeInput{
		TopicText:     req.TopicText,
		VideoURL:      req.VideoURL,
		TopicFilePath: req.TopicFilePath,
		LengthMinutes: req.LengthMinutes,
	})
	if err != nil {
		return "", apperrors.Internal(op, err, "Failed to compose prompt material")
	}

	dialogue, err := s.gen.Generate(ctx, req.APIKey, parts)
	if err != nil {
		return "", err
	}
	logger.Info().Int("lines", len(dialogue)).Msg("Dialogue generated")

	// Lines render strictly one at a time. The synthesis backend is
	// quota-limited, so per-line fan-out is off the table.
	for i, line := range dialogue {
		clip, err := s.renderLine(ctx, run, i, line, req, manVideo, womanVideo, janitor)
		if err != nil {
			return "", err
		}
		run.Clips = append(run.Clips, clip)
	}

	return s.concatenate(ctx, run, janitor)
}

// resolveSources fetches both speakers' background videos. The two
// resolutions are independent and run concurrently.
func (s *Service) resolveSources(ctx context.Context, req Request, janitor *Janitor) (string, string, error) {
	var (
		wg                 sync.WaitGroup
		manPath, womanPath string
		manErr, womanErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		manPath, manErr = s.resolver.Resolve(ctx, models.SpeakerMan, req.ManVideo, janitor)
	}()
	go func() {
		defer wg.Done()
		womanPath, womanErr = s.resolver.Resolve(ctx, models.SpeakerWoman, req.WomanVideo, janitor)
	}()
	wg.Wait()

	if manErr != nil {
		return "", "", manErr
	}
	if womanErr != nil {
		return "", "", womanErr
	}
	return manPath, womanPath, nil
}

// renderLine synthesizes one line's audio, probes its duration, and loops
// the speaker's background video under it. Each step hard-depends on the
// previous one.
func (s *Service) renderLine(
	ctx context.Context,
	run *models.Run,
	index int,
	line models.DialogueLine,
	req Request,
	manVideo, womanVideo string,
	janitor *Janitor,
) (models.RenderedClip, error) {
	const op = "PodcastService.renderLine"

	voice := req.ManVoice
	video := manVideo
	if line.Attribution() == models.SpeakerWoman {
		voice = req.WomanVoice
		video = womanVideo
	}

	audio, err := s.synth.Synthesize(ctx, req.APIKey, line.Line, req.LanguageCode, voice)
	if err != nil {
		return models.RenderedClip{}, err
	}

	audioPath := filepath.Join(s.config.WorkDir, fmt.Sprintf("%s_line_%03d.mp3", run.ID, index))
	janitor.Register(audioPath)
	if err := os.WriteFile(audioPath, audio, 0o644); err != nil {
		return models.RenderedClip{}, apperrors.Resource(op, err, "Failed to write synthesized audio")
	}

	seconds, err := s.engine.Probe(ctx, audioPath)
	if err != nil {
		return models.RenderedClip{}, apperrors.MediaTransform(op, err, "Failed to probe audio duration")
	}

	clipPath := filepath.Join(s.config.WorkDir, fmt.Sprintf("%s_clip_%03d.mp4", run.ID, index))
	janitor.Register(clipPath)
	if err := s.engine.LoopClip(ctx, video, audioPath, seconds, clipPath); err != nil {
		return models.RenderedClip{}, apperrors.MediaTransform(op, err, "Failed to assemble clip")
	}

	return models.RenderedClip{Index: index, Path: clipPath, AudioPath: audioPath}, nil
}

// concatenate stream-copies the clips, in dialogue order, into the final
// deliverable under the output directory.
func (s *Service) concatenate(ctx context.Context, run *models.Run, janitor *Janitor) (string, error) {
	const op = "PodcastService.concatenate"

	clipPaths := make([]string, len(run.Clips))
	for i, clip := range run.Clips {
		clipPaths[i] = clip.Path
	}

	manifestPath := filepath.Join(s.config.WorkDir, run.ID+"_concat.txt")
	janitor.Register(manifestPath)

	name := "podcast_" + run.ID + ".mp4"
	outPath := filepath.Join(s.config.OutputDir, name)
	if err := s.engine.Concat(ctx, clipPaths, manifestPath, outPath); err != nil {
		// A failed concat may leave a partial output behind.
		janitor.Register(outPath)
		return "", apperrors.MediaTransform(op, err, "Failed to concatenate clips")
	}

	run.OutputPath = outPath
	return name, nil
}
