// Package media wraps the ffmpeg/ffprobe binaries behind the narrow
// contract the pipeline depends on: probe an audio duration, loop a
// background video under an audio track, and concatenate finished clips.
package media

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Stage names for EngineError.
const (
	StageProbe  = "probe"
	StageClip   = "clip"
	StageConcat = "concat"
)

// EngineError is a stage-aware transform failure with command context.
type EngineError struct {
	Stage   string
	Message string
	Stderr  string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s (stderr: %s)", e.Stage, e.Message, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout string
	Stderr string
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return commandResult{Stdout: stdout.String(), Stderr: stderr.String()}, err
}

// Engine runs media transforms. One Engine is shared by all concurrent
// runs; it holds no per-run state.
type Engine struct {
	ffmpegPath  string
	ffprobePath string
	runner      commandRunner
}

func NewEngine(ffmpegPath, ffprobePath string) *Engine {
	return &Engine{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		runner:      &execRunner{},
	}
}

// Probe returns the duration of the media file in seconds. The duration
// must be a positive finite number or the probe fails.
func (e *Engine) Probe(ctx context.Context, path string) (float64, error) {
	args := buildProbeArgs(path)
	result, err := e.runner.Run(ctx, e.ffprobePath, args...)
	if err != nil {
		return 0, &EngineError{
			Stage:   StageProbe,
			Message: fmt.Sprintf("ffprobe failed for %s", path),
			Stderr:  result.Stderr,
			Err:     err,
		}
	}

	return parseProbeDuration(result.Stdout)
}

// LoopClip loops the background video under the audio track and writes a
// clip trimmed to exactly seconds. Output codec parameters are fixed
// (H.264, yuv420p, AAC) so all clips in a run share them; the stream-copy
// concatenation relies on that.
func (e *Engine) LoopClip(ctx context.Context, videoPath, audioPath string, seconds float64, outPath string) error {
	args := buildLoopClipArgs(videoPath, audioPath, seconds, outPath)
	result, err := e.runner.Run(ctx, e.ffmpegPath, args...)
	if err != nil {
		return &EngineError{
			Stage:   StageClip,
			Message: fmt.Sprintf("clip assembly failed for %s", audioPath),
			Stderr:  result.Stderr,
			Err:     err,
		}
	}
	return nil
}

// Concat stream-copies the ordered clips into outPath using the concat
// demuxer. The manifest is written next to the output; the caller owns its
// cleanup and receives its path either way.
func (e *Engine) Concat(ctx context.Context, clipPaths []string, manifestPath, outPath string) error {
	if len(clipPaths) == 0 {
		return &EngineError{Stage: StageConcat, Message: "no clips to concatenate"}
	}

	manifest := BuildConcatManifest(clipPaths)
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		return &EngineError{
			Stage:   StageConcat,
			Message: "failed to write concat manifest",
			Err:     err,
		}
	}

	args := buildConcatArgs(manifestPath, outPath)
	result, err := e.runner.Run(ctx, e.ffmpegPath, args...)
	if err != nil {
		return &EngineError{
			Stage:   StageConcat,
			Message: "concatenation failed",
			Stderr:  result.Stderr,
			Err:     err,
		}
	}
	return nil
}

func parseProbeDuration(stdout string) (float64, error) {
	raw := strings.TrimSpace(stdout)
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &EngineError{
			Stage:   StageProbe,
			Message: fmt.Sprintf("unparseable duration %q", raw),
			Err:     errors.Wrap(err, "parse duration"),
		}
	}
	if seconds <= 0 || math.IsInf(seconds, 0) || math.IsNaN(seconds) {
		return 0, &EngineError{
			Stage:   StageProbe,
			Message: fmt.Sprintf("invalid duration %v", seconds),
		}
	}
	return seconds, nil
}

func buildProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

func buildLoopClipArgs(videoPath, audioPath string, seconds float64, outPath string) []string {
	return []string{
		"-y",
		"-stream_loop", "-1",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-t", formatSeconds(seconds),
		"-shortest",
		outPath,
	}
}

func buildConcatArgs(manifestPath, outPath string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		outPath,
	}
}

// BuildConcatManifest renders the concat demuxer file list. Single quotes
// in paths are escaped per the demuxer's quoting rules.
func BuildConcatManifest(clipPaths []string) string {
	var b strings.Builder
	for _, p := range clipPaths {
		escaped := strings.ReplaceAll(p, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return b.String()
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
