// Package scripts runs the python helper scripts bundled with the service.
// The only helper today is the transcript extractor for video links.
package scripts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	PythonPath  string
	ScriptsPath string
	Timeout     time.Duration
}

type Runner struct {
	config Config
}

func NewRunner(cfg Config) (*Runner, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Runner{config: cfg}, nil
}

func validateConfig(cfg Config) error {
	if _, err := os.Stat(cfg.ScriptsPath); os.IsNotExist(err) {
		return fmt.Errorf("scripts directory does not exist: %s", cfg.ScriptsPath)
	}

	requiredScripts := []string{"transcript.py"}
	for _, script := range requiredScripts {
		scriptPath := filepath.Join(cfg.ScriptsPath, script)
		if _, err := os.Stat(scriptPath); os.IsNotExist(err) {
			return fmt.Errorf("required script not found: %s", scriptPath)
		}
	}
	return nil
}

// RunScript executes one helper script and returns its JSON stdout.
func (r *Runner) RunScript(
	ctx context.Context,
	scriptName string,
	args map[string]string,
) ([]byte, error) {
	scriptPath := filepath.Join(r.config.ScriptsPath, scriptName)
	logger := zerolog.Ctx(ctx)

	logger.Debug().
		Str("script", scriptName).
		Interface("args", args).
		Msg("Executing script")

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	cmdArgs := buildCommandArgs(scriptPath, args)
	cmd := exec.CommandContext(ctx, r.config.PythonPath, cmdArgs...)
	cmd.Dir = r.config.ScriptsPath

	output, err := r.executeCommand(cmd, logger)
	if err != nil {
		return nil, fmt.Errorf("script %s failed: %w", scriptName, err)
	}

	return output, nil
}

func buildCommandArgs(scriptPath string, args map[string]string) []string {
	cmdArgs := []string{scriptPath}
	for k, v := range args {
		if v != "" {
			cmdArgs = append(cmdArgs, fmt.Sprintf("--%s", k), v)
		}
	}
	return cmdArgs
}

func (r *Runner) executeCommand(cmd *exec.Cmd, logger *zerolog.Logger) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrOutput := stderr.String()
		logger.Error().
			Err(err).
			Str("stderr", stderrOutput).
			Msg("Script execution failed")
		return nil, fmt.Errorf("%v (stderr: %s)", err, stderrOutput)
	}

	output := stdout.Bytes()
	if err := validateJSONOutput(output); err != nil {
		logger.Error().
			Err(err).
			Str("output", string(output)).
			Msg("Invalid JSON output")
		return nil, err
	}

	return output, nil
}

func validateJSONOutput(output []byte) error {
	var jsonTest interface{}
	if err := json.Unmarshal(output, &jsonTest); err != nil {
		return fmt.Errorf("invalid JSON output: %v", err)
	}
	return nil
}
