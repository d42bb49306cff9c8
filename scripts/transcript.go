package scripts

import (
	"context"
	"encoding/json"
	"fmt"
)

type transcriptResult struct {
	Transcript string `json:"transcript"`
	Error      string `json:"error"`
}

// Transcript extracts the plain-text transcript of a video link. An empty
// transcript or helper-reported error is returned as an error; callers
// degrade gracefully rather than failing the run.
func (r *Runner) Transcript(ctx context.Context, url string) (string, error) {
	output, err := r.RunScript(ctx, "transcript.py", map[string]string{"url": url})
	if err != nil {
		return "", err
	}

	var result transcriptResult
	if err := json.Unmarshal(output, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal transcript result: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("transcript extraction failed: %s", result.Error)
	}
	if result.Transcript == "" {
		return "", fmt.Errorf("no transcript available for %s", url)
	}

	return result.Transcript, nil
}
