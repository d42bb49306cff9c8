// Package script turns prompt material into a validated two-speaker
// dialogue using the Gemini API.
package script

import (
	"context"
	"encoding/json"
	"strings"

	apperrors "podforge/errors"
	"podforge/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

type Client struct {
	modelName string
	logger    zerolog.Logger
}

func NewClient(modelName string, logger zerolog.Logger) *Client {
	return &Client{modelName: modelName, logger: logger}
}

// Generate invokes the backend once and parses the result into an ordered
// dialogue. No retries: transient failures surface to the caller.
func (c *Client) Generate(ctx context.Context, apiKey string, parts []genai.Part) (models.Dialogue, error) {
	const op = "ScriptClient.Generate"

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, apperrors.Upstream(op, err, "Failed to create generation client")
	}
	defer client.Close()

	model := client.GenerativeModel(c.modelName)
	model.SetTemperature(0.7)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, apperrors.Upstream(op, err, "Script generation failed")
	}

	text, err := candidateText(resp)
	if err != nil {
		return nil, apperrors.Upstream(op, err, "Script generation returned no content")
	}

	dialogue, err := ParseDialogue(text)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Int("lines", len(dialogue)).Msg("Parsed generated dialogue")
	return dialogue, nil
}

// candidateText extracts the first candidate's text part.
func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &EmptyResponseError{Reason: "no candidates returned"}
	}
	if resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &EmptyResponseError{Reason: "no content parts in first candidate"}
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", &EmptyResponseError{Reason: "first part is not text"}
	}
	if strings.TrimSpace(string(text)) == "" {
		return "", &EmptyResponseError{Reason: "empty text part"}
	}
	return string(text), nil
}

// ParseDialogue parses the raw generator text into a filtered dialogue.
// The text must be a syntactically valid JSON array; no best-effort repair
// is attempted.
func ParseDialogue(text string) (models.Dialogue, error) {
	const op = "ScriptClient.ParseDialogue"

	cleaned := stripFences(text)

	var top json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &top); err != nil {
		return nil, apperrors.Upstream(op, &MalformedResponseError{Raw: cleaned, Err: err},
			"Generator response is not valid JSON")
	}

	trimmed := strings.TrimSpace(string(top))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, apperrors.Upstream(op, &NotAListError{Raw: cleaned},
			"Generator response is not a list of lines")
	}

	var raw models.Dialogue
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, apperrors.Upstream(op, &MalformedResponseError{Raw: cleaned, Err: err},
			"Generator response has unexpected line shape")
	}

	dialogue := raw.Filter()
	if len(dialogue) == 0 {
		return nil, apperrors.Upstream(op, nil, "Generator produced no usable dialogue lines")
	}

	return dialogue, nil
}

// stripFences removes a markdown code fence the model sometimes wraps
// around JSON output.
func stripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}
