// Package speech synthesizes dialogue lines with the Google Cloud
// Text-to-Speech REST API.
package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "podforge/errors"

	"golang.org/x/time/rate"
)

const defaultEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"

type Config struct {
	// Endpoint overrides the synthesis URL, used by tests.
	Endpoint string

	// RequestsPerSecond paces synthesis calls so a long dialogue does not
	// burst the quota-limited backend.
	RequestsPerSecond float64
}

type Client struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
}

func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 60 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
	}
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize converts one line of text to MP3 bytes using the named voice.
func (c *Client) Synthesize(ctx context.Context, apiKey, text, languageCode, voice string) ([]byte, error) {
	const op = "SpeechClient.Synthesize"

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.Upstream(op, err, "Speech synthesis cancelled")
	}

	var reqBody synthesizeRequest
	reqBody.Input.Text = text
	reqBody.Voice.LanguageCode = languageCode
	reqBody.Voice.Name = voice
	reqBody.AudioConfig.AudioEncoding = "MP3"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperrors.Internal(op, err, "Failed to encode synthesis request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+apiKey, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Internal(op, err, "Failed to build synthesis request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Upstream(op, err, "Speech synthesis request failed")
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK {
		return nil, apperrors.Upstream(op,
			fmt.Errorf("synthesis returned %d: %s", res.StatusCode, string(body)),
			"Speech synthesis failed")
	}

	var parsed synthesizeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.Upstream(op, err, "Unparseable synthesis response")
	}

	audio, err := base64.StdEncoding.DecodeString(parsed.AudioContent)
	if err != nil {
		return nil, apperrors.Upstream(op, err, "Invalid audio payload encoding")
	}
	if len(audio) == 0 {
		return nil, apperrors.Upstream(op, nil, "Speech synthesis returned empty audio")
	}

	return audio, nil
}
