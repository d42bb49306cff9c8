package validation

import (
	"net/url"
	"strconv"
	"strings"

	"podforge/errors"
)

// voiceFamily is the voice family every requested voice must belong to.
const voiceFamily = "chirp"

const DefaultPodcastLength = 5

// ValidateAPIKey ensures a credential was supplied.
func ValidateAPIKey(key string) error {
	const op = "Validation.ValidateAPIKey"

	if strings.TrimSpace(key) == "" {
		return errors.InvalidInput(op, nil, "API key is required")
	}
	return nil
}

// ValidateVoice checks that the identifier names a Chirp-family voice.
// The match is a case-insensitive substring so identifiers like
// "en-US-Chirp3-HD-Charon" pass.
func ValidateVoice(field, voice string) error {
	const op = "Validation.ValidateVoice"

	if strings.TrimSpace(voice) == "" {
		return errors.InvalidInput(op, nil, field+" is required")
	}
	if !strings.Contains(strings.ToLower(voice), voiceFamily) {
		return errors.InvalidInput(op, nil, field+" must be a Chirp-family voice")
	}
	return nil
}

// CoercePodcastLength parses the requested length in minutes, falling back
// to the default for missing, unparseable, or non-positive values.
func CoercePodcastLength(raw string) float64 {
	length, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || length <= 0 {
		return DefaultPodcastLength
	}
	return length
}

// VideoOption is the background video selection mode for one speaker.
type VideoOption string

const (
	VideoOptionDefault VideoOption = "default"
	VideoOptionLibrary VideoOption = "library"
	VideoOptionCustom  VideoOption = "custom"
)

// ParseVideoOption normalizes the selection mode, defaulting to "default"
// when empty and rejecting unknown modes.
func ParseVideoOption(field, raw string) (VideoOption, error) {
	const op = "Validation.ParseVideoOption"

	switch VideoOption(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return VideoOptionDefault, nil
	case VideoOptionDefault:
		return VideoOptionDefault, nil
	case VideoOptionLibrary:
		return VideoOptionLibrary, nil
	case VideoOptionCustom:
		return VideoOptionCustom, nil
	default:
		return "", errors.InvalidInput(op, nil, field+" must be one of default, library, custom")
	}
}

// ValidateVideoURL performs basic URL validation on the optional video link.
func ValidateVideoURL(raw string) error {
	const op = "Validation.ValidateVideoURL"

	parsed, err := url.Parse(raw)
	if err != nil {
		return errors.InvalidInput(op, err, "Invalid video URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.InvalidInput(op, nil, "Video URL must use HTTP or HTTPS")
	}
	return nil
}

// NormalizeLanguageCode defaults the synthesis language to en-US.
func NormalizeLanguageCode(raw string) string {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "en-US"
	}
	return code
}
