// Package sources resolves each speaker's background-video selection into a
// local file path, downloading default or library videos as needed.
package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	apperrors "podforge/errors"
	"podforge/models"
	"podforge/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Registrar records artifacts for cleanup. Downloaded videos are pipeline
// temporaries and must be registered; user uploads are not (their cleanup
// belongs to the request-level registration).
type Registrar interface {
	Register(path string)
}

// Selection is one speaker's background-video choice.
type Selection struct {
	Option     validation.VideoOption
	LibraryKey string
	UploadPath string
}

type Config struct {
	DefaultManVideoURL   string
	DefaultWomanVideoURL string
	WorkDir              string
}

type Resolver struct {
	config  Config
	catalog catalog
	http    *http.Client
	logger  zerolog.Logger
}

func NewResolver(cfg Config, logger zerolog.Logger) *Resolver {
	return &Resolver{
		config:  cfg,
		catalog: defaultCatalog(),
		http:    &http.Client{Timeout: 5 * time.Minute},
		logger:  logger,
	}
}

// Resolve produces a local file path for the speaker's background video.
// Library lookups that miss fall back to the speaker's default URL rather
// than failing.
func (r *Resolver) Resolve(ctx context.Context, speaker models.Speaker, sel Selection, reg Registrar) (string, error) {
	const op = "SourceResolver.Resolve"

	switch sel.Option {
	case validation.VideoOptionCustom:
		if sel.UploadPath == "" {
			return "", apperrors.InvalidInput(op, nil,
				fmt.Sprintf("No custom video uploaded for the %s speaker", speaker))
		}
		return sel.UploadPath, nil

	case validation.VideoOptionLibrary:
		url := r.catalog.lookup(speaker, sel.LibraryKey)
		if url == "" {
			r.logger.Warn().
				Str("speaker", speaker.String()).
				Str("key", sel.LibraryKey).
				Msg("Unknown library video key, falling back to default")
			url = r.defaultURL(speaker)
		}
		return r.download(ctx, url, reg)

	default:
		return r.download(ctx, r.defaultURL(speaker), reg)
	}
}

func (r *Resolver) defaultURL(speaker models.Speaker) string {
	if speaker == models.SpeakerWoman {
		return r.config.DefaultWomanVideoURL
	}
	return r.config.DefaultManVideoURL
}

// download streams the remote video into a fresh uniquely-named file under
// the work dir. Streaming bounds memory use for large videos. The file is
// registered for cleanup before the body is copied so partial downloads
// still clean up.
func (r *Resolver) download(ctx context.Context, url string, reg Registrar) (string, error) {
	const op = "SourceResolver.download"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", apperrors.Resource(op, err, "Failed to build video download request")
	}

	res, err := r.http.Do(req)
	if err != nil {
		return "", apperrors.Resource(op, err, "Failed to download background video")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", apperrors.Resource(op,
			fmt.Errorf("download returned %d for %s", res.StatusCode, url),
			"Failed to download background video")
	}

	path := filepath.Join(r.config.WorkDir, "source_"+uuid.New().String()+".mp4")
	reg.Register(path)

	out, err := os.Create(path)
	if err != nil {
		return "", apperrors.Resource(op, err, "Failed to create video file")
	}
	defer out.Close()

	if _, err := io.Copy(out, res.Body); err != nil {
		return "", apperrors.Resource(op, err, "Failed to write background video")
	}

	return path, nil
}
