package handlers

import (
	"context"
	"mime/multipart"
	"path/filepath"

	apperrors "podforge/errors"
	"podforge/services/podcast"
	"podforge/services/sources"
	"podforge/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PodcastService is the pipeline entry point consumed by the handler.
type PodcastService interface {
	Generate(ctx context.Context, req podcast.Request) (string, error)
}

type PodcastHandler struct {
	service   PodcastService
	uploadDir string
	logger    zerolog.Logger
}

func NewPodcastHandler(service PodcastService, uploadDir string, logger zerolog.Logger) *PodcastHandler {
	return &PodcastHandler{
		service:   service,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// Generate handles POST /generate-podcast. Validation failures return 400
// before any external call; pipeline failures return 500 after cleanup.
func (h *PodcastHandler) Generate(c *fiber.Ctx) error {
	apiKey := c.FormValue("apiKey")
	if err := validation.ValidateAPIKey(apiKey); err != nil {
		return err
	}

	manVoice := c.FormValue("manVoice")
	if err := validation.ValidateVoice("manVoice", manVoice); err != nil {
		return err
	}
	womanVoice := c.FormValue("womanVoice")
	if err := validation.ValidateVoice("womanVoice", womanVoice); err != nil {
		return err
	}

	videoURL := c.FormValue("youtubeUrl")
	if videoURL != "" {
		if err := validation.ValidateVideoURL(videoURL); err != nil {
			return err
		}
	}

	manOption, err := validation.ParseVideoOption("manVideoOption", c.FormValue("manVideoOption"))
	if err != nil {
		return err
	}
	womanOption, err := validation.ParseVideoOption("womanVideoOption", c.FormValue("womanVideoOption"))
	if err != nil {
		return err
	}

	// Uploads are request-scoped temporaries: deleted when the request
	// finishes regardless of how resolution or rendering went.
	uploads := podcast.NewJanitor(h.logger)
	defer uploads.Release()

	topicFilePath, err := h.saveUpload(c, "topicFile", uploads)
	if err != nil {
		return err
	}
	manVideoPath, err := h.saveUpload(c, "manVideoFile", uploads)
	if err != nil {
		return err
	}
	womanVideoPath, err := h.saveUpload(c, "womanVideoFile", uploads)
	if err != nil {
		return err
	}

	req := podcast.Request{
		APIKey:        apiKey,
		TopicText:     c.FormValue("topicText"),
		VideoURL:      videoURL,
		TopicFilePath: topicFilePath,
		LengthMinutes: validation.CoercePodcastLength(c.FormValue("podcastLength")),
		LanguageCode:  validation.NormalizeLanguageCode(c.FormValue("languageCode")),
		ManVoice:      manVoice,
		WomanVoice:    womanVoice,
		ManVideo: sources.Selection{
			Option:     manOption,
			LibraryKey: c.FormValue("manLibraryVideo"),
			UploadPath: manVideoPath,
		},
		WomanVideo: sources.Selection{
			Option:     womanOption,
			LibraryKey: c.FormValue("womanLibraryVideo"),
			UploadPath: womanVideoPath,
		},
	}

	name, err := h.service.Generate(c.Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"downloadUrl": "/downloads/" + name})
}

// saveUpload stores an optional multipart file under the upload dir with a
// fresh unique name and registers it for request-level cleanup. A missing
// part is not an error.
func (h *PodcastHandler) saveUpload(c *fiber.Ctx, field string, uploads *podcast.Janitor) (string, error) {
	const op = "PodcastHandler.saveUpload"

	file, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}

	path := filepath.Join(h.uploadDir, uuid.New().String()+sanitizeExt(file))
	uploads.Register(path)
	if err := c.SaveFile(file, path); err != nil {
		return "", apperrors.Resource(op, err, "Failed to store uploaded file")
	}

	return path, nil
}

func sanitizeExt(file *multipart.FileHeader) string {
	ext := filepath.Ext(file.Filename)
	if len(ext) > 10 {
		return ""
	}
	return ext
}

// HealthCheck reports service liveness.
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
