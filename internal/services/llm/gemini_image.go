package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/megadodo/guide/internal/common"
	"github.com/megadodo/guide/internal/interfaces"
)

// GeminiImageService implements the ImageService interface using the
// Google genai SDK against the Gemini API backend.
type GeminiImageService struct {
	config *common.GeminiConfig
	logger arbor.ILogger
	client *genai.Client
	model  string
}

// NewGeminiImageService creates a new image generation service.
func NewGeminiImageService(ctx context.Context, config *common.GeminiConfig, logger arbor.ILogger) (*GeminiImageService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY, GUIDE_GEMINI_API_KEY, or gemini.api_key in config)")
	}

	model := config.ImageModel
	if model == "" {
		model = "imagen-3.0-generate-002"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	logger.Debug().
		Str("image_model", model).
		Msg("Gemini image service initialized")

	return &GeminiImageService{
		config: config,
		logger: logger,
		client: client,
		model:  model,
	}, nil
}

// Generate produces one image for the prompt and returns it as a
// base64-encoded payload. The caller bounds the call through ctx; past
// that bound the request is abandoned.
func (s *GeminiImageService) Generate(ctx context.Context, prompt string) (string, error) {
	startTime := time.Now()

	resp, err := s.client.Models.GenerateImages(ctx, s.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}

	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return "", fmt.Errorf("image generation returned no images")
	}

	payload := base64.StdEncoding.EncodeToString(resp.GeneratedImages[0].Image.ImageBytes)

	s.logger.Debug().
		Int("payload_bytes", len(payload)).
		Dur("duration", time.Since(startTime)).
		Msg("Image generation completed")

	return payload, nil
}

// Ensure GeminiImageService implements ImageService
var _ interfaces.ImageService = (*GeminiImageService)(nil)
