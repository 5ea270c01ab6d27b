package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/megadodo/guide/internal/common"
	"github.com/megadodo/guide/internal/interfaces"
)

const moderationSystemPrompt = `You are a content safety classifier. Decide whether the given input is safe to use as the topic of a lighthearted, family-friendly encyclopedia entry. Flag sexual content, graphic violence, hate speech, self-harm, and other NSFW topics. Respond with exactly one word: SAFE or UNSAFE.`

// Moderator implements the ModerationService interface with a small
// classification completion. Moderation calls are not metered against
// the daily token cap.
type Moderator struct {
	client anthropic.Client
	model  string
	logger arbor.ILogger
}

// NewModerator creates a moderation service using the configured
// moderation model.
func NewModerator(config *common.ClaudeConfig, logger arbor.ILogger) (*Moderator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required for moderation")
	}

	model := config.ModerationModel
	if model == "" {
		model = "claude-3-5-haiku-20241022"
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	return &Moderator{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// IsSafe reports whether the input is safe. A classification the model
// does not answer cleanly is treated as unsafe.
func (m *Moderator) IsSafe(ctx context.Context, input string) (bool, error) {
	if strings.TrimSpace(input) == "" {
		return true, nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	resp, err := m.client.Messages.New(timeoutCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: 8,
		System: []anthropic.TextBlockParam{
			{Text: moderationSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(input)),
		},
	})
	if err != nil {
		return false, fmt.Errorf("moderation call failed: %w", err)
	}

	var verdict strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			verdict.WriteString(block.Text)
		}
	}

	safe := strings.EqualFold(strings.TrimSpace(verdict.String()), "SAFE")

	m.logger.Debug().
		Str("input", input).
		Bool("safe", safe).
		Msg("Moderation check completed")

	return safe, nil
}

// Ensure Moderator implements ModerationService
var _ interfaces.ModerationService = (*Moderator)(nil)
