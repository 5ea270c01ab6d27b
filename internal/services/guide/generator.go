package guide

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/megadodo/guide/internal/common"
	"github.com/megadodo/guide/internal/interfaces"
	"github.com/megadodo/guide/internal/services/ledger"
)

// Generator orchestrates the external text and image calls behind a
// document. Every completion is gated by the usage ledger before the
// call and recorded with actual token consumption after a successful
// one. Image failures never fail the overall operation; text failures
// always do.
type Generator struct {
	text         interfaces.TextService
	image        interfaces.ImageService
	ledger       *ledger.Service
	clock        common.Clock
	imageTimeout time.Duration
	logger       arbor.ILogger
}

// NewGenerator creates a generation pipeline. image may be nil, in
// which case all documents are text-only.
func NewGenerator(text interfaces.TextService, image interfaces.ImageService, ledgerSvc *ledger.Service, clock common.Clock, imageTimeout time.Duration, logger arbor.ILogger) *Generator {
	return &Generator{
		text:         text,
		image:        image,
		ledger:       ledgerSvc,
		clock:        clock,
		imageTimeout: imageTimeout,
		logger:       logger,
	}
}

// completion runs one ledger-gated text completion. A spent daily
// budget or an upstream 429 yields the fixed limit-exceeded notice in
// place of generated output; the ledger is only updated after a
// successful call, with the tokens the provider actually reported.
func (g *Generator) completion(ctx context.Context, system, user string) (string, error) {
	today := common.DateKey(g.clock.Now())

	exceeded, err := g.ledger.ExceededTokenLimit(ctx, today)
	if err != nil {
		return "", err
	}
	if exceeded {
		return LimitExceededMessage, nil
	}

	resp, err := g.text.Complete(ctx, []interfaces.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	})
	if errors.Is(err, interfaces.ErrRateLimited) {
		g.logger.Warn().Str("date", today).Msg("Upstream rate limit hit, substituting notice")
		return LimitExceededMessage, nil
	}
	if err != nil {
		return "", err
	}

	if resp.TotalTokens > 0 {
		if err := g.ledger.RecordUsage(ctx, today, resp.TotalTokens, 0); err != nil {
			return "", err
		}
	}

	return resp.Text, nil
}

// ArticleBody generates the markdown body of a Guide entry.
func (g *Generator) ArticleBody(ctx context.Context, topic string) (string, error) {
	return g.completion(ctx, articleSystemPrompt, fmt.Sprintf(articleUserPrompt, topic))
}

// SearchBody generates a fixed-format markdown list of search results.
func (g *Generator) SearchBody(ctx context.Context, query string) (string, error) {
	return g.completion(ctx, searchSystemPrompt, fmt.Sprintf(searchUserPrompt, query))
}

// ArticleImage produces a base64 image payload for the topic, or ""
// when no image can be generated: daily image cap reached, no image
// service configured, timeout, or any API failure. Errors are
// contained here so the article request proceeds without an image.
func (g *Generator) ArticleImage(ctx context.Context, topic, body string) string {
	if g.image == nil {
		return ""
	}

	today := common.DateKey(g.clock.Now())

	exceeded, err := g.ledger.ExceededImageLimit(ctx, today)
	if err != nil {
		g.logger.Warn().Err(err).Msg("Image limit check failed, skipping image generation")
		return ""
	}
	if exceeded {
		g.logger.Debug().Str("date", today).Msg("Image limit exceeded, skipping image generation")
		return ""
	}

	prompt, err := g.completion(ctx, imagePromptSystem, fmt.Sprintf(imagePromptUser, topic))
	if err != nil || prompt == "" {
		prompt = fmt.Sprintf(imagePromptFallback, topic)
	}

	imageCtx, cancel := context.WithTimeout(ctx, g.imageTimeout)
	defer cancel()

	payload, err := g.image.Generate(imageCtx, prompt)
	if err != nil {
		g.logger.Warn().Err(err).Str("topic", topic).Msg("Image generation failed, continuing without image")
		return ""
	}

	if err := g.ledger.RecordUsage(ctx, today, 0, 1); err != nil {
		g.logger.Warn().Err(err).Msg("Failed to record image usage")
	}

	return payload
}
