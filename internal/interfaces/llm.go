package interfaces

import (
	"context"
	"errors"
)

// ErrRateLimited is returned by a text service when the upstream API
// reports a rate-limit failure (HTTP 429). Callers substitute the fixed
// limit-exceeded notice and leave the usage ledger untouched.
var ErrRateLimited = errors.New("upstream rate limit exceeded")

// Message represents a single role-tagged message in a conversation
type Message struct {
	Role    string `json:"role"` // "system" or "user"
	Content string `json:"content"`
}

// Completion is the result of a text completion call.
type Completion struct {
	Text        string
	TotalTokens int // actual tokens consumed, as reported by the provider
}

// TextService generates text completions.
type TextService interface {
	Complete(ctx context.Context, messages []Message) (*Completion, error)
}

// ImageService generates images from text prompts.
type ImageService interface {
	// Generate returns a base64-encoded PNG payload.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModerationService checks whether input text is flagged as unsafe.
type ModerationService interface {
	IsSafe(ctx context.Context, input string) (bool, error)
}
