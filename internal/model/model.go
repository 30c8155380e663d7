package model

import (
	"context"

	"carvest-backend/internal/config"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// ResponseSchema constrains the upstream answer to a JSON shape.
type ResponseSchema struct {
	Name        string
	Description string
	Schema      jsonschema.Definition
}

type CompletionRequest struct {
	// Model overrides the configured default when set.
	Model       string
	Messages    []ChatMessage
	Schema      *ResponseSchema
	Temperature *float32
}

// StreamChunk carries either a content delta or the error that ended the
// stream. The channel is closed after an error chunk or on exhaustion.
type StreamChunk struct {
	Content string
	Err     error
}

// ChatCompleter is the upstream chat-completion API.
type ChatCompleter interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)
}

// NewChatCompleter builds the completer for the configured upstream.
func NewChatCompleter(cfg config.UpstreamConfig) ChatCompleter {
	return newOpenAIChatModel(cfg)
}
