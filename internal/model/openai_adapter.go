package model

import (
	"context"
	"io"
	"time"

	"carvest-backend/internal/config"
	"carvest-backend/internal/utils"
	"carvest-backend/pkg/logger"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyCompletion is returned when the upstream answers without choices.
var ErrEmptyCompletion = errors.New("no response from upstream model")

type openaiChatModel struct {
	client       *openai.Client
	model        string
	maxTokens    int
	temperature  float32
	timeout      time.Duration
	streamBuffer int
}

func newOpenAIChatModel(cfg config.UpstreamConfig) *openaiChatModel {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	// no client-wide timeout: it would cut long streams
	clientConfig.HTTPClient = utils.NewHTTPClient(0, cfg.DebugRequest)

	buffer := cfg.StreamBuffer
	if buffer <= 0 {
		buffer = 64
	}

	return &openaiChatModel{
		client:       openai.NewClientWithConfig(clientConfig),
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		timeout:      cfg.Timeout,
		streamBuffer: buffer,
	}
}

func (m *openaiChatModel) buildRequest(req CompletionRequest) openai.ChatCompletionRequest {
	modelName := req.Model
	if modelName == "" {
		modelName = m.model
	}
	temperature := m.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	out := openai.ChatCompletionRequest{
		Model:       modelName,
		Messages:    m.convertMessages(req.Messages),
		MaxTokens:   m.maxTokens,
		Temperature: temperature,
	}
	if req.Schema != nil {
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.Schema.Name,
				Description: req.Schema.Description,
				Schema:      &req.Schema.Schema,
				Strict:      true,
			},
		}
	}
	return out
}

func (m *openaiChatModel) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	oreq := m.buildRequest(req)
	logger.Debugf("upstream completion: model=%s messages=%d schema=%v", oreq.Model, len(oreq.Messages), req.Schema != nil)

	resp, err := m.client.CreateChatCompletion(ctx, oreq)
	if err != nil {
		return "", errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

// Stream relays upstream deltas through a bounded channel. Cancelling ctx
// aborts the upstream read.
func (m *openaiChatModel) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	oreq := m.buildRequest(req)
	oreq.Stream = true

	stream, err := m.client.CreateChatCompletionStream(ctx, oreq)
	if err != nil {
		return nil, errors.Wrap(err, "open completion stream")
	}

	out := make(chan StreamChunk, m.streamBuffer)

	go func() {
		defer close(out)
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					err = ctx.Err()
				}
				select {
				case out <- StreamChunk{Err: errors.Wrap(err, "receive completion chunk")}:
				case <-ctx.Done():
				}
				return
			}

			if len(response.Choices) == 0 || response.Choices[0].Delta.Content == "" {
				continue
			}

			select {
			case out <- StreamChunk{Content: response.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (m *openaiChatModel) convertMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		}

		// empty assistant turns are rejected by the API
		if msg.Content == "" && role == openai.ChatMessageRoleAssistant {
			continue
		}

		result = append(result, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return result
}
