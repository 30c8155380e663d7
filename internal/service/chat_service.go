package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"carvest-backend/internal/config"
	"carvest-backend/internal/model"
	"carvest-backend/internal/storage"
	"carvest-backend/pkg/logger"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// persistTimeout bounds the final session write of a stream whose request
// context is already gone.
const persistTimeout = 5 * time.Second

type ChatService struct {
	storage      storage.Storage
	llm          model.ChatCompleter
	defaultModel string
	config       config.SessionConfig

	// createMu makes get-or-create of a session atomic.
	createMu sync.Mutex
}

func NewChatService(store storage.Storage, llm model.ChatCompleter, defaultModel string, sessionCfg config.SessionConfig) *ChatService {
	return &ChatService{
		storage:      store,
		llm:          llm,
		defaultModel: defaultModel,
		config:       sessionCfg,
	}
}

// ensureSession returns the user's session, creating it when absent.
func (s *ChatService) ensureSession(ctx context.Context, req model.ChatRequest) error {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	_, err := s.storage.GetSession(ctx, req.UserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrSessionNotFound) {
		return errors.Wrap(err, "get session")
	}

	modelName := req.Model
	if modelName == "" {
		modelName = s.defaultModel
	}
	if _, err := s.storage.CreateSession(ctx, req.UserID, modelName, req.SystemMessage); err != nil {
		return errors.Wrap(err, "create session")
	}
	logger.Infof("created chat session for user %s (model %s)", req.UserID, modelName)
	return nil
}

// prepare records the user message and returns the upstream request for the
// whole conversation.
func (s *ChatService) prepare(ctx context.Context, req model.ChatRequest) (model.CompletionRequest, error) {
	if err := s.ensureSession(ctx, req); err != nil {
		return model.CompletionRequest{}, err
	}

	session, err := s.storage.AppendMessage(ctx, req.UserID, model.RoleUser, req.Message)
	if err != nil {
		return model.CompletionRequest{}, errors.Wrap(err, "append user message")
	}

	return model.CompletionRequest{
		Model:    session.Model,
		Messages: model.ToAPIMessages(session),
	}, nil
}

// SendMessage runs one single-shot exchange.
func (s *ChatService) SendMessage(ctx context.Context, req model.ChatRequest) (*model.ChatResponse, error) {
	creq, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	content, err := s.llm.Complete(ctx, creq)
	if err != nil {
		return nil, errors.Wrap(err, "upstream completion")
	}

	if _, err := s.storage.AppendMessage(ctx, req.UserID, model.RoleAssistant, content); err != nil {
		return nil, errors.Wrap(err, "append assistant message")
	}

	return &model.ChatResponse{
		Message:        content,
		ConversationID: req.UserID,
	}, nil
}

// StreamMessage starts a streamed exchange. Each upstream delta is emitted as
// a content event as soon as it arrives; the stream ends with a done event
// or an error event. Cancelling ctx aborts the upstream read.
func (s *ChatService) StreamMessage(ctx context.Context, req model.ChatRequest) (<-chan model.StreamEvent, error) {
	creq, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	chunks, err := s.llm.Stream(ctx, creq)
	if err != nil {
		return nil, errors.Wrap(err, "open upstream stream")
	}

	events := make(chan model.StreamEvent)

	go func() {
		defer close(events)

		send := func(ev model.StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var full strings.Builder
		for chunk := range chunks {
			if chunk.Err != nil {
				logger.WithFields(logrus.Fields{"user_id": req.UserID, "received": full.Len()}).
					Errorf("stream aborted: %v", chunk.Err)
				s.persistPartial(ctx, req.UserID, full.String())
				send(model.StreamEvent{Error: chunk.Err.Error()})
				return
			}

			full.WriteString(chunk.Content)
			if !send(model.StreamEvent{Content: chunk.Content}) {
				s.persistPartial(ctx, req.UserID, full.String())
				return
			}
		}

		if ctx.Err() != nil {
			logger.Warnf("client for user %s went away mid-stream", req.UserID)
			s.persistPartial(ctx, req.UserID, full.String())
			return
		}

		if _, err := s.storage.AppendMessage(ctx, req.UserID, model.RoleAssistant, full.String()); err != nil {
			logger.Errorf("failed to save streamed reply for user %s: %v", req.UserID, err)
			send(model.StreamEvent{Error: err.Error()})
			return
		}
		send(model.StreamEvent{Done: true})
	}()

	return events, nil
}

// persistPartial keeps a non-empty partial reply as the assistant answer.
func (s *ChatService) persistPartial(ctx context.Context, userID, content string) {
	if content == "" {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if _, err := s.storage.AppendMessage(saveCtx, userID, model.RoleAssistant, content); err != nil {
		logger.Errorf("failed to save partial reply for user %s: %v", userID, err)
	}
}

func (s *ChatService) GetHistory(ctx context.Context, userID string) (*model.Session, error) {
	session, err := s.storage.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ClearHistory returns storage.ErrSessionNotFound when there was nothing to
// clear.
func (s *ChatService) ClearHistory(ctx context.Context, userID string) error {
	removed, err := s.storage.ClearSession(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "clear session")
	}
	if !removed {
		return storage.ErrSessionNotFound
	}
	return nil
}

// RunCleanup drops sessions idle for longer than the configured TTL until
// ctx is done. It returns immediately when TTL or interval is zero.
func (s *ChatService) RunCleanup(ctx context.Context) {
	if s.config.TTL <= 0 || s.config.CleanupInterval <= 0 {
		return
	}

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupOldSessions(ctx, time.Now())
		}
	}
}

func (s *ChatService) cleanupOldSessions(ctx context.Context, now time.Time) int {
	sessions, err := s.storage.ListSessions(ctx)
	if err != nil {
		logger.Errorf("Failed to list sessions for cleanup: %v", err)
		return 0
	}

	removed := 0
	cutoff := now.Add(-s.config.TTL)
	for _, session := range sessions {
		if !session.UpdatedAt.Before(cutoff) {
			continue
		}
		if _, err := s.storage.ClearSession(ctx, session.UserID); err != nil {
			logger.Errorf("Failed to delete expired session %s: %v", session.UserID, err)
			continue
		}
		removed++
		logger.Infof("Cleaned up expired session: %s", session.UserID)
	}
	return removed
}
