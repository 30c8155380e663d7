package storage

import (
	"context"
	"sync"
	"time"

	"carvest-backend/internal/model"

	"github.com/google/uuid"
)

// MemoryStorage keeps sessions in process memory. When maxSessions is
// positive, creating a session past the limit evicts the least recently
// updated one.
type MemoryStorage struct {
	sessions    map[string]*model.Session
	maxSessions int
	now         func() time.Time
	mu          sync.RWMutex
}

func NewMemoryStorage(opts ...StoreOption) *MemoryStorage {
	cfg := newStoreConfig(opts)
	return &MemoryStorage{
		sessions:    make(map[string]*model.Session),
		maxSessions: cfg.maxSessions,
		now:         cfg.now,
	}
}

func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions = make(map[string]*model.Session)
	return nil
}

func (m *MemoryStorage) CreateSession(ctx context.Context, userID, modelName, systemMessage string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[userID]; !exists && m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.evictOldestLocked()
	}

	session := newSession(userID, modelName, systemMessage, m.now())
	m.sessions[userID] = session
	return session.Clone(), nil
}

func (m *MemoryStorage) GetSession(ctx context.Context, userID string) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[userID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (m *MemoryStorage) AppendMessage(ctx context.Context, userID, role, content string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[userID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	now := m.now()
	session.Messages = append(session.Messages, model.Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	session.UpdatedAt = now
	return session.Clone(), nil
}

func (m *MemoryStorage) ClearSession(ctx context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[userID]; !exists {
		return false, nil
	}
	delete(m.sessions, userID)
	return true, nil
}

func (m *MemoryStorage) ListSessions(ctx context.Context) ([]*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*model.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session.Clone())
	}
	return sessions, nil
}

// Len reports the number of live sessions.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStorage) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, s := range m.sessions {
		if oldestID == "" || s.UpdatedAt.Before(oldest) {
			oldestID, oldest = id, s.UpdatedAt
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
	}
}

func newSession(userID, modelName, systemMessage string, now time.Time) *model.Session {
	session := &model.Session{
		UserID:    userID,
		Model:     modelName,
		Messages:  make([]model.Message, 0, 4),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if systemMessage != "" {
		session.Messages = append(session.Messages, model.Message{
			ID:        uuid.New().String(),
			Role:      model.RoleSystem,
			Content:   systemMessage,
			Timestamp: now,
		})
	}
	return session
}
