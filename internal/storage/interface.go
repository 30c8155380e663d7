package storage

import (
	"context"

	"carvest-backend/internal/model"
)

// Storage holds chat sessions keyed by user id. Every method is atomic per
// key; callers never see a half-applied append.
type Storage interface {
	// CreateSession replaces any session stored under userID. A non-empty
	// systemMessage becomes the first message.
	CreateSession(ctx context.Context, userID, modelName, systemMessage string) (*model.Session, error)
	// GetSession returns ErrSessionNotFound when absent.
	GetSession(ctx context.Context, userID string) (*model.Session, error)
	// AppendMessage returns the updated session, or ErrSessionNotFound.
	AppendMessage(ctx context.Context, userID, role, content string) (*model.Session, error)
	// ClearSession reports whether a session existed and was removed.
	ClearSession(ctx context.Context, userID string) (bool, error)
	ListSessions(ctx context.Context) ([]*model.Session, error)

	Close() error
}
