package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"carvest-backend/internal/model"
	"carvest-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DiskStorage keeps every session in memory and mirrors it to one JSON file
// per user under dataDir/sessions. Files are replaced atomically.
type DiskStorage struct {
	dataDir  string
	sessions map[string]*model.Session
	now      func() time.Time
	mu       sync.RWMutex
}

func NewDiskStorage(dataDir string, opts ...StoreOption) *DiskStorage {
	cfg := newStoreConfig(opts)
	return &DiskStorage{
		dataDir:  dataDir,
		sessions: make(map[string]*model.Session),
		now:      cfg.now,
	}
}

// Init creates the data directory and loads the sessions already on disk.
// Unreadable files are logged and skipped.
func (d *DiskStorage) Init() error {
	dir := filepath.Join(d.dataDir, "sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create session dir")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "read session dir")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			logger.Errorf("Failed to read session file %s: %v", e.Name(), err)
			continue
		}
		var session model.Session
		if err := json.Unmarshal(data, &session); err != nil {
			logger.Errorf("Failed to parse session file %s: %v", e.Name(), err)
			continue
		}
		d.sessions[session.UserID] = &session
	}

	logger.Infof("Disk storage loaded %d sessions from %s", len(d.sessions), d.dataDir)
	return nil
}

func (d *DiskStorage) sessionPath(userID string) string {
	name := base64.RawURLEncoding.EncodeToString([]byte(userID))
	return filepath.Join(d.dataDir, "sessions", name+".json")
}

func (d *DiskStorage) writeLocked(session *model.Session) error {
	path := d.sessionPath(session.UserID)
	tempPath := path + ".tmp"

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal session")
	}
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return errors.Wrap(err, "write session file")
	}
	return errors.Wrap(os.Rename(tempPath, path), "replace session file")
}

func (d *DiskStorage) CreateSession(ctx context.Context, userID, modelName, systemMessage string) (*model.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	session := newSession(userID, modelName, systemMessage, d.now())
	if err := d.writeLocked(session); err != nil {
		return nil, err
	}
	d.sessions[userID] = session
	return session.Clone(), nil
}

func (d *DiskStorage) GetSession(ctx context.Context, userID string) (*model.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	session, exists := d.sessions[userID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (d *DiskStorage) AppendMessage(ctx context.Context, userID, role, content string) (*model.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, exists := d.sessions[userID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	now := d.now()
	next := current.Clone()
	next.Messages = append(next.Messages, model.Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	next.UpdatedAt = now

	// memory only moves forward once the file is written
	if err := d.writeLocked(next); err != nil {
		return nil, err
	}
	d.sessions[userID] = next
	return next.Clone(), nil
}

func (d *DiskStorage) ClearSession(ctx context.Context, userID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.sessions[userID]; !exists {
		return false, nil
	}
	if err := os.Remove(d.sessionPath(userID)); err != nil && !os.IsNotExist(err) {
		return false, errors.Wrap(err, "remove session file")
	}
	delete(d.sessions, userID)
	return true, nil
}

func (d *DiskStorage) ListSessions(ctx context.Context) ([]*model.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sessions := make([]*model.Session, 0, len(d.sessions))
	for _, session := range d.sessions {
		sessions = append(sessions, session.Clone())
	}
	return sessions, nil
}

func (d *DiskStorage) Close() error {
	return nil
}
