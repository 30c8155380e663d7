package storage

import (
	"context"
	"encoding/json"
	"time"

	"carvest-backend/internal/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const maxWatchRetries = 5

// RedisStorage stores each session as one JSON value. Appends run inside
// WATCH/MULTI so concurrent writers to the same key never lose a message.
type RedisStorage struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	now       func() time.Time
}

func NewRedisStorage(opts ...StoreOption) (*RedisStorage, error) {
	cfg := newStoreConfig(opts)
	if cfg.redisClient == nil {
		return nil, ErrInvalidConfig
	}
	return &RedisStorage{
		client:    cfg.redisClient,
		ttl:       cfg.redisTTL,
		keyPrefix: cfg.keyPrefix,
		now:       cfg.now,
	}, nil
}

func (s *RedisStorage) key(userID string) string {
	return s.keyPrefix + userID
}

func (s *RedisStorage) CreateSession(ctx context.Context, userID, modelName, systemMessage string) (*model.Session, error) {
	session := newSession(userID, modelName, systemMessage, s.now())

	val, err := json.Marshal(session)
	if err != nil {
		return nil, errors.Wrap(err, "marshal session")
	}
	if err := s.client.Set(ctx, s.key(userID), val, s.ttl).Err(); err != nil {
		return nil, errors.Wrap(err, "redis set")
	}
	return session, nil
}

func (s *RedisStorage) GetSession(ctx context.Context, userID string) (*model.Session, error) {
	val, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}

	var session model.Session
	if err := json.Unmarshal(val, &session); err != nil {
		return nil, errors.Wrap(err, "unmarshal session")
	}
	return &session, nil
}

func (s *RedisStorage) AppendMessage(ctx context.Context, userID, role, content string) (*model.Session, error) {
	key := s.key(userID)
	var updated model.Session

	txf := func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		var session model.Session
		if err := json.Unmarshal(val, &session); err != nil {
			return errors.Wrap(err, "unmarshal session")
		}

		now := s.now()
		session.Messages = append(session.Messages, model.Message{
			ID:        uuid.New().String(),
			Role:      role,
			Content:   content,
			Timestamp: now,
		})
		session.UpdatedAt = now

		newVal, err := json.Marshal(&session)
		if err != nil {
			return errors.Wrap(err, "marshal session")
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, s.ttl)
			return nil
		})
		if err == nil {
			updated = session
		}
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, ErrConflict
}

func (s *RedisStorage) ClearSession(ctx context.Context, userID string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(userID)).Result()
	if err != nil {
		return false, errors.Wrap(err, "redis del")
	}
	return n > 0, nil
}

func (s *RedisStorage) ListSessions(ctx context.Context) ([]*model.Session, error) {
	var sessions []*model.Session

	iter := s.client.Scan(ctx, 0, s.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		userID := iter.Val()[len(s.keyPrefix):]
		session, err := s.GetSession(ctx, userID)
		if errors.Is(err, ErrSessionNotFound) {
			// expired between SCAN and GET
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "redis scan")
	}
	return sessions, nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
