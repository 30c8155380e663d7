package storage

import (
	"context"
	"sync"
	"time"

	"carvest-backend/internal/model"
)

// PortfolioStorage owns per-user portfolios and their insight maps.
type PortfolioStorage interface {
	// GetOrCreate returns the user's portfolio, building it with newFn on
	// first access.
	GetOrCreate(ctx context.Context, userID string, newFn func(userID string) *model.Portfolio) (*model.Portfolio, error)
	// Get returns ErrPortfolioNotFound when the user has none.
	Get(ctx context.Context, userID string) (*model.Portfolio, error)
	// SaveInsight overwrites the insight stored for analysisType.
	SaveInsight(ctx context.Context, userID, analysisType string, insight model.Insight) error
}

type MemoryPortfolioStorage struct {
	portfolios map[string]*model.Portfolio
	mu         sync.RWMutex
}

func NewMemoryPortfolioStorage() *MemoryPortfolioStorage {
	return &MemoryPortfolioStorage{
		portfolios: make(map[string]*model.Portfolio),
	}
}

func (m *MemoryPortfolioStorage) GetOrCreate(ctx context.Context, userID string, newFn func(userID string) *model.Portfolio) (*model.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, exists := m.portfolios[userID]
	if !exists {
		p = newFn(userID)
		if p.MarketInsights == nil {
			p.MarketInsights = make(map[string]model.Insight)
		}
		m.portfolios[userID] = p
	}
	return p.Clone(), nil
}

func (m *MemoryPortfolioStorage) Get(ctx context.Context, userID string) (*model.Portfolio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, exists := m.portfolios[userID]
	if !exists {
		return nil, ErrPortfolioNotFound
	}
	return p.Clone(), nil
}

func (m *MemoryPortfolioStorage) SaveInsight(ctx context.Context, userID, analysisType string, insight model.Insight) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, exists := m.portfolios[userID]
	if !exists {
		return ErrPortfolioNotFound
	}
	p.MarketInsights[analysisType] = insight
	p.UpdatedAt = time.Now()
	return nil
}
