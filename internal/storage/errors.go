package storage

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrInvalidStoreType  = errors.New("invalid store type")
	ErrInvalidConfig     = errors.New("invalid storage configuration")
	ErrConflict          = errors.New("session modified concurrently")
)
