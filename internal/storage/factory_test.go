package storage

import (
	"context"
	"errors"
	"testing"

	"carvest-backend/internal/config"
)

func TestNewSelectsStore(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Type = StoreTypeMemory
	cfg.Session.MaxSessions = 3

	store, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mem, ok := store.(*MemoryStorage)
	if !ok {
		t.Fatalf("expected *MemoryStorage, got %T", store)
	}
	if mem.maxSessions != 3 {
		t.Errorf("expected maxSessions 3, got %d", mem.maxSessions)
	}

	cfg.Storage.Type = StoreTypeDisk
	cfg.Storage.Disk.DataDir = t.TempDir()
	store, err = New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New disk: %v", err)
	}
	if _, ok := store.(*DiskStorage); !ok {
		t.Fatalf("expected *DiskStorage, got %T", store)
	}

	cfg.Storage.Type = "cassandra"
	if _, err := New(context.Background(), cfg); !errors.Is(err, ErrInvalidStoreType) {
		t.Fatalf("expected ErrInvalidStoreType, got %v", err)
	}
}
