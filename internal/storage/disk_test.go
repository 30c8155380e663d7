package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"carvest-backend/internal/model"
)

func TestDiskStorageSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := NewDiskStorage(dir)
	if err := store.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := store.CreateSession(ctx, "user/with/slashes", "m", "sys"); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := store.AppendMessage(ctx, "user/with/slashes", model.RoleUser, "hello"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	reopened := NewDiskStorage(dir)
	if err := reopened.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	session, err := reopened.GetSession(ctx, "user/with/slashes")
	if err != nil {
		t.Fatalf("GetSession after restart: %v", err)
	}
	if len(session.Messages) != 2 || session.Messages[1].Content != "hello" {
		t.Fatalf("unexpected messages after restart: %+v", session.Messages)
	}

	if removed, err := reopened.ClearSession(ctx, "user/with/slashes"); err != nil || !removed {
		t.Fatalf("ClearSession: %v %v", removed, err)
	}
	if _, err := os.Stat(reopened.sessionPath("user/with/slashes")); !os.IsNotExist(err) {
		t.Fatalf("expected session file to be removed, got %v", err)
	}
}

func TestDiskStorageSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStorage(dir)
	if err := store.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := os.WriteFile(store.sessionPath("broken"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	reopened := NewDiskStorage(dir)
	if err := reopened.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := reopened.GetSession(context.Background(), "broken"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected corrupt session to be skipped, got %v", err)
	}
}
