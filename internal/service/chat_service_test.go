package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"carvest-backend/internal/config"
	"carvest-backend/internal/model"
	"carvest-backend/internal/storage"
)

func newTestChatService(llm model.ChatCompleter) (*ChatService, *storage.MemoryStorage) {
	store := storage.NewMemoryStorage()
	return NewChatService(store, llm, "default-model", config.SessionConfig{TTL: time.Hour}), store
}

func drain(t *testing.T, events <-chan model.StreamEvent) []model.StreamEvent {
	t.Helper()
	var out []model.StreamEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("stream did not finish")
		}
	}
}

func TestSendMessageRecordsBothTurns(t *testing.T) {
	llm := &fakeCompleter{reply: "Hello there"}
	svc, _ := newTestChatService(llm)
	ctx := context.Background()

	resp, err := svc.SendMessage(ctx, model.ChatRequest{UserID: "u1", Message: "Hi", SystemMessage: "be nice"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Message != "Hello there" || resp.ConversationID != "u1" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	sent := llm.lastRequest()
	if sent.Model != "default-model" {
		t.Errorf("expected default model, got %q", sent.Model)
	}
	if len(sent.Messages) != 2 || sent.Messages[0].Role != model.RoleSystem || sent.Messages[1].Content != "Hi" {
		t.Errorf("unexpected upstream messages: %+v", sent.Messages)
	}

	session, err := svc.GetHistory(ctx, "u1")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	want := []string{model.RoleSystem, model.RoleUser, model.RoleAssistant}
	if len(session.Messages) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(session.Messages))
	}
	for i, role := range want {
		if session.Messages[i].Role != role {
			t.Errorf("message %d: expected %s, got %s", i, role, session.Messages[i].Role)
		}
	}
}

func TestSendMessageKeepsFirstModel(t *testing.T) {
	llm := &fakeCompleter{reply: "ok"}
	svc, _ := newTestChatService(llm)
	ctx := context.Background()

	svc.SendMessage(ctx, model.ChatRequest{UserID: "u1", Message: "a", Model: "first"})
	svc.SendMessage(ctx, model.ChatRequest{UserID: "u1", Message: "b", Model: "second"})

	if got := llm.lastRequest().Model; got != "first" {
		t.Fatalf("expected session model to stay %q, got %q", "first", got)
	}
	if got := len(llm.lastRequest().Messages); got != 3 {
		t.Fatalf("expected full history of 3 messages upstream, got %d", got)
	}
}

func TestSendMessageUpstreamFailureKeepsUserTurn(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("upstream down")}
	svc, _ := newTestChatService(llm)
	ctx := context.Background()

	if _, err := svc.SendMessage(ctx, model.ChatRequest{UserID: "u1", Message: "Hi"}); err == nil {
		t.Fatal("expected an error")
	}

	session, err := svc.GetHistory(ctx, "u1")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(session.Messages) != 1 || session.Messages[0].Role != model.RoleUser {
		t.Fatalf("expected only the user turn, got %+v", session.Messages)
	}
}

func TestStreamMessageConcatenatesChunks(t *testing.T) {
	llm := &fakeCompleter{chunks: []model.StreamChunk{{Content: "Hel"}, {Content: "lo"}, {Content: "!"}}}
	svc, _ := newTestChatService(llm)
	ctx := context.Background()

	events, err := svc.StreamMessage(ctx, model.ChatRequest{UserID: "u1", Message: "Hi"})
	if err != nil {
		t.Fatalf("StreamMessage: %v", err)
	}

	got := drain(t, events)
	if len(got) != 4 {
		t.Fatalf("expected 3 content events and done, got %+v", got)
	}
	if !got[3].Done {
		t.Errorf("expected final done event, got %+v", got[3])
	}

	session, _ := svc.GetHistory(ctx, "u1")
	last := session.Messages[len(session.Messages)-1]
	if last.Role != model.RoleAssistant || last.Content != "Hello!" {
		t.Fatalf("expected assembled reply, got %+v", last)
	}
}

func TestStreamMessagePersistsPartialReplyOnError(t *testing.T) {
	llm := &fakeCompleter{chunks: []model.StreamChunk{{Content: "Part"}, {Err: errors.New("connection reset")}}}
	svc, _ := newTestChatService(llm)
	ctx := context.Background()

	events, err := svc.StreamMessage(ctx, model.ChatRequest{UserID: "u1", Message: "Hi"})
	if err != nil {
		t.Fatalf("StreamMessage: %v", err)
	}

	got := drain(t, events)
	if len(got) != 2 || got[1].Error == "" {
		t.Fatalf("expected content then error, got %+v", got)
	}

	session, _ := svc.GetHistory(ctx, "u1")
	last := session.Messages[len(session.Messages)-1]
	if last.Role != model.RoleAssistant || last.Content != "Part" {
		t.Fatalf("expected partial reply to be saved, got %+v", last)
	}
}

func TestStreamMessageStopsWhenClientLeaves(t *testing.T) {
	llm := &fakeCompleter{chunks: []model.StreamChunk{{Content: "partial"}}, block: true}
	svc, store := newTestChatService(llm)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := svc.StreamMessage(ctx, model.ChatRequest{UserID: "u1", Message: "Hi"})
	if err != nil {
		t.Fatalf("StreamMessage: %v", err)
	}

	first := <-events
	if first.Content != "partial" {
		t.Fatalf("expected first chunk, got %+v", first)
	}
	cancel()
	drain(t, events)

	session, _ := store.GetSession(context.Background(), "u1")
	last := session.Messages[len(session.Messages)-1]
	if last.Role != model.RoleAssistant || last.Content != "partial" {
		t.Fatalf("expected partial reply after disconnect, got %+v", session.Messages)
	}
}

func TestClearHistory(t *testing.T) {
	svc, _ := newTestChatService(&fakeCompleter{reply: "ok"})
	ctx := context.Background()

	if err := svc.ClearHistory(ctx, "u1"); !errors.Is(err, storage.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	svc.SendMessage(ctx, model.ChatRequest{UserID: "u1", Message: "Hi"})
	if err := svc.ClearHistory(ctx, "u1"); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	if _, err := svc.GetHistory(ctx, "u1"); !errors.Is(err, storage.ErrSessionNotFound) {
		t.Fatalf("expected history to be gone, got %v", err)
	}
}

func TestCleanupOldSessions(t *testing.T) {
	svc, store := newTestChatService(&fakeCompleter{reply: "ok"})
	ctx := context.Background()

	svc.SendMessage(ctx, model.ChatRequest{UserID: "u1", Message: "Hi"})

	if n := svc.cleanupOldSessions(ctx, time.Now()); n != 0 {
		t.Fatalf("expected fresh session to survive, removed %d", n)
	}
	if n := svc.cleanupOldSessions(ctx, time.Now().Add(2*time.Hour)); n != 1 {
		t.Fatalf("expected idle session to be removed, removed %d", n)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}
