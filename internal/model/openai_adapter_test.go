package model

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"carvest-backend/internal/config"

	"github.com/sashabaranov/go-openai/jsonschema"
)

func newStubServer(t *testing.T, handler http.HandlerFunc) *openaiChatModel {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return newOpenAIChatModel(config.UpstreamConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	})
}

func TestCompleteSendsSchemaAndReturnsContent(t *testing.T) {
	var body map[string]any
	m := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","model":"test-model",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"summary\":\"ok\"}"},"finish_reason":"stop"}]}`)
	})

	schema := &ResponseSchema{
		Name:   "risk_analysis",
		Schema: jsonschema.Definition{Type: jsonschema.Object, Properties: map[string]jsonschema.Definition{"summary": {Type: jsonschema.String}}},
	}
	got, err := m.Complete(context.Background(), CompletionRequest{
		Messages: []ChatMessage{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "hi"}},
		Schema:   schema,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != `{"summary":"ok"}` {
		t.Fatalf("unexpected content %q", got)
	}

	if body["model"] != "test-model" {
		t.Errorf("expected default model, got %v", body["model"])
	}
	format, _ := body["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("expected json_schema response format, got %v", body["response_format"])
	}
	js, _ := format["json_schema"].(map[string]any)
	if js["name"] != "risk_analysis" || js["strict"] != true {
		t.Errorf("unexpected json_schema block %v", js)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	m := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","choices":[]}`)
	})

	if _, err := m.Complete(context.Background(), CompletionRequest{}); err != ErrEmptyCompletion {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestCompleteUpstreamError(t *testing.T) {
	m := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	})

	if _, err := m.Complete(context.Background(), CompletionRequest{}); err == nil {
		t.Fatal("expected an error")
	}
}

func TestStreamRelaysDeltas(t *testing.T) {
	m := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Hel", "", "lo"} {
			fmt.Fprintf(w, "data: {\"id\":\"s1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	chunks, err := m.Stream(context.Background(), CompletionRequest{Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var sb strings.Builder
	n := 0
	for c := range chunks {
		if c.Err != nil {
			t.Fatalf("unexpected stream error: %v", c.Err)
		}
		sb.WriteString(c.Content)
		n++
	}
	if sb.String() != "Hello" || n != 2 {
		t.Fatalf("expected two non-empty deltas forming Hello, got %q in %d chunks", sb.String(), n)
	}
}

func TestConvertMessagesSkipsEmptyAssistantTurns(t *testing.T) {
	m := &openaiChatModel{}
	out := m.convertMessages([]ChatMessage{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: ""},
		{Role: RoleUser, Content: "again"},
	})
	if len(out) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(out))
	}
	if out[0].Role != "system" || out[2].Content != "again" {
		t.Fatalf("unexpected conversion %+v", out)
	}
}

func TestBuildRequestOverrides(t *testing.T) {
	m := &openaiChatModel{model: "default", temperature: 0.7, maxTokens: 100}
	temp := float32(0.2)

	req := m.buildRequest(CompletionRequest{Model: "custom", Temperature: &temp})
	if req.Model != "custom" || req.Temperature != temp || req.MaxTokens != 100 {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.ResponseFormat != nil {
		t.Fatal("expected no response format without a schema")
	}
}
