package service

import (
	"context"
	"sync"

	"carvest-backend/internal/model"
)

// fakeCompleter answers with canned content and records what it was sent.
type fakeCompleter struct {
	mu       sync.Mutex
	reply    string
	err      error
	chunks   []model.StreamChunk
	requests []model.CompletionRequest
	// block makes Stream wait for ctx after sending chunks.
	block bool
}

func (f *fakeCompleter) record(req model.CompletionRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
}

func (f *fakeCompleter) lastRequest() model.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeCompleter) Complete(ctx context.Context, req model.CompletionRequest) (string, error) {
	f.record(req)
	return f.reply, f.err
}

func (f *fakeCompleter) Stream(ctx context.Context, req model.CompletionRequest) (<-chan model.StreamChunk, error) {
	f.record(req)
	if f.err != nil {
		return nil, f.err
	}

	out := make(chan model.StreamChunk, len(f.chunks))
	go func() {
		defer close(out)
		for _, c := range f.chunks {
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
		if f.block {
			<-ctx.Done()
		}
	}()
	return out, nil
}
