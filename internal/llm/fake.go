package llm

import (
	"context"
	"sync"
)

// FakeClient answers from a Responder and records every request. With no
// Responder it returns a fixed text.
type FakeClient struct {
	Responder func(Request) (string, error)

	mu    sync.Mutex
	calls []Request
}

func NewFakeClient(responder func(Request) (string, error)) *FakeClient {
	return &FakeClient{Responder: responder}
}

func (f *FakeClient) Name() string { return "fake" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.Responder == nil {
		return "fake response", nil
	}
	return f.Responder(req)
}

func (f *FakeClient) Calls() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.calls...)
}
