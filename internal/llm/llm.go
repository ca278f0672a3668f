// Package llm wraps text-generation backends behind a small Client
// interface, with middleware for rate limiting, retries and logging.
package llm

import (
	"context"
	"errors"
	"fmt"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Message struct {
	Role Role
	Text string
}

// Request is one generation call. Messages run oldest first; the last one
// is normally the user's turn.
type Request struct {
	System   string
	Messages []Message
	// JSON asks the backend for an application/json response.
	JSON bool
}

// Prompt builds a single-turn request.
func Prompt(system, text string) Request {
	return Request{System: system, Messages: []Message{{Role: RoleUser, Text: text}}}
}

type Client interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
	Close() error
}

var (
	ErrEmptyResponse = errors.New("llm: empty response from model")
	ErrNotConfigured = errors.New("llm: no model configured")
)

// PermanentError marks failures that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return fmt.Sprintf("llm: permanent: %v", e.Err) }
func (e *PermanentError) Unwrap() error { return e.Err }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}
