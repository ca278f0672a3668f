package hn

import (
	"errors"
	"fmt"
)

// UpstreamError is a non-2xx response from the HN API. It is never retried.
type UpstreamError struct {
	Path       string
	StatusCode int
	Reason     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("hn: %s: upstream status %d %s", e.Path, e.StatusCode, e.Reason)
}

// NotFoundError marks an entity that an operation required but upstream
// reported as null.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("hn: %s %s not found", e.Kind, e.Key)
}

// MalformedResponseError is a body that is not valid JSON or does not have
// the expected shape.
type MalformedResponseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	msg := "hn: malformed response"
	if e.Path != "" {
		msg += " from " + e.Path
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func ItemNotFound(id int) error {
	return &NotFoundError{Kind: "item", Key: fmt.Sprint(id)}
}

func UserNotFound(username string) error {
	return &NotFoundError{Kind: "user", Key: username}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}
