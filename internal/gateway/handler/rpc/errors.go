package rpc

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"
	"github.com/go-playground/validator"

	"hnreader/internal/assist"
	prefrepo "hnreader/internal/gateway/repository/preferences"
	"hnreader/internal/gateway/service/preferences"
	"hnreader/internal/hn"
	"hnreader/internal/llm"
	"hnreader/internal/thread"
)

// toConnectError maps domain failures onto connect codes. Errors that are
// already connect errors pass through.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return err
	}
	return connect.NewError(codeOf(err), err)
}

func codeOf(err error) connect.Code {
	var (
		validation validator.ValidationErrors
		malformed  *hn.MalformedResponseError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.As(err, &validation):
		return connect.CodeInvalidArgument
	case hn.IsNotFound(err),
		errors.Is(err, thread.ErrSessionNotFound),
		errors.Is(err, prefrepo.ErrListNotFound):
		return connect.CodeNotFound
	case hn.IsUpstream(err):
		return connect.CodeUnavailable
	case errors.As(err, &malformed):
		// Upstream bodies carry an API path; anything else is the caller's input.
		if strings.HasPrefix(malformed.Path, "/") {
			return connect.CodeDataLoss
		}
		return connect.CodeInvalidArgument
	case errors.Is(err, preferences.ErrOwnerRequired),
		errors.Is(err, preferences.ErrNameRequired),
		errors.Is(err, preferences.ErrInvalidStory),
		errors.Is(err, prefrepo.ErrInvalidSet),
		errors.Is(err, assist.ErrBlankQuestion),
		errors.Is(err, errInvalidCategory):
		return connect.CodeInvalidArgument
	case errors.Is(err, llm.ErrNotConfigured),
		errors.Is(err, thread.ErrNotStarted),
		errors.Is(err, thread.ErrClosed):
		return connect.CodeFailedPrecondition
	}
	return connect.CodeInternal
}
