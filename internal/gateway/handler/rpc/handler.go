// Package rpc exposes the reader over connect unary procedures carrying
// JSON-encoded Go structs.
package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/go-playground/validator"

	"hnreader/internal/assist"
	"hnreader/internal/feed"
	"hnreader/internal/gateway/service/preferences"
	"hnreader/internal/thread"
)

const (
	FeedServiceName       = "hnreader.v1.FeedService"
	ThreadServiceName     = "hnreader.v1.ThreadService"
	PreferenceServiceName = "hnreader.v1.PreferenceService"
	AssistServiceName     = "hnreader.v1.AssistService"
)

// Procedure builds the route of one method, e.g. "/hnreader.v1.FeedService/GetItem".
func Procedure(service, method string) string {
	return "/" + service + "/" + method
}

var validate = validator.New()

type Handler struct {
	feed    *feed.Service
	threads *thread.Registry
	prefs   *preferences.Service
	assist  *assist.Service
}

func New(feedSvc *feed.Service, threads *thread.Registry, prefs *preferences.Service, assistSvc *assist.Service) *Handler {
	return &Handler{feed: feedSvc, threads: threads, prefs: prefs, assist: assistSvc}
}

// Mount registers every procedure on mux.
func (h *Handler) Mount(mux *http.ServeMux, opts ...connect.HandlerOption) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
	h.mountFeed(mux, opts)
	h.mountThread(mux, opts)
	h.mountPreferences(mux, opts)
	h.mountAssist(mux, opts)
}

// unary adapts a plain service call into a validated connect handler.
func unary[Req, Res any](mux *http.ServeMux, procedure string, fn func(context.Context, *Req) (*Res, error), opts []connect.HandlerOption) {
	mux.Handle(procedure, connect.NewUnaryHandler(
		procedure,
		func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			if err := validate.Struct(req.Msg); err != nil {
				return nil, connect.NewError(connect.CodeInvalidArgument, err)
			}
			res, err := fn(ctx, req.Msg)
			if err != nil {
				return nil, toConnectError(err)
			}
			return connect.NewResponse(res), nil
		},
		opts...,
	))
}
