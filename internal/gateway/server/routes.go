package server

import (
	"net/http"

	"connectrpc.com/connect"

	"hnreader/internal/gateway/handler"
	"hnreader/internal/gateway/handler/rpc"
	"hnreader/internal/gateway/middleware"
)

func NewMux(
	rpcHandler *rpc.Handler,
	updatesHandler *handler.UpdatesHandler,
	health http.HandlerFunc,
	corsOrigins []string,
	opts ...connect.HandlerOption,
) http.Handler {
	mux := http.NewServeMux()

	// RPC Handlers
	rpcHandler.Mount(mux, opts...)

	// Live updates and probes
	mux.Handle("/ws/updates", updatesHandler)
	mux.HandleFunc("/healthz", health)

	// Middleware
	return middleware.CORS(corsOrigins)(mux)
}
