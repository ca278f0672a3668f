package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"hnreader/internal/hn"
)

func (h *Handler) mountThread(mux *http.ServeMux, opts []connect.HandlerOption) {
	p := func(m string) string { return Procedure(ThreadServiceName, m) }
	unary(mux, p("Open"), h.openThread, opts)
	unary(mux, p("NextPage"), h.nextPage, opts)
	unary(mux, p("LoadReplies"), h.loadReplies, opts)
	unary(mux, p("ToggleReplies"), h.toggleReplies, opts)
	unary(mux, p("Close"), h.closeThread, opts)
}

func (h *Handler) openThread(ctx context.Context, req *OpenThreadRequest) (*OpenThreadResponse, error) {
	s, first, err := h.threads.Open(ctx, req.StoryID, req.PageSize)
	if err != nil {
		return nil, err
	}
	return &OpenThreadResponse{
		SessionID:     s.ID(),
		Story:         first.Story,
		Comments:      nonNil(first.Comments),
		TotalComments: first.TotalComments,
		HasMore:       first.HasMore,
	}, nil
}

func (h *Handler) nextPage(ctx context.Context, req *SessionRequest) (*PageResponse, error) {
	s, err := h.threads.Get(req.SessionID)
	if err != nil {
		return nil, err
	}
	page, err := s.LoadNextPage(ctx)
	if err != nil {
		return nil, err
	}
	return &PageResponse{
		Comments:    nonNil(page.Comments),
		HasMore:     page.HasMore,
		LoadedPages: s.State().LoadedPages,
	}, nil
}

func (h *Handler) loadReplies(ctx context.Context, req *CommentRequest) (*RepliesResponse, error) {
	s, err := h.threads.Get(req.SessionID)
	if err != nil {
		return nil, err
	}
	replies, err := s.LoadReplies(ctx, req.CommentID)
	if err != nil {
		return nil, err
	}
	return &RepliesResponse{Replies: nonNil(replies)}, nil
}

func (h *Handler) toggleReplies(_ context.Context, req *CommentRequest) (*ToggleRepliesResponse, error) {
	s, err := h.threads.Get(req.SessionID)
	if err != nil {
		return nil, err
	}
	exp, ok := s.ToggleReplies(req.CommentID)
	return &ToggleRepliesResponse{
		Known:   ok,
		Visible: exp.Visible,
		Replies: nonNil(exp.Replies),
	}, nil
}

func (h *Handler) closeThread(_ context.Context, req *SessionRequest) (*Empty, error) {
	h.threads.Close(req.SessionID)
	return &Empty{}, nil
}

// nonNil keeps empty pages encoded as [] rather than null.
func nonNil(items []*hn.Item) []*hn.Item {
	if items == nil {
		return []*hn.Item{}
	}
	return items
}
