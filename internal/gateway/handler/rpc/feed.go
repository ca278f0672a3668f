package rpc

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"hnreader/internal/hn"
)

var errInvalidCategory = errors.New("unknown story category")

func (h *Handler) mountFeed(mux *http.ServeMux, opts []connect.HandlerOption) {
	p := func(m string) string { return Procedure(FeedServiceName, m) }
	unary(mux, p("GetCategoryStories"), h.getCategoryStories, opts)
	unary(mux, p("GetItem"), h.getItem, opts)
	unary(mux, p("GetUserActivity"), h.getUserActivity, opts)
	unary(mux, p("Search"), h.search, opts)
	unary(mux, p("GetMaxItem"), h.getMaxItem, opts)
}

func (h *Handler) getCategoryStories(ctx context.Context, req *GetCategoryStoriesRequest) (*StoriesResponse, error) {
	cat, err := hn.ParseCategory(req.Category)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errInvalidCategory)
	}
	limit := req.Limit
	if limit == 0 {
		limit = 30
	}
	stories, err := h.feed.GetCategoryStories(ctx, cat, limit)
	if err != nil {
		return nil, err
	}
	stories, err = h.prefs.FilterVisible(ctx, req.Owner, stories)
	if err != nil {
		return nil, err
	}
	return &StoriesResponse{Stories: stories}, nil
}

func (h *Handler) getItem(ctx context.Context, req *GetItemRequest) (*ItemResponse, error) {
	it, err := h.feed.GetItem(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, hn.ItemNotFound(req.ID)
	}
	return &ItemResponse{Item: it}, nil
}

func (h *Handler) getUserActivity(ctx context.Context, req *GetUserActivityRequest) (*UserActivityResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 30
	}
	act, err := h.feed.GetUserActivity(ctx, req.Username, limit)
	if err != nil {
		return nil, err
	}
	return toUserActivity(act), nil
}

func (h *Handler) search(ctx context.Context, req *SearchRequest) (*StoriesResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 30
	}
	hits, err := h.feed.Search(ctx, req.Query, limit)
	if err != nil {
		return nil, err
	}
	hits, err = h.prefs.FilterVisible(ctx, req.Owner, hits)
	if err != nil {
		return nil, err
	}
	return &StoriesResponse{Stories: hits}, nil
}

func (h *Handler) getMaxItem(ctx context.Context, _ *GetMaxItemRequest) (*MaxItemResponse, error) {
	n, err := h.feed.GetMaxItem(ctx)
	if err != nil {
		return nil, err
	}
	return &MaxItemResponse{MaxItem: n}, nil
}
