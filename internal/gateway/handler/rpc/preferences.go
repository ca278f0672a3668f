package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	prefrepo "hnreader/internal/gateway/repository/preferences"
)

func (h *Handler) mountPreferences(mux *http.ServeMux, opts []connect.HandlerOption) {
	p := func(m string) string { return Procedure(PreferenceServiceName, m) }
	unary(mux, p("Save"), h.storyOp(h.prefs.Save), opts)
	unary(mux, p("Unsave"), h.storyOp(h.prefs.Unsave), opts)
	unary(mux, p("ListSaved"), h.idsOp(h.prefs.Saved), opts)
	unary(mux, p("Hide"), h.storyOp(h.prefs.Hide), opts)
	unary(mux, p("Unhide"), h.storyOp(h.prefs.Unhide), opts)
	unary(mux, p("ListHidden"), h.idsOp(h.prefs.Hidden), opts)
	unary(mux, p("CreateList"), h.createList, opts)
	unary(mux, p("DeleteList"), h.deleteList, opts)
	unary(mux, p("ListLists"), h.listLists, opts)
	unary(mux, p("AddToList"), h.listStoryOp(h.prefs.AddToList), opts)
	unary(mux, p("RemoveFromList"), h.listStoryOp(h.prefs.RemoveFromList), opts)
	unary(mux, p("ListItems"), h.listItems, opts)
	unary(mux, p("ExportList"), h.exportList, opts)
}

func (h *Handler) storyOp(fn func(context.Context, string, int) error) func(context.Context, *StoryRequest) (*Empty, error) {
	return func(ctx context.Context, req *StoryRequest) (*Empty, error) {
		if err := fn(ctx, req.Owner, req.StoryID); err != nil {
			return nil, err
		}
		return &Empty{}, nil
	}
}

func (h *Handler) idsOp(fn func(context.Context, string) ([]int, error)) func(context.Context, *OwnerRequest) (*StoryIDsResponse, error) {
	return func(ctx context.Context, req *OwnerRequest) (*StoryIDsResponse, error) {
		ids, err := fn(ctx, req.Owner)
		if err != nil {
			return nil, err
		}
		return &StoryIDsResponse{StoryIDs: nonNilIDs(ids)}, nil
	}
}

func (h *Handler) listStoryOp(fn func(context.Context, string, string, int) error) func(context.Context, *ListStoryRequest) (*Empty, error) {
	return func(ctx context.Context, req *ListStoryRequest) (*Empty, error) {
		if err := fn(ctx, req.Owner, req.ListID, req.StoryID); err != nil {
			return nil, err
		}
		return &Empty{}, nil
	}
}

func (h *Handler) createList(ctx context.Context, req *CreateListRequest) (*ListResponse, error) {
	list, err := h.prefs.CreateList(ctx, req.Owner, req.Name)
	if err != nil {
		return nil, err
	}
	return &ListResponse{List: list}, nil
}

func (h *Handler) deleteList(ctx context.Context, req *ListRequest) (*Empty, error) {
	if err := h.prefs.DeleteList(ctx, req.Owner, req.ListID); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (h *Handler) listLists(ctx context.Context, req *OwnerRequest) (*ListsResponse, error) {
	lists, err := h.prefs.Lists(ctx, req.Owner)
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []prefrepo.ReadingList{}
	}
	return &ListsResponse{Lists: lists}, nil
}

func (h *Handler) listItems(ctx context.Context, req *ListRequest) (*StoryIDsResponse, error) {
	ids, err := h.prefs.ListItems(ctx, req.Owner, req.ListID)
	if err != nil {
		return nil, err
	}
	return &StoryIDsResponse{StoryIDs: nonNilIDs(ids)}, nil
}

func (h *Handler) exportList(ctx context.Context, req *ListRequest) (*ExportResponse, error) {
	exp, err := h.prefs.ExportReadingList(ctx, req.Owner, req.ListID)
	if err != nil {
		return nil, err
	}
	return &ExportResponse{Export: exp}, nil
}

func nonNilIDs(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
