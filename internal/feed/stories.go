package feed

import (
	"context"
	"fmt"

	"hnreader/internal/hn"
)

// GetCategoryStories hydrates the first limit IDs of a ranking and keeps the
// items whose type matches the category. The result may be shorter than
// limit.
func (s *Service) GetCategoryStories(ctx context.Context, cat hn.Category, limit int) ([]*hn.Item, error) {
	items, err := s.categoryItems(ctx, cat, limit)
	if err != nil {
		return nil, err
	}
	return filterKind(items, cat.ExpectedKind()), nil
}

// categoryItems is GetCategoryStories without the type filter.
func (s *Service) categoryItems(ctx context.Context, cat hn.Category, limit int) ([]*hn.Item, error) {
	if limit <= 0 {
		return []*hn.Item{}, nil
	}
	ids, err := s.fetcher.GetStoryIDs(ctx, cat)
	if err != nil {
		return nil, fmt.Errorf("list %s stories: %w", cat, err)
	}
	if limit < len(ids) {
		ids = ids[:limit]
	}
	return s.GetMultipleItems(ctx, ids)
}

// GetItem returns the item or (nil, nil) when upstream has none.
func (s *Service) GetItem(ctx context.Context, id int) (*hn.Item, error) {
	return s.fetcher.GetItem(ctx, id)
}

func (s *Service) GetMaxItem(ctx context.Context) (int, error) {
	return s.fetcher.GetMaxItem(ctx)
}

// CommentPage is one window over a story's top-level comments.
type CommentPage struct {
	Story *hn.Item
	// Comments holds only valid comments from the window, in display order.
	Comments []*hn.Item
	// TotalComments is len(Story.Kids), unfiltered.
	TotalComments int
}

// GetStoryWithComments returns kids[offset:offset+limit] of a story,
// hydrated and filtered to valid comments.
func (s *Service) GetStoryWithComments(ctx context.Context, storyID, offset, limit int) (*CommentPage, error) {
	story, err := s.fetcher.GetItem(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("load story %d: %w", storyID, err)
	}
	if story == nil {
		return nil, hn.ItemNotFound(storyID)
	}
	page := &CommentPage{Story: story, Comments: []*hn.Item{}}
	if len(story.Kids) == 0 {
		return page, nil
	}
	page.TotalComments = len(story.Kids)

	window := kidWindow(story.Kids, offset, limit)
	if len(window) == 0 {
		return page, nil
	}
	items, err := s.GetMultipleItems(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("load comments of %d: %w", storyID, err)
	}
	page.Comments = ValidComments(items)
	return page, nil
}

// GetCommentReplies hydrates the direct children of a comment only.
func (s *Service) GetCommentReplies(ctx context.Context, commentID int) ([]*hn.Item, error) {
	comment, err := s.fetcher.GetItem(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("load comment %d: %w", commentID, err)
	}
	if comment == nil {
		return nil, hn.ItemNotFound(commentID)
	}
	if len(comment.Kids) == 0 {
		return []*hn.Item{}, nil
	}
	items, err := s.GetMultipleItems(ctx, comment.Kids)
	if err != nil {
		return nil, fmt.Errorf("load replies of %d: %w", commentID, err)
	}
	return ValidComments(items), nil
}

func kidWindow(kids []int, offset, limit int) []int {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(kids) {
		return nil
	}
	end := offset + limit
	if end > len(kids) {
		end = len(kids)
	}
	return kids[offset:end]
}
