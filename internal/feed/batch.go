package feed

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"hnreader/internal/hn"
)

// GetMultipleItems fetches every ID concurrently. Missing items are dropped;
// the first hard failure cancels the rest and fails the whole batch. The
// result follows input order, not completion order.
func (s *Service) GetMultipleItems(ctx context.Context, ids []int) ([]*hn.Item, error) {
	if len(ids) == 0 {
		return []*hn.Item{}, nil
	}

	slots := make([]*hn.Item, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}
	for i, id := range ids {
		g.Go(func() error {
			item, err := s.fetcher.GetItem(gctx, id)
			if err != nil {
				return fmt.Errorf("fetch item %d: %w", id, err)
			}
			slots[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*hn.Item, 0, len(ids))
	for _, item := range slots {
		if item != nil {
			out = append(out, item)
		}
	}
	if dropped := len(ids) - len(out); dropped > 0 {
		s.log.WithField("requested", len(ids)).WithField("missing", dropped).Debug("batch dropped absent items")
	}
	return out, nil
}

// filterKind keeps items of kind k, in order.
func filterKind(items []*hn.Item, k hn.Kind) []*hn.Item {
	out := make([]*hn.Item, 0, len(items))
	for _, it := range items {
		if it.Type.Is(k) {
			out = append(out, it)
		}
	}
	return out
}

// ValidComments keeps live comments with a body, in order.
func ValidComments(items []*hn.Item) []*hn.Item {
	out := make([]*hn.Item, 0, len(items))
	for _, it := range items {
		if it.IsValidComment() {
			out = append(out, it)
		}
	}
	return out
}
