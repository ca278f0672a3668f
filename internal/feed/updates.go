package feed

import (
	"context"
	"fmt"
)

// Snapshot is the last observed /updates.json state.
type Snapshot struct {
	Items    []int
	Profiles []string
}

func (s Snapshot) IsZero() bool {
	return s.Items == nil && s.Profiles == nil
}

// Delta lists entries present in the new snapshot but absent from the
// previous one, in upstream order.
type Delta struct {
	Items    []int
	Profiles []string
}

func (d Delta) Empty() bool {
	return len(d.Items) == 0 && len(d.Profiles) == 0
}

// PollUpdates fetches the current updates and diffs them against prev.
func (s *Service) PollUpdates(ctx context.Context, prev Snapshot) (Snapshot, Delta, error) {
	up, err := s.fetcher.GetUpdates(ctx)
	if err != nil {
		return prev, Delta{}, fmt.Errorf("poll updates: %w", err)
	}
	next := Snapshot{Items: []int{}, Profiles: []string{}}
	if up != nil {
		next.Items = append(next.Items, up.Items...)
		next.Profiles = append(next.Profiles, up.Profiles...)
	}
	return next, Diff(prev, next), nil
}

// Diff computes what next adds over prev.
func Diff(prev, next Snapshot) Delta {
	return Delta{
		Items:    missingFrom(prev.Items, next.Items),
		Profiles: missingFrom(prev.Profiles, next.Profiles),
	}
}

func missingFrom[T comparable](prev, next []T) []T {
	seen := make(map[T]struct{}, len(prev))
	for _, v := range prev {
		seen[v] = struct{}{}
	}
	out := []T{}
	for _, v := range next {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
