package feed

import (
	"context"
	"fmt"

	"hnreader/internal/hn"
)

type UserActivity struct {
	User        *hn.User
	Submissions []*hn.Item
}

// GetUserActivity resolves a profile and hydrates its first limit
// submissions, which upstream already orders most-recent-first.
func (s *Service) GetUserActivity(ctx context.Context, username string, limit int) (*UserActivity, error) {
	user, err := s.fetcher.GetUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", username, err)
	}
	if user == nil {
		return nil, hn.UserNotFound(username)
	}
	act := &UserActivity{User: user, Submissions: []*hn.Item{}}
	if len(user.Submitted) == 0 || limit <= 0 {
		return act, nil
	}
	ids := user.Submitted
	if limit < len(ids) {
		ids = ids[:limit]
	}
	act.Submissions, err = s.GetMultipleItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load submissions of %s: %w", username, err)
	}
	return act, nil
}
