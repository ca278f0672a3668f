package feed

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"hnreader/internal/hn"
)

// corpusSources is how many items each listing contributes to the search
// corpus.
var corpusSources = []struct {
	cat   hn.Category
	limit int
}{
	{hn.CategoryTop, 50},
	{hn.CategoryNew, 50},
	{hn.CategoryBest, 50},
	{hn.CategoryAsk, 50},
	{hn.CategoryShow, 50},
	{hn.CategoryJob, 20},
}

// Search scans a freshly built corpus for a case-insensitive substring in
// title, text, url or author. Results keep corpus order and are capped at
// limit.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*hn.Item, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" || limit <= 0 {
		return []*hn.Item{}, nil
	}
	corpus, err := s.searchCorpus(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*hn.Item, 0, limit)
	for _, it := range corpus {
		if matches(it, needle) {
			out = append(out, it)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// searchCorpus fetches the six listings concurrently and merges them,
// deduplicated by ID. A duplicate keeps its first position and takes the
// later record.
func (s *Service) searchCorpus(ctx context.Context) ([]*hn.Item, error) {
	lists := make([][]*hn.Item, len(corpusSources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range corpusSources {
		g.Go(func() error {
			var (
				items []*hn.Item
				err   error
			)
			if src.cat == hn.CategoryJob {
				items, err = s.categoryItems(gctx, src.cat, src.limit)
			} else {
				items, err = s.GetCategoryStories(gctx, src.cat, src.limit)
			}
			if err != nil {
				return fmt.Errorf("search corpus: %w", err)
			}
			lists[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := map[int]int{}
	corpus := make([]*hn.Item, 0, 270)
	for _, list := range lists {
		for _, it := range list {
			if pos, ok := index[it.ID]; ok {
				corpus[pos] = it
				continue
			}
			index[it.ID] = len(corpus)
			corpus = append(corpus, it)
		}
	}
	return corpus, nil
}

func matches(it *hn.Item, needle string) bool {
	for _, field := range []string{it.Title, it.Text, it.URL, it.By} {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
