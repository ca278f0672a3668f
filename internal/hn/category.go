package hn

import (
	"fmt"
	"strings"
)

// Category is one of the upstream story rankings.
type Category string

const (
	CategoryTop  Category = "top"
	CategoryNew  Category = "new"
	CategoryBest Category = "best"
	CategoryAsk  Category = "ask"
	CategoryShow Category = "show"
	CategoryJob  Category = "job"
)

// Categories lists every ranking in display order.
var Categories = []Category{CategoryTop, CategoryNew, CategoryBest, CategoryAsk, CategoryShow, CategoryJob}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryTop, CategoryNew, CategoryBest, CategoryAsk, CategoryShow, CategoryJob:
		return c, nil
	case "jobs":
		return CategoryJob, nil
	}
	return "", fmt.Errorf("hn: unknown category %q", s)
}

// Endpoint is the index path relative to the API base.
func (c Category) Endpoint() string {
	return "/" + string(c) + "stories.json"
}

// ExpectedKind is the item variant a listing is supposed to contain.
func (c Category) ExpectedKind() Kind {
	if c == CategoryJob {
		return KindJob
	}
	return KindStory
}

// MaxIDs is the upstream cap on the listing length.
func (c Category) MaxIDs() int {
	switch c {
	case CategoryAsk, CategoryShow, CategoryJob:
		return 200
	}
	return 500
}
