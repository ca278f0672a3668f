package preferences_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hnreader/internal/feed"
	artifactrepo "hnreader/internal/gateway/repository/artifact"
	prefrepo "hnreader/internal/gateway/repository/preferences"
	"hnreader/internal/gateway/service/preferences"
	"hnreader/internal/hn"
	"hnreader/internal/hn/hntest"
)

func newService(t *testing.T) (*preferences.Service, *hntest.Server, *artifactrepo.MemoryStore) {
	t.Helper()
	srv := hntest.NewServer(t)
	artifacts := artifactrepo.NewMemoryStore()
	svc := preferences.New(prefrepo.NewMemoryStore(), feed.New(srv.Client()), artifacts, nil)
	return svc, srv, artifacts
}

func story(id int, title string) hn.Item {
	return hn.Item{ID: id, Type: hn.TypeOf(hn.KindStory), Title: title, By: "pg", Score: 1200, URL: "https://www.example.com/" + title}
}

func TestOwnerAndStoryValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Save(ctx, "  ", 1), preferences.ErrOwnerRequired)
	assert.ErrorIs(t, svc.Hide(ctx, "alice", 0), preferences.ErrInvalidStory)
	_, err := svc.CreateList(ctx, "alice", " ")
	assert.ErrorIs(t, err, preferences.ErrNameRequired)
	_, err = svc.Lists(ctx, "")
	assert.ErrorIs(t, err, preferences.ErrOwnerRequired)
}

func TestSavedAndHiddenSets(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, "alice", 3))
	require.NoError(t, svc.Save(ctx, "alice", 1))
	require.NoError(t, svc.Save(ctx, "alice", 3))
	saved, err := svc.Saved(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, saved)

	require.NoError(t, svc.Unsave(ctx, "alice", 3))
	require.NoError(t, svc.Unsave(ctx, "alice", 42))
	saved, err = svc.Saved(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, saved)

	hidden, err := svc.Hidden(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, hidden)
}

func TestFilterVisibleDropsHiddenStories(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	items := []*hn.Item{{ID: 1}, {ID: 2}, {ID: 3}}

	require.NoError(t, svc.Hide(ctx, "alice", 2))

	visible, err := svc.FilterVisible(ctx, "alice", items)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids(visible))

	visible, err = svc.FilterVisible(ctx, "", items)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids(visible), "anonymous feeds are unfiltered")

	visible, err = svc.FilterVisible(ctx, "bob", items)
	require.NoError(t, err)
	assert.Len(t, visible, 3, "hidden sets are per owner")
}

func TestReadingListLifecycle(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	list, err := svc.CreateList(ctx, "alice", " Weekend ")
	require.NoError(t, err)
	assert.Equal(t, "Weekend", list.Name)
	assert.NotEmpty(t, list.ID)

	require.NoError(t, svc.AddToList(ctx, "alice", list.ID, 5))
	require.NoError(t, svc.AddToList(ctx, "alice", list.ID, 4))
	items, err := svc.ListItems(ctx, "alice", list.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4}, items)

	_, err = svc.ListItems(ctx, "bob", list.ID)
	assert.ErrorIs(t, err, prefrepo.ErrListNotFound)

	require.NoError(t, svc.DeleteList(ctx, "alice", list.ID))
	lists, err := svc.Lists(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestExportReadingList(t *testing.T) {
	svc, srv, artifacts := newService(t)
	ctx := context.Background()
	srv.AddItems(story(10, "gophers"), story(11, "channels"))

	list, err := svc.CreateList(ctx, "alice", "Go <reading>")
	require.NoError(t, err)
	for _, id := range []int{10, 99, 11} {
		require.NoError(t, svc.AddToList(ctx, "alice", list.ID, id))
	}

	exp, err := svc.ExportReadingList(ctx, "alice", list.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, exp.Stories, "missing stories are left out")
	prefix := artifactrepo.ExportPrefix("alice", exp.ID)
	assert.Equal(t, "memory://"+prefix+"list.html", exp.HTMLURL)
	assert.Equal(t, "memory://"+prefix+"list.json", exp.JSONURL)

	page, err := artifacts.Get(ctx, prefix+"list.html")
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "Go &lt;reading&gt;")
	assert.Contains(t, html, "gophers")
	assert.Contains(t, html, "(example.com)")
	assert.Less(t, strings.Index(html, "gophers"), strings.Index(html, "channels"))
	assert.Equal(t, "text/html; charset=utf-8", artifacts.ContentType(prefix+"list.html"))

	raw, err := artifacts.Get(ctx, prefix+"list.json")
	require.NoError(t, err)
	var doc struct {
		List    prefrepo.ReadingList `json:"list"`
		Stories []hn.Item            `json:"stories"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, list.ID, doc.List.ID)
	require.Len(t, doc.Stories, 2)
	assert.Equal(t, "channels", doc.Stories[1].Title)

	_, err = svc.ExportReadingList(ctx, "alice", "nope")
	assert.ErrorIs(t, err, prefrepo.ErrListNotFound)
}

func ids(items []*hn.Item) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
