package item_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hnreader/internal/cache/disk"
	"hnreader/internal/cache/item"
	"hnreader/internal/feed"
	"hnreader/internal/hn"
	"hnreader/internal/hn/hntest"
)

func TestCachedFetcherReadThrough(t *testing.T) {
	srv := hntest.NewServer(t)
	srv.AddItem(hn.Item{ID: 7, Type: hn.TypeOf(hn.KindStory), Title: "cached", Kids: []int{8}})
	f := item.NewCachedFetcher(srv.Client(), item.CacheConfig{})
	ctx := context.Background()

	first, err := f.GetItem(ctx, 7)
	require.NoError(t, err)
	first.Title = "mutated"
	first.Kids[0] = 99

	second, err := f.GetItem(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "cached", second.Title, "callers get copies")
	assert.Equal(t, []int{8}, second.Kids)
	assert.Equal(t, 1, srv.ItemHits(7))

	m := f.Metrics()
	assert.EqualValues(t, 1, m.ItemHits)
	assert.EqualValues(t, 1, m.ItemMisses)
}

func TestCachedFetcherDoesNotCacheAbsenceOrErrors(t *testing.T) {
	srv := hntest.NewServer(t)
	f := item.NewCachedFetcher(srv.Client(), item.CacheConfig{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		it, err := f.GetItem(ctx, 5)
		require.NoError(t, err)
		assert.Nil(t, it)
	}
	assert.Equal(t, 2, srv.ItemHits(5))

	srv.Fail(hntest.ItemPath(6), http.StatusBadGateway)
	for i := 0; i < 2; i++ {
		_, err := f.GetItem(ctx, 6)
		assert.True(t, hn.IsUpstream(err))
	}
	assert.Equal(t, 2, srv.ItemHits(6))
	assert.EqualValues(t, 2, f.Metrics().OriginErrors)
}

func TestCachedFetcherListsUsersAndUncachedEndpoints(t *testing.T) {
	srv := hntest.NewServer(t)
	srv.SetListing(hn.CategoryTop, 3, 2, 1)
	srv.AddUser(hn.User{ID: "pg", Karma: 100})
	srv.AddItem(hn.Item{ID: 3, Type: hn.TypeOf(hn.KindStory)})
	srv.SetUpdates(hn.Updates{Items: []int{3}})
	f := item.NewCachedFetcher(srv.Client(), item.CacheConfig{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ids, err := f.GetStoryIDs(ctx, hn.CategoryTop)
		require.NoError(t, err)
		assert.Equal(t, []int{3, 2, 1}, ids)
		_, err = f.GetUser(ctx, "pg")
		require.NoError(t, err)
		_, err = f.GetMaxItem(ctx)
		require.NoError(t, err)
		_, err = f.GetUpdates(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, srv.Hits("/topstories.json"))
	assert.Equal(t, 1, srv.Hits("/user/pg.json"))
	assert.Equal(t, 3, srv.Hits("/maxitem.json"))
	assert.Equal(t, 3, srv.Hits("/updates.json"))

	f.InvalidateUsers("pg")
	_, err := f.GetUser(ctx, "pg")
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits("/user/pg.json"))
}

func TestCachedFetcherDiskTierSurvivesRestart(t *testing.T) {
	srv := hntest.NewServer(t)
	srv.AddItem(hn.Item{ID: 11, Type: hn.TypeOf(hn.KindComment), Text: "kept", Parent: 1})
	dir := t.TempDir()
	ctx := context.Background()

	store, err := disk.Open(disk.Config{Dir: dir, TTL: time.Hour, MaxEntries: 16})
	require.NoError(t, err)
	_, err = item.NewCachedFetcher(srv.Client(), item.CacheConfig{Disk: store}).GetItem(ctx, 11)
	require.NoError(t, err)

	reopened, err := disk.Open(disk.Config{Dir: dir, TTL: time.Hour, MaxEntries: 16})
	require.NoError(t, err)
	f := item.NewCachedFetcher(srv.Client(), item.CacheConfig{Disk: reopened})
	it, err := f.GetItem(ctx, 11)
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.Equal(t, "kept", it.Text)
	assert.True(t, it.Type.Is(hn.KindComment))
	assert.Equal(t, 1, srv.ItemHits(11))
	assert.EqualValues(t, 1, f.Metrics().DiskHits)

	f.Invalidate(ctx, 11)
	_, err = f.GetItem(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, 2, srv.ItemHits(11))
}

func TestCachedFetcherJoinedBatchSurvivesOtherBatchFailure(t *testing.T) {
	srv := hntest.NewServer(t)
	srv.AddItems(
		hn.Item{ID: 1, Type: hn.TypeOf(hn.KindComment), Text: "slow", Parent: 9},
		hn.Item{ID: 2, Type: hn.TypeOf(hn.KindComment), Text: "broken", Parent: 9},
	)
	srv.Delay(hntest.ItemPath(1), 300*time.Millisecond)
	srv.Delay(hntest.ItemPath(2), 100*time.Millisecond)
	srv.Fail(hntest.ItemPath(2), http.StatusInternalServerError)
	svc := feed.New(item.NewCachedFetcher(srv.Client(), item.CacheConfig{}))
	ctx := context.Background()

	var wg sync.WaitGroup
	var errA error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errA = svc.GetMultipleItems(ctx, []int{1, 2})
	}()

	time.Sleep(30 * time.Millisecond)
	itemsB, errB := svc.GetMultipleItems(ctx, []int{1})
	wg.Wait()

	require.Error(t, errA)
	require.NoError(t, errB, "a failing batch must not fail an unrelated batch")
	require.Len(t, itemsB, 1)
	assert.Equal(t, "slow", itemsB[0].Text)
	assert.Equal(t, 1, srv.ItemHits(1), "the second batch joins the in-flight fetch")
}

func TestCachedFetcherCallerCancelStopsOnlyThatCaller(t *testing.T) {
	srv := hntest.NewServer(t)
	srv.AddItem(hn.Item{ID: 3, Type: hn.TypeOf(hn.KindStory), Title: "shared"})
	srv.Delay(hntest.ItemPath(3), 150*time.Millisecond)
	f := item.NewCachedFetcher(srv.Client(), item.CacheConfig{})

	cancelled, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := f.GetItem(cancelled, 3)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)

	it, err := f.GetItem(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.Equal(t, "shared", it.Title)
	assert.ErrorIs(t, <-done, context.DeadlineExceeded)
	assert.Equal(t, 1, srv.ItemHits(3))
}

func TestCachedFetcherDiskTierHonoursItemTTL(t *testing.T) {
	srv := hntest.NewServer(t)
	srv.AddItem(hn.Item{ID: 7, Type: hn.TypeOf(hn.KindStory), Title: "s", Kids: []int{8}})
	store, err := disk.Open(disk.Config{Dir: t.TempDir(), TTL: 24 * time.Hour, MaxEntries: 16})
	require.NoError(t, err)
	f := item.NewCachedFetcher(srv.Client(), item.CacheConfig{ItemTTL: 20 * time.Millisecond, Disk: store})
	ctx := context.Background()

	first, err := f.GetItem(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{8}, first.Kids)

	srv.AddItem(hn.Item{ID: 7, Type: hn.TypeOf(hn.KindStory), Title: "s", Kids: []int{8, 9, 10}})
	time.Sleep(40 * time.Millisecond)

	second, err := f.GetItem(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{8, 9, 10}, second.Kids, "stale disk entries are not served")
	assert.Equal(t, 2, srv.ItemHits(7))
	assert.Zero(t, f.Metrics().DiskHits)
}
