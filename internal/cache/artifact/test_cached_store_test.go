package artifact

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeOriginStore struct {
	mu sync.Mutex

	data map[string][]byte

	getCalls  int
	putCalls  int
	listCalls int
	urlCalls  int

	failPut bool
}

func newFakeOriginStore() *fakeOriginStore {
	return &fakeOriginStore{data: map[string][]byte{}}
}

func (s *fakeOriginStore) Put(_ context.Context, key string, content []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCalls++
	if s.failPut {
		return fmt.Errorf("put failed")
	}
	s.data[key] = append([]byte(nil), content...)
	return nil
}

func (s *fakeOriginStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	raw, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return append([]byte(nil), raw...), nil
}

func (s *fakeOriginStore) URL(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urlCalls++
	return "https://bucket.test/" + key + fmt.Sprintf("?sig=%d", s.urlCalls), nil
}

func (s *fakeOriginStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	prefix = strings.TrimSuffix(prefix, "/") + "/"
	out := []string{}
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, strings.TrimPrefix(k, prefix))
		}
	}
	sort.Strings(out)
	return out, nil
}

func TestCachedStoreReadThroughAndMetrics(t *testing.T) {
	origin := newFakeOriginStore()
	origin.data["exports/a/e1/list.html"] = []byte("hello")
	store := NewCachedStore(origin, CacheConfig{BlobTTL: time.Minute, BlobMaxEntries: 8, BlobMaxBytes: 1024})

	for i := 0; i < 2; i++ {
		got, err := store.Get(context.Background(), "exports/a/e1/list.html")
		if err != nil || string(got) != "hello" {
			t.Fatalf("get %d: %q %v", i, got, err)
		}
	}
	if origin.getCalls != 1 {
		t.Fatalf("expected one origin get, got %d", origin.getCalls)
	}
	m := store.Metrics()
	if m.BlobHits != 1 || m.BlobMisses != 1 || m.OriginReads != 1 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestCachedStoreWriteThroughInvalidatesListings(t *testing.T) {
	origin := newFakeOriginStore()
	store := NewCachedStore(origin, DefaultCacheConfig())
	ctx := context.Background()

	if err := store.Put(ctx, "exports/a/e1/list.json", []byte("{}"), "application/json"); err != nil {
		t.Fatalf("put: %v", err)
	}
	first, _ := store.List(ctx, "exports/a/e1")
	if err := store.Put(ctx, "exports/a/e1/list.html", []byte("<p>"), "text/html"); err != nil {
		t.Fatalf("put: %v", err)
	}
	second, _ := store.List(ctx, "exports/a/e1")
	if !reflect.DeepEqual(first, []string{"list.json"}) || !reflect.DeepEqual(second, []string{"list.html", "list.json"}) {
		t.Fatalf("listing not refreshed: %v then %v", first, second)
	}
	if _, err := store.Get(ctx, "exports/a/e1/list.html"); err != nil || origin.getCalls != 0 {
		t.Fatalf("expected cached blob after put: err=%v gets=%d", err, origin.getCalls)
	}

	origin.failPut = true
	if err := store.Put(ctx, "exports/a/e1/bad", []byte("x"), ""); err == nil {
		t.Fatalf("expected put error")
	}
	if _, err := store.Get(ctx, "exports/a/e1/bad"); err == nil {
		t.Fatalf("failed write must not be cached")
	}
	if m := store.Metrics(); m.OriginWriteErr != 1 {
		t.Fatalf("expected one write error, got %+v", m)
	}
}

func TestCachedStoreURLAndLRU(t *testing.T) {
	origin := newFakeOriginStore()
	origin.data["k/a"] = []byte("A")
	origin.data["k/b"] = []byte("B")
	store := NewCachedStore(origin, CacheConfig{BlobTTL: time.Minute, BlobMaxEntries: 1})
	ctx := context.Background()

	u1, _ := store.URL(ctx, "k/a")
	u2, _ := store.URL(ctx, "/k/a")
	if u1 != u2 || origin.urlCalls != 1 {
		t.Fatalf("expected cached url: %s %s calls=%d", u1, u2, origin.urlCalls)
	}

	_, _ = store.Get(ctx, "k/a")
	_, _ = store.Get(ctx, "k/b")
	_, _ = store.Get(ctx, "k/a")
	if origin.getCalls != 3 {
		t.Fatalf("expected LRU eviction to force 3 origin reads, got %d", origin.getCalls)
	}
}
