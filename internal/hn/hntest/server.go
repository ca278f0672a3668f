// Package hntest provides an in-process fake of the HN Firebase API.
package hntest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"hnreader/internal/hn"
)

// Server serves items, users, listings and updates from memory. Anything
// not registered is answered with a JSON null, like upstream does.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	items    map[int]json.RawMessage
	users    map[string]json.RawMessage
	listings map[hn.Category][]int
	updates  *hn.Updates
	maxItem  int
	failures map[string]int
	delays   map[string]time.Duration
	hits     map[string]int

	inFlight    int
	maxInFlight int
}

func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		items:    map[int]json.RawMessage{},
		users:    map[string]json.RawMessage{},
		listings: map[hn.Category][]int{},
		failures: map[string]int{},
		delays:   map[string]time.Duration{},
		hits:     map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Client returns an hn.Client pointed at the fake.
func (s *Server) Client() *hn.Client {
	return hn.NewClient(hn.Options{BaseURL: s.URL, HTTPClient: s.Server.Client()})
}

func (s *Server) AddItem(it hn.Item) {
	raw, err := json.Marshal(it)
	if err != nil {
		panic(err)
	}
	s.AddRawItem(it.ID, string(raw))
}

func (s *Server) AddItems(items ...hn.Item) {
	for _, it := range items {
		s.AddItem(it)
	}
}

// AddRawItem registers a literal body for /item/{id}.json.
func (s *Server) AddRawItem(id int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = json.RawMessage(body)
	if id > s.maxItem {
		s.maxItem = id
	}
}

func (s *Server) AddUser(u hn.User) {
	raw, err := json.Marshal(u)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = raw
}

func (s *Server) SetListing(c hn.Category, ids ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[c] = append([]int(nil), ids...)
}

func (s *Server) SetUpdates(u hn.Updates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = &u
}

// Fail makes every request to path answer with status.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Delay holds every request to path for d before answering.
func (s *Server) Delay(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[path] = d
}

// Hits reports how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// ItemHits reports how many requests reached /item/{id}.json.
func (s *Server) ItemHits(id int) int {
	return s.Hits(ItemPath(id))
}

// TotalItemHits counts requests across all item paths.
func (s *Server) TotalItemHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for path, c := range s.hits {
		if strings.HasPrefix(path, "/item/") {
			n += c
		}
	}
	return n
}

// MaxInFlight is the highest number of requests served concurrently.
func (s *Server) MaxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}

func ItemPath(id int) string { return fmt.Sprintf("/item/%d.json", id) }

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	s.mu.Lock()
	s.hits[path]++
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	status, failing := s.failures[path]
	delay := s.delays[path]
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if failing {
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.body(path))
}

func (s *Server) body(path string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case strings.HasPrefix(path, "/item/"):
		var id int
		if _, err := fmt.Sscanf(path, "/item/%d.json", &id); err == nil {
			if raw, ok := s.items[id]; ok {
				return raw
			}
		}
	case strings.HasPrefix(path, "/user/"):
		name := strings.TrimSuffix(strings.TrimPrefix(path, "/user/"), ".json")
		if raw, ok := s.users[name]; ok {
			return raw
		}
	case path == "/maxitem.json":
		return []byte(fmt.Sprint(s.maxItem))
	case path == "/updates.json":
		if s.updates != nil {
			raw, _ := json.Marshal(s.updates)
			return raw
		}
	default:
		for _, c := range hn.Categories {
			if path == c.Endpoint() {
				raw, _ := json.Marshal(s.listings[c])
				return raw
			}
		}
	}
	return []byte("null")
}
