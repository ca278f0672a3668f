package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hnreader/internal/feed"
	"hnreader/internal/gateway/handler"
	"hnreader/internal/hn"
	"hnreader/internal/hn/hntest"
)

type wsMessage struct {
	Type     string   `json:"type"`
	Items    []int    `json:"items"`
	Profiles []string `json:"profiles"`
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestUpdatesSocketPushesDeltas(t *testing.T) {
	upstream := hntest.NewServer(t)
	upstream.SetUpdates(hn.Updates{Items: []int{1, 2}, Profiles: []string{"pg"}})

	h := handler.NewUpdatesHandler(feed.New(upstream.Client()), 30*time.Millisecond, nil)
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "subscribed", readMessage(t, conn).Type)

	first := readMessage(t, conn)
	assert.Equal(t, "updates", first.Type)
	assert.Equal(t, []int{1, 2}, first.Items)
	assert.Equal(t, []string{"pg"}, first.Profiles)

	upstream.SetUpdates(hn.Updates{Items: []int{2, 3}, Profiles: []string{"pg"}})
	next := readMessage(t, conn)
	assert.Equal(t, "updates", next.Type)
	assert.Equal(t, []int{3}, next.Items, "only new entries are pushed")
	assert.Empty(t, next.Profiles)
}

func TestHealth(t *testing.T) {
	h := handler.Health(func() handler.HealthStatus {
		return handler.HealthStatus{ThreadSessions: 2}
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var st handler.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, 2, st.ThreadSessions)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
