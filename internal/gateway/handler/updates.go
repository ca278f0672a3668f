package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"hnreader/internal/feed"
)

const (
	updatesWSWriteWait = 10 * time.Second
	updatesWSPongWait  = 60 * time.Second
	updatesWSPingEvery = (updatesWSPongWait * 9) / 10
)

var updatesWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Poller is the part of feed.Service the live feed needs.
type Poller interface {
	PollUpdates(ctx context.Context, prev feed.Snapshot) (feed.Snapshot, feed.Delta, error)
}

type updatesWSOutbound struct {
	Type     string   `json:"type"`
	Items    []int    `json:"items,omitempty"`
	Profiles []string `json:"profiles,omitempty"`
	Code     string   `json:"code,omitempty"`
	Message  string   `json:"message,omitempty"`
}

type UpdatesHandler struct {
	poller   Poller
	interval time.Duration
	log      logrus.FieldLogger
}

func NewUpdatesHandler(poller Poller, interval time.Duration, logger logrus.FieldLogger) *UpdatesHandler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &UpdatesHandler{poller: poller, interval: interval, log: logger.WithField("component", "updates-ws")}
}

// ServeHTTP upgrades to a websocket and pushes non-empty update deltas
// until the client goes away. Poll failures are reported and retried on
// the next tick.
func (h *UpdatesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := updatesWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(updatesWSPongWait)); err != nil {
		h.log.WithError(err).Warn("set read deadline failed")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(updatesWSPongWait))
	})

	// The reader only drains control frames and notices disconnects.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	write := func(out updatesWSOutbound) bool {
		if err := conn.SetWriteDeadline(time.Now().Add(updatesWSWriteWait)); err != nil {
			return false
		}
		return conn.WriteJSON(out) == nil
	}

	var snap feed.Snapshot
	poll := func() bool {
		next, delta, err := h.poller.PollUpdates(ctx, snap)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			h.log.WithError(err).Warn("poll updates failed")
			return write(updatesWSOutbound{Type: "error", Code: "unavailable", Message: err.Error()})
		}
		snap = next
		if delta.Empty() {
			return true
		}
		return write(updatesWSOutbound{Type: "updates", Items: delta.Items, Profiles: delta.Profiles})
	}

	if !write(updatesWSOutbound{Type: "subscribed"}) || !poll() {
		return
	}

	pollTicker := time.NewTicker(h.interval)
	defer pollTicker.Stop()
	pingTicker := time.NewTicker(updatesWSPingEvery)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			if !poll() {
				return
			}
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(updatesWSWriteWait)); err != nil {
				return
			}
		}
	}
}
