// Package handler serves the plain HTTP endpoints next to the RPC surface.
package handler

import (
	"encoding/json"
	"net/http"
)

type HealthStatus struct {
	Status         string `json:"status"`
	ThreadSessions int    `json:"threadSessions"`
	AssistEnabled  bool   `json:"assistEnabled"`
}

// Health reports liveness together with a few counters from report.
func Health(report func() HealthStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		st := HealthStatus{Status: "ok"}
		if report != nil {
			st = report()
			st.Status = "ok"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	}
}
