package handler

import (
	"context"
	"log"
	"net/http"
	"time"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// healthResponse is the JSON body for GET /healthz.
type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
}

// Health serves GET /healthz. A nil store is reported as ok.
type Health struct {
	Store Pinger
}

// Healthz handles GET /healthz.
//
// @Summary      Health check
// @Description  Liveness/readiness check including store reachability. No authentication required.
// @Tags         health
// @Produce      json
// @Success      200  {object}  healthResponse
// @Failure      503  {object}  healthResponse
// @Router       /healthz [get]
func (h Health) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		log.Printf("[%s] healthz store ping: %v", requestID(r), err)
		writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Store: "unreachable"})
		return
	}
	writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Store: "ok"})
}
