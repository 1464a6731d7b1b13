package websocket

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vntrieu/mafia/internal/auth"
)

// rateLimitKeyFromRequest returns a key for rate limiting (e.g. client IP).
func rateLimitKeyFromRequest(r *http.Request) string {
	if x := r.Header.Get("X-Real-IP"); x != "" {
		return x
	}
	if x := r.Header.Get("X-Forwarded-For"); x != "" {
		return x
	}
	return r.RemoteAddr
}

// WSHandler handles WebSocket connections to games.
type WSHandler struct {
	hub         *Hub
	engine      GameEngine
	tokenSecret []byte
}

// NewWSHandler creates a new WSHandler. If tokenSecret is nil/empty every connection is rejected.
func NewWSHandler(hub *Hub, engine GameEngine, tokenSecret []byte) *WSHandler {
	return &WSHandler{
		hub:         hub,
		engine:      engine,
		tokenSecret: tokenSecret,
	}
}

// HandleGameWebSocket handles GET /ws/games/{game_id}. The player token is
// sent via query param or Authorization header.
func (h *WSHandler) HandleGameWebSocket(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	if gameID == "" {
		http.Error(w, "game_id is required", http.StatusBadRequest)
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		const prefix = "Bearer "
		if v := r.Header.Get("Authorization"); strings.HasPrefix(v, prefix) {
			token = strings.TrimSpace(v[len(prefix):])
		}
	}
	if token == "" || len(h.tokenSecret) == 0 {
		h.reject(w, "missing or invalid token")
		return
	}
	claims, err := auth.VerifyToken(token, h.tokenSecret)
	if err != nil {
		log.Printf("websocket auth: game_id=%s token verification failed: %v", gameID, err)
		h.reject(w, "unauthorized")
		return
	}
	if claims.GameID != gameID {
		h.reject(w, "game does not match token")
		return
	}
	if claims.PlayerID != "" {
		view, err := h.engine.View(r.Context(), gameID, claims.PlayerID)
		if err != nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		if view.Self == nil {
			h.reject(w, "player not in game")
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	// Use Background so message handling is not tied to the HTTP request lifecycle.
	// The request context is canceled when the handler returns after the upgrade.
	client := &Client{
		hub:          h.hub,
		conn:         conn,
		send:         make(chan *ServerEnvelope, 256),
		GameID:       gameID,
		PlayerID:     claims.PlayerID,
		RateLimitKey: rateLimitKeyFromRequest(r),
		ctx:          context.Background(),
	}
	client.hub.register <- client
	go client.writePump()
	go client.readPump()
}

// reject responds with 401 before upgrade (auth is always checked before upgrading).
func (h *WSHandler) reject(w http.ResponseWriter, reason string) {
	http.Error(w, reason, http.StatusUnauthorized)
}
