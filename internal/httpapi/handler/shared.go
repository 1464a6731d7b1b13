package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/vntrieu/mafia/internal/auth"
	"github.com/vntrieu/mafia/internal/games"
)

// contextKey type for request context keys (avoids collisions with other packages).
type contextKey string

// ClaimsContextKey is the context key for the verified game token (set by RequirePlayer/RequireHost middleware).
const ClaimsContextKey contextKey = "claims"

// ClaimsFromRequest returns the token claims set by the auth middleware, or nil.
func ClaimsFromRequest(r *http.Request) *auth.Claims {
	c, _ := r.Context().Value(ClaimsContextKey).(*auth.Claims)
	return c
}

// requestID returns the request ID from chi's context for logging.
func requestID(r *http.Request) string {
	if id, ok := r.Context().Value(middleware.RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// errorResponse is the JSON body of every 4xx/5xx from the game routes.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[%s] encode response error: %v", requestID(r), err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// decodeBody decodes the JSON body into v; an empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeEngineError maps engine errors to status codes. Validation messages are
// shown to the caller verbatim; anything else is logged and hidden.
func writeEngineError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *games.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, verr.Message)
	case errors.Is(err, games.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "game not found")
	case errors.Is(err, games.ErrWrongPassword):
		writeError(w, r, http.StatusForbidden, "wrong password")
	case games.IsIntegrity(err):
		log.Printf("[%s] %s integrity failure: %v", requestID(r), op, err)
		writeError(w, r, http.StatusInternalServerError, "game state is inconsistent")
	default:
		log.Printf("[%s] %s error: %v", requestID(r), op, err)
		writeError(w, r, http.StatusInternalServerError, "failed to "+op)
	}
}
