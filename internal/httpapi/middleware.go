package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vntrieu/mafia/internal/auth"
	"github.com/vntrieu/mafia/internal/httpapi/handler"
	"github.com/vntrieu/mafia/internal/ratelimit"
)

// RateLimitMiddleware returns a middleware that limits by key extracted from the request (e.g. IP).
// When over limit, responds with 429 and optional Retry-After header.
func RateLimitMiddleware(limiter ratelimit.Limiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				key = "unknown"
			}
			allowed, retryAfter := limiter.Allow(key)
			if !allowed {
				if retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitKeyByIP returns the client IP from the request (using X-Real-IP / X-Forwarded-For when set).
func RateLimitKeyByIP(r *http.Request) string {
	if x := r.Header.Get("X-Real-IP"); x != "" {
		return x
	}
	if x := r.Header.Get("X-Forwarded-For"); x != "" {
		return x
	}
	return r.RemoteAddr
}

// RateLimitKeyByPlayer keys on the authenticated player, falling back to the client IP.
func RateLimitKeyByPlayer(r *http.Request) string {
	if c := handler.ClaimsFromRequest(r); c != nil && c.PlayerID != "" {
		return ratelimit.Key("player", c.GameID, c.PlayerID)
	}
	return RateLimitKeyByIP(r)
}

// DefaultMaxBodyBytes caps JSON request bodies.
const DefaultMaxBodyBytes = 1 << 20 // 1MB

// LimitRequestBody returns middleware that limits request body size; over-size requests get 413.
func LimitRequestBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken returns the token from "Authorization: Bearer ...", or empty.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	bearer := r.Header.Get("Authorization")
	if !strings.HasPrefix(bearer, prefix) {
		return ""
	}
	return strings.TrimSpace(bearer[len(prefix):])
}

// gameClaims verifies the bearer token and checks it was issued for the game in the URL.
func gameClaims(r *http.Request, tokenSecret []byte) (*auth.Claims, bool) {
	if len(tokenSecret) == 0 {
		return nil, false
	}
	token := bearerToken(r)
	if token == "" {
		return nil, false
	}
	claims, err := auth.VerifyToken(token, tokenSecret)
	if err != nil {
		return nil, false
	}
	if claims.GameID != chi.URLParam(r, "game_id") {
		return nil, false
	}
	return claims, true
}

func withClaims(r *http.Request, claims *auth.Claims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), handler.ClaimsContextKey, claims))
}

// OptionalPlayer returns middleware that reads a game token if present. If absent or invalid,
// continues anonymously.
func OptionalPlayer(tokenSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, ok := gameClaims(r, tokenSecret); ok {
				r = withClaims(r, claims)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePlayer returns middleware that requires a player token for the game in the URL.
// If absent or invalid, responds with 401 and does not call next.
func RequirePlayer(tokenSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := gameClaims(r, tokenSecret)
			if !ok || claims.PlayerID == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, withClaims(r, claims))
		})
	}
}

// RequireHost returns middleware that requires the host token for the game in the URL.
func RequireHost(tokenSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := gameClaims(r, tokenSecret)
			if !ok || !claims.Host {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, withClaims(r, claims))
		})
	}
}
