package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/swaggo/http-swagger"

	"github.com/vntrieu/mafia/internal/httpapi/handler"
	"github.com/vntrieu/mafia/internal/ratelimit"
	"github.com/vntrieu/mafia/internal/websocket"

	_ "github.com/vntrieu/mafia/docs" // swag-generated docs
)

// Engine is everything the HTTP and websocket layers call on the game engine.
type Engine interface {
	handler.GameEngine
	websocket.GameEngine
}

// RouterConfig wires the router to the running engine and hub.
type RouterConfig struct {
	Engine Engine
	Hub    *websocket.Hub
	// TokenSecret signs host and player tokens; if empty, create/join responses omit the token
	// and every authenticated route answers 401.
	TokenSecret []byte
	// RateLimiter is optional: if nil, no rate limiting is applied; otherwise create, join,
	// player commands and websocket chat are limited.
	RateLimiter ratelimit.Limiter
	// CORSAllowedOrigins defaults to any origin.
	CORSAllowedOrigins []string
	// Store is pinged by /healthz; nil reports healthy.
	Store handler.Pinger
}

// NewRouter builds the root HTTP router with basic middleware and health check.
// The hub must already be running; NewRouter installs its websocket event handler.
//
// @title            Mafia API
// @version          1.0
// @description      API for hosting and playing Mafia games.
// @BasePath         /
// @SecurityDefinitions.apikey  BearerAuth
// @in               header
// @name             Authorization
func NewRouter(cfg RouterConfig) http.Handler {
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimiter = &ratelimit.Noop{}
	}
	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/healthz", handler.Health{Store: cfg.Store}.Healthz)

	// Swagger UI and generated spec (from swag comments)
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
	})
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	// WebSocket hub handler (chat is limited per client IP)
	eventHandler := websocket.NewEventHandler(cfg.Hub, cfg.Engine, rateLimiter)
	cfg.Hub.SetEventHandler(eventHandler)
	wsHandler := websocket.NewWSHandler(cfg.Hub, cfg.Engine, cfg.TokenSecret)
	r.Get("/ws/games/{game_id}", wsHandler.HandleGameWebSocket)

	rateLimitByIP := RateLimitMiddleware(rateLimiter, RateLimitKeyByIP)
	rateLimitByPlayer := RateLimitMiddleware(rateLimiter, RateLimitKeyByPlayer)
	requireHost := RequireHost(cfg.TokenSecret)
	requirePlayer := RequirePlayer(cfg.TokenSecret)

	r.Route("/api/roles", func(r chi.Router) {
		r.Get("/", handler.ListRoles)
		r.Get("/{name}", handler.GetRole)
	})

	// Game routes (body size limited to 1MB for JSON)
	gameHandler := handler.NewGameHandler(cfg.Engine, cfg.TokenSecret)
	r.Route("/api/games", func(r chi.Router) {
		r.Use(LimitRequestBody(DefaultMaxBodyBytes))
		r.With(rateLimitByIP).Post("/", gameHandler.CreateGame)

		r.Route("/{game_id}", func(r chi.Router) {
			r.With(OptionalPlayer(cfg.TokenSecret)).Get("/", gameHandler.GetGame)
			r.With(rateLimitByIP).Post("/join", gameHandler.JoinGame)

			// Host only
			r.With(requireHost).Post("/signups", gameHandler.StartSignUps)
			r.With(requireHost).Post("/start", gameHandler.StartGame)
			r.With(requireHost).Get("/snapshot", gameHandler.GetSnapshot)
			r.With(requireHost).Put("/snapshot", gameHandler.PutSnapshot)

			// Player commands
			r.Group(func(r chi.Router) {
				r.Use(requirePlayer)
				r.Use(rateLimitByPlayer)
				r.Post("/actions", gameHandler.ChooseAction)
				r.Post("/votes", gameHandler.CastVote)
				r.Post("/trial-votes", gameHandler.CastTrialVote)
				r.Post("/leave", gameHandler.Leave)
				r.Put("/last-will", gameHandler.SetLastWill)
				r.Put("/death-note", gameHandler.SetDeathNote)
			})
		})
	})

	return r
}

// DefaultRateLimiter returns an in-memory rate limiter: 20 requests per minute per key.
// Use in production or pass nil to disable. For multi-instance, replace with a shared limiter.
func DefaultRateLimiter() ratelimit.Limiter {
	return ratelimit.NewInMemory(20, time.Minute)
}
