package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vntrieu/mafia/internal/config"
	"github.com/vntrieu/mafia/internal/database"
	"github.com/vntrieu/mafia/internal/games"
	"github.com/vntrieu/mafia/internal/httpapi"
	"github.com/vntrieu/mafia/internal/httpapi/handler"
	"github.com/vntrieu/mafia/internal/notify"
	"github.com/vntrieu/mafia/internal/ratelimit"
	"github.com/vntrieu/mafia/internal/store"
	"github.com/vntrieu/mafia/internal/store/sqlitestore"
	"github.com/vntrieu/mafia/internal/websocket"
)

// gameStore is what the engine persists through, whichever driver backs it.
type gameStore interface {
	games.GameStore
	games.GameEventStore
	handler.Pinger
}

// pgStore joins the two PostgreSQL stores into one.
type pgStore struct {
	*store.GameStore
	*store.GameEventStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, closeDB := openStore(ctx, cfg)
	defer closeDB()

	// Hub delivers announcements, private feedback and faction chat to websocket clients.
	hub := websocket.NewHub(nil)
	go hub.Run()

	var webhook games.Notifier
	if cfg.NotifyWebhookURL != "" {
		hook := notify.NewWebhook(cfg.NotifyWebhookURL, 5*time.Second)
		defer hook.Flush()
		webhook = hook
		log.Printf("webhook notifier enabled")
	}

	engine := games.NewEngine(db, db, cfg.Rules(),
		games.WithNotifier(notify.Build(hub, webhook), hub),
		games.WithPublisher(hub),
		games.WithSeed(cfg.RNGSeed),
	)
	defer engine.Close()

	n, err := engine.Recover(ctx)
	if err != nil {
		log.Fatalf("recover games: %v", err)
	}
	log.Printf("recovered %d unfinished games", n)

	limiter := ratelimit.PerMinute(cfg.RateLimitPerMinute)
	if mem, ok := limiter.(*ratelimit.InMemory); ok {
		go sweep(mem, 5*time.Minute)
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Engine:             engine,
		Hub:                hub,
		TokenSecret:        cfg.Secret(),
		RateLimiter:        limiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Store:              db,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("mafia backend listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

// openStore connects to the configured backend and runs pending migrations.
func openStore(ctx context.Context, cfg config.Config) (gameStore, func()) {
	if strings.EqualFold(cfg.StoreDriver, config.DriverSQLite) {
		db, err := sqlitestore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			log.Fatalf("sqlite open: %v", err)
		}
		log.Printf("using sqlite store at %s", cfg.SQLitePath)
		return db, func() { _ = db.Close() }
	}

	// Connect to PostgreSQL.
	dbPool, err := database.Connect(ctx, cfg.DatabaseURL, cfg.Pool())
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	log.Println("connected to database")

	// Run pending migrations.
	if err := database.Migrate(ctx, dbPool, cfg.MigrationsDir); err != nil {
		dbPool.Close()
		log.Fatalf("database migrate: %v", err)
	}
	log.Println("migrations up to date")

	return pgStore{
		GameStore:      store.NewGameStore(dbPool),
		GameEventStore: store.NewGameEventStore(dbPool),
	}, dbPool.Close
}

func sweep(lim *ratelimit.InMemory, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for range t.C {
		lim.Sweep()
	}
}
