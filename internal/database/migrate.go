package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/vntrieu/mafia/migrations"
)

// Migrate runs the postgres migrations using goose. An empty migrationsDir
// uses the migrations embedded in the binary.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrationsDir string) error {
	// Convert pgxpool.Pool to *sql.DB for goose compatibility
	connConfig := pool.Config().ConnConfig
	db := stdlib.OpenDB(*connConfig)
	defer db.Close()

	if migrationsDir != "" {
		if err := goose.SetDialect("postgres"); err != nil {
			return fmt.Errorf("set goose dialect: %w", err)
		}
		if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		return nil
	}
	return up(ctx, goose.DialectPostgres, db, "postgres")
}

// MigrateSQLite applies the embedded sqlite migrations.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	return up(ctx, goose.DialectSQLite3, db, "sqlite")
}

func up(ctx context.Context, dialect goose.Dialect, db *sql.DB, dir string) error {
	fsys, err := fs.Sub(migrations.FS, dir)
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		log.Printf("migration applied: dialect=%s version=%d duration=%s", dialect, r.Source.Version, r.Duration)
	}
	return nil
}
