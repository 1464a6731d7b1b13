// Package sqlitestore is the embedded SQLite backend for games, snapshots
// and events. It implements the same methods as the postgres stores.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vntrieu/mafia/internal/database"
	"github.com/vntrieu/mafia/internal/store"
)

// Store persists games in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps snapshot version allocation serialized.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := database.MigrateSQLite(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping checks the database handle is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

const gameColumns = `id, status, host_id, password_hash, config_json, created_at, ended_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*store.Game, error) {
	var (
		g          store.Game
		hostID     sql.NullString
		hash       sql.NullString
		configJSON string
		createdAt  int64
		endedAt    sql.NullInt64
	)
	if err := row.Scan(&g.ID, &g.Status, &hostID, &hash, &configJSON, &createdAt, &endedAt); err != nil {
		return nil, err
	}
	if configJSON != "" {
		if err := json.Unmarshal([]byte(configJSON), &g.Config); err != nil {
			return nil, fmt.Errorf("decode game config: %w", err)
		}
	}
	if g.Config == nil {
		g.Config = make(map[string]interface{})
	}
	if hostID.Valid {
		g.HostID = &hostID.String
	}
	if hash.Valid {
		g.PasswordHash = &hash.String
	}
	g.CreatedAt = fromMillis(createdAt)
	if endedAt.Valid {
		t := fromMillis(endedAt.Int64)
		g.EndedAt = &t
	}
	return &g, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func marshalJSON(m map[string]interface{}) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CreateGame inserts a game row.
func (s *Store) CreateGame(ctx context.Context, req store.CreateGameRequest) (*store.Game, error) {
	configJSON, err := marshalJSON(req.Config)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	status := req.Status
	if status == "" {
		status = "ended"
	}
	id := uuid.NewString()
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO games (id, status, host_id, password_hash, config_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, status, nullString(req.HostID), nullString(req.PasswordHash), configJSON, toMillis(s.now())); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return s.GetGame(ctx, id)
}

// GetGame returns the game or store.ErrNotFound.
func (s *Store) GetGame(ctx context.Context, gameID string) (*store.Game, error) {
	game, err := scanGame(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = ?`, gameID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

// ListGamesByStatus returns games in any of the statuses, oldest first.
func (s *Store) ListGamesByStatus(ctx context.Context, statuses ...string) ([]store.Game, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = st
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE status IN (`+placeholders+`) ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()
	var out []store.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return out, nil
}

// AddGamePlayer records a sign-up. Joining twice with the same player id is a no-op.
func (s *Store) AddGamePlayer(ctx context.Context, req store.AddGamePlayerRequest) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO game_players (game_id, player_id, name, joined_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (game_id, player_id) DO NOTHING`,
		req.GameID, req.PlayerID, req.Name, toMillis(s.now())); err != nil {
		return fmt.Errorf("add game player: %w", err)
	}
	return nil
}

// GetGamePlayers returns the game's players in sign-up order.
func (s *Store) GetGamePlayers(ctx context.Context, gameID string) ([]store.GamePlayer, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, game_id, player_id, name, joined_at FROM game_players WHERE game_id = ? ORDER BY id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("get game players: %w", err)
	}
	defer rows.Close()
	var out []store.GamePlayer
	for rows.Next() {
		var (
			p        store.GamePlayer
			id       int64
			joinedAt int64
		)
		if err := rows.Scan(&id, &p.GameID, &p.PlayerID, &p.Name, &joinedAt); err != nil {
			return nil, fmt.Errorf("scan game player: %w", err)
		}
		p.ID = fmt.Sprintf("%d", id)
		p.JoinedAt = fromMillis(joinedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateOrUpdateSnapshot stores a new snapshot with the next version number.
func (s *Store) CreateOrUpdateSnapshot(ctx context.Context, gameID string, stateJSON map[string]interface{}) (int32, error) {
	data, err := marshalJSON(stateJSON)
	if err != nil {
		return 0, fmt.Errorf("marshal state: %w", err)
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var latest sql.NullInt32
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(version) FROM game_state_snapshots WHERE game_id = ?`, gameID).Scan(&latest); err != nil {
		return 0, fmt.Errorf("get latest snapshot: %w", err)
	}
	next := int32(1)
	if latest.Valid {
		next = latest.Int32 + 1
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO game_state_snapshots (game_id, version, state_json, created_at) VALUES (?, ?, ?, ?)`,
		gameID, next, data, toMillis(s.now())); err != nil {
		return 0, fmt.Errorf("create snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return next, nil
}

// GetLatestSnapshot returns the latest snapshot, or nil if none exists.
func (s *Store) GetLatestSnapshot(ctx context.Context, gameID string) (map[string]interface{}, error) {
	var data string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT state_json FROM game_state_snapshots WHERE game_id = ? ORDER BY version DESC LIMIT 1`,
		gameID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if out == nil {
		out = make(map[string]interface{})
	}
	return out, nil
}

// UpdateGameStatus updates the game's status and optionally ended_at.
func (s *Store) UpdateGameStatus(ctx context.Context, gameID string, status string, endedAt *time.Time) error {
	var end sql.NullInt64
	if endedAt != nil {
		end = sql.NullInt64{Int64: toMillis(*endedAt), Valid: true}
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE games SET status = ?, ended_at = COALESCE(?, ended_at) WHERE id = ?`,
		status, end, gameID)
	if err != nil {
		return fmt.Errorf("update game status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateGameEvent appends an event.
func (s *Store) CreateGameEvent(ctx context.Context, req store.CreateGameEventRequest) (*store.GameEvent, error) {
	payloadJSON, err := marshalJSON(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	now := s.now()
	id := uuid.NewString()
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO game_events (id, game_id, player_id, type, payload_json, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, req.GameID, nullString(req.PlayerID), req.Type, payloadJSON, toMillis(now)); err != nil {
		return nil, fmt.Errorf("create game event: %w", err)
	}
	payload := req.Payload
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &store.GameEvent{
		ID:        id,
		GameID:    req.GameID,
		PlayerID:  req.PlayerID,
		Type:      req.Type,
		Payload:   payload,
		CreatedAt: fromMillis(toMillis(now)),
	}, nil
}

// GetGameEvents returns the game's events in insertion order.
func (s *Store) GetGameEvents(ctx context.Context, gameID string) ([]store.GameEvent, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, game_id, player_id, type, payload_json, created_at FROM game_events WHERE game_id = ? ORDER BY seq`, gameID)
	if err != nil {
		return nil, fmt.Errorf("get game events: %w", err)
	}
	defer rows.Close()
	events := make([]store.GameEvent, 0)
	for rows.Next() {
		var (
			ev          store.GameEvent
			playerID    sql.NullString
			payloadJSON string
			createdAt   int64
		)
		if err := rows.Scan(&ev.ID, &ev.GameID, &playerID, &ev.Type, &payloadJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan game event: %w", err)
		}
		if playerID.Valid {
			ev.PlayerID = &playerID.String
		}
		if err := json.Unmarshal([]byte(payloadJSON), &ev.Payload); err != nil || ev.Payload == nil {
			ev.Payload = make(map[string]interface{})
		}
		ev.CreatedAt = fromMillis(createdAt)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get game events: %w", err)
	}
	return events, nil
}
