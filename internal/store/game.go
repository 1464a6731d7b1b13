package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a game does not exist.
var ErrNotFound = errors.New("not found")

// Game represents a game instance.
type Game struct {
	ID           string                 `json:"id"`
	Status       string                 `json:"status"` // sign_up | ready_to_begin | in_progress | ended
	HostID       *string                `json:"host_id,omitempty"`
	PasswordHash *string                `json:"-"`
	Config       map[string]interface{} `json:"config"`
	CreatedAt    time.Time              `json:"created_at"`
	EndedAt      *time.Time             `json:"ended_at,omitempty"`
}

// Private reports whether joining requires a password.
func (g *Game) Private() bool {
	return g.PasswordHash != nil && *g.PasswordHash != ""
}

// GamePlayer represents a player who signed up for a game.
type GamePlayer struct {
	ID       string    `json:"id"`
	GameID   string    `json:"game_id"`
	PlayerID string    `json:"player_id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// CreateGameRequest contains the data needed to create a game.
type CreateGameRequest struct {
	Status       string                 `json:"status"`
	HostID       *string                `json:"host_id,omitempty"`
	PasswordHash *string                `json:"-"`
	Config       map[string]interface{} `json:"config,omitempty"`
}

// AddGamePlayerRequest records a sign-up.
type AddGamePlayerRequest struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

// GameStore handles database operations for games.
type GameStore struct {
	pool *pgxpool.Pool
}

// NewGameStore creates a new GameStore.
func NewGameStore(pool *pgxpool.Pool) *GameStore {
	return &GameStore{pool: pool}
}

const gameColumns = `id, status, host_id, password_hash, config_json, created_at, ended_at`

func scanGame(row pgx.Row) (*Game, error) {
	var (
		id         pgtype.UUID
		status     string
		hostID     pgtype.Text
		hash       pgtype.Text
		configJSON []byte
		createdAt  pgtype.Timestamptz
		endedAt    pgtype.Timestamptz
	)
	if err := row.Scan(&id, &status, &hostID, &hash, &configJSON, &createdAt, &endedAt); err != nil {
		return nil, err
	}
	var config map[string]interface{}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &config); err != nil {
			return nil, fmt.Errorf("decode game config: %w", err)
		}
	}
	if config == nil {
		config = make(map[string]interface{})
	}
	g := &Game{
		ID:           uuidToString(id),
		Status:       status,
		HostID:       textToString(hostID),
		PasswordHash: textToString(hash),
		Config:       config,
		CreatedAt:    timestamptzToTime(createdAt),
	}
	if endedAt.Valid {
		t := timestamptzToTime(endedAt)
		g.EndedAt = &t
	}
	return g, nil
}

// Ping checks the pool can reach the database.
func (s *GameStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateGame inserts a game row.
func (s *GameStore) CreateGame(ctx context.Context, req CreateGameRequest) (*Game, error) {
	configJSON, err := marshalJSON(req.Config)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	status := req.Status
	if status == "" {
		status = "ended"
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO games (status, host_id, password_hash, config_json)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+gameColumns,
		status, stringToText(req.HostID), stringToText(req.PasswordHash), configJSON)
	game, err := scanGame(row)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return game, nil
}

// GetGame returns the game or ErrNotFound.
func (s *GameStore) GetGame(ctx context.Context, gameID string) (*Game, error) {
	gameUUID, err := stringToUUID(gameID)
	if err != nil {
		return nil, ErrNotFound
	}
	game, err := scanGame(s.pool.QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = $1`, gameUUID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

// ListGamesByStatus returns games in any of the statuses, oldest first.
func (s *GameStore) ListGamesByStatus(ctx context.Context, statuses ...string) ([]Game, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+gameColumns+` FROM games WHERE status = ANY($1) ORDER BY created_at`, statuses)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()
	var out []Game
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
func (s *GameStore) AddGamePlayer(ctx context.Context, req AddGamePlayerRequest) error {
	gameUUID, err := stringToUUID(req.GameID)
	if err != nil {
		return fmt.Errorf("invalid game_id: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO game_players (game_id, player_id, name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (game_id, player_id) DO NOTHING`,
		gameUUID, req.PlayerID, req.Name)
	if err != nil {
		return fmt.Errorf("add game player: %w", err)
	}
	return nil
}

// GetGamePlayers returns the game's players in sign-up order.
func (s *GameStore) GetGamePlayers(ctx context.Context, gameID string) ([]GamePlayer, error) {
	gameUUID, err := stringToUUID(gameID)
	if err != nil {
		return nil, fmt.Errorf("invalid game_id: %w", err)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, game_id, player_id, name, joined_at FROM game_players
		 WHERE game_id = $1 ORDER BY joined_at, id`, gameUUID)
	if err != nil {
		return nil, fmt.Errorf("get game players: %w", err)
	}
	defer rows.Close()
	var out []GamePlayer
	for rows.Next() {
		var (
			id, gid  pgtype.UUID
			p        GamePlayer
			joinedAt pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &gid, &p.PlayerID, &p.Name, &joinedAt); err != nil {
			return nil, fmt.Errorf("scan game player: %w", err)
		}
		p.ID = uuidToString(id)
		p.GameID = uuidToString(gid)
		p.JoinedAt = timestamptzToTime(joinedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateOrUpdateSnapshot creates a new snapshot for the game with the next version number.
// stateJSON is the full state to store. Returns the new snapshot's version.
func (s *GameStore) CreateOrUpdateSnapshot(ctx context.Context, gameID string, stateJSON map[string]interface{}) (version int32, err error) {
	gameUUID, err := stringToUUID(gameID)
	if err != nil {
		return 0, fmt.Errorf("invalid game_id: %w", err)
	}
	data, err := marshalJSON(stateJSON)
	if err != nil {
		return 0, fmt.Errorf("marshal state: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var latest pgtype.Int4
	if err := tx.QueryRow(ctx,
		`SELECT MAX(version) FROM game_state_snapshots WHERE game_id = $1`, gameUUID).Scan(&latest); err != nil {
		return 0, fmt.Errorf("get latest snapshot: %w", err)
	}
	nextVersion := int32(1)
	if latest.Valid {
		nextVersion = latest.Int32 + 1
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO game_state_snapshots (game_id, version, state_json) VALUES ($1, $2, $3)`,
		gameUUID, nextVersion, data); err != nil {
		return 0, fmt.Errorf("create snapshot: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return nextVersion, nil
}

// GetLatestSnapshot returns the latest game state snapshot as a map, or nil if none exists.
func (s *GameStore) GetLatestSnapshot(ctx context.Context, gameID string) (map[string]interface{}, error) {
	gameUUID, err := stringToUUID(gameID)
	if err != nil {
		return nil, fmt.Errorf("invalid game_id: %w", err)
	}
	var data []byte
	err = s.pool.QueryRow(ctx,
		`SELECT state_json FROM game_state_snapshots WHERE game_id = $1 ORDER BY version DESC LIMIT 1`,
		gameUUID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return unmarshalState(data)
}

// UpdateGameStatus updates the game's status and optionally ended_at.
func (s *GameStore) UpdateGameStatus(ctx context.Context, gameID string, status string, endedAt *time.Time) error {
	gameUUID, err := stringToUUID(gameID)
	if err != nil {
		return fmt.Errorf("invalid game_id: %w", err)
	}
	var endAt pgtype.Timestamptz
	if endedAt != nil {
		endAt = pgtype.Timestamptz{Time: *endedAt, Valid: true}
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE games SET status = $2, ended_at = COALESCE($3, ended_at) WHERE id = $1`,
		gameUUID, status, endAt)
	if err != nil {
		return fmt.Errorf("update game status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalJSON(m map[string]interface{}) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func unmarshalState(data []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
	}
	if out == nil {
		out = make(map[string]interface{})
	}
	return out, nil
}

// uuidToString converts pgtype.UUID to string.
func uuidToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	id, err := uuid.FromBytes(u.Bytes[:])
	if err != nil {
		return ""
	}
	return id.String()
}

// stringToUUID converts string to pgtype.UUID.
func stringToUUID(s string) (pgtype.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, err
	}
	var u pgtype.UUID
	copy(u.Bytes[:], id[:])
	u.Valid = true
	return u, nil
}

// textToString converts pgtype.Text to *string (nullable).
func textToString(text pgtype.Text) *string {
	if !text.Valid {
		return nil
	}
	return &text.String
}

// stringToText converts *string to pgtype.Text (nullable).
func stringToText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *s, Valid: true}
}

// timestamptzToTime converts pgtype.Timestamptz to time.Time.
func timestamptzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}
