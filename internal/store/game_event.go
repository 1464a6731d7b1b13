package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GameEvent represents a game event.
type GameEvent struct {
	ID        string                 `json:"id"`
	GameID    string                 `json:"game_id"`
	PlayerID  *string                `json:"player_id,omitempty"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}

// CreateGameEventRequest contains the data needed to create a game event.
type CreateGameEventRequest struct {
	GameID   string                 `json:"game_id"`
	PlayerID *string                `json:"player_id,omitempty"`
	Type     string                 `json:"type"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}

// GameEventStore handles database operations for game events.
type GameEventStore struct {
	pool *pgxpool.Pool
}

// NewGameEventStore creates a new GameEventStore.
func NewGameEventStore(pool *pgxpool.Pool) *GameEventStore {
	return &GameEventStore{pool: pool}
}

// CreateGameEvent creates a new game event.
func (s *GameEventStore) CreateGameEvent(ctx context.Context, req CreateGameEventRequest) (*GameEvent, error) {
	gameUUID, err := stringToUUID(req.GameID)
	if err != nil {
		return nil, fmt.Errorf("invalid game_id: %w", err)
	}
	payloadJSON, err := marshalJSON(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	err = s.pool.QueryRow(ctx,
		`INSERT INTO game_events (game_id, player_id, type, payload_json)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		gameUUID, stringToText(req.PlayerID), req.Type, payloadJSON).Scan(&id, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("create game event: %w", err)
	}

	payload := req.Payload
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &GameEvent{
		ID:        uuidToString(id),
		GameID:    req.GameID,
		PlayerID:  req.PlayerID,
		Type:      req.Type,
		Payload:   payload,
		CreatedAt: timestamptzToTime(createdAt),
	}, nil
}

// GetGameEvents retrieves all events for a game in order.
func (s *GameEventStore) GetGameEvents(ctx context.Context, gameID string) ([]GameEvent, error) {
	gameUUID, err := stringToUUID(gameID)
	if err != nil {
		return nil, fmt.Errorf("invalid game_id: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, game_id, player_id, type, payload_json, created_at
		 FROM game_events WHERE game_id = $1 ORDER BY created_at, seq`, gameUUID)
	if err != nil {
		return nil, fmt.Errorf("get game events: %w", err)
	}
	defer rows.Close()

	events := make([]GameEvent, 0)
	for rows.Next() {
		var (
			id, gid     pgtype.UUID
			playerID    pgtype.Text
			eventType   string
			payloadJSON []byte
			createdAt   pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &gid, &playerID, &eventType, &payloadJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan game event: %w", err)
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(payloadJSON, &payload); err != nil {
			payload = make(map[string]interface{})
		}
		events = append(events, GameEvent{
			ID:        uuidToString(id),
			GameID:    uuidToString(gid),
			PlayerID:  textToString(playerID),
			Type:      eventType,
			Payload:   payload,
			CreatedAt: timestamptzToTime(createdAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get game events: %w", err)
	}
	return events, nil
}
