package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vntrieu/mafia/internal/auth"
	"github.com/vntrieu/mafia/internal/games"
	"github.com/vntrieu/mafia/internal/store"
)

// Validation limits for game endpoints.
const (
	PasswordMaxLen   = 128
	RoleListMaxLen   = 64
	ExternalIDMaxLen = 128
)

// GameEngine is the subset of *games.Engine the HTTP layer drives.
type GameEngine interface {
	CreateGame(ctx context.Context, params games.CreateGameParams) (*store.Game, error)
	StartSignUps(ctx context.Context, gameID string) error
	Join(ctx context.Context, gameID, name, externalID, password string) (*games.Player, error)
	StartGame(ctx context.Context, gameID string, identifiers []string) error
	View(ctx context.Context, gameID, playerID string) (games.PublicView, error)
	Snapshot(ctx context.Context, gameID string) (*games.GameState, error)
	LoadSnapshot(ctx context.Context, gameID string, doc map[string]interface{}) error
	ChooseAction(ctx context.Context, gameID, playerID, ability string, args []string) (string, error)
	CastVote(ctx context.Context, gameID, playerID, target string) (string, error)
	CastTrialVote(ctx context.Context, gameID, playerID, verdict string) (string, error)
	SetLastWill(ctx context.Context, gameID, playerID, text string) error
	SetDeathNote(ctx context.Context, gameID, playerID, text string) error
	Leave(ctx context.Context, gameID, playerID string) error
}

// CreateGameRequest is the body for POST /api/games.
type CreateGameRequest struct {
	HostID   string             `json:"host_id,omitempty"`
	Password string             `json:"password,omitempty"`
	Rules    *games.RulesConfig `json:"rules,omitempty"`
}

// CreateGameResponse carries the new game and the host token.
type CreateGameResponse struct {
	Game      *store.Game `json:"game"`
	Token     string      `json:"token,omitempty"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

// StartGameRequest is the body for POST /api/games/{game_id}/start.
type StartGameRequest struct {
	Roles []string `json:"roles"`
}

// JoinGameRequest is the body for POST /api/games/{game_id}/join.
type JoinGameRequest struct {
	Name       string `json:"name"`
	ExternalID string `json:"external_id,omitempty"`
	Password   string `json:"password,omitempty"`
}

// JoinGameResponse carries the new player and their token.
type JoinGameResponse struct {
	PlayerID  string     `json:"player_id"`
	Name      string     `json:"name"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ActionRequest is the body for POST /api/games/{game_id}/actions.
type ActionRequest struct {
	Ability string   `json:"ability"`
	Args    []string `json:"args,omitempty"`
}

// VoteRequest is the body for POST /api/games/{game_id}/votes.
type VoteRequest struct {
	Target string `json:"target"`
}

// TrialVoteRequest is the body for POST /api/games/{game_id}/trial-votes.
type TrialVoteRequest struct {
	Verdict string `json:"verdict"`
}

// TextRequest is the body for PUT last-will and death-note.
type TextRequest struct {
	Text string `json:"text"`
}

// ReplyResponse is the player-facing confirmation of a command.
type ReplyResponse struct {
	Text string `json:"text"`
}

// GameHandler handles game-related HTTP requests.
type GameHandler struct {
	engine      GameEngine
	tokenSecret []byte
}

// NewGameHandler creates a new GameHandler. If tokenSecret is empty, create/join responses omit the token.
func NewGameHandler(engine GameEngine, tokenSecret []byte) *GameHandler {
	return &GameHandler{engine: engine, tokenSecret: tokenSecret}
}

// CreateGame handles POST /api/games.
//
// @Summary      Create game
// @Description  Create a new game. The response carries a host token for the host-only routes. A password makes the game private.
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        body  body      CreateGameRequest  false  "Request body"
// @Success      201   {object}  CreateGameResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/games [post]
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var body CreateGameRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if len(body.Password) > PasswordMaxLen {
		writeError(w, r, http.StatusBadRequest, "password must be at most 128 characters")
		return
	}

	game, err := h.engine.CreateGame(r.Context(), games.CreateGameParams{
		HostID:   strings.TrimSpace(body.HostID),
		Password: body.Password,
		Rules:    body.Rules,
	})
	if err != nil {
		writeEngineError(w, r, "create game", err)
		return
	}

	resp := CreateGameResponse{Game: game}
	if len(h.tokenSecret) > 0 {
		token, expiresAt, err := auth.GenerateHostToken(game.ID, h.tokenSecret, auth.DefaultTokenExpiry)
		if err != nil {
			log.Printf("[%s] generate token error: %v", requestID(r), err)
			writeError(w, r, http.StatusInternalServerError, "failed to create game")
			return
		}
		resp.Token = token
		resp.ExpiresAt = &expiresAt
	}
	writeJSON(w, r, http.StatusCreated, resp)
}

// StartSignUps handles POST /api/games/{game_id}/signups.
//
// @Summary      Open sign-ups
// @Description  Open sign-ups for a game that is not running. Host only.
// @Tags         games
// @Produce      json
// @Param        game_id  path      string  true  "Game ID"
// @Success      200      {object}  games.PublicView
// @Failure      400      {object}  errorResponse
// @Failure      401      {string}  string  "Unauthorized"
// @Failure      404      {object}  errorResponse
// @Security     BearerAuth
// @Router       /api/games/{game_id}/signups [post]
func (h *GameHandler) StartSignUps(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	if err := h.engine.StartSignUps(r.Context(), gameID); err != nil {
		writeEngineError(w, r, "start sign-ups", err)
		return
	}
	h.writeView(w, r, gameID, "")
}

// StartGame handles POST /api/games/{game_id}/start.
//
// @Summary      Start game
// @Description  Close sign-ups if still open, assign roles from the role list and begin day one. Host only.
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        game_id  path      string            true  "Game ID"
// @Param        body     body      StartGameRequest  true  "Role identifiers, one per player"
// @Success      200      {object}  games.PublicView
// @Failure      400      {object}  errorResponse
// @Failure      401      {string}  string  "Unauthorized"
// @Failure      404      {object}  errorResponse
// @Security     BearerAuth
// @Router       /api/games/{game_id}/start [post]
func (h *GameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	var body StartGameRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if len(body.Roles) == 0 || len(body.Roles) > RoleListMaxLen {
		writeError(w, r, http.StatusBadRequest, "roles must list one identifier per player")
		return
	}
	if err := h.engine.StartGame(r.Context(), gameID, body.Roles); err != nil {
		writeEngineError(w, r, "start game", err)
		return
	}
	h.writeView(w, r, gameID, "")
}

// JoinGame handles POST /api/games/{game_id}/join.
//
// @Summary      Join game
// @Description  Sign up for a game. Returns the player id and a player token for the command routes and the websocket.
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        game_id  path      string           true  "Game ID"
// @Param        body     body      JoinGameRequest  true  "Request body"
// @Success      201      {object}  JoinGameResponse
// @Failure      400      {object}  errorResponse
// @Failure      403      {object}  errorResponse  "Wrong password"
// @Failure      404      {object}  errorResponse
// @Router       /api/games/{game_id}/join [post]
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	var body JoinGameRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if len(body.Password) > PasswordMaxLen || len(body.ExternalID) > ExternalIDMaxLen {
		writeError(w, r, http.StatusBadRequest, "password or external_id too long")
		return
	}

	player, err := h.engine.Join(r.Context(), gameID, body.Name, strings.TrimSpace(body.ExternalID), body.Password)
	if err != nil {
		writeEngineError(w, r, "join game", err)
		return
	}

	resp := JoinGameResponse{PlayerID: player.ID, Name: player.Name}
	if len(h.tokenSecret) > 0 {
		token, expiresAt, err := auth.GeneratePlayerToken(gameID, player.ID, h.tokenSecret, auth.DefaultTokenExpiry)
		if err != nil {
			log.Printf("[%s] generate token error: %v", requestID(r), err)
			writeError(w, r, http.StatusInternalServerError, "failed to join game")
			return
		}
		resp.Token = token
		resp.ExpiresAt = &expiresAt
	}
	writeJSON(w, r, http.StatusCreated, resp)
}

// GetGame handles GET /api/games/{game_id}.
//
// @Summary      Get game
// @Description  Public view of the game. With a player token the caller's private details are included under self.
// @Tags         games
// @Produce      json
// @Param        game_id  path      string  true  "Game ID"
// @Success      200      {object}  games.PublicView
// @Failure      404      {object}  errorResponse
// @Router       /api/games/{game_id} [get]
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	playerID := ""
	if c := ClaimsFromRequest(r); c != nil {
		playerID = c.PlayerID
	}
	h.writeView(w, r, chi.URLParam(r, "game_id"), playerID)
}

// GetSnapshot handles GET /api/games/{game_id}/snapshot.
//
// @Summary      Get snapshot
// @Description  The full state document, hidden information included. Host only.
// @Tags         games
// @Produce      json
// @Param        game_id  path      string  true  "Game ID"
// @Success      200      {object}  games.GameState
// @Failure      401      {string}  string  "Unauthorized"
// @Failure      404      {object}  errorResponse
// @Security     BearerAuth
// @Router       /api/games/{game_id}/snapshot [get]
func (h *GameHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	state, err := h.engine.Snapshot(r.Context(), chi.URLParam(r, "game_id"))
	if err != nil {
		writeEngineError(w, r, "get snapshot", err)
		return
	}
	writeJSON(w, r, http.StatusOK, state)
}

// PutSnapshot handles PUT /api/games/{game_id}/snapshot.
//
// @Summary      Load snapshot
// @Description  Replace the game's state with a previously exported document. Host only. A malformed document leaves the game unchanged.
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        game_id  path      string                  true  "Game ID"
// @Param        body     body      map[string]interface{}  true  "State document"
// @Success      200      {object}  games.PublicView
// @Failure      400      {object}  errorResponse
// @Failure      401      {string}  string  "Unauthorized"
// @Failure      500      {object}  errorResponse  "Malformed document"
// @Security     BearerAuth
// @Router       /api/games/{game_id}/snapshot [put]
func (h *GameHandler) PutSnapshot(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	var doc map[string]interface{}
	if !decodeBody(w, r, &doc) {
		return
	}
	if len(doc) == 0 {
		writeError(w, r, http.StatusBadRequest, "state document is required")
		return
	}
	if err := h.engine.LoadSnapshot(r.Context(), gameID, doc); err != nil {
		writeEngineError(w, r, "load snapshot", err)
		return
	}
	h.writeView(w, r, gameID, "")
}

// ChooseAction handles POST /api/games/{game_id}/actions.
//
// @Summary      Choose night action
// @Description  Choose the ability to use tonight, or "nothing". Arguments are player names.
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        game_id  path      string         true  "Game ID"
// @Param        body     body      ActionRequest  true  "Request body"
// @Success      200      {object}  ReplyResponse
// @Failure      400      {object}  errorResponse
// @Failure      401      {string}  string  "Unauthorized"
// @Security     BearerAuth
// @Router       /api/games/{game_id}/actions [post]
func (h *GameHandler) ChooseAction(w http.ResponseWriter, r *http.Request) {
	var body ActionRequest
	if !decodeBody(w, r, &body) {
		return
	}
	c := ClaimsFromRequest(r)
	text, err := h.engine.ChooseAction(r.Context(), c.GameID, c.PlayerID, body.Ability, body.Args)
	h.writeReply(w, r, "choose action", text, err)
}

// CastVote handles POST /api/games/{game_id}/votes.
//
// @Summary      Vote
// @Description  Vote to put a player on trial, or "nobody" to skip the trial.
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        game_id  path      string       true  "Game ID"
// @Param        body     body      VoteRequest  true  "Request body"
// @Success      200      {object}  ReplyResponse
// @Failure      400      {object}  errorResponse
// @Failure      401      {string}  string  "Unauthorized"
// @Security     BearerAuth
// @Router       /api/games/{game_id}/votes [post]
func (h *GameHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var body VoteRequest
	if !decodeBody(w, r, &body) {
		return
	}
	c := ClaimsFromRequest(r)
	text, err := h.engine.CastVote(r.Context(), c.GameID, c.PlayerID, body.Target)
	h.writeReply(w, r, "vote", text, err)
}

// CastTrialVote handles POST /api/games/{game_id}/trial-votes.
//
// @Summary      Trial vote
// @Description  Vote guilty, innocent or abstain on the player on trial.
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        game_id  path      string            true  "Game ID"
// @Param        body     body      TrialVoteRequest  true  "Request body"
// @Success      200      {object}  ReplyResponse
// @Failure      400      {object}  errorResponse
// @Failure      401      {string}  string  "Unauthorized"
// @Security     BearerAuth
// @Router       /api/games/{game_id}/trial-votes [post]
func (h *GameHandler) CastTrialVote(w http.ResponseWriter, r *http.Request) {
	var body TrialVoteRequest
	if !decodeBody(w, r, &body) {
		return
	}
	c := ClaimsFromRequest(r)
	text, err := h.engine.CastTrialVote(r.Context(), c.GameID, c.PlayerID, body.Verdict)
	h.writeReply(w, r, "trial vote", text, err)
}

// Leave handles POST /api/games/{game_id}/leave.
//
// @Summary      Leave game
// @Description  Leave sign-ups, or die at the next death resolution if the game is running.
// @Tags         commands
// @Param        game_id  path  string  true  "Game ID"
// @Success      204
// @Failure      400      {object}  errorResponse
// @Failure      401      {string}  string  "Unauthorized"
// @Security     BearerAuth
// @Router       /api/games/{game_id}/leave [post]
func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFromRequest(r)
	if err := h.engine.Leave(r.Context(), c.GameID, c.PlayerID); err != nil {
		writeEngineError(w, r, "leave game", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetLastWill handles PUT /api/games/{game_id}/last-will.
//
// @Summary      Set last will
// @Description  Revealed when the player dies.
// @Tags         commands
// @Accept       json
// @Param        game_id  path  string       true  "Game ID"
// @Param        body     body  TextRequest  true  "Request body"
// @Success      204
// @Failure      400      {object}  errorResponse
// @Failure      401      {string}  string  "Unauthorized"
// @Security     BearerAuth
// @Router       /api/games/{game_id}/last-will [put]
func (h *GameHandler) SetLastWill(w http.ResponseWriter, r *http.Request) {
	var body TextRequest
	if !decodeBody(w, r, &body) {
		return
	}
	c := ClaimsFromRequest(r)
	if err := h.engine.SetLastWill(r.Context(), c.GameID, c.PlayerID, body.Text); err != nil {
		writeEngineError(w, r, "set last will", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDeathNote handles PUT /api/games/{game_id}/death-note.
//
// @Summary      Set death note
// @Description  Left on the player's victims.
// @Tags         commands
// @Accept       json
// @Param        game_id  path  string       true  "Game ID"
// @Param        body     body  TextRequest  true  "Request body"
// @Success      204
// @Failure      400      {object}  errorResponse
// @Failure      401      {string}  string  "Unauthorized"
// @Security     BearerAuth
// @Router       /api/games/{game_id}/death-note [put]
func (h *GameHandler) SetDeathNote(w http.ResponseWriter, r *http.Request) {
	var body TextRequest
	if !decodeBody(w, r, &body) {
		return
	}
	c := ClaimsFromRequest(r)
	if err := h.engine.SetDeathNote(r.Context(), c.GameID, c.PlayerID, body.Text); err != nil {
		writeEngineError(w, r, "set death note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) writeView(w http.ResponseWriter, r *http.Request, gameID, playerID string) {
	view, err := h.engine.View(r.Context(), gameID, playerID)
	if err != nil {
		writeEngineError(w, r, "get game", err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (h *GameHandler) writeReply(w http.ResponseWriter, r *http.Request, op, text string, err error) {
	if err != nil {
		writeEngineError(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ReplyResponse{Text: text})
}
