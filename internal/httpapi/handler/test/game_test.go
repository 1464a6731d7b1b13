package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vntrieu/mafia/internal/auth"
	"github.com/vntrieu/mafia/internal/games"
	"github.com/vntrieu/mafia/internal/httpapi/handler"
	"github.com/vntrieu/mafia/internal/store"
)

var testSecret = []byte("handler-secret")

// fakeEngine returns canned results and records the last call.
type fakeEngine struct {
	err      error
	viewErr  error
	lastCall string
	lastArgs []string
	created  games.CreateGameParams
	loaded   map[string]interface{}
}

func (f *fakeEngine) CreateGame(_ context.Context, params games.CreateGameParams) (*store.Game, error) {
	f.created = params
	if f.err != nil {
		return nil, f.err
	}
	return &store.Game{ID: "game-1", Status: "ended", CreatedAt: time.Now()}, nil
}

func (f *fakeEngine) StartSignUps(_ context.Context, gameID string) error {
	f.lastCall = "signups:" + gameID
	return f.err
}

func (f *fakeEngine) Join(_ context.Context, _, name, externalID, _ string) (*games.Player, error) {
	f.lastCall = "join:" + name
	if f.err != nil {
		return nil, f.err
	}
	if externalID == "" {
		externalID = "generated"
	}
	return &games.Player{ID: externalID, Name: name}, nil
}

func (f *fakeEngine) StartGame(_ context.Context, _ string, identifiers []string) error {
	f.lastCall, f.lastArgs = "start", identifiers
	return f.err
}

func (f *fakeEngine) View(_ context.Context, gameID, playerID string) (games.PublicView, error) {
	if f.viewErr != nil {
		return games.PublicView{}, f.viewErr
	}
	v := games.PublicView{GameID: gameID, Status: games.StatusSignUp}
	if playerID != "" {
		v.Self = &games.PrivatePlayer{ID: playerID, Name: "Alice", Alive: true}
	}
	return v, nil
}

func (f *fakeEngine) Snapshot(_ context.Context, gameID string) (*games.GameState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return games.NewGameState(gameID), nil
}

func (f *fakeEngine) LoadSnapshot(_ context.Context, _ string, doc map[string]interface{}) error {
	f.loaded = doc
	return f.err
}

func (f *fakeEngine) ChooseAction(_ context.Context, _, playerID, ability string, args []string) (string, error) {
	f.lastCall, f.lastArgs = "action:"+playerID+":"+ability, args
	return "You will heal Bob tonight.", f.err
}

func (f *fakeEngine) CastVote(_ context.Context, _, playerID, target string) (string, error) {
	f.lastCall = "vote:" + playerID + ":" + target
	return "You voted for **Bob**.", f.err
}

func (f *fakeEngine) CastTrialVote(_ context.Context, _, playerID, verdict string) (string, error) {
	f.lastCall = "trial:" + playerID + ":" + verdict
	return "You voted **Guilty**.", f.err
}

func (f *fakeEngine) SetLastWill(_ context.Context, _, playerID, text string) error {
	f.lastCall = "will:" + playerID + ":" + text
	return f.err
}

func (f *fakeEngine) SetDeathNote(_ context.Context, _, playerID, text string) error {
	f.lastCall = "note:" + playerID + ":" + text
	return f.err
}

func (f *fakeEngine) Leave(_ context.Context, _, playerID string) error {
	f.lastCall = "leave:" + playerID
	return f.err
}

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func requestWithGameChi(r *http.Request, gameID string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams = chi.RouteParams{Keys: []string{"game_id"}, Values: []string{gameID}}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, ctx))
}

func requestWithPlayer(r *http.Request, gameID, playerID string) *http.Request {
	r = requestWithGameChi(r, gameID)
	claims := &auth.Claims{GameID: gameID, PlayerID: playerID}
	return r.WithContext(context.WithValue(r.Context(), handler.ClaimsContextKey, claims))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v (raw=%s)", err, w.Body.String())
	}
	return body.Error
}

func TestCreateGameHandler(t *testing.T) {
	t.Run("201 with host token", func(t *testing.T) {
		engine := &fakeEngine{}
		h := handler.NewGameHandler(engine, testSecret)

		w := httptest.NewRecorder()
		h.CreateGame(w, jsonRequest(t, http.MethodPost, "/api/games", map[string]interface{}{"password": "secret"}))

		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
		}
		var resp handler.CreateGameResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Game == nil || resp.Game.ID != "game-1" {
			t.Fatalf("unexpected game: %+v", resp.Game)
		}
		claims, err := auth.VerifyToken(resp.Token, testSecret)
		if err != nil || !claims.Host || claims.GameID != "game-1" {
			t.Errorf("expected host token, got claims=%+v err=%v", claims, err)
		}
		if engine.created.Password != "secret" {
			t.Errorf("expected password passed through, got %+v", engine.created)
		}
	})

	t.Run("no token without secret", func(t *testing.T) {
		h := handler.NewGameHandler(&fakeEngine{}, nil)
		w := httptest.NewRecorder()
		h.CreateGame(w, httptest.NewRequest(http.MethodPost, "/api/games", nil))
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		var resp handler.CreateGameResponse
		_ = json.NewDecoder(w.Body).Decode(&resp)
		if resp.Token != "" {
			t.Errorf("expected no token, got %q", resp.Token)
		}
	})

	t.Run("400 for invalid body", func(t *testing.T) {
		h := handler.NewGameHandler(&fakeEngine{}, testSecret)
		req := httptest.NewRequest(http.MethodPost, "/api/games", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		h.CreateGame(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestJoinGameHandler(t *testing.T) {
	t.Run("201 with player token", func(t *testing.T) {
		h := handler.NewGameHandler(&fakeEngine{}, testSecret)
		req := requestWithGameChi(jsonRequest(t, http.MethodPost, "/api/games/game-1/join", handler.JoinGameRequest{Name: "Alice", ExternalID: "discord-1"}), "game-1")
		w := httptest.NewRecorder()
		h.JoinGame(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
		}
		var resp handler.JoinGameResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.PlayerID != "discord-1" || resp.Name != "Alice" {
			t.Errorf("unexpected player: %+v", resp)
		}
		claims, err := auth.VerifyToken(resp.Token, testSecret)
		if err != nil || claims.PlayerID != "discord-1" || claims.GameID != "game-1" {
			t.Errorf("expected player token, got claims=%+v err=%v", claims, err)
		}
	})

	t.Run("engine errors map to status codes", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			wantCode int
			wantMsg  string
		}{
			{"validation", &games.ValidationError{Message: "Sign-ups are closed."}, http.StatusBadRequest, "Sign-ups are closed."},
			{"not found", games.ErrNotFound, http.StatusNotFound, "game not found"},
			{"wrong password", games.ErrWrongPassword, http.StatusForbidden, "wrong password"},
			{"integrity", &games.IntegrityFailure{Message: "unknown role"}, http.StatusInternalServerError, "game state is inconsistent"},
			{"other", errors.New("disk full"), http.StatusInternalServerError, "failed to join game"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := handler.NewGameHandler(&fakeEngine{err: tt.err}, testSecret)
				req := requestWithGameChi(jsonRequest(t, http.MethodPost, "/api/games/game-1/join", handler.JoinGameRequest{Name: "Alice"}), "game-1")
				w := httptest.NewRecorder()
				h.JoinGame(w, req)
				if w.Code != tt.wantCode {
					t.Fatalf("expected %d, got %d", tt.wantCode, w.Code)
				}
				if msg := decodeError(t, w); msg != tt.wantMsg {
					t.Errorf("expected %q, got %q", tt.wantMsg, msg)
				}
			})
		}
	})
}

func TestStartGameHandler(t *testing.T) {
	engine := &fakeEngine{}
	h := handler.NewGameHandler(engine, testSecret)

	w := httptest.NewRecorder()
	h.StartGame(w, requestWithGameChi(jsonRequest(t, http.MethodPost, "/api/games/game-1/start", handler.StartGameRequest{}), "game-1"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty role list, got %d", w.Code)
	}

	roles := []string{"Mafioso", "Doctor", "Town Random", "Any"}
	w = httptest.NewRecorder()
	h.StartGame(w, requestWithGameChi(jsonRequest(t, http.MethodPost, "/api/games/game-1/start", handler.StartGameRequest{Roles: roles}), "game-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if engine.lastCall != "start" || len(engine.lastArgs) != 4 {
		t.Errorf("unexpected call: %s %v", engine.lastCall, engine.lastArgs)
	}
}

func TestPlayerCommandHandlers(t *testing.T) {
	engine := &fakeEngine{}
	h := handler.NewGameHandler(engine, testSecret)

	tests := []struct {
		name     string
		serve    http.HandlerFunc
		method   string
		body     interface{}
		wantCode int
		wantCall string
	}{
		{"action", h.ChooseAction, http.MethodPost, handler.ActionRequest{Ability: "Heal", Args: []string{"Bob"}}, http.StatusOK, "action:p1:Heal"},
		{"vote", h.CastVote, http.MethodPost, handler.VoteRequest{Target: "Bob"}, http.StatusOK, "vote:p1:Bob"},
		{"trial vote", h.CastTrialVote, http.MethodPost, handler.TrialVoteRequest{Verdict: "guilty"}, http.StatusOK, "trial:p1:guilty"},
		{"last will", h.SetLastWill, http.MethodPut, handler.TextRequest{Text: "I am the Doctor."}, http.StatusNoContent, "will:p1:I am the Doctor."},
		{"death note", h.SetDeathNote, http.MethodPut, handler.TextRequest{Text: "Sorry."}, http.StatusNoContent, "note:p1:Sorry."},
		{"leave", h.Leave, http.MethodPost, nil, http.StatusNoContent, "leave:p1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithPlayer(jsonRequest(t, tt.method, "/api/games/game-1/x", tt.body), "game-1", "p1")
			w := httptest.NewRecorder()
			tt.serve(w, req)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d body=%s", tt.wantCode, w.Code, w.Body.String())
			}
			if engine.lastCall != tt.wantCall {
				t.Errorf("expected call %q, got %q", tt.wantCall, engine.lastCall)
			}
		})
	}

	req := requestWithPlayer(jsonRequest(t, http.MethodPost, "/api/games/game-1/votes", handler.VoteRequest{Target: "Bob"}), "game-1", "p1")
	w := httptest.NewRecorder()
	h.CastVote(w, req)
	var reply handler.ReplyResponse
	if err := json.NewDecoder(w.Body).Decode(&reply); err != nil || reply.Text != "You voted for **Bob**." {
		t.Errorf("unexpected reply %+v err=%v", reply, err)
	}
}

func TestCommandValidationError(t *testing.T) {
	engine := &fakeEngine{err: &games.ValidationError{Message: "You can only vote for a player during the voting subphase."}}
	h := handler.NewGameHandler(engine, testSecret)

	req := requestWithPlayer(jsonRequest(t, http.MethodPost, "/api/games/game-1/votes", handler.VoteRequest{Target: "Bob"}), "game-1", "p1")
	w := httptest.NewRecorder()
	h.CastVote(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if msg := decodeError(t, w); msg != engine.err.Error() {
		t.Errorf("expected validation message, got %q", msg)
	}
}

func TestGetGameHandler(t *testing.T) {
	h := handler.NewGameHandler(&fakeEngine{}, testSecret)

	w := httptest.NewRecorder()
	h.GetGame(w, requestWithGameChi(httptest.NewRequest(http.MethodGet, "/api/games/game-1", nil), "game-1"))
	var view games.PublicView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.GameID != "game-1" || view.Self != nil {
		t.Errorf("expected anonymous view, got %+v", view)
	}

	w = httptest.NewRecorder()
	h.GetGame(w, requestWithPlayer(httptest.NewRequest(http.MethodGet, "/api/games/game-1", nil), "game-1", "p1"))
	view = games.PublicView{}
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Self == nil || view.Self.ID != "p1" {
		t.Errorf("expected player view, got %+v", view)
	}

	w = httptest.NewRecorder()
	missing := handler.NewGameHandler(&fakeEngine{viewErr: games.ErrNotFound}, testSecret)
	missing.GetGame(w, requestWithGameChi(httptest.NewRequest(http.MethodGet, "/api/games/nope", nil), "nope"))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestSnapshotHandlers(t *testing.T) {
	engine := &fakeEngine{}
	h := handler.NewGameHandler(engine, testSecret)

	w := httptest.NewRecorder()
	h.GetSnapshot(w, requestWithGameChi(httptest.NewRequest(http.MethodGet, "/api/games/game-1/snapshot", nil), "game-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.PutSnapshot(w, requestWithGameChi(jsonRequest(t, http.MethodPut, "/api/games/game-1/snapshot", map[string]interface{}{}), "game-1"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty document, got %d", w.Code)
	}

	doc := map[string]interface{}{"status": "ended"}
	w = httptest.NewRecorder()
	h.PutSnapshot(w, requestWithGameChi(jsonRequest(t, http.MethodPut, "/api/games/game-1/snapshot", doc), "game-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if engine.loaded["status"] != "ended" {
		t.Errorf("expected document passed to engine, got %v", engine.loaded)
	}
}

func TestRoleHandlers(t *testing.T) {
	w := httptest.NewRecorder()
	handler.ListRoles(w, httptest.NewRequest(http.MethodGet, "/api/roles", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var roles []map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&roles); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(roles) != len(games.ListRoles()) {
		t.Errorf("expected %d roles, got %d", len(games.ListRoles()), len(roles))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/roles/serial%20killer", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams = chi.RouteParams{Keys: []string{"name"}, Values: []string{"serial killer"}}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w = httptest.NewRecorder()
	handler.GetRole(w, req)
	var role map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&role); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if role["name"] != string(games.RoleSerialKiller) {
		t.Errorf("expected Serial Killer, got %v", role["name"])
	}

	rctx.URLParams = chi.RouteParams{Keys: []string{"name"}, Values: []string{"Wizard"}}
	w = httptest.NewRecorder()
	handler.GetRole(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
