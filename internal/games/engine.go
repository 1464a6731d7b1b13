package games

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vntrieu/mafia/internal/store"
)

// ErrWrongPassword is returned by Join when a private game's password does not match.
var ErrWrongPassword = errors.New("wrong game password")

// GameStore interface for persistence (avoid circular import; implemented by store.GameStore and sqlitestore.Store).
type GameStore interface {
	CreateGame(ctx context.Context, req store.CreateGameRequest) (*store.Game, error)
	GetGame(ctx context.Context, gameID string) (*store.Game, error)
	ListGamesByStatus(ctx context.Context, statuses ...string) ([]store.Game, error)
	AddGamePlayer(ctx context.Context, req store.AddGamePlayerRequest) error
	GetLatestSnapshot(ctx context.Context, gameID string) (map[string]interface{}, error)
	CreateOrUpdateSnapshot(ctx context.Context, gameID string, stateJSON map[string]interface{}) (int32, error)
	UpdateGameStatus(ctx context.Context, gameID string, status string, endedAt *time.Time) error
}

// GameEventStore interface for appending events.
type GameEventStore interface {
	CreateGameEvent(ctx context.Context, req store.CreateGameEventRequest) (*store.GameEvent, error)
}

// EventPublisher receives the structured events of every accepted command
// and transition, after they are persisted.
type EventPublisher interface {
	PublishEvents(gameID string, events []BroadcastEvent)
}

// CreateGameParams are the host's choices for a new game.
type CreateGameParams struct {
	HostID   string
	Password string
	Rules    *RulesConfig
}

// Engine owns every live game. Commands and timer firings for one game are
// serialized by that game's session lock.
type Engine struct {
	store     GameStore
	events    GameEventStore
	config    RulesConfig
	notifier  Notifier
	members   Membership
	publisher EventPublisher
	seed      int64
	timers    *scheduler

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu   sync.Mutex
	game *Game
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithNotifier routes announcements and channel membership changes.
func WithNotifier(n Notifier, m Membership) EngineOption {
	return func(e *Engine) {
		e.notifier = n
		e.members = m
	}
}

// WithPublisher delivers structured events, e.g. to websocket clients.
func WithPublisher(p EventPublisher) EngineOption {
	return func(e *Engine) { e.publisher = p }
}

// WithSeed makes role assignment and other random choices reproducible.
// Zero seeds from the clock.
func WithSeed(seed int64) EngineOption {
	return func(e *Engine) { e.seed = seed }
}

// WithAfterFunc replaces time.AfterFunc for phase timers.
func WithAfterFunc(f AfterFunc) EngineOption {
	return func(e *Engine) { e.timers = newScheduler(f) }
}

// NewEngine creates an engine with the given stores and default rules.
func NewEngine(store GameStore, events GameEventStore, config RulesConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		events:   events,
		config:   config.withDefaults(),
		notifier: NoopNotifier{},
		members:  NoopNotifier{},
		timers:   newScheduler(nil),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) newRand() *rand.Rand {
	seed := e.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// CreateGame registers a new game. A non-empty password makes it private.
func (e *Engine) CreateGame(ctx context.Context, params CreateGameParams) (*store.Game, error) {
	rules := e.config
	if params.Rules != nil {
		rules = params.Rules.withDefaults()
	}
	req := store.CreateGameRequest{
		Status: string(StatusEnded),
		Config: rules.ToMap(),
	}
	if params.HostID != "" {
		req.HostID = &params.HostID
	}
	if params.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		h := string(hash)
		req.PasswordHash = &h
	}
	game, err := e.store.CreateGame(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	g := NewGame(game.ID, rules, e.newRand(), e.notifier, e.members)
	if err := e.persist(ctx, g, "game_created", "", map[string]interface{}{"private": params.Password != ""}); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.sessions[game.ID] = &session{game: g}
	e.mu.Unlock()
	log.Printf("game created: game_id=%s private=%t", game.ID, params.Password != "")
	return game, nil
}

func (e *Engine) getGame(ctx context.Context, gameID string) (*store.Game, error) {
	game, err := e.store.GetGame(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && game == nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

// session returns the live session, loading it from the latest snapshot if needed.
func (e *Engine) session(ctx context.Context, gameID string) (*session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[gameID]; ok {
		return s, nil
	}
	game, err := e.getGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	g, err := e.restore(ctx, game)
	if err != nil {
		return nil, err
	}
	s := &session{game: g}
	e.sessions[gameID] = s
	return s, nil
}

func (e *Engine) restore(ctx context.Context, game *store.Game) (*Game, error) {
	rules := LoadConfigFromMap(game.Config)
	m, err := e.store.GetLatestSnapshot(ctx, game.ID)
	if err != nil {
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	if m == nil {
		return NewGame(game.ID, rules, e.newRand(), e.notifier, e.members), nil
	}
	state, err := StateFromMap(m)
	if err != nil {
		return nil, err
	}
	return LoadGame(state, rules, e.newRand(), e.notifier, e.members), nil
}

// run applies op under the game's lock. On error the state is rolled back.
// On success it applies any early advance, persists, publishes and re-arms the timer.
func (e *Engine) run(ctx context.Context, gameID, eventType, playerID string, payload map[string]interface{}, op func(g *Game) error) error {
	s, err := e.session(ctx, gameID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.game
	before := g.State.Clone()
	if err := op(g); err != nil {
		g.State = before
		g.DrainEvents()
		if IsIntegrity(err) {
			log.Printf("game integrity failure: game_id=%s op=%s error=%v", gameID, eventType, err)
		}
		return err
	}
	// Bounded: each early advance moves to a subphase that needs fresh input.
	for i := 0; i < 4; i++ {
		cp, due := g.EarlyAdvanceDue()
		if !due {
			break
		}
		if err := g.Advance(cp); err != nil {
			g.State = before
			g.DrainEvents()
			log.Printf("early advance failed: game_id=%s error=%v", gameID, err)
			return err
		}
	}

	if eventType == eventPhaseTimer && g.State.Checkpoint() == before.Checkpoint() && len(g.events) == 0 {
		return nil
	}
	if err := e.persist(ctx, g, eventType, playerID, payload); err != nil {
		log.Printf("persist failed: game_id=%s error=%v", gameID, err)
	}
	if g.State.Checkpoint() != before.Checkpoint() {
		e.arm(g)
	}
	return nil
}

const eventPhaseTimer = "phase_timer"

// persist appends the command event and drained broadcast events, then
// writes a new snapshot and updates the game status.
func (e *Engine) persist(ctx context.Context, g *Game, eventType, playerID string, payload map[string]interface{}) error {
	gameID := g.State.GameID
	var pid *string
	if playerID != "" {
		pid = &playerID
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	if _, err := e.events.CreateGameEvent(ctx, store.CreateGameEventRequest{
		GameID:   gameID,
		PlayerID: pid,
		Type:     eventType,
		Payload:  payload,
	}); err != nil {
		return fmt.Errorf("persist event: %w", err)
	}
	events := g.DrainEvents()
	for _, ev := range events {
		if _, err := e.events.CreateGameEvent(ctx, store.CreateGameEventRequest{
			GameID:  gameID,
			Type:    ev.Event,
			Payload: ev.Payload,
		}); err != nil {
			return fmt.Errorf("persist event: %w", err)
		}
	}

	stateMap, err := g.State.ToMap()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	version, err := e.store.CreateOrUpdateSnapshot(ctx, gameID, stateMap)
	if err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	g.State.Version = int(version)

	var endedAt *time.Time
	if g.State.Status == StatusEnded && g.State.Version > 1 {
		now := time.Now()
		endedAt = &now
	}
	if err := e.store.UpdateGameStatus(ctx, gameID, string(g.State.Status), endedAt); err != nil {
		return fmt.Errorf("update game status: %w", err)
	}

	if e.publisher != nil && len(events) > 0 {
		e.publisher.PublishEvents(gameID, events)
	}
	return nil
}

// arm schedules the exit of the game's current phase. Called with the session lock held.
func (e *Engine) arm(g *Game) {
	gameID := g.State.GameID
	cp := g.State.Checkpoint()
	d := g.Config().PhaseLength(cp)
	if d <= 0 || cp.Status == StatusEnded {
		e.timers.cancel(gameID)
		return
	}
	e.timers.schedule(gameID, d, func() {
		if err := e.Advance(context.Background(), gameID, cp); err != nil {
			log.Printf("phase timer failed: game_id=%s error=%v", gameID, err)
		}
	})
}

// StartSignUps opens sign-ups for the game.
func (e *Engine) StartSignUps(ctx context.Context, gameID string) error {
	return e.run(ctx, gameID, "start_sign_ups", "", nil, func(g *Game) error {
		return g.StartSignUps()
	})
}

// Join signs a player up. The returned player carries the id to use for
// later commands.
func (e *Engine) Join(ctx context.Context, gameID, name, externalID, password string) (*Player, error) {
	game, err := e.getGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.PasswordHash != nil && *game.PasswordHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(*game.PasswordHash), []byte(password)) != nil {
			return nil, ErrWrongPassword
		}
	}
	if externalID == "" {
		externalID = uuid.NewString()
	}

	var joined Player
	err = e.run(ctx, gameID, "join", externalID, map[string]interface{}{"name": name}, func(g *Game) error {
		p, err := g.Join(name, externalID)
		if err != nil {
			return err
		}
		joined = *p.clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := e.store.AddGamePlayer(ctx, store.AddGamePlayerRequest{
		GameID:   gameID,
		PlayerID: joined.ID,
		Name:     joined.Name,
	}); err != nil {
		log.Printf("record game player failed: game_id=%s player_id=%s error=%v", gameID, joined.ID, err)
	}
	return &joined, nil
}

// StartGame assigns roles from the identifiers and begins day one.
func (e *Engine) StartGame(ctx context.Context, gameID string, identifiers []string) error {
	payload := map[string]interface{}{"role_identifiers": identifiers}
	return e.run(ctx, gameID, "start_game", "", payload, func(g *Game) error {
		return g.StartGame(identifiers)
	})
}

// ChooseAction records a night action and returns the player's confirmation.
func (e *Engine) ChooseAction(ctx context.Context, gameID, playerID, ability string, args []string) (string, error) {
	var out string
	payload := map[string]interface{}{"ability": ability, "args": args}
	err := e.run(ctx, gameID, "choose_action", playerID, payload, func(g *Game) error {
		var err error
		out, err = g.ChooseAction(playerID, ability, args)
		return err
	})
	return out, err
}

// CastVote records a vote on who goes on trial.
func (e *Engine) CastVote(ctx context.Context, gameID, playerID, target string) (string, error) {
	var out string
	err := e.run(ctx, gameID, "vote", playerID, map[string]interface{}{"target": target}, func(g *Game) error {
		var err error
		out, err = g.CastVote(playerID, target)
		return err
	})
	return out, err
}

// CastTrialVote records a verdict ballot. The ballot is not stored in the event log.
func (e *Engine) CastTrialVote(ctx context.Context, gameID, playerID, verdict string) (string, error) {
	var out string
	err := e.run(ctx, gameID, "trial_vote", playerID, nil, func(g *Game) error {
		var err error
		out, err = g.CastTrialVote(playerID, verdict)
		return err
	})
	return out, err
}

// SetLastWill stores the player's last will.
func (e *Engine) SetLastWill(ctx context.Context, gameID, playerID, text string) error {
	return e.run(ctx, gameID, "set_last_will", playerID, nil, func(g *Game) error {
		return g.SetLastWill(playerID, text)
	})
}

// SetDeathNote stores the player's death note.
func (e *Engine) SetDeathNote(ctx context.Context, gameID, playerID, text string) error {
	return e.run(ctx, gameID, "set_death_note", playerID, nil, func(g *Game) error {
		return g.SetDeathNote(playerID, text)
	})
}

// Leave removes the player from sign-ups or kills them mid-game.
func (e *Engine) Leave(ctx context.Context, gameID, playerID string) error {
	return e.run(ctx, gameID, "leave", playerID, nil, func(g *Game) error {
		return g.Leave(playerID)
	})
}

// Advance runs the transition out of cp. Stale checkpoints are ignored.
func (e *Engine) Advance(ctx context.Context, gameID string, cp Checkpoint) error {
	payload := map[string]interface{}{
		"status":      cp.Status,
		"phase":       cp.Phase,
		"subphase":    cp.Subphase,
		"days_passed": cp.DaysPassed,
	}
	return e.run(ctx, gameID, eventPhaseTimer, "", payload, func(g *Game) error {
		return g.Advance(cp)
	})
}

// Snapshot returns a copy of the game's full state.
func (e *Engine) Snapshot(ctx context.Context, gameID string) (*GameState, error) {
	s, err := e.session(ctx, gameID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.State.Clone(), nil
}

// View returns the public view, with playerID's private details when set.
func (e *Engine) View(ctx context.Context, gameID, playerID string) (PublicView, error) {
	s, err := e.session(ctx, gameID)
	if err != nil {
		return PublicView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if playerID == "" {
		return s.game.State.PublicView(), nil
	}
	return s.game.State.PlayerView(playerID), nil
}

// LoadSnapshot replaces the game's state with doc. A malformed document is
// an IntegrityFailure and leaves the current state in place.
func (e *Engine) LoadSnapshot(ctx context.Context, gameID string, doc map[string]interface{}) error {
	state, err := StateFromMap(doc)
	if err != nil {
		return err
	}
	state.GameID = gameID
	return e.run(ctx, gameID, "load_snapshot", "", nil, func(g *Game) error {
		g.State = state
		g.logPhase()
		return nil
	})
}

// Recover reloads every unfinished game from its latest snapshot and re-arms
// its phase timer.
func (e *Engine) Recover(ctx context.Context) (int, error) {
	games, err := e.store.ListGamesByStatus(ctx,
		string(StatusSignUp), string(StatusReadyToBegin), string(StatusInProgress))
	if err != nil {
		return 0, fmt.Errorf("list games: %w", err)
	}
	n := 0
	for i := range games {
		game := &games[i]
		g, err := e.restore(ctx, game)
		if err != nil {
			log.Printf("recover game failed: game_id=%s error=%v", game.ID, err)
			continue
		}
		s := &session{game: g}
		e.mu.Lock()
		e.sessions[game.ID] = s
		e.mu.Unlock()
		s.mu.Lock()
		e.arm(g)
		s.mu.Unlock()
		n++
		log.Printf("game recovered: game_id=%s status=%s days_passed=%.1f", game.ID, g.State.Status, g.State.DaysPassed)
	}
	return n, nil
}

// Close stops every phase timer.
func (e *Engine) Close() {
	e.timers.stopAll()
}
