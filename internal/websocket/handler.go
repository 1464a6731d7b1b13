package websocket

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/vntrieu/mafia/internal/games"
	"github.com/vntrieu/mafia/internal/ratelimit"
)

// GameEngine is the subset of games.Engine the websocket layer drives.
type GameEngine interface {
	View(ctx context.Context, gameID, playerID string) (games.PublicView, error)
	ChooseAction(ctx context.Context, gameID, playerID, ability string, args []string) (string, error)
	CastVote(ctx context.Context, gameID, playerID, target string) (string, error)
	CastTrialVote(ctx context.Context, gameID, playerID, verdict string) (string, error)
	SetLastWill(ctx context.Context, gameID, playerID, text string) error
	SetDeathNote(ctx context.Context, gameID, playerID, text string) error
}

// EventHandler handles inbound client messages.
type EventHandler struct {
	hub         *Hub
	engine      GameEngine
	rateLimiter ratelimit.Limiter
}

// NewEventHandler creates a new EventHandler. rateLimiter is optional; when
// set, chat messages are rate-limited by client key (e.g. IP).
func NewEventHandler(hub *Hub, engine GameEngine, rateLimiter ratelimit.Limiter) *EventHandler {
	return &EventHandler{
		hub:         hub,
		engine:      engine,
		rateLimiter: rateLimiter,
	}
}

// HandleMessage processes an incoming message. Unknown or invalid message
// types get an error envelope.
func (h *EventHandler) HandleMessage(ctx context.Context, client *Client, msg *ClientInMessage) {
	if msg == nil {
		sendErrorToClient(client, "", "invalid message")
		return
	}
	// Validate type: allowlist and length to prevent abuse
	if len(msg.Type) > MaxClientMessageTypeLength || !ValidClientMessageTypes[msg.Type] {
		sendErrorToClient(client, msg.CorrelationID, "unsupported message type")
		return
	}
	switch msg.Type {
	case ClientMessageTypeChat:
		h.handleChat(ctx, client, msg)
	case ClientMessageTypeSyncState:
		h.handleSyncState(ctx, client, msg)
	default:
		h.handleCommand(ctx, client, msg)
	}
}

// handleSyncState sends the game as this player sees it to that client only.
func (h *EventHandler) handleSyncState(ctx context.Context, client *Client, msg *ClientInMessage) {
	if h.engine == nil {
		sendErrorToClient(client, msg.CorrelationID, "sync_state not available")
		return
	}
	view, err := h.engine.View(ctx, client.GameID, client.PlayerID)
	if err != nil {
		sendErrorToClient(client, msg.CorrelationID, "failed to load state")
		return
	}
	sendEnvelopeToClient(client, &ServerEnvelope{
		Type:          ServerTypeState,
		Event:         ServerEventState,
		CorrelationID: msg.CorrelationID,
		Payload:       map[string]interface{}{"game_id": client.GameID, "state": view, "version": view.Version},
	})
}

// handleCommand runs a game command and replies to the sender with the result text.
func (h *EventHandler) handleCommand(ctx context.Context, client *Client, msg *ClientInMessage) {
	if h.engine == nil {
		sendErrorToClient(client, msg.CorrelationID, msg.Type+" not available")
		return
	}
	var (
		text string
		err  error
	)
	switch msg.Type {
	case ClientMessageTypeAction:
		text, err = h.engine.ChooseAction(ctx, client.GameID, client.PlayerID,
			stringField(msg.Payload, "ability"), stringList(msg.Payload, "args"))
	case ClientMessageTypeVote:
		text, err = h.engine.CastVote(ctx, client.GameID, client.PlayerID, stringField(msg.Payload, "target"))
	case ClientMessageTypeTrialVote:
		text, err = h.engine.CastTrialVote(ctx, client.GameID, client.PlayerID, stringField(msg.Payload, "verdict"))
	case ClientMessageTypeLastWill:
		err = h.engine.SetLastWill(ctx, client.GameID, client.PlayerID, stringField(msg.Payload, "text"))
		text = "Your last will was updated."
	case ClientMessageTypeDeathNote:
		err = h.engine.SetDeathNote(ctx, client.GameID, client.PlayerID, stringField(msg.Payload, "text"))
		text = "Your death note was updated."
	}
	if err != nil {
		var v *games.ValidationError
		if errors.As(err, &v) {
			sendErrorToClient(client, msg.CorrelationID, v.Message)
			return
		}
		log.Printf("ws command failed: game_id=%s player_id=%s type=%s error=%v", client.GameID, client.PlayerID, msg.Type, err)
		sendErrorToClient(client, msg.CorrelationID, "command failed")
		return
	}
	sendEnvelopeToClient(client, &ServerEnvelope{
		Type:          ServerTypeReply,
		Event:         msg.Type,
		CorrelationID: msg.CorrelationID,
		Payload:       map[string]interface{}{"text": text},
	})
}

// handleChat relays a chat line. By day living, unmuted players talk to
// everyone; at night only faction chat is open.
func (h *EventHandler) handleChat(ctx context.Context, client *Client, msg *ClientInMessage) {
	if h.rateLimiter != nil && client.RateLimitKey != "" {
		allowed, _ := h.rateLimiter.Allow(client.RateLimitKey)
		if !allowed {
			sendErrorToClient(client, msg.CorrelationID, "rate limit exceeded; try again later")
			return
		}
	}
	message := trimToMax(strings.TrimSpace(stringField(msg.Payload, "message")), MaxChatMessageLength)
	if message == "" {
		return
	}
	if h.engine == nil {
		sendErrorToClient(client, msg.CorrelationID, "chat not available")
		return
	}
	view, err := h.engine.View(ctx, client.GameID, client.PlayerID)
	if err != nil || view.Self == nil {
		sendErrorToClient(client, msg.CorrelationID, "you are not in this game")
		return
	}
	self := view.Self
	if !self.Alive {
		sendErrorToClient(client, msg.CorrelationID, "dead players can't talk")
		return
	}

	payload := map[string]interface{}{"name": self.Name, "message": message}
	if h.hub.DayChatOpen(client.GameID) {
		if self.Muted {
			sendErrorToClient(client, msg.CorrelationID, "you can't talk today")
			return
		}
		h.hub.BroadcastEnvelopeExcept(client.GameID, &ServerEnvelope{Type: ServerTypeEvent, Event: ServerEventChat, Payload: payload}, client)
		return
	}
	faction, ok := h.hub.FactionOf(client.GameID, client.PlayerID)
	if !ok {
		sendErrorToClient(client, msg.CorrelationID, "chat is closed")
		return
	}
	payload["faction"] = faction
	h.hub.send(&BroadcastMessage{
		GameID:        client.GameID,
		Faction:       faction,
		ExcludeClient: client,
		Envelope:      &ServerEnvelope{Type: ServerTypeEvent, Event: ServerEventFactionChat, Payload: payload},
	})
}

func sendErrorToClient(client *Client, correlationID, message string) {
	sendEnvelopeToClient(client, &ServerEnvelope{
		Type:          ServerTypeError,
		CorrelationID: correlationID,
		Payload:       map[string]interface{}{"message": message},
	})
}

func sendEnvelopeToClient(client *Client, envelope *ServerEnvelope) {
	select {
	case client.send <- envelope:
	default:
		log.Printf("could not send envelope to client (channel full) game_id=%s player_id=%s", client.GameID, client.PlayerID)
	}
}

func stringField(payload map[string]interface{}, key string) string {
	s, _ := payload[key].(string)
	return s
}

func stringList(payload map[string]interface{}, key string) []string {
	switch v := payload[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Fields(v)
	}
	return nil
}

func trimToMax(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
