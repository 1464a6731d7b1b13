package websocket

import (
	"log"
	"sync"

	"github.com/vntrieu/mafia/internal/games"
)

// Hub maintains the set of active clients per game and routes announcements,
// private channels and faction chat to them. It implements games.Notifier,
// games.Membership and games.EventPublisher.
type Hub struct {
	// Registered clients by game_id -> client map
	games map[string]map[*Client]bool

	// Outbound messages routed to a game's clients
	broadcast chan *BroadcastMessage

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Event handler for processing client messages
	eventHandler *EventHandler

	// Mutex for thread-safe access to games and eventHandler
	mu sync.RWMutex

	// Channel membership, guarded by memberMu
	memberMu sync.RWMutex
	channels map[string]map[string]bool
	factions map[string]map[string]games.Faction
	dayChat  map[string]bool
}

// BroadcastMessage is an envelope routed to a game's clients. PlayerID or
// Faction narrow the recipients.
type BroadcastMessage struct {
	GameID        string
	Envelope      *ServerEnvelope
	PlayerID      string
	Faction       games.Faction
	ExcludeClient *Client
}

// NewHub creates a new Hub.
func NewHub(eventHandler *EventHandler) *Hub {
	return &Hub{
		games:        make(map[string]map[*Client]bool),
		broadcast:    make(chan *BroadcastMessage, 256),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		eventHandler: eventHandler,
		channels:     make(map[string]map[string]bool),
		factions:     make(map[string]map[string]games.Faction),
		dayChat:      make(map[string]bool),
	}
}

// SetEventHandler sets the event handler for the hub.
func (h *Hub) SetEventHandler(handler *EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.eventHandler = handler
}

func (h *Hub) handler() *EventHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.eventHandler
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.games[client.GameID] == nil {
				h.games[client.GameID] = make(map[*Client]bool)
			}
			h.games[client.GameID][client] = true
			total := len(h.games[client.GameID])
			h.mu.Unlock()
			log.Printf("ws client registered game_id=%s player_id=%s total=%d", client.GameID, client.PlayerID, total)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.games[client.GameID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.games, client.GameID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("ws client unregistered game_id=%s player_id=%s", client.GameID, client.PlayerID)

		case message := <-h.broadcast:
			h.mu.Lock()
			clients := h.games[message.GameID]
			for client := range clients {
				if !h.wants(message, client) {
					continue
				}
				select {
				case client.send <- message.Envelope:
				default:
					close(client.send)
					delete(clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) wants(message *BroadcastMessage, client *Client) bool {
	if message.ExcludeClient != nil && client == message.ExcludeClient {
		return false
	}
	if message.PlayerID != "" && client.PlayerID != message.PlayerID {
		return false
	}
	if message.Faction != "" && !h.InFactionChat(message.GameID, client.PlayerID, message.Faction) {
		return false
	}
	return true
}

func (h *Hub) send(message *BroadcastMessage) {
	h.broadcast <- message
}

// BroadcastEnvelope sends a server envelope to all clients of a game.
func (h *Hub) BroadcastEnvelope(gameID string, envelope *ServerEnvelope) {
	h.send(&BroadcastMessage{GameID: gameID, Envelope: envelope})
}

// BroadcastEnvelopeExcept sends a server envelope to all clients of a game except the specified client.
func (h *Hub) BroadcastEnvelopeExcept(gameID string, envelope *ServerEnvelope, excludeClient *Client) {
	h.send(&BroadcastMessage{GameID: gameID, Envelope: envelope, ExcludeClient: excludeClient})
}

// GetGameClientCount returns the number of clients connected to a game.
func (h *Hub) GetGameClientCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}

func textEnvelope(event, text string) *ServerEnvelope {
	return &ServerEnvelope{Type: ServerTypeEvent, Event: event, Payload: map[string]interface{}{"text": text}}
}

// Announce posts to the game's public channel.
func (h *Hub) Announce(gameID, text string) {
	h.BroadcastEnvelope(gameID, textEnvelope(ServerEventAnnouncement, text))
}

// SendToPlayer posts to a player's private channel.
func (h *Hub) SendToPlayer(gameID, playerID, text string) {
	h.send(&BroadcastMessage{GameID: gameID, PlayerID: playerID, Envelope: textEnvelope(ServerEventPrivateMessage, text)})
}

// SendToFaction posts to a faction's private chat.
func (h *Hub) SendToFaction(gameID string, faction games.Faction, text string) {
	env := textEnvelope(ServerEventFactionMessage, text)
	env.Payload["faction"] = faction
	h.send(&BroadcastMessage{GameID: gameID, Faction: faction, Envelope: env})
}

// PublishEvents forwards engine events to every client of the game.
func (h *Hub) PublishEvents(gameID string, events []games.BroadcastEvent) {
	for _, ev := range events {
		h.BroadcastEnvelope(gameID, &ServerEnvelope{Type: ServerTypeEvent, Event: ev.Event, Payload: ev.Payload})
	}
}

// CreatePlayerChannel opens a private channel for a signed-up player.
func (h *Hub) CreatePlayerChannel(gameID, playerID string) {
	h.memberMu.Lock()
	defer h.memberMu.Unlock()
	if h.channels[gameID] == nil {
		h.channels[gameID] = make(map[string]bool)
	}
	h.channels[gameID][playerID] = true
}

// HasPlayerChannel reports whether the player has a private channel in the game.
func (h *Hub) HasPlayerChannel(gameID, playerID string) bool {
	h.memberMu.RLock()
	defer h.memberMu.RUnlock()
	return h.channels[gameID][playerID]
}

// ArchivePlayerChannels closes every private and faction channel of the game.
func (h *Hub) ArchivePlayerChannels(gameID string) {
	h.memberMu.Lock()
	delete(h.channels, gameID)
	delete(h.factions, gameID)
	delete(h.dayChat, gameID)
	h.memberMu.Unlock()
	h.BroadcastEnvelope(gameID, &ServerEnvelope{Type: ServerTypeEvent, Event: ServerEventChannelsClosed})
}

// GrantFactionChat lets the player read and write the faction's chat.
func (h *Hub) GrantFactionChat(gameID, playerID string, faction games.Faction) {
	h.memberMu.Lock()
	defer h.memberMu.Unlock()
	if h.factions[gameID] == nil {
		h.factions[gameID] = make(map[string]games.Faction)
	}
	h.factions[gameID][playerID] = faction
}

// RevokeFactionChat removes the player from the faction's chat.
func (h *Hub) RevokeFactionChat(gameID, playerID string, faction games.Faction) {
	h.memberMu.Lock()
	defer h.memberMu.Unlock()
	if h.factions[gameID][playerID] == faction {
		delete(h.factions[gameID], playerID)
	}
}

// InFactionChat reports whether the player may use the faction's chat.
func (h *Hub) InFactionChat(gameID, playerID string, faction games.Faction) bool {
	h.memberMu.RLock()
	defer h.memberMu.RUnlock()
	f, ok := h.factions[gameID][playerID]
	return ok && f == faction
}

// FactionOf returns the faction chat the player belongs to, if any.
func (h *Hub) FactionOf(gameID, playerID string) (games.Faction, bool) {
	h.memberMu.RLock()
	defer h.memberMu.RUnlock()
	f, ok := h.factions[gameID][playerID]
	return f, ok
}

// SetDayChat opens or closes the public chat.
func (h *Hub) SetDayChat(gameID string, open bool) {
	h.memberMu.Lock()
	h.dayChat[gameID] = open
	h.memberMu.Unlock()
	h.BroadcastEnvelope(gameID, &ServerEnvelope{
		Type:    ServerTypeEvent,
		Event:   ServerEventDayChat,
		Payload: map[string]interface{}{"open": open},
	})
}

// DayChatOpen reports whether living players may talk publicly.
func (h *Hub) DayChatOpen(gameID string) bool {
	h.memberMu.RLock()
	defer h.memberMu.RUnlock()
	return h.dayChat[gameID]
}
