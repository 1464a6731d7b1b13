package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/vntrieu/mafia/internal/games"
)

// WebhookMessage is the JSON body posted for every notification.
type WebhookMessage struct {
	GameID   string        `json:"game_id"`
	Scope    string        `json:"scope"`
	PlayerID string        `json:"player_id,omitempty"`
	Faction  games.Faction `json:"faction,omitempty"`
	Text     string        `json:"text"`
}

// Message scopes.
const (
	ScopeAnnouncement = "announcement"
	ScopePlayer       = "player"
	ScopeFaction      = "faction"
)

// Webhook posts every notification to a chat platform webhook. Delivery is
// asynchronous and failures are logged. Messages of one game are delivered
// one at a time in the order they were sent.
type Webhook struct {
	client *resty.Client
	url    string

	mu     sync.Mutex
	queues map[string]*gameQueue
	wg     sync.WaitGroup
}

type gameQueue struct {
	pending []WebhookMessage
}

// NewWebhook creates a Webhook posting to url.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Content-Type", "application/json")
	return &Webhook{client: client, url: url, queues: make(map[string]*gameQueue)}
}

// Announce posts text visible to the whole game.
func (w *Webhook) Announce(gameID, text string) {
	w.post(WebhookMessage{GameID: gameID, Scope: ScopeAnnouncement, Text: text})
}

// SendToPlayer posts text for one player.
func (w *Webhook) SendToPlayer(gameID, playerID, text string) {
	w.post(WebhookMessage{GameID: gameID, Scope: ScopePlayer, PlayerID: playerID, Text: text})
}

// SendToFaction posts text for a faction's chat.
func (w *Webhook) SendToFaction(gameID string, faction games.Faction, text string) {
	w.post(WebhookMessage{GameID: gameID, Scope: ScopeFaction, Faction: faction, Text: text})
}

func (w *Webhook) post(msg WebhookMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()
	q, ok := w.queues[msg.GameID]
	if !ok {
		q = &gameQueue{}
		w.queues[msg.GameID] = q
		w.wg.Add(1)
		go w.drain(msg.GameID, q)
	}
	q.pending = append(q.pending, msg)
}

// drain delivers q until it is empty, then retires it.
func (w *Webhook) drain(gameID string, q *gameQueue) {
	defer w.wg.Done()
	for {
		w.mu.Lock()
		if len(q.pending) == 0 {
			delete(w.queues, gameID)
			w.mu.Unlock()
			return
		}
		msg := q.pending[0]
		q.pending = q.pending[1:]
		w.mu.Unlock()

		if err := w.Deliver(context.Background(), msg); err != nil {
			log.Printf("webhook delivery failed: game_id=%s scope=%s error=%v", msg.GameID, msg.Scope, err)
		}
	}
}

// Flush waits until every queued message has been delivered or dropped.
func (w *Webhook) Flush() {
	w.wg.Wait()
}

// Deliver posts msg and waits for the response.
func (w *Webhook) Deliver(ctx context.Context, msg WebhookMessage) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(msg).
		Post(w.url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &DeliveryError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// DeliveryError is a non-2xx webhook response.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("webhook responded %d: %s", e.StatusCode, e.Body)
}
