package websocket

// ClientInMessage is the envelope for messages from client to server.
type ClientInMessage struct {
	Type          string                 `json:"type"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
}

// ServerEnvelope is the envelope for messages from server to client.
// Type: "event" | "state" | "error" | "reply"
type ServerEnvelope struct {
	Type          string                 `json:"type"`
	Event         string                 `json:"event,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
}

// Client message types.
const (
	ClientMessageTypeChat      = "chat"
	ClientMessageTypeSyncState = "sync_state"
	ClientMessageTypeAction    = "action"
	ClientMessageTypeVote      = "vote"
	ClientMessageTypeTrialVote = "trial_vote"
	ClientMessageTypeLastWill  = "last_will"
	ClientMessageTypeDeathNote = "death_note"
)

// Server event types.
const (
	ServerEventChat           = "chat"
	ServerEventFactionChat    = "faction_chat"
	ServerEventAnnouncement   = "announcement"
	ServerEventPrivateMessage = "private_message"
	ServerEventFactionMessage = "faction_message"
	ServerEventDayChat        = "day_chat"
	ServerEventChannelsClosed = "channels_archived"
	ServerEventState          = "state"
)

// Server envelope types.
const (
	ServerTypeEvent = "event"
	ServerTypeState = "state"
	ServerTypeError = "error"
	ServerTypeReply = "reply"
)

// MaxChatMessageLength is the maximum allowed length for a chat message.
const MaxChatMessageLength = 2000

// MaxClientMessageTypeLength limits the "type" field to prevent abuse.
const MaxClientMessageTypeLength = 64

// ValidClientMessageTypes are the only allowed values for ClientInMessage.Type.
var ValidClientMessageTypes = map[string]bool{
	ClientMessageTypeChat:      true,
	ClientMessageTypeSyncState: true,
	ClientMessageTypeAction:    true,
	ClientMessageTypeVote:      true,
	ClientMessageTypeTrialVote: true,
	ClientMessageTypeLastWill:  true,
	ClientMessageTypeDeathNote: true,
}
