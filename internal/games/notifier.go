package games

// Notifier delivers text to the game's participants. Calls are fire and
// forget: implementations log their own delivery failures.
type Notifier interface {
	Announce(gameID, text string)
	SendToPlayer(gameID, playerID, text string)
	SendToFaction(gameID string, faction Faction, text string)
}

// Membership manages who can see and speak where. It is only invoked at
// phase boundaries and never read back.
type Membership interface {
	CreatePlayerChannel(gameID, playerID string)
	ArchivePlayerChannels(gameID string)
	GrantFactionChat(gameID, playerID string, faction Faction)
	RevokeFactionChat(gameID, playerID string, faction Faction)
	SetDayChat(gameID string, open bool)
}

// NoopNotifier discards everything.
type NoopNotifier struct{}

func (NoopNotifier) Announce(string, string)                   {}
func (NoopNotifier) SendToPlayer(string, string, string)       {}
func (NoopNotifier) SendToFaction(string, Faction, string)     {}
func (NoopNotifier) CreatePlayerChannel(string, string)        {}
func (NoopNotifier) ArchivePlayerChannels(string)              {}
func (NoopNotifier) GrantFactionChat(string, string, Faction)  {}
func (NoopNotifier) RevokeFactionChat(string, string, Faction) {}
func (NoopNotifier) SetDayChat(string, bool)                   {}
