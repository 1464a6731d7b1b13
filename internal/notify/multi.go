package notify

import "github.com/vntrieu/mafia/internal/games"

// Multi fans every notification out to several notifiers.
type Multi []games.Notifier

// Announce delivers to every notifier.
func (m Multi) Announce(gameID, text string) {
	for _, n := range m {
		n.Announce(gameID, text)
	}
}

// SendToPlayer delivers to every notifier.
func (m Multi) SendToPlayer(gameID, playerID, text string) {
	for _, n := range m {
		n.SendToPlayer(gameID, playerID, text)
	}
}

// SendToFaction delivers to every notifier.
func (m Multi) SendToFaction(gameID string, faction games.Faction, text string) {
	for _, n := range m {
		n.SendToFaction(gameID, faction, text)
	}
}

// Build returns the notifier for the given sinks, skipping nil ones.
func Build(sinks ...games.Notifier) games.Notifier {
	var m Multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	switch len(m) {
	case 0:
		return games.NoopNotifier{}
	case 1:
		return m[0]
	}
	return m
}
