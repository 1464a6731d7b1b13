package games

// PublicPlayer is what everyone can see about a player.
type PublicPlayer struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Alive bool     `json:"alive"`
	Role  RoleName `json:"role,omitempty"`
}

// PrivatePlayer is what a player can see about themself.
type PrivatePlayer struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Alive      bool                `json:"alive"`
	Role       RoleName            `json:"role,omitempty"`
	InLimbo    bool                `json:"in_limbo,omitempty"`
	ExeTarget  string              `json:"exe_target,omitempty"`
	Action     *Action             `json:"action,omitempty"`
	Used       map[AbilityName]int `json:"used,omitempty"`
	Muted      bool                `json:"muted,omitempty"`
	CanVote    bool                `json:"can_vote"`
	LastWill   string              `json:"last_will,omitempty"`
	DeathNote  string              `json:"death_note,omitempty"`
	Inactivity int                 `json:"inactivity,omitempty"`
}

// PublicView is the state without hidden information.
type PublicView struct {
	GameID          string            `json:"game_id"`
	Status          Status            `json:"status"`
	Phase           Phase             `json:"phase"`
	Subphase        Subphase          `json:"subphase"`
	Day             int               `json:"day"`
	DaysPassed      float64           `json:"days_passed"`
	Players         []PublicPlayer    `json:"players"`
	RoleList        []string          `json:"role_list,omitempty"`
	Votes           map[string]string `json:"votes,omitempty"`
	OnTrial         string            `json:"on_trial,omitempty"`
	Verdict         string            `json:"verdict,omitempty"`
	WinningFactions []string          `json:"winning_factions,omitempty"`
	Winners         []string          `json:"winners,omitempty"`
	Version         int               `json:"version"`
	Self            *PrivatePlayer    `json:"self,omitempty"`
}

// PublicView hides roles of living and unidentifiable players. Dead
// players' roles are revealed, and every role is shown once the game ends.
func (s *GameState) PublicView() PublicView {
	v := PublicView{
		GameID:          s.GameID,
		Status:          s.Status,
		Phase:           s.Phase,
		Subphase:        s.Subphase,
		Day:             s.DayNumber(),
		DaysPassed:      s.DaysPassed,
		RoleList:        append([]string(nil), s.RoleIdentifiers...),
		Votes:           copyStringMap(s.Votes),
		OnTrial:         s.OnTrial,
		Verdict:         s.Verdict,
		WinningFactions: append([]string(nil), s.WinningFactions...),
		Winners:         append([]string(nil), s.Winners...),
		Version:         s.Version,
	}
	revealAll := s.Status == StatusEnded
	for _, p := range s.Players {
		pp := PublicPlayer{ID: p.ID, Name: p.Name, Alive: p.Alive}
		if revealAll || (!p.Alive && !p.Unidentifiable) {
			pp.Role = p.Role
		}
		v.Players = append(v.Players, pp)
	}
	return v
}

// PlayerView is the public view plus the requesting player's own details.
func (s *GameState) PlayerView(playerID string) PublicView {
	v := s.PublicView()
	p := s.PlayerByID(playerID)
	if p == nil {
		return v
	}
	self := &PrivatePlayer{
		ID:         p.ID,
		Name:       p.Name,
		Alive:      p.Alive,
		Role:       p.Role,
		InLimbo:    p.InLimbo,
		ExeTarget:  p.ExeTarget,
		Muted:      p.Muted,
		CanVote:    p.Alive && !p.VoteBlocked,
		LastWill:   p.LastWill,
		DeathNote:  p.DeathNote,
		Inactivity: p.Inactivity,
		Used:       make(map[AbilityName]int, len(p.Used)),
	}
	for k, n := range p.Used {
		self.Used[k] = n
	}
	if p.Action != nil {
		a := *p.Action
		a.Args = append([]string(nil), p.Action.Args...)
		self.Action = &a
	}
	v.Self = self
	return v
}
