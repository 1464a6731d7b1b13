package games

import (
	"math/rand"
	"sort"
	"strings"
	"testing"
)

// recordingNotifier captures every delivery so tests can assert on feedback.
type recordingNotifier struct {
	announcements []string
	private       map[string][]string
	faction       map[Faction][]string
	factionChat   map[string]bool
	dayChat       bool
	archived      bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		private:     make(map[string][]string),
		faction:     make(map[Faction][]string),
		factionChat: make(map[string]bool),
	}
}

func (n *recordingNotifier) Announce(_, text string) { n.announcements = append(n.announcements, text) }

func (n *recordingNotifier) SendToPlayer(_, playerID, text string) {
	n.private[playerID] = append(n.private[playerID], text)
}

func (n *recordingNotifier) SendToFaction(_ string, f Faction, text string) {
	n.faction[f] = append(n.faction[f], text)
}

func (n *recordingNotifier) CreatePlayerChannel(string, string) {}
func (n *recordingNotifier) ArchivePlayerChannels(string)       { n.archived = true }
func (n *recordingNotifier) SetDayChat(_ string, open bool)     { n.dayChat = open }

func (n *recordingNotifier) GrantFactionChat(_, playerID string, _ Faction) {
	n.factionChat[playerID] = true
}

func (n *recordingNotifier) RevokeFactionChat(_, playerID string, _ Faction) {
	delete(n.factionChat, playerID)
}

// told reports whether playerID received a message containing text.
func (n *recordingNotifier) told(playerID, text string) bool {
	for _, m := range n.private[playerID] {
		if strings.Contains(m, text) {
			return true
		}
	}
	return false
}

func (n *recordingNotifier) announced(text string) bool {
	for _, m := range n.announcements {
		if strings.Contains(m, text) {
			return true
		}
	}
	return false
}

type seat struct {
	name string
	role RoleName
}

func playerID(name string) string { return "id-" + strings.ToLower(name) }

// newTestGame seats players with fixed roles in a game already in progress.
// Inactivity tracking is off so idle players never get smitten.
func newTestGame(t *testing.T, seats ...seat) (*Game, *recordingNotifier) {
	t.Helper()
	cfg := DefaultRulesConfig()
	cfg.TrackInactivity = false
	n := newRecordingNotifier()
	g := NewGame("game-1", cfg, rand.New(rand.NewSource(1)), n, n)
	g.State.Status = StatusInProgress
	for _, s := range seats {
		r, err := MustRole(s.role)
		if err != nil {
			t.Fatalf("MustRole(%s): %v", s.role, err)
		}
		p := NewPlayer(s.name, playerID(s.name))
		p.SetRole(r)
		g.State.Players = append(g.State.Players, p)
	}
	return g, n
}

func atNight(g *Game, night int) {
	g.State.Phase, g.State.Subphase, g.State.DaysPassed = PhaseNight, SubphaseNone, float64(night)
}

func atVoting(g *Game, day int) {
	g.State.Phase, g.State.Subphase, g.State.DaysPassed = PhaseDay, SubphaseVoting, float64(day)-0.5
	g.State.Votes = make(map[string]string)
}

func act(t *testing.T, g *Game, name, ability string, args ...string) {
	t.Helper()
	if _, err := g.ChooseAction(playerID(name), ability, args); err != nil {
		t.Fatalf("%s %s %v: %v", name, ability, args, err)
	}
}

func advance(t *testing.T, g *Game) {
	t.Helper()
	if err := g.Advance(g.State.Checkpoint()); err != nil {
		t.Fatalf("Advance: %v", err)
	}
}

func player(t *testing.T, g *Game, name string) *Player {
	t.Helper()
	p := g.State.Player(name)
	if p == nil {
		t.Fatalf("no player %s", name)
	}
	return p
}

func signedUpGame(t *testing.T, names ...string) (*Game, *recordingNotifier) {
	t.Helper()
	n := newRecordingNotifier()
	g := NewGame("game-1", DefaultRulesConfig(), rand.New(rand.NewSource(3)), n, n)
	if err := g.StartSignUps(); err != nil {
		t.Fatalf("StartSignUps: %v", err)
	}
	for _, name := range names {
		if _, err := g.Join(name, playerID(name)); err != nil {
			t.Fatalf("Join(%s): %v", name, err)
		}
	}
	return g, n
}

func hasEvent(events []BroadcastEvent, name string) bool {
	for _, ev := range events {
		if ev.Event == name {
			return true
		}
	}
	return false
}

func TestGame_JoinValidation(t *testing.T) {
	g, _ := signedUpGame(t, "Alice")

	p, err := g.Join("  Bob   Smith ", "")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if p.Name != "Bob Smith" || p.ID == "" || !p.Alive {
		t.Errorf("unexpected player: %+v", p)
	}

	tests := []struct {
		name string
		in   string
		id   string
	}{
		{"empty", "   ", ""},
		{"reserved abstain", "abstain", ""},
		{"reserved nobody", "Nobody", ""},
		{"taken", "ALICE", ""},
		{"bad characters", "Al!ce", ""},
		{"too long", strings.Repeat("a", 33), ""},
		{"same id", "Carol", playerID("Alice")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.Join(tt.in, tt.id); !IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if len(g.State.Players) != 2 {
		t.Errorf("expected 2 players, got %d", len(g.State.Players))
	}
}

func TestGame_JoinRequiresSignUps(t *testing.T) {
	g := NewGame("game-1", DefaultRulesConfig(), rand.New(rand.NewSource(1)), nil, nil)
	if _, err := g.Join("Alice", ""); !IsValidation(err) {
		t.Errorf("expected validation error before sign-ups, got %v", err)
	}
	if err := g.StartSignUps(); err != nil {
		t.Fatalf("StartSignUps: %v", err)
	}
	if err := g.StartSignUps(); !IsValidation(err) {
		t.Errorf("expected second StartSignUps to fail, got %v", err)
	}
}

func TestGame_StartGame(t *testing.T) {
	g, n := signedUpGame(t, "Alice", "Bob", "Carol", "Dave")
	g.DrainEvents()

	if err := g.StartGame([]string{"Mafioso", "Doctor", "Sheriff"}); !IsValidation(err) {
		t.Fatalf("expected role count mismatch, got %v", err)
	}
	if err := g.StartGame([]string{"Mafioso", "Doctor", "Sheriff", "Townie"}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	s := g.State
	if s.Status != StatusInProgress || s.Phase != PhaseDay || s.Subphase != SubphaseNone || s.DaysPassed != 0.5 {
		t.Errorf("expected day 1, got %+v", s.Checkpoint())
	}
	var roles []string
	var mafioso *Player
	for _, p := range s.Players {
		roles = append(roles, string(p.Role))
		if p.Role == RoleMafioso {
			mafioso = p
		}
		if !n.told(p.ID, "Your role is **"+string(p.Role)+"**") {
			t.Errorf("%s was not told their role", p.Name)
		}
	}
	sort.Strings(roles)
	if strings.Join(roles, ",") != "Doctor,Mafioso,Sheriff,Townie" {
		t.Errorf("unexpected roles %v", roles)
	}
	if mafioso == nil || !n.factionChat[mafioso.ID] {
		t.Error("expected the Mafioso to join the Mafia chat")
	}
	if len(n.faction[FactionMafia]) == 0 {
		t.Error("expected the Mafia to be told who is in it")
	}
	if !n.dayChat {
		t.Error("expected day chat to open")
	}
	events := g.DrainEvents()
	if !hasEvent(events, EventGameStarted) || !hasEvent(events, EventPhaseChanged) {
		t.Errorf("expected game_started and phase_changed, got %v", events)
	}
}

func TestGame_StartGameNeedsMinPlayers(t *testing.T) {
	g, _ := signedUpGame(t, "Alice", "Bob", "Carol")
	if err := g.StartGame([]string{"Mafioso", "Doctor", "Townie"}); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if g.State.Status != StatusSignUp {
		t.Errorf("expected sign-ups to stay open, got %s", g.State.Status)
	}
}

func TestGame_CloseSignUpsCancelsSmallGame(t *testing.T) {
	g, n := signedUpGame(t, "Alice", "Bob")
	g.DrainEvents()
	if err := g.CloseSignUps(g.State.Checkpoint()); err != nil {
		t.Fatalf("CloseSignUps: %v", err)
	}
	if g.State.Status != StatusEnded || len(g.State.Players) != 0 {
		t.Errorf("expected cancelled game, got %+v", g.State)
	}
	if !n.archived {
		t.Error("expected player channels to be archived")
	}
	if !hasEvent(g.DrainEvents(), EventGameCancelled) {
		t.Error("expected game_cancelled event")
	}
}

func TestGame_LeaveDuringSignUps(t *testing.T) {
	g, _ := signedUpGame(t, "Alice", "Bob")
	if err := g.Leave(playerID("Alice")); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if len(g.State.Players) != 1 || g.State.Players[0].Name != "Bob" {
		t.Errorf("expected only Bob left, got %v", g.State.Players)
	}
	if err := g.Leave(playerID("Alice")); !IsValidation(err) {
		t.Errorf("expected validation error for a player who left, got %v", err)
	}
}

func TestGame_LeaveMidGameDiesAtNextAnnouncement(t *testing.T) {
	g, _ := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie}, seat{"Sam", RoleSheriff}, seat{"Tia", RoleTownie})
	atNight(g, 1)
	if err := g.Leave(playerID("Tom")); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if !player(t, g, "Tom").Alive {
		t.Fatal("leaving player should die at the next announcement, not immediately")
	}
	advance(t, g)
	if player(t, g, "Tom").Alive {
		t.Error("expected Tom to be dead after the night")
	}
	if g.State.Status != StatusInProgress || g.State.Subphase != SubphaseVoting {
		t.Errorf("expected voting on day 2, got %+v", g.State.Checkpoint())
	}
}

func TestGame_ChooseActionValidation(t *testing.T) {
	g, _ := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Fran", RoleFramer}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie})
	g.State.Phase, g.State.DaysPassed = PhaseDay, 0.5
	if _, err := g.ChooseAction(playerID("Doc"), "heal", []string{"Tom"}); !IsValidation(err) {
		t.Errorf("expected day-time action to fail, got %v", err)
	}

	atNight(g, 1)
	player(t, g, "Tom").Alive = false
	tests := []struct {
		name    string
		player  string
		ability string
		args    []string
		want    string
	}{
		{"unknown player", "Zed", "heal", []string{"Mal"}, "You are not in this game."},
		{"unknown ability", "Doc", "fly", nil, "**fly** is not an ability."},
		{"not their ability", "Doc", "murder", []string{"Mal"}, "Your role doesn't have the ability **Murder**."},
		{"argument count", "Doc", "heal", nil, "**Heal** takes 1 argument(s) but got 0."},
		{"unknown target", "Doc", "heal", []string{"Zed"}, "There is no player named **Zed**."},
		{"self target", "Doc", "heal", []string{"Doc"}, "You can't target yourself with this ability."},
		{"dead target", "Doc", "heal", []string{"Tom"}, "**Tom** is dead."},
		{"mafia target", "Mal", "murder", []string{"Fran"}, "You can't target **Fran** because they're in the Mafia."},
		{"dead actor", "Tom", "nothing", nil, "You can't use abilities while dead."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.ChooseAction(playerID(tt.player), tt.ability, tt.args)
			if !IsValidation(err) || err.Error() != tt.want {
				t.Errorf("expected %q, got %v", tt.want, err)
			}
		})
	}

	doc := player(t, g, "Doc")
	doc.Used[AbilityHealSelf] = 1
	if _, err := g.ChooseAction(doc.ID, "heal-self", nil); !IsValidation(err) {
		t.Errorf("expected no uses left, got %v", err)
	}
	reply, err := g.ChooseAction(doc.ID, "heal", []string{"mal"})
	if err != nil {
		t.Fatalf("ChooseAction: %v", err)
	}
	if reply != "**You** will attempt to heal **Mal** tonight." {
		t.Errorf("unexpected reply %q", reply)
	}
	if doc.Visiting != "Mal" || doc.Action.Ability != AbilityHeal {
		t.Errorf("expected Doc to visit Mal, got %+v", doc)
	}
	if reply, err := g.ChooseAction(doc.ID, "Nothing", nil); err != nil || reply != "You will do nothing tonight." {
		t.Errorf("unexpected nothing reply %q %v", reply, err)
	}
	if doc.Visiting != "" || !doc.Action.IsNothing() {
		t.Errorf("expected the earlier choice to be replaced, got %+v", doc.Action)
	}
}

func TestGame_EarlyAdvanceAtNight(t *testing.T) {
	g, _ := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie}, seat{"Sam", RoleSheriff})
	atNight(g, 1)
	act(t, g, "Mal", "murder", "Tom")
	act(t, g, "Doc", "heal", "Tom")
	act(t, g, "Tom", "nothing")
	if _, due := g.EarlyAdvanceDue(); due {
		t.Fatal("Sam hasn't acted yet")
	}
	act(t, g, "Sam", "evaluate", "Mal")
	cp, due := g.EarlyAdvanceDue()
	if !due || cp != g.State.Checkpoint() {
		t.Errorf("expected early advance from the current checkpoint, got %v %+v", due, cp)
	}
}

func TestGame_CastVote(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie}, seat{"Sam", RoleSheriff}, seat{"Tia", RoleTownie})
	if _, err := g.CastVote(playerID("Tom"), "Mal"); !IsValidation(err) {
		t.Errorf("expected vote outside voting to fail, got %v", err)
	}

	atVoting(g, 2)
	player(t, g, "Tia").Alive = false
	player(t, g, "Sam").VoteBlocked = true

	tests := []struct {
		name   string
		voter  string
		target string
		want   string
	}{
		{"self vote", "Tom", "Tom", "You can't vote for yourself."},
		{"dead target", "Tom", "Tia", "**Tia** is dead."},
		{"unknown target", "Tom", "Zed", "There is no player named **Zed**."},
		{"dead voter", "Tia", "Mal", "You can't vote while dead."},
		{"vote blocked", "Sam", "Mal", "You can't vote today."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.CastVote(playerID(tt.voter), tt.target)
			if !IsValidation(err) || err.Error() != tt.want {
				t.Errorf("expected %q, got %v", tt.want, err)
			}
		})
	}

	if text, err := g.CastVote(playerID("Tom"), "mal"); err != nil || text != "**Tom** voted for **Mal**." {
		t.Errorf("unexpected vote result %q %v", text, err)
	}
	if _, err := g.CastVote(playerID("Doc"), "NOBODY"); err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if _, err := g.CastVote(playerID("Mal"), "abstain"); err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	want := map[string]string{"Tom": "Mal", "Doc": VoteNobody, "Mal": VoteAbstain}
	for voter, ballot := range want {
		if g.State.Votes[voter] != ballot {
			t.Errorf("%s: expected %q, got %q", voter, ballot, g.State.Votes[voter])
		}
	}
	if !n.announced("**Tom** voted for **Mal**.") {
		t.Error("expected the vote to be announced")
	}

	reply, err := g.CastVote(playerID("Tom"), "Doc")
	if err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if reply != "You are replacing your previous vote, **Mal**, with **Doc**." {
		t.Errorf("unexpected reply to a changed vote %q", reply)
	}
	if g.State.Votes["Tom"] != "Doc" {
		t.Errorf("expected the new vote to replace the old one, got %q", g.State.Votes["Tom"])
	}
	if !n.announced("**Tom** changed their vote to **Doc**.") {
		t.Error("expected the changed vote to be announced")
	}
	if reply, _ := g.CastVote(playerID("Doc"), "abstain"); reply != "You are replacing your previous vote, **nobody**, with **abstain**." {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestGame_LastWillAndDeathNote(t *testing.T) {
	g, _ := newTestGame(t, seat{"Mal", RoleMafioso}, seat{"Tom", RoleTownie})
	if err := g.SetLastWill(playerID("Tom"), "  I was the Townie.  "); err != nil {
		t.Fatalf("SetLastWill: %v", err)
	}
	if got := player(t, g, "Tom").LastWill; got != "I was the Townie." {
		t.Errorf("unexpected last will %q", got)
	}
	if err := g.SetLastWill(playerID("Tom"), strings.Repeat("x", 1001)); !IsValidation(err) {
		t.Errorf("expected long will to fail, got %v", err)
	}
	if err := g.SetDeathNote(playerID("Mal"), strings.Repeat("x", 201)); !IsValidation(err) {
		t.Errorf("expected long note to fail, got %v", err)
	}
	player(t, g, "Tom").Alive = false
	if err := g.SetLastWill(playerID("Tom"), "too late"); !IsValidation(err) {
		t.Errorf("expected dead player to be refused, got %v", err)
	}
}

func TestGame_LynchAndTrial(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Bob", RoleTownie}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie}, seat{"Sam", RoleSheriff})
	atVoting(g, 2)
	if err := g.SetLastWill(playerID("Mal"), "Bob is lying."); err != nil {
		t.Fatalf("SetLastWill: %v", err)
	}
	for _, voter := range []string{"Bob", "Doc", "Tom", "Sam"} {
		if _, err := g.CastVote(playerID(voter), "Mal"); err != nil {
			t.Fatalf("CastVote(%s): %v", voter, err)
		}
	}
	if _, due := g.EarlyAdvanceDue(); !due {
		t.Fatal("four of five votes is a two-thirds majority")
	}
	advance(t, g)
	if g.State.Subphase != SubphaseTrial || g.State.OnTrial != "Mal" {
		t.Fatalf("expected Mal on trial, got %+v", g.State.Checkpoint())
	}
	if _, err := g.CastTrialVote(playerID("Mal"), "innocent"); !IsValidation(err) {
		t.Errorf("expected own trial vote to fail, got %v", err)
	}
	if _, err := g.CastTrialVote(playerID("Bob"), "maybe"); !IsValidation(err) {
		t.Errorf("expected bad verdict to fail, got %v", err)
	}
	for _, voter := range []string{"Bob", "Doc", "Tom"} {
		reply, err := g.CastTrialVote(playerID(voter), "GUILTY")
		if err != nil {
			t.Fatalf("CastTrialVote(%s): %v", voter, err)
		}
		if reply != "You voted **Guilty**." {
			t.Errorf("unexpected reply %q", reply)
		}
	}
	reply, err := g.CastTrialVote(playerID("Tom"), "innocent")
	if err != nil || reply != "You are replacing your previous vote, **Guilty**, with **Innocent**." {
		t.Errorf("unexpected reply to a changed verdict %q %v", reply, err)
	}
	if !n.announced("**Tom** changed their vote.") {
		t.Error("expected the changed verdict to be announced without the ballot")
	}
	if _, err := g.CastTrialVote(playerID("Tom"), "guilty"); err != nil {
		t.Fatalf("CastTrialVote: %v", err)
	}
	advance(t, g)

	if player(t, g, "Mal").Alive {
		t.Error("expected Mal to be lynched")
	}
	if g.State.Status != StatusEnded {
		t.Fatalf("expected the Town to win, got %s", g.State.Status)
	}
	if len(g.State.WinningFactions) != 1 || g.State.WinningFactions[0] != "Town" {
		t.Errorf("unexpected winning factions %v", g.State.WinningFactions)
	}
	if strings.Join(g.State.Winners, ",") != "Bob,Doc,Tom,Sam" {
		t.Errorf("unexpected winners %v", g.State.Winners)
	}
	if !n.announced("Bob is lying.") {
		t.Error("expected the last will to be revealed")
	}
}

func TestGame_InnocentVerdictGoesToNight(t *testing.T) {
	g, _ := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Bob", RoleTownie}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie})
	atVoting(g, 2)
	for _, voter := range []string{"Mal", "Doc", "Tom"} {
		if _, err := g.CastVote(playerID(voter), "Bob"); err != nil {
			t.Fatalf("CastVote(%s): %v", voter, err)
		}
	}
	advance(t, g)
	for _, voter := range []string{"Doc", "Tom"} {
		if _, err := g.CastTrialVote(playerID(voter), "innocent"); err != nil {
			t.Fatalf("CastTrialVote(%s): %v", voter, err)
		}
	}
	if _, err := g.CastTrialVote(playerID("Mal"), "guilty"); err != nil {
		t.Fatalf("CastTrialVote: %v", err)
	}
	advance(t, g)
	if !player(t, g, "Bob").Alive {
		t.Error("an innocent verdict must not lynch")
	}
	if g.State.Phase != PhaseNight || g.State.DaysPassed != 2 {
		t.Errorf("expected night 2, got %+v", g.State.Checkpoint())
	}
	if g.State.OnTrial != "" || g.State.Votes != nil {
		t.Error("expected the day's votes to be cleared at night")
	}
}

func TestGame_FoolLynchedCursesAVoter(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Fay", RoleFool}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie}, seat{"Sam", RoleSheriff})
	atVoting(g, 2)
	for _, voter := range []string{"Mal", "Doc", "Tom", "Sam"} {
		if _, err := g.CastVote(playerID(voter), "Fay"); err != nil {
			t.Fatalf("CastVote(%s): %v", voter, err)
		}
	}
	advance(t, g)
	for _, voter := range []string{"Mal", "Doc", "Tom", "Sam"} {
		if _, err := g.CastTrialVote(playerID(voter), "guilty"); err != nil {
			t.Fatalf("CastTrialVote(%s): %v", voter, err)
		}
	}
	advance(t, g)

	fay := player(t, g, "Fay")
	if fay.Alive || !fay.InLimbo || !fay.HasWon {
		t.Fatalf("expected the Fool in limbo with a win, got %+v", fay)
	}
	if strings.Join(fay.CanUseOn, ",") != "Doc,Mal,Sam,Tom" {
		t.Errorf("expected every guilty voter to be cursable, got %v", fay.CanUseOn)
	}
	if !n.told(fay.ID, fbWonAsFool) {
		t.Error("expected the Fool to be told they won")
	}
	if g.State.Phase != PhaseNight {
		t.Fatalf("expected night, got %+v", g.State.Checkpoint())
	}

	if _, err := g.ChooseAction(fay.ID, "self-frame", nil); !IsValidation(err) {
		t.Errorf("expected non-limbo ability to fail, got %v", err)
	}
	act(t, g, "Fay", "death-curse", "Tom")
	advance(t, g)

	if player(t, g, "Tom").Alive {
		t.Error("expected the curse to kill Tom")
	}
	if fay.InLimbo {
		t.Error("limbo should end with the night")
	}
	if g.State.Status != StatusInProgress {
		t.Errorf("expected the game to continue, got %s", g.State.Status)
	}
}

func TestGame_ExecutionerWinsWhenTargetLynched(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Exe", RoleExecutioner}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie}, seat{"Sam", RoleSheriff})
	exe := player(t, g, "Exe")
	exe.ExeTarget = "Tom"
	atVoting(g, 2)
	for _, voter := range []string{"Mal", "Exe", "Doc", "Sam"} {
		if _, err := g.CastVote(playerID(voter), "Tom"); err != nil {
			t.Fatalf("CastVote(%s): %v", voter, err)
		}
	}
	advance(t, g)
	for _, voter := range []string{"Mal", "Exe", "Doc", "Sam"} {
		if _, err := g.CastTrialVote(playerID(voter), "guilty"); err != nil {
			t.Fatalf("CastTrialVote(%s): %v", voter, err)
		}
	}
	advance(t, g)
	if player(t, g, "Tom").Alive {
		t.Fatal("expected Tom to be lynched")
	}
	if !exe.HasWon || !n.told(exe.ID, fbWonAsExecutioner) {
		t.Errorf("expected the Executioner to win, got %+v", exe)
	}
}

func TestGame_StaleCheckpointIsIgnored(t *testing.T) {
	g, _ := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie}, seat{"Sam", RoleSheriff})
	g.State.Phase, g.State.DaysPassed = PhaseDay, 0.5
	cp := g.State.Checkpoint()
	if err := g.Advance(cp); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if g.State.Phase != PhaseNight || g.State.DaysPassed != 1 {
		t.Fatalf("expected night 1, got %+v", g.State.Checkpoint())
	}
	g.DrainEvents()
	if err := g.Advance(cp); err != nil {
		t.Fatalf("stale Advance: %v", err)
	}
	if err := g.StartNight(cp); err != nil {
		t.Fatalf("stale StartNight: %v", err)
	}
	if g.State.Phase != PhaseNight || g.State.DaysPassed != 1 {
		t.Errorf("stale trigger moved the game to %+v", g.State.Checkpoint())
	}
	if events := g.DrainEvents(); len(events) != 0 {
		t.Errorf("stale trigger emitted %v", events)
	}
}

func TestGame_DrawAfterDeathlessDays(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie}, seat{"Sam", RoleSheriff})
	g.State.Phase, g.State.DaysPassed = PhaseDay, 0.5
	for i := 0; i < 20 && g.State.Status != StatusEnded; i++ {
		advance(t, g)
	}
	if g.State.Status != StatusEnded {
		t.Fatalf("expected a draw, got %+v", g.State.Checkpoint())
	}
	if g.State.TimeoutCounter != 3 || len(g.State.WinningFactions) != 0 {
		t.Errorf("expected draw after 3 days, got counter=%d factions=%v", g.State.TimeoutCounter, g.State.WinningFactions)
	}
	if !n.archived {
		t.Error("expected channels archived at the end")
	}
}

func TestGame_InactivePlayerIsSmitten(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie}, seat{"Sam", RoleSheriff}, seat{"Tia", RoleTownie})
	g.cfg.TrackInactivity = true
	atNight(g, 1)
	player(t, g, "Tom").Inactivity = g.cfg.MaxInactivePhases - 1
	for _, name := range []string{"Mal", "Doc", "Sam", "Tia"} {
		act(t, g, name, "nothing")
	}
	advance(t, g)
	if player(t, g, "Tom").Alive {
		t.Error("expected Tom to be smitten")
	}
	if !n.told(playerID("Tom"), fbSmitten) {
		t.Error("expected Tom to be told")
	}
	if player(t, g, "Doc").Inactivity != 0 {
		t.Error("acting should reset inactivity")
	}
}
