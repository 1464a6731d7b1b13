package games

import (
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"sort"
	"strings"
)

// BroadcastEvent represents an event to broadcast (type + payload).
type BroadcastEvent struct {
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
}

// Broadcast event names.
const (
	EventSignUpsStarted = "sign_ups_started"
	EventPlayerJoined   = "player_joined"
	EventPlayerLeft     = "player_left"
	EventGameStarted    = "game_started"
	EventPhaseChanged   = "phase_changed"
	EventActionChosen   = "action_chosen"
	EventVoteCast       = "vote_cast"
	EventTrialVoteCast  = "trial_vote_cast"
	EventPlayerDied     = "player_died"
	EventGameEnded      = "game_ended"
	EventGameCancelled  = "game_cancelled"
)

var validName = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

const (
	maxLastWillLength  = 1000
	maxDeathNoteLength = 200
)

// Game is one game's rules context: its state plus the collaborators and
// randomness every operation needs. It is not safe for concurrent use; the
// Engine serializes access.
type Game struct {
	State *GameState

	cfg      RulesConfig
	rng      *rand.Rand
	notifier Notifier
	members  Membership
	events   []BroadcastEvent
}

// NewGame creates a game that has not opened sign-ups.
func NewGame(gameID string, cfg RulesConfig, rng *rand.Rand, notifier Notifier, members Membership) *Game {
	return LoadGame(NewGameState(gameID), cfg, rng, notifier, members)
}

// LoadGame wraps an existing state, e.g. one restored from a snapshot.
func LoadGame(state *GameState, cfg RulesConfig, rng *rand.Rand, notifier Notifier, members Membership) *Game {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if members == nil {
		members = NoopNotifier{}
	}
	return &Game{State: state, cfg: cfg.withDefaults(), rng: rng, notifier: notifier, members: members}
}

// Config returns the game's rules.
func (g *Game) Config() RulesConfig { return g.cfg }

// DrainEvents returns and clears the events emitted since the last call.
func (g *Game) DrainEvents() []BroadcastEvent {
	out := g.events
	g.events = nil
	return out
}

func (g *Game) emit(event string, payload map[string]interface{}) {
	g.events = append(g.events, BroadcastEvent{Event: event, Payload: payload})
}

func (g *Game) announce(lines ...string) {
	g.notifier.Announce(g.State.GameID, strings.Join(lines, "\n"))
}

func (g *Game) tell(p *Player, lines ...string) {
	g.notifier.SendToPlayer(g.State.GameID, p.ID, strings.Join(lines, "\n"))
}

func (g *Game) phaseChanged() {
	g.logPhase()
	g.emit(EventPhaseChanged, map[string]interface{}{
		"status":      g.State.Status,
		"phase":       g.State.Phase,
		"subphase":    g.State.Subphase,
		"days_passed": g.State.DaysPassed,
		"day":         g.State.DayNumber(),
	})
}

// StartSignUps opens a fresh game for sign-ups.
func (g *Game) StartSignUps() error {
	if g.State.Status != StatusEnded {
		return invalidf("A game is already in progress.")
	}
	gameID := g.State.GameID
	g.State = NewGameState(gameID)
	g.State.toSignUp()
	g.announce(msgSignUpsOpen())
	g.emit(EventSignUpsStarted, map[string]interface{}{"game_id": gameID})
	g.logPhase()
	return nil
}

// Join signs a player up. An empty id gets a generated one.
func (g *Game) Join(name, id string) (*Player, error) {
	if g.State.Status != StatusSignUp {
		return nil, invalidf("Sign-ups are closed.")
	}
	name = strings.Join(strings.Fields(name), " ")
	if err := g.validateName(name); err != nil {
		return nil, err
	}
	if id != "" && g.State.PlayerByID(id) != nil {
		return nil, invalidf("You already joined the game.")
	}
	p := NewPlayer(name, id)
	g.State.Players = append(g.State.Players, p)
	g.members.CreatePlayerChannel(g.State.GameID, p.ID)
	g.announce(fmt.Sprintf("**%s** joined the game.", p.Name))
	g.emit(EventPlayerJoined, map[string]interface{}{"player_id": p.ID, "name": p.Name})
	return p, nil
}

func (g *Game) validateName(name string) error {
	switch {
	case name == "":
		return invalidf("Your name can't be empty.")
	case len(name) > g.cfg.MaxNameLength:
		return invalidf("Your name must be %d characters or fewer.", g.cfg.MaxNameLength)
	case !validName.MatchString(name):
		return invalidf("Your name may only contain letters, numbers and spaces.")
	case strings.EqualFold(name, VoteAbstain) || strings.EqualFold(name, VoteNobody):
		return invalidf("**%s** is a reserved name.", name)
	case g.State.Player(name) != nil:
		return invalidf("The name **%s** is already taken.", name)
	}
	return nil
}

// CloseSignUps ends sign-ups. With too few players the game is cancelled.
func (g *Game) CloseSignUps(cp Checkpoint) error {
	if !g.guard(cp, "close_sign_ups") || g.State.Status != StatusSignUp {
		return nil
	}
	n := len(g.State.Players)
	if n < g.cfg.MinPlayers {
		g.announce(msgNotEnoughSignUps(n, g.cfg.MinPlayers))
		g.members.ArchivePlayerChannels(g.State.GameID)
		g.State = NewGameState(g.State.GameID)
		g.emit(EventGameCancelled, map[string]interface{}{"players": n, "min_players": g.cfg.MinPlayers})
		g.logPhase()
		return nil
	}
	g.State.toReadyToBegin()
	g.announce(msgSignUpsClosed(n))
	g.logPhase()
	return nil
}

// StartGame assigns roles from the requested identifiers and starts day 1.
func (g *Game) StartGame(identifiers []string) error {
	if g.State.Status == StatusSignUp {
		if n := len(g.State.Players); n < g.cfg.MinPlayers {
			return invalidf("Not enough players signed up: %d of %d.", n, g.cfg.MinPlayers)
		}
		if err := g.CloseSignUps(g.State.Checkpoint()); err != nil {
			return err
		}
	}
	if g.State.Status != StatusReadyToBegin {
		return invalidf("The game can't be started right now.")
	}
	if len(identifiers) != len(g.State.Players) {
		return invalidf("The role list has %d roles but %d players signed up.", len(identifiers), len(g.State.Players))
	}
	ids, err := ParseRoleIdentifiers(identifiers)
	if err != nil {
		return err
	}
	roles, err := BuildRoleList(ids, g.rng, g.cfg)
	if err != nil {
		return err
	}
	g.rng.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })

	// Resolve every role before mutating so a bad catalog entry changes nothing.
	entries := make([]*Role, len(roles))
	for i, name := range roles {
		if entries[i], err = MustRole(name); err != nil {
			return err
		}
	}

	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Name
	}
	g.State.RoleIdentifiers = names
	g.State.RoleList = roles
	g.State.toInProgress()

	for i, p := range g.State.Players {
		p.SetRole(entries[i])
		g.tell(p, entries[i].DisplayText(false))
		if entries[i].Faction == FactionMafia {
			g.members.GrantFactionChat(g.State.GameID, p.ID, FactionMafia)
		}
	}
	for _, p := range g.State.Players {
		if p.Role == RoleExecutioner {
			if err := g.giveExeTarget(p); err != nil {
				return err
			}
		}
	}
	g.announceMafia()
	g.announce(msgShowRoleList(names))
	g.emit(EventGameStarted, map[string]interface{}{"players": len(g.State.Players), "role_list": names})

	g.State.toFirstDay()
	g.announce(msgDayOneStarted)
	g.members.SetDayChat(g.State.GameID, true)
	g.phaseChanged()
	return nil
}

func (g *Game) announceMafia() {
	var members []string
	for _, p := range g.State.LivingPlayers() {
		if r, ok := GetRole(p.Role); ok && r.Faction == FactionMafia {
			members = append(members, fmt.Sprintf("**%s** (%s)", p.Name, p.Role))
		}
	}
	if len(members) > 0 {
		g.notifier.SendToFaction(g.State.GameID, FactionMafia, "The Mafia is "+listOfWords(members)+".")
	}
}

// StartNight closes the day and opens the night.
func (g *Game) StartNight(cp Checkpoint) error {
	if !g.guard(cp, "start_night") || g.State.Status != StatusInProgress {
		return nil
	}
	g.members.SetDayChat(g.State.GameID, false)
	g.State.toNight()
	g.State.Votes, g.State.TrialVotes = nil, nil
	g.State.OnTrial, g.State.Verdict = "", ""
	for _, p := range g.State.Players {
		p.ResetNightInfo()
	}
	if err := g.expireEffects(); err != nil {
		return err
	}
	g.sendFeedback()
	if err := g.promoteMafia(); err != nil {
		return err
	}
	g.announce(msgStartNight(g.State.DayNumber()))
	g.phaseChanged()
	return nil
}

// StartDay resolves the night and announces what happened.
func (g *Game) StartDay(cp Checkpoint) error {
	if !g.guard(cp, "start_day") || g.State.Status != StatusInProgress {
		return nil
	}
	for _, p := range g.State.Players {
		if p.Alive && p.Action == nil {
			g.markInactive(p)
		}
	}
	g.State.toDay()
	if err := g.resolveNight(); err != nil {
		return err
	}
	for _, p := range g.State.Players {
		p.InLimbo = false
	}
	g.announce(msgStartDay(g.State.DayNumber()))
	g.sendFeedback()
	g.phaseChanged()

	ended, err := g.killDeadPlayers()
	if err != nil || ended {
		return err
	}
	g.members.SetDayChat(g.State.GameID, true)
	return g.StartVoting(g.State.Checkpoint())
}

// StartVoting opens the vote on who goes on trial.
func (g *Game) StartVoting(cp Checkpoint) error {
	if !g.guard(cp, "start_voting") || g.State.Subphase != SubphaseAnnouncements {
		return nil
	}
	g.State.toVoting()
	g.State.Votes = make(map[string]string)
	g.announce(msgStartVoting)
	g.phaseChanged()
	return nil
}

// StartTrial tallies the lynch vote and puts the winner on trial.
func (g *Game) StartTrial(cp Checkpoint) error {
	if !g.guard(cp, "start_trial") || g.State.Subphase != SubphaseVoting {
		return nil
	}
	voters := g.lynchVoters()
	for _, p := range voters {
		if _, ok := g.State.Votes[p.Name]; !ok {
			g.markInactive(p)
		}
	}
	outcome, ok := MajorityVote(g.State.Votes, len(voters))
	if !ok {
		outcome = TallyVotes(g.State.Votes)
	}
	switch outcome {
	case VoteNobody:
		g.announce(msgVotingOver, msgVotingOutcomeNobody)
	case OutcomeTie:
		g.announce(msgVotingOver, msgVotingOutcomeTie)
	case OutcomeNoVotes:
		g.announce(msgVotingOver, msgVotingOutcomeNone)
	default:
		g.announce(msgVotingOver, msgVotingOutcomePlayer(outcome))
	}

	ended, err := g.killDeadPlayers()
	if err != nil || ended {
		return err
	}
	onTrial := g.State.Player(outcome)
	if onTrial == nil || !onTrial.Alive {
		g.State.toTrialResults()
		return g.StartNight(g.State.Checkpoint())
	}
	g.State.OnTrial = onTrial.Name
	g.State.TrialVotes = make(map[string]string)
	g.State.toTrial()
	g.announce(msgStartTrial(onTrial.Name))
	g.phaseChanged()
	return nil
}

// StartTrialResults tallies the verdict and lynches a guilty player.
func (g *Game) StartTrialResults(cp Checkpoint) error {
	if !g.guard(cp, "start_trial_results") || g.State.Subphase != SubphaseTrial {
		return nil
	}
	g.State.toTrialResults()
	verdict, ok := MajorityVote(g.State.TrialVotes, len(g.trialVoters()))
	if !ok {
		verdict = TallyVotes(g.State.TrialVotes)
	}
	if verdict != VerdictGuilty && verdict != OutcomeTie && verdict != OutcomeNoVotes {
		verdict = VerdictInnocent
	}
	g.State.Verdict = verdict

	voters := make([]string, 0, len(g.State.Players))
	for _, p := range g.State.Players {
		voters = append(voters, p.Name)
	}
	g.announce(msgTrialOver, msgTrialOutcome(verdict, g.State.OnTrial), msgRevealedVotes(voters, g.State.TrialVotes))
	g.phaseChanged()

	if verdict == VerdictGuilty {
		if p := g.State.Player(g.State.OnTrial); p != nil && p.Alive {
			g.lynch(p)
		}
	}
	ended, err := g.killDeadPlayers()
	if err != nil || ended {
		return err
	}
	return g.StartNight(g.State.Checkpoint())
}

func (g *Game) lynch(p *Player) {
	g.State.NextDeaths = append(g.State.NextDeaths, Death{Victim: p.Name, Lynched: true})
	if p.Role == RoleFool {
		var guilty []string
		for voter, ballot := range g.State.TrialVotes {
			if ballot == VerdictGuilty {
				guilty = append(guilty, voter)
			}
		}
		sort.Strings(guilty)
		p.InLimbo = true
		p.HasWon = true
		p.CanUseOn = guilty
		g.tell(p, fbWonAsFool)
		g.announce(msgLynchedFool)
	}
	for _, exe := range g.State.Players {
		if exe.Role == RoleExecutioner && exe.ExeTarget == p.Name && !exe.HasWon {
			exe.HasWon = true
			g.tell(exe, fbWonAsExecutioner)
		}
	}
}

// addDeath records a kill, merging kills on the same victim.
func (g *Game) addDeath(victim string, k Kill) {
	for i := range g.State.NextDeaths {
		if g.State.NextDeaths[i].Victim == victim {
			g.State.NextDeaths[i].Kills = append(g.State.NextDeaths[i].Kills, k)
			return
		}
	}
	g.State.NextDeaths = append(g.State.NextDeaths, Death{Victim: victim, Kills: []Kill{k}})
}

func (g *Game) commitSuicide(p *Player) {
	if !p.Alive {
		return
	}
	g.addDeath(p.Name, Kill{Killer: p.Name, KillerRole: p.Role, Ability: AbilitySuicide, Flavor: msgVigilanteSuicide})
	p.AddFeedback(fbCommittedSuicide)
}

// killDeadPlayers resolves pending deaths, then checks the timeout and win
// conditions. It reports whether the game ended.
func (g *Game) killDeadPlayers() (bool, error) {
	deaths := g.State.NextDeaths
	g.State.NextDeaths = nil

	var died []*Player
	for _, d := range deaths {
		p := g.State.Player(d.Victim)
		if p == nil || !p.Alive {
			continue
		}
		role, err := MustRole(p.Role)
		if err != nil {
			return false, err
		}
		g.announce(g.deathAnnouncement(p, d)...)
		p.Alive = false
		if role.Faction == FactionMafia {
			g.members.RevokeFactionChat(g.State.GameID, p.ID, FactionMafia)
		}
		g.emit(EventPlayerDied, map[string]interface{}{"player_id": p.ID, "name": p.Name, "lynched": d.Lynched})
		died = append(died, p)
	}

	for _, d := range deaths {
		if d.Lynched {
			continue
		}
		for _, exe := range g.State.Players {
			if exe.Alive && exe.Role == RoleExecutioner && !exe.HasWon && exe.ExeTarget == d.Victim {
				if err := g.convertPlayer(exe, RoleFool, ""); err != nil {
					return false, err
				}
			}
		}
	}

	if len(died) > 0 {
		g.State.TimeoutCounter = 0
		names := make([]string, 0)
		for _, p := range g.State.LivingPlayers() {
			names = append(names, p.Name)
		}
		g.announce(msgShowLivingPlayers(names))
	}

	if g.checkWin() {
		return true, nil
	}

	if len(died) == 0 && g.State.Subphase == SubphaseAnnouncements {
		g.State.TimeoutCounter++
		if g.State.TimeoutCounter >= g.cfg.MaxTimeoutDays {
			g.announce(msgDrawFromTimeout(g.State.TimeoutCounter))
			g.endGame(nil, nil)
			return true, nil
		}
		g.announce(msgTimeoutWarning(g.cfg.MaxTimeoutDays, g.State.TimeoutCounter))
	}
	return false, nil
}

func (g *Game) deathAnnouncement(p *Player, d Death) []string {
	var lines []string
	if d.Lynched {
		lines = append(lines, msgPlayerLynched(p.Name))
	} else {
		lines = append(lines, msgPlayerFoundDead(p.Name))
	}
	for i, k := range d.Kills {
		if k.Flavor != "" {
			lines = append(lines, k.Flavor)
			continue
		}
		if r, ok := GetRole(k.KillerRole); ok && r.Faction == FactionMafia {
			lines = append(lines, msgMurderByFaction(FactionMafia, i > 0))
		} else {
			lines = append(lines, msgMurderByRole(k.KillerRole, i > 0))
		}
		if killer := g.State.Player(k.Killer); killer != nil && killer.DeathNote != "" {
			lines = append(lines, msgDeathNote(killer.Name, killer.DeathNote))
		}
	}
	switch {
	case p.Unidentifiable:
		lines = append(lines, msgRoleUnidentifiable(p.Name), msgLastWillUnknown)
	case p.LastWill != "":
		lines = append(lines, msgRoleReveal(p.Name, p.Role), msgLastWillFound(p.LastWill))
	default:
		lines = append(lines, msgRoleReveal(p.Name, p.Role), msgLastWillNotFound)
	}
	return lines
}

// convertPlayer changes a player's role mid-game.
func (g *Game) convertPlayer(p *Player, to RoleName, exeTarget string) error {
	from, err := MustRole(p.Role)
	if err != nil {
		return err
	}
	role, err := MustRole(to)
	if err != nil {
		return err
	}
	if from.Faction == FactionMafia && role.Faction != FactionMafia {
		g.members.RevokeFactionChat(g.State.GameID, p.ID, FactionMafia)
	}
	if role.Faction == FactionMafia && from.Faction != FactionMafia {
		g.members.GrantFactionChat(g.State.GameID, p.ID, FactionMafia)
	}
	p.SetRole(role)
	p.ExeTarget = ""
	g.tell(p, fbConvertedToRole(from.Name, role.Name), role.DisplayText(true))
	log.Printf("player converted: game_id=%s player=%s from=%s to=%s", g.State.GameID, p.Name, from.Name, role.Name)

	if role.Name == RoleExecutioner {
		if t := g.State.Player(exeTarget); t != nil && t.Alive {
			p.ExeTarget = t.Name
			g.tell(p, fbGiveExeTarget(t.Name))
			return nil
		}
		return g.giveExeTarget(p)
	}
	return nil
}

// giveExeTarget picks a random living Town player for an Executioner. With
// no Town left the Executioner becomes a Fool.
func (g *Game) giveExeTarget(exe *Player) error {
	var town []*Player
	for _, p := range g.State.LivingPlayers() {
		if r, ok := GetRole(p.Role); ok && r.Faction == FactionTown && p != exe {
			town = append(town, p)
		}
	}
	if len(town) == 0 {
		return g.convertPlayer(exe, RoleFool, "")
	}
	t := town[g.rng.Intn(len(town))]
	exe.ExeTarget = t.Name
	g.tell(exe, fbGiveExeTarget(t.Name))
	return nil
}

// promoteMafia makes a random living Mafia member the Mafioso when the
// Mafioso is dead.
func (g *Game) promoteMafia() error {
	var mafia []*Player
	for _, p := range g.State.LivingPlayers() {
		if p.Role == RoleMafioso {
			return nil
		}
		if r, ok := GetRole(p.Role); ok && r.Faction == FactionMafia {
			mafia = append(mafia, p)
		}
	}
	if len(mafia) == 0 {
		return nil
	}
	p := mafia[g.rng.Intn(len(mafia))]
	if err := g.convertPlayer(p, RoleMafioso, ""); err != nil {
		return err
	}
	g.notifier.SendToFaction(g.State.GameID, FactionMafia, fbPromotedToMafioso(p.Name))
	return nil
}

// expireEffects drops timed effects that have run out and reverses them.
func (g *Game) expireEffects() error {
	now := g.State.DaysPassed
	for _, p := range g.State.Players {
		var kept, expired []AffectedBy
		for _, a := range p.AffectedBy {
			ab, err := MustAbility(a.Ability)
			if err != nil {
				return err
			}
			if ab.Duration == DurationIndefinite || a.DuringPhase+ab.Duration > now {
				kept = append(kept, a)
			} else {
				expired = append(expired, a)
			}
		}
		p.AffectedBy = kept
		for _, a := range expired {
			if err := g.reverseEffect(p, a); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Game) reverseEffect(p *Player, a AffectedBy) error {
	ab, err := MustAbility(a.Ability)
	if err != nil {
		return err
	}
	switch ab.Type {
	case AbilityTypeProtection:
		g.restoreDefense(p)
	case AbilityTypeManipulation:
		p.ResetPerceived()
		for _, other := range p.AffectedBy {
			if o, ok := GetAbility(other.Ability); ok && o.Type == AbilityTypeManipulation {
				p.Frame()
			}
		}
	case AbilityTypeRoleblock:
		p.Roleblocked = false
		if ab.Name == AbilityKidnap {
			g.restoreDefense(p)
			p.Muted = false
			p.VoteBlocked = false
			p.AddFeedback(fbUnkidnapped)
		}
	case AbilityTypeSuicide:
		g.commitSuicide(p)
	}
	return nil
}

// restoreDefense resets defense to base, keeping any protection still active.
func (g *Game) restoreDefense(p *Player) {
	p.RestoreDefense()
	for _, a := range p.AffectedBy {
		p.GiveDefense(defenseFloor(a.Ability))
	}
}

// sendFeedback delivers and clears every player's feedback queue.
func (g *Game) sendFeedback() {
	for _, p := range g.State.Players {
		if len(p.Feedback) == 0 {
			continue
		}
		g.tell(p, p.Feedback...)
		p.Feedback = nil
	}
}

func (g *Game) markInactive(p *Player) {
	if !g.cfg.TrackInactivity || !p.Alive {
		return
	}
	p.Inactivity++
	switch {
	case p.Inactivity >= g.cfg.MaxInactivePhases:
		g.tell(p, fbSmitten)
		g.addDeath(p.Name, Kill{Killer: p.Name, KillerRole: p.Role, Flavor: msgPlayerSmitten})
	case p.Inactivity >= g.cfg.InactivityWarningAt:
		g.tell(p, fbInactivityWarning(p.Inactivity, g.cfg.MaxInactivePhases-p.Inactivity))
	}
}

// endGame finishes the game. Nil factions and winners mean a draw.
func (g *Game) endGame(factions, winners []string) {
	g.State.WinningFactions = factions
	g.State.Winners = winners
	if len(factions) > 0 {
		g.announce(msgCongratulateWinners(factions, winners))
	}
	g.State.toEnded()
	g.members.SetDayChat(g.State.GameID, true)
	g.members.ArchivePlayerChannels(g.State.GameID)
	g.emit(EventGameEnded, map[string]interface{}{"winning_factions": factions, "winners": winners})
	g.logPhase()
}
