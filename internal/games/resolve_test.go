package games

import (
	"strings"
	"testing"
)

func TestNight_DoctorSavesTarget(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie}, seat{"Sam", RoleSheriff})
	atNight(g, 1)
	act(t, g, "Mal", "murder", "Tom")
	act(t, g, "Doc", "heal", "Tom")
	advance(t, g)

	if !player(t, g, "Tom").Alive {
		t.Fatal("expected the heal to save Tom")
	}
	if !n.told(playerID("Doc"), fbProtectedAttacked) {
		t.Error("expected the Doctor to hear their target was attacked")
	}
	if !n.told(playerID("Mal"), fbAttackFailed("Tom")) {
		t.Error("expected the Mafioso to hear the attack failed")
	}
	if !n.told(playerID("Tom"), fbAttackedButSurvived) {
		t.Error("expected Tom to hear he survived")
	}
	if g.State.Subphase != SubphaseVoting || g.State.DayNumber() != 2 {
		t.Errorf("expected voting on day 2, got %+v", g.State.Checkpoint())
	}
	if g.State.TimeoutCounter != 1 {
		t.Errorf("expected a deathless day to count toward the timeout, got %d", g.State.TimeoutCounter)
	}
}

func TestNight_DoctorAndVigilanteBeatMafioso(t *testing.T) {
	g, _ := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Vic", RoleVigilante}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie})
	atNight(g, 1)
	act(t, g, "Mal", "murder", "Tom")
	act(t, g, "Doc", "heal", "Tom")
	act(t, g, "Vic", "shoot", "Mal")
	advance(t, g)

	if player(t, g, "Mal").Alive || !player(t, g, "Tom").Alive {
		t.Fatalf("expected Mal dead and Tom alive")
	}
	if player(t, g, "Vic").IsAffectedBy(AbilitySuicide) {
		t.Error("shooting the Mafia must not trigger guilt")
	}
	if g.State.Status != StatusEnded {
		t.Fatalf("expected the Town to win, got %s", g.State.Status)
	}
	if strings.Join(g.State.WinningFactions, ",") != "Town" || strings.Join(g.State.Winners, ",") != "Vic,Doc,Tom" {
		t.Errorf("unexpected result factions=%v winners=%v", g.State.WinningFactions, g.State.Winners)
	}
	if used := player(t, g, "Vic").TimesUsed(AbilityShoot); used != 1 {
		t.Errorf("expected one shot used, got %d", used)
	}
}

func TestNight_SerialKillerAttacksRoleblocker(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Sid", RoleSerialKiller}, seat{"Eve", RoleEscort}, seat{"Tom", RoleTownie}, seat{"Mal", RoleMafioso}, seat{"Doc", RoleDoctor})
	atNight(g, 1)
	act(t, g, "Sid", "knife", "Tom")
	act(t, g, "Eve", "roleblock", "Sid")
	advance(t, g)

	if player(t, g, "Eve").Alive {
		t.Error("expected the Serial Killer to kill the Escort")
	}
	if !player(t, g, "Tom").Alive {
		t.Error("the original target should be spared")
	}
	if !n.told(playerID("Sid"), fbAttackedRoleblocker) || !n.told(playerID("Sid"), fbWasRoleblockedImmune) {
		t.Error("expected the Serial Killer to hear about the switch")
	}
	if g.State.Status != StatusInProgress {
		t.Errorf("expected the game to continue, got %s", g.State.Status)
	}
}

func TestNight_CautiousSerialKillerSparesRoleblocker(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Sid", RoleSerialKiller}, seat{"Eve", RoleEscort}, seat{"Tom", RoleTownie}, seat{"Mal", RoleMafioso})
	atNight(g, 1)
	act(t, g, "Sid", "cautious")
	act(t, g, "Eve", "roleblock", "Sid")
	advance(t, g)

	if !player(t, g, "Eve").Alive {
		t.Error("a cautious Serial Killer must not attack the roleblocker")
	}
	if !n.told(playerID("Sid"), fbDidCautious) {
		t.Error("expected cautious feedback")
	}
}

func TestNight_RoleblockStopsMurder(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Eve", RoleEscort}, seat{"Tom", RoleTownie}, seat{"Doc", RoleDoctor})
	atNight(g, 1)
	act(t, g, "Mal", "murder", "Tom")
	act(t, g, "Eve", "roleblock", "Mal")
	advance(t, g)

	if !player(t, g, "Tom").Alive {
		t.Error("a roleblocked Mafioso must not kill")
	}
	if !n.told(playerID("Mal"), fbWasRoleblocked) {
		t.Error("expected the Mafioso to hear they were roleblocked")
	}
	if player(t, g, "Mal").TimesUsed(AbilityMurder) != 0 {
		t.Error("a roleblocked action must not count as a use")
	}
	found := false
	for _, line := range g.State.ActionLog[1] {
		if strings.HasSuffix(line, "(roleblocked)") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a roleblocked entry in the action log, got %v", g.State.ActionLog)
	}
}

func TestNight_FramedPlayerLooksSuspicious(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Fran", RoleFramer}, seat{"Sam", RoleSheriff}, seat{"Tom", RoleTownie}, seat{"Doc", RoleDoctor})
	atNight(g, 1)
	act(t, g, "Fran", "frame", "Tom")
	act(t, g, "Sam", "evaluate", "Tom")
	advance(t, g)

	if !n.told(playerID("Sam"), fbSuspicious("Tom")) {
		t.Errorf("expected the framed Townie to look suspicious, got %v", n.private[playerID("Sam")])
	}
	tom := player(t, g, "Tom")
	if tom.ApparentRole() != RoleTownie || tom.IsAffectedBy(AbilityFrame) {
		t.Error("investigation should clear the frame")
	}
}

func TestNight_InvestigativeFeedback(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Cons", RoleConsigliere}, seat{"Tracy", RoleTracker},
		seat{"Lou", RoleLookout}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie})
	atNight(g, 1)
	act(t, g, "Mal", "murder", "Tom")
	act(t, g, "Doc", "heal", "Tom")
	act(t, g, "Cons", "investigate", "Doc")
	act(t, g, "Tracy", "track", "Mal")
	act(t, g, "Lou", "lookout", "Tom")
	advance(t, g)

	if !n.told(playerID("Cons"), fbInvestigatedRole("Doc", RoleDoctor)) {
		t.Error("expected the Consigliere to learn the Doctor's role")
	}
	if !n.told(playerID("Tracy"), fbTrackerSaw("Mal", "Tom")) {
		t.Error("expected the Tracker to see Mal visit Tom")
	}
	if !n.told(playerID("Lou"), fbLookoutSaw("Tom", []string{"Mal", "Doc"})) {
		t.Errorf("expected the Lookout to see both visitors, got %v", n.private[playerID("Lou")])
	}
}

func TestNight_HealExpiresAfterADayAndNight(t *testing.T) {
	g, _ := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie}, seat{"Sam", RoleSheriff})
	atNight(g, 1)
	act(t, g, "Doc", "heal", "Tom")
	advance(t, g)

	tom := player(t, g, "Tom")
	if tom.Defense != 2 || !tom.IsAffectedBy(AbilityHeal) {
		t.Fatalf("expected the heal to last through the day, got defense=%d", tom.Defense)
	}
	advance(t, g)
	if g.State.Phase != PhaseNight || g.State.DaysPassed != 2 {
		t.Fatalf("expected night 2, got %+v", g.State.Checkpoint())
	}
	if tom.Defense != 0 || tom.IsAffectedBy(AbilityHeal) {
		t.Errorf("expected the heal to expire, got defense=%d affected=%v", tom.Defense, tom.AffectedBy)
	}
}

func TestNight_VigilanteGuiltSuicide(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Vic", RoleVigilante}, seat{"Tom", RoleTownie}, seat{"Mal", RoleMafioso}, seat{"Doc", RoleDoctor}, seat{"Sam", RoleSheriff})
	atNight(g, 1)
	act(t, g, "Vic", "shoot", "Tom")
	advance(t, g)

	vic := player(t, g, "Vic")
	if player(t, g, "Tom").Alive || !vic.Alive {
		t.Fatal("expected Tom dead and the Vigilante alive for now")
	}
	if !vic.IsAffectedBy(AbilitySuicide) || !n.told(vic.ID, fbCommittingSuicide) {
		t.Fatal("expected the Vigilante to be wracked with guilt")
	}

	advance(t, g) // no votes, straight to night 2
	if g.State.Phase != PhaseNight || !vic.Alive {
		t.Fatalf("expected night 2 with the Vigilante still alive, got %+v", g.State.Checkpoint())
	}
	advance(t, g)
	if vic.Alive {
		t.Error("expected the Vigilante to commit suicide")
	}
	if g.State.Status != StatusInProgress {
		t.Errorf("expected the game to continue, got %s", g.State.Status)
	}
}

func TestNight_MafiaPromotion(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Fran", RoleFramer}, seat{"Vic", RoleVigilante}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie})
	atNight(g, 1)
	act(t, g, "Vic", "shoot", "Mal")
	advance(t, g)
	if player(t, g, "Mal").Alive {
		t.Fatal("expected the Mafioso to die")
	}
	advance(t, g)

	fran := player(t, g, "Fran")
	if fran.Role != RoleMafioso || fran.Attack != 1 {
		t.Errorf("expected the Framer to be promoted, got %s attack=%d", fran.Role, fran.Attack)
	}
	if len(n.faction[FactionMafia]) == 0 || !strings.Contains(n.faction[FactionMafia][len(n.faction[FactionMafia])-1], "promoted") {
		t.Errorf("expected a promotion message, got %v", n.faction[FactionMafia])
	}
}

func TestNight_ExecutionerBecomesFoolWhenTargetDies(t *testing.T) {
	g, _ := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Exe", RoleExecutioner}, seat{"Tom", RoleTownie}, seat{"Doc", RoleDoctor}, seat{"Sam", RoleSheriff})
	player(t, g, "Exe").ExeTarget = "Tom"
	atNight(g, 1)
	act(t, g, "Mal", "murder", "Tom")
	advance(t, g)

	exe := player(t, g, "Exe")
	if exe.Role != RoleFool || exe.ExeTarget != "" {
		t.Errorf("expected the Executioner to become a Fool, got %s target=%q", exe.Role, exe.ExeTarget)
	}
}

func TestNight_KidnapBlocksAndMutes(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Mal", RoleMafioso}, seat{"Kim", RoleKidnapper}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie}, seat{"Sam", RoleSheriff})
	atNight(g, 1)
	act(t, g, "Kim", "kidnap", "Doc")
	act(t, g, "Doc", "heal", "Tom")
	act(t, g, "Mal", "murder", "Tom")
	advance(t, g)

	doc := player(t, g, "Doc")
	if player(t, g, "Tom").Alive {
		t.Error("a kidnapped Doctor can't heal")
	}
	if !doc.Muted || !doc.VoteBlocked || !n.told(doc.ID, fbKidnapped) {
		t.Errorf("expected the Doctor to be muted and vote blocked, got %+v", doc)
	}
	if _, err := g.CastVote(doc.ID, "Mal"); !IsValidation(err) {
		t.Errorf("expected a kidnapped player to be refused, got %v", err)
	}
}

func TestNight_WitchControlsDoctor(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Wanda", RoleWitch}, seat{"Doc", RoleDoctor}, seat{"Mal", RoleMafioso}, seat{"Tom", RoleTownie}, seat{"Sam", RoleSheriff})
	atNight(g, 1)
	act(t, g, "Doc", "heal", "Tom")
	act(t, g, "Wanda", "control", "Doc", "Mal")
	act(t, g, "Mal", "murder", "Tom")
	advance(t, g)

	if player(t, g, "Tom").Alive {
		t.Error("the controlled Doctor should have healed Mal instead of Tom")
	}
	if !player(t, g, "Mal").IsAffectedBy(AbilityHeal) {
		t.Error("expected the Doctor's heal to land on Mal")
	}
	if !n.told(playerID("Wanda"), fbControlSucceeded("Doc", "Mal")) || !n.told(playerID("Doc"), fbControlled) {
		t.Error("expected control feedback for both players")
	}
}

func TestNight_ControlImmuneTarget(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Wanda", RoleWitch}, seat{"Tom", RoleTownie}, seat{"Mal", RoleMafioso}, seat{"Doc", RoleDoctor})
	atNight(g, 1)
	act(t, g, "Wanda", "control", "Tom", "Mal")
	advance(t, g)

	if !n.told(playerID("Wanda"), fbControlFailed("Tom")) {
		t.Errorf("expected control to fail on a role with no ability, got %v", n.private[playerID("Wanda")])
	}
}

func TestNight_UnknownActionIsIntegrityFailure(t *testing.T) {
	g, _ := newTestGame(t, seat{"Mal", RoleMafioso}, seat{"Tom", RoleTownie})
	atNight(g, 1)
	player(t, g, "Mal").Action = &Action{Ability: "Fly", Args: []string{"Tom"}}
	if err := g.Advance(g.State.Checkpoint()); !IsIntegrity(err) {
		t.Errorf("expected integrity failure, got %v", err)
	}
}

func TestNight_ControlAfterTargetActedFails(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Eve", RoleEscort}, seat{"Wanda", RoleWitch}, seat{"Tom", RoleTownie}, seat{"Mal", RoleMafioso}, seat{"Doc", RoleDoctor})
	atNight(g, 1)
	act(t, g, "Eve", "roleblock", "Tom")
	act(t, g, "Wanda", "control", "Eve", "Mal")
	advance(t, g)

	if !n.told(playerID("Wanda"), fbControlFailed("Eve")) {
		t.Errorf("expected control to fail on a player who already acted, got %v", n.private[playerID("Wanda")])
	}
	if used := player(t, g, "Eve").TimesUsed(AbilityRoleblock); used != 1 {
		t.Errorf("expected the Escort to act once, got %d uses", used)
	}
	if player(t, g, "Mal").IsAffectedBy(AbilityRoleblock) {
		t.Error("the Escort must not roleblock a second player")
	}
	forced := "**Eve** will attempt to roleblock **Mal** tonight."
	for _, line := range g.State.ActionLog[1] {
		if line == forced {
			t.Errorf("unexpected second action in the log: %v", g.State.ActionLog[1])
		}
	}
}

func TestNight_ControlReportsApparentRole(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Wanda", RoleWitch}, seat{"Doc", RoleDoctor}, seat{"Mal", RoleMafioso}, seat{"Tom", RoleTownie}, seat{"Sam", RoleSheriff})
	player(t, g, "Doc").Frame()
	atNight(g, 1)
	act(t, g, "Wanda", "control", "Doc", "Tom")
	advance(t, g)

	if !n.told(playerID("Wanda"), fbInvestigatedRole("Doc", RoleMafioso)) {
		t.Errorf("expected the Witch to see the framed role, got %v", n.private[playerID("Wanda")])
	}
	if n.told(playerID("Wanda"), fbInvestigatedRole("Doc", RoleDoctor)) {
		t.Error("the Witch must not learn the true role of a framed player")
	}
}

func TestNight_RoleblockStopsControlledAction(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Wanda", RoleWitch}, seat{"Eve", RoleEscort}, seat{"Doc", RoleDoctor}, seat{"Mal", RoleMafioso}, seat{"Tom", RoleTownie}, seat{"Sam", RoleSheriff})
	atNight(g, 1)
	act(t, g, "Doc", "heal", "Tom")
	act(t, g, "Wanda", "control", "Doc", "Mal")
	act(t, g, "Eve", "roleblock", "Doc")
	act(t, g, "Mal", "murder", "Tom")
	advance(t, g)

	if player(t, g, "Mal").IsAffectedBy(AbilityHeal) || player(t, g, "Tom").IsAffectedBy(AbilityHeal) {
		t.Error("a roleblocked Doctor must not heal anyone")
	}
	if player(t, g, "Tom").Alive {
		t.Error("expected Tom to die without the heal")
	}
	if !n.told(playerID("Doc"), fbWasRoleblocked) {
		t.Error("expected the Doctor to hear they were roleblocked")
	}
	blocked := "**Doc** will attempt to heal **Mal** tonight. (roleblocked)"
	found := false
	for _, line := range g.State.ActionLog[1] {
		if line == blocked {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the forced heal to be logged as roleblocked, got %v", g.State.ActionLog[1])
	}
}

func TestNight_ImpersonatorReplacesVictim(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Imp", RoleImpersonator}, seat{"Sam", RoleSheriff}, seat{"Mal", RoleMafioso}, seat{"Doc", RoleDoctor}, seat{"Tom", RoleTownie})
	atNight(g, 1)
	player(t, g, "Sam").LastWill = "Mal is suspicious"
	act(t, g, "Imp", "replace", "Sam")
	advance(t, g)

	sam := player(t, g, "Sam")
	if sam.Alive || !sam.Unidentifiable {
		t.Fatalf("expected Sam dead and unidentifiable, alive=%t unidentifiable=%t", sam.Alive, sam.Unidentifiable)
	}
	if got := player(t, g, "Imp").Role; got != RoleSheriff {
		t.Errorf("expected the Impersonator to take the Sheriff role, got %s", got)
	}
	if !n.told(playerID("Imp"), fbReplacedPlayer("Sam", RoleSheriff)) {
		t.Error("expected the Impersonator to hear the replacement worked")
	}
	for _, p := range g.State.PublicView().Players {
		if p.Name == "Sam" && p.Role != "" {
			t.Errorf("an unidentifiable victim's role must stay hidden, got %s", p.Role)
		}
	}
	for _, a := range n.announcements {
		if strings.Contains(a, "Mal is suspicious") {
			t.Error("an unidentifiable victim's last will must stay hidden")
		}
	}
}

func TestNight_BlacksmithWinsBySavingTarget(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Bill", RoleBlacksmith}, seat{"Mal", RoleMafioso}, seat{"Tom", RoleTownie}, seat{"Doc", RoleDoctor}, seat{"Sam", RoleSheriff})
	atNight(g, 1)
	act(t, g, "Bill", "smith", "Tom")
	act(t, g, "Mal", "murder", "Tom")
	advance(t, g)

	if !player(t, g, "Tom").Alive {
		t.Fatal("expected the vest to save Tom")
	}
	if !player(t, g, "Bill").HasWon {
		t.Error("expected the Blacksmith to reach their goal")
	}
	if !n.told(playerID("Bill"), fbDidSuccessfulSmith) {
		t.Error("expected the Blacksmith to hear they saved someone")
	}
}

func TestNight_OracleObservations(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Ora", RoleOracle}, seat{"Wanda", RoleWitch}, seat{"Sue", RoleSurvivor}, seat{"Mal", RoleMafioso}, seat{"Tom", RoleTownie}, seat{"Doc", RoleDoctor})

	nights := []struct {
		target string
		want   string
	}{
		{"Wanda", fbObservedFirst("Wanda")},
		{"Wanda", fbObservedSame("Wanda")},
		{"Sue", fbObservedTogether("Sue", "Wanda", true)},
		{"Mal", fbObservedTogether("Mal", "Sue", false)},
	}
	for i, night := range nights {
		atNight(g, i+1)
		g.State.TimeoutCounter = 0
		act(t, g, "Ora", "observe", night.target)
		advance(t, g)
		if !n.told(playerID("Ora"), night.want) {
			t.Fatalf("night %d: expected %q, got %v", i+1, night.want, n.private[playerID("Ora")])
		}
	}
	if got := player(t, g, "Ora").LastObserved; got != "Mal" {
		t.Errorf("expected Mal to be the last observed player, got %q", got)
	}
}

func TestNight_ObserveClearsPreviousFrame(t *testing.T) {
	g, n := newTestGame(t,
		seat{"Ora", RoleOracle}, seat{"Fran", RoleFramer}, seat{"Mal", RoleMafioso}, seat{"Tom", RoleTownie}, seat{"Doc", RoleDoctor}, seat{"Sam", RoleSheriff})
	player(t, g, "Ora").LastObserved = "Tom"
	player(t, g, "Tom").Frame()
	atNight(g, 1)
	act(t, g, "Ora", "observe", "Mal")
	advance(t, g)

	if !n.told(playerID("Ora"), fbObservedTogether("Mal", "Tom", true)) {
		t.Errorf("a framed Townie should look like Mafia, got %v", n.private[playerID("Ora")])
	}
	if got := player(t, g, "Tom").ApparentRole(); got != RoleTownie {
		t.Errorf("expected the frame on Tom to be used up, Tom appears as %s", got)
	}
}
