package games

import (
	"fmt"
	"strings"
)

// Public announcements.

func msgNotEnoughSignUps(got, need int) string {
	return fmt.Sprintf("Unfortunately we didn't get enough players. We needed `%d` but we got `%d`. Game cancelled :(", need, got)
}

func msgSignUpsOpen() string {
	return "A Mafia game is starting. Use `/join` to sign up!"
}

func msgSignUpsClosed(n int) string {
	return fmt.Sprintf("Sign-ups are now closed and the game will now begin with `%d` players!\nStandby for role assignments...", n)
}

func msgShowLivingPlayers(names []string) string {
	var b strings.Builder
	b.WriteString("_ _\n# Living Players\n>>> ")
	for _, n := range names {
		fmt.Fprintf(&b, "**%s**\n", n)
	}
	return b.String()
}

func msgShowRoleList(ids []string) string {
	var b strings.Builder
	b.WriteString("# Role List\n>>> ")
	for _, n := range ids {
		fmt.Fprintf(&b, "**%s**\n", n)
	}
	return b.String()
}

const msgDayOneStarted = "_ _\n# Day 1\nLook over your role information, come up with a plan, and discuss with your fellow town members your game plan."

func msgStartDay(n int) string {
	return fmt.Sprintf("_ _\n# Day %d\nGood morning! It is now day.\nLet's see what happened last night...\n", n)
}

const (
	msgStartVoting         = "_ _\n## Voting Subphase\nThe voting part of the day phase will now begin. Vote for a player to put on trial. Your votes are not anonymous."
	msgVotingOver          = "_ _\nVoting is closed. Let's see who is put on trial..."
	msgVotingOutcomeNobody = "The town decided to lynch nobody, so we will be skipping the trial."
	msgVotingOutcomeTie    = "It was a tie. The town couldn't agree on who to lynch, so we will be skipping the trial."
	msgVotingOutcomeNone   = "Nobody voted, so we will be skipping the trial."
	msgTrialOver           = "_ _\nTrial voting is closed. Let's see the verdict..."
	msgPlayerSuicide       = "They left the game, committing suicide."
	msgPlayerSmitten       = "They were smitten by the host for inactivity."
	msgVigilanteSuicide    = "They comitted suicide over the guilt of killing a town member."
	msgLastWillUnknown     = "The contents of their last will could not be determined."
	msgLastWillNotFound    = "No last will could be found."
	msgLynchedFool         = "You feel like you've made a terrible mistake..."
)

func msgVotingOutcomePlayer(name string) string {
	return fmt.Sprintf("The town puts **%s** on trial.", name)
}

func msgStartTrial(name string) string {
	return fmt.Sprintf("_ _\n## Trial Phase\nVote whether or not **%s** should be hung. (Or abstain)\nYour votes will be anonymous until day starts.", name)
}

func msgTrialOutcome(outcome, name string) string {
	switch outcome {
	case OutcomeTie:
		return fmt.Sprintf("It was a tie. The town couldn't agree whether or not to lynch **%s**, so they live.", name)
	case OutcomeNoVotes:
		return fmt.Sprintf("Nobody voted, so **%s** lives.", name)
	case VerdictGuilty:
		return fmt.Sprintf("**%s** was deemed guilty by the town. They will be hung to death this instant.", name)
	}
	return fmt.Sprintf("**%s** was deemed innocent by the town. They get to live another day.", name)
}

func msgChangedVote(name, ballot string) string {
	return fmt.Sprintf("**%s** changed their vote to **%s**.", name, ballot)
}

// msgReplacingVote answers a player who votes again in the same subphase.
func msgReplacingVote(previous, ballot string) string {
	return fmt.Sprintf("You are replacing your previous vote, **%s**, with **%s**.", previous, ballot)
}

// msgRevealedVotes lists every trial ballot once the verdict is in.
func msgRevealedVotes(voters []string, votes map[string]string) string {
	var b strings.Builder
	b.WriteString("_ _\n## Revealed Votes\n")
	for _, v := range voters {
		ballot, ok := votes[v]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "**%s** voted **%s**.\n", v, titleCaser.String(ballot))
	}
	return b.String()
}

func msgStartNight(n int) string {
	return fmt.Sprintf("_ _\n# Night %d\nGoodnight! It is now nightime.\nUse `/use ABILITY-NAME` to perform an ability or `/use nothing` to speed up the night.", n)
}

func msgRoleReveal(name string, role RoleName) string {
	return fmt.Sprintf("**%s**'s role was revealed to be **%s**.", name, role)
}

func msgRoleUnidentifiable(name string) string {
	return fmt.Sprintf("**%s**'s role could not be determined.", name)
}

func msgPlayerFoundDead(name string) string {
	return fmt.Sprintf(":skull: **%s** was found dead.", name)
}

func msgPlayerLynched(name string) string {
	return fmt.Sprintf(":skull: **%s** was lynched by the town.", name)
}

func msgLastWillFound(will string) string {
	return fmt.Sprintf("They left behind a last will: ```\n%s\n```", will)
}

func msgDeathNote(killer, note string) string {
	return fmt.Sprintf("**%s** left a death note: ```\n%s\n```", killer, note)
}

func msgMurderByFaction(faction Faction, another bool) string {
	if another {
		return fmt.Sprintf("They were also killed by the **%s**.", faction)
	}
	return fmt.Sprintf("They were killed by the **%s**.", faction)
}

func msgMurderByRole(role RoleName, another bool) string {
	if another {
		return fmt.Sprintf("They were also killed by a(n) **%s**.", role)
	}
	if role == RoleImpersonator {
		return fmt.Sprintf("They were replaced by a **%s**.", role)
	}
	return fmt.Sprintf("They were killed by a(n) **%s**.", role)
}

func msgCongratulateWinners(factions, players []string) string {
	return fmt.Sprintf("_ _\n%s won!\nCongratulations %s!", listOfWords(bold(factions)), listOfWords(bold(players)))
}

func msgDrawFromTimeout(days int) string {
	return fmt.Sprintf("There have been no deaths for the past **%d day(s)**, so it's a draw!", days)
}

func msgTimeoutWarning(max, days int) string {
	return fmt.Sprintf("Nobody has died in the past **%d day(s)**. **%d** more days without bloodshed and the game ends in a draw.", days, max-days)
}

// Private feedback.

const (
	fbDidSuccessfulSmith           = "You have accomplished your goal and saved someone from death."
	fbDidCautious                  = "You were cautious last night and didn't attack any roleblockers."
	fbWasRoleblocked               = "You were roleblocked."
	fbWasRoleblockedImmune         = "Someone attempted to roleblock you, but you were immune."
	fbAttackedRoleblocker          = "You attacked the player who attempted to roleblock you instead of your original target."
	fbKilledByAttack               = "You were attacked by someone and they successfully killed you."
	fbProtectedAttacked            = "The player you protected was attacked!"
	fbAttackedButSurvived          = "You were attacked by someone, but your defense was strong enough to survive their attack."
	fbCommittingSuicide            = "You will comitt suicide over the guilt of killing a town member tonight."
	fbCommittedSuicide             = "You comitted suicide over the guilt of killing a town member."
	fbControlled                   = "You were controlled."
	fbReplacedByReplacer           = "Don't worry, you have been replaced by someone."
	fbKidnapped                    = "You were kidnapped. You may not speak or vote for the rest of the day. In the meantime, edit your last will and strategize!"
	fbUnkidnapped                  = "You are no longer kidnapped. You may now speak and vote again."
	fbAttackedKidnapper            = "You retaliated against your kidnapper and attacked them."
	fbRoleblockedByKidnapper       = "Your kidnapper roleblocked you."
	fbRoleblockedByKidnapperImmune = "Your kidnapper attempted to roleblock you, but you were immune."
	fbWonAsFool                    = "You win! Your powers have awakened. You can use your death curse ability for only this night."
	fbWonAsExecutioner             = "You win! You have successfully gotten your target lynched. Do whatever you want now. You'll still win if you die."
)

func fbSmithedVest(name string) string {
	return fmt.Sprintf("You smithed a vest for **%s** last night.", name)
}

func fbRoleblockedPlayer(name string) string {
	return fmt.Sprintf("You attempted to roleblock **%s** last night.", name)
}

func fbInvestigatedRole(name string, role RoleName) string {
	return fmt.Sprintf("**%s** seemed to be the role, **%s**.", name, role)
}

func fbSuspicious(name string) string {
	return fmt.Sprintf("**%s** seemed to be suspicious.", name)
}

func fbInnocent(name string) string {
	return fmt.Sprintf("**%s** seemed to be innocent.", name)
}

func fbLookoutSaw(target string, visitors []string) string {
	if len(visitors) == 0 {
		return fmt.Sprintf("It seems like nobody visited **%s** last night.", target)
	}
	return fmt.Sprintf("It seems like **%s** was visited by %s last night.", target, listOfWords(bold(visitors)))
}

func fbTrackerSaw(tracked, visited string) string {
	if visited == "" {
		return fmt.Sprintf("It looked like **%s** didn't visit anyone last night.", tracked)
	}
	return fmt.Sprintf("It looked like **%s** visited **%s** last night.", tracked, visited)
}

func fbAttackFailed(name string) string {
	return fmt.Sprintf("You tried to attack **%s**, but their defense was too strong.", name)
}

func fbKilledPlayer(name string) string {
	return fmt.Sprintf("You attacked and killed **%s**.", name)
}

func fbControlFailed(name string) string {
	return fmt.Sprintf("You tried to control **%s**, but you were unable to.", name)
}

func fbControlSucceeded(name, into string) string {
	return fmt.Sprintf("You controlled **%s** into using their ability on **%s**.", name, into)
}

func fbInactivityWarning(inactive, left int) string {
	return fmt.Sprintf("You've been inactive for **%d** subphases. If you are inactive for **%d** more subphases, you will be kicked from the game.\nTry doing `/use nothing` and voting abstain to reduce inactivity.", inactive, left)
}

const fbSmitten = "You have been smitten for inactivity."

func fbObservedFirst(name string) string {
	return fmt.Sprintf("You observed **%s** last night. The next time you observe someone, you'll know if they and **%s** are working together.", name, name)
}

func fbObservedTogether(name, previous string, together bool) string {
	if together {
		return fmt.Sprintf("You observed **%s** last night and it seems like they're in the same faction as **%s**, the previous player you observed.", name, previous)
	}
	return fmt.Sprintf("You observed **%s** last night and it seems like they're NOT in the same faction as **%s**, the previous player you observed.", name, previous)
}

func fbObservedSame(name string) string {
	return fmt.Sprintf("You observed **%s** last night, but it was pretty obvious they were in the same faction as themselves.", name)
}

func fbReplacedPlayer(name string, role RoleName) string {
	return fmt.Sprintf("You have successfully replaced **%s**'s role as **%s**", name, role)
}

func fbReplaceFailed(name string) string {
	return fmt.Sprintf("You failed to replace **%s**...", name)
}

func fbKidnappedPlayer(name string, retaliated bool) string {
	if retaliated {
		return fmt.Sprintf("You kidnapped **%s**. They won't be able to speak or vote and you attempted to roleblock them, but they were stronger than you thought and attacked you.", name)
	}
	return fmt.Sprintf("You kidnapped **%s**. They won't be able to speak or vote and you attempted to roleblock them.", name)
}

func fbConvertedToRole(from, to RoleName) string {
	return fmt.Sprintf("# You've been converted from %s to %s", from, to)
}

func fbGiveExeTarget(name string) string {
	return fmt.Sprintf("Your target is **%s**! Make sure they are lynched by any means necessary.", name)
}

func fbPromotedToMafioso(name string) string {
	return fmt.Sprintf("**%s** has been promoted to **%s**.", name, RoleMafioso)
}

func bold(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = "**" + w + "**"
	}
	return out
}

// listOfWords joins words as "a", "a and b" or "a, b, and c".
func listOfWords(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	case 2:
		return words[0] + " and " + words[1]
	}
	return strings.Join(words[:len(words)-1], ", ") + ", and " + words[len(words)-1]
}
