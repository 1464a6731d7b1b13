package games

import "strings"

// Ballot values shared by the lynch vote and the trial vote.
const (
	VoteAbstain = "abstain"
	// VoteNobody is the explicit no-lynch candidate.
	VoteNobody = "nobody"

	VerdictGuilty   = "guilty"
	VerdictInnocent = "innocent"
)

// Tally outcomes that are not a candidate.
const (
	OutcomeTie     = "tie"
	OutcomeNoVotes = "no_votes"
)

// TallyVotes resolves a vote map (voter -> ballot) into the unique leader,
// OutcomeTie, or OutcomeNoVotes. Abstentions are ignored. The result does not
// depend on map iteration order.
func TallyVotes(votes map[string]string) string {
	counts := countBallots(votes)
	if len(counts) == 0 {
		return OutcomeNoVotes
	}
	best, leaders := 0, []string(nil)
	for ballot, n := range counts {
		switch {
		case n > best:
			best, leaders = n, []string{ballot}
		case n == best:
			leaders = append(leaders, ballot)
		}
	}
	if len(leaders) > 1 {
		return OutcomeTie
	}
	return leaders[0]
}

// MajorityThreshold is the number of ballots a candidate needs to win outright:
// ceil(eligible * 2/3).
func MajorityThreshold(eligible int) int {
	return (eligible*2 + 2) / 3
}

// MajorityVote returns the candidate holding a two-thirds majority of the
// eligible voters, if any.
func MajorityVote(votes map[string]string, eligible int) (string, bool) {
	if eligible <= 0 {
		return "", false
	}
	threshold := MajorityThreshold(eligible)
	for ballot, n := range countBallots(votes) {
		if n >= threshold {
			return ballot, true
		}
	}
	return "", false
}

func countBallots(votes map[string]string) map[string]int {
	counts := make(map[string]int)
	for _, ballot := range votes {
		if strings.EqualFold(ballot, VoteAbstain) {
			continue
		}
		counts[ballot]++
	}
	return counts
}

// lynchVoters are the living players allowed to vote for who goes on trial.
func (g *Game) lynchVoters() []*Player {
	var out []*Player
	for _, p := range g.State.Players {
		if p.Alive && !p.VoteBlocked {
			out = append(out, p)
		}
	}
	return out
}

// trialVoters are the lynch voters minus the player on trial.
func (g *Game) trialVoters() []*Player {
	var out []*Player
	for _, p := range g.lynchVoters() {
		if p.Name != g.State.OnTrial {
			out = append(out, p)
		}
	}
	return out
}

func allVoted(voters []*Player, votes map[string]string) bool {
	for _, p := range voters {
		if _, ok := votes[p.Name]; !ok {
			return false
		}
	}
	return true
}

// votingSettled reports whether the lynch vote can end early.
func (g *Game) votingSettled() bool {
	voters := g.lynchVoters()
	if _, ok := MajorityVote(g.State.Votes, len(voters)); ok {
		return true
	}
	return len(voters) > 0 && allVoted(voters, g.State.Votes)
}

// trialSettled reports whether the trial vote can end early.
func (g *Game) trialSettled() bool {
	voters := g.trialVoters()
	if _, ok := MajorityVote(g.State.TrialVotes, len(voters)); ok {
		return true
	}
	return len(voters) > 0 && allVoted(voters, g.State.TrialVotes)
}
