package games

import "testing"

func TestTallyVotes(t *testing.T) {
	tests := []struct {
		name  string
		votes map[string]string
		want  string
	}{
		{"empty", nil, OutcomeNoVotes},
		{"only abstentions", map[string]string{"Alice": VoteAbstain, "Bob": "ABSTAIN"}, OutcomeNoVotes},
		{"leader", map[string]string{"Alice": "Carol", "Bob": "Carol", "Dave": "Alice"}, "Carol"},
		{"tie", map[string]string{"Alice": "Carol", "Bob": "Dave"}, OutcomeTie},
		{"nobody", map[string]string{"Alice": VoteNobody, "Bob": VoteNobody, "Carol": "Dave"}, VoteNobody},
		{"abstain ignored", map[string]string{"Alice": "Dave", "Bob": VoteAbstain, "Carol": VoteAbstain}, "Dave"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TallyVotes(tt.votes); got != tt.want {
				t.Errorf("TallyVotes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMajorityThreshold(t *testing.T) {
	for eligible, want := range map[int]int{0: 0, 1: 1, 2: 2, 3: 2, 4: 3, 5: 4, 6: 4, 9: 6, 10: 7} {
		if got := MajorityThreshold(eligible); got != want {
			t.Errorf("MajorityThreshold(%d) = %d, want %d", eligible, got, want)
		}
	}
}

func TestMajorityVote(t *testing.T) {
	votes := map[string]string{"Alice": "Eve", "Bob": "Eve", "Carol": "Eve", "Dave": VoteAbstain}
	if _, ok := MajorityVote(votes, 5); ok {
		t.Error("3 of 5 is not a two-thirds majority")
	}
	votes["Dave"] = "Eve"
	if got, ok := MajorityVote(votes, 5); !ok || got != "Eve" {
		t.Errorf("expected Eve to hold a majority, got %q %v", got, ok)
	}
	if _, ok := MajorityVote(votes, 0); ok {
		t.Error("no eligible voters can't produce a majority")
	}
}
