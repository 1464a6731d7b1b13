package games

import (
	"math"
	"math/rand"
	"sort"
)

// roleListBuilder turns identifiers into concrete roles. It tracks what has
// been placed so far for the uniqueness and faction-balance filters.
type roleListBuilder struct {
	rng            *rand.Rand
	maxMafiaToTown float64
	maxTownToMafia float64

	placed          map[RoleName]bool
	requestedUnique map[RoleName]bool
	factionCounts   map[string]int
}

// BuildRoleList resolves ids into one role per identifier. Identifiers are
// resolved in priority order; the returned list is in that order and should be
// shuffled before it is handed out.
//
// Uniqueness is a hard constraint. The Mafioso-first, faction-ratio and
// opposing-faction filters are soft: each is applied in that order and skipped
// when it would leave no candidates.
func BuildRoleList(ids []RoleIdentifier, rng *rand.Rand, cfg RulesConfig) ([]RoleName, error) {
	b := &roleListBuilder{
		rng:             rng,
		maxMafiaToTown:  cfg.MaxMafiaToTownRatio,
		maxTownToMafia:  cfg.MaxTownToMafiaRatio,
		placed:          make(map[RoleName]bool),
		requestedUnique: make(map[RoleName]bool),
		factionCounts:   make(map[string]int),
	}
	sorted := sortIdentifiers(ids)
	for _, id := range sorted {
		if id.Kind == KindSpecificRole {
			if r, ok := GetRole(id.Role); ok && r.Unique {
				b.requestedUnique[id.Role] = true
			}
		}
	}

	out := make([]RoleName, 0, len(sorted))
	for _, id := range sorted {
		cands, err := b.candidates(id)
		if err != nil {
			return nil, err
		}
		chosen := cands[b.rng.Intn(len(cands))]
		b.place(chosen)
		out = append(out, chosen.Name)
	}
	return out, nil
}

func sortIdentifiers(ids []RoleIdentifier) []RoleIdentifier {
	sorted := make([]RoleIdentifier, len(ids))
	copy(sorted, ids)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return sorted
}

func (b *roleListBuilder) place(r *Role) {
	b.placed[r.Name] = true
	if wf := r.WinFaction(); eligibleWinFactions[wf] {
		b.factionCounts[wf]++
	}
}

func (b *roleListBuilder) candidates(id RoleIdentifier) ([]*Role, error) {
	possible := id.PossibleRoles()

	if id.Kind == KindSpecificRole {
		if len(possible) == 0 {
			return nil, integrityf("unknown role %q", id.Role)
		}
		if possible[0].Unique && b.placed[possible[0].Name] {
			return nil, invalidf("%s is unique and was requested more than once", possible[0].Name)
		}
		return possible, nil
	}

	cands := filterRoles(possible, func(r *Role) bool {
		return !r.Unique || (!b.placed[r.Name] && !b.requestedUnique[r.Name])
	})
	if len(cands) == 0 {
		return nil, invalidf("no role is left for %q", id.Name)
	}

	cands = softFilter(cands, func(r *Role) bool {
		return r.Faction != FactionMafia || r.Name == RoleMafioso || b.placed[RoleMafioso]
	})
	if id.Kind == KindAnyRole || id.Kind == KindFaction {
		cands = softFilter(cands, b.ratioAllows)
	}
	if b.distinctFactions() < 2 {
		cands = softFilter(cands, func(r *Role) bool {
			wf := r.WinFaction()
			return eligibleWinFactions[wf] && b.factionCounts[wf] == 0
		})
	}
	return cands, nil
}

// ratioAllows reports whether adding r keeps Mafia:Town under
// maxMafiaToTown and Town:Mafia under maxTownToMafia. A faction with no roles
// yet counts as one, so the first faction placed leaves room for the other.
func (b *roleListBuilder) ratioAllows(r *Role) bool {
	mafia := float64(b.factionCounts[string(FactionMafia)])
	town := float64(b.factionCounts[string(FactionTown)])
	switch r.Faction {
	case FactionMafia:
		return (mafia+1)/math.Max(town, 1) < b.maxMafiaToTown
	case FactionTown:
		return (town+1)/math.Max(mafia, 1) < b.maxTownToMafia
	}
	return true
}

func (b *roleListBuilder) distinctFactions() int {
	n := 0
	for _, c := range b.factionCounts {
		if c > 0 {
			n++
		}
	}
	return n
}

func filterRoles(roles []*Role, keep func(*Role) bool) []*Role {
	out := make([]*Role, 0, len(roles))
	for _, r := range roles {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func softFilter(roles []*Role, keep func(*Role) bool) []*Role {
	if out := filterRoles(roles, keep); len(out) > 0 {
		return out
	}
	return roles
}
