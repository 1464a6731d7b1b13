package games

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IdentifierKind is how broad a role request is.
type IdentifierKind int

const (
	KindSpecificRole IdentifierKind = iota + 1
	KindFactionAlignment
	KindFaction
	KindAnyRole
)

func (k IdentifierKind) String() string {
	switch k {
	case KindSpecificRole:
		return "specific_role"
	case KindFactionAlignment:
		return "faction_alignment"
	case KindFaction:
		return "faction"
	case KindAnyRole:
		return "any_role"
	}
	return "unknown"
}

// eligibleWinFactions are the factions that can win on their own by
// elimination. Identifiers that can only produce roles outside this set are
// assigned after everything else.
var eligibleWinFactions = map[string]bool{
	string(FactionMafia):     true,
	string(FactionTown):      true,
	string(RoleSerialKiller): true,
}

var titleCaser = cases.Title(language.English)

// RoleIdentifier is a parsed role request such as "Doctor", "Town Protective",
// "Random Mafia" or "Any".
type RoleIdentifier struct {
	Name      string         `json:"name"`
	Kind      IdentifierKind `json:"kind"`
	Role      RoleName       `json:"role,omitempty"`
	Faction   Faction        `json:"faction,omitempty"`
	Alignment Alignment      `json:"alignment,omitempty"`
}

// ParseRoleIdentifier resolves a request string into an identifier.
func ParseRoleIdentifier(s string) (RoleIdentifier, error) {
	trimmed := strings.Join(strings.Fields(s), " ")
	if trimmed == "" {
		return RoleIdentifier{}, invalidf("role identifier is empty")
	}
	if r, ok := FindRoleByName(trimmed); ok {
		return RoleIdentifier{Name: string(r.Name), Kind: KindSpecificRole, Role: r.Name}, nil
	}

	words := strings.Fields(strings.ToLower(trimmed))
	if (len(words) == 1 && words[0] == "any") || (len(words) == 2 && words[0] == "any" && words[1] == "role") {
		return RoleIdentifier{Name: "Any", Kind: KindAnyRole}, nil
	}
	if len(words) != 2 {
		return RoleIdentifier{}, invalidf("%q is not a valid role identifier", trimmed)
	}

	var faction Faction
	var other string
	for i, w := range words {
		for _, f := range Factions {
			if strings.EqualFold(string(f), w) {
				faction = f
				other = words[1-i]
			}
		}
	}
	if faction == "" {
		return RoleIdentifier{}, invalidf("%q is not a valid role identifier", trimmed)
	}
	if other == "random" {
		return RoleIdentifier{Name: "Random " + string(faction), Kind: KindFaction, Faction: faction}, nil
	}
	for _, a := range Alignments {
		if strings.EqualFold(string(a), other) {
			id := RoleIdentifier{
				Name:      titleCaser.String(string(faction) + " " + string(a)),
				Kind:      KindFactionAlignment,
				Faction:   faction,
				Alignment: a,
			}
			if len(id.PossibleRoles()) == 0 {
				return RoleIdentifier{}, invalidf("no role is %s %s", faction, a)
			}
			return id, nil
		}
	}
	return RoleIdentifier{}, invalidf("%q is not a valid role identifier", trimmed)
}

// ParseRoleIdentifiers parses a whole request list.
func ParseRoleIdentifiers(names []string) ([]RoleIdentifier, error) {
	out := make([]RoleIdentifier, 0, len(names))
	for _, n := range names {
		id, err := ParseRoleIdentifier(n)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// PossibleRoles is the unfiltered set of roles the identifier could become.
func (id RoleIdentifier) PossibleRoles() []*Role {
	var out []*Role
	for _, r := range ListRoles() {
		switch id.Kind {
		case KindSpecificRole:
			if r.Name == id.Role {
				out = append(out, r)
			}
		case KindFactionAlignment:
			if r.Faction == id.Faction && r.Alignment == id.Alignment {
				out = append(out, r)
			}
		case KindFaction:
			if r.Faction == id.Faction && r.Alignment != AlignmentCrowd {
				out = append(out, r)
			}
		case KindAnyRole:
			if !(r.Faction == FactionTown && r.Alignment == AlignmentCrowd) {
				out = append(out, r)
			}
		}
	}
	return out
}

// Priority orders identifiers for assignment; lower is assigned first.
func (id RoleIdentifier) Priority() int {
	p := int(id.Kind)
	if id.Kind == KindSpecificRole {
		return p
	}
	for _, r := range id.PossibleRoles() {
		if eligibleWinFactions[r.WinFaction()] {
			return p
		}
	}
	return p + 4
}
