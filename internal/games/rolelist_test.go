package games

import (
	"math/rand"
	"sort"
	"testing"
)

func buildRoles(t *testing.T, seed int64, names ...string) ([]RoleName, error) {
	t.Helper()
	ids, err := ParseRoleIdentifiers(names)
	if err != nil {
		t.Fatalf("ParseRoleIdentifiers: %v", err)
	}
	return BuildRoleList(ids, rand.New(rand.NewSource(seed)), DefaultRulesConfig())
}

func TestBuildRoleList_SpecificRoles(t *testing.T) {
	roles, err := buildRoles(t, 1, "Townie", "Mafioso", "Sheriff", "Doctor")
	if err != nil {
		t.Fatalf("BuildRoleList: %v", err)
	}
	got := make([]string, len(roles))
	for i, r := range roles {
		got[i] = string(r)
	}
	sort.Strings(got)
	want := []string{"Doctor", "Mafioso", "Sheriff", "Townie"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestBuildRoleList_UniqueRequestedTwice(t *testing.T) {
	_, err := buildRoles(t, 1, "Mafioso", "Mafioso", "Townie", "Townie")
	if !IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestBuildRoleList_RandomMafiaStartsWithMafioso(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		roles, err := buildRoles(t, seed, "Random Mafia", "Townie", "Townie", "Townie")
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		// Specific roles are placed first, so the Mafia pick comes last.
		if roles[3] != RoleMafioso {
			t.Errorf("seed %d: expected the first Mafia role to be the Mafioso, got %v", seed, roles)
		}
	}
}

func TestBuildRoleList_RandomNeverDuplicatesUnique(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		roles, err := buildRoles(t, seed, "Mafioso", "Random Mafia", "Town Random", "Townie", "Townie")
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		mafioso, mafia := 0, 0
		for _, name := range roles {
			if name == RoleMafioso {
				mafioso++
			}
			if r, _ := GetRole(name); r.Faction == FactionMafia {
				mafia++
			}
		}
		if mafioso != 1 || mafia != 2 {
			t.Errorf("seed %d: expected one Mafioso and one other Mafia role, got %v", seed, roles)
		}
	}
}

func TestBuildRoleList_AnyIsNeverTownie(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		roles, err := buildRoles(t, seed, "Any", "Any", "Any", "Any", "Any")
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if len(roles) != 5 {
			t.Fatalf("seed %d: expected 5 roles, got %d", seed, len(roles))
		}
		for _, name := range roles {
			if name == RoleTownie {
				t.Errorf("seed %d: Any produced a Townie", seed)
			}
		}
	}
}

func TestBuildRoleList_SeedIsReproducible(t *testing.T) {
	a, err := buildRoles(t, 42, "Any", "Random Town", "Random Mafia", "Neutral Evil")
	if err != nil {
		t.Fatalf("BuildRoleList: %v", err)
	}
	b, err := buildRoles(t, 42, "Any", "Random Town", "Random Mafia", "Neutral Evil")
	if err != nil {
		t.Fatalf("BuildRoleList: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced %v and %v", a, b)
		}
	}
}

func TestBuildRoleList_AnyKeepsFactionRatio(t *testing.T) {
	for size := 3; size <= 15; size++ {
		names := make([]string, size)
		for i := range names {
			names[i] = "Any"
		}
		for seed := int64(0); seed < 150; seed++ {
			roles, err := buildRoles(t, seed, names...)
			if err != nil {
				t.Fatalf("size %d seed %d: %v", size, seed, err)
			}
			mafia, town := 0, 0
			for _, name := range roles {
				r, _ := GetRole(name)
				switch r.Faction {
				case FactionMafia:
					mafia++
				case FactionTown:
					town++
				}
			}
			if mafia == 0 || town == 0 {
				continue
			}
			if float64(mafia)/float64(town) >= 2.0/3.0 || float64(town)/float64(mafia) >= 5 {
				t.Errorf("size %d seed %d: mafia=%d town=%d in %v", size, seed, mafia, town, roles)
			}
		}
	}
}
