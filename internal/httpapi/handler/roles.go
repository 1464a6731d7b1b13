package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vntrieu/mafia/internal/games"
)

// abilityResponse is one ability on a role card.
type abilityResponse struct {
	Name        games.AbilityName `json:"name"`
	Command     string            `json:"command"`
	Type        games.AbilityType `json:"type"`
	Priority    int               `json:"priority"`
	Uses        string            `json:"uses"`
	Description string            `json:"description"`
}

// roleResponse is the JSON body for a catalog role.
type roleResponse struct {
	Name        games.RoleName    `json:"name"`
	Faction     games.Faction     `json:"faction"`
	Alignment   games.Alignment   `json:"alignment"`
	Attack      int               `json:"attack"`
	Defense     int               `json:"defense"`
	Goal        games.Goal        `json:"goal"`
	Unique      bool              `json:"unique"`
	Immunities  []games.Immunity  `json:"immunities,omitempty"`
	Abilities   []abilityResponse `json:"abilities"`
	Description string            `json:"description"`
	Card        string            `json:"card"`
}

func newRoleResponse(r *games.Role) (roleResponse, error) {
	abilities, err := games.AbilitiesForRole(r.Name)
	if err != nil {
		return roleResponse{}, err
	}
	resp := roleResponse{
		Name:        r.Name,
		Faction:     r.Faction,
		Alignment:   r.Alignment,
		Attack:      r.Attack,
		Defense:     r.Defense,
		Goal:        r.Goal,
		Unique:      r.Unique,
		Immunities:  r.Immunities,
		Abilities:   make([]abilityResponse, 0, len(abilities)),
		Description: r.Description,
		Card:        r.DisplayText(true),
	}
	for _, a := range abilities {
		resp.Abilities = append(resp.Abilities, abilityResponse{
			Name:        a.Name,
			Command:     a.CommandName(),
			Type:        a.Type,
			Priority:    a.Priority,
			Uses:        a.UsesText(),
			Description: a.Description,
		})
	}
	return resp, nil
}

// ListRoles handles GET /api/roles.
//
// @Summary      List roles
// @Description  Every role in the catalog, in display order.
// @Tags         roles
// @Produce      json
// @Success      200  {array}   roleResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/roles [get]
func ListRoles(w http.ResponseWriter, r *http.Request) {
	roles := games.ListRoles()
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		resp, err := newRoleResponse(role)
		if err != nil {
			writeEngineError(w, r, "list roles", err)
			return
		}
		out = append(out, resp)
	}
	writeJSON(w, r, http.StatusOK, out)
}

// GetRole handles GET /api/roles/{name}.
//
// @Summary      Get role
// @Description  One role card. The name is matched case-insensitively.
// @Tags         roles
// @Produce      json
// @Param        name  path      string  true  "Role name, e.g. Serial Killer"
// @Success      200   {object}  roleResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/roles/{name} [get]
func GetRole(w http.ResponseWriter, r *http.Request) {
	role, ok := games.FindRoleByName(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "role not found")
		return
	}
	resp, err := newRoleResponse(role)
	if err != nil {
		writeEngineError(w, r, "get role", err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}
