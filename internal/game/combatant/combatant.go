// Package combatant defines the tracker's entity model: player characters and
// monsters, their optional groups, and the draft/patch shapes used to create
// and edit them.
package combatant

import (
	"strings"

	"github.com/cory-johannsen/initiative/internal/game/ability"
	"github.com/cory-johannsen/initiative/internal/game/condition"
)

// Kind distinguishes player characters from monsters.
type Kind string

const (
	KindPlayer  Kind = "player"
	KindMonster Kind = "monster"
)

// ParseKind resolves "player"/"pc" or "monster"/"npc", case-insensitively.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "player", "players", "pc":
		return KindPlayer, true
	case "monster", "monsters", "npc":
		return KindMonster, true
	}
	return "", false
}

// MaxDeathSaves is the number of successes or failures that resolves a dying combatant.
const MaxDeathSaves = 3

// Combatant is one participant of an encounter.
//
// Invariant: 0 <= HP <= MaxHP; IsStable and IsDead are never both true.
type Combatant struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Kind       Kind           `json:"kind"`
	Initiative int            `json:"initiative"`
	HP         int            `json:"hp"`
	MaxHP      int            `json:"max_hp"`
	AC         int            `json:"ac"`
	Abilities  ability.Scores `json:"abilities"`
	Notes      string         `json:"notes,omitempty"`
	// APIID is the bestiary index the combatant was created from, if any.
	APIID      string        `json:"api_id,omitempty"`
	Conditions condition.Set `json:"conditions"`

	DeathSavesSuccess int  `json:"death_saves_success,omitempty"`
	DeathSavesFail    int  `json:"death_saves_fail,omitempty"`
	IsStable          bool `json:"is_stable,omitempty"`
	IsDead            bool `json:"is_dead,omitempty"`
}

// Clone returns a deep copy of c.
func (c Combatant) Clone() Combatant {
	c.Abilities = c.Abilities.Clone()
	c.Conditions = c.Conditions.Clone()
	return c
}

// DexModifier returns the dexterity modifier, or 0 when dexterity is unknown.
func (c Combatant) DexModifier() int {
	return ability.ModifierOf(c.Abilities.Dexterity)
}

// IsDying reports whether c is at 0 HP and neither stable nor dead.
func (c Combatant) IsDying() bool {
	return c.HP == 0 && !c.IsStable && !c.IsDead
}

// Defaults are applied to fields a Draft leaves unset.
type Defaults struct {
	HP int
	AC int
}

// StandardDefaults gives omitted hit points and armor class a value of 10.
var StandardDefaults = Defaults{HP: 10, AC: 10}

// Draft carries the caller-supplied fields of a new combatant.
// Nil pointers mean "not supplied" and receive Defaults.
type Draft struct {
	Name       string
	Kind       Kind
	Initiative int
	HP         *int
	MaxHP      *int
	AC         *int
	Abilities  ability.Scores
	Notes      string
	APIID      string
}

// Build materialises d as a Combatant with the given id.
//
// When only one of HP and MaxHP is supplied the other mirrors it; when neither
// is, both take defaults.HP. Kind defaults to KindMonster.
//
// Postcondition: 0 <= HP <= MaxHP.
func (d Draft) Build(id string, defaults Defaults) Combatant {
	hp, maxHP := defaults.HP, defaults.HP
	switch {
	case d.HP != nil && d.MaxHP != nil:
		hp, maxHP = *d.HP, *d.MaxHP
	case d.HP != nil:
		hp, maxHP = *d.HP, *d.HP
	case d.MaxHP != nil:
		hp, maxHP = *d.MaxHP, *d.MaxHP
	}
	if maxHP < 0 {
		maxHP = 0
	}
	ac := defaults.AC
	if d.AC != nil {
		ac = *d.AC
	}
	kind := d.Kind
	if kind == "" {
		kind = KindMonster
	}
	return Combatant{
		ID:         id,
		Name:       d.Name,
		Kind:       kind,
		Initiative: d.Initiative,
		HP:         Clamp(hp, 0, maxHP),
		MaxHP:      maxHP,
		AC:         ac,
		Abilities:  d.Abilities.Clone(),
		Notes:      d.Notes,
		APIID:      d.APIID,
		Conditions: condition.NewSet(),
	}
}

// Patch is a partial update; nil fields are left unchanged.
// The id and kind of a combatant cannot be patched.
type Patch struct {
	Name       *string
	Initiative *int
	HP         *int
	MaxHP      *int
	AC         *int
	Abilities  *ability.Scores
	Notes      *string
}

// Group is a set of same-kind combatants sharing one initiative roll.
type Group struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Kind       Kind     `json:"kind"`
	Initiative int      `json:"initiative"`
	MemberIDs  []string `json:"member_ids"`
}

// Clone returns a deep copy of g.
func (g Group) Clone() Group {
	g.MemberIDs = append([]string(nil), g.MemberIDs...)
	return g
}

// Has reports whether id is a member of g.
func (g Group) Has(id string) bool {
	for _, m := range g.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// Clamp returns v limited to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
