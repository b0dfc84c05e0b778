// Package bestiary looks up monster stat blocks and turns them into
// combatant drafts.
package bestiary

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/initiative/internal/game/ability"
	"github.com/cory-johannsen/initiative/internal/game/combatant"
)

// ErrNotFound is returned when a monster id is unknown to the source.
var ErrNotFound = errors.New("monster not found")

// Summary is one search hit.
type Summary struct {
	Index string `json:"index" yaml:"index"`
	Name  string `json:"name" yaml:"name"`
	URL   string `json:"url" yaml:"url"`
}

// ArmorClass is one armor class entry of a stat block.
type ArmorClass struct {
	Value int    `json:"value" yaml:"value"`
	Type  string `json:"type" yaml:"type"`
}

// Feature is a named special ability or action.
type Feature struct {
	Name string `json:"name" yaml:"name"`
	Desc string `json:"desc" yaml:"desc"`
}

// Detail is a monster stat block.
type Detail struct {
	Index            string       `json:"index" yaml:"index"`
	Name             string       `json:"name" yaml:"name"`
	ArmorClass       []ArmorClass `json:"armor_class" yaml:"armor_class"`
	HitPoints        int          `json:"hit_points" yaml:"hit_points"`
	ChallengeRating  float64      `json:"challenge_rating" yaml:"challenge_rating"`
	Strength         int          `json:"strength" yaml:"strength"`
	Dexterity        int          `json:"dexterity" yaml:"dexterity"`
	Constitution     int          `json:"constitution" yaml:"constitution"`
	Intelligence     int          `json:"intelligence" yaml:"intelligence"`
	Wisdom           int          `json:"wisdom" yaml:"wisdom"`
	Charisma         int          `json:"charisma" yaml:"charisma"`
	SpecialAbilities []Feature    `json:"special_abilities,omitempty" yaml:"special_abilities,omitempty"`
	Actions          []Feature    `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// Source searches and fetches monsters.
type Source interface {
	// Search returns monsters whose name matches name.
	Search(ctx context.Context, name string) ([]Summary, error)
	// Fetch returns the stat block for a summary index or URL.
	Fetch(ctx context.Context, id string) (Detail, error)
}

// DefaultArmorClass is used when a stat block lists no armor class.
const DefaultArmorClass = 10

// AC returns the first listed armor class, or DefaultArmorClass.
func (d Detail) AC() int {
	if len(d.ArmorClass) == 0 {
		return DefaultArmorClass
	}
	return d.ArmorClass[0].Value
}

// Notes renders the challenge rating, special abilities and actions as the
// combatant's free-form notes.
func (d Detail) Notes() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Challenge Rating: %s\n\n", strconv.FormatFloat(d.ChallengeRating, 'f', -1, 64))
	if len(d.SpecialAbilities) > 0 {
		b.WriteString("Special Abilities:\n")
		for _, f := range d.SpecialAbilities {
			fmt.Fprintf(&b, "- %s: %s\n", f.Name, f.Desc)
		}
		b.WriteString("\n")
	}
	if len(d.Actions) > 0 {
		b.WriteString("Actions:\n")
		for _, f := range d.Actions {
			fmt.Fprintf(&b, "- %s: %s\n", f.Name, f.Desc)
		}
	}
	return b.String()
}

// Draft maps the stat block onto a monster draft with HP and max HP both set
// to the listed hit points.
func (d Detail) Draft() combatant.Draft {
	hp := d.HitPoints
	ac := d.AC()
	return combatant.Draft{
		Name:  d.Name,
		Kind:  combatant.KindMonster,
		HP:    &hp,
		MaxHP: &hp,
		AC:    &ac,
		Abilities: ability.Scores{
			Strength:     ability.Int(d.Strength),
			Dexterity:    ability.Int(d.Dexterity),
			Constitution: ability.Int(d.Constitution),
			Intelligence: ability.Int(d.Intelligence),
			Wisdom:       ability.Int(d.Wisdom),
			Charisma:     ability.Int(d.Charisma),
		},
		Notes: d.Notes(),
		APIID: d.Index,
	}
}
