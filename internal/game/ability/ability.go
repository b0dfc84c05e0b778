// Package ability implements 5e ability-score arithmetic and its display forms.
package ability

import "fmt"

// DefaultPlaceholder is rendered in place of an absent ability score.
const DefaultPlaceholder = "—"

// Modifier computes the 5e ability modifier using floor division: floor((score - 10) / 2).
//
// Postcondition: Modifier(1) == -5, Modifier(7) == -2, Modifier(10) == 0, Modifier(30) == 10.
func Modifier(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// ModifierOf returns Modifier(*score), or 0 when score is nil.
func ModifierOf(score *int) int {
	if score == nil {
		return 0
	}
	return Modifier(*score)
}

// FormatModifier renders the signed modifier for score, e.g. "+2" or "-1".
func FormatModifier(score int) string {
	return fmt.Sprintf("%+d", Modifier(score))
}

// DisplayPolicy controls how ability scores are rendered.
type DisplayPolicy struct {
	// Placeholder is returned by Display for an absent score.
	Placeholder string
}

// DefaultDisplay renders absent scores as DefaultPlaceholder.
var DefaultDisplay = DisplayPolicy{Placeholder: DefaultPlaceholder}

// Display renders score as "14 (+2)".
//
// Postcondition: Returns p.Placeholder when score is nil.
func (p DisplayPolicy) Display(score *int) string {
	if score == nil {
		return p.Placeholder
	}
	return fmt.Sprintf("%d (%s)", *score, FormatModifier(*score))
}

// Display renders score with DefaultDisplay.
func Display(score *int) string {
	return DefaultDisplay.Display(score)
}

// Scores holds the six optional ability scores of a combatant.
// A nil field means the score is unknown to the tracker.
type Scores struct {
	Strength     *int `json:"strength,omitempty" yaml:"strength,omitempty"`
	Dexterity    *int `json:"dexterity,omitempty" yaml:"dexterity,omitempty"`
	Constitution *int `json:"constitution,omitempty" yaml:"constitution,omitempty"`
	Intelligence *int `json:"intelligence,omitempty" yaml:"intelligence,omitempty"`
	Wisdom       *int `json:"wisdom,omitempty" yaml:"wisdom,omitempty"`
	Charisma     *int `json:"charisma,omitempty" yaml:"charisma,omitempty"`
}

// Clone returns a deep copy of s.
func (s Scores) Clone() Scores {
	return Scores{
		Strength:     clonePtr(s.Strength),
		Dexterity:    clonePtr(s.Dexterity),
		Constitution: clonePtr(s.Constitution),
		Intelligence: clonePtr(s.Intelligence),
		Wisdom:       clonePtr(s.Wisdom),
		Charisma:     clonePtr(s.Charisma),
	}
}

// Named returns the scores paired with their short labels in canonical order.
func (s Scores) Named() []NamedScore {
	return []NamedScore{
		{Label: "STR", Score: s.Strength},
		{Label: "DEX", Score: s.Dexterity},
		{Label: "CON", Score: s.Constitution},
		{Label: "INT", Score: s.Intelligence},
		{Label: "WIS", Score: s.Wisdom},
		{Label: "CHA", Score: s.Charisma},
	}
}

// NamedScore is one labelled entry of Scores.Named.
type NamedScore struct {
	Label string
	Score *int
}

// Int returns a pointer to v, for populating optional scores.
func Int(v int) *int { return &v }

func clonePtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
