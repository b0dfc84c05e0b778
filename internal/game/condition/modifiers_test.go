package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cory-johannsen/initiative/internal/game/condition"
)

func TestHasAttackDisadvantage_NoConditions(t *testing.T) {
	s := condition.NewSet()
	assert.False(t, s.HasAttackDisadvantage())
}

func TestHasAttackDisadvantage_EachKind(t *testing.T) {
	for _, k := range []condition.Kind{condition.Blinded, condition.Poisoned, condition.Prone, condition.Restrained, condition.Frightened} {
		s := condition.NewSet()
		s.Add(k, 0, 0)
		assert.True(t, s.HasAttackDisadvantage(), "kind=%s", k)
	}
}

func TestHasAttackDisadvantage_Exhaustion(t *testing.T) {
	s := condition.NewSet()
	s.SetExhaustionLevel(2)
	assert.False(t, s.HasAttackDisadvantage())
	s.SetExhaustionLevel(3)
	assert.True(t, s.HasAttackDisadvantage())
}

func TestHasAttackDisadvantage_UnrelatedKinds(t *testing.T) {
	s := condition.NewSet()
	s.Add(condition.Charmed, 0, 0)
	s.Add(condition.Invisible, 0, 0)
	assert.False(t, s.HasAttackDisadvantage())
}

func TestGrantsAdvantageToAttackers(t *testing.T) {
	for _, k := range []condition.Kind{condition.Blinded, condition.Paralyzed, condition.Prone, condition.Restrained, condition.Stunned, condition.Unconscious} {
		s := condition.NewSet()
		s.Add(k, 0, 0)
		assert.True(t, s.GrantsAdvantageToAttackers(), "kind=%s", k)
	}
	s := condition.NewSet()
	s.Add(condition.Poisoned, 0, 0)
	s.SetExhaustionLevel(6)
	assert.False(t, s.GrantsAdvantageToAttackers())
}

func TestIsIncapacitated(t *testing.T) {
	s := condition.NewSet()
	assert.False(t, s.IsIncapacitated())
	s.Add(condition.Stunned, 1, 0)
	assert.True(t, s.IsIncapacitated())
}
