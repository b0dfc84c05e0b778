package roster

import (
	"github.com/cory-johannsen/initiative/internal/game/condition"
)

// AddCondition applies kind to a combatant; see condition.Set.Add for the
// duration and exhaustion rules.
func (s *Store) AddCondition(id string, kind condition.Kind, duration, level int) error {
	return s.mutate(func() error {
		c, err := s.lookup(id)
		if err != nil {
			return err
		}
		c.Conditions.Add(kind, duration, level)
		return nil
	})
}

// RemoveCondition removes kind from a combatant. Removing an absent kind is a no-op.
func (s *Store) RemoveCondition(id string, kind condition.Kind) error {
	return s.mutate(func() error {
		c, err := s.lookup(id)
		if err != nil {
			return err
		}
		c.Conditions.Remove(kind)
		return nil
	})
}

// HasCondition reports whether a combatant carries kind.
func (s *Store) HasCondition(id string, kind condition.Kind) (bool, error) {
	var has bool
	err := s.read(id, func(set *condition.Set) { has = set.Has(kind) })
	return has, err
}

// ExhaustionLevel returns a combatant's exhaustion level, 0 when not exhausted.
func (s *Store) ExhaustionLevel(id string) (int, error) {
	var level int
	err := s.read(id, func(set *condition.Set) { level = set.ExhaustionLevel() })
	return level, err
}

// SetExhaustionLevel sets a combatant's exhaustion level; levels <= 0 remove it.
func (s *Store) SetExhaustionLevel(id string, level int) error {
	return s.mutate(func() error {
		c, err := s.lookup(id)
		if err != nil {
			return err
		}
		c.Conditions.SetExhaustionLevel(level)
		return nil
	})
}

// ClearConditions removes every condition from one combatant.
func (s *Store) ClearConditions(id string) error {
	return s.mutate(func() error {
		c, err := s.lookup(id)
		if err != nil {
			return err
		}
		c.Conditions.Clear()
		return nil
	})
}

// ClearAllConditions removes every condition from every combatant.
func (s *Store) ClearAllConditions() {
	_ = s.mutate(func() error {
		for _, c := range s.byID {
			c.Conditions.Clear()
		}
		return nil
	})
}

// DecayConditions advances every timed condition on every combatant by one
// turn and returns the expired kinds keyed by combatant id.
func (s *Store) DecayConditions() map[string][]condition.Kind {
	expired := make(map[string][]condition.Kind)
	_ = s.mutate(func() error {
		for _, id := range s.order {
			if gone := s.byID[id].Conditions.Decay(); len(gone) > 0 {
				expired[id] = gone
			}
		}
		return nil
	})
	return expired
}

// AttackDisadvantage reports whether a combatant's conditions impose
// disadvantage on its attack rolls.
func (s *Store) AttackDisadvantage(id string) (bool, error) {
	var v bool
	err := s.read(id, func(set *condition.Set) { v = set.HasAttackDisadvantage() })
	return v, err
}

// AdvantageAgainst reports whether attacks against a combatant have advantage.
func (s *Store) AdvantageAgainst(id string) (bool, error) {
	var v bool
	err := s.read(id, func(set *condition.Set) { v = set.GrantsAdvantageToAttackers() })
	return v, err
}

func (s *Store) read(id string, fn func(*condition.Set)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.lookup(id)
	if err != nil {
		return err
	}
	fn(&c.Conditions)
	return nil
}
