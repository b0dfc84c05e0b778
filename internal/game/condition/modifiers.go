package condition

// attackDisadvantage lists the kinds that impose disadvantage on the creature's own attacks.
var attackDisadvantage = []Kind{Blinded, Poisoned, Prone, Restrained, Frightened}

// advantageAgainst lists the kinds that grant attackers advantage against the creature.
var advantageAgainst = []Kind{Blinded, Paralyzed, Prone, Restrained, Stunned, Unconscious}

// HasAttackDisadvantage reports whether the creature's attack rolls have
// disadvantage: any of Blinded, Poisoned, Prone, Restrained, Frightened, or
// exhaustion level 3 or higher.
func (s *Set) HasAttackDisadvantage() bool {
	return s.hasAny(attackDisadvantage) || s.ExhaustionLevel() >= 3
}

// GrantsAdvantageToAttackers reports whether attack rolls against the creature
// have advantage: any of Blinded, Paralyzed, Prone, Restrained, Stunned, Unconscious.
func (s *Set) GrantsAdvantageToAttackers() bool {
	return s.hasAny(advantageAgainst)
}

// IsIncapacitated reports whether the creature cannot take actions or reactions,
// either directly or through a condition that includes incapacitation.
func (s *Set) IsIncapacitated() bool {
	return s.hasAny([]Kind{Incapacitated, Paralyzed, Petrified, Stunned, Unconscious})
}

func (s *Set) hasAny(kinds []Kind) bool {
	for _, k := range kinds {
		if s.Has(k) {
			return true
		}
	}
	return false
}
