package condition

import "encoding/json"

// Instance is one condition applied to a combatant.
type Instance struct {
	Kind Kind `json:"kind"`
	// Level is meaningful only for Exhaustion (1..MaxExhaustion); zero otherwise.
	Level int `json:"level,omitempty"`
	// Duration is the number of turns remaining; nil means indefinite.
	Duration *int `json:"duration,omitempty"`
}

// Set tracks the conditions applied to one combatant, at most one instance per kind.
// Instances keep their insertion order for stable listing.
// It is not safe for concurrent use; the owning store serialises access.
type Set struct {
	items []Instance
}

// NewSet creates an empty Set.
func NewSet() Set {
	return Set{}
}

func (s *Set) index(kind Kind) int {
	for i := range s.items {
		if s.items[i].Kind == kind {
			return i
		}
	}
	return -1
}

// Add applies kind to the set.
//
// If kind is already present Add is a no-op, except for Exhaustion where a
// positive level replaces the existing level. A new Exhaustion instance
// defaults to level 1 when level <= 0 and never carries a duration. Other
// kinds ignore level and keep duration only when duration > 0; otherwise the
// condition is indefinite.
//
// Postcondition: Has(kind) is true; exactly one instance of kind exists.
func (s *Set) Add(kind Kind, duration, level int) {
	if i := s.index(kind); i >= 0 {
		if kind == Exhaustion && level > 0 {
			s.items[i].Level = ClampExhaustion(level)
		}
		return
	}
	inst := Instance{Kind: kind}
	if kind == Exhaustion {
		if level <= 0 {
			level = 1
		}
		inst.Level = ClampExhaustion(level)
	} else if duration > 0 {
		d := duration
		inst.Duration = &d
	}
	s.items = append(s.items, inst)
}

// Remove deletes kind from the set. If kind is not present, Remove is a no-op.
//
// Postcondition: Has(kind) is false.
func (s *Set) Remove(kind Kind) {
	if i := s.index(kind); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
}

// Has reports whether kind is currently applied.
func (s *Set) Has(kind Kind) bool {
	return s.index(kind) >= 0
}

// ExhaustionLevel returns the current exhaustion level, or 0 without exhaustion.
func (s *Set) ExhaustionLevel() int {
	if i := s.index(Exhaustion); i >= 0 {
		return s.items[i].Level
	}
	return 0
}

// SetExhaustionLevel sets the exhaustion level. level <= 0 removes exhaustion;
// level > MaxExhaustion is clamped.
//
// Postcondition: ExhaustionLevel() == ClampExhaustion(level).
func (s *Set) SetExhaustionLevel(level int) {
	level = ClampExhaustion(level)
	i := s.index(Exhaustion)
	switch {
	case level == 0:
		s.Remove(Exhaustion)
	case i >= 0:
		s.items[i].Level = level
	default:
		s.items = append(s.items, Instance{Kind: Exhaustion, Level: level})
	}
}

// Clear removes every condition.
//
// Postcondition: Len() == 0.
func (s *Set) Clear() {
	s.items = nil
}

// Decay advances every timed condition by one turn. Conditions whose duration
// reaches zero are removed; indefinite conditions and Exhaustion are untouched.
//
// Postcondition: For every kind in the returned slice, Has(kind) is false.
func (s *Set) Decay() []Kind {
	var expired []Kind
	kept := s.items[:0]
	for _, inst := range s.items {
		if inst.Kind == Exhaustion || inst.Duration == nil {
			kept = append(kept, inst)
			continue
		}
		d := *inst.Duration - 1
		if d <= 0 {
			expired = append(expired, inst.Kind)
			continue
		}
		inst.Duration = &d
		kept = append(kept, inst)
	}
	s.items = kept
	return expired
}

// Len returns the number of applied conditions.
func (s *Set) Len() int {
	return len(s.items)
}

// Get returns the instance of kind, or (Instance{}, false) if absent.
func (s *Set) Get(kind Kind) (Instance, bool) {
	if i := s.index(kind); i >= 0 {
		return s.items[i].clone(), true
	}
	return Instance{}, false
}

// All returns a copy of the applied instances in insertion order.
func (s *Set) All() []Instance {
	out := make([]Instance, len(s.items))
	for i, inst := range s.items {
		out[i] = inst.clone()
	}
	return out
}

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	if len(s.items) == 0 {
		return Set{}
	}
	return Set{items: s.All()}
}

func (i Instance) clone() Instance {
	if i.Duration != nil {
		d := *i.Duration
		i.Duration = &d
	}
	return i
}

// MarshalJSON encodes the set as an array of instances.
func (s Set) MarshalJSON() ([]byte, error) {
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

// UnmarshalJSON decodes an array of instances, re-establishing the
// one-instance-per-kind and exhaustion-range invariants.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw []Instance
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.items = nil
	for _, inst := range raw {
		if s.Has(inst.Kind) {
			continue
		}
		if inst.Kind == Exhaustion {
			inst.Duration = nil
			inst.Level = ClampExhaustion(inst.Level)
			if inst.Level == 0 {
				continue
			}
		} else {
			inst.Level = 0
			if inst.Duration != nil && *inst.Duration <= 0 {
				inst.Duration = nil
			}
		}
		s.items = append(s.items, inst)
	}
	return nil
}
