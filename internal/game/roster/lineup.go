package roster

import "github.com/cory-johannsen/initiative/internal/game/combatant"

// Slot is one position of the initiative lineup: either an ungrouped
// combatant or a group, never both.
type Slot struct {
	CombatantID string `json:"combatant_id,omitempty"`
	GroupID     string `json:"group_id,omitempty"`
}

// Entry is a resolved lineup slot.
type Entry struct {
	// Combatant is set for an ungrouped combatant.
	Combatant *combatant.Combatant
	// Group and Members are set for a group slot.
	Group   *combatant.Group
	Members []combatant.Combatant
}

// ID returns the combatant or group id of the entry.
func (e Entry) ID() string {
	if e.Group != nil {
		return e.Group.ID
	}
	return e.Combatant.ID
}

// Name returns the combatant or group name of the entry.
func (e Entry) Name() string {
	if e.Group != nil {
		return e.Group.Name
	}
	return e.Combatant.Name
}

// Kind returns the combatant or group kind of the entry.
func (e Entry) Kind() combatant.Kind {
	if e.Group != nil {
		return e.Group.Kind
	}
	return e.Combatant.Kind
}

// Initiative returns the initiative the entry is ordered by.
func (e Entry) Initiative() int {
	if e.Group != nil {
		return e.Group.Initiative
	}
	return e.Combatant.Initiative
}

// IsGroup reports whether the entry is a group slot.
func (e Entry) IsGroup() bool { return e.Group != nil }

// Lineup returns the resolved lineup in slot order. Every combatant appears
// exactly once: either as its own entry or among one group's members.
func (s *Store) Lineup() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.lineup))
	for _, slot := range s.lineup {
		if slot.GroupID != "" {
			g := s.groups[slot.GroupID].Clone()
			members := make([]combatant.Combatant, 0, len(g.MemberIDs))
			for _, id := range g.MemberIDs {
				members = append(members, s.byID[id].Clone())
			}
			out = append(out, Entry{Group: &g, Members: members})
			continue
		}
		c := s.byID[slot.CombatantID].Clone()
		out = append(out, Entry{Combatant: &c})
	}
	return out
}

func (s *Store) slotIndex(slot Slot) int {
	for i, v := range s.lineup {
		if v == slot {
			return i
		}
	}
	return -1
}

// position returns the lineup index currently representing id: its own slot,
// or the slot of the group containing it.
func (s *Store) position(id string) int {
	if g := s.groupOf(id); g != nil {
		return s.slotIndex(Slot{GroupID: g.ID})
	}
	return s.slotIndex(Slot{CombatantID: id})
}

func (s *Store) removeSlot(slot Slot) {
	if i := s.slotIndex(slot); i >= 0 {
		s.lineup = append(s.lineup[:i], s.lineup[i+1:]...)
	}
}

func (s *Store) insertSlots(at int, slots ...Slot) {
	if at < 0 || at > len(s.lineup) {
		at = len(s.lineup)
	}
	next := make([]Slot, 0, len(s.lineup)+len(slots))
	next = append(next, s.lineup[:at]...)
	next = append(next, slots...)
	next = append(next, s.lineup[at:]...)
	s.lineup = next
}
