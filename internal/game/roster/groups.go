package roster

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/initiative/internal/game/combatant"
)

// GroupPatch is a partial group update; nil fields are left unchanged.
type GroupPatch struct {
	Name      *string
	MemberIDs []string
}

func (s *Store) lookupGroup(id string) (*combatant.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrGroupNotFound, id)
	}
	return g, nil
}

func (s *Store) groupOf(id string) *combatant.Group {
	for _, g := range s.groups {
		if g.Has(id) {
			return g
		}
	}
	return nil
}

// recomputeGroup sets the group's initiative to the highest member
// initiative. An empty group keeps its current value.
func (s *Store) recomputeGroup(g *combatant.Group) {
	if len(g.MemberIDs) == 0 {
		return
	}
	best := s.byID[g.MemberIDs[0]].Initiative
	for _, id := range g.MemberIDs[1:] {
		best = max(best, s.byID[id].Initiative)
	}
	g.Initiative = best
}

// validateMembers resolves and de-duplicates ids, requiring every member to
// exist and share kind.
func (s *Store) validateMembers(kind combatant.Kind, ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		c, err := s.lookup(id)
		if err != nil {
			return nil, err
		}
		if c.Kind != kind {
			return nil, fmt.Errorf("%w: %q is a %s", ErrKindMismatch, c.Name, c.Kind)
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// detach takes id out of its current group or lineup slot.
func (s *Store) detach(id string) {
	if g := s.groupOf(id); g != nil {
		g.MemberIDs = without(g.MemberIDs, id)
		s.recomputeGroup(g)
		return
	}
	s.removeSlot(Slot{CombatantID: id})
}

// CreateGroup forms a group of same-kind combatants. Members are taken out
// of any previous group and out of their own lineup slots; the group takes
// the earliest lineup position among them.
//
// Postcondition: the group's initiative is the highest member initiative.
func (s *Store) CreateGroup(name string, kind combatant.Kind, memberIDs []string) (combatant.Group, error) {
	var out combatant.Group
	err := s.mutate(func() error {
		members, err := s.validateMembers(kind, memberIDs)
		if err != nil {
			return err
		}
		at := len(s.lineup)
		for _, id := range members {
			if p := s.position(id); p >= 0 && p < at {
				at = p
			}
		}
		g := &combatant.Group{ID: s.newID(), Name: name, Kind: kind}
		s.groups[g.ID] = g
		s.insertSlots(at, Slot{GroupID: g.ID})
		for _, id := range members {
			s.detach(id)
		}
		g.MemberIDs = members
		s.recomputeGroup(g)
		out = g.Clone()
		return nil
	})
	if err == nil {
		s.logger.Debug("group created", zap.String("id", out.ID), zap.String("name", out.Name), zap.Int("members", len(out.MemberIDs)))
	}
	return out, err
}

// UpdateGroup renames a group and/or replaces its members. Newly added
// members leave their previous slot or group; released members get their own
// slots directly after the group.
func (s *Store) UpdateGroup(id string, p GroupPatch) error {
	return s.mutate(func() error {
		g, err := s.lookupGroup(id)
		if err != nil {
			return err
		}
		if p.MemberIDs != nil {
			members, err := s.validateMembers(g.Kind, p.MemberIDs)
			if err != nil {
				return err
			}
			var released []Slot
			for _, m := range g.MemberIDs {
				if !contains(members, m) {
					released = append(released, Slot{CombatantID: m})
				}
			}
			for _, m := range members {
				if !g.Has(m) {
					s.detach(m)
				}
			}
			g.MemberIDs = members
			s.insertSlots(s.slotIndex(Slot{GroupID: id})+1, released...)
			s.recomputeGroup(g)
		}
		if p.Name != nil {
			g.Name = *p.Name
		}
		return nil
	})
}

// RemoveGroup dissolves a group; its members take individual lineup slots
// at the group's former position.
func (s *Store) RemoveGroup(id string) error {
	return s.mutate(func() error {
		g, err := s.lookupGroup(id)
		if err != nil {
			return err
		}
		at := s.slotIndex(Slot{GroupID: id})
		s.removeSlot(Slot{GroupID: id})
		slots := make([]Slot, 0, len(g.MemberIDs))
		for _, m := range g.MemberIDs {
			slots = append(slots, Slot{CombatantID: m})
		}
		s.insertSlots(at, slots...)
		delete(s.groups, id)
		return nil
	})
}

// Group returns a copy of the group with the given id.
func (s *Store) Group(id string) (combatant.Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return combatant.Group{}, false
	}
	return g.Clone(), true
}

// GroupOf returns the group containing the combatant, if any.
func (s *Store) GroupOf(combatantID string) (combatant.Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g := s.groupOf(combatantID); g != nil {
		return g.Clone(), true
	}
	return combatant.Group{}, false
}

// Groups returns every group in lineup order.
func (s *Store) Groups() []combatant.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []combatant.Group
	for _, slot := range s.lineup {
		if slot.GroupID != "" {
			out = append(out, s.groups[slot.GroupID].Clone())
		}
	}
	return out
}

// GroupMembers returns the members of a group in member order.
func (s *Store) GroupMembers(id string) ([]combatant.Combatant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.lookupGroup(id)
	if err != nil {
		return nil, err
	}
	out := make([]combatant.Combatant, 0, len(g.MemberIDs))
	for _, m := range g.MemberIDs {
		out = append(out, s.byID[m].Clone())
	}
	return out, nil
}

// UpdateGroupInitiative recomputes a group's initiative from its members.
func (s *Store) UpdateGroupInitiative(id string) error {
	return s.mutate(func() error {
		g, err := s.lookupGroup(id)
		if err != nil {
			return err
		}
		s.recomputeGroup(g)
		return nil
	})
}

// ApplyGroupInitiative writes total to the group and every member in one step.
func (s *Store) ApplyGroupInitiative(id string, total int) error {
	return s.mutate(func() error {
		g, err := s.lookupGroup(id)
		if err != nil {
			return err
		}
		for _, m := range g.MemberIDs {
			s.byID[m].Initiative = total
		}
		g.Initiative = total
		return nil
	})
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
