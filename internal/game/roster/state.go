package roster

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/initiative/internal/game/combatant"
)

// State is the persisted form of a Store.
type State struct {
	Combatants []combatant.Combatant `json:"combatants"`
	Groups     []combatant.Group     `json:"groups"`
	Lineup     []Slot                `json:"lineup"`
	Expanded   map[string]bool       `json:"expanded"`
	StatsShown map[string]bool       `json:"stats_shown"`
}

// Snapshot returns a deep copy of the persisted state. Combatants are listed
// in display order and groups in lineup order.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Combatants: make([]combatant.Combatant, 0, len(s.order)),
		Groups:     make([]combatant.Group, 0, len(s.groups)),
		Lineup:     append([]Slot{}, s.lineup...),
		Expanded:   copyFlags(s.ui.expanded),
		StatsShown: copyFlags(s.ui.statsShown),
	}
	for _, id := range s.order {
		st.Combatants = append(st.Combatants, s.byID[id].Clone())
	}
	for _, slot := range s.lineup {
		if slot.GroupID != "" {
			st.Groups = append(st.Groups, s.groups[slot.GroupID].Clone())
		}
	}
	return st
}

// Restore replaces the store's contents with st, repairing anything that
// would break the store's invariants: duplicate or blank ids are dropped, HP
// is clamped, group members must exist, share the group's kind and belong to
// one group only, and the lineup is rebuilt so that every ungrouped combatant
// and every group appears exactly once. Transient UI flags are cleared.
// Restore does not fire the mutation hooks.
func (s *Store) Restore(st State) {
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.byID = make(map[string]*combatant.Combatant, len(st.Combatants))
		s.order = s.order[:0]
		s.groups = make(map[string]*combatant.Group, len(st.Groups))
		s.lineup = nil
		s.ui = newUIState()

		for _, c := range st.Combatants {
			if c.ID == "" || s.byID[c.ID] != nil {
				s.logger.Warn("dropping combatant with blank or duplicate id", zap.String("id", c.ID))
				continue
			}
			c = c.Clone()
			c.MaxHP = max(c.MaxHP, 0)
			c.HP = combatant.Clamp(c.HP, 0, c.MaxHP)
			if c.IsDead && c.IsStable {
				c.IsStable = false
			}
			s.byID[c.ID] = &c
			s.order = append(s.order, c.ID)
		}

		claimed := make(map[string]bool)
		for _, g := range st.Groups {
			if g.ID == "" || s.groups[g.ID] != nil || s.byID[g.ID] != nil {
				continue
			}
			g = g.Clone()
			members := g.MemberIDs[:0]
			for _, id := range g.MemberIDs {
				c := s.byID[id]
				if c == nil || c.Kind != g.Kind || claimed[id] {
					continue
				}
				claimed[id] = true
				members = append(members, id)
			}
			g.MemberIDs = members
			s.recomputeGroup(&g)
			s.groups[g.ID] = &g
		}

		placed := make(map[Slot]bool)
		for _, slot := range st.Lineup {
			valid := (slot.GroupID != "" && slot.CombatantID == "" && s.groups[slot.GroupID] != nil) ||
				(slot.CombatantID != "" && slot.GroupID == "" && s.byID[slot.CombatantID] != nil && !claimed[slot.CombatantID])
			if !valid || placed[slot] {
				continue
			}
			placed[slot] = true
			s.lineup = append(s.lineup, slot)
		}
		for _, g := range st.Groups {
			if slot := (Slot{GroupID: g.ID}); s.groups[g.ID] != nil && !placed[slot] {
				placed[slot] = true
				s.lineup = append(s.lineup, slot)
			}
		}
		for _, id := range s.order {
			if slot := (Slot{CombatantID: id}); !claimed[id] && !placed[slot] {
				placed[slot] = true
				s.lineup = append(s.lineup, slot)
			}
		}

		for id, v := range st.Expanded {
			if v && s.byID[id] != nil {
				s.ui.expanded[id] = true
			}
		}
		for id, v := range st.StatsShown {
			if v && s.byID[id] != nil {
				s.ui.statsShown[id] = true
			}
		}
	}()
	s.logger.Info("roster restored", zap.Int("combatants", s.Len()))
}

func copyFlags(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		if v {
			out[k] = true
		}
	}
	return out
}
