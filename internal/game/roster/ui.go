package roster

import "github.com/cory-johannsen/initiative/internal/game/combatant"

// uiState holds presentation flags. Expanded and statsShown are persisted;
// the adding and editing flags are not.
type uiState struct {
	adding     bool
	addingKind combatant.Kind
	editingID  string
	expanded   map[string]bool
	statsShown map[string]bool
}

func newUIState() uiState {
	return uiState{
		expanded:   make(map[string]bool),
		statsShown: make(map[string]bool),
	}
}

// StartAdding raises the adding flag for kind.
func (s *Store) StartAdding(kind combatant.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ui.adding = true
	s.ui.addingKind = kind
}

// CancelAdding lowers the adding flag.
func (s *Store) CancelAdding() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ui.adding = false
}

// Adding returns the adding flag and the kind being added.
func (s *Store) Adding() (bool, combatant.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ui.adding, s.ui.addingKind
}

// StartEditing marks a combatant as being edited.
func (s *Store) StartEditing(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(id); err != nil {
		return err
	}
	s.ui.editingID = id
	return nil
}

// CancelEditing clears the editing marker.
func (s *Store) CancelEditing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ui.editingID = ""
}

// EditingID returns the id being edited, or "".
func (s *Store) EditingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ui.editingID
}

// ToggleExpand flips whether a combatant's detail panel is expanded.
func (s *Store) ToggleExpand(id string) error {
	return s.toggle(id, func(u *uiState) map[string]bool { return u.expanded })
}

// IsExpanded reports whether a combatant's detail panel is expanded.
func (s *Store) IsExpanded(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ui.expanded[id]
}

// ToggleStats flips whether a combatant's stat block is shown.
func (s *Store) ToggleStats(id string) error {
	return s.toggle(id, func(u *uiState) map[string]bool { return u.statsShown })
}

// IsStatsShown reports whether a combatant's stat block is shown.
func (s *Store) IsStatsShown(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ui.statsShown[id]
}

func (s *Store) toggle(id string, pick func(*uiState) map[string]bool) error {
	return s.mutate(func() error {
		if _, err := s.lookup(id); err != nil {
			return err
		}
		flags := pick(&s.ui)
		if flags[id] {
			delete(flags, id)
		} else {
			flags[id] = true
		}
		return nil
	})
}
