// Package roster owns the combatants of an encounter: their display order,
// groups, hit points, death saves, conditions and per-combatant UI flags.
package roster

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/initiative/internal/game/combatant"
)

var (
	// ErrNotFound is returned when an operation names an unknown combatant.
	ErrNotFound = errors.New("combatant not found")
	// ErrGroupNotFound is returned when an operation names an unknown group.
	ErrGroupNotFound = errors.New("group not found")
	// ErrOrderMismatch is returned when a reorder is not a permutation of the current ids.
	ErrOrderMismatch = errors.New("reorder ids do not match current combatants")
	// ErrKindMismatch is returned when a group would mix players and monsters.
	ErrKindMismatch = errors.New("group members must share the group's kind")
)

// Store is the single owner of encounter entities.
// All methods are safe for concurrent use and return copies.
type Store struct {
	mu       sync.Mutex
	logger   *zap.Logger
	defaults combatant.Defaults
	newID    func() string

	byID   map[string]*combatant.Combatant
	order  []string // display order of every combatant
	groups map[string]*combatant.Group
	lineup []Slot

	ui    uiState
	hooks []func()
}

// Option configures a Store.
type Option func(*Store)

// WithDefaults overrides the hit point and armor class defaults applied by Add.
func WithDefaults(d combatant.Defaults) Option {
	return func(s *Store) { s.defaults = d }
}

// WithIDGenerator overrides uuid-based id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// NewStore creates an empty Store.
//
// Precondition: logger must be non-nil.
func NewStore(logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		logger:   logger,
		defaults: combatant.StandardDefaults,
		newID:    uuid.NewString,
		byID:     make(map[string]*combatant.Combatant),
		groups:   make(map[string]*combatant.Group),
		ui:       newUIState(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnMutate registers fn to be called, outside the lock, after every
// successful change to persisted state.
func (s *Store) OnMutate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// mutate runs fn under the lock and fires the mutation hooks when it succeeds.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	err := fn()
	hooks := s.hooks
	s.mu.Unlock()
	if err != nil {
		return err
	}
	for _, h := range hooks {
		h()
	}
	return nil
}

func (s *Store) lookup(id string) (*combatant.Combatant, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c, nil
}

// Add creates a combatant from d, appends it to the display order and the
// lineup, and clears the adding flag.
//
// Postcondition: the returned combatant has a fresh unique id.
func (s *Store) Add(d combatant.Draft) combatant.Combatant {
	var out combatant.Combatant
	_ = s.mutate(func() error {
		id := s.newID()
		for s.byID[id] != nil {
			id = s.newID()
		}
		c := d.Build(id, s.defaults)
		s.byID[id] = &c
		s.order = append(s.order, id)
		s.lineup = append(s.lineup, Slot{CombatantID: id})
		s.ui.adding = false
		out = c.Clone()
		return nil
	})
	s.logger.Debug("combatant added",
		zap.String("id", out.ID),
		zap.String("name", out.Name),
		zap.String("kind", string(out.Kind)),
	)
	return out
}

// Update merges p into the combatant with the given id. Hit point changes
// follow the same clamping and death-save rules as UpdateHP; an initiative
// change recomputes the initiative of the combatant's group.
func (s *Store) Update(id string, p combatant.Patch) error {
	return s.mutate(func() error {
		c, err := s.lookup(id)
		if err != nil {
			return err
		}
		if p.Name != nil {
			c.Name = *p.Name
		}
		if p.AC != nil {
			c.AC = *p.AC
		}
		if p.Abilities != nil {
			c.Abilities = p.Abilities.Clone()
		}
		if p.Notes != nil {
			c.Notes = *p.Notes
		}
		if p.MaxHP != nil {
			c.MaxHP = max(*p.MaxHP, 0)
		}
		hp := c.HP
		if p.HP != nil {
			hp = *p.HP
		}
		setHP(c, hp)
		if p.Initiative != nil && *p.Initiative != c.Initiative {
			c.Initiative = *p.Initiative
			if g := s.groupOf(id); g != nil {
				s.recomputeGroup(g)
			}
		}
		return nil
	})
}

// Remove deletes a combatant, evicting it from its group, the lineup and
// every UI map.
func (s *Store) Remove(id string) error {
	return s.mutate(func() error {
		if _, err := s.lookup(id); err != nil {
			return err
		}
		s.evict(id)
		s.logger.Debug("combatant removed", zap.String("id", id))
		return nil
	})
}

// RemoveAllOfKind deletes every combatant of kind and returns how many were removed.
func (s *Store) RemoveAllOfKind(kind combatant.Kind) int {
	var n int
	_ = s.mutate(func() error {
		for _, id := range append([]string(nil), s.order...) {
			if s.byID[id].Kind == kind {
				s.evict(id)
				n++
			}
		}
		return nil
	})
	return n
}

func (s *Store) evict(id string) {
	if g := s.groupOf(id); g != nil {
		g.MemberIDs = without(g.MemberIDs, id)
		s.recomputeGroup(g)
	} else {
		s.removeSlot(Slot{CombatantID: id})
	}
	s.order = without(s.order, id)
	delete(s.byID, id)
	delete(s.ui.expanded, id)
	delete(s.ui.statsShown, id)
	if s.ui.editingID == id {
		s.ui.editingID = ""
	}
}

// UpdateHP adds delta to the combatant's hit points, clamped to [0, MaxHP].
//
// Dropping to 0 from above resets the death-save counters and IsStable;
// healing above 0 while counters are non-zero resets them again. Neither
// transition applies to a dead combatant.
func (s *Store) UpdateHP(id string, delta int) error {
	return s.mutate(func() error {
		c, err := s.lookup(id)
		if err != nil {
			return err
		}
		setHP(c, c.HP+delta)
		return nil
	})
}

func setHP(c *combatant.Combatant, hp int) {
	prev := c.HP
	c.HP = combatant.Clamp(hp, 0, c.MaxHP)
	if c.IsDead {
		return
	}
	switch {
	case prev > 0 && c.HP == 0:
		resetDeathSaves(c)
	case prev == 0 && c.HP > 0 && (c.DeathSavesSuccess > 0 || c.DeathSavesFail > 0 || c.IsStable):
		resetDeathSaves(c)
	}
}

func resetDeathSaves(c *combatant.Combatant) {
	c.DeathSavesSuccess = 0
	c.DeathSavesFail = 0
	c.IsStable = false
}

// AddDeathSave records one death saving throw. It is a no-op when the
// combatant is already dead or stable.
//
// Postcondition: three successes make the combatant stable and clear failures;
// three failures make it dead and clear successes.
func (s *Store) AddDeathSave(id string, success bool) error {
	return s.mutate(func() error {
		c, err := s.lookup(id)
		if err != nil {
			return err
		}
		if c.IsDead || c.IsStable {
			return nil
		}
		if success {
			c.DeathSavesSuccess++
			if c.DeathSavesSuccess >= combatant.MaxDeathSaves {
				c.DeathSavesSuccess = combatant.MaxDeathSaves
				c.DeathSavesFail = 0
				c.IsStable = true
				s.logger.Info("combatant stabilised", zap.String("id", id), zap.String("name", c.Name))
			}
			return nil
		}
		c.DeathSavesFail++
		if c.DeathSavesFail >= combatant.MaxDeathSaves {
			c.DeathSavesFail = combatant.MaxDeathSaves
			c.DeathSavesSuccess = 0
			c.IsDead = true
			s.logger.Info("combatant died", zap.String("id", id), zap.String("name", c.Name))
		}
		return nil
	})
}

// Reorder replaces the display order. ids must be a permutation of the
// current combatant ids.
func (s *Store) Reorder(ids []string) error {
	return s.mutate(func() error {
		if !samePermutation(ids, s.order) {
			return ErrOrderMismatch
		}
		s.order = append([]string(nil), ids...)
		return nil
	})
}

// ReorderKind reorders the combatants of one kind in place: the display
// positions held by that kind are refilled in the order of ids while the
// other kind's positions are untouched.
func (s *Store) ReorderKind(kind combatant.Kind, ids []string) error {
	return s.mutate(func() error {
		var current []string
		for _, id := range s.order {
			if s.byID[id].Kind == kind {
				current = append(current, id)
			}
		}
		if !samePermutation(ids, current) {
			return ErrOrderMismatch
		}
		next := 0
		for i, id := range s.order {
			if s.byID[id].Kind == kind {
				s.order[i] = ids[next]
				next++
			}
		}
		return nil
	})
}

// GetByID returns a copy of the combatant, or (Combatant{}, false) when absent.
func (s *Store) GetByID(id string) (combatant.Combatant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return combatant.Combatant{}, false
	}
	return c.Clone(), true
}

// All returns every combatant in display order.
func (s *Store) All() []combatant.Combatant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]combatant.Combatant, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// OfKind returns the combatants of kind in display order.
func (s *Store) OfKind(kind combatant.Kind) []combatant.Combatant {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []combatant.Combatant
	for _, id := range s.order {
		if c := s.byID[id]; c.Kind == kind {
			out = append(out, c.Clone())
		}
	}
	return out
}

// Players returns the player characters in display order.
func (s *Store) Players() []combatant.Combatant { return s.OfKind(combatant.KindPlayer) }

// Monsters returns the monsters in display order.
func (s *Store) Monsters() []combatant.Combatant { return s.OfKind(combatant.KindMonster) }

// Len returns the number of combatants.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func samePermutation(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(b))
	for _, id := range b {
		seen[id]++
	}
	for _, id := range a {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}

// SetInitiative writes a combatant's initiative and recomputes its group.
func (s *Store) SetInitiative(id string, value int) error {
	return s.Update(id, combatant.Patch{Initiative: &value})
}

// Stabilize marks a dying combatant stable without further death saves.
// It is a no-op for a dead combatant or one above 0 HP.
func (s *Store) Stabilize(id string) error {
	return s.mutate(func() error {
		c, err := s.lookup(id)
		if err != nil {
			return err
		}
		if c.IsDead || c.HP > 0 {
			return nil
		}
		c.DeathSavesSuccess = 0
		c.DeathSavesFail = 0
		c.IsStable = true
		return nil
	})
}
