// Package initiative rolls initiative for combatants and groups, keeps the
// most recent roll of each combatant on display for a short window, and
// derives the turn order.
package initiative

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/initiative/internal/game/combatant"
	"github.com/cory-johannsen/initiative/internal/game/dice"
	"github.com/cory-johannsen/initiative/internal/game/roster"
	"github.com/cory-johannsen/initiative/internal/game/timer"
)

// DefaultDisplay is how long a roll result stays visible.
const DefaultDisplay = 3 * time.Second

// RollResult is a transient record of one initiative roll.
//
// Invariant: Total == Roll + Modifier + Bonus.
type RollResult struct {
	CombatantID string
	Roll        int
	Modifier    int
	// Bonus is the house-rule bonus; 0 when no hook is installed.
	Bonus    int
	Total    int
	RolledAt time.Time
}

// String renders the result as "15 +2 = 17".
func (r RollResult) String() string {
	s := fmt.Sprintf("%d %+d", r.Roll, r.Modifier)
	if r.Bonus != 0 {
		s += fmt.Sprintf(" %+d", r.Bonus)
	}
	return fmt.Sprintf("%s = %d", s, r.Total)
}

// BonusFunc returns an extra initiative bonus for c.
type BonusFunc func(c combatant.Combatant) int

// Engine rolls initiative against a roster.Store.
// All methods are safe for concurrent use.
type Engine struct {
	store   *roster.Store
	roller  *dice.Roller
	logger  *zap.Logger
	display time.Duration
	bonus   BonusFunc
	now     func() time.Time

	mu      sync.Mutex
	results map[string]RollResult
	gen     map[string]uint64
	expiry  map[string]*timer.Timer
}

// Option configures an Engine.
type Option func(*Engine)

// WithDisplayDuration sets how long roll results stay visible.
// A non-positive duration keeps each result until the next roll.
func WithDisplayDuration(d time.Duration) Option {
	return func(e *Engine) { e.display = d }
}

// WithBonus installs a house-rule bonus applied to every roll.
func WithBonus(fn BonusFunc) Option {
	return func(e *Engine) { e.bonus = fn }
}

// WithClock overrides the clock used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine.
//
// Precondition: store, roller and logger must be non-nil.
func NewEngine(store *roster.Store, roller *dice.Roller, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		roller:  roller,
		logger:  logger,
		display: DefaultDisplay,
		now:     time.Now,
		results: make(map[string]RollResult),
		gen:     make(map[string]uint64),
		expiry:  make(map[string]*timer.Timer),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) roll(c combatant.Combatant, modifier int) RollResult {
	r := RollResult{
		CombatantID: c.ID,
		Roll:        e.roller.Roll(dice.D20).Total(),
		Modifier:    modifier,
		RolledAt:    e.now(),
	}
	if e.bonus != nil {
		r.Bonus = e.bonus(c)
	}
	r.Total = r.Roll + r.Modifier + r.Bonus
	return r
}

// RollOne rolls d20 plus the dexterity modifier for one combatant, writes
// the total as its initiative and shows the result for the display window.
// The total is not floored and may be negative.
func (e *Engine) RollOne(id string) (RollResult, error) {
	c, ok := e.store.GetByID(id)
	if !ok {
		return RollResult{}, fmt.Errorf("rolling initiative: %w: %q", roster.ErrNotFound, id)
	}
	r := e.roll(c, c.DexModifier())
	if err := e.store.SetInitiative(id, r.Total); err != nil {
		return RollResult{}, fmt.Errorf("rolling initiative: %w", err)
	}
	e.show(r)
	e.logger.Info("initiative rolled",
		zap.String("id", c.ID),
		zap.String("name", c.Name),
		zap.Int("roll", r.Roll),
		zap.Int("modifier", r.Modifier),
		zap.Int("bonus", r.Bonus),
		zap.Int("total", r.Total),
	)
	return r, nil
}

// RollAll rolls initiative for every lineup entry, restricted to kind when
// kind is non-nil. Ungrouped combatants roll individually; each group rolls
// once with its highest member dexterity modifier and the total is written
// to every member together. Empty groups are skipped.
//
// Postcondition: one result per rolled combatant, in lineup order.
func (e *Engine) RollAll(kind *combatant.Kind) ([]RollResult, error) {
	var out []RollResult
	for _, entry := range e.store.Lineup() {
		if kind != nil && entry.Kind() != *kind {
			continue
		}
		if !entry.IsGroup() {
			r, err := e.RollOne(entry.Combatant.ID)
			if err != nil {
				return out, err
			}
			out = append(out, r)
			continue
		}
		if len(entry.Members) == 0 {
			continue
		}
		best := entry.Members[0]
		for _, m := range entry.Members[1:] {
			if m.DexModifier() > best.DexModifier() {
				best = m
			}
		}
		r := e.roll(best, best.DexModifier())
		if err := e.store.ApplyGroupInitiative(entry.Group.ID, r.Total); err != nil {
			return out, fmt.Errorf("rolling group initiative: %w", err)
		}
		for _, m := range entry.Members {
			mr := r
			mr.CombatantID = m.ID
			e.show(mr)
			out = append(out, mr)
		}
		e.logger.Info("group initiative rolled",
			zap.String("group", entry.Group.Name),
			zap.Int("members", len(entry.Members)),
			zap.Int("total", r.Total),
		)
	}
	return out, nil
}

// Order returns the lineup sorted by initiative, highest first. Ties keep
// their lineup order.
func (e *Engine) Order() []roster.Entry {
	entries := e.store.Lineup()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Initiative() > entries[j].Initiative()
	})
	return entries
}

// show records r and arms its expiry. Each roll bumps the combatant's
// generation; an expiry only clears the result of its own generation.
func (e *Engine) show(r RollResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := r.CombatantID
	e.results[id] = r
	e.gen[id]++
	if e.display <= 0 {
		return
	}
	gen := e.gen[id]
	expire := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.gen[id] != gen {
			return
		}
		delete(e.results, id)
		delete(e.expiry, id)
	}
	if t, ok := e.expiry[id]; ok {
		t.Reset(e.display, expire)
		return
	}
	e.expiry[id] = timer.New(e.display, expire)
}

// LastResult returns the roll currently on display for a combatant.
func (e *Engine) LastResult(id string) (RollResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.results[id]
	return r, ok
}

// Results returns every roll currently on display, keyed by combatant id.
func (e *Engine) Results() map[string]RollResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]RollResult, len(e.results))
	for k, v := range e.results {
		out[k] = v
	}
	return out
}

// Close cancels every pending expiry.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, t := range e.expiry {
		t.Stop()
		delete(e.expiry, id)
	}
}
