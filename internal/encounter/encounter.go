// Package encounter owns one running combat: the roster, the initiative
// engine, the turn counter, monster lookup and persistence.
package encounter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/initiative/internal/bestiary"
	"github.com/cory-johannsen/initiative/internal/game/combatant"
	"github.com/cory-johannsen/initiative/internal/game/condition"
	"github.com/cory-johannsen/initiative/internal/game/initiative"
	"github.com/cory-johannsen/initiative/internal/game/roster"
	"github.com/cory-johannsen/initiative/internal/snapshot"
)

var (
	// ErrInvalidTurn is returned by SetTurn for values below 1.
	ErrInvalidTurn = errors.New("turn must be at least 1")
	// ErrNoBestiary is returned by monster lookups when no source is configured.
	ErrNoBestiary = errors.New("no bestiary source configured")
)

// Confirmer asks the user a yes/no question before a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm approves every prompt.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// Deps are the collaborators of a Tracker. Bestiary and Snapshots are optional.
type Deps struct {
	Store     *roster.Store
	Engine    *initiative.Engine
	Confirmer Confirmer
	Bestiary  bestiary.Source
	Snapshots snapshot.Store
	// AutosaveDelay is the debounce window for snapshot writes.
	AutosaveDelay time.Duration
	Logger        *zap.Logger
}

// Tracker coordinates one encounter. All methods are safe for concurrent use.
type Tracker struct {
	store    *roster.Store
	engine   *initiative.Engine
	confirm  Confirmer
	bestiary bestiary.Source
	persist  snapshot.Store
	saver    *snapshot.Saver
	logger   *zap.Logger

	mu        sync.Mutex
	turn      int
	results   []bestiary.Summary
	searchErr string
}

// New creates a Tracker starting at turn 1. When Snapshots is set, every
// roster mutation and turn change schedules a debounced save.
//
// Precondition: Store, Engine, Confirmer and Logger must be non-nil.
func New(d Deps) *Tracker {
	t := &Tracker{
		store:    d.Store,
		engine:   d.Engine,
		confirm:  d.Confirmer,
		bestiary: d.Bestiary,
		persist:  d.Snapshots,
		logger:   d.Logger,
		turn:     1,
	}
	if d.Snapshots != nil {
		t.saver = snapshot.NewSaver(d.Snapshots, t.Document, d.AutosaveDelay, d.Logger)
		t.store.OnMutate(t.saver.Schedule)
	}
	return t
}

// Store returns the roster.
func (t *Tracker) Store() *roster.Store { return t.store }

// Engine returns the initiative engine.
func (t *Tracker) Engine() *initiative.Engine { return t.engine }

func (t *Tracker) scheduleSave() {
	if t.saver != nil {
		t.saver.Schedule()
	}
}

// Remove deletes a combatant after the user confirms. It reports whether
// the combatant was removed.
func (t *Tracker) Remove(ctx context.Context, id string) (bool, error) {
	c, ok := t.store.GetByID(id)
	if !ok {
		return false, fmt.Errorf("%w: %q", roster.ErrNotFound, id)
	}
	yes, err := t.confirm.Confirm(ctx, fmt.Sprintf("Remove %s from the encounter?", c.Name))
	if err != nil || !yes {
		return false, err
	}
	if err := t.store.Remove(id); err != nil {
		return false, err
	}
	return true, nil
}

// Turn returns the current turn number.
func (t *Tracker) Turn() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.turn
}

// NextTurn advances the turn and decays every timed condition by one.
// It returns the new turn and the conditions that expired, by combatant id.
func (t *Tracker) NextTurn() (int, map[string][]condition.Kind) {
	t.mu.Lock()
	t.turn++
	turn := t.turn
	t.mu.Unlock()

	expired := t.store.DecayConditions()
	for id, kinds := range expired {
		t.logger.Debug("conditions expired", zap.String("id", id), zap.Int("count", len(kinds)))
	}
	t.logger.Info("turn advanced", zap.Int("turn", turn))
	t.scheduleSave()
	return turn, expired
}

// ResetTurn sets the turn back to 1.
func (t *Tracker) ResetTurn() {
	t.mu.Lock()
	t.turn = 1
	t.mu.Unlock()
	t.scheduleSave()
}

// SetTurn jumps to turn n.
func (t *Tracker) SetTurn(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidTurn, n)
	}
	t.mu.Lock()
	t.turn = n
	t.mu.Unlock()
	t.scheduleSave()
	return nil
}

// NewCombat, once confirmed, removes every monster, clears every condition
// and resets the turn. Player characters are kept.
func (t *Tracker) NewCombat(ctx context.Context) (bool, error) {
	yes, err := t.confirm.Confirm(ctx, "Start a new combat? All monsters and conditions will be cleared.")
	if err != nil || !yes {
		return false, err
	}
	removed := t.store.RemoveAllOfKind(combatant.KindMonster)
	t.store.ClearAllConditions()
	t.ResetTurn()
	t.logger.Info("new combat started", zap.Int("monsters_removed", removed))
	return true, nil
}

// Search looks up monsters by name. A blank query clears the results. On
// failure the results are cleared and the error message is kept for display;
// the roster is never touched.
func (t *Tracker) Search(ctx context.Context, query string) ([]bestiary.Summary, error) {
	if strings.TrimSpace(query) == "" {
		t.setSearch(nil, "")
		return nil, nil
	}
	if t.bestiary == nil {
		t.setSearch(nil, ErrNoBestiary.Error())
		return nil, ErrNoBestiary
	}
	results, err := t.bestiary.Search(ctx, query)
	if err != nil {
		t.setSearch(nil, err.Error())
		t.logger.Warn("bestiary search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	t.setSearch(results, "")
	return results, nil
}

func (t *Tracker) setSearch(results []bestiary.Summary, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results = results
	t.searchErr = msg
}

// SearchResults returns the latest search hits and error message.
func (t *Tracker) SearchResults() ([]bestiary.Summary, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]bestiary.Summary(nil), t.results...), t.searchErr
}

// AddFromExternalSource fetches a stat block, adds it as a monster, rolls
// its initiative and clears the search results. On a fetch failure the error
// message is kept and the roster is unchanged.
func (t *Tracker) AddFromExternalSource(ctx context.Context, id string) (combatant.Combatant, initiative.RollResult, error) {
	if t.bestiary == nil {
		return combatant.Combatant{}, initiative.RollResult{}, ErrNoBestiary
	}
	detail, err := t.bestiary.Fetch(ctx, id)
	if err != nil {
		t.mu.Lock()
		t.searchErr = err.Error()
		t.mu.Unlock()
		return combatant.Combatant{}, initiative.RollResult{}, err
	}
	c := t.store.Add(detail.Draft())
	roll, err := t.engine.RollOne(c.ID)
	if err != nil {
		return c, initiative.RollResult{}, err
	}
	t.setSearch(nil, "")
	c, _ = t.store.GetByID(c.ID)
	t.logger.Info("monster added from bestiary", zap.String("index", detail.Index), zap.String("id", c.ID))
	return c, roll, nil
}

// Document captures the encounter for persistence.
func (t *Tracker) Document() snapshot.Document {
	return snapshot.Document{
		Version: snapshot.Version,
		State:   t.store.Snapshot(),
		Turn:    t.Turn(),
	}
}

// Load restores the encounter from the snapshot store. A missing snapshot
// leaves an empty roster at turn 1.
func (t *Tracker) Load(ctx context.Context) error {
	if t.persist == nil {
		return nil
	}
	doc, err := t.persist.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading encounter: %w", err)
	}
	t.store.Restore(doc.State)
	t.mu.Lock()
	t.turn = max(doc.Turn, 1)
	t.mu.Unlock()
	return nil
}

// Flush writes the encounter immediately, cancelling any pending autosave.
func (t *Tracker) Flush(ctx context.Context) error {
	if t.saver == nil {
		return nil
	}
	return t.saver.Flush(ctx)
}

// Close writes any pending autosave and stops roll-expiry timers.
func (t *Tracker) Close(ctx context.Context) error {
	t.engine.Close()
	if t.saver == nil {
		return nil
	}
	return t.saver.Close(ctx)
}
