package snapshot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/initiative/internal/game/timer"
)

// Saver writes documents to a Store after a quiet period. A burst of
// Schedule calls results in a single save of the latest state.
type Saver struct {
	store  Store
	source func() Document
	delay  time.Duration
	logger *zap.Logger

	mu    sync.Mutex
	timer *timer.Timer
	// saveMu serialises writes so an autosave never interleaves with Flush.
	saveMu  sync.Mutex
	lastErr error
}

// NewSaver creates a Saver that captures documents from source.
// A non-positive delay saves synchronously on every Schedule.
//
// Precondition: store, source and logger must be non-nil.
func NewSaver(store Store, source func() Document, delay time.Duration, logger *zap.Logger) *Saver {
	return &Saver{store: store, source: source, delay: delay, logger: logger}
}

// Schedule arms, or re-arms, the debounce timer.
func (s *Saver) Schedule() {
	if s.delay <= 0 {
		_ = s.save(context.Background())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fire := func() { _ = s.save(context.Background()) }
	if s.timer == nil {
		s.timer = timer.New(s.delay, fire)
		return
	}
	s.timer.Reset(s.delay, fire)
}

// Pending reports whether a scheduled save has not yet run.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil && s.timer.Pending()
}

// Flush cancels any pending save and writes the current state immediately.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	return s.save(ctx)
}

// Close writes the current state if a save is pending.
func (s *Saver) Close(ctx context.Context) error {
	s.mu.Lock()
	pending := s.timer != nil && s.timer.Stop()
	s.mu.Unlock()
	if !pending {
		return nil
	}
	return s.save(ctx)
}

// Err returns the error of the most recent save, if it failed.
func (s *Saver) Err() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.lastErr
}

func (s *Saver) save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	doc := s.source()
	start := time.Now()
	s.lastErr = s.store.Save(ctx, doc)
	if s.lastErr != nil {
		s.logger.Error("saving encounter", zap.Error(s.lastErr))
		return s.lastErr
	}
	s.logger.Debug("encounter saved",
		zap.Int("combatants", len(doc.Combatants)),
		zap.Int("turn", doc.Turn),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
