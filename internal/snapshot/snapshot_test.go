package snapshot_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/initiative/internal/game/combatant"
	"github.com/cory-johannsen/initiative/internal/game/condition"
	"github.com/cory-johannsen/initiative/internal/game/roster"
	"github.com/cory-johannsen/initiative/internal/snapshot"
)

func populated(t *testing.T) snapshot.Document {
	t.Helper()
	s := roster.NewStore(zap.NewNop())
	p := s.Add(combatant.Draft{Name: "Aria", Kind: combatant.KindPlayer})
	a := s.Add(combatant.Draft{Name: "Goblin A"})
	b := s.Add(combatant.Draft{Name: "Goblin B"})
	_, err := s.CreateGroup("Goblins", combatant.KindMonster, []string{a.ID, b.ID})
	require.NoError(t, err)
	require.NoError(t, s.AddCondition(p.ID, condition.Exhaustion, 0, 2))
	require.NoError(t, s.ToggleExpand(p.ID))
	return snapshot.Document{State: s.Snapshot(), Turn: 4}
}

func TestEncode_UsesDocumentKeys(t *testing.T) {
	data, err := snapshot.Encode(populated(t))
	require.NoError(t, err)
	for _, key := range []string{`"version":1`, `"combatants"`, `"groups"`, `"lineup"`, `"expanded"`, `"stats_shown"`, `"turn":4`} {
		assert.Contains(t, string(data), key)
	}
}

func TestDecode_RejectsNewerVersion(t *testing.T) {
	_, err := snapshot.Decode([]byte(`{"version": 99}`))
	assert.ErrorIs(t, err, snapshot.ErrUnsupportedVersion)
}

func TestDecode_NormalisesTurn(t *testing.T) {
	doc, err := snapshot.Decode([]byte(`{"version": 1, "turn": 0}`))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Turn)
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	fs := snapshot.NewFileStore(filepath.Join(t.TempDir(), "none.json"))
	doc, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snapshot.Empty(), doc)
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "encounter.json")
	fs := snapshot.NewFileStore(path)
	want := populated(t)
	require.NoError(t, fs.Save(ctx, want))

	got, err := fs.Load(ctx)
	require.NoError(t, err)

	dst := roster.NewStore(zap.NewNop())
	dst.Restore(got.State)
	assert.Equal(t, want.State, dst.Snapshot())
	assert.Equal(t, 4, got.Turn)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := snapshot.NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

type countingStore struct {
	mu    sync.Mutex
	saves []snapshot.Document
}

func (c *countingStore) Load(context.Context) (snapshot.Document, error) {
	return snapshot.Empty(), nil
}

func (c *countingStore) Save(_ context.Context, doc snapshot.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves = append(c.saves, doc)
	return nil
}

func (c *countingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.saves)
}

func (c *countingStore) last() snapshot.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves[len(c.saves)-1]
}

func TestSaver_CoalescesBursts(t *testing.T) {
	store := &countingStore{}
	var turn atomic.Int32
	saver := snapshot.NewSaver(store, func() snapshot.Document {
		return snapshot.Document{Turn: int(turn.Load())}
	}, 30*time.Millisecond, zap.NewNop())

	for i := 1; i <= 5; i++ {
		turn.Store(int32(i))
		saver.Schedule()
	}
	assert.True(t, saver.Pending())
	assert.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, store.count())
	assert.Equal(t, 5, store.last().Turn)
	assert.NoError(t, saver.Err())
}

func TestSaver_FlushWritesImmediately(t *testing.T) {
	store := &countingStore{}
	saver := snapshot.NewSaver(store, snapshot.Empty, time.Hour, zap.NewNop())
	saver.Schedule()
	require.NoError(t, saver.Flush(context.Background()))
	assert.Equal(t, 1, store.count())
	assert.False(t, saver.Pending())
}

func TestSaver_CloseOnlyWhenPending(t *testing.T) {
	store := &countingStore{}
	saver := snapshot.NewSaver(store, snapshot.Empty, time.Hour, zap.NewNop())
	require.NoError(t, saver.Close(context.Background()))
	assert.Equal(t, 0, store.count())

	saver.Schedule()
	require.NoError(t, saver.Close(context.Background()))
	assert.Equal(t, 1, store.count())
}

func TestSaver_ZeroDelaySavesSynchronously(t *testing.T) {
	store := &countingStore{}
	saver := snapshot.NewSaver(store, snapshot.Empty, 0, zap.NewNop())
	saver.Schedule()
	saver.Schedule()
	assert.Equal(t, 2, store.count())
}
