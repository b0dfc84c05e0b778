package roster_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/initiative/internal/game/ability"
	"github.com/cory-johannsen/initiative/internal/game/combatant"
	"github.com/cory-johannsen/initiative/internal/game/roster"
)

func newStore(t testing.TB) *roster.Store {
	t.Helper()
	n := 0
	return roster.NewStore(zap.NewNop(), roster.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
}

func addMonster(s *roster.Store, name string, hp int) combatant.Combatant {
	return s.Add(combatant.Draft{Name: name, Kind: combatant.KindMonster, HP: &hp, MaxHP: &hp})
}

func addPlayer(s *roster.Store, name string) combatant.Combatant {
	return s.Add(combatant.Draft{Name: name, Kind: combatant.KindPlayer, MaxHP: ability.Int(20)})
}

func TestAdd_AssignsIDsAndDefaults(t *testing.T) {
	s := newStore(t)
	s.StartAdding(combatant.KindMonster)
	c := s.Add(combatant.Draft{Name: "Goblin"})
	assert.Equal(t, "id-1", c.ID)
	assert.Equal(t, 10, c.HP)
	assert.Equal(t, 10, c.AC)
	adding, _ := s.Adding()
	assert.False(t, adding)

	got, ok := s.GetByID(c.ID)
	require.True(t, ok)
	assert.Equal(t, "Goblin", got.Name)
	assert.Len(t, s.Lineup(), 1)
}

func TestAdd_CustomDefaults(t *testing.T) {
	s := roster.NewStore(zap.NewNop(), roster.WithDefaults(combatant.Defaults{HP: 4, AC: 12}))
	c := s.Add(combatant.Draft{Name: "Rat"})
	assert.Equal(t, 4, c.MaxHP)
	assert.Equal(t, 12, c.AC)
	assert.NotEmpty(t, c.ID)
}

func TestGetByID_ReturnsCopy(t *testing.T) {
	s := newStore(t)
	c := addMonster(s, "Orc", 15)
	got, _ := s.GetByID(c.ID)
	got.HP = 1
	again, _ := s.GetByID(c.ID)
	assert.Equal(t, 15, again.HP)
}

func TestUpdate_MergesAndClamps(t *testing.T) {
	s := newStore(t)
	c := addMonster(s, "Orc", 15)
	name := "Orc Chief"
	require.NoError(t, s.Update(c.ID, combatant.Patch{Name: &name, MaxHP: ability.Int(8)}))
	got, _ := s.GetByID(c.ID)
	assert.Equal(t, "Orc Chief", got.Name)
	assert.Equal(t, 8, got.MaxHP)
	assert.Equal(t, 8, got.HP)

	require.NoError(t, s.Update(c.ID, combatant.Patch{HP: ability.Int(-4)}))
	got, _ = s.GetByID(c.ID)
	assert.Equal(t, 0, got.HP)
}

func TestUnknownID_ReturnsErrNotFound(t *testing.T) {
	s := newStore(t)
	addMonster(s, "Orc", 15)
	before := s.Snapshot()

	assert.ErrorIs(t, s.Update("nope", combatant.Patch{}), roster.ErrNotFound)
	assert.ErrorIs(t, s.Remove("nope"), roster.ErrNotFound)
	assert.ErrorIs(t, s.UpdateHP("nope", -3), roster.ErrNotFound)
	assert.ErrorIs(t, s.AddDeathSave("nope", true), roster.ErrNotFound)
	assert.ErrorIs(t, s.ToggleExpand("nope"), roster.ErrNotFound)
	assert.ErrorIs(t, s.StartEditing("nope"), roster.ErrNotFound)
	_, err := s.HasCondition("nope", "blinded")
	assert.ErrorIs(t, err, roster.ErrNotFound)

	assert.Equal(t, before, s.Snapshot())
}

func TestRemove_EvictsEverywhere(t *testing.T) {
	s := newStore(t)
	a := addMonster(s, "Goblin A", 7)
	b := addMonster(s, "Goblin B", 7)
	_, err := s.CreateGroup("Goblins", combatant.KindMonster, []string{a.ID, b.ID})
	require.NoError(t, err)
	require.NoError(t, s.ToggleExpand(a.ID))
	require.NoError(t, s.ToggleStats(a.ID))
	require.NoError(t, s.StartEditing(a.ID))

	require.NoError(t, s.Remove(a.ID))
	_, ok := s.GetByID(a.ID)
	assert.False(t, ok)
	assert.False(t, s.IsExpanded(a.ID))
	assert.False(t, s.IsStatsShown(a.ID))
	assert.Empty(t, s.EditingID())
	g, ok := s.GroupOf(b.ID)
	require.True(t, ok)
	assert.Equal(t, []string{b.ID}, g.MemberIDs)
}

func TestRemoveAllOfKind(t *testing.T) {
	s := newStore(t)
	p := addPlayer(s, "Aria")
	addMonster(s, "Goblin", 7)
	addMonster(s, "Orc", 15)
	assert.Equal(t, 2, s.RemoveAllOfKind(combatant.KindMonster))
	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, p.ID, all[0].ID)
	assert.Len(t, s.Lineup(), 1)
}

func TestUpdateHP_ClampsToRange(t *testing.T) {
	s := newStore(t)
	c := addMonster(s, "Orc", 15)
	require.NoError(t, s.UpdateHP(c.ID, 100))
	got, _ := s.GetByID(c.ID)
	assert.Equal(t, 15, got.HP)
	require.NoError(t, s.UpdateHP(c.ID, -100))
	got, _ = s.GetByID(c.ID)
	assert.Equal(t, 0, got.HP)
}

func TestUpdateHP_DownedResetsDeathSaves(t *testing.T) {
	s := newStore(t)
	c := addPlayer(s, "Aria")
	require.NoError(t, s.UpdateHP(c.ID, -20))
	require.NoError(t, s.AddDeathSave(c.ID, true))
	require.NoError(t, s.AddDeathSave(c.ID, false))

	// Healed mid-sequence: counters clear.
	require.NoError(t, s.UpdateHP(c.ID, 5))
	got, _ := s.GetByID(c.ID)
	assert.Equal(t, 0, got.DeathSavesSuccess)
	assert.Equal(t, 0, got.DeathSavesFail)
	assert.False(t, got.IsStable)

	require.NoError(t, s.UpdateHP(c.ID, -5))
	got, _ = s.GetByID(c.ID)
	assert.True(t, got.IsDying())
}

func TestAddDeathSave_ThreeSuccessesStabilise(t *testing.T) {
	s := newStore(t)
	c := addPlayer(s, "Aria")
	require.NoError(t, s.UpdateHP(c.ID, -20))
	require.NoError(t, s.AddDeathSave(c.ID, false))
	for i := 0; i < 3; i++ {
		require.NoError(t, s.AddDeathSave(c.ID, true))
	}
	got, _ := s.GetByID(c.ID)
	assert.True(t, got.IsStable)
	assert.False(t, got.IsDead)
	assert.Equal(t, 0, got.DeathSavesFail)

	// Further saves are ignored once stable.
	require.NoError(t, s.AddDeathSave(c.ID, false))
	again, _ := s.GetByID(c.ID)
	assert.Equal(t, got, again)
}

func TestAddDeathSave_ThreeFailuresKill(t *testing.T) {
	s := newStore(t)
	c := addPlayer(s, "Aria")
	require.NoError(t, s.UpdateHP(c.ID, -20))
	require.NoError(t, s.AddDeathSave(c.ID, true))
	for i := 0; i < 3; i++ {
		require.NoError(t, s.AddDeathSave(c.ID, false))
	}
	got, _ := s.GetByID(c.ID)
	assert.True(t, got.IsDead)
	assert.Equal(t, 0, got.DeathSavesSuccess)

	// Healing a dead combatant does not touch the death-save state.
	require.NoError(t, s.UpdateHP(c.ID, 5))
	got, _ = s.GetByID(c.ID)
	assert.True(t, got.IsDead)
	assert.Equal(t, 3, got.DeathSavesFail)
}

func TestStabilize(t *testing.T) {
	s := newStore(t)
	c := addPlayer(s, "Aria")
	require.NoError(t, s.Stabilize(c.ID))
	got, _ := s.GetByID(c.ID)
	assert.False(t, got.IsStable, "above 0 HP")

	require.NoError(t, s.UpdateHP(c.ID, -20))
	require.NoError(t, s.AddDeathSave(c.ID, false))
	require.NoError(t, s.Stabilize(c.ID))
	got, _ = s.GetByID(c.ID)
	assert.True(t, got.IsStable)
	assert.Equal(t, 0, got.DeathSavesFail)
}

func TestReorder(t *testing.T) {
	s := newStore(t)
	a := addMonster(s, "A", 5)
	b := addMonster(s, "B", 5)
	c := addMonster(s, "C", 5)
	require.NoError(t, s.Reorder([]string{c.ID, a.ID, b.ID}))
	assert.Equal(t, []string{"C", "A", "B"}, names(s.All()))

	assert.ErrorIs(t, s.Reorder([]string{a.ID, b.ID}), roster.ErrOrderMismatch)
	assert.ErrorIs(t, s.Reorder([]string{a.ID, a.ID, b.ID}), roster.ErrOrderMismatch)
	assert.Equal(t, []string{"C", "A", "B"}, names(s.All()))
}

func TestReorderKind_KeepsOtherKindSlots(t *testing.T) {
	s := newStore(t)
	m1 := addMonster(s, "M1", 5)
	p1 := addPlayer(s, "P1")
	m2 := addMonster(s, "M2", 5)
	p2 := addPlayer(s, "P2")
	require.NoError(t, s.ReorderKind(combatant.KindPlayer, []string{p2.ID, p1.ID}))
	assert.Equal(t, []string{"M1", "P2", "M2", "P1"}, names(s.All()))
	assert.Equal(t, []string{"P2", "P1"}, names(s.Players()))
	assert.Equal(t, []string{"M1", "M2"}, names(s.Monsters()))
	assert.ErrorIs(t, s.ReorderKind(combatant.KindMonster, []string{m1.ID, p1.ID}), roster.ErrOrderMismatch)
	_ = m2
}

func TestSetInitiative(t *testing.T) {
	s := newStore(t)
	c := addMonster(s, "Orc", 15)
	require.NoError(t, s.SetInitiative(c.ID, 14))
	got, _ := s.GetByID(c.ID)
	assert.Equal(t, 14, got.Initiative)
}

func TestOnMutate_FiresOnSuccessOnly(t *testing.T) {
	s := newStore(t)
	calls := 0
	s.OnMutate(func() { calls++ })
	c := addMonster(s, "Orc", 15)
	require.NoError(t, s.UpdateHP(c.ID, -1))
	assert.Equal(t, 2, calls)
	_ = s.UpdateHP("nope", -1)
	assert.Equal(t, 2, calls)
	s.StartAdding(combatant.KindPlayer)
	assert.Equal(t, 2, calls, "transient flags are not persisted")
}

func TestPropertyUpdateHP_StaysWithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := newStore(t)
		maxHP := rapid.IntRange(0, 200).Draw(rt, "max_hp")
		c := addMonster(s, "X", maxHP)
		deltas := rapid.SliceOf(rapid.IntRange(-300, 300)).Draw(rt, "deltas")
		for _, d := range deltas {
			require.NoError(rt, s.UpdateHP(c.ID, d))
			got, _ := s.GetByID(c.ID)
			assert.GreaterOrEqual(rt, got.HP, 0)
			assert.LessOrEqual(rt, got.HP, got.MaxHP)
		}
	})
}

func TestPropertyDeathSaves_NeverStableAndDead(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := newStore(t)
		c := addPlayer(s, "P")
		require.NoError(rt, s.UpdateHP(c.ID, -100))
		ops := rapid.SliceOf(rapid.IntRange(0, 2)).Draw(rt, "ops")
		for _, op := range ops {
			switch op {
			case 0:
				require.NoError(rt, s.AddDeathSave(c.ID, true))
			case 1:
				require.NoError(rt, s.AddDeathSave(c.ID, false))
			case 2:
				require.NoError(rt, s.UpdateHP(c.ID, rapid.IntRange(-5, 5).Draw(rt, "delta")))
			}
			got, _ := s.GetByID(c.ID)
			assert.False(rt, got.IsStable && got.IsDead)
			assert.LessOrEqual(rt, got.DeathSavesSuccess, 3)
			assert.LessOrEqual(rt, got.DeathSavesFail, 3)
		}
	})
}

func names(cs []combatant.Combatant) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}
