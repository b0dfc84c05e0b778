package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/initiative/internal/game/ability"
	"github.com/cory-johannsen/initiative/internal/game/combatant"
	"github.com/cory-johannsen/initiative/internal/game/condition"
	"github.com/cory-johannsen/initiative/internal/game/dice"
	"github.com/cory-johannsen/initiative/internal/scripting"
)

func newHooks(t *testing.T) (*scripting.Hooks, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	h := scripting.NewHooks(dice.NewRoller(dice.UniformSource(0), zap.NewNop()), 0, zap.New(core))
	t.Cleanup(h.Close)
	return h, logs
}

func aria() combatant.Combatant {
	c := combatant.Draft{
		Name:      "Aria",
		Kind:      combatant.KindPlayer,
		Abilities: ability.Scores{Dexterity: ability.Int(16)},
	}.Build("p1", combatant.StandardDefaults)
	c.Conditions.Add(condition.Poisoned, 0, 0)
	return c
}

func TestInitiativeBonus_NoHook(t *testing.T) {
	h, _ := newHooks(t)
	assert.False(t, h.Has(scripting.InitiativeBonusHook))
	assert.Equal(t, 0, h.InitiativeBonus(aria()))
}

func TestInitiativeBonus_SeesCombatant(t *testing.T) {
	h, _ := newHooks(t)
	require.NoError(t, h.LoadString("alert", `
		function initiative_bonus(c)
			local bonus = 0
			if c.kind == "player" then bonus = bonus + 5 end
			if c.conditions[1] == "poisoned" then bonus = bonus - 1 end
			return bonus + tracker.modifier(c.dexterity) - c.modifier
		end
	`))
	assert.True(t, h.Has(scripting.InitiativeBonusHook))
	assert.Equal(t, 4, h.InitiativeBonus(aria()))
}

func TestInitiativeBonus_TruncatesFractions(t *testing.T) {
	h, _ := newHooks(t)
	require.NoError(t, h.LoadString("half", `function initiative_bonus(c) return c.ac / 4 end`))
	assert.Equal(t, 2, h.InitiativeBonus(aria()))
}

func TestInitiativeBonus_RuntimeErrorIsZero(t *testing.T) {
	h, logs := newHooks(t)
	require.NoError(t, h.LoadString("broken", `function initiative_bonus(c) error("boom") end`))
	assert.Equal(t, 0, h.InitiativeBonus(aria()))
	assert.Equal(t, 1, logs.FilterMessage("scripting: Lua runtime error").Len())
}

func TestInitiativeBonus_RunawayScriptIsZero(t *testing.T) {
	h, logs := newHooks(t)
	require.NoError(t, h.LoadString("loop", `function initiative_bonus(c) while true do end end`))
	assert.Equal(t, 0, h.InitiativeBonus(aria()))
	assert.Equal(t, 1, logs.Len())
	// The VM stays usable afterwards.
	require.NoError(t, h.LoadString("fixed", `function initiative_bonus(c) return 2 end`))
	assert.Equal(t, 2, h.InitiativeBonus(aria()))
}

func TestInitiativeBonus_NonNumberIsZero(t *testing.T) {
	h, logs := newHooks(t)
	require.NoError(t, h.LoadString("str", `function initiative_bonus(c) return "lots" end`))
	assert.Equal(t, 0, h.InitiativeBonus(aria()))
	assert.Equal(t, 1, logs.FilterMessage("scripting: hook returned non-number").Len())
}

func TestTrackerModule(t *testing.T) {
	h, _ := newHooks(t)
	require.NoError(t, h.LoadString("module", `
		assert(tracker.modifier(7) == -2)
		assert(tracker.format_modifier(14) == "+2")
		assert(tracker.roll("1d4+1") == 2)
	`))
	assert.Error(t, h.LoadString("bad-roll", `tracker.roll("banana")`))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01_base.lua"), []byte(`base = 1`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "02_bonus.lua"), []byte(`function initiative_bonus(c) return base + 1 end`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`not lua`), 0o644))

	h, _ := newHooks(t)
	require.NoError(t, h.LoadDir(dir))
	assert.Equal(t, 2, h.InitiativeBonus(aria()))

	assert.Error(t, h.LoadDir(filepath.Join(dir, "missing")))
}

func TestLoadDir_ShippedExample(t *testing.T) {
	h, _ := newHooks(t)
	require.NoError(t, h.LoadDir(filepath.Join("..", "..", "content", "scripts")))
	assert.True(t, h.Has(scripting.InitiativeBonusHook))
}
