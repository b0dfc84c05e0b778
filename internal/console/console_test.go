package console_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/initiative/internal/bestiary"
	"github.com/cory-johannsen/initiative/internal/console"
	"github.com/cory-johannsen/initiative/internal/encounter"
	"github.com/cory-johannsen/initiative/internal/game/dice"
	"github.com/cory-johannsen/initiative/internal/game/initiative"
	"github.com/cory-johannsen/initiative/internal/game/roster"
)

type harness struct {
	console *console.Console
	tracker *encounter.Tracker
	out     *bytes.Buffer
}

func setup(t *testing.T, input string, src bestiary.Source) *harness {
	t.Helper()
	n := 0
	store := roster.NewStore(zap.NewNop(), roster.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
	// A uniform draw of 0.5 lands every d20 on 11.
	roller := dice.NewRoller(dice.UniformSource(0.5), zap.NewNop())
	engine := initiative.NewEngine(store, roller, zap.NewNop(), initiative.WithDisplayDuration(time.Hour))
	lines := console.NewLineReader(strings.NewReader(input))
	out := &bytes.Buffer{}
	tracker := encounter.New(encounter.Deps{
		Store:     store,
		Engine:    engine,
		Confirmer: console.NewPrompter(lines, out),
		Bestiary:  src,
		Logger:    zap.NewNop(),
	})
	t.Cleanup(func() { _ = tracker.Close(context.Background()) })
	return &harness{
		console: console.New(tracker, lines, out, zap.NewNop()),
		tracker: tracker,
		out:     out,
	}
}

func (h *harness) run(t *testing.T, line string) string {
	t.Helper()
	out, _, err := h.console.Dispatch(context.Background(), line)
	require.NoError(t, err, line)
	return out
}

func TestDispatch_AddAndList(t *testing.T) {
	h := setup(t, "", nil)
	out := h.run(t, `add monster "Goblin Boss" 21 17 14`)
	assert.Equal(t, "Added Goblin Boss (id-1).\n", out)

	c, ok := h.tracker.Store().GetByID("id-1")
	require.True(t, ok)
	assert.Equal(t, 21, c.HP)
	assert.Equal(t, 21, c.MaxHP)
	assert.Equal(t, 17, c.AC)
	require.NotNil(t, c.Abilities.Dexterity)
	assert.Equal(t, 14, *c.Abilities.Dexterity)

	h.run(t, "add pc Aria")
	list := h.run(t, "list")
	assert.Contains(t, list, "Turn 1")
	assert.Contains(t, list, "Goblin Boss")
	assert.Contains(t, list, "Aria")
}

func TestDispatch_ReferencesByNameAndIDPrefix(t *testing.T) {
	h := setup(t, "", nil)
	h.run(t, "add monster Goblin 7")
	h.run(t, "add monster Orc 15")

	assert.Contains(t, h.run(t, "hp GOBLIN -5"), "HP   2/7")
	assert.Contains(t, h.run(t, "hp id-2 -4"), "HP  11/15")

	_, _, err := h.console.Dispatch(context.Background(), "hp id- -1")
	assert.ErrorIs(t, err, console.ErrAmbiguous)
	_, _, err = h.console.Dispatch(context.Background(), "hp dragon -1")
	assert.ErrorIs(t, err, console.ErrNoMatch)
}

func TestDispatch_Roll(t *testing.T) {
	h := setup(t, "", nil)
	h.run(t, "add monster Goblin 7 15 14")
	assert.Equal(t, "Goblin rolls 11 +2 = 13\n", h.run(t, "roll goblin"))
	c, _ := h.tracker.Store().GetByID("id-1")
	assert.Equal(t, 13, c.Initiative)
	assert.Contains(t, h.run(t, "status goblin"), "rolled 11 +2 = 13")
}

func TestDispatch_RemoveAsksFirst(t *testing.T) {
	h := setup(t, "n\ny\n", nil)
	h.run(t, "add monster Goblin")

	assert.Equal(t, "Cancelled.\n", h.run(t, "remove goblin"))
	assert.Equal(t, 1, h.tracker.Store().Len())
	assert.Contains(t, h.out.String(), "Remove Goblin from the encounter? [y/N]")

	assert.Equal(t, "Removed Goblin.\n", h.run(t, "rm goblin"))
	assert.Equal(t, 0, h.tracker.Store().Len())
}

func TestDispatch_ConditionsExpireOnNext(t *testing.T) {
	h := setup(t, "", nil)
	h.run(t, "add monster Goblin")
	h.run(t, "cond goblin poisoned 1")
	h.run(t, "cond goblin prone")
	assert.Contains(t, h.run(t, "status goblin"), "Attacks with disadvantage")

	out := h.run(t, "next")
	assert.Contains(t, out, "Turn 2")
	assert.Contains(t, out, "Goblin is no longer")
	has, err := h.tracker.Store().HasCondition("id-1", "prone")
	require.NoError(t, err)
	assert.True(t, has)

	h.run(t, "uncond goblin prone")
	has, _ = h.tracker.Store().HasCondition("id-1", "prone")
	assert.False(t, has)
}

func TestDispatch_Exhaustion(t *testing.T) {
	h := setup(t, "", nil)
	h.run(t, "add pc Aria")
	assert.Equal(t, "Aria exhaustion: 6.\n", h.run(t, "exh aria 9"))
	assert.Equal(t, "Aria exhaustion: 0.\n", h.run(t, "exh aria 0"))
}

func TestDispatch_DeathSaves(t *testing.T) {
	h := setup(t, "", nil)
	h.run(t, "add pc Aria 5")
	assert.Contains(t, h.run(t, "hp aria -10"), "dying S0/F0")
	h.run(t, "save aria fail")
	h.run(t, "save aria f")
	assert.Contains(t, h.run(t, "save aria fail"), "DEAD")

	h.run(t, "add pc Brand 5")
	h.run(t, "hp brand -5")
	assert.Contains(t, h.run(t, "stabilize brand"), "stable")
}

func TestDispatch_GroupAndUngroup(t *testing.T) {
	h := setup(t, "", nil)
	h.run(t, "add monster Wolf1")
	h.run(t, "add monster Wolf2")
	h.run(t, "add pc Aria")

	_, _, err := h.console.Dispatch(context.Background(), "group Mixed wolf1 aria")
	assert.ErrorIs(t, err, roster.ErrKindMismatch)

	assert.Contains(t, h.run(t, "group Wolves wolf1 wolf2"), "2 members")
	h.run(t, "init wolves 14")
	for _, id := range []string{"id-1", "id-2"} {
		c, _ := h.tracker.Store().GetByID(id)
		assert.Equal(t, 14, c.Initiative)
	}
	assert.Contains(t, h.run(t, "list"), "(group")

	assert.Equal(t, "Dissolved Wolves.\n", h.run(t, "ungroup wolves"))
	assert.Empty(t, h.tracker.Store().Groups())
}

func TestDispatch_TurnCommands(t *testing.T) {
	h := setup(t, "", nil)
	assert.Equal(t, "Turn 5.\n", h.run(t, "turn 5"))
	_, _, err := h.console.Dispatch(context.Background(), "turn 0")
	assert.ErrorIs(t, err, encounter.ErrInvalidTurn)
	assert.Equal(t, "Turn 1.\n", h.run(t, "turn reset"))
}

func TestDispatch_SearchAndSummon(t *testing.T) {
	src := bestiary.NewLocalSource(bestiary.Detail{Index: "goblin", Name: "Goblin", HitPoints: 7, Dexterity: 14})
	h := setup(t, "", src)

	assert.Contains(t, h.run(t, "search gob"), "goblin")
	assert.Equal(t, "No monsters found.\n", h.run(t, "search dragon"))

	out := h.run(t, "summon goblin")
	assert.Contains(t, out, "Added Goblin (id-1)")
	assert.Contains(t, out, "11 +2 = 13")

	_, _, err := h.console.Dispatch(context.Background(), "summon dragon")
	assert.ErrorIs(t, err, bestiary.ErrNotFound)
}

func TestDispatch_NewCombat(t *testing.T) {
	h := setup(t, "y\n", nil)
	h.run(t, "add pc Aria")
	h.run(t, "add monster Goblin")
	h.run(t, "next")
	assert.Equal(t, "New combat started. Turn 1.\n", h.run(t, "newcombat"))
	assert.Empty(t, h.tracker.Store().Monsters())
	assert.Len(t, h.tracker.Store().Players(), 1)
}

func TestDispatch_Errors(t *testing.T) {
	h := setup(t, "", nil)
	ctx := context.Background()

	_, _, err := h.console.Dispatch(ctx, "fireball")
	assert.ErrorIs(t, err, console.ErrUnknownCommand)

	_, _, err = h.console.Dispatch(ctx, "add")
	require.ErrorIs(t, err, console.ErrUsage)
	assert.Contains(t, err.Error(), "add <pc|monster>")

	_, _, err = h.console.Dispatch(ctx, "add dragon Smaug")
	assert.Error(t, err)

	out, quit, err := h.console.Dispatch(ctx, "   ")
	assert.NoError(t, err)
	assert.False(t, quit)
	assert.Empty(t, out)
}

func TestDispatch_Help(t *testing.T) {
	h := setup(t, "", nil)
	all := h.run(t, "help")
	for _, cmd := range console.BuiltinCommands() {
		assert.Contains(t, all, cmd.Usage)
	}
	assert.Contains(t, h.run(t, "help ra"), "aliases: ra")
}

func TestRun_ProcessesUntilQuit(t *testing.T) {
	h := setup(t, "add pc Aria\nbogus\nquit\nadd pc Never\n", nil)
	require.NoError(t, h.console.Run(context.Background()))
	out := h.out.String()
	assert.Contains(t, out, "Added Aria")
	assert.Contains(t, out, "Error: unknown command")
	assert.Contains(t, out, "Goodbye")
	assert.Equal(t, 1, h.tracker.Store().Len())
}

func TestRun_EndOfInput(t *testing.T) {
	h := setup(t, "add pc Aria\n", nil)
	assert.NoError(t, h.console.Run(context.Background()))
	assert.Equal(t, 1, h.tracker.Store().Len())
}

func TestRun_ContextCancelled(t *testing.T) {
	h := setup(t, "", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Input is already at EOF, so either outcome ends the loop.
	err := h.console.Run(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestPrompter_Confirm(t *testing.T) {
	lines := console.NewLineReader(strings.NewReader("YES\nmaybe\n"))
	var out bytes.Buffer
	p := console.NewPrompter(lines, &out)
	ctx := context.Background()

	ok, err := p.Confirm(ctx, "Sure?")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Confirm(ctx, "Really?")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = p.Confirm(ctx, "Again?")
	assert.Error(t, err)
	assert.Equal(t, "Sure? [y/N] Really? [y/N] Again? [y/N] ", out.String())
}
