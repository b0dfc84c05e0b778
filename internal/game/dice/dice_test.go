package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/initiative/internal/game/dice"
)

// fixedSource returns the queued values in order, then repeats the last one.
type fixedSource struct{ vals []int }

func (f *fixedSource) Intn(n int) int {
	v := f.vals[0]
	if len(f.vals) > 1 {
		f.vals = f.vals[1:]
	}
	return v % n
}

func TestResult_TotalAndString(t *testing.T) {
	r := dice.Result{Expression: "2d6+3", Dice: []int{4, 5}, Modifier: 3}
	assert.Equal(t, 12, r.Total())
	assert.Equal(t, "2d6+3 → [4 5] +3 = 12", r.String())
}

func TestPropertyResult_Total(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		faces := rapid.SliceOf(rapid.IntRange(1, 20)).Draw(rt, "dice")
		mod := rapid.IntRange(-100, 100).Draw(rt, "modifier")
		want := mod
		for _, f := range faces {
			want += f
		}
		assert.Equal(rt, want, dice.Result{Expression: "x", Dice: faces, Modifier: mod}.Total())
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		in                      string
		count, sides, mod, keep int
	}{
		{"d20", 1, 20, 0, 0},
		{"2d6", 2, 6, 0, 0},
		{"2d6+3", 2, 6, 3, 0},
		{"4d8-2", 4, 8, -2, 0},
		{"2d20kh1", 2, 20, 0, 1},
		{"4D6kh3+1", 4, 6, 1, 3},
	}
	for _, tc := range tests {
		e, err := dice.Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.count, e.Count, tc.in)
		assert.Equal(t, tc.sides, e.Sides, tc.in)
		assert.Equal(t, tc.mod, e.Modifier, tc.in)
		assert.Equal(t, tc.keep, e.KeepHighest, tc.in)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "20", "d1", "0d6", "2d6kh2", "2d6kh0", "d", "xd6"} {
		_, err := dice.Parse(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { dice.MustParse("nope") })
}

func TestRoll_KeepHighest(t *testing.T) {
	src := &fixedSource{vals: []int{2, 15}}
	res := dice.Roll(dice.MustParse("2d20kh1"), src)
	assert.Equal(t, []int{16}, res.Dice)
}

func TestUniformSource_HalfOnD20IsEleven(t *testing.T) {
	res := dice.Roll(dice.D20, dice.UniformSource(0.5))
	assert.Equal(t, 11, res.Total())
}

func TestUniformSource_Bounds(t *testing.T) {
	assert.Equal(t, 0, dice.UniformSource(0).Intn(20))
	assert.Equal(t, 19, dice.UniformSource(0.9999).Intn(20))
	assert.Equal(t, 19, dice.UniformSource(1.5).Intn(20))
	assert.Panics(t, func() { dice.UniformSource(0.5).Intn(0) })
}

func TestCryptoSource_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(20)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 20)
	}
	assert.Panics(t, func() { src.Intn(0) })
}

func TestSeededSource_Deterministic(t *testing.T) {
	a, b := dice.NewSeededSource(42), dice.NewSeededSource(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Intn(20), b.Intn(20))
	}
}

func TestPropertyRoll_FacesInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		res := dice.Roll(dice.D20, dice.NewSeededSource(seed))
		require.Len(rt, res.Dice, 1)
		assert.GreaterOrEqual(rt, res.Dice[0], 1)
		assert.LessOrEqual(rt, res.Dice[0], 20)
	})
}

func TestRoller_LogsRoll(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := dice.NewRoller(dice.UniformSource(0.5), zap.New(core))
	res, err := r.RollExpr("d20+2")
	require.NoError(t, err)
	assert.Equal(t, 13, res.Total())
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "dice roll", entry.Message)
	assert.EqualValues(t, 13, entry.ContextMap()["total"])
}

func TestRoller_RollExprError(t *testing.T) {
	r := dice.NewRoller(dice.NewCryptoSource(), zap.NewNop())
	_, err := r.RollExpr("banana")
	assert.Error(t, err)
}
