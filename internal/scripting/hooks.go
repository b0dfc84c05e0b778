package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/initiative/internal/game/combatant"
	"github.com/cory-johannsen/initiative/internal/game/dice"
)

// InitiativeBonusHook is the Lua global consulted on every initiative roll.
const InitiativeBonusHook = "initiative_bonus"

// Hooks owns one sandboxed VM loaded with house-rule scripts.
// All methods are safe for concurrent use; calls into the VM are serialised.
type Hooks struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	logger *zap.Logger
}

// NewHooks creates an empty VM with the tracker module installed.
//
// Precondition: logger must be non-nil; roller may be nil, disabling tracker.roll.
func NewHooks(roller *dice.Roller, instLimit int, logger *zap.Logger) *Hooks {
	L := NewSandboxedState()
	registerModules(L, roller)
	return &Hooks{L: L, limit: instLimit, logger: logger}
}

// LoadDir executes every *.lua file in dir in lexicographic order.
//
// Precondition: dir must be a readable directory.
func (h *Hooks) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, path := range files {
		if err := WithBudget(h.L, h.limit, func() error { return h.L.DoFile(path) }); err != nil {
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
		h.logger.Info("house rules loaded", zap.String("script", path))
	}
	return nil
}

// LoadString executes src as a chunk named name.
func (h *Hooks) LoadString(name, src string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := WithBudget(h.L, h.limit, func() error { return h.L.DoString(src) }); err != nil {
		return fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	return nil
}

// Has reports whether the VM defines the named global function.
func (h *Hooks) Has(hook string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.L.GetGlobal(hook).Type() == lua.LTFunction
}

// InitiativeBonus calls initiative_bonus(c) and returns its integer result.
// A missing hook, a runtime error, an exceeded budget or a non-numeric
// result all yield 0; failures are logged at warn level.
func (h *Hooks) InitiativeBonus(c combatant.Combatant) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	fn := h.L.GetGlobal(InitiativeBonusHook)
	if fn.Type() != lua.LTFunction {
		return 0
	}
	arg := h.combatantTable(c)
	err := WithBudget(h.L, h.limit, func() error {
		return h.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, arg)
	})
	if err != nil {
		h.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", InitiativeBonusHook),
			zap.String("combatant", c.Name),
			zap.Error(err),
		)
		return 0
	}
	ret := h.L.Get(-1)
	h.L.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok {
		if ret != lua.LNil {
			h.logger.Warn("scripting: hook returned non-number",
				zap.String("hook", InitiativeBonusHook),
				zap.String("type", ret.Type().String()),
			)
		}
		return 0
	}
	return int(math.Trunc(float64(n)))
}

func (h *Hooks) combatantTable(c combatant.Combatant) *lua.LTable {
	t := h.L.NewTable()
	h.L.SetField(t, "id", lua.LString(c.ID))
	h.L.SetField(t, "name", lua.LString(c.Name))
	h.L.SetField(t, "kind", lua.LString(c.Kind))
	h.L.SetField(t, "hp", lua.LNumber(c.HP))
	h.L.SetField(t, "max_hp", lua.LNumber(c.MaxHP))
	h.L.SetField(t, "ac", lua.LNumber(c.AC))
	h.L.SetField(t, "modifier", lua.LNumber(c.DexModifier()))
	if c.Abilities.Dexterity != nil {
		h.L.SetField(t, "dexterity", lua.LNumber(*c.Abilities.Dexterity))
	}
	conds := h.L.NewTable()
	for _, inst := range c.Conditions.All() {
		conds.Append(lua.LString(inst.Kind))
	}
	h.L.SetField(t, "conditions", conds)
	return t
}

// Close releases the VM.
func (h *Hooks) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.L.Close()
}
