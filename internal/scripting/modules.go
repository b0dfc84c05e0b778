package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/initiative/internal/game/ability"
	"github.com/cory-johannsen/initiative/internal/game/dice"
)

// registerModules installs the tracker.* table:
//
//	tracker.modifier(score)        -> ability modifier
//	tracker.format_modifier(score) -> "+2" / "-1"
//	tracker.roll(expr)             -> total of a dice expression such as "1d4+1"
func registerModules(L *lua.LState, roller *dice.Roller) {
	mod := L.NewTable()
	L.SetField(mod, "modifier", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(ability.Modifier(L.CheckInt(1))))
		return 1
	}))
	L.SetField(mod, "format_modifier", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(ability.FormatModifier(L.CheckInt(1))))
		return 1
	}))
	L.SetField(mod, "roll", L.NewFunction(func(L *lua.LState) int {
		if roller == nil {
			L.RaiseError("tracker.roll: no dice roller configured")
			return 0
		}
		res, err := roller.RollExpr(L.CheckString(1))
		if err != nil {
			L.ArgError(1, err.Error())
			return 0
		}
		L.Push(lua.LNumber(res.Total()))
		return 1
	}))
	L.SetGlobal("tracker", mod)
}
