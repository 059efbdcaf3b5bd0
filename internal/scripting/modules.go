package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the arena.* Lua table into L:
//
//	arena.log.debug/info/warn(msg)  write to the Go logger
//	arena.random()                  uniform float in [0, 1)
//	arena.pick(list)                random element of a Lua array, or nil
//	arena.fmt_health(x)             x formatted with one decimal
//
// Postcondition: arena global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	arena := L.NewTable()

	logTbl := L.NewTable()
	logAt := func(fn func(string, ...zap.Field)) lua.LGFunction {
		return func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}
	}
	L.SetField(logTbl, "debug", L.NewFunction(logAt(m.logger.Debug)))
	L.SetField(logTbl, "info", L.NewFunction(logAt(m.logger.Info)))
	L.SetField(logTbl, "warn", L.NewFunction(logAt(m.logger.Warn)))
	L.SetField(arena, "log", logTbl)

	L.SetField(arena, "random", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(m.src.Float64()))
		return 1
	}))
	L.SetField(arena, "pick", L.NewFunction(func(L *lua.LState) int {
		list := L.CheckTable(1)
		n := list.Len()
		if n == 0 {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(list.RawGetInt(1 + int(m.src.Float64()*float64(n))))
		return 1
	}))
	L.SetField(arena, "fmt_health", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(fmt.Sprintf("%.1f", float64(L.CheckNumber(1)))))
		return 1
	}))

	L.SetGlobal("arena", arena)
}
