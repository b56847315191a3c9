package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/battlesim/internal/game/dice"
)

// RegisterModules registers the engine.* Lua tables into L:
//
//	engine.log.debug|info|warn|error(msg)
//	engine.random(n)   -- uniform int in [1, n], drawn from src()
//
// Precondition: L must be from NewSandboxedState; src must return a non-nil Source.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState, name string, src func() dice.Source) {
	engine := L.NewTable()

	logTbl := L.NewTable()
	logger := m.logger.With(zap.String("script", name))
	for level, fn := range map[string]func(string, ...zap.Field){
		"debug": logger.Debug,
		"info":  logger.Info,
		"warn":  logger.Warn,
		"error": logger.Error,
	} {
		L.SetField(logTbl, level, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1))
			return 0
		}))
	}
	L.SetField(engine, "log", logTbl)

	L.SetField(engine, "random", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n < 1 {
			L.ArgError(1, "n must be >= 1")
			return 0
		}
		L.Push(lua.LNumber(src().Intn(n) + 1))
		return 1
	}))

	L.SetGlobal("engine", engine)
}
