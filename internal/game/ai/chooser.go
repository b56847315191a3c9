// Package ai selects the opponent's moves, either uniformly at random or by
// running a sandboxed Lua strategy script.
package ai

import (
	"context"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/battlesim/internal/game/battle"
	"github.com/cory-johannsen/battlesim/internal/game/creature"
	"github.com/cory-johannsen/battlesim/internal/game/dice"
)

// ChooseHook is the Lua global a strategy script must define. It receives a
// state table and returns the 1-based index of the move to use.
const ChooseHook = "choose_move"

// ScriptCaller evaluates a named Lua function in a loaded script.
type ScriptCaller interface {
	// CallHookWithSource calls a named Lua function in the given script's VM
	// with engine.random drawing from src.
	// Returns (LNil, nil) if the function is not defined.
	CallHookWithSource(ctx context.Context, script, hook string, src dice.Source, args ...lua.LValue) (lua.LValue, error)
}

// ScriptedChooser asks a Lua script which usable move to use. Script errors,
// missing hooks, and out-of-range answers fall back to another chooser.
type ScriptedChooser struct {
	caller   ScriptCaller
	script   string
	fallback battle.MoveChooser
	logger   *zap.Logger
}

// NewScriptedChooser returns a chooser backed by script.
//
// Precondition: caller and logger must be non-nil.
// A nil fallback selects battle.RandomChooser.
func NewScriptedChooser(caller ScriptCaller, script string, fallback battle.MoveChooser, logger *zap.Logger) *ScriptedChooser {
	if fallback == nil {
		fallback = battle.RandomChooser{}
	}
	return &ScriptedChooser{caller: caller, script: script, fallback: fallback, logger: logger}
}

// ChooseMove implements battle.MoveChooser. The script's engine.random draws
// from src. Cancelling ctx aborts the script and the fallback decides.
func (c *ScriptedChooser) ChooseMove(ctx context.Context, actor, target *creature.Combatant, src dice.Source) (creature.Move, error) {
	usable := actor.UsableMoves()
	if len(usable) == 0 {
		return c.fallback.ChooseMove(ctx, actor, target, src)
	}

	// A throwaway state is enough to build the argument table; the hook runs
	// it in the script's own VM.
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	state := buildState(L, actor, target, usable)

	ret, err := c.caller.CallHookWithSource(ctx, c.script, ChooseHook, src, state)
	if err != nil {
		c.logger.Warn("ai script failed; using fallback", zap.String("script", c.script), zap.Error(err))
		return c.fallback.ChooseMove(ctx, actor, target, src)
	}
	if ret == nil {
		ret = lua.LNil
	}
	n, ok := ret.(lua.LNumber)
	idx := int(n)
	if !ok || float64(n) != float64(idx) || idx < 1 || idx > len(usable) {
		c.logger.Warn("ai script returned invalid move index; using fallback",
			zap.String("script", c.script),
			zap.String("result", ret.String()),
			zap.Int("moves", len(usable)),
		)
		return c.fallback.ChooseMove(ctx, actor, target, src)
	}
	return usable[idx-1], nil
}
