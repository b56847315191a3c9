package ai

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/battlesim/internal/game/battle"
	"github.com/cory-johannsen/battlesim/internal/game/creature"
)

// buildState converts the acting and target combatants into the table passed
// to choose_move:
//
//	state.self   = combatant table for actor
//	state.target = combatant table for target
//	state.moves  = array of {name, power, category, type, damage}
//
// damage is the damage the move would deal to target, or 0 when it cannot be resolved.
func buildState(L *lua.LState, actor, target *creature.Combatant, usable []creature.Move) *lua.LTable {
	state := L.NewTable()
	L.SetField(state, "self", combatantTable(L, actor))
	if target != nil {
		L.SetField(state, "target", combatantTable(L, target))
	}

	moves := L.NewTable()
	for _, m := range usable {
		mt := L.NewTable()
		L.SetField(mt, "name", lua.LString(m.Name))
		power, _ := m.Power.Value()
		L.SetField(mt, "power", lua.LNumber(power))
		L.SetField(mt, "category", lua.LString(m.Category))
		L.SetField(mt, "type", lua.LString(m.Type))
		dmg := 0
		if target != nil {
			if d, err := battle.ComputeDamage(m, actor, target); err == nil {
				dmg = d
			}
		}
		L.SetField(mt, "damage", lua.LNumber(dmg))
		moves.Append(mt)
	}
	L.SetField(state, "moves", moves)
	return state
}

func combatantTable(L *lua.LState, c *creature.Combatant) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(c.ID))
	L.SetField(t, "name", lua.LString(c.Name))
	L.SetField(t, "level", lua.LNumber(c.Level))
	L.SetField(t, "hp", lua.LNumber(c.CurrentHP))
	L.SetField(t, "max_hp", lua.LNumber(c.MaxHP()))
	L.SetField(t, "attack", lua.LNumber(c.Stats.Attack))
	L.SetField(t, "defense", lua.LNumber(c.Stats.Defense))
	L.SetField(t, "special_attack", lua.LNumber(c.Stats.SpecialAttack))
	L.SetField(t, "special_defense", lua.LNumber(c.Stats.SpecialDefense))
	L.SetField(t, "speed", lua.LNumber(c.Stats.Speed))
	return t
}
