package battle_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/battlesim/internal/game/battle"
	"github.com/cory-johannsen/battlesim/internal/game/creature"
)

func physical(name string, power int) creature.Move {
	return creature.Move{Name: name, Power: creature.PowerOf(power), Category: creature.Physical, Type: "normal"}
}

func special(name string, power int) creature.Move {
	return creature.Move{Name: name, Power: creature.PowerOf(power), Category: creature.Special, Type: "fire"}
}

// fighter builds a level-50 combatant with explicit stats.
func fighter(name string, hp, atk, def int, moves ...creature.Move) *creature.Combatant {
	if len(moves) == 0 {
		moves = []creature.Move{physical("Tackle", 40)}
	}
	return &creature.Combatant{
		ID:    strings.ToLower(name),
		Name:  name,
		Level: 50,
		Stats: creature.Stats{
			HP: hp, Attack: atk, Defense: def, Speed: 50,
			SpecialAttack: atk, SpecialDefense: def,
		},
		CurrentHP: hp,
		Moves:     moves,
	}
}

// brute one-shots any ordinary fighter.
func brute(name string) *creature.Combatant {
	return fighter(name, 1000, 900, 900, physical("Crush", 150))
}

// weakling deals the minimum damage and has little HP.
func weakling(name string, hp int) *creature.Combatant {
	return fighter(name, hp, 1, 1, physical("Poke", 1))
}

func roster(t testing.TB, members ...*creature.Combatant) *battle.Roster {
	t.Helper()
	r, err := battle.NewRoster(members...)
	require.NoError(t, err)
	return r
}
