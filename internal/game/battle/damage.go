package battle

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/battlesim/internal/game/creature"
)

// Preview power bounds applied by PreviewDamage.
const (
	PreviewMinPower = 10
	PreviewMaxPower = 150
)

// ComputeDamage returns the damage move deals when attacker uses it on defender.
//
//	round(((2*level/5 + 2) * power * (atk/def)) / 50 + 2)
//
// evaluated in floating point and rounded half up. Physical moves use
// Attack/Defense, special moves SpecialAttack/SpecialDefense. The declared
// power is used as is.
//
// Precondition: attacker and defender must be non-nil.
// Postcondition: Returns ErrDamageResolution if the power is unknown or the
// defending stat is not positive.
func ComputeDamage(move creature.Move, attacker, defender *creature.Combatant) (int, error) {
	power, ok := move.Power.Value()
	if !ok {
		return 0, fmt.Errorf("move %q power %s: %w", move.Name, move.Power, ErrDamageResolution)
	}
	atk, def := statPair(move.Category, attacker, defender)
	if def <= 0 {
		return 0, fmt.Errorf("move %q defending stat %d: %w", move.Name, def, ErrDamageResolution)
	}
	return damageFormula(attacker.Level, power, atk, def), nil
}

// PreviewDamage estimates damage for the team builder. Power is clamped to
// [PreviewMinPower, PreviewMaxPower] with unknown power treated as 0 before the
// clamp. The preview always uses Attack/Defense, whatever the move's category,
// so special moves can preview differently from ComputeDamage. A non-positive
// Defense previews as 0.
//
// Precondition: attacker and defender must be non-nil.
func PreviewDamage(move creature.Move, attacker, defender *creature.Combatant) int {
	power, ok := move.Power.Value()
	if !ok {
		power = 0
	}
	power = min(max(power, PreviewMinPower), PreviewMaxPower)
	atk, def := attacker.Stats.Attack, defender.Stats.Defense
	if def <= 0 {
		return 0
	}
	return damageFormula(attacker.Level, power, atk, def)
}

func statPair(cat creature.Category, attacker, defender *creature.Combatant) (atk, def int) {
	if cat == creature.Special {
		return attacker.Stats.SpecialAttack, defender.Stats.SpecialDefense
	}
	return attacker.Stats.Attack, defender.Stats.Defense
}

func damageFormula(level, power, atk, def int) int {
	scale := 2.0*float64(level)/5.0 + 2.0
	raw := scale*float64(power)*(float64(atk)/float64(def))/50.0 + 2.0
	return int(math.Floor(raw + 0.5))
}
