// Package creature defines combatant stats, moves, and the pure stat
// derivation used by the battle engine and the team builder.
package creature

// Default individual and effort values applied by DeriveStats.
const (
	DefaultIV = 31
	DefaultEV = 252
)

// Level bounds for a combatant.
const (
	MinLevel = 1
	MaxLevel = 100
)

// Stats holds the six combat stats of a combatant, or the base stats of a species.
type Stats struct {
	HP             int `yaml:"hp" json:"hp"`
	Attack         int `yaml:"attack" json:"attack"`
	Defense        int `yaml:"defense" json:"defense"`
	Speed          int `yaml:"speed" json:"speed"`
	SpecialAttack  int `yaml:"special_attack" json:"specialAttack"`
	SpecialDefense int `yaml:"special_defense" json:"specialDefense"`
}

// DeriveStats computes derived combat stats from base stats at level using
// DefaultIV and DefaultEV.
//
// Postcondition: Equivalent to DeriveStatsWith(base, level, DefaultIV, DefaultEV).
func DeriveStats(base Stats, level int) Stats {
	return DeriveStatsWith(base, level, DefaultIV, DefaultEV)
}

// DeriveStatsWith computes derived combat stats from base stats, level, iv, and ev.
//
//	HP:    floor((2*base + iv + floor(ev/4)) * level / 100) + level + 10
//	other: floor((2*base + iv + floor(ev/4)) * level / 100) + 5
//
// The function is pure and total: every call with identical arguments returns
// an identical Stats value.
//
// Postcondition: every field of the result is >= 0.
func DeriveStatsWith(base Stats, level, iv, ev int) Stats {
	return Stats{
		HP:             deriveHP(base.HP, level, iv, ev),
		Attack:         deriveOther(base.Attack, level, iv, ev),
		Defense:        deriveOther(base.Defense, level, iv, ev),
		Speed:          deriveOther(base.Speed, level, iv, ev),
		SpecialAttack:  deriveOther(base.SpecialAttack, level, iv, ev),
		SpecialDefense: deriveOther(base.SpecialDefense, level, iv, ev),
	}
}

func scaled(base, level, iv, ev int) int {
	return floorDiv((2*base+iv+floorDiv(ev, 4))*level, 100)
}

func deriveHP(base, level, iv, ev int) int {
	return nonNegative(scaled(base, level, iv, ev) + level + 10)
}

func deriveOther(base, level, iv, ev int) int {
	return nonNegative(scaled(base, level, iv, ev) + 5)
}

// floorDiv divides rounding toward negative infinity; Go's / truncates toward zero.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// ClampLevel bounds level to [MinLevel, MaxLevel].
func ClampLevel(level int) int {
	switch {
	case level < MinLevel:
		return MinLevel
	case level > MaxLevel:
		return MaxLevel
	default:
		return level
	}
}
