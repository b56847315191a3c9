package creature

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxMoves is the largest move set a combatant may carry into battle.
const MaxMoves = 4

// unknownPowerLabel is how an unresolved power is written back out.
const unknownPowerLabel = "N/A"

// Power is a move's declared power. The catalog may report a power that does
// not resolve to a number ("N/A"); such a Power is unknown.
//
// The zero value is an unknown power.
type Power struct {
	value int
	known bool
}

// PowerOf returns a known Power of n.
func PowerOf(n int) Power { return Power{value: n, known: true} }

// UnknownPower returns a Power that cannot be resolved to a number.
func UnknownPower() Power { return Power{} }

// ParsePower interprets raw catalog text. Integer text yields a known power;
// anything else yields an unknown power.
func ParsePower(raw string) Power {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return UnknownPower()
	}
	return PowerOf(n)
}

// Value returns the numeric power and whether it is known.
func (p Power) Value() (int, bool) { return p.value, p.known }

// Known reports whether the power resolves to a number.
func (p Power) Known() bool { return p.known }

// String renders the power for display.
func (p Power) String() string {
	if !p.known {
		return unknownPowerLabel
	}
	return strconv.Itoa(p.value)
}

// UnmarshalYAML accepts an integer, a numeric string, a non-numeric string, or null.
func (p *Power) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: power must be a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*p = UnknownPower()
		return nil
	}
	*p = ParsePower(node.Value)
	return nil
}

// MarshalYAML writes a known power as an integer and an unknown one as "N/A".
func (p Power) MarshalYAML() (interface{}, error) {
	if !p.known {
		return unknownPowerLabel, nil
	}
	return p.value, nil
}

// UnmarshalJSON accepts a number, a string, or null.
func (p *Power) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding power: %w", err)
	}
	switch v := raw.(type) {
	case nil:
		*p = UnknownPower()
	case float64:
		if v != float64(int(v)) {
			*p = UnknownPower()
			return nil
		}
		*p = PowerOf(int(v))
	case string:
		*p = ParsePower(v)
	default:
		return fmt.Errorf("power must be a number or string, got %T", raw)
	}
	return nil
}

// MarshalJSON writes a known power as a number and an unknown one as "N/A".
func (p Power) MarshalJSON() ([]byte, error) {
	if !p.known {
		return json.Marshal(unknownPowerLabel)
	}
	return json.Marshal(p.value)
}

// Category selects which stat pair a move uses.
type Category string

const (
	Physical Category = "physical"
	Special  Category = "special"
)

// ParseCategory maps catalog text to a Category. Empty text is physical.
func ParseCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case "", Physical:
		return Physical, nil
	case Special:
		return Special, nil
	default:
		return "", fmt.Errorf("unknown move category %q", raw)
	}
}

// Move is one attack a combatant may use.
type Move struct {
	Name     string   `yaml:"name" json:"name"`
	Power    Power    `yaml:"power" json:"power"`
	Category Category `yaml:"category" json:"category"`
	// Type is cosmetic; it drives display and filtering only.
	Type string `yaml:"type" json:"type"`
}

// Usable reports whether the move can be taken into battle: its power must be
// known and positive.
func (m Move) Usable() bool {
	n, ok := m.Power.Value()
	return ok && n > 0
}

// UsableMoves returns the usable subset of moves, preserving order.
func UsableMoves(moves []Move) []Move {
	out := make([]Move, 0, len(moves))
	for _, m := range moves {
		if m.Usable() {
			out = append(out, m)
		}
	}
	return out
}
