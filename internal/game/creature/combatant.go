package creature

import (
	"errors"
	"fmt"
	"strings"
)

// Combatant is one creature instance in a battle.
//
// Invariant: 0 <= CurrentHP <= Stats.HP after every mutation made through its methods.
type Combatant struct {
	// ID identifies the combatant within its roster.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// SpeciesNumber is the catalog number of the species.
	SpeciesNumber int `json:"speciesNumber"`
	// Sprite is a reference to the front sprite image.
	Sprite string `json:"sprite"`
	// Types are the species' elemental types; cosmetic.
	Types []string `json:"types,omitempty"`
	// Level is in [MinLevel, MaxLevel].
	Level int `json:"level"`
	// Base holds the species base stats the derived Stats are computed from.
	Base Stats `json:"base"`
	// Stats holds the derived combat stats for Level.
	Stats Stats `json:"stats"`
	// CurrentHP is the remaining hit points.
	CurrentHP int `json:"currentHP"`
	// Moves is the fixed move set carried into battle.
	Moves []Move `json:"moves"`
}

// NewCombatant builds a combatant at full HP with stats derived from base at level.
//
// Postcondition: Stats == DeriveStats(base, ClampLevel(level)); CurrentHP == Stats.HP.
func NewCombatant(id, name string, base Stats, level int, moves []Move) *Combatant {
	level = ClampLevel(level)
	stats := DeriveStats(base, level)
	mv := make([]Move, len(moves))
	copy(mv, moves)
	return &Combatant{
		ID:        id,
		Name:      name,
		Level:     level,
		Base:      base,
		Stats:     stats,
		CurrentHP: stats.HP,
		Moves:     mv,
	}
}

// MaxHP returns the derived maximum hit points.
func (c *Combatant) MaxHP() int { return c.Stats.HP }

// Fainted reports whether the combatant has no hit points left.
func (c *Combatant) Fainted() bool { return c.CurrentHP <= 0 }

// ApplyDamage reduces CurrentHP by amount, flooring at zero, and returns the
// hit points actually removed. Negative amounts are treated as zero.
//
// Postcondition: 0 <= CurrentHP <= MaxHP().
func (c *Combatant) ApplyDamage(amount int) int {
	if amount < 0 {
		amount = 0
	}
	before := c.CurrentHP
	c.CurrentHP -= amount
	c.clampHP()
	return before - c.CurrentHP
}

// SetLevel changes the level and recomputes every derived stat from Base.
// A fainted combatant stays fainted; a living one keeps its hit points,
// clamped to the new maximum.
//
// Postcondition: Stats == DeriveStats(Base, Level); 0 <= CurrentHP <= MaxHP().
func (c *Combatant) SetLevel(level int) {
	c.Level = ClampLevel(level)
	c.Stats = DeriveStats(c.Base, c.Level)
	c.clampHP()
}

// Heal restores the combatant to full hit points.
func (c *Combatant) Heal() { c.CurrentHP = c.Stats.HP }

func (c *Combatant) clampHP() {
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
	if c.CurrentHP > c.Stats.HP {
		c.CurrentHP = c.Stats.HP
	}
}

// Move returns the move named name, compared case-insensitively.
func (c *Combatant) Move(name string) (Move, bool) {
	for _, m := range c.Moves {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return Move{}, false
}

// UsableMoves returns the usable subset of the move set.
func (c *Combatant) UsableMoves() []Move { return UsableMoves(c.Moves) }

// Clone returns a deep copy.
func (c *Combatant) Clone() *Combatant {
	cp := *c
	cp.Moves = make([]Move, len(c.Moves))
	copy(cp.Moves, c.Moves)
	cp.Types = append([]string(nil), c.Types...)
	return &cp
}

// Validate checks that the combatant may enter a battle.
//
// Postcondition: Returns nil iff ID and Name are non-empty, Level is in range,
// the move set has 1..MaxMoves usable moves with unique names, and HP is in range.
func (c *Combatant) Validate() error {
	var errs []string
	if c.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if c.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if c.Level < MinLevel || c.Level > MaxLevel {
		errs = append(errs, fmt.Sprintf("level must be %d-%d, got %d", MinLevel, MaxLevel, c.Level))
	}
	if len(c.Moves) == 0 {
		errs = append(errs, "at least one move is required")
	}
	if len(c.Moves) > MaxMoves {
		errs = append(errs, fmt.Sprintf("at most %d moves allowed, got %d", MaxMoves, len(c.Moves)))
	}
	seen := make(map[string]bool, len(c.Moves))
	for _, m := range c.Moves {
		key := strings.ToLower(m.Name)
		if seen[key] {
			errs = append(errs, fmt.Sprintf("duplicate move %q", m.Name))
		}
		seen[key] = true
		if !m.Usable() {
			errs = append(errs, fmt.Sprintf("move %q has no usable power", m.Name))
		}
	}
	if c.CurrentHP < 0 || c.CurrentHP > c.Stats.HP {
		errs = append(errs, fmt.Sprintf("current hp %d outside [0, %d]", c.CurrentHP, c.Stats.HP))
	}
	if len(errs) > 0 {
		return errors.New("combatant " + c.label() + ": " + strings.Join(errs, "; "))
	}
	return nil
}

func (c *Combatant) label() string {
	if c.ID != "" {
		return fmt.Sprintf("%q", c.ID)
	}
	return fmt.Sprintf("%q", c.Name)
}
