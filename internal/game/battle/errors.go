package battle

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIntent is returned when an intent is not legal in the current phase
	// or names an illegal target. The session is left unchanged.
	ErrInvalidIntent = errors.New("invalid intent")
	// ErrUnknownMove is returned when a move intent names a move the active
	// combatant does not know.
	ErrUnknownMove = errors.New("unknown move")
	// ErrEmptyRoster is returned when a side has no living combatants.
	ErrEmptyRoster = errors.New("roster has no living combatants")
	// ErrDamageResolution is returned by ComputeDamage when a move's power or the
	// defending stat cannot be resolved. The resolver records it as a miss.
	ErrDamageResolution = errors.New("damage could not be resolved")
	// ErrBattleConcluded is returned for any intent submitted after the battle ended.
	ErrBattleConcluded = fmt.Errorf("battle concluded: %w", ErrInvalidIntent)
	// ErrInvalidRoster is returned when a roster fails validation at construction.
	ErrInvalidRoster = errors.New("invalid roster")
)
