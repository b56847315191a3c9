package battle

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Phase is the battle state machine's current state.
type Phase string

const (
	// PhaseOngoing accepts move, switch, and open_switch_menu.
	PhaseOngoing Phase = "ongoing"
	// PhaseSwitchMenuOpen is a substate of ongoing that accepts switch and close_switch_menu.
	PhaseSwitchMenuOpen Phase = "switch_menu_open"
	// PhaseAwaitingFaintReplacement accepts only replace.
	PhaseAwaitingFaintReplacement Phase = "awaiting_faint_replacement"
	// PhaseConcluded is terminal.
	PhaseConcluded Phase = "concluded"
)

// accepts reports whether an intent of type t is legal in phase p.
func (p Phase) accepts(t IntentType) bool {
	switch p {
	case PhaseOngoing:
		return t == IntentMove || t == IntentSwitch || t == IntentOpenSwitchMenu
	case PhaseSwitchMenuOpen:
		return t == IntentSwitch || t == IntentCloseSwitchMenu
	case PhaseAwaitingFaintReplacement:
		return t == IntentReplace
	default:
		return false
	}
}

// Outcome is the result of a battle from the player's point of view.
type Outcome string

const (
	OutcomeNone       Outcome = "none"
	OutcomePlayerWin  Outcome = "player_win"
	OutcomePlayerLoss Outcome = "player_loss"
)

// Difficulty selects the opponent's move policy.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists every difficulty in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty maps text to a Difficulty, case-insensitively.
func ParseDifficulty(raw string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty %q: want easy, medium, or hard", raw)
}

// Session is the full state of one battle. It is owned by a Battle.
type Session struct {
	ID         uuid.UUID
	Rosters    *RosterState
	Turn       Side
	Exchange   int
	Phase      Phase
	Log        []Event
	Outcome    Outcome
	Difficulty Difficulty
}

// newSession builds an ongoing session with the player to move.
func newSession(player, opponent *Roster, difficulty Difficulty) *Session {
	return &Session{
		ID:         uuid.New(),
		Rosters:    NewRosterState(player, opponent),
		Turn:       SidePlayer,
		Phase:      PhaseOngoing,
		Outcome:    OutcomeNone,
		Difficulty: difficulty,
	}
}

// record appends an event to the log and returns it.
func (s *Session) record(actor Side, kind EventKind, text string, amount int, combatantID string) Event {
	ev := Event{
		Seq:         len(s.Log) + 1,
		Exchange:    s.Exchange,
		Actor:       actor,
		Kind:        kind,
		Text:        text,
		Amount:      amount,
		CombatantID: combatantID,
	}
	s.Log = append(s.Log, ev)
	return ev
}

// conclude moves the session to its terminal phase.
func (s *Session) conclude(outcome Outcome) {
	s.Phase = PhaseConcluded
	s.Outcome = outcome
}
