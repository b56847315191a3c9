package battle

import "fmt"

// EventKind classifies a log entry.
type EventKind string

const (
	EventDamage EventKind = "damage"
	EventMiss   EventKind = "miss"
	EventSwitch EventKind = "switch"
	EventFaint  EventKind = "faint"
	EventWin    EventKind = "win"
	EventLose   EventKind = "lose"
)

// Event is one entry of the append-only battle log.
type Event struct {
	// Seq is the 1-based position in the log.
	Seq int `json:"seq"`
	// Exchange is the exchange that produced the event.
	Exchange int `json:"exchange"`
	// Actor is the side the event concerns.
	Actor Side      `json:"actor"`
	Kind  EventKind `json:"kind"`
	// Text is the narration line.
	Text string `json:"text"`
	// Amount is the damage dealt, for damage events.
	Amount int `json:"amount,omitempty"`
	// CombatantID is the combatant the event is about.
	CombatantID string `json:"combatantId,omitempty"`
}

func damageText(attacker, move string, amount int, defender string) string {
	return fmt.Sprintf("%s uses %s for %d points of damage on %s", attacker, move, amount, defender)
}

func missText(attacker string) string { return fmt.Sprintf("%s missed the move!", attacker) }

func faintText(name string) string { return fmt.Sprintf("%s fainted!", name) }

func switchText(from, to string) string { return fmt.Sprintf("%s switched to %s", from, to) }

func chooseText(name string) string { return fmt.Sprintf("%s, I choose you!", name) }

func sendOutText(name string) string { return fmt.Sprintf("Opponent sent out %s!", name) }

const (
	winText  = "You won the battle!"
	loseText = "You have no more combatants! You blacked out!"
)
