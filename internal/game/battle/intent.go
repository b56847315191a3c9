package battle

import (
	"fmt"
	"strings"
)

// IntentType names a player action.
type IntentType string

const (
	IntentMove            IntentType = "move"
	IntentSwitch          IntentType = "switch"
	IntentReplace         IntentType = "replace"
	IntentOpenSwitchMenu  IntentType = "open_switch_menu"
	IntentCloseSwitchMenu IntentType = "close_switch_menu"
)

// Intent is a player action submitted to a Battle.
type Intent struct {
	Type IntentType `json:"type"`
	// MoveName is required for IntentMove.
	MoveName string `json:"moveName,omitempty"`
	// CombatantID is required for IntentSwitch and IntentReplace.
	CombatantID string `json:"combatantId,omitempty"`
}

// MoveIntent returns an intent to use the named move.
func MoveIntent(name string) Intent { return Intent{Type: IntentMove, MoveName: name} }

// SwitchIntent returns an intent to switch the active combatant to id.
func SwitchIntent(id string) Intent { return Intent{Type: IntentSwitch, CombatantID: id} }

// ReplaceIntent returns an intent to replace a fainted active combatant with id.
func ReplaceIntent(id string) Intent { return Intent{Type: IntentReplace, CombatantID: id} }

// ParseIntentType maps text to an IntentType.
func ParseIntentType(raw string) (IntentType, error) {
	t := IntentType(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case IntentMove, IntentSwitch, IntentReplace, IntentOpenSwitchMenu, IntentCloseSwitchMenu:
		return t, nil
	}
	return "", fmt.Errorf("unknown intent type %q: %w", raw, ErrInvalidIntent)
}

// String renders the intent for logs.
func (i Intent) String() string {
	switch i.Type {
	case IntentMove:
		return fmt.Sprintf("move(%s)", i.MoveName)
	case IntentSwitch, IntentReplace:
		return fmt.Sprintf("%s(%s)", i.Type, i.CombatantID)
	default:
		return string(i.Type)
	}
}
