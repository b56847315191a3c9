package battle

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/battlesim/internal/game/creature"
)

// CombatantView is a read-only copy of one combatant.
type CombatantView struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	SpeciesNumber int             `json:"speciesNumber"`
	Sprite        string          `json:"sprite,omitempty"`
	Types         []string        `json:"types,omitempty"`
	Level         int             `json:"level"`
	CurrentHP     int             `json:"currentHP"`
	MaxHP         int             `json:"maxHP"`
	Fainted       bool            `json:"fainted"`
	Stats         creature.Stats  `json:"stats"`
	Moves         []creature.Move `json:"moves"`
}

// SideView is a read-only copy of one side.
type SideView struct {
	// Active is nil while no combatant is active.
	Active  *CombatantView  `json:"active"`
	Members []CombatantView `json:"members"`
	Living  int             `json:"living"`
}

// Snapshot is a deep copy of a battle's state after an intent.
type Snapshot struct {
	ID         uuid.UUID  `json:"id"`
	Phase      Phase      `json:"phase"`
	Outcome    Outcome    `json:"outcome"`
	Turn       Side       `json:"turn"`
	Exchange   int        `json:"exchange"`
	Difficulty Difficulty `json:"difficulty"`
	Player     SideView   `json:"player"`
	Opponent   SideView   `json:"opponent"`
	Log        []Event    `json:"log"`
}

// Accepts reports whether an intent of type t would pass the phase check.
func (s Snapshot) Accepts(t IntentType) bool { return s.Phase.accepts(t) }

// Side returns the view for side.
func (s Snapshot) Side(side Side) SideView {
	if side == SideOpponent {
		return s.Opponent
	}
	return s.Player
}

// Snapshot returns a deep copy of the current state.
func (b *Battle) Snapshot() Snapshot {
	s := b.session
	log := make([]Event, len(s.Log))
	copy(log, s.Log)
	return Snapshot{
		ID:         s.ID,
		Phase:      s.Phase,
		Outcome:    s.Outcome,
		Turn:       s.Turn,
		Exchange:   s.Exchange,
		Difficulty: s.Difficulty,
		Player:     viewSide(s.Rosters.Roster(SidePlayer)),
		Opponent:   viewSide(s.Rosters.Roster(SideOpponent)),
		Log:        log,
	}
}

func viewSide(r *Roster) SideView {
	v := SideView{Members: make([]CombatantView, 0, len(r.members))}
	for i, m := range r.members {
		cv := viewCombatant(m)
		v.Members = append(v.Members, cv)
		if i == r.active {
			active := cv
			v.Active = &active
		}
		if !m.Fainted() {
			v.Living++
		}
	}
	return v
}

func viewCombatant(c *creature.Combatant) CombatantView {
	moves := make([]creature.Move, len(c.Moves))
	copy(moves, c.Moves)
	return CombatantView{
		ID:            c.ID,
		Name:          c.Name,
		SpeciesNumber: c.SpeciesNumber,
		Sprite:        c.Sprite,
		Types:         append([]string(nil), c.Types...),
		Level:         c.Level,
		CurrentHP:     c.CurrentHP,
		MaxHP:         c.MaxHP(),
		Fainted:       c.Fainted(),
		Stats:         c.Stats,
		Moves:         moves,
	}
}
