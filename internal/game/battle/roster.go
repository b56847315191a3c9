package battle

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/battlesim/internal/game/creature"
)

// MaxRosterSize is the largest number of combatants a side may field.
const MaxRosterSize = 3

// noActive marks a roster with no active combatant.
const noActive = -1

// Side identifies one of the two participants.
type Side int

const (
	SidePlayer Side = iota
	SideOpponent
)

// String returns "player" or "opponent".
func (s Side) String() string {
	if s == SideOpponent {
		return "opponent"
	}
	return "player"
}

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SidePlayer {
		return SideOpponent
	}
	return SidePlayer
}

// MarshalText encodes the side as its name.
func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a side name.
func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "player":
		*s = SidePlayer
	case "opponent":
		*s = SideOpponent
	default:
		return fmt.Errorf("unknown side %q", text)
	}
	return nil
}

// Roster is the ordered set of combatants one side brings to a battle.
// Fainted members stay in the roster; only the active pointer moves.
//
// Invariant: the active combatant, if any, is living.
type Roster struct {
	members []*creature.Combatant
	active  int
}

// NewRoster validates members and returns a roster whose active combatant is
// the first living member.
//
// Precondition: 1 <= len(members) <= MaxRosterSize; IDs unique; every member valid.
// Postcondition: Returns ErrInvalidRoster describing every violation, or
// ErrEmptyRoster if no member is living.
func NewRoster(members ...*creature.Combatant) (*Roster, error) {
	var errs []string
	if len(members) == 0 {
		errs = append(errs, "at least one combatant is required")
	}
	if len(members) > MaxRosterSize {
		errs = append(errs, fmt.Sprintf("at most %d combatants allowed, got %d", MaxRosterSize, len(members)))
	}
	seen := make(map[string]bool, len(members))
	for i, m := range members {
		if m == nil {
			errs = append(errs, fmt.Sprintf("member %d is nil", i))
			continue
		}
		if seen[m.ID] {
			errs = append(errs, fmt.Sprintf("duplicate combatant id %q", m.ID))
		}
		seen[m.ID] = true
		if err := m.Validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRoster, strings.Join(errs, "; "))
	}

	r := &Roster{members: make([]*creature.Combatant, len(members)), active: noActive}
	for i, m := range members {
		r.members[i] = m.Clone()
	}
	if next := r.firstLiving(); next >= 0 {
		r.active = next
	} else {
		return nil, ErrEmptyRoster
	}
	return r, nil
}

// Members returns every combatant in roster order, fainted ones included.
func (r *Roster) Members() []*creature.Combatant {
	out := make([]*creature.Combatant, len(r.members))
	copy(out, r.members)
	return out
}

// Active returns the active combatant, or nil when none is active.
func (r *Roster) Active() *creature.Combatant {
	if r.active == noActive {
		return nil
	}
	return r.members[r.active]
}

// Member returns the combatant with id.
func (r *Roster) Member(id string) (*creature.Combatant, bool) {
	idx := r.indexOf(id)
	if idx < 0 {
		return nil, false
	}
	return r.members[idx], true
}

// Living returns the living combatants in roster order.
func (r *Roster) Living() []*creature.Combatant {
	var out []*creature.Combatant
	for _, m := range r.members {
		if !m.Fainted() {
			out = append(out, m)
		}
	}
	return out
}

// Defeated reports whether no member is living.
func (r *Roster) Defeated() bool { return r.firstLiving() < 0 }

// Clone returns a deep copy.
func (r *Roster) Clone() *Roster {
	cp := &Roster{members: make([]*creature.Combatant, len(r.members)), active: r.active}
	for i, m := range r.members {
		cp.members[i] = m.Clone()
	}
	return cp
}

func (r *Roster) indexOf(id string) int {
	for i, m := range r.members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (r *Roster) firstLiving() int {
	for i, m := range r.members {
		if !m.Fainted() {
			return i
		}
	}
	return -1
}

// benchActive clears the active pointer once the active combatant has fainted.
func (r *Roster) benchActive() {
	if a := r.Active(); a != nil && a.Fainted() {
		r.active = noActive
	}
}

// RosterState holds both sides' rosters, indexed by Side.
type RosterState struct {
	sides [2]*Roster
}

// NewRosterState pairs the player and opponent rosters.
//
// Precondition: player and opponent must be non-nil.
func NewRosterState(player, opponent *Roster) *RosterState {
	return &RosterState{sides: [2]*Roster{player, opponent}}
}

// Roster returns the roster for side.
func (s *RosterState) Roster(side Side) *Roster { return s.sides[side] }

// Active returns the active combatant of side, or nil.
func (s *RosterState) Active(side Side) *creature.Combatant { return s.sides[side].Active() }

// SetActive makes the combatant with id the active combatant of side.
//
// Postcondition: Returns ErrEmptyRoster if side has no living combatants, or
// ErrInvalidIntent if id is unknown or fainted; the state is unchanged on error.
func (s *RosterState) SetActive(side Side, id string) error {
	r := s.sides[side]
	if r.Defeated() {
		return fmt.Errorf("%s: %w", side, ErrEmptyRoster)
	}
	idx := r.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%s has no combatant %q: %w", side, id, ErrInvalidIntent)
	}
	if r.members[idx].Fainted() {
		return fmt.Errorf("%s combatant %q has fainted: %w", side, id, ErrInvalidIntent)
	}
	r.active = idx
	return nil
}

// ApplyDamage subtracts amount from the active combatant of side, clamping at 0,
// and returns the hit points actually removed. A combatant that faints stops
// being active. A side with no active combatant takes no damage.
func (s *RosterState) ApplyDamage(side Side, amount int) int {
	r := s.sides[side]
	a := r.Active()
	if a == nil {
		return 0
	}
	removed := a.ApplyDamage(amount)
	r.benchActive()
	return removed
}

// IsDefeated reports whether side has no living combatants.
func (s *RosterState) IsDefeated(side Side) bool { return s.sides[side].Defeated() }

// LivingCombatants returns side's living combatants in roster order.
func (s *RosterState) LivingCombatants(side Side) []*creature.Combatant {
	return s.sides[side].Living()
}

// Clone returns a deep copy of both rosters.
func (s *RosterState) Clone() *RosterState {
	return &RosterState{sides: [2]*Roster{s.sides[0].Clone(), s.sides[1].Clone()}}
}
