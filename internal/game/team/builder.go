// Package team builds the rosters each side brings to a battle.
package team

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/battlesim/internal/game/battle"
	"github.com/cory-johannsen/battlesim/internal/game/catalog"
	"github.com/cory-johannsen/battlesim/internal/game/creature"
	"github.com/cory-johannsen/battlesim/internal/game/dice"
)

var (
	// ErrTeamFull is returned by Add when the team already has MaxMembers members.
	ErrTeamFull = errors.New("team is full")
	// ErrMemberNotFound is returned when an ID names no team member.
	ErrMemberNotFound = errors.New("team member not found")
	// ErrTooManyMoves is returned by SelectMove when the member already knows MaxMoves moves.
	ErrTooManyMoves = errors.New("too many moves")
	// ErrDuplicateMove is returned by SelectMove when the move is already selected.
	ErrDuplicateMove = errors.New("move already selected")
	// ErrMoveNotLearnable is returned when the species cannot learn the move.
	ErrMoveNotLearnable = errors.New("move not learnable")
	// ErrUnusableMove is returned when the move's power is unknown or not positive.
	ErrUnusableMove = errors.New("move has no usable power")
	// ErrEmptyTeam is returned by Finalize when the team has no members.
	ErrEmptyTeam = errors.New("team has no members")
	// ErrNoMoves is returned by Finalize when a member has no selected moves.
	ErrNoMoves = errors.New("member has no moves")
	// ErrNoDifficulty is returned by Finalize for a player team without a difficulty.
	ErrNoDifficulty = errors.New("difficulty not selected")
)

// Difficulty is the opponent strength the player picks while building a team.
type Difficulty = battle.Difficulty

// ParseDifficulty maps text to a Difficulty.
func ParseDifficulty(raw string) (Difficulty, error) { return battle.ParseDifficulty(raw) }

// Limits bounds team composition.
type Limits struct {
	MaxMembers   int
	MaxMoves     int
	DefaultLevel int
}

// DefaultLimits returns the standard limits: 3 members, 4 moves, level 50.
func DefaultLimits() Limits {
	return Limits{MaxMembers: battle.MaxRosterSize, MaxMoves: creature.MaxMoves, DefaultLevel: 50}
}

func (l Limits) normalized() Limits {
	d := DefaultLimits()
	if l.MaxMembers <= 0 || l.MaxMembers > battle.MaxRosterSize {
		l.MaxMembers = d.MaxMembers
	}
	if l.MaxMoves <= 0 || l.MaxMoves > creature.MaxMoves {
		l.MaxMoves = d.MaxMoves
	}
	l.DefaultLevel = creature.ClampLevel(l.DefaultLevel)
	return l
}

// Member is one team slot: a species and the combatant being configured for it.
type Member struct {
	Species   *catalog.Species
	Combatant *creature.Combatant
}

// ID returns the member's combatant ID.
func (m *Member) ID() string { return m.Combatant.ID }

// Learnable returns the species moves that may be selected.
func (m *Member) Learnable() []creature.Move { return m.Species.UsableMoves() }

// Builder assembles one side's team.
//
// Builder is not safe for concurrent use.
type Builder struct {
	side       battle.Side
	limits     Limits
	members    []*Member
	difficulty Difficulty
}

// NewBuilder returns an empty builder for side.
func NewBuilder(side battle.Side, limits Limits) *Builder {
	return &Builder{side: side, limits: limits.normalized()}
}

// Side returns the side the team is built for.
func (b *Builder) Side() battle.Side { return b.side }

// Limits returns the effective limits.
func (b *Builder) Limits() Limits { return b.limits }

// Members returns the current members in order.
func (b *Builder) Members() []*Member {
	out := make([]*Member, len(b.members))
	copy(out, b.members)
	return out
}

// Len returns the number of members.
func (b *Builder) Len() int { return len(b.members) }

// Difficulty returns the selected difficulty, or "" when none is selected.
func (b *Builder) Difficulty() Difficulty { return b.difficulty }

// SetDifficulty records the difficulty.
func (b *Builder) SetDifficulty(d Difficulty) { b.difficulty = d }

// Add appends a member of species at the default level with no moves.
//
// Precondition: species must be non-nil and valid.
// Postcondition: Returns ErrTeamFull when the team is full.
func (b *Builder) Add(species *catalog.Species) (*Member, error) {
	if len(b.members) >= b.limits.MaxMembers {
		return nil, fmt.Errorf("adding %s: %w", species.Name, ErrTeamFull)
	}
	base, err := species.BaseStats()
	if err != nil {
		return nil, fmt.Errorf("adding %s: %w", species.Name, err)
	}
	c := creature.NewCombatant(b.uniqueID(species.Key()), catalog.DisplayName(species.Name), base, b.limits.DefaultLevel, nil)
	c.SpeciesNumber = species.Number
	c.Sprite = species.Sprite
	c.Types = append([]string(nil), species.Types...)
	m := &Member{Species: species, Combatant: c}
	b.members = append(b.members, m)
	return m, nil
}

func (b *Builder) uniqueID(base string) string {
	id := base
	for n := 2; b.indexOf(id) >= 0; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

func (b *Builder) indexOf(id string) int {
	for i, m := range b.members {
		if strings.EqualFold(m.ID(), id) {
			return i
		}
	}
	return -1
}

// Member returns the member with id, compared case-insensitively.
func (b *Builder) Member(id string) (*Member, error) {
	idx := b.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("%q: %w", id, ErrMemberNotFound)
	}
	return b.members[idx], nil
}

// Remove deletes the member with id.
func (b *Builder) Remove(id string) error {
	idx := b.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%q: %w", id, ErrMemberNotFound)
	}
	b.members = append(b.members[:idx], b.members[idx+1:]...)
	return nil
}

// Clear removes every member.
func (b *Builder) Clear() { b.members = nil }

// SetLevel sets the member's level, clamped to [creature.MinLevel, creature.MaxLevel],
// recomputes its stats, and restores it to full HP. It returns the applied level.
func (b *Builder) SetLevel(id string, level int) (int, error) {
	m, err := b.Member(id)
	if err != nil {
		return 0, err
	}
	m.Combatant.SetLevel(level)
	m.Combatant.Heal()
	return m.Combatant.Level, nil
}

func learnable(m *Member, name string) (creature.Move, error) {
	for _, mv := range m.Species.Moves {
		if strings.EqualFold(mv.Name, name) {
			if !mv.Usable() {
				return creature.Move{}, fmt.Errorf("%s: %w", mv.Name, ErrUnusableMove)
			}
			return mv, nil
		}
	}
	return creature.Move{}, fmt.Errorf("%s cannot learn %q: %w", m.Combatant.Name, name, ErrMoveNotLearnable)
}

// SelectMove adds the named learnable move to the member's move set.
//
// Postcondition: Returns ErrMoveNotLearnable, ErrUnusableMove,
// ErrDuplicateMove, or ErrTooManyMoves and leaves the member unchanged on failure.
func (b *Builder) SelectMove(id, name string) (creature.Move, error) {
	m, err := b.Member(id)
	if err != nil {
		return creature.Move{}, err
	}
	mv, err := learnable(m, name)
	if err != nil {
		return creature.Move{}, err
	}
	if _, dup := m.Combatant.Move(mv.Name); dup {
		return creature.Move{}, fmt.Errorf("%s: %w", mv.Name, ErrDuplicateMove)
	}
	if len(m.Combatant.Moves) >= b.limits.MaxMoves {
		return creature.Move{}, fmt.Errorf("%s already knows %d moves: %w", m.Combatant.Name, b.limits.MaxMoves, ErrTooManyMoves)
	}
	m.Combatant.Moves = append(m.Combatant.Moves, mv)
	return mv, nil
}

// RemoveMove drops the named move from the member's move set.
func (b *Builder) RemoveMove(id, name string) error {
	m, err := b.Member(id)
	if err != nil {
		return err
	}
	for i, mv := range m.Combatant.Moves {
		if strings.EqualFold(mv.Name, name) {
			m.Combatant.Moves = append(m.Combatant.Moves[:i], m.Combatant.Moves[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s does not know %q: %w", m.Combatant.Name, name, battle.ErrUnknownMove)
}

// Preview estimates the damage of one of the member's learnable moves, using
// the member as both attacker and defender.
func (b *Builder) Preview(id, moveName string) (int, error) {
	m, err := b.Member(id)
	if err != nil {
		return 0, err
	}
	for _, mv := range m.Species.Moves {
		if strings.EqualFold(mv.Name, moveName) {
			return battle.PreviewDamage(mv, m.Combatant, m.Combatant), nil
		}
	}
	return 0, fmt.Errorf("%s cannot learn %q: %w", m.Combatant.Name, moveName, ErrMoveNotLearnable)
}

// Randomize replaces the team with MaxMembers random species, each at a
// random level with up to MaxMoves random usable moves.
//
// Postcondition: On error the previous team is restored.
func (b *Builder) Randomize(ctx context.Context, cat catalog.Catalog, src dice.Source) error {
	saved := b.members
	b.members = nil
	for len(b.members) < b.limits.MaxMembers {
		sp, err := catalog.Random(ctx, cat, src)
		if err != nil {
			b.members = saved
			return fmt.Errorf("randomizing team: %w", err)
		}
		m, err := b.Add(sp)
		if err != nil {
			b.members = saved
			return fmt.Errorf("randomizing team: %w", err)
		}
		m.Combatant.SetLevel(dice.Between(src, creature.MinLevel, creature.MaxLevel))
		m.Combatant.Heal()

		pool := m.Learnable()
		for len(pool) > 0 && len(m.Combatant.Moves) < b.limits.MaxMoves {
			i := dice.Pick(src, len(pool))
			m.Combatant.Moves = append(m.Combatant.Moves, pool[i])
			pool = append(pool[:i:i], pool[i+1:]...)
		}
	}
	return nil
}

// Finalize validates the team and converts it into a battle roster.
//
// Postcondition: Returns every violation joined, or a roster whose members
// are copies of the configured combatants at full HP.
func (b *Builder) Finalize() (*battle.Roster, error) {
	var errs []error
	if len(b.members) == 0 {
		errs = append(errs, ErrEmptyTeam)
	}
	for _, m := range b.members {
		if len(m.Combatant.Moves) == 0 {
			errs = append(errs, fmt.Errorf("%s: %w", m.Combatant.Name, ErrNoMoves))
		}
	}
	if b.side == battle.SidePlayer && b.difficulty == "" {
		errs = append(errs, ErrNoDifficulty)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("finalizing %s team: %w", b.side, errors.Join(errs...))
	}

	combatants := make([]*creature.Combatant, len(b.members))
	for i, m := range b.members {
		c := m.Combatant.Clone()
		c.Heal()
		combatants[i] = c
	}
	roster, err := battle.NewRoster(combatants...)
	if err != nil {
		return nil, fmt.Errorf("finalizing %s team: %w", b.side, err)
	}
	return roster, nil
}
