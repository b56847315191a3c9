package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/cory-johannsen/battlesim/internal/game/battle"
	"github.com/cory-johannsen/battlesim/internal/game/catalog"
	"github.com/cory-johannsen/battlesim/internal/game/team"
)

// ErrBadRequest marks a request body that could not be used.
var ErrBadRequest = errors.New("bad request")

// MemberSpec describes one team member in a request.
type MemberSpec struct {
	Species string `json:"species" binding:"required"`
	// Level defaults to the configured battle level when zero.
	Level int      `json:"level"`
	Moves []string `json:"moves"`
}

// CreateBattleRequest is the body of POST /api/battles.
type CreateBattleRequest struct {
	Difficulty string       `json:"difficulty" binding:"required"`
	Player     []MemberSpec `json:"player" binding:"required"`
	Opponent   []MemberSpec `json:"opponent" binding:"required"`
}

// PreviewRequest is the body of POST /api/preview.
type PreviewRequest struct {
	Species string `json:"species" binding:"required"`
	Level   int    `json:"level"`
	Move    string `json:"move" binding:"required"`
}

// PreviewResponse reports a preview estimate.
type PreviewResponse struct {
	Species string `json:"species"`
	Level   int    `json:"level"`
	Move    string `json:"move"`
	Damage  int    `json:"damage"`
}

// IntentRequest is the body of POST /api/battles/:id/intents.
type IntentRequest struct {
	Type        string `json:"type" binding:"required"`
	MoveName    string `json:"moveName"`
	CombatantID string `json:"combatantId"`
}

// Intent converts the request into a battle intent.
func (r IntentRequest) Intent() (battle.Intent, error) {
	t, err := battle.ParseIntentType(r.Type)
	if err != nil {
		return battle.Intent{}, err
	}
	return battle.Intent{Type: t, MoveName: r.MoveName, CombatantID: r.CombatantID}, nil
}

// IntentResponse carries the events an intent produced and the state after it.
type IntentResponse struct {
	Events   []battle.Event  `json:"events"`
	Snapshot battle.Snapshot `json:"snapshot"`
}

// rosterBuilder turns member specs into rosters through team.Builder, so the
// API enforces the same limits as the interactive builder.
type rosterBuilder struct {
	cat          catalog.Catalog
	limits       team.Limits
	defaultLevel int
}

// build assembles one side's roster.
//
// Postcondition: Every failure wraps battle.ErrInvalidRoster.
func (rb rosterBuilder) build(ctx context.Context, side battle.Side, specs []MemberSpec, d battle.Difficulty) (*battle.Roster, error) {
	b := team.NewBuilder(side, rb.limits)
	b.SetDifficulty(d)
	for i, spec := range specs {
		sp, err := rb.cat.Species(ctx, spec.Species)
		if err != nil {
			return nil, fmt.Errorf("%s member %d: %w: %w", side, i+1, battle.ErrInvalidRoster, err)
		}
		m, err := b.Add(sp)
		if err != nil {
			return nil, fmt.Errorf("%s member %d: %w: %w", side, i+1, battle.ErrInvalidRoster, err)
		}
		if _, err := b.SetLevel(m.ID(), rb.level(spec.Level)); err != nil {
			return nil, fmt.Errorf("%s member %d: %w: %w", side, i+1, battle.ErrInvalidRoster, err)
		}
		for _, mv := range spec.Moves {
			if _, err := b.SelectMove(m.ID(), mv); err != nil {
				return nil, fmt.Errorf("%s member %d: %w: %w", side, i+1, battle.ErrInvalidRoster, err)
			}
		}
	}
	roster, err := b.Finalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", battle.ErrInvalidRoster, err)
	}
	return roster, nil
}

// preview estimates damage for a single species at a level.
func (rb rosterBuilder) preview(ctx context.Context, req PreviewRequest) (PreviewResponse, error) {
	sp, err := rb.cat.Species(ctx, req.Species)
	if err != nil {
		return PreviewResponse{}, err
	}
	b := team.NewBuilder(battle.SidePlayer, rb.limits)
	m, err := b.Add(sp)
	if err != nil {
		return PreviewResponse{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	level, err := b.SetLevel(m.ID(), rb.level(req.Level))
	if err != nil {
		return PreviewResponse{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	dmg, err := b.Preview(m.ID(), req.Move)
	if err != nil {
		return PreviewResponse{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return PreviewResponse{Species: sp.Name, Level: level, Move: req.Move, Damage: dmg}, nil
}

func (rb rosterBuilder) level(requested int) int {
	if requested == 0 {
		return rb.defaultLevel
	}
	return requested
}
