package battle

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/battlesim/internal/game/creature"
	"github.com/cory-johannsen/battlesim/internal/game/dice"
)

// Resolver applies one intent to a session. A move or switch intent resolves a
// full exchange: the player's action, then the opponent's unless the exchange
// ended early.
type Resolver struct {
	chooser MoveChooser
}

// NewResolver returns a Resolver whose opponent uses chooser. A nil chooser
// selects RandomChooser.
func NewResolver(chooser MoveChooser) *Resolver {
	if chooser == nil {
		chooser = RandomChooser{}
	}
	return &Resolver{chooser: chooser}
}

// ResolveExchange validates in against s and, if legal, applies it.
//
// ctx bounds the opponent's move choice; src supplies every random draw, so a
// seeded src replays the same exchange.
//
// Precondition: s, and src for exchanges that reach the opponent, must be non-nil.
// Postcondition: On error s is unchanged. On success the returned events are
// exactly those appended to s.Log.
func (r *Resolver) ResolveExchange(ctx context.Context, s *Session, in Intent, src dice.Source) ([]Event, error) {
	if err := r.validate(s, in); err != nil {
		return nil, err
	}
	start := len(s.Log)
	switch in.Type {
	case IntentOpenSwitchMenu:
		s.Phase = PhaseSwitchMenuOpen
	case IntentCloseSwitchMenu:
		s.Phase = PhaseOngoing
	case IntentMove:
		move, _ := s.Rosters.Active(SidePlayer).Move(in.MoveName)
		s.Exchange++
		s.Turn = SidePlayer
		if !r.attack(s, SidePlayer, move) {
			r.opponentTurn(ctx, s, src)
		}
	case IntentSwitch:
		from := s.Rosters.Active(SidePlayer)
		if err := s.Rosters.SetActive(SidePlayer, in.CombatantID); err != nil {
			return nil, err
		}
		s.Exchange++
		s.Turn = SidePlayer
		to := s.Rosters.Active(SidePlayer)
		s.record(SidePlayer, EventSwitch, switchText(from.Name, to.Name), 0, to.ID)
		s.Phase = PhaseOngoing
		r.opponentTurn(ctx, s, src)
	case IntentReplace:
		if err := s.Rosters.SetActive(SidePlayer, in.CombatantID); err != nil {
			return nil, err
		}
		to := s.Rosters.Active(SidePlayer)
		s.record(SidePlayer, EventSwitch, chooseText(to.Name), 0, to.ID)
		s.Phase = PhaseOngoing
		s.Turn = SidePlayer
	}
	out := make([]Event, len(s.Log)-start)
	copy(out, s.Log[start:])
	return out, nil
}

// validate checks in against the phase and the player's roster without mutating s.
func (r *Resolver) validate(s *Session, in Intent) error {
	if s.Phase == PhaseConcluded {
		return ErrBattleConcluded
	}
	if !s.Phase.accepts(in.Type) {
		return fmt.Errorf("%q not accepted while %s: %w", in.Type, s.Phase, ErrInvalidIntent)
	}
	roster := s.Rosters.Roster(SidePlayer)
	switch in.Type {
	case IntentMove:
		active := roster.Active()
		if active == nil {
			return fmt.Errorf("no active combatant: %w", ErrInvalidIntent)
		}
		m, ok := active.Move(in.MoveName)
		if !ok {
			return fmt.Errorf("%s does not know %q: %w", active.Name, in.MoveName, ErrUnknownMove)
		}
		if !m.Usable() {
			return fmt.Errorf("%s cannot use %q: %w", active.Name, m.Name, ErrUnknownMove)
		}
	case IntentSwitch, IntentReplace:
		if roster.Defeated() {
			return ErrEmptyRoster
		}
		target, ok := roster.Member(in.CombatantID)
		if !ok {
			return fmt.Errorf("no combatant %q: %w", in.CombatantID, ErrInvalidIntent)
		}
		if target.Fainted() {
			return fmt.Errorf("%s has fainted: %w", target.Name, ErrInvalidIntent)
		}
		if target == roster.Active() {
			return fmt.Errorf("%s is already active: %w", target.Name, ErrInvalidIntent)
		}
	}
	return nil
}

// attack has side's active combatant use move on the opposing active combatant.
// It reports whether the exchange ended: the defender fainted or the attack
// could not take place.
func (r *Resolver) attack(s *Session, side Side, move creature.Move) bool {
	actor := s.Rosters.Active(side)
	target := s.Rosters.Active(side.Other())
	if actor == nil || actor.Fainted() || target == nil {
		return true
	}
	dmg, err := ComputeDamage(move, actor, target)
	if err != nil {
		s.record(side, EventMiss, missText(actor.Name), 0, actor.ID)
		return false
	}
	s.Rosters.ApplyDamage(side.Other(), dmg)
	s.record(side, EventDamage, damageText(actor.Name, move.Name, dmg, target.Name), dmg, target.ID)
	if target.Fainted() {
		r.handleFaint(s, side.Other(), target)
		return true
	}
	return false
}

// handleFaint records the faint of side's combatant and advances the
// battle: conclusion, automatic opponent send-out, or a pending player replacement.
func (r *Resolver) handleFaint(s *Session, side Side, fainted *creature.Combatant) {
	roster := s.Rosters.Roster(side)
	s.record(side, EventFaint, faintText(fainted.Name), 0, fainted.ID)

	switch {
	case roster.Defeated() && side == SideOpponent:
		s.record(SidePlayer, EventWin, winText, 0, "")
		s.conclude(OutcomePlayerWin)
	case roster.Defeated():
		s.record(SidePlayer, EventLose, loseText, 0, "")
		s.conclude(OutcomePlayerLoss)
	case side == SideOpponent:
		next := roster.Living()[0]
		// next is living, so SetActive cannot fail.
		_ = s.Rosters.SetActive(SideOpponent, next.ID)
		s.record(SideOpponent, EventSwitch, sendOutText(next.Name), 0, next.ID)
		s.Turn = SidePlayer
	default:
		s.Phase = PhaseAwaitingFaintReplacement
		s.Turn = SidePlayer
	}
}

// opponentTurn lets the opponent's active combatant act against the player.
func (r *Resolver) opponentTurn(ctx context.Context, s *Session, src dice.Source) {
	actor := s.Rosters.Active(SideOpponent)
	target := s.Rosters.Active(SidePlayer)
	if actor == nil || actor.Fainted() || target == nil {
		return
	}
	s.Turn = SideOpponent
	move, err := r.chooser.ChooseMove(ctx, actor, target, src)
	if err != nil {
		s.record(SideOpponent, EventMiss, missText(actor.Name), 0, actor.ID)
	} else {
		r.attack(s, SideOpponent, move)
	}
	if s.Phase != PhaseConcluded {
		s.Turn = SidePlayer
	}
}
