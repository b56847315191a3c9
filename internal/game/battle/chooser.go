package battle

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/battlesim/internal/game/creature"
	"github.com/cory-johannsen/battlesim/internal/game/dice"
)

// MoveChooser selects the opponent's move for its half of an exchange.
type MoveChooser interface {
	// ChooseMove returns one of actor's usable moves to use against target.
	// Every random draw comes from src.
	//
	// Precondition: actor and target are living.
	ChooseMove(ctx context.Context, actor, target *creature.Combatant, src dice.Source) (creature.Move, error)
}

// RandomChooser picks uniformly among the actor's usable moves.
type RandomChooser struct{}

// ChooseMove draws a usable move with src.Intn.
//
// Postcondition: Returns ErrUnknownMove if actor has no usable moves.
func (RandomChooser) ChooseMove(_ context.Context, actor, _ *creature.Combatant, src dice.Source) (creature.Move, error) {
	usable := actor.UsableMoves()
	if len(usable) == 0 {
		return creature.Move{}, fmt.Errorf("%s has no usable moves: %w", actor.Name, ErrUnknownMove)
	}
	return usable[dice.Pick(src, len(usable))], nil
}
