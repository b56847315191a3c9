// Package battle implements the turn-based battle engine: the damage model,
// roster state, exchange resolution, and the battle state machine.
package battle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/battlesim/internal/game/dice"
)

// Battle is one player-versus-AI battle. It owns its Session exclusively and
// publishes Snapshot copies.
//
// Battle is not safe for concurrent writers; hosts serialise Submit per battle.
type Battle struct {
	session  *Session
	resolver *Resolver
	src      dice.Source
	logger   *zap.Logger
	tracer   trace.Tracer
	chooser  MoveChooser
}

// Option configures a Battle at construction.
type Option func(*Battle)

// WithChooser sets the opponent's move policy.
func WithChooser(c MoveChooser) Option { return func(b *Battle) { b.chooser = c } }

// WithSource sets the randomness source.
func WithSource(src dice.Source) Option { return func(b *Battle) { b.src = src } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(b *Battle) { b.logger = l } }

// WithTracer sets the tracer used for Submit spans.
func WithTracer(t trace.Tracer) Option { return func(b *Battle) { b.tracer = t } }

// WithDifficulty records the difficulty the battle was started at.
func WithDifficulty(d Difficulty) Option { return func(b *Battle) { b.session.Difficulty = d } }

// New starts a battle between two finalized rosters. The rosters are copied;
// later changes to them do not affect the battle.
//
// Precondition: player and opponent must be non-nil.
// Postcondition: Returns ErrEmptyRoster if either side has no living
// combatant. On success the phase is PhaseOngoing and the player moves first.
func New(player, opponent *Roster, opts ...Option) (*Battle, error) {
	if player == nil || opponent == nil {
		return nil, fmt.Errorf("both rosters are required: %w", ErrInvalidRoster)
	}
	if player.Defeated() {
		return nil, fmt.Errorf("player: %w", ErrEmptyRoster)
	}
	if opponent.Defeated() {
		return nil, fmt.Errorf("opponent: %w", ErrEmptyRoster)
	}
	b := &Battle{
		session: newSession(player.Clone(), opponent.Clone(), DifficultyEasy),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.src == nil {
		b.src = dice.NewCryptoSource()
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.tracer == nil {
		b.tracer = otel.GetTracerProvider().Tracer("battlesim/battle")
	}
	b.resolver = NewResolver(b.chooser)
	b.logger = b.logger.With(zap.String("battle_id", b.session.ID.String()))
	b.logger.Info("battle started",
		zap.String("difficulty", string(b.session.Difficulty)),
		zap.Int("player_roster", len(player.members)),
		zap.Int("opponent_roster", len(opponent.members)),
	)
	return b, nil
}

// ID returns the battle's session ID.
func (b *Battle) ID() uuid.UUID { return b.session.ID }

// Phase returns the current phase.
func (b *Battle) Phase() Phase { return b.session.Phase }

// Outcome returns the current outcome.
func (b *Battle) Outcome() Outcome { return b.session.Outcome }

// Difficulty returns the difficulty the battle was started at.
func (b *Battle) Difficulty() Difficulty { return b.session.Difficulty }

// Submit applies one player intent and returns the events it produced.
//
// Postcondition: On error the session is unchanged. ErrBattleConcluded is
// returned for every intent once the battle has ended.
func (b *Battle) Submit(ctx context.Context, in Intent) ([]Event, error) {
	ctx, span := b.tracer.Start(ctx, "battle.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("battle_id", b.session.ID.String()),
		attribute.String("intent", string(in.Type)),
		attribute.String("phase", string(b.session.Phase)),
	)

	events, err := b.resolver.ResolveExchange(ctx, b.session, in, b.src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.logger.Debug("intent rejected",
			zap.Stringer("intent", in),
			zap.String("phase", string(b.session.Phase)),
			zap.Error(err),
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("exchange", b.session.Exchange),
		attribute.Int("events", len(events)),
	)
	b.logger.Debug("exchange resolved",
		zap.Int("exchange", b.session.Exchange),
		zap.Stringer("intent", in),
		zap.Int("events", len(events)),
		zap.String("phase", string(b.session.Phase)),
	)
	if b.session.Phase == PhaseConcluded {
		span.SetAttributes(attribute.String("outcome", string(b.session.Outcome)))
		b.logger.Info("battle concluded",
			zap.String("outcome", string(b.session.Outcome)),
			zap.Int("exchanges", b.session.Exchange),
		)
	}
	return events, nil
}

// IsRejection reports whether err is a rejected intent rather than an internal failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidIntent) || errors.Is(err, ErrUnknownMove) || errors.Is(err, ErrEmptyRoster)
}
