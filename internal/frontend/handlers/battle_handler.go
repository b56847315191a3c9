// Package handlers provides the Telnet session handler for text battles.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/battlesim/internal/config"
	"github.com/cory-johannsen/battlesim/internal/frontend/telnet"
	"github.com/cory-johannsen/battlesim/internal/game/battle"
	"github.com/cory-johannsen/battlesim/internal/game/catalog"
	"github.com/cory-johannsen/battlesim/internal/game/command"
	"github.com/cory-johannsen/battlesim/internal/game/dice"
	"github.com/cory-johannsen/battlesim/internal/game/team"
)

const welcomeBanner = "\r\n" + telnet.Bold + telnet.BrightCyan +
	"  ~~ BATTLESIM ~~" + telnet.Reset + "\r\n\r\n" +
	"  Pick a difficulty, build your team of up to three, build your\r\n" +
	"  opponent's team, then battle.\r\n\r\n" +
	"  Start with " + telnet.Green + "difficulty <easy|medium|hard>" + telnet.Reset +
	", or type " + telnet.Green + "help" + telnet.Reset + ".\r\n"

// Choosers resolves the opponent's move policy for a difficulty.
type Choosers interface {
	Chooser(d battle.Difficulty) battle.MoveChooser
}

// BattleHandler implements telnet.SessionHandler. Each connection picks a
// difficulty, builds both teams, and plays battles until it quits.
type BattleHandler struct {
	catalog         catalog.Catalog
	choosers        Choosers
	commands        *command.Registry
	limits          team.Limits
	suggestionLimit int
	pacing          time.Duration
	newSource       func() dice.Source
	logger          *zap.Logger
}

// HandlerOption customises a BattleHandler.
type HandlerOption func(*BattleHandler)

// WithSourceFactory sets how each session obtains its random source.
func WithSourceFactory(f func() dice.Source) HandlerOption {
	return func(h *BattleHandler) { h.newSource = f }
}

// WithRegistry replaces the built-in command registry.
func WithRegistry(r *command.Registry) HandlerOption {
	return func(h *BattleHandler) { h.commands = r }
}

// NewBattleHandler creates a BattleHandler.
//
// Precondition: cat, choosers, and logger must be non-nil.
// Postcondition: Returns a handler ready to serve sessions.
func NewBattleHandler(cat catalog.Catalog, choosers Choosers, cfg config.BattleConfig, logger *zap.Logger, opts ...HandlerOption) *BattleHandler {
	h := &BattleHandler{
		catalog:  cat,
		choosers: choosers,
		commands: command.DefaultRegistry(),
		limits: team.Limits{
			MaxMembers:   cfg.MaxRoster,
			MaxMoves:     cfg.MaxMoves,
			DefaultLevel: cfg.DefaultLevel,
		},
		suggestionLimit: cfg.SuggestionLimit,
		pacing:          cfg.Pacing,
		newSource:       dice.NewCryptoSource,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleSession implements telnet.SessionHandler.
//
// Postcondition: Returns nil on a clean quit, ctx.Err() on shutdown, or the
// connection error that ended the session.
func (h *BattleHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	start := time.Now()
	s := &session{
		h:      h,
		conn:   conn,
		src:    dice.NewLoggedSource(h.newSource(), h.logger),
		stage:  command.StageBuild,
		logger: h.logger.With(zap.String("remote_addr", conn.RemoteAddr().String())),
	}
	s.teams[battle.SidePlayer] = team.NewBuilder(battle.SidePlayer, h.limits)
	s.teams[battle.SideOpponent] = team.NewBuilder(battle.SideOpponent, h.limits)

	if err := conn.Write([]byte(welcomeBanner)); err != nil {
		return fmt.Errorf("sending welcome: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Server shutting down. Goodbye!"))
			return ctx.Err()
		default:
		}

		if err := conn.WritePrompt(s.prompt()); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		line, err := conn.ReadLine()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		parsed := command.Parse(line)
		if parsed.Command == "" {
			continue
		}
		cmd, ok := h.commands.Resolve(parsed.Command)
		if !ok {
			_ = conn.WriteLine(telnet.Colorf(telnet.Red, "Unknown command: %s. Type 'help' for available commands.", parsed.Command))
			continue
		}
		if !cmd.ValidIn(s.stage) {
			_ = conn.WriteLine(telnet.Colorf(telnet.Red, "You can't use '%s' right now.", cmd.Name))
			continue
		}
		if len(parsed.Args) < cmd.MinArgs {
			_ = conn.WriteLine(telnet.Colorf(telnet.Red, "Usage: %s", cmd.Usage))
			continue
		}

		quit, err := s.dispatch(ctx, cmd, parsed)
		if err != nil {
			return err
		}
		if quit {
			_ = conn.WriteLine(telnet.Colorize(telnet.Cyan, "Goodbye!"))
			s.logger.Info("client quit",
				zap.Int("battles", s.battles),
				zap.Duration("session_duration", time.Since(start)),
			)
			return nil
		}
	}
}

// session is the per-connection state.
type session struct {
	h      *BattleHandler
	conn   *telnet.Conn
	src    dice.Source
	logger *zap.Logger

	stage   command.Stage
	teams   [2]*team.Builder
	editing battle.Side
	player  *battle.Roster
	battle  *battle.Battle
	battles int
}

func (s *session) prompt() string {
	if s.stage == command.StageBattle {
		snap := s.battle.Snapshot()
		switch snap.Phase {
		case battle.PhaseAwaitingFaintReplacement:
			return telnet.Colorize(telnet.BrightYellow, "[replace] > ")
		case battle.PhaseSwitchMenuOpen:
			return telnet.Colorize(telnet.BrightYellow, "[switch] > ")
		}
		return telnet.Colorize(telnet.BrightWhite, "[battle] > ")
	}
	b := s.teams[s.editing]
	diff := string(s.teams[battle.SidePlayer].Difficulty())
	if diff == "" {
		diff = "none"
	}
	return telnet.Colorf(telnet.BrightWhite, "[%s team %d/%d | %s] > ",
		b.Side(), b.Len(), b.Limits().MaxMembers, diff)
}

// dispatch runs one resolved command. It reports whether the session should end.
// Only connection failures are returned as errors; everything else is shown
// to the player.
func (s *session) dispatch(ctx context.Context, cmd *command.Command, p command.ParseResult) (bool, error) {
	switch cmd.Handler {
	case command.HandlerQuit:
		return true, nil
	case command.HandlerHelp:
		return false, s.conn.Write([]byte(RenderHelp(s.h.commands, s.stage)))

	case command.HandlerDifficulty:
		return false, s.setDifficulty(p.Args[0])
	case command.HandlerSearch:
		return false, s.search(ctx, p.Tail(0))
	case command.HandlerAdd:
		return false, s.add(ctx, p.Tail(0))
	case command.HandlerRemove:
		return false, s.report(s.builder().Remove(p.Args[0]), "Removed %s.", p.Args[0])
	case command.HandlerLevel:
		return false, s.setLevel(p.Args[0], p.Args[1])
	case command.HandlerLearn:
		return false, s.learn(p.Args[0], p.Tail(1))
	case command.HandlerForget:
		return false, s.report(s.builder().RemoveMove(p.Args[0], p.Tail(1)), "%s forgot %s.", p.Args[0], p.Tail(1))
	case command.HandlerPreview:
		return false, s.preview(p.Args[0], p.Tail(1))
	case command.HandlerRandom:
		return false, s.randomize(ctx)
	case command.HandlerTeam:
		return false, s.showTeam()
	case command.HandlerDone:
		return false, s.done(ctx)

	case command.HandlerMove:
		return false, s.submit(ctx, battle.MoveIntent(p.Tail(0)))
	case command.HandlerSwitch:
		if len(p.Args) == 0 {
			return false, s.submit(ctx, battle.Intent{Type: battle.IntentOpenSwitchMenu})
		}
		return false, s.submit(ctx, battle.SwitchIntent(p.Args[0]))
	case command.HandlerBack:
		return false, s.submit(ctx, battle.Intent{Type: battle.IntentCloseSwitchMenu})
	case command.HandlerReplace:
		return false, s.submit(ctx, battle.ReplaceIntent(p.Args[0]))
	case command.HandlerLog:
		return false, s.conn.Write([]byte(RenderLog(s.battle.Snapshot().Log)))
	case command.HandlerStatus:
		return false, s.conn.Write([]byte(RenderSnapshot(s.battle.Snapshot())))
	}
	return false, s.conn.WriteLine(telnet.Colorf(telnet.Red, "'%s' is not implemented.", cmd.Name))
}

func (s *session) builder() *team.Builder { return s.teams[s.editing] }

// report shows err to the player, or the formatted success line when err is nil.
func (s *session) report(err error, format string, args ...any) error {
	if err != nil {
		return s.conn.WriteLine(telnet.Colorize(telnet.Red, describe(err)))
	}
	return s.conn.WriteLine(telnet.Colorf(telnet.Green, format, args...))
}

func (s *session) setDifficulty(raw string) error {
	d, err := team.ParseDifficulty(raw)
	if err != nil {
		return s.conn.WriteLine(telnet.Colorize(telnet.Red, "Difficulty must be easy, medium, or hard."))
	}
	s.teams[battle.SidePlayer].SetDifficulty(d)
	return s.conn.WriteLine(telnet.Colorf(telnet.Green, "Difficulty set to %s. Now 'add' species to your team.", d))
}

func (s *session) search(ctx context.Context, term string) error {
	names, err := s.h.catalog.Names(ctx)
	if err != nil {
		s.logger.Error("listing species", zap.Error(err))
		return s.conn.WriteLine(telnet.Colorize(telnet.Red, "The species catalog is unavailable."))
	}
	return s.conn.WriteLine(RenderSuggestions(term, catalog.Suggest(names, term, s.h.suggestionLimit)))
}

func (s *session) add(ctx context.Context, key string) error {
	sp, err := s.h.catalog.Species(ctx, key)
	if errors.Is(err, catalog.ErrSpeciesNotFound) {
		if sErr := s.conn.WriteLine(telnet.Colorf(telnet.Red, "No species named %q.", key)); sErr != nil {
			return sErr
		}
		return s.search(ctx, key)
	}
	if err != nil {
		s.logger.Error("loading species", zap.String("species", key), zap.Error(err))
		return s.conn.WriteLine(telnet.Colorize(telnet.Red, "The species catalog is unavailable."))
	}
	m, err := s.builder().Add(sp)
	if err != nil {
		return s.report(err, "")
	}
	return s.conn.WriteLine(telnet.Colorf(telnet.Green, "Added %s as '%s' (Lv.%d). Learnable: %s",
		m.Combatant.Name, m.ID(), m.Combatant.Level, moveNames(m.Learnable())))
}

func (s *session) setLevel(id, raw string) error {
	level, err := strconv.Atoi(raw)
	if err != nil {
		return s.conn.WriteLine(telnet.Colorf(telnet.Red, "Level must be a number, got %q.", raw))
	}
	applied, err := s.builder().SetLevel(id, level)
	return s.report(err, "%s is now level %d.", id, applied)
}

func (s *session) learn(id, moveName string) error {
	mv, err := s.builder().SelectMove(id, moveName)
	return s.report(err, "%s learned %s.", id, mv.Name)
}

func (s *session) preview(id, moveName string) error {
	dmg, err := s.builder().Preview(id, moveName)
	return s.report(err, "%s would deal about %d damage to a copy of itself.", moveName, dmg)
}

func (s *session) randomize(ctx context.Context) error {
	if err := s.builder().Randomize(ctx, s.h.catalog, s.src); err != nil {
		s.logger.Warn("randomizing team", zap.Error(err))
		return s.conn.WriteLine(telnet.Colorize(telnet.Red, describe(err)))
	}
	return s.showTeam()
}

func (s *session) showTeam() error {
	title := "Your team"
	if s.editing == battle.SideOpponent {
		title = "Opponent team"
	}
	return s.conn.Write([]byte(RenderTeam(title, s.builder().Members(), s.builder().Limits())))
}

// done finalizes the team being edited. The player's team comes first; the
// opponent's completes setup and starts the battle.
func (s *session) done(ctx context.Context) error {
	roster, err := s.builder().Finalize()
	if err != nil {
		return s.conn.WriteLine(telnet.Colorize(telnet.Red, describeAll(err)))
	}
	if s.editing == battle.SidePlayer {
		s.player = roster
		s.editing = battle.SideOpponent
		return s.conn.WriteLine(telnet.Colorize(telnet.Green,
			"Your team is ready. Now build the opponent's team, or type 'random'."))
	}

	difficulty := s.teams[battle.SidePlayer].Difficulty()
	b, err := battle.New(s.player, roster,
		battle.WithChooser(s.h.choosers.Chooser(difficulty)),
		battle.WithSource(s.src),
		battle.WithLogger(s.h.logger),
		battle.WithDifficulty(difficulty),
	)
	if err != nil {
		return s.conn.WriteLine(telnet.Colorize(telnet.Red, describe(err)))
	}
	s.battle = b
	s.stage = command.StageBattle
	s.battles++

	snap := b.Snapshot()
	return s.conn.WriteLines(
		telnet.Colorf(telnet.Cyan, "Opponent sent out %s!", snap.Opponent.Active.Name),
		telnet.Colorf(telnet.Cyan, "Go! %s!", snap.Player.Active.Name),
		RenderSnapshot(snap),
	)
}

// submit sends an intent and narrates the result. The configured pacing
// delay separates the player's half of an exchange from the opponent's.
func (s *session) submit(ctx context.Context, in battle.Intent) error {
	events, err := s.battle.Submit(ctx, in)
	if err != nil {
		if !battle.IsRejection(err) {
			s.logger.Error("submitting intent", zap.Stringer("intent", in), zap.Error(err))
		}
		return s.conn.WriteLine(telnet.Colorize(telnet.Red, s.rejection(err)))
	}

	snap := s.battle.Snapshot()
	if in.Type == battle.IntentOpenSwitchMenu {
		return s.conn.Write([]byte(RenderBench(snap.Player)))
	}
	if in.Type == battle.IntentCloseSwitchMenu {
		return s.conn.Write([]byte(RenderSnapshot(snap)))
	}

	prev := battle.SidePlayer
	for _, e := range events {
		opponentActs := e.Actor == battle.SideOpponent && (e.Kind == battle.EventDamage || e.Kind == battle.EventMiss)
		if opponentActs && prev == battle.SidePlayer {
			if err := pause(ctx, s.h.pacing); err != nil {
				return err
			}
		}
		prev = e.Actor
		if err := s.conn.WriteLine(RenderEvent(e)); err != nil {
			return err
		}
	}

	switch snap.Phase {
	case battle.PhaseConcluded:
		s.stage = command.StageBuild
		s.editing = battle.SidePlayer
		return s.conn.WriteLines(
			RenderOutcome(snap.Outcome),
			telnet.Colorize(telnet.Cyan, "Type 'done' twice to rematch with the same teams, or edit them first."),
		)
	case battle.PhaseAwaitingFaintReplacement:
		return s.conn.WriteLines(
			RenderBench(snap.Player),
			telnet.Colorize(telnet.Yellow, "Choose your next combatant with 'replace <member>'."),
		)
	}
	return s.conn.Write([]byte(RenderSnapshot(snap)))
}

func (s *session) rejection(err error) string {
	switch {
	case errors.Is(err, battle.ErrBattleConcluded):
		return "The battle is over."
	case errors.Is(err, battle.ErrUnknownMove):
		return describe(err) + ". Type 'status' to see your moves."
	case errors.Is(err, battle.ErrEmptyRoster):
		return "You have no combatants left."
	case errors.Is(err, battle.ErrInvalidIntent):
		switch s.battle.Phase() {
		case battle.PhaseAwaitingFaintReplacement:
			if strings.Contains(err.Error(), "not accepted") {
				return "You must choose a replacement first: 'replace <member>'."
			}
		case battle.PhaseSwitchMenuOpen:
			if strings.Contains(err.Error(), "not accepted") {
				return "Pick a member with 'switch <member>', or 'back'."
			}
		}
		return describe(err) + "."
	default:
		return "Something went wrong."
	}
}

// subjectPhrases turn builder errors whose context is only a subject (a member
// id or a move name) into a sentence around that subject.
var subjectPhrases = []struct {
	err    error
	format string
}{
	{team.ErrMemberNotFound, "No team member %s"},
	{team.ErrDuplicateMove, "%s is already selected"},
	{team.ErrUnusableMove, "%s has no usable power"},
	{team.ErrTeamFull, "The team is full, %s failed"},
}

// describe renders a wrapped error for display: the context before the
// trailing sentinel text, phrased around its subject where that context alone
// would not read as a sentence.
func describe(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i > 0 {
		msg = msg[:i]
		for _, p := range subjectPhrases {
			if errors.Is(err, p.err) {
				msg = fmt.Sprintf(p.format, msg)
				break
			}
		}
	}
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// describeAll renders every error joined by errors.Join on its own line.
func describeAll(err error) string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		parts := joined.Unwrap()
		lines := make([]string, len(parts))
		for i, p := range parts {
			lines[i] = "  " + p.Error()
		}
		return "Not ready yet:\n" + strings.Join(lines, "\n")
	}
	return describe(err)
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
