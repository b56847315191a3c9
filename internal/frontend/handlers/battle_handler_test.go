package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/battlesim/internal/config"
	"github.com/cory-johannsen/battlesim/internal/frontend/telnet"
	"github.com/cory-johannsen/battlesim/internal/game/battle"
	"github.com/cory-johannsen/battlesim/internal/game/catalog"
	"github.com/cory-johannsen/battlesim/internal/game/creature"
	"github.com/cory-johannsen/battlesim/internal/game/dice"
	"github.com/cory-johannsen/battlesim/internal/game/team"
)

type randomChoosers struct{}

func (randomChoosers) Chooser(battle.Difficulty) battle.MoveChooser { return battle.RandomChooser{} }

func uniform(n int) *creature.Stats {
	return &creature.Stats{HP: n, Attack: n, Defense: n, Speed: n, SpecialAttack: n, SpecialDefense: n}
}

func testCatalog(t *testing.T) catalog.Catalog {
	t.Helper()
	mem, err := catalog.NewMemory([]*catalog.Species{
		{
			Number: 1, Name: "titan", Stage: creature.StageFinalEvolution, Base: uniform(255),
			Moves: []creature.Move{
				{Name: "crush", Power: creature.PowerOf(250), Category: creature.Physical},
				{Name: "glare", Power: creature.UnknownPower(), Category: creature.Special},
			},
		},
		{
			Number: 2, Name: "sapling", Stage: creature.StageBasic, Base: uniform(1),
			Moves: []creature.Move{
				{Name: "tap", Power: creature.PowerOf(10), Category: creature.Physical},
			},
		},
	})
	require.NoError(t, err)
	return mem
}

func newTestHandler(t *testing.T) *BattleHandler {
	cfg := config.BattleConfig{DefaultLevel: 50, MaxRoster: 3, MaxMoves: 4, SuggestionLimit: 5}
	return NewBattleHandler(testCatalog(t), randomChoosers{}, cfg, zaptest.NewLogger(t),
		WithSourceFactory(func() dice.Source { return dice.NewSeededSource(7) }),
	)
}

// runSession feeds lines to a session over an in-memory pipe and returns the
// transcript with colour codes removed.
func runSession(t *testing.T, h *BattleHandler, lines ...string) (string, error) {
	t.Helper()
	server, client := net.Pipe()
	conn := telnet.NewConn(server, 5*time.Second, 5*time.Second)

	var out bytes.Buffer
	copied := make(chan struct{})
	go func() {
		_, _ = io.Copy(&out, client)
		close(copied)
	}()
	go func() {
		for _, l := range lines {
			if _, err := client.Write([]byte(l + "\r\n")); err != nil {
				return
			}
		}
	}()

	err := h.HandleSession(context.Background(), conn)
	_ = server.Close()
	<-copied
	_ = client.Close()
	return telnet.StripANSI(strings.ReplaceAll(out.String(), "\r\n", "\n")), err
}

func TestHandleSession_PlayerWins(t *testing.T) {
	out, err := runSession(t, newTestHandler(t),
		"difficulty hard",
		"add titan",
		"learn titan crush",
		"done",
		"add sapling",
		"learn sapling tap",
		"done",
		"attack crush",
		"quit",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Difficulty set to hard")
	assert.Contains(t, out, "Added Titan as 'titan'")
	assert.Contains(t, out, "titan learned crush.")
	assert.Contains(t, out, "Your team is ready.")
	assert.Contains(t, out, "Opponent sent out Sapling!")
	assert.Contains(t, out, "Go! Titan!")
	assert.Contains(t, out, "Titan uses crush for")
	assert.Contains(t, out, "Sapling fainted!")
	assert.Contains(t, out, "You won the battle!")
	assert.Contains(t, out, "*** Victory! ***")
	assert.NotContains(t, out, "Sapling uses tap", "a fainted defender does not act")
	assert.Contains(t, out, "Goodbye!")
}

func TestHandleSession_PlayerLoses(t *testing.T) {
	out, err := runSession(t, newTestHandler(t),
		"difficulty easy",
		"add sapling",
		"learn sapling tap",
		"done",
		"add titan",
		"learn titan crush",
		"done",
		"attack tap",
		"attack tap",
		"quit",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Sapling uses tap for")
	assert.Contains(t, out, "Titan uses crush for")
	assert.Contains(t, out, "You have no more combatants! You blacked out!")
	assert.Contains(t, out, "*** Defeat ***")
	assert.Contains(t, out, "You can't use 'attack' right now.", "the session returns to team building")
}

func TestHandleSession_FaintReplacement(t *testing.T) {
	out, err := runSession(t, newTestHandler(t),
		"difficulty medium",
		"add sapling",
		"learn sapling tap",
		"add sapling",
		"learn sapling-2 tap",
		"done",
		"add titan",
		"learn titan crush",
		"done",
		"attack tap",
		"attack tap",
		"switch",
		"replace sapling",
		"replace sapling-2",
		"status",
		"quit",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Added Sapling as 'sapling-2'")
	assert.Contains(t, out, "Choose your next combatant with 'replace <member>'.")
	assert.Contains(t, out, "You must choose a replacement first: 'replace <member>'.")
	assert.Contains(t, out, "Sapling has fainted.")
	assert.Contains(t, out, "Sapling, I choose you!")
	assert.Contains(t, out, "[1/2 left]")
}

func TestHandleSession_BuildErrors(t *testing.T) {
	out, err := runSession(t, newTestHandler(t),
		"attack crush",
		"fly",
		"difficulty nightmare",
		"add",
		"add zzz",
		"search ti",
		"add titan",
		"learn titan glare",
		"learn titan crush",
		"learn titan crush",
		"level titan abc",
		"level titan 500",
		"preview titan crush",
		"forget titan crush",
		"done",
		"team",
		"quit",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "You can't use 'attack' right now.")
	assert.Contains(t, out, "Unknown command: fly.")
	assert.Contains(t, out, "Difficulty must be easy, medium, or hard.")
	assert.Contains(t, out, "Usage: add <species>")
	assert.Contains(t, out, `No species named "zzz".`)
	assert.Contains(t, out, `No species match "zzz".`)
	assert.Contains(t, out, "Matches: titan")
	assert.Contains(t, out, "titan is now level 100.")
	assert.Contains(t, out, "Level must be a number")
	assert.Contains(t, out, "would deal about")
	assert.Contains(t, out, "titan forgot crush.")
	assert.Contains(t, out, "Not ready yet:")
	assert.Contains(t, out, "difficulty not selected")
	assert.Contains(t, out, "Your team (1/3)")
}

func TestHandleSession_UnknownMember(t *testing.T) {
	out, err := runSession(t, newTestHandler(t),
		"add titan",
		"remove zz",
		"level zz 10",
		"learn zz crush",
		"quit",
	)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, `No team member "zz"`))
}

func TestHandleSession_SwitchMenu(t *testing.T) {
	out, err := runSession(t, newTestHandler(t),
		"difficulty easy",
		"add titan",
		"learn titan crush",
		"add sapling",
		"learn sapling tap",
		"done",
		"add titan",
		"learn titan crush",
		"done",
		"switch",
		"attack crush",
		"back",
		"switch sapling",
		"log",
		"quit",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Your team:")
	assert.Contains(t, out, "Pick a member with 'switch <member>', or 'back'.")
	assert.Contains(t, out, "Titan switched to Sapling")
}

func TestHandleSession_ReturnsConnectionError(t *testing.T) {
	server, client := net.Pipe()
	go func() { _, _ = io.Copy(io.Discard, client) }()
	go func() {
		_, _ = client.Write([]byte("help\r\n"))
		_ = client.Close()
	}()

	err := newTestHandler(t).HandleSession(context.Background(), telnet.NewConn(server, time.Second, time.Second))
	assert.Error(t, err, "a dropped client ends the session with an error")
}

func TestHandleSession_StopsOnCancelledContext(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	go func() { _, _ = io.Copy(io.Discard, client) }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newTestHandler(t).HandleSession(ctx, telnet.NewConn(server, time.Second, time.Second))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDescribe(t *testing.T) {
	wrapped := fmt.Errorf("sapling has fainted: %w", battle.ErrInvalidIntent)
	assert.Equal(t, "Sapling has fainted", describe(wrapped))
	assert.Equal(t, "Boom", describe(errors.New("boom")))
	assert.Equal(t, `No team member "zz"`, describe(fmt.Errorf("%q: %w", "zz", team.ErrMemberNotFound)))
	assert.Equal(t, "Crush is already selected", describe(fmt.Errorf("%s: %w", "crush", team.ErrDuplicateMove)))
	assert.Equal(t, "The team is full, adding Titan failed", describe(fmt.Errorf("adding Titan: %w", team.ErrTeamFull)))

	joined := fmt.Errorf("finalizing player team: %w", errors.Join(errors.New("a"), errors.New("b")))
	assert.Equal(t, "Not ready yet:\n  a\n  b", describeAll(joined))
}

func TestPause(t *testing.T) {
	assert.NoError(t, pause(context.Background(), 0))

	start := time.Now()
	assert.NoError(t, pause(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pause(ctx, time.Hour), context.Canceled)
}
