package handlers

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/battlesim/internal/frontend/telnet"
	"github.com/cory-johannsen/battlesim/internal/game/battle"
	"github.com/cory-johannsen/battlesim/internal/game/command"
	"github.com/cory-johannsen/battlesim/internal/game/creature"
	"github.com/cory-johannsen/battlesim/internal/game/team"
)

// hpBarWidth is the number of cells in a rendered HP gauge.
const hpBarWidth = 20

// RenderCombatant formats one combatant's name, level, and HP gauge.
func RenderCombatant(cv battle.CombatantView) string {
	name := telnet.Colorize(telnet.BrightWhite, cv.Name)
	if cv.Fainted {
		name = telnet.Colorize(telnet.BrightBlack, cv.Name+" (fainted)")
	}
	return fmt.Sprintf("%s Lv.%d  %s %s",
		name, cv.Level,
		telnet.HPBar(cv.CurrentHP, cv.MaxHP, hpBarWidth),
		telnet.Colorf(telnet.HPColor(cv.CurrentHP, cv.MaxHP), "%d/%d", cv.CurrentHP, cv.MaxHP),
	)
}

// RenderSnapshot formats both sides' active combatants and the player's moves.
//
// Postcondition: Returns a multi-line string; the move list is omitted once the battle is concluded.
func RenderSnapshot(s battle.Snapshot) string {
	var b strings.Builder
	b.WriteString(telnet.Colorf(telnet.BrightYellow, "=== Exchange %d ===", s.Exchange))
	b.WriteString("\r\n")
	b.WriteString(renderSide("Opponent", telnet.Red, s.Opponent))
	b.WriteString(renderSide("You", telnet.Green, s.Player))

	if s.Phase == battle.PhaseOngoing && s.Player.Active != nil {
		b.WriteString(telnet.Colorize(telnet.Cyan, "Moves:"))
		b.WriteString("\r\n")
		for _, m := range s.Player.Active.Moves {
			b.WriteString(fmt.Sprintf("  %s%-14s%s %s power %s\r\n",
				telnet.BrightCyan, m.Name, telnet.Reset, categoryLabel(m.Category), m.Power))
		}
	}
	return b.String()
}

func renderSide(label, color string, sv battle.SideView) string {
	var b strings.Builder
	b.WriteString(telnet.Colorf(color, "%-9s", label))
	if sv.Active == nil {
		b.WriteString(telnet.Colorize(telnet.Dim, "no combatant out"))
	} else {
		b.WriteString(RenderCombatant(*sv.Active))
	}
	b.WriteString(telnet.Colorf(telnet.Dim, "  [%d/%d left]", sv.Living, len(sv.Members)))
	b.WriteString("\r\n")
	return b.String()
}

func categoryLabel(c creature.Category) string {
	if c == creature.Special {
		return telnet.Colorize(telnet.Magenta, "special ")
	}
	return telnet.Colorize(telnet.Yellow, "physical")
}

// RenderBench lists the members a switch or replacement may target.
func RenderBench(sv battle.SideView) string {
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.Cyan, "Your team:"))
	b.WriteString("\r\n")
	for _, m := range sv.Members {
		marker := "  "
		if sv.Active != nil && sv.Active.ID == m.ID {
			marker = telnet.Colorize(telnet.BrightGreen, "* ")
		}
		b.WriteString(fmt.Sprintf("%s%-12s %s\r\n", marker, m.ID, RenderCombatant(m)))
	}
	return b.String()
}

// RenderEvent formats one log entry.
func RenderEvent(e battle.Event) string {
	switch e.Kind {
	case battle.EventDamage:
		color := telnet.BrightWhite
		if e.Actor == battle.SideOpponent {
			color = telnet.BrightRed
		}
		return telnet.Colorize(color, e.Text)
	case battle.EventMiss:
		return telnet.Colorize(telnet.Dim, e.Text)
	case battle.EventSwitch:
		return telnet.Colorize(telnet.Cyan, e.Text)
	case battle.EventFaint:
		return telnet.Colorize(telnet.Red, e.Text)
	case battle.EventWin:
		return telnet.Colorize(telnet.Bold+telnet.BrightGreen, e.Text)
	case battle.EventLose:
		return telnet.Colorize(telnet.Bold+telnet.BrightRed, e.Text)
	default:
		return e.Text
	}
}

// RenderLog formats the whole battle log with exchange numbers.
func RenderLog(events []battle.Event) string {
	if len(events) == 0 {
		return telnet.Colorize(telnet.Dim, "Nothing has happened yet.")
	}
	var b strings.Builder
	for _, e := range events {
		b.WriteString(telnet.Colorf(telnet.Dim, "[%2d] ", e.Exchange))
		b.WriteString(RenderEvent(e))
		b.WriteString("\r\n")
	}
	return b.String()
}

// RenderTeam formats a builder's members with their levels, stats, and moves.
func RenderTeam(title string, members []*team.Member, limits team.Limits) string {
	var b strings.Builder
	b.WriteString(telnet.Colorf(telnet.BrightWhite, "=== %s (%d/%d) ===", title, len(members), limits.MaxMembers))
	b.WriteString("\r\n")
	if len(members) == 0 {
		b.WriteString(telnet.Colorize(telnet.Dim, "  No members yet. Use 'add <species>' or 'random'."))
		b.WriteString("\r\n")
		return b.String()
	}
	for _, m := range members {
		c := m.Combatant
		b.WriteString(fmt.Sprintf("  %s%-12s%s %s Lv.%d  HP %d  Atk %d  Def %d  SpA %d  SpD %d  Spe %d\r\n",
			telnet.BrightCyan, c.ID, telnet.Reset, c.Name, c.Level,
			c.Stats.HP, c.Stats.Attack, c.Stats.Defense,
			c.Stats.SpecialAttack, c.Stats.SpecialDefense, c.Stats.Speed))
		if len(c.Moves) == 0 {
			b.WriteString(telnet.Colorf(telnet.Yellow, "      no moves (learnable: %s)", moveNames(m.Learnable())))
		} else {
			b.WriteString(fmt.Sprintf("      moves (%d/%d): %s", len(c.Moves), limits.MaxMoves, moveNames(c.Moves)))
		}
		b.WriteString("\r\n")
	}
	return b.String()
}

func moveNames(moves []creature.Move) string {
	names := make([]string, len(moves))
	for i, m := range moves {
		names[i] = m.Name
	}
	return strings.Join(names, ", ")
}

// RenderHelp lists the commands valid in stage.
func RenderHelp(reg *command.Registry, stage command.Stage) string {
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.BrightWhite, "Available commands:"))
	b.WriteString("\r\n")
	for _, cmd := range reg.ForStage(stage) {
		b.WriteString(fmt.Sprintf("  %s%-28s%s %s\r\n", telnet.Green, cmd.Usage, telnet.Reset, cmd.Help))
	}
	return b.String()
}

// RenderSuggestions lists species search results.
func RenderSuggestions(term string, names []string) string {
	if len(names) == 0 {
		return telnet.Colorf(telnet.Yellow, "No species match %q.", term)
	}
	return telnet.Colorf(telnet.Cyan, "Matches: %s", strings.Join(names, ", "))
}

// RenderOutcome formats the end-of-battle banner.
func RenderOutcome(o battle.Outcome) string {
	switch o {
	case battle.OutcomePlayerWin:
		return telnet.Colorize(telnet.Bold+telnet.BrightGreen, "*** Victory! ***")
	case battle.OutcomePlayerLoss:
		return telnet.Colorize(telnet.Bold+telnet.BrightRed, "*** Defeat ***")
	default:
		return ""
	}
}
