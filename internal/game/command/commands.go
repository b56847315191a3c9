// Package command provides the text command registry, parser, and the
// built-in team-building and battle commands.
package command

// Categories for organizing commands in help output.
const (
	CategoryTeam   = "team"
	CategoryBattle = "battle"
	CategorySystem = "system"
)

// Stage is the part of a session a command is valid in.
type Stage int

const (
	// StageBuild covers difficulty selection and team building.
	StageBuild Stage = 1 << iota
	// StageBattle covers the battle loop.
	StageBattle

	StageAny = StageBuild | StageBattle
)

// Handler identifiers dispatched by the session handler.
const (
	HandlerDifficulty = "difficulty"
	HandlerSearch     = "search"
	HandlerAdd        = "add"
	HandlerRemove     = "remove"
	HandlerLevel      = "level"
	HandlerLearn      = "learn"
	HandlerForget     = "forget"
	HandlerPreview    = "preview"
	HandlerRandom     = "random"
	HandlerTeam       = "team"
	HandlerDone       = "done"
	HandlerMove       = "move"
	HandlerSwitch     = "switch"
	HandlerBack       = "back"
	HandlerReplace    = "replace"
	HandlerLog        = "log"
	HandlerStatus     = "status"
	HandlerHelp       = "help"
	HandlerQuit       = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument form, e.g. "add <species>".
	Usage string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command in help output.
	Category string
	// Stages is the set of stages the command is accepted in.
	Stages Stage
	// Handler names the action the session handler performs.
	Handler string
	// MinArgs is the number of arguments the command requires.
	MinArgs int
}

// ValidIn reports whether the command is accepted in stage.
func (c *Command) ValidIn(stage Stage) bool { return c.Stages&stage != 0 }

// BuiltinCommands returns the team-building, battle, and system commands.
func BuiltinCommands() []Command {
	return []Command{
		// Team building
		{Name: "difficulty", Aliases: []string{"diff"}, Usage: "difficulty <easy|medium|hard>", Help: "Choose the opponent's difficulty", Category: CategoryTeam, Stages: StageBuild, Handler: HandlerDifficulty, MinArgs: 1},
		{Name: "search", Aliases: []string{"find"}, Usage: "search <text>", Help: "Suggest species whose name contains text", Category: CategoryTeam, Stages: StageBuild, Handler: HandlerSearch, MinArgs: 1},
		{Name: "add", Usage: "add <species>", Help: "Add a species to your team", Category: CategoryTeam, Stages: StageBuild, Handler: HandlerAdd, MinArgs: 1},
		{Name: "remove", Aliases: []string{"rm"}, Usage: "remove <member>", Help: "Remove a team member", Category: CategoryTeam, Stages: StageBuild, Handler: HandlerRemove, MinArgs: 1},
		{Name: "level", Aliases: []string{"lv"}, Usage: "level <member> <1-100>", Help: "Set a member's level", Category: CategoryTeam, Stages: StageBuild, Handler: HandlerLevel, MinArgs: 2},
		{Name: "learn", Usage: "learn <member> <move>", Help: "Give a member a move", Category: CategoryTeam, Stages: StageBuild, Handler: HandlerLearn, MinArgs: 2},
		{Name: "forget", Usage: "forget <member> <move>", Help: "Remove a move from a member", Category: CategoryTeam, Stages: StageBuild, Handler: HandlerForget, MinArgs: 2},
		{Name: "preview", Aliases: []string{"pv"}, Usage: "preview <member> <move>", Help: "Estimate a move's damage", Category: CategoryTeam, Stages: StageBuild, Handler: HandlerPreview, MinArgs: 2},
		{Name: "random", Aliases: []string{"rand"}, Usage: "random", Help: "Replace your team with a random one", Category: CategoryTeam, Stages: StageBuild, Handler: HandlerRandom},
		{Name: "team", Aliases: []string{"t"}, Usage: "team", Help: "Show your team", Category: CategoryTeam, Stages: StageBuild, Handler: HandlerTeam},
		{Name: "done", Aliases: []string{"ready"}, Usage: "done", Help: "Finish building and start the battle", Category: CategoryTeam, Stages: StageBuild, Handler: HandlerDone},

		// Battle
		{Name: "attack", Aliases: []string{"move", "a"}, Usage: "attack <move>", Help: "Use a move", Category: CategoryBattle, Stages: StageBattle, Handler: HandlerMove, MinArgs: 1},
		{Name: "switch", Aliases: []string{"sw"}, Usage: "switch [member]", Help: "Open the switch menu, or switch to a member", Category: CategoryBattle, Stages: StageBattle, Handler: HandlerSwitch},
		{Name: "back", Aliases: []string{"cancel"}, Usage: "back", Help: "Close the switch menu", Category: CategoryBattle, Stages: StageBattle, Handler: HandlerBack},
		{Name: "replace", Aliases: []string{"send"}, Usage: "replace <member>", Help: "Send out a member after a faint", Category: CategoryBattle, Stages: StageBattle, Handler: HandlerReplace, MinArgs: 1},
		{Name: "log", Aliases: []string{"history"}, Usage: "log", Help: "Show the battle log", Category: CategoryBattle, Stages: StageBattle, Handler: HandlerLog},
		{Name: "status", Aliases: []string{"st"}, Usage: "status", Help: "Show both sides", Category: CategoryBattle, Stages: StageBattle, Handler: HandlerStatus},

		// System
		{Name: "help", Aliases: []string{"?"}, Usage: "help", Help: "Show available commands", Category: CategorySystem, Stages: StageAny, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit"}, Usage: "quit", Help: "Disconnect", Category: CategorySystem, Stages: StageAny, Handler: HandlerQuit},
	}
}
