// Package command provides the console command registry, parser, and the
// built-in arena commands.
package command

// Categories for organizing commands.
const (
	CategoryRoster = "roster"
	CategoryMatch  = "match"
	CategoryInput  = "input"
	CategorySystem = "system"
)

// Handler identifiers mapping commands to console actions.
const (
	HandlerFighters = "fighters"
	HandlerSelect   = "select"
	HandlerFight    = "fight"
	HandlerReset    = "reset"
	HandlerStatus   = "status"
	HandlerPress    = "press"
	HandlerRelease  = "release"
	HandlerTap      = "tap"
	HandlerCombo    = "combo"
	HandlerKeys     = "keys"
	HandlerHelp     = "help"
	HandlerQuit     = "quit"
)

// Command defines a console command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument form, e.g. "select <fighter>".
	Usage string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command.
	Category string
	// Handler maps to the console action.
	Handler string
	// MinArgs is the number of arguments the command requires.
	MinArgs int
}

// BuiltinCommands returns all built-in console commands.
func BuiltinCommands() []Command {
	return []Command{
		// Roster
		{Name: "fighters", Aliases: []string{"roster", "ls"}, Help: "List selectable fighters", Category: CategoryRoster, Handler: HandlerFighters},
		{Name: "select", Aliases: []string{"pick", "sel"}, Usage: "select <fighter>", Help: "Select a fighter for the next open slot", Category: CategoryRoster, Handler: HandlerSelect, MinArgs: 1},

		// Match
		{Name: "fight", Aliases: []string{"start"}, Help: "Start the match between the selected fighters", Category: CategoryMatch, Handler: HandlerFight},
		{Name: "reset", Aliases: []string{"new"}, Help: "New game: clear the match and the selection", Category: CategoryMatch, Handler: HandlerReset},
		{Name: "status", Aliases: []string{"st", "look"}, Help: "Redraw the arena", Category: CategoryMatch, Handler: HandlerStatus},

		// Input
		{Name: "press", Aliases: []string{"down", "kd"}, Usage: "press <key>...", Help: "Press and hold keys, e.g. press d", Category: CategoryInput, Handler: HandlerPress, MinArgs: 1},
		{Name: "release", Aliases: []string{"up", "ku"}, Usage: "release <key>...", Help: "Release held keys", Category: CategoryInput, Handler: HandlerRelease, MinArgs: 1},
		{Name: "tap", Aliases: []string{"t", "hit"}, Usage: "tap <key>...", Help: "Press and release keys, e.g. tap a", Category: CategoryInput, Handler: HandlerTap, MinArgs: 1},
		{Name: "combo", Aliases: []string{"crit"}, Usage: "combo <left|right>", Help: "Press a side's full critical-hit combination", Category: CategoryInput, Handler: HandlerCombo, MinArgs: 1},
		{Name: "keys", Aliases: []string{"controls"}, Help: "Show the key bindings", Category: CategoryInput, Handler: HandlerKeys},

		// System
		{Name: "help", Aliases: []string{"?"}, Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit", "q"}, Help: "Disconnect", Category: CategorySystem, Handler: HandlerQuit},
	}
}
