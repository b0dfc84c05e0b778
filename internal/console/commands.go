// Package console is a line-oriented front end for an encounter: a command
// registry, a parser and a dispatcher that renders results as text.
package console

// Categories for organizing commands.
const (
	CategoryRoster     = "roster"
	CategoryCombat     = "combat"
	CategoryConditions = "conditions"
	CategoryBestiary   = "bestiary"
	CategorySystem     = "system"
)

// Handler identifiers mapping commands to dispatcher functions.
const (
	HandlerHelp      = "help"
	HandlerList      = "list"
	HandlerAdd       = "add"
	HandlerHP        = "hp"
	HandlerInit      = "init"
	HandlerRoll      = "roll"
	HandlerRollAll   = "rollall"
	HandlerCond      = "cond"
	HandlerUncond    = "uncond"
	HandlerExh       = "exh"
	HandlerSave      = "save"
	HandlerStabilize = "stabilize"
	HandlerStatus    = "status"
	HandlerNext      = "next"
	HandlerTurn      = "turn"
	HandlerRemove    = "remove"
	HandlerGroup     = "group"
	HandlerUngroup   = "ungroup"
	HandlerSearch    = "search"
	HandlerSummon    = "summon"
	HandlerNewCombat = "newcombat"
	HandlerQuit      = "quit"
)

// Command defines a console command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument syntax.
	Usage string
	// Help is the short help text.
	Help string
	// Category groups the command for the help listing.
	Category string
	// Handler maps to the dispatcher function.
	Handler string
}

// BuiltinCommands returns all built-in console commands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "list", Aliases: []string{"ls", "l"}, Usage: "list", Help: "Show the initiative order", Category: CategoryRoster, Handler: HandlerList},
		{Name: "add", Aliases: []string{"a"}, Usage: `add <pc|monster> <name> [hp] [ac] [dex]`, Help: "Add a combatant", Category: CategoryRoster, Handler: HandlerAdd},
		{Name: "remove", Aliases: []string{"rm"}, Usage: "remove <who>", Help: "Remove a combatant (asks for confirmation)", Category: CategoryRoster, Handler: HandlerRemove},
		{Name: "status", Aliases: []string{"show", "st"}, Usage: "status <who>", Help: "Show a combatant's stat block", Category: CategoryRoster, Handler: HandlerStatus},
		{Name: "group", Aliases: []string{"grp"}, Usage: "group <name> <who> <who>...", Help: "Group combatants of one kind into a single initiative slot", Category: CategoryRoster, Handler: HandlerGroup},
		{Name: "ungroup", Usage: "ungroup <group>", Help: "Dissolve a group", Category: CategoryRoster, Handler: HandlerUngroup},

		{Name: "hp", Usage: "hp <who> <+n|-n>", Help: "Heal or damage a combatant", Category: CategoryCombat, Handler: HandlerHP},
		{Name: "init", Usage: "init <who> <value>", Help: "Set initiative by hand", Category: CategoryCombat, Handler: HandlerInit},
		{Name: "roll", Aliases: []string{"r"}, Usage: "roll <who>", Help: "Roll initiative for one combatant", Category: CategoryCombat, Handler: HandlerRoll},
		{Name: "rollall", Aliases: []string{"ra"}, Usage: "rollall [pc|monster]", Help: "Roll initiative for everyone, or one kind", Category: CategoryCombat, Handler: HandlerRollAll},
		{Name: "save", Aliases: []string{"ds"}, Usage: "save <who> <success|fail>", Help: "Record a death saving throw", Category: CategoryCombat, Handler: HandlerSave},
		{Name: "stabilize", Aliases: []string{"stab"}, Usage: "stabilize <who>", Help: "Stabilize a dying combatant", Category: CategoryCombat, Handler: HandlerStabilize},
		{Name: "next", Aliases: []string{"n"}, Usage: "next", Help: "Advance the turn and tick condition durations", Category: CategoryCombat, Handler: HandlerNext},
		{Name: "turn", Usage: "turn [n|reset]", Help: "Show, set or reset the turn counter", Category: CategoryCombat, Handler: HandlerTurn},
		{Name: "newcombat", Usage: "newcombat", Help: "Clear monsters and conditions (asks for confirmation)", Category: CategoryCombat, Handler: HandlerNewCombat},

		{Name: "cond", Aliases: []string{"c"}, Usage: "cond <who> <condition> [turns]", Help: "Apply a condition", Category: CategoryConditions, Handler: HandlerCond},
		{Name: "uncond", Aliases: []string{"uc"}, Usage: "uncond <who> <condition>", Help: "Remove a condition", Category: CategoryConditions, Handler: HandlerUncond},
		{Name: "exh", Usage: "exh <who> <0-6>", Help: "Set the exhaustion level", Category: CategoryConditions, Handler: HandlerExh},

		{Name: "search", Aliases: []string{"find"}, Usage: "search <name>", Help: "Search the bestiary", Category: CategoryBestiary, Handler: HandlerSearch},
		{Name: "summon", Usage: "summon <index>", Help: "Add a bestiary monster and roll its initiative", Category: CategoryBestiary, Handler: HandlerSummon},

		{Name: "help", Aliases: []string{"?"}, Usage: "help [command]", Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit", "q"}, Usage: "quit", Help: "Save and leave", Category: CategorySystem, Handler: HandlerQuit},
	}
}
