package cli

import (
	"io"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Bot    *BotCommand
	MCP    *MCPCommand
	Search *SearchCommand
	Saved  *SavedCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(out io.Writer) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "groupsearch"
	parser.LongDescription = "Search public Telegram groups from chat, the command line or MCP clients."

	cmds := &commands{
		Bot:    &BotCommand{globals: &globals},
		MCP:    &MCPCommand{globals: &globals},
		Search: &SearchCommand{globals: &globals, out: out},
		Saved:  &SavedCommand{globals: &globals, out: out},
	}

	parser.AddCommand("bot", "Run the chat bot", "Run the Telegram bot, plus the Feishu bot and local HTTP API when configured.", cmds.Bot)
	parser.AddCommand("mcp", "Serve MCP tools over stdio", "Serve search_groups, find_saved_groups and group_info to MCP clients over stdio.", cmds.MCP)
	parser.AddCommand("search", "Search groups by topic", "Query every configured source and print the merged results.", cmds.Search)
	parser.AddCommand("saved", "List stored groups", "Print stored groups whose topic, title or description contains the query.", cmds.Saved)

	return parser, &globals, cmds
}

// Run is the main entry point using os.Args.
func Run() error {
	return RunWithArgs(nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(args []string) error {
	parser, _, _ := buildParser(os.Stdout)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
