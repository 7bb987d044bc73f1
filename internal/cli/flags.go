package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	EnvFile string `long:"env-file" description:"Path to .env file" default:".env"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
}

// BotCommand runs the chat frontends.
type BotCommand struct {
	globals *GlobalFlags
}

// MCPCommand serves the search tools over stdio.
type MCPCommand struct {
	globals *GlobalFlags
}

// SearchCommand runs one aggregate search and prints the results.
type SearchCommand struct {
	Limit int `long:"limit" description:"Maximum results" default:"15"`
	Save  bool `long:"save" description:"Store results and record the search"`

	globals *GlobalFlags
	out     io.Writer
}

// SavedCommand prints stored groups matching a fragment.
type SavedCommand struct {
	Limit int `long:"limit" description:"Maximum results" default:"20"`

	globals *GlobalFlags
	out     io.Writer
}
