package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	mcpserver "github.com/grouphunt/groupsearch-bot/internal/mcp"
)

// Execute serves MCP tools over stdio until the client disconnects.
func (c *MCPCommand) Execute(args []string) error {
	// Stdout carries the protocol, so component logs are sent to stderr
	stdout := os.Stdout
	os.Stdout = os.Stderr
	defer func() { os.Stdout = stdout }()

	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	repos, uc, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := mcpserver.NewServer(uc.Aggregator, uc.Group)
	return srv.Serve(ctx, &mcp.IOTransport{Reader: os.Stdin, Writer: stdout})
}
