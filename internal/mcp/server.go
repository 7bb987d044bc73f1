package mcp

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/biz/usecase"
)

// DefaultSearchLimit is used when a tool call has no limit
const DefaultSearchLimit = 15

// Server exposes group search as MCP tools
type Server struct {
	server       *mcp.Server
	aggregatorUC *usecase.AggregatorUsecase
	groupUC      *usecase.GroupUsecase
}

// GroupResult is one group in a tool result
type GroupResult struct {
	Title       string `json:"title"`
	Username    string `json:"username,omitempty"`
	Description string `json:"description,omitempty"`
	Members     string `json:"members,omitempty"`
	Link        string `json:"link,omitempty"`
	Source      string `json:"source,omitempty"`
	FoundAt     string `json:"found_at,omitempty"`
	Verified    bool   `json:"verified"`
}

// NewServer creates a new MCP server and registers its tools
func NewServer(aggregatorUC *usecase.AggregatorUsecase, groupUC *usecase.GroupUsecase) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "groupsearch-tools",
			Version: "v1.0.0",
		}, nil),
		aggregatorUC: aggregatorUC,
		groupUC:      groupUC,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_groups",
		Description: "Search public groups by topic across all configured sources. Results are not stored.",
	}, s.handleSearchGroups)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_saved_groups",
		Description: "Find previously discovered groups whose topic, title or description contains the query, largest first.",
	}, s.handleFindSavedGroups)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "group_info",
		Description: "Get details of a group from its @username or t.me link.",
	}, s.handleGroupInfo)
}

// Run serves tools over stdio until ctx is done
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, &mcp.StdioTransport{})
}

// Serve serves tools over the given transport until ctx is done or the
// client disconnects. Logs go to stderr since stdout may carry the protocol.
func (s *Server) Serve(ctx context.Context, transport mcp.Transport) error {
	fmt.Fprintln(os.Stderr, "[MCP] Serving tools")
	return s.server.Run(ctx, transport)
}

// GetServer returns the underlying MCP server
func (s *Server) GetServer() *mcp.Server {
	return s.server
}

// SearchGroupsInput is the input for search_groups
type SearchGroupsInput struct {
	Query string `json:"query" jsonschema:"the topic to search for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of groups to return (default 15)"`
}

// GroupsOutput is the output for list tools
type GroupsOutput struct {
	Groups []GroupResult `json:"groups"`
	Error  string        `json:"error,omitempty"`
}

func (s *Server) handleSearchGroups(ctx context.Context, req *mcp.CallToolRequest, input SearchGroupsInput) (*mcp.CallToolResult, GroupsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	groups, err := s.aggregatorUC.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, GroupsOutput{Groups: []GroupResult{}, Error: err.Error()}, nil
	}
	return nil, GroupsOutput{Groups: toResults(groups)}, nil
}

// FindSavedGroupsInput is the input for find_saved_groups
type FindSavedGroupsInput struct {
	Query string `json:"query" jsonschema:"text to look for in stored topics, titles and descriptions"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of groups to return (default 20)"`
}

func (s *Server) handleFindSavedGroups(ctx context.Context, req *mcp.CallToolRequest, input FindSavedGroupsInput) (*mcp.CallToolResult, GroupsOutput, error) {
	groups, err := s.groupUC.Saved(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, GroupsOutput{Groups: []GroupResult{}, Error: err.Error()}, nil
	}
	return nil, GroupsOutput{Groups: toResults(groups)}, nil
}

// GroupInfoInput is the input for group_info
type GroupInfoInput struct {
	Identifier string `json:"identifier" jsonschema:"@username, username or t.me link"`
}

// GroupInfoOutput is the output for group_info
type GroupInfoOutput struct {
	Found bool         `json:"found"`
	Group *GroupResult `json:"group,omitempty"`
	Error string       `json:"error,omitempty"`
}

func (s *Server) handleGroupInfo(ctx context.Context, req *mcp.CallToolRequest, input GroupInfoInput) (*mcp.CallToolResult, GroupInfoOutput, error) {
	group, err := s.groupUC.Info(ctx, input.Identifier)
	if err != nil {
		return nil, GroupInfoOutput{Error: err.Error()}, nil
	}
	if group == nil {
		return nil, GroupInfoOutput{Found: false}, nil
	}
	result := toResult(group)
	return nil, GroupInfoOutput{Found: true, Group: &result}, nil
}

func toResult(g *domain.Group) GroupResult {
	r := GroupResult{
		Title:       g.Title,
		Username:    g.Username,
		Description: g.Description,
		Members:     g.Members,
		Link:        g.Link(),
		Source:      g.Source,
		Verified:    g.IsVerified,
	}
	if !g.FoundAt.IsZero() {
		r.FoundAt = g.FoundAt.UTC().Format(time.RFC3339)
	}
	return r
}

func toResults(groups []*domain.Group) []GroupResult {
	results := make([]GroupResult, 0, len(groups))
	for _, g := range groups {
		results = append(results, toResult(g))
	}
	return results
}
