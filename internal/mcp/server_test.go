package mcp

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/biz/repo"
	"github.com/grouphunt/groupsearch-bot/internal/biz/usecase"
)

type mockSource struct {
	groups []*domain.Group
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) Fetch(ctx context.Context, query string, limit int) ([]*domain.Group, error) {
	if len(m.groups) > limit {
		return m.groups[:limit], nil
	}
	return m.groups, nil
}

type mockGroupRepo struct {
	stored []*domain.Group
	err    error
}

func (m *mockGroupRepo) SaveGroup(ctx context.Context, g *domain.Group) error { return m.err }

func (m *mockGroupRepo) GetGroup(ctx context.Context, username string) (*domain.Group, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, g := range m.stored {
		if strings.EqualFold(g.Username, username) {
			return g, nil
		}
	}
	return nil, nil
}

func (m *mockGroupRepo) FindSavedGroups(ctx context.Context, fragment string, limit int) ([]*domain.Group, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stored, nil
}

func (m *mockGroupRepo) SaveSearchEvent(ctx context.Context, e *domain.SearchEvent) error {
	return m.err
}

func (m *mockGroupRepo) RecentSearches(ctx context.Context, userID string, limit int) ([]*domain.SearchEvent, error) {
	return nil, m.err
}

func (m *mockGroupRepo) CountSearches(ctx context.Context, userID string) (int, error) {
	return 0, m.err
}

func (m *mockGroupRepo) Close() error { return nil }

func newTestServer(groupRepo *mockGroupRepo) *Server {
	src := &mockSource{groups: []*domain.Group{
		{Title: "Crypto Italia", Username: "cryptoitalia", Members: "45.2K"},
		{Title: "Crypto Trading", Username: "cryptotrading", Members: "8K"},
		{Title: "No Handle Group"},
	}}
	return NewServer(
		usecase.NewAggregatorUsecase([]repo.SourceRepo{src}, usecase.AggregatorConfig{}),
		usecase.NewGroupUsecase(groupRepo, nil),
	)
}

func TestHandleSearchGroups(t *testing.T) {
	s := newTestServer(&mockGroupRepo{})
	ctx := context.Background()

	_, out, err := s.handleSearchGroups(ctx, nil, SearchGroupsInput{Query: "crypto", Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, out.Error)
	require.Len(t, out.Groups, 2)
	assert.Equal(t, "https://t.me/cryptoitalia", out.Groups[0].Link)

	_, out, err = s.handleSearchGroups(ctx, nil, SearchGroupsInput{Query: "crypto"})
	require.NoError(t, err)
	assert.Len(t, out.Groups, 3)

	_, out, err = s.handleSearchGroups(ctx, nil, SearchGroupsInput{Query: "  "})
	require.NoError(t, err)
	assert.Contains(t, out.Error, "invalid query")
	assert.NotNil(t, out.Groups)
}

func TestHandleFindSavedGroups(t *testing.T) {
	stored := &mockGroupRepo{stored: []*domain.Group{{Title: "Crypto Italia", Username: "cryptoitalia"}}}
	s := newTestServer(stored)

	_, out, err := s.handleFindSavedGroups(context.Background(), nil, FindSavedGroupsInput{Query: "crypto"})
	require.NoError(t, err)
	require.Len(t, out.Groups, 1)
	assert.Equal(t, "cryptoitalia", out.Groups[0].Username)

	stored.err = fmt.Errorf("%w: disk full", domain.ErrPersistenceUnavailable)
	_, out, err = s.handleFindSavedGroups(context.Background(), nil, FindSavedGroupsInput{Query: "crypto"})
	require.NoError(t, err)
	assert.Contains(t, out.Error, "persistence unavailable")
}

func TestHandleGroupInfo(t *testing.T) {
	s := newTestServer(&mockGroupRepo{stored: []*domain.Group{{Title: "Crypto Italia", Username: "cryptoitalia", IsVerified: true}}})
	ctx := context.Background()

	_, out, err := s.handleGroupInfo(ctx, nil, GroupInfoInput{Identifier: "https://t.me/CryptoItalia"})
	require.NoError(t, err)
	require.True(t, out.Found)
	assert.True(t, out.Group.Verified)

	_, out, err = s.handleGroupInfo(ctx, nil, GroupInfoInput{Identifier: "@missing_group"})
	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.Empty(t, out.Error)

	_, out, err = s.handleGroupInfo(ctx, nil, GroupInfoInput{Identifier: "not a handle"})
	require.NoError(t, err)
	assert.Contains(t, out.Error, "invalid group handle")
}

func TestServerOverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(&mockGroupRepo{})

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.GetServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"search_groups", "find_saved_groups", "group_info"}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "search_groups",
		Arguments: map[string]any{"query": "crypto", "limit": 1},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "cryptoitalia")
}
