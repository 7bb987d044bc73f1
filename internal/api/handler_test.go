package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/biz/repo"
	"github.com/grouphunt/groupsearch-bot/internal/biz/usecase"
)

// MockSource implements repo.SourceRepo for testing
type MockSource struct {
	groups []*domain.Group
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) Fetch(ctx context.Context, query string, limit int) ([]*domain.Group, error) {
	if len(m.groups) > limit {
		return m.groups[:limit], nil
	}
	return m.groups, nil
}

// MockGroupRepo implements repo.GroupRepo for testing
type MockGroupRepo struct {
	groups map[string]*domain.Group
	err    error
}

func (m *MockGroupRepo) SaveGroup(ctx context.Context, g *domain.Group) error {
	return m.err
}

func (m *MockGroupRepo) GetGroup(ctx context.Context, username string) (*domain.Group, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.groups[strings.ToLower(username)], nil
}

func (m *MockGroupRepo) FindSavedGroups(ctx context.Context, fragment string, limit int) ([]*domain.Group, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Group
	for _, g := range m.groups {
		if strings.Contains(strings.ToLower(g.Title), strings.ToLower(fragment)) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *MockGroupRepo) SaveSearchEvent(ctx context.Context, e *domain.SearchEvent) error {
	return m.err
}

func (m *MockGroupRepo) RecentSearches(ctx context.Context, userID string, limit int) ([]*domain.SearchEvent, error) {
	return nil, m.err
}

func (m *MockGroupRepo) CountSearches(ctx context.Context, userID string) (int, error) {
	return 0, m.err
}

func (m *MockGroupRepo) Close() error { return nil }

func newTestServer(groupRepo *MockGroupRepo) *Server {
	sources := []repo.SourceRepo{&MockSource{groups: []*domain.Group{
		{Title: "Crypto Italia", Username: "cryptoitalia", Members: "45.2K"},
		{Title: "Crypto News", Username: "cryptonews", Members: "12K"},
	}}}
	return NewServer(
		usecase.NewAggregatorUsecase(sources, usecase.AggregatorConfig{}),
		usecase.NewGroupUsecase(groupRepo, nil),
		0,
	)
}

func doGet(t *testing.T, server *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	server.Routes().ServeHTTP(w, req)
	return w
}

func TestHandleSearch(t *testing.T) {
	server := newTestServer(&MockGroupRepo{})

	w := doGet(t, server, "/api/search?q=crypto&limit=1")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var result SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if result.Query != "crypto" {
		t.Errorf("Expected query crypto, got %s", result.Query)
	}
	if len(result.Groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(result.Groups))
	}
	if result.Groups[0].Username != "cryptoitalia" {
		t.Errorf("Expected cryptoitalia first, got %s", result.Groups[0].Username)
	}
	if result.Stats == nil || result.Stats.Sources != 1 {
		t.Errorf("Expected stats for 1 source, got %+v", result.Stats)
	}
}

func TestHandleSearch_BadRequests(t *testing.T) {
	server := newTestServer(&MockGroupRepo{})

	for _, target := range []string{"/api/search", "/api/search?q=%20", "/api/search?q=x&limit=0", "/api/search?q=x&limit=abc"} {
		w := doGet(t, server, target)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", target, w.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["error"] == "" {
			t.Errorf("%s: expected JSON error body, got %q", target, w.Body.String())
		}
	}
}

func TestHandleSearch_MethodNotAllowed(t *testing.T) {
	server := newTestServer(&MockGroupRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/search?q=x", nil)
	w := httptest.NewRecorder()
	server.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestHandleGroups(t *testing.T) {
	server := newTestServer(&MockGroupRepo{groups: map[string]*domain.Group{
		"cryptoitalia": {Title: "Crypto Italia", Username: "cryptoitalia"},
		"roma":         {Title: "Roma Calcio", Username: "roma"},
	}})

	w := doGet(t, server, "/api/groups?q=CRYPTO")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var result GroupsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(result.Groups) != 1 || result.Groups[0].Title != "Crypto Italia" {
		t.Errorf("Unexpected groups: %+v", result.Groups)
	}

	w = doGet(t, server, "/api/groups?q=nothing")
	if !strings.Contains(w.Body.String(), `"groups":[]`) {
		t.Errorf("Expected empty array, got %s", w.Body.String())
	}
}

func TestHandleGroups_PersistenceUnavailable(t *testing.T) {
	server := newTestServer(&MockGroupRepo{err: fmt.Errorf("%w: database is locked", domain.ErrPersistenceUnavailable)})

	w := doGet(t, server, "/api/groups?q=crypto")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}

	w = doGet(t, server, "/api/groups/cryptoitalia")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestHandleGroupItem(t *testing.T) {
	server := newTestServer(&MockGroupRepo{groups: map[string]*domain.Group{
		"cryptoitalia": {Title: "Crypto Italia", Username: "cryptoitalia", Members: "45.2K"},
	}})

	w := doGet(t, server, "/api/groups/CryptoItalia")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var group domain.Group
	if err := json.Unmarshal(w.Body.Bytes(), &group); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if group.Members != "45.2K" {
		t.Errorf("Expected members 45.2K, got %s", group.Members)
	}

	if w := doGet(t, server, "/api/groups/unknown_group"); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if w := doGet(t, server, "/api/groups/a!"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestWriteError_Internal(t *testing.T) {
	server := &Server{}
	w := httptest.NewRecorder()

	server.writeError(w, errors.New("boom"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	w := doGet(t, newTestServer(&MockGroupRepo{}), "/health")
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Errorf("Unexpected health response: %d %q", w.Code, w.Body.String())
	}
}
