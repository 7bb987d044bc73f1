package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/biz/usecase"
)

// DefaultSearchLimit is used when a request has no limit
const DefaultSearchLimit = 15

// maxLimit caps limits taken from query strings
const maxLimit = 100

// Server provides a local HTTP API over the search and storage usecases
type Server struct {
	aggregatorUC *usecase.AggregatorUsecase
	groupUC      *usecase.GroupUsecase

	server *http.Server
	port   int
}

// SearchResponse is the body of /api/search
type SearchResponse struct {
	Query  string               `json:"query"`
	Groups []*domain.Group      `json:"groups"`
	Stats  *usecase.SearchStats `json:"stats"`
}

// GroupsResponse is the body of /api/groups
type GroupsResponse struct {
	Query  string          `json:"query"`
	Groups []*domain.Group `json:"groups"`
}

// NewServer creates a new API server
func NewServer(aggregatorUC *usecase.AggregatorUsecase, groupUC *usecase.GroupUsecase, port int) *Server {
	return &Server{
		aggregatorUC: aggregatorUC,
		groupUC:      groupUC,
		port:         port,
	}
}

// Routes returns the API handler
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/groups", s.handleGroups)
	mux.HandleFunc("/api/groups/", s.handleGroupItem)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: s.Routes(),
	}

	fmt.Printf("[API] Starting HTTP server on port %d\n", s.port)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Shutdown(context.Background())
	}
	return nil
}

// GetPort returns the server port
func (s *Server) GetPort() int {
	return s.port
}

// ============ Search Handlers ============

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, fmt.Errorf("q is required: %w", domain.ErrInvalidQuery))
		return
	}
	limit, err := parseLimit(r, DefaultSearchLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	groups, stats, err := s.aggregatorUC.SearchWithStats(r.Context(), query, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, SearchResponse{Query: query, Groups: groups, Stats: stats})
}

// ============ Group Handlers ============

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, fmt.Errorf("q is required: %w", domain.ErrInvalidQuery))
		return
	}
	limit, err := parseLimit(r, usecase.DefaultSavedLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	groups, err := s.groupUC.Saved(r.Context(), query, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if groups == nil {
		groups = []*domain.Group{}
	}

	s.writeJSON(w, GroupsResponse{Query: query, Groups: groups})
}

func (s *Server) handleGroupItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username := strings.TrimPrefix(r.URL.Path, "/api/groups/")
	group, err := s.groupUC.Info(r.Context(), username)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if group == nil {
		s.writeStatus(w, http.StatusNotFound, "group not found")
		return
	}

	s.writeJSON(w, group)
}

// ============ Helpers ============

func parseLimit(r *http.Request, fallback int) (int, error) {
	l := r.URL.Query().Get("limit")
	if l == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(l)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("limit %q: %w", l, domain.ErrInvalidLimit)
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// writeError maps error kinds to status codes
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidQuery),
		errors.Is(err, domain.ErrInvalidLimit),
		errors.Is(err, domain.ErrInvalidHandle):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrPersistenceUnavailable):
		status = http.StatusServiceUnavailable
	default:
		fmt.Printf("[API] Request failed: %v\n", err)
	}
	s.writeStatus(w, status, err.Error())
}

func (s *Server) writeStatus(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
