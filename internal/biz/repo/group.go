package repo

import (
	"context"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
)

// GroupRepo is the persistence gateway for discovered groups and search history.
// Storage failures satisfy errors.Is(err, domain.ErrPersistenceUnavailable).
type GroupRepo interface {
	// SaveGroup upserts a group keyed by its natural key
	SaveGroup(ctx context.Context, group *domain.Group) error

	// GetGroup gets a stored group by username, nil if absent
	GetGroup(ctx context.Context, username string) (*domain.Group, error)

	// FindSavedGroups does a case-insensitive substring match over query, title and description,
	// ordered by member count then discovery time, both descending
	FindSavedGroups(ctx context.Context, fragment string, limit int) ([]*domain.Group, error)

	// SaveSearchEvent appends a search history row
	SaveSearchEvent(ctx context.Context, event *domain.SearchEvent) error

	// RecentSearches lists a user's latest searches, newest first
	RecentSearches(ctx context.Context, userID string, limit int) ([]*domain.SearchEvent, error)

	// CountSearches counts a user's searches
	CountSearches(ctx context.Context, userID string) (int, error)

	Close() error
}
