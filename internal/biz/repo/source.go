package repo

import (
	"context"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
)

// SourceRepo is a pluggable origin of candidate group records
type SourceRepo interface {
	// Name identifies the source in logs
	Name() string

	// Fetch returns at most limit candidate groups for the query.
	// A failing source returns an error; callers treat it as zero results.
	Fetch(ctx context.Context, query string, limit int) ([]*domain.Group, error)
}

// ResolverRepo resolves a single group handle to its details
type ResolverRepo interface {
	// Resolve returns nil, nil when the group is unknown
	Resolve(ctx context.Context, username string) (*domain.Group, error)
}

// SuggestRepo proposes alternative search keywords
type SuggestRepo interface {
	Suggest(ctx context.Context, query string) ([]string, error)
}
