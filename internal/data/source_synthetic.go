package data

import (
	"context"
	"strings"
	"time"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/biz/repo"
)

// syntheticSource yields templated records without any network I/O.
// It stands in for directory listings that have no public API.
type syntheticSource struct {
	name      string
	templates []domain.GroupTemplate
}

// NewSyntheticSource creates a source rendering the given templates in order
func NewSyntheticSource(name string, templates []domain.GroupTemplate) repo.SourceRepo {
	return &syntheticSource{name: name, templates: templates}
}

// Name returns the source name
func (s *syntheticSource) Name() string {
	return s.name
}

// Fetch renders up to limit templates for the query
func (s *syntheticSource) Fetch(ctx context.Context, query string, limit int) ([]*domain.Group, error) {
	if limit <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	var groups []*domain.Group
	for _, t := range s.templates {
		if len(groups) >= limit {
			break
		}
		g := t.Render(query)
		g.Source = s.name
		g.FoundAt = now
		groups = append(groups, g)
	}
	return groups, nil
}
