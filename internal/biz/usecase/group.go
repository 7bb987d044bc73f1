package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/biz/repo"
)

// DefaultSavedLimit is used when callers pass a non-positive limit
const DefaultSavedLimit = 20

// GroupUsecase handles stored groups, group details and search history
type GroupUsecase struct {
	groupRepo    repo.GroupRepo
	resolverRepo repo.ResolverRepo
}

// NewGroupUsecase creates a new group usecase
func NewGroupUsecase(groupRepo repo.GroupRepo, resolverRepo repo.ResolverRepo) *GroupUsecase {
	return &GroupUsecase{
		groupRepo:    groupRepo,
		resolverRepo: resolverRepo,
	}
}

// SaveResults persists every group of a search. Returns the number saved
// and the first error met; remaining groups are still attempted.
func (uc *GroupUsecase) SaveResults(ctx context.Context, groups []*domain.Group) (int, error) {
	saved := 0
	var firstErr error
	for _, g := range groups {
		if err := uc.groupRepo.SaveGroup(ctx, g); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		saved++
	}
	return saved, firstErr
}

// RecordSearch appends a search history event
func (uc *GroupUsecase) RecordSearch(ctx context.Context, userID, query string, resultCount int) error {
	return uc.groupRepo.SaveSearchEvent(ctx, &domain.SearchEvent{
		UserID:      userID,
		Query:       query,
		ResultCount: resultCount,
		CreatedAt:   time.Now(),
	})
}

// Saved finds previously stored groups matching the fragment
func (uc *GroupUsecase) Saved(ctx context.Context, fragment string, limit int) ([]*domain.Group, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, domain.ErrInvalidQuery
	}
	if limit <= 0 {
		limit = DefaultSavedLimit
	}
	return uc.groupRepo.FindSavedGroups(ctx, fragment, limit)
}

// History returns a user's recent searches and their total count
func (uc *GroupUsecase) History(ctx context.Context, userID string, limit int) ([]*domain.SearchEvent, int, error) {
	events, err := uc.groupRepo.RecentSearches(ctx, userID, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := uc.groupRepo.CountSearches(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// Info resolves a handle or link to group details: stored copy first,
// then the resolver. Returns nil, nil when nothing is known.
func (uc *GroupUsecase) Info(ctx context.Context, identifier string) (*domain.Group, error) {
	username, ok := domain.ParseHandle(identifier)
	if !ok {
		return nil, domain.ErrInvalidHandle
	}

	stored, err := uc.groupRepo.GetGroup(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get stored group: %w", err)
	}
	if stored != nil {
		return stored, nil
	}

	if uc.resolverRepo == nil {
		return nil, nil
	}
	group, err := uc.resolverRepo.Resolve(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolve group: %w", err)
	}
	return group, nil
}

// SaveByHandle resolves a group and stores it
func (uc *GroupUsecase) SaveByHandle(ctx context.Context, identifier string) (*domain.Group, error) {
	group, err := uc.Info(ctx, identifier)
	if err != nil || group == nil {
		return group, err
	}
	if group.FoundAt.IsZero() {
		group.FoundAt = time.Now()
	}
	if err := uc.groupRepo.SaveGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}
