package data

import (
	"context"
	"fmt"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/biz/repo"
)

// directoryResolver answers group detail lookups without a platform client.
// Every valid handle resolves to a placeholder record.
type directoryResolver struct{}

// NewDirectoryResolver creates the placeholder resolver
func NewDirectoryResolver() repo.ResolverRepo {
	return &directoryResolver{}
}

// Resolve returns a placeholder record for the username
func (r *directoryResolver) Resolve(ctx context.Context, username string) (*domain.Group, error) {
	if _, ok := domain.ParseHandle(username); !ok {
		return nil, domain.ErrInvalidHandle
	}
	return &domain.Group{
		Title:       fmt.Sprintf("Group %s", username),
		Username:    username,
		Description: "Group description",
		Members:     "1500",
		Type:        domain.GroupTypeGroup,
		InviteLink:  domain.PublicLinkPrefix + username,
		Source:      "directory",
		IsVerified:  false,
	}, nil
}
