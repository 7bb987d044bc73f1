package repo

import (
	"context"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
)

// ChatRepo is the outbound side of a chat platform
type ChatRepo interface {
	// Send sends a reply and returns the platform message ID
	Send(ctx context.Context, chat domain.ChatRef, reply *domain.Reply) (string, error)

	// Edit replaces the content of a previously sent message
	Edit(ctx context.Context, chat domain.ChatRef, messageID string, reply *domain.Reply) error

	// AnswerCallback acknowledges a button press
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
