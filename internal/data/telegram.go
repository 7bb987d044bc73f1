package data

import (
	"context"
	"fmt"
	"strconv"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/biz/repo"
	"github.com/grouphunt/groupsearch-bot/internal/infra/telegram"
)

// TelegramSender is the outbound part of the Telegram client
type TelegramSender interface {
	SendHTML(chatID int64, text string, rows [][]telegram.Button) (int, error)
	EditHTML(chatID int64, messageID int, text string, rows [][]telegram.Button) error
	AnswerCallback(callbackID, text string) error
}

// telegramRepo implements the chat repository for Telegram
type telegramRepo struct {
	client TelegramSender
}

// NewTelegramRepo creates a new Telegram chat repository
func NewTelegramRepo(client TelegramSender) repo.ChatRepo {
	return &telegramRepo{client: client}
}

func (r *telegramRepo) Send(ctx context.Context, chat domain.ChatRef, reply *domain.Reply) (string, error) {
	chatID, err := strconv.ParseInt(chat.ChatID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid telegram chat id %q: %w", chat.ChatID, err)
	}
	messageID, err := r.client.SendHTML(chatID, reply.Text, telegramButtons(reply.Buttons))
	if err != nil {
		return "", err
	}
	return strconv.Itoa(messageID), nil
}

func (r *telegramRepo) Edit(ctx context.Context, chat domain.ChatRef, messageID string, reply *domain.Reply) error {
	chatID, err := strconv.ParseInt(chat.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", chat.ChatID, err)
	}
	msgID, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("invalid telegram message id %q: %w", messageID, err)
	}
	return r.client.EditHTML(chatID, msgID, reply.Text, telegramButtons(reply.Buttons))
}

func (r *telegramRepo) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return r.client.AnswerCallback(callbackID, text)
}

func telegramButtons(rows [][]domain.Button) [][]telegram.Button {
	out := make([][]telegram.Button, 0, len(rows))
	for _, row := range rows {
		buttons := make([]telegram.Button, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, telegram.Button{Text: b.Text, Data: b.Data})
		}
		out = append(out, buttons)
	}
	return out
}
