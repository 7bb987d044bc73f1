package server

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/infra/telegram"
	"github.com/grouphunt/groupsearch-bot/internal/service"
)

// Handler is the dispatcher surface the servers drive
type Handler interface {
	HandleCommand(ctx context.Context, cmd *service.Command) error
	HandleCallback(ctx context.Context, cb *service.Callback) error
}

// TelegramServer feeds Telegram updates to the dispatcher
type TelegramServer struct {
	client  *telegram.Client
	handler Handler
	seen    *seenCache
	ctx     context.Context
}

// NewTelegramServer creates a new Telegram server
func NewTelegramServer(client *telegram.Client, handler Handler) *TelegramServer {
	return &TelegramServer{
		client:  client,
		handler: handler,
		seen:    newSeenCache(),
		ctx:     context.Background(),
	}
}

// Start polls until ctx is cancelled
func (s *TelegramServer) Start(ctx context.Context) error {
	s.ctx = ctx
	s.client.OnMessage(s.handleMessage)
	s.client.OnCallback(s.handleCallback)
	return s.client.Start(ctx)
}

func (s *TelegramServer) handleMessage(msg *telegram.Message) {
	defer recoverUpdate("telegram message")

	if s.seen.markSeen(fmt.Sprintf("msg:%d:%d", msg.ChatID, msg.MessageID)) {
		fmt.Printf("[Server] Duplicate telegram message ignored: %d\n", msg.MessageID)
		return
	}

	cmd, ok := telegramCommand(msg, s.client.UserName())
	if !ok {
		return
	}
	fmt.Printf("[Server] /%s from %s in %s\n", cmd.Name, cmd.UserID, cmd.Chat)

	if err := s.handler.HandleCommand(s.ctx, cmd); err != nil {
		fmt.Printf("[Server] Handle command error: %v\n", err)
	}
}

func (s *TelegramServer) handleCallback(cb *telegram.CallbackQuery) {
	defer recoverUpdate("telegram callback")

	if s.seen.markSeen("cb:" + cb.ID) {
		return
	}

	if err := s.handler.HandleCallback(s.ctx, telegramCallback(cb)); err != nil {
		fmt.Printf("[Server] Handle callback error: %v\n", err)
	}
}

func telegramCommand(msg *telegram.Message, botUserName string) (*service.Command, bool) {
	name, args, ok := service.ParseCommand(msg.Text, botUserName)
	if !ok {
		return nil, false
	}
	return &service.Command{
		Chat:   domain.ChatRef{Platform: domain.PlatformTelegram, ChatID: strconv.FormatInt(msg.ChatID, 10)},
		UserID: userID(domain.PlatformTelegram, strconv.FormatInt(msg.UserID, 10)),
		Name:   name,
		Args:   args,
	}, true
}

func telegramCallback(cb *telegram.CallbackQuery) *service.Callback {
	return &service.Callback{
		Chat:       domain.ChatRef{Platform: domain.PlatformTelegram, ChatID: strconv.FormatInt(cb.ChatID, 10)},
		UserID:     userID(domain.PlatformTelegram, strconv.FormatInt(cb.UserID, 10)),
		CallbackID: cb.ID,
		MessageID:  strconv.Itoa(cb.MessageID),
		Data:       cb.Data,
	}
}

// recoverUpdate keeps a panic in one update from taking down the process.
// Updates run on their own goroutines, so nothing above would catch it.
func recoverUpdate(kind string) {
	if r := recover(); r != nil {
		fmt.Printf("[Server] Recovered from panic handling %s: %v\n%s\n", kind, r, debug.Stack())
	}
}

// userID namespaces a platform user ID for search history
func userID(platform domain.Platform, id string) string {
	return string(platform) + ":" + id
}
