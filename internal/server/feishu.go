package server

import (
	"context"
	"fmt"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/infra/feishu"
	"github.com/grouphunt/groupsearch-bot/internal/service"
)

// FeishuServer feeds Feishu messages and card actions to the dispatcher
type FeishuServer struct {
	feishuClient *feishu.Client
	handler      Handler
	seen         *seenCache
	ctx          context.Context
}

// NewFeishuServer creates a new Feishu server
func NewFeishuServer(feishuClient *feishu.Client, handler Handler) *FeishuServer {
	return &FeishuServer{
		feishuClient: feishuClient,
		handler:      handler,
		seen:         newSeenCache(),
		ctx:          context.Background(),
	}
}

// Start connects and blocks until Stop
func (s *FeishuServer) Start(ctx context.Context) error {
	s.ctx = ctx
	s.feishuClient.OnMessage(s.handleMessage)
	s.feishuClient.OnCardAction(s.handleCardAction)
	return s.feishuClient.Start()
}

// Stop stops the server
func (s *FeishuServer) Stop() {
	s.feishuClient.Stop()
}

// handleMessage handles Feishu messages
func (s *FeishuServer) handleMessage(msg *feishu.Message) {
	defer recoverUpdate("feishu message")

	// Feishu redelivers events it did not see acknowledged in time
	if s.seen.markSeen("msg:" + msg.MsgID) {
		fmt.Printf("[Server] Duplicate message ignored: %s\n", msg.MsgID)
		return
	}

	// In group chats only messages addressed to the bot are commands
	if msg.ChatType == "group" && !msg.MentionsBot {
		return
	}

	cmd, ok := feishuCommand(msg)
	if !ok {
		return
	}
	fmt.Printf("[Server] /%s from %s in %s\n", cmd.Name, cmd.UserID, cmd.Chat)

	if err := s.handler.HandleCommand(s.ctx, cmd); err != nil {
		fmt.Printf("[Server] Handle command error: %v\n", err)
	}
}

// handleCardAction handles card button presses
func (s *FeishuServer) handleCardAction(action *feishu.CardAction) {
	defer recoverUpdate("feishu card action")

	// The callback token identifies one press across redeliveries
	if action.Token != "" && s.seen.markSeen("card:"+action.Token) {
		fmt.Printf("[Server] Duplicate card action ignored: %s\n", action.Data)
		return
	}

	if err := s.handler.HandleCallback(s.ctx, feishuCallback(action)); err != nil {
		fmt.Printf("[Server] Handle card action error: %v\n", err)
	}
}

func feishuCommand(msg *feishu.Message) (*service.Command, bool) {
	name, args, ok := service.ParseCommand(msg.Content, "")
	if !ok {
		return nil, false
	}
	return &service.Command{
		Chat:   domain.ChatRef{Platform: domain.PlatformFeishu, ChatID: msg.ChatID},
		UserID: userID(domain.PlatformFeishu, msg.SenderID),
		Name:   name,
		Args:   args,
	}, true
}

// feishuCallback maps a card action; the chat ID doubles as callback ID
// because card presses are acknowledged on receipt
func feishuCallback(action *feishu.CardAction) *service.Callback {
	return &service.Callback{
		Chat:       domain.ChatRef{Platform: domain.PlatformFeishu, ChatID: action.ChatID},
		UserID:     userID(domain.PlatformFeishu, action.OpenID),
		CallbackID: action.ChatID,
		MessageID:  action.MessageID,
		Data:       action.Data,
	}
}
