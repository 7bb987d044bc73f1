package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher/callback"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
)

// Message represents a received Feishu message
type Message struct {
	ChatID      string
	MsgID       string
	MsgType     string // text, post
	ChatType    string // p2p (private), group
	Content     string // Text content with mention placeholders removed
	SenderID    string // open_id of the sender
	MentionsBot bool   // True if the bot was mentioned
}

// CardAction represents a button press on an interactive card
type CardAction struct {
	ChatID    string
	MessageID string
	OpenID    string
	Data      string // "data" entry of the button value
	Token     string // Per-press callback token, stable across redelivery
}

// MessageHandler is the callback for received messages
type MessageHandler func(msg *Message)

// CardActionHandler is the callback for card button presses
type CardActionHandler func(action *CardAction)

// Client is the Feishu API client
type Client struct {
	appID        string
	appSecret    string
	larkCli      *lark.Client
	wsCli        *larkws.Client
	onMessage    MessageHandler
	onCardAction CardActionHandler
	ctx          context.Context
	cancel       context.CancelFunc
	botOpenID    string
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string) *Client {
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		larkCli:   lark.NewClient(appID, appSecret),
	}
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// OnCardAction sets the card button handler
func (c *Client) OnCardAction(handler CardActionHandler) {
	c.onCardAction = handler
}

// Start connects to Feishu via WebSocket and starts listening for events
func (c *Client) Start() error {
	c.ctx, c.cancel = context.WithCancel(context.Background())

	if err := c.fetchBotOpenID(); err != nil {
		fmt.Printf("[Feishu] Warning: failed to fetch bot open_id: %v\n", err)
	}

	// Handlers must return quickly so the SDK can ACK before Feishu retries
	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
			go c.handleMessage(event)
			return nil
		}).
		OnP2CardActionTrigger(func(ctx context.Context, event *callback.CardActionTriggerEvent) (*callback.CardActionTriggerResponse, error) {
			go c.handleCardAction(event)
			return &callback.CardActionTriggerResponse{}, nil
		})

	c.wsCli = larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(larkcore.LogLevelInfo),
	)

	fmt.Println("[Feishu] Starting WebSocket connection...")

	// Blocks until stopped
	return c.wsCli.Start(c.ctx)
}

// fetchBotOpenID fetches the bot's own open_id
func (c *Client) fetchBotOpenID() error {
	tokenReq := fmt.Sprintf(`{"app_id":"%s","app_secret":"%s"}`, c.appID, c.appSecret)
	tokenResp, err := http.Post(
		"https://open.feishu.cn/open-apis/auth/v3/tenant_access_token/internal",
		"application/json",
		strings.NewReader(tokenReq),
	)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	defer tokenResp.Body.Close()

	var tokenResult struct {
		Code              int    `json:"code"`
		TenantAccessToken string `json:"tenant_access_token"`
	}
	if err := json.NewDecoder(tokenResp.Body).Decode(&tokenResult); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}

	req, _ := http.NewRequest("GET", "https://open.feishu.cn/open-apis/bot/v3/info", nil)
	req.Header.Set("Authorization", "Bearer "+tokenResult.TenantAccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("get bot info: %w", err)
	}
	defer resp.Body.Close()

	var botResult struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Bot  struct {
			OpenID  string `json:"open_id"`
			AppName string `json:"app_name"`
		} `json:"bot"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&botResult); err != nil {
		return fmt.Errorf("decode bot info: %w", err)
	}
	if botResult.Code != 0 {
		return fmt.Errorf("API error: %s", botResult.Msg)
	}

	c.botOpenID = botResult.Bot.OpenID
	fmt.Printf("[Feishu] Bot open_id: %s (name=%s)\n", c.botOpenID, botResult.Bot.AppName)
	return nil
}

// Stop disconnects from Feishu
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// handleMessage processes incoming Feishu messages
func (c *Client) handleMessage(event *larkim.P2MessageReceiveV1) {
	rawMsg := event.Event.Message
	if rawMsg == nil || rawMsg.ChatId == nil || rawMsg.MessageId == nil || rawMsg.MessageType == nil || rawMsg.Content == nil {
		return
	}

	// Ignore messages sent by bots
	if event.Event.Sender != nil && event.Event.Sender.SenderType != nil {
		if *event.Event.Sender.SenderType == "app" {
			return
		}
	}

	msg := &Message{
		ChatID:  *rawMsg.ChatId,
		MsgID:   *rawMsg.MessageId,
		MsgType: *rawMsg.MessageType,
	}
	if rawMsg.ChatType != nil {
		msg.ChatType = *rawMsg.ChatType
	}
	if event.Event.Sender != nil && event.Event.Sender.SenderId != nil && event.Event.Sender.SenderId.OpenId != nil {
		msg.SenderID = *event.Event.Sender.SenderId.OpenId
	}

	var mentionKeys []string
	for _, mention := range rawMsg.Mentions {
		if mention.Key != nil {
			mentionKeys = append(mentionKeys, *mention.Key)
		}
		if mention.Id != nil && mention.Id.OpenId != nil && *mention.Id.OpenId == c.botOpenID {
			msg.MentionsBot = true
		}
	}

	switch msg.MsgType {
	case "text":
		msg.Content = ParseTextContent(*rawMsg.Content, mentionKeys)
	case "post":
		msg.Content = ParsePostContent(*rawMsg.Content, mentionKeys)
	default:
		fmt.Printf("[Feishu] Unsupported message type: %s\n", msg.MsgType)
		return
	}

	fmt.Printf("[Feishu] Received %s from %s chat %s: %s\n", msg.MsgType, msg.ChatType, msg.ChatID, truncate(msg.Content, 50))

	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

// cardActionPayload is the part of a card callback this client reads
type cardActionPayload struct {
	Token    string `json:"token"`
	Operator struct {
		OpenID string `json:"open_id"`
	} `json:"operator"`
	Action struct {
		Value map[string]interface{} `json:"value"`
	} `json:"action"`
	Context struct {
		OpenMessageID string `json:"open_message_id"`
		OpenChatID    string `json:"open_chat_id"`
	} `json:"context"`
}

// handleCardAction processes a card button press
func (c *Client) handleCardAction(event *callback.CardActionTriggerEvent) {
	if event == nil || event.Event == nil {
		return
	}

	// Round-trip through JSON to read the fields regardless of SDK pointer shapes
	raw, err := json.Marshal(event.Event)
	if err != nil {
		fmt.Printf("[Feishu] Failed to encode card action: %v\n", err)
		return
	}
	action, ok := ParseCardAction(raw)
	if !ok {
		fmt.Printf("[Feishu] Ignoring card action without data\n")
		return
	}

	fmt.Printf("[Feishu] Card action %q in chat %s\n", action.Data, action.ChatID)

	if c.onCardAction != nil {
		c.onCardAction(action)
	}
}

// ParseCardAction decodes a card callback body into a CardAction
func ParseCardAction(raw []byte) (*CardAction, bool) {
	var payload cardActionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}
	data, _ := payload.Action.Value["data"].(string)
	if data == "" || payload.Context.OpenChatID == "" {
		return nil, false
	}
	return &CardAction{
		ChatID:    payload.Context.OpenChatID,
		MessageID: payload.Context.OpenMessageID,
		OpenID:    payload.Operator.OpenID,
		Data:      data,
		Token:     payload.Token,
	}, true
}

// ParseTextContent extracts text from a text message, dropping mention placeholders (@_user_1)
func ParseTextContent(content string, mentionKeys []string) string {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}
	return stripMentions(parsed.Text, mentionKeys)
}

// ParsePostContent extracts the text of a rich text message, skipping "at" elements
func ParsePostContent(content string, mentionKeys []string) string {
	var parsed struct {
		Title   string `json:"title"`
		Content [][]struct {
			Tag  string `json:"tag"`
			Text string `json:"text,omitempty"`
		} `json:"content"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}

	var textParts []string
	if parsed.Title != "" {
		textParts = append(textParts, parsed.Title)
	}
	for _, line := range parsed.Content {
		var lineParts []string
		for _, elem := range line {
			if elem.Tag == "text" && elem.Text != "" {
				lineParts = append(lineParts, elem.Text)
			}
		}
		if len(lineParts) > 0 {
			textParts = append(textParts, strings.Join(lineParts, ""))
		}
	}

	return stripMentions(strings.Join(textParts, "\n"), mentionKeys)
}

// stripMentions removes mention placeholders and surrounding whitespace
func stripMentions(text string, mentionKeys []string) string {
	for _, key := range mentionKeys {
		text = strings.ReplaceAll(text, key, "")
	}
	return strings.TrimSpace(text)
}

// CardButton is one button of an interactive card
type CardButton struct {
	Text string
	Data string
}

// BuildCard renders lark_md text plus button rows as interactive card JSON
func BuildCard(markdown string, rows [][]CardButton) string {
	elements := []map[string]interface{}{
		{
			"tag":  "div",
			"text": map[string]interface{}{"tag": "lark_md", "content": markdown},
		},
	}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		var actions []map[string]interface{}
		for _, b := range row {
			actions = append(actions, map[string]interface{}{
				"tag":   "button",
				"text":  map[string]interface{}{"tag": "plain_text", "content": b.Text},
				"type":  "default",
				"value": map[string]interface{}{"data": b.Data},
			})
		}
		elements = append(elements, map[string]interface{}{
			"tag":     "action",
			"actions": actions,
		})
	}

	card := map[string]interface{}{
		"config":   map[string]interface{}{"wide_screen_mode": true},
		"elements": elements,
	}
	cardJSON, _ := json.Marshal(card)
	return string(cardJSON)
}

// SendText sends a text message to a chat
func (c *Client) SendText(ctx context.Context, chatID, text string) error {
	content := map[string]string{"text": text}
	contentJSON, _ := json.Marshal(content)

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeText).
			Content(string(contentJSON)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send message error: %s", resp.Msg)
	}

	fmt.Printf("[Feishu] Message sent to %s\n", chatID)
	return nil
}

// SendCard sends an interactive card and returns its message ID
func (c *Client) SendCard(ctx context.Context, chatID, cardJSON string) (string, error) {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeInteractive).
			Content(cardJSON).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("send card failed: %w", err)
	}
	if !resp.Success() {
		return "", fmt.Errorf("send card error: %s", resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	fmt.Printf("[Feishu] Card %s sent to %s\n", messageID, chatID)
	return messageID, nil
}

// PatchCard replaces the content of a card sent by this bot
func (c *Client) PatchCard(ctx context.Context, messageID, cardJSON string) error {
	req := larkim.NewPatchMessageReqBuilder().
		MessageId(messageID).
		Body(larkim.NewPatchMessageReqBodyBuilder().
			Content(cardJSON).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Patch(ctx, req)
	if err != nil {
		return fmt.Errorf("patch card failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("patch card error: %s", resp.Msg)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
