package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Message represents a received text message
type Message struct {
	ChatID    int64
	MessageID int
	UserID    int64
	Text      string
}

// CallbackQuery represents an inline button press
type CallbackQuery struct {
	ID        string
	ChatID    int64
	MessageID int
	UserID    int64
	Data      string
}

// Button is one inline keyboard button
type Button struct {
	Text string
	Data string
}

// MessageHandler is the callback for received text messages
type MessageHandler func(msg *Message)

// CallbackHandler is the callback for button presses
type CallbackHandler func(cb *CallbackQuery)

// Client is the Telegram Bot API client
type Client struct {
	bot        *tgbotapi.BotAPI
	onMessage  MessageHandler
	onCallback CallbackHandler
}

// NewClient creates a client and verifies the token
func NewClient(token string) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	fmt.Printf("[Telegram] Authorized as @%s\n", bot.Self.UserName)
	return &Client{bot: bot}, nil
}

// UserName returns the bot's username
func (c *Client) UserName() string {
	return c.bot.Self.UserName
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// OnCallback sets the button handler
func (c *Client) OnCallback(handler CallbackHandler) {
	c.onCallback = handler
}

// Start long-polls updates until ctx is cancelled
func (c *Client) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	fmt.Println("[Telegram] Polling for updates...")

	for {
		select {
		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			// Each update runs on its own goroutine so a slow search never blocks polling
			switch {
			case update.Message != nil:
				go c.handleMessage(update.Message)
			case update.CallbackQuery != nil:
				go c.handleCallback(update.CallbackQuery)
			}
		}
	}
}

func (c *Client) handleMessage(raw *tgbotapi.Message) {
	if raw.Chat == nil || raw.From == nil || raw.From.IsBot || raw.Text == "" {
		return
	}

	if c.onMessage != nil {
		c.onMessage(&Message{
			ChatID:    raw.Chat.ID,
			MessageID: raw.MessageID,
			UserID:    raw.From.ID,
			Text:      raw.Text,
		})
	}
}

func (c *Client) handleCallback(raw *tgbotapi.CallbackQuery) {
	if raw.Message == nil || raw.Message.Chat == nil || raw.From == nil {
		return
	}

	if c.onCallback != nil {
		c.onCallback(&CallbackQuery{
			ID:        raw.ID,
			ChatID:    raw.Message.Chat.ID,
			MessageID: raw.Message.MessageID,
			UserID:    raw.From.ID,
			Data:      raw.Data,
		})
	}
}

func keyboard(rows [][]Button) *tgbotapi.InlineKeyboardMarkup {
	var keyboardRows [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		var buttons []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		keyboardRows = append(keyboardRows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	if len(keyboardRows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(keyboardRows...)
	return &markup
}

// SendHTML sends an HTML message with optional buttons and returns its ID
func (c *Client) SendHTML(chatID int64, text string, rows [][]Button) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup := keyboard(rows); markup != nil {
		msg.ReplyMarkup = markup
	}

	sent, err := c.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send message failed: %w", err)
	}
	return sent.MessageID, nil
}

// EditHTML replaces the text and buttons of a sent message
func (c *Client) EditHTML(chatID int64, messageID int, text string, rows [][]Button) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	edit.ReplyMarkup = keyboard(rows)

	if _, err := c.bot.Request(edit); err != nil {
		// Pressing the same button twice renders identical content
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return fmt.Errorf("edit message failed: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a button press, showing text as a toast when set
func (c *Client) AnswerCallback(callbackID, text string) error {
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback failed: %w", err)
	}
	return nil
}
