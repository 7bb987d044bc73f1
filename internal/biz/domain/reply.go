package domain

import "fmt"

// Platform identifies a chat platform
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformFeishu   Platform = "feishu"
)

// ChatRef addresses one chat on one platform
type ChatRef struct {
	Platform Platform
	ChatID   string
}

// String returns a stable key for the chat
func (c ChatRef) String() string {
	return fmt.Sprintf("%s:%s", c.Platform, c.ChatID)
}

// Button is an inline action button carrying a callback payload
type Button struct {
	Text string
	Data string
}

// Reply is a rendered response: HTML-safe text plus rows of buttons
type Reply struct {
	Text    string
	Buttons [][]Button
}
