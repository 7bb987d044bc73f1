package data

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/biz/repo"
	"github.com/grouphunt/groupsearch-bot/internal/infra/feishu"
)

// FeishuSender is the outbound part of the Feishu client
type FeishuSender interface {
	SendText(ctx context.Context, chatID, text string) error
	SendCard(ctx context.Context, chatID, cardJSON string) (string, error)
	PatchCard(ctx context.Context, messageID, cardJSON string) error
}

// feishuRepo implements the chat repository for Feishu. Replies are sent as
// interactive cards so they can be patched in place.
type feishuRepo struct {
	client FeishuSender
}

// NewFeishuRepo creates a new Feishu chat repository
func NewFeishuRepo(client FeishuSender) repo.ChatRepo {
	return &feishuRepo{client: client}
}

func (r *feishuRepo) Send(ctx context.Context, chat domain.ChatRef, reply *domain.Reply) (string, error) {
	return r.client.SendCard(ctx, chat.ChatID, feishuCard(reply))
}

func (r *feishuRepo) Edit(ctx context.Context, chat domain.ChatRef, messageID string, reply *domain.Reply) error {
	return r.client.PatchCard(ctx, messageID, feishuCard(reply))
}

// AnswerCallback posts the outcome text to the chat. Card presses are
// acknowledged on receipt, so the callback ID carries the chat ID.
func (r *feishuRepo) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if text == "" {
		return nil
	}
	return r.client.SendText(ctx, callbackID, text)
}

func feishuCard(reply *domain.Reply) string {
	var rows [][]feishu.CardButton
	for _, row := range reply.Buttons {
		var buttons []feishu.CardButton
		for _, b := range row {
			buttons = append(buttons, feishu.CardButton{Text: b.Text, Data: b.Data})
		}
		rows = append(rows, buttons)
	}
	return feishu.BuildCard(HTMLToLarkMarkdown(reply.Text), rows)
}

var anchorPattern = regexp.MustCompile(`<a href="([^"]*)">(.*?)</a>`)

var tagReplacer = strings.NewReplacer(
	"<b>", "**", "</b>", "**",
	"<i>", "*", "</i>", "*",
	"<code>", "`", "</code>", "`",
)

// HTMLToLarkMarkdown converts the HTML subset used in replies to lark_md
func HTMLToLarkMarkdown(s string) string {
	s = anchorPattern.ReplaceAllString(s, "[$2]($1)")
	s = tagReplacer.Replace(s)
	return html.UnescapeString(s)
}
