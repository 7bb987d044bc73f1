package service

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
)

// Callback payloads
const (
	CallbackSearchPrompt = "search_prompt"
	CallbackCategories   = "categories"
	CallbackTrending     = "trending"
	CallbackHelp         = "help"
	CallbackStartMenu    = "start_menu"

	CallbackCategoryPrefix   = "cat_"
	CallbackSaveSearchPrefix = "save_search_"
	CallbackSaveGroupPrefix  = "save_group_"
)

// maxCallbackData is the platform limit for button payloads, in bytes
const maxCallbackData = 64

const (
	descriptionPreview = 80
	descriptionDetail  = 200
)

var esc = html.EscapeString

// callbackData builds a payload, trimming value to fit the size limit
func callbackData(prefix, value string) string {
	room := maxCallbackData - len(prefix)
	for len(value) > room {
		_, size := utf8.DecodeLastRuneInString(value)
		value = value[:len(value)-size]
	}
	return prefix + value
}

// preview cuts s to n runes, marking the cut
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "..."
}

func welcomeReply() *domain.Reply {
	text := `🔍 <b>Group Search Bot</b>

Find public groups for your interests!

<b>🎯 Main commands:</b>
• <code>/search &lt;topic&gt;</code> - Search groups by topic
• <code>/info &lt;@username&gt;</code> - Details of a group
• <code>/trending</code> - Trending groups
• <code>/categories</code> - Browse by category
• <code>/help</code> - Full guide

<b>📌 Examples:</b>
• <code>/search crypto</code>
• <code>/search milano</code>
• <code>/search gaming</code>

Start with a search! 🚀`

	return &domain.Reply{
		Text: text,
		Buttons: [][]domain.Button{
			{{Text: "🔍 Search groups", Data: CallbackSearchPrompt}},
			{{Text: "📊 Categories", Data: CallbackCategories}, {Text: "🔥 Trending", Data: CallbackTrending}},
			{{Text: "❓ Help", Data: CallbackHelp}},
		},
	}
}

func helpReply() *domain.Reply {
	text := `❓ <b>Full guide</b>

<b>🔍 Search commands:</b>
• <code>/search &lt;topic&gt;</code> - Search groups (alias <code>/cerca</code>)
• <code>/info &lt;@username&gt;</code> - Group details
• <code>/trending</code> - Popular groups
• <code>/categories</code> - Browse by category (alias <code>/categorie</code>)
• <code>/saved &lt;topic&gt;</code> - Groups found earlier
• <code>/history</code> - Your recent searches

<b>💡 Tips:</b>
• Use specific keywords
• Try different combinations
• Try both local and English terms

<b>🎯 Examples:</b>
• Interests: <code>crypto</code>, <code>gaming</code>, <code>tech</code>
• Places: <code>milano</code>, <code>roma</code>, <code>napoli</code>
• Hobbies: <code>photography</code>, <code>cooking</code>, <code>sport</code>`

	return &domain.Reply{
		Text:    text,
		Buttons: [][]domain.Button{{{Text: "🔙 Back", Data: CallbackStartMenu}}},
	}
}

func searchPromptReply() *domain.Reply {
	return &domain.Reply{Text: `🔍 <b>Start a search</b>

Type: <code>/search &lt;what you are looking for&gt;</code>

<b>Examples:</b>
• <code>/search crypto bitcoin</code>
• <code>/search roma calcio</code>
• <code>/search python programming</code>`}
}

func usageReply(command string) *domain.Reply {
	switch command {
	case "info":
		return &domain.Reply{Text: "❌ <b>Specify a group!</b>\n\nExample: <code>/info @cryptoitalia</code>\nExample: <code>/info https://t.me/cryptoitalia</code>"}
	case "saved":
		return &domain.Reply{Text: "❌ <b>Specify what to look for!</b>\n\nExample: <code>/saved crypto</code>"}
	default:
		return &domain.Reply{Text: "❌ <b>Specify what to search!</b>\n\nExample: <code>/search crypto</code>\nExample: <code>/search milano calcio</code>"}
	}
}

func searchingReply() *domain.Reply {
	return &domain.Reply{Text: "🔍 Searching... ⏳"}
}

func loadingInfoReply() *domain.Reply {
	return &domain.Reply{Text: "ℹ️ Fetching information... ⏳"}
}

func cancelledReply() *domain.Reply {
	return &domain.Reply{Text: "⏹️ Cancelled by a newer request."}
}

func errorReply() *domain.Reply {
	return &domain.Reply{Text: "❌ Something went wrong, please try again."}
}

func invalidHandleReply(identifier string) *domain.Reply {
	return &domain.Reply{Text: fmt.Sprintf("❌ <code>%s</code> is not a valid group username or link.", esc(identifier))}
}

func infoNotFoundReply(identifier string) *domain.Reply {
	return &domain.Reply{Text: fmt.Sprintf("❌ Could not find information for: <code>%s</code>", esc(identifier))}
}

// writeGroupEntry renders one numbered group of a result list
func writeGroupEntry(b *strings.Builder, i int, g *domain.Group) {
	title := g.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(b, "<b>%d. %s</b>\n", i, esc(title))
	if g.Username != "" {
		fmt.Fprintf(b, "🆔 @%s\n", esc(g.Username))
	}
	members := g.Members
	if members == "" {
		members = "N/A"
	}
	fmt.Fprintf(b, "👥 %s members\n", esc(members))
	description := g.Description
	if description == "" {
		description = "No description"
	}
	fmt.Fprintf(b, "📝 %s\n", esc(preview(description, descriptionPreview)))
	if link := g.Link(); link != "" {
		fmt.Fprintf(b, "🔗 <a href=\"%s\">Join</a>\n", esc(link))
	}
	b.WriteString("\n")
}

func resultsReply(query string, groups []*domain.Group, displayLimit int) *domain.Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 <b>Results for:</b> <code>%s</code>\n", esc(query))
	fmt.Fprintf(&b, "📊 <b>Found:</b> %d groups\n\n", len(groups))

	for i, g := range groups {
		if i >= displayLimit {
			break
		}
		writeGroupEntry(&b, i+1, g)
	}

	if len(groups) > displayLimit {
		fmt.Fprintf(&b, "➕ <b>And %d more groups...</b>\n", len(groups)-displayLimit)
		b.WriteString("Use <code>/info @username</code> for details")
	}

	return &domain.Reply{
		Text: strings.TrimRight(b.String(), "\n"),
		Buttons: [][]domain.Button{
			{{Text: "🔄 New search", Data: CallbackSearchPrompt}},
			{{Text: "💾 Save search", Data: callbackData(CallbackSaveSearchPrefix, query)}},
		},
	}
}

func noResultsReply(query string, suggestions []string) *domain.Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "❌ <b>No groups found for:</b> <code>%s</code>\n\n", esc(query))
	b.WriteString("💡 <b>Suggestions:</b>\n")
	b.WriteString("• Try different words\n")
	b.WriteString("• Use more generic terms\n")
	b.WriteString("• Check the spelling")

	if len(suggestions) > 0 {
		b.WriteString("\n\n🔎 <b>Try instead:</b>\n")
		for _, s := range suggestions {
			fmt.Fprintf(&b, "• <code>/search %s</code>\n", esc(s))
		}
	}

	return &domain.Reply{
		Text:    strings.TrimRight(b.String(), "\n"),
		Buttons: [][]domain.Button{{{Text: "📊 Categories", Data: CallbackCategories}}},
	}
}

func infoReply(g *domain.Group) *domain.Reply {
	var b strings.Builder
	b.WriteString("📋 <b>Group info</b>\n\n")
	fmt.Fprintf(&b, "<b>📛 Name:</b> %s\n", esc(g.Title))
	fmt.Fprintf(&b, "<b>🆔 Username:</b> @%s\n", esc(g.Username))

	members := "N/A"
	if count := g.MemberCount(); count > 0 {
		members = humanize.Comma(count)
	} else if g.Members != "" {
		members = esc(g.Members)
	}
	fmt.Fprintf(&b, "<b>👥 Members:</b> %s\n", members)

	verified := "No"
	if g.IsVerified {
		verified = "Yes"
	}
	fmt.Fprintf(&b, "<b>✅ Verified:</b> %s\n", verified)

	if g.Description != "" {
		fmt.Fprintf(&b, "\n<b>📝 Description:</b>\n%s\n", esc(preview(g.Description, descriptionDetail)))
	}
	if link := g.Link(); link != "" {
		fmt.Fprintf(&b, "\n🔗 <b><a href=\"%s\">Join the group</a></b>", esc(link))
	}

	return &domain.Reply{
		Text: strings.TrimRight(b.String(), "\n"),
		Buttons: [][]domain.Button{
			{{Text: "🔍 Search more", Data: CallbackSearchPrompt}},
			{{Text: "💾 Save", Data: callbackData(CallbackSaveGroupPrefix, g.Username)}},
		},
	}
}

func trendingReply(trending []TrendingEntry) *domain.Reply {
	var b strings.Builder
	b.WriteString("🔥 <b>Trending groups</b>\n\n")
	for i, t := range trending {
		fmt.Fprintf(&b, "<b>%d. %s</b>\n", i+1, esc(t.Title))
		fmt.Fprintf(&b, "%s • 👥 %s\n", esc(t.Category), esc(t.Members))
		fmt.Fprintf(&b, "🔗 %s\n\n", esc(domain.PublicLinkPrefix+t.Username))
	}

	return &domain.Reply{
		Text: strings.TrimRight(b.String(), "\n"),
		Buttons: [][]domain.Button{
			{{Text: "🔍 Search specific", Data: CallbackSearchPrompt}},
			{{Text: "📊 Categories", Data: CallbackCategories}},
		},
	}
}

func categoriesReply(categories []CategoryEntry) *domain.Reply {
	var rows [][]domain.Button
	for i := 0; i < len(categories); i += 2 {
		row := []domain.Button{{Text: categories[i].Label, Data: callbackData(CallbackCategoryPrefix, categories[i].Key)}}
		if i+1 < len(categories) {
			row = append(row, domain.Button{Text: categories[i+1].Label, Data: callbackData(CallbackCategoryPrefix, categories[i+1].Key)})
		}
		rows = append(rows, row)
	}
	rows = append(rows, []domain.Button{{Text: "🔍 Free search", Data: CallbackSearchPrompt}})

	return &domain.Reply{
		Text:    "📊 <b>Popular categories</b>\n\nPick a category to find the best groups:",
		Buttons: rows,
	}
}

func historyReply(events []*domain.SearchEvent, total int) *domain.Reply {
	if len(events) == 0 {
		return &domain.Reply{
			Text:    "🕘 You have no searches yet.\n\nTry <code>/search crypto</code>",
			Buttons: [][]domain.Button{{{Text: "🔍 Search groups", Data: CallbackSearchPrompt}}},
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🕘 <b>Your recent searches</b> (%s total)\n\n", humanize.Comma(int64(total)))
	for i, e := range events {
		fmt.Fprintf(&b, "%d. <code>%s</code> • %d results • %s\n",
			i+1, esc(e.Query), e.ResultCount, humanize.Time(e.CreatedAt))
	}

	return &domain.Reply{
		Text:    strings.TrimRight(b.String(), "\n"),
		Buttons: [][]domain.Button{{{Text: "🔄 New search", Data: CallbackSearchPrompt}}},
	}
}

func savedReply(query string, groups []*domain.Group, displayLimit int) *domain.Reply {
	if len(groups) == 0 {
		return &domain.Reply{
			Text:    fmt.Sprintf("💾 No saved groups match <code>%s</code> yet.\n\nRun <code>/search %s</code> first.", esc(query), esc(query)),
			Buttons: [][]domain.Button{{{Text: "🔍 Search groups", Data: CallbackSearchPrompt}}},
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💾 <b>Saved groups for:</b> <code>%s</code>\n\n", esc(query))
	for i, g := range groups {
		if i >= displayLimit {
			break
		}
		writeGroupEntry(&b, i+1, g)
	}
	if len(groups) > displayLimit {
		fmt.Fprintf(&b, "➕ <b>And %d more groups...</b>", len(groups)-displayLimit)
	}

	return &domain.Reply{
		Text:    strings.TrimRight(b.String(), "\n"),
		Buttons: [][]domain.Button{{{Text: "🔄 New search", Data: CallbackSearchPrompt}}},
	}
}

func groupSavedText(g *domain.Group) string {
	return fmt.Sprintf("✅ @%s saved", g.Username)
}

func categorySearchingReply(label string) *domain.Reply {
	return &domain.Reply{Text: fmt.Sprintf("🔍 Searching category %s... ⏳", esc(label))}
}
