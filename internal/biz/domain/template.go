package domain

import "strings"

// GroupTemplate produces a group record from a query.
// Placeholders: {{query}} (raw), {{Query}} (title case), {{handle}} (sanitised).
type GroupTemplate struct {
	Title       string
	Username    string
	Description string
	Members     string
}

// Render fills the template for the query. The username is re-sanitised
// so a template can never produce an invalid handle character, and is left
// empty when the query has no handle characters at all.
func (t GroupTemplate) Render(query string) *Group {
	query = strings.TrimSpace(query)
	handle := SanitizeHandle(query)
	r := strings.NewReplacer(
		"{{query}}", query,
		"{{Query}}", TitleCase(query),
		"{{handle}}", handle,
	)
	username := ""
	if handle != "" {
		if u, ok := ParseHandle(SanitizeHandle(r.Replace(t.Username))); ok {
			username = u
		}
	}
	return &Group{
		Title:       r.Replace(t.Title),
		Username:    username,
		Description: r.Replace(t.Description),
		Members:     t.Members,
		Type:        GroupTypeGroup,
		SourceQuery: query,
	}
}
