package service

import (
	"strings"
	"unicode"
)

// ParseCommand splits "/name@bot args" into a lower-case name and trimmed
// arguments. Commands addressed to another bot are rejected.
func ParseCommand(text, botUserName string) (string, string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	text = text[1:]

	head, args := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		head, args = text[:i], text[i:]
	}

	name, target, addressed := strings.Cut(head, "@")
	if addressed && botUserName != "" && !strings.EqualFold(target, botUserName) {
		return "", "", false
	}
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(args), true
}
