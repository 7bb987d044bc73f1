package domain

import (
	"regexp"
	"strings"
	"unicode"
)

// PublicLinkPrefix is the canonical join URL prefix for public groups
const PublicLinkPrefix = "https://t.me/"

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,64}$`)

var linkPrefixes = []string{
	"https://t.me/",
	"http://t.me/",
	"https://telegram.me/",
	"http://telegram.me/",
	"t.me/",
	"telegram.me/",
}

// ParseHandle extracts a group handle from "@name", "name" or a t.me link.
// Returns false if the result is not a valid handle.
func ParseHandle(identifier string) (string, bool) {
	s := strings.TrimSpace(identifier)
	lower := strings.ToLower(s)
	for _, prefix := range linkPrefixes {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "@")

	if !handlePattern.MatchString(s) {
		return "", false
	}
	return s, true
}

// SanitizeHandle turns a free-text query into a handle fragment:
// lower case, spaces dropped, only [a-z0-9_] kept.
func SanitizeHandle(query string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(query) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TitleCase upper-cases the first letter of every word
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		for j := 1; j < len(runes); j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
