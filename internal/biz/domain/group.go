package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// GroupTypeGroup is the only classification currently produced by sources
const GroupTypeGroup = "group"

// Group represents a discovered group or channel (value object)
type Group struct {
	Title       string    `json:"title"`
	Username    string    `json:"username,omitempty"` // Handle without the leading @, may be empty
	Description string    `json:"description,omitempty"`
	Members     string    `json:"members,omitempty"` // Human-readable member count label, e.g. "5.2K"
	Type        string    `json:"type,omitempty"`
	InviteLink  string    `json:"invite_link,omitempty"`
	SourceQuery string    `json:"source_query,omitempty"` // Query that produced this record
	Source      string    `json:"source,omitempty"`       // Name of the source that produced this record
	FoundAt     time.Time `json:"found_at"`
	IsVerified  bool      `json:"is_verified"`
}

// GroupKey is the identity of a group record, compared field-wise
type GroupKey struct {
	Username string
	Title    string
}

// Key returns the identity key used for deduplication
func (g *Group) Key() GroupKey {
	return GroupKey{Username: g.Username, Title: g.Title}
}

// StorageKey returns the natural key used for persistence upserts.
// Usernames are case-insensitive on the platform, titles are not.
func (g *Group) StorageKey() string {
	if g.Username != "" {
		return "@" + strings.ToLower(g.Username)
	}
	return "title:" + g.Title
}

// MemberCount returns the member label parsed as a number
func (g *Group) MemberCount() int64 {
	return ParseMemberCount(g.Members)
}

// Link returns the invite link, falling back to the public handle URL
func (g *Group) Link() string {
	if g.InviteLink != "" {
		return g.InviteLink
	}
	if g.Username != "" {
		return PublicLinkPrefix + g.Username
	}
	return ""
}

// ParseMemberCount parses labels such as "5.2K", "1,500", "2M" or "830".
// Returns 0 for labels it cannot interpret.
func ParseMemberCount(label string) int64 {
	s := strings.TrimSpace(label)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0
	}

	multiplier := 1.0
	switch s[len(s)-1] {
	case 'k', 'K':
		multiplier = 1e3
	case 'm', 'M':
		multiplier = 1e6
	case 'b', 'B':
		multiplier = 1e9
	}
	if multiplier != 1.0 {
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(value) || value < 0 {
		return 0
	}
	value = value*multiplier + 0.5
	if math.IsInf(value, 0) || value >= math.MaxInt64 {
		return 0
	}
	return int64(value)
}
