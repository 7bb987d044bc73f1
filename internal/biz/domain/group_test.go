package domain

import (
	"testing"
)

func TestParseMemberCount(t *testing.T) {
	tests := []struct {
		label string
		want  int64
	}{
		{"5.2K", 5200},
		{"12.5k", 12500},
		{"25.1K", 25100},
		{"1,500", 1500},
		{"830", 830},
		{"2M", 2000000},
		{"1.25 M", 1250000},
		{"", 0},
		{"N/A", 0},
		{"-5", 0},
		{"Inf", 0},
		{"-Inf", 0},
		{"NaN", 0},
		{"9e18M", 0},
		{"1e300", 0},
	}

	for _, tt := range tests {
		if got := ParseMemberCount(tt.label); got != tt.want {
			t.Errorf("ParseMemberCount(%q) = %d, want %d", tt.label, got, tt.want)
		}
	}
}

func TestGroupKey_FieldWise(t *testing.T) {
	a := &Group{Username: "ab", Title: "c"}
	b := &Group{Username: "a", Title: "bc"}

	if a.Key() == b.Key() {
		t.Error("Expected keys to differ when concatenations collide")
	}

	c := &Group{Username: "ab", Title: "c", Description: "other"}
	if a.Key() != c.Key() {
		t.Error("Expected keys to match for same username and title")
	}
}

func TestGroup_StorageKey(t *testing.T) {
	g := &Group{Username: "CryptoItalia", Title: "Crypto Italia"}
	if g.StorageKey() != "@cryptoitalia" {
		t.Errorf("Expected '@cryptoitalia', got '%s'", g.StorageKey())
	}

	anon := &Group{Title: "No Handle"}
	if anon.StorageKey() != "title:No Handle" {
		t.Errorf("Expected 'title:No Handle', got '%s'", anon.StorageKey())
	}
}

func TestGroup_Link(t *testing.T) {
	g := &Group{Username: "gaming_ita"}
	if g.Link() != "https://t.me/gaming_ita" {
		t.Errorf("Unexpected link: %s", g.Link())
	}

	g.InviteLink = "https://t.me/+invite"
	if g.Link() != "https://t.me/+invite" {
		t.Errorf("Expected invite link to win, got %s", g.Link())
	}
}

func TestParseHandle(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"@cryptoitalia", "cryptoitalia", true},
		{"cryptoitalia", "cryptoitalia", true},
		{"https://t.me/cryptoitalia", "cryptoitalia", true},
		{"t.me/cryptoitalia/123", "cryptoitalia", true},
		{"HTTPS://Telegram.me/Crypto_Italia?start=1", "Crypto_Italia", true},
		{"@", "", false},
		{"bad handle", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseHandle(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseHandle(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSanitizeHandle(t *testing.T) {
	if got := SanitizeHandle("Milano Calcio!"); got != "milanocalcio" {
		t.Errorf("Expected 'milanocalcio', got '%s'", got)
	}
	if got := SanitizeHandle("🚀🚀"); got != "" {
		t.Errorf("Expected empty handle, got '%s'", got)
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("milano  CALCIO"); got != "Milano Calcio" {
		t.Errorf("Expected 'Milano Calcio', got '%s'", got)
	}
}
