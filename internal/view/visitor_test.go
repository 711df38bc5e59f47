package view

import (
	"strings"
	"testing"
)

func int64p(v int64) *int64 { return &v }

func TestVisitorKey_ChainOrder(t *testing.T) {
	t.Parallel()

	chain := []string{IdentifierUser, IdentifierSession, IdentifierIP}

	full := ViewRequest{UserID: int64p(42), SessionID: "sess-1", IP: "203.0.113.1"}
	userOnly := ViewRequest{UserID: int64p(42), SessionID: "other", IP: "198.51.100.9"}

	// Same user wins regardless of session or IP.
	if VisitorKey(chain, full) != VisitorKey(chain, userOnly) {
		t.Error("same user should produce same key across sessions and IPs")
	}

	anon := ViewRequest{SessionID: "sess-1", IP: "203.0.113.1"}
	if VisitorKey(chain, full) == VisitorKey(chain, anon) {
		t.Error("authenticated and anonymous visitors should differ")
	}

	bySession := ViewRequest{SessionID: "sess-1", IP: "198.51.100.9"}
	if VisitorKey(chain, anon) != VisitorKey(chain, bySession) {
		t.Error("same session should produce same key across IPs")
	}

	byIP := ViewRequest{IP: "203.0.113.1"}
	if VisitorKey(chain, anon) == VisitorKey(chain, byIP) {
		t.Error("session visitor and IP-only visitor should differ")
	}
}

func TestVisitorKey_CustomChain(t *testing.T) {
	t.Parallel()

	// An ip-first chain ignores the user id.
	req := ViewRequest{UserID: int64p(42), IP: "203.0.113.1"}
	ipFirst := VisitorKey([]string{IdentifierIP, IdentifierUser}, req)
	ipOnly := VisitorKey([]string{IdentifierIP}, ViewRequest{IP: "203.0.113.1"})
	if ipFirst != ipOnly {
		t.Error("ip-first chain should key on IP alone")
	}
}

func TestVisitorKey_Shape(t *testing.T) {
	t.Parallel()

	key := VisitorKey([]string{IdentifierIP}, ViewRequest{IP: "203.0.113.1"})
	if len(key) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(key))
	}
	if strings.Contains(key, "203.0.113.1") {
		t.Error("raw IP must not appear in the key")
	}

	// Nothing identifiable still yields a stable key.
	empty1 := VisitorKey([]string{IdentifierUser}, ViewRequest{})
	empty2 := VisitorKey([]string{IdentifierUser}, ViewRequest{})
	if empty1 != empty2 || len(empty1) != 64 {
		t.Error("anonymous fallback should be stable")
	}
}

func TestIsBot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ua   string
		want bool
	}{
		{"googlebot", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", true},
		{"bingbot", "Mozilla/5.0 (compatible; bingbot/2.0)", true},
		{"curl", "curl/8.4.0", true},
		{"wget", "Wget/1.21", true},
		{"python", "python-requests/2.31.0", true},
		{"headless chrome", "Mozilla/5.0 HeadlessChrome/120.0", true},
		{"uptime checker", "UptimeRobot/2.0", true},
		{"chrome", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36", false},
		{"firefox", "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0", false},
		{"mobile safari", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Version/17.0 Mobile Safari/604.1", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsBot(tt.ua); got != tt.want {
				t.Errorf("IsBot(%q) = %v, want %v", tt.ua, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := Truncate("short", 500); got != "short" {
		t.Errorf("Truncate(short) = %q", got)
	}
	long := strings.Repeat("x", 600)
	if got := Truncate(long, 500); len(got) != 500 {
		t.Errorf("truncated length = %d, want 500", len(got))
	}
}
