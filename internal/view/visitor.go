// Package view records incoming views: visitor identity, bot filtering
// and the cooldown that deduplicates repeat views.
package view

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Identifier names usable in the visitor fallback chain.
const (
	IdentifierUser    = "user"
	IdentifierSession = "session"
	IdentifierIP      = "ip"
)

// ViewRequest carries everything known about one incoming view.
type ViewRequest struct {
	EntityType string
	EntityID   string
	Collection string
	BranchID   *int64

	UserID    *int64
	SessionID string
	IP        string
	UserAgent string
	Referer   string
}

// VisitorKey derives the opaque visitor digest for a request. The chain is
// tried in order and the first identifier with a value wins, so an
// authenticated user keeps the same key across devices while an anonymous
// one falls back to session, then IP. The raw identifier never leaves this
// function.
func VisitorKey(chain []string, req ViewRequest) string {
	var raw string
	for _, id := range chain {
		switch id {
		case IdentifierUser:
			if req.UserID != nil {
				raw = "user:" + strconv.FormatInt(*req.UserID, 10)
			}
		case IdentifierSession:
			if req.SessionID != "" {
				raw = "session:" + req.SessionID
			}
		case IdentifierIP:
			if req.IP != "" {
				raw = "ip:" + req.IP
			}
		}
		if raw != "" {
			break
		}
	}
	if raw == "" {
		raw = "anonymous"
	}

	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// botMarkers are lowercase substrings identifying automated clients.
var botMarkers = []string{
	"bot",
	"crawl",
	"spider",
	"slurp",
	"curl",
	"wget",
	"python-requests",
	"go-http-client",
	"headless",
	"lighthouse",
	"phantomjs",
	"facebookexternalhit",
	"whatsapp",
	"telegrambot",
	"preview",
	"monitor",
	"uptime",
}

// IsBot reports whether the user agent looks automated. An empty user
// agent is not flagged; the store flags decide whether it is kept.
func IsBot(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	ua := strings.ToLower(userAgent)
	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

// Truncate caps a string at max bytes. Request metadata columns are
// bounded; anything longer is cut, not rejected.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
