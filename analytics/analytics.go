// Package analytics counts page views without storing anything that
// identifies a visitor: IPs and visitor fingerprints are salted hashes, and
// requests carrying DNT are never recorded.
package analytics

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/mileusna/useragent"
)

// Visit is a single human page view.
type Visit struct {
	VisitorID string    `json:"visitor_id"`
	SessionID string    `json:"session_id"`
	IPHash    string    `json:"-"`
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
	Device    string    `json:"device"`
	Path      string    `json:"path"`
	Referrer  string    `json:"referrer"`
	Timestamp time.Time `json:"timestamp"`
}

// BotVisit is a page view from a crawler. Bots never count towards Stats.
type BotVisit struct {
	BotName   string    `json:"bot_name"`
	IPHash    string    `json:"-"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats aggregates human visits over a period.
type Stats struct {
	Period         string          `json:"period"`
	UniqueVisitors int             `json:"unique_visitors"`
	TotalViews     int             `json:"total_views"`
	BotViews       int             `json:"bot_views"`
	TopPages       []PageStat      `json:"top_pages"`
	Browsers       []DimensionStat `json:"browsers"`
	Devices        []DimensionStat `json:"devices"`
	Referrers      []DimensionStat `json:"referrers"`
	DailyViews     []DailyView     `json:"daily_views"`
}

// PageStat is the view count of one path.
type PageStat struct {
	Path  string `json:"path"`
	Views int    `json:"views"`
}

// DimensionStat is a count for one value of a dimension (browser, referrer...).
type DimensionStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DailyView is the view count of one UTC day, formatted 2006-01-02.
type DailyView struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

type hasher struct {
	salt string
}

func newSalt() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (h hasher) sum(parts ...string) string {
	sum := sha256.Sum256([]byte(h.salt + strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:16]
}

// IP hashes an address.
func (h hasher) IP(ip string) string {
	return h.sum(ip)
}

// Visitor derives a stable anonymous id from an address and user agent.
func (h hasher) Visitor(ip, userAgent string) string {
	return h.sum(ip, userAgent)
}

func newSessionID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}

// ParseUserAgent reports the browser, OS and device class of a User-Agent.
// Browsers and systems outside the common few are "Other".
func ParseUserAgent(ua string) (browser, os, device string) {
	parsed := useragent.Parse(ua)

	browser = "Other"
	switch parsed.Name {
	case useragent.Firefox, useragent.Edge, useragent.Opera, useragent.Chrome, useragent.Safari:
		browser = parsed.Name
	}

	os = "Other"
	switch parsed.OS {
	case useragent.Windows, useragent.Android, useragent.IOS, useragent.MacOS, useragent.Linux:
		os = parsed.OS
	}

	switch {
	case parsed.Tablet:
		device = "Tablet"
	case parsed.Mobile:
		device = "Mobile"
	default:
		device = "Desktop"
	}
	return browser, os, device
}

var knownBots = []struct {
	pattern, name string
}{
	{"googlebot", "Googlebot"},
	{"bingbot", "Bingbot"},
	{"duckduckbot", "DuckDuckBot"},
	{"yandex", "Yandex"},
	{"baidu", "Baidu"},
	{"facebookexternalhit", "Facebook"},
	{"twitterbot", "Twitterbot"},
	{"linkedinbot", "LinkedIn"},
	{"ahrefsbot", "Ahrefs"},
	{"semrushbot", "SEMrush"},
	{"slurp", "Yahoo Slurp"},
}

var genericBotMarkers = []string{"bot", "crawl", "spider", "scrape", "curl/", "wget/"}

// BotName returns the crawler name for ua, or "" when ua looks human.
func BotName(ua string) string {
	ua = strings.ToLower(ua)
	if ua == "" {
		return "Unknown Bot"
	}
	for _, b := range knownBots {
		if strings.Contains(ua, b.pattern) {
			return b.name
		}
	}
	for _, m := range genericBotMarkers {
		if strings.Contains(ua, m) {
			return "Other Bot"
		}
	}
	return ""
}

// IsBot reports whether ua belongs to a crawler. An empty User-Agent counts
// as a bot.
func IsBot(ua string) bool {
	return BotName(ua) != ""
}

var searchEngines = []struct {
	host, name string
}{
	{"google.", "Google"},
	{"bing.", "Bing"},
	{"duckduckgo.", "DuckDuckGo"},
	{"yahoo.", "Yahoo"},
	{"github.", "GitHub"},
}

// CleanReferrer reduces a referrer URL to a display name: a known source, the
// bare host, or "Direct" when there is none. Referrers from selfHost are
// "Direct" too.
func CleanReferrer(ref, selfHost string) string {
	if ref == "" {
		return "Direct"
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return "Other"
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if selfHost != "" && host == strings.TrimPrefix(strings.ToLower(selfHost), "www.") {
		return "Direct"
	}
	for _, se := range searchEngines {
		if strings.Contains(host, se.host) {
			return se.name
		}
	}
	return host
}
