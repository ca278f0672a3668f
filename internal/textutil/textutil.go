// Package textutil formats item fields for display.
package textutil

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// TimeAgo renders a unix timestamp relative to now, e.g. "3 hours ago".
// Zero yields "".
func TimeAgo(unix int64, now time.Time) string {
	if unix == 0 {
		return ""
	}
	return humanize.RelTime(time.Unix(unix, 0), now, "ago", "from now")
}

// Domain returns the host of rawURL without a leading "www.", or "" when the
// URL does not parse to a host.
func Domain(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// Truncate cuts s to at most n runes and appends "..." when it cut anything.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}

// CompactNumber renders 1234 as "1.2k" and 3400000 as "3.4m".
func CompactNumber(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fm", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return strconv.Itoa(n)
	}
}

var techWords = []string{
	"javascript", "typescript", "python", "react", "vue", "angular",
	"node", "deno", "rust", "go", "golang", "java", "kotlin", "swift",
	"ai", "ml", "machine learning", "data", "cloud", "aws", "azure",
	"gcp", "serverless", "blockchain", "crypto", "web3", "nft",
	"security", "privacy", "open source", "github", "git",
}

// Topics lists the known tech keywords that occur, as substrings, in the
// title or text.
func Topics(title, text string) []string {
	if title == "" && text == "" {
		return nil
	}
	content := strings.ToLower(title + " " + text)
	var out []string
	for _, w := range techWords {
		if strings.Contains(content, w) {
			out = append(out, w)
		}
	}
	return out
}
