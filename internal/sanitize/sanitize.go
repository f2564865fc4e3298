// Package sanitize strips sensitive fragments from client-supplied strings
// before they reach storage.
package sanitize

import (
	"net/url"
	"strings"
)

const (
	// MaxURLLength bounds stored page URLs.
	MaxURLLength = 2000
	// MaxUserAgentLength bounds stored user-agent strings.
	MaxUserAgentLength = 500
)

// URL clears the query string and fragment from a page URL so secrets and PII
// carried in query params never reach storage, then truncates to
// MaxURLLength. Malformed input degrades to truncation of the raw string.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return truncate(raw, MaxURLLength)
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return truncate(u.String(), MaxURLLength)
}

// UserAgent collapses parenthetical substrings to empty parentheses, the
// usual location of detailed OS/device fingerprint data, and truncates to
// MaxUserAgentLength. Total function, never errors.
func UserAgent(raw string) string {
	var b strings.Builder
	depth := 0
	for _, r := range raw {
		switch r {
		case '(':
			if depth == 0 {
				b.WriteString("()")
			}
			depth++
		case ')':
			if depth > 0 {
				depth--
			} else {
				b.WriteRune(r)
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return truncate(b.String(), MaxUserAgentLength)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on a rune boundary so truncation never produces invalid UTF-8.
	cut := max
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
