package rag

import (
	"fmt"
	"net/url"
	"strings"
)

// TruncateURL shortens a catalog page URL for progress output. Pages of one
// catalog share a host, so only the path and query are shown. When that is
// still longer than maxLen the start is replaced with "..." because catalog
// pages are told apart by their query (poid, catoid).
func TruncateURL(rawURL string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	display := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		display = u.EscapedPath()
		if display == "" {
			display = "/"
		}
		if u.RawQuery != "" {
			display += "?" + u.RawQuery
		}
	}

	if len(display) <= maxLen {
		return display
	}
	if maxLen < 4 {
		return display[:maxLen]
	}
	return "..." + display[len(display)-maxLen+3:]
}

// FormatBytes formats a size in bytes for display.
func FormatBytes(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatTokens formats an approximate token count.
func FormatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("~%d tokens", tokens)
	}
	return fmt.Sprintf("~%dk tokens", (tokens+500)/1000)
}

// FormatResult summarizes a warm run, e.g.
// "12 pages, 148 chunks (1.2 MB, ~310k tokens), 1 failed".
func FormatResult(r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s (%s, %s)",
		plural(r.Pages, "page"), plural(r.Chunks, "chunk"), FormatBytes(r.Bytes), FormatTokens(r.Tokens))
	if r.Failed > 0 {
		fmt.Fprintf(&b, ", %d failed", r.Failed)
	}
	return b.String()
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
