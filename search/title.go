package search

import (
	"strings"
)

const (
	maxTitleLen = 120

	// A truncated title is only cut back to a word boundary when the
	// boundary leaves more than this many bytes.
	minTitleCut = 10
)

// Title derives a display title from the page content. Content longer than
// 120 characters is truncated at the last space and suffixed with "...".
// Pages without content are titled by their path.
func Title(content, path string) string {
	text := strings.TrimSpace(content)
	if text == "" {
		return path
	}

	runes := []rune(text)
	if len(runes) <= maxTitleLen {
		return text
	}

	title := string(runes[:maxTitleLen])
	if i := strings.LastIndexByte(title, ' '); i > minTitleCut {
		title = title[:i]
	}

	return strings.TrimSpace(title) + ellipsis
}
