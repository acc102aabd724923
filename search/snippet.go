package search

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// Number of characters kept on each side of a match.
	snippetRadius = 60

	maxSnippetLen      = 300
	maxSnippetSegments = 2

	ellipsis         = "..."
	segmentSeparator = " ... "
)

var repeatedSpaceRegex = regexp.MustCompile(`[\s\p{Zs}]+`)

// SnippetGenerator builds highlighted excerpts of page content. It is safe
// for concurrent use.
type SnippetGenerator struct {
	policyPool sync.Pool
}

// NewSnippetGenerator returns a new SnippetGenerator.
func NewSnippetGenerator() *SnippetGenerator {
	return &SnippetGenerator{
		policyPool: sync.Pool{
			New: func() interface{} {
				return bluemonday.StrictPolicy()
			},
		},
	}
}

// GenerateSnippet returns an excerpt of content around the first occurrence
// of up to two of the provided tokens, with every whole-word occurrence of a
// matched token wrapped in <b></b>. When no token occurs in the content the
// leading part of the content is returned instead.
//
// The excerpt is HTML-escaped and holds at most 300 characters of text, not
// counting the emphasis markup.
func (g *SnippetGenerator) GenerateSnippet(content string, tokens []string) string {
	text := []rune(g.plainText(content))
	if len(text) == 0 {
		return ""
	}

	lower := make([]rune, len(text))
	for i, r := range text {
		lower[i] = unicode.ToLower(r)
	}

	var (
		segments []string
		matched  []string
	)

	for _, token := range uniqueTokens(tokens) {
		idx := indexRunes(lower, []rune(token))
		if idx == -1 {
			continue
		}

		segments = append(segments, segment(text, idx, utf8.RuneCountInString(token)))
		matched = append(matched, token)

		if len(segments) == maxSnippetSegments {
			break
		}
	}

	snippet := string(text)
	if len(segments) > 0 {
		snippet = strings.Join(segments, segmentSeparator)
	}

	return highlight(truncate(snippet, maxSnippetLen), matched)
}

// plainText strips the markup of content and collapses its whitespace.
func (g *SnippetGenerator) plainText(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}

	policy := g.policyPool.Get().(*bluemonday.Policy)
	defer g.policyPool.Put(policy)

	clean := repeatedSpaceRegex.ReplaceAllString(policy.Sanitize(content), " ")

	return strings.TrimSpace(html.UnescapeString(clean))
}

// uniqueTokens lowercases tokens and drops blanks and duplicates.
func uniqueTokens(tokens []string) []string {
	var (
		list []string
		seen = make(map[string]struct{}, len(tokens))
	)

	for _, token := range tokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}

		if _, exists := seen[token]; exists {
			continue
		}

		seen[token] = struct{}{}
		list = append(list, token)
	}

	return list
}

// segment returns the text surrounding the match at idx, marking truncated
// ends with an ellipsis.
func segment(text []rune, idx, length int) string {
	start := max(0, idx-snippetRadius)
	end := min(len(text), idx+length+snippetRadius)

	seg := strings.TrimSpace(string(text[start:end]))
	if start > 0 {
		seg = ellipsis + seg
	}

	if end < len(text) {
		seg += ellipsis
	}

	return seg
}

// truncate caps s at limit characters, ellipsis included. The cut moves back
// to the last space when that keeps more than half of the text.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	cut := strings.TrimSpace(string(runes[:limit-len(ellipsis)]))
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = strings.TrimSpace(cut[:i])
	}

	return cut + ellipsis
}

// highlight escapes text and wraps every whole-word, case-insensitive
// occurrence of tokens in <b></b>.
func highlight(text string, tokens []string) string {
	if len(tokens) == 0 {
		return html.EscapeString(text)
	}

	// Longer tokens first so that a token never shadows a longer one that
	// starts with it.
	sorted := append([]string(nil), tokens...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	quoted := make([]string, len(sorted))
	for i, token := range sorted {
		quoted[i] = regexp.QuoteMeta(token)
	}

	re, err := regexp.Compile(`(?i)` + strings.Join(quoted, "|"))
	if err != nil {
		return html.EscapeString(text)
	}

	var (
		b    strings.Builder
		prev int
	)

	for _, loc := range re.FindAllStringIndex(text, -1) {
		if !isWordBoundary(text, loc[0], loc[1]) {
			continue
		}

		b.WriteString(html.EscapeString(text[prev:loc[0]]))
		b.WriteString("<b>")
		b.WriteString(html.EscapeString(text[loc[0]:loc[1]]))
		b.WriteString("</b>")
		prev = loc[1]
	}

	b.WriteString(html.EscapeString(text[prev:]))

	return b.String()
}

// isWordBoundary reports whether text[start:end] is not directly preceded or
// followed by a letter or a digit.
func isWordBoundary(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return false
		}
	}

	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
			return false
		}
	}

	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// indexRunes returns the index of the first occurrence of sub in s, or -1.
func indexRunes(s, sub []rune) int {
	if len(sub) == 0 || len(sub) > len(s) {
		return -1
	}

outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j, r := range sub {
			if s[i+j] != r {
				continue outer
			}
		}

		return i
	}

	return -1
}
