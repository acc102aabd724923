package fetcher

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	repeatedSpaceRegex = regexp.MustCompile(`[\s\p{Zs}]+`)

	// Locate links that point to resources that don't serve html content.
	exclusionRegex = regexp.MustCompile(`(?i)\.(?:jpg|jpeg|png|gif|svg|webp|ico|css|js|pdf|zip|gz|mp3|mp4|avi|doc|docx|xls|xlsx)$`)

	// Elements whose text is never shown to a reader.
	hiddenElements = "script, style, noscript, template"

	// Elements that start a new block of text. Their text is separated from
	// the surrounding text by a space so adjacent words do not run together.
	blockElements = map[string]struct{}{
		"p": {}, "div": {}, "br": {}, "li": {}, "td": {}, "th": {}, "tr": {},
		"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
		"section": {}, "article": {}, "header": {}, "footer": {}, "nav": {},
		"ul": {}, "ol": {}, "table": {}, "blockquote": {}, "pre": {},
	}
)

func extractTitle(doc *goquery.Document) string {
	return collapseSpaces(doc.Find("title").First().Text())
}

// extractText returns the visible text of the document body.
func extractText(doc *goquery.Document) string {
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	root.Find(hiddenElements).Remove()

	var b strings.Builder
	for _, n := range root.Nodes {
		writeText(&b, n)
	}

	return collapseSpaces(b.String())
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)

		return
	case html.CommentNode:
		return
	}

	_, isBlock := blockElements[n.Data]
	if isBlock {
		b.WriteByte(' ')
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		writeText(b, child)
	}

	if isBlock {
		b.WriteByte(' ')
	}
}

// extractLinks returns the deduplicated absolute http(s) links of the
// document, resolved against its <base href> when present.
func extractLinks(doc *goquery.Document, pageURL *url.URL) []string {
	relativeTo := pageURL

	if href, exists := doc.Find("base[href]").First().Attr("href"); exists {
		if baseURL := resolveToAbsoluteURL(pageURL, checkAndAddTrailingSlash(strings.TrimSpace(href))); baseURL != nil {
			relativeTo = baseURL
		}
	}

	var (
		links []string
		seen  = make(map[string]struct{})
	)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if skipHref(href) {
			return
		}

		link := resolveToAbsoluteURL(relativeTo, href)
		if link == nil || (link.Scheme != "http" && link.Scheme != "https") {
			return
		}

		// Drop html anchors. ie: "https://example.com/index.html#foo"
		// becomes "https://example.com/index.html".
		link.Fragment = ""
		linkStr := link.String()

		if exclusionRegex.MatchString(link.Path) {
			return
		}

		if _, exists := seen[linkStr]; exists {
			return
		}

		seen[linkStr] = struct{}{}
		links = append(links, linkStr)
	})

	return links
}

func skipHref(href string) bool {
	lower := strings.ToLower(href)

	return href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:")
}

func checkAndAddTrailingSlash(s string) string {
	if s == "" || s[len(s)-1] == '/' {
		return s
	}

	return s + "/"
}

// resolveToAbsoluteURL expands target into an absolute URL. Targets starting
// with '//' inherit the scheme of relativeTo, every other target is resolved
// relative to it. A nil URL is returned when target cannot be parsed.
func resolveToAbsoluteURL(relativeTo *url.URL, target string) *url.URL {
	if target == "" {
		return nil
	}

	if strings.HasPrefix(target, "//") {
		target = relativeTo.Scheme + ":" + target
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return nil
	}

	return relativeTo.ResolveReference(parsed)
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(repeatedSpaceRegex.ReplaceAllString(s, " "))
}
