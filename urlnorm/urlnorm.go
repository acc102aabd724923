/*
	urlnorm package canonicalizes URLs so that they can be compared, used as
	dedup keys and split into a site root and a page path. A canonical URL is
	obtained by:
		1. dropping everything from the first '#' onwards.
		2. dropping a leading "www." that directly follows an http(s) scheme.
		3. dropping the trailing '/'.
*/

package urlnorm

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

const rootPath = "/"

var wwwPrefixes = [][2]string{
	{"http://www.", "http://"},
	{"https://www.", "https://"},
}

// Normalize returns the canonical form of u. Normalize is idempotent.
func Normalize(u string) string {
	if u == "" {
		return u
	}

	if i := strings.IndexByte(u, '#'); i != -1 {
		u = u[:i]
	}

	// Repeated prefixes and slashes are collapsed in a single pass so that a
	// second call never changes the result.
	for _, p := range wwwPrefixes {
		for strings.HasPrefix(u, p[0]) {
			u = p[1] + u[len(p[0]):]
		}
	}

	for len(u) > 1 && strings.HasSuffix(u, "/") {
		u = u[:len(u)-1]
	}

	return u
}

// ExtractPath returns the path of u relative to the root of the site
// identified by siteURL. The site root itself maps to "/".
func ExtractPath(u, siteURL string) string {
	path := strings.TrimPrefix(Normalize(u), Normalize(siteURL))
	if path == "" {
		return rootPath
	}

	return path
}

// HasSitePrefix reports whether the canonical form of u belongs to the site
// rooted at siteURL. The canonical site URL must be followed by the end of
// the string or by a path, query or fragment delimiter so that
// "https://a.com" does not claim "https://a.company".
func HasSitePrefix(u, siteURL string) bool {
	canonicalURL, canonicalSite := Normalize(u), Normalize(siteURL)
	if canonicalSite == "" || !strings.HasPrefix(canonicalURL, canonicalSite) {
		return false
	}

	rest := canonicalURL[len(canonicalSite):]

	return rest == "" || rest[0] == '/' || rest[0] == '?' ||
		strings.HasSuffix(canonicalSite, "/")
}

// JoinPath builds the absolute URL of a page from its site URL and its
// stored path. Absolute paths are returned unchanged.
func JoinPath(siteURL, path string) string {
	if isAbsolute(path) {
		return path
	}

	switch {
	case path == "":
		return siteURL
	case strings.HasSuffix(siteURL, "/") && strings.HasPrefix(path, "/"):
		return siteURL + path[1:]
	case !strings.HasSuffix(siteURL, "/") && !strings.HasPrefix(path, "/"):
		return siteURL + "/" + path
	default:
		return siteURL + path
	}
}

// SiteName derives a display name from the first label of the host name,
// ie: "https://www.example.com" -> "Example".
func SiteName(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Hostname() == "" {
		return "Unknown"
	}

	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	label := strings.Split(host, ".")[0]

	r, size := utf8.DecodeRuneInString(label)

	return string(unicode.ToUpper(r)) + label[size:]
}

func isAbsolute(path string) bool {
	lower := strings.ToLower(path)

	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
