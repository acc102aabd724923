/*
	config package loads the list of sites the search engine is allowed to
	crawl. The list is a YAML document:

		sites:
		  - url: https://www.example.com/
		    name: Example
		  - url: https://docs.example.org

	Every url is stored in its canonical form and a missing name is derived
	from the host name.
*/

package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/mycok/siteSearch/urlnorm"
)

// Site is a configured crawl target.
type Site struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type document struct {
	Sites []Site `yaml:"sites"`
}

// LoadFile reads and validates the site list stored at path.
func LoadFile(path string) ([]Site, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load site list: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}

// Load reads and validates a site list from r.
func Load(r io.Reader) ([]Site, error) {
	var doc document

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("load site list: %w", err)
	}

	sites, err := normalize(doc.Sites)
	if err != nil {
		return nil, fmt.Errorf("site list validation failed: %w", err)
	}

	return sites, nil
}

// normalize canonicalizes every entry and reports all invalid entries at
// once.
func normalize(in []Site) ([]Site, error) {
	var err error

	if len(in) == 0 {
		return nil, multierror.Append(err, fmt.Errorf("no sites configured"))
	}

	var (
		out  = make([]Site, 0, len(in))
		seen = make(map[string]int, len(in))
	)

	for i, site := range in {
		raw := strings.TrimSpace(site.URL)
		if raw == "" {
			err = multierror.Append(err, fmt.Errorf("site %d: missing url", i))

			continue
		}

		parsed, parseErr := url.Parse(raw)
		if parseErr != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			err = multierror.Append(err, fmt.Errorf("site %d: invalid url %q", i, raw))

			continue
		}

		canonical := urlnorm.Normalize(raw)
		if first, dup := seen[canonical]; dup {
			err = multierror.Append(err, fmt.Errorf("site %d: duplicates site %d (%s)", i, first, canonical))

			continue
		}

		seen[canonical] = i

		name := strings.TrimSpace(site.Name)
		if name == "" {
			name = urlnorm.SiteName(canonical)
		}

		out = append(out, Site{URL: canonical, Name: name})
	}

	return out, err
}
