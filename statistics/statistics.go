/*
	statistics package aggregates the per-site page and lemma counts of the
	store into a typed report.
*/

package statistics

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/siteSearch/config"
	"github.com/mycok/siteSearch/store"
	"github.com/mycok/siteSearch/urlnorm"
)

// IndexingReporter is implemented by objects that know whether an indexing
// session is running.
type IndexingReporter interface {
	IsIndexing() bool
}

// Config encapsulates the settings for configuring a Collector.
type Config struct {
	// The store to aggregate.
	Store store.Store

	// The source of the indexing flag.
	Indexing IndexingReporter

	// The configured sites. Sites that were never crawled are reported
	// with zero counts and an empty status.
	Sites []config.Site

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error

	if cfg.Store == nil {
		err = multierror.Append(err, fmt.Errorf("store has not been provided"))
	}

	if cfg.Indexing == nil {
		err = multierror.Append(err, fmt.Errorf("indexing reporter has not been provided"))
	}

	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// Total holds the counters summed over every site.
type Total struct {
	Sites    int  `json:"sites"`
	Pages    int  `json:"pages"`
	Lemmas   int  `json:"lemmas"`
	Indexing bool `json:"indexing"`
}

// Detailed holds the counters and crawl status of a single site.
type Detailed struct {
	URL        string `json:"url"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	StatusTime int64  `json:"statusTime"` // Unix milliseconds, 0 when never crawled
	Pages      int    `json:"pages"`
	Lemmas     int    `json:"lemmas"`
	Error      string `json:"error"`
}

// Report is the statistics snapshot returned by a Collector.
type Report struct {
	Total    Total      `json:"total"`
	Detailed []Detailed `json:"detailed"`
}

// Collector builds statistics reports.
type Collector struct {
	cfg Config
}

// New returns a new Collector instance configured with cfg.
func New(cfg Config) (*Collector, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("statistics config validation failed: %w", err)
	}

	return &Collector{cfg: cfg}, nil
}

// Statistics returns a snapshot of the store. Stored sites are listed in
// store order followed by the configured sites that have no row yet.
func (c *Collector) Statistics() (*Report, error) {
	sites, err := c.cfg.Store.Sites()
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}

	report := &Report{
		Total:    Total{Indexing: c.cfg.Indexing.IsIndexing()},
		Detailed: make([]Detailed, 0, len(sites)),
	}

	stored := make(map[string]struct{}, len(sites))
	for _, site := range sites {
		stored[site.URL] = struct{}{}

		pages, err := c.cfg.Store.CountPages(site.ID)
		if err != nil {
			return nil, fmt.Errorf("count pages of %s: %w", site.URL, err)
		}

		lemmas, err := c.cfg.Store.CountLemmas(site.ID)
		if err != nil {
			return nil, fmt.Errorf("count lemmas of %s: %w", site.URL, err)
		}

		d := Detailed{
			URL:    site.URL,
			Name:   site.Name,
			Status: string(site.Status),
			Pages:  pages,
			Lemmas: lemmas,
			Error:  site.LastError,
		}

		if !site.StatusTime.IsZero() {
			d.StatusTime = site.StatusTime.UnixMilli()
		}

		report.Detailed = append(report.Detailed, d)
		report.Total.Pages += pages
		report.Total.Lemmas += lemmas
	}

	for _, site := range c.cfg.Sites {
		canonical := urlnorm.Normalize(site.URL)
		if _, exists := stored[canonical]; exists {
			continue
		}

		report.Detailed = append(report.Detailed, Detailed{URL: canonical, Name: site.Name})
	}

	report.Total.Sites = len(report.Detailed)

	c.cfg.Logger.WithFields(logrus.Fields{
		"sites": report.Total.Sites,
		"pages": report.Total.Pages,
	}).Debug("collected statistics")

	return report, nil
}
