/*
	store package defines the records persisted by the search engine and the
	Store interface that every storage backend implements. All identifiers
	are uuid values assigned by the backend on insert.
*/

package store

import (
	"time"

	"github.com/google/uuid"
)

// Status describes the indexing state of a site.
type Status string

// Supported site statuses.
const (
	StatusIndexing Status = "INDEXING"
	StatusIndexed  Status = "INDEXED"
	StatusFailed   Status = "FAILED"
)

// Store should be implemented by storage backends. Lookups that do not match
// any record return an error wrapping ErrNotFound. Writes that violate a
// unique constraint return an error wrapping ErrConflict.
//
// Methods that accept a siteURL treat an empty value as "every site".
type Store interface {
	// FindSiteByURL performs a site lookup by its canonical url.
	FindSiteByURL(url string) (*Site, error)

	// SaveSite inserts the site when its ID is uuid.Nil and updates it
	// otherwise. A newly inserted site has its ID populated.
	SaveSite(site *Site) error

	// Sites returns every stored site.
	Sites() ([]*Site, error)

	// FindPage performs a page lookup by its owning site and path.
	FindPage(siteID uuid.UUID, path string) (*Page, error)

	// SavePage inserts the page when its ID is uuid.Nil and updates it
	// otherwise.
	SavePage(page *Page) error

	// CountPages returns the number of pages of a site, or of every site
	// when siteID is uuid.Nil.
	CountPages(siteID uuid.UUID) (int, error)

	// PagesWithSite returns the pages matching ids along with their owning
	// sites. Unknown ids are skipped and the result follows the order of ids.
	PagesWithSite(ids []uuid.UUID) ([]*PageWithSite, error)

	// FindLemma performs a lemma lookup by its owning site and text.
	FindLemma(siteID uuid.UUID, lemma string) (*Lemma, error)

	// SaveLemma inserts the lemma when its ID is uuid.Nil and updates it
	// otherwise.
	SaveLemma(lemma *Lemma) error

	// CountLemmas returns the number of lemmas of a site, or of every site
	// when siteID is uuid.Nil.
	CountLemmas(siteID uuid.UUID) (int, error)

	// SaveEntry inserts a new index entry.
	SaveEntry(entry *IndexEntry) error

	// DeleteEntriesByPage removes every index entry of a page.
	DeleteEntriesByPage(pageID uuid.UUID) error

	// ReplaceEntries atomically swaps the index entries of a page with the
	// provided set. Either every entry is replaced or none is.
	ReplaceEntries(pageID uuid.UUID, entries []*IndexEntry) error

	// PageScores returns the summed entry rank of every page containing at
	// least one of the lemmas, highest score first.
	PageScores(lemmas []string, siteURL string) ([]*PageScore, error)

	// TermFrequencies returns the rank of every (page, lemma) pair for
	// the provided lemmas.
	TermFrequencies(lemmas []string, siteURL string) ([]*TermFrequency, error)

	// DocumentFrequencies returns the number of distinct pages containing
	// each lemma. Lemmas that occur nowhere are omitted.
	DocumentFrequencies(lemmas []string, siteURL string) (map[string]int, error)

	// CountIndexedPages returns the number of pages with at least one
	// index entry.
	CountIndexedPages(siteURL string) (int, error)
}

// Site represents a configured site and its crawl state.
type Site struct {
	ID         uuid.UUID // Site unique identifier
	URL        string    // Canonical site root url
	Name       string    // Display name
	Status     Status    // Current indexing status
	StatusTime time.Time // Last status change timestamp
	LastError  string    // Last recorded failure, empty when none
}

// Page represents a fetched page of a site.
type Page struct {
	ID      uuid.UUID // Page unique identifier
	SiteID  uuid.UUID // Owning site
	Path    string    // Path relative to the site root, starts with "/"
	Code    int       // HTTP status code of the fetch
	Content string    // Plain text body of the page
}

// Lemma represents a normalized word form seen on a site.
type Lemma struct {
	ID        uuid.UUID // Lemma unique identifier
	SiteID    uuid.UUID // Owning site
	Lemma     string    // Normalized word form
	Frequency int       // Accumulated occurrence count across indexing passes
}

// IndexEntry links a lemma to a page it occurs on.
type IndexEntry struct {
	ID      uuid.UUID // Entry unique identifier
	PageID  uuid.UUID // Page the lemma occurs on
	LemmaID uuid.UUID // Lemma record
	Rank    float64   // Occurrences of the lemma on the page
}

// PageWithSite pairs a page with its owning site.
type PageWithSite struct {
	Page *Page
	Site *Site
}

// PageScore holds the summed rank of a candidate page.
type PageScore struct {
	PageID uuid.UUID
	Score  float64
}

// TermFrequency holds the rank of a lemma on a page.
type TermFrequency struct {
	PageID    uuid.UUID
	Lemma     string
	Frequency float64
}
