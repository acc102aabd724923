/*
	indexer package turns the text of a fetched page into stored lemmas and
	index entries. Re-indexing a page replaces its entries while the lemma
	frequencies of the site keep accumulating across passes.
*/

package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/siteSearch/lemma"
	"github.com/mycok/siteSearch/store"
)

// Config encapsulates the settings for configuring an Indexer.
type Config struct {
	// The store that receives pages, lemmas and index entries.
	Store store.Store

	// The lemmatizer applied to page text. It must match the one used by
	// the search ranker.
	Lemmatizer lemma.Lemmatizer

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error

	if cfg.Store == nil {
		err = multierror.Append(err, fmt.Errorf("store has not been provided"))
	}

	if cfg.Lemmatizer == nil {
		err = multierror.Append(err, fmt.Errorf("lemmatizer has not been provided"))
	}

	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// Indexer stores pages and their lemma index.
type Indexer struct {
	cfg Config
}

// New returns a new Indexer instance configured with cfg.
func New(cfg Config) (*Indexer, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("indexer config validation failed: %w", err)
	}

	return &Indexer{cfg: cfg}, nil
}

// IndexPage upserts the page identified by (site, path) with the provided
// status code and text, then rebuilds its index entries.
//
// Entry maintenance is best effort: when the transactional swap of entries
// fails the indexer falls back to deleting and inserting them one by one,
// logging every failure instead of returning it.
func (ix *Indexer) IndexPage(
	ctx context.Context, site *store.Site, path string, code int, text string,
) (*store.Page, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := ix.cfg.Logger.WithFields(logrus.Fields{"site": site.URL, "path": path})

	page, err := ix.upsertPage(site, path, code, text)
	if err != nil {
		return nil, fmt.Errorf("index page: %w", err)
	}

	counts := make(map[string]int)
	for _, l := range ix.cfg.Lemmatizer.Lemmatize(text) {
		if l != "" {
			counts[l]++
		}
	}

	lemmas := make([]string, 0, len(counts))
	for l := range counts {
		lemmas = append(lemmas, l)
	}

	sort.Strings(lemmas)

	entries := make([]*store.IndexEntry, 0, len(lemmas))
	for _, l := range lemmas {
		record, err := ix.addLemma(site.ID, l, counts[l])
		if err != nil {
			return page, fmt.Errorf("index page: %w", err)
		}

		entries = append(entries, &store.IndexEntry{
			PageID:  page.ID,
			LemmaID: record.ID,
			Rank:    float64(counts[l]),
		})
	}

	if err := ix.cfg.Store.ReplaceEntries(page.ID, entries); err != nil {
		logger.WithField("err", err).Warn("replacing index entries failed; falling back to delete and insert")
		ix.rebuildEntries(page.ID, entries, logger)
	}

	logger.WithField("lemmas", len(entries)).Debug("indexed page")

	return page, nil
}

// upsertPage creates or overwrites the page. The stale index entries of an
// overwritten page stay in place until its new entries replace them.
func (ix *Indexer) upsertPage(site *store.Site, path string, code int, text string) (*store.Page, error) {

	page, err := ix.cfg.Store.FindPage(site.ID, path)
	switch {
	case errors.Is(err, store.ErrNotFound):
		page = &store.Page{SiteID: site.ID, Path: path, Code: code, Content: text}

		err = ix.cfg.Store.SavePage(page)
		if !errors.Is(err, store.ErrConflict) {
			return page, err
		}

		// Another writer created the page first; take over its row.
		if page, err = ix.cfg.Store.FindPage(site.ID, path); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	page.Code = code
	page.Content = text

	if err := ix.cfg.Store.SavePage(page); err != nil {
		return nil, err
	}

	return page, nil
}

// addLemma adds count to the running frequency of the (site, lemma) record,
// creating it when missing. A concurrent creation of the same record is
// resolved by re-reading it and retrying once.
func (ix *Indexer) addLemma(siteID uuid.UUID, text string, count int) (*store.Lemma, error) {
	var err error

	for attempt := 0; attempt < 2; attempt++ {
		var record *store.Lemma

		record, err = ix.cfg.Store.FindLemma(siteID, text)
		switch {
		case errors.Is(err, store.ErrNotFound):
			record = &store.Lemma{SiteID: siteID, Lemma: text}
		case err != nil:
			return nil, err
		}

		record.Frequency += count

		if err = ix.cfg.Store.SaveLemma(record); err == nil {
			return record, nil
		}

		if !errors.Is(err, store.ErrConflict) {
			return nil, err
		}
	}

	return nil, err
}

// rebuildEntries replaces the entries of a page without a transaction.
// Failures are logged and skipped.
func (ix *Indexer) rebuildEntries(pageID uuid.UUID, entries []*store.IndexEntry, logger *logrus.Entry) {
	if err := ix.cfg.Store.DeleteEntriesByPage(pageID); err != nil {
		logger.WithField("err", err).Warn("deleting index entries failed")
	}

	for _, entry := range entries {
		if err := ix.cfg.Store.SaveEntry(entry); err != nil {
			logger.WithFields(logrus.Fields{
				"err":      err,
				"lemma_id": entry.LemmaID.String(),
			}).Warn("saving index entry failed")
		}
	}
}
