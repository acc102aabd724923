/*
	search package ranks indexed pages against a free text query. Relevance
	is the TF-IDF sum over the query lemmas found on a page:

		idf(l)      = ln((N + 1) / (df(l) + 1))
		score(page) = Σ tf(page, l) * idf(l)

	where N is the number of indexed pages and df(l) the number of pages
	containing l, both scoped to the optional site filter. Only the requested
	window of the ranked list is loaded from the store.
*/

package search

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/siteSearch/lemma"
	"github.com/mycok/siteSearch/store"
	"github.com/mycok/siteSearch/urlnorm"
)

// Config encapsulates the settings for configuring a Ranker.
type Config struct {
	// The store holding the index.
	Store store.Store

	// The lemmatizer applied to queries. It must match the one used while
	// indexing.
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

// Query describes a search request.
type Query struct {
	// The free text query.
	Text string

	// An optional site url restricting the results to a single site.
	Site string

	// The position of the first result within the ranked list.
	Offset int

	// The maximum number of results. Values below 1 are treated as 1.
	Limit int
}

// Item is a single search result.
type Item struct {
	Site      string  `json:"site"`
	SiteName  string  `json:"siteName"`
	URI       string  `json:"uri"`
	Title     string  `json:"title"`
	Snippet   string  `json:"snippet"`
	Relevance float64 `json:"relevance"`
}

// Response holds the total number of matching pages and the requested
// window of results.
type Response struct {
	Count int
	Items []Item
}

type scoredPage struct {
	id    uuid.UUID
	score float64
}

// Ranker executes search queries against the index.
type Ranker struct {
	cfg      Config
	snippets *SnippetGenerator
}

// New returns a new Ranker instance configured with cfg.
func New(cfg Config) (*Ranker, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("search config validation failed: %w", err)
	}

	return &Ranker{cfg: cfg, snippets: NewSnippetGenerator()}, nil
}

// Search ranks the indexed pages against q. Search never fails: store
// errors are logged and reported as an empty response.
func (r *Ranker) Search(q Query) *Response {
	if strings.TrimSpace(q.Text) == "" {
		return emptyResponse()
	}

	lemmas := queryLemmas(r.cfg.Lemmatizer, q.Text)
	if len(lemmas) == 0 {
		return emptyResponse()
	}

	var site string
	if q.Site != "" {
		site = urlnorm.Normalize(strings.TrimSpace(q.Site))
	}

	logger := r.cfg.Logger.WithFields(logrus.Fields{
		"query": q.Text,
		"site":  site,
	})

	ranked, err := r.rank(lemmas, site)
	if err != nil {
		logger.WithField("err", err).Error("unable to rank pages")

		return emptyResponse()
	}

	from, to := window(len(ranked), q.Offset, q.Limit)
	if from >= to {
		return &Response{Count: len(ranked), Items: []Item{}}
	}

	tokens := lemma.Tokenize(q.Text)
	if len(tokens) == 0 {
		tokens = lemmas
	}

	items, err := r.items(ranked[from:to], tokens)
	if err != nil {
		logger.WithField("err", err).Error("unable to load result pages")

		return emptyResponse()
	}

	return &Response{Count: len(ranked), Items: items}
}

// rank returns every page matching at least one lemma ordered by relevance.
func (r *Ranker) rank(lemmas []string, site string) ([]scoredPage, error) {
	n, err := r.cfg.Store.CountIndexedPages(site)
	if err != nil {
		return nil, fmt.Errorf("count indexed pages: %w", err)
	}

	if n <= 0 {
		return nil, nil
	}

	df, err := r.cfg.Store.DocumentFrequencies(lemmas, site)
	if err != nil {
		return nil, fmt.Errorf("document frequencies: %w", err)
	}

	tfs, err := r.cfg.Store.TermFrequencies(lemmas, site)
	if err != nil {
		return nil, fmt.Errorf("term frequencies: %w", err)
	}

	if len(tfs) == 0 {
		return nil, nil
	}

	idf := make(map[string]float64, len(lemmas))
	for _, l := range lemmas {
		idf[l] = math.Log(float64(n+1) / float64(df[l]+1))
	}

	scores := make(map[uuid.UUID]float64)
	for _, tf := range tfs {
		scores[tf.PageID] += tf.Frequency * idf[tf.Lemma]
	}

	candidates, err := r.cfg.Store.PageScores(lemmas, site)
	if err != nil {
		return nil, fmt.Errorf("page scores: %w", err)
	}

	ranked := make([]scoredPage, 0, len(scores))
	for _, candidate := range candidates {
		score, exists := scores[candidate.PageID]
		if !exists {
			continue
		}

		ranked = append(ranked, scoredPage{id: candidate.PageID, score: score})
		delete(scores, candidate.PageID)
	}

	// Pages missing from the aggregation order keep their term frequency
	// order.
	for _, tf := range tfs {
		if score, exists := scores[tf.PageID]; exists {
			ranked = append(ranked, scoredPage{id: tf.PageID, score: score})
			delete(scores, tf.PageID)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	return ranked, nil
}

// items builds the result items of the windowed pages.
func (r *Ranker) items(pages []scoredPage, tokens []string) ([]Item, error) {
	ids := make([]uuid.UUID, len(pages))
	scores := make(map[uuid.UUID]float64, len(pages))

	for i, p := range pages {
		ids[i] = p.id
		scores[p.id] = p.score
	}

	loaded, err := r.cfg.Store.PagesWithSite(ids)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(loaded))
	for _, p := range loaded {
		items = append(items, Item{
			Site:      p.Site.URL,
			SiteName:  p.Site.Name,
			URI:       urlnorm.JoinPath(p.Site.URL, p.Page.Path),
			Title:     Title(p.Page.Content, p.Page.Path),
			Snippet:   r.snippets.GenerateSnippet(p.Page.Content, tokens),
			Relevance: scores[p.Page.ID],
		})
	}

	return items, nil
}

// queryLemmas returns the unique non-blank lowercase lemmas of text in the
// order they first appear.
func queryLemmas(lemmatizer lemma.Lemmatizer, text string) []string {
	var (
		lemmas []string
		seen   = make(map[string]struct{})
	)

	for _, l := range lemmatizer.Lemmatize(text) {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}

		if _, exists := seen[l]; exists {
			continue
		}

		seen[l] = struct{}{}
		lemmas = append(lemmas, l)
	}

	return lemmas
}

// window returns the bounds of the requested slice of a ranked list with
// total entries.
func window(total, offset, limit int) (from, to int) {
	from = max(0, offset)
	to = min(total, from+max(1, limit))

	if from > total {
		from = total
	}

	return from, to
}

func emptyResponse() *Response {
	return &Response{Items: []Item{}}
}
