package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mycok/siteSearch/store"
)

// Static and compile-time check to ensure InMemoryStore implements
// store.Store interface.
var _ store.Store = (*InMemoryStore)(nil)

type pageKey struct {
	siteID uuid.UUID
	path   string
}

type lemmaKey struct {
	siteID uuid.UUID
	lemma  string
}

type entryKey struct {
	pageID  uuid.UUID
	lemmaID uuid.UUID
}

// InMemoryStore implements an in-memory store that can be concurrently
// accessed by multiple clients.
type InMemoryStore struct {
	mu sync.RWMutex

	sites        map[uuid.UUID]*store.Site
	siteURLIndex map[string]uuid.UUID

	pages     map[uuid.UUID]*store.Page
	pageIndex map[pageKey]uuid.UUID

	lemmas     map[uuid.UUID]*store.Lemma
	lemmaIndex map[lemmaKey]uuid.UUID

	entries     map[uuid.UUID]*store.IndexEntry
	entryIndex  map[entryKey]uuid.UUID
	pageToEntry map[uuid.UUID][]uuid.UUID // Maps pages to their index entries.
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sites:        make(map[uuid.UUID]*store.Site),
		siteURLIndex: make(map[string]uuid.UUID),
		pages:        make(map[uuid.UUID]*store.Page),
		pageIndex:    make(map[pageKey]uuid.UUID),
		lemmas:       make(map[uuid.UUID]*store.Lemma),
		lemmaIndex:   make(map[lemmaKey]uuid.UUID),
		entries:      make(map[uuid.UUID]*store.IndexEntry),
		entryIndex:   make(map[entryKey]uuid.UUID),
		pageToEntry:  make(map[uuid.UUID][]uuid.UUID),
	}
}

// FindSiteByURL performs a site lookup by its canonical url.
func (s *InMemoryStore) FindSiteByURL(url string) (*store.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.siteURLIndex[url]
	if !exists {
		return nil, fmt.Errorf("find site: %w", store.ErrNotFound)
	}

	sCopy := new(store.Site)
	*sCopy = *s.sites[id]

	return sCopy, nil
}

// SaveSite inserts or updates a site.
func (s *InMemoryStore) SaveSite(site *store.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, exists := s.siteURLIndex[site.URL]; exists && id != site.ID {
		return fmt.Errorf("save site: %w", store.ErrConflict)
	}

	if site.ID == uuid.Nil {
		site.ID = s.newID(func(id uuid.UUID) bool { _, ok := s.sites[id]; return ok })
	} else {
		existing, exists := s.sites[site.ID]
		if !exists {
			return fmt.Errorf("save site: %w", store.ErrNotFound)
		}

		delete(s.siteURLIndex, existing.URL)
	}

	// Keep a private copy so later mutations by the caller do not leak in.
	sCopy := new(store.Site)
	*sCopy = *site

	s.sites[sCopy.ID] = sCopy
	s.siteURLIndex[sCopy.URL] = sCopy.ID

	return nil
}

// Sites returns every stored site ordered by url.
func (s *InMemoryStore) Sites() ([]*store.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*store.Site, 0, len(s.sites))
	for _, site := range s.sites {
		sCopy := new(store.Site)
		*sCopy = *site
		list = append(list, sCopy)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].URL < list[j].URL })

	return list, nil
}

// FindPage performs a page lookup by its owning site and path.
func (s *InMemoryStore) FindPage(siteID uuid.UUID, path string) (*store.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.pageIndex[pageKey{siteID: siteID, path: path}]
	if !exists {
		return nil, fmt.Errorf("find page: %w", store.ErrNotFound)
	}

	pCopy := new(store.Page)
	*pCopy = *s.pages[id]

	return pCopy, nil
}

// SavePage inserts or updates a page.
func (s *InMemoryStore) SavePage(page *store.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sites[page.SiteID]; !exists {
		return fmt.Errorf("save page: unknown site: %w", store.ErrNotFound)
	}

	key := pageKey{siteID: page.SiteID, path: page.Path}
	if id, exists := s.pageIndex[key]; exists && id != page.ID {
		return fmt.Errorf("save page: %w", store.ErrConflict)
	}

	if page.ID == uuid.Nil {
		page.ID = s.newID(func(id uuid.UUID) bool { _, ok := s.pages[id]; return ok })
	} else {
		existing, exists := s.pages[page.ID]
		if !exists {
			return fmt.Errorf("save page: %w", store.ErrNotFound)
		}

		delete(s.pageIndex, pageKey{siteID: existing.SiteID, path: existing.Path})
	}

	pCopy := new(store.Page)
	*pCopy = *page

	s.pages[pCopy.ID] = pCopy
	s.pageIndex[key] = pCopy.ID

	return nil
}

// CountPages returns the number of pages of a site, or of every site when
// siteID is uuid.Nil.
func (s *InMemoryStore) CountPages(siteID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if siteID == uuid.Nil {
		return len(s.pages), nil
	}

	var count int
	for _, page := range s.pages {
		if page.SiteID == siteID {
			count++
		}
	}

	return count, nil
}

// PagesWithSite returns the pages matching ids along with their owning sites.
func (s *InMemoryStore) PagesWithSite(ids []uuid.UUID) ([]*store.PageWithSite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*store.PageWithSite, 0, len(ids))
	for _, id := range ids {
		page, exists := s.pages[id]
		if !exists {
			continue
		}

		pCopy := new(store.Page)
		*pCopy = *page
		sCopy := new(store.Site)
		*sCopy = *s.sites[page.SiteID]

		list = append(list, &store.PageWithSite{Page: pCopy, Site: sCopy})
	}

	return list, nil
}

// FindLemma performs a lemma lookup by its owning site and text.
func (s *InMemoryStore) FindLemma(siteID uuid.UUID, lemma string) (*store.Lemma, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.lemmaIndex[lemmaKey{siteID: siteID, lemma: lemma}]
	if !exists {
		return nil, fmt.Errorf("find lemma: %w", store.ErrNotFound)
	}

	lCopy := new(store.Lemma)
	*lCopy = *s.lemmas[id]

	return lCopy, nil
}

// SaveLemma inserts or updates a lemma.
func (s *InMemoryStore) SaveLemma(lemma *store.Lemma) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sites[lemma.SiteID]; !exists {
		return fmt.Errorf("save lemma: unknown site: %w", store.ErrNotFound)
	}

	key := lemmaKey{siteID: lemma.SiteID, lemma: lemma.Lemma}
	if id, exists := s.lemmaIndex[key]; exists && id != lemma.ID {
		return fmt.Errorf("save lemma: %w", store.ErrConflict)
	}

	if lemma.ID == uuid.Nil {
		lemma.ID = s.newID(func(id uuid.UUID) bool { _, ok := s.lemmas[id]; return ok })
	} else {
		existing, exists := s.lemmas[lemma.ID]
		if !exists {
			return fmt.Errorf("save lemma: %w", store.ErrNotFound)
		}

		delete(s.lemmaIndex, lemmaKey{siteID: existing.SiteID, lemma: existing.Lemma})
	}

	lCopy := new(store.Lemma)
	*lCopy = *lemma

	s.lemmas[lCopy.ID] = lCopy
	s.lemmaIndex[key] = lCopy.ID

	return nil
}

// CountLemmas returns the number of lemmas of a site, or of every site when
// siteID is uuid.Nil.
func (s *InMemoryStore) CountLemmas(siteID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if siteID == uuid.Nil {
		return len(s.lemmas), nil
	}

	var count int
	for _, lemma := range s.lemmas {
		if lemma.SiteID == siteID {
			count++
		}
	}

	return count, nil
}

// SaveEntry inserts a new index entry.
func (s *InMemoryStore) SaveEntry(entry *store.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEntry(entry, nil); err != nil {
		return fmt.Errorf("save entry: %w", err)
	}

	s.insertEntry(entry)

	return nil
}

// DeleteEntriesByPage removes every index entry of a page.
func (s *InMemoryStore) DeleteEntriesByPage(pageID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteEntries(pageID)

	return nil
}

// ReplaceEntries atomically swaps the index entries of a page. The new set is
// validated in full before the existing entries are touched.
func (s *InMemoryStore) ReplaceEntries(pageID uuid.UUID, entries []*store.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pages[pageID]; !exists {
		return fmt.Errorf("replace entries: unknown page: %w", store.ErrNotFound)
	}

	seen := make(map[uuid.UUID]struct{}, len(entries))
	for _, entry := range entries {
		entry.PageID = pageID
		if err := s.checkEntry(entry, seen); err != nil {
			return fmt.Errorf("replace entries: %w", err)
		}
	}

	s.deleteEntries(pageID)
	for _, entry := range entries {
		s.insertEntry(entry)
	}

	return nil
}

// PageScores returns the summed entry rank of every page containing at least
// one of the lemmas, highest score first.
func (s *InMemoryStore) PageScores(lemmas []string, siteURL string) ([]*store.PageScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scores := make(map[uuid.UUID]float64)
	s.matchingEntries(lemmas, siteURL, func(entry *store.IndexEntry, _ *store.Lemma) {
		scores[entry.PageID] += entry.Rank
	})

	list := make([]*store.PageScore, 0, len(scores))
	for pageID, score := range scores {
		list = append(list, &store.PageScore{PageID: pageID, Score: score})
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}

		return list[i].PageID.String() < list[j].PageID.String()
	})

	return list, nil
}

// TermFrequencies returns the rank of every (page, lemma) pair for the
// provided lemmas.
func (s *InMemoryStore) TermFrequencies(lemmas []string, siteURL string) ([]*store.TermFrequency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*store.TermFrequency
	s.matchingEntries(lemmas, siteURL, func(entry *store.IndexEntry, lemma *store.Lemma) {
		list = append(list, &store.TermFrequency{
			PageID:    entry.PageID,
			Lemma:     lemma.Lemma,
			Frequency: entry.Rank,
		})
	})

	return list, nil
}

// DocumentFrequencies returns the number of distinct pages containing each
// lemma.
func (s *InMemoryStore) DocumentFrequencies(lemmas []string, siteURL string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pagesPerLemma := make(map[string]map[uuid.UUID]struct{})
	s.matchingEntries(lemmas, siteURL, func(entry *store.IndexEntry, lemma *store.Lemma) {
		set, exists := pagesPerLemma[lemma.Lemma]
		if !exists {
			set = make(map[uuid.UUID]struct{})
			pagesPerLemma[lemma.Lemma] = set
		}

		set[entry.PageID] = struct{}{}
	})

	frequencies := make(map[string]int, len(pagesPerLemma))
	for lemma, set := range pagesPerLemma {
		frequencies[lemma] = len(set)
	}

	return frequencies, nil
}

// CountIndexedPages returns the number of pages with at least one index entry.
func (s *InMemoryStore) CountIndexedPages(siteURL string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	for pageID, entryIDs := range s.pageToEntry {
		if len(entryIDs) == 0 {
			continue
		}

		if siteURL != "" && s.sites[s.pages[pageID].SiteID].URL != siteURL {
			continue
		}

		count++
	}

	return count, nil
}

// matchingEntries invokes fn for every entry whose lemma text is one of
// lemmas and whose site matches siteURL. Callers must hold the read lock.
func (s *InMemoryStore) matchingEntries(
	lemmas []string, siteURL string, fn func(*store.IndexEntry, *store.Lemma),
) {

	wanted := make(map[string]struct{}, len(lemmas))
	for _, lemma := range lemmas {
		wanted[lemma] = struct{}{}
	}

	for _, entry := range s.entries {
		lemma := s.lemmas[entry.LemmaID]
		if _, ok := wanted[lemma.Lemma]; !ok {
			continue
		}

		if siteURL != "" && s.sites[lemma.SiteID].URL != siteURL {
			continue
		}

		fn(entry, lemma)
	}
}

// checkEntry validates an entry against the current state. seen tracks the
// lemma IDs of a batch being inserted together. Callers must hold the lock.
func (s *InMemoryStore) checkEntry(entry *store.IndexEntry, seen map[uuid.UUID]struct{}) error {
	if _, exists := s.pages[entry.PageID]; !exists {
		return fmt.Errorf("unknown page: %w", store.ErrNotFound)
	}

	if _, exists := s.lemmas[entry.LemmaID]; !exists {
		return fmt.Errorf("unknown lemma: %w", store.ErrNotFound)
	}

	if seen != nil {
		if _, dup := seen[entry.LemmaID]; dup {
			return store.ErrConflict
		}

		seen[entry.LemmaID] = struct{}{}

		return nil
	}

	if _, exists := s.entryIndex[entryKey{pageID: entry.PageID, lemmaID: entry.LemmaID}]; exists {
		return store.ErrConflict
	}

	return nil
}

func (s *InMemoryStore) insertEntry(entry *store.IndexEntry) {
	entry.ID = s.newID(func(id uuid.UUID) bool { _, ok := s.entries[id]; return ok })

	eCopy := new(store.IndexEntry)
	*eCopy = *entry

	s.entries[eCopy.ID] = eCopy
	s.entryIndex[entryKey{pageID: eCopy.PageID, lemmaID: eCopy.LemmaID}] = eCopy.ID
	s.pageToEntry[eCopy.PageID] = append(s.pageToEntry[eCopy.PageID], eCopy.ID)
}

func (s *InMemoryStore) deleteEntries(pageID uuid.UUID) {
	for _, id := range s.pageToEntry[pageID] {
		entry := s.entries[id]
		delete(s.entryIndex, entryKey{pageID: entry.PageID, lemmaID: entry.LemmaID})
		delete(s.entries, id)
	}

	delete(s.pageToEntry, pageID)
}

// newID generates random IDs until one is found that taken reports as unused.
func (s *InMemoryStore) newID(taken func(uuid.UUID) bool) uuid.UUID {
	for {
		if id := uuid.New(); !taken(id) {
			return id
		}
	}
}
