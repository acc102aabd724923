package storetest

import (
	"errors"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/siteSearch/store"
)

// TestSaveEntry verifies that a (page, lemma) pair is indexed at most once.
func (s *BaseSuite) TestSaveEntry(c *check.C) {
	site := s.mustSaveSite(c, "https://example.com")
	page := s.mustSavePage(c, site, "/", "")
	l := s.mustSaveLemma(c, site, "cat")

	entry := &store.IndexEntry{PageID: page.ID, LemmaID: l.ID, Rank: 2}
	c.Assert(s.s.SaveEntry(entry), check.IsNil)
	c.Assert(entry.ID, check.Not(check.Equals), uuid.Nil)

	err := s.s.SaveEntry(&store.IndexEntry{PageID: page.ID, LemmaID: l.ID, Rank: 1})
	c.Assert(errors.Is(err, store.ErrConflict), check.Equals, true, check.Commentf("got %v", err))

	c.Assert(s.s.DeleteEntriesByPage(page.ID), check.IsNil)
	c.Assert(s.s.SaveEntry(&store.IndexEntry{PageID: page.ID, LemmaID: l.ID, Rank: 1}), check.IsNil)
}

// TestReplaceEntries verifies that the entries of a page are swapped as a
// whole and left untouched when the new set is rejected.
func (s *BaseSuite) TestReplaceEntries(c *check.C) {
	site := s.mustSaveSite(c, "https://example.com")
	page := s.mustSavePage(c, site, "/", "")
	cat := s.mustSaveLemma(c, site, "cat")
	dog := s.mustSaveLemma(c, site, "dog")

	c.Assert(s.s.SaveEntry(&store.IndexEntry{PageID: page.ID, LemmaID: cat.ID, Rank: 1}), check.IsNil)

	err := s.s.ReplaceEntries(page.ID, []*store.IndexEntry{
		{LemmaID: dog.ID, Rank: 3},
	})
	c.Assert(err, check.IsNil)
	s.assertTermFrequencies(c, []string{"cat", "dog"}, map[string]float64{"dog": 3})

	// A batch indexing the same lemma twice must be rejected as a whole.
	err = s.s.ReplaceEntries(page.ID, []*store.IndexEntry{
		{LemmaID: cat.ID, Rank: 5},
		{LemmaID: cat.ID, Rank: 6},
	})
	c.Assert(err, check.NotNil)
	s.assertTermFrequencies(c, []string{"cat", "dog"}, map[string]float64{"dog": 3})

	// An empty batch clears the page.
	c.Assert(s.s.ReplaceEntries(page.ID, nil), check.IsNil)
	s.assertTermFrequencies(c, []string{"cat", "dog"}, map[string]float64{})
}

// TestAggregates verifies the search aggregates, both globally and scoped to
// a single site.
func (s *BaseSuite) TestAggregates(c *check.C) {
	siteA := s.mustSaveSite(c, "https://a.com")
	siteB := s.mustSaveSite(c, "https://b.com")

	a1 := s.mustSavePage(c, siteA, "/1", "")
	a2 := s.mustSavePage(c, siteA, "/2", "")
	b1 := s.mustSavePage(c, siteB, "/1", "")
	// A page without entries does not count as indexed.
	s.mustSavePage(c, siteB, "/empty", "")

	catA := s.mustSaveLemma(c, siteA, "cat")
	dogA := s.mustSaveLemma(c, siteA, "dog")
	catB := s.mustSaveLemma(c, siteB, "cat")

	c.Assert(s.s.ReplaceEntries(a1.ID, []*store.IndexEntry{
		{LemmaID: catA.ID, Rank: 2},
		{LemmaID: dogA.ID, Rank: 1},
	}), check.IsNil)
	c.Assert(s.s.ReplaceEntries(a2.ID, []*store.IndexEntry{
		{LemmaID: dogA.ID, Rank: 5},
	}), check.IsNil)
	c.Assert(s.s.ReplaceEntries(b1.ID, []*store.IndexEntry{
		{LemmaID: catB.ID, Rank: 1},
	}), check.IsNil)

	// Global scope.
	scores, err := s.s.PageScores([]string{"cat", "dog"}, "")
	c.Assert(err, check.IsNil)
	c.Assert(scores, check.HasLen, 3)
	c.Assert(scores[0].PageID, check.Equals, a2.ID)
	c.Assert(scores[0].Score, check.Equals, 5.0)
	c.Assert(scores[1].PageID, check.Equals, a1.ID)
	c.Assert(scores[1].Score, check.Equals, 3.0)
	c.Assert(scores[2].PageID, check.Equals, b1.ID)

	df, err := s.s.DocumentFrequencies([]string{"cat", "dog", "fish"}, "")
	c.Assert(err, check.IsNil)
	c.Assert(df, check.DeepEquals, map[string]int{"cat": 2, "dog": 2})

	tf, err := s.s.TermFrequencies([]string{"cat"}, "")
	c.Assert(err, check.IsNil)
	c.Assert(tf, check.HasLen, 2)

	n, err := s.s.CountIndexedPages("")
	c.Assert(err, check.IsNil)
	c.Assert(n, check.Equals, 3)

	// Site scope.
	scores, err = s.s.PageScores([]string{"cat"}, "https://b.com")
	c.Assert(err, check.IsNil)
	c.Assert(scores, check.HasLen, 1)
	c.Assert(scores[0].PageID, check.Equals, b1.ID)

	df, err = s.s.DocumentFrequencies([]string{"cat", "dog"}, "https://a.com")
	c.Assert(err, check.IsNil)
	c.Assert(df, check.DeepEquals, map[string]int{"cat": 1, "dog": 2})

	n, err = s.s.CountIndexedPages("https://a.com")
	c.Assert(err, check.IsNil)
	c.Assert(n, check.Equals, 2)

	n, err = s.s.CountIndexedPages("https://missing.com")
	c.Assert(err, check.IsNil)
	c.Assert(n, check.Equals, 0)

	scores, err = s.s.PageScores([]string{"fish"}, "")
	c.Assert(err, check.IsNil)
	c.Assert(scores, check.HasLen, 0)
}

// assertTermFrequencies checks the (lemma -> rank) pairs currently indexed
// for the provided lemmas. The helper assumes a single indexed page.
func (s *BaseSuite) assertTermFrequencies(c *check.C, lemmas []string, expected map[string]float64) {
	tf, err := s.s.TermFrequencies(lemmas, "")
	c.Assert(err, check.IsNil)

	got := make(map[string]float64, len(tf))
	for _, t := range tf {
		got[t.Lemma] = t.Frequency
	}

	c.Assert(got, check.DeepEquals, expected)
}
