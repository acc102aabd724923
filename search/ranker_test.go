package search

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/golang/mock/gomock"
	check "gopkg.in/check.v1"

	"github.com/mycok/siteSearch/indexer"
	"github.com/mycok/siteSearch/lemma"
	mock_lemma "github.com/mycok/siteSearch/lemma/mocks"
	"github.com/mycok/siteSearch/store"
	"github.com/mycok/siteSearch/store/memory"
)

var _ = check.Suite(new(rankerTestSuite))

// Test registers the [check] library with the go testing library.
func Test(t *testing.T) { check.TestingT(t) }

type rankerTestSuite struct {
	st     *memory.InMemoryStore
	ranker *Ranker
}

func (s *rankerTestSuite) SetUpTest(c *check.C) {
	s.st = memory.NewInMemoryStore()

	ix, err := indexer.New(indexer.Config{Store: s.st, Lemmatizer: lemma.Plain})
	c.Assert(err, check.IsNil)

	siteA := &store.Site{URL: "https://a.com", Name: "A", Status: store.StatusIndexed}
	siteB := &store.Site{URL: "https://b.com", Name: "B", Status: store.StatusIndexed}
	c.Assert(s.st.SaveSite(siteA), check.IsNil)
	c.Assert(s.st.SaveSite(siteB), check.IsNil)

	for _, p := range []struct {
		site *store.Site
		path string
		text string
	}{
		{siteA, "/1", "cat cat dog"},
		{siteA, "/2", "dog fish"},
		{siteB, "/1", "cat bird"},
	} {
		_, err := ix.IndexPage(context.TODO(), p.site, p.path, 200, p.text)
		c.Assert(err, check.IsNil)
	}

	s.ranker = s.newRanker(c, s.st, lemma.Plain)
}

func (s *rankerTestSuite) TestBlankQuery(c *check.C) {
	res := s.ranker.Search(Query{Text: "   ", Limit: 10})
	c.Assert(res.Count, check.Equals, 0)
	c.Assert(res.Items, check.NotNil)
	c.Assert(res.Items, check.HasLen, 0)
}

func (s *rankerTestSuite) TestUnknownLemma(c *check.C) {
	res := s.ranker.Search(Query{Text: "zebra", Limit: 10})
	c.Assert(res.Count, check.Equals, 0)
	c.Assert(res.Items, check.HasLen, 0)
}

func (s *rankerTestSuite) TestTFIDFScores(c *check.C) {
	res := s.ranker.Search(Query{Text: "cat", Limit: 10})
	c.Assert(res.Count, check.Equals, 2)
	c.Assert(res.Items, check.HasLen, 2)

	idf := math.Log(4.0 / 3.0)

	c.Assert(res.Items[0].URI, check.Equals, "https://a.com/1")
	c.Assert(res.Items[0].Relevance, check.Equals, 2*idf)
	c.Assert(res.Items[1].URI, check.Equals, "https://b.com/1")
	c.Assert(res.Items[1].Relevance, check.Equals, idf)
}

func (s *rankerTestSuite) TestLemmaMissingFromPageDoesNotExcludeIt(c *check.C) {
	res := s.ranker.Search(Query{Text: "bird zebra", Limit: 10})
	c.Assert(res.Count, check.Equals, 1)
	c.Assert(res.Items[0].URI, check.Equals, "https://b.com/1")
	c.Assert(res.Items[0].Relevance > 0, check.Equals, true)
}

func (s *rankerTestSuite) TestLemmaOnEveryPageScoresZero(c *check.C) {
	// Every page of a.com mentions dog, so df == N and idf == ln(3/3).
	res := s.ranker.Search(Query{Text: "dog", Site: "https://a.com", Limit: 10})
	c.Assert(res.Count, check.Equals, 2)
	c.Assert(res.Items, check.HasLen, 2)

	for _, item := range res.Items {
		c.Assert(item.Relevance, check.Equals, 0.0, check.Commentf("page %s", item.URI))
	}

	// A lemma missing from some pages keeps a positive idf.
	res = s.ranker.Search(Query{Text: "dog fish", Site: "https://a.com", Limit: 10})
	c.Assert(res.Count, check.Equals, 2)
	c.Assert(res.Items[0].URI, check.Equals, "https://a.com/2")
	c.Assert(res.Items[0].Relevance, check.Equals, math.Log(3.0/2.0))
	c.Assert(res.Items[1].Relevance, check.Equals, 0.0)
}

func (s *rankerTestSuite) TestSiteFilter(c *check.C) {
	res := s.ranker.Search(Query{Text: "cat", Site: "https://www.a.com/", Limit: 10})
	c.Assert(res.Count, check.Equals, 1)
	c.Assert(res.Items, check.DeepEquals, []Item{{
		Site:      "https://a.com",
		SiteName:  "A",
		URI:       "https://a.com/1",
		Title:     "cat cat dog",
		Snippet:   "<b>cat</b> <b>cat</b> dog",
		Relevance: 2 * math.Log(3.0/2.0),
	}})
}

func (s *rankerTestSuite) TestPagination(c *check.C) {
	all := s.ranker.Search(Query{Text: "cat dog", Limit: 10})
	c.Assert(all.Count, check.Equals, 3)
	c.Assert(all.Items, check.HasLen, 3)
	c.Assert(all.Items[0].URI, check.Equals, "https://a.com/1")

	first := s.ranker.Search(Query{Text: "cat dog", Offset: 0, Limit: 2})
	second := s.ranker.Search(Query{Text: "cat dog", Offset: 2, Limit: 2})
	c.Assert(first.Count, check.Equals, 3)
	c.Assert(second.Count, check.Equals, 3)
	c.Assert(first.Items, check.HasLen, 2)
	c.Assert(second.Items, check.HasLen, 1)

	seen := make(map[string]struct{})
	for _, item := range append(first.Items, second.Items...) {
		_, dup := seen[item.URI]
		c.Assert(dup, check.Equals, false, check.Commentf("%s returned twice", item.URI))
		seen[item.URI] = struct{}{}
	}

	c.Assert(seen, check.HasLen, 3)
	c.Assert(first.Items[0].Relevance >= first.Items[1].Relevance, check.Equals, true)
	c.Assert(first.Items[1].Relevance >= second.Items[0].Relevance, check.Equals, true)
}

func (s *rankerTestSuite) TestWindowBounds(c *check.C) {
	res := s.ranker.Search(Query{Text: "cat dog", Limit: 0})
	c.Assert(res.Count, check.Equals, 3)
	c.Assert(res.Items, check.HasLen, 1)

	res = s.ranker.Search(Query{Text: "cat dog", Offset: -5, Limit: 2})
	c.Assert(res.Items, check.HasLen, 2)

	res = s.ranker.Search(Query{Text: "cat dog", Offset: 10, Limit: 2})
	c.Assert(res.Count, check.Equals, 3)
	c.Assert(res.Items, check.HasLen, 0)
}

func (s *rankerTestSuite) TestQueryLemmasAreNormalized(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	lemmatizer := mock_lemma.NewMockLemmatizer(ctrl)
	lemmatizer.EXPECT().Lemmatize("Birds").Return([]string{"BIRD", " ", "bird"})

	res := s.newRanker(c, s.st, lemmatizer).Search(Query{Text: "Birds", Limit: 10})
	c.Assert(res.Count, check.Equals, 1)
	c.Assert(res.Items[0].Relevance, check.Equals, math.Log(4.0/2.0))
}

func (s *rankerTestSuite) TestStoreFailureYieldsEmptyResponse(c *check.C) {
	res := s.newRanker(c, failingStore{s.st}, lemma.Plain).Search(Query{Text: "cat", Limit: 10})
	c.Assert(res.Count, check.Equals, 0)
	c.Assert(res.Items, check.HasLen, 0)
}

func (s *rankerTestSuite) TestConfigValidation(c *check.C) {
	_, err := New(Config{})
	c.Assert(err, check.ErrorMatches, "(?s)search config validation failed.*store has not been provided.*lemmatizer has not been provided.*")
}

func (s *rankerTestSuite) newRanker(c *check.C, st store.Store, l lemma.Lemmatizer) *Ranker {
	r, err := New(Config{Store: st, Lemmatizer: l})
	c.Assert(err, check.IsNil)

	return r
}

type failingStore struct {
	store.Store
}

func (failingStore) TermFrequencies([]string, string) ([]*store.TermFrequency, error) {
	return nil, errors.New("connection reset")
}
