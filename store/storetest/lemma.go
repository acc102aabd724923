package storetest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/siteSearch/store"
)

// TestSaveLemma verifies the lemma insert and update logic.
func (s *BaseSuite) TestSaveLemma(c *check.C) {
	site := s.mustSaveSite(c, "https://example.com")

	l := &store.Lemma{SiteID: site.ID, Lemma: "cat", Frequency: 1}
	c.Assert(s.s.SaveLemma(l), check.IsNil)
	c.Assert(l.ID, check.Not(check.Equals), uuid.Nil)

	got, err := s.s.FindLemma(site.ID, "cat")
	c.Assert(err, check.IsNil)
	c.Assert(got.ID, check.Equals, l.ID)
	c.Assert(got.Frequency, check.Equals, 1)

	got.Frequency += 2
	c.Assert(s.s.SaveLemma(got), check.IsNil)

	got, err = s.s.FindLemma(site.ID, "cat")
	c.Assert(err, check.IsNil)
	c.Assert(got.Frequency, check.Equals, 3)

	_, err = s.s.FindLemma(site.ID, "dog")
	c.Assert(errors.Is(err, store.ErrNotFound), check.Equals, true, check.Commentf("got %v", err))
}

// TestConcurrentLemmaInserts verifies that concurrent inserts of the same
// (site, lemma) pair result in a single record, with every other writer
// observing a conflict.
func (s *BaseSuite) TestConcurrentLemmaInserts(c *check.C) {
	site := s.mustSaveSite(c, "https://example.com")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		numWriter = 8
		succeeded int
		conflicts int
	)

	wg.Add(numWriter)
	for i := 0; i < numWriter; i++ {
		go func() {
			defer wg.Done()

			err := s.s.SaveLemma(&store.Lemma{SiteID: site.ID, Lemma: "race", Frequency: 1})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, store.ErrConflict):
				conflicts++
			}
		}()
	}

	wg.Wait()

	c.Assert(succeeded, check.Equals, 1)
	c.Assert(conflicts, check.Equals, numWriter-1)
}

// TestCountLemmas verifies per-site and global lemma counts.
func (s *BaseSuite) TestCountLemmas(c *check.C) {
	siteA := s.mustSaveSite(c, "https://a.com")
	siteB := s.mustSaveSite(c, "https://b.com")

	for i := 0; i < 3; i++ {
		s.mustSaveLemma(c, siteA, fmt.Sprint("word", i))
	}
	s.mustSaveLemma(c, siteB, "word0")

	count, err := s.s.CountLemmas(siteA.ID)
	c.Assert(err, check.IsNil)
	c.Assert(count, check.Equals, 3)

	count, err = s.s.CountLemmas(uuid.Nil)
	c.Assert(err, check.IsNil)
	c.Assert(count, check.Equals, 4)
}

func (s *BaseSuite) mustSaveLemma(c *check.C, site *store.Site, text string) *store.Lemma {
	l := &store.Lemma{SiteID: site.ID, Lemma: text, Frequency: 1}
	c.Assert(s.s.SaveLemma(l), check.IsNil)

	return l
}
