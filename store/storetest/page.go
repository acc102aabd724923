package storetest

import (
	"errors"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/siteSearch/store"
)

// TestSavePage verifies the page insert and update logic.
func (s *BaseSuite) TestSavePage(c *check.C) {
	site := s.mustSaveSite(c, "https://example.com")

	page := &store.Page{SiteID: site.ID, Path: "/", Code: 200, Content: "hello"}
	c.Assert(s.s.SavePage(page), check.IsNil)
	c.Assert(page.ID, check.Not(check.Equals), uuid.Nil)

	got, err := s.s.FindPage(site.ID, "/")
	c.Assert(err, check.IsNil)
	c.Assert(got.ID, check.Equals, page.ID)
	c.Assert(got.Code, check.Equals, 200)
	c.Assert(got.Content, check.Equals, "hello")

	got.Code = 404
	got.Content = "gone"
	c.Assert(s.s.SavePage(got), check.IsNil)

	updated, err := s.s.FindPage(site.ID, "/")
	c.Assert(err, check.IsNil)
	c.Assert(updated.ID, check.Equals, page.ID)
	c.Assert(updated.Code, check.Equals, 404)
	c.Assert(updated.Content, check.Equals, "gone")

	_, err = s.s.FindPage(site.ID, "/missing")
	c.Assert(errors.Is(err, store.ErrNotFound), check.Equals, true, check.Commentf("got %v", err))
}

// TestSavePageConflict verifies that a (site, path) pair is unique while the
// same path may exist on different sites.
func (s *BaseSuite) TestSavePageConflict(c *check.C) {
	siteA := s.mustSaveSite(c, "https://a.com")
	siteB := s.mustSaveSite(c, "https://b.com")

	c.Assert(s.s.SavePage(&store.Page{SiteID: siteA.ID, Path: "/x", Code: 200}), check.IsNil)
	c.Assert(s.s.SavePage(&store.Page{SiteID: siteB.ID, Path: "/x", Code: 200}), check.IsNil)

	err := s.s.SavePage(&store.Page{SiteID: siteA.ID, Path: "/x", Code: 200})
	c.Assert(errors.Is(err, store.ErrConflict), check.Equals, true, check.Commentf("got %v", err))
}

// TestCountPages verifies per-site and global page counts.
func (s *BaseSuite) TestCountPages(c *check.C) {
	siteA := s.mustSaveSite(c, "https://a.com")
	siteB := s.mustSaveSite(c, "https://b.com")

	s.mustSavePage(c, siteA, "/1", "")
	s.mustSavePage(c, siteA, "/2", "")
	s.mustSavePage(c, siteB, "/1", "")

	count, err := s.s.CountPages(siteA.ID)
	c.Assert(err, check.IsNil)
	c.Assert(count, check.Equals, 2)

	count, err = s.s.CountPages(uuid.Nil)
	c.Assert(err, check.IsNil)
	c.Assert(count, check.Equals, 3)
}

// TestPagesWithSite verifies that pages are returned in the requested order
// along with their sites and that unknown ids are skipped.
func (s *BaseSuite) TestPagesWithSite(c *check.C) {
	siteA := s.mustSaveSite(c, "https://a.com")
	siteB := s.mustSaveSite(c, "https://b.com")

	p1 := s.mustSavePage(c, siteA, "/1", "one")
	p2 := s.mustSavePage(c, siteB, "/2", "two")

	list, err := s.s.PagesWithSite([]uuid.UUID{p2.ID, uuid.New(), p1.ID})
	c.Assert(err, check.IsNil)
	c.Assert(list, check.HasLen, 2)
	c.Assert(list[0].Page.ID, check.Equals, p2.ID)
	c.Assert(list[0].Site.URL, check.Equals, "https://b.com")
	c.Assert(list[1].Page.Content, check.Equals, "one")
	c.Assert(list[1].Site.ID, check.Equals, siteA.ID)
}

func (s *BaseSuite) mustSaveSite(c *check.C, url string) *store.Site {
	site := &store.Site{URL: url, Name: url, Status: store.StatusIndexing}
	c.Assert(s.s.SaveSite(site), check.IsNil)

	return site
}

func (s *BaseSuite) mustSavePage(c *check.C, site *store.Site, path, content string) *store.Page {
	page := &store.Page{SiteID: site.ID, Path: path, Code: 200, Content: content}
	c.Assert(s.s.SavePage(page), check.IsNil)

	return page
}
