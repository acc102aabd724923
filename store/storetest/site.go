package storetest

import (
	"errors"
	"time"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/siteSearch/store"
)

// TestSaveSite verifies the site insert and update logic.
func (s *BaseSuite) TestSaveSite(c *check.C) {
	statusTime := time.Now().UTC().Truncate(time.Millisecond)
	site := &store.Site{
		URL:        "https://example.com",
		Name:       "Example",
		Status:     store.StatusIndexing,
		StatusTime: statusTime,
	}

	c.Assert(s.s.SaveSite(site), check.IsNil)
	c.Assert(site.ID, check.Not(check.Equals), uuid.Nil, check.Commentf(
		"expected an ID to be assigned to the new site",
	))

	got, err := s.s.FindSiteByURL("https://example.com")
	c.Assert(err, check.IsNil)
	c.Assert(got.ID, check.Equals, site.ID)
	c.Assert(got.Name, check.Equals, "Example")
	c.Assert(got.Status, check.Equals, store.StatusIndexing)
	c.Assert(got.StatusTime.Equal(statusTime), check.Equals, true, check.Commentf(
		"expected status time %v, got %v", statusTime, got.StatusTime,
	))
	c.Assert(got.LastError, check.Equals, "")

	// Update the existing site.
	got.Status = store.StatusFailed
	got.LastError = "boom"
	c.Assert(s.s.SaveSite(got), check.IsNil)
	c.Assert(got.ID, check.Equals, site.ID, check.Commentf("ID changed while updating"))

	updated, err := s.s.FindSiteByURL("https://example.com")
	c.Assert(err, check.IsNil)
	c.Assert(updated.Status, check.Equals, store.StatusFailed)
	c.Assert(updated.LastError, check.Equals, "boom")

	sites, err := s.s.Sites()
	c.Assert(err, check.IsNil)
	c.Assert(sites, check.HasLen, 1)
}

// TestSaveSiteConflict verifies that two sites cannot share a url.
func (s *BaseSuite) TestSaveSiteConflict(c *check.C) {
	c.Assert(s.s.SaveSite(&store.Site{URL: "https://example.com", Status: store.StatusIndexing}), check.IsNil)

	err := s.s.SaveSite(&store.Site{URL: "https://example.com", Status: store.StatusIndexing})
	c.Assert(errors.Is(err, store.ErrConflict), check.Equals, true, check.Commentf("got %v", err))
}

// TestFindUnknownSite verifies that a missing site is reported as not found.
func (s *BaseSuite) TestFindUnknownSite(c *check.C) {
	_, err := s.s.FindSiteByURL("https://missing.com")
	c.Assert(errors.Is(err, store.ErrNotFound), check.Equals, true, check.Commentf("got %v", err))
}

// TestSitesOrder verifies that sites are listed by url.
func (s *BaseSuite) TestSitesOrder(c *check.C) {
	for _, url := range []string{"https://c.com", "https://a.com", "https://b.com"} {
		c.Assert(s.s.SaveSite(&store.Site{URL: url, Status: store.StatusIndexed}), check.IsNil)
	}

	sites, err := s.s.Sites()
	c.Assert(err, check.IsNil)
	c.Assert(sites, check.HasLen, 3)
	c.Assert(sites[0].URL, check.Equals, "https://a.com")
	c.Assert(sites[2].URL, check.Equals, "https://c.com")
}
