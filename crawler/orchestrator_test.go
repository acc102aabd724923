package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	check "gopkg.in/check.v1"

	"github.com/mycok/siteSearch/config"
	mock_crawler "github.com/mycok/siteSearch/crawler/mocks"
	"github.com/mycok/siteSearch/fetcher"
	"github.com/mycok/siteSearch/indexer"
	"github.com/mycok/siteSearch/lemma"
	"github.com/mycok/siteSearch/store"
	"github.com/mycok/siteSearch/store/memory"
)

var _ = check.Suite(new(orchestratorTestSuite))

const siteURL = "https://a.com"

type orchestratorTestSuite struct {
	st      *memory.InMemoryStore
	fetcher *mock_crawler.MockFetcher
	clk     *testclock.Clock
}

func (s *orchestratorTestSuite) SetUpTest(c *check.C) {
	ctrl := gomock.NewController(c)

	s.st = memory.NewInMemoryStore()
	s.fetcher = mock_crawler.NewMockFetcher(ctrl)
	s.clk = testclock.NewClock(time.Now())
}

func (s *orchestratorTestSuite) TearDownTest(c *check.C) {
	s.st = nil
	s.fetcher = nil
}

func (s *orchestratorTestSuite) TestStartWithoutSites(c *check.C) {
	o := s.newOrchestrator(c)
	c.Assert(o.Start(), check.Equals, ErrNoSitesConfigured)
	c.Assert(o.IsIndexing(), check.Equals, false)
}

func (s *orchestratorTestSuite) TestStopWhileIdle(c *check.C) {
	o := s.newOrchestrator(c, config.Site{URL: siteURL, Name: "A"})
	c.Assert(o.Stop(), check.IsNil)
}

func (s *orchestratorTestSuite) TestCrawlIsBreadthFirstAndStaysOnSite(c *check.C) {
	gomock.InOrder(
		s.fetcher.EXPECT().Fetch(gomock.Any(), "https://a.com").Return(page(
			"root page",
			"https://a.com/b", "https://www.a.com/c#top", "https://other.com/x", "https://a.company",
		), nil),
		s.fetcher.EXPECT().Fetch(gomock.Any(), "https://a.com/b").Return(page(
			"page b", "https://a.com/", "https://a.com/c", "https://a.com/b/d",
		), nil),
		s.fetcher.EXPECT().Fetch(gomock.Any(), "https://a.com/c").Return(page("page c"), nil),
		s.fetcher.EXPECT().Fetch(gomock.Any(), "https://a.com/b/d").Return(page("page d"), nil),
	)

	o := s.newOrchestrator(c, config.Site{URL: siteURL, Name: "A"})
	c.Assert(o.Start(), check.IsNil)
	o.wait()

	site := s.site(c)
	c.Assert(site.Status, check.Equals, store.StatusIndexed)
	c.Assert(site.Name, check.Equals, "A")
	c.Assert(site.LastError, check.Equals, "")

	count, err := s.st.CountPages(site.ID)
	c.Assert(err, check.IsNil)
	c.Assert(count, check.Equals, 4)

	for _, path := range []string{"/", "/b", "/c", "/b/d"} {
		_, err := s.st.FindPage(site.ID, path)
		c.Assert(err, check.IsNil, check.Commentf("path %s", path))
	}
}

func (s *orchestratorTestSuite) TestFetchFailureIsRecordedAndCrawlContinues(c *check.C) {
	gomock.InOrder(
		s.fetcher.EXPECT().Fetch(gomock.Any(), "https://a.com").Return(page(
			"root", "https://a.com/b", "https://a.com/c",
		), nil),
		s.fetcher.EXPECT().Fetch(gomock.Any(), "https://a.com/b").Return(nil, errors.New("boom")),
		s.fetcher.EXPECT().Fetch(gomock.Any(), "https://a.com/c").DoAndReturn(
			func(_ context.Context, _ string) (*fetcher.Document, error) {
				site := s.site(c)
				c.Check(site.Status, check.Equals, store.StatusIndexing)
				c.Check(site.LastError, check.Matches, "fetch https://a.com/b: boom")

				return page("page c"), nil
			},
		),
	)

	o := s.newOrchestrator(c, config.Site{URL: siteURL})
	c.Assert(o.Start(), check.IsNil)
	o.wait()

	site := s.site(c)
	c.Assert(site.Status, check.Equals, store.StatusIndexed)
	c.Assert(site.Name, check.Equals, "A")

	count, err := s.st.CountPages(site.ID)
	c.Assert(err, check.IsNil)
	c.Assert(count, check.Equals, 2)
}

func (s *orchestratorTestSuite) TestStartWhileRunning(c *check.C) {
	started, release := make(chan struct{}), make(chan struct{})
	s.fetcher.EXPECT().Fetch(gomock.Any(), "https://a.com").DoAndReturn(
		func(_ context.Context, _ string) (*fetcher.Document, error) {
			close(started)
			<-release

			return page("root"), nil
		},
	)

	o := s.newOrchestrator(c, config.Site{URL: siteURL, Name: "A"})
	c.Assert(o.Start(), check.IsNil)
	<-started

	c.Assert(o.IsIndexing(), check.Equals, true)
	c.Assert(o.Start(), check.Equals, ErrAlreadyRunning)

	close(release)
	o.wait()

	c.Assert(s.site(c).Status, check.Equals, store.StatusIndexed)
}

func (s *orchestratorTestSuite) TestStopWaitsForGracePeriodAndSweepsSites(c *check.C) {
	started, release := make(chan struct{}), make(chan struct{})
	s.fetcher.EXPECT().Fetch(gomock.Any(), "https://a.com").DoAndReturn(
		func(_ context.Context, _ string) (*fetcher.Document, error) {
			close(started)
			<-release

			return page("root", "https://a.com/b"), nil
		},
	)

	// Rows left in a final state by earlier sessions.
	indexed := &store.Site{URL: "https://b.com", Name: "B", Status: store.StatusIndexed, StatusTime: s.clk.Now()}
	failed := &store.Site{URL: "https://c.com", Name: "C", Status: store.StatusFailed, LastError: "fetch timeout"}
	c.Assert(s.st.SaveSite(indexed), check.IsNil)
	c.Assert(s.st.SaveSite(failed), check.IsNil)

	o := s.newOrchestrator(c, config.Site{URL: siteURL, Name: "A"})
	c.Assert(o.Start(), check.IsNil)
	<-started

	sess := o.active.Load()
	c.Assert(sess, check.NotNil)

	stopErrCh := make(chan error, 1)
	go func() { stopErrCh <- o.Stop() }()

	c.Assert(s.clk.WaitAdvance(defaultStopGracePeriod, 10*time.Second, 1), check.IsNil)
	c.Assert(<-stopErrCh, check.IsNil)
	c.Assert(o.IsIndexing(), check.Equals, false)

	site := s.site(c)
	c.Assert(site.Status, check.Equals, store.StatusFailed)
	c.Assert(site.LastError, check.Equals, StoppedByUser)

	// The in-flight page is still indexed but its links are not followed.
	close(release)
	<-sess.done

	site = s.site(c)
	c.Assert(site.Status, check.Equals, store.StatusFailed)
	c.Assert(site.LastError, check.Equals, StoppedByUser)

	_, err := s.st.FindPage(site.ID, "/")
	c.Assert(err, check.IsNil)
	_, err = s.st.FindPage(site.ID, "/b")
	c.Assert(errors.Is(err, store.ErrNotFound), check.Equals, true)

	got, err := s.st.FindSiteByURL("https://b.com")
	c.Assert(err, check.IsNil)
	c.Assert(got.Status, check.Equals, store.StatusIndexed)
	c.Assert(got.LastError, check.Equals, "")
	c.Assert(got.StatusTime.Equal(indexed.StatusTime), check.Equals, true)

	got, err = s.st.FindSiteByURL("https://c.com")
	c.Assert(err, check.IsNil)
	c.Assert(got.Status, check.Equals, store.StatusFailed)
	c.Assert(got.LastError, check.Equals, "fetch timeout")
}

func (s *orchestratorTestSuite) TestSinglePageCrawlIsAnIndexingSession(c *check.C) {
	started, release := make(chan struct{}), make(chan struct{})
	s.fetcher.EXPECT().Fetch(gomock.Any(), "https://a.com/docs").DoAndReturn(
		func(_ context.Context, _ string) (*fetcher.Document, error) {
			close(started)
			<-release

			return page("docs", "https://a.com/docs/next"), nil
		},
	)

	o := s.newOrchestrator(c, config.Site{URL: siteURL, Name: "A"})

	crawlErrCh := make(chan error, 1)
	go func() { crawlErrCh <- o.IndexSinglePage(context.TODO(), "https://a.com/docs") }()
	<-started

	c.Assert(o.IsIndexing(), check.Equals, true)
	c.Assert(o.Start(), check.Equals, ErrAlreadyRunning)

	stopErrCh := make(chan error, 1)
	go func() { stopErrCh <- o.Stop() }()

	c.Assert(s.clk.WaitAdvance(defaultStopGracePeriod, 10*time.Second, 1), check.IsNil)
	c.Assert(<-stopErrCh, check.IsNil)

	// The in-flight page completes but /docs/next is never fetched.
	close(release)
	c.Assert(<-crawlErrCh, check.Equals, ErrCancelled)
	c.Assert(o.IsIndexing(), check.Equals, false)

	site := s.site(c)
	c.Assert(site.Status, check.Equals, store.StatusFailed)
	c.Assert(site.LastError, check.Equals, StoppedByUser)

	_, err := s.st.FindPage(site.ID, "/docs")
	c.Assert(err, check.IsNil)
}

func (s *orchestratorTestSuite) TestSinglePageCrawlJoinsRunningSession(c *check.C) {
	started, release := make(chan struct{}), make(chan struct{})
	s.fetcher.EXPECT().Fetch(gomock.Any(), "https://a.com").DoAndReturn(
		func(_ context.Context, _ string) (*fetcher.Document, error) {
			close(started)
			<-release

			return page("root"), nil
		},
	)
	s.fetcher.EXPECT().Fetch(gomock.Any(), "https://b.com").Return(page("b"), nil)
	s.fetcher.EXPECT().Fetch(gomock.Any(), "https://b.com/x").Return(page("x"), nil)

	o := s.newOrchestrator(c,
		config.Site{URL: siteURL, Name: "A"},
		config.Site{URL: "https://b.com", Name: "B"},
	)
	c.Assert(o.Start(), check.IsNil)
	<-started

	sess := o.active.Load()

	c.Assert(o.IndexSinglePage(context.TODO(), "https://b.com/x"), check.IsNil)
	c.Assert(o.active.Load(), check.Equals, sess)
	c.Assert(o.IsIndexing(), check.Equals, true)

	close(release)
	<-sess.done
	c.Assert(o.IsIndexing(), check.Equals, false)
}

func (s *orchestratorTestSuite) TestIndexSinglePage(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), "https://a.com/docs").Return(page("docs"), nil)

	o := s.newOrchestrator(c, config.Site{URL: siteURL, Name: "A"})
	c.Assert(o.IndexSinglePage(context.TODO(), " https://www.a.com/docs/ "), check.IsNil)

	c.Assert(o.IsIndexing(), check.Equals, false)

	site := s.site(c)
	c.Assert(site.Status, check.Equals, store.StatusIndexed)

	p, err := s.st.FindPage(site.ID, "/docs")
	c.Assert(err, check.IsNil)
	c.Assert(p.Content, check.Equals, "docs")
}

func (s *orchestratorTestSuite) TestIndexSinglePagePicksLongestSite(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), "https://a.com/blog/post").Return(page("post"), nil)

	o := s.newOrchestrator(c,
		config.Site{URL: siteURL, Name: "A"},
		config.Site{URL: "https://a.com/blog", Name: "Blog"},
	)
	c.Assert(o.IndexSinglePage(context.TODO(), "https://a.com/blog/post"), check.IsNil)

	blog, err := s.st.FindSiteByURL("https://a.com/blog")
	c.Assert(err, check.IsNil)
	c.Assert(blog.Name, check.Equals, "Blog")

	_, err = s.st.FindPage(blog.ID, "/post")
	c.Assert(err, check.IsNil)

	_, err = s.st.FindSiteByURL(siteURL)
	c.Assert(errors.Is(err, store.ErrNotFound), check.Equals, true)
}

func (s *orchestratorTestSuite) TestIndexSinglePageOutsideSites(c *check.C) {
	o := s.newOrchestrator(c, config.Site{URL: siteURL, Name: "A"})

	err := o.IndexSinglePage(context.TODO(), "https://b.com/x")
	c.Assert(errors.Is(err, ErrSiteNotConfigured), check.Equals, true)

	o = s.newOrchestrator(c)
	c.Assert(o.IndexSinglePage(context.TODO(), "https://a.com/x"), check.Equals, ErrNoSitesConfigured)
}

func (s *orchestratorTestSuite) TestIndexSinglePageWithCancelledContext(c *check.C) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := s.newOrchestrator(c, config.Site{URL: siteURL, Name: "A"})
	c.Assert(o.IndexSinglePage(ctx, "https://a.com/x"), check.Equals, ErrCancelled)

	site := s.site(c)
	c.Assert(site.Status, check.Equals, store.StatusFailed)
	c.Assert(site.LastError, check.Equals, StoppedByUser)
}

func (s *orchestratorTestSuite) TestPanickingJobMarksSiteFailed(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), "https://a.com").DoAndReturn(
		func(_ context.Context, _ string) (*fetcher.Document, error) {
			panic("parser exploded")
		},
	)

	o := s.newOrchestrator(c, config.Site{URL: siteURL, Name: "A"})
	err := o.IndexSinglePage(context.TODO(), siteURL)
	c.Assert(err, check.ErrorMatches, ".*aborted: parser exploded")

	site := s.site(c)
	c.Assert(site.Status, check.Equals, store.StatusFailed)
	c.Assert(site.LastError, check.Matches, ".*parser exploded")
}

func (s *orchestratorTestSuite) TestAcquireReusesExistingSite(c *check.C) {
	existing := &store.Site{URL: siteURL, Name: "Old", Status: store.StatusIndexed}
	c.Assert(s.st.SaveSite(existing), check.IsNil)

	o := s.newOrchestrator(c, config.Site{URL: "https://www.a.com/", Name: "New"})
	site, err := o.acquireSite(o.cfg.Sites[0])
	c.Assert(err, check.IsNil)
	c.Assert(site.ID, check.Equals, existing.ID)
	c.Assert(site.Name, check.Equals, "New")
	c.Assert(site.Status, check.Equals, store.StatusIndexing)
	c.Assert(site.StatusTime.Equal(s.clk.Now()), check.Equals, true)
}

func (s *orchestratorTestSuite) TestEndToEndCrawl(c *check.C) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Home</title></head>
			<body><p>cats and dogs</p><a href="/about">about</a><a href="/missing">x</a></body></html>`))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>about cats</p><a href="/">home</a></body></html>`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	f, err := fetcher.New(fetcher.Config{URLGetter: srv.Client(), Timeout: 5 * time.Second})
	c.Assert(err, check.IsNil)

	ix, err := newTestIndexer(s.st, lemma.Plain)
	c.Assert(err, check.IsNil)

	o, err := New(Config{
		Sites:   []config.Site{{URL: srv.URL, Name: "Local"}},
		Store:   s.st,
		Fetcher: f,
		Indexer: ix,
		Clock:   s.clk,
	})
	c.Assert(err, check.IsNil)

	c.Assert(o.Start(), check.IsNil)
	o.wait()

	site, err := s.st.FindSiteByURL(srv.URL)
	c.Assert(err, check.IsNil)
	c.Assert(site.Status, check.Equals, store.StatusIndexed)

	count, err := s.st.CountPages(site.ID)
	c.Assert(err, check.IsNil)
	c.Assert(count, check.Equals, 2)

	df, err := s.st.DocumentFrequencies([]string{"cats", "dogs"}, "")
	c.Assert(err, check.IsNil)
	c.Assert(df, check.DeepEquals, map[string]int{"cats": 2, "dogs": 1})
}

func (s *orchestratorTestSuite) newOrchestrator(c *check.C, sites ...config.Site) *Orchestrator {
	ix, err := newTestIndexer(s.st, lemma.Plain)
	c.Assert(err, check.IsNil)

	o, err := New(Config{
		Sites:   sites,
		Store:   s.st,
		Fetcher: s.fetcher,
		Indexer: ix,
		Clock:   s.clk,
	})
	c.Assert(err, check.IsNil)

	return o
}

func (s *orchestratorTestSuite) site(c *check.C) *store.Site {
	site, err := s.st.FindSiteByURL(siteURL)
	c.Assert(err, check.IsNil)
	c.Assert(site.ID, check.Not(check.Equals), uuid.Nil)

	return site
}

func page(text string, links ...string) *fetcher.Document {
	return &fetcher.Document{StatusCode: http.StatusOK, Text: text, Links: links}
}

func newTestIndexer(st store.Store, lem lemma.Lemmatizer) (*indexer.Indexer, error) {
	return indexer.New(indexer.Config{Store: st, Lemmatizer: lem})
}

type nopFetcher struct{}

func (nopFetcher) Fetch(context.Context, string) (*fetcher.Document, error) {
	return nil, errors.New("not implemented")
}

func (s *orchestratorTestSuite) TestCheckPage(c *check.C) {
	o := s.newOrchestrator(c, config.Site{URL: siteURL, Name: "A"})
	c.Assert(o.CheckPage("https://www.a.com/x/"), check.IsNil)
	c.Assert(errors.Is(o.CheckPage("https://b.com"), ErrSiteNotConfigured), check.Equals, true)

	o = s.newOrchestrator(c)
	c.Assert(o.CheckPage(siteURL), check.Equals, ErrNoSitesConfigured)
}

func (s *orchestratorTestSuite) TestIndexFailureStopsLinkFollowing(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	pageIndexer := mock_crawler.NewMockPageIndexer(ctrl)

	s.fetcher.EXPECT().Fetch(gomock.Any(), "https://a.com").Return(page("root", "https://a.com/b"), nil)
	pageIndexer.EXPECT().IndexPage(gomock.Any(), gomock.Any(), "/", http.StatusOK, "root").Return(
		nil, errors.New("lemma table locked"),
	)

	o, err := New(Config{
		Sites:   []config.Site{{URL: siteURL, Name: "A"}},
		Store:   s.st,
		Fetcher: s.fetcher,
		Indexer: pageIndexer,
		Clock:   s.clk,
	})
	c.Assert(err, check.IsNil)

	c.Assert(o.Start(), check.IsNil)
	o.wait()

	c.Assert(s.site(c).Status, check.Equals, store.StatusIndexed)
}
