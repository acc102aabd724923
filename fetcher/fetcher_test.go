package fetcher_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	check "gopkg.in/check.v1"

	"github.com/mycok/siteSearch/fetcher"
	"github.com/mycok/siteSearch/fetcher/privnet"
)

var _ = check.Suite(new(fetcherTestSuite))

// Test registers the [check] library with the go testing library.
func Test(t *testing.T) { check.TestingT(t) }

type fetcherTestSuite struct {
	srv *httptest.Server
	mux *http.ServeMux
}

func (s *fetcherTestSuite) SetUpTest(c *check.C) {
	s.mux = http.NewServeMux()
	s.srv = httptest.NewServer(s.mux)
}

func (s *fetcherTestSuite) TearDownTest(c *check.C) {
	s.srv.Close()
}

func (s *fetcherTestSuite) TestFetchHTMLPage(c *check.C) {
	var userAgent string

	s.mux.HandleFunc("/docs/intro", func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `
<html>
<head>
	<title>  The
	Intro </title>
	<style>body { color: red; }</style>
</head>
<body>
	<script>var hidden = "secret";</script>
	<h1>Welcome</h1><p>First paragraph.</p><p>Second&nbsp;one</p>
	<a href="./next">next</a>
	<a href="/about#team">about</a>
	<a href="/about">about again</a>
	<a href="//other.com/x">other</a>
	<a href="mailto:me@example.com">mail</a>
	<a href="javascript:void(0)">js</a>
	<a href="#top">top</a>
	<a href="/logo.png">logo</a>
	<a href="ftp://files.example.com">ftp</a>
</body>
</html>`)
	})

	f, err := fetcher.New(fetcher.Config{UserAgent: "testBot/1.0"})
	c.Assert(err, check.IsNil)

	doc, err := f.Fetch(context.TODO(), s.srv.URL+"/docs/intro")
	c.Assert(err, check.IsNil)

	c.Assert(userAgent, check.Equals, "testBot/1.0")
	c.Assert(doc.StatusCode, check.Equals, http.StatusOK)
	c.Assert(doc.URL, check.Equals, s.srv.URL+"/docs/intro")
	c.Assert(doc.Title, check.Equals, "The Intro")
	c.Assert(doc.Text, check.Equals, "Welcome First paragraph. Second one next about about again other mail js top logo ftp")
	c.Assert(doc.Links, check.DeepEquals, []string{
		s.srv.URL + "/docs/next",
		s.srv.URL + "/about",
		"http://other.com/x",
	})
}

func (s *fetcherTestSuite) TestFetchWithBaseTag(c *check.C) {
	s.mux.HandleFunc("/content/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `
<html>
<head><base href="https://test.com/base"/></head>
<body>
	<a href="./foo.html">link to foo</a>
	<a href="../private/data.html">login required</a>
</body>
</html>`)
	})

	f, err := fetcher.New(fetcher.Config{})
	c.Assert(err, check.IsNil)

	doc, err := f.Fetch(context.TODO(), s.srv.URL+"/content/")
	c.Assert(err, check.IsNil)
	c.Assert(doc.Links, check.DeepEquals, []string{
		"https://test.com/base/foo.html",
		"https://test.com/private/data.html",
	})
}

func (s *fetcherTestSuite) TestFetchDecodesCharset(c *check.C) {
	s.mux.HandleFunc("/ru", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1251")
		// "Привет" encoded as windows-1251.
		body := append([]byte("<html><body>"), 0xCF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2)
		_, _ = w.Write(append(body, []byte("</body></html>")...))
	})

	f, err := fetcher.New(fetcher.Config{})
	c.Assert(err, check.IsNil)

	doc, err := f.Fetch(context.TODO(), s.srv.URL+"/ru")
	c.Assert(err, check.IsNil)
	c.Assert(doc.Text, check.Equals, "Привет")
}

func (s *fetcherTestSuite) TestFetchFailures(c *check.C) {
	s.mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	s.mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true}`)
	})
	s.mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	f, err := fetcher.New(fetcher.Config{Timeout: 100 * time.Millisecond})
	c.Assert(err, check.IsNil)

	for _, target := range []string{
		s.srv.URL + "/missing",
		s.srv.URL + "/json",
		s.srv.URL + "/slow",
		"ftp://example.com/file",
		"://broken",
	} {
		_, err := f.Fetch(context.TODO(), target)
		c.Assert(errors.Is(err, fetcher.ErrFetchFailure), check.Equals, true, check.Commentf(
			"target %q: got %v", target, err,
		))
	}
}

func (s *fetcherTestSuite) TestFetchRefusesPrivateNetworks(c *check.C) {
	detector, err := privnet.NewDetector()
	c.Assert(err, check.IsNil)

	f, err := fetcher.New(fetcher.Config{NetDetector: detector})
	c.Assert(err, check.IsNil)

	// httptest servers listen on the loopback interface.
	_, err = f.Fetch(context.TODO(), s.srv.URL+"/")
	c.Assert(errors.Is(err, fetcher.ErrFetchFailure), check.Equals, true, check.Commentf("got %v", err))
	c.Assert(err, check.ErrorMatches, ".*private network.*")
}

func (s *fetcherTestSuite) TestConfigValidation(c *check.C) {
	_, err := fetcher.New(fetcher.Config{Timeout: -time.Second})
	c.Assert(err, check.ErrorMatches, "(?s)fetcher config validation failed.*invalid value for fetch timeout.*")
}
