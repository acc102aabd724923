/*
	fetcher package retrieves a single web page over HTTP and turns it into a
	Document holding the page title, its plain text and the absolute links it
	references.
*/

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "siteSearchBot/1.0 (+https://github.com/mycok/siteSearch)"

	defaultTimeout = 10 * time.Second
	maxBodySize    = 10 << 20
)

// ErrFetchFailure is returned when a page could not be retrieved or parsed.
// ie: a transport error, a timeout, a non 2xx response or a non HTML body.
var ErrFetchFailure = errors.New("fetch failure")

// URLGetter should be implemented by objects that perform HTTP requests.
// *http.Client satisfies it.
type URLGetter interface {
	Do(req *http.Request) (*http.Response, error)
}

// PrivateNetworkDetector should be implemented by objects that can detect
// whether a host resolves to a private network address.
type PrivateNetworkDetector interface {
	IsNetworkPrivate(host string) (bool, error)
}

// Document is the parsed form of a fetched page.
type Document struct {
	URL        string   // Final url of the page, after redirects
	StatusCode int      // HTTP status code of the response
	Title      string   // Contents of the <title> tag
	Text       string   // Whitespace collapsed body text
	Links      []string // Absolute http(s) links found on the page
}

// Config encapsulates the settings for configuring an HTTPFetcher.
type Config struct {
	// The client used to perform requests. Defaults to http.DefaultClient.
	URLGetter URLGetter

	// An optional detector. When set, hosts that resolve to private
	// networks are refused.
	NetDetector PrivateNetworkDetector

	// The User-Agent header sent with every request.
	UserAgent string

	// The maximum duration of a single fetch, body included.
	Timeout time.Duration

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error

	if cfg.URLGetter == nil {
		cfg.URLGetter = http.DefaultClient
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	} else if cfg.Timeout < 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for fetch timeout: %s", cfg.Timeout))
	}

	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// HTTPFetcher retrieves pages over HTTP.
type HTTPFetcher struct {
	cfg Config
}

// New returns a new HTTPFetcher instance configured with cfg.
func New(cfg Config) (*HTTPFetcher, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("fetcher config validation failed: %w", err)
	}

	return &HTTPFetcher{cfg: cfg}, nil
}

// Fetch performs an HTTP GET request for rawURL and parses the response.
// Every failure is reported as an error wrapping ErrFetchFailure.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}

	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrFetchFailure, target.Scheme)
	}

	if f.cfg.NetDetector != nil {
		isPrivate, err := f.cfg.NetDetector.IsNetworkPrivate(target.Hostname())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetchFailure, err)
		}

		if isPrivate {
			return nil, fmt.Errorf("%w: host %q resolves to a private network", ErrFetchFailure, target.Hostname())
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}

	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.cfg.URLGetter.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Only allow 2xx responses.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrFetchFailure, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "html") {
		return nil, fmt.Errorf("%w: unexpected content type %q", ErrFetchFailure, contentType)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodySize), contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	f.cfg.Logger.WithFields(logrus.Fields{
		"url":         finalURL.String(),
		"status_code": resp.StatusCode,
	}).Debug("fetched page")

	return &Document{
		URL:        finalURL.String(),
		StatusCode: resp.StatusCode,
		Title:      extractTitle(doc),
		Text:       extractText(doc),
		Links:      extractLinks(doc, finalURL),
	}, nil
}
