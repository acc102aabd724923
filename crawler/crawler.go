/*
	crawler package walks the configured sites breadth-first and feeds every
	fetched page to the indexer. An indexing session runs one job per site on
	a bounded worker pool:
		1. the site row is acquired and marked INDEXING.
		2. the job pops canonical urls from its frontier, fetches and indexes
		   each page and enqueues the unseen same-site links it references.
		3. the site is marked INDEXED when the frontier drains, or FAILED when
		   the session is cancelled or the job breaks down.
	Jobs are sequential within a site; sites are crawled in parallel.
*/

package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/siteSearch/config"
	"github.com/mycok/siteSearch/store"
	"github.com/mycok/siteSearch/urlnorm"
)

// StoppedByUser is recorded on sites whose crawl was interrupted by Stop.
const StoppedByUser = "stopped by user"

var (
	// ErrAlreadyRunning is returned by Start while a session is active.
	ErrAlreadyRunning = errors.New("indexing is already running")

	// ErrNoSitesConfigured is returned when the site list is empty.
	ErrNoSitesConfigured = errors.New("no sites configured")

	// ErrSiteNotConfigured is returned by IndexSinglePage for urls outside
	// every configured site.
	ErrSiteNotConfigured = errors.New("page is outside the configured sites")

	// ErrCancelled is returned by a job that was interrupted before its
	// frontier drained.
	ErrCancelled = errors.New("indexing cancelled")
)

// session tracks a running indexing pass. A full crawl and any single page
// crawls started while it runs share one session, and done is closed once
// the last of them exits.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// Guarded by Orchestrator.jobsMu.
	jobs int
}

// Orchestrator starts, stops and reports indexing sessions.
type Orchestrator struct {
	cfg Config

	// mu serializes session transitions.
	mu     sync.Mutex
	jobsMu sync.Mutex
	active atomic.Pointer[session]
}

// New returns a new Orchestrator instance configured with cfg.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("crawler config validation failed: %w", err)
	}

	return &Orchestrator{cfg: cfg}, nil
}

// Start launches a new indexing session covering every configured site and
// returns immediately.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active.Load() != nil {
		return ErrAlreadyRunning
	}

	if len(o.cfg.Sites) == 0 {
		return ErrNoSitesConfigured
	}

	go o.runSession(o.enter())

	return nil
}

// Stop cancels the active session, waits up to the configured grace period
// for its jobs to exit and then marks every site still in INDEXING as
// FAILED. Calling Stop while idle is a no-op.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess := o.active.Load()
	if sess == nil {
		return nil
	}

	o.cfg.Logger.Info("stopping indexing session")
	sess.cancel()

	select {
	case <-sess.done:
	case <-o.cfg.Clock.After(o.cfg.StopGracePeriod):
		o.cfg.Logger.WithField(
			"grace_period", o.cfg.StopGracePeriod.String(),
		).Warn("indexing jobs did not exit within the grace period")
	}

	o.active.CompareAndSwap(sess, nil)
	o.sweepIndexingSites()

	return nil
}

// IsIndexing reports whether an indexing session is active.
func (o *Orchestrator) IsIndexing() bool {
	return o.active.Load() != nil
}

// IndexSinglePage crawls the site that owns rawURL starting from rawURL
// itself. The crawl joins the active session, or starts a new one when idle,
// so Stop interrupts it like any other site job. IndexSinglePage blocks until
// the crawl completes, ctx is cancelled or the session is stopped.
func (o *Orchestrator) IndexSinglePage(ctx context.Context, rawURL string) error {
	canonical := urlnorm.Normalize(strings.TrimSpace(rawURL))

	siteCfg, err := o.siteFor(canonical)
	if err != nil {
		return err
	}

	o.mu.Lock()
	sess := o.enter()
	o.mu.Unlock()

	defer o.leave(sess)

	jobCtx, cancel := context.WithCancel(sess.ctx)
	defer cancel()

	stopWithCaller := context.AfterFunc(ctx, cancel)
	defer stopWithCaller()

	if ctx.Err() != nil {
		cancel()
	}

	site, err := o.acquireSite(siteCfg)
	if err != nil {
		return fmt.Errorf("acquire site %s: %w", siteCfg.URL, err)
	}

	return o.runJob(jobCtx, site, canonical)
}

// CheckPage reports whether rawURL belongs to one of the configured sites.
// It returns ErrNoSitesConfigured or an error wrapping ErrSiteNotConfigured
// when IndexSinglePage would reject rawURL.
func (o *Orchestrator) CheckPage(rawURL string) error {
	_, err := o.siteFor(urlnorm.Normalize(strings.TrimSpace(rawURL)))

	return err
}

func (o *Orchestrator) siteFor(canonical string) (config.Site, error) {
	if len(o.cfg.Sites) == 0 {
		return config.Site{}, ErrNoSitesConfigured
	}

	siteCfg, ok := o.owningSite(canonical)
	if !ok {
		return config.Site{}, fmt.Errorf("%w: %s", ErrSiteNotConfigured, canonical)
	}

	return siteCfg, nil
}

// owningSite returns the configured site with the longest url that prefixes
// the canonical url.
func (o *Orchestrator) owningSite(canonical string) (config.Site, bool) {
	var (
		best  config.Site
		found bool
	)

	for _, site := range o.cfg.Sites {
		if !urlnorm.HasSitePrefix(canonical, site.URL) {
			continue
		}

		if !found || len(urlnorm.Normalize(site.URL)) > len(urlnorm.Normalize(best.URL)) {
			best, found = site, true
		}
	}

	return best, found
}

// enter registers a job with the active session, starting a new session
// when none is active. The caller must hold mu and call leave once the job
// exits.
func (o *Orchestrator) enter() *session {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()

	if sess := o.active.Load(); sess != nil && sess.jobs > 0 {
		sess.jobs++

		return sess
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{ctx: ctx, cancel: cancel, done: make(chan struct{}), jobs: 1}
	o.active.Store(sess)

	return sess
}

// leave unregisters a job from sess and ends the session when it was the
// last one.
func (o *Orchestrator) leave(sess *session) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()

	if sess.jobs--; sess.jobs > 0 {
		return
	}

	o.active.CompareAndSwap(sess, nil)
	sess.cancel()
	close(sess.done)
}

func (o *Orchestrator) runSession(sess *session) {
	defer o.leave(sess)

	o.cfg.Logger.WithField("sites", len(o.cfg.Sites)).Info("starting indexing session")

	startedAt := o.cfg.Clock.Now()
	err := runPool(sess.ctx, o.cfg.NumOfWorkers, o.cfg.Sites, o.crawlSite)

	logger := o.cfg.Logger.WithField("elapsed_time", o.cfg.Clock.Now().Sub(startedAt).String())
	if err != nil {
		logger.WithField("err", err).Warn("indexing session completed with errors")

		return
	}

	logger.Info("indexing session completed")
}

// crawlSite acquires the site row and runs its job from the site root.
func (o *Orchestrator) crawlSite(ctx context.Context, siteCfg config.Site) error {
	site, err := o.acquireSite(siteCfg)
	if err != nil {
		o.cfg.Logger.WithFields(logrus.Fields{
			"site": siteCfg.URL,
			"err":  err,
		}).Error("unable to acquire site")

		return fmt.Errorf("acquire site %s: %w", siteCfg.URL, err)
	}

	return o.runJob(ctx, site, site.URL)
}

// acquireSite finds or creates the row of a configured site and marks it as
// INDEXING. A concurrent creation of the same row is resolved by re-reading
// it.
func (o *Orchestrator) acquireSite(siteCfg config.Site) (*store.Site, error) {
	canonical := urlnorm.Normalize(siteCfg.URL)

	site, err := o.cfg.Store.FindSiteByURL(canonical)
	switch {
	case errors.Is(err, store.ErrNotFound):
		site = &store.Site{URL: canonical}
	case err != nil:
		return nil, err
	}

	o.markIndexing(site, siteCfg.Name)

	err = o.cfg.Store.SaveSite(site)
	if !errors.Is(err, store.ErrConflict) {
		return site, err
	}

	o.cfg.Logger.WithField("site", canonical).Warn("site row created concurrently; reusing it")

	if site, err = o.cfg.Store.FindSiteByURL(canonical); err != nil {
		return nil, err
	}

	o.markIndexing(site, siteCfg.Name)

	return site, o.cfg.Store.SaveSite(site)
}

func (o *Orchestrator) markIndexing(site *store.Site, name string) {
	if name != "" {
		site.Name = name
	} else if site.Name == "" {
		site.Name = urlnorm.SiteName(site.URL)
	}

	site.Status = store.StatusIndexing
	site.StatusTime = o.cfg.Clock.Now()
}

// sweepIndexingSites marks every site still in INDEXING as FAILED.
func (o *Orchestrator) sweepIndexingSites() {
	sites, err := o.cfg.Store.Sites()
	if err != nil {
		o.cfg.Logger.WithField("err", err).Warn("unable to list sites after stop")

		return
	}

	var sweepErr error

	for _, site := range sites {
		if site.Status != store.StatusIndexing {
			continue
		}

		site.Status = store.StatusFailed
		site.StatusTime = o.cfg.Clock.Now()
		site.LastError = StoppedByUser

		if err := o.cfg.Store.SaveSite(site); err != nil {
			sweepErr = multierror.Append(sweepErr, fmt.Errorf("%s: %w", site.URL, err))
		}
	}

	if sweepErr != nil {
		o.cfg.Logger.WithField("err", sweepErr).Warn("unable to mark stopped sites as failed")
	}
}

// wait blocks until the active session, if any, completes.
func (o *Orchestrator) wait() {
	if sess := o.active.Load(); sess != nil {
		<-sess.done
	}
}
