package crawler

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mycok/siteSearch/store"
	"github.com/mycok/siteSearch/urlnorm"
)

// runJob walks the site breadth-first from startURL until the frontier
// drains or ctx is cancelled, then records the outcome on the site row.
//
// Cancellation is observed before every pop and before every followed link.
// A fetch that already started runs to completion, and so does the indexing
// of its page.
func (o *Orchestrator) runJob(ctx context.Context, site *store.Site, startURL string) (err error) {
	logger := o.cfg.Logger.WithField("site", site.URL)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("crawl of %s aborted: %v", site.URL, r)
			logger.WithField("err", err).Error("site job failed")
			o.markFailed(site, err.Error(), logger)
		}
	}()

	var (
		f         = newFrontier(urlnorm.Normalize(startURL))
		detached  = context.WithoutCancel(ctx)
		startedAt = o.cfg.Clock.Now()
		pages     int
	)

	logger.WithField("url", startURL).Info("starting site job")

	for ctx.Err() == nil {
		pageURL, ok := f.pop()
		if !ok {
			break
		}

		if o.crawlPage(ctx, detached, site, pageURL, f, logger) {
			pages++
		}
	}

	logger = logger.WithFields(logrus.Fields{
		"pages":        pages,
		"elapsed_time": o.cfg.Clock.Now().Sub(startedAt).String(),
	})

	if ctx.Err() != nil {
		logger.Warn("site job cancelled")
		o.markFailed(site, StoppedByUser, logger)

		return ErrCancelled
	}

	logger.Info("site job completed")
	o.markIndexed(site, logger)

	return nil
}

// crawlPage fetches and indexes a single page and enqueues the same-site
// links it references. Failures are recorded on the site and reported by a
// false return value.
func (o *Orchestrator) crawlPage(
	ctx, detached context.Context, site *store.Site, pageURL string, f *frontier, logger *logrus.Entry,
) bool {

	logger = logger.WithField("url", pageURL)

	doc, err := o.cfg.Fetcher.Fetch(detached, pageURL)
	if err != nil {
		logger.WithField("err", err).Warn("unable to fetch page")
		o.recordError(site, fmt.Sprintf("fetch %s: %v", pageURL, err), logger)

		return false
	}

	path := urlnorm.ExtractPath(pageURL, site.URL)

	if _, err := o.cfg.Indexer.IndexPage(detached, site, path, doc.StatusCode, doc.Text); err != nil {
		logger.WithField("err", err).Error("unable to index page")
		o.recordError(site, fmt.Sprintf("index %s: %v", pageURL, err), logger)

		return false
	}

	for _, link := range doc.Links {
		if ctx.Err() != nil {
			break
		}

		canonical := urlnorm.Normalize(link)
		if urlnorm.HasSitePrefix(canonical, site.URL) {
			f.push(canonical)
		}
	}

	logger.WithField("queued", f.len()).Debug("indexed page")

	return true
}

func (o *Orchestrator) recordError(site *store.Site, msg string, logger *logrus.Entry) {
	site.LastError = msg
	site.StatusTime = o.cfg.Clock.Now()

	if err := o.cfg.Store.SaveSite(site); err != nil {
		logger.WithField("err", err).Warn("unable to record site error")
	}
}

func (o *Orchestrator) markFailed(site *store.Site, msg string, logger *logrus.Entry) {
	site.Status = store.StatusFailed
	site.StatusTime = o.cfg.Clock.Now()
	site.LastError = msg

	if err := o.cfg.Store.SaveSite(site); err != nil {
		logger.WithField("err", err).Warn("unable to mark site as failed")
	}
}

func (o *Orchestrator) markIndexed(site *store.Site, logger *logrus.Entry) {
	site.Status = store.StatusIndexed
	site.StatusTime = o.cfg.Clock.Now()
	site.LastError = ""

	if err := o.cfg.Store.SaveSite(site); err != nil {
		logger.WithField("err", err).Warn("unable to mark site as indexed")
	}
}
