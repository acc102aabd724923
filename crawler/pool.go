package crawler

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/mycok/siteSearch/config"
)

// siteJob processes a single configured site.
type siteJob func(ctx context.Context, site config.Site) error

// runPool distributes sites among a fixed number of workers. Every worker
// picks the next site as soon as it is free. Sites not yet handed out when
// ctx is cancelled are skipped. runPool blocks until every worker exits and
// returns the accumulated job errors.
func runPool(ctx context.Context, numOfWorkers int, sites []config.Site, job siteJob) error {
	if numOfWorkers > len(sites) {
		numOfWorkers = len(sites)
	}

	var (
		wg     sync.WaitGroup
		siteCh = make(chan config.Site)
		errCh  = make(chan error, len(sites))
	)

	wg.Add(numOfWorkers)
	for i := 0; i < numOfWorkers; i++ {
		go func() {
			defer wg.Done()

			for site := range siteCh {
				if err := job(ctx, site); err != nil {
					errCh <- err
				}
			}
		}()
	}

feed:
	for _, site := range sites {
		if ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
			break feed
		case siteCh <- site:
		}
	}

	close(siteCh)
	wg.Wait()
	close(errCh)

	var err error
	for jobErr := range errCh {
		err = multierror.Append(err, jobErr)
	}

	return err
}
