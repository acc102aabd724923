package crawler

import (
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/mycok/siteSearch/config"
	"github.com/mycok/siteSearch/store"
)

const (
	defaultNumOfWorkers    = 4
	defaultStopGracePeriod = 5 * time.Second
)

// Config encapsulates the settings for configuring the crawl orchestrator.
type Config struct {
	// The configured sites. Only urls under one of these sites are crawled.
	Sites []config.Site

	// The store that receives site rows.
	Store store.Store

	// The fetcher used to retrieve pages.
	Fetcher Fetcher

	// The indexer that stores fetched pages and their lemmas.
	Indexer PageIndexer

	// A clock instance for generating time-related events. If not specified,
	// the default wall-clock will be used instead.
	Clock clock.Clock

	// The number of sites crawled concurrently. Defaults to 4.
	NumOfWorkers int

	// The maximum time Stop waits for running jobs to exit before it
	// sweeps the site statuses anyway. Defaults to 5 seconds.
	StopGracePeriod time.Duration

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error

	if cfg.Store == nil {
		err = multierror.Append(err, fmt.Errorf("store has not been provided"))
	}

	if cfg.Fetcher == nil {
		err = multierror.Append(err, fmt.Errorf("fetcher has not been provided"))
	}

	if cfg.Indexer == nil {
		err = multierror.Append(err, fmt.Errorf("indexer has not been provided"))
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}

	if cfg.NumOfWorkers == 0 {
		cfg.NumOfWorkers = defaultNumOfWorkers
	} else if cfg.NumOfWorkers < 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for number of workers, must be > 0"))
	}

	if cfg.StopGracePeriod == 0 {
		cfg.StopGracePeriod = defaultStopGracePeriod
	} else if cfg.StopGracePeriod < 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for stop grace period"))
	}

	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
