package api

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/siteSearch/search"
	"github.com/mycok/siteSearch/statistics"
)

//go:generate mockgen -package mocks -destination mocks/mock_api.go github.com/mycok/siteSearch/service/api Indexer,Searcher,StatisticsCollector

// Indexer controls indexing sessions and single page indexing.
type Indexer interface {
	Start() error
	Stop() error
	CheckPage(rawURL string) error
	IndexSinglePage(ctx context.Context, rawURL string) error
}

// Searcher executes search queries.
type Searcher interface {
	Search(q search.Query) *search.Response
}

// StatisticsCollector builds statistics reports.
type StatisticsCollector interface {
	Statistics() (*statistics.Report, error)
}

// Config encapsulates the settings for configuring the API service.
type Config struct {
	// The indexing controller.
	Indexer Indexer

	// The search ranker.
	Searcher Searcher

	// The statistics collector.
	Statistics StatisticsCollector

	// The address to listen on for incoming requests.
	ListenAddr string

	// The number of results returned by a search request that does not
	// specify a limit. Defaults to 20.
	DefaultLimit int

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error

	if cfg.Indexer == nil {
		err = multierror.Append(err, fmt.Errorf("indexer has not been provided"))
	}

	if cfg.Searcher == nil {
		err = multierror.Append(err, fmt.Errorf("searcher has not been provided"))
	}

	if cfg.Statistics == nil {
		err = multierror.Append(err, fmt.Errorf("statistics collector has not been provided"))
	}

	if cfg.ListenAddr == "" {
		err = multierror.Append(err, fmt.Errorf("listen address has not been specified"))
	}

	if cfg.DefaultLimit == 0 {
		cfg.DefaultLimit = defaultSearchLimit
	} else if cfg.DefaultLimit < 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for default search limit"))
	}

	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
