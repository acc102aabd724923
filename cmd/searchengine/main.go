package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/mycok/siteSearch/config"
	"github.com/mycok/siteSearch/crawler"
	"github.com/mycok/siteSearch/fetcher"
	"github.com/mycok/siteSearch/fetcher/privnet"
	"github.com/mycok/siteSearch/indexer"
	"github.com/mycok/siteSearch/lemma"
	"github.com/mycok/siteSearch/search"
	"github.com/mycok/siteSearch/service"
	"github.com/mycok/siteSearch/service/api"
	"github.com/mycok/siteSearch/service/reindex"
	"github.com/mycok/siteSearch/statistics"
	"github.com/mycok/siteSearch/store"
	"github.com/mycok/siteSearch/store/memory"
	"github.com/mycok/siteSearch/store/sqlstore"
)

var (
	appName = "site-search"
	appSHA  = "latest-app-git-sha" // Populated by the compiler at the linking stage.
	logger  *logrus.Entry
)

func main() {
	host, _ := os.Hostname()
	rootLogger := logrus.New()
	logger = rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"sha":  appSHA,
		"host": host,
	})

	if err := configureAppEnv(rootLogger).Run(os.Args); err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")
		_ = os.Stderr.Sync()

		os.Exit(1)
	}
}

func configureAppEnv(rootLogger *logrus.Logger) *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Version = appSHA
	app.Usage = "crawl a fixed list of sites and serve ranked full text search over them"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "sites-config",
			Value:   "sites.yaml",
			EnvVars: []string{"SITES_CONFIG"},
			Usage:   "Path to the YAML file listing the sites to crawl",
		},
		&cli.StringFlag{
			Name:    "store-uri",
			Value:   "in-memory://",
			EnvVars: []string{"STORE_URI"},
			Usage: "URI for connecting to the index store." +
				" [supported URI's: in-memory://, postgresql://user@host:26257/search?sslmode=disable, sqlite://path/to/file.db]",
		},
		&cli.StringFlag{
			Name:    "listen-addr",
			Value:   ":8080",
			EnvVars: []string{"LISTEN_ADDR"},
			Usage:   "Address to listen on for API requests",
		},
		&cli.IntFlag{
			Name:    "crawler-num-workers",
			Value:   4,
			EnvVars: []string{"CRAWLER_NUM_WORKERS"},
			Usage:   "Number of sites crawled concurrently",
		},
		&cli.DurationFlag{
			Name:    "stop-grace-period",
			Value:   5 * time.Second,
			EnvVars: []string{"STOP_GRACE_PERIOD"},
			Usage:   "Maximum time to wait for crawl jobs to exit when indexing is stopped",
		},
		&cli.DurationFlag{
			Name:    "fetch-timeout",
			Value:   10 * time.Second,
			EnvVars: []string{"FETCH_TIMEOUT"},
			Usage:   "Timeout of a single page fetch",
		},
		&cli.StringFlag{
			Name:    "user-agent",
			Value:   fetcher.DefaultUserAgent,
			EnvVars: []string{"USER_AGENT"},
			Usage:   "User-Agent header sent by the crawler",
		},
		&cli.StringFlag{
			Name:    "lemmatizer",
			Value:   lemma.English,
			EnvVars: []string{"LEMMATIZER"},
			Usage:   "Lemmatizer used for pages and queries. Supported values are 'english', 'russian', 'japanese' and 'plain'",
		},
		&cli.DurationFlag{
			Name:    "reindex-interval",
			EnvVars: []string{"REINDEX_INTERVAL"},
			Usage:   "Time between periodic indexing sessions. Zero disables periodic indexing",
		},
		&cli.BoolFlag{
			Name:    "block-private-networks",
			EnvVars: []string{"BLOCK_PRIVATE_NETWORKS"},
			Usage:   "Refuse to fetch pages from hosts that resolve to private networks",
		},
		&cli.BoolFlag{
			Name:    "log-json",
			EnvVars: []string{"LOG_JSON"},
			Usage:   "Emit logs as JSON",
		},
	}

	app.Before = func(appCtx *cli.Context) error {
		if appCtx.Bool("log-json") {
			rootLogger.SetFormatter(new(logrus.JSONFormatter))
		}

		return nil
	}
	app.Action = execute

	return app
}

func execute(appCtx *cli.Context) error {
	sites, err := config.LoadFile(appCtx.String("sites-config"))
	if err != nil {
		return err
	}

	st, closeStore, err := getStore(appCtx.String("store-uri"))
	if err != nil {
		return err
	}
	defer closeStore()

	lemmatizer, err := lemma.New(appCtx.String("lemmatizer"))
	if err != nil {
		return err
	}

	svcGroup, err := configureServices(appCtx, sites, st, lemmatizer)
	if err != nil {
		return err
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	// Launch a separate process to listen and respond to os signals
	// and trigger a graceful shutdown.
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGHUP)

		select {
		case s := <-signalChan:
			logger.WithField("signal", s.String()).Info("shutting down due to os signal")
			cancelFn()
		case <-ctx.Done():
		}
	}()

	if err := svcGroup.Execute(ctx); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

func configureServices(
	appCtx *cli.Context, sites []config.Site, st store.Store, lemmatizer lemma.Lemmatizer,
) (service.Group, error) {

	fetcherCfg := fetcher.Config{
		URLGetter: &http.Client{},
		UserAgent: appCtx.String("user-agent"),
		Timeout:   appCtx.Duration("fetch-timeout"),
		Logger:    logger.WithField("component", "fetcher"),
	}

	if appCtx.Bool("block-private-networks") {
		detector, err := privnet.NewDetector()
		if err != nil {
			return service.Group{}, err
		}

		fetcherCfg.NetDetector = detector
	}

	pageFetcher, err := fetcher.New(fetcherCfg)
	if err != nil {
		return service.Group{}, err
	}

	ix, err := indexer.New(indexer.Config{
		Store:      st,
		Lemmatizer: lemmatizer,
		Logger:     logger.WithField("component", "indexer"),
	})
	if err != nil {
		return service.Group{}, err
	}

	orchestrator, err := crawler.New(crawler.Config{
		Sites:           sites,
		Store:           st,
		Fetcher:         pageFetcher,
		Indexer:         ix,
		NumOfWorkers:    workers(appCtx.Int("crawler-num-workers")),
		StopGracePeriod: appCtx.Duration("stop-grace-period"),
		Logger:          logger.WithField("component", "crawler"),
	})
	if err != nil {
		return service.Group{}, err
	}

	ranker, err := search.New(search.Config{
		Store:      st,
		Lemmatizer: lemmatizer,
		Logger:     logger.WithField("component", "search"),
	})
	if err != nil {
		return service.Group{}, err
	}

	collector, err := statistics.New(statistics.Config{
		Store:    st,
		Indexing: orchestrator,
		Sites:    sites,
		Logger:   logger.WithField("component", "statistics"),
	})
	if err != nil {
		return service.Group{}, err
	}

	svcGroup := service.Group{Logger: logger}

	apiSvc, err := api.New(api.Config{
		Indexer:    orchestrator,
		Searcher:   ranker,
		Statistics: collector,
		ListenAddr: appCtx.String("listen-addr"),
		Logger:     logger.WithField("service", "api"),
	})
	if err != nil {
		return service.Group{}, err
	}
	svcGroup.Services = append(svcGroup.Services, apiSvc)

	reindexSvc, err := reindex.New(reindex.Config{
		Sessions: orchestrator,
		Interval: appCtx.Duration("reindex-interval"),
		Logger:   logger.WithField("service", "reindex"),
	})
	if err != nil {
		return service.Group{}, err
	}
	svcGroup.Services = append(svcGroup.Services, reindexSvc)

	return svcGroup, nil
}

func getStore(storeURI string) (store.Store, func(), error) {
	if storeURI == "" {
		return nil, nil, fmt.Errorf("store URI must be specified with --store-uri")
	}

	uri, err := url.Parse(storeURI)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse store URI: %w", err)
	}

	switch uri.Scheme {
	case "in-memory":
		logger.Info("using in-memory store")

		return memory.NewInMemoryStore(), func() {}, nil
	case "postgresql":
		logger.Info("using PostgreSQL store")

		st, err := sqlstore.NewPostgresStore(storeURI)
		if err != nil {
			return nil, nil, err
		}

		return st, closer(st), nil
	case "sqlite":
		path := strings.TrimPrefix(storeURI, "sqlite://")
		logger.WithField("path", path).Info("using SQLite store")

		st, err := sqlstore.NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}

		return st, closer(st), nil
	default:
		return nil, nil, fmt.Errorf("unsupported store URI scheme: %q", uri.Scheme)
	}
}

func closer(st *sqlstore.SQLStore) func() {
	return func() {
		if err := st.Close(); err != nil {
			logger.WithField("err", err).Warn("unable to close store")
		}
	}
}

// workers falls back to the number of CPUs for non-positive values.
func workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}

	return n
}
