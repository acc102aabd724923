/*
	api package exposes indexing control, search and statistics as a JSON
	HTTP API:
		GET  /api/statistics
		GET  /api/startIndexing
		GET  /api/stopIndexing
		POST /api/indexPage      (form value "url")
		GET  /api/search         (query, site, offset, limit)
*/

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/mycok/siteSearch/crawler"
	"github.com/mycok/siteSearch/search"
)

const (
	statisticsEndpoint    = "/api/statistics"
	startIndexingEndpoint = "/api/startIndexing"
	stopIndexingEndpoint  = "/api/stopIndexing"
	indexPageEndpoint     = "/api/indexPage"
	searchEndpoint        = "/api/search"

	defaultSearchLimit = 20
)

var (
	errEmptyQuery     = errors.New("empty search query")
	errMissingURL     = errors.New("page url has not been specified")
	errInvalidOffset  = errors.New("invalid offset")
	errInvalidLimit   = errors.New("invalid limit")
	errInternalServer = errors.New("internal server error")
)

type commandResponse struct {
	Result bool   `json:"result"`
	Error  string `json:"error,omitempty"`
}

type statisticsResponse struct {
	Result     bool        `json:"result"`
	Statistics interface{} `json:"statistics"`
}

type searchResponse struct {
	Result bool          `json:"result"`
	Count  int           `json:"count"`
	Data   []search.Item `json:"data"`
}

// Service represents the HTTP API of the search engine. It satisfies the
// service.Service interface.
type Service struct {
	cfg    Config
	router *chi.Mux

	// Background page indexing runs under this context and is cancelled
	// when Run returns.
	bgCtx    context.Context
	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New creates and returns a fully configured API service instance.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("api service: config validation failed: %w", err)
	}

	svc := &Service{
		cfg:    cfg,
		router: chi.NewRouter(),
	}
	svc.bgCtx, svc.bgCancel = context.WithCancel(context.Background())

	svc.router.Get(statisticsEndpoint, svc.statistics)
	svc.router.Get(startIndexingEndpoint, svc.startIndexing)
	svc.router.Get(stopIndexingEndpoint, svc.stopIndexing)
	svc.router.Post(indexPageEndpoint, svc.indexPage)
	svc.router.Get(searchEndpoint, svc.search)

	svc.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, commandResponse{Error: "not found"})
	})

	return svc, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "api" }

// Run executes the service and blocks until the context gets cancelled
// or an error occurs.
func (svc *Service) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", svc.cfg.ListenAddr)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	srv := &http.Server{
		Addr:    svc.cfg.ListenAddr,
		Handler: svc.router,
	}

	go func() {
		<-ctx.Done()

		_ = srv.Close()
	}()

	svc.cfg.Logger.WithField("addr", svc.cfg.ListenAddr).Info("started service")

	if err = srv.Serve(l); errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	svc.bgCancel()
	svc.bgWG.Wait()

	return err
}

// ServeHTTP dispatches requests to the API router.
func (svc *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	svc.router.ServeHTTP(w, r)
}

func (svc *Service) statistics(w http.ResponseWriter, _ *http.Request) {
	report, err := svc.cfg.Statistics.Statistics()
	if err != nil {
		svc.cfg.Logger.WithField("err", err).Error("unable to collect statistics")
		writeJSON(w, http.StatusInternalServerError, commandResponse{Error: errInternalServer.Error()})

		return
	}

	writeJSON(w, http.StatusOK, statisticsResponse{Result: true, Statistics: report})
}

func (svc *Service) startIndexing(w http.ResponseWriter, _ *http.Request) {
	if err := svc.cfg.Indexer.Start(); err != nil {
		writeCommandError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, commandResponse{Result: true})
}

// stopIndexing succeeds whether or not a session is running.
func (svc *Service) stopIndexing(w http.ResponseWriter, _ *http.Request) {
	if err := svc.cfg.Indexer.Stop(); err != nil {
		svc.cfg.Logger.WithField("err", err).Error("unable to stop indexing")
		writeJSON(w, http.StatusInternalServerError, commandResponse{Error: errInternalServer.Error()})

		return
	}

	writeJSON(w, http.StatusOK, commandResponse{Result: true})
}

func (svc *Service) indexPage(w http.ResponseWriter, r *http.Request) {
	pageURL := strings.TrimSpace(r.FormValue("url"))
	if pageURL == "" {
		writeCommandError(w, errMissingURL)

		return
	}

	if err := svc.cfg.Indexer.CheckPage(pageURL); err != nil {
		writeCommandError(w, err)

		return
	}

	svc.bgWG.Add(1)
	go func() {
		defer svc.bgWG.Done()

		logger := svc.cfg.Logger.WithField("url", pageURL)
		if err := svc.cfg.Indexer.IndexSinglePage(svc.bgCtx, pageURL); err != nil {
			logger.WithField("err", err).Warn("single page indexing failed")

			return
		}

		logger.Info("single page indexing completed")
	}()

	writeJSON(w, http.StatusOK, commandResponse{Result: true})
}

func (svc *Service) search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	query := strings.TrimSpace(params.Get("query"))
	if query == "" {
		writeCommandError(w, errEmptyQuery)

		return
	}

	offset, err := intParam(params.Get("offset"), 0)
	if err != nil || offset < 0 {
		writeCommandError(w, errInvalidOffset)

		return
	}

	limit, err := intParam(params.Get("limit"), svc.cfg.DefaultLimit)
	if err != nil || limit < 1 {
		writeCommandError(w, errInvalidLimit)

		return
	}

	res := svc.cfg.Searcher.Search(search.Query{
		Text:   query,
		Site:   strings.TrimSpace(params.Get("site")),
		Offset: offset,
		Limit:  limit,
	})

	svc.cfg.Logger.WithFields(logrus.Fields{
		"query": query,
		"count": res.Count,
	}).Debug("served search request")

	writeJSON(w, http.StatusOK, searchResponse{Result: true, Count: res.Count, Data: res.Items})
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}

	return strconv.Atoi(raw)
}

// writeCommandError reports a rejected command. A start rejected by a running
// session is a conflict, the rest are bad requests.
func writeCommandError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, crawler.ErrAlreadyRunning) {
		status = http.StatusConflict
	}

	writeJSON(w, status, commandResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
