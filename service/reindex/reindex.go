/*
	reindex package implements a service that periodically starts an
	indexing session and stops the running one when the application shuts
	down.
*/

package reindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/mycok/siteSearch/crawler"
)

//go:generate mockgen -package mocks -destination mocks/mock_reindex.go github.com/mycok/siteSearch/service/reindex SessionController

// SessionController starts and stops indexing sessions.
type SessionController interface {
	// Start launches a new indexing session.
	Start() error

	// Stop cancels the active indexing session, if any.
	Stop() error
}

// Config encapsulates the settings for configuring the re-index service.
type Config struct {
	// The controller of indexing sessions.
	Sessions SessionController

	// A clock instance for generating time-related events. If not specified,
	// the default wall-clock will be used instead.
	Clock clock.Clock

	// The time between subsequent indexing passes. A zero interval disables
	// periodic passes; the service then only stops the active session on
	// shutdown.
	Interval time.Duration

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error

	if cfg.Sessions == nil {
		err = multierror.Append(err, fmt.Errorf("session controller has not been provided"))
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}

	if cfg.Interval < 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for re-index interval"))
	}

	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// Service periodically triggers indexing sessions. It satisfies the
// service.Service interface.
type Service struct {
	cfg Config
}

// New creates and returns a fully configured re-index service instance.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("reindex service: config validation failed: %w", err)
	}

	return &Service{cfg: cfg}, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "reindex" }

// Run executes the service and blocks until the context gets cancelled.
func (svc *Service) Run(ctx context.Context) error {
	svc.cfg.Logger.WithField("interval", svc.cfg.Interval.String()).Info("starting service")
	defer svc.cfg.Logger.Info("stopped service")

	var tick <-chan time.Time

	for {
		if svc.cfg.Interval > 0 {
			tick = svc.cfg.Clock.After(svc.cfg.Interval)
		}

		select {
		case <-ctx.Done():
			return svc.cfg.Sessions.Stop()
		case <-tick:
			svc.startSession()
		}
	}
}

func (svc *Service) startSession() {
	err := svc.cfg.Sessions.Start()
	switch {
	case err == nil:
		svc.cfg.Logger.Info("started periodic indexing session")
	case errors.Is(err, crawler.ErrAlreadyRunning):
		svc.cfg.Logger.Debug("skipping periodic indexing pass: a session is already running")
	default:
		svc.cfg.Logger.WithField("err", err).Warn("unable to start periodic indexing session")
	}
}
