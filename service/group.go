/*
	service package runs the long-lived components of the search engine
	side by side until the first of them fails or the context is cancelled.
*/

package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Service describes a long-running component of the search engine.
type Service interface {
	// Name returns the name of the service.
	Name() string

	// Run executes the service and blocks until the context gets cancelled
	// or an error occurs.
	Run(context.Context) error
}

// Group is a list of Service instances that execute in parallel.
type Group struct {
	Services []Service

	// The logger that reports the lifecycle of every service. If not
	// defined an output-discarding logger will be used instead.
	Logger *logrus.Entry
}

// Execute runs every service in the group with a shared context derived
// from ctx. The first service error or panic cancels the shared context.
// Execute blocks until every service returns and reports their accumulated
// errors.
func (g Group) Execute(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if len(g.Services) == 0 {
		return nil
	}

	logger := g.Logger
	if logger == nil {
		logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	executionCtx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	var wg sync.WaitGroup
	wg.Add(len(g.Services))
	errCh := make(chan error, len(g.Services))

	for _, s := range g.Services {
		go func(s Service) {
			defer wg.Done()

			svcLogger := logger.WithField("service", s.Name())
			svcLogger.Info("starting service")
			startedAt := time.Now()

			if err := run(executionCtx, s); err != nil {
				svcLogger.WithFields(logrus.Fields{
					"err":          err,
					"elapsed_time": time.Since(startedAt).String(),
				}).Error("service exited with error")

				errCh <- fmt.Errorf("%s: %w", s.Name(), err)
				cancelFn()

				return
			}

			svcLogger.WithField("elapsed_time", time.Since(startedAt).String()).Info("service stopped")
		}(s)
	}

	<-executionCtx.Done()
	wg.Wait()
	close(errCh)

	var err error
	for srvErr := range errCh {
		err = multierror.Append(err, srvErr)
	}

	return err
}

// run executes s and reports a panic as an error.
func run(ctx context.Context, s Service) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return s.Run(ctx)
}
