// Package app provides application orchestration and component lifecycle
// management for the Bella assistant.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/conversation"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/scheduler"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/speech"
)

// Surface is the interactive front-end consuming the conversation service.
// It runs until its context is cancelled.
type Surface func(ctx context.Context, conv *conversation.Service) error

// App wires the conversation service, the scheduler, and the interactive
// surface together and manages their lifecycle.
type App struct {
	logger    *slog.Logger
	conv      *conversation.Service
	scheduler *scheduler.Scheduler
	speechIn  speech.Input
}

// New creates the application orchestrator. speechIn may be nil when no
// recognition device is attached.
func New(logger *slog.Logger, conv *conversation.Service, sched *scheduler.Scheduler, speechIn speech.Input) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		logger:    logger.With("component", "app"),
		conv:      conv,
		scheduler: sched,
		speechIn:  speechIn,
	}
}

// Run starts the scheduler and the surface, handling graceful shutdown on
// context cancellation. It returns an error if any component fails during
// startup or execution.
func (a *App) Run(ctx context.Context, surface Surface) error {
	a.logger.Info("Starting Bella orchestrator...")

	// A clean surface exit (user quit, stdin closed) must also stop the
	// scheduler goroutine, not just an error.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Starting scheduler...")
		if err := a.scheduler.Start(); err != nil {
			a.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	if a.speechIn != nil {
		g.Go(func() error {
			// Finalized recognition results become user turns, identical to
			// typed input.
			results := a.speechIn.Results()
			for {
				select {
				case <-gCtx.Done():
					return nil
				case result, ok := <-results:
					if !ok {
						return nil
					}
					if result.Final {
						a.conv.SendMessage(gCtx, result.Text)
					}
				}
			}
		})
	}

	g.Go(func() error {
		defer cancel()
		a.logger.Info("Starting interactive surface...")
		if err := surface(gCtx, a.conv); err != nil {
			return fmt.Errorf("surface stopped: %w", err)
		}
		return nil
	})

	a.logger.Info("Bella orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("Orchestrator stopped due to error", "error", err)
		return err
	}

	a.logger.Info("Orchestrator stopped gracefully.")
	return nil
}
