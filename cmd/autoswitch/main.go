// Command autoswitch rotates a deck of slides in the terminal using one of
// the built-in switch strategies.
//
// Configuration comes from the environment (AUTOSWITCH_*, LOG_*, OTEL_*).
// Set AUTOSWITCH_METRICS_ADDR to expose prometheus metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/amp-labs/autoswitch/carousel"
	"github.com/amp-labs/autoswitch/internal/config"
	"github.com/amp-labs/autoswitch/internal/shutdown"
	"github.com/amp-labs/autoswitch/logger"
	"github.com/amp-labs/autoswitch/looper"
	"github.com/amp-labs/autoswitch/switcher"
	"github.com/amp-labs/autoswitch/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	subsystem       = "autoswitch"
	teardownTimeout = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logOpts, err := cfg.LoggerOptions(subsystem)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.ConfigureLoggingWithOptions(logOpts)

	handler := shutdown.New()
	ctx := handler.Setup(context.Background())

	if err := run(ctx, cfg, handler, os.Stdout); err != nil {
		slog.Error("autoswitch failed", "error", err)
		os.Exit(1)
	}
}

type hooks interface {
	BeforeShutdown(hook func())
}

// run shows the deck until the sequence ends on its own or ctx is canceled.
func run(ctx context.Context, cfg config.Config, hooks hooks, out io.Writer) error {
	deck, err := LoadDeck(cfg.Deck)
	if err != nil {
		return err
	}

	builder, err := cfg.Builder()
	if err != nil {
		return err
	}

	if err := telemetry.Initialize(ctx, cfg.Telemetry); err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()

		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr)
		defer stop()
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	failed := make(chan error, 1)

	l := looper.New(
		looper.WithName(subsystem),
		looper.WithLogger(logger.Get(logger.WithSubsystem(ctx, "looper"))),
		looper.WithPanicHandler(func(err error) {
			select {
			case failed <- err:
			default:
			}
		}),
	)
	defer l.Close()

	screen := newScreen(out, deck, cfg.Width)
	ended := make(chan struct{})

	opts := []carousel.Option{
		carousel.OnChange(screen.draw),
		carousel.OnStop(sync.OnceFunc(func() { close(ended) })),
		carousel.WithMaxSwitches(cfg.MaxSwitches(len(deck.Slides))),
	}

	car, err := carousel.New(screen.switcherViews(), opts...)
	if err != nil {
		return err
	}

	ctl := builder.Build(
		switcher.WithScheduler(l),
		switcher.WithName(deck.Title),
		switcher.WithObserver(switcher.Observers(
			switcher.NewSlogObserver(logger.Get(logger.WithSubsystem(ctx, "switcher"))),
			switcher.NewMetricsObserver(),
			switcher.NewTracingObserver(nil),
		)),
	)

	stopped := make(chan error, 1)

	go func() { stopped <- l.Run(runCtx) }()

	detach := sync.OnceFunc(func() { detachCarousel(l, car) })
	hooks.BeforeShutdown(detach)

	if err := l.Go(ctx, func() { car.Attach(ctl) }); err != nil {
		return fmt.Errorf("attach: %w", err)
	}

	logger.Get(logger.WithController(ctx, ctl.ID())).Info("Rotating deck",
		"deck", deck.Title,
		"slides", len(deck.Slides),
		"strategy", cfg.Strategy,
		"interval", cfg.Interval)

	select {
	case <-ended:
	case <-ctx.Done():
	case err = <-failed:
	}

	detach()
	cancelRun()

	if runErr := <-stopped; runErr != nil && !errors.Is(runErr, context.Canceled) {
		return errors.Join(err, runErr)
	}

	return err
}

// detachCarousel stops the sequence on the looper, running its stop-step so
// in-flight animations land on their final frame.
func detachCarousel(l *looper.Looper, car *carousel.Carousel) {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	if err := l.Go(ctx, car.Detach); err != nil && !errors.Is(err, looper.ErrLooperClosed) {
		slog.Warn("could not detach carousel", "error", err)
	}
}

// serveMetrics exposes /metrics on addr and returns a function that stops the server.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: teardownTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()

	slog.Info("Serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()

		_ = srv.Shutdown(ctx)
	}
}
