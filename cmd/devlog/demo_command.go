package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"devlog/internal/logging"
	"devlog/internal/session"
)

type demoOptions struct {
	verbose     int
	items       int
	delay       time.Duration
	offline     bool
	screen      bool
	metricsAddr string
	linger      time.Duration
}

func newDemoCommand(ctx *commandContext) *cobra.Command {
	opts := demoOptions{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Exercise every logging feature once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("metrics-addr") {
				opts.metricsAddr = cfg.Metrics.ListenAddr
			}
			s, err := ctx.openSession(cmd, "devlog demo")
			if err != nil {
				return err
			}
			defer s.Close()
			return runDemo(cmd.Context(), s, opts)
		},
	}

	cmd.Flags().IntVar(&opts.verbose, "verbose", 1, "Banner verbosity (0-2)")
	cmd.Flags().IntVar(&opts.items, "items", 25, "Items processed by the progress demo")
	cmd.Flags().DurationVar(&opts.delay, "delay", 20*time.Millisecond, "Delay per processed item")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Skip connectivity checks")
	cmd.Flags().BoolVar(&opts.screen, "screen", false, "Take a screenshot with the Screen helper")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the demo runs")
	cmd.Flags().DurationVar(&opts.linger, "linger", 0, "Keep serving metrics this long after the demo finishes")
	return cmd
}

func runDemo(ctx context.Context, s *session.Session, opts demoOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	stopMetrics, err := serveMetrics(s, opts.metricsAddr)
	if err != nil {
		return err
	}
	defer stopMetrics()

	s.Start(ctx, opts.verbose)

	s.Debug("debug details are written to the debug file")
	s.Info("informational message", "items", opts.items)
	s.Success("something went right")
	s.Warn("something looks odd", logging.String(logging.FieldErrorHint, "check the input"))

	err = s.Context(ctx, "Download", func(ctx context.Context) error {
		s.InfoContext(ctx, "fetching manifest")
		return s.Context(ctx, "Extract", func(ctx context.Context) error {
			_, err := s.Time(ctx, "extract", func(ctx context.Context) error {
				return processItems(ctx, s, opts)
			})
			return err
		})
	})
	if err != nil {
		return err
	}

	if err := runWorkers(ctx, s, opts); err != nil {
		return err
	}

	s.Log(ctx, logging.LevelInfo, "plain output\n  keeps its own layout", logging.Plain())
	s.Error("operation failed", logging.Error(logging.WithStack(errors.New("disk quota exceeded"))))
	s.Exception(ctx, errors.New("unexpected response"), "handled exception")
	func() {
		defer s.RecoverPanic(ctx, "recovered demo panic")
		panic("demo panic")
	}()

	if opts.screen {
		s.Screen(ctx, "demo screen")
	}
	if !opts.offline {
		s.CheckConnectivity(ctx)
	}
	s.End(ctx, opts.verbose)

	if opts.linger > 0 && opts.metricsAddr != "" {
		return s.Sleep(ctx, opts.linger, "serving metrics")
	}
	return nil
}

func processItems(ctx context.Context, s *session.Session, opts demoOptions) error {
	items := make([]string, opts.items)
	for i := range items {
		items[i] = fmt.Sprintf("item-%03d", i+1)
	}
	for _, item := range logging.TrackSlice(ctx, s.Router, items, "Processing", logging.WithUnit("files")) {
		if opts.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(opts.delay):
			}
		}
		if strings.HasSuffix(item, "0") {
			s.DebugContext(ctx, "checkpoint", "item", item)
		}
		s.Count("items_processed", 1)
	}
	return nil
}

func runWorkers(ctx context.Context, s *session.Session, opts demoOptions) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range []string{"worker-1", "worker-2"} {
		g.Go(func() error {
			wctx := logging.WithThread(gctx, name)
			return s.Context(wctx, name, func(ctx context.Context) error {
				for step := range 3 {
					s.InfoContext(ctx, fmt.Sprintf("step %d", step+1))
					if opts.delay > 0 {
						time.Sleep(opts.delay)
					}
				}
				return nil
			})
		})
	}
	return g.Wait()
}

func serveMetrics(s *session.Session, addr string) (func(), error) {
	if strings.TrimSpace(addr) == "" {
		return func() {}, nil
	}
	registry := prometheus.NewRegistry()
	if err := registry.Register(s.Metrics()); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Warn("metrics server stopped", logging.Error(err))
		}
	}()
	s.Info("serving metrics", "addr", ln.Addr().String())
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
