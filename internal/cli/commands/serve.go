package commands

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/cptcheck/internal/engine"
	"github.com/leapstack-labs/cptcheck/internal/notifier"
	"github.com/leapstack-labs/cptcheck/internal/server"
	"github.com/leapstack-labs/cptcheck/internal/state"
	"github.com/leapstack-labs/cptcheck/internal/watch"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	WatchDirs []string // Directories to watch and stream as events
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP validation service",
		Long: `Serve document validation over HTTP.

Endpoints:
  POST /v1/validate      validate the XML request body (?name=, ?record=)
  GET  /v1/rules         list enabled rules
  GET  /v1/rules/{id}    show one rule
  GET  /v1/runs          list recorded runs (with --record)
  GET  /v1/runs/{id}     show a recorded run (with --record)
  GET  /v1/events        stream re-validation events (with --watch-dir)
  GET  /healthz          liveness
  GET  /metrics          Prometheus metrics`,
		Example: `  # Serve on the default address
  cptcheck serve

  # Listen on all interfaces and record every validation
  cptcheck serve --addr :8080 --record

  # Also re-validate a directory and stream the results
  cptcheck serve --watch-dir ./requests`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from config)")
	cmd.Flags().Int64("max-body-bytes", 0, "Largest accepted document (default from config)")
	cmd.Flags().Bool("record", false, "Record every validation in the history database")
	cmd.Flags().StringSliceVar(&opts.WatchDirs, "watch-dir", nil, "Watch these paths and stream results on /v1/events")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	ctx := cmd.Context()

	eng, err := cmdCtx.Engine()
	if err != nil {
		return err
	}

	var store state.Store
	if cfg.Record {
		s, err := cmdCtx.OpenStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		store = s
	}

	var events *notifier.Notifier
	if len(opts.WatchDirs) > 0 {
		events = notifier.New()
	}

	srv := server.New(server.Config{
		Engine:          eng,
		Store:           store,
		Record:          cfg.Record,
		Notifier:        events,
		Addr:            cfg.Server.Addr,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		ReadTimeout:     cfg.Server.ReadTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          cmdCtx.Logger,
	})

	cmdCtx.Renderer.Muted("Serving on http://" + cfg.Server.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if events != nil {
		w := watch.New(watch.Config{
			Engine:   eng,
			Debounce: cfg.Watch.Debounce,
			Initial:  true,
			Logger:   cmdCtx.Logger,
			OnResults: func(results []*engine.Result) {
				events.Broadcast(notifier.NewEvent(results))
			},
		})
		g.Go(func() error {
			return w.Run(gctx, opts.WatchDirs)
		})
	}
	return g.Wait()
}
