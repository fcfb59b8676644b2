package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsankey/internal/server"
	"github.com/matzehuels/flowsankey/pkg/cache"
	"github.com/matzehuels/flowsankey/pkg/config"
	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
	"github.com/matzehuels/flowsankey/pkg/metrics"
	"github.com/matzehuels/flowsankey/pkg/pipeline"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	addr      string
	cors      []string
	noMetrics bool
}

// serveCommand creates the HTTP render service command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the stateless HTTP render service",
		Long: `Serve the render pipeline over HTTP. The service keeps no report state:
every request carries its rows and settings.

  POST /v1/render?format=svg|png|json|dot
  POST /v1/balance
  POST /v1/classify
  GET  /healthz
  GET  /metrics`,
		Example: `  flowsankey serve --addr :9090
  curl -s -X POST --data-binary @report.json localhost:9090/v1/render?format=png > report.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = opts.addr
			}
			if cmd.Flags().Changed("cors") {
				cfg.CORSOrigins = opts.cors
			}
			if err := config.ValidateServer(cfg); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg, !opts.noMetrics)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringSliceVar(&opts.cors, "cors", nil, "allowed CORS origins")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "do not serve /metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg config.Server, withMetrics bool) error {
	runner := pipeline.NewRunner(cache.NewMemoryCache(cfg.CacheEntries), cacheKeyer(), c.Logger)
	runner.Images = newFetcher(c.Config.Render.NoCache)
	defer runner.Close()

	opts := []server.Option{
		server.WithVocabulary(c.vocabulary()),
		server.WithLanguage(c.Config.Render.Language),
	}
	if withMetrics {
		reg := metrics.NewRegistry()
		reg.Install()
		opts = append(opts, server.WithMetrics(reg))
	}

	srv := server.New(cfg, runner, c.Logger, opts...)
	if err := srv.ListenAndServe(ctx); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInternal, err, "serve on %s", cfg.Addr)
	}
	printSuccess("Server stopped")
	return nil
}
