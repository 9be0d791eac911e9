package commands

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/buildmcp/buildmcp/internal/cli/ui"
	"github.com/buildmcp/buildmcp/internal/web/api"
	"github.com/buildmcp/buildmcp/internal/web/ratelimit"
	"github.com/buildmcp/buildmcp/internal/web/server"
)

// pruneInterval is how often idle in-memory rate limit buckets are dropped.
const pruneInterval = time.Minute

func newServeCommand(a *app) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generation API over HTTP and WebSocket",
		Long: `Serve the HTTP API:

  POST /api/v1/generate          generate a package
  POST /api/v1/generate/events   generate with stage events over SSE
  GET  /api/v1/generate/stream   WebSocket with stage events
  POST /api/v1/validate          validate server source
  GET  /api/v1/rules             list the rule catalog
  GET  /api/v1/packages/{id}     fetch a stored package

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if f.Changed("host") {
				a.cfg.Server.Host = host
			}
			if f.Changed("port") {
				a.cfg.Server.Port = port
			}

			ctx := cmd.Context()
			svc, err := a.buildServices(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			handler, buckets, err := newAPIHandler(a, svc)
			if err != nil {
				return err
			}

			srvCfg := server.DefaultConfig()
			srvCfg.Address = a.cfg.ListenAddr()
			srvCfg.ShutdownTimeout = a.cfg.Server.ShutdownTimeout
			srv, err := server.New(srvCfg, handler, a.logger.Named("http"))
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Run(gctx)
			})
			if buckets != nil {
				g.Go(func() error {
					buckets.Run(gctx, pruneInterval)
					return nil
				})
			}
			g.Go(func() error {
				select {
				case <-srv.Ready():
					ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Listening on http://%s", srv.Addr()), a.noColor)
				case <-gctx.Done():
				}
				return nil
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

// newAPIHandler builds the API routes. When rate limiting uses the
// in-memory limiter it is returned so the caller can prune it.
func newAPIHandler(a *app, svc *services) (http.Handler, *ratelimit.TokenBucket, error) {
	opts := []api.Option{
		api.WithLogger(a.logger.Named("api")),
		api.WithVersion(Version),
	}
	if svc.Store != nil {
		opts = append(opts, api.WithPackages(svc.Store))
	}

	var buckets *ratelimit.TokenBucket
	if a.cfg.Server.RateLimit > 0 {
		rl := ratelimit.Config{Limit: a.cfg.Server.RateLimit, Window: a.cfg.Server.RateWindow}
		if svc.Redis != nil {
			limiter, err := ratelimit.NewRedisRateLimiter(svc.Redis, rl)
			if err != nil {
				return nil, nil, err
			}
			opts = append(opts, api.WithRateLimiter(limiter))
		} else {
			tb, err := ratelimit.NewTokenBucket(rl)
			if err != nil {
				return nil, nil, err
			}
			buckets = tb
			opts = append(opts, api.WithRateLimiter(tb))
		}
		a.logger.Debug("rate limiting generation endpoints",
			zap.Int("limit", rl.Limit),
			zap.Duration("window", rl.Window),
			zap.Bool("shared", svc.Redis != nil),
		)
	}

	return api.NewHandler(svc.Pipeline, svc.Pipeline.Validator(), opts...).Routes(), buckets, nil
}
