package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/nagiek/rendr"
	"github.com/nagiek/rendr/auth"
	"github.com/nagiek/rendr/fetcher"
	"github.com/nagiek/rendr/rpc"
	"github.com/nagiek/rendr/server"
	"github.com/nagiek/rendr/tracing"
)

// serveCommand hosts the rendr.Remote service in front of a server-mode
// client, so other processes share one set of caches.
func serveCommand(env Env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the gRPC remote in front of a server-mode cache",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "gRPC listen address",
				Value: ":7070",
			},
			&cli.StringFlag{
				Name:  "metrics",
				Usage: "Prometheus listen address; empty disables",
				Value: ":9090",
			},
			&cli.BoolFlag{
				Name:  "require-session",
				Usage: "reject calls without a session token",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			c, closeFn, err := newClient(ctx, cmd, env, cfg, reg, rendr.WithMode(fetcher.ModeServer))
			if err != nil {
				return err
			}
			defer closeFn()

			opts := append(server.DefaultOptions(env.Logger),
				server.WithAuth(auth.SessionToken(cmd.Bool("require-session"))),
				server.WithMetricsGatherer(reg),
			)
			if cmd.Bool("trace") {
				opts = append(opts, server.WithOpenTelemetry(tracing.Config{}))
			}
			// The server answers repeated calls from its caches but never
			// revalidates them.
			srv := server.New(rpc.NewHandler(c.AsRemote(fetcher.ReadFromCache(true), fetcher.WriteToCache(true))), opts...)

			lis, err := net.Listen("tcp", cmd.String("addr"))
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			env.Logger.WithField("addr", lis.Addr().String()).Info("serving rendr.Remote")

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Serve(ctx, lis) })
			if addr := cmd.String("metrics"); addr != "" {
				hs := &http.Server{Addr: addr, Handler: srv.MetricsHandler(), ReadHeaderTimeout: 5 * time.Second}
				g.Go(func() error {
					if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})
				g.Go(func() error {
					<-ctx.Done()
					return hs.Shutdown(context.WithoutCancel(ctx))
				})
			}
			return g.Wait()
		},
	}
}
