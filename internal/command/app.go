// Package command implements the rendr command line.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/nagiek/rendr"
	"github.com/nagiek/rendr/config"
	"github.com/nagiek/rendr/remote"
	"github.com/nagiek/rendr/remote/rest"
)

// RemoteFactory builds the remote a command fetches from.
type RemoteFactory func(cfg *config.Config, logger log.Interface) (remote.Remote, error)

// Env is what the commands need from the outside world.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Interface

	// NewRemote defaults to the REST remote described by the config file.
	NewRemote RemoteFactory
}

// RESTRemote builds the REST remote from cfg.
func RESTRemote(cfg *config.Config, logger log.Interface) (remote.Remote, error) {
	if err := cfg.ValidateRemote(); err != nil {
		return nil, err
	}
	return rest.New(cfg.RESTConfig(logger))
}

// InitApp builds the root command.
func InitApp(env Env) *cli.Command {
	if env.Stdin == nil {
		env.Stdin = os.Stdin
	}
	if env.Stdout == nil {
		env.Stdout = os.Stdout
	}
	if env.Stderr == nil {
		env.Stderr = os.Stderr
	}
	if env.Logger == nil {
		env.Logger = log.Log
	}
	if env.NewRemote == nil {
		env.NewRemote = RESTRemote
	}

	return &cli.Command{
		Name:      "rendr",
		Usage:     "fetch entities and collections through rendr's caches",
		Reader:    env.Stdin,
		Writer:    env.Stdout,
		ErrWriter: env.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (default: $" + config.EnvConfigPath + ", ./" + config.ConfigFileName + ")",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "print OpenTelemetry spans to stderr",
			},
		},
		Commands: []*cli.Command{
			fetchCommand(env),
			hydrateCommand(env),
			serveCommand(env),
		},
	}
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	if path := cmd.String("config"); path != "" {
		return config.LoadFromPath(path)
	}
	cfg, path, err := config.Load()
	if err == nil && path != "" {
		log.WithField("path", path).Debug("loaded config")
	}
	return cfg, err
}

// newClient builds a Client over the configured remote, with a stdout tracer
// when --trace is set. The returned func closes both.
func newClient(ctx context.Context, cmd *cli.Command, env Env, cfg *config.Config, reg prometheus.Registerer, extra ...rendr.Option) (*rendr.Client, func(), error) {
	r, err := env.NewRemote(cfg, env.Logger)
	if err != nil {
		return nil, nil, err
	}

	opts := cfg.Options(env.Logger, reg)
	var tp *sdktrace.TracerProvider
	if cmd.Bool("trace") {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(env.Stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, nil, fmt.Errorf("creating trace exporter: %w", err)
		}
		tp = sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
		otel.SetTracerProvider(tp)
		opts = append(opts, rendr.WithOpenTelemetry(tp))
	}

	c, err := rendr.New(r, append(opts, extra...)...)
	if err != nil {
		return nil, nil, err
	}
	return c, func() {
		if err := c.Close(); err != nil {
			env.Logger.WithError(err).Warn("closing client")
		}
		if tp != nil {
			_ = tp.Shutdown(context.WithoutCancel(ctx))
		}
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
