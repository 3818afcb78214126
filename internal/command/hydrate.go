package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/nagiek/rendr/config"
	"github.com/nagiek/rendr/fetcher"
	"github.com/nagiek/rendr/model"
	"github.com/nagiek/rendr/remote"
)

// offline answers every spec with a 404; hydrate must never reach it.
func offline(*config.Config, log.Interface) (remote.Remote, error) {
	return remote.Funcs{}, nil
}

// hydrateCommand reads a fetch payload, bootstraps a client from it and
// hydrates the summaries without any remote call.
func hydrateCommand(env Env) *cli.Command {
	return &cli.Command{
		Name:  "hydrate",
		Usage: "bootstrap a payload from stdin and print the hydrated summaries",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var payload map[string]fetcher.Bootstrap
			if err := json.NewDecoder(cmd.Root().Reader).Decode(&payload); err != nil {
				return fmt.Errorf("hydrate: reading payload: %w", err)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			env.NewRemote = offline
			c, closeFn, err := newClient(ctx, cmd, env, cfg, nil)
			if err != nil {
				return err
			}
			defer closeFn()

			if _, err := c.BootstrapData(ctx, payload); err != nil {
				return err
			}
			summaries := make(map[string]model.Summary, len(payload))
			for name, b := range payload {
				summaries[name] = b.Summary
			}
			res, err := c.Hydrate(ctx, summaries)
			if err != nil {
				return err
			}

			// Entities absent from the payload print as null.
			out := make(map[string]*model.Summary, len(res))
			for name, r := range res {
				if r == nil {
					out[name] = nil
					continue
				}
				sum := c.Summarize(r)
				out[name] = &sum
			}
			return writeJSON(cmd.Root().Writer, out)
		},
	}
}
