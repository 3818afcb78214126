package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/nagiek/rendr/fetcher"
	"github.com/nagiek/rendr/model"
)

func fetchCommand(env Env) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "fetch specs and print them as a bootstrap payload",
		UsageText: "rendr fetch [options] SPEC...\n\nSPEC is [name=]model:Type[/id][?k=v&k=v1,v2] or [name=]collection:Type[@ParentType/parentID/key][?k=v]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "skip the cache lookup and always go to the remote",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "mark every spec as force-fetch",
			},
			&cli.StringSliceFlag{
				Name:  "ensure",
				Usage: "attributes every result must carry",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return fmt.Errorf("fetch: at least one SPEC is required")
			}
			specs := make(map[string]model.Spec, cmd.Args().Len())
			for _, arg := range cmd.Args().Slice() {
				name, s, err := ParseSpec(arg)
				if err != nil {
					return err
				}
				if _, dup := specs[name]; dup {
					return fmt.Errorf("fetch: duplicate name %q", name)
				}
				req := s.Requirements()
				req.ForceFetch = cmd.Bool("force")
				req.EnsureKeys = cmd.StringSlice("ensure")
				specs[name] = s
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			c, closeFn, err := newClient(ctx, cmd, env, cfg, nil)
			if err != nil {
				return err
			}
			defer closeFn()

			var opts []fetcher.FetchOption
			if cmd.Bool("no-cache") {
				opts = append(opts, fetcher.ReadFromCache(false))
			}
			res, err := c.Fetch(ctx, specs, opts...)
			if err != nil {
				return err
			}
			payload, err := fetcher.BootstrapPayload(res)
			if err != nil {
				return err
			}
			return writeJSON(cmd.Root().Writer, payload)
		},
	}
}
