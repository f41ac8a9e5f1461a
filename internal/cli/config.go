package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func configCommand(g *globalFlags) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration as YAML",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(c.Root().Writer)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return goerr.Wrap(err, "failed to encode config")
			}
			return enc.Close()
		},
	}
}
