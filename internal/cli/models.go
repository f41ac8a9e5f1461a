package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func modelsCommand(g *globalFlags) *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "List models available on the inference server",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			client, err := newInferenceClient(ctx, cfg.Inference)
			if err != nil {
				return err
			}

			models, err := client.ListModels(ctx)
			if err != nil {
				return err
			}
			for _, m := range models {
				if _, err := fmt.Fprintln(c.Root().Writer, m); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
