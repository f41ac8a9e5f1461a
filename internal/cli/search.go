package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// searchCommand runs the keyword retrieval offline, the same way the relay
// does when the model has no answer.
func searchCommand(g *globalFlags) *cli.Command {
	var base string

	return &cli.Command{
		Name:      "search",
		Usage:     "Query a knowledge base with keyword retrieval",
		ArgsUsage: "<query...>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "kb",
				Aliases:     []string{"k"},
				Usage:       "Knowledge base name",
				Value:       "saylani",
				Destination: &base,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			query := strings.Join(c.Args().Slice(), " ")

			cfg, err := g.load()
			if err != nil {
				return err
			}
			lib, err := loadLibrary(ctx, cfg)
			if err != nil {
				return err
			}

			b, ok := lib.Get(base)
			if !ok {
				return goerr.New("unknown knowledge base",
					goerr.V("name", base), goerr.V("available", lib.Names()))
			}

			text := b.Corpus.Search(query, searchOptions(cfg.Retrieval))
			if text == "" {
				return goerr.New("knowledge base is empty", goerr.V("name", base))
			}
			_, err = fmt.Fprintln(c.Root().Writer, text)
			return err
		},
	}
}
