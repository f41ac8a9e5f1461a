package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/PabloGalante/persona-relay/internal/config"
	"github.com/PabloGalante/persona-relay/internal/observability"
)

type Error struct {
	Code    int
	Message string
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func Run(ctx context.Context, argv []string) *Error {
	if err := newApp(os.Stdout).Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}
	return nil
}

func newApp(w io.Writer) *cli.Command {
	g := &globalFlags{}

	serve := serveCommand(g)
	return &cli.Command{
		Name:   "relay",
		Usage:  "Persona chat relay in front of a local Ollama server",
		Writer: w,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to YAML config file (default ./relay.yaml if present)",
				Sources:     cli.EnvVars("RELAY_CONFIG"),
				Destination: &g.configPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level: debug, info, warn, error",
				Destination: &g.logLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "Log format: json or console",
				Destination: &g.logFormat,
			},
		},
		Commands: []*cli.Command{
			serve,
			searchCommand(g),
			modelsCommand(g),
			configCommand(g),
		},
		Action: serve.Action,
	}
}

// load reads the configuration and installs the process logger.
func (g *globalFlags) load() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}

	observability.SetLogger(observability.New(cfg.Log.Level, cfg.Log.Format, os.Stderr))
	return cfg, nil
}
