package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	httpadapter "github.com/PabloGalante/persona-relay/internal/adapters/http"
	"github.com/PabloGalante/persona-relay/internal/observability"
)

func serveCommand(g *globalFlags) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP relay (default)",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			log := observability.Logger()

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := newInferenceClient(ctx, cfg.Inference)
			if err != nil {
				return err
			}
			lib, err := loadLibrary(ctx, cfg)
			if err != nil {
				return err
			}
			services, err := buildServices(cfg, lib, client)
			if err != nil {
				return err
			}

			handler := httpadapter.NewServer(services,
				httpadapter.WithStatic(cfg.Server.StaticRoute, cfg.Server.StaticDir))

			srv := &http.Server{
				Addr:              ":" + cfg.Server.Port,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("relay listening",
					"addr", srv.Addr,
					"backend", client.Name(),
					"inference_url", client.Endpoint(),
					"model", cfg.Inference.Model,
					"personas", len(services))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "http server failed", goerr.V("addr", srv.Addr))
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout.String())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "graceful shutdown failed")
			}
			return nil
		},
	}
}
