package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/schoolcrew/internal/api"
	"github.com/nao1215/schoolcrew/internal/config"
	"github.com/nao1215/schoolcrew/internal/crew"
	"github.com/nao1215/schoolcrew/internal/log"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the school search API over HTTP",
		Long: `Serve starts the School Crew HTTP API.

Endpoints:
  GET  /                            liveness message
  GET  /health                      service health
  POST /search-schools              {"location", "grade", "curriculum"}
  GET  /search-schools/{location}   ?grade=&curriculum=
  GET  /curricula                   supported curricula
  GET  /grades                      supported grades
  GET  /history                     ?limit=&kind= latest stored searches

Each search runs the school crew synchronously. Logs are written as JSON to
stderr. The server shuts down gracefully on SIGINT or SIGTERM.

Examples:
  schoolcrew serve
  schoolcrew serve --listen 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("listen", config.DefaultListenAddress, "Address to listen on")
	addCrewFlags(cmd)
	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, os.Getenv)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	// Missing keys do not stop the server; searches fail with a 500 instead.
	keysErr := cfg.ValidateSearchKeys()
	if keysErr != nil {
		logger.Warn("searches will fail until API keys are set", "error", keysErr)
	}

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runServe(ctx, cfg, keysErr, logger)
}

func runServe(ctx context.Context, cfg *config.Config, keysErr error, logger *slog.Logger) error {
	factory := func() (crew.Kicker, error) { return nil, keysErr }
	if keysErr == nil {
		builder, err := newCrewBuilder(ctx, cfg, schoolCrewName, logger)
		if err != nil {
			return err
		}
		factory = builder.Kicker
	}

	opts := []api.Option{
		api.WithLogger(logger),
		api.WithAddress(cfg.ListenAddress),
	}
	db, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		opts = append(opts, api.WithHistory(db))
	}

	return api.NewServer(factory, opts...).ListenAndServe(ctx)
}
