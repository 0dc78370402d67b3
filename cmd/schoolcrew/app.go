package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/schoolcrew/internal/config"
	"github.com/nao1215/schoolcrew/internal/crew"
	"github.com/nao1215/schoolcrew/internal/database"
	"github.com/nao1215/schoolcrew/internal/llm"
	"github.com/nao1215/schoolcrew/internal/log"
	"github.com/nao1215/schoolcrew/internal/model"
	"github.com/nao1215/schoolcrew/internal/netclient"
	"github.com/nao1215/schoolcrew/internal/tools"
)

// Crew names in the built-in definitions.
const (
	schoolCrewName = "school"
	githubCrewName = "github"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config path from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// buildConfig creates a Config from defaults, the configuration file,
// the environment and the command's flags, in increasing precedence.
// getenv is os.Getenv outside of tests.
func buildConfig(cmd *cobra.Command, getenv func(string) string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	// If the user explicitly specified a config file path, error if not found.
	// If no path is specified, silently use defaults when no file is found.
	explicitPath := getConfigFlag(cmd)
	configPath := config.FindConfigFile(explicitPath)
	switch {
	case configPath != "":
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := cfg.Apply(f); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
		cfg.ConfigFilePath = configPath
	case explicitPath != "":
		return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
	}

	cfg.ApplyEnv(getenv)

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies every flag the user set into cfg.
// Commands only define the flags they need; absent flags are skipped.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	fs := cmd.Flags()
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}

	var err error
	if changed("provider") {
		if cfg.Provider, err = fs.GetString("provider"); err != nil {
			return err
		}
	}
	if changed("model") {
		if cfg.Model, err = fs.GetString("model"); err != nil {
			return err
		}
	}
	if changed("timeout") {
		if cfg.Timeout, err = fs.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if changed("proxy") {
		if cfg.ProxyAddress, err = fs.GetString("proxy"); err != nil {
			return err
		}
	}
	if changed("batch") {
		if cfg.BatchSize, err = fs.GetInt("batch"); err != nil {
			return err
		}
	}
	if changed("crew-file") {
		if cfg.CrewFile, err = fs.GetString("crew-file"); err != nil {
			return err
		}
	}
	if changed("listen") {
		if cfg.ListenAddress, err = fs.GetString("listen"); err != nil {
			return err
		}
	}
	if changed("report-dir") {
		if cfg.ReportDir, err = fs.GetString("report-dir"); err != nil {
			return err
		}
	}
	if changed("no-history") {
		noHistory, err := fs.GetBool("no-history")
		if err != nil {
			return err
		}
		cfg.SaveHistory = !noHistory
	}
	if changed("json") {
		if cfg.JSONOutput, err = fs.GetBool("json"); err != nil {
			return err
		}
	}
	if changed("markdown") {
		if cfg.MarkdownOutput, err = fs.GetBool("markdown"); err != nil {
			return err
		}
	}
	if changed("output") {
		if cfg.OutputFile, err = fs.GetString("output"); err != nil {
			return err
		}
	}
	return nil
}

// addCrewFlags registers the flags shared by commands that run a crew.
func addCrewFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", config.DefaultProvider, "LLM provider (gemini or openai)")
	cmd.Flags().String("model", "", "LLM model name (default: provider default)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each LLM call and tool request")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy for outbound requests (host:port)")
	cmd.Flags().String("crew-file", "", "YAML file with custom crew definitions")
	cmd.Flags().Bool("no-history", false, "Do not save this run to the search history")
}

// setupLogger creates the masking structured logger and makes it the default.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	logger := log.NewSecureLogger(w, verbose)
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// newHTTPClient returns the outbound client shared by the LLM and the tools.
// A configured proxy must answer a SOCKS5 handshake.
func newHTTPClient(ctx context.Context, cfg *config.Config) (*http.Client, error) {
	opts := []netclient.Option{
		netclient.WithTimeout(cfg.Timeout),
		netclient.WithUserAgent(cfg.UserAgent),
	}
	if cfg.ProxyAddress != "" {
		if err := netclient.CheckProxy(ctx, cfg.ProxyAddress); err != nil {
			return nil, err
		}
		opts = append(opts, netclient.WithProxy(cfg.ProxyAddress))
	}
	return netclient.New(opts...)
}

// newToolRegistry registers every tool a crew definition may reference.
func newToolRegistry(cfg *config.Config, client *http.Client, location *tools.Location) tools.Registry {
	return tools.NewRegistry(
		location,
		tools.NewWebSearch(client, cfg.SerperAPIKey, ""),
		tools.NewGitHubProfile(client, cfg.GitHubToken),
		tools.NewSchoolWebsite(client),
	)
}

// crewBuilder holds what is shared between crews of one definition.
// The API server builds a fresh crew per request from it.
type crewBuilder struct {
	def      *crew.Definition
	client   llm.Client
	registry tools.Registry
	prepare  crew.PrepareFunc
	logger   *slog.Logger
}

// newCrewBuilder resolves the named crew and creates its LLM client.
func newCrewBuilder(ctx context.Context, cfg *config.Config, name string, logger *slog.Logger) (*crewBuilder, error) {
	defs, err := crew.Resolve(cfg.CrewFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load crew definitions: %w", err)
	}
	def, err := defs.Get(name)
	if err != nil {
		return nil, err
	}

	httpClient, err := newHTTPClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	client, err := llm.New(ctx, cfg, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	logger.Debug("crew configured",
		"crew", name,
		"provider", cfg.Provider,
		"model", client.Model(),
		"proxy", cfg.ProxyAddress != "",
	)

	location := tools.NewLocation(httpClient, tools.WithLocationTimeout(cfg.LocationTimeout))
	return &crewBuilder{
		def:      def,
		client:   client,
		registry: newToolRegistry(cfg, httpClient, location),
		prepare:  location.ResolveInputs,
		logger:   logger,
	}, nil
}

// Build creates a crew.
func (b *crewBuilder) Build() (*crew.Crew, error) {
	return crew.New(b.def, b.client, b.registry, crew.WithLogger(b.logger), crew.WithPrepare(b.prepare))
}

// Kicker adapts Build to the API server's crew factory.
func (b *crewBuilder) Kicker() (crew.Kicker, error) {
	c, err := b.Build()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// openHistory opens the history database when saving is enabled.
// It returns nil without error when history is disabled.
func openHistory(cfg *config.Config, logger *slog.Logger) (*database.HistoryDB, error) {
	if !cfg.SaveHistory {
		return nil, nil
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Info("database opened", "dir", cfg.DBDir)
	return db, nil
}

// saveRecord stores a run in the history. A nil db is a no-op and failures
// are logged only.
func saveRecord(ctx context.Context, db *database.HistoryDB, rec *model.SearchRecord, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Save(ctx, rec); err != nil {
		logger.Error("failed to save search history", "run_id", rec.RunID, "error", err)
		return
	}
	logger.Info("search saved to history", "run_id", rec.RunID, "kind", rec.Kind)
}

// openOutput returns the command's stdout, or the file named by path.
// Parent directories are created. The returned close func is never nil.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	if err := ensureParentDir(path); err != nil {
		return nil, nil, err
	}
	// Reports may contain personal data; keep them owner-readable only.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// errKeysMissing is returned after the API key instructions were printed.
var errKeysMissing = errors.New("required API keys are not set")
