package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/nao1215/schoolcrew/internal/config"
	"github.com/nao1215/schoolcrew/internal/model"
	"github.com/nao1215/schoolcrew/internal/report"
)

// githubUsername matches GitHub's login rules.
var githubUsername = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9]|-[A-Za-z0-9]){0,38}$`)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <github-username>",
		Short: "Analyze a GitHub profile into a hiring report",
		Long: `Analyze runs the GitHub crew: one agent collects the public profile and
repository metrics of a user, a second agent writes a structured report.

The report is saved as github_analysis_report_<username>_<timestamp>.json in
the report directory and its summary is printed. Use "schoolcrew report view"
to render it.

Set GITHUB_TOKEN to raise the GitHub API rate limit.

Examples:
  schoolcrew analyze octocat
  schoolcrew analyze octocat --report-dir reports`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().String("report-dir", ".", "Directory the report is written to")
	addCrewFlags(cmd)
	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	username := args[0]
	if !githubUsername.MatchString(username) {
		return fmt.Errorf("invalid GitHub username: %q", username)
	}

	cfg, err := buildConfig(cmd, os.Getenv)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.ValidateLLMKey(); err != nil {
		return fmt.Errorf("%w: %w", errKeysMissing, err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runAnalyze(ctx, cmd, cfg, username, logger)
}

func runAnalyze(ctx context.Context, cmd *cobra.Command, cfg *config.Config, username string, logger *slog.Logger) error {
	builder, err := newCrewBuilder(ctx, cfg, githubCrewName, logger)
	if err != nil {
		return err
	}
	c, err := builder.Build()
	if err != nil {
		return err
	}

	db, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = fmt.Sprintf(" Analyzing GitHub profile of %s...", username)
	s.Start()
	inputs := map[string]string{"username": username}
	result, err := c.Kickoff(ctx, inputs)
	s.Stop()
	if err != nil {
		printError(cmd.ErrOrStderr(), "Analysis failed")
		return fmt.Errorf("github analysis failed: %w", err)
	}

	saveRecord(ctx, db, &model.SearchRecord{
		RunID:  result.RunID,
		Kind:   model.KindGitHubAnalysis,
		Inputs: inputs,
		Raw:    result.Raw,
	}, logger)

	path := filepath.Join(cfg.ReportDir, reportFileName(username, result.FinishedAt))
	if err := ensureParentDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(result.Raw), 0600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	printSuccess(cmd.ErrOrStderr(), "Report saved to "+path)

	r, err := report.Parse([]byte(result.Raw))
	if err != nil {
		// The file is kept so the output can be inspected with "report view".
		logger.Warn("report is not valid JSON", "path", path, "error", err)
		return nil
	}
	if _, err := report.NewSummaryWriter(cmd.OutOrStdout()).Write(r); err != nil {
		logger.Warn("report has no known layout", "path", path, "error", err)
	}
	return nil
}

// reportFileName returns github_analysis_report_<username>_<yyyymmdd_hhmmss>.json.
func reportFileName(username string, t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return fmt.Sprintf("github_analysis_report_%s_%s.json", username, t.Format("20060102_150405"))
}
