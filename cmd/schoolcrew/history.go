package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/schoolcrew/internal/config"
	"github.com/nao1215/schoolcrew/internal/database"
	"github.com/nao1215/schoolcrew/internal/model"
	"github.com/nao1215/schoolcrew/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show stored searches and analyses",
		Long: `History lists the latest crew runs stored in the local history database,
or prints the full output of one run.

Examples:
  # List the latest runs
  schoolcrew history

  # Only GitHub analyses
  schoolcrew history --kind github_analysis

  # Print the output of one run
  schoolcrew history 0b5f8c3e-8d0f-4c7e-9a52-3f4b8d1e2a90`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit, "Number of runs to list")
	cmd.Flags().String("kind", "", "Filter by kind (school_search or github_analysis)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, os.Getenv)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	kind, err := cmd.Flags().GetString("kind")
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No search history found")
		return nil //nolint:nilerr // a missing database is an empty history
	}
	defer db.Close()

	if len(args) == 1 {
		rec, err := db.ByRunID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("run not found: %s", args[0])
		}
		if cfg.JSONOutput {
			_, err = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint()).WriteValue(rec)
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rec.Raw)

		seen, err := db.CountByFingerprint(cmd.Context(), rec.Fingerprint)
		if err != nil {
			return err
		}
		if seen > 1 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Identical output seen %d times in history\n", seen)
		}
		return nil
	}

	records, err := db.Latest(cmd.Context(), kind, limit)
	if err != nil {
		return err
	}
	if cfg.JSONOutput {
		if records == nil {
			records = []model.SearchRecord{}
		}
		_, err = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint()).WriteValue(records)
		return err
	}
	printHistory(cmd, records)
	return nil
}

func printHistory(cmd *cobra.Command, records []model.SearchRecord) {
	w := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(w, "No search history found")
		return
	}

	fmt.Fprintf(w, "Search history (%d runs):\n\n", len(records))
	fmt.Fprintf(w, "  %-36s  %-19s  %-15s  %s\n", "Run ID", "Date", "Kind", "Inputs")
	for _, r := range records {
		fmt.Fprintf(w, "  %-36s  %-19s  %-15s  %s\n",
			r.RunID,
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Kind,
			formatInputs(r.Inputs),
		)
	}
}

// formatInputs prints the inputs in a stable order.
func formatInputs(inputs map[string]string) string {
	keys := []string{"location", "grade", "curriculum", "username"}
	parts := make([]string, 0, len(inputs))
	for _, k := range keys {
		if v, ok := inputs[k]; ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " / ")
}
