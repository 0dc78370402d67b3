package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nao1215/schoolcrew/internal/config"
	"github.com/nao1215/schoolcrew/internal/report"
)

// NewReportCmd creates the report command and its subcommands.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "List and view GitHub analysis reports",
		Long: `Report works with the JSON reports written by "schoolcrew analyze".

Reports may be wrapped in Markdown code fences; they are stripped before
decoding. Three report layouts are understood: github_analysis_report,
report and skill_assessment_report.

Examples:
  # List reports in the current directory tree
  schoolcrew report list

  # Render a report in the terminal
  schoolcrew report view github_analysis_report_octocat_20250101_120000.json

  # Render a report as Markdown into a file
  schoolcrew report view report.json --markdown -o report.md

  # Render in the terminal and keep a Markdown copy
  schoolcrew report view report.json --save-markdown report.md

  # Read a report from stdin
  cat report.json | schoolcrew report view -`,
	}

	cmd.AddCommand(newReportListCmd())
	cmd.AddCommand(newReportViewCmd())
	cmd.AddCommand(newReportSummaryCmd())
	cmd.AddCommand(newReportRawCmd())
	return cmd
}

func newReportListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "List report files below a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			} else if cfg, err := buildConfig(cmd, os.Getenv); err == nil {
				dir = cfg.ReportDir
			}

			files, err := report.ListReports(dir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No GitHub analysis reports found in %s\n", dir)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "GitHub analysis reports (%d):\n\n", len(files))
			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "  • %s\n", f)
			}
			return nil
		},
	}
}

func newReportViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view <file|->",
		Short: "Render every section of a report",
		Args:  cobra.ExactArgs(1),
		RunE:  runReportViewCmd,
	}
	cmd.Flags().BoolP("json", "j", false,
		"Output the decoded report as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the rendered report to specified file path")
	cmd.Flags().String("style", "", "Terminal style: dark, light, notty (default: auto)")
	cmd.Flags().String("save-markdown", "",
		"Also write the report as Markdown to specified file path")
	return cmd
}

func runReportViewCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	style, err := cmd.Flags().GetString("style")
	if err != nil {
		return err
	}
	saveMarkdown, err := cmd.Flags().GetString("save-markdown")
	if err != nil {
		return err
	}

	r, err := loadReport(cmd, args[0])
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cmd, cfg.OutputFile)
	if err != nil {
		return err
	}
	defer closeOut()

	var w report.Writer
	switch {
	case cfg.JSONOutput:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownOutput:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewTerminalWriter(out, report.WithStyle(style))
	}

	if saveMarkdown != "" {
		md, closeMD, err := openOutput(cmd, saveMarkdown)
		if err != nil {
			return err
		}
		defer closeMD()
		w = report.NewMultiWriter(w, report.NewMarkdownWriter(md))
	}
	_, err = w.Write(r)
	return err
}

func newReportSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <file|->",
		Short: "Print the one line summary and headline metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := loadReport(cmd, args[0])
			if err != nil {
				return err
			}
			_, err = report.NewSummaryWriter(cmd.OutOrStdout()).Write(r)
			return err
		},
	}
}

func newReportRawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "raw <file|->",
		Short: "Print the raw data section of a report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := loadReport(cmd, args[0])
			if err != nil {
				return err
			}
			data, err := r.RawData()
			if err != nil {
				return err
			}
			_, err = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint()).WriteValue(data)
			return err
		},
	}
}

// loadReport reads a report file, or stdin for "-". Decode failures print
// the input previews to stderr before returning the error.
func loadReport(cmd *cobra.Command, path string) (*report.Report, error) {
	var r *report.Report
	var err error
	if path == "-" {
		r, err = report.Read(cmd.InOrStdin())
	} else {
		r, err = report.Load(path)
	}

	var de *report.DecodeError
	if errors.As(err, &de) {
		printDecodePreview(cmd.ErrOrStderr(), de)
	}
	return r, err
}

func printDecodePreview(w io.Writer, de *report.DecodeError) {
	bold := color.New(color.Bold)
	bold.Fprintln(w, "Raw content (first 1000 chars):")
	fmt.Fprintln(w, de.RawPreview)
	fmt.Fprintln(w)
	bold.Fprintln(w, "After fence stripping (first 500 chars):")
	fmt.Fprintln(w, de.StrippedPreview)
	fmt.Fprintln(w)
}
