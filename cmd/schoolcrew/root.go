// Package main provides the entry point for the schoolcrew CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for schoolcrew.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schoolcrew",
		Short: "AI crews for school search and GitHub profile analysis",
		Long: `schoolcrew runs multi-agent AI crews.

The school crew searches the web for schools in a location that offer a grade
under a curriculum, then compares them. The GitHub crew collects a public
GitHub profile and writes a structured hiring report.

Results can be viewed in the terminal, exported as CSV, Markdown or JSON, and
served over an HTTP API. Every run is kept in a local search history.

API keys are read from the environment:
  GEMINI_API_KEY   Gemini LLM (default provider)
  OPENAI_API_KEY   OpenAI LLM (LLM_PROVIDER=openai)
  SERPER_API_KEY   web search for the school crew
  GITHUB_TOKEN     optional, raises the GitHub API rate limit`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .schoolcrew in current or home directory)")

	// Add subcommands
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
