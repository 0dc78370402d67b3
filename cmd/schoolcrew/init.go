package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/schoolcrew/internal/config"
	"github.com/nao1215/schoolcrew/internal/crew"
)

//go:embed templates/schoolcrew.yaml
var configTemplate embed.FS

// crewFileName is the file written by "init --crews".
const crewFileName = "crews.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new schoolcrew configuration file",
		Long: `Initialize creates a new .schoolcrew configuration file in the current directory.

The generated file includes:
- Default LLM, server and history settings
- Documentation for all available options
- The environment variables that hold API keys

With --crews, the built-in crew definitions are written to crews.yaml next to
the configuration file so agents and tasks can be customized.

Examples:
  # Create .schoolcrew in current directory
  schoolcrew init

  # Create config file at a specific path
  schoolcrew init -o myconfig.yaml

  # Also write the crew definitions
  schoolcrew init --crews

  # Force overwrite existing files
  schoolcrew init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing files")
	cmd.Flags().Bool("crews", false,
		"Also write the built-in crew definitions")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	withCrews, err := cmd.Flags().GetBool("crews")
	if err != nil {
		return err
	}

	content, err := configTemplate.ReadFile("templates/schoolcrew.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if withCrews {
		crewPath := filepath.Join(filepath.Dir(outputPath), crewFileName)
		if err := writeNewFile(crewPath, crew.BuiltinYAML(), force); err != nil {
			return err
		}
		abs, err := filepath.Abs(crewPath)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", crewPath, err)
		}
		content = append(content, []byte(fmt.Sprintf("crew_file: %s\n", abs))...)
		fmt.Fprintf(cmd.OutOrStdout(), "Created crew definitions: %s\n", crewPath)
	}

	if err := writeNewFile(outputPath, content, force); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(w, "\nEdit this file to configure settings such as:")
	fmt.Fprintln(w, "  - LLM provider, model and timeout")
	fmt.Fprintln(w, "  - API listen address")
	fmt.Fprintln(w, "  - Search history location")
	fmt.Fprintln(w, "\nAPI keys are read from the environment, not from this file.")
	return nil
}

// writeNewFile writes content to path, refusing to overwrite unless force is set.
func writeNewFile(path string, content []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("file already exists: %s (use -f to overwrite)", path)
		}
	}
	if err := ensureParentDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
