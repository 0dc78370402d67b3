package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/schoolcrew/internal/config"
	"github.com/nao1215/schoolcrew/internal/crew"
	"github.com/nao1215/schoolcrew/internal/model"
	"github.com/nao1215/schoolcrew/internal/report"
	"github.com/nao1215/schoolcrew/internal/schools"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search for schools by location, grade and curriculum",
		Long: `Search runs the school crew: one agent searches the web for schools in a
location that offer a grade under a curriculum, a second agent compares them.

The crew output is parsed into a table when it contains a JSON array or a
pipe-delimited table. Results are shown in the terminal, or written as
Markdown or JSON, and can be exported to CSV.

Requires SERPER_API_KEY and the API key of the selected LLM provider.

Examples:
  # Search with the defaults (Bangalore or current location, 1st Grade, CBSE)
  schoolcrew search

  # Search a specific location
  schoolcrew search -l Mumbai -g "5th Grade" --curriculum ICSE

  # Let the crew detect your location
  schoolcrew search --current-location

  # Compare several locations concurrently and export CSV files
  schoolcrew search -l Pune -l "New Delhi" --csv

  # Be asked for each value
  schoolcrew search -i`,
		Args: cobra.NoArgs,
		RunE: runSearchCmd,
	}

	cmd.Flags().StringArrayP("location", "l", nil,
		"Location to search (repeat for several locations)")
	cmd.Flags().StringP("grade", "g", model.DefaultGrade, "Grade level")
	cmd.Flags().String("curriculum", model.DefaultCurriculum, "Curriculum")
	cmd.Flags().Bool("current-location", false, "Detect the location automatically")
	cmd.Flags().BoolP("interactive", "i", false, "Prompt for location, grade and curriculum")

	cmd.Flags().Bool("raw", false, "Also show the raw AI output")
	cmd.Flags().Bool("csv", false, "Export extracted tables as CSV files")
	cmd.Flags().String("csv-dir", ".", "Directory for CSV exports")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of locations searched concurrently")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write results to specified file path (creates directories if needed)")

	addCrewFlags(cmd)
	return cmd
}

// searchOptions are the search flags that are not configuration.
type searchOptions struct {
	locations       []string
	grade           string
	curriculum      string
	currentLocation bool
	interactive     bool
	raw             bool
	csv             bool
	csvDir          string
}

func getSearchOptions(cmd *cobra.Command) (searchOptions, error) {
	var o searchOptions
	var err error
	fs := cmd.Flags()

	if o.locations, err = fs.GetStringArray("location"); err != nil {
		return o, err
	}
	if o.grade, err = fs.GetString("grade"); err != nil {
		return o, err
	}
	if o.curriculum, err = fs.GetString("curriculum"); err != nil {
		return o, err
	}
	if o.currentLocation, err = fs.GetBool("current-location"); err != nil {
		return o, err
	}
	if o.interactive, err = fs.GetBool("interactive"); err != nil {
		return o, err
	}
	if o.raw, err = fs.GetBool("raw"); err != nil {
		return o, err
	}
	if o.csv, err = fs.GetBool("csv"); err != nil {
		return o, err
	}
	if o.csvDir, err = fs.GetString("csv-dir"); err != nil {
		return o, err
	}
	if o.currentLocation && len(o.locations) > 0 {
		return o, errors.New("--current-location cannot be combined with --location")
	}
	return o, nil
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, os.Getenv)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.ValidateSearchKeys(); err != nil {
		printKeyInstructions(cmd.ErrOrStderr(), cfg)
		return fmt.Errorf("%w: %w", errKeysMissing, err)
	}

	opts, err := getSearchOptions(cmd)
	if err != nil {
		return err
	}
	reqs, err := buildRequests(cmd.InOrStdin(), cmd.ErrOrStderr(), opts)
	if err != nil {
		return err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runSearch(ctx, cmd, cfg, opts, reqs, logger)
}

// printKeyInstructions explains which API keys are needed and where to get them.
func printKeyInstructions(w io.Writer, cfg *config.Config) {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintln(w, "API keys are required to search for schools.")
	fmt.Fprintln(w)

	status := func(name, value, purpose, url string) {
		mark := color.New(color.FgGreen).Sprint("✓")
		if value == "" {
			mark = color.New(color.FgRed).Sprint("✗")
		}
		fmt.Fprintf(w, "  %s %-16s %-24s %s\n", mark, name, purpose, url)
	}
	status(config.EnvSerperAPIKey, cfg.SerperAPIKey, "web search", "https://serper.dev/")
	if cfg.Provider == config.ProviderOpenAI {
		status(config.EnvOpenAIAPIKey, cfg.OpenAIAPIKey, "AI processing", "https://platform.openai.com/api-keys")
	} else {
		status(config.EnvGeminiAPIKey, cfg.GeminiAPIKey, "AI processing", "https://makersuite.google.com/app/apikey")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Set them in your environment and run the command again, for example:")
	fmt.Fprintf(w, "  export %s=<your key>\n\n", config.EnvSerperAPIKey)
}

// buildRequests turns the flags, or the interactive answers, into one
// request per location.
func buildRequests(in io.Reader, prompt io.Writer, o searchOptions) ([]model.SearchRequest, error) {
	if o.interactive {
		return promptRequest(in, prompt, o)
	}

	locations := o.locations
	switch {
	case o.currentLocation:
		locations = []string{model.CurrentLocation}
	case len(locations) == 0:
		locations = []string{""}
	}

	reqs := make([]model.SearchRequest, 0, len(locations))
	for _, loc := range locations {
		reqs = append(reqs, model.SearchRequest{
			Location:   loc,
			Grade:      o.grade,
			Curriculum: o.curriculum,
		}.WithDefaults())
	}
	return reqs, nil
}

// promptRequest asks for each value. An empty answer keeps the default.
func promptRequest(in io.Reader, prompt io.Writer, o searchOptions) ([]model.SearchRequest, error) {
	scanner := bufio.NewScanner(in)
	ask := func(question, def string) (string, error) {
		fmt.Fprintf(prompt, "%s [%s]: ", question, def)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("failed to read answer: %w", err)
			}
			return def, nil
		}
		if answer := strings.TrimSpace(scanner.Text()); answer != "" {
			return answer, nil
		}
		return def, nil
	}

	req := model.SearchRequest{Location: model.CurrentLocation}
	var err error
	if !o.currentLocation {
		if req.Location, err = ask("Enter the location you are looking for schools", model.DefaultLocation); err != nil {
			return nil, err
		}
	}
	if req.Grade, err = ask("Enter the grade you are interested in (e.g., 1st Grade)", o.grade); err != nil {
		return nil, err
	}
	if req.Curriculum, err = ask("Enter the curriculum you prefer (e.g., CBSE, ICSE)", o.curriculum); err != nil {
		return nil, err
	}
	return []model.SearchRequest{req.WithDefaults()}, nil
}

// searchOutcome is one finished search.
type searchOutcome struct {
	Request model.SearchRequest  `json:"request"`
	Result  *model.CrewResult    `json:"result,omitempty"`
	Table   *model.SchoolTable   `json:"table,omitempty"`
	Summary *model.SchoolSummary `json:"summary,omitempty"`
	CSVFile string               `json:"csv_file,omitempty"`
	// ParseError is set when no table could be extracted.
	ParseError string `json:"parse_error,omitempty"`
	Error      string `json:"error,omitempty"`

	parseErr error
}

// runSearch kicks off one crew per request and prints the outcomes.
func runSearch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts searchOptions, reqs []model.SearchRequest, logger *slog.Logger) error {
	builder, err := newCrewBuilder(ctx, cfg, schoolCrewName, logger)
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

	out, closeOut, err := openOutput(cmd, cfg.OutputFile)
	if err != nil {
		return err
	}
	defer closeOut()

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = " Searching for schools... This may take a few moments."
	s.Start()
	started := time.Now()

	outcomes, err := kickoffAll(ctx, c, cfg.BatchSize, reqs, logger, func(done, total int) {
		s.Lock()
		s.Suffix = fmt.Sprintf(" Searching for schools... (%d/%d done)", done, total)
		s.Unlock()
	})
	s.Stop()
	if err != nil {
		return err
	}

	failed := 0
	for i := range outcomes {
		o := &outcomes[i]
		if o.Result == nil {
			failed++
			printError(cmd.ErrOrStderr(), fmt.Sprintf("%s: %s", o.Request.Location, o.Error))
			continue
		}
		saveRecord(ctx, db, &model.SearchRecord{
			RunID:  o.Result.RunID,
			Kind:   model.KindSchoolSearch,
			Inputs: o.Request.Inputs(),
			Raw:    o.Result.Raw,
		}, logger)
		finishOutcome(o, opts)
	}

	if err := writeOutcomes(out, cfg, opts, outcomes); err != nil {
		return err
	}

	if !cfg.JSONOutput {
		printSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Search completed in %s", time.Since(started).Round(time.Second)))
	}
	if failed == len(outcomes) {
		return fmt.Errorf("school search failed: %s", outcomes[0].Error)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d searches failed", failed, len(outcomes))
	}
	return nil
}

// kickoffAll runs one kickoff per request. A single request runs directly;
// several go through the batch runner with bounded concurrency.
func kickoffAll(ctx context.Context, k crew.Kicker, concurrency int, reqs []model.SearchRequest, logger *slog.Logger, progress func(done, total int)) ([]searchOutcome, error) {
	outcomes := make([]searchOutcome, len(reqs))
	for i, r := range reqs {
		outcomes[i].Request = r
	}

	if len(reqs) == 1 {
		res, err := k.Kickoff(ctx, reqs[0].Inputs())
		if err != nil {
			outcomes[0].Error = err.Error()
		}
		outcomes[0].Result = res
		return outcomes, nil
	}

	inputs := make([]map[string]string, len(reqs))
	for i, r := range reqs {
		inputs[i] = r.Inputs()
	}

	var mu sync.Mutex
	done := 0
	runner := crew.NewBatchRunner(k,
		crew.WithConcurrency(concurrency),
		crew.WithBatchLogger(logger),
		crew.WithOnDone(func(int, crew.BatchResult) {
			mu.Lock()
			defer mu.Unlock()
			done++
			if progress != nil {
				progress(done, len(reqs))
			}
		}),
	)
	results, err := runner.Run(ctx, inputs)
	for i, r := range results {
		outcomes[i].Result = r.Result
		if r.Err != nil {
			outcomes[i].Error = r.Err.Error()
		}
	}
	return outcomes, err
}

// finishOutcome extracts the school table and writes the CSV export.
func finishOutcome(o *searchOutcome, opts searchOptions) {
	table, err := schools.Extract(o.Result.Raw)
	if err != nil {
		o.parseErr = err
		o.ParseError = err.Error()
		return
	}
	summary := schools.Summarize(table)
	o.Table, o.Summary = table, &summary

	if opts.csv {
		path := filepath.Join(opts.csvDir, schools.CSVFileName(o.Request))
		if err := writeCSVFile(path, table); err != nil {
			o.Error = err.Error()
			return
		}
		o.CSVFile = path
	}
}

func writeCSVFile(path string, table *model.SchoolTable) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}
	f, err := os.Create(path) //nolint:gosec // path is built from the csv-dir flag
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	if err := schools.WriteCSV(f, table); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// writeOutcomes prints every outcome in the selected format.
func writeOutcomes(w io.Writer, cfg *config.Config, opts searchOptions, outcomes []searchOutcome) error {
	if cfg.JSONOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(outcomes) == 1 {
			return enc.Encode(outcomes[0])
		}
		return enc.Encode(outcomes)
	}

	for _, o := range outcomes {
		md := searchMarkdown(o, opts.raw)
		if cfg.MarkdownOutput {
			if _, err := io.WriteString(w, md); err != nil {
				return err
			}
			continue
		}
		rendered, err := report.RenderTerminal(md, "", report.DefaultWordWrap)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return err
		}
	}
	return nil
}

// searchMarkdown renders one outcome. The raw output is included when
// requested and whenever no table could be extracted.
func searchMarkdown(o searchOutcome, showRaw bool) string {
	var buf bytes.Buffer
	if o.Table != nil {
		_ = schools.WriteMarkdown(&buf, o.Request, o.Table) //nolint:errcheck // bytes.Buffer does not fail
	}

	md := markdown.NewMarkdown(&buf)
	if o.Table == nil {
		md.H2("School Search Results").
			PlainTextf("%s schools in %s for %s.", o.Request.Curriculum, o.Request.Location, o.Request.Grade)
	}

	switch {
	case o.Result == nil:
		md.Cautionf("Search failed: %s", o.Error)
	case errors.Is(o.parseErr, schools.ErrInvalidJSON):
		md.Warningf("%s", o.parseErr.Error()).
			Note("Showing raw results instead")
	case o.parseErr != nil:
		md.Note(o.parseErr.Error())
	}
	if o.CSVFile != "" {
		md.PlainTextf("CSV exported to `%s`.", o.CSVFile)
	} else if o.Error != "" && o.Result != nil {
		md.Cautionf("CSV export failed: %s", o.Error)
	}

	if o.Result != nil && (showRaw || o.Table == nil) {
		md.H3("Raw AI Output").
			CodeBlocks(markdown.SyntaxHighlight("text"), o.Result.Raw)
	}
	_ = md.Build() //nolint:errcheck // bytes.Buffer does not fail
	return buf.String()
}

func printSuccess(w io.Writer, msg string) {
	green := color.New(color.FgGreen)
	green.Fprintf(w, "✓ %s\n", msg)
}

func printError(w io.Writer, msg string) {
	red := color.New(color.FgRed)
	red.Fprintf(w, "✗ %s\n", msg)
}

// ensureParentDir creates the directory that will hold path.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
