package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/schoolcrew/internal/report"
)

const sampleReport = "```json\n" + `{
  "github_analysis_report": {
    "1_executive_summary": {
      "key_findings": ["Maintains popular Go tooling"],
      "recommendations": ["Hire for platform work"]
    },
    "2_developer_overview": {
      "username": "octocat",
      "name": "The Octocat",
      "followers": 120,
      "public_repos": 8,
      "key_metrics": {"experience_level": "Senior", "activity_level": "High"}
    },
    "appendices": {"raw_data_summary": {"repos": 8}}
  }
}` + "\n```"

// executeRoot runs the root command with args and returns stdout and stderr.
func executeRoot(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeReport(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReportCmd(t *testing.T) {
	t.Parallel()

	t.Run("list", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeReport(t, dir, "github_analysis_report_octocat_20250101_120000.json", sampleReport)
		writeReport(t, dir, "nested/github_analysis_report_gopher_20250102_120000.json", sampleReport)
		writeReport(t, dir, "notes.json", "{}")

		out, _, err := executeRoot(t, "", "report", "list", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "GitHub analysis reports (2)") {
			t.Errorf("unexpected output %q", out)
		}
		if strings.Contains(out, "notes.json") {
			t.Error("non-report file listed")
		}
	})

	t.Run("list empty directory", func(t *testing.T) {
		t.Parallel()

		out, _, err := executeRoot(t, "", "report", "list", t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "No GitHub analysis reports found") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("view as markdown", func(t *testing.T) {
		t.Parallel()

		path := writeReport(t, t.TempDir(), "r.json", sampleReport)
		out, _, err := executeRoot(t, "", "report", "view", path, "--markdown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"GitHub Developer Analysis", "Executive Summary", "Maintains popular Go tooling", "The Octocat"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output", want)
			}
		}
	})

	t.Run("view from stdin as json", func(t *testing.T) {
		t.Parallel()

		out, _, err := executeRoot(t, sampleReport, "report", "view", "-", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(out, "{\n  \"github_analysis_report\"") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("view to file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := writeReport(t, dir, "r.json", sampleReport)
		target := filepath.Join(dir, "out", "r.md")
		if _, _, err := executeRoot(t, "", "report", "view", path, "-m", "-o", target); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(target)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "Executive Summary") {
			t.Error("expected rendered report in file")
		}
	})

	t.Run("view and save markdown", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := writeReport(t, dir, "r.json", sampleReport)
		target := filepath.Join(dir, "saved", "r.md")
		out, _, err := executeRoot(t, "", "report", "view", path, "--json", "--save-markdown", target)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(out, "{\n  \"github_analysis_report\"") {
			t.Errorf("unexpected output %q", out)
		}
		data, err := os.ReadFile(target)
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{"GitHub Developer Analysis", "Executive Summary"} {
			if !strings.Contains(string(data), want) {
				t.Errorf("expected %q in saved markdown", want)
			}
		}
	})

	t.Run("view rejects both formats", func(t *testing.T) {
		t.Parallel()

		path := writeReport(t, t.TempDir(), "r.json", sampleReport)
		if _, _, err := executeRoot(t, "", "report", "view", path, "--json", "--markdown"); err == nil {
			t.Error("expected error for conflicting formats")
		}
	})

	t.Run("view invalid json prints previews", func(t *testing.T) {
		t.Parallel()

		path := writeReport(t, t.TempDir(), "broken.json", "```json\n{\"report\": \n```")
		_, stderr, err := executeRoot(t, "", "report", "view", path)

		var de *report.DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("expected DecodeError, got %v", err)
		}
		for _, want := range []string{"Raw content (first 1000 chars):", "After fence stripping (first 500 chars):", `{"report":`} {
			if !strings.Contains(stderr, want) {
				t.Errorf("expected %q in stderr %q", want, stderr)
			}
		}
	})

	t.Run("summary", func(t *testing.T) {
		t.Parallel()

		path := writeReport(t, t.TempDir(), "r.json", sampleReport)
		out, _, err := executeRoot(t, "", "report", "summary", path)
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{"GitHub Analysis Summary for The Octocat", "Followers", "120", "Senior"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in %q", want, out)
			}
		}
	})

	t.Run("summary of unknown layout", func(t *testing.T) {
		t.Parallel()

		path := writeReport(t, t.TempDir(), "r.json", `{"other": {}}`)
		_, _, err := executeRoot(t, "", "report", "summary", path)
		if !errors.Is(err, report.ErrNoReport) {
			t.Errorf("expected ErrNoReport, got %v", err)
		}
	})

	t.Run("raw", func(t *testing.T) {
		t.Parallel()

		path := writeReport(t, t.TempDir(), "r.json", sampleReport)
		out, _, err := executeRoot(t, "", "report", "raw", path)
		if err != nil {
			t.Fatal(err)
		}
		want := "{\n  \"raw_data_summary\": {\n    \"repos\": 8\n  }\n}\n"
		if out != want {
			t.Errorf("raw output = %q, want %q", out, want)
		}
	})
}
