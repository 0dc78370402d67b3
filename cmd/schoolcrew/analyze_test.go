package main

import (
	"strings"
	"testing"
	"time"
)

func TestReportFileName(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)
	if got, want := reportFileName("octocat", at), "github_analysis_report_octocat_20250309_140507.json"; got != want {
		t.Errorf("reportFileName() = %q, want %q", got, want)
	}
	if got := reportFileName("octocat", time.Time{}); !strings.HasPrefix(got, "github_analysis_report_octocat_") {
		t.Errorf("reportFileName() = %q", got)
	}
}

func TestGitHubUsername(t *testing.T) {
	t.Parallel()

	valid := []string{"octocat", "a", "nao1215", "go-lang", strings.Repeat("a", 39)}
	for _, name := range valid {
		if !githubUsername.MatchString(name) {
			t.Errorf("%q should be valid", name)
		}
	}
	invalid := []string{"", "-octocat", "octocat-", "two--dashes", "with space", "../etc", strings.Repeat("a", 40)}
	for _, name := range invalid {
		if githubUsername.MatchString(name) {
			t.Errorf("%q should be invalid", name)
		}
	}
}

func TestAnalyzeCmd_InvalidUsername(t *testing.T) {
	t.Parallel()

	_, _, err := executeRoot(t, "", "analyze", "../etc/passwd")
	if err == nil || !strings.Contains(err.Error(), "invalid GitHub username") {
		t.Errorf("expected invalid username error, got %v", err)
	}
}
