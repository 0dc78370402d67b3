package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func render(t *testing.T, input string) string {
	t.Helper()

	var buf bytes.Buffer
	n, err := NewMarkdownWriter(&buf).Write(mustParse(t, input))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n == 0 {
		t.Error("expected bytes written")
	}
	return buf.String()
}

func assertContains(t *testing.T, output string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(output, w) {
			t.Errorf("expected output to contain %q", w)
		}
	}
}

func assertNotContains(t *testing.T, output string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(output, u) {
			t.Errorf("expected output not to contain %q", u)
		}
	}
}

// TestMarkdownWriter checks that each variant takes its own rendering branch.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes every section heading", func(t *testing.T) {
		t.Parallel()

		output := render(t, githubAnalysisReport)
		for _, s := range sections {
			assertContains(t, output, s.title)
		}
		assertContains(t, output, "GitHub Developer Analysis", "The Octocat", "github_analysis")
	})

	t.Run("github analysis branch", func(t *testing.T) {
		t.Parallel()

		output := render(t, githubAnalysisReport)
		assertContains(t, output,
			"Key Findings", "Maintains popular Go tooling",
			"Hire for platform work",
			"5000 days", "Mascot", "**Languages:** Go, Ruby",
			"**Go - Expert**", "Evidence: 5 repos", "**Ruby:** Legacy scripts",
			"Areas for Development", "Frontend frameworks",
			"Repository Overview", "**hello-world (Go)**", "Stars: 1500",
			"**Dominant Language:** Go", "WebAssembly",
			"Coding Activity", "50.0%", "Community Engagement", "1600",
			"Growth Areas", "No growth areas specified",
			"Potential Roles", "Platform Engineer", "Project Suitability",
			"Considerations", "Check team fit",
			"Short Term Actions", "Technical interview", "No long term actions specified",
		)
		assertNotContains(t, output,
			"Key Recommendations",
			"Mitigation Strategies",
			"Suitable Roles",
			"Developer Actions",
			"Could not extract report data",
		)
	})

	t.Run("github analysis plots languages", func(t *testing.T) {
		t.Parallel()

		output := render(t, githubAnalysisReport)
		assertContains(t, output, "mermaid", "Programming Languages Distribution")
	})

	t.Run("standard branch", func(t *testing.T) {
		t.Parallel()

		output := render(t, standardReport)
		assertContains(t, output,
			"Solid backend engineer.",
			"Key Recommendations", "Pair on a design task",
			"**Strengths:** Testing discipline",
			"900 days", "**Languages:** Python, Go", "Backend focused.",
			"Advanced", "learning",
			"**Total Commits:** 42", "**Active Days:** 10",
			"No engagement patterns available", "No recommendations available",
			"Areas for Improvement", "Public speaking",
			"Mitigation Strategies", "Mentoring",
			"Developer Actions", "No developer actions specified", "Schedule a call",
			"Repository portfolio analysis not available in this report format",
			"Hiring recommendations not available in this report format",
		)
		assertNotContains(t, output, "Key Findings", "Growth Areas", "ignored", "**Areas for Improvement:**")
	})

	t.Run("recommendations as a string", func(t *testing.T) {
		t.Parallel()

		output := render(t, `{"report": {"executive_summary": {"overview": "ok", "recommendations": "Hire now"}}}`)
		assertContains(t, output, "### Recommendations", "Hire now")
		assertNotContains(t, output, "Key Recommendations")
	})

	t.Run("recommendations of another shape", func(t *testing.T) {
		t.Parallel()

		output := render(t, `{"report": {"executive_summary": {"recommendations": 3}}}`)
		assertContains(t, output, "No overview available", "No recommendations available")
	})

	t.Run("skill assessment branch", func(t *testing.T) {
		t.Parallel()

		output := render(t, skillAssessmentReport)
		assertContains(t, output,
			"Personal Information", "gopher", "3.0 years",
			"GitHub Metrics", "2019",
			"Profile Summary", "Generalist.",
			"**Go - Advanced**", "Evidence: Many repos",
			"**C - Unknown**", "Evidence: a little",
			"Language Summary", "Mostly Go.",
		)
		assertNotContains(t, output, "Details:", "Last Updated")
	})

	t.Run("document without report data", func(t *testing.T) {
		t.Parallel()

		output := render(t, `{"something": {}}`)
		if got := strings.Count(output, "Could not extract report data"); got != len(sections) {
			t.Errorf("error shown %d times, want %d", got, len(sections))
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact output keeps key order", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(mustParse(t, `{"report": {"b": 1, "a": 2}}`)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if got, want := buf.String(), "{\"report\":{\"b\":1,\"a\":2}}\n"; got != want {
			t.Errorf("output = %q, want %q", got, want)
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(mustParse(t, `{"report": {"b": 1}}`)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if got, want := buf.String(), "{\n  \"report\": {\n    \"b\": 1\n  }\n}\n"; got != want {
			t.Errorf("output = %q, want %q", got, want)
		}
	})
}

func TestSummaryWriter(t *testing.T) {
	t.Parallel()

	t.Run("title and cards", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSummaryWriter(&buf).Write(mustParse(t, githubAnalysisReport)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		assertContains(t, buf.String(),
			"GitHub Analysis Summary for The Octocat",
			"Followers", "120", "Total Stars", "1600", "Senior",
		)
	})

	t.Run("no report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, err := NewSummaryWriter(&buf).Write(mustParse(t, `[]`))
		if !errors.Is(err, ErrNoReport) {
			t.Errorf("expected ErrNoReport, got %v", err)
		}
	})
}

func TestTerminalWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewTerminalWriter(&buf, WithStyle("notty"), WithWordWrap(120))
	if _, err := w.Write(mustParse(t, githubAnalysisReport)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	assertContains(t, buf.String(), "Executive Summary", "Platform Engineer")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var md, js bytes.Buffer
	w := NewMultiWriter(NewMarkdownWriter(&md), NewJSONWriter(&js))
	n, err := w.Write(mustParse(t, standardReport))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n == 0 {
		t.Error("expected bytes written")
	}
	if md.Len() == 0 || js.Len() == 0 {
		t.Error("expected both writers to receive output")
	}
}
