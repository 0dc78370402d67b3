package report

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/schoolcrew/internal/model"
)

// ReportFilePattern matches the files written by `schoolcrew analyze`.
const ReportFilePattern = "github_analysis_report_*.json"

// variantKeys lists the top-level keys in the order they are checked.
var variantKeys = []struct {
	key     string
	variant model.ReportVariant
}{
	{"skill_assessment_report", model.VariantSkillAssessment},
	{"report", model.VariantStandard},
	{"github_analysis_report", model.VariantGitHubAnalysis},
}

// numberedSections maps canonical section names to the numbered keys used
// by github_analysis reports.
var numberedSections = map[string]string{
	SectionExecutiveSummary: "1_executive_summary",
	SectionDeveloperProfile: "2_developer_overview",
	SectionTechnicalSkills:  "3_technical_skills_breakdown",
	SectionRepositories:     "4_repository_portfolio_analysis",
	SectionActivity:         "5_activity_and_engagement_patterns",
	SectionStrengths:        "6_strengths_and_growth_areas",
	SectionHiring:           "7_hiring_recommendations",
	SectionRisks:            "9_risk_assessment_and_considerations",
	SectionNextSteps:        "10_next_steps_and_recommendations",
}

// Canonical section names.
const (
	SectionExecutiveSummary = "executive_summary"
	SectionDeveloperProfile = "developer_profile_overview"
	SectionTechnicalSkills  = "technical_skills_analysis"
	SectionRepositories     = "repository_portfolio_review"
	SectionActivity         = "activity_and_engagement_assessment"
	SectionStrengths        = "strengths_and_development_areas"
	SectionHiring           = "hiring_and_project_fit_recommendations"
	SectionRisks            = "risk_analysis_and_considerations"
	SectionNextSteps        = "actionable_next_steps"
)

// Report is a decoded GitHub analysis report.
type Report struct {
	// Path is the file the report was loaded from, if any.
	Path string
	// Variant is the detected schema family.
	Variant model.ReportVariant
	// Document is the whole decoded JSON document.
	Document any
	// Body is the object under the variant's top-level key.
	// It is empty when no known key was found.
	Body *Object
}

// Parse strips code fences from data and decodes the JSON report.
// A document without a known top-level key is not an error; its Variant is
// VariantNone and renderers report that no data could be extracted.
func Parse(data []byte) (*Report, error) {
	raw := string(data)
	clean := StripFences(raw)

	doc, err := decodeJSON([]byte(clean))
	if err != nil {
		return nil, &DecodeError{
			Err:             err,
			RawPreview:      preview(raw, rawPreviewLen),
			StrippedPreview: preview(clean, strippedPreviewLen),
		}
	}

	r := &Report{Document: doc, Body: &Object{}}
	top, ok := doc.(*Object)
	if !ok {
		return r, nil
	}
	for _, vk := range variantKeys {
		if !top.Has(vk.key) {
			continue
		}
		r.Variant = vk.variant
		r.Body = top.Object(vk.key)
		break
	}
	return r, nil
}

// Read parses a report from r.
func Read(r io.Reader) (*Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return Parse(data)
}

// Load reads and parses the report file at path.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	r, err := Parse(data)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}
	r.Path = path
	return r, nil
}

// HasData reports whether a report body was found.
func (r *Report) HasData() bool {
	return r.Body.Len() > 0
}

// Section returns the section with the given canonical name. Missing or
// malformed sections are returned as an empty object.
func (r *Report) Section(name string) *Object {
	key := name
	if r.Variant == model.VariantGitHubAnalysis {
		if mapped, ok := numberedSections[name]; ok {
			key = mapped
		}
	}
	return r.Body.Object(key)
}

// DeveloperName returns the developer's name, falling back to the username.
func (r *Report) DeveloperName() string {
	profile := r.Section(SectionDeveloperProfile)
	if r.Variant == model.VariantSkillAssessment && !profile.Has("name") && !profile.Has("username") {
		profile = profile.Object("personal_information")
	}
	return profile.String("name", profile.String("username", "Unknown"))
}

// Summary returns the one line summary shown for a report.
func (r *Report) Summary() (string, error) {
	if !r.HasData() {
		return "", ErrNoReport
	}
	return "GitHub Analysis Summary for " + r.DeveloperName(), nil
}

// RawData returns the part of the report that holds the collected raw data:
// the appendices of a github_analysis report, or appendices.raw_data_summary
// for the other variants. The whole report body is returned when those are
// absent.
func (r *Report) RawData() (any, error) {
	if !r.HasData() {
		return nil, ErrNoReport
	}

	appendices := r.Body.Object("appendices")
	if r.Variant == model.VariantGitHubAnalysis {
		if appendices.Len() > 0 {
			return appendices, nil
		}
		return r.Body, nil
	}
	if v, ok := appendices.Get("raw_data_summary"); ok {
		return v, nil
	}
	return r.Body, nil
}

// ListReports returns every report file below dir, in lexical walk order.
func ListReports(dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(ReportFilePattern, d.Name()); ok {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list reports in %s: %w", dir, err)
	}
	return found, nil
}

const (
	rawPreviewLen      = 1000
	strippedPreviewLen = 500
)

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// titleize turns snake_case keys into headings, e.g. "total_commits" -> "Total Commits".
func titleize(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}
