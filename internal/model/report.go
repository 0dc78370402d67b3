package model

// ReportVariant identifies which schema family a GitHub analysis report uses.
// Crews have produced three different top-level layouts over time and the
// renderers branch on this value.
type ReportVariant int

const (
	// VariantNone means no known top-level key was found.
	VariantNone ReportVariant = iota
	// VariantSkillAssessment reports live under "skill_assessment_report".
	VariantSkillAssessment
	// VariantStandard reports live under "report".
	VariantStandard
	// VariantGitHubAnalysis reports live under "github_analysis_report" and use numbered section keys.
	VariantGitHubAnalysis
)

// String returns the variant name used in logs and JSON output.
func (v ReportVariant) String() string {
	switch v {
	case VariantSkillAssessment:
		return "skill_assessment"
	case VariantStandard:
		return "standard"
	case VariantGitHubAnalysis:
		return "github_analysis"
	default:
		return "none"
	}
}

// MarshalText lets the variant appear by name in JSON.
func (v ReportVariant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
