package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/nao1215/schoolcrew/internal/model"
)

// Highlight is one headline number of a report.
type Highlight struct {
	Label string
	Value string
}

// Highlights returns the headline numbers of a report for its variant.
func (r *Report) Highlights() []Highlight {
	profile := r.Section(SectionDeveloperProfile)

	switch r.Variant {
	case model.VariantGitHubAnalysis:
		km := profile.Object("key_metrics")
		community := r.Section(SectionActivity).Object("community_engagement")
		return []Highlight{
			{"Followers", profile.String("followers", "N/A")},
			{"Public Repos", profile.String("public_repos", "N/A")},
			{"Total Stars", community.String("total_stars_received", "N/A")},
			{"Experience", km.String("experience_level", "N/A")},
			{"Activity", km.String("activity_level", "N/A")},
		}
	case model.VariantSkillAssessment:
		gh := profile.Object("github_metrics")
		return []Highlight{
			{"Followers", gh.String("followers", "N/A")},
			{"Public Repos", gh.String("public_repos", "N/A")},
			{"Public Gists", gh.String("public_gists", "N/A")},
			{"Account Age", accountYears(profile.Object("personal_information")) + " years"},
		}
	case model.VariantStandard:
		return []Highlight{
			{"Followers", profile.String("followers", "N/A")},
			{"Public Repos", profile.String("public_repos", "N/A")},
			{"Experience", profile.String("experience_level", "N/A")},
			{"Activity", profile.String("activity_level", "N/A")},
		}
	default:
		return nil
	}
}

var (
	summaryTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#8BC34A")).
		MarginBottom(1)

	cardStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#2196F3")).
		Padding(0, 1).
		MarginRight(1)

	cardLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9E9E9E"))
	cardValueStyle = lipgloss.NewStyle().Bold(true)
)

// SummaryWriter prints the one line summary followed by metric cards.
type SummaryWriter struct {
	baseWriter
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer) *SummaryWriter {
	return &SummaryWriter{baseWriter: newBaseWriter(output)}
}

// Write prints the summary. It returns ErrNoReport for documents without
// report data.
func (w *SummaryWriter) Write(r *Report) (int, error) {
	title, err := r.Summary()
	if err != nil {
		return 0, err
	}

	highlights := r.Highlights()
	cards := make([]string, 0, len(highlights))
	for _, h := range highlights {
		cards = append(cards, cardStyle.Render(
			lipgloss.JoinVertical(lipgloss.Left,
				cardLabelStyle.Render(h.Label),
				cardValueStyle.Render(h.Value),
			),
		))
	}

	out := lipgloss.JoinVertical(lipgloss.Left,
		summaryTitleStyle.Render(title),
		lipgloss.JoinHorizontal(lipgloss.Top, cards...),
	)
	return io.WriteString(w.output, out+"\n")
}
