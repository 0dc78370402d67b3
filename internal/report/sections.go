package report

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/schoolcrew/internal/model"
)

// section renders one part of a report.
type section struct {
	name  string
	title string
	// unavailable is shown instead of the body when the section is empty.
	// Sections without it are rendered from their defaults.
	unavailable string
	render      func(md *markdown.Markdown, v model.ReportVariant, s *Object)
}

// sections lists every section in display order.
var sections = []section{
	{
		name:   SectionExecutiveSummary,
		title:  "Executive Summary",
		render: renderExecutiveSummary,
	},
	{
		name:   SectionDeveloperProfile,
		title:  "Developer Profile Overview",
		render: renderDeveloperProfile,
	},
	{
		name:   SectionTechnicalSkills,
		title:  "Technical Skills Analysis",
		render: renderTechnicalSkills,
	},
	{
		name:        SectionRepositories,
		title:       "Repository Portfolio Analysis",
		unavailable: "Repository portfolio analysis not available in this report format",
		render:      renderRepositories,
	},
	{
		name:        SectionActivity,
		title:       "Activity & Engagement Assessment",
		unavailable: "Activity and engagement assessment not available in this report format",
		render:      renderActivity,
	},
	{
		name:        SectionStrengths,
		title:       "Strengths & Development Areas",
		unavailable: "Strengths and development areas not available in this report format",
		render:      renderStrengths,
	},
	{
		name:        SectionHiring,
		title:       "Hiring & Project Fit Recommendations",
		unavailable: "Hiring recommendations not available in this report format",
		render:      renderHiring,
	},
	{
		name:        SectionRisks,
		title:       "Risk Analysis & Considerations",
		unavailable: "Risk analysis not available in this report format",
		render:      renderRisks,
	},
	{
		name:        SectionNextSteps,
		title:       "Actionable Next Steps",
		unavailable: "Actionable next steps not available in this report format",
		render:      renderNextSteps,
	},
}

// SectionNames returns the canonical section names in display order.
func SectionNames() []string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.name
	}
	return names
}

// writeSections renders every section of r into md.
func writeSections(md *markdown.Markdown, r *Report) {
	for _, s := range sections {
		md.H2(s.title)
		md.PlainText("")

		if !r.HasData() {
			md.Cautionf("%s", "Could not extract report data")
			md.PlainText("")
			continue
		}

		data := r.Section(s.name)
		if s.unavailable != "" && data.Len() == 0 {
			md.Note(s.unavailable)
			md.PlainText("")
			continue
		}
		s.render(md, r.Variant, data)
	}
}

func renderExecutiveSummary(md *markdown.Markdown, v model.ReportVariant, s *Object) {
	if v == model.VariantGitHubAnalysis {
		if findings := s.List("key_findings"); len(findings) > 0 {
			subheading(md, "Key Findings")
			md.BulletList(findings...)
			md.PlainText("")
		}
		if recs := s.List("recommendations"); len(recs) > 0 {
			subheading(md, "Recommendations")
			md.OrderedList(recs...)
			md.PlainText("")
		}
		return
	}

	md.PlainText(s.String("overview", "No overview available"))
	md.PlainText("")

	recs, ok := s.Get("recommendations")
	if !ok {
		recs = []any{}
	}
	switch t := recs.(type) {
	case string:
		subheading(md, "Recommendations")
		md.PlainText(t)
		md.PlainText("")
	case []any:
		subheading(md, "Key Recommendations")
		if items := list(t); len(items) > 0 {
			md.OrderedList(items...)
			md.PlainText("")
		}
	default:
		md.Note("No recommendations available")
		md.PlainText("")
	}

	if s.Truthy("summary_of_strengths") {
		md.PlainTextf("**Strengths:** %s", s.String("summary_of_strengths", ""))
		md.PlainText("")
	}
	if s.Truthy("summary_of_weaknesses") {
		md.PlainTextf("**Areas for Improvement:** %s", s.String("summary_of_weaknesses", ""))
		md.PlainText("")
	}
}

func renderDeveloperProfile(md *markdown.Markdown, v model.ReportVariant, s *Object) {
	switch v {
	case model.VariantGitHubAnalysis:
		metrics(md,
			metric("Username", s.String("username", "N/A")),
			metric("Name", s.String("name", "N/A")),
			metric("Location", s.String("location", "N/A")),
			metric("Account Age", s.String("account_age_days", "N/A")+" days"),
			metric("Followers", s.String("followers", "N/A")),
			metric("Following", s.String("following", "N/A")),
			metric("Public Repos", s.String("public_repos", "N/A")),
		)
		bio(md, s)

		km := s.Object("key_metrics")
		if km.Len() == 0 {
			return
		}
		subheading(md, "Key Metrics")
		metrics(md,
			metric("Activity Level", km.String("activity_level", "N/A")),
			metric("Experience Level", km.String("experience_level", "N/A")),
			metric("Community Involvement", km.String("community_involvement", "N/A")),
		)
		if langs := km.List("primary_languages"); len(langs) > 0 {
			subheading(md, "Primary Languages")
			md.PlainTextf("**Languages:** %s", strings.Join(langs, ", "))
			md.PlainText("")
		}

	case model.VariantSkillAssessment:
		info := s.Object("personal_information")
		gh := s.Object("github_metrics")

		subheading(md, "Personal Information")
		profileURL := "N/A"
		if info.Truthy("profile_url") {
			profileURL = "GitHub"
		}
		metrics(md,
			metric("Username", info.String("username", "N/A")),
			metric("Name", info.String("name", "N/A")),
			metric("Location", info.String("location", "N/A")),
			metric("Company", info.String("company", "N/A")),
			metric("Account Age", accountYears(info)+" years"),
			metric("Profile URL", profileURL),
		)
		if info.Truthy("avatar_url") {
			md.PlainTextf("![Avatar](%s)", info.String("avatar_url", ""))
			md.PlainText("")
		}

		subheading(md, "GitHub Metrics")
		rows := []metricRow{
			metric("Public Repos", gh.String("public_repos", "N/A")),
			metric("Public Gists", gh.String("public_gists", "N/A")),
			metric("Followers", gh.String("followers", "N/A")),
			metric("Following", gh.String("following", "N/A")),
		}
		if gh.Truthy("created_at") {
			rows = append(rows, metric("Joined", year(gh.String("created_at", ""))))
		}
		if gh.Truthy("updated_at") {
			rows = append(rows, metric("Last Updated", year(gh.String("updated_at", ""))))
		}
		metrics(md, rows...)

		bio(md, info)
		if s.Truthy("summary") {
			subheading(md, "Profile Summary")
			md.PlainText(s.String("summary", ""))
			md.PlainText("")
		}

	default:
		metrics(md,
			metric("Account Age", s.String("account_age_days", "N/A")+" days"),
			metric("Public Repos", s.String("public_repos", "N/A")),
			metric("Followers", s.String("followers", "N/A")),
			metric("Following", s.String("following", "N/A")),
			metric("Experience Level", s.String("experience_level", "N/A")),
			metric("Activity Level", s.String("activity_level", "N/A")),
			metric("Community Involvement", s.String("community_involvement", "N/A")),
		)
		subheading(md, "Primary Languages")
		md.PlainTextf("**Languages:** %s", strings.Join(s.List("primary_languages"), ", "))
		md.PlainText("")
		subheading(md, "Profile Summary")
		md.PlainText(s.String("summary", "No summary available"))
		md.PlainText("")
	}
}

func renderTechnicalSkills(md *markdown.Markdown, v model.ReportVariant, s *Object) {
	switch v {
	case model.VariantGitHubAnalysis:
		subheading(md, "Programming Languages")
		skillEntries(md, s.Object("programming_languages"), "No description", "No evidence")
		if fw := s.Object("frameworks_and_technologies"); fw.Len() > 0 {
			subheading(md, "Frameworks & Technologies")
			skillEntries(md, fw, "No description", "No evidence")
		}

	case model.VariantSkillAssessment:
		subheading(md, "Programming Languages")
		langs := s.Object("programming_languages")
		for _, name := range langs.Keys() {
			val, _ := langs.Get(name)
			d, ok := val.(*Object)
			if !ok {
				md.PlainTextf("**%s - Unknown**", name)
				md.PlainText("")
				md.BulletList("Evidence: " + display(val))
				md.PlainText("")
				continue
			}
			assessedSkill(md, name, d)
		}

		if tf := s.Object("technologies_and_frameworks"); tf.Len() > 0 {
			subheading(md, "Technologies & Frameworks")
			for _, name := range tf.Keys() {
				val, _ := tf.Get(name)
				if d, ok := val.(*Object); ok {
					assessedSkill(md, name, d)
				}
			}
		}

		if s.Truthy("language_summary") {
			subheading(md, "Language Summary")
			md.PlainText(s.String("language_summary", ""))
			md.PlainText("")
		}

	default:
		subheading(md, "Programming Languages")
		langs := s.Object("programming_languages")
		if langs.Len() > 0 {
			rows := make([][]string, 0, langs.Len())
			for _, name := range langs.Keys() {
				desc := langs.String(name, "")
				level := "Unknown"
				if before, _, ok := strings.Cut(desc, " - "); ok {
					level = before
				}
				rows = append(rows, []string{name, level, desc})
			}
			md.Table(markdown.TableSet{
				Header: []string{"Language", "Level", "Description"},
				Rows:   rows,
			})
			md.PlainText("")
		}
	}

	if gaps := s.List("skill_gaps"); len(gaps) > 0 {
		subheading(md, "Areas for Development")
		md.BulletList(gaps...)
		md.PlainText("")
	}
}

func renderRepositories(md *markdown.Markdown, v model.ReportVariant, s *Object) {
	if v == model.VariantGitHubAnalysis {
		subheading(md, "Repository Overview")
		metrics(md,
			metric("Total Repositories", s.String("total_repos", "N/A")),
			metric("Analyzed Repositories", s.String("analyzed_repos", "N/A")),
		)

		subheading(md, "Top Repositories")
		for _, repo := range objects(s, "top_repositories") {
			items := []string{
				"Description: " + repo.String("description", "No description"),
				"Recent Commits: " + repo.String("recent_commits_count", "N/A"),
			}
			if repo.Has("stargazers_count") {
				items = append(items, "Stars: "+repo.String("stargazers_count", "0"))
			}
			repository(md, repo, items)
		}

		patterns := s.Object("patterns")
		if patterns.Len() == 0 {
			return
		}
		subheading(md, "Repository Patterns")
		if patterns.Truthy("dominant_language") {
			md.PlainTextf("**Dominant Language:** %s", patterns.String("dominant_language", ""))
			md.PlainText("")
		}
		if tech := patterns.List("emerging_technologies"); len(tech) > 0 {
			md.PlainText("**Emerging Technologies:**")
			md.PlainText("")
			md.BulletList(tech...)
			md.PlainText("")
		}
		return
	}

	subheading(md, "Top Repositories")
	repos := objects(s, "top_repositories")
	if len(repos) == 0 {
		md.Note("No repository information available")
		md.PlainText("")
	}
	for _, repo := range repos {
		repository(md, repo, []string{
			"Description: " + repo.String("description", "No description"),
			"Recent Commits: " + repo.String("recent_commits_count", "N/A"),
			"Purpose: " + repo.String("purpose", "N/A"),
			"Key Aspects: " + repo.String("key_aspects", "N/A"),
		})
	}

	patterns := s.Object("coding_patterns")
	if langs := patterns.Object("languages_used"); langs.Len() > 0 {
		subheading(md, "Language Usage Distribution")
		languageChart(md, langs)
	}

	subheading(md, "Repository Metrics")
	metrics(md,
		metric("Documentation Rate", patterns.String("documentation_rate", "0")+"%"),
		metric("License Usage Rate", patterns.String("license_usage_rate", "0")+"%"),
		metric("Activity Rate", patterns.String("activity_rate", "0")+"%"),
	)
}

func renderActivity(md *markdown.Markdown, v model.ReportVariant, s *Object) {
	if v == model.VariantGitHubAnalysis {
		if coding := s.Object("coding_activity"); coding.Len() > 0 {
			subheading(md, "Coding Activity")
			if langs := coding.Object("languages_used"); langs.Len() > 0 {
				languageChart(md, langs)
			}
			metrics(md,
				metric("Active Repos (6 months)", coding.String("active_repos_last_6_months", "N/A")),
				metric("Activity Rate", coding.String("activity_rate", "0")+"%"),
				metric("Open Issues", coding.String("total_open_issues", "N/A")),
			)
		}
		if community := s.Object("community_engagement"); community.Len() > 0 {
			subheading(md, "Community Engagement")
			metrics(md,
				metric("Total Stars", community.String("total_stars_received", "0")),
				metric("Total Forks", community.String("total_forks_received", "0")),
				metric("Followers", community.String("follower_count", "0")),
				metric("Following", community.String("following_count", "0")),
			)
		}
		return
	}

	subheading(md, "Activity Metrics")
	keyValues(md, s.Object("activity_metrics"), "No activity metrics available")

	subheading(md, "Engagement Patterns")
	keyValues(md, s.Object("engagement_patterns"), "No engagement patterns available")

	subheading(md, "Recommendations")
	bullets(md, s.List("recommendations"), "No recommendations available")
}

func renderStrengths(md *markdown.Markdown, v model.ReportVariant, s *Object) {
	subheading(md, "Strengths")
	bullets(md, s.List("strengths"), "No strengths specified")

	if v == model.VariantGitHubAnalysis {
		subheading(md, "Growth Areas")
		bullets(md, s.List("growth_areas"), "No growth areas specified")
		return
	}

	subheading(md, "Areas for Improvement")
	key := "areas_for_improvement"
	if s.Has("development_areas") {
		key = "development_areas"
	}
	bullets(md, s.List(key), "No improvement areas specified")

	if recs := s.List("recommendations"); len(recs) > 0 {
		subheading(md, "Recommendations")
		md.BulletList(recs...)
		md.PlainText("")
	}
	if s.Truthy("summary") {
		subheading(md, "Summary")
		md.PlainText(s.String("summary", ""))
		md.PlainText("")
	}
}

func renderHiring(md *markdown.Markdown, v model.ReportVariant, s *Object) {
	if v == model.VariantGitHubAnalysis {
		subheading(md, "Potential Roles")
		bullets(md, s.List("potential_roles"), "No potential roles specified")
		subheading(md, "Project Suitability")
		bullets(md, s.List("project_suitability"), "No project suitability specified")
		return
	}

	subheading(md, "Suitable Roles")
	bullets(md, s.List("suitable_roles"), "No suitable roles specified")
	subheading(md, "Suitable Projects")
	bullets(md, s.List("suitable_projects"), "No suitable projects specified")
	subheading(md, "Hiring Recommendations")
	bullets(md, s.List("recommendations"), "No hiring recommendations available")
}

func renderRisks(md *markdown.Markdown, v model.ReportVariant, s *Object) {
	subheading(md, "Identified Risks")
	bullets(md, s.List("risks"), "No risks identified")

	if v == model.VariantGitHubAnalysis {
		subheading(md, "Considerations")
		bullets(md, s.List("considerations"), "No considerations provided")
		return
	}
	subheading(md, "Mitigation Strategies")
	bullets(md, s.List("mitigation_strategies"), "No mitigation strategies provided")
}

func renderNextSteps(md *markdown.Markdown, v model.ReportVariant, s *Object) {
	if v == model.VariantGitHubAnalysis {
		subheading(md, "Short Term Actions")
		bullets(md, s.List("short_term"), "No short term actions specified")
		subheading(md, "Long Term Actions")
		bullets(md, s.List("long_term"), "No long term actions specified")
		return
	}

	subheading(md, "Developer Actions")
	bullets(md, s.List("developer_actions"), "No developer actions specified")
	subheading(md, "Managerial Actions")
	bullets(md, s.List("managerial_actions"), "No managerial actions specified")
}

func subheading(md *markdown.Markdown, text string) {
	md.H3(text)
	md.PlainText("")
}

// bullets writes items as a list, or note when there are none.
func bullets(md *markdown.Markdown, items []string, note string) {
	if len(items) == 0 {
		md.Note(note)
	} else {
		md.BulletList(items...)
	}
	md.PlainText("")
}

func keyValues(md *markdown.Markdown, o *Object, note string) {
	if o.Len() == 0 {
		md.Note(note)
		md.PlainText("")
		return
	}
	items := make([]string, 0, o.Len())
	for _, k := range o.Keys() {
		items = append(items, "**"+titleize(k)+":** "+o.String(k, "None"))
	}
	md.BulletList(items...)
	md.PlainText("")
}

type metricRow [2]string

func metric(label, value string) metricRow {
	return metricRow{label, value}
}

func metrics(md *markdown.Markdown, rows ...metricRow) {
	set := markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows:   make([][]string, len(rows)),
	}
	for i, r := range rows {
		set.Rows[i] = []string{r[0], r[1]}
	}
	md.Table(set)
	md.PlainText("")
}

func bio(md *markdown.Markdown, o *Object) {
	if !o.Truthy("bio") {
		return
	}
	subheading(md, "Bio")
	md.PlainText(o.String("bio", ""))
	md.PlainText("")
}

// skillEntries writes skills that carry proficiency, description and evidence.
func skillEntries(md *markdown.Markdown, o *Object, noDescription, noEvidence string) {
	for _, name := range o.Keys() {
		val, _ := o.Get(name)
		d, ok := val.(*Object)
		if !ok {
			md.BulletList("**" + name + ":** " + display(val))
			md.PlainText("")
			continue
		}
		md.PlainTextf("**%s - %s**", name, d.String("proficiency", "Unknown"))
		md.PlainText("")
		md.BulletList(
			"Description: "+d.String("description", noDescription),
			"Evidence: "+d.String("evidence", noEvidence),
		)
		md.PlainText("")
	}
}

func assessedSkill(md *markdown.Markdown, name string, d *Object) {
	md.PlainTextf("**%s - %s**", name, d.String("proficiency", "Unknown"))
	md.PlainText("")
	items := []string{"Evidence: " + d.String("evidence", "No evidence provided")}
	if details := d.String("details", "No additional details"); details != "" {
		items = append(items, "Details: "+details)
	}
	md.BulletList(items...)
	md.PlainText("")
}

func repository(md *markdown.Markdown, repo *Object, items []string) {
	md.PlainTextf("**%s (%s)**", repo.String("name", "Unknown"), repo.String("language", "N/A"))
	md.PlainText("")
	md.BulletList(items...)
	md.PlainText("")
}

// objects returns the object elements of the list at key.
func objects(o *Object, key string) []*Object {
	v, _ := o.Get(key)
	arr, _ := v.([]any)
	out := make([]*Object, 0, len(arr))
	for _, item := range arr {
		if obj, ok := item.(*Object); ok {
			out = append(out, obj)
		}
	}
	return out
}

// languageChart writes a mermaid pie chart of language counts.
func languageChart(md *markdown.Markdown, langs *Object) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Programming Languages Distribution"),
		piechart.WithShowData(true),
	)
	plotted := 0
	for _, name := range langs.Keys() {
		v, _ := langs.Get(name)
		n := math.Round(number(v))
		if n <= 0 {
			continue
		}
		chart.LabelAndIntValue(name, uint64(n))
		plotted++
	}
	if plotted == 0 {
		return
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// accountYears converts account_age_days to years with one decimal.
func accountYears(o *Object) string {
	v, _ := o.Get("account_age_days")
	days := number(v)
	if days == 0 {
		return "0"
	}
	return strconv.FormatFloat(math.Round(days/365.25*10)/10, 'f', 1, 64)
}

func year(date string) string {
	if len(date) < 4 {
		return date
	}
	return date[:4]
}
