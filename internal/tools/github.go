package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/nao1215/schoolcrew/internal/netclient"
)

// DefaultGitHubAPIURL is the GitHub REST API root.
const DefaultGitHubAPIURL = "https://api.github.com"

// activeWindow is how recent a push must be for a repository to count as active.
const activeWindow = 180 * 24 * time.Hour

// GitHubProfile collects public account and repository metrics for a user
// and returns them as indented JSON for the analysis crew.
type GitHubProfile struct {
	client  *http.Client
	token   string
	baseURL string
	now     func() time.Time
}

// GitHubOption configures a GitHubProfile tool.
type GitHubOption func(*GitHubProfile)

// WithGitHubBaseURL points the tool at another API root.
func WithGitHubBaseURL(u string) GitHubOption {
	return func(g *GitHubProfile) {
		g.baseURL = strings.TrimRight(u, "/")
	}
}

// WithGitHubClock replaces time.Now for account age and activity calculations.
func WithGitHubClock(now func() time.Time) GitHubOption {
	return func(g *GitHubProfile) {
		g.now = now
	}
}

// NewGitHubProfile creates the github_profile tool. token may be empty.
func NewGitHubProfile(client *http.Client, token string, opts ...GitHubOption) *GitHubProfile {
	if client == nil {
		client = http.DefaultClient
	}
	g := &GitHubProfile{client: client, token: token, baseURL: DefaultGitHubAPIURL, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type githubUser struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Company     string    `json:"company"`
	Bio         string    `json:"bio"`
	Blog        string    `json:"blog"`
	HTMLURL     string    `json:"html_url"`
	AvatarURL   string    `json:"avatar_url"`
	PublicRepos int       `json:"public_repos"`
	PublicGists int       `json:"public_gists"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type githubRepo struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Language        string    `json:"language"`
	Fork            bool      `json:"fork"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	PushedAt        time.Time `json:"pushed_at"`
	License         *struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
}

// ProfileSummary is the JSON document the tool returns.
type ProfileSummary struct {
	Username        string            `json:"username"`
	Name            string            `json:"name,omitempty"`
	Location        string            `json:"location,omitempty"`
	Company         string            `json:"company,omitempty"`
	Bio             string            `json:"bio,omitempty"`
	Blog            string            `json:"blog,omitempty"`
	ProfileURL      string            `json:"profile_url,omitempty"`
	AvatarURL       string            `json:"avatar_url,omitempty"`
	PublicRepos     int               `json:"public_repos"`
	PublicGists     int               `json:"public_gists"`
	Followers       int               `json:"followers"`
	Following       int               `json:"following"`
	CreatedAt       string            `json:"created_at"`
	UpdatedAt       string            `json:"updated_at"`
	AccountAgeDays  int               `json:"account_age_days"`
	Repositories    RepositoryMetrics `json:"repositories"`
	TopRepositories []RepositoryBrief `json:"top_repositories"`
}

// RepositoryMetrics aggregates the user's own (non-fork) repositories.
type RepositoryMetrics struct {
	Analyzed            int            `json:"analyzed_repos"`
	Languages           map[string]int `json:"languages_used"`
	DominantLanguage    string         `json:"dominant_language,omitempty"`
	TotalStars          int            `json:"total_stars_received"`
	TotalForks          int            `json:"total_forks_received"`
	TotalOpenIssues     int            `json:"total_open_issues"`
	ActiveLastSixMonths int            `json:"active_repos_last_6_months"`
	DocumentationRate   float64        `json:"documentation_rate"`
	LicenseUsageRate    float64        `json:"license_usage_rate"`
	ActivityRate        float64        `json:"activity_rate"`
}

// RepositoryBrief describes one of the most starred repositories.
type RepositoryBrief struct {
	Name            string `json:"name"`
	Language        string `json:"language,omitempty"`
	Description     string `json:"description,omitempty"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	PushedAt        string `json:"pushed_at"`
}

// Name implements Tool.
func (g *GitHubProfile) Name() string { return "github_profile" }

// Description implements Tool.
func (g *GitHubProfile) Description() string {
	return "Collect public GitHub profile and repository metrics for a username, returned as JSON."
}

// Run implements Tool. The query is the GitHub username.
func (g *GitHubProfile) Run(ctx context.Context, query string) string {
	username := strings.TrimPrefix(strings.TrimSpace(query), "@")
	if username == "" || strings.ContainsAny(username, " /") {
		return fmt.Sprintf("Error collecting GitHub profile: %q is not a GitHub username.", query)
	}

	summary, err := g.Collect(ctx, username)
	if err != nil {
		return fmt.Sprintf("Error collecting GitHub profile for %s: %v.", username, err)
	}
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error collecting GitHub profile for %s: %v.", username, err)
	}
	return string(out)
}

// Collect fetches the user and up to 100 recently updated repositories.
func (g *GitHubProfile) Collect(ctx context.Context, username string) (*ProfileSummary, error) {
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if g.token != "" {
		headers["Authorization"] = "Bearer " + g.token
	}

	var user githubUser
	if err := netclient.GetJSON(ctx, g.client, g.baseURL+"/users/"+url.PathEscape(username), headers, &user); err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	var repos []githubRepo
	reposURL := g.baseURL + "/users/" + url.PathEscape(username) + "/repos?per_page=100&sort=updated"
	if err := netclient.GetJSON(ctx, g.client, reposURL, headers, &repos); err != nil {
		return nil, fmt.Errorf("failed to fetch repositories: %w", err)
	}

	now := g.now()
	s := &ProfileSummary{
		Username:       user.Login,
		Name:           user.Name,
		Location:       user.Location,
		Company:        user.Company,
		Bio:            user.Bio,
		Blog:           user.Blog,
		ProfileURL:     user.HTMLURL,
		AvatarURL:      user.AvatarURL,
		PublicRepos:    user.PublicRepos,
		PublicGists:    user.PublicGists,
		Followers:      user.Followers,
		Following:      user.Following,
		CreatedAt:      user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      user.UpdatedAt.Format(time.RFC3339),
		AccountAgeDays: int(now.Sub(user.CreatedAt).Hours() / 24),
	}
	s.Repositories, s.TopRepositories = summarizeRepos(repos, now)
	return s, nil
}

func summarizeRepos(repos []githubRepo, now time.Time) (RepositoryMetrics, []RepositoryBrief) {
	m := RepositoryMetrics{Languages: map[string]int{}}
	own := make([]githubRepo, 0, len(repos))
	var documented, licensed int

	for _, r := range repos {
		if r.Fork {
			continue
		}
		own = append(own, r)
		if r.Language != "" {
			m.Languages[r.Language]++
		}
		m.TotalStars += r.StargazersCount
		m.TotalForks += r.ForksCount
		m.TotalOpenIssues += r.OpenIssuesCount
		if r.Description != "" {
			documented++
		}
		if r.License != nil && r.License.SPDXID != "" && r.License.SPDXID != "NOASSERTION" {
			licensed++
		}
		if now.Sub(r.PushedAt) <= activeWindow {
			m.ActiveLastSixMonths++
		}
	}

	m.Analyzed = len(own)
	if m.Analyzed > 0 {
		m.DocumentationRate = percent(documented, m.Analyzed)
		m.LicenseUsageRate = percent(licensed, m.Analyzed)
		m.ActivityRate = percent(m.ActiveLastSixMonths, m.Analyzed)
	}
	best := 0
	for lang, n := range m.Languages {
		if n > best || (n == best && lang < m.DominantLanguage) {
			best, m.DominantLanguage = n, lang
		}
	}

	sort.SliceStable(own, func(i, j int) bool {
		return own[i].StargazersCount > own[j].StargazersCount
	})
	top := make([]RepositoryBrief, 0, 5)
	for _, r := range own {
		if len(top) == 5 {
			break
		}
		top = append(top, RepositoryBrief{
			Name:            r.Name,
			Language:        r.Language,
			Description:     r.Description,
			StargazersCount: r.StargazersCount,
			ForksCount:      r.ForksCount,
			PushedAt:        r.PushedAt.Format(time.RFC3339),
		})
	}
	return m, top
}

// percent returns part/total as a percentage rounded to one decimal.
func percent(part, total int) float64 {
	return math.Round(float64(part)/float64(total)*1000) / 10
}
