package tools

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nao1215/schoolcrew/internal/netclient"
)

// DefaultSerperURL is the Serper Google search endpoint.
const DefaultSerperURL = "https://google.serper.dev/search"

// WebSearch queries Google through Serper and lists the organic results.
type WebSearch struct {
	client   *http.Client
	apiKey   string
	endpoint string
	limit    int
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
}

type serperResponse struct {
	AnswerBox *struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox"`
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// NewWebSearch creates the web_search tool. An empty endpoint means DefaultSerperURL.
func NewWebSearch(client *http.Client, apiKey, endpoint string) *WebSearch {
	if client == nil {
		client = http.DefaultClient
	}
	if endpoint == "" {
		endpoint = DefaultSerperURL
	}
	return &WebSearch{client: client, apiKey: apiKey, endpoint: endpoint, limit: 10}
}

// Name implements Tool.
func (w *WebSearch) Name() string { return "web_search" }

// Description implements Tool.
func (w *WebSearch) Description() string {
	return "Search the internet with Google and return the top results with title, link and snippet."
}

// Run implements Tool.
func (w *WebSearch) Run(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "Error searching the web: empty query."
	}
	if w.apiKey == "" {
		return "Error searching the web: SERPER_API_KEY is not set."
	}

	var resp serperResponse
	headers := map[string]string{"X-API-KEY": w.apiKey}
	if err := netclient.PostJSON(ctx, w.client, w.endpoint, headers, serperRequest{Q: query, Num: w.limit}, &resp); err != nil {
		return fmt.Sprintf("Error searching the web: %v.", err)
	}

	if len(resp.Organic) == 0 && resp.AnswerBox == nil {
		return fmt.Sprintf("No results found for %q.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", query)
	if resp.AnswerBox != nil {
		answer := resp.AnswerBox.Answer
		if answer == "" {
			answer = resp.AnswerBox.Snippet
		}
		if answer != "" {
			fmt.Fprintf(&b, "Answer: %s\n", answer)
		}
	}
	for i, r := range resp.Organic {
		if i >= w.limit {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n   Link: %s\n   Snippet: %s\n", i+1, r.Title, r.Link, r.Snippet)
	}
	return strings.TrimRight(b.String(), "\n")
}
