package tools

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/schoolcrew/internal/netclient"
)

const (
	defaultMaxPages = 3
	defaultMaxText  = 1500
	maxPageSize     = 2 << 20
)

// pageKeywords select the links a parent is likely to follow.
var pageKeywords = []string{"admission", "fee", "contact", "enquiry", "curriculum", "academic"}

var (
	urlRegex   = regexp.MustCompile(`https?://[^\s<>"'()\[\]|,]+`)
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRegex = regexp.MustCompile(`\+?\d[\d\s\-()]{8,}\d`)
)

// SchoolWebsite reads the school websites linked in its input and reports
// their title, description, contact details and admission or fee pages.
type SchoolWebsite struct {
	client       *http.Client
	maxPages     int
	maxText      int
	allowPrivate bool
}

// SchoolWebsiteOption configures a SchoolWebsite.
type SchoolWebsiteOption func(*SchoolWebsite)

// WithMaxPages limits how many websites one call reads.
func WithMaxPages(n int) SchoolWebsiteOption {
	return func(w *SchoolWebsite) {
		if n > 0 {
			w.maxPages = n
		}
	}
}

// WithMaxText limits the page text included per website, in runes.
func WithMaxText(n int) SchoolWebsiteOption {
	return func(w *SchoolWebsite) {
		if n > 0 {
			w.maxText = n
		}
	}
}

// WithPrivateHosts lets Run follow links to loopback, private and
// link-local addresses, which are skipped otherwise.
func WithPrivateHosts() SchoolWebsiteOption {
	return func(w *SchoolWebsite) {
		w.allowPrivate = true
	}
}

// NewSchoolWebsite creates the school_website tool.
func NewSchoolWebsite(client *http.Client, opts ...SchoolWebsiteOption) *SchoolWebsite {
	if client == nil {
		client = http.DefaultClient
	}
	w := &SchoolWebsite{client: client, maxPages: defaultMaxPages, maxText: defaultMaxText}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name implements Tool.
func (w *SchoolWebsite) Name() string { return "school_website" }

// Description implements Tool.
func (w *SchoolWebsite) Description() string {
	return "Read school websites and extract contact details and links to admission and fee pages."
}

// Run implements Tool. Every http(s) link in query to a public host is a
// candidate; one page per host is read.
func (w *SchoolWebsite) Run(ctx context.Context, query string) string {
	links := findURLs(query, w.maxPages, w.allowPrivate)
	if len(links) == 0 {
		return "No school website links found in the input."
	}

	var b strings.Builder
	for i, link := range links {
		if i > 0 {
			b.WriteString("\n\n")
		}
		page, err := w.Read(ctx, link)
		if err != nil {
			fmt.Fprintf(&b, "Error reading %s: %v.", link, err)
			continue
		}
		b.WriteString(page.format(w.maxText))
	}
	return b.String()
}

// Read fetches and parses one page.
func (w *SchoolWebsite) Read(ctx context.Context, link string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &netclient.StatusError{Code: resp.StatusCode}
	}
	return ParsePage(resp.Request.URL.String(), io.LimitReader(resp.Body, maxPageSize))
}

// Page is what was extracted from one HTML page.
type Page struct {
	URL         string
	Title       string
	Description string
	// Text is the visible text with whitespace collapsed.
	Text   string
	Emails []string
	Phones []string
	// Links are same-site links whose text or path names a page of interest.
	Links []PageLink
}

// PageLink is a link with its anchor text.
type PageLink struct {
	Text string
	URL  string
}

// ParsePage extracts a Page from HTML served at baseURL.
func ParsePage(baseURL string, content io.Reader) (*Page, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	p := &Page{URL: baseURL}
	var text strings.Builder
	seen := map[string]bool{}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			case "title":
				if p.Title == "" {
					p.Title = collapse(nodeText(n))
				}
				return
			case "meta":
				name := getAttr(n, "name")
				if name == "" {
					name = getAttr(n, "property")
				}
				if (name == "description" || name == "og:description") && p.Description == "" {
					p.Description = collapse(getAttr(n, "content"))
				}
			case "a":
				href := getAttr(n, "href")
				if strings.HasPrefix(href, "mailto:") {
					text.WriteString(strings.TrimPrefix(href, "mailto:"))
					text.WriteString(" ")
				}
				if link := resolveURL(base, href); link != "" && !seen[link] {
					anchor := collapse(nodeText(n))
					if sameSite(base, link) && interesting(anchor, link) {
						seen[link] = true
						p.Links = append(p.Links, PageLink{Text: anchor, URL: link})
					}
				}
			}
		case html.TextNode:
			text.WriteString(n.Data)
			text.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	p.Text = collapse(text.String())
	p.Emails = unique(emailRegex.FindAllString(p.Text, -1), strings.ToLower)
	p.Phones = unique(phoneNumbers(p.Text), nil)
	return p, nil
}

func (p *Page) format(maxText int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Website: %s\n", p.URL)
	if p.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", p.Title)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	if len(p.Emails) > 0 {
		fmt.Fprintf(&b, "Emails: %s\n", strings.Join(p.Emails, ", "))
	}
	if len(p.Phones) > 0 {
		fmt.Fprintf(&b, "Phones: %s\n", strings.Join(p.Phones, ", "))
	}
	if len(p.Links) > 0 {
		b.WriteString("Relevant pages:\n")
		for _, l := range p.Links {
			label := l.Text
			if label == "" {
				label = l.URL
			}
			fmt.Fprintf(&b, "- %s: %s\n", label, l.URL)
		}
	}
	if p.Text != "" {
		fmt.Fprintf(&b, "Text: %s", truncate(p.Text, maxText))
	}
	return strings.TrimRight(b.String(), "\n")
}

// findURLs returns up to limit http(s) links from s, one per host. Links
// to non-public hosts are dropped unless allowPrivate is set.
func findURLs(s string, limit int, allowPrivate bool) []string {
	var links []string
	hosts := map[string]bool{}
	for _, m := range urlRegex.FindAllString(s, -1) {
		m = strings.TrimRight(m, ".;:!?*`")
		u, err := url.Parse(m)
		if err != nil || u.Host == "" || hosts[u.Host] {
			continue
		}
		if !allowPrivate && !publicHost(u.Hostname()) {
			continue
		}
		hosts[u.Host] = true
		links = append(links, m)
		if len(links) == limit {
			break
		}
	}
	return links
}

// publicHost reports whether host may be fetched. Only literal addresses
// and localhost names are judged; other names are not resolved.
func publicHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return false
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return true
	}
	return !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() &&
		!ip.IsLinkLocalUnicast() && !ip.IsLinkLocalMulticast() && !ip.IsInterfaceLocalMulticast()
}

// resolveURL resolves href against base. Non-navigational links yield "".
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	u = base.ResolveReference(u)
	u.Fragment = ""
	return u.String()
}

func sameSite(base *url.URL, link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimPrefix(u.Hostname(), "www."), strings.TrimPrefix(base.Hostname(), "www."))
}

func interesting(anchor, link string) bool {
	s := strings.ToLower(anchor + " " + link)
	for _, k := range pageKeywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// phoneNumbers keeps matches with 10 to 15 digits.
func phoneNumbers(text string) []string {
	var out []string
	for _, m := range phoneRegex.FindAllString(text, -1) {
		digits := 0
		for _, r := range m {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits >= 10 && digits <= 15 {
			out = append(out, collapse(m))
		}
	}
	return out
}

func unique(items []string, normalize func(string) string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if normalize != nil {
			s = normalize(s)
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
