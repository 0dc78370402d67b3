package report

import "strings"

// fences are the code fence pairs models wrap JSON in, tried in order.
var fences = []struct {
	open  string
	close string
}{
	{"```json\n", "\n```"},
	{"```\n", "\n```"},
	{"````json\n", "\n````"},
	{"````\n", "\n````"},
}

// StripFences trims content and removes the first matching pair of
// surrounding code fences. Content without fences is returned trimmed.
func StripFences(content string) string {
	content = strings.TrimSpace(content)
	for _, f := range fences {
		if !strings.HasPrefix(content, f.open) || !strings.HasSuffix(content, f.close) {
			continue
		}
		// The markers may share the newline, as in "```json\n```".
		if len(content) < len(f.open)+len(f.close) {
			return ""
		}
		return strings.TrimSpace(content[len(f.open) : len(content)-len(f.close)])
	}
	return content
}
