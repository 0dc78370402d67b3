package report

import (
	"io"
	"path/filepath"

	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(r *Report) (int, error) {
	md := markdown.NewMarkdown(w.output)
	buildMarkdown(md, r)
	return len(md.String()), md.Build()
}

// Markdown returns the full report as a Markdown document.
func Markdown(r *Report) string {
	md := markdown.NewMarkdown(io.Discard)
	buildMarkdown(md, r)
	return md.String()
}

func buildMarkdown(md *markdown.Markdown, r *Report) {
	writeHeader(md, r)
	writeSections(md, r)
	writeFooter(md)
}

// writeHeader writes the report title and a table describing its source.
func writeHeader(md *markdown.Markdown, r *Report) {
	md.H1("GitHub Developer Analysis")
	md.PlainText("")

	if !r.HasData() {
		return
	}

	rows := [][]string{
		{"Developer", r.DeveloperName()},
		{"Report Format", r.Variant.String()},
	}
	if r.Path != "" {
		rows = append(rows, []string{"Source", "`" + filepath.Base(r.Path) + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report rendered by [schoolcrew](https://github.com/nao1215/schoolcrew)*")
}
