package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
)

// DefaultWordWrap is the column width used by the terminal writer.
const DefaultWordWrap = 100

// TerminalWriter renders the Markdown report with ANSI styling.
type TerminalWriter struct {
	baseWriter

	style    string
	wordWrap int
}

// TerminalWriterOption configures a TerminalWriter.
type TerminalWriterOption func(*TerminalWriter)

// WithStyle selects a glamour style such as "dark", "light" or "notty".
// The default picks one from the terminal background.
func WithStyle(style string) TerminalWriterOption {
	return func(w *TerminalWriter) {
		w.style = style
	}
}

// WithWordWrap sets the wrap column.
func WithWordWrap(width int) TerminalWriterOption {
	return func(w *TerminalWriter) {
		if width > 0 {
			w.wordWrap = width
		}
	}
}

// NewTerminalWriter creates a TerminalWriter that outputs to the given writer.
func NewTerminalWriter(output io.Writer, opts ...TerminalWriterOption) *TerminalWriter {
	w := &TerminalWriter{
		baseWriter: newBaseWriter(output),
		wordWrap:   DefaultWordWrap,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders the report for the terminal.
func (w *TerminalWriter) Write(r *Report) (int, error) {
	out, err := RenderTerminal(Markdown(r), w.style, w.wordWrap)
	if err != nil {
		return 0, err
	}
	return io.WriteString(w.output, out)
}

// RenderTerminal renders any Markdown document with glamour.
// An empty style picks one from the terminal background.
func RenderTerminal(md, style string, wordWrap int) (string, error) {
	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStylePath(style)
	}

	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(wordWrap))
	if err != nil {
		return "", fmt.Errorf("failed to create terminal renderer: %w", err)
	}

	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
