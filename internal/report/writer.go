package report

import (
	"io"
)

// Writer renders a report to some destination.
type Writer interface {
	// Write renders the report and returns the number of bytes written.
	Write(r *Report) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// It is used to print a report and save its Markdown at the same time.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the report with every Writer and returns the total bytes
// written. It stops at the first error.
func (m *MultiWriter) Write(r *Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(r)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
