// Package schools turns the free-form output of the school crew into a
// table of schools, summarizes it and exports it as CSV or Markdown.
//
// The crew is asked for a fenced JSON array, but models do not always comply.
// Extract therefore falls back to pipe-delimited lines when no JSON array is
// present.
package schools
