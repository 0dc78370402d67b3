// Package report loads and renders GitHub analysis reports written by the
// github crew.
//
// Crews have produced three report layouts over time. Reports live under one
// of the top-level keys skill_assessment_report, report or
// github_analysis_report, and the last uses numbered section keys. Parse
// detects the layout, and every section renderer branches on it.
//
// Writers render a Report as Markdown (MarkdownWriter), styled terminal
// output (TerminalWriter), JSON (JSONWriter) or a short summary with metric
// cards (SummaryWriter).
package report
