// Package main provides the entry point for the schoolcrew CLI.
//
// schoolcrew runs AI agent crews that find and compare schools for a
// location, grade and curriculum, and that analyze GitHub developer
// profiles into structured hiring reports.
//
// Usage:
//
//	schoolcrew search --location Mumbai --grade "5th Grade" --curriculum ICSE
//	schoolcrew serve
//	schoolcrew analyze <github-username>
//	schoolcrew report view <report.json>
//
// See --help for all available options.
package main

// main is the entry point for schoolcrew.
func main() {
	Execute()
}
