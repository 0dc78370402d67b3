// Package model defines the data structures shared by the API, the crew
// runner, the renderers and the history store.
//
// The main types are:
//   - SearchRequest / SearchResponse: the school search API contract
//   - CrewResult: the outcome of one crew kickoff
//   - SchoolTable: schools extracted from a crew result
//   - SearchRecord: one persisted search
//   - ReportVariant: the schema family of a GitHub analysis report
//
// Keeping them here lets api, crew, render and database depend on one
// package instead of on each other.
package model
