// Package tools provides the tools crew agents can call: IP geolocation,
// web search through Serper, a school website reader and a GitHub profile
// collector.
//
// A tool never returns an error. Its output is pasted into an LLM prompt,
// so failures are described in plain text the model can act on.
package tools
