// Package llm provides the language model clients used by the crew runner.
//
// A Client turns one prompt into one completion. Two providers exist:
// Gemini through google.golang.org/genai (the default) and OpenAI chat
// completions over plain HTTP. New picks one from the configuration.
package llm
