package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and the credential checks,
// and can be matched with errors.Is().
var (
	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// The batch size bounds how many crews run at once for multi-location searches.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingOutputFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingOutputFormats = errors.New("conflicting output formats: --json and --markdown cannot be used together")

	// ErrUnsupportedProvider is returned when the LLM provider is neither gemini nor openai.
	ErrUnsupportedProvider = errors.New("unsupported LLM provider: must be gemini or openai")

	// ErrMissingGeminiKey is returned when the gemini provider is selected
	// but GEMINI_API_KEY is not set.
	ErrMissingGeminiKey = errors.New("GEMINI_API_KEY is not set")

	// ErrMissingOpenAIKey is returned when the openai provider is selected
	// but OPENAI_API_KEY is not set.
	ErrMissingOpenAIKey = errors.New("OPENAI_API_KEY is not set")

	// ErrMissingSerperKey is returned when a crew that searches the web
	// is started without SERPER_API_KEY.
	ErrMissingSerperKey = errors.New("SERPER_API_KEY is not set")
)
