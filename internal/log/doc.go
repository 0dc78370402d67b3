// Package log builds the slog loggers used by schoolcrew.
//
// Every logger returned here wraps its handler in a SecureHandler, which
// masks API keys before a record is written. schoolcrew handles three or four
// provider credentials (Gemini, OpenAI, Serper, GitHub) and logs outbound
// requests in verbose mode, so masking happens at the handler rather than
// at each call site.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//	logger.Debug("calling serper", "x-api-key", key) // x-api-key=***REDACTED***
package log
