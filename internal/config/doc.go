// Package config provides the configuration for schoolcrew.
// It holds the LLM provider settings, API credentials, outbound HTTP
// settings, the HTTP API listen address and the history store location.
//
// Values are resolved from defaults, an optional .schoolcrew YAML file,
// environment variables and command line flags, in increasing precedence.
package config
