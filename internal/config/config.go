package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Supported LLM providers.
const (
	// ProviderGemini uses Google Gemini through the genai SDK.
	ProviderGemini = "gemini"
	// ProviderOpenAI uses the OpenAI chat completions API.
	ProviderOpenAI = "openai"
)

// Default configuration values.
const (
	// DefaultProvider is the LLM provider used when none is configured.
	DefaultProvider = ProviderGemini

	// DefaultGeminiModel is the model the school crew was tuned against.
	DefaultGeminiModel = "gemini-2.0-flash"

	// DefaultOpenAIModel is used when the openai provider is selected without a model.
	DefaultOpenAIModel = "gpt-4o-mini"

	// DefaultTimeout bounds a single outbound request (LLM call or tool call).
	// LLM calls on long prompts regularly take tens of seconds.
	DefaultTimeout = 60 * time.Second

	// DefaultLocationTimeout bounds each geolocation lookup.
	DefaultLocationTimeout = 10 * time.Second

	// DefaultBatchSize is the number of crews run at once for multi-location searches.
	// Kept small because every crew issues several LLM and search calls.
	DefaultBatchSize = 3

	// DefaultListenAddress is where the HTTP API listens.
	DefaultListenAddress = ":8000"

	// DefaultUserAgent identifies schoolcrew in outbound HTTP requests.
	DefaultUserAgent = "schoolcrew/1.0 (+https://github.com/nao1215/schoolcrew)"

	// DefaultHistoryLimit is the number of searches returned by the history endpoint.
	DefaultHistoryLimit = 20

	// AppName is the application name used for XDG directory paths.
	AppName = "schoolcrew"
)

// Environment variable names read by ApplyEnv.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvSerperAPIKey = "SERPER_API_KEY"
	EnvGitHubToken  = "GITHUB_TOKEN"
	EnvProvider     = "LLM_PROVIDER"
	EnvModel        = "LLM_MODEL"
	EnvProxy        = "SCHOOLCREW_PROXY"
)

// Config holds all configuration options for schoolcrew.
// It is populated once by the command layer and passed down explicitly.
type Config struct {
	// Provider is the LLM provider name (gemini or openai).
	Provider string

	// Model is the provider specific model name.
	// Empty means the provider default.
	Model string

	// GeminiAPIKey authenticates against the Gemini API.
	GeminiAPIKey string

	// OpenAIAPIKey authenticates against the OpenAI API.
	OpenAIAPIKey string

	// SerperAPIKey authenticates the web_search tool against google.serper.dev.
	SerperAPIKey string

	// GitHubToken is optional; it raises the GitHub API rate limit for the github_profile tool.
	GitHubToken string

	// Timeout bounds each LLM call and each outbound tool request.
	Timeout time.Duration

	// LocationTimeout bounds each geolocation provider request.
	LocationTimeout time.Duration

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	// When empty, outbound requests go direct.
	ProxyAddress string

	// UserAgent is sent with every outbound HTTP request.
	UserAgent string

	// ListenAddress is the address the HTTP API binds to.
	ListenAddress string

	// BatchSize bounds the number of crews running at once.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .schoolcrew is searched in the current and home directories.
	ConfigFilePath string

	// CrewFile is an optional YAML file with crew definitions that
	// replace the built-in school and github crews.
	CrewFile string

	// DBDir is the directory of the search history database.
	DBDir string

	// SaveHistory enables persisting every search to the history database.
	SaveHistory bool

	// ReportDir is where GitHub analysis reports are written and listed.
	ReportDir string

	// JSONOutput prints machine readable JSON instead of the terminal view.
	JSONOutput bool

	// MarkdownOutput prints Markdown instead of the terminal view.
	MarkdownOutput bool

	// OutputFile redirects command output to a file.
	OutputFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Provider:        DefaultProvider,
		Timeout:         DefaultTimeout,
		LocationTimeout: DefaultLocationTimeout,
		UserAgent:       DefaultUserAgent,
		ListenAddress:   DefaultListenAddress,
		BatchSize:       DefaultBatchSize,
		DBDir:           XDGDataDir(),
		SaveHistory:     true,
		ReportDir:       ".",
	}
}

// XDGDataDir returns the XDG data directory for schoolcrew.
// On Linux: ~/.local/share/schoolcrew
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for schoolcrew.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ModelName returns the configured model, or the provider default.
func (c *Config) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	if c.Provider == ProviderOpenAI {
		return DefaultOpenAIModel
	}
	return DefaultGeminiModel
}

// ApplyEnv overrides configuration values with non-empty environment variables.
// getenv is usually os.Getenv; tests pass a map lookup.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.GeminiAPIKey, EnvGeminiAPIKey)
	set(&c.OpenAIAPIKey, EnvOpenAIAPIKey)
	set(&c.SerperAPIKey, EnvSerperAPIKey)
	set(&c.GitHubToken, EnvGitHubToken)
	set(&c.Provider, EnvProvider)
	set(&c.Model, EnvModel)
	set(&c.ProxyAddress, EnvProxy)
}

// Validate checks if the configuration is valid and returns the first problem found.
// Credentials are checked separately because not every command needs them.
func (c *Config) Validate() error {
	if c.Provider != ProviderGemini && c.Provider != ProviderOpenAI {
		return ErrUnsupportedProvider
	}
	if c.Timeout <= 0 || c.LocationTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONOutput && c.MarkdownOutput {
		return ErrConflictingOutputFormats
	}
	return nil
}

// ValidateLLMKey reports whether the selected provider has an API key.
func (c *Config) ValidateLLMKey() error {
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return ErrMissingGeminiKey
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return ErrMissingOpenAIKey
		}
	default:
		return ErrUnsupportedProvider
	}
	return nil
}

// ValidateSearchKeys checks everything the school crew needs:
// an LLM key and a Serper key.
func (c *Config) ValidateSearchKeys() error {
	if c.SerperAPIKey == "" {
		return ErrMissingSerperKey
	}
	return c.ValidateLLMKey()
}
