package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".schoolcrew"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .schoolcrew configuration file.
// API keys are deliberately absent; they are read from the environment only.
type File struct {
	LLM     LLMSection     `yaml:"llm,omitempty"`
	Server  ServerSection  `yaml:"server,omitempty"`
	History HistorySection `yaml:"history,omitempty"`

	// Proxy is a SOCKS5 proxy address in "host:port" form.
	Proxy string `yaml:"proxy,omitempty"`

	// CrewFile points at a YAML file with custom crew definitions.
	CrewFile string `yaml:"crew_file,omitempty"`

	// ReportDir is where GitHub analysis reports live.
	ReportDir string `yaml:"report_dir,omitempty"`

	// BatchSize bounds concurrent crews.
	BatchSize int `yaml:"batch_size,omitempty"`
}

// LLMSection configures the language model.
type LLMSection struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	// Timeout uses Go duration syntax, e.g. "90s".
	Timeout string `yaml:"timeout,omitempty"`
}

// ServerSection configures the HTTP API.
type ServerSection struct {
	Listen string `yaml:"listen,omitempty"`
}

// HistorySection configures the search history store.
type HistorySection struct {
	// Enabled is a pointer so that an explicit false can be told apart from unset.
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply copies every value set in the file into the configuration.
// Unset file values leave the current configuration untouched.
func (c *Config) Apply(f *File) error {
	if f == nil {
		return nil
	}
	if f.LLM.Provider != "" {
		c.Provider = f.LLM.Provider
	}
	if f.LLM.Model != "" {
		c.Model = f.LLM.Model
	}
	if f.LLM.Timeout != "" {
		d, err := time.ParseDuration(f.LLM.Timeout)
		if err != nil {
			return errors.Join(ErrInvalidTimeout, err)
		}
		c.Timeout = d
	}
	if f.Server.Listen != "" {
		c.ListenAddress = f.Server.Listen
	}
	if f.History.Enabled != nil {
		c.SaveHistory = *f.History.Enabled
	}
	if f.History.Dir != "" {
		c.DBDir = f.History.Dir
	}
	if f.Proxy != "" {
		c.ProxyAddress = f.Proxy
	}
	if f.CrewFile != "" {
		c.CrewFile = f.CrewFile
	}
	if f.ReportDir != "" {
		c.ReportDir = f.ReportDir
	}
	if f.BatchSize != 0 {
		c.BatchSize = f.BatchSize
	}
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .schoolcrew in the current directory
// 3. Look for .schoolcrew in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
