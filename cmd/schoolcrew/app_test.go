package main

import (
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/schoolcrew/internal/config"
	"github.com/nao1215/schoolcrew/internal/netclient"
	"github.com/nao1215/schoolcrew/internal/tools"
)

// subcommand returns the named subcommand of a fresh root command.
func subcommand(t *testing.T, name string) (*cobra.Command, *cobra.Command) {
	t.Helper()
	root := NewRootCmd()
	cmd, _, err := root.Find([]string{name})
	if err != nil {
		t.Fatalf("Find(%s) error = %v", name, err)
	}
	return root, cmd
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".schoolcrew")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("file, env and flags in increasing precedence", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, `
llm:
  provider: openai
  model: file-model
  timeout: 30s
batch_size: 7
proxy: 127.0.0.1:1080
`)
		root, cmd := subcommand(t, "search")
		if err := root.PersistentFlags().Set("config", path); err != nil {
			t.Fatal(err)
		}
		if err := cmd.Flags().Set("timeout", "5s"); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, envMap(map[string]string{
			config.EnvModel:        "env-model",
			config.EnvOpenAIAPIKey: "sk-test",
		}))
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		if cfg.Provider != config.ProviderOpenAI {
			t.Errorf("Provider = %q, want openai from file", cfg.Provider)
		}
		if cfg.Model != "env-model" {
			t.Errorf("Model = %q, want env-model from env", cfg.Model)
		}
		if cfg.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want 5s from flag", cfg.Timeout)
		}
		if cfg.BatchSize != 7 || cfg.ProxyAddress != "127.0.0.1:1080" {
			t.Errorf("file values not applied: %+v", cfg)
		}
		if cfg.OpenAIAPIKey != "sk-test" {
			t.Error("expected API key from env")
		}
		if cfg.ConfigFilePath != path {
			t.Errorf("ConfigFilePath = %q, want %q", cfg.ConfigFilePath, path)
		}
	})

	t.Run("unchanged flags keep file values", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, "batch_size: 9\n")
		root, cmd := subcommand(t, "search")
		if err := root.PersistentFlags().Set("config", path); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, envMap(nil))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.BatchSize != 9 {
			t.Errorf("BatchSize = %d, want 9", cfg.BatchSize)
		}
	})

	t.Run("no-history flag", func(t *testing.T) {
		t.Parallel()

		root, cmd := subcommand(t, "search")
		if err := root.PersistentFlags().Set("config", writeConfigFile(t, "")); err != nil {
			t.Fatal(err)
		}
		if err := cmd.Flags().Set("no-history", "true"); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, envMap(nil))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.SaveHistory {
			t.Error("expected history to be disabled")
		}
	})

	t.Run("explicit missing config file", func(t *testing.T) {
		t.Parallel()

		root, cmd := subcommand(t, "search")
		missing := filepath.Join(t.TempDir(), "missing.yaml")
		if err := root.PersistentFlags().Set("config", missing); err != nil {
			t.Fatal(err)
		}

		_, err := buildConfig(cmd, envMap(nil))
		if err == nil || !strings.Contains(err.Error(), "configuration file not found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("invalid timeout in file", func(t *testing.T) {
		t.Parallel()

		root, cmd := subcommand(t, "search")
		if err := root.PersistentFlags().Set("config", writeConfigFile(t, "llm:\n  timeout: soon\n")); err != nil {
			t.Fatal(err)
		}

		if _, err := buildConfig(cmd, envMap(nil)); err == nil {
			t.Error("expected error for invalid timeout")
		}
	})
}

func TestNewToolRegistry(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	client, err := newHTTPClient(t.Context(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	registry := newToolRegistry(cfg, client, tools.NewLocation(client))
	for _, name := range []string{"get_current_location", "web_search", "github_profile", "school_website"} {
		if _, ok := registry.Lookup(name); !ok {
			t.Errorf("expected tool %s", name)
		}
	}
}

func TestNewHTTPClient_InvalidProxy(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.ProxyAddress = "not a proxy"
	if _, err := newHTTPClient(t.Context(), cfg); err == nil {
		t.Error("expected error for invalid proxy address")
	}
}

// fakeSOCKS5 accepts one connection and answers the method negotiation
// with reply.
func fakeSOCKS5(t *testing.T, reply []byte) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		greeting := make([]byte, 3)
		if _, err := io.ReadFull(conn, greeting); err != nil {
			return
		}
		_, _ = conn.Write(reply)
	}()
	return ln.Addr().String()
}

func TestNewHTTPClient_ChecksProxy(t *testing.T) {
	t.Parallel()

	t.Run("socks5 proxy accepted", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.ProxyAddress = fakeSOCKS5(t, []byte{0x05, 0x00})
		if _, err := newHTTPClient(t.Context(), cfg); err != nil {
			t.Errorf("newHTTPClient() error = %v", err)
		}
	})

	t.Run("not a socks5 proxy", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.ProxyAddress = fakeSOCKS5(t, []byte("HT"))
		_, err := newHTTPClient(t.Context(), cfg)
		if !errors.Is(err, netclient.ErrProxyNotSOCKS5) {
			t.Errorf("newHTTPClient() error = %v, want %v", err, netclient.ErrProxyNotSOCKS5)
		}
	})

	t.Run("nothing listening", func(t *testing.T) {
		t.Parallel()
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		addr := ln.Addr().String()
		ln.Close()

		cfg := config.NewConfig()
		cfg.ProxyAddress = addr
		if _, err := newHTTPClient(t.Context(), cfg); err == nil {
			t.Error("expected error for unreachable proxy")
		}
	})
}
