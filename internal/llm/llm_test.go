package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nao1215/schoolcrew/internal/config"
)

func TestFunc(t *testing.T) {
	t.Parallel()

	var c Client = Func(func(_ context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	})
	got, err := c.Chat(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if got != "echo: hi" {
		t.Errorf("Chat() = %q", got)
	}
	if c.Model() != "func" {
		t.Errorf("Model() = %q", c.Model())
	}
}

func TestOpenAIChat(t *testing.T) {
	t.Parallel()

	t.Run("returns first choice", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" {
				t.Errorf("path = %q", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer sk-test" {
				t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
			}
			var req chatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode: %v", err)
			}
			if req.Model != "gpt-test" || len(req.Messages) != 1 || req.Messages[0].Content != "find schools" {
				t.Errorf("unexpected request: %+v", req)
			}
			_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"  three schools  "}}]}`)
		}))
		defer srv.Close()

		c, err := NewOpenAI("sk-test", "gpt-test", srv.URL+"/", srv.Client())
		if err != nil {
			t.Fatal(err)
		}
		got, err := c.Chat(context.Background(), "find schools")
		if err != nil {
			t.Fatal(err)
		}
		if got != "three schools" {
			t.Errorf("Chat() = %q", got)
		}
	})

	t.Run("no choices is an empty response", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"choices":[]}`)
		}))
		defer srv.Close()

		c, err := NewOpenAI("sk-test", "gpt-test", srv.URL, srv.Client())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := c.Chat(context.Background(), "x"); !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("expected ErrEmptyResponse, got %v", err)
		}
	})

	t.Run("http error is wrapped", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "quota", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c, err := NewOpenAI("sk-test", "gpt-test", srv.URL, srv.Client())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := c.Chat(context.Background(), "x"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()
		if _, err := NewOpenAI("", "gpt-test", "", nil); !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("expected ErrMissingAPIKey, got %v", err)
		}
	})
}

func TestNewGemini(t *testing.T) {
	t.Parallel()

	if _, err := NewGemini(context.Background(), "", "gemini-2.0-flash", nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}

	g, err := NewGemini(context.Background(), "test-key", "gemini-2.0-flash", nil)
	if err != nil {
		t.Fatal(err)
	}
	if g.Model() != "gemini-2.0-flash" {
		t.Errorf("Model() = %q", g.Model())
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       *config.Config
		wantModel string
		wantErr   error
	}{
		{
			name:      "gemini default model",
			cfg:       &config.Config{Provider: config.ProviderGemini, GeminiAPIKey: "k"},
			wantModel: config.DefaultGeminiModel,
		},
		{
			name:      "openai with explicit model",
			cfg:       &config.Config{Provider: config.ProviderOpenAI, OpenAIAPIKey: "k", Model: "gpt-4o"},
			wantModel: "gpt-4o",
		},
		{
			name:    "gemini without key",
			cfg:     &config.Config{Provider: config.ProviderGemini},
			wantErr: ErrMissingAPIKey,
		},
		{
			name:    "unknown provider",
			cfg:     &config.Config{Provider: "bard"},
			wantErr: config.ErrUnsupportedProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := New(context.Background(), tt.cfg, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if c.Model() != tt.wantModel {
				t.Errorf("Model() = %q, want %q", c.Model(), tt.wantModel)
			}
		})
	}
}
