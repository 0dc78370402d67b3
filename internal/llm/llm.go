package llm

import (
	"context"
	"errors"
)

var (
	// ErrEmptyResponse is returned when the provider answers without any text.
	ErrEmptyResponse = errors.New("empty response from language model")

	// ErrMissingAPIKey is returned when a provider is built without a key.
	ErrMissingAPIKey = errors.New("missing API key")
)

// Client is a single-turn language model.
type Client interface {
	// Chat sends prompt and returns the model's text answer.
	Chat(ctx context.Context, prompt string) (string, error)
	// Model returns the model name, used in logs and history.
	Model() string
}

// Func adapts an ordinary function to the Client interface.
// The model name is reported as "func".
type Func func(ctx context.Context, prompt string) (string, error)

// Chat calls f(ctx, prompt).
func (f Func) Chat(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Model implements Client.
func (f Func) Model() string {
	return "func"
}
