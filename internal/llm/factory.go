package llm

import (
	"context"
	"net/http"

	"github.com/nao1215/schoolcrew/internal/config"
)

// New builds the client selected by cfg.Provider.
// httpClient is shared with the tools so proxy settings apply to LLM calls too.
func New(ctx context.Context, cfg *config.Config, httpClient *http.Client) (Client, error) {
	switch cfg.Provider {
	case config.ProviderGemini, "":
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.ModelName(), httpClient)
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.ModelName(), "", httpClient)
	default:
		return nil, config.ErrUnsupportedProvider
	}
}
