package llm

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/kukucorn/ai-running-coach/internal/config"
)

// Factory creates LLM clients from configuration.
type Factory struct {
	APIKey           string
	BaseURL          string
	Model            string
	YandexOAuthToken string
	YandexFolderID   string
	HTTPClient       *http.Client
}

func NewFactory(cfg *config.Config, httpClient *http.Client) *Factory {
	return &Factory{
		APIKey:           cfg.AIAPIKey,
		BaseURL:          cfg.AIBaseURL,
		Model:            cfg.AIModel,
		YandexOAuthToken: cfg.YandexOAuthToken,
		YandexFolderID:   cfg.YandexFolderID,
		HTTPClient:       httpClient,
	}
}

func (f *Factory) CreateClient(provider string) (Client, error) {
	switch config.LLMProvider(strings.ToLower(provider)) {
	case config.ProviderOpenAI:
		if f.Model == "" {
			return nil, fmt.Errorf("model is required for provider %s", provider)
		}
		return NewOpenAI(f.APIKey, f.BaseURL, f.Model, f.HTTPClient), nil
	case config.ProviderYandex:
		c, err := NewYandex(f.YandexOAuthToken, f.YandexFolderID)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}
