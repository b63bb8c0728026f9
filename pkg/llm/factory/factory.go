package factory

import (
	"fmt"

	"docchat-be/pkg/llm"
	"docchat-be/pkg/llm/ollama"
	"docchat-be/pkg/llm/openai"
)

type ProviderConfig struct {
	Provider    string // "openai" or "ollama"
	BaseURL     string // ollama only
	APIKey      string // openai only
	ModelName   string
	VisionModel string
}

// NewLLMProvider selects the chat backend by name.
func NewLLMProvider(cfg ProviderConfig) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewOllamaProvider(cfg.BaseURL, cfg.ModelName), nil
	case "openai":
		return openai.NewOpenAIProvider(cfg.APIKey, cfg.ModelName, cfg.VisionModel), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}

// NewVisionProvider selects the image-description backend by name.
func NewVisionProvider(cfg ProviderConfig) (llm.VisionProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewOllamaProvider(cfg.BaseURL, cfg.VisionModel), nil
	case "openai":
		return openai.NewOpenAIProvider(cfg.APIKey, cfg.ModelName, cfg.VisionModel), nil
	default:
		return nil, fmt.Errorf("unsupported vision provider: %s", cfg.Provider)
	}
}
