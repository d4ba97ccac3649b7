package ai

import (
	"fmt"

	"github.com/kiranshivaraju/hypecycle/internal/ai/anthropic"
	"github.com/kiranshivaraju/hypecycle/internal/ai/gemini"
	"github.com/kiranshivaraju/hypecycle/internal/ai/ollama"
	"github.com/kiranshivaraju/hypecycle/internal/ai/openai"
	"github.com/kiranshivaraju/hypecycle/internal/config"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

// NewProvider constructs the appropriate LLM provider based on config.
// Called once at server startup.
func NewProvider(cfg config.AIConfig) (models.LLMProvider, error) {
	switch cfg.Provider {
	case "deepseek":
		return openai.NewProvider("deepseek", cfg.DeepSeek), nil
	case "openai":
		return openai.NewProvider("openai", cfg.OpenAI), nil
	case "vllm":
		return openai.NewProvider("vllm", cfg.VLLM), nil
	case "ollama":
		return ollama.NewProvider(cfg.Ollama), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic), nil
	case "gemini":
		return gemini.NewProvider(cfg.Gemini), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of deepseek, openai, vllm, ollama, anthropic, gemini", cfg.Provider)
	}
}
