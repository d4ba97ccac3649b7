package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/kiranshivaraju/hypecycle/internal/config"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
	"google.golang.org/genai"
)

// Provider implements models.LLMProvider using the Gemini API.
type Provider struct {
	cfg config.GeminiConfig
}

func NewProvider(cfg config.GeminiConfig) *Provider {
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      p.cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: p.cfg.BaseURL},
	})
	if err != nil {
		return "", fmt.Errorf("%w: creating gemini client: %v", models.ErrLLMUnavailable, err)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := client.Models.GenerateContent(ctx, p.cfg.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", models.ErrLLMTimeout, err)
		}
		return "", fmt.Errorf("%w: gemini API call failed: %v", models.ErrLLMUnavailable, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty gemini response", models.ErrLLMInvalidResponse)
	}
	return text, nil
}

var _ models.LLMProvider = (*Provider)(nil)
