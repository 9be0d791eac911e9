package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// geminiProvider calls the Gemini generateContent API.
type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGeminiProvider(cfg Config) (*geminiProvider, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &geminiProvider{client: client, model: cfg.ModelName()}, nil
}

func (p *geminiProvider) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperature)),
		MaxOutputTokens: int32(maxTokens),
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (p *geminiProvider) Name() string {
	return fmt.Sprintf("%s:%s", ProviderGemini, p.model)
}
