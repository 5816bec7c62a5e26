package providers

import (
	"context"
	"groupchat/errors"
	"strings"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider answers assistant questions through the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.ErrProviderNotConfigured
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, failure("create gemini client: %v", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Fetch(ctx context.Context, query string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(Persona, genai.RoleUser),
		Temperature:       genai.Ptr[float32](aiTemperature),
		MaxOutputTokens:   aiMaxTokens,
	}
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(query), config)
	if err != nil {
		return "", failure("gemini: %v", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", failure("empty gemini answer")
	}
	return text, nil
}
