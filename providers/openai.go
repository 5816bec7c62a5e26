package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const (
	DefaultAIModel = "Qwen/Qwen2.5-7B-Instruct"

	aiMaxTokens   = 300
	aiTemperature = 0.7
)

// Persona is the system prompt of the campus assistant.
const Persona = "你是一个名叫“川小农”的AI助手，你是四川农业大学的专属助手。你热爱四川农业大学，对学校的历史、文化、校园生活非常了解。" +
	"你的回答风格应该是热情、友好、积极向上的。你的核心职责是提供关于四川农业大学的准确信息。" +
	"当用户提及或询问其他大学时，你必须委婉地拒绝回答，并立即将话题引导回四川农业大学。"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// OpenAIProvider talks to any OpenAI compatible chat completions endpoint.
type OpenAIProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewOpenAIProvider(client *http.Client, baseURL, apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = DefaultAIModel
	}
	return &OpenAIProvider{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

func (p *OpenAIProvider) Fetch(ctx context.Context, query string) (string, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: Persona},
			{Role: "user", Content: query},
		},
		MaxTokens:   aiMaxTokens,
		Temperature: aiTemperature,
	})
	if err != nil {
		return "", failure("encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", failure("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	body, err := fetch(p.client, req)
	if err != nil {
		return "", err
	}
	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", failure("decode response: %v", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", failure("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
