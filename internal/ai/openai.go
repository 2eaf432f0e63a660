package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// OpenAIProvider talks to any OpenAI-compatible /chat/completions endpoint
// (OpenAI itself, OpenRouter).
type OpenAIProvider struct {
	ProviderName string
	BaseURL      string
	APIKey       string
	Model        string
	Options      Options
	// Headers are sent verbatim, e.g. OpenRouter's HTTP-Referer and X-Title.
	Headers map[string]string
	Client  *http.Client
}

type openAIMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatReq struct {
	Model          string                `json:"model"`
	Messages       []openAIMsg           `json:"messages"`
	Temperature    float64               `json:"temperature"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
	Stream         bool                  `json:"stream"`
}

type openAIChatResp struct {
	Choices []struct {
		Message openAIMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenAIProvider(baseURL, apiKey, model string, opts Options) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		ProviderName: "openai",
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		Options:      opts,
		Client:       defaultClient(),
	}
}

func NewOpenRouterProvider(baseURL, apiKey, model, siteURL, appName string, opts Options) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	p := NewOpenAIProvider(baseURL, apiKey, model, opts)
	p.ProviderName = "openrouter"
	p.Headers = map[string]string{}
	if siteURL != "" {
		p.Headers["HTTP-Referer"] = siteURL
	}
	if appName != "" {
		p.Headers["X-Title"] = appName
	}
	return p
}

func (p *OpenAIProvider) Name() string { return p.ProviderName }

func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if p.Client == nil {
		return "", fmt.Errorf("%s: http client is nil", p.ProviderName)
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return "", fmt.Errorf("%s: api key is required", p.ProviderName)
	}
	model := strings.TrimSpace(p.Model)
	if model == "" {
		return "", fmt.Errorf("%s: model is required", p.ProviderName)
	}

	reqBody := openAIChatReq{
		Model:       model,
		Temperature: p.Options.Temperature,
		MaxTokens:   p.Options.MaxTokens,
		Stream:      false,
		Messages: func() []openAIMsg {
			out := make([]openAIMsg, 0, len(messages))
			for _, m := range messages {
				out = append(out, openAIMsg{Role: m.Role, Content: m.Content})
			}
			return out
		}(),
	}
	if p.Options.JSONOutput {
		reqBody.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s: status %d: %s", p.ProviderName, resp.StatusCode, readErrorBody(resp))
	}

	var decoded openAIChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", p.ProviderName, err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", fmt.Errorf("%s: %s", p.ProviderName, decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%s: %w", p.ProviderName, ErrEmptyResponse)
	}
	return decoded.Choices[0].Message.Content, nil
}
