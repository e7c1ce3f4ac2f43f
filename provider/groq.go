package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tnqbao/gau-3d-forge/config"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

type GroqProvider struct {
	APIKey       string
	DefaultModel string
	BaseURL      string
	client       *http.Client
}

func NewGroqProvider(cfg *config.EnvConfig) *GroqProvider {
	return &GroqProvider{
		APIKey:       cfg.LLM.GroqAPIKey,
		DefaultModel: cfg.LLM.GroqDefaultModel,
		BaseURL:      groqBaseURL,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *GroqProvider) Name() string {
	return "groq"
}

type groqChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqChatRequest struct {
	Model       string            `json:"model"`
	Messages    []groqChatMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
	TopP        float64           `json:"top_p"`
}

type groqChatResponse struct {
	Choices []struct {
		Message groqChatMessage `json:"message"`
	} `json:"choices"`
}

func (p *GroqProvider) Enhance(ctx context.Context, prompt, model string) (string, string, error) {
	if p.APIKey == "" {
		return "", "", fmt.Errorf("groq API key not configured")
	}

	if model == "" {
		model = p.DefaultModel
	}

	body, err := json.Marshal(groqChatRequest{
		Model: model,
		Messages: []groqChatMessage{
			{Role: "system", Content: enhancementSystemPrompt},
			{Role: "user", Content: "Enhance this 3D object description: " + prompt},
		},
		Temperature: 0.7,
		MaxTokens:   256,
		TopP:        0.9,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("groq returned %d: %s", resp.StatusCode, string(raw))
	}

	var result groqChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", "", fmt.Errorf("groq returned no choices")
	}

	enhanced := strings.TrimSpace(result.Choices[0].Message.Content)
	if enhanced == "" {
		enhanced = prompt
	}

	return enhanced, model, nil
}

func (p *GroqProvider) IsAvailable(ctx context.Context) bool {
	return p.APIKey != ""
}
