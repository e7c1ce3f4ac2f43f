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

type OllamaProvider struct {
	BaseURL      string
	DefaultModel string
	client       *http.Client
}

func NewOllamaProvider(cfg *config.EnvConfig) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:      cfg.LLM.OllamaBaseURL,
		DefaultModel: cfg.LLM.OllamaDefaultModel,
		client:       &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

type ollamaGenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

func (p *OllamaProvider) Enhance(ctx context.Context, prompt, model string) (string, string, error) {
	if model == "" {
		model = p.DefaultModel
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  model,
		Prompt: fmt.Sprintf("%s\n\nOriginal prompt: %s\n\nEnhanced prompt:", enhancementSystemPrompt, prompt),
		Stream: false,
		Options: map[string]interface{}{
			"temperature": 0.7,
			"top_p":       0.9,
			"num_predict": 256,
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/generate", bytes.NewBuffer(body))
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode, string(raw))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", fmt.Errorf("failed to decode response: %w", err)
	}

	enhanced := strings.TrimSpace(result.Response)
	if enhanced == "" {
		enhanced = prompt
	}

	return enhanced, model, nil
}

func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
