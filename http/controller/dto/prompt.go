package dto

// PromptEnhanceRequestDTO is the JSON body of POST /prompts/enhance.
type PromptEnhanceRequestDTO struct {
	Prompt   string `json:"prompt" binding:"required"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type PromptEnhanceResponseDTO struct {
	OriginalPrompt string `json:"original_prompt"`
	EnhancedPrompt string `json:"enhanced_prompt"`
	Provider       string `json:"provider"`
	ModelUsed      string `json:"model_used"`
}

type ProviderStatusDTO struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

type ProviderListResponseDTO struct {
	Providers []ProviderStatusDTO `json:"providers"`
}
