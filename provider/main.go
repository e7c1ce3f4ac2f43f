package provider

import (
	"context"

	"github.com/tnqbao/gau-3d-forge/config"
)

// Enhancer is the prompt-enhancement capability. Implementations may fail;
// callers that treat enhancement as optional absorb the error and keep the
// original prompt.
type Enhancer interface {
	Name() string
	Enhance(ctx context.Context, prompt, model string) (enhanced string, modelUsed string, err error)
	IsAvailable(ctx context.Context) bool
}

const enhancementSystemPrompt = `You are an expert 3D object description enhancer. Your task is to transform simple user prompts into detailed, precise descriptions optimized for 3D object generation.

For any input prompt, enhance it by adding:
1. Geometric details: precise shape characteristics, proportions, dimensions
2. Material properties: texture type, surface finish (glossy, matte, rough, smooth)
3. Material composition: specific materials (oak wood, brushed aluminum, ceramic, etc.)
4. Visual details: colors, patterns, decorative elements, design style
5. Physical properties: reflectivity, transparency, roughness values
6. Structural details: key components, assembly, parts relationship
7. Scale/size references: relative or absolute measurements
8. Artistic style: realism level, art movement, design era

Keep the enhanced prompt concise (2-4 sentences) but information-dense. Focus on details that help 3D generation models understand the object's structure, appearance, and materials.

Output ONLY the enhanced prompt, nothing else. Do not include any explanations or additional text.`

type Provider struct {
	Ollama *OllamaProvider
	Groq   *GroqProvider
}

var providerInstance *Provider

func InitProvider(cfg *config.EnvConfig) *Provider {
	if providerInstance != nil {
		return providerInstance
	}

	providerInstance = &Provider{
		Ollama: NewOllamaProvider(cfg),
		Groq:   NewGroqProvider(cfg),
	}

	return providerInstance
}

// ForName selects the enhancer matching the request's llm_provider field.
// Unknown or empty names fall back to Ollama.
func (p *Provider) ForName(name string) Enhancer {
	if name == "groq" {
		return p.Groq
	}
	return p.Ollama
}

// All returns every configured enhancer, for availability reporting.
func (p *Provider) All() []Enhancer {
	return []Enhancer{p.Ollama, p.Groq}
}
