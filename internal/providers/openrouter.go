package providers

import (
	"context"

	"github.com/Parokor/a0-core-agent/pkg/config"
)

// openrouterConfidence è la confidence attribuita alle risposte OpenRouter
const openrouterConfidence = 0.85

// OpenRouterProvider è l'adapter per OpenRouter (OpenAI-compatibile).
// OpenRouter richiede gli header HTTP-Referer e X-Title per attribuire
// il traffico all'applicazione.
type OpenRouterProvider struct {
	*BaseProvider
}

// NewOpenRouterProvider crea un nuovo provider OpenRouter
func NewOpenRouterProvider(cfg config.ProviderConfig) *OpenRouterProvider {
	reasoning := cfg.Models["kimi_k2"]
	if reasoning == "" {
		reasoning = "moonshot/moonshot-v1-32k"
	}
	deepseek := cfg.Models["deepseek"]
	if deepseek == "" {
		deepseek = reasoning
	}

	models := map[TaskType]string{
		TaskProblemSolving: reasoning,
		TaskCodeAnalysis:   deepseek,
		TaskCodeGeneration: deepseek,
	}

	return &OpenRouterProvider{
		BaseProvider: NewBaseProvider("openrouter", cfg, models, reasoning),
	}
}

// Initialize inizializza il provider e imposta il flag di availability
func (p *OpenRouterProvider) Initialize(ctx context.Context) bool {
	return p.initialize(ctx, func(ctx context.Context) bool {
		p.client.
			SetHeader("HTTP-Referer", "https://github.com/Parokor/a0-core-agent").
			SetHeader("X-Title", "Agent Zero Core")
		return p.TestConnection(ctx)
	})
}

// TestConnection verifica la raggiungibilità dell'API OpenRouter
func (p *OpenRouterProvider) TestConnection(ctx context.Context) bool {
	return p.probeModels(ctx)
}

// GenerateResponse esegue una chat completion su OpenRouter
func (p *OpenRouterProvider) GenerateResponse(ctx context.Context, prompt string, task TaskType, opts *Options) Response {
	req := p.buildChatRequest(prompt, task, opts)
	return p.chatComplete(ctx, req, openrouterConfidence)
}
