package providers

import (
	"context"

	"github.com/Parokor/a0-core-agent/pkg/config"
)

// groqConfidence è la confidence attribuita alle risposte Groq
const groqConfidence = 0.9

// GroqProvider è l'adapter per l'API Groq (OpenAI-compatibile).
// È il provider primario per query veloci e amministrazione di sistema.
type GroqProvider struct {
	*BaseProvider
}

// NewGroqProvider crea un nuovo provider Groq
func NewGroqProvider(cfg config.ProviderConfig) *GroqProvider {
	fast := cfg.Models["fast"]
	if fast == "" {
		fast = "llama-3.3-70b-versatile"
	}
	reasoning := cfg.Models["reasoning"]
	if reasoning == "" {
		reasoning = fast
	}
	code := cfg.Models["code"]
	if code == "" {
		code = fast
	}

	models := map[TaskType]string{
		TaskFastQuery:      fast,
		TaskSystemAdmin:    fast,
		TaskGeneral:        fast,
		TaskProblemSolving: reasoning,
		TaskCodeAnalysis:   code,
		TaskCodeGeneration: code,
		TaskWebAutomation:  fast,
	}

	return &GroqProvider{
		BaseProvider: NewBaseProvider("groq", cfg, models, fast),
	}
}

// Initialize inizializza il provider e imposta il flag di availability
func (p *GroqProvider) Initialize(ctx context.Context) bool {
	return p.initialize(ctx, p.TestConnection)
}

// TestConnection verifica la raggiungibilità dell'API Groq
func (p *GroqProvider) TestConnection(ctx context.Context) bool {
	return p.probeModels(ctx)
}

// GenerateResponse esegue una chat completion su Groq
func (p *GroqProvider) GenerateResponse(ctx context.Context, prompt string, task TaskType, opts *Options) Response {
	req := p.buildChatRequest(prompt, task, opts)
	return p.chatComplete(ctx, req, groqConfidence)
}
