package providers

import (
	"context"

	"github.com/Parokor/a0-core-agent/pkg/config"
)

// claudeproxyConfidence è la confidence attribuita alle risposte del proxy
const claudeproxyConfidence = 0.85

// ClaudeProxyProvider è l'adapter per un gateway OpenAI-compatibile che
// espone modelli Claude. È disabilitato di default e partecipa al routing
// come qualunque altro provider quando viene abilitato.
type ClaudeProxyProvider struct {
	*BaseProvider
}

// NewClaudeProxyProvider crea un nuovo provider per il proxy Claude
func NewClaudeProxyProvider(cfg config.ProviderConfig) *ClaudeProxyProvider {
	model := cfg.Models["default"]
	if model == "" {
		model = cfg.Model
	}
	if model == "" {
		model = "claude-3-sonnet-via-groq"
	}

	return &ClaudeProxyProvider{
		BaseProvider: NewBaseProvider("claudeproxy", cfg, map[TaskType]string{}, model),
	}
}

// Initialize inizializza il provider e imposta il flag di availability
func (p *ClaudeProxyProvider) Initialize(ctx context.Context) bool {
	return p.initialize(ctx, p.TestConnection)
}

// TestConnection verifica la raggiungibilità del gateway
func (p *ClaudeProxyProvider) TestConnection(ctx context.Context) bool {
	return p.probeModels(ctx)
}

// GenerateResponse esegue una chat completion attraverso il gateway
func (p *ClaudeProxyProvider) GenerateResponse(ctx context.Context, prompt string, task TaskType, opts *Options) Response {
	req := p.buildChatRequest(prompt, task, opts)
	return p.chatComplete(ctx, req, claudeproxyConfidence)
}
