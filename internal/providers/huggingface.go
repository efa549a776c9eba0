package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Parokor/a0-core-agent/pkg/config"
	"github.com/rs/zerolog/log"
)

// huggingfaceConfidence è la confidence attribuita alle risposte HuggingFace
const huggingfaceConfidence = 0.7

// HuggingFaceProvider è l'adapter per la Inference API di HuggingFace.
// È uno specialista: serve esclusivamente task di web automation con un
// modello conversazionale leggero.
type HuggingFaceProvider struct {
	*BaseProvider
}

// hfRequest è il payload della Inference API
type hfRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		MaxNewTokens int      `json:"max_new_tokens,omitempty"`
		Temperature  *float64 `json:"temperature,omitempty"`
		ReturnFull   bool     `json:"return_full_text"`
	} `json:"parameters"`
}

// hfGenerated è un elemento della risposta della Inference API
type hfGenerated struct {
	GeneratedText string `json:"generated_text"`
}

// NewHuggingFaceProvider crea un nuovo provider HuggingFace
func NewHuggingFaceProvider(cfg config.ProviderConfig) *HuggingFaceProvider {
	browserModel := cfg.Models["browser_use"]
	if browserModel == "" {
		browserModel = "microsoft/DialoGPT-medium"
	}

	models := map[TaskType]string{
		TaskWebAutomation: browserModel,
	}

	return &HuggingFaceProvider{
		BaseProvider: NewBaseProvider("huggingface", cfg, models, browserModel),
	}
}

// Initialize inizializza il provider e imposta il flag di availability
func (p *HuggingFaceProvider) Initialize(ctx context.Context) bool {
	return p.initialize(ctx, p.TestConnection)
}

// TestConnection verifica la raggiungibilità del modello sulla
// Inference API
func (p *HuggingFaceProvider) TestConnection(ctx context.Context) bool {
	if p.client == nil {
		return false
	}

	resp, err := p.client.R().
		SetContext(ctx).
		Get("/models/" + p.defaultModel)
	if err != nil {
		log.Debug().Err(err).Str("provider", p.name).Msg("Connectivity probe failed")
		return false
	}

	// 503 significa modello in caricamento: il backend è raggiungibile
	return resp.IsSuccess() || resp.StatusCode() == 503
}

// GenerateResponse esegue una inference sul modello di web automation.
// Gli altri task type vengono rifiutati senza chiamate di rete.
func (p *HuggingFaceProvider) GenerateResponse(ctx context.Context, prompt string, task TaskType, opts *Options) Response {
	start := time.Now()

	if task != TaskWebAutomation {
		return NewFailure(p.name, p.defaultModel, time.Since(start),
			fmt.Errorf("%w: %s (huggingface serves web_automation only)", ErrUnsupportedTaskType, task))
	}

	if err := p.waitQuota(ctx); err != nil {
		return NewFailure(p.name, p.defaultModel, time.Since(start), fmt.Errorf("rate limit wait: %w", err))
	}

	var req hfRequest
	req.Inputs = prompt
	if opts != nil {
		req.Parameters.MaxNewTokens = opts.MaxTokens
		req.Parameters.Temperature = opts.Temperature
	}
	if req.Parameters.MaxNewTokens <= 0 {
		req.Parameters.MaxNewTokens = p.cfg.MaxTokens
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/models/" + p.defaultModel)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().Err(err).Str("provider", p.name).Msg("Inference request failed")
		return NewFailure(p.name, p.defaultModel, elapsed, err)
	}

	if resp.IsError() {
		return NewFailure(p.name, p.defaultModel, elapsed, fmt.Errorf("API error: %s", resp.Status()))
	}

	var parsed []hfGenerated
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return NewFailure(p.name, p.defaultModel, elapsed, fmt.Errorf("malformed response: %w", err))
	}
	if len(parsed) == 0 || parsed[0].GeneratedText == "" {
		return NewFailure(p.name, p.defaultModel, elapsed, fmt.Errorf("empty inference result"))
	}

	// La Inference API non riporta l'usage dei token
	return NewSuccess(p.name, p.defaultModel, parsed[0].GeneratedText, elapsed, 0, huggingfaceConfidence)
}
