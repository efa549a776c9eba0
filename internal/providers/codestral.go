package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Parokor/a0-core-agent/pkg/config"
	"github.com/rs/zerolog/log"
)

// codestralConfidence è la confidence attribuita alle risposte Codestral
const codestralConfidence = 0.95

// CodestralProvider è l'adapter per l'API Codestral di Mistral.
// È uno specialista: serve esclusivamente task di codice. L'analisi passa
// dall'endpoint chat, la generazione dall'endpoint FIM (fill-in-the-middle).
// Usa net/http direttamente invece di resty per pieno controllo sui due
// endpoint distinti.
type CodestralProvider struct {
	*BaseProvider

	httpClient *http.Client
	baseURL    string
}

// fimRequest è il payload dell'endpoint FIM di Codestral
type fimRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Suffix      string  `json:"suffix,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// NewCodestralProvider crea un nuovo provider Codestral
func NewCodestralProvider(cfg config.ProviderConfig) *CodestralProvider {
	model := cfg.Model
	if model == "" {
		model = "codestral-latest"
	}

	models := map[TaskType]string{
		TaskCodeAnalysis:   model,
		TaskCodeGeneration: model,
	}

	return &CodestralProvider{
		BaseProvider: NewBaseProvider("codestral", cfg, models, model),
	}
}

// Initialize alloca il client HTTP, verifica la credenziale ed esegue il
// probe. Il flag di availability è sticky: viene impostato qui e mai più
// rivisto.
func (p *CodestralProvider) Initialize(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("provider", p.name).
				Interface("panic", r).
				Msg("Provider initialization panicked")
			p.available.Store(false)
			ok = false
		}
	}()

	p.baseURL = strings.TrimSuffix(p.cfg.Endpoint, "/")
	p.httpClient = &http.Client{Timeout: p.cfg.Timeout}

	if !p.CredentialConfigured() {
		log.Warn().Str("provider", p.name).Msg("Provider credential not configured")
		p.available.Store(false)
		return false
	}

	ok = p.TestConnection(ctx)
	p.available.Store(ok)
	return ok
}

// TestConnection verifica la raggiungibilità dell'API Codestral
func (p *CodestralProvider) TestConnection(ctx context.Context) bool {
	if p.httpClient == nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("provider", p.name).Msg("Connectivity probe failed")
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// GenerateResponse esegue la generazione sul task di codice richiesto.
// I task non di codice vengono rifiutati senza chiamate di rete.
func (p *CodestralProvider) GenerateResponse(ctx context.Context, prompt string, task TaskType, opts *Options) Response {
	start := time.Now()

	switch task {
	case TaskCodeAnalysis:
		return p.chat(ctx, prompt, task, opts, start)
	case TaskCodeGeneration:
		return p.fim(ctx, prompt, opts, start)
	default:
		return NewFailure(p.name, p.defaultModel, time.Since(start),
			fmt.Errorf("%w: %s (codestral serves code tasks only)", ErrUnsupportedTaskType, task))
	}
}

// chat esegue una chat completion sull'endpoint chat di Codestral
func (p *CodestralProvider) chat(ctx context.Context, prompt string, task TaskType, opts *Options, start time.Time) Response {
	req := p.buildChatRequest(prompt, task, opts)
	if req.Messages[0].Content == DefaultSystemPrompt {
		req.Messages[0].Content = "You are an expert code analyst. Provide precise, actionable analysis."
	}

	var parsed chatResponse
	if resp := p.post(ctx, "/chat/completions", req, &parsed, start); !resp.Success {
		return resp
	}
	elapsed := time.Since(start)

	if len(parsed.Choices) == 0 {
		return NewFailure(p.name, req.Model, elapsed, fmt.Errorf("no choices in response"))
	}

	return NewSuccess(p.name, req.Model, parsed.Choices[0].Message.Content, elapsed, parsed.Usage.TotalTokens, codestralConfidence)
}

// fim esegue una completion fill-in-the-middle, il formato nativo di
// Codestral per la generazione di codice
func (p *CodestralProvider) fim(ctx context.Context, prompt string, opts *Options, start time.Time) Response {
	if opts == nil {
		opts = &Options{}
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.cfg.MaxTokens
	}

	temperature := p.cfg.Temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	req := fimRequest{
		Model:       p.defaultModel,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	var parsed chatResponse
	if resp := p.post(ctx, "/fim/completions", req, &parsed, start); !resp.Success {
		return resp
	}
	elapsed := time.Since(start)

	if len(parsed.Choices) == 0 {
		return NewFailure(p.name, req.Model, elapsed, fmt.Errorf("no choices in response"))
	}

	return NewSuccess(p.name, req.Model, parsed.Choices[0].Message.Content, elapsed, parsed.Usage.TotalTokens, codestralConfidence)
}

// post esegue una POST JSON verso l'API e decodifica la risposta.
// Restituisce una Response con Success=true come segnale di "trasporto
// riuscito"; il chiamante estrae poi il contenuto da out.
func (p *CodestralProvider) post(ctx context.Context, path string, body any, out *chatResponse, start time.Time) Response {
	if err := p.waitQuota(ctx); err != nil {
		return NewFailure(p.name, p.defaultModel, time.Since(start), fmt.Errorf("rate limit wait: %w", err))
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return NewFailure(p.name, p.defaultModel, time.Since(start), fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return NewFailure(p.name, p.defaultModel, time.Since(start), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("provider", p.name).Str("path", path).Msg("Request failed")
		return NewFailure(p.name, p.defaultModel, time.Since(start), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewFailure(p.name, p.defaultModel, time.Since(start), fmt.Errorf("read response: %w", err))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return NewFailure(p.name, p.defaultModel, time.Since(start), fmt.Errorf("malformed response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := resp.Status
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return NewFailure(p.name, p.defaultModel, time.Since(start), fmt.Errorf("API error: %s", msg))
	}

	return Response{Success: true}
}

// Cleanup rilascia il client HTTP; idempotente
func (p *CodestralProvider) Cleanup() {
	p.cleanupOnce.Do(func() {
		if p.httpClient != nil {
			p.httpClient.CloseIdleConnections()
		}
		p.available.Store(false)
		log.Debug().Str("provider", p.name).Msg("Provider released")
	})
}
