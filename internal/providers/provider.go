package providers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Parokor/a0-core-agent/pkg/config"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultTimeout è il timeout di default per le chiamate di rete
const DefaultTimeout = 30 * time.Second

// DefaultSystemPrompt è il system prompt usato quando il chiamante non ne
// specifica uno
const DefaultSystemPrompt = "You are Agent Zero, an expert system administrator."

var (
	// ErrUnsupportedTaskType indica che il provider non serve la
	// categoria di task richiesta
	ErrUnsupportedTaskType = errors.New("unsupported task type")

	// ErrNotConfigured indica credenziale assente o placeholder
	// non risolto
	ErrNotConfigured = errors.New("provider not configured")
)

// TaskType classifica l'intento di una richiesta di generazione.
// È usato esclusivamente come chiave di routing.
type TaskType string

const (
	TaskCodeAnalysis   TaskType = "code_analysis"
	TaskCodeGeneration TaskType = "code_generation"
	TaskProblemSolving TaskType = "problem_solving"
	TaskSystemAdmin    TaskType = "system_admin"
	TaskWebAutomation  TaskType = "web_automation"
	TaskFastQuery      TaskType = "fast_query"
	TaskGeneral        TaskType = "general"
)

// AllTaskTypes elenca tutti i task type conosciuti
func AllTaskTypes() []TaskType {
	return []TaskType{
		TaskCodeAnalysis,
		TaskCodeGeneration,
		TaskProblemSolving,
		TaskSystemAdmin,
		TaskWebAutomation,
		TaskFastQuery,
		TaskGeneral,
	}
}

// ParseTaskType converte una stringa in TaskType; i valori sconosciuti
// ricadono su TaskGeneral
func ParseTaskType(s string) TaskType {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, t := range AllTaskTypes() {
		if string(t) == normalized {
			return t
		}
	}
	return TaskGeneral
}

// Options contiene i parametri opzionali di una generazione
type Options struct {
	SystemPrompt string   `json:"system_prompt,omitempty"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Stop         []string `json:"stop,omitempty"`
}

// Response è il risultato uniforme di ogni chiamata di generazione.
// Invariante: Success == false implica Content == "" ed Error != "";
// Success == true implica Error == "".
type Response struct {
	Content       string        `json:"content"`
	Provider      string        `json:"provider"`
	Model         string        `json:"model_used"`
	ExecutionTime time.Duration `json:"execution_time"`
	TokensUsed    int           `json:"tokens_used"`
	Confidence    float64       `json:"confidence"`
	Success       bool          `json:"success"`
	Error         string        `json:"error,omitempty"`
}

// NewSuccess costruisce una Response riuscita
func NewSuccess(provider, model, content string, elapsed time.Duration, tokens int, confidence float64) Response {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Response{
		Content:       content,
		Provider:      provider,
		Model:         model,
		ExecutionTime: elapsed,
		TokensUsed:    tokens,
		Confidence:    confidence,
		Success:       true,
	}
}

// NewFailure costruisce una Response fallita
func NewFailure(provider, model string, elapsed time.Duration, err error) Response {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Response{
		Provider:      provider,
		Model:         model,
		ExecutionTime: elapsed,
		Success:       false,
		Error:         msg,
	}
}

// Provider è l'interfaccia che ogni backend deve implementare
type Provider interface {
	// Name restituisce il nome del provider
	Name() string

	// Initialize alloca il transport, esegue il probe di connettività e
	// imposta il flag sticky di availability. Non propaga mai errori:
	// qualunque fault interno diventa false.
	Initialize(ctx context.Context) bool

	// TestConnection esegue un probe di connettività ripetibile, senza
	// effetti sul flag sticky
	TestConnection(ctx context.Context) bool

	// GenerateResponse esegue una singola chiamata al backend e
	// restituisce una Response uniforme. Non propaga mai errori.
	GenerateResponse(ctx context.Context, prompt string, task TaskType, opts *Options) Response

	// Available restituisce il flag sticky impostato da Initialize
	Available() bool

	// Cleanup rilascia il transport; idempotente
	Cleanup()
}

// BaseProvider fornisce identità, configurazione, lookup table
// task type -> modello, rate limiting e flag di availability comuni
// a tutti i provider
type BaseProvider struct {
	name         string
	cfg          config.ProviderConfig
	client       *resty.Client
	limiter      *rate.Limiter
	models       map[TaskType]string
	defaultModel string
	available    atomic.Bool
	cleanupOnce  sync.Once
}

// NewBaseProvider crea un nuovo BaseProvider con la lookup table dei
// modelli del provider concreto
func NewBaseProvider(name string, cfg config.ProviderConfig, models map[TaskType]string, defaultModel string) *BaseProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	b := &BaseProvider{
		name:         name,
		cfg:          cfg,
		models:       models,
		defaultModel: defaultModel,
	}

	if rpm := cfg.RateLimit.RequestsPerMinute; rpm > 0 {
		b.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
	}

	return b
}

// Name restituisce il nome del provider
func (b *BaseProvider) Name() string {
	return b.name
}

// Available restituisce il flag sticky di availability
func (b *BaseProvider) Available() bool {
	return b.available.Load()
}

// Config restituisce la configurazione risolta del provider
func (b *BaseProvider) Config() config.ProviderConfig {
	return b.cfg
}

// ModelFor seleziona il modello per un task type, con fallback sul
// modello di default del provider
func (b *BaseProvider) ModelFor(task TaskType) string {
	if model, ok := b.models[task]; ok {
		return model
	}
	return b.defaultModel
}

// CredentialConfigured verifica che la credenziale sia presente e non
// sia un placeholder ${VAR} rimasto irrisolto. In quel caso il provider
// si considera non configurato e fallisce l'init senza chiamate di rete.
func (b *BaseProvider) CredentialConfigured() bool {
	return b.cfg.APIKey != "" && !config.IsPlaceholder(b.cfg.APIKey)
}

// initialize esegue la sequenza comune di init: alloca il client resty,
// verifica la credenziale, esegue il probe e imposta il flag sticky.
// Un panic interno viene convertito in false.
func (b *BaseProvider) initialize(ctx context.Context, probe func(context.Context) bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("provider", b.name).
				Interface("panic", r).
				Msg("Provider initialization panicked")
			b.available.Store(false)
			ok = false
		}
	}()

	b.client = resty.New().
		SetBaseURL(strings.TrimSuffix(b.cfg.Endpoint, "/")).
		SetTimeout(b.cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if !b.CredentialConfigured() {
		log.Warn().Str("provider", b.name).Msg("Provider credential not configured")
		b.available.Store(false)
		return false
	}

	b.client.SetHeader("Authorization", "Bearer "+b.cfg.APIKey)

	ok = probe(ctx)
	b.available.Store(ok)
	return ok
}

// waitQuota blocca finché il rate limiter del provider non concede una
// richiesta; senza limiti configurati è un no-op
func (b *BaseProvider) waitQuota(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}

// Cleanup rilascia il transport; chiamate ripetute non hanno effetto
func (b *BaseProvider) Cleanup() {
	b.cleanupOnce.Do(func() {
		if b.client != nil {
			b.client.GetClient().CloseIdleConnections()
		}
		b.available.Store(false)
		log.Debug().Str("provider", b.name).Msg("Provider released")
	})
}
