// Package pipeline orchestra la catena di provider: routing per task
// type, fallback sequenziale e contenimento dei fault degli adapter.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Parokor/a0-core-agent/internal/providers"
	"github.com/Parokor/a0-core-agent/internal/stats"
	"github.com/Parokor/a0-core-agent/pkg/config"
	"github.com/rs/zerolog/log"
)

// ExhaustedError è il messaggio della risposta sintetica emessa quando
// nessun provider produce una risposta
const ExhaustedError = "all providers failed or unavailable"

// Pipeline coordina i provider registrati. La registrazione è chiusa da
// Initialize: dopo l'init l'insieme dei provider è fisso.
type Pipeline struct {
	providers   map[string]providers.Provider
	order       []string
	routing     *RoutingTable
	initialized bool
}

// New costruisce la pipeline con gli adapter abilitati dalla
// configurazione. I provider vengono registrati ma non inizializzati:
// serve una chiamata esplicita a Initialize.
func New(cfg *config.Config) *Pipeline {
	p := &Pipeline{
		providers: make(map[string]providers.Provider),
		routing:   NewRoutingTable(cfg.Routing),
	}

	for name, pc := range cfg.Providers {
		if !pc.Enabled {
			log.Debug().Str("provider", name).Msg("Provider disabled, skipping")
			continue
		}

		adapter := buildAdapter(name, pc)
		if adapter == nil {
			log.Warn().Str("provider", name).Msg("Unknown provider in configuration, skipping")
			continue
		}

		if err := p.Register(adapter); err != nil {
			log.Warn().Err(err).Str("provider", name).Msg("Provider registration failed")
		}
	}

	return p
}

// buildAdapter costruisce l'adapter concreto per un nome di provider
func buildAdapter(name string, pc config.ProviderConfig) providers.Provider {
	switch name {
	case "groq":
		return providers.NewGroqProvider(pc)
	case "openrouter":
		return providers.NewOpenRouterProvider(pc)
	case "codestral":
		return providers.NewCodestralProvider(pc)
	case "huggingface":
		return providers.NewHuggingFaceProvider(pc)
	case "claudeproxy":
		return providers.NewClaudeProxyProvider(pc)
	default:
		return nil
	}
}

// Register aggiunge un provider alla pipeline. Fallisce dopo Initialize
// e per nomi duplicati.
func (p *Pipeline) Register(adapter providers.Provider) error {
	if p.initialized {
		return fmt.Errorf("pipeline already initialized, cannot register %s", adapter.Name())
	}
	if _, exists := p.providers[adapter.Name()]; exists {
		return fmt.Errorf("provider %s already registered", adapter.Name())
	}

	p.providers[adapter.Name()] = adapter
	p.order = append(p.order, adapter.Name())
	return nil
}

// Routing restituisce la tabella di routing della pipeline
func (p *Pipeline) Routing() *RoutingTable {
	return p.routing
}

// Initialize inizializza tutti i provider registrati e chiude la
// registrazione. Un provider che fallisce l'init resta registrato ma
// indisponibile: il routing lo salterà. Restituisce il numero di
// provider disponibili.
func (p *Pipeline) Initialize(ctx context.Context) int {
	p.initialized = true
	available := 0

	for _, name := range p.order {
		adapter := p.providers[name]
		if adapter.Initialize(ctx) {
			available++
			log.Info().Str("provider", name).Msg("Provider initialized")
		} else {
			log.Warn().Str("provider", name).Msg("Provider unavailable")
		}
	}

	stats.ProvidersAvailable.Set(float64(available))
	log.Info().
		Int("registered", len(p.order)).
		Int("available", available).
		Msg("Pipeline initialized")

	return available
}

// GenerateResponse esegue una richiesta attraverso la catena di
// fallback: i provider dell'ordine di routing vengono tentati uno alla
// volta e il primo successo chiude la richiesta. I provider non
// registrati o indisponibili vengono saltati senza consumare un
// tentativo di rete. Se nessun provider produce una risposta viene
// emessa la risposta sintetica di esaurimento.
func (p *Pipeline) GenerateResponse(ctx context.Context, prompt string, task providers.TaskType, opts *providers.Options) providers.Response {
	order := p.routing.Resolve(task)
	attempted := 0

	for _, name := range order {
		adapter, ok := p.providers[name]
		if !ok {
			log.Debug().Str("provider", name).Str("task", string(task)).Msg("Routed provider not registered, skipping")
			continue
		}
		if !adapter.Available() {
			log.Debug().Str("provider", name).Str("task", string(task)).Msg("Provider unavailable, skipping")
			continue
		}

		attempted++
		resp := p.safeGenerate(ctx, adapter, prompt, task, opts)

		stats.RequestDuration.WithLabelValues(name, string(task)).Observe(resp.ExecutionTime.Seconds())

		if resp.Success {
			stats.RequestsTotal.WithLabelValues(name, string(task), "success").Inc()
			stats.TokensUsed.WithLabelValues(name).Add(float64(resp.TokensUsed))
			stats.FallbackDepth.WithLabelValues(string(task)).Observe(float64(attempted))

			log.Info().
				Str("provider", name).
				Str("task", string(task)).
				Int("attempt", attempted).
				Dur("elapsed", resp.ExecutionTime).
				Msg("Request served")
			return resp
		}

		stats.RequestsTotal.WithLabelValues(name, string(task), "failure").Inc()
		log.Warn().
			Str("provider", name).
			Str("task", string(task)).
			Str("error", resp.Error).
			Msg("Provider failed, falling back")
	}

	stats.ExhaustedTotal.WithLabelValues(string(task)).Inc()
	log.Error().
		Str("task", string(task)).
		Int("attempted", attempted).
		Msg("All providers exhausted")

	return providers.Response{
		Provider: "none",
		Model:    "none",
		Success:  false,
		Error:    ExhaustedError,
	}
}

// safeGenerate chiama l'adapter contenendo eventuali panic: un panic
// diventa un fallimento del singolo provider e la catena prosegue
func (p *Pipeline) safeGenerate(ctx context.Context, adapter providers.Provider, prompt string, task providers.TaskType, opts *providers.Options) (resp providers.Response) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			stats.PanicsTotal.WithLabelValues(adapter.Name()).Inc()
			log.Error().
				Str("provider", adapter.Name()).
				Interface("panic", r).
				Msg("Provider panicked during generation")
			resp = providers.NewFailure(adapter.Name(), "", time.Since(start),
				fmt.Errorf("provider panic: %v", r))
		}
	}()

	return adapter.GenerateResponse(ctx, prompt, task, opts)
}

// ProviderHealth è lo stato di un singolo provider nel report di health
type ProviderHealth struct {
	Available bool `json:"available"`
	Healthy   bool `json:"healthy"`
}

// HealthReport è il report aggregato di HealthCheck
type HealthReport struct {
	Total     int                       `json:"total"`
	Available int                       `json:"available"`
	Healthy   int                       `json:"healthy"`
	Providers map[string]ProviderHealth `json:"providers"`
}

// HealthCheck interroga ogni provider registrato: riporta il flag
// sticky di availability e l'esito di un probe di connettività fresco.
// Il probe non rivede mai il flag sticky. Non propaga mai errori.
func (p *Pipeline) HealthCheck(ctx context.Context) HealthReport {
	report := HealthReport{
		Total:     len(p.providers),
		Providers: make(map[string]ProviderHealth, len(p.providers)),
	}

	for _, name := range p.order {
		adapter := p.providers[name]
		h := ProviderHealth{Available: adapter.Available()}
		if h.Available {
			report.Available++
			h.Healthy = p.safeProbe(ctx, adapter)
		}
		if h.Healthy {
			report.Healthy++
		}
		report.Providers[name] = h
	}

	return report
}

// ConnectivityStatus è l'esito del probe di connettività di un provider
type ConnectivityStatus struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// CheckConnectivity esegue un probe fresco su ogni provider registrato,
// inclusi quelli indisponibili. Non propaga mai errori.
func (p *Pipeline) CheckConnectivity(ctx context.Context) map[string]ConnectivityStatus {
	out := make(map[string]ConnectivityStatus, len(p.providers))
	for _, name := range p.order {
		status := ConnectivityStatus{Connected: p.safeProbe(ctx, p.providers[name])}
		if !status.Connected {
			status.Error = "connectivity probe failed"
		}
		out[name] = status
	}
	return out
}

// safeProbe esegue TestConnection contenendo eventuali panic
func (p *Pipeline) safeProbe(ctx context.Context, adapter providers.Provider) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("provider", adapter.Name()).
				Interface("panic", r).
				Msg("Provider panicked during connectivity probe")
			ok = false
		}
	}()

	return adapter.TestConnection(ctx)
}

// ProviderNames restituisce i nomi dei provider registrati, ordinati
func (p *Pipeline) ProviderNames() []string {
	names := append([]string(nil), p.order...)
	sort.Strings(names)
	return names
}

// Shutdown rilascia tutti i provider. Best-effort e idempotente: un
// fault durante il cleanup di un provider non interrompe gli altri.
func (p *Pipeline) Shutdown() {
	for _, name := range p.order {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Str("provider", name).
						Interface("panic", r).
						Msg("Provider panicked during cleanup")
				}
			}()
			p.providers[name].Cleanup()
		}()
	}

	stats.ProvidersAvailable.Set(0)
	log.Info().Msg("Pipeline shut down")
}
