package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Parokor/a0-core-agent/internal/providers"
	"github.com/Parokor/a0-core-agent/pkg/config"
)

// stubProvider è un provider finto con esiti programmabili
type stubProvider struct {
	name       string
	available  bool
	healthy    bool
	failWith   string
	panicWith  string
	calls      int
	probes     int
	cleanups   int
	confidence float64
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Initialize(ctx context.Context) bool { return s.available }

func (s *stubProvider) TestConnection(ctx context.Context) bool {
	s.probes++
	return s.healthy
}

func (s *stubProvider) GenerateResponse(ctx context.Context, prompt string, task providers.TaskType, opts *providers.Options) providers.Response {
	s.calls++
	if s.panicWith != "" {
		panic(s.panicWith)
	}
	if s.failWith != "" {
		return providers.NewFailure(s.name, "stub-model", time.Millisecond, errStr(s.failWith))
	}
	return providers.NewSuccess(s.name, "stub-model", "answer from "+s.name, time.Millisecond, 10, s.confidence)
}

func (s *stubProvider) Available() bool { return s.available }

func (s *stubProvider) Cleanup() {
	s.cleanups++
	s.available = false
}

type errStr string

func (e errStr) Error() string { return string(e) }

// newTestPipeline costruisce una pipeline vuota con le route date e vi
// registra gli stub
func newTestPipeline(t *testing.T, routes map[string][]string, stubs ...*stubProvider) *Pipeline {
	t.Helper()

	p := &Pipeline{
		providers: make(map[string]providers.Provider),
		routing:   NewRoutingTable(config.RoutingConfig{Routes: routes}),
	}
	for _, s := range stubs {
		if err := p.Register(s); err != nil {
			t.Fatalf("register %s: %v", s.name, err)
		}
	}
	p.Initialize(context.Background())
	return p
}

func TestFirstProviderShortCircuits(t *testing.T) {
	first := &stubProvider{name: "groq", available: true, confidence: 0.9}
	second := &stubProvider{name: "openrouter", available: true, confidence: 0.85}

	p := newTestPipeline(t, map[string][]string{
		"general": {"groq", "openrouter"},
	}, first, second)

	resp := p.GenerateResponse(context.Background(), "hi", providers.TaskGeneral, nil)

	if !resp.Success {
		t.Fatalf("expected success, got error: %s", resp.Error)
	}
	if resp.Provider != "groq" {
		t.Errorf("expected groq to serve, got %s", resp.Provider)
	}
	if first.calls != 1 {
		t.Errorf("first provider calls = %d, want 1", first.calls)
	}
	if second.calls != 0 {
		t.Errorf("second provider must not be called on short-circuit, calls = %d", second.calls)
	}
}

func TestFallbackOnFailure(t *testing.T) {
	first := &stubProvider{name: "groq", available: true, failWith: "upstream 500"}
	second := &stubProvider{name: "openrouter", available: true, confidence: 0.85}

	p := newTestPipeline(t, map[string][]string{
		"general": {"groq", "openrouter"},
	}, first, second)

	resp := p.GenerateResponse(context.Background(), "hi", providers.TaskGeneral, nil)

	if !resp.Success {
		t.Fatalf("expected fallback success, got error: %s", resp.Error)
	}
	if resp.Provider != "openrouter" {
		t.Errorf("expected openrouter after fallback, got %s", resp.Provider)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", first.calls, second.calls)
	}
}

func TestUnavailableProviderSkippedWithoutCall(t *testing.T) {
	down := &stubProvider{name: "groq", available: false}
	up := &stubProvider{name: "openrouter", available: true}

	p := newTestPipeline(t, map[string][]string{
		"general": {"groq", "openrouter"},
	}, down, up)

	resp := p.GenerateResponse(context.Background(), "hi", providers.TaskGeneral, nil)

	if !resp.Success {
		t.Fatalf("expected success, got error: %s", resp.Error)
	}
	if down.calls != 0 {
		t.Errorf("unavailable provider must never be called, calls = %d", down.calls)
	}
	if resp.Provider != "openrouter" {
		t.Errorf("got provider %s", resp.Provider)
	}
}

func TestUnregisteredProviderInRouteSkipped(t *testing.T) {
	up := &stubProvider{name: "openrouter", available: true}

	p := newTestPipeline(t, map[string][]string{
		"general": {"missing", "openrouter"},
	}, up)

	resp := p.GenerateResponse(context.Background(), "hi", providers.TaskGeneral, nil)
	if !resp.Success || resp.Provider != "openrouter" {
		t.Fatalf("expected openrouter to serve, got %+v", resp)
	}
}

func TestExhaustionSyntheticResponse(t *testing.T) {
	first := &stubProvider{name: "groq", available: true, failWith: "timeout"}
	second := &stubProvider{name: "openrouter", available: false}

	p := newTestPipeline(t, map[string][]string{
		"general": {"groq", "openrouter"},
	}, first, second)

	resp := p.GenerateResponse(context.Background(), "hi", providers.TaskGeneral, nil)

	if resp.Success {
		t.Fatal("expected exhaustion failure")
	}
	if resp.Provider != "none" || resp.Model != "none" {
		t.Errorf("synthetic response must use none/none, got %s/%s", resp.Provider, resp.Model)
	}
	if resp.Content != "" {
		t.Errorf("synthetic response must have empty content, got %q", resp.Content)
	}
	if resp.Error != ExhaustedError {
		t.Errorf("error = %q, want %q", resp.Error, ExhaustedError)
	}
}

func TestPanicContainedAndChainContinues(t *testing.T) {
	panicky := &stubProvider{name: "groq", available: true, panicWith: "nil deref"}
	up := &stubProvider{name: "openrouter", available: true}

	p := newTestPipeline(t, map[string][]string{
		"general": {"groq", "openrouter"},
	}, panicky, up)

	resp := p.GenerateResponse(context.Background(), "hi", providers.TaskGeneral, nil)

	if !resp.Success {
		t.Fatalf("chain must survive a provider panic, got error: %s", resp.Error)
	}
	if resp.Provider != "openrouter" {
		t.Errorf("got provider %s", resp.Provider)
	}
}

func TestPanicOnLastProviderExhausts(t *testing.T) {
	panicky := &stubProvider{name: "groq", available: true, panicWith: "boom"}

	p := newTestPipeline(t, map[string][]string{
		"general": {"groq"},
	}, panicky)

	resp := p.GenerateResponse(context.Background(), "hi", providers.TaskGeneral, nil)
	if resp.Success {
		t.Fatal("expected exhaustion after panic on only provider")
	}
	if resp.Error != ExhaustedError {
		t.Errorf("error = %q, want %q", resp.Error, ExhaustedError)
	}
}

func TestUnmappedTaskUsesDefaultOrder(t *testing.T) {
	groq := &stubProvider{name: "groq", available: true}

	p := newTestPipeline(t, map[string][]string{}, groq)

	resp := p.GenerateResponse(context.Background(), "hi", providers.TaskType("weird"), nil)
	if !resp.Success || resp.Provider != "groq" {
		t.Fatalf("default order must serve unmapped tasks, got %+v", resp)
	}
}

func TestRegisterAfterInitializeFails(t *testing.T) {
	p := newTestPipeline(t, nil, &stubProvider{name: "groq", available: true})

	err := p.Register(&stubProvider{name: "late"})
	if err == nil {
		t.Fatal("registration after initialize must fail")
	}
	if !strings.Contains(err.Error(), "already initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRegisterDuplicateFails(t *testing.T) {
	p := &Pipeline{
		providers: make(map[string]providers.Provider),
		routing:   NewRoutingTable(config.RoutingConfig{}),
	}

	if err := p.Register(&stubProvider{name: "groq"}); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := p.Register(&stubProvider{name: "groq"}); err == nil {
		t.Fatal("duplicate registration must fail")
	}
}

func TestHealthCheckAggregates(t *testing.T) {
	okProv := &stubProvider{name: "groq", available: true, healthy: true}
	degraded := &stubProvider{name: "openrouter", available: true, healthy: false}
	down := &stubProvider{name: "codestral", available: false, healthy: true}

	p := newTestPipeline(t, nil, okProv, degraded, down)

	report := p.HealthCheck(context.Background())

	if report.Total != 3 {
		t.Errorf("total = %d, want 3", report.Total)
	}
	if report.Available != 2 {
		t.Errorf("available = %d, want 2", report.Available)
	}
	if report.Healthy != 1 {
		t.Errorf("healthy = %d, want 1", report.Healthy)
	}
	// Il probe non va eseguito sui provider indisponibili
	if down.probes != 0 {
		t.Errorf("unavailable provider probed %d times, want 0", down.probes)
	}
	if h := report.Providers["codestral"]; h.Available || h.Healthy {
		t.Errorf("codestral report = %+v, want unavailable and unhealthy", h)
	}
}

func TestCheckConnectivityProbesEveryone(t *testing.T) {
	up := &stubProvider{name: "groq", available: true, healthy: true}
	down := &stubProvider{name: "codestral", available: false, healthy: false}

	p := newTestPipeline(t, nil, up, down)

	out := p.CheckConnectivity(context.Background())
	if !out["groq"].Connected || out["codestral"].Connected {
		t.Errorf("connectivity = %v", out)
	}
	if out["codestral"].Error == "" {
		t.Error("disconnected provider must carry an error description")
	}
	// A differenza di HealthCheck, il probe tocca anche gli indisponibili
	if down.probes != 1 {
		t.Errorf("probes on unavailable provider = %d, want 1", down.probes)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	s := &stubProvider{name: "groq", available: true}
	p := newTestPipeline(t, nil, s)

	p.Shutdown()
	p.Shutdown()

	if s.cleanups != 2 {
		// Cleanup viene invocato a ogni shutdown: l'idempotenza è
		// responsabilità del provider (sync.Once nel BaseProvider)
		t.Errorf("cleanups = %d, want 2", s.cleanups)
	}
	if s.Available() {
		t.Error("provider must be unavailable after shutdown")
	}
}

func TestNewBuildsOnlyEnabledKnownProviders(t *testing.T) {
	cfg := &config.Config{
		Providers: map[string]config.ProviderConfig{
			"groq":      {Enabled: true, Endpoint: "https://example.com"},
			"codestral": {Enabled: false, Endpoint: "https://example.com"},
			"mystery":   {Enabled: true, Endpoint: "https://example.com"},
		},
		Routing: config.RoutingConfig{},
	}

	p := New(cfg)

	names := p.ProviderNames()
	if len(names) != 1 || names[0] != "groq" {
		t.Errorf("registered providers = %v, want [groq]", names)
	}
}
