package providers

import (
	"errors"
	"testing"
	"time"

	"github.com/Parokor/a0-core-agent/pkg/config"
)

func TestParseTaskType(t *testing.T) {
	cases := []struct {
		in   string
		want TaskType
	}{
		{"code_analysis", TaskCodeAnalysis},
		{"code-analysis", TaskCodeAnalysis},
		{"CODE_GENERATION", TaskCodeGeneration},
		{"  fast_query  ", TaskFastQuery},
		{"web-automation", TaskWebAutomation},
		{"nonsense", TaskGeneral},
		{"", TaskGeneral},
	}

	for _, tc := range cases {
		if got := ParseTaskType(tc.in); got != tc.want {
			t.Errorf("ParseTaskType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewFailureInvariant(t *testing.T) {
	resp := NewFailure("groq", "llama", time.Second, errors.New("boom"))

	if resp.Success {
		t.Error("failure response must have Success=false")
	}
	if resp.Content != "" {
		t.Errorf("failure response must have empty content, got %q", resp.Content)
	}
	if resp.Error == "" {
		t.Error("failure response must carry an error message")
	}

	// Anche con err nil il messaggio non deve mancare
	resp = NewFailure("groq", "llama", 0, nil)
	if resp.Error == "" {
		t.Error("nil error must still produce an error message")
	}
}

func TestNewSuccessClampsConfidence(t *testing.T) {
	if got := NewSuccess("groq", "m", "ok", 0, 10, 1.5).Confidence; got != 1 {
		t.Errorf("confidence above 1 must clamp to 1, got %v", got)
	}
	if got := NewSuccess("groq", "m", "ok", 0, 10, -0.5).Confidence; got != 0 {
		t.Errorf("confidence below 0 must clamp to 0, got %v", got)
	}
	if resp := NewSuccess("groq", "m", "ok", 0, 10, 0.9); resp.Error != "" {
		t.Errorf("success response must have empty error, got %q", resp.Error)
	}
}

func TestModelForFallsBackToDefault(t *testing.T) {
	b := NewBaseProvider("test", config.ProviderConfig{}, map[TaskType]string{
		TaskFastQuery: "fast-model",
	}, "default-model")

	if got := b.ModelFor(TaskFastQuery); got != "fast-model" {
		t.Errorf("ModelFor(fast_query) = %q", got)
	}
	if got := b.ModelFor(TaskProblemSolving); got != "default-model" {
		t.Errorf("unmapped task must use default model, got %q", got)
	}
}

func TestCredentialConfigured(t *testing.T) {
	cases := []struct {
		key  string
		want bool
	}{
		{"", false},
		{"${GROQ_API_KEY}", false},
		{"gsk_abc123", true},
	}

	for _, tc := range cases {
		b := NewBaseProvider("test", config.ProviderConfig{APIKey: tc.key}, nil, "m")
		if got := b.CredentialConfigured(); got != tc.want {
			t.Errorf("CredentialConfigured with key %q = %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestCleanupIdempotent(t *testing.T) {
	b := NewBaseProvider("test", config.ProviderConfig{}, nil, "m")
	b.available.Store(true)

	b.Cleanup()
	if b.Available() {
		t.Error("provider must be unavailable after cleanup")
	}

	// La seconda chiamata non deve avere effetti né panicare
	b.Cleanup()
	if b.Available() {
		t.Error("repeated cleanup must keep provider unavailable")
	}
}

func TestTimeoutDefault(t *testing.T) {
	b := NewBaseProvider("test", config.ProviderConfig{}, nil, "m")
	if b.cfg.Timeout != DefaultTimeout {
		t.Errorf("missing timeout must default to %v, got %v", DefaultTimeout, b.cfg.Timeout)
	}

	b = NewBaseProvider("test", config.ProviderConfig{Timeout: 5 * time.Second}, nil, "m")
	if b.cfg.Timeout != 5*time.Second {
		t.Errorf("explicit timeout must be kept, got %v", b.cfg.Timeout)
	}
}

func TestRateLimiterOnlyWhenConfigured(t *testing.T) {
	b := NewBaseProvider("test", config.ProviderConfig{}, nil, "m")
	if b.limiter != nil {
		t.Error("no rate limit configured must mean no limiter")
	}

	b = NewBaseProvider("test", config.ProviderConfig{
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 30},
	}, nil, "m")
	if b.limiter == nil {
		t.Error("rate limit configured must allocate a limiter")
	}
}
