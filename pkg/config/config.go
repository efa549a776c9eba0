package config

import (
	"fmt"
	"time"

	"github.com/Parokor/a0-core-agent/pkg/database"
	"github.com/spf13/viper"
)

// Config rappresenta la configurazione completa dell'agente
type Config struct {
	System    SystemConfig              `mapstructure:"system" yaml:"system"`
	Providers map[string]ProviderConfig `mapstructure:"providers" yaml:"providers"`
	Routing   RoutingConfig             `mapstructure:"routing" yaml:"routing"`
	Security  SecurityConfig            `mapstructure:"security" yaml:"security"`
	Database  database.Config           `mapstructure:"database" yaml:"database"`
	Web       WebConfig                 `mapstructure:"web" yaml:"web"`
	Logging   LoggingConfig             `mapstructure:"logging" yaml:"logging"`
}

// SystemConfig configurazione di sistema
type SystemConfig struct {
	Version             string        `mapstructure:"version" yaml:"version"`
	TaskPollInterval    time.Duration `mapstructure:"task_poll_interval" yaml:"task_poll_interval"`
	MaxConcurrentTasks  int           `mapstructure:"max_concurrent_tasks" yaml:"max_concurrent_tasks"`
	MaintenanceInterval time.Duration `mapstructure:"maintenance_interval" yaml:"maintenance_interval"`
	SafetyMode          bool          `mapstructure:"safety_mode" yaml:"safety_mode"`
}

// ProviderConfig configurazione di un singolo provider
type ProviderConfig struct {
	Enabled     bool              `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string            `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey      string            `mapstructure:"api_key" yaml:"api_key"`
	Model       string            `mapstructure:"model" yaml:"model"`
	Models      map[string]string `mapstructure:"models" yaml:"models"`
	Timeout     time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	MaxTokens   int               `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64           `mapstructure:"temperature" yaml:"temperature"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig limiti di richieste per provider
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// RoutingConfig configurazione del routing per task type
type RoutingConfig struct {
	// Routes mappa task type -> lista ordinata di provider (primo = preferito)
	Routes map[string][]string `mapstructure:"routes" yaml:"routes"`

	// DefaultOrder ordine usato per task type non mappati
	DefaultOrder []string `mapstructure:"default_order" yaml:"default_order"`
}

// SecurityConfig configurazione del security manager
type SecurityConfig struct {
	MaxRiskLevel             int      `mapstructure:"max_risk_level" yaml:"max_risk_level"`
	RequireConfirmationAbove int      `mapstructure:"require_confirmation_above" yaml:"require_confirmation_above"`
	BlockedCommands          []string `mapstructure:"blocked_commands" yaml:"blocked_commands"`
	AllowedSudoCommands      []string `mapstructure:"allowed_sudo_commands" yaml:"allowed_sudo_commands"`
	AuditLogging             bool     `mapstructure:"audit_logging" yaml:"audit_logging"`
}

// WebConfig configurazione della web interface
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" yaml:"port"`
}

// LoggingConfig configurazione del logging
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load carica la configurazione da file e environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("agent")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Read environment variables
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Provider e routing di default se il file non li definisce
	if len(cfg.Providers) == 0 {
		cfg.Providers = DefaultProviders()
	}
	if len(cfg.Routing.Routes) == 0 {
		cfg.Routing.Routes = DefaultRoutes()
	}
	if len(cfg.Routing.DefaultOrder) == 0 {
		cfg.Routing.DefaultOrder = []string{"groq", "openrouter"}
	}

	return &cfg, nil
}

// setDefaults imposta i valori di default
func setDefaults(v *viper.Viper) {
	// System defaults
	v.SetDefault("system.version", "1.0.0")
	v.SetDefault("system.task_poll_interval", "10s")
	v.SetDefault("system.max_concurrent_tasks", 5)
	v.SetDefault("system.maintenance_interval", "30m")
	v.SetDefault("system.safety_mode", true)

	// Security defaults
	v.SetDefault("security.max_risk_level", 7)
	v.SetDefault("security.require_confirmation_above", 5)
	v.SetDefault("security.blocked_commands", []string{
		"rm -rf /", "mkfs", "dd if=/dev/zero", ":(){ :|:& };:",
		"sudo rm -rf", "format", "fdisk",
	})
	v.SetDefault("security.allowed_sudo_commands", []string{
		"pacman", "systemctl", "journalctl", "mount", "umount",
		"ip", "iptables", "ufw", "fail2ban-client",
	})
	v.SetDefault("security.audit_logging", true)

	// Database defaults
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.connection", "./data/agent.db")
	v.SetDefault("database.log_level", "warn")

	// Web defaults
	v.SetDefault("web.enabled", false)
	v.SetDefault("web.host", "127.0.0.1")
	v.SetDefault("web.port", 8080)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// DefaultProviders restituisce la configurazione provider di default.
// Le credenziali restano come placeholder ${VAR} finché Resolve non le
// espande; un placeholder non risolto fa fallire l'init del provider.
func DefaultProviders() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"groq": {
			Enabled:  true,
			Endpoint: "https://api.groq.com/openai/v1",
			APIKey:   "${GROQ_API_KEY}",
			Models: map[string]string{
				"fast":      "llama-3.3-70b-versatile",
				"reasoning": "mixtral-8x22b-instruct-v0.1",
				"code":      "llama-3.1-70b-versatile",
			},
			Timeout:     30 * time.Second,
			MaxTokens:   4000,
			Temperature: 0.3,
			RateLimit:   RateLimitConfig{RequestsPerMinute: 30},
		},
		"openrouter": {
			Enabled:  true,
			Endpoint: "https://openrouter.ai/api/v1",
			APIKey:   "${OPENROUTER_API_KEY}",
			Models: map[string]string{
				"kimi_k2":  "moonshot/moonshot-v1-32k",
				"deepseek": "deepseek/deepseek-r1:free",
			},
			Timeout:     30 * time.Second,
			MaxTokens:   4000,
			Temperature: 0.3,
		},
		"codestral": {
			Enabled:   true,
			Endpoint:  "https://codestral.mistral.ai/v1",
			APIKey:    "${MISTRAL_API_KEY}",
			Model:     "codestral-latest",
			Timeout:   30 * time.Second,
			MaxTokens: 8192,
		},
		"huggingface": {
			Enabled:  true,
			Endpoint: "https://api-inference.huggingface.co",
			APIKey:   "${HUGGINGFACE_API_KEY}",
			Models: map[string]string{
				"browser_use": "microsoft/DialoGPT-medium",
				"embeddings":  "sentence-transformers/all-MiniLM-L6-v2",
			},
			Timeout: 30 * time.Second,
		},
		"claudeproxy": {
			Enabled:  false,
			Endpoint: "https://ccproxy.orchestre.dev/v1",
			APIKey:   "${CLAUDE_PROXY_KEY}",
			Models: map[string]string{
				"default": "claude-3-sonnet-via-groq",
			},
			Timeout:     15 * time.Second,
			MaxTokens:   4000,
			Temperature: 0.3,
		},
	}
}

// DefaultRoutes restituisce la strategia di routing di default
func DefaultRoutes() map[string][]string {
	return map[string][]string{
		"code_analysis":   {"codestral", "groq", "openrouter"},
		"code_generation": {"codestral", "groq", "openrouter"},
		"problem_solving": {"openrouter", "groq"},
		"system_admin":    {"groq", "openrouter"},
		"web_automation":  {"huggingface", "groq"},
		"fast_query":      {"groq", "openrouter"},
		"general":         {"groq", "openrouter"},
	}
}

// Validate valida la configurazione
func (c *Config) Validate() error {
	if c.Web.Enabled {
		if c.Web.Port < 1 || c.Web.Port > 65535 {
			return fmt.Errorf("invalid web port: %d", c.Web.Port)
		}
	}

	if c.Security.MaxRiskLevel > 10 {
		return fmt.Errorf("max_risk_level cannot exceed 10 (got %d)", c.Security.MaxRiskLevel)
	}
	if c.Security.RequireConfirmationAbove > c.Security.MaxRiskLevel {
		return fmt.Errorf("require_confirmation_above (%d) cannot exceed max_risk_level (%d)",
			c.Security.RequireConfirmationAbove, c.Security.MaxRiskLevel)
	}

	if c.System.TaskPollInterval <= 0 {
		return fmt.Errorf("task_poll_interval must be positive")
	}
	if c.System.MaxConcurrentTasks < 1 {
		return fmt.Errorf("max_concurrent_tasks must be at least 1")
	}

	for name, p := range c.Providers {
		if !p.Enabled {
			continue
		}
		if p.Endpoint == "" {
			return fmt.Errorf("provider %s: endpoint is required", name)
		}
	}

	return nil
}
