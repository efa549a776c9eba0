package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Parokor/a0-core-agent/internal/app"
	"github.com/Parokor/a0-core-agent/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	devMode bool
	verbose bool
)

// ServeCmd rappresenta il comando serve
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the agent",
	Long: `Start the agent: initializes the provider pipeline, the task
queue poller and, if enabled, the web interface.`,
	Example: `  # Start with default settings
  a0 serve

  # Start in development mode with verbose logging
  a0 serve --dev --verbose

  # Start with custom config and credentials
  a0 serve -c /etc/a0/agent.yaml --env-file /etc/a0/.env`,
	RunE: runServe,
}

func init() {
	ServeCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (pretty logging)")
	ServeCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (debug level)")
}

func runServe(cmd *cobra.Command, args []string) error {
	setupLogger(verbose, devMode)

	log.Info().Msg("🚀 Starting Agent Zero Core")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log.Info().
		Bool("web", cfg.Web.Enabled).
		Int("providers", len(cfg.Providers)).
		Bool("dev_mode", devMode).
		Msg("Configuration loaded")

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to assemble agent: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Web.Enabled {
		log.Info().Msgf("🌐 Web interface on http://%s:%d", cfg.Web.Host, cfg.Web.Port)
		log.Info().Msgf("📊 Health check: http://%s:%d/health", cfg.Web.Host, cfg.Web.Port)
		log.Info().Msgf("📈 Metrics: http://%s:%d/metrics", cfg.Web.Host, cfg.Web.Port)
	}
	log.Info().Msg("Press Ctrl+C to stop")

	return a.Run(ctx)
}

// loadConfig carica .env, file di configurazione e risolve le credenziali
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	config.LoadDotenv(envFile)

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Resolve()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setupLogger(verbose, dev bool) {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Pretty console output in development
	if dev {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	}
}
