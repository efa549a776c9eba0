package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Parokor/a0-core-agent/internal/pipeline"
	"github.com/Parokor/a0-core-agent/internal/system"
	"github.com/Parokor/a0-core-agent/pkg/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// DoctorCmd rappresenta il comando doctor: diagnostica di configurazione
// e connettività
var DoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration and provider connectivity",
	Long: `Check the local setup: configuration validity, credential
resolution and reachability of every configured provider.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)

	fmt.Println("🩺 Agent Zero Core - Doctor")
	fmt.Println()

	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Printf("  ✗ configuration: %v\n", err)
		return err
	}
	fmt.Println("  ✓ configuration valid")

	// Credenziali
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println()
	fmt.Println("Credentials:")
	for _, name := range names {
		p := cfg.Providers[name]
		switch {
		case !p.Enabled:
			fmt.Printf("  - %-12s disabled\n", name)
		case p.APIKey == "" || config.IsPlaceholder(p.APIKey):
			fmt.Printf("  ✗ %-12s not configured (%s)\n", name, p.APIKey)
		default:
			fmt.Printf("  ✓ %-12s %s\n", name, config.MaskSecret(p.APIKey))
		}
	}

	// Connettività
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pipe := pipeline.New(cfg)
	available := pipe.Initialize(ctx)
	defer pipe.Shutdown()

	fmt.Println()
	fmt.Println("Connectivity:")
	connectivity := pipe.CheckConnectivity(ctx)
	for _, name := range pipe.ProviderNames() {
		if connectivity[name].Connected {
			fmt.Printf("  ✓ %-12s reachable\n", name)
		} else {
			fmt.Printf("  ✗ %-12s unreachable\n", name)
		}
	}

	// Host
	snap := system.Collect()
	fmt.Println()
	fmt.Println("Host:")
	fmt.Printf("  %s (%s/%s), %d CPUs, %s\n", snap.Hostname, snap.OS, snap.Arch, snap.NumCPU, snap.GoVersion)

	fmt.Println()
	if available == 0 {
		fmt.Println("Result: ✗ no providers available")
		return fmt.Errorf("no providers available")
	}
	fmt.Printf("Result: ✓ %d provider(s) available\n", available)
	return nil
}
