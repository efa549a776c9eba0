package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Parokor/a0-core-agent/internal/pipeline"
	"github.com/Parokor/a0-core-agent/internal/providers"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	askTaskType string
	askTimeout  time.Duration
	askShowMeta bool
)

// AskCmd rappresenta il comando ask: una generazione one-shot da CLI
var AskCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Ask the agent a one-shot question",
	Long: `Send a single prompt through the provider pipeline and print
the answer. Providers are tried in the routing order for the task type.`,
	Example: `  # Quick question
  a0 ask "how do I list open ports on linux?"

  # Route as a code generation task
  a0 ask -t code_generation "write a systemd unit for a Go binary"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	AskCmd.Flags().StringVarP(&askTaskType, "task-type", "t", "general", "Task type for routing")
	AskCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "Overall timeout")
	AskCmd.Flags().BoolVar(&askShowMeta, "meta", false, "Print provider metadata with the answer")
}

func runAsk(cmd *cobra.Command, args []string) error {
	// Output pulito: solo warning ed errori sul terminale
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	pipe := pipeline.New(cfg)
	if pipe.Initialize(ctx) == 0 {
		return fmt.Errorf("no providers available, check credentials and connectivity")
	}
	defer pipe.Shutdown()

	prompt := strings.Join(args, " ")
	resp := pipe.GenerateResponse(ctx, prompt, providers.ParseTaskType(askTaskType), nil)

	if !resp.Success {
		return fmt.Errorf("generation failed: %s", resp.Error)
	}

	fmt.Println(resp.Content)
	if askShowMeta {
		fmt.Printf("\n--\nprovider: %s  model: %s  tokens: %d  confidence: %.2f  elapsed: %s\n",
			resp.Provider, resp.Model, resp.TokensUsed, resp.Confidence, resp.ExecutionTime.Round(time.Millisecond))
	}

	return nil
}
