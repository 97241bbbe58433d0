package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vettingai/vetting-go/internal/config"
	"github.com/vettingai/vetting-go/internal/llm"
	"github.com/vettingai/vetting-go/internal/server"
	"github.com/vettingai/vetting-go/internal/vetting"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vetting",
		Short: "Dual-LLM vetting service",
		Long: `vetting runs a chat model alongside an independent verification model
that checks every response against a behavioral policy before it is
returned.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a settings file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd(), modelsCmd(), demoCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadConfigFile(configFile)
	}
	return config.LoadConfig()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			srv, err := server.New(cfg)
			if err != nil {
				return err
			}
			return srv.Run()
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models available from the configured providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			found := false
			for _, name := range []string{config.ProviderOpenAI, config.ProviderClaude, config.ProviderGemini} {
				pc, err := cfg.ProviderFor(name)
				if err != nil {
					continue
				}
				provider, err := llm.NewProvider(pc)
				if err != nil {
					return err
				}
				found = true
				fmt.Printf("%s:\n", name)
				for _, model := range provider.SupportedModels() {
					if canonical, ok := provider.ModelAliases()[model]; ok {
						fmt.Printf("  %s -> %s\n", model, canonical)
						continue
					}
					fmt.Printf("  %s\n", model)
				}
			}
			if !found {
				return fmt.Errorf("no providers configured; set an api key (e.g. OPENAI_API_KEY)")
			}
			return nil
		},
	}
}

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run an offline vetting walkthrough with a scripted provider",
		Long: `demo drives the full chat/verify/retry cycle against a canned provider
that first answers the assigned question directly, then rephrases as a
hint after the verifier rejects it. No network calls are made.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := &scriptedDemoProvider{responses: []demoTurn{
				{content: "The answer is 4.", verdict: "FAIL - reveals the answer directly"},
				{content: "Try counting two groups of two objects. What total do you reach?", verdict: "PASS - guides without revealing"},
			}}

			item, err := vetting.NewContextItem(
				map[string]any{"text": "What is 2+2?", "subject": "math", "gradeLevel": "elementary"},
				map[string]any{"correctAnswer": "4", "keyConcepts": []string{"addition"}},
			)
			if err != nil {
				return err
			}

			cfg := vetting.VettingConfig{
				Mode:                   vetting.ModeVetting,
				ChatModel:              vetting.DefaultModelConfig("demo-model"),
				ContextItems:           []vetting.ContextItem{item},
				EnableSafetyPrefix:     true,
				EnableEducationalRules: true,
				SessionID:              "demo-session",
			}
			messages := []vetting.ChatMessage{{Role: vetting.RoleUser, Content: "What is 2+2?"}}

			result, err := vetting.New(provider, nil).Process(context.Background(), messages, cfg)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

type demoTurn struct {
	content string
	verdict string
}

// scriptedDemoProvider answers chat calls from a fixed script and judges
// verification calls with the verdict paired to the current turn.
type scriptedDemoProvider struct {
	responses []demoTurn
	chatCalls int
}

func (p *scriptedDemoProvider) GenerateResponse(ctx context.Context, messages []vetting.ChatMessage, modelConfig vetting.ModelConfig, systemPrompt string) (string, vetting.Usage, bool, error) {
	usage := vetting.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150}
	// Verification calls use the derived low-temperature model.
	if modelConfig.Temperature < 0.5 {
		turn := p.responses[min(p.chatCalls, len(p.responses))-1]
		return turn.verdict, usage, false, nil
	}
	turn := p.responses[min(p.chatCalls, len(p.responses)-1)]
	p.chatCalls++
	return turn.content, usage, false, nil
}

func (p *scriptedDemoProvider) CalculateCost(modelID string, usage vetting.Usage) float64 {
	return float64(usage.TotalTokens) * 0.50 / 1_000_000
}

func (p *scriptedDemoProvider) ModelAliases() map[string]string {
	return map[string]string{}
}

func (p *scriptedDemoProvider) SupportedModels() []string {
	return []string{"demo-model"}
}
