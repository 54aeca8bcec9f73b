package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kindred/cmd/kindred/chat"
	"kindred/internal/catalog"
	"kindred/internal/config"
	"kindred/internal/conversation"
	"kindred/internal/logging"
	"kindred/internal/provider"
	"kindred/internal/session"
)

var (
	// Global flags
	verbose     bool
	apiKey      string
	model       string
	name        string
	personality string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "kindred",
	Short: "kindred - a conversational companion in your terminal",
	Long: `kindred is a terminal companion you name, shape, and grow a
friendship with.

Pick a personality, give your companion a name, and talk. Replies stream
in live, and the companion's tone warms as your friendship level grows
with the conversation.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Interactive mode has its own UI; skip the structured logger.
		if cmd.Use == "kindred" && cmd.CalledAs() == "kindred" {
			return nil
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat()
	},
}

// sendCmd runs a single exchange without the TUI
var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send one message and print the reply",
	Long: `Runs a single exchange against a fresh level-1 session and prints
the companion's reply to stdout.

Useful for scripting and for checking that the provider is reachable.

Example:
  kindred send --name Nova --personality friend "good morning"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

// personalitiesCmd lists the available personalities
var personalitiesCmd = &cobra.Command{
	Use:   "personalities",
	Short: "List the available companion personalities",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range catalog.Personalities() {
			fmt.Printf("%-14s %s\n    %s\n", p.Key, p.DisplayName, p.ShortDescription)
		}
		return nil
	},
}

// configCmd manages the .kindred/config.yaml file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage kindred configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Printf("config file: %s\n\n", path)
		fmt.Printf("llm.model:                     %s\n", cfg.LLM.Model)
		fmt.Printf("llm.timeout:                   %s\n", cfg.GetLLMTimeout())
		fmt.Printf("llm.api_key:                   %s\n", maskKey(cfg.LLM.APIKey))
		fmt.Printf("companion.reply_language:      %s\n", cfg.Companion.ReplyLanguage)
		fmt.Printf("companion.default_name:        %s\n", cfg.Companion.DefaultName)
		fmt.Printf("companion.default_personality: %s\n", cfg.Companion.DefaultPersonality)
		fmt.Printf("logging.debug_mode:            %v\n", cfg.Logging.DebugMode)
		return nil
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [api-key]",
	Short: "Store the provider API key in the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.LLM.APIKey = strings.TrimSpace(args[0])
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("API key saved to %s\n", path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
		cfg := config.DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "provider API key (overrides config and GEMINI_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model to use (overrides config)")
	rootCmd.PersistentFlags().StringVar(&name, "name", "", "companion name (skips the name prompt)")
	rootCmd.PersistentFlags().StringVar(&personality, "personality", "", "personality key (see 'kindred personalities')")

	configCmd.AddCommand(configShowCmd, configSetKeyCmd, configInitCmd)
	rootCmd.AddCommand(sendCmd, personalitiesCmd, configCmd)
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig() (config.Config, string, error) {
	path, err := config.DefaultPath()
	if err != nil {
		return config.Config{}, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, path, fmt.Errorf("failed to load config: %w", err)
	}
	if apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if model != "" {
		cfg.LLM.Model = model
	}
	return cfg, path, nil
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func runInteractiveChat() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err == nil {
		if initErr := logging.Initialize(cwd); initErr != nil {
			fmt.Fprintf(os.Stderr, "warning: logging unavailable: %v\n", initErr)
		}
	}
	defer logging.CloseAll()

	return chat.RunInteractiveChat(&cfg, chat.Config{
		Name:        name,
		Personality: personality,
	})
}

// runSend performs one exchange end to end and prints the reply.
func runSend(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	companionName := name
	if companionName == "" {
		companionName = cfg.Companion.DefaultName
	}
	personalityKey := personality
	if personalityKey == "" {
		personalityKey = cfg.Companion.DefaultPersonality
	}
	if companionName == "" || personalityKey == "" {
		return fmt.Errorf("send needs --name and --personality (or companion defaults in config)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GetLLMTimeout())
	defer cancel()

	client, err := provider.NewClient(ctx, cfg.LLM.APIKey)
	if err != nil {
		return err
	}
	mgr, err := session.NewManager(client, cfg.LLM.Model, cfg.Companion.ReplyLanguage, companionName, personalityKey)
	if err != nil {
		return err
	}
	if err := mgr.Create(ctx, 1, nil); err != nil {
		return err
	}

	ctrl := conversation.NewController(mgr)
	defer ctrl.Close()

	text := strings.Join(args, " ")
	logger.Debug("sending message", zap.String("companion", companionName), zap.Int("chars", len(text)))
	if !ctrl.Send(ctx, text) {
		return fmt.Errorf("message was not sent")
	}

	msgs := ctrl.Messages()
	if len(msgs) < 2 {
		return fmt.Errorf("no reply received")
	}
	fmt.Println(msgs[1].Text)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
