package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/krishimitra/krishi-mitra/backend/internal/config"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/ai"
)

var (
	logFile       string
	markdownTheme string
)

var rootCmd = &cobra.Command{
	Use:   "farmchat",
	Short: "Terminal client for the Krishi Mitra farming assistant",
	Long: `farmchat talks to the same completion backend as the API server.
Open a persona conversation with "chat", analyse a leaf photo with "diagnose",
or list the available features with "features".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "farmchat.log", "File receiving log output while the TUI runs")
	rootCmd.PersistentFlags().StringVar(&markdownTheme, "theme", "auto", "Markdown theme: auto, dark, light or notty")
}

func execute() error {
	return rootCmd.Execute()
}

// loadBackend reads .env and the environment and builds the configured backend.
func loadBackend(ctx context.Context) (*config.Config, ai.Backend, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if !cfg.AI.Enabled() {
		return nil, nil, fmt.Errorf("AI provider %q has no credentials; set GEMINI_API_KEY or ARK_API_KEY and ARK_MODEL", cfg.AI.Provider)
	}

	backend, err := ai.NewBackend(ctx, cfg.AI)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize AI backend: %w", err)
	}
	return cfg, backend, nil
}
