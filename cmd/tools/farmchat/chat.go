package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/krishimitra/krishi-mitra/backend/internal/model/persona"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/chat"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/view"
)

var chatCmd = &cobra.Command{
	Use:   "chat [feature]",
	Short: "Open a conversation (default: the general assistant)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	featureID := "chat"
	if len(args) == 1 {
		featureID = args[0]
	}

	// Log lines would tear the alternate screen.
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	log.SetOutput(f)

	_, backend, err := loadBackend(cmd.Context())
	if err != nil {
		return err
	}

	router := view.NewRouter(chat.NewService(backend, persona.NewMemoryStore(persona.Seed())))
	defer router.Deactivate()

	v, err := router.Activate(cmd.Context(), view.FromFeatureID(featureID))
	if errors.Is(err, persona.ErrNotFound) {
		return fmt.Errorf("this feature is coming soon: %s", featureID)
	}
	if err != nil {
		return err
	}
	if v.Controller == nil {
		return fmt.Errorf("%q is not a conversation; try: farmchat diagnose <image>", featureID)
	}

	p := tea.NewProgram(newChatModel(cmd.Context(), v, newTheme()), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
