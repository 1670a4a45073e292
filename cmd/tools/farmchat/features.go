package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/krishimitra/krishi-mitra/backend/internal/model/feature"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List the features that can be opened",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(cmd.OutOrStdout(), renderCatalog(feature.Catalog(), newTheme()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(featuresCmd)
}

func renderCatalog(items []feature.Feature, t theme) string {
	var out string
	for _, f := range items {
		out += lipgloss.JoinHorizontal(lipgloss.Top,
			t.featureID.Render(f.ID),
			t.featureTitle.Render(f.Title),
		) + "\n"
		out += t.muted.Render(f.Description) + "\n\n"
	}
	return out
}
