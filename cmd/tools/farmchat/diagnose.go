package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	model "github.com/krishimitra/krishi-mitra/backend/internal/model/diagnosis"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/diagnosis"
)

var diagnoseMIME string

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <image>",
	Short: "Analyse a crop leaf photo for disease",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagnose,
}

func init() {
	diagnoseCmd.Flags().StringVar(&diagnoseMIME, "mime", "", "Image MIME type (detected from content when empty)")
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	mimeType := diagnoseMIME
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	cfg, backend, err := loadBackend(cmd.Context())
	if err != nil {
		return err
	}
	engine := diagnosis.NewEngine(backend, cfg.Diagnosis.MaxImageBytes)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Analyzing...")
	result, err := engine.Analyze(cmd.Context(), model.Request{Image: data, MIMEType: mimeType})
	if err != nil {
		return err
	}

	t := newTheme()
	fmt.Fprint(out, renderMarkdown(newRenderer(markdownTheme, 100), result.Text))
	fmt.Fprintln(out, t.muted.Render(fmt.Sprintf("confidence: %s", result.Confidence)))
	if result.NeedsClearerImage {
		fmt.Fprintln(out, t.warning.Render("Try again with a clearer, well-lit photo of a single leaf."))
	}
	return nil
}
