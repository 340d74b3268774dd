package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pdfrag/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.pdf]",
	Short: "Ingest a local PDF synchronously",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("%s is not a .pdf file", path)
	}
	pdf, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	app, err := buildApp()
	if err != nil {
		return err
	}
	defer func() { _ = app.logger.Sync() }()

	res, err := app.ingestPipeline.Run(context.Background(), pdf)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	printResult(cmd, res)
	return nil
}

func printResult(cmd *cobra.Command, res ingest.Result) {
	cmd.Printf("content hash:  %s\n", res.ContentHash)
	cmd.Printf("directory:     %s\n", res.Directory)
	cmd.Printf("pages:         %d (indexed %d)\n", res.TotalPages, res.IndexedPages)
	if res.IntegratedContent != "" {
		cmd.Printf("summary:\n%s\n", res.IntegratedContent)
	} else if res.IntegrationError != "" {
		cmd.Printf("integration failed: %s\n", res.IntegrationError)
	}
}
