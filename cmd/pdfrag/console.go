package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pdfrag/internal/tui"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive question console over the ingested documents",
	RunE:  runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer func() { _ = app.logger.Sync() }()

	program := tea.NewProgram(tui.New(app.queryPipeline), tea.WithAltScreen())
	_, err = program.Run()
	return err
}
