// cmd/chilimate/main.go
//
// This is the entry point for the Chili Mate storefront.
// When you run `chilimate` from any directory, that directory becomes the
// store workspace: .chilimate/ holds the config, the journey log and
// exported invoices.

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"github.com/kingrea/chili-mate/internal/config"
	"github.com/kingrea/chili-mate/internal/tui"
)

func main() {
	sessionKey := flag.StringP("session", "s", "guest", "shopper session to open")
	dir := flag.StringP("dir", "d", "", "workspace directory (defaults to the current directory)")
	flag.Parse()

	projectDir := *dir
	if projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
			os.Exit(1)
		}
		projectDir = cwd
	}

	if err := config.InitWorkspace(projectDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing %s directory: %v\n", config.WorkspaceDir, err)
		os.Exit(1)
	}

	app, err := tui.NewApp(projectDir, tui.WithSessionKey(*sessionKey))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting storefront: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	_, runErr := p.Run()
	if err := app.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing logbook: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", runErr)
		os.Exit(1)
	}
}
