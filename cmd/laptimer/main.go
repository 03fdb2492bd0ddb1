package main

import (
	"os"
	"time"

	"github.com/alfredjeanlab/laptimer/internal/client"
	"github.com/alfredjeanlab/laptimer/internal/ui"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	username   string
	password   string
	configPath string
	jsonOutput bool
	noColor    bool

	lapClient client.LapClient
)

func defaultServerURL() string {
	if s := os.Getenv("LAPTIMER_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// skipClient is used by commands that work on the bus or the store directly.
func skipClient(cmd *cobra.Command, args []string) error { return nil }

var rootCmd = &cobra.Command{
	Use:          "laptimer <command>",
	Short:        "Lap timing for RFID-tagged participants",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor || !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		var opts []client.Option
		if username != "" {
			opts = append(opts, client.WithBasicAuth(username, password))
		}
		opts = append(opts, client.WithTimeout(10*time.Second))
		lapClient = client.NewHTTPClient(serverURL, opts...)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if lapClient != nil {
			lapClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(), "laptimer server URL")
	rootCmd.PersistentFlags().StringVar(&username, "user", os.Getenv("LAPTIMER_WEB_USERNAME"), "username for protected routes")
	rootCmd.PersistentFlags().StringVar(&password, "password", os.Getenv("LAPTIMER_WEB_PASSWORD"), "password for protected routes")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("LAPTIMER_CONFIG"), "path to a TOML config file (serve, export, emit)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "results", Title: "Results:"},
		&cobra.Group{ID: "tags", Title: "Tags:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Results
	rootCmd.AddCommand(lapsCmd)
	rootCmd.AddCommand(unassignedCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)

	// Tags
	rootCmd.AddCommand(tagsCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
