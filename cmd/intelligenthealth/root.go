package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "intelligenthealth",
	Short: "AI workflow pipelines for clinical cases",
	Long: "IntelligentHealth runs AI workflows over clinical cases:\n" +
		"consultation audio to SOAP notes, differential diagnosis over all case\n" +
		"data, radiology image analysis, and question answering over uploaded reports.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

var rootFlags struct {
	configPath  string
	dbPath      string
	checkpoints string
	verbose     bool
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "Path to settings file (YAML or JSON)")
	pf.StringVar(&rootFlags.dbPath, "db", "", "Case database path (overrides config)")
	pf.StringVar(&rootFlags.checkpoints, "checkpoints", "", "Checkpoint database path (overrides config)")
	pf.BoolVar(&rootFlags.verbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(scribeCmd)
	rootCmd.AddCommand(ddxCmd)
	rootCmd.AddCommand(radiologyCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
