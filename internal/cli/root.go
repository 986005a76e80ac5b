package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avelines/salevaultd/internal/server"
)

var (
	// Global flags
	configFile string
	debug      bool
	verbose    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "salevaultd",
	Short: "salevaultd - escrowed token sale daemon",
	Long: `salevaultd runs a dual-sided escrowed token sale: sellers lock tokens
plus a fee surcharge, a treasury role and a pool role co-fund settlement in
token and currency form, and entries that miss their settle window are
reclaimable by their sellers. The daemon exposes an HTTP JSON-RPC API and a
WebSocket event feed.`,
	Version: server.Version,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}
