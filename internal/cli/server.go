package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avelines/salevaultd/internal/config"
	"github.com/avelines/salevaultd/internal/server"
)

// serverCmd starts the daemon. It is also the default action of the root
// command.
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the sale daemon",
	Long: `Start salevaultd, serving:
- HTTP JSON-RPC API for sale operations and queries
- WebSocket feed broadcasting sale lifecycle events

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.RunE = runServer
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if debug {
		cfg.Log.Level = "debug"
	} else if verbose {
		cfg.Log.Level = "trace"
	} else if quiet {
		cfg.Log.Level = "error"
	}

	node, err := server.New(cfg)
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Printf("salevaultd %s\n", server.Version)
		fmt.Printf("  - HTTP JSON-RPC: http://%s/\n", cfg.Server.RPCAddr)
		fmt.Printf("  - WebSocket:     ws://%s/\n", cfg.Server.WSAddr)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return node.Run(ctx)
}
