// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Exposes speckeep memory tools to LLM agents via stdio
package commands

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/speckeep/speckeep/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents.

Runs speckeep as an MCP (Model Context Protocol) server over stdio,
exposing context generation, memory recall, session checkpointing,
recovery, and folder ranking as tools.

Startup sweeps sessions left active by a crashed process to
interrupted and expires stale dedup entries.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically launched by the agent harness)
  speckeep mcp

  # Configure in the client's MCP config:
  # {
  #   "mcpServers": {
  #     "speckeep": {
  #       "command": "speckeep",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	cfg, db, err := openEnv()
	if err != nil {
		return err
	}

	if cfg.OpenAIKey == "" && !quiet {
		log.Println("Warning: OPENAI_API_KEY not set, recall uses keyword search")
	}

	server, err := mcp.NewServer(cfg, db, versionInfo.Version)
	if err != nil {
		db.Close()
		return fmt.Errorf("initializing server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcp.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		if !quiet {
			log.Println("Shutdown signal received, closing database...")
		}
		if err := db.Close(); err != nil {
			log.Printf("Warning: error closing database: %v", err)
		}
	case err := <-serverErr:
		db.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
