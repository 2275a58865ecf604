// ABOUTME: speckeep MCP server assembly and stdio transport
// ABOUTME: Wires storage, sessions, routing, search, and generation
package mcp

import (
	"fmt"
	"log"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/speckeep/speckeep/internal/channel"
	"github.com/speckeep/speckeep/internal/config"
	"github.com/speckeep/speckeep/internal/contextgen"
	"github.com/speckeep/speckeep/internal/search"
	"github.com/speckeep/speckeep/internal/session"
	"github.com/speckeep/speckeep/internal/storage/sqlite"
)

// ServerName identifies the server to MCP clients
const ServerName = "speckeep"

// NewServer assembles the MCP server over an open database. Startup
// sweeps still-active sessions to interrupted and expires stale dedup
// rows before any tool can run.
func NewServer(cfg *config.Config, db *sqlite.DB, version string) (*mcpserver.MCPServer, error) {
	memories := sqlite.NewMemoryStore(db)
	sessions := session.New(db, cfg)
	if err := sessions.Init(); err != nil {
		return nil, fmt.Errorf("session maintenance: %w", err)
	}

	router := channel.NewRouter(cfg.DefaultChannel, cfg.ChannelCacheTTL, cfg.GitTimeout, "")
	generator := contextgen.NewGenerator(cfg, memories, sessions, router)

	var searchFn channel.SearchFunc
	if cfg.OpenAIKey != "" {
		embedder, err := search.NewEmbeddingClient(cfg.OpenAIKey)
		if err != nil {
			log.Printf("Warning: embedding client unavailable, falling back to keyword search: %v", err)
		}
		searchFn = search.NewSearcher(memories, embedder).Func()
	} else {
		searchFn = search.NewSearcher(memories, nil).Func()
	}

	server := mcpserver.NewMCPServer(ServerName, version)
	RegisterTools(server, memories, sessions, router, generator, searchFn)
	return server, nil
}

// ServeStdio runs the server on stdin/stdout until the client closes
func ServeStdio(server *mcpserver.MCPServer) error {
	log.Println("speckeep MCP server starting on stdio...")
	return mcpserver.ServeStdio(server)
}
