// ABOUTME: MCP tool definitions and registration for the speckeep server
// ABOUTME: Defines JSON schemas for the five memory tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/speckeep/speckeep/internal/channel"
	"github.com/speckeep/speckeep/internal/contextgen"
	"github.com/speckeep/speckeep/internal/session"
	"github.com/speckeep/speckeep/internal/storage/sqlite"
)

// RegisterTools registers all speckeep tools with the server
func RegisterTools(server *mcpserver.MCPServer, memories *sqlite.MemoryStore, sessions *session.Store, router *channel.Router, generator *contextgen.Generator, searchFn channel.SearchFunc) *Handlers {
	handlers := &Handlers{
		memories:  memories,
		sessions:  sessions,
		router:    router,
		generator: generator,
		searchFn:  searchFn,
	}

	// 1. save_context - Generate and persist a context document
	server.AddTool(mcp.Tool{
		Name:        "save_context",
		Description: "Generate a context document for a spec folder and record it as a memory. Captures live session state unless a data file is given.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"folder": map[string]interface{}{
					"type":        "string",
					"description": "Spec folder name (NNN-lowercase-slug)",
				},
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session to capture state from",
				},
				"data_file": map[string]interface{}{
					"type":        "string",
					"description": "Optional path to a structured session-data JSON file",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Optional document title override",
				},
			},
			Required: []string{"folder"},
		},
	}, handlers.SaveContext)

	// 2. recall_memories - Channel-scoped recall with session dedup
	server.AddTool(mcp.Tool{
		Name:        "recall_memories",
		Description: "Recall memories scoped to the current branch channel. Memories already sent to the session are filtered out and new sends are recorded.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Free-text search query; empty returns the most recent memories",
				},
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session for send deduplication; empty disables dedup",
				},
				"channel": map[string]interface{}{
					"type":        "string",
					"description": "Explicit channel override; empty derives from the git branch",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of results to return (default: 5)",
					"default":     5,
				},
			},
		},
	}, handlers.RecallMemories)

	// 3. session_checkpoint - Persist session state and a recovery doc
	server.AddTool(mcp.Tool{
		Name:        "session_checkpoint",
		Description: "Save a session state checkpoint. Omitted fields keep their previous values. Writes a recovery document when the spec folder exists.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session identifier",
				},
				"spec_folder": map[string]interface{}{
					"type":        "string",
					"description": "Spec folder the session is working in",
				},
				"current_task": map[string]interface{}{
					"type":        "string",
					"description": "What the session is doing right now",
				},
				"last_action": map[string]interface{}{
					"type":        "string",
					"description": "Most recent completed action",
				},
				"pending_work": map[string]interface{}{
					"type":        "string",
					"description": "Work still outstanding",
				},
				"context_summary": map[string]interface{}{
					"type":        "string",
					"description": "Short summary of the session so far",
				},
			},
			Required: []string{"session_id"},
		},
	}, handlers.SessionCheckpoint)

	// 4. session_recover - Restore state after an interruption
	server.AddTool(mcp.Tool{
		Name:        "session_recover",
		Description: "Recover the saved state for a session. An interrupted session is flipped back to active and flagged as recovered.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session identifier",
				},
			},
			Required: []string{"session_id"},
		},
	}, handlers.SessionRecover)

	// 5. rank_folders - Composite scoring over the stored corpus
	server.AddTool(mcp.Tool{
		Name:        "rank_folders",
		Description: "Rank spec folders and memories by composite score: recency, top importance tier, trigger count, and importance weight.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"show_archived": map[string]interface{}{
					"type":        "boolean",
					"description": "Include archived folders in the ranked sections",
				},
				"folder_limit": map[string]interface{}{
					"type":        "number",
					"description": "Folders per section (default: 3)",
					"default":     3,
				},
				"memory_limit": map[string]interface{}{
					"type":        "number",
					"description": "Recent memories to include (default: 5)",
					"default":     5,
				},
			},
		},
	}, handlers.RankFolders)

	return handlers
}
