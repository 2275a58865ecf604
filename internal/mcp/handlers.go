// ABOUTME: MCP tool handler implementations for the speckeep server
// ABOUTME: Wires generation, recall, checkpointing, recovery, and ranking
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/speckeep/speckeep/internal/channel"
	"github.com/speckeep/speckeep/internal/contextgen"
	"github.com/speckeep/speckeep/internal/models"
	"github.com/speckeep/speckeep/internal/scoring"
	"github.com/speckeep/speckeep/internal/session"
	"github.com/speckeep/speckeep/internal/storage/sqlite"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	memories  *sqlite.MemoryStore
	sessions  *session.Store
	router    *channel.Router
	generator *contextgen.Generator
	searchFn  channel.SearchFunc
}

// SaveContext handles the save_context tool
func (h *Handlers) SaveContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder, err := request.RequireString("folder")
	if err != nil {
		return mcp.NewToolResultError("folder argument is required and must be a string"), nil
	}

	result, err := h.generator.Generate(ctx, contextgen.Request{
		Folder:    folder,
		DataFile:  request.GetString("data_file", ""),
		SessionID: request.GetString("session_id", ""),
		Title:     request.GetString("title", ""),
	})
	if err != nil {
		var verr *contextgen.ValidationError
		if errors.As(err, &verr) {
			return mcp.NewToolResultError(fmt.Sprintf("%v (suggestions: %v)", verr, h.generator.Suggest(verr.Name))), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("context generation failed: %v", err)), nil
	}

	response := map[string]interface{}{
		"doc_path":  result.DocPath,
		"memory_id": result.MemoryID,
		"warnings":  result.Warnings,
	}
	if result.MemoryID != 0 {
		if record, err := h.memories.GetByID(result.MemoryID); err == nil && record != nil {
			response["importance_tier"] = record.ImportanceTier
			response["channel"] = record.Channel
		}
	}
	return marshalResult(response)
}

// RecallMemories handles the recall_memories tool
func (h *Handlers) RecallMemories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	sessionID := request.GetString("session_id", "")
	maxResults := request.GetInt("max_results", 5)

	opts := channel.MemoriesOptions{
		Channel:        request.GetString("channel", ""),
		IncludeDefault: true,
		Limit:          maxResults,
	}

	var (
		found []models.MemoryRecord
		err   error
	)
	if h.searchFn != nil {
		found, err = h.router.ScopedSearch(ctx, query, opts, h.searchFn)
	} else {
		found, err = h.router.Memories(ctx, h.memories, opts)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("memory recall failed: %v", err)), nil
	}

	// Dedup against what the session already saw. Infra problems fail
	// open so recall keeps working without the dedup substrate.
	refs := make([]*models.MemoryRecord, len(found))
	for i := range found {
		refs[i] = &found[i]
	}
	allow, err := h.sessions.ShouldSendBatch(sessionID, refs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("dedup check failed: %v", err)), nil
	}

	var fresh []models.MemoryRecord
	var freshRefs []*models.MemoryRecord
	for i, ok := range allow {
		if ok {
			fresh = append(fresh, found[i])
			freshRefs = append(freshRefs, refs[i])
		}
	}

	if sessionID != "" && len(freshRefs) > 0 {
		if err := h.sessions.MarkSentBatch(sessionID, freshRefs); err != nil {
			log.Printf("Warning: failed to record sent memories: %v", err)
		}
	}

	// Delivery feeds the ranking engagement signal.
	for _, m := range fresh {
		if m.ID == 0 {
			continue
		}
		if err := h.memories.Touch(m.ID); err != nil {
			log.Printf("Warning: failed to bump trigger count for memory %d: %v", m.ID, err)
		}
	}

	return marshalResult(map[string]interface{}{
		"memories":       fresh,
		"filtered_count": len(found) - len(fresh),
	})
}

// SessionCheckpoint handles the session_checkpoint tool
func (h *Handlers) SessionCheckpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id argument is required and must be a string"), nil
	}

	patch := models.SessionPatch{
		SpecFolder:     optionalString(request, "spec_folder"),
		CurrentTask:    optionalString(request, "current_task"),
		LastAction:     optionalString(request, "last_action"),
		PendingWork:    optionalString(request, "pending_work"),
		ContextSummary: optionalString(request, "context_summary"),
	}

	state, docPath, err := h.sessions.Checkpoint(sessionID, patch)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("checkpoint failed: %v", err)), nil
	}

	response := map[string]interface{}{
		"session": state,
	}
	if docPath != "" {
		response["recovery_doc"] = docPath
	}
	return marshalResult(response)
}

// SessionRecover handles the session_recover tool
func (h *Handlers) SessionRecover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id argument is required and must be a string"), nil
	}

	state, err := h.sessions.RecoverState(sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recovery failed: %v", err)), nil
	}
	if state == nil {
		return marshalResult(map[string]interface{}{
			"found":      false,
			"session_id": sessionID,
		})
	}

	return marshalResult(map[string]interface{}{
		"found":   true,
		"session": state,
	})
}

// RankFolders handles the rank_folders tool
func (h *Handlers) RankFolders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := h.memories.All()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load memories: %v", err)), nil
	}

	ranked := scoring.Rank(records, time.Now(), scoring.RankOptions{
		ShowArchived: request.GetBool("show_archived", false),
		FolderLimit:  request.GetInt("folder_limit", 3),
		MemoryLimit:  request.GetInt("memory_limit", 5),
	})
	return marshalResult(ranked)
}

// optionalString returns nil when the argument was not provided, so a
// checkpoint only overwrites the fields it names.
func optionalString(request mcp.CallToolRequest, key string) *string {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return nil
	}
	raw, exists := args[key]
	if !exists {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	return &s
}

func marshalResult(v interface{}) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}
