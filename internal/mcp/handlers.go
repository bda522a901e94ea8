// ABOUTME: MCP tool handler implementations for the marginalia server
// ABOUTME: Tool failures are reported as tool errors, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/marginalia/internal/models"
	"github.com/harper/marginalia/internal/storage/sqlite"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	storage     *sqlite.Storage
	logger      *log.Logger
	searchLimit int
}

// SearchLibrary handles the search_library tool
func (h *Handlers) SearchLibrary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	limit := request.GetInt("limit", h.searchLimit)

	if documentID := request.GetString("document_id", ""); documentID != "" {
		interactions, err := h.storage.Search().SearchInteractionsInDocument(documentID, query, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return jsonResult(map[string]interface{}{"interactions": interactions})
	}

	results, err := h.storage.Search().SearchAll(query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(results)
}

// RecordInteraction handles the record_interaction tool
func (h *Handlers) RecordInteraction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("filepath")
	if err != nil {
		return mcp.NewToolResultError("filepath argument is required and must be a string"), nil
	}
	action, err := request.RequireString("action_type")
	if err != nil {
		return mcp.NewToolResultError("action_type argument is required and must be a string"), nil
	}
	selected, err := request.RequireString("selected_text")
	if err != nil {
		return mcp.NewToolResultError("selected_text argument is required and must be a string"), nil
	}
	response, err := request.RequireString("response")
	if err != nil {
		return mcp.NewToolResultError("response argument is required and must be a string"), nil
	}

	doc, err := h.storage.Documents().GetOrCreate(filepath.Base(path), path, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open document: %v", err)), nil
	}

	in := models.CompletionInput{
		NewInteraction: models.NewInteraction{
			DocumentID:   doc.ID,
			ActionType:   action,
			SelectedText: selected,
			Response:     response,
		},
		Concepts: stringArray(request, "concepts"),
	}
	if page := request.GetInt("page_number", -1); page >= 0 {
		in.PageNumber = &page
	}

	out, err := h.storage.RecordCompletion(in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record interaction: %v", err)), nil
	}
	h.logger.Debug("recorded interaction via mcp", "document", doc.Filepath, "concepts", len(out.Concepts))

	return jsonResult(map[string]interface{}{
		"document_id":    doc.ID,
		"interaction_id": out.Interaction.ID,
		"concepts":       out.Concepts,
	})
}

// ConceptGraph handles the concept_graph tool
func (h *Handlers) ConceptGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		graph *models.ConceptGraph
		err   error
	)
	if documentID := request.GetString("document_id", ""); documentID != "" {
		graph, err = h.storage.Concepts().GraphForDocument(documentID)
	} else {
		graph, err = h.storage.Concepts().Graph()
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build concept graph: %v", err)), nil
	}
	return jsonResult(graph)
}

// NextReview handles the next_review tool
func (h *Handlers) NextReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := h.storage.Now()
	card, err := h.storage.ReviewCards().Next(now)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load next card: %v", err)), nil
	}
	due, err := h.storage.ReviewCards().CountDue(now)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to count due cards: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{
		"card": card,
		"due":  due,
	})
}

// RateReview handles the rate_review tool
func (h *Handlers) RateReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID, err := request.RequireString("card_id")
	if err != nil {
		return mcp.NewToolResultError("card_id argument is required and must be a string"), nil
	}
	quality, err := request.RequireInt("quality")
	if err != nil {
		return mcp.NewToolResultError("quality argument is required and must be a number"), nil
	}

	card, err := h.storage.ReviewCards().Review(cardID, quality)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to rate card: %v", err)), nil
	}
	if card == nil {
		return mcp.NewToolResultError(fmt.Sprintf("review card %s not found", cardID)), nil
	}
	return jsonResult(map[string]interface{}{"card": card})
}

// RecentDocuments handles the recent_documents tool
func (h *Handlers) RecentDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := h.storage.Documents().Recent(request.GetInt("limit", 10))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list documents: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{"documents": docs})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// stringArray extracts a string array argument, skipping non-string items
func stringArray(request mcp.CallToolRequest, key string) []string {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return nil
	}
	arr, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(arr))
	for _, item := range arr {
		if str, ok := item.(string); ok {
			result = append(result, str)
		}
	}
	return result
}
