// ABOUTME: MCP tool definitions and registration for the marginalia server
// ABOUTME: Exposes library search, completion recording, the concept graph and review practice
package mcp

import (
	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/marginalia/internal/storage/sqlite"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, store *sqlite.Storage, logger *log.Logger, searchLimit int) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	handlers := &Handlers{storage: store, logger: logger, searchLimit: searchLimit}

	server.AddTool(mcp.Tool{
		Name:        "search_library",
		Description: "Full-text search across documents (by filename), past AI interactions (by selected text and response) and concepts. Optionally scoped to one document.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Words to search for; each matches as a prefix",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum results per type (default: 10)",
				},
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Only search interactions from this document",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchLibrary)

	server.AddTool(mcp.Tool{
		Name:        "record_interaction",
		Description: "Record a finished AI exchange about a passage, with the concepts it surfaced. Creates the document on first use.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"filepath": map[string]interface{}{
					"type":        "string",
					"description": "Path of the document the passage comes from",
				},
				"action_type": map[string]interface{}{
					"type":        "string",
					"description": "explain, summarize, define or ask",
				},
				"selected_text": map[string]interface{}{
					"type":        "string",
					"description": "The passage the reader selected",
				},
				"response": map[string]interface{}{
					"type":        "string",
					"description": "The AI response",
				},
				"page_number": map[string]interface{}{
					"type":        "number",
					"description": "Page the passage is on",
				},
				"concepts": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Concept names extracted from the exchange",
				},
			},
			Required: []string{"filepath", "action_type", "selected_text", "response"},
		},
	}, handlers.RecordInteraction)

	server.AddTool(mcp.Tool{
		Name:        "concept_graph",
		Description: "Concept co-occurrence graph: nodes with occurrence totals and edges weighted by shared interactions.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Restrict the graph to one document",
				},
			},
		},
	}, handlers.ConceptGraph)

	server.AddTool(mcp.Tool{
		Name:        "next_review",
		Description: "The earliest-due review card and how many cards are due now.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.NextReview)

	server.AddTool(mcp.Tool{
		Name:        "rate_review",
		Description: "Rate recall of a review card from 0 (blackout) to 5 (perfect) and reschedule it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"card_id": map[string]interface{}{
					"type":        "string",
					"description": "Review card ID",
				},
				"quality": map[string]interface{}{
					"type":        "number",
					"description": "Recall quality, 0-5",
				},
			},
			Required: []string{"card_id", "quality"},
		},
	}, handlers.RateReview)

	server.AddTool(mcp.Tool{
		Name:        "recent_documents",
		Description: "Documents ordered by when they were last opened.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum documents to return (default: 10)",
				},
			},
		},
	}, handlers.RecentDocuments)

	return handlers
}
