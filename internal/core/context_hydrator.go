// ABOUTME: Assembles what the reader already explored in a document into prompt context
// ABOUTME: Sections are added by priority until the token budget runs out
package core

import (
	"fmt"
	"strings"

	"github.com/harper/marginalia/internal/models"
)

// DefaultContextTokens is the budget used when the caller passes zero
const DefaultContextTokens = 1200

// maxEntryChars caps one earlier exchange so a long answer cannot crowd out the rest
const maxEntryChars = 400

// ReadingContext is the document-level history fed to the AI collaborator.
// Interactions are expected newest first.
type ReadingContext struct {
	Document     *models.Document
	Interactions []models.Interaction
	Concepts     []models.DocumentConceptCount
}

// HydrateReadingContext renders rc as prompt text within maxTokens
// (4 chars ≈ 1 token). Priority: document line, concepts, then earlier
// exchanges newest first. Returns "" when there is no history to share.
func HydrateReadingContext(rc ReadingContext, maxTokens int) string {
	if len(rc.Interactions) == 0 && len(rc.Concepts) == 0 {
		return ""
	}
	if maxTokens <= 0 {
		maxTokens = DefaultContextTokens
	}
	budget := maxTokens * 4

	var sb strings.Builder
	if rc.Document != nil {
		header := formatDocumentLine(rc.Document)
		if len(header) > budget {
			return ""
		}
		sb.WriteString(header)
		budget -= len(header)
	}

	if concepts := formatConceptLine(rc.Concepts, budget); concepts != "" {
		sb.WriteString(concepts)
		budget -= len(concepts)
	}

	const heading = "EARLIER IN THIS DOCUMENT:\n"
	var entries []string
	remaining := budget - len(heading)
	for _, in := range rc.Interactions {
		entry := formatInteraction(in)
		if len(entry) > remaining {
			break
		}
		entries = append(entries, entry)
		remaining -= len(entry)
	}
	if len(entries) > 0 {
		sb.WriteString(heading)
		for _, e := range entries {
			sb.WriteString(e)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func formatDocumentLine(doc *models.Document) string {
	if doc.TotalPages != nil {
		return fmt.Sprintf("DOCUMENT: %s (%d pages)\n", doc.Filename, *doc.TotalPages)
	}
	return fmt.Sprintf("DOCUMENT: %s\n", doc.Filename)
}

// formatConceptLine lists concepts most frequent first, dropping the tail
// that does not fit in budget
func formatConceptLine(concepts []models.DocumentConceptCount, budget int) string {
	if len(concepts) == 0 {
		return ""
	}
	const prefix = "CONCEPTS SO FAR: "
	used := len(prefix) + 1
	var parts []string
	for _, c := range concepts {
		part := fmt.Sprintf("%s (%d)", c.Name, c.OccurrenceCount)
		cost := len(part)
		if len(parts) > 0 {
			cost += 2
		}
		if used+cost > budget {
			break
		}
		parts = append(parts, part)
		used += cost
	}
	if len(parts) == 0 {
		return ""
	}
	return prefix + strings.Join(parts, ", ") + "\n"
}

func formatInteraction(in models.Interaction) string {
	var sb strings.Builder
	sb.WriteString("- ")
	sb.WriteString(in.ActionType)
	if in.PageNumber != nil {
		sb.WriteString(fmt.Sprintf(" (p. %d)", *in.PageNumber))
	}
	sb.WriteString(": ")
	sb.WriteString(clip(in.SelectedText, maxEntryChars/2))
	if in.Response != "" {
		sb.WriteString(" => ")
		sb.WriteString(clip(in.Response, maxEntryChars/2))
	}
	sb.WriteString("\n")
	return sb.String()
}

// clip shortens s to at most n runes, collapsing whitespace
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
