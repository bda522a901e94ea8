// ABOUTME: Snapshot export and import of every entity family
// ABOUTME: Supports YAML and Markdown rendering; import is insert-or-ignore
package sqlite

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/marginalia/internal/models"
)

// Snapshot is the complete exportable contents of a store
type Snapshot struct {
	SchemaVersion       int                          `yaml:"schema_version" json:"schema_version"`
	ExportedAt          string                       `yaml:"exported_at" json:"exported_at"`
	Tool                string                       `yaml:"tool" json:"tool"`
	Documents           []models.Document            `yaml:"documents" json:"documents"`
	Interactions        []models.Interaction         `yaml:"interactions" json:"interactions"`
	Concepts            []models.Concept             `yaml:"concepts" json:"concepts"`
	InteractionConcepts []models.InteractionConcept  `yaml:"interaction_concepts" json:"interaction_concepts"`
	DocumentConcepts    []models.DocumentConcept     `yaml:"document_concepts" json:"document_concepts"`
	ReviewCards         []models.ReviewCard          `yaml:"review_cards" json:"review_cards"`
	Highlights          []models.Highlight           `yaml:"highlights" json:"highlights"`
	Bookmarks           []models.Bookmark            `yaml:"bookmarks" json:"bookmarks"`
	Conversations       []models.Conversation        `yaml:"conversations" json:"conversations"`
	Messages            []models.ConversationMessage `yaml:"messages" json:"messages"`
}

// ImportReport counts rows actually inserted per table
type ImportReport map[string]int

// Total returns the number of inserted rows across all tables
func (r ImportReport) Total() int {
	n := 0
	for _, v := range r {
		n += v
	}
	return n
}

// Export reads every table inside one transaction so the snapshot is consistent
func (s *Storage) Export() (*Snapshot, error) {
	return withRepair(s.db, func() (*Snapshot, error) {
		snap := &Snapshot{
			ExportedAt: s.db.now().UTC().Format(time.RFC3339),
			Tool:       "marginalia",
		}
		err := s.db.inTx(func(tx *sql.Tx) error {
			var err error
			if err = tx.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&snap.SchemaVersion); err != nil {
				return err
			}
			if snap.Documents, err = collect(tx, `SELECT `+documentColumns+` FROM documents ORDER BY created_at`, scanDocument); err != nil {
				return fmt.Errorf("export documents: %w", err)
			}
			if snap.Interactions, err = collect(tx, `SELECT `+interactionColumns+` FROM interactions ORDER BY created_at`, scanInteraction); err != nil {
				return fmt.Errorf("export interactions: %w", err)
			}
			if snap.Concepts, err = collect(tx, `SELECT id, name, created_at FROM concepts ORDER BY name_key`, scanConcept); err != nil {
				return fmt.Errorf("export concepts: %w", err)
			}
			if snap.InteractionConcepts, err = collect(tx, `
				SELECT interaction_id, concept_id FROM interaction_concepts ORDER BY interaction_id, concept_id
			`, scanInteractionConcept); err != nil {
				return fmt.Errorf("export interaction concepts: %w", err)
			}
			if snap.DocumentConcepts, err = collect(tx, `
				SELECT document_id, concept_id, occurrence_count FROM document_concepts ORDER BY document_id, concept_id
			`, scanDocumentConcept); err != nil {
				return fmt.Errorf("export document concepts: %w", err)
			}
			if snap.ReviewCards, err = collect(tx, `SELECT `+reviewCardColumns+` FROM review_cards ORDER BY created_at`, scanReviewCard); err != nil {
				return fmt.Errorf("export review cards: %w", err)
			}
			if snap.Highlights, err = collect(tx, `SELECT `+highlightColumns+` FROM highlights ORDER BY created_at`, scanHighlight); err != nil {
				return fmt.Errorf("export highlights: %w", err)
			}
			if snap.Bookmarks, err = collect(tx, `SELECT `+bookmarkColumns+` FROM bookmarks ORDER BY created_at`, scanBookmark); err != nil {
				return fmt.Errorf("export bookmarks: %w", err)
			}
			if snap.Conversations, err = collect(tx, `SELECT `+conversationColumns+` FROM conversations ORDER BY created_at`, scanConversation); err != nil {
				return fmt.Errorf("export conversations: %w", err)
			}
			if snap.Messages, err = collect(tx, `
				SELECT id, conversation_id, role, content, position, created_at
				FROM conversation_messages ORDER BY conversation_id, position
			`, scanMessage); err != nil {
				return fmt.Errorf("export messages: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return snap, nil
	})
}

// Import restores a snapshot in one transaction. Rows whose id already exists
// are left untouched. Documents are matched by filepath and concepts by name,
// so references in the snapshot are remapped onto rows already in the store.
func (s *Storage) Import(snap *Snapshot) (ImportReport, error) {
	if snap == nil {
		return ImportReport{}, nil
	}

	return withRepair(s.db, func() (ImportReport, error) {
		report := ImportReport{}
		err := s.db.inTx(func(tx *sql.Tx) error {
			imp := &importer{tx: tx, report: report, docs: map[string]string{}, concepts: map[string]string{}}
			return imp.run(snap)
		})
		if err != nil {
			return nil, err
		}
		s.db.logger.Info("imported snapshot", "rows", report.Total())
		return report, nil
	})
}

type importer struct {
	tx       *sql.Tx
	report   ImportReport
	docs     map[string]string
	concepts map[string]string
}

func (imp *importer) insert(table, query string, args ...interface{}) error {
	result, err := imp.tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("import %s: %w", table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	imp.report[table] += int(n)
	return nil
}

func (imp *importer) doc(id string) string {
	if mapped, ok := imp.docs[id]; ok {
		return mapped
	}
	return id
}

func (imp *importer) concept(id string) string {
	if mapped, ok := imp.concepts[id]; ok {
		return mapped
	}
	return id
}

func (imp *importer) run(snap *Snapshot) error {
	for _, d := range snap.Documents {
		if err := imp.insert("documents", `
			INSERT OR IGNORE INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, d.ID, d.Filename, d.Filepath, d.LastOpenedAt, d.ScrollPosition, nullInt(d.TotalPages), d.CreatedAt); err != nil {
			return err
		}
		var existing string
		if err := imp.tx.QueryRow(`SELECT id FROM documents WHERE filepath = ?`, d.Filepath).Scan(&existing); err != nil {
			return fmt.Errorf("resolve document %s: %w", d.Filepath, err)
		}
		imp.docs[d.ID] = existing
	}

	for _, c := range snap.Concepts {
		key := models.ConceptKey(c.Name)
		if err := imp.insert("concepts", `
			INSERT OR IGNORE INTO concepts (id, name, name_key, created_at) VALUES (?, ?, ?, ?)
		`, c.ID, models.NormalizeConceptName(c.Name), key, c.CreatedAt); err != nil {
			return err
		}
		var existing string
		if err := imp.tx.QueryRow(`SELECT id FROM concepts WHERE name_key = ?`, key).Scan(&existing); err != nil {
			return fmt.Errorf("resolve concept %q: %w", c.Name, err)
		}
		imp.concepts[c.ID] = existing
	}

	for _, in := range snap.Interactions {
		if err := imp.insert("interactions", `
			INSERT OR IGNORE INTO interactions (`+interactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, in.ID, imp.doc(in.DocumentID), in.ActionType, in.SelectedText, nullString(in.PageContext),
			in.Response, nullInt(in.PageNumber), nullFloat(in.ScrollPosition), in.CreatedAt); err != nil {
			return err
		}
	}

	for _, l := range snap.InteractionConcepts {
		if err := imp.insert("interaction_concepts", `
			INSERT OR IGNORE INTO interaction_concepts (interaction_id, concept_id) VALUES (?, ?)
		`, l.InteractionID, imp.concept(l.ConceptID)); err != nil {
			return err
		}
	}

	for _, l := range snap.DocumentConcepts {
		if err := imp.insert("document_concepts", `
			INSERT OR IGNORE INTO document_concepts (document_id, concept_id, occurrence_count) VALUES (?, ?, ?)
		`, imp.doc(l.DocumentID), imp.concept(l.ConceptID), l.OccurrenceCount); err != nil {
			return err
		}
	}

	for _, c := range snap.ReviewCards {
		ease := c.EaseFactor
		if ease < models.MinEaseFactor {
			ease = models.MinEaseFactor
		}
		if err := imp.insert("review_cards", `
			INSERT OR IGNORE INTO review_cards (`+reviewCardColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, c.InteractionID, c.Question, c.Answer, c.NextReviewAt, c.IntervalDays, ease,
			c.ReviewCount, c.CreatedAt); err != nil {
			return err
		}
	}

	for _, h := range snap.Highlights {
		if err := imp.insert("highlights", `
			INSERT OR IGNORE INTO highlights (`+highlightColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, h.ID, imp.doc(h.DocumentID), h.PageNumber, h.Text, h.Color, nullString(h.Note),
			h.CreatedAt, h.UpdatedAt); err != nil {
			return err
		}
	}

	for _, b := range snap.Bookmarks {
		if err := imp.insert("bookmarks", `
			INSERT OR IGNORE INTO bookmarks (`+bookmarkColumns+`) VALUES (?, ?, ?, ?, ?)
		`, b.ID, imp.doc(b.DocumentID), b.PageNumber, nullString(b.Label), b.CreatedAt); err != nil {
			return err
		}
	}

	for _, c := range snap.Conversations {
		if err := imp.insert("conversations", `
			INSERT OR IGNORE INTO conversations (`+conversationColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		`, c.ID, imp.doc(c.DocumentID), nullString(c.HighlightID), c.Title, c.CreatedAt, c.UpdatedAt); err != nil {
			return err
		}
	}

	for _, m := range snap.Messages {
		if err := imp.insert("conversation_messages", `
			INSERT OR IGNORE INTO conversation_messages (id, conversation_id, role, content, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, m.ID, m.ConversationID, m.Role, m.Content, m.Position, m.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

// WriteYAML encodes a snapshot as YAML
func WriteYAML(w io.Writer, snap *Snapshot) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// ReadYAML decodes a snapshot written by WriteYAML
func ReadYAML(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}
	return &snap, nil
}

// WriteMarkdown renders a snapshot as a reading journal, one section per
// document
func WriteMarkdown(w io.Writer, snap *Snapshot) error {
	conceptNames := make(map[string]string, len(snap.Concepts))
	for _, c := range snap.Concepts {
		conceptNames[c.ID] = c.Name
	}
	conceptsByInteraction := make(map[string][]string)
	for _, l := range snap.InteractionConcepts {
		conceptsByInteraction[l.InteractionID] = append(conceptsByInteraction[l.InteractionID], conceptNames[l.ConceptID])
	}
	interactionsByDoc := make(map[string][]models.Interaction)
	for _, in := range snap.Interactions {
		interactionsByDoc[in.DocumentID] = append(interactionsByDoc[in.DocumentID], in)
	}
	highlightsByDoc := make(map[string][]models.Highlight)
	for _, h := range snap.Highlights {
		highlightsByDoc[h.DocumentID] = append(highlightsByDoc[h.DocumentID], h)
	}

	_, _ = fmt.Fprintf(w, "# Marginalia Export - %s\n\n", snap.ExportedAt)
	_, _ = fmt.Fprintf(w, "Schema version %d. %d documents, %d interactions, %d concepts, %d review cards.\n\n",
		snap.SchemaVersion, len(snap.Documents), len(snap.Interactions), len(snap.Concepts), len(snap.ReviewCards))

	for _, doc := range snap.Documents {
		_, _ = fmt.Fprintf(w, "## %s\n\n", doc.Filename)
		_, _ = fmt.Fprintf(w, "- **Path:** `%s`\n", doc.Filepath)
		_, _ = fmt.Fprintf(w, "- **Last opened:** %s\n\n", formatMillis(doc.LastOpenedAt))

		if hs := highlightsByDoc[doc.ID]; len(hs) > 0 {
			_, _ = fmt.Fprintln(w, "### Highlights")
			_, _ = fmt.Fprintln(w)
			for _, h := range hs {
				_, _ = fmt.Fprintf(w, "- p.%d (%s): %s\n", h.PageNumber, h.Color, h.Text)
				if h.Note != nil {
					_, _ = fmt.Fprintf(w, "  - %s\n", *h.Note)
				}
			}
			_, _ = fmt.Fprintln(w)
		}

		for _, in := range interactionsByDoc[doc.ID] {
			_, _ = fmt.Fprintf(w, "### %s (%s)\n\n", in.ActionType, formatMillis(in.CreatedAt))
			_, _ = fmt.Fprintf(w, "> %s\n\n", strings.ReplaceAll(in.SelectedText, "\n", "\n> "))
			_, _ = fmt.Fprintf(w, "%s\n\n", in.Response)
			if names := conceptsByInteraction[in.ID]; len(names) > 0 {
				_, _ = fmt.Fprintf(w, "*Concepts: %s*\n\n", strings.Join(names, ", "))
			}
		}
		_, _ = fmt.Fprintln(w, "---")
		_, _ = fmt.Fprintln(w)
	}

	if len(snap.ReviewCards) > 0 {
		_, _ = fmt.Fprintln(w, "## Review Cards")
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "| Question | Due | Interval | Ease |")
		_, _ = fmt.Fprintln(w, "|----------|-----|----------|------|")
		for _, c := range snap.ReviewCards {
			_, _ = fmt.Fprintf(w, "| %s | %s | %dd | %.2f |\n",
				strings.ReplaceAll(c.Question, "|", `\|`), formatMillis(c.NextReviewAt), c.IntervalDays, c.EaseFactor)
		}
		_, _ = fmt.Fprintln(w)
	}
	return nil
}

// ExportToYAML exports data to a YAML file
func (s *Storage) ExportToYAML(outputPath string) error {
	snap, err := s.Export()
	if err != nil {
		return err
	}
	return writeFile(outputPath, func(w io.Writer) error { return WriteYAML(w, snap) })
}

// ExportToMarkdown exports data to a Markdown file
func (s *Storage) ExportToMarkdown(outputPath string) error {
	snap, err := s.Export()
	if err != nil {
		return err
	}
	return writeFile(outputPath, func(w io.Writer) error { return WriteMarkdown(w, snap) })
}

func writeFile(outputPath string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return write(file)
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}

func collect[T any](q querier, query string, scan func(rowScanner) (*T, error)) ([]T, error) {
	rows, err := q.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func scanConcept(row rowScanner) (*models.Concept, error) {
	var c models.Concept
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanInteractionConcept(row rowScanner) (*models.InteractionConcept, error) {
	var l models.InteractionConcept
	if err := row.Scan(&l.InteractionID, &l.ConceptID); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanDocumentConcept(row rowScanner) (*models.DocumentConcept, error) {
	var l models.DocumentConcept
	if err := row.Scan(&l.DocumentID, &l.ConceptID, &l.OccurrenceCount); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanMessage(row rowScanner) (*models.ConversationMessage, error) {
	var m models.ConversationMessage
	if err := row.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Position, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
