// ABOUTME: SQLite schema objects required by each schema version
// ABOUTME: Migrations and repair are both derived from this single ordered list
package sqlite

// CurrentSchemaVersion is the schema version this build expects.
const CurrentSchemaVersion = 2

const schemaVersionTable = "schema_version"

const createSchemaVersion = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    description TEXT NOT NULL,
    applied_at INTEGER NOT NULL
)`

// Object kinds as reported by sqlite_master.
const (
	kindTable   = "table"
	kindIndex   = "index"
	kindTrigger = "trigger"
)

// schemaObject is one table, index or trigger the schema requires.
type schemaObject struct {
	name   string
	kind   string
	since  int
	create string
}

// versionDescriptions label each migration step in schema_version.
var versionDescriptions = map[int]string{
	1: "documents, interactions, concepts and review cards",
	2: "highlights, bookmarks, conversations and full-text search",
}

// schemaObjects lists every object in creation order. Tables come before the
// indexes and triggers that depend on them. Entries are append-only: a new
// schema version adds objects with a higher since value.
var schemaObjects = []schemaObject{
	{name: "documents", kind: kindTable, since: 1, create: `
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    filename TEXT NOT NULL,
    filepath TEXT NOT NULL UNIQUE,
    last_opened_at INTEGER NOT NULL,
    scroll_position REAL NOT NULL DEFAULT 0,
    total_pages INTEGER,
    created_at INTEGER NOT NULL
)`},
	{name: "interactions", kind: kindTable, since: 1, create: `
CREATE TABLE IF NOT EXISTS interactions (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    action_type TEXT NOT NULL,
    selected_text TEXT NOT NULL,
    page_context TEXT,
    response TEXT NOT NULL DEFAULT '',
    page_number INTEGER,
    scroll_position REAL,
    created_at INTEGER NOT NULL
)`},
	{name: "concepts", kind: kindTable, since: 1, create: `
CREATE TABLE IF NOT EXISTS concepts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    name_key TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL
)`},
	{name: "interaction_concepts", kind: kindTable, since: 1, create: `
CREATE TABLE IF NOT EXISTS interaction_concepts (
    interaction_id TEXT NOT NULL REFERENCES interactions(id) ON DELETE CASCADE,
    concept_id TEXT NOT NULL REFERENCES concepts(id) ON DELETE CASCADE,
    PRIMARY KEY (interaction_id, concept_id)
)`},
	{name: "document_concepts", kind: kindTable, since: 1, create: `
CREATE TABLE IF NOT EXISTS document_concepts (
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    concept_id TEXT NOT NULL REFERENCES concepts(id) ON DELETE CASCADE,
    occurrence_count INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (document_id, concept_id)
)`},
	{name: "review_cards", kind: kindTable, since: 1, create: `
CREATE TABLE IF NOT EXISTS review_cards (
    id TEXT PRIMARY KEY,
    interaction_id TEXT NOT NULL UNIQUE REFERENCES interactions(id) ON DELETE CASCADE,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    next_review_at INTEGER NOT NULL,
    interval_days INTEGER NOT NULL DEFAULT 1,
    ease_factor REAL NOT NULL DEFAULT 2.5 CHECK (ease_factor >= 1.3),
    review_count INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
)`},
	{name: "idx_documents_last_opened", kind: kindIndex, since: 1,
		create: `CREATE INDEX IF NOT EXISTS idx_documents_last_opened ON documents(last_opened_at DESC)`},
	{name: "idx_interactions_document", kind: kindIndex, since: 1,
		create: `CREATE INDEX IF NOT EXISTS idx_interactions_document ON interactions(document_id, created_at DESC)`},
	{name: "idx_interaction_concepts_concept", kind: kindIndex, since: 1,
		create: `CREATE INDEX IF NOT EXISTS idx_interaction_concepts_concept ON interaction_concepts(concept_id)`},
	{name: "idx_document_concepts_concept", kind: kindIndex, since: 1,
		create: `CREATE INDEX IF NOT EXISTS idx_document_concepts_concept ON document_concepts(concept_id)`},
	{name: "idx_review_cards_due", kind: kindIndex, since: 1,
		create: `CREATE INDEX IF NOT EXISTS idx_review_cards_due ON review_cards(next_review_at)`},

	{name: "highlights", kind: kindTable, since: 2, create: `
CREATE TABLE IF NOT EXISTS highlights (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    page_number INTEGER NOT NULL,
    text TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT 'yellow',
    note TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
)`},
	{name: "bookmarks", kind: kindTable, since: 2, create: `
CREATE TABLE IF NOT EXISTS bookmarks (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    page_number INTEGER NOT NULL,
    label TEXT,
    created_at INTEGER NOT NULL
)`},
	{name: "conversations", kind: kindTable, since: 2, create: `
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    highlight_id TEXT REFERENCES highlights(id) ON DELETE SET NULL,
    title TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
)`},
	{name: "conversation_messages", kind: kindTable, since: 2, create: `
CREATE TABLE IF NOT EXISTS conversation_messages (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
    content TEXT NOT NULL,
    position INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE (conversation_id, position)
)`},
	{name: "documents_fts", kind: kindTable, since: 2, create: `
CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
    id UNINDEXED,
    filename,
    tokenize = 'unicode61 remove_diacritics 2'
)`},
	{name: "interactions_fts", kind: kindTable, since: 2, create: `
CREATE VIRTUAL TABLE IF NOT EXISTS interactions_fts USING fts5(
    id UNINDEXED,
    document_id UNINDEXED,
    selected_text,
    response,
    tokenize = 'unicode61 remove_diacritics 2'
)`},
	{name: "concepts_fts", kind: kindTable, since: 2, create: `
CREATE VIRTUAL TABLE IF NOT EXISTS concepts_fts USING fts5(
    id UNINDEXED,
    name,
    tokenize = 'unicode61 remove_diacritics 2'
)`},
	{name: "idx_highlights_document", kind: kindIndex, since: 2,
		create: `CREATE INDEX IF NOT EXISTS idx_highlights_document ON highlights(document_id, page_number)`},
	{name: "idx_bookmarks_document", kind: kindIndex, since: 2,
		create: `CREATE INDEX IF NOT EXISTS idx_bookmarks_document ON bookmarks(document_id, page_number)`},
	{name: "idx_conversations_updated", kind: kindIndex, since: 2,
		create: `CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at DESC)`},
	{name: "idx_conversations_document", kind: kindIndex, since: 2,
		create: `CREATE INDEX IF NOT EXISTS idx_conversations_document ON conversations(document_id)`},

	{name: "documents_fts_insert", kind: kindTrigger, since: 2, create: `
CREATE TRIGGER IF NOT EXISTS documents_fts_insert AFTER INSERT ON documents BEGIN
    INSERT INTO documents_fts(id, filename) VALUES (new.id, new.filename);
END`},
	{name: "documents_fts_update", kind: kindTrigger, since: 2, create: `
CREATE TRIGGER IF NOT EXISTS documents_fts_update AFTER UPDATE OF filename ON documents BEGIN
    DELETE FROM documents_fts WHERE id = old.id;
    INSERT INTO documents_fts(id, filename) VALUES (new.id, new.filename);
END`},
	{name: "documents_fts_delete", kind: kindTrigger, since: 2, create: `
CREATE TRIGGER IF NOT EXISTS documents_fts_delete AFTER DELETE ON documents BEGIN
    DELETE FROM documents_fts WHERE id = old.id;
END`},
	{name: "interactions_fts_insert", kind: kindTrigger, since: 2, create: `
CREATE TRIGGER IF NOT EXISTS interactions_fts_insert AFTER INSERT ON interactions BEGIN
    INSERT INTO interactions_fts(id, document_id, selected_text, response)
    VALUES (new.id, new.document_id, new.selected_text, new.response);
END`},
	{name: "interactions_fts_delete", kind: kindTrigger, since: 2, create: `
CREATE TRIGGER IF NOT EXISTS interactions_fts_delete AFTER DELETE ON interactions BEGIN
    DELETE FROM interactions_fts WHERE id = old.id;
END`},
	{name: "concepts_fts_insert", kind: kindTrigger, since: 2, create: `
CREATE TRIGGER IF NOT EXISTS concepts_fts_insert AFTER INSERT ON concepts BEGIN
    INSERT INTO concepts_fts(id, name) VALUES (new.id, new.name);
END`},
	{name: "concepts_fts_delete", kind: kindTrigger, since: 2, create: `
CREATE TRIGGER IF NOT EXISTS concepts_fts_delete AFTER DELETE ON concepts BEGIN
    DELETE FROM concepts_fts WHERE id = old.id;
END`},
}

// ftsIndex describes how a full-text table is rebuilt from its base table.
type ftsIndex struct {
	table   string
	base    string
	rebuild string
}

var ftsIndexes = []ftsIndex{
	{table: "documents_fts", base: "documents", rebuild: `
INSERT INTO documents_fts(id, filename) SELECT id, filename FROM documents`},
	{table: "interactions_fts", base: "interactions", rebuild: `
INSERT INTO interactions_fts(id, document_id, selected_text, response)
SELECT id, document_id, selected_text, response FROM interactions`},
	{table: "concepts_fts", base: "concepts", rebuild: `
INSERT INTO concepts_fts(id, name) SELECT id, name FROM concepts`},
}

// RequiredTables returns the tables the current schema version requires.
func RequiredTables() []string {
	tables := []string{schemaVersionTable}
	for _, o := range schemaObjects {
		if o.kind == kindTable {
			tables = append(tables, o.name)
		}
	}
	return tables
}
