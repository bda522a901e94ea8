// ABOUTME: Tests for the ask command's flags and reading-history assembly
// ABOUTME: Runs against in-memory storage; no OpenAI calls are made

package commands

import (
	"strings"
	"testing"

	"github.com/harper/marginalia/internal/models"
	"github.com/harper/marginalia/internal/storage/sqlite"
)

func TestAskCmd_Flags(t *testing.T) {
	cmd := NewAskCmd()

	for name, def := range map[string]string{
		"action":  models.ActionExplain,
		"history": "5",
		"no-save": "false",
	} {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Fatalf("--%s flag not found", name)
		}
		if flag.DefValue != def {
			t.Errorf("--%s default = %q, want %q", name, flag.DefValue, def)
		}
	}
}

func TestAskCmd_RequiresAPIKey(t *testing.T) {
	db := testDB(t)
	t.Setenv("OPENAI_API_KEY", "")

	_, err := runCLI(t, db, "ask", "book.pdf", "--text", "entropy")
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("ask without a key error = %v, want OPENAI_API_KEY error", err)
	}
}

func TestReadingHistory(t *testing.T) {
	store, err := sqlite.NewStorageInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer func() { _ = store.Close() }()

	doc, err := store.Documents().GetOrCreate("raft.pdf", "/books/raft.pdf", nil)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	empty, err := readingHistory(store, doc, 5)
	if err != nil || empty != "" {
		t.Fatalf("history of an unread document = %q, %v; want empty", empty, err)
	}

	_, err = store.RecordCompletion(models.CompletionInput{
		NewInteraction: models.NewInteraction{
			DocumentID:   doc.ID,
			ActionType:   models.ActionDefine,
			SelectedText: "term",
			Response:     "A logical clock",
		},
		Concepts: []string{"logical clocks"},
	})
	if err != nil {
		t.Fatalf("RecordCompletion() error = %v", err)
	}

	got, err := readingHistory(store, doc, 5)
	if err != nil {
		t.Fatalf("readingHistory() error = %v", err)
	}
	for _, want := range []string{"DOCUMENT: raft.pdf", "logical clocks (1)", "define: term => A logical clock"} {
		if !strings.Contains(got, want) {
			t.Errorf("history should contain %q, got:\n%s", want, got)
		}
	}

	if disabled, _ := readingHistory(store, doc, 0); disabled != "" {
		t.Errorf("history with limit 0 = %q, want empty", disabled)
	}
}
