// ABOUTME: Tests for shared utility functions used by CLI commands
// ABOUTME: Verifies truncate, formatMillis, containsString, and validation helpers

package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{
			name:   "short string unchanged",
			input:  "hello",
			maxLen: 10,
			want:   "hello",
		},
		{
			name:   "exact length unchanged",
			input:  "hello",
			maxLen: 5,
			want:   "hello",
		},
		{
			name:   "long string truncated",
			input:  "hello world",
			maxLen: 8,
			want:   "hello...",
		},
		{
			name:   "very short maxLen",
			input:  "hello",
			maxLen: 2,
			want:   "he",
		},
		{
			name:   "unicode short maxLen keeps whole runes",
			input:  "你好世界！",
			maxLen: 3,
			want:   "你好世",
		},
		{
			name:   "unicode truncated with ellipsis",
			input:  "你好世界你好世界",
			maxLen: 5,
			want:   "你好...",
		},
		{
			name:   "empty string",
			input:  "",
			maxLen: 10,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestFormatMillis(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		ms   int64
		want string
	}{
		{"zero is never", 0, "never"},
		{"recent", now.Add(-2 * time.Second).UnixMilli(), "seconds ago"},
		{"hours ago", now.Add(-3 * time.Hour).UnixMilli(), "3 hours ago"},
		{"future", now.Add(49 * time.Hour).UnixMilli(), "from now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMillis(tt.ms)
			if !strings.Contains(got, tt.want) {
				t.Errorf("formatMillis(%d) = %q, want it to contain %q", tt.ms, got, tt.want)
			}
		})
	}
}

func TestContainsString(t *testing.T) {
	tests := []struct {
		name  string
		slice []string
		item  string
		want  bool
	}{
		{"item present", []string{"auto", "table", "json"}, "json", true},
		{"item absent", []string{"auto", "table", "json"}, "xml", false},
		{"nil slice", nil, "json", false},
		{"case sensitive match", []string{"JSON"}, "json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := containsString(tt.slice, tt.item)
			if got != tt.want {
				t.Errorf("containsString(%v, %q) = %v, want %v", tt.slice, tt.item, got, tt.want)
			}
		})
	}
}

func TestValidatePositiveInt(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		fieldName string
		wantErr   bool
	}{
		{"positive value", 5, "limit", false},
		{"zero value", 0, "limit", true},
		{"negative value", -1, "keep", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePositiveInt(tt.n, tt.fieldName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePositiveInt(%d, %q) error = %v, wantErr %v", tt.n, tt.fieldName, err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.fieldName) {
				t.Errorf("Error message should contain field name %q: %v", tt.fieldName, err)
			}
		})
	}
}

func TestOptionalInt(t *testing.T) {
	if optionalInt(-1) != nil {
		t.Error("optionalInt(-1) should be nil")
	}
	if p := optionalInt(0); p == nil || *p != 0 {
		t.Errorf("optionalInt(0) = %v, want pointer to 0", p)
	}
}

func TestPlainSnippet(t *testing.T) {
	got := plainSnippet("the <mark>leader</mark> steps down")
	if got != "the [leader] steps down" {
		t.Errorf("plainSnippet() = %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, map[string]int{"due": 2}); err != nil {
		t.Fatalf("printJSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"due": 2`) {
		t.Errorf("printJSON() = %q", buf.String())
	}
}
