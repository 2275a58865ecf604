// ABOUTME: Tests for spec folder validation and suggestions
// ABOUTME: Verifies near-miss diagnoses and suggestion ordering

package contextgen

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidateFolderName_Valid(t *testing.T) {
	valid := []string{
		"014-stateless-alignment",
		"001-auth",
		"123-a",
		"001-auth/002-tokens",
		"999-multi-word-slug-42",
	}
	for _, name := range valid {
		t.Run(name, func(t *testing.T) {
			if err := ValidateFolderName(name); err != nil {
				t.Errorf("ValidateFolderName(%q) = %v, want nil", name, err)
			}
		})
	}
}

func TestValidateFolderName_Diagnoses(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
	}{
		{"1-short", "NNN-lowercase-slug"},
		{"014-Stateless", "lowercase"},
		{"014-stateless_alignment", "hyphens"},
		{"014-4lignment", "lowercase letter"},
		{"stateless-alignment", "NNN-lowercase-slug"},
		{"", "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFolderName(tt.name)
			if err == nil {
				t.Fatalf("ValidateFolderName(%q) = nil, want error", tt.name)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if !strings.Contains(verr.Diagnosis, tt.fragment) {
				t.Errorf("diagnosis %q should mention %q", verr.Diagnosis, tt.fragment)
			}
		})
	}
}

func TestSuggestions_SubstringMatchFirst(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"001-auth", "002-auth-tokens", "003-search", "archived-004-old"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	got := Suggestions(root, "auth", 5)
	if len(got) != 2 {
		t.Fatalf("Suggestions() = %v, want the two auth folders", got)
	}
	if got[0] != "001-auth" || got[1] != "002-auth-tokens" {
		t.Errorf("Suggestions() = %v, want sorted substring matches", got)
	}
}

func TestSuggestions_FallsBackToRecent(t *testing.T) {
	root := t.TempDir()
	old := filepath.Join(root, "001-old")
	fresh := filepath.Join(root, "002-fresh")
	for _, dir := range []string{old, fresh, filepath.Join(root, "archive-junk"), filepath.Join(root, "not-valid")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	past := time.Now().Add(-24 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	got := Suggestions(root, "zzz-no-match", 5)
	if len(got) != 2 {
		t.Fatalf("Suggestions() = %v, want the two valid folders", got)
	}
	if got[0] != "002-fresh" {
		t.Errorf("Suggestions()[0] = %q, want most recent first", got[0])
	}
	for _, s := range got {
		if strings.Contains(s, "archive") {
			t.Errorf("archived folder %q suggested", s)
		}
	}
}

func TestSuggestions_MissingRoot(t *testing.T) {
	if got := Suggestions("/nonexistent-root", "x", 5); got != nil {
		t.Errorf("Suggestions() = %v, want nil for a missing root", got)
	}
}
