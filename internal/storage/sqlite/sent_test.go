// ABOUTME: Tests for the sent_memories dedup ledger
// ABOUTME: Verifies idempotent marking, cap enforcement, and TTL sweeps
package sqlite

import (
	"fmt"
	"testing"
	"time"

	"github.com/speckeep/speckeep/internal/models"
)

func TestMarkBatch_Idempotent(t *testing.T) {
	store := NewSentMemoryStore(testDB(t))

	entries := []models.SentMemoryEntry{
		{MemoryHash: "aaaa000011112222"},
		{MemoryHash: "bbbb000011112222"},
	}
	if err := store.MarkBatch("sess-1", entries); err != nil {
		t.Fatalf("MarkBatch() error = %v", err)
	}
	// Marking the same hashes again must not add rows.
	if err := store.MarkBatch("sess-1", entries); err != nil {
		t.Fatalf("MarkBatch() repeat error = %v", err)
	}

	n, err := store.Count("sess-1")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestExistingHashes_SingleLookup(t *testing.T) {
	store := NewSentMemoryStore(testDB(t))

	if err := store.MarkBatch("sess-1", []models.SentMemoryEntry{
		{MemoryHash: "seen000000000001"},
	}); err != nil {
		t.Fatalf("MarkBatch() error = %v", err)
	}

	existing, err := store.ExistingHashes("sess-1", []string{
		"seen000000000001", "new0000000000002",
	})
	if err != nil {
		t.Fatalf("ExistingHashes() error = %v", err)
	}
	if !existing["seen000000000001"] {
		t.Error("marked hash not reported as existing")
	}
	if existing["new0000000000002"] {
		t.Error("unmarked hash reported as existing")
	}

	// Other sessions do not leak into the lookup.
	other, err := store.ExistingHashes("sess-2", []string{"seen000000000001"})
	if err != nil {
		t.Fatalf("ExistingHashes() error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("cross-session lookup = %v, want empty", other)
	}
}

func TestEnforceCap_KeepsNewest(t *testing.T) {
	store := NewSentMemoryStore(testDB(t))

	base := time.Now().Add(-time.Hour)
	var entries []models.SentMemoryEntry
	for i := 0; i < 10; i++ {
		entries = append(entries, models.SentMemoryEntry{
			MemoryHash: fmt.Sprintf("hash%012d", i),
			SentAt:     base.Add(time.Duration(i) * time.Minute),
		})
	}
	if err := store.MarkBatch("sess-1", entries); err != nil {
		t.Fatalf("MarkBatch() error = %v", err)
	}

	if err := store.EnforceCap("sess-1", 4); err != nil {
		t.Fatalf("EnforceCap() error = %v", err)
	}

	n, err := store.Count("sess-1")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 4 {
		t.Fatalf("Count() after cap = %d, want 4", n)
	}

	hashes, err := store.Hashes("sess-1")
	if err != nil {
		t.Fatalf("Hashes() error = %v", err)
	}
	// The four most recently sent survive.
	want := []string{"hash000000000009", "hash000000000008", "hash000000000007", "hash000000000006"}
	for i, h := range want {
		if hashes[i] != h {
			t.Errorf("Hashes()[%d] = %s, want %s", i, hashes[i], h)
		}
	}
}

func TestEnforceCap_UnderCapNoop(t *testing.T) {
	store := NewSentMemoryStore(testDB(t))

	if err := store.MarkBatch("sess-1", []models.SentMemoryEntry{
		{MemoryHash: "only000000000001"},
	}); err != nil {
		t.Fatalf("MarkBatch() error = %v", err)
	}
	if err := store.EnforceCap("sess-1", 100); err != nil {
		t.Fatalf("EnforceCap() error = %v", err)
	}

	n, _ := store.Count("sess-1")
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestDeleteOlderThan(t *testing.T) {
	store := NewSentMemoryStore(testDB(t))

	now := time.Now()
	if err := store.MarkBatch("sess-1", []models.SentMemoryEntry{
		{MemoryHash: "old0000000000001", SentAt: now.Add(-2 * time.Hour)},
		{MemoryHash: "new0000000000001", SentAt: now},
	}); err != nil {
		t.Fatalf("MarkBatch() error = %v", err)
	}

	deleted, err := store.DeleteOlderThan(now.Add(-30 * time.Minute))
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteOlderThan() = %d, want 1", deleted)
	}

	// Sweep is idempotent.
	deleted, err = store.DeleteOlderThan(now.Add(-30 * time.Minute))
	if err != nil {
		t.Fatalf("DeleteOlderThan() repeat error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("second sweep deleted %d, want 0", deleted)
	}
}

func TestClearSession(t *testing.T) {
	store := NewSentMemoryStore(testDB(t))

	if err := store.MarkBatch("sess-1", []models.SentMemoryEntry{
		{MemoryHash: "a000000000000001"},
		{MemoryHash: "b000000000000001"},
	}); err != nil {
		t.Fatalf("MarkBatch() error = %v", err)
	}
	if err := store.MarkBatch("sess-2", []models.SentMemoryEntry{
		{MemoryHash: "c000000000000001"},
	}); err != nil {
		t.Fatalf("MarkBatch() error = %v", err)
	}

	if err := store.ClearSession("sess-1"); err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}

	n, _ := store.Count("sess-1")
	if n != 0 {
		t.Errorf("sess-1 Count() = %d, want 0", n)
	}
	n, _ = store.Count("sess-2")
	if n != 1 {
		t.Errorf("sess-2 Count() = %d, want 1 (untouched)", n)
	}
}

func TestMarkBatch_StoresMemoryID(t *testing.T) {
	store := NewSentMemoryStore(testDB(t))

	id := int64(42)
	if err := store.MarkBatch("sess-1", []models.SentMemoryEntry{
		{MemoryHash: "withid0000000001", MemoryID: &id},
	}); err != nil {
		t.Fatalf("MarkBatch() error = %v", err)
	}

	var stored int64
	err := store.db.QueryRow(`
		SELECT memory_id FROM sent_memories WHERE session_id = ? AND memory_hash = ?
	`, "sess-1", "withid0000000001").Scan(&stored)
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	if stored != 42 {
		t.Errorf("memory_id = %d, want 42", stored)
	}
}
