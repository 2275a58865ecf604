// ABOUTME: Dedup ledger operations for the sent_memories table
// ABOUTME: Idempotent inserts, per-session caps, and TTL sweeps
package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/speckeep/speckeep/internal/models"
)

// SentMemoryStore handles the per-session delivery ledger
type SentMemoryStore struct {
	db *DB
}

// NewSentMemoryStore creates a new SentMemoryStore
func NewSentMemoryStore(db *DB) *SentMemoryStore {
	return &SentMemoryStore{db: db}
}

// ExistingHashes returns which of the given hashes already have a row
// for the session. One query regardless of how many hashes are checked.
func (s *SentMemoryStore) ExistingHashes(sessionID string, hashes []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(hashes) == 0 {
		return existing, nil
	}

	placeholders := strings.Repeat("?,", len(hashes))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, 0, len(hashes)+1)
	args = append(args, sessionID)
	for _, h := range hashes {
		args = append(args, h)
	}

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT memory_hash FROM sent_memories
		WHERE session_id = ? AND memory_hash IN (%s)
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("lookup sent hashes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		existing[h] = true
	}
	return existing, rows.Err()
}

// MarkBatch records a set of delivered fingerprints in one transaction.
// Duplicate rows are silently ignored, keeping the call idempotent.
func (s *SentMemoryStore) MarkBatch(sessionID string, entries []models.SentMemoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin mark batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO sent_memories (session_id, memory_hash, memory_id, sent_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare mark batch: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		sentAt := e.SentAt
		if sentAt.IsZero() {
			sentAt = time.Now()
		}
		var memoryID interface{}
		if e.MemoryID != nil {
			memoryID = *e.MemoryID
		}
		if _, err := stmt.Exec(sessionID, e.MemoryHash, memoryID, sentAt); err != nil {
			return fmt.Errorf("mark sent %s: %w", e.MemoryHash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mark batch: %w", err)
	}
	return nil
}

// EnforceCap deletes the oldest rows beyond max for a session, in one
// bounded statement. No-op when the session is at or under the cap.
func (s *SentMemoryStore) EnforceCap(sessionID string, max int) error {
	if max <= 0 {
		return nil
	}

	_, err := s.db.Exec(`
		DELETE FROM sent_memories
		WHERE session_id = ? AND memory_hash NOT IN (
			SELECT memory_hash FROM sent_memories
			WHERE session_id = ?
			ORDER BY sent_at DESC, memory_hash
			LIMIT ?
		)
	`, sessionID, sessionID, max)
	if err != nil {
		return fmt.Errorf("enforce session cap: %w", err)
	}
	return nil
}

// DeleteOlderThan removes every row whose sent_at predates the cutoff.
// Returns the number of rows deleted.
func (s *SentMemoryStore) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM sent_memories WHERE sent_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire sent rows: %w", err)
	}
	return res.RowsAffected()
}

// ClearSession removes every dedup row for a session
func (s *SentMemoryStore) ClearSession(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM sent_memories WHERE session_id = ?`, sessionID)
	return err
}

// Count returns the number of dedup rows for a session
func (s *SentMemoryStore) Count(sessionID string) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sent_memories WHERE session_id = ?
	`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sent rows: %w", err)
	}
	return n, nil
}

// Hashes returns the stored fingerprints for a session ordered
// newest-first, for stats and diagnostics.
func (s *SentMemoryStore) Hashes(sessionID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT memory_hash FROM sent_memories
		WHERE session_id = ?
		ORDER BY sent_at DESC, memory_hash
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list sent hashes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}
