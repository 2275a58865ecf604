// ABOUTME: Memory record storage operations for SQLite
// ABOUTME: Implements save, lookup, and channel-scoped listing of memories
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/speckeep/speckeep/internal/models"
)

// MemoryStore handles memory record persistence
type MemoryStore struct {
	db *DB
}

// NewMemoryStore creates a new MemoryStore
func NewMemoryStore(db *DB) *MemoryStore {
	return &MemoryStore{db: db}
}

// Save inserts a new memory record or updates an existing one by id.
// On insert the assigned id is written back into the record.
func (s *MemoryStore) Save(m *models.MemoryRecord) error {
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	if m.ImportanceTier == "" {
		m.ImportanceTier = models.TierNormal
	}
	if m.ImportanceWeight == 0 {
		m.ImportanceWeight = 0.5
	}

	if m.ID == 0 {
		res, err := s.db.Exec(`
			INSERT INTO memories (title, spec_folder, channel, importance_tier, file_path,
				anchor_id, trigger_count, importance_weight, content_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, m.Title, m.SpecFolder, m.Channel, string(m.ImportanceTier), nullString(m.FilePath),
			nullString(m.AnchorID), m.TriggerCount, m.ImportanceWeight,
			nullString(m.ContentHash), m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert memory: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("memory insert id: %w", err)
		}
		m.ID = id
		return nil
	}

	_, err := s.db.Exec(`
		UPDATE memories SET title = ?, spec_folder = ?, channel = ?, importance_tier = ?,
			file_path = ?, anchor_id = ?, trigger_count = ?, importance_weight = ?,
			content_hash = ?, updated_at = ?
		WHERE id = ?
	`, m.Title, m.SpecFolder, m.Channel, string(m.ImportanceTier), nullString(m.FilePath),
		nullString(m.AnchorID), m.TriggerCount, m.ImportanceWeight,
		nullString(m.ContentHash), m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("update memory: %w", err)
	}
	return nil
}

// GetByID retrieves a memory record by its id, or nil if absent
func (s *MemoryStore) GetByID(id int64) (*models.MemoryRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, title, spec_folder, channel, importance_tier, file_path, anchor_id,
			trigger_count, importance_weight, content_hash, created_at, updated_at
		FROM memories WHERE id = ?
	`, id)

	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return m, nil
}

// ByChannels lists non-deprecated memories whose channel is in the given
// set, newest first, capped at limit.
func (s *MemoryStore) ByChannels(channels []string, limit int) ([]models.MemoryRecord, error) {
	if len(channels) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	placeholders := strings.Repeat("?,", len(channels))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, 0, len(channels)+2)
	for _, ch := range channels {
		args = append(args, ch)
	}
	args = append(args, string(models.TierDeprecated), limit)

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT id, title, spec_folder, channel, importance_tier, file_path, anchor_id,
			trigger_count, importance_weight, content_hash, created_at, updated_at
		FROM memories
		WHERE channel IN (%s) AND importance_tier != ?
		ORDER BY updated_at DESC
		LIMIT ?
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("list by channels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectMemories(rows)
}

// Recent lists the most recently updated memories across all folders
func (s *MemoryStore) Recent(limit int) ([]models.MemoryRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, title, spec_folder, channel, importance_tier, file_path, anchor_id,
			trigger_count, importance_weight, content_hash, created_at, updated_at
		FROM memories
		ORDER BY updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectMemories(rows)
}

// All returns every memory record, for offline ranking passes
func (s *MemoryStore) All() ([]models.MemoryRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, title, spec_folder, channel, importance_tier, file_path, anchor_id,
			trigger_count, importance_weight, content_hash, created_at, updated_at
		FROM memories
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list all: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectMemories(rows)
}

// Folders returns the distinct spec folders present in the store
func (s *MemoryStore) Folders() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT spec_folder FROM memories ORDER BY spec_folder`)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var folders []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// Touch bumps the trigger count and updated_at for a delivered memory
func (s *MemoryStore) Touch(id int64) error {
	_, err := s.db.Exec(`
		UPDATE memories SET trigger_count = trigger_count + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, id)
	return err
}

// scanner abstracts sql.Row and sql.Rows for shared scanning
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row scanner) (*models.MemoryRecord, error) {
	var (
		m           models.MemoryRecord
		tier        string
		filePath    sql.NullString
		anchorID    sql.NullString
		contentHash sql.NullString
	)

	err := row.Scan(&m.ID, &m.Title, &m.SpecFolder, &m.Channel, &tier, &filePath,
		&anchorID, &m.TriggerCount, &m.ImportanceWeight, &contentHash,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	m.ImportanceTier = models.ImportanceTier(tier)
	if filePath.Valid {
		m.FilePath = filePath.String
	}
	if anchorID.Valid {
		m.AnchorID = anchorID.String
	}
	if contentHash.Valid {
		m.ContentHash = contentHash.String
	}
	return &m, nil
}

func collectMemories(rows *sql.Rows) ([]models.MemoryRecord, error) {
	var memories []models.MemoryRecord
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, *m)
	}
	return memories, rows.Err()
}

// nullString converts empty strings to NULL for optional columns
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
