// ABOUTME: Session store: per-session dedup tracking and crash-safe checkpoints
// ABOUTME: Fails open on infrastructure problems, fails hard only on unhashable input
package session

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/speckeep/speckeep/internal/config"
	"github.com/speckeep/speckeep/internal/models"
	"github.com/speckeep/speckeep/internal/render"
	"github.com/speckeep/speckeep/internal/storage/sqlite"
)

// Structured failures for write-path calls. Callers branch on these
// instead of parsing messages.
var (
	ErrStoreUnavailable = errors.New("session store not initialized")
	ErrMissingSessionID = errors.New("session id is required")
)

// Store guarantees no memory is delivered twice within a session while
// dedup is enabled, and that session progress survives an unclean exit.
type Store struct {
	db       *sqlite.DB
	sent     *sqlite.SentMemoryStore
	states   *sqlite.SessionStateStore
	cfg      *config.Config
	renderer *render.Renderer
}

// New creates a session store over an open database handle. A nil db is
// tolerated: read-style checks fail open, write-style calls return
// ErrStoreUnavailable.
func New(db *sqlite.DB, cfg *config.Config) *Store {
	s := &Store{db: db, cfg: cfg, renderer: render.NewRenderer(cfg.TemplateDir)}
	if db != nil {
		s.sent = sqlite.NewSentMemoryStore(db)
		s.states = sqlite.NewSessionStateStore(db)
	}
	return s
}

// Init runs the process-start maintenance pass: sweep every still-active
// session to interrupted, then expire stale dedup rows. Safe to call
// repeatedly.
func (s *Store) Init() error {
	if s.db == nil {
		return ErrStoreUnavailable
	}
	swept, err := s.ResetInterruptedSessions()
	if err != nil {
		return err
	}
	if swept > 0 {
		log.Printf("Marked %d session(s) as interrupted from a previous run", swept)
	}
	if _, err := s.CleanupExpiredSessions(); err != nil {
		return err
	}
	return nil
}

// ShouldSend reports whether a memory may be delivered to the client in
// this session. The policy fails open: disabled dedup, a missing store,
// a blank session id, or any lookup error all allow the send. The only
// returned error is ErrNoIdentity from fingerprinting.
func (s *Store) ShouldSend(sessionID string, m *models.MemoryRecord) (bool, error) {
	if s.cfg.DisableDedup || s.db == nil || sessionID == "" {
		return true, nil
	}

	hash, err := GenerateMemoryHash(m)
	if err != nil {
		return false, err
	}

	existing, err := s.sent.ExistingHashes(sessionID, []string{hash})
	if err != nil {
		log.Printf("Warning: dedup lookup failed, allowing send: %v", err)
		return true, nil
	}
	return !existing[hash], nil
}

// ShouldSendBatch answers ShouldSend for many memories with one ledger
// lookup. The returned slice is positional with the input.
func (s *Store) ShouldSendBatch(sessionID string, memories []*models.MemoryRecord) ([]bool, error) {
	allow := make([]bool, len(memories))

	if s.cfg.DisableDedup || s.db == nil || sessionID == "" {
		for i := range allow {
			allow[i] = true
		}
		return allow, nil
	}

	hashes := make([]string, len(memories))
	for i, m := range memories {
		h, err := GenerateMemoryHash(m)
		if err != nil {
			return nil, fmt.Errorf("memory %d: %w", i, err)
		}
		hashes[i] = h
	}

	existing, err := s.sent.ExistingHashes(sessionID, hashes)
	if err != nil {
		log.Printf("Warning: batch dedup lookup failed, allowing sends: %v", err)
		for i := range allow {
			allow[i] = true
		}
		return allow, nil
	}

	for i, h := range hashes {
		allow[i] = !existing[h]
	}
	return allow, nil
}

// MarkSent records one delivered memory, then enforces the per-session
// entry cap. Marking the same memory twice is a no-op, not an error.
func (s *Store) MarkSent(sessionID string, m *models.MemoryRecord) error {
	return s.MarkSentBatch(sessionID, []*models.MemoryRecord{m})
}

// MarkSentBatch records a set of delivered memories atomically. All
// fingerprints land or none do.
func (s *Store) MarkSentBatch(sessionID string, memories []*models.MemoryRecord) error {
	if s.db == nil {
		return ErrStoreUnavailable
	}
	if sessionID == "" {
		return ErrMissingSessionID
	}
	if len(memories) == 0 {
		return nil
	}

	entries := make([]models.SentMemoryEntry, len(memories))
	now := time.Now()
	for i, m := range memories {
		hash, err := GenerateMemoryHash(m)
		if err != nil {
			return fmt.Errorf("memory %d: %w", i, err)
		}
		entries[i] = models.SentMemoryEntry{
			SessionID:  sessionID,
			MemoryHash: hash,
			SentAt:     now,
		}
		if m != nil && m.ID != 0 {
			id := m.ID
			entries[i].MemoryID = &id
		}
	}

	if err := s.sent.MarkBatch(sessionID, entries); err != nil {
		return err
	}
	return s.sent.EnforceCap(sessionID, s.cfg.MaxSentPerSession)
}

// CleanupExpiredSessions deletes dedup rows older than the configured
// TTL. Idempotent; returns the number of rows removed.
func (s *Store) CleanupExpiredSessions() (int64, error) {
	if s.db == nil {
		return 0, ErrStoreUnavailable
	}
	cutoff := time.Now().Add(-s.cfg.SessionTTL)
	return s.sent.DeleteOlderThan(cutoff)
}

// ClearSession removes a session's dedup rows and state row entirely
func (s *Store) ClearSession(sessionID string) error {
	if s.db == nil {
		return ErrStoreUnavailable
	}
	if sessionID == "" {
		return ErrMissingSessionID
	}
	if err := s.sent.ClearSession(sessionID); err != nil {
		return err
	}
	return s.states.Delete(sessionID)
}

// SaveState checkpoints session progress. Every write is a complete
// snapshot: supplied fields replace, omitted fields carry forward, and
// the row always comes out active.
func (s *Store) SaveState(sessionID string, patch models.SessionPatch) (*models.SessionState, error) {
	if s.db == nil {
		return nil, ErrStoreUnavailable
	}
	if sessionID == "" {
		return nil, ErrMissingSessionID
	}
	return s.states.Upsert(sessionID, patch)
}

// Checkpoint saves state and, when the session's spec folder exists on
// disk, writes a human-readable recovery document into its memory
// sub-area. A folder that does not exist yet is not an error; only the
// durable row is written. Returns the saved state and the document path
// (empty when no document was written).
func (s *Store) Checkpoint(sessionID string, patch models.SessionPatch) (*models.SessionState, string, error) {
	state, err := s.SaveState(sessionID, patch)
	if err != nil {
		return nil, "", err
	}

	if state.SpecFolder == "" {
		return state, "", nil
	}
	folderDir := filepath.Join(s.cfg.SpecsRoot, state.SpecFolder)
	if info, err := os.Stat(folderDir); err != nil || !info.IsDir() {
		return state, "", nil
	}

	doc, err := s.renderer.Render(render.RecoveryTemplate, map[string]interface{}{
		"SessionID":      state.SessionID,
		"Status":         string(state.Status),
		"SpecFolder":     state.SpecFolder,
		"CurrentTask":    state.CurrentTask,
		"LastAction":     state.LastAction,
		"ContextSummary": state.ContextSummary,
		"PendingWork":    state.PendingWork,
		"UpdatedAt":      state.UpdatedAt.Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		return nil, "", err
	}

	memoryDir := filepath.Join(folderDir, "memory")
	if err := os.MkdirAll(memoryDir, 0755); err != nil {
		return nil, "", fmt.Errorf("create memory dir: %w", err)
	}
	docPath := filepath.Join(memoryDir, "session-recovery.md")
	if err := os.WriteFile(docPath, []byte(doc), 0644); err != nil {
		return nil, "", fmt.Errorf("write recovery document: %w", err)
	}

	return state, docPath, nil
}

// CompleteSession transitions a session to completed (normal end)
func (s *Store) CompleteSession(sessionID string) error {
	if s.db == nil {
		return ErrStoreUnavailable
	}
	if sessionID == "" {
		return ErrMissingSessionID
	}
	return s.states.SetStatus(sessionID, models.StatusCompleted)
}

// ResetInterruptedSessions force-transitions every active session to
// interrupted. Run exactly once at process start; this is the only
// place that transition happens.
func (s *Store) ResetInterruptedSessions() (int64, error) {
	if s.db == nil {
		return 0, ErrStoreUnavailable
	}
	return s.states.ResetInterrupted()
}

// RecoverState reads a session's state. If and only if the row was
// interrupted it flips back to active and the returned state carries
// the Recovered flag, so callers can tell a resumed session from a
// fresh one. A missing row returns nil without error.
func (s *Store) RecoverState(sessionID string) (*models.SessionState, error) {
	if s.db == nil {
		return nil, ErrStoreUnavailable
	}
	if sessionID == "" {
		return nil, ErrMissingSessionID
	}

	state, err := s.states.Get(sessionID)
	if err != nil || state == nil {
		return state, err
	}

	if state.Status == models.StatusInterrupted {
		if err := s.states.SetStatus(sessionID, models.StatusActive); err != nil {
			return nil, err
		}
		state.Status = models.StatusActive
		state.Recovered = true
	}
	return state, nil
}

// Stats summarizes a session's footprint in the store
type Stats struct {
	SessionID    string               `json:"session_id"`
	SentCount    int                  `json:"sent_count"`
	MaxEntries   int                  `json:"max_entries"`
	Status       models.SessionStatus `json:"status,omitempty"`
	RecentHashes []string             `json:"recent_hashes,omitempty"`
}

// SessionStats reports dedup and state counts for a session
func (s *Store) SessionStats(sessionID string) (*Stats, error) {
	if s.db == nil {
		return nil, ErrStoreUnavailable
	}
	if sessionID == "" {
		return nil, ErrMissingSessionID
	}

	count, err := s.sent.Count(sessionID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		SessionID:  sessionID,
		SentCount:  count,
		MaxEntries: s.cfg.MaxSentPerSession,
	}
	if hashes, err := s.sent.Hashes(sessionID); err == nil {
		if len(hashes) > 5 {
			hashes = hashes[:5]
		}
		stats.RecentHashes = hashes
	}
	if state, err := s.states.Get(sessionID); err == nil && state != nil {
		stats.Status = state.Status
	}
	return stats, nil
}

// States exposes the underlying session-state store for maintenance
// surfaces (listing sessions by status).
func (s *Store) States() *sqlite.SessionStateStore {
	return s.states
}
