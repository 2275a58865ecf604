// ABOUTME: Session state persistence for crash recovery
// ABOUTME: Upsert-with-merge checkpoints and the startup interrupted sweep
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/speckeep/speckeep/internal/models"
)

// SessionStateStore handles session snapshot persistence
type SessionStateStore struct {
	db *DB
}

// NewSessionStateStore creates a new SessionStateStore
func NewSessionStateStore(db *DB) *SessionStateStore {
	return &SessionStateStore{db: db}
}

// Get retrieves the state row for a session, or nil if absent
func (s *SessionStateStore) Get(sessionID string) (*models.SessionState, error) {
	var (
		state  models.SessionState
		status string
	)

	err := s.db.QueryRow(`
		SELECT session_id, status, spec_folder, current_task, last_action,
			context_summary, pending_work, state_data, created_at, updated_at
		FROM session_state WHERE session_id = ?
	`, sessionID).Scan(&state.SessionID, &status, &state.SpecFolder, &state.CurrentTask,
		&state.LastAction, &state.ContextSummary, &state.PendingWork, &state.StateData,
		&state.CreatedAt, &state.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session state: %w", err)
	}

	state.Status = models.SessionStatus(status)
	return &state, nil
}

// Upsert applies a checkpoint patch over the existing row (if any) and
// writes the merged snapshot. The written row is always active.
func (s *SessionStateStore) Upsert(sessionID string, patch models.SessionPatch) (*models.SessionState, error) {
	existing, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}

	next := models.MergeSessionState(existing, sessionID, patch, time.Now())

	_, err = s.db.Exec(`
		INSERT INTO session_state (session_id, status, spec_folder, current_task,
			last_action, context_summary, pending_work, state_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			status = excluded.status,
			spec_folder = excluded.spec_folder,
			current_task = excluded.current_task,
			last_action = excluded.last_action,
			context_summary = excluded.context_summary,
			pending_work = excluded.pending_work,
			state_data = excluded.state_data,
			updated_at = excluded.updated_at
	`, next.SessionID, string(next.Status), next.SpecFolder, next.CurrentTask,
		next.LastAction, next.ContextSummary, next.PendingWork, next.StateData,
		next.CreatedAt, next.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert session state: %w", err)
	}

	return &next, nil
}

// SetStatus transitions a session row to the given status
func (s *SessionStateStore) SetStatus(sessionID string, status models.SessionStatus) error {
	_, err := s.db.Exec(`
		UPDATE session_state SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE session_id = ?
	`, string(status), sessionID)
	if err != nil {
		return fmt.Errorf("set session status: %w", err)
	}
	return nil
}

// ResetInterrupted force-transitions every active row to interrupted.
// Run once at process start, before any new session work begins.
// Returns the number of rows swept.
func (s *SessionStateStore) ResetInterrupted() (int64, error) {
	res, err := s.db.Exec(`
		UPDATE session_state SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE status = ?
	`, string(models.StatusInterrupted), string(models.StatusActive))
	if err != nil {
		return 0, fmt.Errorf("reset interrupted sessions: %w", err)
	}
	return res.RowsAffected()
}

// ListByStatus returns sessions in the given status, newest first
func (s *SessionStateStore) ListByStatus(status models.SessionStatus, limit int) ([]models.SessionState, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT session_id, status, spec_folder, current_task, last_action,
			context_summary, pending_work, state_data, created_at, updated_at
		FROM session_state
		WHERE status = ?
		ORDER BY updated_at DESC
		LIMIT ?
	`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []models.SessionState
	for rows.Next() {
		var (
			state     models.SessionState
			rowStatus string
		)
		err := rows.Scan(&state.SessionID, &rowStatus, &state.SpecFolder, &state.CurrentTask,
			&state.LastAction, &state.ContextSummary, &state.PendingWork, &state.StateData,
			&state.CreatedAt, &state.UpdatedAt)
		if err != nil {
			return nil, err
		}
		state.Status = models.SessionStatus(rowStatus)
		states = append(states, state)
	}
	return states, rows.Err()
}

// Delete removes a session row entirely (explicit session clear)
func (s *SessionStateStore) Delete(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM session_state WHERE session_id = ?`, sessionID)
	return err
}
