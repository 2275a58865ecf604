// ABOUTME: Session state model and the merge semantics behind checkpoint upserts
// ABOUTME: Every checkpoint write is a complete snapshot, never a delta needing replay
package models

import "time"

// SessionStatus is the crash-recovery state of a session row.
type SessionStatus string

const (
	StatusActive      SessionStatus = "active"
	StatusCompleted   SessionStatus = "completed"
	StatusInterrupted SessionStatus = "interrupted"
)

// SessionState is one row per session. Status transitions are
// active→completed (normal end), active→interrupted (startup sweep) and
// interrupted→active (recovery read). Nothing else flips status.
type SessionState struct {
	SessionID      string        `json:"session_id"`
	Status         SessionStatus `json:"status"`
	SpecFolder     string        `json:"spec_folder,omitempty"`
	CurrentTask    string        `json:"current_task,omitempty"`
	LastAction     string        `json:"last_action,omitempty"`
	ContextSummary string        `json:"context_summary,omitempty"`
	PendingWork    string        `json:"pending_work,omitempty"`
	StateData      string        `json:"state_data,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	// Recovered is set by RecoverState when the row was interrupted and
	// has just been revived. Not persisted.
	Recovered bool `json:"recovered,omitempty"`
}

// SessionPatch carries the fields a checkpoint supplies. Nil pointers
// mean "leave the existing value alone", matching the COALESCE in the
// upsert.
type SessionPatch struct {
	SpecFolder     *string
	CurrentTask    *string
	LastAction     *string
	ContextSummary *string
	PendingWork    *string
	StateData      *string
}

// MergeSessionState applies a patch over an existing row (nil for first
// write) and returns the full next snapshot. The result is always
// active with a bumped UpdatedAt; omitted fields carry forward.
func MergeSessionState(existing *SessionState, sessionID string, patch SessionPatch, now time.Time) SessionState {
	next := SessionState{
		SessionID: sessionID,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil {
		next.SpecFolder = existing.SpecFolder
		next.CurrentTask = existing.CurrentTask
		next.LastAction = existing.LastAction
		next.ContextSummary = existing.ContextSummary
		next.PendingWork = existing.PendingWork
		next.StateData = existing.StateData
		next.CreatedAt = existing.CreatedAt
	}
	if patch.SpecFolder != nil {
		next.SpecFolder = *patch.SpecFolder
	}
	if patch.CurrentTask != nil {
		next.CurrentTask = *patch.CurrentTask
	}
	if patch.LastAction != nil {
		next.LastAction = *patch.LastAction
	}
	if patch.ContextSummary != nil {
		next.ContextSummary = *patch.ContextSummary
	}
	if patch.PendingWork != nil {
		next.PendingWork = *patch.PendingWork
	}
	if patch.StateData != nil {
		next.StateData = *patch.StateData
	}
	return next
}

// String helper for building patches inline.
func StringPtr(s string) *string { return &s }
