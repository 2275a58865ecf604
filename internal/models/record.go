// ABOUTME: MemoryRecord and importance tier definitions for stored context memories
// ABOUTME: Records are grouped by spec folder and ranked by the scoring package
package models

import "time"

// ImportanceTier classifies how durable a memory is. Tiers are ordered:
// constitutional outranks critical, deprecated ranks last.
type ImportanceTier string

const (
	TierConstitutional ImportanceTier = "constitutional"
	TierCritical       ImportanceTier = "critical"
	TierImportant      ImportanceTier = "important"
	TierNormal         ImportanceTier = "normal"
	TierTemporary      ImportanceTier = "temporary"
	TierDeprecated     ImportanceTier = "deprecated"
)

// tierRank orders tiers for comparison; lower is more important.
var tierRank = map[ImportanceTier]int{
	TierConstitutional: 0,
	TierCritical:       1,
	TierImportant:      2,
	TierNormal:         3,
	TierTemporary:      4,
	TierDeprecated:     5,
}

// Rank returns the ordering position of a tier. Unknown tiers rank
// alongside normal so malformed input never outranks critical content.
func (t ImportanceTier) Rank() int {
	if r, ok := tierRank[t]; ok {
		return r
	}
	return tierRank[TierNormal]
}

// OutranksOrEquals reports whether t sorts at or above other.
func (t ImportanceTier) OutranksOrEquals(other ImportanceTier) bool {
	return t.Rank() <= other.Rank()
}

// MemoryRecord is one stored unit of context. IDs are assigned by the
// database and immutable afterwards; archival is a tier transition, the
// engine never deletes rows.
type MemoryRecord struct {
	ID               int64          `json:"id"`
	Title            string         `json:"title"`
	SpecFolder       string         `json:"spec_folder"`
	Channel          string         `json:"channel,omitempty"`
	ImportanceTier   ImportanceTier `json:"importance_tier"`
	FilePath         string         `json:"file_path,omitempty"`
	AnchorID         string         `json:"anchor_id,omitempty"`
	TriggerCount     int            `json:"trigger_count"`
	ImportanceWeight float64        `json:"importance_weight"`
	ContentHash      string         `json:"content_hash,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// SentMemoryEntry records that a memory fingerprint was delivered to a
// client within a session. At most one row exists per (session, hash).
type SentMemoryEntry struct {
	SessionID  string    `json:"session_id"`
	MemoryHash string    `json:"memory_hash"`
	MemoryID   *int64    `json:"memory_id,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}
