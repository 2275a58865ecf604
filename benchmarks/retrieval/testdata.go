// ABOUTME: Benchmark scenario definitions for retrieval quality
// ABOUTME: Synthetic memory corpora with ground-truth relevant results

package retrieval

import (
	"time"

	"github.com/speckeep/speckeep/internal/models"
)

// Mode selects which retrieval surface a scenario probes
type Mode string

const (
	// ModeSearch probes channel-scoped search; results are titles
	ModeSearch Mode = "search"
	// ModeRankFolders probes composite folder ranking; results are folders
	ModeRankFolders Mode = "rank-folders"
	// ModeAlwaysVisible probes the top-tier section; results are titles
	ModeAlwaysVisible Mode = "always-visible"
)

// Scenario is one retrieval benchmark case: a corpus, a probe, and the
// ground-truth results.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Mode        Mode
	Records     []models.MemoryRecord
	Query       string   // search probe text (ModeSearch only)
	Channels    []string // channel scope for the search probe
	Relevant    []string // titles or folders that should surface
	K           int      // cutoff for precision/recall
	MinMRR      float64  // pass threshold
}

// corpusRecord builds a record with a deterministic timestamp offset
func corpusRecord(title, folder, channel string, tier models.ImportanceTier, ageDays int) models.MemoryRecord {
	at := benchNow.Add(-time.Duration(ageDays) * 24 * time.Hour)
	return models.MemoryRecord{
		Title:          title,
		SpecFolder:     folder,
		Channel:        channel,
		ImportanceTier: tier,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

// benchNow pins scoring so runs are reproducible
var benchNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

// Scenarios returns the full benchmark suite
func Scenarios() []Scenario {
	return []Scenario{
		{
			ID:          "S1",
			Mode:        ModeSearch,
			Name:        "keyword search finds the matching folder",
			Description: "Two-term query should rank the double match above single matches",
			Records: []models.MemoryRecord{
				corpusRecord("session dedup fingerprints", "031-dedup", "general", models.TierImportant, 1),
				corpusRecord("dedup cap enforcement", "031-dedup", "general", models.TierNormal, 2),
				corpusRecord("channel router cache", "012-router", "general", models.TierNormal, 1),
			},
			Query:    "dedup fingerprints",
			Channels: []string{"general"},
			Relevant: []string{"session dedup fingerprints"},
			K:        1,
			MinMRR:   1.0,
		},
		{
			ID:          "S2",
			Mode:        ModeSearch,
			Name:        "channel scoping excludes other branches",
			Description: "A feature-branch query must not surface another branch's memories",
			Records: []models.MemoryRecord{
				corpusRecord("auth token refresh", "004-auth", "feature-auth", models.TierNormal, 1),
				corpusRecord("auth logging", "004-auth", "feature-logging", models.TierNormal, 1),
				corpusRecord("auth overview", "004-auth", "general", models.TierNormal, 3),
			},
			Query:    "auth",
			Channels: []string{"feature-auth", "general"},
			Relevant: []string{"auth token refresh", "auth overview"},
			K:        2,
			MinMRR:   0.5,
		},
		{
			ID:          "S3",
			Mode:        ModeRankFolders,
			Name:        "ranking surfaces recent active folders",
			Description: "A fresh folder should outrank a stale one despite fewer memories",
			Records: []models.MemoryRecord{
				corpusRecord("fresh scoring work", "040-scoring", "general", models.TierNormal, 0),
				corpusRecord("old migration note", "002-migration", "general", models.TierNormal, 90),
				corpusRecord("old migration cleanup", "002-migration", "general", models.TierNormal, 80),
			},
			Relevant: []string{"040-scoring"},
			K:        1,
			MinMRR:   1.0,
		},
		{
			ID:          "S4",
			Mode:        ModeRankFolders,
			Name:        "archived folders are damped out of the top slot",
			Description: "An archive-named folder must not beat a live folder of equal recency",
			Records: []models.MemoryRecord{
				corpusRecord("live work", "050-live", "general", models.TierNormal, 1),
				corpusRecord("archived work", "archived-049-done", "general", models.TierCritical, 1),
			},
			Relevant: []string{"050-live"},
			K:        1,
			MinMRR:   1.0,
		},
		{
			ID:          "S5",
			Mode:        ModeAlwaysVisible,
			Name:        "constitutional memories stay always visible",
			Description: "Top-tier memories surface regardless of recency",
			Records: []models.MemoryRecord{
				corpusRecord("never delete user data", "001-core", "general", models.TierConstitutional, 300),
				corpusRecord("recent trivia", "060-misc", "general", models.TierTemporary, 0),
			},
			Relevant: []string{"never delete user data"},
			K:        1,
			MinMRR:   1.0,
		},
	}
}
