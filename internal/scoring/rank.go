// ABOUTME: Full-corpus ranking pass over a set of memory records
// ABOUTME: Groups by folder, scores each group, and assembles ranked views
package scoring

import (
	"sort"
	"time"

	"github.com/speckeep/speckeep/internal/models"
)

// RankOptions controls a ranking pass
type RankOptions struct {
	ShowArchived bool
	FolderLimit  int // default 3
	MemoryLimit  int // default 5
}

// RankStats summarizes the corpus that was ranked
type RankStats struct {
	TotalMemories   int `json:"total_memories"`
	TotalFolders    int `json:"total_folders"`
	ActiveFolders   int `json:"active_folders"`
	ArchivedFolders int `json:"archived_folders"`
}

// Ranked is the result of a ranking pass: four ranked sections plus
// summary statistics.
type Ranked struct {
	AlwaysVisible  []models.MemoryRecord `json:"always_visible"`
	TopFolders     []FolderScore         `json:"top_folders"`
	TopTierFolders []FolderScore         `json:"top_tier_folders"`
	RecentMemories []models.MemoryRecord `json:"recent_memories"`
	Stats          RankStats             `json:"stats"`
}

// Rank scores every folder group in the corpus and assembles the ranked
// sections. Pure for a fixed (records, now) pair, so it serves both the
// live engine and the offline ranking utility.
func Rank(records []models.MemoryRecord, now time.Time, opts RankOptions) Ranked {
	if opts.FolderLimit <= 0 {
		opts.FolderLimit = 3
	}
	if opts.MemoryLimit <= 0 {
		opts.MemoryLimit = 5
	}

	byFolder := make(map[string][]models.MemoryRecord)
	for _, m := range records {
		byFolder[m.SpecFolder] = append(byFolder[m.SpecFolder], m)
	}

	var scores []FolderScore
	for folder, group := range byFolder {
		scores = append(scores, ScoreFolder(folder, group, now, EngagementSignal(group)))
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Folder < scores[j].Folder
	})

	result := Ranked{
		Stats: RankStats{
			TotalMemories: len(records),
			TotalFolders:  len(scores),
		},
	}

	for _, fs := range scores {
		if fs.IsArchived {
			result.Stats.ArchivedFolders++
		} else {
			result.Stats.ActiveFolders++
		}
	}

	// Top folders by composite score
	for _, fs := range scores {
		if fs.IsArchived && !opts.ShowArchived {
			continue
		}
		result.TopFolders = append(result.TopFolders, fs)
		if len(result.TopFolders) == opts.FolderLimit {
			break
		}
	}

	// Folders whose best memory sits in the top tiers
	for _, fs := range scores {
		tier := models.ImportanceTier(fs.TopTier)
		if tier != models.TierConstitutional && tier != models.TierCritical {
			continue
		}
		if fs.IsArchived && !opts.ShowArchived {
			continue
		}
		result.TopTierFolders = append(result.TopTierFolders, fs)
		if len(result.TopTierFolders) == opts.FolderLimit {
			break
		}
	}

	// Always-visible memories: constitutional and critical tiers,
	// strongest first, newest within a tier.
	for _, m := range records {
		if m.ImportanceTier == models.TierConstitutional || m.ImportanceTier == models.TierCritical {
			result.AlwaysVisible = append(result.AlwaysVisible, m)
		}
	}
	sort.Slice(result.AlwaysVisible, func(i, j int) bool {
		a, b := result.AlwaysVisible[i], result.AlwaysVisible[j]
		if a.ImportanceTier.Rank() != b.ImportanceTier.Rank() {
			return a.ImportanceTier.Rank() < b.ImportanceTier.Rank()
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})

	// Most recently updated memories
	recent := make([]models.MemoryRecord, len(records))
	copy(recent, records)
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].UpdatedAt.After(recent[j].UpdatedAt)
	})
	if len(recent) > opts.MemoryLimit {
		recent = recent[:opts.MemoryLimit]
	}
	result.RecentMemories = recent

	return result
}
