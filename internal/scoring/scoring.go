// ABOUTME: Pure scoring functions for folders and memories
// ABOUTME: Recency decay, tier weights, archive damping, composite scores
package scoring

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/speckeep/speckeep/internal/models"
)

// Composite weights; they sum to 1.0 across the combination
const (
	recencyWeight = 0.40
	tierWeight    = 0.35
	countWeight   = 0.15
	extraWeight   = 0.10

	// decayRate is the per-day exponential decay constant for recency
	decayRate = 0.05

	// archiveDamping multiplies the composite score of archived folders
	// so an explicit "show archived" view still ranks them sensibly
	archiveDamping = 0.3

	// countSaturation is the memory count at which the volume signal
	// maxes out
	countSaturation = 20.0

	// triggerSaturation is the delivered-trigger total at which the
	// engagement signal maxes out
	triggerSaturation = 25.0
)

// tierWeights maps each importance tier to its fixed contribution
var tierWeights = map[models.ImportanceTier]float64{
	models.TierConstitutional: 1.0,
	models.TierCritical:       0.9,
	models.TierImportant:      0.7,
	models.TierNormal:         0.5,
	models.TierTemporary:      0.3,
	models.TierDeprecated:     0.1,
}

// TierWeight returns the fixed weight for a tier; unknown tiers weigh
// like normal.
func TierWeight(tier models.ImportanceTier) float64 {
	if w, ok := tierWeights[tier]; ok {
		return w
	}
	return tierWeights[models.TierNormal]
}

var (
	archivePrefixPattern    = regexp.MustCompile(`(^|/)archived?-`)
	deprecatedPrefixPattern = regexp.MustCompile(`(^|/)deprecated-`)
	orderingPrefixPattern   = regexp.MustCompile(`^\d{3}-`)
)

// IsArchivedFolder reports whether a folder path matches any archive
// naming convention: an archive prefix, the substring "archive", or a
// deprecated prefix.
func IsArchivedFolder(folder string) bool {
	lower := strings.ToLower(folder)
	return archivePrefixPattern.MatchString(lower) ||
		strings.Contains(lower, "archive") ||
		deprecatedPrefixPattern.MatchString(lower)
}

// RecencyScore maps elapsed time since last activity onto (0, 1]:
// activity right now scores 1, scores decay exponentially with age and
// never go negative.
func RecencyScore(lastUpdate, now time.Time) float64 {
	age := now.Sub(lastUpdate)
	if age <= 0 {
		return 1.0
	}
	days := age.Hours() / 24
	return math.Exp(-decayRate * days)
}

// FolderScore is a derived ranking value for one folder; never persisted
type FolderScore struct {
	Folder         string    `json:"folder"`
	SimplifiedPath string    `json:"simplified_path"`
	Score          float64   `json:"score"`
	MemoryCount    int       `json:"memory_count"`
	LastUpdate     time.Time `json:"last_update"`
	TopTier        string    `json:"top_tier"`
	IsArchived     bool      `json:"is_archived"`
}

// ScoreFolder computes the composite score for a folder and its
// memories at a given instant. extra is an optional caller-supplied
// per-folder signal in [0,1]; pass 0 when there is none. Pure: fixed
// inputs always produce the same score.
func ScoreFolder(folder string, memories []models.MemoryRecord, now time.Time, extra float64) FolderScore {
	fs := FolderScore{
		Folder:         folder,
		SimplifiedPath: SimplifyFolderPath(folder),
		MemoryCount:    len(memories),
		IsArchived:     IsArchivedFolder(folder),
	}

	if len(memories) == 0 {
		return fs
	}

	topTier := memories[0].ImportanceTier
	for _, m := range memories {
		if m.UpdatedAt.After(fs.LastUpdate) {
			fs.LastUpdate = m.UpdatedAt
		}
		// Top tier present, not an average: one critical memory is
		// enough to lift a quiet folder.
		if m.ImportanceTier.Rank() < topTier.Rank() {
			topTier = m.ImportanceTier
		}
	}
	fs.TopTier = string(topTier)

	countSignal := math.Min(float64(len(memories)), countSaturation) / countSaturation

	score := recencyWeight*RecencyScore(fs.LastUpdate, now) +
		tierWeight*TierWeight(topTier) +
		countWeight*countSignal +
		extraWeight*extra

	if fs.IsArchived {
		score *= archiveDamping
	}

	fs.Score = round3(score)
	return fs
}

// EngagementSignal derives the extra per-folder signal from the group
// itself: mean importance weight blended evenly with a saturating
// delivery-trigger signal, both in [0,1]. Pure, like the rest of the
// scoring functions.
func EngagementSignal(memories []models.MemoryRecord) float64 {
	if len(memories) == 0 {
		return 0
	}

	var weightSum, triggers float64
	for _, m := range memories {
		weightSum += clamp01(m.ImportanceWeight)
		triggers += float64(m.TriggerCount)
	}

	meanWeight := weightSum / float64(len(memories))
	triggerSignal := math.Min(triggers, triggerSaturation) / triggerSaturation
	return 0.5*meanWeight + 0.5*triggerSignal
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

// SimplifyFolderPath strips storage-root and numeric ordering prefixes
// for display. Lossy; never use the result as a lookup key.
func SimplifyFolderPath(folder string) string {
	p := strings.TrimPrefix(folder, "./")
	for _, root := range []string{"specs/", ".specs/", "memory/"} {
		p = strings.TrimPrefix(p, root)
	}
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = orderingPrefixPattern.ReplaceAllString(part, "")
	}
	return strings.Join(parts, "/")
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
