// ABOUTME: Benchmark runner executing retrieval scenarios end to end
// ABOUTME: Loads each corpus into isolated storage and scores the results

package retrieval

import (
	"context"
	"fmt"
	"log"

	"github.com/speckeep/speckeep/internal/models"
	"github.com/speckeep/speckeep/internal/scoring"
	"github.com/speckeep/speckeep/internal/search"
	"github.com/speckeep/speckeep/internal/storage/sqlite"
)

// Runner executes retrieval benchmark scenarios
type Runner struct {
	metrics *MetricsCalculator
	verbose bool
}

// NewRunner creates a benchmark runner
func NewRunner(verbose bool) *Runner {
	return &Runner{metrics: NewMetricsCalculator(), verbose: verbose}
}

// RunAll executes every scenario and aggregates the results
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) (Summary, error) {
	var cases []CaseResult
	for _, sc := range scenarios {
		result, err := r.Run(ctx, sc)
		if err != nil {
			return Summary{}, fmt.Errorf("scenario %s: %w", sc.ID, err)
		}
		if r.verbose {
			log.Printf("[%s] %s: precision=%.3f recall=%.3f mrr=%.3f passed=%v",
				sc.ID, sc.Name, result.Precision, result.Recall, result.MRR, result.Passed)
		}
		cases = append(cases, result)
	}
	return Summarize(cases), nil
}

// Run executes one scenario against a fresh in-memory store
func (r *Runner) Run(ctx context.Context, sc Scenario) (CaseResult, error) {
	got, err := r.probe(ctx, sc)
	if err != nil {
		return CaseResult{}, err
	}

	relevant := make(map[string]bool, len(sc.Relevant))
	for _, rel := range sc.Relevant {
		relevant[rel] = true
	}

	result := CaseResult{
		Name:      fmt.Sprintf("%s %s", sc.ID, sc.Name),
		Precision: r.metrics.PrecisionAtK(got, relevant, sc.K),
		Recall:    r.metrics.RecallAtK(got, relevant, sc.K),
		MRR:       r.metrics.MRR(got, relevant),
		K:         sc.K,
	}
	result.Passed = result.MRR >= sc.MinMRR
	if !result.Passed {
		result.Detail = fmt.Sprintf("mrr %.3f below threshold %.3f, got %v", result.MRR, sc.MinMRR, got)
	}
	return result, nil
}

// probe runs the scenario's retrieval surface and returns the ordered
// result identifiers (titles or folders depending on mode).
func (r *Runner) probe(ctx context.Context, sc Scenario) ([]string, error) {
	switch sc.Mode {
	case ModeSearch:
		return r.probeSearch(ctx, sc)
	case ModeRankFolders, ModeAlwaysVisible:
		return r.probeRank(sc)
	default:
		return nil, fmt.Errorf("unknown mode %q", sc.Mode)
	}
}

func (r *Runner) probeSearch(ctx context.Context, sc Scenario) ([]string, error) {
	db, err := sqlite.OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	store := sqlite.NewMemoryStore(db)
	for i := range sc.Records {
		rec := sc.Records[i]
		if err := store.Save(&rec); err != nil {
			return nil, fmt.Errorf("seed corpus: %w", err)
		}
	}

	found, err := search.NewSearcher(store, nil).Search(ctx, sc.Query, sc.Channels, sc.K)
	if err != nil {
		return nil, err
	}
	return titles(found), nil
}

func (r *Runner) probeRank(sc Scenario) ([]string, error) {
	ranked := scoring.Rank(sc.Records, benchNow, scoring.RankOptions{})

	if sc.Mode == ModeAlwaysVisible {
		return titles(ranked.AlwaysVisible), nil
	}

	folders := make([]string, 0, len(ranked.TopFolders))
	for _, fs := range ranked.TopFolders {
		folders = append(folders, fs.Folder)
	}
	return folders, nil
}

func titles(records []models.MemoryRecord) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Title)
	}
	return out
}
