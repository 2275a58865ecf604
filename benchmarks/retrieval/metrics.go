// ABOUTME: Retrieval quality metrics for ranked memory results
// ABOUTME: Deterministic precision, recall, and MRR against ground truth

package retrieval

import "fmt"

// MetricsCalculator computes retrieval scores for benchmark cases
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// PrecisionAtK is the fraction of the top k results that are relevant
func (m *MetricsCalculator) PrecisionAtK(got []string, relevant map[string]bool, k int) float64 {
	if k <= 0 || len(got) == 0 {
		return 0
	}
	if k > len(got) {
		k = len(got)
	}

	hits := 0
	for _, id := range got[:k] {
		if relevant[id] {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

// RecallAtK is the fraction of relevant items found in the top k
func (m *MetricsCalculator) RecallAtK(got []string, relevant map[string]bool, k int) float64 {
	if len(relevant) == 0 {
		return 1
	}
	if k <= 0 || len(got) == 0 {
		return 0
	}
	if k > len(got) {
		k = len(got)
	}

	hits := 0
	for _, id := range got[:k] {
		if relevant[id] {
			hits++
		}
	}
	return float64(hits) / float64(len(relevant))
}

// MRR is the reciprocal rank of the first relevant result
func (m *MetricsCalculator) MRR(got []string, relevant map[string]bool) float64 {
	for i, id := range got {
		if relevant[id] {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// CaseResult holds one benchmark case's scores
type CaseResult struct {
	Name      string  `json:"name"`
	Precision float64 `json:"precision_at_k"`
	Recall    float64 `json:"recall_at_k"`
	MRR       float64 `json:"mrr"`
	K         int     `json:"k"`
	Passed    bool    `json:"passed"`
	Detail    string  `json:"detail,omitempty"`
}

// Summary aggregates all case results
type Summary struct {
	Cases         []CaseResult `json:"cases"`
	MeanPrecision float64      `json:"mean_precision"`
	MeanRecall    float64      `json:"mean_recall"`
	MeanMRR       float64      `json:"mean_mrr"`
	PassRate      float64      `json:"pass_rate"`
}

// Summarize averages the per-case scores
func Summarize(cases []CaseResult) Summary {
	s := Summary{Cases: cases}
	if len(cases) == 0 {
		return s
	}

	passed := 0
	for _, c := range cases {
		s.MeanPrecision += c.Precision
		s.MeanRecall += c.Recall
		s.MeanMRR += c.MRR
		if c.Passed {
			passed++
		}
	}
	n := float64(len(cases))
	s.MeanPrecision /= n
	s.MeanRecall /= n
	s.MeanMRR /= n
	s.PassRate = float64(passed) / n
	return s
}

// String renders a one-line summary for log output
func (s Summary) String() string {
	return fmt.Sprintf("cases=%d pass=%.0f%% precision=%.3f recall=%.3f mrr=%.3f",
		len(s.Cases), s.PassRate*100, s.MeanPrecision, s.MeanRecall, s.MeanMRR)
}
