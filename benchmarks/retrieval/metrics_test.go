// ABOUTME: Tests for retrieval metrics and the scenario runner
// ABOUTME: Verifies metric math and that the built-in suite passes

package retrieval

import (
	"context"
	"math"
	"testing"
)

func TestPrecisionAtK(t *testing.T) {
	m := NewMetricsCalculator()
	relevant := map[string]bool{"a": true, "b": true}

	tests := []struct {
		name string
		got  []string
		k    int
		want float64
	}{
		{"all relevant", []string{"a", "b"}, 2, 1},
		{"half relevant", []string{"a", "x"}, 2, 0.5},
		{"none relevant", []string{"x", "y"}, 2, 0},
		{"k beyond results", []string{"a"}, 5, 1},
		{"empty results", nil, 3, 0},
		{"zero k", []string{"a"}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.PrecisionAtK(tt.got, relevant, tt.k)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PrecisionAtK() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecallAtK(t *testing.T) {
	m := NewMetricsCalculator()
	relevant := map[string]bool{"a": true, "b": true}

	if got := m.RecallAtK([]string{"a", "x"}, relevant, 2); got != 0.5 {
		t.Errorf("RecallAtK() = %v, want 0.5", got)
	}
	if got := m.RecallAtK([]string{"x"}, map[string]bool{}, 1); got != 1 {
		t.Errorf("RecallAtK() with no relevant items = %v, want 1", got)
	}
}

func TestMRR(t *testing.T) {
	m := NewMetricsCalculator()
	relevant := map[string]bool{"b": true}

	if got := m.MRR([]string{"a", "b", "c"}, relevant); got != 0.5 {
		t.Errorf("MRR() = %v, want 0.5 for second position", got)
	}
	if got := m.MRR([]string{"x", "y"}, relevant); got != 0 {
		t.Errorf("MRR() = %v, want 0 with no hit", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]CaseResult{
		{Precision: 1, Recall: 1, MRR: 1, Passed: true},
		{Precision: 0, Recall: 0.5, MRR: 0.5, Passed: false},
	})
	if s.MeanPrecision != 0.5 || s.MeanRecall != 0.75 || s.MeanMRR != 0.75 {
		t.Errorf("means = %v/%v/%v", s.MeanPrecision, s.MeanRecall, s.MeanMRR)
	}
	if s.PassRate != 0.5 {
		t.Errorf("PassRate = %v, want 0.5", s.PassRate)
	}
}

func TestRunner_BuiltinSuitePasses(t *testing.T) {
	runner := NewRunner(false)

	summary, err := runner.RunAll(context.Background(), Scenarios())
	if err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	if summary.PassRate != 1 {
		for _, c := range summary.Cases {
			if !c.Passed {
				t.Errorf("case %q failed: %s", c.Name, c.Detail)
			}
		}
	}
}
