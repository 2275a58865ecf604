// ABOUTME: Session data collection and derived-artifact extraction
// ABOUTME: Loads structured data bundles or captures live session state
package contextgen

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/speckeep/speckeep/internal/session"
)

// Learning index weights
const (
	knowledgeWeight   = 0.40
	uncertaintyWeight = 0.35
	contextWeight     = 0.25
)

// Flight is a pre- or post-session assessment with 0-100 scores
type Flight struct {
	Knowledge   float64  `json:"knowledge"`
	Uncertainty float64  `json:"uncertainty"`
	Context     float64  `json:"context"`
	Timestamp   string   `json:"timestamp,omitempty"`
	Gaps        []string `json:"gaps,omitempty"`
}

// SessionData is the structured input bundle for document generation
type SessionData struct {
	Title         string   `json:"title,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	Prompts       []string `json:"prompts"`
	Observations  []string `json:"observations"`
	RecentContext string   `json:"recent_context,omitempty"`
	Preflight     *Flight  `json:"preflight,omitempty"`
	Postflight    *Flight  `json:"postflight,omitempty"`
}

// Learning is the derived delta between preflight and postflight
type Learning struct {
	KnowledgeDelta       float64  `json:"knowledge_delta"`
	UncertaintyReduction float64  `json:"uncertainty_reduction"`
	ContextDelta         float64  `json:"context_delta"`
	Index                float64  `json:"learning_index"`
	Gaps                 []string `json:"gaps,omitempty"`
}

// ComputeLearning derives the weighted learning index when both flight
// assessments are present; nil otherwise.
func ComputeLearning(pre, post *Flight) *Learning {
	if pre == nil || post == nil {
		return nil
	}

	l := &Learning{
		KnowledgeDelta:       post.Knowledge - pre.Knowledge,
		UncertaintyReduction: pre.Uncertainty - post.Uncertainty,
		ContextDelta:         post.Context - pre.Context,
		Gaps:                 post.Gaps,
	}
	l.Index = round1(knowledgeWeight*l.KnowledgeDelta +
		uncertaintyWeight*l.UncertaintyReduction +
		contextWeight*l.ContextDelta)
	return l
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// LoadDataFile reads a structured session-data bundle from disk
func LoadDataFile(path string) (*SessionData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data file %s: %w", path, err)
	}

	var data SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse data file %s: %w", path, err)
	}
	return &data, nil
}

// Capture builds session data from the live session state for direct
// mode. A missing session produces an empty bundle, not an error.
func Capture(store *session.Store, sessionID string) (*SessionData, error) {
	data := &SessionData{}
	if store == nil || sessionID == "" {
		return data, nil
	}

	state, err := store.RecoverState(sessionID)
	if err != nil || state == nil {
		return data, nil
	}

	data.Summary = state.ContextSummary
	if state.CurrentTask != "" {
		data.Observations = append(data.Observations, "Current task: "+state.CurrentTask)
	}
	if state.LastAction != "" {
		data.Observations = append(data.Observations, "Last action: "+state.LastAction)
	}
	if state.PendingWork != "" {
		data.Observations = append(data.Observations, "Pending: "+state.PendingWork)
	}
	data.RecentContext = state.StateData
	return data, nil
}

var (
	filePattern     = regexp.MustCompile(`(?:^|[\s` + "`" + `(])((?:[\w.-]+/)+[\w.-]+\.\w+)`)
	decisionPattern = regexp.MustCompile(`(?i)^(?:decision|decided|chose|agreed)\b[:\s]*`)
	diagramPattern  = regexp.MustCompile("(?s)```mermaid.*?```")
)

// Artifacts are the facts derived from collected session data
type Artifacts struct {
	FilesTouched []string
	Decisions    []string
	Diagrams     []string
}

// ExtractArtifacts pulls touched files, decisions, and diagrams out of
// the collected data. Extraction is heuristic; an empty result is valid.
func ExtractArtifacts(data *SessionData) Artifacts {
	var a Artifacts
	if data == nil {
		return a
	}

	seenFiles := make(map[string]bool)
	for _, obs := range data.Observations {
		for _, m := range filePattern.FindAllStringSubmatch(obs, -1) {
			if !seenFiles[m[1]] {
				seenFiles[m[1]] = true
				a.FilesTouched = append(a.FilesTouched, m[1])
			}
		}
		if decisionPattern.MatchString(strings.TrimSpace(obs)) {
			a.Decisions = append(a.Decisions, decisionPattern.ReplaceAllString(strings.TrimSpace(obs), ""))
		}
	}

	a.Diagrams = diagramPattern.FindAllString(data.RecentContext, -1)
	return a
}
