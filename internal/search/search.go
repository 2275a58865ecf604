// ABOUTME: Channel-scoped memory search with semantic ranking
// ABOUTME: Falls back to keyword matching when no embedding client is set
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/speckeep/speckeep/internal/channel"
	"github.com/speckeep/speckeep/internal/models"
	"github.com/speckeep/speckeep/internal/storage/sqlite"
)

// candidatePool bounds how many records one search fetches for ranking
const candidatePool = 200

// Searcher ranks memory records against a free-text query. With an
// embedding client it ranks by cosine similarity; without one it falls
// back to keyword matching, so search works with no API key configured.
type Searcher struct {
	store    *sqlite.MemoryStore
	embedder *EmbeddingClient
}

// NewSearcher creates a searcher. embedder may be nil.
func NewSearcher(store *sqlite.MemoryStore, embedder *EmbeddingClient) *Searcher {
	return &Searcher{store: store, embedder: embedder}
}

// Func exposes the searcher as a channel-aware search backend
func (s *Searcher) Func() channel.SearchFunc {
	return s.Search
}

// Search returns up to limit records from the given channels, best
// match first.
func (s *Searcher) Search(ctx context.Context, query string, channels []string, limit int) ([]models.MemoryRecord, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no memory store configured")
	}
	if limit <= 0 {
		limit = 10
	}

	candidates, err := s.store.ByChannels(channels, candidatePool)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	if len(candidates) == 0 || strings.TrimSpace(query) == "" {
		return truncate(candidates, limit), nil
	}

	var scores []float64
	if s.embedder != nil {
		scores, err = s.semanticScores(ctx, query, candidates)
		if err != nil {
			return nil, err
		}
	} else {
		scores = keywordScores(query, candidates)
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	ranked := make([]models.MemoryRecord, 0, limit)
	for _, idx := range order {
		ranked = append(ranked, candidates[idx])
		if len(ranked) == limit {
			break
		}
	}
	return ranked, nil
}

func (s *Searcher) semanticScores(ctx context.Context, query string, records []models.MemoryRecord) ([]float64, error) {
	texts := make([]string, 0, len(records)+1)
	texts = append(texts, query)
	for _, rec := range records {
		texts = append(texts, recordText(rec))
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	queryVec := vectors[0]
	scores := make([]float64, len(records))
	for i, vec := range vectors[1:] {
		scores[i] = CosineSimilarity(queryVec, vec)
	}
	return scores, nil
}

// keywordScores counts query-term hits in each record's text
func keywordScores(query string, records []models.MemoryRecord) []float64 {
	terms := strings.Fields(strings.ToLower(query))
	scores := make([]float64, len(records))
	for i, rec := range records {
		text := strings.ToLower(recordText(rec))
		for _, term := range terms {
			if strings.Contains(text, term) {
				scores[i]++
			}
		}
	}
	return scores
}

func recordText(rec models.MemoryRecord) string {
	return rec.Title + " " + rec.SpecFolder
}

// CosineSimilarity returns the cosine of the angle between two vectors,
// or 0 when either has zero magnitude or lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func truncate(records []models.MemoryRecord, limit int) []models.MemoryRecord {
	if len(records) > limit {
		return records[:limit]
	}
	return records
}
