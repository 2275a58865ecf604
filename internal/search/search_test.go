// ABOUTME: Tests for search ranking, cosine math, and the keyword fallback
// ABOUTME: Uses a stubbed embedding API instead of the network
package search

import (
	"context"
	"math"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/speckeep/speckeep/internal/models"
	"github.com/speckeep/speckeep/internal/storage/sqlite"
)

func testStore(t *testing.T) *sqlite.MemoryStore {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlite.NewMemoryStore(db)
}

func saveRecord(t *testing.T, store *sqlite.MemoryStore, title, folder, channel string) {
	t.Helper()
	rec := &models.MemoryRecord{Title: title, SpecFolder: folder, Channel: channel}
	if err := store.Save(rec); err != nil {
		t.Fatalf("save %q: %v", title, err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearch_KeywordFallback(t *testing.T) {
	store := testStore(t)
	saveRecord(t, store, "retry semantics for the embedding client", "011-embeddings", "general")
	saveRecord(t, store, "channel router cache", "012-router", "general")
	saveRecord(t, store, "retry loop backoff bounds", "011-embeddings", "general")

	s := NewSearcher(store, nil)
	got, err := s.Search(context.Background(), "retry backoff", []string{"general"}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Title != "retry loop backoff bounds" {
		t.Errorf("top result = %q, want the two-term match first", got[0].Title)
	}
}

func TestSearch_EmptyQueryReturnsRecent(t *testing.T) {
	store := testStore(t)
	saveRecord(t, store, "one", "001-a", "general")
	saveRecord(t, store, "two", "001-a", "general")

	s := NewSearcher(store, nil)
	got, err := s.Search(context.Background(), "  ", []string{"general"}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d records, want both without ranking", len(got))
	}
}

func TestSearch_ChannelScoping(t *testing.T) {
	store := testStore(t)
	saveRecord(t, store, "branch work", "001-a", "feature-auth")
	saveRecord(t, store, "shared work", "001-a", "general")

	s := NewSearcher(store, nil)
	got, err := s.Search(context.Background(), "work", []string{"feature-auth"}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Channel != "feature-auth" {
		t.Errorf("got %v, want only the feature-auth record", got)
	}
}

// stubEmbeddingAPI returns canned vectors keyed by input text
type stubEmbeddingAPI struct {
	vectors map[string][]float32
	calls   int
}

func (s *stubEmbeddingAPI) CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	s.calls++
	req := conv.Convert()
	inputs, ok := req.Input.([]string)
	if !ok {
		inputs = nil
	}

	var resp openai.EmbeddingResponse
	for i, text := range inputs {
		vec, ok := s.vectors[text]
		if !ok {
			vec = []float32{0, 0, 1}
		}
		resp.Data = append(resp.Data, openai.Embedding{Index: i, Embedding: vec})
	}
	return resp, nil
}

func TestSearch_SemanticRanking(t *testing.T) {
	store := testStore(t)
	saveRecord(t, store, "alpha", "001-a", "general")
	saveRecord(t, store, "beta", "002-b", "general")

	stub := &stubEmbeddingAPI{vectors: map[string][]float32{
		"find alpha":  {1, 0, 0},
		"alpha 001-a": {0.9, 0.1, 0},
		"beta 002-b":  {0, 1, 0},
	}}
	s := NewSearcher(store, &EmbeddingClient{api: stub, model: DefaultEmbeddingModel, timeout: 5 * time.Second})

	got, err := s.Search(context.Background(), "find alpha", []string{"general"}, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "alpha" {
		t.Errorf("got %v, want the cosine-nearest record", got)
	}
	if stub.calls != 1 {
		t.Errorf("embedding calls = %d, want one batch", stub.calls)
	}
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	c := &EmbeddingClient{api: &stubEmbeddingAPI{}, model: DefaultEmbeddingModel}
	got, err := c.EmbedBatch(context.Background(), nil)
	if err != nil || got != nil {
		t.Errorf("EmbedBatch(nil) = %v, %v, want nil, nil", got, err)
	}
}
