// ABOUTME: Tests for channel derivation, normalization, and scoping
// ABOUTME: Verifies cache behavior and the default-channel fallback

package channel

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/speckeep/speckeep/internal/models"
	"github.com/speckeep/speckeep/internal/storage/sqlite"
)

func newTestRouter(branch string, err error) (*Router, *int) {
	r := NewRouter("general", 5*time.Second, time.Second, "")
	calls := new(int)
	r.lookupBranch = func(ctx context.Context) (string, error) {
		*calls++
		return branch, err
	}
	return r, calls
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"main", "main"},
		{"Feature/Add-Auth", "feature-add-auth"},
		{"fix_bug_#42", "fix-bug-42"},
		{"  spaced out  ", "spaced-out"},
		{"UPPER", "upper"},
		{"---", ""},
		{"release/v1.2.3", "release-v1-2-3"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDerive_NormalizedBranch(t *testing.T) {
	r, _ := newTestRouter("Feature/Login_Flow", nil)
	if got := r.Derive(context.Background()); got != "feature-login-flow" {
		t.Errorf("Derive() = %q, want feature-login-flow", got)
	}
}

func TestDerive_FallsBackOnError(t *testing.T) {
	r, _ := newTestRouter("", errors.New("not a git repository"))
	if got := r.Derive(context.Background()); got != "general" {
		t.Errorf("Derive() = %q, want default channel", got)
	}
}

func TestDerive_FallsBackOnEmptyBranch(t *testing.T) {
	// Detached HEAD: git prints an empty line.
	r, _ := newTestRouter("", nil)
	if got := r.Derive(context.Background()); got != "general" {
		t.Errorf("Derive() = %q, want default channel", got)
	}
}

func TestDerive_CachesLookups(t *testing.T) {
	r, calls := newTestRouter("main", nil)

	for i := 0; i < 5; i++ {
		r.Derive(context.Background())
	}
	if *calls != 1 {
		t.Errorf("lookup ran %d times, want 1 (cached)", *calls)
	}

	r.Reset()
	r.Derive(context.Background())
	if *calls != 2 {
		t.Errorf("lookup ran %d times after Reset, want 2", *calls)
	}
}

func TestDerive_CacheExpires(t *testing.T) {
	r, calls := newTestRouter("main", nil)
	r.cacheTTL = 10 * time.Millisecond

	r.Derive(context.Background())
	time.Sleep(20 * time.Millisecond)
	r.Derive(context.Background())

	if *calls != 2 {
		t.Errorf("lookup ran %d times, want 2 after TTL expiry", *calls)
	}
}

func TestDeriveFresh_BypassesCache(t *testing.T) {
	r, calls := newTestRouter("main", nil)

	r.Derive(context.Background())
	r.DeriveFresh(context.Background())
	if *calls != 2 {
		t.Errorf("lookup ran %d times, want 2 with explicit bypass", *calls)
	}
}

func TestMemories_IncludesDefaultChannel(t *testing.T) {
	db, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()
	store := sqlite.NewMemoryStore(db)

	seed := []models.MemoryRecord{
		{Title: "branch note", SpecFolder: "001-auth", Channel: "feature-auth"},
		{Title: "shared note", SpecFolder: "002-core", Channel: "general"},
		{Title: "other note", SpecFolder: "003-x", Channel: "feature-other"},
		{Title: "dead note", SpecFolder: "001-auth", Channel: "feature-auth", ImportanceTier: models.TierDeprecated},
	}
	for i := range seed {
		if err := store.Save(&seed[i]); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	r, _ := newTestRouter("feature/auth", nil)

	got, err := r.Memories(context.Background(), store, MemoriesOptions{IncludeDefault: true, Limit: 10})
	if err != nil {
		t.Fatalf("Memories() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Memories() returned %d, want 2 (channel + default)", len(got))
	}

	got, err = r.Memories(context.Background(), store, MemoriesOptions{IncludeDefault: false, Limit: 10})
	if err != nil {
		t.Fatalf("Memories() error = %v", err)
	}
	if len(got) != 1 || got[0].Channel != "feature-auth" {
		t.Errorf("Memories() without default = %+v, want only the branch note", got)
	}
}

func TestMemories_DefaultChannelNotDoubled(t *testing.T) {
	r, _ := newTestRouter("", errors.New("no repo"))

	channels := r.channelSet(context.Background(), "", true)
	if len(channels) != 1 || channels[0] != "general" {
		t.Errorf("channelSet = %v, want just [general]", channels)
	}
}

func TestScopedSearch_ExpandsChannels(t *testing.T) {
	r, _ := newTestRouter("feature/auth", nil)

	var gotChannels []string
	fn := func(ctx context.Context, query string, channels []string, limit int) ([]models.MemoryRecord, error) {
		gotChannels = channels
		return []models.MemoryRecord{{Title: "hit"}}, nil
	}

	results, err := r.ScopedSearch(context.Background(), "token refresh", MemoriesOptions{IncludeDefault: true, Limit: 5}, fn)
	if err != nil {
		t.Fatalf("ScopedSearch() error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want passthrough of backend results", len(results))
	}
	if len(gotChannels) != 2 || gotChannels[0] != "feature-auth" || gotChannels[1] != "general" {
		t.Errorf("channels = %v, want [feature-auth general]", gotChannels)
	}
}
