// ABOUTME: Branch-scoped channel derivation with a short-lived cache
// ABOUTME: Falls back to the default channel on any git lookup problem
package channel

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/speckeep/speckeep/internal/models"
	"github.com/speckeep/speckeep/internal/storage/sqlite"
)

// MaxChannelLength caps normalized channel keys for storage and display
const MaxChannelLength = 50

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Router derives the active channel from the enclosing git workspace.
// Results are cached briefly so queries do not spawn a subprocess each
// time; the active unit of work changes on human timescales.
type Router struct {
	defaultChannel string
	cacheTTL       time.Duration
	gitTimeout     time.Duration
	workDir        string

	mu        sync.Mutex
	cached    string
	expiresAt time.Time

	// lookupBranch is swappable in tests
	lookupBranch func(ctx context.Context) (string, error)
}

// NewRouter creates a Router. workDir is where git runs; empty means the
// process working directory.
func NewRouter(defaultChannel string, cacheTTL, gitTimeout time.Duration, workDir string) *Router {
	r := &Router{
		defaultChannel: defaultChannel,
		cacheTTL:       cacheTTL,
		gitTimeout:     gitTimeout,
		workDir:        workDir,
	}
	r.lookupBranch = r.gitBranch
	return r
}

// Default returns the configured fallback channel
func (r *Router) Default() string {
	return r.defaultChannel
}

// Derive returns the current channel key, serving from cache while it is
// fresh. Any lookup failure, including the timeout, yields the default
// channel rather than an error.
func (r *Router) Derive(ctx context.Context) string {
	r.mu.Lock()
	if r.cached != "" && time.Now().Before(r.expiresAt) {
		ch := r.cached
		r.mu.Unlock()
		return ch
	}
	r.mu.Unlock()

	return r.DeriveFresh(ctx)
}

// DeriveFresh bypasses the cache, performs the lookup, and repopulates
// the cache with the result.
func (r *Router) DeriveFresh(ctx context.Context) string {
	ch := r.defaultChannel

	lookupCtx, cancel := context.WithTimeout(ctx, r.gitTimeout)
	defer cancel()

	if branch, err := r.lookupBranch(lookupCtx); err == nil {
		if normalized := Normalize(branch); normalized != "" {
			ch = normalized
		}
	}

	r.mu.Lock()
	r.cached = ch
	r.expiresAt = time.Now().Add(r.cacheTTL)
	r.mu.Unlock()

	return ch
}

// Reset clears the cache so the next Derive performs a fresh lookup
func (r *Router) Reset() {
	r.mu.Lock()
	r.cached = ""
	r.expiresAt = time.Time{}
	r.mu.Unlock()
}

// gitBranch asks git for the current branch name
func (r *Router) gitBranch(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "branch", "--show-current")
	if r.workDir != "" {
		cmd.Dir = r.workDir
	}
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Normalize converts a branch name into a channel key: lower-cased,
// non-alphanumeric runs collapsed to single hyphens, trimmed, and capped
// at MaxChannelLength.
func Normalize(branch string) string {
	key := strings.ToLower(strings.TrimSpace(branch))
	key = nonAlphanumeric.ReplaceAllString(key, "-")
	key = strings.Trim(key, "-")
	if len(key) > MaxChannelLength {
		key = key[:MaxChannelLength]
		key = strings.TrimRight(key, "-")
	}
	return key
}

// MemoriesOptions controls channel-scoped memory listing
type MemoriesOptions struct {
	Channel        string // empty means derive
	IncludeDefault bool
	Limit          int
}

// Memories lists memories scoped to the resolved channel. When
// IncludeDefault is set and the resolved channel is not already the
// default, memories on the default channel are included too. Deprecated
// memories never appear.
func (r *Router) Memories(ctx context.Context, store *sqlite.MemoryStore, opts MemoriesOptions) ([]models.MemoryRecord, error) {
	channels := r.channelSet(ctx, opts.Channel, opts.IncludeDefault)
	return store.ByChannels(channels, opts.Limit)
}

// SearchFunc is any channel-aware search backend. The engine hands it
// the expanded channel set so the backend itself needs no knowledge of
// version control.
type SearchFunc func(ctx context.Context, query string, channels []string, limit int) ([]models.MemoryRecord, error)

// ScopedSearch applies the channel-set expansion in front of an
// arbitrary search backend.
func (r *Router) ScopedSearch(ctx context.Context, query string, opts MemoriesOptions, fn SearchFunc) ([]models.MemoryRecord, error) {
	channels := r.channelSet(ctx, opts.Channel, opts.IncludeDefault)
	return fn(ctx, query, channels, opts.Limit)
}

func (r *Router) channelSet(ctx context.Context, explicit string, includeDefault bool) []string {
	ch := explicit
	if ch == "" {
		ch = r.Derive(ctx)
	}

	channels := []string{ch}
	if includeDefault && ch != r.defaultChannel {
		channels = append(channels, r.defaultChannel)
	}
	return channels
}
