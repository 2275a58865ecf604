// ABOUTME: Stable memory fingerprinting for session dedup
// ABOUTME: Truncated sha256 digest with a content-first priority chain
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/speckeep/speckeep/internal/models"
)

// ErrNoIdentity is returned when a memory carries no identifying data
// at all. Fabricating a fingerprint here would corrupt the dedup
// guarantee, so this is the one hard failure in the session store.
var ErrNoIdentity = errors.New("memory has no identifying data to hash")

// GenerateMemoryHash produces the 16-hex-character dedup fingerprint for
// a memory. A precomputed content hash wins so that content updates
// under a stable identity still dedup by content; identity fields come
// next; a canonical JSON of whatever identifying fields exist is the
// fallback.
func GenerateMemoryHash(m *models.MemoryRecord) (string, error) {
	if m == nil {
		return "", ErrNoIdentity
	}

	if m.ContentHash != "" {
		return truncatedDigest(m.ContentHash), nil
	}

	if m.ID != 0 || m.AnchorID != "" || m.FilePath != "" {
		return truncatedDigest(fmt.Sprintf("%d:%s:%s", m.ID, m.AnchorID, m.FilePath)), nil
	}

	// JSON fallback over the identifying fields that do exist.
	fallback := map[string]interface{}{}
	if m.Title != "" {
		fallback["title"] = m.Title
	}
	if m.SpecFolder != "" {
		fallback["specFolder"] = m.SpecFolder
	}
	if m.Channel != "" {
		fallback["channel"] = m.Channel
	}
	if len(fallback) == 0 {
		return "", ErrNoIdentity
	}

	// map keys sort deterministically under encoding/json
	raw, err := json.Marshal(fallback)
	if err != nil {
		return "", fmt.Errorf("marshal hash fallback: %w", err)
	}
	return truncatedDigest(string(raw)), nil
}

func truncatedDigest(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:16]
}
