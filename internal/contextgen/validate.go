// ABOUTME: Spec folder name validation with actionable diagnoses
// ABOUTME: Near-miss detection and suggestion listing for failed names
package contextgen

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/speckeep/speckeep/internal/scoring"
)

// folderSegmentPattern is the strict naming rule for one spec folder
// segment: three digits, hyphen, lowercase slug starting with a letter.
var folderSegmentPattern = regexp.MustCompile(`^\d{3}-[a-z][a-z0-9-]*$`)

// ValidationError is an expected, user-fixable failure. The CLI prints
// its diagnosis and suggestions instead of a diagnostic trace.
type ValidationError struct {
	Name      string
	Diagnosis string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid spec folder %q: %s", e.Name, e.Diagnosis)
}

// ValidateFolderName checks a spec folder name (optionally nested) and
// returns a targeted diagnosis for near-misses rather than a generic
// parse error.
func ValidateFolderName(name string) error {
	if name == "" {
		return &ValidationError{Name: name, Diagnosis: "folder name is empty; expected NNN-lowercase-slug (e.g. 014-stateless-alignment)"}
	}

	for _, segment := range strings.Split(name, "/") {
		if folderSegmentPattern.MatchString(segment) {
			continue
		}
		return &ValidationError{Name: name, Diagnosis: diagnose(segment)}
	}
	return nil
}

func diagnose(segment string) string {
	if segment != strings.ToLower(segment) {
		return fmt.Sprintf("%q contains uppercase letters; folder names should be lowercase", segment)
	}
	if strings.Contains(segment, "_") {
		return fmt.Sprintf("%q contains underscores; use hyphens instead", segment)
	}
	if m := regexp.MustCompile(`^(\d{3})-(.)`).FindStringSubmatch(segment); m != nil && !regexp.MustCompile(`[a-z]`).MatchString(m[2]) {
		return fmt.Sprintf("%q must start its slug with a lowercase letter after the %s- prefix", segment, m[1])
	}
	return fmt.Sprintf("%q does not match the NNN-lowercase-slug format (three-digit prefix, hyphen, slug starting with a letter)", segment)
}

// Suggestions lists existing spec folders a user likely meant: substring
// matches of the failed name first, otherwise the most recently modified
// valid folders. Archive-named folders are never suggested.
func Suggestions(specsRoot, failedName string, limit int) []string {
	if limit <= 0 {
		limit = 5
	}

	entries, err := os.ReadDir(specsRoot)
	if err != nil {
		return nil
	}

	type candidate struct {
		name    string
		modTime int64
	}
	var valid []candidate
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if ValidateFolderName(name) != nil || scoring.IsArchivedFolder(name) {
			continue
		}
		var mod int64
		if info, err := entry.Info(); err == nil {
			mod = info.ModTime().Unix()
		}
		valid = append(valid, candidate{name: name, modTime: mod})
	}

	needle := strings.ToLower(failedName)
	var matches []string
	for _, c := range valid {
		if needle != "" && strings.Contains(c.name, needle) {
			matches = append(matches, c.name)
		}
	}
	if len(matches) > 0 {
		sort.Strings(matches)
		if len(matches) > limit {
			matches = matches[:limit]
		}
		return matches
	}

	sort.Slice(valid, func(i, j int) bool { return valid[i].modTime > valid[j].modTime })
	var recent []string
	for _, c := range valid {
		recent = append(recent, c.name)
		if len(recent) == limit {
			break
		}
	}
	return recent
}
