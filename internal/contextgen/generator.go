// ABOUTME: Context document generation pipeline
// ABOUTME: validate -> collect -> extract -> render -> write, one linear pass
package contextgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/speckeep/speckeep/internal/channel"
	"github.com/speckeep/speckeep/internal/config"
	"github.com/speckeep/speckeep/internal/models"
	"github.com/speckeep/speckeep/internal/render"
	"github.com/speckeep/speckeep/internal/scoring"
	"github.com/speckeep/speckeep/internal/session"
	"github.com/speckeep/speckeep/internal/storage/sqlite"
)

// Generator turns a data bundle or a live session into a validated,
// rendered, persisted context document.
type Generator struct {
	cfg      *config.Config
	memories *sqlite.MemoryStore
	sessions *session.Store
	router   *channel.Router
	renderer *render.Renderer
}

// NewGenerator wires the pipeline. memories and sessions may be nil;
// generation then still renders and writes, it just records nothing.
func NewGenerator(cfg *config.Config, memories *sqlite.MemoryStore, sessions *session.Store, router *channel.Router) *Generator {
	return &Generator{
		cfg:      cfg,
		memories: memories,
		sessions: sessions,
		router:   router,
		renderer: render.NewRenderer(cfg.TemplateDir),
	}
}

// Request is one generation run
type Request struct {
	Folder    string // spec folder receiving the document
	DataFile  string // structured bundle path; empty means direct mode
	SessionID string // session to capture in direct mode
	Title     string // optional document title override
}

// Result reports what a generation run produced
type Result struct {
	DocPath  string
	MemoryID int64
	Warnings []string
}

// Generate runs the pipeline. Validation failures come back as
// *ValidationError so the CLI can print remediation instead of a trace.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ValidateFolderName(req.Folder); err != nil {
		return nil, err
	}

	result := &Result{}

	// A folder outside the storage root proceeds with a warning.
	folderDir := filepath.Join(g.cfg.SpecsRoot, req.Folder)
	if _, err := os.Stat(folderDir); os.IsNotExist(err) {
		abs, absErr := filepath.Abs(req.Folder)
		if absErr == nil {
			if _, err := os.Stat(abs); err == nil {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("folder %s exists outside the storage root %s", req.Folder, g.cfg.SpecsRoot))
				folderDir = abs
			}
		}
	}

	var (
		data *SessionData
		err  error
	)
	if req.DataFile != "" {
		data, err = LoadDataFile(req.DataFile)
	} else {
		data, err = Capture(g.sessions, req.SessionID)
	}
	if err != nil {
		return nil, err
	}

	// A session with no captured context still gets a window: the most
	// recently updated memories stand in for it.
	if req.DataFile == "" && data.RecentContext == "" && g.memories != nil {
		if recent, recErr := g.memories.Recent(5); recErr == nil && len(recent) > 0 {
			titles := make([]string, len(recent))
			for i, m := range recent {
				titles[i] = m.Title
			}
			data.RecentContext = "Recent memories: " + strings.Join(titles, "; ")
		}
	}

	artifacts := ExtractArtifacts(data)

	title := req.Title
	if title == "" {
		title = data.Title
	}
	if title == "" {
		title = deriveTitle(req.Folder)
	}

	var ch string
	if g.router != nil {
		ch = g.router.Derive(ctx)
	}

	doc, err := g.renderer.Render(render.ContextTemplate, map[string]interface{}{
		"Title":         title,
		"SpecFolder":    req.Folder,
		"Channel":       ch,
		"GeneratedAt":   time.Now().Format("2006-01-02 15:04"),
		"Summary":       data.Summary,
		"Prompts":       data.Prompts,
		"Observations":  data.Observations,
		"FilesTouched":  artifacts.FilesTouched,
		"Decisions":     artifacts.Decisions,
		"Diagrams":      artifacts.Diagrams,
		"Learning":      ComputeLearning(data.Preflight, data.Postflight),
		"RecentContext": data.RecentContext,
	})
	if err != nil {
		return nil, err
	}

	memoryDir := filepath.Join(folderDir, "memory")
	if err := os.MkdirAll(memoryDir, 0755); err != nil {
		return nil, fmt.Errorf("create memory dir %s: %w", memoryDir, err)
	}
	result.DocPath = filepath.Join(memoryDir, "context.md")
	if err := os.WriteFile(result.DocPath, []byte(doc), 0644); err != nil {
		return nil, fmt.Errorf("write context document %s: %w", result.DocPath, err)
	}

	if g.memories != nil {
		// The anchor gives the document a stable identity for session
		// dedup even when its path or content later changes.
		record := &models.MemoryRecord{
			Title:          title,
			SpecFolder:     req.Folder,
			Channel:        ch,
			ImportanceTier: models.TierNormal,
			FilePath:       result.DocPath,
			AnchorID:       uuid.NewString(),
		}
		if err := g.memories.Save(record); err != nil {
			return nil, fmt.Errorf("record memory: %w", err)
		}
		result.MemoryID = record.ID
	}

	return result, nil
}

// Suggest lists existing folders a failed name was likely meant to be.
// When the storage root yields nothing, folders the memory store has
// seen are suggested instead.
func (g *Generator) Suggest(failedName string) []string {
	if s := Suggestions(g.cfg.SpecsRoot, failedName, 5); len(s) > 0 {
		return s
	}
	if g.memories == nil {
		return nil
	}

	folders, err := g.memories.Folders()
	if err != nil {
		return nil
	}
	var out []string
	for _, f := range folders {
		if ValidateFolderName(f) != nil || scoring.IsArchivedFolder(f) {
			continue
		}
		out = append(out, f)
		if len(out) == 5 {
			break
		}
	}
	return out
}

// deriveTitle turns a folder name into a readable default title
func deriveTitle(folder string) string {
	base := folder[strings.LastIndex(folder, "/")+1:]
	if len(base) > 4 {
		base = base[4:] // drop the NNN- prefix
	}
	return strings.ReplaceAll(base, "-", " ")
}
