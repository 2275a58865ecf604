// ABOUTME: Rank command scores folders and memories by composite score
// ABOUTME: Reads the stored corpus or a JSON records file, prints sections
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/speckeep/speckeep/internal/models"
	"github.com/speckeep/speckeep/internal/scoring"
	"github.com/speckeep/speckeep/internal/storage/sqlite"
)

var (
	rankShowArchived bool
	rankFolderLimit  int
	rankMemoryLimit  int
)

// NewRankCmd creates the rank command
func NewRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank [records.json|-]",
		Short: "Rank spec folders and memories",
		Long: `Rank spec folders and memories by composite score.

Folders score on recency, top importance tier, trigger count, and
importance weight; archived folders are damped. With no argument the
stored corpus is ranked; a JSON file of memory records (or - for
stdin) ranks offline data instead.

Examples:
  speckeep rank
  speckeep rank --show-archived --folder-limit 5
  speckeep rank records.json --format json
  cat records.json | speckeep rank -`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRank,
	}

	cmd.Flags().BoolVar(&rankShowArchived, "show-archived", false, "Include archived folders")
	cmd.Flags().IntVar(&rankFolderLimit, "folder-limit", 3, "Folders per section")
	cmd.Flags().IntVar(&rankMemoryLimit, "memory-limit", 5, "Recent memories to include")

	return cmd
}

func runRank(cmd *cobra.Command, args []string) error {
	var (
		records []models.MemoryRecord
		err     error
	)
	if len(args) == 1 {
		records, err = loadRecords(cmd.InOrStdin(), args[0])
	} else {
		records, err = storedRecords()
	}
	if err != nil {
		return err
	}

	ranked := scoring.Rank(records, time.Now(), scoring.RankOptions{
		ShowArchived: rankShowArchived,
		FolderLimit:  rankFolderLimit,
		MemoryLimit:  rankMemoryLimit,
	})

	switch outputFormat {
	case "compact":
		raw, err := json.Marshal(ranked)
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", raw)
	case "json", "full":
		raw, err := json.MarshalIndent(ranked, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", raw)
	default:
		printRanked(cmd.OutOrStdout(), ranked)
	}
	return nil
}

func storedRecords() ([]models.MemoryRecord, error) {
	_, db, err := openEnv()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	records, err := sqlite.NewMemoryStore(db).All()
	if err != nil {
		return nil, fmt.Errorf("loading memories: %w", err)
	}
	return records, nil
}

func loadRecords(stdin io.Reader, arg string) ([]models.MemoryRecord, error) {
	var raw []byte
	var err error
	if arg == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(arg)
	}
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	var records []models.MemoryRecord
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}

	// Search exports wrap the array in a results field.
	var wrapped struct {
		Results []models.MemoryRecord `json:"results"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil || wrapped.Results == nil {
		return nil, fmt.Errorf("parsing records: expected a JSON array or an object with a results array")
	}
	return wrapped.Results, nil
}

func printRanked(out io.Writer, ranked scoring.Ranked) {
	if len(ranked.AlwaysVisible) > 0 {
		fmt.Fprintln(out, "ALWAYS VISIBLE")
		for _, m := range ranked.AlwaysVisible {
			fmt.Fprintf(out, "  [%s] %s (%s)\n", m.ImportanceTier, truncate(m.Title, 60), m.SpecFolder)
		}
		fmt.Fprintln(out)
	}

	printFolderSection(out, "TOP FOLDERS", ranked.TopFolders)
	printFolderSection(out, "TOP TIER FOLDERS", ranked.TopTierFolders)

	if len(ranked.RecentMemories) > 0 {
		fmt.Fprintln(out, "RECENT MEMORIES")
		for _, m := range ranked.RecentMemories {
			fmt.Fprintf(out, "  %s  %s (%s)\n", formatTime(m.UpdatedAt), truncate(m.Title, 50), m.SpecFolder)
		}
		fmt.Fprintln(out)
	}

	if !quiet {
		s := ranked.Stats
		fmt.Fprintf(out, "Total: %d memories across %d folders (%d active, %d archived)\n",
			s.TotalMemories, s.TotalFolders, s.ActiveFolders, s.ArchivedFolders)
	}
}

func printFolderSection(out io.Writer, header string, folders []scoring.FolderScore) {
	if len(folders) == 0 {
		return
	}
	fmt.Fprintln(out, header)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  FOLDER\tSCORE\tTIER\tMEMORIES\tUPDATED\n")
	for _, f := range folders {
		fmt.Fprintf(w, "  %s\t%.3f\t%s\t%d\t%s\n",
			truncate(f.SimplifiedPath, 40), f.Score, f.TopTier, f.MemoryCount, formatTime(f.LastUpdate))
	}
	w.Flush()
	fmt.Fprintln(out)
}
