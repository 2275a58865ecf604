// ABOUTME: Context command generates and persists a context document
// ABOUTME: Classifies its argument as a spec folder or a session data file
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/speckeep/speckeep/internal/channel"
	"github.com/speckeep/speckeep/internal/contextgen"
	"github.com/speckeep/speckeep/internal/session"
	"github.com/speckeep/speckeep/internal/storage/sqlite"
)

var (
	contextSession string
	contextTitle   string
	contextFolder  string
)

// NewContextCmd creates the context command
func NewContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context <folder|data-file.json>",
		Short: "Generate a context document for a spec folder",
		Long: `Generate a context document and record it as a memory.

The argument is classified by shape: a name matching NNN-lowercase-slug
is a spec folder (direct mode, captures live session state), anything
ending in .json is a structured session data file.

Examples:
  speckeep context 014-stateless-alignment
  speckeep context 014-stateless-alignment --session sess-abc
  speckeep context session-data.json --folder 014-stateless-alignment`,
		Args: cobra.ExactArgs(1),
		RunE: runContext,
	}

	cmd.Flags().StringVar(&contextSession, "session", "", "Session whose state to capture in direct mode")
	cmd.Flags().StringVar(&contextTitle, "title", "", "Document title override")
	cmd.Flags().StringVar(&contextFolder, "folder", "", "Spec folder (required with a data file argument)")

	return cmd
}

func runContext(cmd *cobra.Command, args []string) error {
	// An interrupt mid-generation is a normal way for an agent harness
	// to end a session, not a failure.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := contextgen.Request{
		SessionID: contextSession,
		Title:     contextTitle,
	}
	switch arg := contextgen.ClassifyArg(args[0]); arg.Kind {
	case contextgen.ArgDataFile:
		if contextFolder == "" {
			return fmt.Errorf("a data file argument requires --folder")
		}
		req.DataFile = arg.Value
		req.Folder = contextFolder
	case contextgen.ArgDirectMode:
		req.Folder = arg.Value
	}

	cfg, db, err := openEnv()
	if err != nil {
		return err
	}
	defer db.Close()

	memories := sqlite.NewMemoryStore(db)
	sessions := session.New(db, cfg)
	router := channel.NewRouter(cfg.DefaultChannel, cfg.ChannelCacheTTL, cfg.GitTimeout, "")
	generator := contextgen.NewGenerator(cfg, memories, sessions, router)

	result, err := generator.Generate(ctx, req)
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "Interrupted, no document written")
		}
		return nil
	}
	if err != nil {
		var verr *contextgen.ValidationError
		if errors.As(err, &verr) {
			// Expected failure: print remediation, not a trace.
			if suggestions := generator.Suggest(verr.Name); len(suggestions) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "Did you mean:")
				for _, s := range suggestions {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", s)
				}
			}
			return verr
		}
		return fmt.Errorf("generating context document: %w", err)
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Context document written to %s\n", result.DocPath)
		if verbose && result.MemoryID != 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded memory %d\n", result.MemoryID)
		}
	}
	return nil
}
