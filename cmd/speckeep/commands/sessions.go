// ABOUTME: Sessions command group for listing, completing, and cleanup
// ABOUTME: Operates on session state rows and dedup bookkeeping
package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/speckeep/speckeep/internal/models"
	"github.com/speckeep/speckeep/internal/session"
)

var (
	sessionsStatus string
	sessionsLimit  int
)

// NewSessionsCmd creates the sessions command group
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage coding sessions",
		Long: `Inspect and manage coding sessions.

Sessions track what an agent was doing so work survives crashes. A
session is active while running, completed when ended cleanly, and
interrupted when a later startup finds it was never completed.`,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List sessions by status",
		RunE:  runSessionsList,
	}
	list.Flags().StringVar(&sessionsStatus, "status", "active", "Status to list: active, completed, or interrupted")
	list.Flags().IntVar(&sessionsLimit, "limit", 20, "Maximum sessions to list")

	complete := &cobra.Command{
		Use:   "complete <session-id>",
		Short: "Mark a session as cleanly finished",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsComplete,
	}

	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Expire dedup entries older than the session TTL",
		RunE:  runSessionsCleanup,
	}

	clear := &cobra.Command{
		Use:   "clear <session-id>",
		Short: "Remove a session's state and dedup history",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsClear,
	}

	stats := &cobra.Command{
		Use:   "stats <session-id>",
		Short: "Show a session's dedup footprint and status",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsStats,
	}

	cmd.AddCommand(list, complete, cleanup, clear, stats)
	return cmd
}

func openSessions() (*session.Store, func(), error) {
	cfg, db, err := openEnv()
	if err != nil {
		return nil, nil, err
	}
	return session.New(db, cfg), func() { db.Close() }, nil
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	status := models.SessionStatus(sessionsStatus)
	switch status {
	case models.StatusActive, models.StatusCompleted, models.StatusInterrupted:
	default:
		return fmt.Errorf("unknown status %q (want active, completed, or interrupted)", sessionsStatus)
	}

	store, closeDB, err := openSessions()
	if err != nil {
		return err
	}
	defer closeDB()

	states, err := store.States().ListByStatus(status, sessionsLimit)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	if len(states) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No %s sessions\n", status)
		}
		return nil
	}

	if outputFormat == "json" {
		raw, err := json.MarshalIndent(states, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", raw)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SESSION\tSTATUS\tFOLDER\tCURRENT TASK\tUPDATED\n")
	for _, s := range states {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncate(s.SessionID, 25), s.Status, truncate(s.SpecFolder, 30),
			truncate(s.CurrentTask, 40), formatTime(s.UpdatedAt))
	}
	w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d session(s)\n", len(states))
	}
	return nil
}

func runSessionsComplete(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openSessions()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := store.CompleteSession(args[0]); err != nil {
		return fmt.Errorf("completing session: %w", err)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s completed\n", args[0])
	}
	return nil
}

func runSessionsCleanup(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openSessions()
	if err != nil {
		return err
	}
	defer closeDB()

	removed, err := store.CleanupExpiredSessions()
	if err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired dedup entries\n", removed)
	}
	return nil
}

func runSessionsStats(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openSessions()
	if err != nil {
		return err
	}
	defer closeDB()

	stats, err := store.SessionStats(args[0])
	if err != nil {
		return fmt.Errorf("reading session stats: %w", err)
	}

	if outputFormat == "json" {
		raw, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", raw)
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session: %s\n", stats.SessionID)
	if stats.Status != "" {
		fmt.Fprintf(out, "Status:  %s\n", stats.Status)
	}
	fmt.Fprintf(out, "Sent:    %d of %d dedup entries\n", stats.SentCount, stats.MaxEntries)
	for _, h := range stats.RecentHashes {
		fmt.Fprintf(out, "  %s\n", h)
	}
	return nil
}

func runSessionsClear(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openSessions()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := store.ClearSession(args[0]); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s cleared\n", args[0])
	}
	return nil
}
