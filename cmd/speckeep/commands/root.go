// ABOUTME: Root CLI command with global flags and subcommand registration
// ABOUTME: Defines verbose/quiet/format flags shared by every subcommand
package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
███████╗██████╗ ███████╗ ██████╗██╗  ██╗███████╗███████╗██████╗
██╔════╝██╔══██╗██╔════╝██╔════╝██║ ██╔╝██╔════╝██╔════╝██╔══██╗
███████╗██████╔╝█████╗  ██║     █████╔╝ █████╗  █████╗  ██████╔╝
╚════██║██╔═══╝ ██╔══╝  ██║     ██╔═██╗ ██╔══╝  ██╔══╝  ██╔═══╝
███████║██║     ███████╗╚██████╗██║  ██╗███████╗███████╗██║
╚══════╝╚═╝     ╚══════╝ ╚═════╝╚═╝  ╚═╝╚══════╝╚══════╝╚═╝
`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speckeep",
		Short: "Persistent memory for spec-driven coding sessions",
		Long: banner + `
Speckeep stores context documents, session checkpoints, and ranked
memories for spec folders, scoped to the current git branch.

Memories are deduplicated per session, sessions survive crashes via
checkpoints, and folders are ranked by recency and importance tier.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, compact, full, or json")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewContextCmd())
	cmd.AddCommand(NewRankCmd())
	cmd.AddCommand(NewSessionsCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
