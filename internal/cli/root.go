// Package cli wires the recommit commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "recommit",
		Short: "Create or pseudo-amend signed commits through the GitHub API",
		Long: `Recommit turns working-tree changes into commits created through the
GitHub API, so they are signed by the calling identity (for example
GitHub's web-flow key under a workflow token).

Runs are grouped by a rewrite-group id carried in a commit trailer:
when the branch tip belongs to the same group, it is replaced by a new
commit sharing its parent instead of stacking another commit per run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)

	rootCmd.AddCommand(newCommitCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	return rootCmd
}
