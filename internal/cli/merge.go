package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evoludigit/pgGit-sub001/internal/ports/primary"
	"github.com/evoludigit/pgGit-sub001/internal/wire"
)

var mergeStatusCmd = &cobra.Command{
	Use:   "status [merge-id]",
	Short: "Show a merge operation and its conflicts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.MergeAdapter().Status(commandContext(), args[0])
	},
}

var mergeResolveCmd = &cobra.Command{
	Use:   "resolve [merge-id] [seq]",
	Short: "Resolve one conflict of an open merge",
	Long: `Apply a resolution to one conflict: SOURCE takes the source branch's
frozen definition, TARGET keeps the target's, CUSTOM takes a definition
you provide. Resolving the last conflict completes the merge and
releases the target branch.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid conflict seq %q", args[1])
		}

		resolution, _ := cmd.Flags().GetString("use")
		custom, err := definitionFlag(cmd, "definition", "definition-file")
		if err != nil {
			return err
		}

		return wire.MergeAdapter().Resolve(commandContext(), args[0], seq, resolution, custom)
	},
}

var mergeAbortCmd = &cobra.Command{
	Use:   "abort [merge-id]",
	Short: "Abort a conflicted merge",
	Long:  "Release the target branch without applying the unresolved conflicts.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.MergeAdapter().Abort(commandContext(), args[0])
	},
}

// MergeCmd returns the merge command
func MergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [source] [target]",
		Short: "Merge one branch into another",
		Long: `Run the three-way diff and apply the chosen strategy:

  ABORT_ON_CONFLICT  fail without mutating anything when conflicts exist (default)
  MANUAL_REVIEW      apply clean changes, record conflicts for later resolution
  PREFER_SOURCE      resolve every conflict with the source branch's state
  PREFER_TARGET      resolve every conflict by keeping the target branch's state`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, _ := cmd.Flags().GetString("strategy")
			message, _ := cmd.Flags().GetString("message")
			base, _ := cmd.Flags().GetString("base")

			return wire.MergeAdapter().Merge(commandContext(), args[0], args[1], base, strategy, message)
		},
	}

	cmd.Flags().StringP("strategy", "s", primary.StrategyAbortOnConflict, "Merge strategy")
	cmd.Flags().StringP("message", "m", "", "Merge commit message")
	cmd.Flags().String("base", "", "Explicit merge base branch")

	mergeResolveCmd.Flags().StringP("use", "u", "", "Resolution (SOURCE, TARGET, CUSTOM)")
	mergeResolveCmd.Flags().String("definition", "", "Custom definition (with --use CUSTOM)")
	mergeResolveCmd.Flags().String("definition-file", "", "Read the custom definition from a file")
	mergeResolveCmd.MarkFlagRequired("use")

	cmd.AddCommand(mergeStatusCmd)
	cmd.AddCommand(mergeResolveCmd)
	cmd.AddCommand(mergeAbortCmd)

	return cmd
}
