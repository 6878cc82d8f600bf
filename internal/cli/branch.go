package cli

import (
	"github.com/spf13/cobra"

	"github.com/evoludigit/pgGit-sub001/internal/wire"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Manage schema branches",
	Long:  "Create, list, and manage branches of the schema history ledger",
}

var branchCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, _ := cmd.Flags().GetString("parent")
		return wire.BranchAdapter().Create(commandContext(), args[0], parent)
	},
}

var branchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List branches",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		all, _ := cmd.Flags().GetBool("all")
		return wire.BranchAdapter().List(commandContext(), status, all)
	},
}

var branchShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show branch details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := wire.BranchAdapter().Show(commandContext(), args[0])
		return err
	},
}

var branchDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Soft-delete a branch",
	Long: `Mark a branch DELETED. Its history stays queryable for diffs but it
rejects new commits. The main branch cannot be deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.BranchAdapter().Delete(commandContext(), args[0])
	},
}

var branchAncestorCmd = &cobra.Command{
	Use:   "ancestor [branch-a] [branch-b]",
	Short: "Show the nearest common ancestor of two branches",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.BranchAdapter().Ancestor(commandContext(), args[0], args[1])
	},
}

// BranchCmd returns the branch command
func BranchCmd() *cobra.Command {
	branchCreateCmd.Flags().StringP("parent", "p", "", "Parent branch (default: main)")
	branchListCmd.Flags().StringP("status", "s", "", "Filter by status (ACTIVE, MERGING, DELETED)")
	branchListCmd.Flags().Bool("all", false, "Include deleted branches")

	branchCmd.AddCommand(branchCreateCmd)
	branchCmd.AddCommand(branchListCmd)
	branchCmd.AddCommand(branchShowCmd)
	branchCmd.AddCommand(branchDeleteCmd)
	branchCmd.AddCommand(branchAncestorCmd)

	return branchCmd
}
