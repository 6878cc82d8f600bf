package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evoludigit/pgGit-sub001/internal/ports/primary"
	"github.com/evoludigit/pgGit-sub001/internal/wire"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Manage commits",
	Long:  "Create commits and inspect a branch's commit log",
}

var commitCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a commit on a branch",
	RunE: func(cmd *cobra.Command, args []string) error {
		branch, _ := cmd.Flags().GetString("branch")
		message, _ := cmd.Flags().GetString("message")
		summary, _ := cmd.Flags().GetString("summary")

		commit, err := wire.CommitService().CreateCommit(commandContext(), primary.CreateCommitRequest{
			BranchName:    branch,
			Message:       message,
			ChangeSummary: summary,
		})
		if err != nil {
			return err
		}

		fmt.Printf("✓ Committed %s on %s: %s\n", commit.Hash[:12], branch, commit.Message)
		return nil
	},
}

var commitLogCmd = &cobra.Command{
	Use:   "log [branch]",
	Short: "Show a branch's commit log, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		commits, err := wire.CommitService().ListCommits(commandContext(), args[0], limit)
		if err != nil {
			return err
		}

		if len(commits) == 0 {
			fmt.Println("No commits found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "HASH\tAUTHOR\tDATE\tMESSAGE")
		for _, c := range commits {
			hash := c.Hash
			if len(hash) > 12 {
				hash = hash[:12]
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", hash, c.Author, c.Timestamp, c.Message)
		}
		return w.Flush()
	},
}

var commitShowCmd = &cobra.Command{
	Use:   "show [hash]",
	Short: "Show commit details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		commit, err := wire.CommitService().GetCommit(commandContext(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("\nCommit:  %s\n", commit.Hash)
		fmt.Printf("Branch:  %s\n", commit.BranchName)
		if commit.ParentCommitHash != "" {
			fmt.Printf("Parent:  %s\n", commit.ParentCommitHash)
		}
		fmt.Printf("Author:  %s\n", commit.Author)
		fmt.Printf("Date:    %s\n", commit.Timestamp)
		fmt.Printf("Message: %s\n", commit.Message)
		if commit.ChangeSummary != "" {
			fmt.Printf("Summary: %s\n", commit.ChangeSummary)
		}
		fmt.Println()
		return nil
	},
}

// CommitCmd returns the commit command
func CommitCmd() *cobra.Command {
	commitCreateCmd.Flags().StringP("branch", "b", "main", "Branch to commit on")
	commitCreateCmd.Flags().StringP("message", "m", "", "Commit message")
	commitCreateCmd.Flags().String("summary", "", "Free-form summary of touched objects")
	commitLogCmd.Flags().IntP("limit", "n", 0, "Maximum commits to show (0 = all)")

	commitCmd.AddCommand(commitCreateCmd)
	commitCmd.AddCommand(commitLogCmd)
	commitCmd.AddCommand(commitShowCmd)

	return commitCmd
}
