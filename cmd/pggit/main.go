package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evoludigit/pgGit-sub001/internal/cli"
	"github.com/evoludigit/pgGit-sub001/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "pggit",
		Short:   "pggit - git-like version control for database schema structure",
		Version: version.String(),
		Long: `pggit tracks database schema objects in branched, append-only history
ledgers: branch off, record CREATE/ALTER/DROP changes, diff branches
three-way, and merge with conflict detection and resolution.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.BranchCmd())
	rootCmd.AddCommand(cli.CommitCmd())
	rootCmd.AddCommand(cli.ObjectCmd())
	rootCmd.AddCommand(cli.DiffCmd())
	rootCmd.AddCommand(cli.MergeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
