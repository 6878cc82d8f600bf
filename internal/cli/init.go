package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evoludigit/pgGit-sub001/internal/config"
	"github.com/evoludigit/pgGit-sub001/internal/db"
	"github.com/evoludigit/pgGit-sub001/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the pggit database and config",
		Long: `Initialize the pggit database at ~/.pggit/pggit.db with the required
schema, create the implicit main branch, and write .pggit/config.json in
the current directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := db.GetDBPath()
			if err != nil {
				return fmt.Errorf("failed to get database path: %w", err)
			}

			fmt.Printf("Initializing pggit database at %s\n", dbPath)

			if _, err := db.GetDB(); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			fmt.Println("✓ Database initialized successfully")

			if _, err := wire.BranchService().EnsureMain(commandContext()); err != nil {
				return fmt.Errorf("failed to create main branch: %w", err)
			}
			fmt.Println("✓ Branch main ready")

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			cfg := &config.Config{Version: "1.0", Author: author, DefaultBranch: config.DefaultBranch}
			if author == "" {
				cfg.Author = config.ResolveAuthor(nil)
			}
			if err := config.SaveConfig(cwd, cfg); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Printf("✓ Config written to .pggit/config.json (author: %s)\n", cfg.Author)

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  pggit branch create feature/my-change")
			fmt.Println("  pggit object record --name users --change CREATE --after \"CREATE TABLE users (id INT)\"")

			return nil
		},
	}

	cmd.Flags().StringVarP(&author, "author", "a", "", "Author recorded on commits and ledger entries")
	return cmd
}
