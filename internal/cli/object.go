package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evoludigit/pgGit-sub001/internal/ports/primary"
	"github.com/evoludigit/pgGit-sub001/internal/wire"
)

var objectCmd = &cobra.Command{
	Use:   "object",
	Short: "Manage versioned schema objects",
	Long:  "Record schema changes and inspect the per-object history ledger",
}

var objectRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a schema change on a branch",
	Long: `Append a CREATE, ALTER, or DROP entry to an object's history ledger.
The before definition must match the object's current state on the branch
or the append is rejected as a stale write.

Examples:
  pggit object record --name users --change CREATE --after "CREATE TABLE users (id INT)"
  pggit object record --name users --change ALTER --after-file users.sql --branch feature/emails`,
	RunE: func(cmd *cobra.Command, args []string) error {
		branch, _ := cmd.Flags().GetString("branch")
		objectType, _ := cmd.Flags().GetString("type")
		schema, _ := cmd.Flags().GetString("schema")
		name, _ := cmd.Flags().GetString("name")
		changeType, _ := cmd.Flags().GetString("change")

		before, err := definitionFlag(cmd, "before", "before-file")
		if err != nil {
			return err
		}
		after, err := definitionFlag(cmd, "after", "after-file")
		if err != nil {
			return err
		}

		entry, err := wire.ObjectService().RecordChange(commandContext(), primary.RecordChangeRequest{
			ObjectType:       primary.ParseObjectType(objectType),
			SchemaName:       schema,
			ObjectName:       name,
			ChangeType:       changeType,
			BeforeDefinition: before,
			AfterDefinition:  after,
			BranchName:       branch,
		})
		if err != nil {
			return err
		}

		fmt.Printf("✓ Recorded %s %s.%s on %s (%s)\n", entry.ChangeType, schema, name, branch, entry.ChangeSeverity)
		return nil
	},
}

var objectListCmd = &cobra.Command{
	Use:   "list [branch]",
	Short: "List objects present on a branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		objectType, _ := cmd.Flags().GetString("type")
		schema, _ := cmd.Flags().GetString("schema")
		sort, _ := cmd.Flags().GetString("sort")

		objects, err := wire.ObjectService().GetBranchObjects(commandContext(), args[0], primary.BranchObjectFilters{
			ObjectType: primary.ObjectType(objectType),
			SchemaName: schema,
			OrderBy:    sort,
		})
		if err != nil {
			return err
		}

		if len(objects) == 0 {
			fmt.Println("No objects found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tOBJECT\tVERSION\tHASH")
		for _, o := range objects {
			hash := o.Hash
			if len(hash) > 12 {
				hash = hash[:12]
			}
			fmt.Fprintf(w, "%s\t%s.%s\t%s\t%s\n", o.ObjectType, o.SchemaName, o.ObjectName, o.Version, hash)
		}
		return w.Flush()
	},
}

var objectShowCmd = &cobra.Command{
	Use:   "show [branch]",
	Short: "Show an object's current state on a branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		objectType, _ := cmd.Flags().GetString("type")
		schema, _ := cmd.Flags().GetString("schema")
		name, _ := cmd.Flags().GetString("name")

		ctx := commandContext()
		object, err := wire.ObjectService().EnsureObject(ctx, primary.ParseObjectType(objectType), schema, name)
		if err != nil {
			return err
		}

		state, err := wire.ObjectService().GetObjectState(ctx, object.ID, args[0])
		if err != nil {
			return err
		}

		if !state.Present {
			fmt.Printf("%s.%s is absent on %s\n", schema, name, args[0])
			return nil
		}

		fmt.Printf("\nObject: %s %s.%s\n", object.ObjectType, schema, name)
		fmt.Printf("Branch: %s\n", args[0])
		fmt.Printf("Hash:   %s\n", state.Hash)
		fmt.Printf("\n%s\n\n", state.Definition)
		return nil
	},
}

var objectHistoryCmd = &cobra.Command{
	Use:   "history [branch]",
	Short: "Show an object's ledger entries on a branch, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		objectType, _ := cmd.Flags().GetString("type")
		schema, _ := cmd.Flags().GetString("schema")
		name, _ := cmd.Flags().GetString("name")
		limit, _ := cmd.Flags().GetInt("limit")

		ctx := commandContext()
		object, err := wire.ObjectService().EnsureObject(ctx, primary.ParseObjectType(objectType), schema, name)
		if err != nil {
			return err
		}

		entries, err := wire.ObjectService().GetObjectHistory(ctx, object.ID, args[0], limit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No history found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CHANGE\tSEVERITY\tAUTHOR\tDATE\tCOMMIT")
		for _, e := range entries {
			commit := e.CommitHash
			if len(commit) > 12 {
				commit = commit[:12]
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ChangeType, e.ChangeSeverity, e.Author, e.Timestamp, commit)
		}
		return w.Flush()
	},
}

// definitionFlag resolves a definition from an inline flag or a file flag.
func definitionFlag(cmd *cobra.Command, inline, file string) (string, error) {
	value, _ := cmd.Flags().GetString(inline)
	if value != "" {
		return value, nil
	}

	path, _ := cmd.Flags().GetString(file)
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s: %w", file, err)
	}
	return string(data), nil
}

func addIdentityFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("type", "t", "TABLE", "Object type (TABLE, VIEW, FUNCTION, INDEX, TRIGGER, TYPE)")
	cmd.Flags().String("schema", "public", "Schema name")
	cmd.Flags().StringP("name", "n", "", "Object name")
	cmd.MarkFlagRequired("name")
}

// ObjectCmd returns the object command
func ObjectCmd() *cobra.Command {
	addIdentityFlags(objectRecordCmd)
	objectRecordCmd.Flags().StringP("branch", "b", "main", "Branch to record on")
	objectRecordCmd.Flags().StringP("change", "c", "", "Change type (CREATE, ALTER, DROP)")
	objectRecordCmd.Flags().String("before", "", "Definition before the change")
	objectRecordCmd.Flags().String("after", "", "Definition after the change")
	objectRecordCmd.Flags().String("before-file", "", "Read the before definition from a file")
	objectRecordCmd.Flags().String("after-file", "", "Read the after definition from a file")
	objectRecordCmd.MarkFlagRequired("change")

	objectListCmd.Flags().StringP("type", "t", "", "Filter by object type")
	objectListCmd.Flags().String("schema", "", "Filter by schema")
	objectListCmd.Flags().String("sort", "", "Sort order (name, type)")

	addIdentityFlags(objectShowCmd)
	addIdentityFlags(objectHistoryCmd)
	objectHistoryCmd.Flags().IntP("limit", "l", 0, "Maximum entries to show (0 = all)")

	objectCmd.AddCommand(objectRecordCmd)
	objectCmd.AddCommand(objectListCmd)
	objectCmd.AddCommand(objectShowCmd)
	objectCmd.AddCommand(objectHistoryCmd)

	return objectCmd
}
