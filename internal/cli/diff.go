package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/evoludigit/pgGit-sub001/internal/ports/primary"
	"github.com/evoludigit/pgGit-sub001/internal/wire"
)

// DiffCmd returns the diff command
func DiffCmd() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "diff [source] [target]",
		Short: "Three-way diff of two branches",
		Long: `Classify every object touched by either branch against their merge
base: ADDED, MODIFIED, REMOVED, or CONFLICT. The base defaults to the
state at the nearest common ancestor commit; --base names a branch whose
current state is used instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			diff, err := wire.MergeService().DetectConflicts(commandContext(), primary.DetectConflictsRequest{
				Source: args[0],
				Target: args[1],
				Base:   base,
			})
			if err != nil {
				return err
			}

			if !diff.HasChanges {
				fmt.Printf("No differences between %s and %s\n", diff.Source, diff.Target)
				return nil
			}

			fmt.Printf("\nDiff %s -> %s (base: %s)\n\n", diff.Source, diff.Target, diff.Base)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STATUS\tOBJECT\tTYPE\tDETAIL")
			for _, row := range diff.Rows {
				detail := ""
				if row.IsConflict {
					detail = row.ConflictKind
					if row.DependentCount > 0 {
						detail = fmt.Sprintf("%s, %d dependent(s)", detail, row.DependentCount)
					}
				}
				fmt.Fprintf(w, "%s\t%s.%s\t%s\t%s\n",
					classificationMarker(row), row.SchemaName, row.ObjectName, row.ObjectType, detail)
			}
			w.Flush()

			fmt.Println()
			if diff.Conflicts > 0 {
				fmt.Println(color.New(color.FgRed).Sprintf("%d conflict(s)", diff.Conflicts))
			} else {
				fmt.Println(color.New(color.FgGreen).Sprint("No conflicts - merge would be clean"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Explicit merge base branch")
	return cmd
}

func classificationMarker(row *primary.DiffRow) string {
	if row.IsConflict {
		return color.New(color.FgRed).Sprint("CONFLICT")
	}
	switch row.Classification {
	case "ADDED":
		return color.New(color.FgGreen).Sprint("ADDED")
	case "REMOVED":
		return color.New(color.FgYellow).Sprint("REMOVED")
	default:
		return row.Classification
	}
}
