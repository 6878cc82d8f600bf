package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/evoludigit/pgGit-sub001/internal/ports/primary"
)

// MergeAdapter is a thin adapter that translates CLI operations to
// MergeService calls.
type MergeAdapter struct {
	service primary.MergeService
	out     io.Writer
}

// NewMergeAdapter creates a new MergeAdapter with the given service.
func NewMergeAdapter(service primary.MergeService, out io.Writer) *MergeAdapter {
	return &MergeAdapter{
		service: service,
		out:     out,
	}
}

// Merge merges source into target with the given strategy.
func (a *MergeAdapter) Merge(ctx context.Context, source, target, base, strategy, message string) error {
	op, err := a.service.MergeBranches(ctx, primary.MergeRequest{
		Source:   source,
		Target:   target,
		Base:     base,
		Strategy: strategy,
		Message:  message,
	})
	if err != nil {
		return err
	}

	switch op.Status {
	case primary.MergeStatusCompleted:
		fmt.Fprintf(a.out, "✓ Merged %s into %s (commit %s)\n", source, target, op.MergeCommitHash)
	case primary.MergeStatusConflicted:
		fmt.Fprintf(a.out, "Merge %s is CONFLICTED: %d conflict(s) need resolution\n", op.ID, len(op.Conflicts))
		a.printConflicts(op)
		fmt.Fprintf(a.out, "\nResolve with: pggit merge resolve %s <seq> --use <SOURCE|TARGET|CUSTOM>\n", op.ID)
	default:
		fmt.Fprintf(a.out, "Merge %s: %s\n", op.ID, op.Status)
	}
	return nil
}

// Status displays a merge operation and its conflicts.
func (a *MergeAdapter) Status(ctx context.Context, mergeID string) error {
	op, err := a.service.GetMergeOperation(ctx, mergeID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nMerge:    %s\n", op.ID)
	fmt.Fprintf(a.out, "Source:   %s\n", op.SourceBranch)
	fmt.Fprintf(a.out, "Target:   %s\n", op.TargetBranch)
	fmt.Fprintf(a.out, "Base:     %s\n", op.BaseBranch)
	fmt.Fprintf(a.out, "Strategy: %s\n", op.Strategy)
	fmt.Fprintf(a.out, "Status:   %s\n", op.Status)
	if op.MergeCommitHash != "" {
		fmt.Fprintf(a.out, "Commit:   %s\n", op.MergeCommitHash)
	}
	if op.CompletedAt != "" {
		fmt.Fprintf(a.out, "Completed: %s\n", op.CompletedAt)
	}

	if len(op.Conflicts) > 0 {
		fmt.Fprintln(a.out)
		a.printConflicts(op)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Resolve applies one resolution to one conflict of an open merge.
func (a *MergeAdapter) Resolve(ctx context.Context, mergeID string, seq int, resolution, customDefinition string) error {
	op, err := a.service.ResolveConflict(ctx, primary.ResolveConflictRequest{
		MergeID:          mergeID,
		ConflictSeq:      seq,
		Resolution:       resolution,
		CustomDefinition: customDefinition,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Resolved conflict %d with %s\n", seq, resolution)
	if op.Status == primary.MergeStatusCompleted {
		fmt.Fprintf(a.out, "✓ Merge %s completed\n", op.ID)
	} else {
		remaining := 0
		for _, c := range op.Conflicts {
			if c.Resolution == primary.ResolutionDeferred {
				remaining++
			}
		}
		fmt.Fprintf(a.out, "%d conflict(s) remaining\n", remaining)
	}
	return nil
}

// Abort releases the target branch of a conflicted merge.
func (a *MergeAdapter) Abort(ctx context.Context, mergeID string) error {
	if err := a.service.AbortMerge(ctx, mergeID); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Merge %s aborted\n", mergeID)
	return nil
}

func (a *MergeAdapter) printConflicts(op *primary.MergeOperation) {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tOBJECT\tKIND\tRESOLUTION\tDEPENDENTS")
	for _, c := range op.Conflicts {
		fmt.Fprintf(w, "%d\t%s.%s\t%s\t%s\t%d\n",
			c.ConflictSeq, c.SchemaName, c.ObjectName, c.ConflictKind, c.Resolution, c.DependentCount)
	}
	w.Flush()
}
