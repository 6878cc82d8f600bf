// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/evoludigit/pgGit-sub001/internal/ports/primary"
)

// BranchAdapter is a thin adapter that translates CLI operations to
// BranchService calls. It depends only on the BranchService interface,
// enabling easy testing with mocks.
type BranchAdapter struct {
	service primary.BranchService
	out     io.Writer
}

// NewBranchAdapter creates a new BranchAdapter with the given service.
func NewBranchAdapter(service primary.BranchService, out io.Writer) *BranchAdapter {
	return &BranchAdapter{
		service: service,
		out:     out,
	}
}

// Create creates a new branch off the given parent.
func (a *BranchAdapter) Create(ctx context.Context, name, parent string) error {
	branch, err := a.service.CreateBranch(ctx, primary.CreateBranchRequest{
		Name:   name,
		Parent: parent,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Created branch %s (parent: %s)\n", branch.Name, branch.ParentName)
	return nil
}

// List lists branches with optional status filter.
func (a *BranchAdapter) List(ctx context.Context, status string, includeDeleted bool) error {
	branches, err := a.service.ListBranches(ctx, primary.BranchFilters{
		Status:         status,
		IncludeDeleted: includeDeleted,
	})
	if err != nil {
		return fmt.Errorf("failed to list branches: %w", err)
	}

	if len(branches) == 0 {
		fmt.Fprintln(a.out, "No branches found")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tPARENT\tHEAD")
	for _, b := range branches {
		head := b.HeadCommitHash
		if len(head) > 12 {
			head = head[:12]
		}
		parent := b.ParentName
		if parent == "" {
			parent = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.Name, b.Status, parent, head)
	}
	return w.Flush()
}

// Show displays details for a single branch.
func (a *BranchAdapter) Show(ctx context.Context, name string) (*primary.Branch, error) {
	branch, err := a.service.GetBranch(ctx, name)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "\nBranch:  %s\n", branch.Name)
	fmt.Fprintf(a.out, "Status:  %s\n", branch.Status)
	if branch.ParentName != "" {
		fmt.Fprintf(a.out, "Parent:  %s\n", branch.ParentName)
	}
	if branch.HeadCommitHash != "" {
		fmt.Fprintf(a.out, "Head:    %s\n", branch.HeadCommitHash)
	}
	fmt.Fprintf(a.out, "Created: %s by %s\n", branch.CreatedAt, branch.CreatedBy)
	fmt.Fprintln(a.out)

	return branch, nil
}

// Delete soft-deletes a branch.
func (a *BranchAdapter) Delete(ctx context.Context, name string) error {
	if err := a.service.DeleteBranch(ctx, name); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Deleted branch %s\n", name)
	return nil
}

// Ancestor prints the nearest common ancestor of two branches.
func (a *BranchAdapter) Ancestor(ctx context.Context, branchA, branchB string) error {
	ancestor, err := a.service.FindCommonAncestor(ctx, branchA, branchB)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Common ancestor of %s and %s: %s\n", branchA, branchB, ancestor.Name)
	return nil
}
