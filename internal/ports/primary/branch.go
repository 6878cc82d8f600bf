package primary

import "context"

// Branch status values at the port boundary.
const (
	BranchStatusActive  = "ACTIVE"
	BranchStatusMerging = "MERGING"
	BranchStatusDeleted = "DELETED"
)

// BranchService defines the primary port for branch operations.
type BranchService interface {
	// CreateBranch creates a branch under the given parent. An empty
	// parent defaults to main. Fails with BRANCH_NAME_TAKEN or
	// PARENT_NOT_FOUND.
	CreateBranch(ctx context.Context, req CreateBranchRequest) (*Branch, error)

	// GetBranch retrieves a branch by name.
	GetBranch(ctx context.Context, name string) (*Branch, error)

	// ListBranches lists branches with optional filters.
	ListBranches(ctx context.Context, filters BranchFilters) ([]*Branch, error)

	// DeleteBranch soft-deletes a branch. Deleted branches stay queryable
	// for historical diffs but reject new commits.
	DeleteBranch(ctx context.Context, name string) error

	// FindCommonAncestor returns the nearest common ancestor branch of the
	// two named branches. Results are cached; branch parents never change.
	FindCommonAncestor(ctx context.Context, branchA, branchB string) (*Branch, error)

	// EnsureMain creates the implicit main branch if it does not exist.
	EnsureMain(ctx context.Context) (*Branch, error)
}

// CreateBranchRequest contains parameters for creating a branch.
type CreateBranchRequest struct {
	Name      string
	Parent    string // empty defaults to main
	CreatedBy string // empty defaults to the context author
}

// Branch represents a branch entity at the port boundary.
type Branch struct {
	ID             string
	Name           string
	ParentBranchID string
	ParentName     string
	Status         string
	HeadCommitHash string
	CreatedBy      string
	CreatedAt      string
}

// BranchFilters contains filter options for listing branches.
type BranchFilters struct {
	Status         string
	IncludeDeleted bool
}
