package primary

import "context"

// CommitService defines the primary port for commit operations.
type CommitService interface {
	// CreateCommit appends a commit to a branch. Fails with
	// BRANCH_NOT_FOUND, EMPTY_MESSAGE, or BRANCH_NOT_WRITABLE when the
	// branch is deleted or locked by an open merge.
	CreateCommit(ctx context.Context, req CreateCommitRequest) (*Commit, error)

	// GetCommit retrieves a commit by hash.
	GetCommit(ctx context.Context, hash string) (*Commit, error)

	// ListCommits returns a branch's commit log, newest first.
	ListCommits(ctx context.Context, branchName string, limit int) ([]*Commit, error)
}

// CreateCommitRequest contains parameters for creating a commit.
type CreateCommitRequest struct {
	BranchName    string
	Message       string
	ChangeSummary string // free-form summary of touched objects
	Author        string // empty defaults to the context author
}

// Commit represents a commit entity at the port boundary.
type Commit struct {
	Hash             string
	BranchID         string
	BranchName       string
	ParentCommitHash string
	Author           string
	Message          string
	ChangeSummary    string
	Timestamp        string
}
