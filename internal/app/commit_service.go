package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evoludigit/pgGit-sub001/internal/core/commitid"
	mergecore "github.com/evoludigit/pgGit-sub001/internal/core/merge"
	"github.com/evoludigit/pgGit-sub001/internal/ctxutil"
	"github.com/evoludigit/pgGit-sub001/internal/ports/primary"
	"github.com/evoludigit/pgGit-sub001/internal/ports/secondary"
)

// CommitServiceImpl implements the CommitService interface.
type CommitServiceImpl struct {
	branchRepo secondary.BranchRepository
	commitRepo secondary.CommitRepository
}

// NewCommitService creates a new CommitService with injected dependencies.
func NewCommitService(branchRepo secondary.BranchRepository, commitRepo secondary.CommitRepository) *CommitServiceImpl {
	return &CommitServiceImpl{
		branchRepo: branchRepo,
		commitRepo: commitRepo,
	}
}

// CreateCommit appends a commit to a branch and advances its head.
func (s *CommitServiceImpl) CreateCommit(ctx context.Context, req primary.CreateCommitRequest) (*primary.Commit, error) {
	if req.Message == "" {
		return nil, primary.Errorf(primary.CodeEmptyMessage, "commit message is required")
	}

	branch, err := s.branchRepo.GetByName(ctx, req.BranchName)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.Errorf(primary.CodeBranchNotFound, "branch %s does not exist", req.BranchName)
	}
	if err != nil {
		return nil, err
	}

	guard := mergecore.CanCommitToBranch(mergecore.BranchStateContext{
		BranchName: branch.Name,
		Status:     branch.Status,
	})
	if !guard.Allowed {
		return nil, primary.Errorf(primary.CodeBranchNotWritable, "%s", guard.Reason)
	}

	author := req.Author
	if author == "" {
		author = ctxutil.AuthorFromContext(ctx)
	}

	hash := commitid.Hash(branch.ID, branch.HeadCommitHash, req.Message, req.ChangeSummary, time.Now())

	record := &secondary.CommitRecord{
		Hash:             hash,
		BranchID:         branch.ID,
		ParentCommitHash: branch.HeadCommitHash,
		Author:           author,
		Message:          req.Message,
		ChangeSummary:    req.ChangeSummary,
	}
	if err := s.commitRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create commit: %w", err)
	}

	if err := s.branchRepo.SetHead(ctx, branch.ID, hash); err != nil {
		return nil, fmt.Errorf("failed to advance branch head: %w", err)
	}

	created, err := s.commitRepo.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	commit := recordToCommit(created)
	commit.BranchName = branch.Name
	return commit, nil
}

// GetCommit retrieves a commit by hash.
func (s *CommitServiceImpl) GetCommit(ctx context.Context, hash string) (*primary.Commit, error) {
	record, err := s.commitRepo.GetByHash(ctx, hash)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.Errorf(primary.CodeCommitNotFound, "commit %s does not exist", hash)
	}
	if err != nil {
		return nil, err
	}

	commit := recordToCommit(record)
	if branch, err := s.branchRepo.GetByID(ctx, record.BranchID); err == nil {
		commit.BranchName = branch.Name
	}
	return commit, nil
}

// ListCommits returns a branch's commit log, newest first.
func (s *CommitServiceImpl) ListCommits(ctx context.Context, branchName string, limit int) ([]*primary.Commit, error) {
	branch, err := s.branchRepo.GetByName(ctx, branchName)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.Errorf(primary.CodeBranchNotFound, "branch %s does not exist", branchName)
	}
	if err != nil {
		return nil, err
	}

	records, err := s.commitRepo.ListByBranch(ctx, branch.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}

	commits := make([]*primary.Commit, len(records))
	for i, r := range records {
		commits[i] = recordToCommit(r)
		commits[i].BranchName = branch.Name
	}
	return commits, nil
}

func recordToCommit(record *secondary.CommitRecord) *primary.Commit {
	return &primary.Commit{
		Hash:             record.Hash,
		BranchID:         record.BranchID,
		ParentCommitHash: record.ParentCommitHash,
		Author:           record.Author,
		Message:          record.Message,
		ChangeSummary:    record.ChangeSummary,
		Timestamp:        record.Timestamp,
	}
}

// Ensure CommitServiceImpl implements the interface
var _ primary.CommitService = (*CommitServiceImpl)(nil)
