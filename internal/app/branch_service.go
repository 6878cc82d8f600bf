// Package app contains the application services implementing the primary
// ports. Services orchestrate repositories and the functional core; they
// hold no SQL and no business math of their own.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/evoludigit/pgGit-sub001/internal/core/branch"
	"github.com/evoludigit/pgGit-sub001/internal/ctxutil"
	"github.com/evoludigit/pgGit-sub001/internal/ports/primary"
	"github.com/evoludigit/pgGit-sub001/internal/ports/secondary"
)

// MainBranchName is the implicit root branch every repository has.
const MainBranchName = "main"

// BranchServiceImpl implements the BranchService interface.
type BranchServiceImpl struct {
	branchRepo secondary.BranchRepository

	// ancestorCache memoizes common-ancestor lookups. Branch parents are
	// immutable after creation, so entries never invalidate.
	ancestorMu    sync.Mutex
	ancestorCache map[string]string
}

// NewBranchService creates a new BranchService with injected dependencies.
func NewBranchService(branchRepo secondary.BranchRepository) *BranchServiceImpl {
	return &BranchServiceImpl{
		branchRepo:    branchRepo,
		ancestorCache: make(map[string]string),
	}
}

// EnsureMain creates the implicit main branch if it does not exist.
func (s *BranchServiceImpl) EnsureMain(ctx context.Context) (*primary.Branch, error) {
	record, err := s.branchRepo.GetByName(ctx, MainBranchName)
	if err == nil {
		return s.recordToBranch(ctx, record), nil
	}
	if !errors.Is(err, secondary.ErrNotFound) {
		return nil, err
	}

	record = &secondary.BranchRecord{
		ID:        uuid.New().String(),
		Name:      MainBranchName,
		Status:    primary.BranchStatusActive,
		CreatedBy: ctxutil.AuthorFromContext(ctx),
	}
	if err := s.branchRepo.Create(ctx, record); err != nil {
		// Lost a race with a concurrent bootstrap; the winner's row serves.
		if errors.Is(err, secondary.ErrDuplicate) {
			record, err = s.branchRepo.GetByName(ctx, MainBranchName)
			if err != nil {
				return nil, err
			}
			return s.recordToBranch(ctx, record), nil
		}
		return nil, fmt.Errorf("failed to create main branch: %w", err)
	}

	created, err := s.branchRepo.GetByName(ctx, MainBranchName)
	if err != nil {
		return nil, err
	}
	return s.recordToBranch(ctx, created), nil
}

// CreateBranch creates a branch under the given parent.
func (s *BranchServiceImpl) CreateBranch(ctx context.Context, req primary.CreateBranchRequest) (*primary.Branch, error) {
	if req.Name == "" {
		return nil, primary.Errorf(primary.CodeNullBranchID, "branch name is required")
	}

	parentName := req.Parent
	if parentName == "" {
		parentName = MainBranchName
	}

	var parent *secondary.BranchRecord
	if parentName == MainBranchName {
		// Creating off main bootstraps it on first use.
		main, err := s.EnsureMain(ctx)
		if err != nil {
			return nil, err
		}
		parent = &secondary.BranchRecord{ID: main.ID, Name: main.Name, HeadCommitHash: main.HeadCommitHash, Status: main.Status}
	} else {
		record, err := s.branchRepo.GetByName(ctx, parentName)
		if errors.Is(err, secondary.ErrNotFound) {
			return nil, primary.Errorf(primary.CodeParentNotFound, "parent branch %s does not exist", parentName)
		}
		if err != nil {
			return nil, err
		}
		parent = record
	}

	if parent.Status == primary.BranchStatusDeleted {
		return nil, primary.Errorf(primary.CodeParentNotFound, "parent branch %s is deleted", parentName)
	}

	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = ctxutil.AuthorFromContext(ctx)
	}

	record := &secondary.BranchRecord{
		ID:             uuid.New().String(),
		Name:           req.Name,
		ParentBranchID: parent.ID,
		Status:         primary.BranchStatusActive,
		CreatedBy:      createdBy,
	}
	if err := s.branchRepo.Create(ctx, record); err != nil {
		if errors.Is(err, secondary.ErrDuplicate) {
			return nil, primary.Errorf(primary.CodeBranchNameTaken, "branch name %s is already taken", req.Name)
		}
		return nil, fmt.Errorf("failed to create branch: %w", err)
	}

	// The new branch starts at its parent's head: that commit is the fork
	// point for its own commit lineage.
	if parent.HeadCommitHash != "" {
		if err := s.branchRepo.SetHead(ctx, record.ID, parent.HeadCommitHash); err != nil {
			return nil, fmt.Errorf("failed to set fork point: %w", err)
		}
	}

	created, err := s.branchRepo.GetByID(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	return s.recordToBranch(ctx, created), nil
}

// GetBranch retrieves a branch by name.
func (s *BranchServiceImpl) GetBranch(ctx context.Context, name string) (*primary.Branch, error) {
	record, err := s.branchRepo.GetByName(ctx, name)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.Errorf(primary.CodeBranchNotFound, "branch %s does not exist", name)
	}
	if err != nil {
		return nil, err
	}
	return s.recordToBranch(ctx, record), nil
}

// ListBranches lists branches with optional filters.
func (s *BranchServiceImpl) ListBranches(ctx context.Context, filters primary.BranchFilters) ([]*primary.Branch, error) {
	records, err := s.branchRepo.List(ctx, secondary.BranchFilters{
		Status:         filters.Status,
		IncludeDeleted: filters.IncludeDeleted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	// Resolve parent names in one pass over the full tree.
	all, err := s.branchRepo.List(ctx, secondary.BranchFilters{IncludeDeleted: true})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(all))
	for _, r := range all {
		names[r.ID] = r.Name
	}

	branches := make([]*primary.Branch, len(records))
	for i, r := range records {
		b := recordToBranchBare(r)
		b.ParentName = names[r.ParentBranchID]
		branches[i] = b
	}
	return branches, nil
}

// DeleteBranch soft-deletes a branch. The row and its ledger stay
// queryable for historical diffs.
func (s *BranchServiceImpl) DeleteBranch(ctx context.Context, name string) error {
	if name == MainBranchName {
		return primary.Errorf(primary.CodeBranchNotWritable, "the main branch cannot be deleted")
	}

	record, err := s.branchRepo.GetByName(ctx, name)
	if errors.Is(err, secondary.ErrNotFound) {
		return primary.Errorf(primary.CodeBranchNotFound, "branch %s does not exist", name)
	}
	if err != nil {
		return err
	}

	if record.Status == primary.BranchStatusMerging {
		return primary.Errorf(primary.CodeTargetBranchBusy, "branch %s has a merge in progress; resolve or abort it first", name)
	}

	return s.branchRepo.UpdateStatus(ctx, record.ID, primary.BranchStatusDeleted)
}

// FindCommonAncestor returns the nearest common ancestor branch of the two
// named branches.
func (s *BranchServiceImpl) FindCommonAncestor(ctx context.Context, branchA, branchB string) (*primary.Branch, error) {
	a, err := s.branchRepo.GetByName(ctx, branchA)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.Errorf(primary.CodeBranchNotFound, "branch %s does not exist", branchA)
	}
	if err != nil {
		return nil, err
	}
	b, err := s.branchRepo.GetByName(ctx, branchB)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.Errorf(primary.CodeBranchNotFound, "branch %s does not exist", branchB)
	}
	if err != nil {
		return nil, err
	}

	ancestorID, err := s.commonAncestorID(ctx, a.ID, b.ID)
	if err != nil {
		return nil, err
	}

	record, err := s.branchRepo.GetByID(ctx, ancestorID)
	if err != nil {
		return nil, err
	}
	return s.recordToBranch(ctx, record), nil
}

// commonAncestorID resolves and caches the nearest common ancestor of two
// branch ids.
func (s *BranchServiceImpl) commonAncestorID(ctx context.Context, idA, idB string) (string, error) {
	key := cacheKey(idA, idB)

	s.ancestorMu.Lock()
	cached, ok := s.ancestorCache[key]
	s.ancestorMu.Unlock()
	if ok {
		return cached, nil
	}

	parents, err := s.branchRepo.ParentMap(ctx)
	if err != nil {
		return "", err
	}

	ancestorID, ok := branch.NearestCommonAncestor(parents, idA, idB)
	if !ok {
		return "", fmt.Errorf("branches %s and %s share no common ancestor", idA, idB)
	}

	s.ancestorMu.Lock()
	s.ancestorCache[key] = ancestorID
	s.ancestorMu.Unlock()

	return ancestorID, nil
}

func cacheKey(idA, idB string) string {
	pair := []string{idA, idB}
	sort.Strings(pair)
	return pair[0] + "|" + pair[1]
}

func (s *BranchServiceImpl) recordToBranch(ctx context.Context, record *secondary.BranchRecord) *primary.Branch {
	b := recordToBranchBare(record)
	if record.ParentBranchID != "" {
		if parent, err := s.branchRepo.GetByID(ctx, record.ParentBranchID); err == nil {
			b.ParentName = parent.Name
		}
	}
	return b
}

func recordToBranchBare(record *secondary.BranchRecord) *primary.Branch {
	return &primary.Branch{
		ID:             record.ID,
		Name:           record.Name,
		ParentBranchID: record.ParentBranchID,
		Status:         record.Status,
		HeadCommitHash: record.HeadCommitHash,
		CreatedBy:      record.CreatedBy,
		CreatedAt:      record.CreatedAt,
	}
}

// Ensure BranchServiceImpl implements the interface
var _ primary.BranchService = (*BranchServiceImpl)(nil)
