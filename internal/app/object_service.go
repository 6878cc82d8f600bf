package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/evoludigit/pgGit-sub001/internal/core/change"
	"github.com/evoludigit/pgGit-sub001/internal/core/definition"
	mergecore "github.com/evoludigit/pgGit-sub001/internal/core/merge"
	"github.com/evoludigit/pgGit-sub001/internal/core/semver"
	"github.com/evoludigit/pgGit-sub001/internal/ctxutil"
	"github.com/evoludigit/pgGit-sub001/internal/ports/primary"
	"github.com/evoludigit/pgGit-sub001/internal/ports/secondary"
)

// ObjectServiceImpl implements the ObjectService interface.
type ObjectServiceImpl struct {
	branchRepo  secondary.BranchRepository
	objectRepo  secondary.ObjectRepository
	historyRepo secondary.HistoryRepository
	depRepo     secondary.DependencyRepository
	commits     primary.CommitService
}

// NewObjectService creates a new ObjectService with injected dependencies.
func NewObjectService(
	branchRepo secondary.BranchRepository,
	objectRepo secondary.ObjectRepository,
	historyRepo secondary.HistoryRepository,
	depRepo secondary.DependencyRepository,
	commits primary.CommitService,
) *ObjectServiceImpl {
	return &ObjectServiceImpl{
		branchRepo:  branchRepo,
		objectRepo:  objectRepo,
		historyRepo: historyRepo,
		depRepo:     depRepo,
		commits:     commits,
	}
}

// EnsureObject creates-or-returns the global identity row.
func (s *ObjectServiceImpl) EnsureObject(ctx context.Context, objectType primary.ObjectType, schemaName, objectName string) (*primary.SchemaObject, error) {
	record, err := s.objectRepo.Ensure(ctx, string(objectType), schemaName, objectName)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure object: %w", err)
	}
	return recordToObject(record), nil
}

// RecordChange appends a ledger entry for an object on a branch. Severity
// and the semantic version bump are derived here, not supplied by the
// caller.
func (s *ObjectServiceImpl) RecordChange(ctx context.Context, req primary.RecordChangeRequest) (*primary.HistoryEntry, error) {
	changeType := change.Type(req.ChangeType)
	if !changeType.Valid() {
		return nil, primary.Errorf(primary.CodeInvalidChangeType, "change type %q is not one of CREATE, ALTER, DROP", req.ChangeType)
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

	object, err := s.objectRepo.Ensure(ctx, string(req.ObjectType), req.SchemaName, req.ObjectName)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure object: %w", err)
	}

	author := req.Author
	if author == "" {
		author = ctxutil.AuthorFromContext(ctx)
	}

	var beforeHash string
	if req.BeforeDefinition != "" {
		beforeHash = definition.HashDefault(req.BeforeDefinition)
	}
	var afterHash string
	if changeType != change.TypeDrop {
		afterHash = definition.HashDefault(req.AfterDefinition)
	}

	severity := change.SeverityOf(changeType, req.BeforeDefinition, req.AfterDefinition)
	version, err := s.bumpVersion(object, changeType, severity)
	if err != nil {
		return nil, err
	}

	commitHash := req.CommitHash
	if commitHash == "" {
		// Changes arriving without a commit reference get a capture
		// commit so the ledger's commit foreign key always resolves.
		commit, err := s.commits.CreateCommit(ctx, primary.CreateCommitRequest{
			BranchName: branch.Name,
			Message:    fmt.Sprintf("capture: %s %s.%s", changeType, req.SchemaName, req.ObjectName),
			Author:     author,
		})
		if err != nil {
			return nil, err
		}
		commitHash = commit.Hash
	}

	entry := &secondary.HistoryRecord{
		ObjectID:         object.ID,
		BranchID:         branch.ID,
		ChangeType:       string(changeType),
		ChangeSeverity:   string(severity),
		BeforeHash:       beforeHash,
		AfterHash:        afterHash,
		BeforeDefinition: req.BeforeDefinition,
		AfterDefinition:  req.AfterDefinition,
		CommitHash:       commitHash,
		Author:           author,
	}
	update := secondary.ObjectUpdate{
		CurrentDefinition: req.AfterDefinition,
		ContentHash:       afterHash,
		Version:           version,
		IsActive:          changeType != change.TypeDrop,
	}

	if _, err := s.historyRepo.Append(ctx, entry, update); err != nil {
		if errors.Is(err, secondary.ErrStaleWrite) {
			return nil, primary.Errorf(primary.CodeStaleWrite,
				"object %s.%s changed on branch %s since it was read", req.SchemaName, req.ObjectName, branch.Name)
		}
		return nil, fmt.Errorf("failed to append history entry: %w", err)
	}

	latest, err := s.historyRepo.LatestEntry(ctx, object.ID, branch.ID)
	if err != nil {
		return nil, err
	}
	return recordToHistoryEntry(latest), nil
}

// bumpVersion derives the object's next semantic version. A CREATE of an
// object never recorded before starts at the initial version instead of
// bumping it.
func (s *ObjectServiceImpl) bumpVersion(object *secondary.ObjectRecord, changeType change.Type, severity change.Severity) (string, error) {
	if changeType == change.TypeCreate && object.ContentHash == "" {
		return semver.Initial.String(), nil
	}

	current, err := semver.Parse(object.Version)
	if err != nil {
		return "", fmt.Errorf("object %d carries malformed version %q: %w", object.ID, object.Version, err)
	}
	return current.Bump(severity).String(), nil
}

// GetObjectState returns the current state of an object on a branch. Only
// the branch's own ledger is consulted; parent-branch state counts as
// absent here.
func (s *ObjectServiceImpl) GetObjectState(ctx context.Context, objectID int64, branchName string) (*primary.ObjectState, error) {
	branch, err := s.branchRepo.GetByName(ctx, branchName)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.Errorf(primary.CodeBranchNotFound, "branch %s does not exist", branchName)
	}
	if err != nil {
		return nil, err
	}

	latest, err := s.historyRepo.LatestEntry(ctx, objectID, branch.ID)
	if errors.Is(err, secondary.ErrNotFound) {
		return &primary.ObjectState{}, nil
	}
	if err != nil {
		return nil, err
	}

	if latest.ChangeType == string(change.TypeDrop) {
		return &primary.ObjectState{}, nil
	}
	return &primary.ObjectState{
		Present:    true,
		Hash:       latest.AfterHash,
		Definition: latest.AfterDefinition,
	}, nil
}

// GetObjectHistory returns ledger entries for an object on a branch,
// newest first.
func (s *ObjectServiceImpl) GetObjectHistory(ctx context.Context, objectID int64, branchName string, limit int) ([]*primary.HistoryEntry, error) {
	branch, err := s.branchRepo.GetByName(ctx, branchName)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.Errorf(primary.CodeBranchNotFound, "branch %s does not exist", branchName)
	}
	if err != nil {
		return nil, err
	}

	records, err := s.historyRepo.ListByObjectBranch(ctx, objectID, branch.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	entries := make([]*primary.HistoryEntry, len(records))
	for i, r := range records {
		entries[i] = recordToHistoryEntry(r)
	}
	return entries, nil
}

// GetBranchObjects lists the objects present on a branch.
func (s *ObjectServiceImpl) GetBranchObjects(ctx context.Context, branchName string, filters primary.BranchObjectFilters) ([]*primary.ObjectSummary, error) {
	branch, err := s.branchRepo.GetByName(ctx, branchName)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.Errorf(primary.CodeBranchNotFound, "branch %s does not exist", branchName)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.historyRepo.BranchObjects(ctx, branch.ID, secondary.BranchObjectFilters{
		ObjectType: string(filters.ObjectType),
		SchemaName: filters.SchemaName,
		OrderBy:    filters.OrderBy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list branch objects: %w", err)
	}

	summaries := make([]*primary.ObjectSummary, len(rows))
	for i, r := range rows {
		summaries[i] = &primary.ObjectSummary{
			ObjectID:   r.ObjectID,
			ObjectType: primary.ObjectType(r.ObjectType),
			SchemaName: r.SchemaName,
			ObjectName: r.ObjectName,
			Hash:       r.AfterHash,
			Version:    r.Version,
		}
	}
	return summaries, nil
}

// AddDependency records a branch-scoped edge between two objects. Adding
// an edge that already exists is a no-op.
func (s *ObjectServiceImpl) AddDependency(ctx context.Context, req primary.AddDependencyRequest) error {
	branch, err := s.branchRepo.GetByName(ctx, req.BranchName)
	if errors.Is(err, secondary.ErrNotFound) {
		return primary.Errorf(primary.CodeBranchNotFound, "branch %s does not exist", req.BranchName)
	}
	if err != nil {
		return err
	}

	if _, err := s.objectRepo.GetByID(ctx, req.DependentID); errors.Is(err, secondary.ErrNotFound) {
		return primary.Errorf(primary.CodeObjectNotFound, "object %d does not exist", req.DependentID)
	}
	if _, err := s.objectRepo.GetByID(ctx, req.DependencyID); errors.Is(err, secondary.ErrNotFound) {
		return primary.Errorf(primary.CodeObjectNotFound, "object %d does not exist", req.DependencyID)
	}

	err = s.depRepo.Add(ctx, &secondary.DependencyRecord{
		BranchID:       branch.ID,
		DependentID:    req.DependentID,
		DependencyID:   req.DependencyID,
		DependencyType: req.DependencyType,
	})
	if errors.Is(err, secondary.ErrDuplicate) {
		return nil
	}
	return err
}

// GetDependents returns objects that depend on the given object on a branch.
func (s *ObjectServiceImpl) GetDependents(ctx context.Context, objectID int64, branchName string) ([]*primary.ObjectSummary, error) {
	branch, err := s.branchRepo.GetByName(ctx, branchName)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.Errorf(primary.CodeBranchNotFound, "branch %s does not exist", branchName)
	}
	if err != nil {
		return nil, err
	}

	records, err := s.depRepo.ListDependents(ctx, objectID, branch.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependents: %w", err)
	}

	summaries := make([]*primary.ObjectSummary, len(records))
	for i, r := range records {
		summaries[i] = &primary.ObjectSummary{
			ObjectID:   r.ID,
			ObjectType: primary.ObjectType(r.ObjectType),
			SchemaName: r.SchemaName,
			ObjectName: r.ObjectName,
			Hash:       r.ContentHash,
			Version:    r.Version,
		}
	}
	return summaries, nil
}

func recordToObject(record *secondary.ObjectRecord) *primary.SchemaObject {
	return &primary.SchemaObject{
		ID:                record.ID,
		ObjectType:        primary.ObjectType(record.ObjectType),
		SchemaName:        record.SchemaName,
		ObjectName:        record.ObjectName,
		CurrentDefinition: record.CurrentDefinition,
		ContentHash:       record.ContentHash,
		Version:           record.Version,
		IsActive:          record.IsActive,
	}
}

func recordToHistoryEntry(record *secondary.HistoryRecord) *primary.HistoryEntry {
	return &primary.HistoryEntry{
		ID:               record.ID,
		ObjectID:         record.ObjectID,
		BranchID:         record.BranchID,
		ChangeType:       record.ChangeType,
		ChangeSeverity:   record.ChangeSeverity,
		BeforeHash:       record.BeforeHash,
		AfterHash:        record.AfterHash,
		BeforeDefinition: record.BeforeDefinition,
		AfterDefinition:  record.AfterDefinition,
		CommitHash:       record.CommitHash,
		Author:           record.Author,
		Timestamp:        record.Timestamp,
	}
}

// Ensure ObjectServiceImpl implements the interface
var _ primary.ObjectService = (*ObjectServiceImpl)(nil)
