package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evoludigit/pgGit-sub001/internal/core/change"
	"github.com/evoludigit/pgGit-sub001/internal/core/commitid"
	"github.com/evoludigit/pgGit-sub001/internal/core/definition"
	mergecore "github.com/evoludigit/pgGit-sub001/internal/core/merge"
	"github.com/evoludigit/pgGit-sub001/internal/core/semver"
	"github.com/evoludigit/pgGit-sub001/internal/ctxutil"
	"github.com/evoludigit/pgGit-sub001/internal/ports/primary"
	"github.com/evoludigit/pgGit-sub001/internal/ports/secondary"
)

// MergeServiceImpl implements the MergeService interface. The three-way
// classification itself lives in core/merge; this service feeds it branch
// states and persists its verdicts.
type MergeServiceImpl struct {
	branchRepo  secondary.BranchRepository
	commitRepo  secondary.CommitRepository
	objectRepo  secondary.ObjectRepository
	historyRepo secondary.HistoryRepository
	mergeRepo   secondary.MergeRepository
	depRepo     secondary.DependencyRepository
	branches    primary.BranchService
}

// NewMergeService creates a new MergeService with injected dependencies.
func NewMergeService(
	branchRepo secondary.BranchRepository,
	commitRepo secondary.CommitRepository,
	objectRepo secondary.ObjectRepository,
	historyRepo secondary.HistoryRepository,
	mergeRepo secondary.MergeRepository,
	depRepo secondary.DependencyRepository,
	branches primary.BranchService,
) *MergeServiceImpl {
	return &MergeServiceImpl{
		branchRepo:  branchRepo,
		commitRepo:  commitRepo,
		objectRepo:  objectRepo,
		historyRepo: historyRepo,
		mergeRepo:   mergeRepo,
		depRepo:     depRepo,
		branches:    branches,
	}
}

// diffEntry pairs one object's classification with the states that
// produced it.
type diffEntry struct {
	object *secondary.ObjectRecord
	base   mergecore.ObjectState
	source mergecore.ObjectState
	target mergecore.ObjectState
	result mergecore.Result
}

// mergeBranches bundles the three resolved branch records of a diff.
type mergeBranches struct {
	source *secondary.BranchRecord
	target *secondary.BranchRecord
	base   *secondary.BranchRecord

	// explicitBase is set when the caller named the base branch, in
	// which case its current state is the base. Otherwise the base is
	// evaluated as of the nearest common ancestor commit of the two
	// heads, since the ancestor branch itself keeps moving after forks.
	explicitBase bool
}

// DetectConflicts runs the three-way diff without mutating anything.
func (s *MergeServiceImpl) DetectConflicts(ctx context.Context, req primary.DetectConflictsRequest) (*primary.DiffResult, error) {
	branches, err := s.resolveBranches(ctx, req.Source, req.Target, req.Base)
	if err != nil {
		return nil, err
	}

	entries, err := s.diff(ctx, branches)
	if err != nil {
		return nil, err
	}

	return s.buildDiffResult(ctx, branches, entries)
}

// DiffBranches is the two-branch consumer diff with the default merge base.
func (s *MergeServiceImpl) DiffBranches(ctx context.Context, source, target string) (*primary.DiffResult, error) {
	return s.DetectConflicts(ctx, primary.DetectConflictsRequest{Source: source, Target: target})
}

// MergeBranches runs the diff and applies the chosen strategy.
func (s *MergeServiceImpl) MergeBranches(ctx context.Context, req primary.MergeRequest) (*primary.MergeOperation, error) {
	strategy := req.Strategy
	if strategy == "" {
		strategy = primary.StrategyAbortOnConflict
	}
	switch strategy {
	case primary.StrategyAbortOnConflict, primary.StrategyManualReview,
		primary.StrategyPreferSource, primary.StrategyPreferTarget:
	default:
		return nil, fmt.Errorf("unknown merge strategy %q", strategy)
	}

	branches, err := s.resolveBranches(ctx, req.Source, req.Target, req.Base)
	if err != nil {
		return nil, err
	}

	if guard := mergecore.CanSourceMerge(mergecore.BranchStateContext{
		BranchName: branches.source.Name, Status: branches.source.Status,
	}); !guard.Allowed {
		return nil, primary.Errorf(primary.CodeBranchNotWritable, "%s", guard.Reason)
	}
	if guard := mergecore.CanTargetMerge(mergecore.BranchStateContext{
		BranchName: branches.target.Name, Status: branches.target.Status,
	}); !guard.Allowed {
		return nil, primary.Errorf(primary.CodeTargetBranchBusy, "%s", guard.Reason)
	}

	entries, err := s.diff(ctx, branches)
	if err != nil {
		return nil, err
	}

	conflicts := conflictEntries(entries)
	mergeID := uuid.New().String()

	// ABORT_ON_CONFLICT with conflicts mutates nothing beyond the audit
	// record; branch state and ledgers stay untouched.
	if len(conflicts) > 0 && strategy == primary.StrategyAbortOnConflict {
		op := &secondary.MergeOperationRecord{
			ID:             mergeID,
			SourceBranchID: branches.source.ID,
			TargetBranchID: branches.target.ID,
			BaseBranchID:   branches.base.ID,
			Message:        req.Message,
			Strategy:       strategy,
		}
		if err := s.mergeRepo.RecordAborted(ctx, op); err != nil {
			return nil, err
		}
		return nil, primary.Errorf(primary.CodeMergeHasConflicts,
			"merge of %s into %s has %d conflicts", branches.source.Name, branches.target.Name, len(conflicts))
	}

	author := ctxutil.AuthorFromContext(ctx)
	message := req.Message
	if message == "" {
		message = fmt.Sprintf("Merge branch '%s' into '%s'", branches.source.Name, branches.target.Name)
	}

	applied, err := s.applyEntries(ctx, entries, branches.target, strategy)
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("%d objects changed, %d conflicts", len(applied), len(conflicts))
	mergeCommitHash := commitid.Hash(branches.target.ID, branches.target.HeadCommitHash, message, summary, time.Now())

	status := primary.MergeStatusCompleted
	targetStatus := primary.BranchStatusActive
	var conflictRecords []*secondary.ConflictRecord
	if strategy == primary.StrategyManualReview && len(conflicts) > 0 {
		status = primary.MergeStatusConflicted
		targetStatus = primary.BranchStatusMerging
		conflictRecords, err = s.freezeConflicts(ctx, mergeID, conflicts, branches.target.ID)
		if err != nil {
			return nil, err
		}
	}

	mergeCommit := &secondary.CommitRecord{
		Hash:             mergeCommitHash,
		BranchID:         branches.target.ID,
		ParentCommitHash: branches.target.HeadCommitHash,
		Author:           author,
		Message:          message,
		ChangeSummary:    summary,
	}
	for i := range applied {
		applied[i].Entry.CommitHash = mergeCommitHash
		applied[i].Entry.Author = author
	}

	req2 := secondary.ApplyMergeRequest{
		Op: &secondary.MergeOperationRecord{
			ID:              mergeID,
			SourceBranchID:  branches.source.ID,
			TargetBranchID:  branches.target.ID,
			BaseBranchID:    branches.base.ID,
			Message:         req.Message,
			Strategy:        strategy,
			Status:          status,
			MergeCommitHash: mergeCommitHash,
		},
		MergeCommit:  mergeCommit,
		Entries:      applied,
		Conflicts:    conflictRecords,
		TargetID:     branches.target.ID,
		TargetStatus: targetStatus,
	}
	if err := s.mergeRepo.ApplyMerge(ctx, req2); err != nil {
		if errors.Is(err, secondary.ErrStaleWrite) {
			return nil, primary.Errorf(primary.CodeStaleWrite,
				"branch %s changed while the merge was being computed; re-run the merge", branches.target.Name)
		}
		return nil, err
	}

	return s.GetMergeOperation(ctx, mergeID)
}

// ResolveConflict applies one resolution to one conflict of an open merge.
// The resolution itself is validated before any lookup so that a malformed
// request fails the same way whether or not the merge exists.
func (s *MergeServiceImpl) ResolveConflict(ctx context.Context, req primary.ResolveConflictRequest) (*primary.MergeOperation, error) {
	switch req.Resolution {
	case primary.ResolutionSource, primary.ResolutionTarget:
	case primary.ResolutionCustom:
		if req.CustomDefinition == "" {
			return nil, primary.Errorf(primary.CodeCustomRequiresDefinition,
				"CUSTOM resolution requires a definition")
		}
	default:
		return nil, primary.Errorf(primary.CodeInvalidResolutionType,
			"resolution %q is not one of SOURCE, TARGET, CUSTOM", req.Resolution)
	}

	op, err := s.mergeRepo.GetByID(ctx, req.MergeID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.Errorf(primary.CodeMergeNotFound, "merge %s does not exist", req.MergeID)
	}
	if err != nil {
		return nil, err
	}
	if op.Status != primary.MergeStatusConflicted {
		return nil, primary.Errorf(primary.CodeMergeNotInConflictState,
			"merge %s is %s, not CONFLICTED", req.MergeID, op.Status)
	}

	conflict, err := s.mergeRepo.GetConflict(ctx, req.MergeID, req.ConflictSeq)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.Errorf(primary.CodeConflictNotFound,
			"merge %s has no conflict %d", req.MergeID, req.ConflictSeq)
	}
	if err != nil {
		return nil, err
	}
	if conflict.Resolution != primary.ResolutionDeferred {
		return nil, primary.Errorf(primary.CodeConflictNotFound,
			"conflict %d of merge %s is already resolved", req.ConflictSeq, req.MergeID)
	}

	entry, update, err := s.resolutionEntry(ctx, op, conflict, req.Resolution, req.CustomDefinition)
	if err != nil {
		return nil, err
	}

	_, err = s.mergeRepo.ResolveConflict(ctx, secondary.ResolveConflictRequest{
		MergeID:        req.MergeID,
		ConflictSeq:    req.ConflictSeq,
		Resolution:     req.Resolution,
		TargetBranchID: op.TargetBranchID,
		Entry:          entry,
		Object:         update,
	})
	if err != nil {
		if errors.Is(err, secondary.ErrStaleWrite) {
			return nil, primary.Errorf(primary.CodeStaleWrite,
				"the target branch moved under conflict %d; abort and re-run the merge", req.ConflictSeq)
		}
		if errors.Is(err, secondary.ErrNotFound) {
			return nil, primary.Errorf(primary.CodeConflictNotFound,
				"conflict %d of merge %s is already resolved", req.ConflictSeq, req.MergeID)
		}
		return nil, err
	}

	return s.GetMergeOperation(ctx, req.MergeID)
}

// resolutionEntry builds the ledger append for one conflict resolution.
// TARGET keeps the target's state, so it returns a nil entry. The frozen
// conflict payloads are the only inputs; live branch state is not re-read.
func (s *MergeServiceImpl) resolutionEntry(ctx context.Context, op *secondary.MergeOperationRecord, conflict *secondary.ConflictRecord, resolution, customDef string) (*secondary.HistoryRecord, secondary.ObjectUpdate, error) {
	if resolution == primary.ResolutionTarget {
		return nil, secondary.ObjectUpdate{}, nil
	}

	afterDef := conflict.SourceDefinition
	afterHash := conflict.SourceHash
	if resolution == primary.ResolutionCustom {
		afterDef = customDef
		afterHash = definition.HashDefault(customDef)
	}

	var changeType change.Type
	switch {
	case afterHash == "":
		// SOURCE side of a delete-modify conflict: the resolution is the
		// deletion itself.
		changeType = change.TypeDrop
	case conflict.TargetHash == "":
		changeType = change.TypeCreate
	default:
		changeType = change.TypeAlter
	}

	object, err := s.objectRepo.GetByID(ctx, conflict.ObjectID)
	if err != nil {
		return nil, secondary.ObjectUpdate{}, err
	}

	severity := change.SeverityOf(changeType, conflict.TargetDefinition, afterDef)
	version, err := semver.Parse(object.Version)
	if err != nil {
		return nil, secondary.ObjectUpdate{}, fmt.Errorf("object %d carries malformed version %q: %w", object.ID, object.Version, err)
	}

	entry := &secondary.HistoryRecord{
		ObjectID:         conflict.ObjectID,
		BranchID:         op.TargetBranchID,
		ChangeType:       string(changeType),
		ChangeSeverity:   string(severity),
		BeforeHash:       conflict.TargetHash,
		AfterHash:        afterHash,
		BeforeDefinition: conflict.TargetDefinition,
		AfterDefinition:  afterDef,
		CommitHash:       op.MergeCommitHash,
		Author:           ctxutil.AuthorFromContext(ctx),
	}
	update := secondary.ObjectUpdate{
		CurrentDefinition: afterDef,
		ContentHash:       afterHash,
		Version:           version.Bump(severity).String(),
		IsActive:          changeType != change.TypeDrop,
	}
	return entry, update, nil
}

// AbortMerge releases the target branch of a CONFLICTED merge.
func (s *MergeServiceImpl) AbortMerge(ctx context.Context, mergeID string) error {
	op, err := s.mergeRepo.GetByID(ctx, mergeID)
	if errors.Is(err, secondary.ErrNotFound) {
		return primary.Errorf(primary.CodeMergeNotFound, "merge %s does not exist", mergeID)
	}
	if err != nil {
		return err
	}
	if op.Status != primary.MergeStatusConflicted {
		return primary.Errorf(primary.CodeMergeNotInConflictState,
			"merge %s is %s, not CONFLICTED", mergeID, op.Status)
	}

	return s.mergeRepo.Abort(ctx, mergeID, op.TargetBranchID)
}

// GetMergeOperation retrieves a merge operation with its conflicts.
func (s *MergeServiceImpl) GetMergeOperation(ctx context.Context, mergeID string) (*primary.MergeOperation, error) {
	op, err := s.mergeRepo.GetByID(ctx, mergeID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.Errorf(primary.CodeMergeNotFound, "merge %s does not exist", mergeID)
	}
	if err != nil {
		return nil, err
	}

	result := &primary.MergeOperation{
		ID:              op.ID,
		Message:         op.Message,
		Strategy:        op.Strategy,
		Status:          op.Status,
		MergeCommitHash: op.MergeCommitHash,
		CreatedAt:       op.CreatedAt,
		CompletedAt:     op.CompletedAt,
	}
	result.SourceBranch = s.branchName(ctx, op.SourceBranchID)
	result.TargetBranch = s.branchName(ctx, op.TargetBranchID)
	result.BaseBranch = s.branchName(ctx, op.BaseBranchID)

	conflicts, err := s.mergeRepo.ListConflicts(ctx, mergeID)
	if err != nil {
		return nil, err
	}
	for _, c := range conflicts {
		conflict := &primary.Conflict{
			MergeID:          c.MergeID,
			ConflictSeq:      c.ConflictSeq,
			ObjectID:         c.ObjectID,
			ConflictKind:     c.ConflictKind,
			BaseHash:         c.BaseHash,
			SourceHash:       c.SourceHash,
			TargetHash:       c.TargetHash,
			SourceDefinition: c.SourceDefinition,
			TargetDefinition: c.TargetDefinition,
			Resolution:       c.Resolution,
			CustomDefinition: c.CustomDefinition,
			DependentCount:   c.DependentCount,
			ResolvedAt:       c.ResolvedAt,
		}
		if object, err := s.objectRepo.GetByID(ctx, c.ObjectID); err == nil {
			conflict.ObjectType = primary.ObjectType(object.ObjectType)
			conflict.SchemaName = object.SchemaName
			conflict.ObjectName = object.ObjectName
		}
		result.Conflicts = append(result.Conflicts, conflict)
	}

	return result, nil
}

// resolveBranches resolves source, target, and merge base by name with
// per-role error codes.
func (s *MergeServiceImpl) resolveBranches(ctx context.Context, sourceName, targetName, baseName string) (mergeBranches, error) {
	if sourceName == targetName {
		return mergeBranches{}, primary.Errorf(primary.CodeCannotMergeWithItself,
			"cannot merge branch %s with itself", sourceName)
	}

	source, err := s.branchRepo.GetByName(ctx, sourceName)
	if errors.Is(err, secondary.ErrNotFound) {
		return mergeBranches{}, primary.Errorf(primary.CodeSourceBranchNotFound, "source branch %s does not exist", sourceName)
	}
	if err != nil {
		return mergeBranches{}, err
	}

	target, err := s.branchRepo.GetByName(ctx, targetName)
	if errors.Is(err, secondary.ErrNotFound) {
		return mergeBranches{}, primary.Errorf(primary.CodeTargetBranchNotFound, "target branch %s does not exist", targetName)
	}
	if err != nil {
		return mergeBranches{}, err
	}

	var base *secondary.BranchRecord
	explicitBase := false
	if baseName != "" {
		explicitBase = true
		base, err = s.branchRepo.GetByName(ctx, baseName)
		if errors.Is(err, secondary.ErrNotFound) {
			return mergeBranches{}, primary.Errorf(primary.CodeBranchNotFound, "base branch %s does not exist", baseName)
		}
		if err != nil {
			return mergeBranches{}, err
		}
	} else {
		ancestor, err := s.branches.FindCommonAncestor(ctx, sourceName, targetName)
		if err != nil {
			return mergeBranches{}, err
		}
		base, err = s.branchRepo.GetByID(ctx, ancestor.ID)
		if err != nil {
			return mergeBranches{}, err
		}
	}

	return mergeBranches{source: source, target: target, base: base, explicitBase: explicitBase}, nil
}

// diff classifies every object touched by either branch's own ledger.
// Each of the three states is evaluated as of a commit history: the
// source and target as of their heads, the base as of the shared part of
// those histories. Evaluating the base branch's live state instead would
// make a child merging into its parent conflict-free by construction.
func (s *MergeServiceImpl) diff(ctx context.Context, branches mergeBranches) ([]diffEntry, error) {
	touched, err := s.historyRepo.TouchedObjectIDs(ctx, []string{branches.source.ID, branches.target.ID})
	if err != nil {
		return nil, err
	}

	sourceCommits, err := s.commitAncestry(ctx, branches.source.HeadCommitHash)
	if err != nil {
		return nil, err
	}
	targetCommits, err := s.commitAncestry(ctx, branches.target.HeadCommitHash)
	if err != nil {
		return nil, err
	}
	baseCommits := sharedSuffix(sourceCommits, targetCommits)

	var parents map[string]string
	if branches.explicitBase {
		parents, err = s.branchRepo.ParentMap(ctx)
		if err != nil {
			return nil, err
		}
	}

	var entries []diffEntry
	for _, objectID := range touched {
		var base mergecore.ObjectState
		if branches.explicitBase {
			base, err = s.effectiveState(ctx, objectID, branches.base.ID, parents)
		} else {
			base, err = s.commitState(ctx, objectID, baseCommits)
		}
		if err != nil {
			return nil, err
		}
		source, err := s.commitState(ctx, objectID, sourceCommits)
		if err != nil {
			return nil, err
		}
		target, err := s.commitState(ctx, objectID, targetCommits)
		if err != nil {
			return nil, err
		}

		result := mergecore.Classify(base, source, target)
		if result.Kind == mergecore.KindUnchanged {
			continue
		}

		object, err := s.objectRepo.GetByID(ctx, objectID)
		if err != nil {
			return nil, err
		}

		entries = append(entries, diffEntry{
			object: object,
			base:   base,
			source: source,
			target: target,
			result: result,
		})
	}

	return entries, nil
}

// commitAncestry returns the hash chain from head back to the root,
// following parent links across branch boundaries.
func (s *MergeServiceImpl) commitAncestry(ctx context.Context, head string) ([]string, error) {
	var chain []string
	seen := make(map[string]bool)
	for hash := head; hash != "" && !seen[hash]; {
		seen[hash] = true
		commit, err := s.commitRepo.GetByHash(ctx, hash)
		if errors.Is(err, secondary.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		chain = append(chain, hash)
		hash = commit.ParentCommitHash
	}
	return chain, nil
}

// sharedSuffix returns the commit history two chains share: the nearest
// common ancestor commit and everything behind it. An empty result means
// the heads share no history.
func sharedSuffix(sourceChain, targetChain []string) []string {
	inSource := make(map[string]bool, len(sourceChain))
	for _, hash := range sourceChain {
		inSource[hash] = true
	}
	for i, hash := range targetChain {
		if inSource[hash] {
			return targetChain[i:]
		}
	}
	return nil
}

// commitState reconstructs an object's state as of a commit history: the
// latest ledger entry recorded under any of the given commits.
func (s *MergeServiceImpl) commitState(ctx context.Context, objectID int64, commits []string) (mergecore.ObjectState, error) {
	if len(commits) == 0 {
		return mergecore.Absent, nil
	}

	latest, err := s.historyRepo.LatestEntryByCommits(ctx, objectID, commits)
	if errors.Is(err, secondary.ErrNotFound) {
		return mergecore.Absent, nil
	}
	if err != nil {
		return mergecore.Absent, err
	}

	if latest.ChangeType == string(change.TypeDrop) {
		return mergecore.Absent, nil
	}
	return mergecore.State(latest.AfterHash, latest.AfterDefinition), nil
}

// effectiveState resolves an object's state on a branch with inheritance:
// the branch's own latest entry wins; absent that, the walk continues up
// the parent chain. A DROP anywhere stops the walk as absent.
func (s *MergeServiceImpl) effectiveState(ctx context.Context, objectID int64, branchID string, parents map[string]string) (mergecore.ObjectState, error) {
	seen := make(map[string]bool)
	for id := branchID; id != "" && !seen[id]; id = parents[id] {
		seen[id] = true

		latest, err := s.historyRepo.LatestEntry(ctx, objectID, id)
		if errors.Is(err, secondary.ErrNotFound) {
			continue
		}
		if err != nil {
			return mergecore.Absent, err
		}

		if latest.ChangeType == string(change.TypeDrop) {
			return mergecore.Absent, nil
		}
		return mergecore.State(latest.AfterHash, latest.AfterDefinition), nil
	}
	return mergecore.Absent, nil
}

func (s *MergeServiceImpl) buildDiffResult(ctx context.Context, branches mergeBranches, entries []diffEntry) (*primary.DiffResult, error) {
	result := &primary.DiffResult{
		Source: branches.source.Name,
		Target: branches.target.Name,
		Base:   branches.base.Name,
	}

	for _, e := range entries {
		row := &primary.DiffRow{
			ObjectID:       e.object.ID,
			ObjectType:     primary.ObjectType(e.object.ObjectType),
			SchemaName:     e.object.SchemaName,
			ObjectName:     e.object.ObjectName,
			Classification: string(e.result.Kind),
			ConflictKind:   string(e.result.ConflictKind),
			IsConflict:     e.result.Conflict,
			BaseHash:       e.base.Hash,
			SourceHash:     e.source.Hash,
			TargetHash:     e.target.Hash,
		}
		if e.result.Conflict {
			count, err := s.depRepo.CountDependents(ctx, e.object.ID, branches.target.ID)
			if err != nil {
				return nil, err
			}
			row.DependentCount = count
			result.Conflicts++
		}
		result.Rows = append(result.Rows, row)
	}

	result.HasChanges = len(result.Rows) > 0
	return result, nil
}

// applyEntries turns classifications into ledger appends per the strategy.
// PREFER_SOURCE converts conflicts into source-state appends;
// PREFER_TARGET drops them; the other strategies only apply clean rows.
func (s *MergeServiceImpl) applyEntries(ctx context.Context, entries []diffEntry, target *secondary.BranchRecord, strategy string) ([]secondary.MergeEntry, error) {
	var applied []secondary.MergeEntry
	for _, e := range entries {
		changeType := e.result.ChangeType
		def := e.result.Definition
		apply := e.result.Apply

		if e.result.Conflict {
			switch strategy {
			case primary.StrategyPreferSource:
				apply = true
				if !e.source.Present {
					changeType = change.TypeDrop
					def = ""
				} else if !e.target.Present {
					changeType = change.TypeCreate
					def = e.source.Definition
				} else {
					changeType = change.TypeAlter
					def = e.source.Definition
				}
			default:
				// PREFER_TARGET keeps the target's state; MANUAL_REVIEW
				// freezes the conflict for later resolution.
				apply = false
			}
		}
		if !apply {
			continue
		}

		entry, update, err := s.buildMergeEntry(e.object, e.target, target.ID, changeType, def)
		if err != nil {
			return nil, err
		}
		applied = append(applied, secondary.MergeEntry{Entry: entry, Object: update})
	}
	return applied, nil
}

// buildMergeEntry derives the ledger row for one applied object. The
// before side is the target's effective state so the CAS precondition
// catches a target that moved since the diff.
func (s *MergeServiceImpl) buildMergeEntry(object *secondary.ObjectRecord, targetState mergecore.ObjectState, targetID string, changeType change.Type, def string) (*secondary.HistoryRecord, secondary.ObjectUpdate, error) {
	var afterHash string
	if changeType != change.TypeDrop {
		afterHash = definition.HashDefault(def)
	}

	severity := change.SeverityOf(changeType, targetState.Definition, def)
	version, err := semver.Parse(object.Version)
	if err != nil {
		return nil, secondary.ObjectUpdate{}, fmt.Errorf("object %d carries malformed version %q: %w", object.ID, object.Version, err)
	}

	entry := &secondary.HistoryRecord{
		ObjectID:         object.ID,
		BranchID:         targetID,
		ChangeType:       string(changeType),
		ChangeSeverity:   string(severity),
		BeforeHash:       targetState.Hash,
		AfterHash:        afterHash,
		BeforeDefinition: targetState.Definition,
		AfterDefinition:  def,
	}
	update := secondary.ObjectUpdate{
		CurrentDefinition: def,
		ContentHash:       afterHash,
		Version:           version.Bump(severity).String(),
		IsActive:          changeType != change.TypeDrop,
	}
	return entry, update, nil
}

// freezeConflicts snapshots each conflict's source and target payloads so
// resolution works against stable data even while branches keep moving.
func (s *MergeServiceImpl) freezeConflicts(ctx context.Context, mergeID string, conflicts []diffEntry, targetID string) ([]*secondary.ConflictRecord, error) {
	records := make([]*secondary.ConflictRecord, 0, len(conflicts))
	for i, e := range conflicts {
		count, err := s.depRepo.CountDependents(ctx, e.object.ID, targetID)
		if err != nil {
			return nil, err
		}
		records = append(records, &secondary.ConflictRecord{
			MergeID:          mergeID,
			ConflictSeq:      i + 1,
			ObjectID:         e.object.ID,
			ConflictKind:     string(e.result.ConflictKind),
			BaseHash:         e.base.Hash,
			SourceHash:       e.source.Hash,
			TargetHash:       e.target.Hash,
			SourceDefinition: e.source.Definition,
			TargetDefinition: e.target.Definition,
			Resolution:       primary.ResolutionDeferred,
			DependentCount:   count,
		})
	}
	return records, nil
}

func conflictEntries(entries []diffEntry) []diffEntry {
	var conflicts []diffEntry
	for _, e := range entries {
		if e.result.Conflict {
			conflicts = append(conflicts, e)
		}
	}
	return conflicts
}

func (s *MergeServiceImpl) branchName(ctx context.Context, id string) string {
	if branch, err := s.branchRepo.GetByID(ctx, id); err == nil {
		return branch.Name
	}
	return id
}

// Ensure MergeServiceImpl implements the interface
var _ primary.MergeService = (*MergeServiceImpl)(nil)
