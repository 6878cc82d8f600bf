package primary

import "context"

// Merge strategies.
const (
	StrategyAbortOnConflict = "ABORT_ON_CONFLICT"
	StrategyManualReview    = "MANUAL_REVIEW"
	StrategyPreferSource    = "PREFER_SOURCE"
	StrategyPreferTarget    = "PREFER_TARGET"
)

// Merge operation status values.
const (
	MergeStatusPending    = "PENDING"
	MergeStatusConflicted = "CONFLICTED"
	MergeStatusCompleted  = "COMPLETED"
	MergeStatusAborted    = "ABORTED"
)

// Conflict resolution choices.
const (
	ResolutionSource   = "SOURCE"
	ResolutionTarget   = "TARGET"
	ResolutionCustom   = "CUSTOM"
	ResolutionDeferred = "DEFERRED"
)

// MergeService defines the primary port for the merge engine and the
// conflict resolver.
type MergeService interface {
	// DetectConflicts runs the three-way diff without mutating anything.
	// Run twice with no intervening writes it returns identical results.
	DetectConflicts(ctx context.Context, req DetectConflictsRequest) (*DiffResult, error)

	// DiffBranches is the two-branch consumer diff: source vs target with
	// the default merge base.
	DiffBranches(ctx context.Context, source, target string) (*DiffResult, error)

	// MergeBranches runs the diff and applies the chosen strategy. With
	// ABORT_ON_CONFLICT and at least one conflict it fails with
	// MERGE_HAS_CONFLICTS and mutates nothing beyond an ABORTED audit
	// record.
	MergeBranches(ctx context.Context, req MergeRequest) (*MergeOperation, error)

	// ResolveConflict applies one resolution to one conflict of an open
	// merge. Resolving the last conflict completes the merge.
	ResolveConflict(ctx context.Context, req ResolveConflictRequest) (*MergeOperation, error)

	// AbortMerge releases the target branch of a CONFLICTED merge without
	// applying the unresolved conflicts.
	AbortMerge(ctx context.Context, mergeID string) error

	// GetMergeOperation retrieves a merge operation with its conflicts.
	GetMergeOperation(ctx context.Context, mergeID string) (*MergeOperation, error)
}

// DetectConflictsRequest names the branches to diff. Base is optional and
// defaults to the nearest common ancestor branch.
type DetectConflictsRequest struct {
	Source string
	Target string
	Base   string
}

// MergeRequest contains parameters for merge_branches.
type MergeRequest struct {
	Source   string
	Target   string
	Message  string
	Strategy string
	Base     string // optional explicit merge base branch
}

// ResolveConflictRequest contains parameters for resolve_conflict.
type ResolveConflictRequest struct {
	MergeID          string
	ConflictSeq      int
	Resolution       string // SOURCE, TARGET, or CUSTOM
	CustomDefinition string // required when Resolution is CUSTOM
}

// DiffResult is the outcome of a three-way diff.
type DiffResult struct {
	Source     string
	Target     string
	Base       string
	Rows       []*DiffRow
	Conflicts  int
	HasChanges bool
}

// DiffRow is one non-trivial object classification.
type DiffRow struct {
	ObjectID   int64
	ObjectType ObjectType
	SchemaName string
	ObjectName string

	Classification string // ADDED, MODIFIED, REMOVED, CONFLICT
	ConflictKind   string // edit-edit, delete-modify, modify-delete, add-add
	IsConflict     bool

	BaseHash   string
	SourceHash string
	TargetHash string

	// DependentCount annotates conflict severity: a conflicted object
	// with dependents is riskier to resolve.
	DependentCount int
}

// MergeOperation represents a merge operation at the port boundary.
type MergeOperation struct {
	ID              string
	SourceBranch    string
	TargetBranch    string
	BaseBranch      string
	Message         string
	Strategy        string
	Status          string
	MergeCommitHash string
	CreatedAt       string
	CompletedAt     string
	Conflicts       []*Conflict
}

// Conflict represents one conflicting object under a merge operation.
type Conflict struct {
	MergeID          string
	ConflictSeq      int
	ObjectID         int64
	ObjectType       ObjectType
	SchemaName       string
	ObjectName       string
	ConflictKind     string
	BaseHash         string
	SourceHash       string
	TargetHash       string
	SourceDefinition string
	TargetDefinition string
	Resolution       string // DEFERRED until resolved
	CustomDefinition string
	DependentCount   int
	ResolvedAt       string
}
