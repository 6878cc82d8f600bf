// Package secondary defines the secondary ports (driven adapters) for the
// application. These are the interfaces through which the application
// drives external systems.
package secondary

import (
	"context"
	"errors"
)

// Sentinel errors shared by all repository implementations. Adapters wrap
// these with context; services map them onto coded business errors.
var (
	// ErrNotFound marks a lookup miss.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate marks a uniqueness violation (e.g. branch name taken).
	ErrDuplicate = errors.New("already exists")

	// ErrStaleWrite marks a failed before-hash precondition: another
	// writer appended to the same (object, branch) chain between the
	// caller's read and this write. The caller must retry, not ignore.
	ErrStaleWrite = errors.New("stale write: before hash does not match current state")
)

// ============================================================================
// Branch Store
// ============================================================================

// BranchRepository defines the secondary port for branch persistence.
type BranchRepository interface {
	// Create persists a new branch.
	Create(ctx context.Context, branch *BranchRecord) error

	// GetByID retrieves a branch by its ID.
	GetByID(ctx context.Context, id string) (*BranchRecord, error)

	// GetByName retrieves a branch by its unique name.
	GetByName(ctx context.Context, name string) (*BranchRecord, error)

	// List retrieves branches matching the given filters.
	List(ctx context.Context, filters BranchFilters) ([]*BranchRecord, error)

	// UpdateStatus updates a branch's lifecycle status.
	UpdateStatus(ctx context.Context, id, status string) error

	// SetHead advances a branch's head commit hash.
	SetHead(ctx context.Context, id, commitHash string) error

	// ParentMap returns branch id -> parent branch id for every branch,
	// for ancestor walks. The root maps to "".
	ParentMap(ctx context.Context) (map[string]string, error)
}

// BranchRecord represents a branch as stored in persistence.
type BranchRecord struct {
	ID             string
	Name           string
	ParentBranchID string
	Status         string
	HeadCommitHash string
	CreatedBy      string
	CreatedAt      string
}

// BranchFilters contains filter options for querying branches.
type BranchFilters struct {
	Status         string
	IncludeDeleted bool
}

// ============================================================================
// Commit Log
// ============================================================================

// CommitRepository defines the secondary port for commit persistence.
type CommitRepository interface {
	// Create persists a new commit.
	Create(ctx context.Context, commit *CommitRecord) error

	// GetByHash retrieves a commit by its hash.
	GetByHash(ctx context.Context, hash string) (*CommitRecord, error)

	// ListByBranch returns a branch's commits, newest first, capped at
	// limit (0 means no cap).
	ListByBranch(ctx context.Context, branchID string, limit int) ([]*CommitRecord, error)
}

// CommitRecord represents a commit as stored in persistence.
type CommitRecord struct {
	Hash             string
	BranchID         string
	ParentCommitHash string
	Author           string
	Message          string
	ChangeSummary    string
	Timestamp        string
}

// ============================================================================
// Object Registry
// ============================================================================

// ObjectRepository defines the secondary port for the global object
// registry.
type ObjectRepository interface {
	// Ensure creates-or-returns the identity row for
	// (object_type, schema_name, object_name).
	Ensure(ctx context.Context, objectType, schemaName, objectName string) (*ObjectRecord, error)

	// GetByID retrieves an object by its ID.
	GetByID(ctx context.Context, id int64) (*ObjectRecord, error)

	// GetByIdentity retrieves an object by its global identity.
	GetByIdentity(ctx context.Context, objectType, schemaName, objectName string) (*ObjectRecord, error)
}

// ObjectRecord represents a schema object identity row.
type ObjectRecord struct {
	ID                int64
	ObjectType        string
	SchemaName        string
	ObjectName        string
	CurrentDefinition string
	ContentHash       string
	Version           string
	IsActive          bool
}

// ============================================================================
// History Ledger
// ============================================================================

// HistoryRepository defines the secondary port for the append-only history
// ledger. Appends carry a compare-and-swap precondition on before_hash and
// update the object registry row in the same transaction.
type HistoryRepository interface {
	// Append appends a ledger entry. When the branch already has entries
	// for the object, entry.BeforeHash must equal the latest entry's
	// after hash or the append fails with ErrStaleWrite. The object
	// registry row is updated atomically with the append.
	Append(ctx context.Context, entry *HistoryRecord, object ObjectUpdate) (int64, error)

	// LatestEntry returns the most recent ledger entry for an object on a
	// branch, or ErrNotFound when the branch never touched the object.
	LatestEntry(ctx context.Context, objectID int64, branchID string) (*HistoryRecord, error)

	// ListByObjectBranch returns entries for an object on a branch,
	// newest first, capped at limit (0 means no cap).
	ListByObjectBranch(ctx context.Context, objectID int64, branchID string, limit int) ([]*HistoryRecord, error)

	// LatestEntryByCommits returns the most recent ledger entry for an
	// object among the given commits, regardless of branch, or
	// ErrNotFound. Used to reconstruct an object's state as of a
	// historical commit.
	LatestEntryByCommits(ctx context.Context, objectID int64, commitHashes []string) (*HistoryRecord, error)

	// TouchedObjectIDs returns the distinct object ids with ledger rows
	// on any of the given branches.
	TouchedObjectIDs(ctx context.Context, branchIDs []string) ([]int64, error)

	// BranchObjects lists objects whose latest entry on the branch is a
	// non-DROP change, joined with their registry identity.
	BranchObjects(ctx context.Context, branchID string, filters BranchObjectFilters) ([]*BranchObjectRow, error)
}

// HistoryRecord represents one history ledger row.
type HistoryRecord struct {
	ID               int64
	ObjectID         int64
	BranchID         string
	ChangeType       string
	ChangeSeverity   string
	BeforeHash       string
	AfterHash        string
	BeforeDefinition string
	AfterDefinition  string
	CommitHash       string
	Author           string
	Timestamp        string
}

// ObjectUpdate is the registry-row update applied with a ledger append.
type ObjectUpdate struct {
	CurrentDefinition string
	ContentHash       string
	Version           string
	IsActive          bool
}

// BranchObjectFilters contains filter options for listing branch objects.
type BranchObjectFilters struct {
	ObjectType string
	SchemaName string
	OrderBy    string
}

// BranchObjectRow is one row of a branch object listing.
type BranchObjectRow struct {
	ObjectID   int64
	ObjectType string
	SchemaName string
	ObjectName string
	AfterHash  string
	Version    string
}

// ============================================================================
// Merge Operations
// ============================================================================

// MergeRepository defines the secondary port for merge operations and
// conflict resolutions. The multi-row mutations (ApplyMerge,
// ResolveConflict, Abort) are transactional: partial application must not
// be observable.
type MergeRepository interface {
	// RecordAborted persists an ABORTED merge operation for audit without
	// any other mutation.
	RecordAborted(ctx context.Context, op *MergeOperationRecord) error

	// ApplyMerge atomically persists the merge operation, its merge
	// commit, the non-conflicting ledger entries (each under the
	// before-hash precondition), the conflict rows, the target branch's
	// new head, and the target branch status.
	ApplyMerge(ctx context.Context, req ApplyMergeRequest) error

	// GetByID retrieves a merge operation, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*MergeOperationRecord, error)

	// ListConflicts returns a merge's conflict rows ordered by sequence.
	ListConflicts(ctx context.Context, mergeID string) ([]*ConflictRecord, error)

	// GetConflict retrieves one conflict row, or ErrNotFound.
	GetConflict(ctx context.Context, mergeID string, seq int) (*ConflictRecord, error)

	// ResolveConflict atomically marks one conflict resolved, appends the
	// chosen definition to the target branch's ledger, and - when it was
	// the last unresolved conflict - completes the merge and restores the
	// target branch to ACTIVE.
	ResolveConflict(ctx context.Context, req ResolveConflictRequest) (remaining int, err error)

	// Abort atomically marks the merge ABORTED and restores the target
	// branch to ACTIVE without touching the ledger.
	Abort(ctx context.Context, mergeID, targetBranchID string) error
}

// MergeOperationRecord represents a merge operation row.
type MergeOperationRecord struct {
	ID              string
	SourceBranchID  string
	TargetBranchID  string
	BaseBranchID    string
	Message         string
	Strategy        string
	Status          string
	MergeCommitHash string
	CreatedAt       string
	CompletedAt     string
}

// ConflictRecord represents one conflict row under a merge operation. The
// source/target/base payloads are frozen at diff time so resolution never
// re-reads moving branch state.
type ConflictRecord struct {
	MergeID          string
	ConflictSeq      int
	ObjectID         int64
	ConflictKind     string
	BaseHash         string
	SourceHash       string
	TargetHash       string
	SourceDefinition string
	TargetDefinition string
	Resolution       string
	CustomDefinition string
	DependentCount   int
	ResolvedAt       string
}

// ApplyMergeRequest is the atomic unit persisted when a merge is applied.
type ApplyMergeRequest struct {
	Op           *MergeOperationRecord
	MergeCommit  *CommitRecord
	Entries      []MergeEntry
	Conflicts    []*ConflictRecord
	TargetID     string
	TargetStatus string // MERGING when conflicts remain, ACTIVE otherwise
}

// MergeEntry pairs a ledger append with its registry-row update.
type MergeEntry struct {
	Entry  *HistoryRecord
	Object ObjectUpdate
}

// ResolveConflictRequest is the atomic unit persisted when one conflict is
// resolved.
type ResolveConflictRequest struct {
	MergeID        string
	ConflictSeq    int
	Resolution     string
	TargetBranchID string
	// Entry is nil when resolving with TARGET (the target already holds
	// the chosen state).
	Entry  *HistoryRecord
	Object ObjectUpdate
}

// ============================================================================
// Dependency Graph
// ============================================================================

// DependencyRepository defines the secondary port for the branch-scoped
// object dependency edge table. The merge engine only reads it to annotate
// conflict severity.
type DependencyRepository interface {
	// Add records an edge dependent -> dependency on a branch.
	Add(ctx context.Context, edge *DependencyRecord) error

	// CountDependents returns how many objects depend on the given object
	// on a branch.
	CountDependents(ctx context.Context, objectID int64, branchID string) (int, error)

	// ListDependents returns the objects depending on the given object on
	// a branch.
	ListDependents(ctx context.Context, objectID int64, branchID string) ([]*ObjectRecord, error)
}

// DependencyRecord represents one dependency edge.
type DependencyRecord struct {
	ID             int64
	BranchID       string
	DependentID    int64
	DependencyID   int64
	DependencyType string
	CreatedAt      string
}
