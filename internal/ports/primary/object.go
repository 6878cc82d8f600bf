package primary

import "context"

// ObjectType is the closed enumeration of versioned object kinds, with an
// explicit unknown fallback for types this version does not model.
type ObjectType string

const (
	ObjectTypeTable    ObjectType = "TABLE"
	ObjectTypeView     ObjectType = "VIEW"
	ObjectTypeFunction ObjectType = "FUNCTION"
	ObjectTypeIndex    ObjectType = "INDEX"
	ObjectTypeTrigger  ObjectType = "TRIGGER"
	ObjectTypeType     ObjectType = "TYPE"
	ObjectTypeUnknown  ObjectType = "UNKNOWN"
)

// ParseObjectType maps a raw type string onto the enumeration, falling
// back to UNKNOWN rather than failing.
func ParseObjectType(s string) ObjectType {
	switch ObjectType(s) {
	case ObjectTypeTable, ObjectTypeView, ObjectTypeFunction,
		ObjectTypeIndex, ObjectTypeTrigger, ObjectTypeType:
		return ObjectType(s)
	}
	return ObjectTypeUnknown
}

// ObjectService defines the primary port for the object registry, the
// history ledger, and the dependency edge table.
type ObjectService interface {
	// EnsureObject creates-or-returns the global identity row for
	// (type, schema, name).
	EnsureObject(ctx context.Context, objectType ObjectType, schemaName, objectName string) (*SchemaObject, error)

	// RecordChange appends a ledger entry for an object on a branch,
	// computing severity and bumping the object's semantic version. The
	// append is rejected with STALE_WRITE when the before state does not
	// match the branch's current state for the object.
	RecordChange(ctx context.Context, req RecordChangeRequest) (*HistoryEntry, error)

	// GetObjectState returns the current state of an object on a branch:
	// the after-state of its latest ledger entry, or absent if none
	// exists or the latest entry is a DROP.
	GetObjectState(ctx context.Context, objectID int64, branchName string) (*ObjectState, error)

	// GetObjectHistory returns ledger entries for an object on a branch,
	// newest first, capped at limit (0 means no cap).
	GetObjectHistory(ctx context.Context, objectID int64, branchName string, limit int) ([]*HistoryEntry, error)

	// GetBranchObjects lists the objects present on a branch.
	GetBranchObjects(ctx context.Context, branchName string, filters BranchObjectFilters) ([]*ObjectSummary, error)

	// AddDependency records a branch-scoped edge between two objects
	// (e.g. view depends on table).
	AddDependency(ctx context.Context, req AddDependencyRequest) error

	// GetDependents returns objects that depend on the given object on a
	// branch. Consulted by the merge engine to annotate conflict severity.
	GetDependents(ctx context.Context, objectID int64, branchName string) ([]*ObjectSummary, error)
}

// RecordChangeRequest contains parameters for appending a ledger entry.
// This is also the producer interface consumed from the change-capture
// collaborator.
type RecordChangeRequest struct {
	ObjectType       ObjectType
	SchemaName       string
	ObjectName       string
	ChangeType       string // CREATE, ALTER, DROP
	BeforeDefinition string
	AfterDefinition  string
	BranchName       string
	CommitHash       string // empty mints a capture commit on the branch
	Author           string // empty defaults to the context author
}

// SchemaObject represents the global identity of a versioned object.
type SchemaObject struct {
	ID                int64
	ObjectType        ObjectType
	SchemaName        string
	ObjectName        string
	CurrentDefinition string
	ContentHash       string
	Version           string
	IsActive          bool
}

// ObjectState is the state of an object on a branch, or absent.
type ObjectState struct {
	Present    bool
	Hash       string
	Definition string
}

// HistoryEntry represents one ledger row at the port boundary.
type HistoryEntry struct {
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

// BranchObjectFilters contains filter options for listing branch objects.
type BranchObjectFilters struct {
	ObjectType ObjectType
	SchemaName string
	OrderBy    string // "name" (default), "type", "version"
}

// ObjectSummary is the listing row for get_branch_objects.
type ObjectSummary struct {
	ObjectID   int64
	ObjectType ObjectType
	SchemaName string
	ObjectName string
	Hash       string
	Version    string
}

// AddDependencyRequest records an edge dependent -> dependency.
type AddDependencyRequest struct {
	BranchName     string
	DependentID    int64
	DependencyID   int64
	DependencyType string // e.g. "view-table", "trigger-table"
}
