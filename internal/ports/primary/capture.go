package primary

import "context"

// ChangeEvent is one schema mutation observed by the external
// change-capture collaborator. The core never watches live DDL itself; a
// producer pushes these events and the capture consumer turns them into
// ledger entries one at a time, preserving per-object ordering.
type ChangeEvent struct {
	ObjectType       ObjectType
	SchemaName       string
	ObjectName       string
	ChangeType       string
	BeforeDefinition string
	AfterDefinition  string
	BranchName       string
	CommitRef        string
	Author           string
}

// CaptureService defines the primary port for the change-capture consumer.
type CaptureService interface {
	// Submit enqueues a change event. Blocks when the queue is full so
	// producers apply backpressure instead of dropping events.
	Submit(ctx context.Context, event ChangeEvent) error

	// Run drains the queue until the context is cancelled. Events are
	// applied strictly one at a time.
	Run(ctx context.Context) error

	// Close stops accepting events and waits for the queue to drain.
	Close()
}
