package app

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/evoludigit/pgGit-sub001/internal/ports/primary"
)

// ErrCaptureClosed is returned by Submit after Close.
var ErrCaptureClosed = errors.New("capture service is closed")

// DefaultCaptureQueueSize is the queue depth before Submit blocks.
const DefaultCaptureQueueSize = 64

// CaptureServiceImpl implements the CaptureService interface. Events are
// applied strictly one at a time by the Run loop, which preserves
// per-object ordering and keeps the ledger's CAS preconditions meaningful.
type CaptureServiceImpl struct {
	objects primary.ObjectService

	queue   chan primary.ChangeEvent
	closed  chan struct{}
	drained chan struct{}
	once    sync.Once

	// onError receives per-event failures; the loop keeps running. A
	// failed event is reported, not retried: the producer owns retries.
	onError func(error)
}

// NewCaptureService creates a new CaptureService with injected dependencies.
func NewCaptureService(objects primary.ObjectService) *CaptureServiceImpl {
	return &CaptureServiceImpl{
		objects: objects,
		queue:   make(chan primary.ChangeEvent, DefaultCaptureQueueSize),
		closed:  make(chan struct{}),
		drained: make(chan struct{}),
		onError: func(err error) { log.Printf("capture: %v", err) },
	}
}

// SetErrorHandler replaces the per-event failure handler. Must be called
// before Run.
func (s *CaptureServiceImpl) SetErrorHandler(fn func(error)) {
	if fn != nil {
		s.onError = fn
	}
}

// Submit enqueues a change event, blocking when the queue is full.
func (s *CaptureServiceImpl) Submit(ctx context.Context, event primary.ChangeEvent) error {
	select {
	case <-s.closed:
		return ErrCaptureClosed
	default:
	}

	select {
	case s.queue <- event:
		return nil
	case <-s.closed:
		return ErrCaptureClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until the context is cancelled or Close is called.
func (s *CaptureServiceImpl) Run(ctx context.Context) error {
	defer close(s.drained)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.closed:
			// Drain what was accepted before the close.
			for {
				select {
				case event := <-s.queue:
					s.apply(ctx, event)
				default:
					return nil
				}
			}
		case event := <-s.queue:
			s.apply(ctx, event)
		}
	}
}

// Close stops accepting events and waits for the Run loop to finish.
func (s *CaptureServiceImpl) Close() {
	s.once.Do(func() { close(s.closed) })
	<-s.drained
}

func (s *CaptureServiceImpl) apply(ctx context.Context, event primary.ChangeEvent) {
	_, err := s.objects.RecordChange(ctx, primary.RecordChangeRequest{
		ObjectType:       event.ObjectType,
		SchemaName:       event.SchemaName,
		ObjectName:       event.ObjectName,
		ChangeType:       event.ChangeType,
		BeforeDefinition: event.BeforeDefinition,
		AfterDefinition:  event.AfterDefinition,
		BranchName:       event.BranchName,
		CommitHash:       event.CommitRef,
		Author:           event.Author,
	})
	if err != nil {
		s.onError(err)
	}
}

// Ensure CaptureServiceImpl implements the interface
var _ primary.CaptureService = (*CaptureServiceImpl)(nil)
