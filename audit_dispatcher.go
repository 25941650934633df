package pawnAuth

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher delivers events to the sink on one goroutine, in order.
type auditDispatcher struct {
	sink       AuditSink
	dropIfFull bool
	queue      chan AuditEvent
	flushed    chan struct{}
	dropped    atomic.Uint64

	// mu guards closing queue; senders hold it shared.
	mu     sync.RWMutex
	closed bool
}

// newAuditDispatcher returns nil when audit is disabled; a nil dispatcher
// accepts and discards everything.
func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan AuditEvent, max(cfg.BufferSize, 1)),
		flushed:    make(chan struct{}),
	}
	go d.drain()
	return d
}

func (d *auditDispatcher) drain() {
	defer close(d.flushed)
	for ev := range d.queue {
		d.sink.Emit(context.Background(), ev)
	}
}

// Emit queues event. With DropIfFull it never blocks and counts the event as
// dropped when the buffer is full; otherwise it waits for room or ctx.
// Events emitted after Close are discarded.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
	}
}

// Close stops accepting events and returns once every queued event has
// reached the sink. It is safe to call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.flushed
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
