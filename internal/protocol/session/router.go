package session

import (
	"context"
	"sync"
	"time"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol"
)

type queuedPayload struct {
	seq     uint64
	payload []byte
}

type fifo struct {
	items []queuedPayload
}

func (q *fifo) push(item queuedPayload) {
	q.items = append(q.items, item)
}

func (q *fifo) head() (queuedPayload, bool) {
	if len(q.items) == 0 {
		return queuedPayload{}, false
	}
	return q.items[0], true
}

func (q *fifo) pop() queuedPayload {
	item := q.items[0]
	q.items[0] = queuedPayload{}
	q.items = q.items[1:]
	return item
}

// ResponseRouter holds decoded payloads for one connection: a lazily
// created FIFO per response kind and one FIFO for ERROR frames.
//
// Items only leave a queue inside the lock, in the goroutine that returns
// them, so an abandoned wait never consumes or drops an item. signal is
// closed and replaced on every push to wake all waiters.
type ResponseRouter struct {
	mu       sync.Mutex
	queues   map[protocol.ResponseKind]*fifo
	errs     fifo
	seq      uint64
	signal   chan struct{}
	done     chan struct{}
	closed   bool
	closeErr error
}

func NewResponseRouter() *ResponseRouter {
	return &ResponseRouter{
		queues: make(map[protocol.ResponseKind]*fifo),
		signal: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Dispatch queues payload under kind, or on the error queue for RspError.
func (r *ResponseRouter) Dispatch(kind protocol.ResponseKind, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	item := queuedPayload{seq: r.seq, payload: payload}
	if kind == protocol.RspError {
		r.errs.push(item)
	} else {
		r.queueLocked(kind).push(item)
	}
	close(r.signal)
	r.signal = make(chan struct{})
}

// Pending returns the number of queued payloads for kind.
func (r *ResponseRouter) Pending(kind protocol.ResponseKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind == protocol.RspError {
		return len(r.errs.items)
	}
	q, ok := r.queues[kind]
	if !ok {
		return 0
	}
	return len(q.items)
}

// Snapshot returns queue depths keyed by response kind.
func (r *ResponseRouter) Snapshot() map[protocol.ResponseKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[protocol.ResponseKind]int, len(r.queues)+1)
	for kind, q := range r.queues {
		out[kind] = len(q.items)
	}
	out[protocol.RspError] = len(r.errs.items)
	return out
}

// Close wakes every waiter with err. Payloads queued before Close are
// still handed out.
func (r *ResponseRouter) Close(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.closeErr = err
	close(r.done)
}

// Await blocks until a payload for kind or an error payload is available,
// whichever arrived first. It returns remote=true for an error payload.
// It gives up with ErrTimeout when deadline fires, ctx.Err() when ctx
// ends, or the close error once the router is closed and drained for kind.
func (r *ResponseRouter) Await(
	ctx context.Context,
	kind protocol.ResponseKind,
	deadline <-chan time.Time,
) ([]byte, bool, error) {
	if kind == protocol.RspError {
		return nil, false, ErrNoResponseKind
	}
	for {
		r.mu.Lock()
		if payload, remote, ok := r.takeLocked(kind); ok {
			r.mu.Unlock()
			return payload, remote, nil
		}
		if r.closed {
			err := r.closeErr
			r.mu.Unlock()
			return nil, false, err
		}
		wake := r.signal
		r.mu.Unlock()

		select {
		case <-wake:
		case <-r.done:
		case <-deadline:
			return nil, false, ErrTimeout
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

func (r *ResponseRouter) takeLocked(kind protocol.ResponseKind) ([]byte, bool, bool) {
	q := r.queueLocked(kind)
	expected, haveExpected := q.head()
	errItem, haveErr := r.errs.head()
	switch {
	case haveExpected && haveErr:
		if errItem.seq < expected.seq {
			return r.errs.pop().payload, true, true
		}
		return q.pop().payload, false, true
	case haveErr:
		return r.errs.pop().payload, true, true
	case haveExpected:
		return q.pop().payload, false, true
	default:
		return nil, false, false
	}
}

func (r *ResponseRouter) queueLocked(kind protocol.ResponseKind) *fifo {
	q, ok := r.queues[kind]
	if !ok {
		q = &fifo{}
		r.queues[kind] = q
	}
	return q
}
