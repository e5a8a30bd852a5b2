// Package frame provides per-frame callback scheduling.
package frame

import (
	"errors"
	"time"
)

// ErrClosed is returned when requesting a frame from a closed scheduler.
var ErrClosed = errors.New("frame: scheduler closed")

// Callback runs once on the next frame with the frame timestamp.
type Callback func(now time.Duration)

// Handle identifies a pending callback. The zero Handle is never issued.
type Handle uint64

// Scheduler runs callbacks before the next repaint.
type Scheduler interface {
	// Now returns the current host timestamp on the same clock frames use.
	Now() time.Duration
	// RequestFrame schedules cb for the next frame.
	RequestFrame(cb Callback) (Handle, error)
	// CancelFrame drops a pending callback. Unknown or already-run handles are ignored.
	CancelFrame(h Handle)
}

type pending struct {
	handle Handle
	cb     Callback
}

// Loop is a Scheduler driven by an external render loop calling Flush once
// per frame. It is not safe for concurrent use.
type Loop struct {
	clock   func() time.Duration
	next    Handle
	queue   []pending
	live    map[Handle]struct{}
	closed  bool
	flushes uint64
}

// NewLoop creates a loop reading timestamps from clock.
func NewLoop(clock func() time.Duration) *Loop {
	return &Loop{
		clock: clock,
		live:  make(map[Handle]struct{}),
	}
}

// Now returns the clock's current timestamp.
func (l *Loop) Now() time.Duration {
	return l.clock()
}

// RequestFrame queues cb for the next Flush.
func (l *Loop) RequestFrame(cb Callback) (Handle, error) {
	if l.closed {
		return 0, ErrClosed
	}
	l.next++
	h := l.next
	l.queue = append(l.queue, pending{handle: h, cb: cb})
	l.live[h] = struct{}{}
	return h, nil
}

// CancelFrame removes a pending callback, including one queued for the
// flush currently in progress.
func (l *Loop) CancelFrame(h Handle) {
	delete(l.live, h)
}

// Flush runs every callback queued before the call, in request order.
// Callbacks requested during the flush run on the next one; callbacks
// canceled during the flush are skipped.
func (l *Loop) Flush(now time.Duration) int {
	batch := l.queue
	l.queue = nil
	l.flushes++

	ran := 0
	for _, p := range batch {
		if _, ok := l.live[p.handle]; !ok {
			continue
		}
		delete(l.live, p.handle)
		p.cb(now)
		ran++
	}
	return ran
}

// Pending returns the number of callbacks waiting for the next flush.
func (l *Loop) Pending() int {
	return len(l.live)
}

// Flushes returns the number of Flush calls so far.
func (l *Loop) Flushes() uint64 {
	return l.flushes
}

// Close drops all pending callbacks and rejects new requests.
func (l *Loop) Close() {
	l.closed = true
	l.queue = nil
	l.live = make(map[Handle]struct{})
}
