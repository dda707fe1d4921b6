package status

import (
	"sync"

	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// DefaultQueueCapacity is the error queue depth used by NewModel.
const DefaultQueueCapacity = 16

// Queue is a bounded FIFO of error/event entries. When a push would
// exceed the capacity, the most recent entry is replaced by a -350 queue
// overflow entry and further pushes are dropped until an entry is read.
type Queue struct {
	mu       sync.Mutex
	entries  []*wire.Error
	capacity int
}

// NewQueue creates a queue holding at most capacity entries (minimum 2).
func NewQueue(capacity int) *Queue {
	if capacity < 2 {
		capacity = 2
	}
	return &Queue{capacity: capacity}
}

// Push appends an entry. It reports false if the entry was dropped.
func (q *Queue) Push(err *wire.Error) bool {
	if err == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	switch n := len(q.entries); {
	case n < q.capacity-1:
		q.entries = append(q.entries, err)
		return true
	case n == q.capacity-1:
		q.entries = append(q.entries, overflow())
		return false
	default:
		return false
	}
}

// Next removes and returns the oldest entry, or a 0,"No error" entry
// when the queue is empty.
func (q *Queue) Next() *wire.Error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return wire.NewError(wire.KindNone, wire.CodeNoError, "")
	}
	e := q.entries[0]
	q.entries[0] = nil
	q.entries = q.entries[1:]
	return e
}

// Peek returns the oldest entry without removing it, or nil.
func (q *Queue) Peek() *wire.Error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return nil
	}
	return q.entries[0]
}

// Count returns the number of queued entries.
func (q *Queue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Capacity returns the maximum number of entries.
func (q *Queue) Capacity() int {
	return q.capacity
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
}

// Drain removes and returns every entry, oldest first.
func (q *Queue) Drain() []*wire.Error {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.entries
	q.entries = nil
	return out
}

func overflow() *wire.Error {
	return wire.NewError(wire.KindDeviceError, wire.CodeQueueOverflow, "")
}
