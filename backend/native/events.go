package native

import (
	"sync"

	"github.com/gogpu/framegraph"
)

type eventState struct {
	label       string
	bufferIndex int
	signaled    bool
}

// Events implements framegraph.EventAllocator for a single-queue HAL
// device. Events carry no device object; they track whether the signal
// was recorded before the wait within a frame.
//
// Events is safe for concurrent use.
type Events struct {
	mu     sync.Mutex
	next   framegraph.Event
	events map[framegraph.Event]*eventState
}

var _ framegraph.EventAllocator = (*Events)(nil)

// NewEvents creates an empty allocator.
func NewEvents() *Events {
	return &Events{events: make(map[framegraph.Event]*eventState)}
}

// CreateEvent implements framegraph.EventAllocator.
func (e *Events) CreateEvent(label string, bufferIndex int) framegraph.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next++
	e.events[e.next] = &eventState{label: label, bufferIndex: bufferIndex}
	return e.next
}

// DestroyEvent implements framegraph.EventAllocator.
func (e *Events) DestroyEvent(ev framegraph.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.events, ev)
}

// Label returns the label ev was created with.
func (e *Events) Label(ev framegraph.Event) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.events[ev]
	if !ok {
		return "", false
	}
	return s.label, true
}

// Len returns the number of live events.
func (e *Events) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

// Reset clears the signal state of the events of buffered frame
// bufferIndex. It runs when a frame starts encoding.
func (e *Events) Reset(bufferIndex int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.events {
		if s.bufferIndex == bufferIndex {
			s.signaled = false
		}
	}
}

func (e *Events) signal(ev framegraph.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.events[ev]; ok {
		s.signaled = true
	}
}

// signaled reports whether ev was signalled. Untracked events, such as
// those of another allocator, count as signalled.
func (e *Events) signaled(ev framegraph.Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.events[ev]
	return !ok || s.signaled
}
