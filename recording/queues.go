package recording

import "github.com/gogpu/framegraph"

// Queues holds one Recorder per queue and implements framegraph.Queues,
// so a whole multi-queue frame can be captured with one Run.
type Queues struct {
	recorders []*Recorder
}

// NewQueues creates recorders for every queue.
func NewQueues() *Queues {
	q := &Queues{}
	for _, queue := range framegraph.AllQueues() {
		q.recorders = append(q.recorders, NewRecorder(queue))
	}
	return q
}

// Queue implements framegraph.Queues.
func (q *Queues) Queue(queue framegraph.Queue) framegraph.CommandBuffer {
	return q.recorders[queue]
}

// Recorder returns the recorder of queue.
func (q *Queues) Recorder(queue framegraph.Queue) *Recorder {
	return q.recorders[queue]
}

// Reset discards every captured command.
func (q *Queues) Reset() {
	for _, r := range q.recorders {
		r.Reset()
	}
}

// Finish returns one Recording per queue, indexed by queue, and resets
// the recorders.
func (q *Queues) Finish() []*Recording {
	out := make([]*Recording, len(q.recorders))
	for i, r := range q.recorders {
		out[i] = r.Finish()
	}
	return out
}
