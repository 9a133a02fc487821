package modem

import "sync"

// Queue is an unbounded FIFO of raw lines between the feeder and the
// interpreter. Put never blocks; Get blocks until a line is available.
// Lines come out in exactly the order they went in.
//
// A plain Go channel is bounded by construction and would either block
// the feeder or drop lines under pressure; neither is acceptable here,
// so the queue is a condition-variable guarded slice.
type Queue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	lines []string
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put appends line to the queue and wakes one waiting consumer. It
// never blocks.
func (q *Queue) Put(line string) {
	q.mu.Lock()
	q.lines = append(q.lines, line)
	q.mu.Unlock()
	q.cond.Signal()
}

// Get removes and returns the oldest line, blocking until one exists.
func (q *Queue) Get() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.lines) == 0 {
		q.cond.Wait()
	}
	line := q.lines[0]
	q.lines = q.lines[1:]
	return line
}

// Len reports the number of queued lines.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lines)
}
