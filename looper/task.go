package looper

import (
	"container/heap"
	"time"
)

type taskState int

const (
	taskPending taskState = iota
	taskRunning
	taskDone
	taskCanceled
)

type task struct {
	fn    func()
	due   time.Time
	seq   uint64
	index int
	state taskState
}

// taskQueue is a min-heap ordered by due time, then by post order.
type taskQueue []*task

var _ heap.Interface = (*taskQueue)(nil)

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}

	return q[i].due.Before(q[j].due)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	t := x.(*task) //nolint:forcetypeassert
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]

	return t
}

func (q taskQueue) peek() *task {
	if len(q) == 0 {
		return nil
	}

	return q[0]
}
