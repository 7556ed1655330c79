package crawl

import (
	"container/heap"
	"sync"

	"github.com/fwojciec/webcrawl"
)

// Frontier is an in-memory queue of pending crawl tasks.
// Tasks are popped breadth-first: lower depth first, then in push order.
// Deduplication is not the frontier's job; callers claim addresses through
// a webcrawl.VisitedRegistry before pushing.
// It is safe for concurrent use by multiple goroutines.
type Frontier struct {
	mu    sync.Mutex
	queue *taskHeap
	seq   uint64
}

// NewFrontier creates an empty Frontier.
func NewFrontier() *Frontier {
	h := &taskHeap{}
	heap.Init(h)
	return &Frontier{queue: h}
}

// Push adds a task to the frontier.
func (f *Frontier) Push(task webcrawl.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()

	heap.Push(f.queue, queuedTask{Task: task, seq: f.seq})
	f.seq++
}

// Pop returns the next task.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (webcrawl.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.queue.Len() == 0 {
		return webcrawl.Task{}, false
	}
	item, _ := heap.Pop(f.queue).(queuedTask)
	return item.Task, true
}

// Len returns the number of tasks in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Len()
}

type queuedTask struct {
	webcrawl.Task
	seq uint64
}

// taskHeap implements heap.Interface ordered by (depth, seq).
type taskHeap []queuedTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].Depth != h[j].Depth {
		return h[i].Depth < h[j].Depth
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	item, _ := x.(queuedTask)
	*h = append(*h, item)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
