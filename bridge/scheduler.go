package bridge

import (
	"sync"

	eventloop "github.com/joeycumines/go-eventloop"
)

// Scheduler queues a task to run later on the host's single task queue.
// Settlement continuations are always delivered through it.
type Scheduler interface {
	Submit(task func()) error
}

// FromLoop adapts an event loop to Scheduler.
func FromLoop(loop *eventloop.Loop) Scheduler {
	return loopScheduler{loop: loop}
}

type loopScheduler struct {
	loop *eventloop.Loop
}

func (s loopScheduler) Submit(task func()) error {
	return s.loop.Submit(task)
}

// Queue is a manually drained Scheduler. Tasks run only when Drain or
// RunOne is called, which makes delivery order observable in tests and
// tools that step the host by hand.
type Queue struct {
	tasks []func()
	mu    sync.Mutex
}

// Submit appends task to the queue.
func (q *Queue) Submit(task func()) error {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
	return nil
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// RunOne runs the oldest queued task and reports whether there was one.
func (q *Queue) RunOne() bool {
	q.mu.Lock()
	if len(q.tasks) == 0 {
		q.mu.Unlock()
		return false
	}
	task := q.tasks[0]
	q.tasks = q.tasks[1:]
	q.mu.Unlock()

	task()
	return true
}

// Drain runs tasks until the queue is empty, including tasks submitted by
// the tasks it runs. It returns the number of tasks run.
func (q *Queue) Drain() int {
	n := 0
	for q.RunOne() {
		n++
	}
	return n
}
