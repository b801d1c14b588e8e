package gateway

import "sync"

// Executor runs tasks on a fixed number of slots with a FIFO overflow
// queue. Tasks beyond capacity wait in arrival order; a freed slot always
// takes the oldest waiting task.
//
// The done callback is invoked exactly once per task, after the task
// returns or panics. Transports rely on that to acknowledge each message
// exactly once.
//
// Thread Safety: safe for concurrent use.
type Executor struct {
	mu      sync.Mutex
	slots   int
	running int
	queue   []task
}

type task struct {
	run  func()
	done func()
}

// NewExecutor creates an executor with the given slot count.
func NewExecutor(slots int) *Executor {
	if slots < 1 {
		slots = 1
	}
	return &Executor{slots: slots}
}

// Submit admits a task. It runs immediately when a slot is free, otherwise
// it joins the overflow queue. done may be nil.
func (e *Executor) Submit(run func(), done func()) {
	t := task{run: run, done: done}

	e.mu.Lock()
	if e.running < e.slots {
		e.running++
		e.mu.Unlock()
		go e.drain(t)
		return
	}
	e.queue = append(e.queue, t)
	e.mu.Unlock()
}

// drain runs a task, then keeps pulling from the overflow queue until it
// is empty, at which point the slot is released.
func (e *Executor) drain(t task) {
	for {
		runTask(t)

		e.mu.Lock()
		if len(e.queue) == 0 {
			e.running--
			e.mu.Unlock()
			return
		}
		t = e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()
	}
}

// runTask executes one task, guaranteeing the done callback fires exactly
// once even when the task panics.
func runTask(t task) {
	defer func() {
		recover() //nolint:errcheck // task failures are handled inside the task itself
		if t.done != nil {
			t.done()
		}
	}()
	t.run()
}

// InFlight returns the number of occupied slots.
func (e *Executor) InFlight() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Pending returns the number of tasks waiting in the overflow queue.
func (e *Executor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}
