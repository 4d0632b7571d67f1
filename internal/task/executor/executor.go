// Package executor implements the upper, cooperative scheduling layer:
// async tasks running atop the kernel's processes, suspending only at
// explicit yield points (spec §4.11). Grounded on rxinu's
// src/task/scheduler/{priority,cooperative,mod}.rs and yield_now.rs —
// the TaskId/Task/Waker/WakerCache shape, the strict-priority
// drain-highest-first dispatch loop, and the two-poll YieldNow future
// are all carried over; Rust's Future/Poll/Context map onto a small
// local interface here since Go has no built-in async/await, the same
// way the teacher's own code has no choice but to hand-roll what a
// hosted runtime would otherwise provide.
package executor

import (
	"sync/atomic"

	"vesperkernel/internal/archx86"
	"vesperkernel/internal/kernelerr"
)

// TaskID is a monotonically-issued identifier (spec §3).
type TaskID uint64

var nextTaskID atomic.Uint64

// NewTaskID issues the next TaskID from the global counter.
func NewTaskID() TaskID {
	return TaskID(nextTaskID.Add(1))
}

// Poll is the outcome of advancing a Future one step.
type Poll int

const (
	Pending Poll = iota
	Ready
)

// Future is the minimal interface a cooperative task drives: Poll is
// called with the Waker that will be used to re-schedule it, and
// returns Pending (call again later, once woken) or Ready (done).
type Future interface {
	Poll(w *Waker) Poll
}

// Priority classifies a task for the priority executor's strict queue
// selection (spec §3: "Priority ∈ {Low, Medium, High}").
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

// Task owns a pinned future plus the priority it was spawned with.
type Task struct {
	ID       TaskID
	Priority Priority
	future   Future
}

// NewTask wraps future as a Task with a fresh TaskID.
func NewTask(future Future, priority Priority) *Task {
	return &Task{ID: NewTaskID(), Priority: priority, future: future}
}

// boundedQueue is a fixed-capacity FIFO of TaskIDs, the Go equivalent of
// rxinu's crossbeam_queue::ArrayQueue — a lock-free MPSC ring buffer is
// unavailable without an ecosystem import usable in a freestanding
// build (see the project's dependency ledger). The queue holds no lock
// of its own, and the Executor takes none around it.
type boundedQueue struct {
	items []TaskID
	cap   int
}

func newBoundedQueue(capacity int) *boundedQueue {
	return &boundedQueue{items: make([]TaskID, 0, capacity), cap: capacity}
}

func (q *boundedQueue) push(id TaskID) bool {
	if len(q.items) >= q.cap {
		return false
	}
	q.items = append(q.items, id)
	return true
}

func (q *boundedQueue) pop() (TaskID, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	id := q.items[0]
	q.items = q.items[1:]
	return id, true
}

func (q *boundedQueue) empty() bool { return len(q.items) == 0 }

// DefaultQueueCapacity is the default ready-queue size (spec §4.11).
const DefaultQueueCapacity = 1024

// Waker pushes a TaskID back onto its home ready queue when woken
// (spec §3, §4.11). Wake and WakeByRef are identical here since Go has
// no ownership distinction between the two Rust Wake methods.
type Waker struct {
	taskID TaskID
	queue  *boundedQueue
}

// Wake pushes the task's id onto its ready queue. A full queue is fatal
// — queue capacity must be sized for the workload (spec §4.11).
func (w *Waker) Wake() {
	if !w.queue.push(w.taskID) {
		panic("executor: task queue full")
	}
}

// WakeByRef behaves identically to Wake.
func (w *Waker) WakeByRef() { w.Wake() }

// Executor runs cooperative tasks with one ready queue per Priority
// level, strictly draining higher-priority queues before lower ones
// (spec §4.11). A plain FIFO executor is the degenerate case where
// every task is spawned at the same priority.
type Executor struct {
	tasks      map[TaskID]*Task
	queues     [3]*boundedQueue // indexed by Priority
	wakerCache map[TaskID]*Waker
}

// New constructs an Executor with queueCapacity slots per priority
// level.
func New(queueCapacity int) *Executor {
	e := &Executor{
		tasks:      make(map[TaskID]*Task),
		wakerCache: make(map[TaskID]*Waker),
	}
	for p := range e.queues {
		e.queues[p] = newBoundedQueue(queueCapacity)
	}
	return e
}

// Spawn registers task and enqueues it ready to run. Fails with
// DuplicateId if the id is already in use, or TaskQueueFull if its home
// queue is full (spec §4.11).
func (e *Executor) Spawn(task *Task) error {
	if _, exists := e.tasks[task.ID]; exists {
		return kernelerr.ErrDuplicateId
	}
	e.tasks[task.ID] = task
	if !e.queues[task.Priority].push(task.ID) {
		delete(e.tasks, task.ID)
		return kernelerr.ErrTaskQueueFull
	}
	return nil
}

// Kill removes task_id and its cached waker if present (spec §4.11). An
// id still queued for it is skipped by the next RunReadyTasks.
func (e *Executor) Kill(id TaskID) error {
	if _, exists := e.tasks[id]; !exists {
		return kernelerr.ErrUnknownId
	}
	delete(e.tasks, id)
	delete(e.wakerCache, id)
	return nil
}

func (e *Executor) wakerFor(id TaskID, queue *boundedQueue) *Waker {
	if w, ok := e.wakerCache[id]; ok {
		return w
	}
	w := &Waker{taskID: id, queue: queue}
	e.wakerCache[id] = w
	return w
}

// RunReadyTasks drains the highest-priority non-empty queue to
// completion before ever visiting a lower one (strict priority, no
// interleaving), polling each popped task once (spec §4.11). A task that
// wakes itself during its poll is queued again and so is polled again
// within the same call.
func (e *Executor) RunReadyTasks() {
	for p := PriorityHigh; p >= PriorityLow; p-- {
		queue := e.queues[p]
		for !queue.empty() {
			id, ok := queue.pop()
			if !ok {
				panic(kernelerr.ErrResourceNotAvailable)
			}
			task, exists := e.tasks[id]
			if !exists {
				continue
			}
			waker := e.wakerFor(id, queue)
			if task.future.Poll(waker) == Ready {
				delete(e.tasks, id)
				delete(e.wakerCache, id)
			}
		}
	}
}

// Run loops RunReadyTasks/SleepIfIdle forever — the kernel's cooperative
// idle loop (spec §4.11).
func (e *Executor) Run() {
	for {
		e.RunReadyTasks()
		e.sleepIfIdle()
	}
}

func (e *Executor) anyReady() bool {
	for _, q := range e.queues {
		if !q.empty() {
			return true
		}
	}
	return false
}

// sleepIfIdle disables interrupts, re-checks emptiness, and either
// atomically enables interrupts and halts, or just re-enables —
// avoiding the classic "wake lost between check and halt" race
// (spec §4.11).
func (e *Executor) sleepIfIdle() {
	archx86.DisableInterrupts()
	if e.anyReady() {
		archx86.EnableInterrupts()
		return
	}
	archx86.EnableInterruptsAndHalt()
}

// YieldNow is a future that returns Pending exactly once: the first
// poll registers a wake-by-ref and returns Pending, the second returns
// Ready — guaranteeing exactly one yield point (spec §4.11).
type YieldNow struct {
	yielded bool
}

// Poll implements Future.
func (y *YieldNow) Poll(w *Waker) Poll {
	if !y.yielded {
		y.yielded = true
		w.WakeByRef()
		return Pending
	}
	return Ready
}
