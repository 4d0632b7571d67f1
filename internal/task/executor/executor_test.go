package executor

import "testing"

// countingFuture completes after n polls, recording how many times it
// was polled; every Pending poll wakes itself.
type countingFuture struct {
	remaining int
	polls     int
}

func (f *countingFuture) Poll(w *Waker) Poll {
	f.polls++
	f.remaining--
	if f.remaining <= 0 {
		return Ready
	}
	w.WakeByRef()
	return Pending
}

func TestSpawnRejectsDuplicateID(t *testing.T) {
	e := New(DefaultQueueCapacity)
	task := NewTask(&countingFuture{remaining: 1}, PriorityLow)
	if err := e.Spawn(task); err != nil {
		t.Fatalf("first Spawn: %v", err)
	}
	if err := e.Spawn(task); err == nil {
		t.Fatal("expected an error spawning the same TaskID twice")
	}
}

func TestSpawnRejectsFullQueue(t *testing.T) {
	e := New(1)
	first := NewTask(&countingFuture{remaining: 1}, PriorityLow)
	second := NewTask(&countingFuture{remaining: 1}, PriorityLow)
	if err := e.Spawn(first); err != nil {
		t.Fatalf("first Spawn: %v", err)
	}
	if err := e.Spawn(second); err == nil {
		t.Fatal("expected TaskQueueFull spawning into an exhausted queue")
	}
}

func TestRunReadyTasksDrainsHighestPriorityFirst(t *testing.T) {
	e := New(DefaultQueueCapacity)
	var order []Priority

	record := func(p Priority) Future { return &recordingFuture{order: &order, priority: p} }

	low := NewTask(record(PriorityLow), PriorityLow)
	high := NewTask(record(PriorityHigh), PriorityHigh)
	mid := NewTask(record(PriorityMedium), PriorityMedium)

	for _, task := range []*Task{low, high, mid} {
		if err := e.Spawn(task); err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}

	e.RunReadyTasks()

	if len(order) != 3 {
		t.Fatalf("got %d polls, want 3", len(order))
	}
	if order[0] != PriorityHigh || order[1] != PriorityMedium || order[2] != PriorityLow {
		t.Fatalf("got order %v, want High, Medium, Low", order)
	}
}

type recordingFuture struct {
	order    *[]Priority
	priority Priority
}

func (f *recordingFuture) Poll(w *Waker) Poll {
	*f.order = append(*f.order, f.priority)
	return Ready
}

func TestRunReadyTasksRemovesCompletedTasks(t *testing.T) {
	e := New(DefaultQueueCapacity)
	task := NewTask(&countingFuture{remaining: 1}, PriorityLow)
	if err := e.Spawn(task); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	e.RunReadyTasks()
	if _, exists := e.tasks[task.ID]; exists {
		t.Fatal("a task returning Ready should be removed from the executor")
	}
}

func TestRunReadyTasksReschedulesPendingTaskViaWaker(t *testing.T) {
	e := New(DefaultQueueCapacity)
	future := &countingFuture{remaining: 2}
	task := NewTask(future, PriorityLow)
	if err := e.Spawn(task); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	// First pass: the first poll is Pending and self-wakes via the waker,
	// so the task is queued again without another explicit Spawn.
	// RunReadyTasks drains the queue to completion, so the same pass polls
	// it a second time, when it returns Ready and is removed.
	e.RunReadyTasks()
	if future.polls != 2 {
		t.Fatalf("got %d polls after first pass, want 2", future.polls)
	}
	if _, exists := e.tasks[task.ID]; exists {
		t.Fatal("a task that completed on its second poll should now be removed")
	}

	// Second pass: nothing is queued any more, so nothing is polled.
	e.RunReadyTasks()
	if future.polls != 2 {
		t.Fatalf("got %d polls after second pass, want 2", future.polls)
	}
	if !e.queues[PriorityLow].empty() {
		t.Fatal("a completed task must not be left on its ready queue")
	}
}

func TestKillRemovesUnscheduledTask(t *testing.T) {
	e := New(DefaultQueueCapacity)
	task := NewTask(&countingFuture{remaining: 5}, PriorityLow)
	if err := e.Spawn(task); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if err := e.Kill(task.ID); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if err := e.Kill(task.ID); err == nil {
		t.Fatal("expected an error killing an already-removed task")
	}

	// The id is still queued from Spawn, but RunReadyTasks must skip it
	// silently rather than polling a dead task.
	e.RunReadyTasks()
}

func TestYieldNowYieldsExactlyOnce(t *testing.T) {
	y := &YieldNow{}
	q := newBoundedQueue(1)
	w := &Waker{taskID: 1, queue: q}

	if got := y.Poll(w); got != Pending {
		t.Fatalf("first poll: got %v, want Pending", got)
	}
	if q.empty() {
		t.Fatal("first poll should have woken itself back onto the queue")
	}
	if got := y.Poll(w); got != Ready {
		t.Fatalf("second poll: got %v, want Ready", got)
	}
}
