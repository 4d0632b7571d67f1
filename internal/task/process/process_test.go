package process

import "testing"

func TestNewTableSeedsNullProcessAsCurrent(t *testing.T) {
	table := NewTable()
	proc, err := table.Get(NullProcessID)
	if err != nil {
		t.Fatalf("Get(NullProcessID): %v", err)
	}
	if proc.State != StateCurrent {
		t.Fatalf("got state %v, want Current", proc.State)
	}
}

func TestCreateDoesNotEnqueue(t *testing.T) {
	table := NewTable()
	pid, err := table.Create("worker", 5, 0x1000, 0x2000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	proc, err := table.Get(pid)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if proc.State != StateSuspended {
		t.Fatalf("got state %v, want Suspended", proc.State)
	}
	if proc.Priority != 5 {
		t.Fatalf("got priority %d, want 5", proc.Priority)
	}
	if len(proc.Stack) == 0 {
		t.Fatal("expected a non-empty kernel stack")
	}
}

func TestCreateNeverAllocatesTheNullPID(t *testing.T) {
	table := NewTable()
	for i := 0; i < 50; i++ {
		pid, err := table.Create("p", 0, 0, 0)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if pid == NullProcessID {
			t.Fatal("Create must never hand out the null PID")
		}
	}
}

func TestGetUnknownPidReturnsBadPid(t *testing.T) {
	table := NewTable()
	if _, err := table.Get(ID(9999)); err == nil {
		t.Fatal("expected BadPid for an unknown process id")
	}
}

func TestRemoveFreesSlotForReuse(t *testing.T) {
	table := NewTable()
	pid, err := table.Create("p", 0, 0, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	table.Remove(pid)
	if _, err := table.Get(pid); err == nil {
		t.Fatal("expected Get to fail after Remove")
	}
}

func TestLessOrdersByPriorityDescending(t *testing.T) {
	low := &Process{Priority: 1}
	high := &Process{Priority: 9}
	if !Less(high, low) {
		t.Fatal("higher priority process should sort first")
	}
	if Less(low, high) {
		t.Fatal("lower priority process must not sort first")
	}
}
