package resource

import "testing"

func TestTrackerMonotonic(t *testing.T) {
	tr := NewTracker()

	if s := tr.Observe("t1", Queued); s != Queued {
		t.Error("unexpected status", s)
	}
	if s := tr.Observe("t1", Running); s != Running {
		t.Error("unexpected status", s)
	}

	// A stale poll result never moves the task backwards.
	if s := tr.Observe("t1", Queued); s != Running {
		t.Error("status regressed to", s)
	}
}

func TestTrackerTerminalSticky(t *testing.T) {
	tr := NewTracker()
	tr.Observe("t1", Running)
	tr.Observe("t1", Completed)

	for _, s := range []Status{Queued, Running, Failed, Cancelled} {
		if got := tr.Observe("t1", s); got != Completed {
			t.Errorf("terminal status not sticky: observed %s, got %s", s, got)
		}
	}
	if tr.Last("t1") != Completed {
		t.Error("unexpected last status", tr.Last("t1"))
	}
}

func TestTrackerSkipsStages(t *testing.T) {
	tr := NewTracker()
	// A fast task can be first observed already terminal.
	if s := tr.Observe("t1", Completed); s != Completed {
		t.Error("unexpected status", s)
	}
}

func TestTrackerForget(t *testing.T) {
	tr := NewTracker()
	tr.Observe("t1", Completed)
	tr.Forget("t1")
	if tr.Last("t1") != Unknown {
		t.Error("forget did not clear history")
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		wire string
		want Status
		err  bool
	}{
		{"Queued", Queued, false},
		{"RUNNING", Running, false},
		{"Completed", Completed, false},
		{"Failed", Failed, false},
		{"CANCELLED", Cancelled, false},
		{"Paused", Unknown, true},
		{"", Unknown, true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.wire)
		if got != tt.want || (err != nil) != tt.err {
			t.Errorf("ParseStatus(%q) = %s, %v", tt.wire, got, err)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	for s, want := range map[Status]bool{
		Unknown: false, Queued: false, Running: false,
		Completed: true, Failed: true, Cancelled: true,
	} {
		if s.Terminal() != want {
			t.Errorf("%s.Terminal() = %v", s, s.Terminal())
		}
	}
}
