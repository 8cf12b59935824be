package lab

import (
	"errors"
	"testing"
)

func TestCheckStartableGuard(t *testing.T) {
	s := NewSet()
	if err := s.CheckStartable(1); err != nil {
		t.Fatalf("empty set should allow start: %v", err)
	}

	s.Put(Instance{Key: "lab_1_a", TaskID: 1, Status: StatusRunning})
	if err := s.CheckStartable(1); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("running instance: err = %v, want ErrAlreadyRunning", err)
	}
	if err := s.CheckStartable(2); err != nil {
		t.Errorf("different task should be startable: %v", err)
	}

	// Starting also blocks a second start.
	s.Put(Instance{Key: "lab_2_b", TaskID: 2, Status: StatusStarting})
	if err := s.CheckStartable(2); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("starting instance: err = %v, want ErrAlreadyRunning", err)
	}
}

func TestStopLifecycle(t *testing.T) {
	s := NewSet()
	s.Put(Instance{Key: "lab_1_a", TaskID: 1, Status: StatusRunning})

	if err := s.MarkStopping("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown key: err = %v, want ErrNotFound", err)
	}

	if err := s.MarkStopping("lab_1_a"); err != nil {
		t.Fatal(err)
	}
	inst, _ := s.Get("lab_1_a")
	if inst.Status != StatusStopping {
		t.Fatalf("status = %q, want stopping", inst.Status)
	}
	// Still present: removal waits for server confirmation.
	if s.Len() != 1 {
		t.Fatal("instance removed optimistically")
	}

	// Failed stop: back to running.
	s.MarkRunning("lab_1_a")
	inst, _ = s.Get("lab_1_a")
	if inst.Status != StatusRunning {
		t.Fatalf("status = %q, want running", inst.Status)
	}

	// Confirmed stop.
	s.Remove("lab_1_a")
	if s.Len() != 0 {
		t.Fatal("instance not removed after confirmation")
	}
}

func TestMarkStoppingRejectsSecondStop(t *testing.T) {
	s := NewSet()
	s.Put(Instance{Key: "lab_1_a", TaskID: 1, Status: StatusRunning})

	if err := s.MarkStopping("lab_1_a"); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkStopping("lab_1_a"); !errors.Is(err, ErrStopPending) {
		t.Fatalf("second stop: err = %v, want ErrStopPending", err)
	}

	// After a failed stop the instance is stoppable again.
	s.MarkRunning("lab_1_a")
	if err := s.MarkStopping("lab_1_a"); err != nil {
		t.Fatalf("stop after restore: %v", err)
	}
}

func TestReplaceAndActiveOrder(t *testing.T) {
	s := NewSet()
	s.Put(Instance{Key: "zzz", TaskID: 1, Status: StatusRunning})
	s.Replace([]Instance{
		{Key: "b", TaskID: 2, Status: StatusRunning},
		{Key: "a", TaskID: 3, Status: StatusRunning},
	})

	active := s.Active()
	if len(active) != 2 {
		t.Fatalf("len = %d, want 2", len(active))
	}
	if active[0].Key != "a" || active[1].Key != "b" {
		t.Fatalf("order = %q %q, want a b", active[0].Key, active[1].Key)
	}
}
