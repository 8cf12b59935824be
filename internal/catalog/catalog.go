// Package catalog holds the ordered set of training tasks for a session.
package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a task id is unknown to the catalog.
	ErrNotFound = errors.New("task not found")

	// ErrLocked is returned when selecting a task the learner has not
	// unlocked yet. The guard runs before any request is issued.
	ErrLocked = errors.New("task is locked")
)

// TaskID identifies a task. Numeric on the wire.
type TaskID int

func (id TaskID) String() string { return fmt.Sprintf("%d", int(id)) }

// Reward is the XP and coin award for completing a task.
type Reward struct {
	XP    int `json:"xp"`
	Coins int `json:"coins"`
}

// Task is a single training exercise.
// Locked and Completed flip only when a server-confirmed catalog refresh or
// answer fold says so, never optimistically.
type Task struct {
	ID          TaskID `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Reward      Reward `json:"reward"`
	Locked      bool   `json:"locked"`
	Completed   bool   `json:"completed"`
}

// Source records where the catalog came from.
type Source string

const (
	// SourceBackend marks a catalog loaded from the backend.
	SourceBackend Source = "backend"

	// SourceFallback marks the built-in seed catalog, used when the initial
	// load fails. Fallback bypasses backend authority and must stay
	// distinguishable from a real load.
	SourceFallback Source = "fallback"
)

// Catalog is the ordered task collection plus its provenance.
type Catalog struct {
	Tasks  []Task
	Source Source
}

// FromBackend builds a backend-sourced catalog.
func FromBackend(tasks []Task) Catalog {
	return Catalog{Tasks: tasks, Source: SourceBackend}
}

// Select returns the task under id, guarding lock state.
// Selecting a locked task fails before any network traffic happens.
func (c Catalog) Select(id TaskID) (Task, error) {
	for _, t := range c.Tasks {
		if t.ID != id {
			continue
		}
		if t.Locked {
			return Task{}, fmt.Errorf("select task %d: %w", id, ErrLocked)
		}
		return t, nil
	}
	return Task{}, fmt.Errorf("select task %d: %w", id, ErrNotFound)
}

// Get returns the task under id without the lock guard.
func (c Catalog) Get(id TaskID) (Task, bool) {
	for _, t := range c.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// MarkCompleted returns a copy of the catalog with the given tasks flagged
// completed. Applied only from server-confirmed progress folds.
func (c Catalog) MarkCompleted(ids []TaskID) Catalog {
	done := make(map[TaskID]bool, len(ids))
	for _, id := range ids {
		done[id] = true
	}
	tasks := make([]Task, len(c.Tasks))
	copy(tasks, c.Tasks)
	for i := range tasks {
		if done[tasks[i].ID] {
			tasks[i].Completed = true
		}
	}
	return Catalog{Tasks: tasks, Source: c.Source}
}
