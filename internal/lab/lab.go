// Package lab tracks per-task practice environment instances.
//
// Per task the lifecycle is Absent → Starting → Running → Stopping → Absent,
// with Starting → Absent on a failed start. Instances are keyed by the
// server-assigned instance key rather than the task id, since the backend
// may reuse task ids across instances.
package lab

import (
	"errors"
	"fmt"
	"sort"

	"cyberquest/internal/catalog"
)

var (
	// ErrAlreadyRunning is returned when a start is attempted for a task
	// that already has a Starting or Running instance. Raised client-side
	// before any request is sent.
	ErrAlreadyRunning = errors.New("lab already running for task")

	// ErrNotFound is returned when no instance exists under the given key.
	ErrNotFound = errors.New("lab instance not found")

	// ErrStopPending is returned when a stop is attempted for an instance
	// that already has one in flight.
	ErrStopPending = errors.New("lab stop already in flight")
)

// Status is the client-visible lifecycle state of one instance.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusStopped  Status = "stopped"
)

// Instance is one practice environment.
type Instance struct {
	Key         string // opaque server-assigned handle
	TaskID      catalog.TaskID
	DisplayName string
	Description string
	AccessPoint string // URL, empty when the backend did not report one
	Status      Status
}

// Set holds the active instances for one session.
// Not safe for concurrent use; the owning session serializes access.
type Set struct {
	byKey map[string]Instance
}

// NewSet returns an empty instance set.
func NewSet() *Set {
	return &Set{byKey: make(map[string]Instance)}
}

// CheckStartable returns ErrAlreadyRunning when the task already has an
// instance that is Starting or Running. This is the pre-request guard.
func (s *Set) CheckStartable(taskID catalog.TaskID) error {
	for _, inst := range s.byKey {
		if inst.TaskID != taskID {
			continue
		}
		if inst.Status == StatusStarting || inst.Status == StatusRunning {
			return fmt.Errorf("task %d: %w", taskID, ErrAlreadyRunning)
		}
	}
	return nil
}

// Put stores or replaces an instance under its key.
func (s *Set) Put(inst Instance) {
	s.byKey[inst.Key] = inst
}

// Get returns the instance under key.
func (s *Set) Get(key string) (Instance, bool) {
	inst, ok := s.byKey[key]
	return inst, ok
}

// MarkStopping flips the instance to Stopping while the stop request is in
// flight. The instance stays in the set: removal is never optimistic.
// A second stop for the same key is rejected while one is pending.
func (s *Set) MarkStopping(key string) error {
	inst, ok := s.byKey[key]
	if !ok {
		return fmt.Errorf("lab %q: %w", key, ErrNotFound)
	}
	if inst.Status == StatusStopping {
		return fmt.Errorf("lab %q: %w", key, ErrStopPending)
	}
	inst.Status = StatusStopping
	s.byKey[key] = inst
	return nil
}

// MarkRunning restores a Stopping instance to Running after a failed stop.
func (s *Set) MarkRunning(key string) {
	if inst, ok := s.byKey[key]; ok {
		inst.Status = StatusRunning
		s.byKey[key] = inst
	}
}

// Remove deletes the instance under key. Called only on server-confirmed
// stop, or to clear a Starting placeholder after a failed start.
func (s *Set) Remove(key string) {
	delete(s.byKey, key)
}

// Replace swaps the whole set for the given instances. Used when folding a
// backend active-labs listing.
func (s *Set) Replace(instances []Instance) {
	next := make(map[string]Instance, len(instances))
	for _, inst := range instances {
		next[inst.Key] = inst
	}
	s.byKey = next
}

// Active returns all instances ordered by key. Pure read, no network.
func (s *Set) Active() []Instance {
	out := make([]Instance, 0, len(s.byKey))
	for _, inst := range s.byKey {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len returns the number of tracked instances.
func (s *Set) Len() int { return len(s.byKey) }
