// Copyright 2025 The A2AMesh Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package task owns the task lifecycle. The Manager keeps one task per
// session, serializes all mutation per task, and enforces the state
// machine:
//
//	submitted --> working --> input_required --> working
//	submitted/working --> completed
//	submitted/working --> failed
//
// External components only ever receive snapshots; the stored task is never
// handed out by reference.
package task

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/a2amesh/a2amesh/pkg/a2a"
)

// ErrTaskNotFound reports an operation against a session with no task.
var ErrTaskNotFound = errors.New("task not found")

// FormatError reports a request missing required message fields. It is
// returned before any stored state is mutated.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("task format error: %s", e.Reason)
}

// TransitionError reports a status change along an edge the state machine
// does not allow.
type TransitionError struct {
	From a2a.TaskState
	To   a2a.TaskState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid task transition %s -> %s", e.From, e.To)
}

var allowedTransitions = map[a2a.TaskState][]a2a.TaskState{
	a2a.TaskStateSubmitted:     {a2a.TaskStateWorking, a2a.TaskStateCompleted, a2a.TaskStateFailed},
	a2a.TaskStateWorking:       {a2a.TaskStateInputRequired, a2a.TaskStateCompleted, a2a.TaskStateFailed},
	a2a.TaskStateInputRequired: {a2a.TaskStateWorking},
}

func transitionAllowed(from, to a2a.TaskState) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// entry pairs a stored task with its own lock so sessions never contend
// with each other.
type entry struct {
	mu   sync.Mutex
	task a2a.Task
}

// Manager is an in-memory task store keyed by session id.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		entries: make(map[string]*entry),
	}
}

// lookup returns the entry for sessionID, creating it when create is set.
// Creation is atomic: concurrent calls with the same unseen session id
// observe a single entry.
func (m *Manager) lookup(sessionID string, create bool) (*entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[sessionID]
	if !ok && create {
		e = &entry{}
		m.entries[sessionID] = e
		return e, false
	}
	return e, ok
}

// Upsert creates the task for sessionID on first use and returns a snapshot
// of it. Re-sending with the same session id appends message to the
// existing history instead of creating a second task. A message with no
// text is rejected with a FormatError before anything is stored.
func (m *Manager) Upsert(sessionID string, message a2a.Message) (a2a.Task, error) {
	if message.Text() == "" {
		return a2a.Task{}, &FormatError{Reason: "message has no text"}
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	e, _ := m.lookup(sessionID, true)

	e.mu.Lock()
	defer e.mu.Unlock()

	// Whichever caller wins the entry lock first initializes the task; every
	// later caller sees a task id and appends.
	if e.task.ID == "" {
		e.task = a2a.Task{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Status: a2a.TaskStatus{
				State:     a2a.TaskStateSubmitted,
				Timestamp: time.Now(),
			},
			History: []a2a.Message{message},
		}
	} else {
		e.task.History = append(e.task.History, message)
	}

	return snapshot(&e.task), nil
}

// AppendReply atomically appends reply to the task's history and moves the
// task to newState. The append and the transition happen under one lock, so
// no reader can observe one without the other.
func (m *Manager) AppendReply(sessionID string, reply a2a.Message, newState a2a.TaskState) (a2a.Task, error) {
	e, ok := m.lookup(sessionID, false)
	if !ok {
		return a2a.Task{}, fmt.Errorf("session %s: %w", sessionID, ErrTaskNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	from := e.task.Status.State
	if from != newState && !transitionAllowed(from, newState) {
		return a2a.Task{}, &TransitionError{From: from, To: newState}
	}

	e.task.History = append(e.task.History, reply)
	e.task.Status = a2a.TaskStatus{
		State:     newState,
		Timestamp: time.Now(),
	}

	return snapshot(&e.task), nil
}

// SetState transitions the task without touching history, for handlers that
// surface intermediate states such as working or input_required. The
// built-in handlers answer in one shot and move straight to a terminal
// state via AppendReply.
func (m *Manager) SetState(sessionID string, newState a2a.TaskState) (a2a.Task, error) {
	e, ok := m.lookup(sessionID, false)
	if !ok {
		return a2a.Task{}, fmt.Errorf("session %s: %w", sessionID, ErrTaskNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	from := e.task.Status.State
	if from != newState && !transitionAllowed(from, newState) {
		return a2a.Task{}, &TransitionError{From: from, To: newState}
	}

	e.task.Status = a2a.TaskStatus{State: newState, Timestamp: time.Now()}
	return snapshot(&e.task), nil
}

// Get returns a consistent snapshot of the task for sessionID.
func (m *Manager) Get(sessionID string) (a2a.Task, error) {
	e, ok := m.lookup(sessionID, false)
	if !ok {
		return a2a.Task{}, fmt.Errorf("session %s: %w", sessionID, ErrTaskNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(&e.task), nil
}

// Count returns the number of stored tasks.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// snapshot deep-copies t so callers never share the stored history slice.
func snapshot(t *a2a.Task) a2a.Task {
	out := *t
	out.History = make([]a2a.Message, len(t.History))
	copy(out.History, t.History)
	return out
}
