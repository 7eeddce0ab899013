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

// Package a2a implements the agent-to-agent wire protocol: agent cards for
// discovery, tasks and messages for delegation, and the JSON-RPC envelope
// that carries them over HTTP.
package a2a

import (
	"fmt"
	"time"
)

// WellKnownPath is the path agents serve their card on, relative to their
// base URL.
const WellKnownPath = "/.well-known/agent.json"

// ============================================================================
// AGENT CARD - Agent Discovery & Capability Advertisement
// ============================================================================

// AgentCard describes an agent's identity, endpoints, and skills. Cards are
// immutable once fetched; re-running discovery is the only way to observe
// changes.
type AgentCard struct {
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	URL                string            `json:"url"`
	Version            string            `json:"version"`
	DefaultInputModes  []string          `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string          `json:"defaultOutputModes,omitempty"`
	Capabilities       AgentCapabilities `json:"capabilities"`
	Skills             []AgentSkill      `json:"skills,omitempty"`
}

// AgentCapabilities describes optional protocol features an agent supports.
type AgentCapabilities struct {
	Streaming         bool `json:"streaming,omitempty"`
	PushNotifications bool `json:"pushNotifications,omitempty"`
}

// AgentSkill describes one skill an agent advertises. Purely descriptive;
// the only identity requirement is that ID is unique within one card.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// Validate checks the card carries the minimum identity needed to route to it.
func (c *AgentCard) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("agent card missing name")
	}
	if c.URL == "" {
		return fmt.Errorf("agent card %q missing url", c.Name)
	}
	return nil
}

// ============================================================================
// TASK - Unit of Work
// ============================================================================

// TaskState represents the lifecycle state of a task.
type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input_required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateFailed        TaskState = "failed"
)

// IsTerminal returns whether no further transitions are allowed from s.
func (s TaskState) IsTerminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed
}

// TaskStatus is the current state of a task plus an optional trailing
// message (used for input_required prompts and failure reasons).
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Task is a unit of delegated work. History is append-only for the life of
// the task and reflects causal order of arrival.
type Task struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId,omitempty"`
	Status    TaskStatus `json:"status"`
	History   []Message  `json:"history"`
}

// LastReply returns the text of the last history entry, or the empty string
// when the history is empty. Remote replies with no content are not errors.
func (t *Task) LastReply() string {
	if t == nil || len(t.History) == 0 {
		return ""
	}
	return t.History[len(t.History)-1].Text()
}

// ============================================================================
// MESSAGE - Conversation Content
// ============================================================================

// MessageRole identifies the sender of a message.
type MessageRole string

const (
	MessageRoleUser  MessageRole = "user"
	MessageRoleAgent MessageRole = "agent"
)

// Message is one conversation turn. Value type, immutable after construction.
type Message struct {
	Role  MessageRole `json:"role"`
	Parts []Part      `json:"parts"`
}

// Part is a single content part of a message. Only text parts are carried by
// this layer.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// PartTypeText is the discriminator value for text parts.
const PartTypeText = "text"

// NewTextMessage builds a single-part text message.
func NewTextMessage(role MessageRole, text string) Message {
	return Message{
		Role:  role,
		Parts: []Part{{Type: PartTypeText, Text: text}},
	}
}

// Text concatenates the text of all parts.
func (m Message) Text() string {
	switch len(m.Parts) {
	case 0:
		return ""
	case 1:
		return m.Parts[0].Text
	}
	var out string
	for _, p := range m.Parts {
		out += p.Text
	}
	return out
}

// ============================================================================
// RPC METHOD PARAMETERS
// ============================================================================

// MethodSendTask is the JSON-RPC method for task delegation.
const MethodSendTask = "tasks/send"

// TaskSendParams are the parameters of a tasks/send request.
type TaskSendParams struct {
	ID        string  `json:"id"`
	SessionID string  `json:"sessionId,omitempty"`
	Message   Message `json:"message"`
}
