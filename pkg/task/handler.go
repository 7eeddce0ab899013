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

package task

import (
	"context"

	"github.com/a2amesh/a2amesh/pkg/a2a"
)

// Handler processes a decoded tasks/send request and returns the resulting
// task. The server routes every inbound request through a Handler.
type Handler interface {
	OnSendTask(ctx context.Context, req *a2a.SendTaskRequest) (*a2a.Task, error)
}

// Invoker produces the agent's reply text for one user message. It is the
// narrow seam to whatever generates content: an LLM runtime, a fixed
// function, or an orchestrator fan-out. Implementations must be safe for
// concurrent sessions.
type Invoker interface {
	Invoke(ctx context.Context, text, sessionID string) (string, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, text, sessionID string) (string, error)

func (f InvokerFunc) Invoke(ctx context.Context, text, sessionID string) (string, error) {
	return f(ctx, text, sessionID)
}

// Echo repeats the inbound text back. Standalone nodes with no downstream
// capabilities serve it as their invoker.
var Echo = InvokerFunc(func(ctx context.Context, text, sessionID string) (string, error) {
	return text, nil
})

// AgentHandler is the standard leaf handler: store the inbound message,
// invoke the agent, append the reply, return the task. The non-streaming
// flow moves straight from submitted to completed.
type AgentHandler struct {
	manager *Manager
	invoker Invoker
}

// NewAgentHandler builds a Handler around manager and invoker.
func NewAgentHandler(manager *Manager, invoker Invoker) *AgentHandler {
	return &AgentHandler{manager: manager, invoker: invoker}
}

// OnSendTask implements Handler.
func (h *AgentHandler) OnSendTask(ctx context.Context, req *a2a.SendTaskRequest) (*a2a.Task, error) {
	stored, err := h.manager.Upsert(req.Params.SessionID, req.Params.Message)
	if err != nil {
		return nil, err
	}

	reply, err := h.invoker.Invoke(ctx, req.Params.Message.Text(), stored.SessionID)
	if err != nil {
		failed, ferr := h.manager.AppendReply(
			stored.SessionID,
			a2a.NewTextMessage(a2a.MessageRoleAgent, err.Error()),
			a2a.TaskStateFailed,
		)
		if ferr != nil {
			return nil, ferr
		}
		return &failed, err
	}

	done, err := h.manager.AppendReply(
		stored.SessionID,
		a2a.NewTextMessage(a2a.MessageRoleAgent, reply),
		a2a.TaskStateCompleted,
	)
	if err != nil {
		return nil, err
	}
	return &done, nil
}
