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

// Package orchestrator unifies remote agents and external tools into one
// named-capability space and routes inbound requests to them.
//
// Name resolution is deliberately forgiving: callers are often LLM-driven
// planners that mangle capitalization or use fragments of a name. The rules
// stay deterministic: an exact case-insensitive match always wins, and
// among substring matches the first-registered capability wins.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/a2amesh/a2amesh/pkg/a2a"
	"github.com/a2amesh/a2amesh/pkg/connector"
	"github.com/a2amesh/a2amesh/pkg/mcp"
	"github.com/a2amesh/a2amesh/pkg/registry"
	"github.com/a2amesh/a2amesh/pkg/task"
)

// ErrUnknownCapability reports a routing miss: the name resolved to nothing
// even after the substring fallback.
var ErrUnknownCapability = errors.New("unknown capability")

// Orchestrator owns the capability namespace and the connector cache.
type Orchestrator struct {
	caps    *registry.OrderedRegistry[Capability]
	manager *task.Manager
	planner Planner
	client  connector.TaskSender
	timeout time.Duration
}

// Config configures an Orchestrator.
type Config struct {
	// Manager stores this node's own tasks. Default: a fresh Manager.
	Manager *task.Manager

	// Planner chooses a capability for each inbound request.
	// Default: KeywordPlanner.
	Planner Planner

	// Client is shared by all agent connectors. Default: per-connector
	// clients with Timeout.
	Client connector.TaskSender

	// Timeout bounds each downstream delegation.
	Timeout time.Duration
}

// New creates an empty orchestrator. Capabilities are added with
// RegisterAgents and RegisterTools.
func New(cfg Config) *Orchestrator {
	manager := cfg.Manager
	if manager == nil {
		manager = task.NewManager()
	}

	o := &Orchestrator{
		caps:    registry.NewOrderedRegistry[Capability](),
		manager: manager,
		client:  cfg.Client,
		timeout: cfg.Timeout,
	}

	o.planner = cfg.Planner
	if o.planner == nil {
		o.planner = NewKeywordPlanner(o)
	}
	return o
}

// RegisterAgents adds one capability per discovered agent card, keyed by
// agent name, in the given order. Connectors are constructed lazily on
// first dispatch and reused afterwards.
func (o *Orchestrator) RegisterAgents(cards []a2a.AgentCard) error {
	for _, card := range cards {
		cap := newAgentCapability(card, o.client, o.timeout)
		if err := o.caps.Register(card.Name, cap); err != nil {
			return fmt.Errorf("failed to register agent %s: %w", card.Name, err)
		}
		slog.Info("Registered agent capability", "name", card.Name, "url", card.URL)
	}
	return nil
}

// RegisterTools adds one capability per discovered tool, keyed by tool
// name, in the given order.
func (o *Orchestrator) RegisterTools(gateway ToolInvoker, tools []mcp.ToolInfo) error {
	for _, info := range tools {
		cap := newToolCapability(info, gateway)
		if err := o.caps.Register(info.Name, cap); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", info.Name, err)
		}
		slog.Info("Registered tool capability", "name", info.Name, "server", info.Server)
	}
	return nil
}

// List returns the currently resolvable capability names in registration
// order.
func (o *Orchestrator) List() []string {
	return o.caps.Names()
}

// Resolve maps a requested name to a capability. Resolution order:
//
//  1. exact case-insensitive match on the registered name, ignoring
//     separators, so "tell time agent" resolves to TellTimeAgent,
//  2. case-insensitive substring match, first-registered wins.
//
// The substring tie-break is deliberate: it keeps resolution deterministic
// without rejecting near-miss names from calling planners.
func (o *Orchestrator) Resolve(name string) (Capability, error) {
	flat := flattenName(name)
	if flat == "" {
		return nil, fmt.Errorf("empty name: %w", ErrUnknownCapability)
	}

	names := o.caps.Names()

	for _, registered := range names {
		if flattenName(registered) == flat {
			cap, _ := o.caps.Get(registered)
			return cap, nil
		}
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	for _, registered := range names {
		if strings.Contains(strings.ToLower(registered), needle) {
			cap, _ := o.caps.Get(registered)
			return cap, nil
		}
	}

	return nil, fmt.Errorf("capability %q: %w", name, ErrUnknownCapability)
}

// flattenName lowers a capability name and strips separator characters, so
// spaced, snake_case, and CamelCase spellings of one name compare equal.
func flattenName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '_', '-', '.':
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Dispatch resolves name and invokes the target with the payload. The given
// session id is passed through to the target unchanged: one end-user
// conversation keeps one session id across every dispatch, so downstream
// agents see continuous context.
func (o *Orchestrator) Dispatch(ctx context.Context, name string, p Payload, sessionID string) (string, error) {
	cap, err := o.Resolve(name)
	if err != nil {
		return "", err
	}

	slog.Debug("Dispatching capability", "requested", name, "resolved", cap.Name(), "session", sessionID)
	return cap.Invoke(ctx, p, sessionID)
}

// OnSendTask implements task.Handler, letting the orchestrator sit behind
// the protocol server. The inbound message is stored, the planner picks a
// capability, the dispatch result is appended as the agent reply, and the
// finished task is returned.
func (o *Orchestrator) OnSendTask(ctx context.Context, req *a2a.SendTaskRequest) (*a2a.Task, error) {
	stored, err := o.manager.Upsert(req.Params.SessionID, req.Params.Message)
	if err != nil {
		return nil, err
	}
	sessionID := stored.SessionID

	text := req.Params.Message.Text()

	plan, err := o.planner.Plan(ctx, text)
	if errors.Is(err, ErrNoRoute) {
		// No capability matched; answer with what this node can do instead
		// of failing the task.
		reply := "No matching capability. Available: " + strings.Join(o.List(), ", ")
		done, aerr := o.manager.AppendReply(sessionID, a2a.NewTextMessage(a2a.MessageRoleAgent, reply), a2a.TaskStateCompleted)
		if aerr != nil {
			return nil, aerr
		}
		return &done, nil
	}
	if err != nil {
		return nil, err
	}

	result, err := o.Dispatch(ctx, plan.Capability, plan.Payload, sessionID)
	if err != nil {
		failed, aerr := o.manager.AppendReply(sessionID, a2a.NewTextMessage(a2a.MessageRoleAgent, err.Error()), a2a.TaskStateFailed)
		if aerr != nil {
			return nil, aerr
		}
		return &failed, err
	}

	done, err := o.manager.AppendReply(sessionID, a2a.NewTextMessage(a2a.MessageRoleAgent, result), a2a.TaskStateCompleted)
	if err != nil {
		return nil, err
	}
	return &done, nil
}
