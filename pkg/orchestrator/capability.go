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

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/a2amesh/a2amesh/pkg/a2a"
	"github.com/a2amesh/a2amesh/pkg/connector"
	"github.com/a2amesh/a2amesh/pkg/mcp"
)

// Payload is the input handed to a capability. Text carries the user-facing
// message; Args carries structured tool arguments when the caller has them.
type Payload struct {
	Text string
	Args map[string]any
}

// Capability is one named, callable target in the orchestrator's unified
// namespace. Both remote agents and local tools implement it.
type Capability interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, p Payload, sessionID string) (string, error)
}

// ============================================================================
// AGENT-BACKED CAPABILITY
// ============================================================================

// agentCapability delegates to a remote agent through a connector. The
// connector is built lazily on first use and reused for the life of the
// process, so a name keeps resolving to the same remote target until the
// registry is explicitly refreshed.
type agentCapability struct {
	card    a2a.AgentCard
	timeout time.Duration
	client  connector.TaskSender

	once sync.Once
	conn *connector.Connector
	err  error
}

func newAgentCapability(card a2a.AgentCard, client connector.TaskSender, timeout time.Duration) *agentCapability {
	return &agentCapability{card: card, client: client, timeout: timeout}
}

func (c *agentCapability) Name() string {
	return c.card.Name
}

func (c *agentCapability) Description() string {
	return c.card.Description
}

func (c *agentCapability) connector() (*connector.Connector, error) {
	c.once.Do(func() {
		c.conn, c.err = connector.New(connector.Config{
			Card:    c.card,
			Client:  c.client,
			Timeout: c.timeout,
		})
	})
	return c.conn, c.err
}

// Invoke sends the payload text to the remote agent and returns the text of
// the last history entry of the returned task. An empty history yields an
// empty string, never an error.
func (c *agentCapability) Invoke(ctx context.Context, p Payload, sessionID string) (string, error) {
	conn, err := c.connector()
	if err != nil {
		return "", err
	}

	text := p.Text
	if text == "" && p.Args != nil {
		encoded, err := json.Marshal(p.Args)
		if err != nil {
			return "", fmt.Errorf("failed to encode args for %s: %w", c.card.Name, err)
		}
		text = string(encoded)
	}

	remoteTask, err := conn.SendTask(ctx, text, sessionID)
	if err != nil {
		return "", err
	}
	return remoteTask.LastReply(), nil
}

// ============================================================================
// TOOL-BACKED CAPABILITY
// ============================================================================

// ToolInvoker invokes one named tool. *mcp.Gateway satisfies it.
type ToolInvoker interface {
	Invoke(ctx context.Context, toolName string, args map[string]any) (string, error)
}

// toolCapability exposes one discovered tool as a capability.
type toolCapability struct {
	info    mcp.ToolInfo
	gateway ToolInvoker
}

func newToolCapability(info mcp.ToolInfo, gateway ToolInvoker) *toolCapability {
	return &toolCapability{info: info, gateway: gateway}
}

func (c *toolCapability) Name() string {
	return c.info.Name
}

func (c *toolCapability) Description() string {
	return c.info.Description
}

// Invoke calls the tool. Structured args are passed through as-is; bare
// text payloads are decoded as a JSON object when they parse as one, and
// otherwise wrapped as {"input": text}.
func (c *toolCapability) Invoke(ctx context.Context, p Payload, sessionID string) (string, error) {
	args := p.Args
	if args == nil {
		args = map[string]any{}
		if p.Text != "" {
			var decoded map[string]any
			if err := json.Unmarshal([]byte(p.Text), &decoded); err == nil {
				args = decoded
			} else {
				args["input"] = p.Text
			}
		}
	}

	return c.gateway.Invoke(ctx, c.info.Name, args)
}
