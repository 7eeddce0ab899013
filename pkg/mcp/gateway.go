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

// Package mcp exposes tools from external MCP servers as callable
// capabilities. Servers are spawned as subprocesses over stdio; every
// discovery pass and every invocation runs in its own short-lived session,
// so no state is held between calls.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Server is one tool-server launch command.
type Server struct {
	Command string
	Args    []string
	Env     map[string]string
}

// ToolInfo describes one discovered tool and the server that declared it.
type ToolInfo struct {
	Name        string
	Description string
	InputSchema map[string]any
	Server      string
}

// Session is a live connection to one tool server. Sessions are ephemeral:
// opened for one discovery pass or one call, then closed.
type Session interface {
	ListTools(ctx context.Context) ([]ToolInfo, error)
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
	Close() error
}

// Dialer opens a Session against a server. The default dialer spawns the
// server subprocess and speaks MCP over stdio.
type Dialer interface {
	Dial(ctx context.Context, name string, srv Server) (Session, error)
}

// Gateway unifies the tools of all configured servers behind one lookup.
type Gateway struct {
	servers map[string]Server
	order   []string
	dialer  Dialer

	mu       sync.RWMutex
	tools    []ToolInfo
	toolHome map[string]string // tool name -> server name
}

// Config configures a Gateway.
type Config struct {
	// Servers maps server name to launch command.
	Servers map[string]Server

	// Dialer overrides session establishment. Default: stdio transport.
	Dialer Dialer
}

// NewGateway creates a gateway over the configured servers. Construction
// never fails; servers that cannot be reached are skipped at discovery
// time.
func NewGateway(cfg Config) *Gateway {
	order := make([]string, 0, len(cfg.Servers))
	for name := range cfg.Servers {
		order = append(order, name)
	}
	sort.Strings(order)

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = stdioDialer{}
	}

	return &Gateway{
		servers:  cfg.Servers,
		order:    order,
		dialer:   dialer,
		toolHome: make(map[string]string),
	}
}

// DiscoverTools queries every configured server for its declared tool
// schemas and caches the result. A server that fails to respond is logged
// and skipped. Returns the full discovered set.
func (g *Gateway) DiscoverTools(ctx context.Context) []ToolInfo {
	var tools []ToolInfo
	toolHome := make(map[string]string)

	for _, name := range g.order {
		srv := g.servers[name]

		serverTools, err := g.listServerTools(ctx, name, srv)
		if err != nil {
			slog.Warn("Failed to list tools from MCP server", "server", name, "error", err)
			continue
		}

		for _, t := range serverTools {
			if _, taken := toolHome[t.Name]; taken {
				slog.Warn("Duplicate tool name, keeping first", "tool", t.Name, "server", name)
				continue
			}
			toolHome[t.Name] = name
			tools = append(tools, t)
		}
		slog.Info("Discovered MCP tools", "server", name, "tools", len(serverTools))
	}

	g.mu.Lock()
	g.tools = tools
	g.toolHome = toolHome
	g.mu.Unlock()

	return tools
}

// Tools returns the tools found by the last DiscoverTools pass.
func (g *Gateway) Tools() []ToolInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]ToolInfo, len(g.tools))
	copy(out, g.tools)
	return out
}

// Invoke calls toolName with args. The session lives for this one call:
// spawn, initialize, invoke, tear down.
func (g *Gateway) Invoke(ctx context.Context, toolName string, args map[string]any) (string, error) {
	g.mu.RLock()
	serverName, ok := g.toolHome[toolName]
	g.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("tool %q not known to gateway", toolName)
	}

	sess, err := g.dialer.Dial(ctx, serverName, g.servers[serverName])
	if err != nil {
		return "", fmt.Errorf("failed to reach MCP server %s: %w", serverName, err)
	}
	defer sess.Close()

	result, err := sess.CallTool(ctx, toolName, args)
	if err != nil {
		return "", fmt.Errorf("tool %s on %s: %w", toolName, serverName, err)
	}
	return result, nil
}

func (g *Gateway) listServerTools(ctx context.Context, name string, srv Server) ([]ToolInfo, error) {
	sess, err := g.dialer.Dial(ctx, name, srv)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	return sess.ListTools(ctx)
}
