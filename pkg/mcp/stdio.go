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

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

const protocolVersion = "2024-11-05"

// stdioDialer spawns the server subprocess and speaks MCP over stdio using
// mcp-go.
type stdioDialer struct{}

func (stdioDialer) Dial(ctx context.Context, name string, srv Server) (Session, error) {
	mcpClient, err := client.NewStdioMCPClient(srv.Command, convertEnv(srv.Env), srv.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn %s: %w", srv.Command, err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		mcpClient.Close()
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	initReq := mcpgo.InitializeRequest{}
	initReq.Params.ClientInfo = mcpgo.Implementation{
		Name:    "a2amesh",
		Version: "0.1.0",
	}
	initReq.Params.ProtocolVersion = protocolVersion

	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		return nil, fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	return &stdioSession{server: name, client: mcpClient}, nil
}

type stdioSession struct {
	server string
	client *client.Client
}

func (s *stdioSession) ListTools(ctx context.Context) ([]ToolInfo, error) {
	resp, err := s.client.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("tools/list failed: %w", err)
	}

	tools := make([]ToolInfo, 0, len(resp.Tools))
	for _, t := range resp.Tools {
		tools = append(tools, ToolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: convertSchema(t.InputSchema),
			Server:      s.server,
		})
	}
	return tools, nil
}

func (s *stdioSession) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	resp, err := s.client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("tools/call failed: %w", err)
	}

	text := collectText(resp.Content)
	if resp.IsError {
		if text == "" {
			text = "unknown error"
		}
		return "", fmt.Errorf("tool reported error: %s", text)
	}
	return text, nil
}

func (s *stdioSession) Close() error {
	return s.client.Close()
}

// collectText joins the text content blocks of a tool result.
func collectText(content []mcpgo.Content) string {
	var texts []string
	for _, c := range content {
		if tc, ok := c.(mcpgo.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// convertSchema flattens the mcp-go schema struct into a plain map.
func convertSchema(schema mcpgo.ToolInputSchema) map[string]any {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// convertEnv converts an env map to "KEY=VALUE" form.
func convertEnv(env map[string]string) []string {
	if env == nil {
		return nil
	}
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}
