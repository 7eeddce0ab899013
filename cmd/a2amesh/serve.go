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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/a2amesh/a2amesh/pkg/a2a"
	"github.com/a2amesh/a2amesh/pkg/config"
	"github.com/a2amesh/a2amesh/pkg/discovery"
	"github.com/a2amesh/a2amesh/pkg/mcp"
	"github.com/a2amesh/a2amesh/pkg/orchestrator"
	"github.com/a2amesh/a2amesh/pkg/server"
	"github.com/a2amesh/a2amesh/pkg/task"
)

// ServeCmd starts the node server: discover peers and tools, build the
// orchestrator, and serve the task-send endpoint.
type ServeCmd struct {
	Host string `help:"Override listen host."`
	Port int    `help:"Override listen port."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	orch, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Card:    nodeCard(cfg),
		Handler: orch,
		Addr:    cfg.ListenAddr(),
	})
	if err != nil {
		return err
	}

	go func() {
		<-sigCh
		slog.Info("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			slog.Error("Shutdown failed", "error", err)
		}
		cancel()
	}()

	return srv.Start()
}

// buildOrchestrator wires discovery, the tool gateway, and the capability
// registry into one handler.
func buildOrchestrator(ctx context.Context, cfg *config.Config) (*orchestrator.Orchestrator, error) {
	orch := orchestrator.New(orchestrator.Config{
		Manager: task.NewManager(),
		Timeout: cfg.Timeouts.Request,
	})

	disc := discovery.NewClient(discovery.Config{
		Sources: cfg.Agents,
		Timeout: cfg.Timeouts.Discovery,
	})
	cards := disc.Discover(ctx)
	if err := orch.RegisterAgents(cards); err != nil {
		return nil, err
	}

	if len(cfg.MCPServers) > 0 {
		servers := make(map[string]mcp.Server, len(cfg.MCPServers))
		for name, s := range cfg.MCPServers {
			servers[name] = mcp.Server{Command: s.Command, Args: s.Args, Env: s.Env}
		}
		gateway := mcp.NewGateway(mcp.Config{Servers: servers})
		tools := gateway.DiscoverTools(ctx)
		if err := orch.RegisterTools(gateway, tools); err != nil {
			return nil, err
		}
	}

	slog.Info("Orchestrator ready", "capabilities", len(orch.List()))
	return orch, nil
}

// nodeCard builds this node's own agent card from config.
func nodeCard(cfg *config.Config) a2a.AgentCard {
	name := cfg.Server.Name
	description := cfg.Server.Description
	if description == "" {
		description = "Routes requests to peer agents and local tools."
	}

	return a2a.AgentCard{
		Name:               name,
		Description:        description,
		URL:                fmt.Sprintf("http://%s", cfg.ListenAddr()),
		Version:            cfg.Server.Version,
		DefaultInputModes:  []string{"text", "text/plain"},
		DefaultOutputModes: []string{"text", "text/plain"},
		Skills: []a2a.AgentSkill{
			{
				ID:          "route",
				Name:        "Route requests",
				Description: "Delegates work to discovered agents and tools.",
				Tags:        []string{"routing", "orchestration"},
			},
		},
	}
}
