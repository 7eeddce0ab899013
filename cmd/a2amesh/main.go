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

// Command a2amesh runs one node of the agent mesh.
//
// Usage:
//
//	a2amesh serve --config config.yaml
//	a2amesh agents --config config.yaml
//	a2amesh version
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/a2amesh/a2amesh/pkg/config"
	"github.com/a2amesh/a2amesh/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Serve   ServeCmd   `cmd:"" help:"Start the node server."`
	Agents  AgentsCmd  `cmd:"" help:"Discover and list peer agents."`

	Config   string `short:"c" help:"Path to config file." type:"path" default:"config.yaml"`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogJSON  bool   `help:"Emit logs as JSON."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("a2amesh version %s\n", version)
	return nil
}

func main() {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("a2amesh"),
		kong.Description("Agent mesh node: discovery, delegation, and tool routing."),
		kong.UsageOnError(),
	)

	logger.Setup(logger.Config{Level: cli.LogLevel, JSON: cli.LogJSON})

	if err := kctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file named on the command line.
func loadConfig(cli *CLI) (*config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
