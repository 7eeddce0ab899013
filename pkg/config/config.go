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

// Package config loads the static node configuration: the node's own
// identity, the registry of peer agent base URLs, and the tool-server
// launch commands. Configuration is loaded once at startup; changing the
// peer set at runtime requires re-running discovery.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file leaves fields unset.
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8080
	DefaultRequestTimeout = 30 * time.Second
	DefaultDiscoveryTime  = 5 * time.Second
)

// Config is the root configuration for one node.
type Config struct {
	Server     ServerConfig               `yaml:"server"`
	Agents     []string                   `yaml:"agents"`
	MCPServers map[string]MCPServerConfig `yaml:"mcpServers"`
	Timeouts   TimeoutConfig              `yaml:"timeouts"`
	Log        LogConfig                  `yaml:"log"`
}

// ServerConfig describes the node's own identity and listen address. Name,
// Description, and Version feed the agent card served at the well-known
// endpoint.
type ServerConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
}

// MCPServerConfig is one tool-server launch command.
type MCPServerConfig struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
}

// TimeoutConfig bounds outbound network calls.
type TimeoutConfig struct {
	// Discovery bounds each agent-card fetch.
	Discovery time.Duration `yaml:"discovery"`

	// Request bounds each tasks/send delegation and tool invocation.
	Request time.Duration `yaml:"request"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load reads and parses the YAML config at path, expands ${ENV_VAR}
// references, and applies defaults. A missing file is an error; an empty
// file yields a default config.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	expanded := expandEnvVars(string(raw))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = "a2amesh"
	}
	if c.Server.Version == "" {
		c.Server.Version = "0.1.0"
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Timeouts.Discovery == 0 {
		c.Timeouts.Discovery = DefaultDiscoveryTime
	}
	if c.Timeouts.Request == 0 {
		c.Timeouts.Request = DefaultRequestTimeout
	}
}

// Validate rejects configs that cannot produce a working node.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	for name, srv := range c.MCPServers {
		if srv.Command == "" {
			return fmt.Errorf("mcp server %q missing command", name)
		}
	}
	return nil
}

// ListenAddr returns the host:port the server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
