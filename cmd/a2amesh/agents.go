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

	"github.com/a2amesh/a2amesh/pkg/discovery"
)

// AgentsCmd runs discovery against the configured registry and prints the
// peers that answered.
type AgentsCmd struct{}

func (c *AgentsCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	disc := discovery.NewClient(discovery.Config{
		Sources: cfg.Agents,
		Timeout: cfg.Timeouts.Discovery,
	})

	cards := disc.Discover(context.Background())
	if len(cards) == 0 {
		fmt.Println("No agents discovered.")
		return nil
	}

	for _, card := range cards {
		fmt.Printf("%s\t%s\t%s\n", card.Name, card.URL, card.Description)
		for _, skill := range card.Skills {
			fmt.Printf("  - %s: %s\n", skill.Name, skill.Description)
		}
	}
	return nil
}
