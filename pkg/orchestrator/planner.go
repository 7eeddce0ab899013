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
	"errors"
	"strings"
)

// ErrNoRoute reports that the planner found no capability for the input.
var ErrNoRoute = errors.New("no capability matched input")

// Plan names the capability to dispatch and the payload to hand it.
type Plan struct {
	Capability string
	Payload    Payload
}

// Planner chooses a capability for an inbound request. This is the seam an
// LLM-driven planner plugs into; the orchestrator only requires that
// planning is side-effect free.
type Planner interface {
	Plan(ctx context.Context, text string) (Plan, error)
}

// PlannerFunc adapts a function to the Planner interface.
type PlannerFunc func(ctx context.Context, text string) (Plan, error)

func (f PlannerFunc) Plan(ctx context.Context, text string) (Plan, error) {
	return f(ctx, text)
}

// KeywordPlanner routes by scanning the input for registered capability
// names. Matching is case-insensitive on whole names and on their
// word-split fragments; among several matches the first-registered
// capability wins, mirroring the resolver's tie-break. The full input text
// is forwarded as the payload.
type KeywordPlanner struct {
	orch *Orchestrator
}

// NewKeywordPlanner creates the default planner for orch.
func NewKeywordPlanner(orch *Orchestrator) *KeywordPlanner {
	return &KeywordPlanner{orch: orch}
}

// Plan implements Planner.
func (p *KeywordPlanner) Plan(ctx context.Context, text string) (Plan, error) {
	input := strings.ToLower(text)

	for _, name := range p.orch.List() {
		if matchesInput(name, input) {
			return Plan{Capability: name, Payload: Payload{Text: text}}, nil
		}
	}
	return Plan{}, ErrNoRoute
}

// matchesInput reports whether the capability name, or any word-like
// fragment of it, occurs in the lowered input. Short fragments are ignored
// so names like "get_time" do not match on "get".
func matchesInput(name, input string) bool {
	if strings.Contains(input, strings.ToLower(name)) {
		return true
	}

	for _, fragment := range splitWords(name) {
		if len(fragment) >= 4 && strings.Contains(input, strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}

// splitWords breaks a capability name on separators and camelCase
// boundaries: "TellTimeAgent" and "tell_time_agent" both yield
// ["Tell", "Time", "Agent"]-shaped fragments.
func splitWords(name string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
		case r >= 'A' && r <= 'Z' && i > 0 && runes[i-1] >= 'a' && runes[i-1] <= 'z':
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return words
}
