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

// Package connector turns a (message, session) pair into a wire request to
// one remote agent. A Connector is built once per target and reused across
// calls; failures surface as the a2a client's transport and decode errors
// and are never retried here.
package connector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/a2amesh/a2amesh/pkg/a2a"
)

// TaskSender performs the wire call. *a2a.Client satisfies it.
type TaskSender interface {
	SendTask(ctx context.Context, baseURL, correlationID string, params a2a.TaskSendParams) (*a2a.Task, error)
}

// Connector delegates tasks to a single remote agent.
type Connector struct {
	card   a2a.AgentCard
	client TaskSender
}

// Config configures a Connector.
type Config struct {
	// Card identifies the remote agent. Required.
	Card a2a.AgentCard

	// Client performs the wire calls. Default: a fresh a2a.Client with the
	// given timeout.
	Client TaskSender

	// Timeout bounds each delegation when Client is not supplied.
	Timeout time.Duration
}

// New creates a connector for the agent described by cfg.Card.
func New(cfg Config) (*Connector, error) {
	if err := cfg.Card.Validate(); err != nil {
		return nil, fmt.Errorf("invalid target card: %w", err)
	}

	client := cfg.Client
	if client == nil {
		client = a2a.NewClient(&a2a.ClientConfig{Timeout: cfg.Timeout})
	}

	return &Connector{card: cfg.Card, client: client}, nil
}

// Name returns the remote agent's advertised name.
func (c *Connector) Name() string {
	return c.card.Name
}

// Card returns a copy of the target's card.
func (c *Connector) Card() a2a.AgentCard {
	return c.card
}

// SendTask delegates message to the remote agent under sessionID and
// returns the remote task. Every call builds a fresh correlation id; the
// session id is passed through unchanged so the remote side sees one
// continuous conversation.
func (c *Connector) SendTask(ctx context.Context, message, sessionID string) (*a2a.Task, error) {
	correlationID := uuid.NewString()
	params := a2a.TaskSendParams{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Message:   a2a.NewTextMessage(a2a.MessageRoleUser, message),
	}

	remoteTask, err := c.client.SendTask(ctx, c.card.URL, correlationID, params)
	if err != nil {
		return nil, fmt.Errorf("delegation to %s failed: %w", c.card.Name, err)
	}

	slog.Debug("Delegated task to remote agent",
		"agent", c.card.Name,
		"task", params.ID,
		"session", sessionID,
	)
	return remoteTask, nil
}
