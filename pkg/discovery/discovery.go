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

// Package discovery locates peer agents. A Client holds a static list of
// base URLs and queries each one's well-known card endpoint; peers that do
// not answer are skipped, never fatal. There are no push notifications:
// re-running Discover is the only way to observe newly registered or
// removed peers.
package discovery

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/a2amesh/a2amesh/pkg/a2a"
)

// Client discovers agents from a fixed set of sources.
type Client struct {
	sources []string
	fetcher CardFetcher
	timeout time.Duration
}

// CardFetcher fetches one agent card. *a2a.Client satisfies it.
type CardFetcher interface {
	FetchAgentCard(ctx context.Context, baseURL string) (*a2a.AgentCard, error)
}

// Config configures a discovery Client.
type Config struct {
	// Sources is the list of peer base URLs. May be empty.
	Sources []string

	// Fetcher performs the card fetches. Default: a fresh a2a.Client.
	Fetcher CardFetcher

	// Timeout bounds each individual card fetch.
	Timeout time.Duration
}

// NewClient creates a discovery client.
func NewClient(cfg Config) *Client {
	fetcher := cfg.Fetcher
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	if fetcher == nil {
		fetcher = a2a.NewClient(&a2a.ClientConfig{Timeout: timeout})
	}
	return &Client{
		sources: cfg.Sources,
		fetcher: fetcher,
		timeout: timeout,
	}
}

// Sources returns the configured base URLs.
func (c *Client) Sources() []string {
	out := make([]string, len(c.sources))
	copy(out, c.sources)
	return out
}

// Discover queries every source concurrently and returns the cards of the
// sources that answered, in source order. A failing source is logged and
// skipped; with N sources of which K fail the result has exactly N-K cards.
// Discover itself never fails.
func (c *Client) Discover(ctx context.Context) []a2a.AgentCard {
	if len(c.sources) == 0 {
		return nil
	}

	results := make([]*a2a.AgentCard, len(c.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, source := range c.sources {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, c.timeout)
			defer cancel()

			card, err := c.fetcher.FetchAgentCard(fetchCtx, source)
			if err != nil {
				slog.Warn("Failed to discover agent", "source", source, "error", err)
				return nil
			}

			slog.Info("Discovered agent", "source", source, "name", card.Name)
			results[i] = card
			return nil
		})
	}
	// Workers absorb their own failures, so Wait cannot return an error.
	_ = g.Wait()

	cards := make([]a2a.AgentCard, 0, len(c.sources))
	for _, card := range results {
		if card != nil {
			cards = append(cards, *card)
		}
	}
	return cards
}
