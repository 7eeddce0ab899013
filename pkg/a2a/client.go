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

package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every outbound call made by a Client.
const DefaultTimeout = 30 * time.Second

// TransportError reports a network-level failure talking to a remote agent:
// connection refused, timeout, or a non-2xx HTTP status.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error calling %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a reply that arrived but could not be parsed into the
// expected protocol shape.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Client is a protocol client for remote agents. It is safe for concurrent
// use and should be reused across calls rather than rebuilt.
type Client struct {
	httpClient *http.Client
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// Timeout bounds each outbound call. Default: DefaultTimeout.
	Timeout time.Duration
}

// NewClient creates a protocol client.
func NewClient(cfg *ClientConfig) *Client {
	timeout := DefaultTimeout
	if cfg != nil && cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchAgentCard retrieves the agent card from baseURL's well-known
// endpoint. Non-200 statuses and malformed bodies are errors; callers doing
// discovery treat them as "source absent".
func (c *Client) FetchAgentCard(ctx context.Context, baseURL string) (*AgentCard, error) {
	cardURL := strings.TrimSuffix(baseURL, "/") + WellKnownPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cardURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: cardURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{URL: cardURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var card AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, &DecodeError{URL: cardURL, Err: err}
	}
	if err := card.Validate(); err != nil {
		return nil, &DecodeError{URL: cardURL, Err: err}
	}

	return &card, nil
}

// SendTask performs a tasks/send call against the agent at baseURL and
// returns the remote task. Failures are never retried here; retry policy
// belongs to the caller.
func (c *Client) SendTask(ctx context.Context, baseURL, correlationID string, params TaskSendParams) (*Task, error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	body, err := json.Marshal(Request{
		JSONRPC: JSONRPCVersion,
		ID:      correlationID,
		Method:  MethodSendTask,
		Params:  rawParams,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &TransportError{
			URL: baseURL,
			Err: fmt.Errorf("unexpected status %s: %s", resp.Status, string(respBody)),
		}
	}

	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, &DecodeError{URL: baseURL, Err: err}
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("remote agent error: %w", rpcResp.Error)
	}

	var task Task
	if err := json.Unmarshal(rpcResp.Result, &task); err != nil {
		return nil, &DecodeError{URL: baseURL, Err: fmt.Errorf("result is not a task: %w", err)}
	}

	return &task, nil
}
