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

package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2amesh/a2amesh/pkg/a2a"
)

func cardServer(t *testing.T, card a2a.AgentCard) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, a2a.WellKnownPath, r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(card))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDiscover_PartialFailure(t *testing.T) {
	// One healthy source, one that never answers: exactly the healthy card
	// comes back and Discover does not fail.
	healthy := cardServer(t, a2a.AgentCard{Name: "TimeAgent", URL: "http://a", Version: "1.0"})

	client := NewClient(Config{
		Sources: []string{healthy.URL, "http://127.0.0.1:1"},
		Timeout: 500 * time.Millisecond,
	})

	cards := client.Discover(context.Background())
	require.Len(t, cards, 1)
	assert.Equal(t, "TimeAgent", cards[0].Name)
}

func TestDiscover_AllSources(t *testing.T) {
	first := cardServer(t, a2a.AgentCard{Name: "TellTimeAgent", URL: "http://a"})
	second := cardServer(t, a2a.AgentCard{Name: "GreetingAgent", URL: "http://b"})

	client := NewClient(Config{Sources: []string{first.URL, second.URL}})

	cards := client.Discover(context.Background())
	require.Len(t, cards, 2)
	// Source order is preserved regardless of which fetch finishes first.
	assert.Equal(t, "TellTimeAgent", cards[0].Name)
	assert.Equal(t, "GreetingAgent", cards[1].Name)
}

func TestDiscover_EmptySources(t *testing.T) {
	client := NewClient(Config{})
	assert.Empty(t, client.Discover(context.Background()))
}

func TestDiscover_MalformedCardSkipped(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": 42}`)) //nolint:errcheck
	}))
	t.Cleanup(broken.Close)

	healthy := cardServer(t, a2a.AgentCard{Name: "GreetingAgent", URL: "http://b"})

	client := NewClient(Config{Sources: []string{broken.URL, healthy.URL}})

	cards := client.Discover(context.Background())
	require.Len(t, cards, 1)
	assert.Equal(t, "GreetingAgent", cards[0].Name)
}

func TestSources_ReturnsCopy(t *testing.T) {
	client := NewClient(Config{Sources: []string{"http://a", "http://b"}})

	sources := client.Sources()
	sources[0] = "mutated"

	assert.Equal(t, []string{"http://a", "http://b"}, client.Sources())
}
