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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchAgentCard(t *testing.T) {
	card := AgentCard{
		Name:        "TellTimeAgent",
		Description: "Tells the current time",
		URL:         "http://localhost:10002",
		Version:     "1.0.0",
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, WellKnownPath, r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(card))
	}))
	defer srv.Close()

	client := NewClient(nil)
	got, err := client.FetchAgentCard(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "TellTimeAgent", got.Name)
	assert.Equal(t, "Tells the current time", got.Description)
}

func TestClient_FetchAgentCard_Errors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewClient(nil).FetchAgentCard(context.Background(), srv.URL)
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json at all")) //nolint:errcheck
		}))
		defer srv.Close()

		_, err := NewClient(nil).FetchAgentCard(context.Background(), srv.URL)
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
	})

	t.Run("unreachable host", func(t *testing.T) {
		client := NewClient(&ClientConfig{Timeout: 200 * time.Millisecond})
		_, err := client.FetchAgentCard(context.Background(), "http://127.0.0.1:1")
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
	})
}

func TestClient_SendTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, JSONRPCVersion, req.JSONRPC)
		assert.Equal(t, MethodSendTask, req.Method)

		var params TaskSendParams
		require.NoError(t, json.Unmarshal(req.Params, &params))

		task := Task{
			ID:        params.ID,
			SessionID: params.SessionID,
			Status:    TaskStatus{State: TaskStateCompleted},
			History: []Message{
				params.Message,
				NewTextMessage(MessageRoleAgent, "it is noon"),
			},
		}
		w.Write(EncodeResponse(task, req.ID)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(nil)
	task, err := client.SendTask(context.Background(), srv.URL, "corr-1", TaskSendParams{
		ID:        "task-1",
		SessionID: "s1",
		Message:   NewTextMessage(MessageRoleUser, "what time is it?"),
	})
	require.NoError(t, err)

	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, "s1", task.SessionID)
	assert.Equal(t, TaskStateCompleted, task.Status.State)
	assert.Equal(t, "it is noon", task.LastReply())
}

func TestClient_SendTask_Errors(t *testing.T) {
	params := TaskSendParams{
		ID:      "task-1",
		Message: NewTextMessage(MessageRoleUser, "hi"),
	}

	t.Run("transport failure", func(t *testing.T) {
		client := NewClient(&ClientConfig{Timeout: 200 * time.Millisecond})
		_, err := client.SendTask(context.Background(), "http://127.0.0.1:1", "c", params)
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
	})

	t.Run("non-json reply", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>oops</html>")) //nolint:errcheck
		}))
		defer srv.Close()

		_, err := NewClient(nil).SendTask(context.Background(), srv.URL, "c", params)
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
	})

	t.Run("result not a task", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"jsonrpc":"2.0","id":"c","result":[1,2,3]}`)) //nolint:errcheck
		}))
		defer srv.Close()

		_, err := NewClient(nil).SendTask(context.Background(), srv.URL, "c", params)
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
	})

	t.Run("remote error envelope", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(EncodeError(&Error{Code: CodeInternalError, Message: "Internal error", Data: "downstream broke"}, "c")) //nolint:errcheck
		}))
		defer srv.Close()

		_, err := NewClient(nil).SendTask(context.Background(), srv.URL, "c", params)
		require.Error(t, err)

		var rpcErr *Error
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, CodeInternalError, rpcErr.Code)
	})
}
