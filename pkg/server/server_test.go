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

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2amesh/a2amesh/pkg/a2a"
	"github.com/a2amesh/a2amesh/pkg/task"
)

type stubHandler struct {
	task *a2a.Task
	err  error

	gotReq *a2a.SendTaskRequest
}

func (h *stubHandler) OnSendTask(ctx context.Context, req *a2a.SendTaskRequest) (*a2a.Task, error) {
	h.gotReq = req
	return h.task, h.err
}

func testCard() a2a.AgentCard {
	return a2a.AgentCard{
		Name:        "orchestrator",
		Description: "Routes requests",
		URL:         "http://localhost:8080",
		Version:     "1.0.0",
	}
}

func newTestServer(t *testing.T, handler task.Handler) *httptest.Server {
	t.Helper()
	s, err := New(Config{Card: testCard(), Handler: handler, Addr: "127.0.0.1:0"})
	require.NoError(t, err)

	srv := httptest.NewServer(s.httpServer.Handler)
	t.Cleanup(srv.Close)
	return srv
}

func postRPC(t *testing.T, url string, body []byte) (*http.Response, a2a.Response) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope a2a.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func TestServer_AgentCard(t *testing.T) {
	srv := newTestServer(t, &stubHandler{})

	resp, err := http.Get(srv.URL + a2a.WellKnownPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var card a2a.AgentCard
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&card))
	assert.Equal(t, "orchestrator", card.Name)
	assert.Equal(t, "1.0.0", card.Version)
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, &stubHandler{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_SendTask(t *testing.T) {
	handler := &stubHandler{
		task: &a2a.Task{
			ID:        "task-1",
			SessionID: "s1",
			Status:    a2a.TaskStatus{State: a2a.TaskStateCompleted},
			History: []a2a.Message{
				a2a.NewTextMessage(a2a.MessageRoleUser, "what time is it?"),
				a2a.NewTextMessage(a2a.MessageRoleAgent, "noon"),
			},
		},
	}
	srv := newTestServer(t, handler)

	body, err := json.Marshal(a2a.Request{
		JSONRPC: a2a.JSONRPCVersion,
		ID:      "corr-7",
		Method:  a2a.MethodSendTask,
		Params: mustMarshal(t, a2a.TaskSendParams{
			ID:        "task-1",
			SessionID: "s1",
			Message:   a2a.NewTextMessage(a2a.MessageRoleUser, "what time is it?"),
		}),
	})
	require.NoError(t, err)

	resp, envelope := postRPC(t, srv.URL, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "corr-7", envelope.ID)
	require.Nil(t, envelope.Error)

	var result a2a.Task
	require.NoError(t, json.Unmarshal(envelope.Result, &result))
	assert.Equal(t, "noon", result.LastReply())

	// The handler saw the decoded request.
	require.NotNil(t, handler.gotReq)
	assert.Equal(t, "s1", handler.gotReq.Params.SessionID)
}

func TestServer_RejectsMalformedJSON(t *testing.T) {
	srv := newTestServer(t, &stubHandler{})

	resp, envelope := postRPC(t, srv.URL, []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, a2a.CodeParseError, envelope.Error.Code)
}

func TestServer_UnsupportedMethodEchoesID(t *testing.T) {
	srv := newTestServer(t, &stubHandler{})

	resp, envelope := postRPC(t, srv.URL, []byte(`{"jsonrpc":"2.0","id":"corr-9","method":"tasks/cancel","params":{}}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, a2a.CodeMethodNotFound, envelope.Error.Code)
	assert.Equal(t, "corr-9", envelope.ID, "rejections still correlate to the caller's id")
}

func TestServer_HandlerErrors(t *testing.T) {
	body := []byte(`{"jsonrpc":"2.0","id":"corr-1","method":"tasks/send","params":{"id":"t","sessionId":"s1","message":{"role":"user","parts":[{"type":"text","text":"hi"}]}}}`)

	t.Run("format error maps to invalid params", func(t *testing.T) {
		srv := newTestServer(t, &stubHandler{err: &task.FormatError{Reason: "message has no text"}})

		resp, envelope := postRPC(t, srv.URL, body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, a2a.CodeInvalidParams, envelope.Error.Code)
		assert.Equal(t, "corr-1", envelope.ID)
	})

	t.Run("other errors map to internal error", func(t *testing.T) {
		srv := newTestServer(t, &stubHandler{err: errors.New("downstream exploded")})

		resp, envelope := postRPC(t, srv.URL, body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, a2a.CodeInternalError, envelope.Error.Code)
		assert.Equal(t, "Internal error", envelope.Error.Message)
		assert.Contains(t, envelope.Error.Data, "downstream exploded")
	})
}

func TestNew_Validation(t *testing.T) {
	t.Run("missing handler", func(t *testing.T) {
		_, err := New(Config{Card: testCard()})
		assert.Error(t, err)
	})

	t.Run("invalid card", func(t *testing.T) {
		_, err := New(Config{Card: a2a.AgentCard{}, Handler: &stubHandler{}})
		assert.Error(t, err)
	})
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}
