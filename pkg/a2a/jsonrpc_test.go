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
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSendBody(t *testing.T, id string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  MethodSendTask,
		"params": map[string]any{
			"id":        "task-1",
			"sessionId": "session-1",
			"message": map[string]any{
				"role":  "user",
				"parts": []map[string]any{{"type": "text", "text": "hello"}},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest(validSendBody(t, "corr-1"))
	require.NoError(t, err)

	assert.Equal(t, "corr-1", req.ID)
	assert.Equal(t, "task-1", req.Params.ID)
	assert.Equal(t, "session-1", req.Params.SessionID)
	assert.Equal(t, "hello", req.Params.Message.Text())
	assert.Equal(t, MessageRoleUser, req.Params.Message.Role)
}

func TestDecodeRequest_Errors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantCode    int
		unsupported bool
	}{
		{
			name:     "invalid json",
			body:     `{not json`,
			wantCode: CodeParseError,
		},
		{
			name:     "wrong version",
			body:     `{"jsonrpc":"1.0","id":"x","method":"tasks/send","params":{}}`,
			wantCode: CodeInvalidRequest,
		},
		{
			name:        "unknown method",
			body:        `{"jsonrpc":"2.0","id":"x","method":"tasks/cancel","params":{}}`,
			unsupported: true,
		},
		{
			name:     "malformed params",
			body:     `{"jsonrpc":"2.0","id":"x","method":"tasks/send","params":[1,2]}`,
			wantCode: CodeInvalidParams,
		},
		{
			name:        "missing message",
			body:        `{"jsonrpc":"2.0","id":"x","method":"tasks/send","params":{"id":"t"}}`,
			unsupported: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest([]byte(tt.body))
			require.Error(t, err)

			if tt.unsupported {
				assert.ErrorIs(t, err, ErrUnsupported)
				return
			}

			var protoErr *ProtocolError
			require.ErrorAs(t, err, &protoErr)
			assert.Equal(t, tt.wantCode, protoErr.Code)
		})
	}
}

func TestEncodeResponse_EchoesCorrelationID(t *testing.T) {
	task := Task{
		ID:        "task-1",
		SessionID: "session-1",
		Status:    TaskStatus{State: TaskStateCompleted},
		History:   []Message{NewTextMessage(MessageRoleAgent, "done")},
	}

	body := EncodeResponse(task, "corr-42")

	var resp Response
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, JSONRPCVersion, resp.JSONRPC)
	assert.Equal(t, "corr-42", resp.ID)
	assert.Nil(t, resp.Error)

	var decoded Task
	require.NoError(t, json.Unmarshal(resp.Result, &decoded))
	assert.Equal(t, "task-1", decoded.ID)
	assert.Equal(t, "done", decoded.LastReply())
}

func TestEncodeError_NeverLeaksStructures(t *testing.T) {
	body := EncodeError(InternalError(errors.New("boom: &{secret 42}")), "corr-9")

	var resp Response
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "corr-9", resp.ID)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInternalError, resp.Error.Code)
	assert.Equal(t, "Internal error", resp.Error.Message)
	// Diagnostics travel as a plain string in data.
	assert.Contains(t, resp.Error.Data, "boom")
}

func TestDecodeEncode_RoundTripsID(t *testing.T) {
	req, err := DecodeRequest(validSendBody(t, "round-trip-id"))
	require.NoError(t, err)

	body := EncodeResponse(Task{ID: "t"}, req.ID)

	var resp Response
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "round-trip-id", resp.ID)
}
