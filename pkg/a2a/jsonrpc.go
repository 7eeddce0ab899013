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
	"fmt"
)

// JSONRPCVersion is the only protocol version accepted on the wire.
const JSONRPCVersion = "2.0"

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is a JSON-RPC 2.0 request envelope. The id correlates request and
// response and must be echoed back unchanged.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response envelope. Exactly one of Result or
// Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object. Data carries human-readable
// diagnostic text only; internal error structures are never serialized.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("jsonrpc error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// ProtocolError reports wire input that could not be parsed or classified.
type ProtocolError struct {
	Code int
	Msg  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error %d: %s", e.Code, e.Msg)
}

// ErrUnsupported marks requests whose shape was valid JSON-RPC but whose
// method or structure this node does not handle.
var ErrUnsupported = errors.New("unsupported request type")

// SendTaskRequest is a decoded tasks/send request.
type SendTaskRequest struct {
	// ID is the JSON-RPC correlation id, echoed in the response.
	ID     string
	Params TaskSendParams
}

// DecodeRequest validates a JSON-RPC request body and classifies it by
// structural shape. A body with method tasks/send and a message payload
// decodes to a SendTaskRequest; anything else is rejected with a
// ProtocolError or an error wrapping ErrUnsupported.
func DecodeRequest(body []byte) (*SendTaskRequest, error) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &ProtocolError{Code: CodeParseError, Msg: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if req.JSONRPC != JSONRPCVersion {
		return nil, &ProtocolError{Code: CodeInvalidRequest, Msg: fmt.Sprintf("unsupported jsonrpc version %q", req.JSONRPC)}
	}

	if req.Method != MethodSendTask {
		return nil, fmt.Errorf("method %q: %w", req.Method, ErrUnsupported)
	}

	var params TaskSendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, &ProtocolError{Code: CodeInvalidParams, Msg: fmt.Sprintf("invalid tasks/send params: %v", err)}
	}

	if len(params.Message.Parts) == 0 {
		// A tasks/send without a message payload is not classifiable as a
		// task-send request.
		return nil, fmt.Errorf("tasks/send without message: %w", ErrUnsupported)
	}

	return &SendTaskRequest{ID: req.ID, Params: params}, nil
}

// EncodeResponse marshals result into a success envelope echoing the
// originating correlation id. A result that cannot be marshaled degrades to
// an internal-error envelope rather than failing the exchange.
func EncodeResponse(result any, correlationID string) []byte {
	raw, err := json.Marshal(result)
	if err != nil {
		return EncodeError(&Error{
			Code:    CodeInternalError,
			Message: "Internal error",
			Data:    fmt.Sprintf("encoding result: %v", err),
		}, correlationID)
	}

	out, err := json.Marshal(Response{
		JSONRPC: JSONRPCVersion,
		ID:      correlationID,
		Result:  raw,
	})
	if err != nil {
		return EncodeError(&Error{Code: CodeInternalError, Message: "Internal error"}, correlationID)
	}
	return out
}

// EncodeError marshals rpcErr into an error envelope echoing the originating
// correlation id.
func EncodeError(rpcErr *Error, correlationID string) []byte {
	out, err := json.Marshal(Response{
		JSONRPC: JSONRPCVersion,
		ID:      correlationID,
		Error:   rpcErr,
	})
	if err != nil {
		// Response with a plain Error cannot normally fail to marshal.
		return []byte(`{"jsonrpc":"2.0","error":{"code":-32603,"message":"Internal error"}}`)
	}
	return out
}

// InternalError builds a generic internal-error object whose data field
// carries the diagnostic text of err.
func InternalError(err error) *Error {
	e := &Error{Code: CodeInternalError, Message: "Internal error"}
	if err != nil {
		e.Data = err.Error()
	}
	return e
}
