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

// Package server exposes one node over HTTP: the task-send endpoint at the
// root and the agent card at the well-known path. Request handling is
// concurrent; per-session ordering is the task manager's concern, not the
// server's.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/a2amesh/a2amesh/pkg/a2a"
	"github.com/a2amesh/a2amesh/pkg/task"
)

// maxBodySize caps inbound request bodies.
const maxBodySize = 4 << 20 // 4 MiB

// Server serves the node's agent card and routes tasks/send requests to a
// handler.
type Server struct {
	card    a2a.AgentCard
	handler task.Handler
	addr    string

	httpServer *http.Server
}

// Config configures a Server.
type Config struct {
	// Card is this node's own agent card, served at the well-known path.
	Card a2a.AgentCard

	// Handler processes decoded task-send requests. Required.
	Handler task.Handler

	// Addr is the listen address, host:port.
	Addr string
}

// New creates a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if err := cfg.Card.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent card: %w", err)
	}

	s := &Server{
		card:    cfg.Card,
		handler: cfg.Handler,
		addr:    cfg.Addr,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(s.logRequests)
	router.Get(a2a.WellKnownPath, s.handleAgentCard)
	router.Get("/healthz", s.handleHealth)
	router.Post("/", s.handleRPC)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start listens and serves until Stop is called. Blocks.
func (s *Server) Start() error {
	slog.Info("Server listening", "addr", s.addr, "agent", s.card.Name)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.card); err != nil {
		slog.Error("Failed to encode agent card", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok")) //nolint:errcheck
}

// handleRPC is the JSON-RPC endpoint: decode, hand to the task handler,
// encode. Whatever goes wrong, the reply is an envelope echoing the inbound
// correlation id with a generic code and diagnostic text; internal error
// values are never serialized as structures.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, &a2a.Error{
			Code:    a2a.CodeInvalidRequest,
			Message: "Invalid request",
			Data:    fmt.Sprintf("reading body: %v", err),
		}, "")
		return
	}

	req, err := a2a.DecodeRequest(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, decodeErrorToRPC(err), correlationID(body))
		return
	}

	result, err := s.handler.OnSendTask(r.Context(), req)
	if err != nil {
		slog.Error("Task handling failed", "session", req.Params.SessionID, "error", err)
		s.writeError(w, http.StatusOK, handlerErrorToRPC(err), req.ID)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(a2a.EncodeResponse(result, req.ID)) //nolint:errcheck
}

func (s *Server) writeError(w http.ResponseWriter, status int, rpcErr *a2a.Error, id string) {
	w.WriteHeader(status)
	w.Write(a2a.EncodeError(rpcErr, id)) //nolint:errcheck
}

// correlationID best-effort extracts the id from a body that failed full
// decoding, so even rejections echo the caller's id when one was present.
func correlationID(body []byte) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	return probe.ID
}

// decodeErrorToRPC maps codec failures onto JSON-RPC error objects.
func decodeErrorToRPC(err error) *a2a.Error {
	var protoErr *a2a.ProtocolError
	if errors.As(err, &protoErr) {
		return &a2a.Error{Code: protoErr.Code, Message: "Invalid request", Data: protoErr.Msg}
	}
	if errors.Is(err, a2a.ErrUnsupported) {
		return &a2a.Error{Code: a2a.CodeMethodNotFound, Message: "Method not found", Data: err.Error()}
	}
	return a2a.InternalError(err)
}

// handlerErrorToRPC maps task-handling failures onto JSON-RPC error
// objects. Format errors are the caller's fault; everything else is
// internal.
func handlerErrorToRPC(err error) *a2a.Error {
	var formatErr *task.FormatError
	if errors.As(err, &formatErr) {
		return &a2a.Error{Code: a2a.CodeInvalidParams, Message: "Invalid params", Data: formatErr.Reason}
	}
	return a2a.InternalError(err)
}

// logRequests is a lightweight request logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
