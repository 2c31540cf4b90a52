// Package server exposes the chat pipeline over HTTP: an SSE endpoint for
// web clients and a websocket endpoint for bidirectional clients.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/alphastudio/neuralcore/pkg/agents"
	"github.com/alphastudio/neuralcore/pkg/chat"
	"github.com/alphastudio/neuralcore/pkg/logger"
	"github.com/alphastudio/neuralcore/pkg/metrics"
)

// ChatRequest is the JSON body for both the SSE and websocket endpoints.
type ChatRequest struct {
	AgentID            string           `json:"agent_id,omitempty"`
	Model              string           `json:"model,omitempty"`
	History            []chat.Turn      `json:"history"`
	CustomInstructions string           `json:"custom_instructions,omitempty"`
	Attachment         *chat.Attachment `json:"attachment,omitempty"`
	// Premium mirrors the account flag resolved by the caller's auth layer.
	Premium bool `json:"premium,omitempty"`
	// QuotaExhausted is set by the caller's auth layer when the account's
	// remaining AI balance has run out. Ignored for unlimited accounts.
	QuotaExhausted bool `json:"quota_exhausted,omitempty"`
}

// StreamChunk is one streamed event. Type is "delta" for text fragments and
// "done" for the terminal event.
type StreamChunk struct {
	Type  string `json:"type"`
	Delta string `json:"delta,omitempty"`

	Model    string `json:"model,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
}

type Server struct {
	svc      *chat.Service
	tracker  *metrics.Tracker
	router   *mux.Router
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

func NewServer(svc *chat.Service, tracker *metrics.Tracker) *Server {
	s := &Server{
		svc:     svc,
		tracker: tracker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients arrive from app origins we do not control.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/agents", s.handleAgents).Methods(http.MethodGet)
	r.HandleFunc("/api/chat", s.handleChatSSE).Methods(http.MethodPost)
	r.HandleFunc("/ws/chat", s.handleChatWS).Methods(http.MethodGet)
	s.router = r
	return s
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving HTTP on addr until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.InfoCF("server", "listening", map[string]interface{}{"addr": addr})
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, agents.All())
}

// resolveParams validates a request against agent gating and builds the
// chat call parameters.
func resolveParams(req ChatRequest) (chat.ChatParams, string, error) {
	agent := agents.Lookup(req.AgentID)
	if !agents.Allowed(agent, req.Premium) {
		return chat.ChatParams{}, agent.ID, fmt.Errorf("agent %s requires a premium account", agent.ID)
	}
	caps := agents.CapabilitiesFor(req.Premium)
	if req.QuotaExhausted && !caps.Unlimited {
		return chat.ChatParams{}, agent.ID, fmt.Errorf("AI balance exhausted")
	}
	if req.Attachment != nil && !caps.AllowAttachments {
		return chat.ChatParams{}, agent.ID, fmt.Errorf("attachments require a premium account")
	}

	return chat.ChatParams{
		History:           req.History,
		SystemInstruction: agents.Instruction(agent, req.CustomInstructions),
		Model:             req.Model,
		Attachment:        req.Attachment,
	}, agent.ID, nil
}

// handleChatSSE streams one chat call as server-sent events. Each fragment
// is a "delta" event; the stream ends with a "done" event and a [DONE]
// sentinel. Closing the connection cancels the upstream call through the
// request context.
func (s *Server) handleChatSSE(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, agentID, err := resolveParams(req)
	if err != nil {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	requestID := uuid.NewString()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Request-Id", requestID)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	st := s.svc.Start(r.Context(), params, func(fragment string) {
		writeSSE(w, StreamChunk{Type: "delta", Delta: fragment})
		flusher.Flush()
	})
	<-st.Done()

	stats := st.Stats()
	s.record(requestID, agentID, stats)

	writeSSE(w, StreamChunk{
		Type:     "done",
		Model:    stats.Model,
		Fallback: stats.FallbackUsed,
		Outcome:  stats.Outcome,
	})
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// handleChatWS streams one chat call per websocket message. A single
// reader goroutine owns the connection's read side; any client message
// that arrives while a stream is in flight cancels it, and a client close
// tears the call down.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnCF("server", fmt.Sprintf("websocket upgrade failed: %v", err), nil)
		return
	}
	defer conn.Close()

	reqCh := make(chan ChatRequest)
	go func() {
		defer close(reqCh)
		for {
			var req ChatRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			reqCh <- req
		}
	}()

	for req := range reqCh {
		params, agentID, err := resolveParams(req)
		if err != nil {
			conn.WriteJSON(map[string]string{"type": "error", "error": err.Error()})
			continue
		}

		requestID := uuid.NewString()
		ctx, cancel := context.WithCancel(r.Context())

		// Fragments arrive from the stream goroutine while this loop is
		// parked below, so delta and done writes never interleave.
		st := s.svc.Start(ctx, params, func(fragment string) {
			conn.WriteJSON(StreamChunk{Type: "delta", Delta: fragment})
		})

		select {
		case <-st.Done():
		case _, open := <-reqCh:
			st.Cancel()
			<-st.Done()
			if !open {
				cancel()
				s.record(requestID, agentID, st.Stats())
				return
			}
		}
		cancel()

		stats := st.Stats()
		s.record(requestID, agentID, stats)
		if err := conn.WriteJSON(StreamChunk{
			Type:     "done",
			Model:    stats.Model,
			Fallback: stats.FallbackUsed,
			Outcome:  stats.Outcome,
		}); err != nil {
			return
		}
	}
}

func (s *Server) record(requestID, agentID string, stats chat.Stats) {
	if s.tracker != nil {
		s.tracker.Record(metrics.StreamEvent{
			RequestID:  requestID,
			Agent:      agentID,
			Model:      stats.Model,
			Fallback:   stats.FallbackUsed,
			Fragments:  stats.Fragments,
			Chars:      stats.Chars,
			DurationMS: stats.Duration.Milliseconds(),
			Outcome:    stats.Outcome,
		})
	}
	logger.InfoCF("server", "chat request finished", map[string]interface{}{
		"request":  requestID,
		"agent":    agentID,
		"model":    stats.Model,
		"fallback": stats.FallbackUsed,
		"outcome":  stats.Outcome,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, chunk StreamChunk) {
	data, err := json.Marshal(chunk)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
