// Package server exposes the compiler to editor and playground clients over
// a websocket and a plain HTTP endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/recera/jsxlite/pkg/compiler"
	"github.com/recera/jsxlite/pkg/ir"
	"github.com/recera/jsxlite/pkg/parser"
)

// Message types.
const (
	TypeHello   = "HELLO"
	TypeAck     = "ACK"
	TypeCompile = "COMPILE"
	TypeOutput  = "OUTPUT"
	TypeError   = "ERROR"
)

const maxSourceSize = 1 << 20

// Message is both the request and the reply on /ws and /compile.
type Message struct {
	Type string `json:"type"`

	// ID is echoed back so clients can match replies to requests.
	ID string `json:"id,omitempty"`

	Code   string `json:"code,omitempty"`
	Target string `json:"target,omitempty"`
	Output string `json:"output,omitempty"`

	Message string  `json:"message,omitempty"`
	Line    int     `json:"line,omitempty"`
	Col     int     `json:"col,omitempty"`
	Path    ir.Path `json:"path,omitempty"`
}

// Server handles compile requests. It is safe for concurrent use.
type Server struct {
	compiler *compiler.Compiler
	upgrader websocket.Upgrader
	timeout  time.Duration
}

// New creates a server around c.
func New(c *compiler.Compiler) *Server {
	return &Server{
		compiler: c,
		timeout:  10 * time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Playground clients are served from other origins
				return true
			},
		},
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/compile", s.handleCompile)
	mux.HandleFunc("/targets", s.handleTargets)
	return mux
}

// Reply answers one request message.
func (s *Server) Reply(ctx context.Context, req Message) Message {
	switch strings.ToUpper(req.Type) {
	case TypeHello:
		return Message{Type: TypeAck, ID: req.ID}
	case TypeCompile:
		return s.compile(ctx, req)
	}
	return Message{Type: TypeError, ID: req.ID, Message: "unknown message type " + `"` + req.Type + `"`}
}

func (s *Server) compile(ctx context.Context, req Message) Message {
	target := req.Target
	if target == "" {
		target = compiler.DefaultTarget
	}
	target = compiler.Resolve(target)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.compiler.Compile(ctx, "input.lite.tsx", []byte(req.Code), target)
	if err == nil {
		err = res.Err()
	}
	if err != nil {
		return errorMessage(req.ID, target, err)
	}
	out, _ := res.Output(target)
	return Message{Type: TypeOutput, ID: req.ID, Target: target, Output: out.Text}
}

func errorMessage(id, target string, err error) Message {
	msg := Message{Type: TypeError, ID: id, Target: target, Message: err.Error()}
	var perr *parser.Error
	if errors.As(err, &perr) {
		msg.Line, msg.Col = perr.Pos.Line, perr.Pos.Col
	}
	var uc *ir.UnsupportedConstruct
	if errors.As(err, &uc) {
		msg.Path = uc.Path
	}
	return msg
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxSourceSize)

	for {
		var req Message
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		if err := conn.WriteJSON(s.Reply(r.Context(), req)); err != nil {
			log.Printf("Failed to send reply: %v", err)
			return
		}
	}
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSourceSize)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Message{Type: TypeError, Message: "invalid request: " + err.Error()})
		return
	}
	if req.Type == "" {
		req.Type = TypeCompile
	}

	reply := s.Reply(r.Context(), req)
	status := http.StatusOK
	if reply.Type == TypeError {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, reply)
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"targets": s.compiler.Targets(),
		"default": compiler.DefaultTarget,
		"version": compiler.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
