// Package server exposes an agent over HTTP.
//
// One route is served:
//
//	POST /agent  {"msg": "<text>"}  →  200 {"msg": "<reply>"}
//
// Errors are reported as {"error": "<text>"} with 400 for a body that is not
// valid JSON or does not match the request schema, 405 for a method other
// than POST, 413 for a body over MaxBodyBytes and 500 when the agent fails.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// Route is the only path the handler serves.
const Route = "/agent"

// MaxBodyBytes caps the request body.
const MaxBodyBytes = 1 << 20

// Responder produces the reply to one user message.
type Responder interface {
	Respond(ctx context.Context, message string) (string, error)
}

// Message is both the request and the response body.
type Message struct {
	Msg string `json:"msg"`
}

type errorBody struct {
	Error string `json:"error"`
}

const requestSchema = `{
  "type": "object",
  "properties": {
    "msg": {"type": "string"}
  },
  "required": ["msg"]
}`

var (
	compiledSchema *gojsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

func getSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiledSchema, compileErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchema))
	})
	return compiledSchema, compileErr
}

// validateRequest returns a description of every schema violation in body.
// A body that is not JSON at all is reported as an error.
func validateRequest(body []byte) ([]string, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling request schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	return errs, nil
}

// Handler serves POST /agent.
type Handler struct {
	responder Responder
	log       zerolog.Logger
}

// NewHandler returns a Handler answering with r.
func NewHandler(r Responder, log zerolog.Logger) *Handler {
	return &Handler{responder: r, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != Route {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	problems, err := validateRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad request: "+err.Error())
		return
	}
	if len(problems) > 0 {
		writeError(w, http.StatusBadRequest, "bad request: "+strings.Join(problems, "; "))
		return
	}

	var req Message
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request: "+err.Error())
		return
	}

	reply, err := h.responder.Respond(r.Context(), req.Msg)
	if err != nil {
		h.logger(r).Error().Err(err).Msg("agent failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, Message{Msg: reply})
}

// logger returns the request-scoped logger set by WithRequestLog, or the
// handler's own when the request carries none.
func (h *Handler) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &h.log
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// Server runs the handler on a listener until its context ends.
type Server struct {
	addr    string
	handler http.Handler
	log     zerolog.Logger
	srv     *http.Server
}

// New wraps h in request logging and prepares a server for addr.
func New(addr string, h *Handler, log zerolog.Logger) *Server {
	return &Server{addr: addr, handler: WithRequestLog(h, log), log: log}
}

// Start serves until ctx is cancelled, then shuts down gracefully, giving
// in-flight requests up to shutdownGrace to finish.
func (s *Server) Start(ctx context.Context, shutdownGrace time.Duration) error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := s.srv.Shutdown(shutCtx); err != nil {
			s.log.Warn().Err(err).Msg("shutdown")
		}
	}()

	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	s.log.Info().Msg("server stopped")
	return nil
}
