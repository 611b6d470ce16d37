// Package httpapi exposes a pulse client over HTTP so services without the
// library can report analytics.
//
// Routes:
//
//	POST /v1/track      {"event", "properties", ...}
//	POST /v1/identify   {"userId", "traits", ...}
//	POST /v1/screen     {"name", "category", "properties", ...}
//	POST /v1/group      {"groupId", "traits", ...}
//	POST /v1/alias      {"newId", ...}
//	POST /v1/flush      waits until queued work is delivered
//	POST /v1/reset      clears the identity
//	GET  /v1/identity   current anonymous and user id
//	GET  /v1/integrations
//	GET  /v1/dlq        dead letter statistics, when a queue is configured
//	GET  /healthz
//
// Every payload body also accepts "context", "integrations" and "timestamp".
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/randalmurphal/pulse/pkg/pulse"
	"github.com/randalmurphal/pulse/pkg/pulse/dispatch"
	perrors "github.com/randalmurphal/pulse/pkg/pulse/errors"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

// Client is the part of *pulse.Client the server drives.
type Client interface {
	Track(event string, props *payload.Properties, opts *payload.Options) error
	Identify(userID string, traits *payload.Traits, opts *payload.Options) error
	Screen(name, category string, props *payload.Properties, opts *payload.Options) error
	Group(groupID string, traits *payload.Traits, opts *payload.Options) error
	Alias(newID string, opts *payload.Options) error
	FlushAndWait(ctx context.Context) error
	Reset() error
	AnonymousID() string
	UserID() string
	IntegrationKeys() []string
	DLQ() dispatch.DeadLetterQueue
}

var _ Client = (*pulse.Client)(nil)

// inspectableDLQ is implemented by queues that can report their contents.
type inspectableDLQ interface {
	Stats() dispatch.DLQStats
	Queued() []dispatch.FailedOperation
	Parked() []dispatch.ParkedOperation
}

// Server routes HTTP requests to a client.
type Server struct {
	client       Client
	logger       *slog.Logger
	router       chi.Router
	flushTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFlushTimeout bounds POST /v1/flush. Default: 30s.
func WithFlushTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.flushTimeout = d
		}
	}
}

// WithMount mounts an extra handler, such as a metrics endpoint.
func WithMount(pattern string, h http.Handler) Option {
	return func(s *Server) {
		s.router.Mount(pattern, h)
	}
}

// New creates a server for client.
func New(client Client, opts ...Option) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	s := &Server{
		client:       client,
		logger:       slog.Default(),
		router:       r,
		flushTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/v1", func(r chi.Router) {
		r.Post("/track", s.handleTrack)
		r.Post("/identify", s.handleIdentify)
		r.Post("/screen", s.handleScreen)
		r.Post("/group", s.handleGroup)
		r.Post("/alias", s.handleAlias)
		r.Post("/flush", s.handleFlush)
		r.Post("/reset", s.handleReset)
		r.Get("/identity", s.handleIdentity)
		r.Get("/integrations", s.handleIntegrations)
		r.Get("/dlq", s.handleDLQ)
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// common holds the per-call fields every payload body accepts.
type common struct {
	Context      *payload.ValueMap `json:"context"`
	Integrations map[string]bool   `json:"integrations"`
	Timestamp    *time.Time        `json:"timestamp"`
}

func (c common) options() *payload.Options {
	opts := payload.NewOptions()
	c.Context.Range(func(k string, v any) bool {
		opts.PutContext(k, v)
		return true
	})
	for k, enabled := range c.Integrations {
		opts.SetIntegration(k, enabled)
	}
	if c.Timestamp != nil {
		opts.SetTimestamp(*c.Timestamp)
	}
	return opts
}

type trackRequest struct {
	common
	Event      string            `json:"event"`
	Properties *payload.ValueMap `json:"properties"`
}

type identifyRequest struct {
	common
	UserID string            `json:"userId"`
	Traits *payload.ValueMap `json:"traits"`
}

type screenRequest struct {
	common
	Name       string            `json:"name"`
	Category   string            `json:"category"`
	Properties *payload.ValueMap `json:"properties"`
}

type groupRequest struct {
	common
	GroupID string            `json:"groupId"`
	Traits  *payload.ValueMap `json:"traits"`
}

type aliasRequest struct {
	common
	NewID string `json:"newId"`
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.accepted(w, r, "track", s.client.Track(req.Event, req.Properties, req.options()))
}

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	var req identifyRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.accepted(w, r, "identify", s.client.Identify(req.UserID, req.Traits, req.options()))
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	var req screenRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.accepted(w, r, "screen", s.client.Screen(req.Name, req.Category, req.Properties, req.options()))
}

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.accepted(w, r, "group", s.client.Group(req.GroupID, req.Traits, req.options()))
}

func (s *Server) handleAlias(w http.ResponseWriter, r *http.Request) {
	var req aliasRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.accepted(w, r, "alias", s.client.Alias(req.NewID, req.options()))
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.flushTimeout)
	defer cancel()
	if err := s.client.FlushAndWait(ctx); err != nil {
		s.fail(w, r, "flush", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.accepted(w, r, "reset", s.client.Reset())
}

func (s *Server) handleIdentity(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"anonymousId": s.client.AnonymousID(),
		"userId":      s.client.UserID(),
	})
}

func (s *Server) handleIntegrations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"integrations": s.client.IntegrationKeys()})
}

type dlqResponse struct {
	Stats  dispatch.DLQStats          `json:"stats"`
	Queued []dispatch.FailedOperation `json:"queued"`
	Parked []dispatch.ParkedOperation `json:"parked"`
}

func (s *Server) handleDLQ(w http.ResponseWriter, _ *http.Request) {
	dlq, ok := s.client.DLQ().(inspectableDLQ)
	if !ok {
		writeError(w, http.StatusNotFound, "no dead letter queue configured")
		return
	}
	writeJSON(w, http.StatusOK, dlqResponse{
		Stats:  dlq.Stats(),
		Queued: dlq.Queued(),
		Parked: dlq.Parked(),
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Debug("invalid request body",
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) accepted(w http.ResponseWriter, r *http.Request, op string, err error) {
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("operation", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()),
		)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case perrors.IsInvalidArgument(err):
		return http.StatusBadRequest
	case errors.Is(err, pulse.ErrShutdown):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
