package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/homeward/internal/logging"
	"github.com/aretw0/homeward/internal/params"
	"github.com/aretw0/homeward/internal/presentation/graph"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/runner"
	"github.com/aretw0/homeward/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Navigator is the live guidance state the API controls.
type Navigator interface {
	Snapshot(vehicleID string) *domain.Snapshot
	SetMode(mode domain.NavMode) error
	Reposition(lat, lon, alt float64)
}

// Server exposes a vehicle over HTTP.
type Server struct {
	Navigator Navigator
	VehicleID string
	Params    *params.Store
	Sessions  *session.Manager // Optional
	Metrics   http.Handler     // Optional
	Streams   *StreamManager
	Version   string
	Logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithSessions exposes stored sessions under /sessions.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) { s.Sessions = m }
}

// WithMetrics mounts a metrics handler (e.g. promhttp) under /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.Version = v }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.Logger = logger }
}

// NewServer creates a server for one vehicle.
func NewServer(nav Navigator, vehicleID string, store *params.Store, opts ...Option) *Server {
	s := &Server{
		Navigator: nav,
		VehicleID: vehicleID,
		Params:    store,
		Streams:   NewStreamManager(),
		Version:   "dev",
		Logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/status", s.GetStatus)
	r.Put("/mode", s.PutMode)
	r.Post("/reposition", s.PostReposition)
	r.Get("/params", s.GetParams)
	r.Put("/params", s.PutParams)
	r.Get("/graph", s.GetGraph)
	r.Get("/events", s.SubscribeEvents)

	if s.Sessions != nil {
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.ListSessions)
			r.Get("/{id}", s.GetSession)
			r.Delete("/{id}", s.DeleteSession)
		})
	}
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handle implements runner.EventHandler by broadcasting events to SSE subscribers.
func (s *Server) Handle(ctx context.Context, evt runner.Event) error {
	payload := map[string]any{
		"type":  evt.Type,
		"time":  evt.Time,
		"mode":  evt.Snapshot.Mode,
		"phase": evt.Snapshot.Phase,
	}
	if evt.Type == runner.EventPhaseChanged {
		payload["from"] = evt.From
	}
	if evt.Type == runner.EventTargetChanged {
		payload["target"] = evt.Snapshot.Triplet.Current
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.Streams.Broadcast(evt.Snapshot.VehicleID, string(b))
	return nil
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "homeward-http",
		"version": strings.TrimSpace(s.Version),
		"vehicle": s.VehicleID,
	})
}

// GetStatus handles the GET /status request.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Navigator.Snapshot(s.VehicleID))
}

type modeRequest struct {
	Mode string `json:"mode"`
}

// PutMode handles the PUT /mode request.
func (s *Server) PutMode(w http.ResponseWriter, r *http.Request) {
	var body modeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	mode, err := domain.ParseMode(body.Mode)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "Invalid mode", err)
		return
	}
	if err := s.Navigator.SetMode(mode); err != nil {
		s.fail(w, http.StatusInternalServerError, "SetMode failed", err)
		return
	}
	s.Logger.Info("Mode changed", "vehicle", s.VehicleID, "mode", mode)
	s.writeJSON(w, http.StatusOK, s.Navigator.Snapshot(s.VehicleID))
}

type repositionRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
	Alt *float64 `json:"alt"`
}

// PostReposition handles the POST /reposition request.
func (s *Server) PostReposition(w http.ResponseWriter, r *http.Request) {
	var body repositionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.Lat == nil || body.Lon == nil || body.Alt == nil {
		s.fail(w, http.StatusBadRequest, "lat, lon and alt are required", nil)
		return
	}
	s.Navigator.Reposition(*body.Lat, *body.Lon, *body.Alt)
	s.writeJSON(w, http.StatusOK, s.Navigator.Snapshot(s.VehicleID))
}

type paramView struct {
	params.Definition
	Value float64 `json:"value"`
}

// GetParams handles the GET /params request.
func (s *Server) GetParams(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.paramViews())
}

// PutParams handles the PUT /params request. The body is a flat map of keys to values.
func (s *Server) PutParams(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := s.Params.Apply(body); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrUnknownParameter) || errors.Is(err, domain.ErrParameterOutOfRange) {
			status = http.StatusUnprocessableEntity
		}
		s.fail(w, status, "Parameters rejected", err)
		return
	}
	s.Logger.Info("Parameters updated", "vehicle", s.VehicleID, "keys", len(body))
	s.writeJSON(w, http.StatusOK, s.paramViews())
}

func (s *Server) paramViews() []paramView {
	views := make([]paramView, 0, len(params.Definitions))
	for _, key := range s.Params.Keys() {
		def, _ := params.Lookup(key)
		v, _ := s.Params.Float(key)
		views = append(views, paramView{Definition: def, Value: v})
	}
	return views
}

// GetGraph handles the GET /graph request. It returns the phase graph as
// Mermaid text with the live vehicle overlaid.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	snap := s.Navigator.Snapshot(s.VehicleID)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(graph.OverlayFor(snap)))
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "List failed", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		s.fail(w, http.StatusNotFound, "Session not found", nil)
		return
	}
	s.fail(w, http.StatusInternalServerError, "Session store error", err)
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	vehicleID := r.URL.Query().Get("vehicle_id")
	if vehicleID == "" {
		vehicleID = s.VehicleID
	}

	// Parse 'watch' filter
	watch := make(map[string]bool)
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			watch[strings.TrimSpace(t)] = true
		}
	}

	ch, cancel := s.Streams.Subscribe(vehicleID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.Logger.Info("SSE: Subscribing to vehicle events", "vehicle", vehicleID)

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected", "vehicle", vehicleID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 {
				var head struct {
					Type string `json:"type"`
				}
				if err := json.Unmarshal([]byte(msg), &head); err == nil && !watch[head.Type] {
					continue
				}
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
		if status >= http.StatusInternalServerError {
			s.Logger.Error(msg)
		} else {
			s.Logger.Warn(msg)
		}
	}
	http.Error(w, msg, status)
}
