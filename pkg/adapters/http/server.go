package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/loom/pkg/blocks"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxPayload caps the request body of a run.
const maxPayload = 1 << 20

// Server exposes an engine over HTTP.
type Server struct {
	Engine  ports.BlueprintRunner
	Streams *StreamManager

	name     string
	registry *blocks.Registry
	metrics  http.Handler
	logger   *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithRegistry publishes the block catalog at GET /blocks.
func WithRegistry(reg *blocks.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithMetrics mounts a metrics handler (e.g., promhttp) at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithName sets the name reported by GET /info.
func WithName(name string) Option {
	return func(s *Server) {
		s.name = name
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.BlueprintRunner, opts ...Option) http.Handler {
	server := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams.logger = server.logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/blueprints", server.ListBlueprints)
	r.Post("/blueprints/{key}/run", server.RunBlueprint)
	r.Get("/events", server.SubscribeEvents)
	if server.registry != nil {
		r.Get("/blocks", server.ListBlocks)
	}
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StreamEvent is broadcast to SSE subscribers after every successful run.
type StreamEvent struct {
	Blueprint string         `json:"blueprint"`
	RunID     string         `json:"run_id"`
	Changes   map[string]any `json:"changes,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RunBlueprint handles POST /blueprints/{key}/run. The body is the JSON payload (optional).
func (s *Server) RunBlueprint(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var payload any
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayload))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
			s.logger.Warn("RunBlueprint: Invalid request body", "blueprint", key, "error", err)
			return
		}
	}

	res, err := s.Engine.RunBlueprint(r.Context(), key, payload)
	if err != nil {
		status := statusFor(err)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		if status >= http.StatusInternalServerError {
			s.logger.Error("RunBlueprint failed", "blueprint", key, "error", err)
		} else {
			s.logger.Warn("RunBlueprint rejected", "blueprint", key, "error", err)
		}
		return
	}

	if msg, err := json.Marshal(StreamEvent{Blueprint: key, RunID: res.RunID, Changes: res.Changes}); err == nil {
		s.Streams.Broadcast(key, string(msg))
	}
	writeJSON(w, http.StatusOK, res)
}

// statusFor maps engine errors to HTTP statuses.
func statusFor(err error) int {
	var cfgErr *domain.ConfigurationError
	var unhandled *domain.UnhandledBlockError
	switch {
	case errors.Is(err, domain.ErrBlueprintNotFound):
		return http.StatusNotFound
	case errors.As(err, &cfgErr), errors.As(err, &unhandled):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ListBlueprints handles GET /blueprints.
func (s *Server) ListBlueprints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Blueprints())
}

// ListBlocks handles GET /blocks.
func (s *Server) ListBlocks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Catalog())
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":       s.name,
		"blueprints": len(s.Engine.Blueprints()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// allTopics receives every broadcast.
const allTopics = "*"

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // Blueprint key -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Subscribe registers a channel for topic. The returned func unsubscribes and closes it.
func (sm *StreamManager) Subscribe(topic string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[topic]; !ok {
		sm.subscribers[topic] = make(map[chan<- string]struct{})
	}
	sm.subscribers[topic][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[topic]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, topic)
			}
		}
	}
}

// Broadcast sends msg to the subscribers of topic and to global subscribers.
func (sm *StreamManager) Broadcast(topic string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "topic", topic, "payload_size", len(msg))

	for _, t := range []string{topic, allTopics} {
		for ch := range sm.subscribers[t] {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				sm.logger.Warn("SSE: Client buffer full, dropping message", "topic", t)
			}
		}
	}
}

// SubscribeEvents handles the GET /events request (SSE).
// ?blueprint=key narrows the stream to one blueprint; ?watch=a,b keeps only runs changing those state keys.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	topic := r.URL.Query().Get("blueprint")
	if topic == "" {
		topic = allTopics
	}
	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		for _, field := range strings.Split(watch, ",") {
			watchList = append(watchList, strings.TrimSpace(field))
		}
	}

	ch, cancel := s.Streams.Subscribe(topic)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE: Subscribed", "topic", topic)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "topic", topic)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !touches(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// touches reports whether the run event changed any watched key.
func touches(msg string, watchList []string) bool {
	var ev StreamEvent
	if err := json.Unmarshal([]byte(msg), &ev); err != nil {
		return true
	}
	for _, field := range watchList {
		if _, ok := ev.Changes[field]; ok {
			return true
		}
	}
	return false
}
