package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/grove/pgoutput-stream/internal/metric"
	"github.com/grove/pgoutput-stream/logger"
	"github.com/grove/pgoutput-stream/pq"
	"github.com/grove/pgoutput-stream/pq/slot"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type SlotInfoProvider interface {
	Info(ctx context.Context) (*slot.Info, error)
}

// CursorProvider exposes the poll loop position and state.
type CursorProvider interface {
	LastCommittedLSN() pq.LSN
	State() string
}

type Server interface {
	Listen()
	Shutdown()
	Handler() http.Handler
}

type Cursor struct {
	State            string `json:"state"`
	LastCommittedLSN pq.LSN `json:"lastCommittedLSN"`
}

type server struct {
	slotInfoProvider SlotInfoProvider
	cursorProvider   CursorProvider
	server           http.Server
	port             int
	closed           bool
}

func NewServer(port int, debugMode bool, registry metric.Registry, slotInfoProvider SlotInfoProvider, cursorProvider CursorProvider) Server {
	s := &server{
		port:             port,
		slotInfoProvider: slotInfoProvider,
		cursorProvider:   cursorProvider,
	}

	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.HandlerFor(registry.Prometheus(), promhttp.HandlerOpts{EnableOpenMetrics: true}))

	mux.HandleFunc("GET /status", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /slot", s.handleSlotInfo)
	mux.HandleFunc("GET /cursor", s.handleCursor)

	if debugMode {
		mux.Handle("GET /pprof", pprof.Handler("pgoutput-stream"))
	}

	s.server = http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	return s
}

func (s *server) Handler() http.Handler {
	return s.server.Handler
}

func (s *server) Listen() {
	logger.Info(fmt.Sprintf("server starting on port :%d", s.port))

	err := s.server.ListenAndServe()
	if err != nil {
		if errors.Is(err, http.ErrServerClosed) && s.closed {
			logger.Info("server stopped")
			return
		}
		logger.Error("server cannot start", "port", s.port, "error", err)
	}
}

func (s *server) Shutdown() {
	if s == nil {
		return
	}
	s.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
}

func (s *server) handleSlotInfo(w http.ResponseWriter, r *http.Request) {
	if s.slotInfoProvider == nil {
		http.Error(w, "slot info not available", http.StatusServiceUnavailable)
		return
	}

	info, err := s.slotInfoProvider.Info(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, info)
}

func (s *server) handleCursor(w http.ResponseWriter, _ *http.Request) {
	if s.cursorProvider == nil {
		http.Error(w, "cursor not available", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, Cursor{
		State:            s.cursorProvider.State(),
		LastCommittedLSN: s.cursorProvider.LastCommittedLSN(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
