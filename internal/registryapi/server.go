// Package registryapi implements the Registry's HTTP surface: a thin
// mapping from method+path to registry.Store operations with fixed status
// codes and JSON bodies.
//
//	server, err := registryapi.New(deps)
//	err = server.Start()
//	defer server.Close()
package registryapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/registry"
)

const gracefulShutdownTimeout = 10 * time.Second

// staleServiceFallbackInterval stands in for a service's own
// registration_interval_seconds when it registered without one; /health and
// /info count a service stale past twice this interval (supplemented
// feature, see SPEC_FULL.md).
const staleServiceFallbackInterval = 90 * time.Second

// Deps holds the dependencies the registry API server needs.
type Deps struct {
	Addr   string
	Store  *registry.Store
	Logger *logging.Logger
}

// Server is the HTTP server for the Registry.
type Server struct {
	addr   string
	store  *registry.Store
	logger *logging.Logger
	server *http.Server
}

// New creates a Server. It is not started until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("registryapi: store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	addr := deps.Addr
	if addr == "" {
		addr = ":8080"
	}
	return &Server{addr: addr, store: deps.Store, logger: logger}, nil
}

// Start begins listening for HTTP connections in a background goroutine.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("registry api server error", "error", err)
		}
	}()
	s.logger.Info("registry api listening", "addr", s.addr)
	return nil
}

// Close gracefully shuts the server down, waiting for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("registryapi: shutting down: %w", err)
	}
	return nil
}
