// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package server is the HTTP command surface of ndimon: source switching,
// status snapshots, a websocket status feed and static files.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gogpu/ndimon"
	"github.com/gogpu/ndimon/display"
)

// DefaultPort is the port the server listens on by default.
const DefaultPort = 8903

// DefaultListen is the default listen address.
var DefaultListen = fmt.Sprintf(":%d", DefaultPort)

// DefaultStatusInterval is how often the websocket feed checks for a new
// snapshot.
const DefaultStatusInterval = 250 * time.Millisecond

// Requester accepts source switch requests from any goroutine.
type Requester interface {
	RequestSource(name string)
}

// StatusProvider returns the engine snapshot from any goroutine.
type StatusProvider interface {
	Status() display.Status
}

// Options configures a Server.
type Options struct {
	// Listen is the TCP address. Empty selects DefaultListen.
	Listen string

	// WWWRoot is the static file directory served at "/". Empty disables
	// static files.
	WWWRoot string

	// StatusInterval is the websocket polling period. Zero selects
	// DefaultStatusInterval.
	StatusInterval time.Duration
}

// Server serves the command surface.
type Server struct {
	requester Requester
	status    StatusProvider
	opts      Options
	mux       *http.ServeMux

	mu         sync.Mutex
	httpServer *http.Server
	done       chan struct{}
	doneOnce   sync.Once
}

// New returns a server forwarding switch requests to requester and reading
// snapshots from status.
func New(requester Requester, status StatusProvider, opts Options) *Server {
	if opts.Listen == "" {
		opts.Listen = DefaultListen
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = DefaultStatusInterval
	}
	s := &Server{
		requester: requester,
		status:    status,
		opts:      opts,
		mux:       http.NewServeMux(),
		done:      make(chan struct{}),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /source/{sourceName}", s.handleSource)
	s.mux.HandleFunc("GET /source/", s.handleSource)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("GET /ws/status", s.handleStatusFeed)
	s.mux.Handle("GET /", s.staticHandler())
}

// Handler returns the complete handler chain: CORS, logging, routes.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(loggingMiddleware(s.mux))
}

// Start listens on the configured address and serves until Shutdown. It
// returns nil after a clean shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.opts.Listen, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	ndimon.Logger().Info("server: listening", "addr", ln.Addr().String(), "wwwroot", s.opts.WWWRoot)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, ends websocket feeds and waits for
// in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.doneOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		ndimon.Logger().Warn("server: graceful shutdown failed", "err", err)
		if cerr := srv.Close(); cerr != nil {
			return errors.Join(err, cerr)
		}
		return err
	}
	ndimon.Logger().Info("server: stopped")
	return nil
}
