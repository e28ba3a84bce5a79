// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gogpu/ndimon"
	"github.com/gogpu/ndimon/display"
)

const feedWriteTimeout = 5 * time.Second

var statusUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// RespondJSON writes data as a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		ndimon.Logger().Debug("server: encode response", "err", err)
	}
}

// handleSource schedules a switch. The response is sent before the switch
// happens on the render goroutine.
func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	if name := r.PathValue("sourceName"); name != "" {
		s.requester.RequestSource(name)
		ndimon.Logger().Info("server: source requested", "source", name, "remote", r.RemoteAddr)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, s.status.Status())
}

// handleStatusFeed pushes the snapshot on connect and again whenever it
// changes.
func (s *Server) handleStatusFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := statusUpgrader.Upgrade(w, r, nil)
	if err != nil {
		ndimon.Logger().Warn("server: websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	last := s.status.Status()
	if err := writeStatus(conn, last); err != nil {
		return
	}

	ticker := time.NewTicker(s.opts.StatusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
				time.Now().Add(time.Second))
			return
		case <-closed:
			return
		case <-ticker.C:
			cur := s.status.Status()
			if cur == last {
				continue
			}
			if err := writeStatus(conn, cur); err != nil {
				ndimon.Logger().Debug("server: status feed ended", "err", err)
				return
			}
			last = cur
		}
	}
}

func writeStatus(conn *websocket.Conn, st display.Status) error {
	_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	return conn.WriteJSON(st)
}

// staticHandler serves WWWRoot with caching disabled.
func (s *Server) staticHandler() http.Handler {
	if s.opts.WWWRoot == "" {
		return http.NotFoundHandler()
	}
	files := http.FileServer(http.Dir(s.opts.WWWRoot))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store")
		w.Header().Set("Expires", "-1")
		files.ServeHTTP(w, r)
	})
}
