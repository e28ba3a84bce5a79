// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package source

import (
	"fmt"
	"strings"
	"sync"
)

// Mux routes source names to connectors by prefix. Names matching no prefix
// go to the default connector.
//
// Mux is safe for concurrent use.
type Mux struct {
	mu     sync.RWMutex
	def    Connector
	routes []route
}

type route struct {
	prefix string
	conn   Connector
}

// NewMux returns a mux with def as the fallback connector. def may be nil.
func NewMux(def Connector) *Mux {
	return &Mux{def: def}
}

// Handle routes names starting with prefix to c. The longest matching
// prefix wins.
func (m *Mux) Handle(prefix string, c Connector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.routes {
		if m.routes[i].prefix == prefix {
			m.routes[i].conn = c
			return
		}
	}
	m.routes = append(m.routes, route{prefix: prefix, conn: c})
}

func (m *Mux) lookup(name string) Connector {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		best    Connector
		bestLen = -1
	)
	for _, r := range m.routes {
		if strings.HasPrefix(name, r.prefix) && len(r.prefix) > bestLen {
			best, bestLen = r.conn, len(r.prefix)
		}
	}
	if best == nil {
		return m.def
	}
	return best
}

// OpenReceiver implements Connector.
func (m *Mux) OpenReceiver(name string) (Receiver, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	c := m.lookup(name)
	if c == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoConnector, name)
	}
	r, err := c.OpenReceiver(name)
	if err != nil {
		return nil, err
	}
	return &muxReceiver{Receiver: r, conn: c}, nil
}

// OpenFrameSync implements Connector.
func (m *Mux) OpenFrameSync(r Receiver) (FrameSync, error) {
	mr, ok := r.(*muxReceiver)
	if !ok {
		return nil, ErrForeignReceiver
	}
	return mr.conn.OpenFrameSync(mr.Receiver)
}

// muxReceiver remembers which connector opened a receiver.
type muxReceiver struct {
	Receiver
	conn Connector
}

var _ Connector = (*Mux)(nil)
