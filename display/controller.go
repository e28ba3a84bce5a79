// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"sync/atomic"

	"github.com/gogpu/ndimon"
	"github.com/gogpu/ndimon/render"
	"github.com/gogpu/ndimon/source"
)

// Controller owns the stream lifecycle: the receiver, its frame sync and the
// live texture record. Apart from RequestSource it is used from the render
// goroutine only.
type Controller struct {
	conn source.Connector
	live *render.Arena

	pending atomic.Pointer[string]

	state     State
	receiver  source.Receiver
	frameSync source.FrameSync
	active    string
	switches  uint64

	liveTex       render.TextureInfo
	liveTransform ndimon.Matrix
	hasLive       bool
}

// NewController returns an idle controller opening sources through conn and
// keeping live textures in the live arena.
func NewController(conn source.Connector, live *render.Arena) *Controller {
	return &Controller{conn: conn, live: live}
}

// RequestSource schedules a switch to name on the next tick, replacing any
// request not yet applied. Empty names are ignored. Safe for concurrent use.
func (c *Controller) RequestSource(name string) {
	if name == "" {
		return
	}
	c.pending.Store(&name)
}

// Pending reports the request the next tick will apply.
func (c *Controller) Pending() (string, bool) {
	p := c.pending.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// ApplyPendingSwitch applies the pending request, if any, and reports
// whether it did. A switch always reconnects, even to the active source.
// Failing to open a source is not an error: the controller stays Connecting
// with stalled handles until the next switch.
func (c *Controller) ApplyPendingSwitch() bool {
	p := c.pending.Swap(nil)
	if p == nil {
		return false
	}
	name := *p
	log := ndimon.Logger()

	c.release()
	c.state = Connecting
	c.active = name
	c.switches++

	rx, fs, err := c.open(name)
	if err != nil {
		log.Warn("display: open source failed, waiting for next switch", "source", name, "err", err)
		rx, fs = source.Stalled(name)
	}
	c.receiver, c.frameSync = rx, fs
	log.Info("display: source switched", "source", name, "connection", rx.ID(), "switches", c.switches)
	return true
}

func (c *Controller) open(name string) (source.Receiver, source.FrameSync, error) {
	rx, err := c.conn.OpenReceiver(name)
	if err != nil {
		return nil, nil, err
	}
	fs, err := c.conn.OpenFrameSync(rx)
	if err != nil {
		rx.Close()
		return nil, nil, err
	}
	return rx, fs, nil
}

// Teardown closes the frame sync, then the receiver, then releases the live
// texture, and returns to Idle.
func (c *Controller) Teardown() {
	c.release()
	c.state = Idle
	c.active = ""
}

// release destroys the connection in dependency order: the frame sync
// references the receiver.
func (c *Controller) release() {
	if c.frameSync != nil {
		c.frameSync.Close()
		c.frameSync = nil
	}
	if c.receiver != nil {
		c.receiver.Close()
		c.receiver = nil
	}
	if n := c.live.Release(); n > 0 {
		ndimon.Logger().Debug("display: live textures released", "count", n)
	}
	c.clearLive()
}

// State returns the lifecycle state.
func (c *Controller) State() State { return c.state }

// Source returns the active source name, empty when Idle.
func (c *Controller) Source() string { return c.active }

// ConnectionID returns the active receiver's id, empty when Idle.
func (c *Controller) ConnectionID() string {
	if c.receiver == nil {
		return ""
	}
	return c.receiver.ID()
}

// Receiver returns the active receiver or nil.
func (c *Controller) Receiver() source.Receiver { return c.receiver }

// FrameSync returns the active frame sync or nil.
func (c *Controller) FrameSync() source.FrameSync { return c.frameSync }

// Switches returns the number of switches applied.
func (c *Controller) Switches() uint64 { return c.switches }

// LiveTexture returns the live texture and its transform.
func (c *Controller) LiveTexture() (render.TextureInfo, ndimon.Matrix, bool) {
	return c.liveTex, c.liveTransform, c.hasLive
}

func (c *Controller) setLive(info render.TextureInfo, m ndimon.Matrix) {
	c.liveTex, c.liveTransform, c.hasLive = info, m, true
}

func (c *Controller) clearLive() {
	c.liveTex, c.liveTransform, c.hasLive = render.TextureInfo{}, ndimon.Matrix{}, false
}

// markLive moves Connecting to Live. It reports whether the state changed.
func (c *Controller) markLive() bool {
	if c.state != Connecting {
		return false
	}
	c.state = Live
	ndimon.Logger().Info("display: source live", "source", c.active,
		"width", c.liveTex.Width, "height", c.liveTex.Height)
	return true
}
