// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package source

import "sync"

// Slot is a single-frame mailbox between a transport goroutine and the
// render goroutine. A new frame replaces and releases an unread one.
//
// All methods are safe for concurrent use.
type Slot struct {
	mu        sync.Mutex
	frame     *Frame
	closed    bool
	seq       uint64
	published uint64
	dropped   uint64
}

// Put stores f, releasing any frame not yet taken. After Close, f is
// released immediately and Put reports false.
func (s *Slot) Put(f *Frame) bool {
	if f == nil {
		return false
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		f.Release()
		return false
	}
	prev := s.frame
	s.seq++
	f.Seq = s.seq
	s.frame = f
	s.published++
	if prev != nil {
		s.dropped++
	}
	s.mu.Unlock()

	prev.Release()
	return true
}

// Take removes and returns the held frame, or nil.
func (s *Slot) Take() *Frame {
	s.mu.Lock()
	f := s.frame
	s.frame = nil
	s.mu.Unlock()
	return f
}

// Close releases the held frame and rejects later frames. It is idempotent.
func (s *Slot) Close() {
	s.mu.Lock()
	f := s.frame
	s.frame = nil
	s.closed = true
	s.mu.Unlock()
	f.Release()
}

// Closed reports whether Close has been called.
func (s *Slot) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Stats returns how many frames were published and how many were replaced
// before being taken.
func (s *Slot) Stats() (published, dropped uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published, s.dropped
}

// SlotSync is a FrameSync reading from a Slot.
type SlotSync struct {
	slot    *Slot
	onClose func()
	once    sync.Once
}

// NewSlotSync returns a FrameSync taking frames from slot. onClose, if not
// nil, runs once on Close after the slot is closed.
func NewSlotSync(slot *Slot, onClose func()) *SlotSync {
	return &SlotSync{slot: slot, onClose: onClose}
}

// CaptureVideo implements FrameSync. Transports deliver whole frames, so
// mode is not consulted.
func (s *SlotSync) CaptureVideo(FieldMode) (*Frame, bool) {
	f := s.slot.Take()
	return f, f != nil
}

// Stats implements StatsReporter.
func (s *SlotSync) Stats() (published, dropped uint64) { return s.slot.Stats() }

// Close implements FrameSync.
func (s *SlotSync) Close() {
	s.once.Do(func() {
		s.slot.Close()
		if s.onClose != nil {
			s.onClose()
		}
	})
}

var (
	_ FrameSync     = (*SlotSync)(nil)
	_ StatsReporter = (*SlotSync)(nil)
)
