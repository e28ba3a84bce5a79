// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package source

import "errors"

// Sentinel errors.
var (
	// ErrClosed is returned when operating on a closed receiver.
	ErrClosed = errors.New("source: closed")

	// ErrEmptyName is returned when opening a receiver without a name.
	ErrEmptyName = errors.New("source: empty source name")

	// ErrForeignReceiver is returned by OpenFrameSync for a receiver opened
	// by a different connector.
	ErrForeignReceiver = errors.New("source: receiver belongs to another connector")

	// ErrNoConnector is returned by a Mux with no route for a name.
	ErrNoConnector = errors.New("source: no connector for source name")

	// ErrBadPattern is returned for a malformed pattern source name.
	ErrBadPattern = errors.New("source: malformed pattern name")
)

// FieldMode selects how interlaced video is delivered.
type FieldMode uint8

const (
	// Progressive requests whole frames.
	Progressive FieldMode = iota

	// Fielded requests individual fields.
	Fielded
)

// String returns the mode name.
func (m FieldMode) String() string {
	switch m {
	case Progressive:
		return "progressive"
	case Fielded:
		return "fielded"
	default:
		return "unknown"
	}
}

// Receiver is a connection to one named source.
type Receiver interface {
	// Name returns the source name the receiver was opened for.
	Name() string

	// ID returns a connection id unique to this receiver.
	ID() string

	// Close disconnects. It is idempotent.
	Close()
}

// FrameSync re-times a receiver's frames to the consumer's cadence.
type FrameSync interface {
	// CaptureVideo returns the newest frame received since the previous
	// call, or false when there is none. It never blocks. The caller owns the
	// returned frame and must Release it.
	CaptureVideo(mode FieldMode) (*Frame, bool)

	// Close detaches from the receiver and drops any pending frame. It must
	// be called before the receiver is closed. It is idempotent.
	Close()
}

// StatsReporter is implemented by frame syncs that count delivered frames
// and frames overwritten before they were captured.
type StatsReporter interface {
	Stats() (published, dropped uint64)
}

// Connector opens receivers and frame syncs for one transport.
type Connector interface {
	// OpenReceiver connects to the named source. Connecting is asynchronous:
	// a nil error does not mean the source is reachable.
	OpenReceiver(name string) (Receiver, error)

	// OpenFrameSync attaches a frame sync to a receiver from this connector.
	OpenFrameSync(r Receiver) (FrameSync, error)
}
