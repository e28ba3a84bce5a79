// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import "fmt"

// State is the stream lifecycle state.
type State uint8

const (
	// Idle means no receiver exists.
	Idle State = iota

	// Connecting means a receiver and frame sync exist but no frame has
	// produced a live texture yet.
	Connecting

	// Live means a live texture exists and is refreshed from the source.
	Live
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Live:
		return "live"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}
