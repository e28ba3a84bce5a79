// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package source defines the video-transport contracts of ndimon and the
// transport-independent pieces shared by every implementation.
//
// A Connector opens a Receiver for a source name and a FrameSync on top of
// it. The FrameSync is polled once per render tick; CaptureVideo never
// blocks and hands out at most one Frame, which the caller must Release.
//
// Transports publish into a Slot, a single-frame mailbox that keeps only the
// latest frame. PatternConnector is a synthetic transport producing moving
// color bars; Mux routes source names to connectors by prefix.
//
// Example:
//
//	mux := source.NewMux(ndi.NewConnector(ndi.Options{}))
//	mux.Handle(source.PatternPrefix, source.NewPatternConnector())
//
//	rx, err := mux.OpenReceiver("pattern:640x360@30")
//	if err != nil {
//	    rx, sync = source.Stalled(name)
//	}
package source
