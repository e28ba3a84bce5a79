// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package ndi receives NDI video through GStreamer.
//
// Each receiver runs one pipeline:
//
//	ndisrc ! ndisrcdemux ! queue ! videoconvert ! video/x-raw,format=RGBA ! appsink
//
// The appsink keeps at most one buffer and drops older ones; each new sample
// is copied into a pooled buffer and published into the attached frame
// sync's source.Slot. Requires GStreamer with the NDI plugin (gst-plugin-ndi)
// and the NDI runtime at run time.
package ndi
