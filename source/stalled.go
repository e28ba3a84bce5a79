// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package source

import "github.com/google/uuid"

// Stalled returns a receiver and frame sync for name that never produce a
// frame. It stands in for a connection that could not be opened, so a
// source stays in the connecting state until the next switch.
func Stalled(name string) (Receiver, FrameSync) {
	return &stalledReceiver{name: name, id: uuid.NewString()}, stalledSync{}
}

type stalledReceiver struct {
	name string
	id   string
}

func (r *stalledReceiver) Name() string { return r.name }
func (r *stalledReceiver) ID() string   { return r.id }
func (r *stalledReceiver) Close()       {}

type stalledSync struct{}

func (stalledSync) CaptureVideo(FieldMode) (*Frame, bool) { return nil, false }
func (stalledSync) Close()                                {}

// IsStalled reports whether r was returned by Stalled.
func IsStalled(r Receiver) bool {
	_, ok := r.(*stalledReceiver)
	return ok
}
