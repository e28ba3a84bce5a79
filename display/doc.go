// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package display is the render engine of ndimon.
//
// One Engine drives everything that happens on the render goroutine:
//
//  1. Controller applies the latest pending source request, tearing down the
//     previous receiver, frame sync and live texture;
//  2. Acquirer pulls at most one frame and uploads it, recreating the live
//     texture when the source resolution changes;
//  3. Compositor draws the selected visual into an offscreen target at the
//     working resolution, then presents it letterboxed to the window.
//
// The state machine has three states:
//
//	Idle ──RequestSource──▶ Connecting ──first frame──▶ Live
//	  ▲                        ▲  │                       │
//	  └────── Teardown ────────┼──┘◀──── RequestSource ───┘
//	                           └───────────────────────────
//
// RequestSource is the only method safe to call from other goroutines, along
// with Status and Title which read a published snapshot.
package display
