// Package ndimon is a live video monitor for NDI sources.
//
// # Overview
//
// ndimon shows one network video source in a window, letterboxed to 16:9,
// with placeholder images while no source is selected or while a source is
// connecting. The source is switched at runtime over HTTP:
//
//	GET /source/{sourceName}
//
// # Packages
//
//   - display: the render engine (Idle -> Connecting -> Live state machine,
//     frame acquisition, two-pass compositing)
//   - render: GPU resource manager with a wgpu device and a software device
//   - source: receiver and frame sync contracts, latest-frame slot, test
//     pattern sources; source/ndi implements them over GStreamer
//   - assets, caption: placeholder images and the source-name overlay
//   - server: HTTP command surface and status feed
//   - integration/gogpuhost: runs the engine inside a gogpu window
//
// # Coordinate Conventions
//
// This package holds the transforms shared by every layer. Pixel space has y
// growing downwards; normalized device space spans [-1, 1] with y growing
// upwards. PlacementTransform maps a content rectangle in pixel space onto
// the unit quad, FullCanvas covers the whole container and
// LetterboxTransform fits the composed image into a window of any shape.
//
// # Logging
//
// Nothing is logged by default. SetLogger installs a *slog.Logger shared by
// every sub-package.
package ndimon
