// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package ndi

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/gogpu/ndimon"
	"github.com/gogpu/ndimon/source"
)

// ErrPipeline is returned when the GStreamer pipeline cannot be built or
// started.
var ErrPipeline = errors.New("ndi: pipeline failed")

// Defaults for Options.
const (
	DefaultReceiverName = "ndimon"

	// BandwidthHighest requests full-quality video from the sender.
	BandwidthHighest = 100

	busPollInterval = 100 * time.Millisecond
)

// Options configures a Connector.
type Options struct {
	// ReceiverName is how this receiver announces itself to senders.
	ReceiverName string

	// Bandwidth is the ndisrc bandwidth value; 100 is highest quality.
	Bandwidth int
}

func (o Options) withDefaults() Options {
	if o.ReceiverName == "" {
		o.ReceiverName = DefaultReceiverName
	}
	if o.Bandwidth == 0 {
		o.Bandwidth = BandwidthHighest
	}
	return o
}

// Connector opens NDI receivers. It implements source.Connector.
type Connector struct {
	opts     Options
	initOnce sync.Once
}

// NewConnector returns a connector; GStreamer is initialized on first use.
func NewConnector(opts Options) *Connector {
	return &Connector{opts: opts.withDefaults()}
}

// OpenReceiver implements source.Connector. The pipeline starts connecting
// in the background; an unreachable source simply never produces frames.
func (c *Connector) OpenReceiver(name string) (source.Receiver, error) {
	if name == "" {
		return nil, source.ErrEmptyName
	}
	c.initOnce.Do(func() { gst.Init(nil) })

	r := &Receiver{
		name: name,
		id:   uuid.NewString(),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	if err := r.build(c.opts); err != nil {
		return nil, err
	}
	if err := r.pipeline.SetState(gst.StatePlaying); err != nil {
		_ = r.pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("%w: start %q: %v", ErrPipeline, name, err)
	}
	go r.watchBus()

	ndimon.Logger().Info("ndi: receiver opened",
		"name", name, "id", r.id, "recv_name", c.opts.ReceiverName, "bandwidth", c.opts.Bandwidth)
	return r, nil
}

// OpenFrameSync implements source.Connector.
func (c *Connector) OpenFrameSync(r source.Receiver) (source.FrameSync, error) {
	nr, ok := r.(*Receiver)
	if !ok {
		return nil, source.ErrForeignReceiver
	}
	return nr.attach()
}

// Receiver is one NDI connection.
type Receiver struct {
	name string
	id   string

	pipeline *gst.Pipeline
	sink     *app.Sink
	queue    *gst.Element
	linked   atomic.Bool

	slot     atomic.Pointer[source.Slot]
	pool     source.BufferPool
	closed   atomic.Bool
	received atomic.Uint64

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Name implements source.Receiver.
func (r *Receiver) Name() string { return r.name }

// ID implements source.Receiver.
func (r *Receiver) ID() string { return r.id }

func (r *Receiver) build(opts Options) error {
	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return fmt.Errorf("%w: create pipeline: %v", ErrPipeline, err)
	}

	src, err := gst.NewElement("ndisrc")
	if err != nil {
		return fmt.Errorf("%w: create ndisrc (is gst-plugin-ndi installed?): %v", ErrPipeline, err)
	}
	for key, value := range sourceProperties(r.name, opts) {
		if err := src.SetProperty(key, value); err != nil {
			return fmt.Errorf("%w: ndisrc %s: %v", ErrPipeline, key, err)
		}
	}

	demux, err := gst.NewElement("ndisrcdemux")
	if err != nil {
		return fmt.Errorf("%w: create ndisrcdemux: %v", ErrPipeline, err)
	}
	queue, err := gst.NewElement("queue")
	if err != nil {
		return fmt.Errorf("%w: create queue: %v", ErrPipeline, err)
	}
	convert, err := gst.NewElement("videoconvert")
	if err != nil {
		return fmt.Errorf("%w: create videoconvert: %v", ErrPipeline, err)
	}
	filter, err := gst.NewElement("capsfilter")
	if err != nil {
		return fmt.Errorf("%w: create capsfilter: %v", ErrPipeline, err)
	}
	if err := filter.SetProperty("caps", gst.NewCapsFromString(outputCaps)); err != nil {
		return fmt.Errorf("%w: capsfilter caps: %v", ErrPipeline, err)
	}

	sink, err := app.NewAppSink()
	if err != nil {
		return fmt.Errorf("%w: create appsink: %v", ErrPipeline, err)
	}
	sink.SetProperty("sync", false)
	sink.SetProperty("max-buffers", 1)
	sink.SetProperty("drop", true)
	sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: r.onSample,
	})

	if err := pipeline.AddMany(src, demux, queue, convert, filter, sink.Element); err != nil {
		return fmt.Errorf("%w: add elements: %v", ErrPipeline, err)
	}
	if err := src.Link(demux); err != nil {
		return fmt.Errorf("%w: link ndisrc: %v", ErrPipeline, err)
	}
	if err := gst.ElementLinkMany(queue, convert, filter, sink.Element); err != nil {
		return fmt.Errorf("%w: link video branch: %v", ErrPipeline, err)
	}

	// ndisrcdemux exposes its video pad once the stream is known.
	if _, err := demux.Connect("pad-added", r.onPadAdded); err != nil {
		return fmt.Errorf("%w: connect pad-added: %v", ErrPipeline, err)
	}

	r.pipeline = pipeline
	r.sink = sink
	r.queue = queue
	return nil
}

// outputCaps pins the appsink input to tightly packed RGBA.
const outputCaps = "video/x-raw,format=RGBA"

// sourceProperties returns the ndisrc properties for a source name.
func sourceProperties(name string, opts Options) map[string]any {
	return map[string]any{
		"ndi-name":          name,
		"receiver-ndi-name": opts.ReceiverName,
		"bandwidth":         opts.Bandwidth,
	}
}

func (r *Receiver) onPadAdded(_ *gst.Element, pad *gst.Pad) {
	log := ndimon.Logger()
	if !isVideoPad(pad.GetName()) || r.linked.Load() {
		return
	}
	sinkPad := r.queue.GetStaticPad("sink")
	if sinkPad == nil {
		log.Warn("ndi: queue has no sink pad", "name", r.name)
		return
	}
	if ret := pad.Link(sinkPad); ret != gst.PadLinkOK {
		log.Warn("ndi: link video pad failed", "name", r.name, "pad", pad.GetName(), "ret", ret)
		return
	}
	r.linked.Store(true)
	log.Debug("ndi: video pad linked", "name", r.name, "pad", pad.GetName())
}

func isVideoPad(name string) bool {
	return len(name) >= 5 && name[:5] == "video"
}

func (r *Receiver) onSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowOK
	}
	r.received.Add(1)

	slot := r.slot.Load()
	if slot == nil {
		return gst.FlowOK
	}

	width, height, ok := sampleSize(sample)
	if !ok {
		ndimon.Logger().Debug("ndi: sample without size caps", "name", r.name)
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}
	mapped := buffer.Map(gst.MapRead)
	data := mapped.Bytes()
	frame, err := copyFrame(&r.pool, data, width, height)
	buffer.Unmap()
	if err != nil {
		ndimon.Logger().Debug("ndi: dropping sample", "name", r.name, "err", err)
		return gst.FlowOK
	}
	slot.Put(frame)
	return gst.FlowOK
}

func sampleSize(sample *gst.Sample) (int, int, bool) {
	caps := sample.GetCaps()
	if caps == nil || caps.GetSize() == 0 {
		return 0, 0, false
	}
	s := caps.GetStructureAt(0)
	if s == nil {
		return 0, 0, false
	}
	wv, err := s.GetValue("width")
	if err != nil {
		return 0, 0, false
	}
	hv, err := s.GetValue("height")
	if err != nil {
		return 0, 0, false
	}
	w, okW := intValue(wv)
	h, okH := intValue(hv)
	return w, h, okW && okH && w > 0 && h > 0
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint32:
		return int(n), true
	default:
		return 0, false
	}
}

// copyFrame copies a mapped RGBA buffer into a pooled frame. The stride is
// derived from the buffer length so padded rows are preserved.
func copyFrame(pool *source.BufferPool, data []byte, width, height int) (*source.Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid size %dx%d", width, height)
	}
	stride := len(data) / height
	if stride < width*4 {
		return nil, fmt.Errorf("buffer of %d bytes too small for %dx%d", len(data), width, height)
	}
	buf := pool.Get(stride * height)
	copy(buf, data)
	return source.NewFrame(width, height, stride, source.PixelRGBA, buf, func() { pool.Put(buf) }), nil
}

func (r *Receiver) attach() (source.FrameSync, error) {
	if r.closed.Load() {
		return nil, source.ErrClosed
	}
	slot := &source.Slot{}
	if prev := r.slot.Swap(slot); prev != nil {
		prev.Close()
	}
	return source.NewSlotSync(slot, func() { r.slot.CompareAndSwap(slot, nil) }), nil
}

// watchBus logs pipeline messages until Close. Errors are reported but do
// not stop the pipeline; recovery is switching sources.
func (r *Receiver) watchBus() {
	defer close(r.done)
	log := ndimon.Logger()
	bus := r.pipeline.GetPipelineBus()
	for {
		select {
		case <-r.stop:
			return
		default:
		}
		msg := bus.TimedPop(busPollInterval)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageEOS:
			log.Info("ndi: end of stream", "name", r.name, "id", r.id)
		case gst.MessageError:
			gerr := msg.ParseError()
			log.Warn("ndi: pipeline error",
				"name", r.name, "id", r.id, "error", gerr.Error(), "debug", gerr.DebugString())
		case gst.MessageWarning:
			gerr := msg.ParseWarning()
			log.Warn("ndi: pipeline warning", "name", r.name, "id", r.id, "warning", gerr.Error())
		case gst.MessageStateChanged:
			if msg.Source() == r.pipeline.GetName() {
				old, state := msg.ParseStateChanged()
				log.Debug("ndi: pipeline state changed", "name", r.name, "from", old, "to", state)
			}
		}
	}
}

// Close implements source.Receiver. It stops the bus watcher, sets the
// pipeline to NULL and closes any frame sync still attached.
func (r *Receiver) Close() {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.stop)
		<-r.done
		if err := r.pipeline.SetState(gst.StateNull); err != nil {
			ndimon.Logger().Warn("ndi: stop pipeline", "name", r.name, "err", err)
		}
		if slot := r.slot.Swap(nil); slot != nil {
			slot.Close()
		}
		ndimon.Logger().Info("ndi: receiver closed", "name", r.name, "id", r.id, "samples", r.received.Load())
	})
}

var (
	_ source.Connector = (*Connector)(nil)
	_ source.Receiver  = (*Receiver)(nil)
)
