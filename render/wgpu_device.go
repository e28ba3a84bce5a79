// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/ndimon"
)

// WGPUDevice implements Device on a gogpu/wgpu device.
//
// The device itself belongs to the host (see DeviceHandle); WGPUDevice owns
// only what it creates: textures, render targets, programs, the quad vertex
// buffer, the sampler and per-draw uniforms. Each pass is recorded into its
// own command encoder and submitted by EndPass.
type WGPUDevice struct {
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceFormat gputypes.TextureFormat

	sampler        *wgpu.Sampler
	vertices       *wgpu.Buffer
	bindLayout     *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout

	textures     map[TextureID]*gpuTexture
	framebuffers map[FramebufferID]TextureID
	programs     map[ProgramID]*gpuProgram

	nextTexture     TextureID
	nextFramebuffer FramebufferID
	nextProgram     ProgramID

	surface  *wgpu.TextureView
	surfaceW int
	surfaceH int
	uniforms []*wgpu.Buffer
	pass     *gpuPass

	uniformScratch [uniformSize]byte
	vertexScratch  [len(quadVertices) * 4]byte
}

type gpuTexture struct {
	tex    *wgpu.Texture
	view   *wgpu.TextureView
	width  int
	height int
	format Format
}

type gpuProgram struct {
	vertex    *wgpu.ShaderModule
	fragment  *wgpu.ShaderModule
	pipelines map[gputypes.TextureFormat]*wgpu.RenderPipeline
}

type gpuPass struct {
	encoder    *wgpu.CommandEncoder
	rp         *wgpu.RenderPassEncoder
	format     gputypes.TextureFormat
	offscreen  bool
	bindGroups []*wgpu.BindGroup
	draws      int
}

// NewWGPUDevice prepares the shared quad resources on device.
// surfaceFormat is the color format of the window surface; pass
// gputypes.TextureFormatUndefined when presenting is not needed.
func NewWGPUDevice(device *wgpu.Device, surfaceFormat gputypes.TextureFormat) (*WGPUDevice, error) {
	if device == nil {
		return nil, fmt.Errorf("render: nil wgpu device")
	}
	d := &WGPUDevice{
		device:        device,
		queue:         device.Queue(),
		surfaceFormat: surfaceFormat,
		textures:      make(map[TextureID]*gpuTexture),
		framebuffers:  make(map[FramebufferID]TextureID),
		programs:      make(map[ProgramID]*gpuProgram),
	}
	if err := d.init(); err != nil {
		d.Close()
		return nil, err
	}
	ndimon.Logger().Info("render: wgpu device ready", "surface_format", surfaceFormat)
	return d, nil
}

// NewWGPUDeviceFromHandle wraps the wgpu device behind a host handle. It
// fails with ErrNoDevice when the host is not backed by gogpu/wgpu.
func NewWGPUDeviceFromHandle(h DeviceHandle) (*WGPUDevice, error) {
	if h == nil {
		return nil, ErrNoDevice
	}
	device, ok := h.Device().(*wgpu.Device)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNoDevice, h.Device())
	}
	return NewWGPUDevice(device, h.SurfaceFormat())
}

func (d *WGPUDevice) init() error {
	var err error
	d.sampler, err = d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:        "ndimon-quad-sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
	})
	if err != nil {
		return fmt.Errorf("render: create sampler: %w", err)
	}

	d.vertices, err = d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ndimon-quad-vertices",
		Size:  uint64(len(d.vertexScratch)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("render: create vertex buffer: %w", err)
	}
	for i, v := range quadVertices {
		binary.LittleEndian.PutUint32(d.vertexScratch[i*4:], math.Float32bits(v))
	}
	if err := d.queue.WriteBuffer(d.vertices, 0, d.vertexScratch[:]); err != nil {
		return fmt.Errorf("render: upload vertices: %w", err)
	}

	d.bindLayout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "ndimon-quad-bind-layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("render: create bind group layout: %w", err)
	}

	d.pipelineLayout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "ndimon-quad-pipeline-layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{d.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("render: create pipeline layout: %w", err)
	}
	return nil
}

// Backend returns "wgpu".
func (d *WGPUDevice) Backend() string { return "wgpu" }

// SetSurface binds the window surface view for the current frame. The view
// is owned by the host and only borrowed until the next SetSurface.
func (d *WGPUDevice) SetSurface(view *wgpu.TextureView, width, height int) {
	d.surface = view
	d.surfaceW = width
	d.surfaceH = height
}

// CreateTexture implements Device.
func (d *WGPUDevice) CreateTexture(width, height int, format Format) (TextureID, error) {
	t, err := d.newTexture("ndimon-texture", width, height, format,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst)
	if err != nil {
		return 0, err
	}
	d.nextTexture++
	d.textures[d.nextTexture] = t
	return d.nextTexture, nil
}

func (d *WGPUDevice) newTexture(label string, width, height int, format Format, usage gputypes.TextureUsage) (*gpuTexture, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format.gpuFormat(),
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create texture %dx%d: %w", width, height, err)
	}
	view, err := d.device.CreateTextureView(tex, nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("render: create texture view: %w", err)
	}
	return &gpuTexture{tex: tex, view: view, width: width, height: height, format: format}, nil
}

// UploadSubImage implements Device.
func (d *WGPUDevice) UploadSubImage(id TextureID, width, height, stride int, pix []byte) error {
	t, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("texture %d: %w", id, ErrUnknownTexture)
	}
	stride, err := checkUpload(t.width, t.height, width, height, stride, pix)
	if err != nil {
		return fmt.Errorf("texture %d: %w", id, err)
	}
	data := pix[:stride*(height-1)+width*4]
	err = d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		data,
		&wgpu.ImageDataLayout{Offset: 0, BytesPerRow: uint32(stride), RowsPerImage: uint32(height)},
		&wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("render: write texture %d: %w", id, err)
	}
	return nil
}

// DestroyTexture implements Device.
func (d *WGPUDevice) DestroyTexture(id TextureID) {
	t, ok := d.textures[id]
	if !ok {
		return
	}
	t.view.Release()
	t.tex.Release()
	delete(d.textures, id)
}

// CreateRenderTarget implements Device.
func (d *WGPUDevice) CreateRenderTarget(width, height int) (FramebufferID, TextureID, error) {
	t, err := d.newTexture("ndimon-render-target", width, height, FormatRGBA8,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrFramebufferIncomplete, err)
	}
	d.nextTexture++
	d.textures[d.nextTexture] = t
	d.nextFramebuffer++
	d.framebuffers[d.nextFramebuffer] = d.nextTexture
	return d.nextFramebuffer, d.nextTexture, nil
}

// DestroyRenderTarget implements Device.
func (d *WGPUDevice) DestroyRenderTarget(fb FramebufferID) {
	tex, ok := d.framebuffers[fb]
	if !ok {
		return
	}
	d.DestroyTexture(tex)
	delete(d.framebuffers, fb)
}

// CompileProgram implements Device. Sources are validated with naga before
// the shader modules are created; pipelines are built lazily per color
// format on first draw.
func (d *WGPUDevice) CompileProgram(vertexSource, fragmentSource string) (ProgramID, error) {
	if err := checkProgram(vertexSource, fragmentSource); err != nil {
		return 0, err
	}
	vs, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{Label: "ndimon-quad-vs", WGSL: vertexSource})
	if err != nil {
		return 0, fmt.Errorf("%w: vertex module: %v", ErrShaderCompile, err)
	}
	fs, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{Label: "ndimon-quad-fs", WGSL: fragmentSource})
	if err != nil {
		vs.Release()
		return 0, fmt.Errorf("%w: fragment module: %v", ErrShaderCompile, err)
	}
	prog := &gpuProgram{vertex: vs, fragment: fs, pipelines: make(map[gputypes.TextureFormat]*wgpu.RenderPipeline)}

	// Link eagerly for the offscreen format so failures surface at load.
	if _, err := d.pipeline(prog, gputypes.TextureFormatRGBA8Unorm); err != nil {
		releaseProgram(prog)
		return 0, err
	}
	d.nextProgram++
	d.programs[d.nextProgram] = prog
	return d.nextProgram, nil
}

func (d *WGPUDevice) pipeline(prog *gpuProgram, format gputypes.TextureFormat) (*wgpu.RenderPipeline, error) {
	if p, ok := prog.pipelines[format]; ok {
		return p, nil
	}
	blend := gputypes.BlendStateAlpha()
	p, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "ndimon-quad",
		Layout: d.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     prog.vertex,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: 5 * 4,
				StepMode:    gputypes.VertexStepModeVertex,
				Attributes: []gputypes.VertexAttribute{
					{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: gputypes.VertexFormatFloat32x2, Offset: 3 * 4, ShaderLocation: 1},
				},
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: ^uint64(0)},
		Fragment: &wgpu.FragmentState{
			Module:     prog.fragment,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: link for %v: %v", ErrShaderCompile, format, err)
	}
	prog.pipelines[format] = p
	return p, nil
}

// DestroyProgram implements Device.
func (d *WGPUDevice) DestroyProgram(p ProgramID) {
	prog, ok := d.programs[p]
	if !ok {
		return
	}
	releaseProgram(prog)
	delete(d.programs, p)
}

func releaseProgram(prog *gpuProgram) {
	for _, p := range prog.pipelines {
		p.Release()
	}
	prog.vertex.Release()
	prog.fragment.Release()
}

// BeginPass implements Device.
func (d *WGPUDevice) BeginPass(fb FramebufferID, vp Viewport, clear Color) error {
	if d.pass != nil {
		return ErrPassActive
	}
	var (
		view      *wgpu.TextureView
		format    gputypes.TextureFormat
		height    int
		offscreen bool
	)
	if fb == ScreenFramebuffer {
		if d.surface == nil {
			return ErrNoSurface
		}
		view, format, height = d.surface, d.surfaceFormat, d.surfaceH
	} else {
		texID, ok := d.framebuffers[fb]
		if !ok {
			return fmt.Errorf("framebuffer %d: %w", fb, ErrFramebufferIncomplete)
		}
		t := d.textures[texID]
		view, format, height, offscreen = t.view, t.format.gpuFormat(), t.height, true
	}

	encoder, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "ndimon-pass"})
	if err != nil {
		return fmt.Errorf("render: create encoder: %w", err)
	}
	rp, err := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "ndimon-pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: clear.R, G: clear.G, B: clear.B, A: clear.A},
		}},
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("render: begin pass: %w", err)
	}

	// Offscreen viewports are given bottom-origin; WebGPU's are top-origin.
	y := vp.Y
	if offscreen {
		y = height - vp.Y - vp.Height
	}
	rp.SetViewport(float32(vp.X), float32(y), float32(vp.Width), float32(vp.Height), 0, 1)

	d.pass = &gpuPass{encoder: encoder, rp: rp, format: format, offscreen: offscreen}
	return nil
}

// DrawQuad implements Device.
func (d *WGPUDevice) DrawQuad(p ProgramID, tex TextureID, transform ndimon.Matrix, flipY bool) error {
	pass := d.pass
	if pass == nil {
		return ErrNoPass
	}
	prog, ok := d.programs[p]
	if !ok {
		return fmt.Errorf("program %d: %w", p, ErrUnknownProgram)
	}
	t, ok := d.textures[tex]
	if !ok {
		return fmt.Errorf("texture %d: %w", tex, ErrUnknownTexture)
	}
	pipeline, err := d.pipeline(prog, pass.format)
	if err != nil {
		return err
	}

	ubo, err := d.uniformBuffer(pass.draws)
	if err != nil {
		return err
	}
	d.encodeUniforms(transform, t, flipY, pass.offscreen)
	if err := d.queue.WriteBuffer(ubo, 0, d.uniformScratch[:]); err != nil {
		return fmt.Errorf("render: write uniforms: %w", err)
	}

	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "ndimon-quad-bind",
		Layout: d.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: ubo, Size: uniformSize},
			{Binding: 1, TextureView: t.view},
			{Binding: 2, Sampler: d.sampler},
		},
	})
	if err != nil {
		return fmt.Errorf("render: create bind group: %w", err)
	}
	pass.bindGroups = append(pass.bindGroups, bg)
	pass.draws++

	pass.rp.SetPipeline(pipeline)
	pass.rp.SetBindGroup(0, bg, nil)
	pass.rp.SetVertexBuffer(0, d.vertices, 0)
	pass.rp.Draw(4, 1, 0, 0)
	return nil
}

// uniformBuffer returns the i-th uniform buffer of the pool. Passes are
// submitted one at a time, so buffers are reused across passes.
func (d *WGPUDevice) uniformBuffer(i int) (*wgpu.Buffer, error) {
	for len(d.uniforms) <= i {
		buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "ndimon-quad-uniforms",
			Size:  uniformSize,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("render: create uniform buffer: %w", err)
		}
		d.uniforms = append(d.uniforms, buf)
	}
	return d.uniforms[i], nil
}

func (d *WGPUDevice) encodeUniforms(m ndimon.Matrix, t *gpuTexture, flipY, offscreen bool) {
	b := d.uniformScratch[:]
	clear(b)
	for i, v := range m {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(b[64:], math.Float32bits(float32(t.width)))
	binary.LittleEndian.PutUint32(b[68:], math.Float32bits(float32(t.height)))
	if flipY {
		binary.LittleEndian.PutUint32(b[72:], 1)
	}
	if t.format == FormatRGBX8 {
		binary.LittleEndian.PutUint32(b[76:], 1)
	}
	targetY := float32(1)
	if offscreen {
		targetY = -1
	}
	binary.LittleEndian.PutUint32(b[80:], math.Float32bits(targetY))
}

// EndPass implements Device.
func (d *WGPUDevice) EndPass() error {
	pass := d.pass
	if pass == nil {
		return ErrNoPass
	}
	d.pass = nil
	defer func() {
		for _, bg := range pass.bindGroups {
			bg.Release()
		}
	}()

	if err := pass.rp.End(); err != nil {
		pass.encoder.DiscardEncoding()
		return fmt.Errorf("render: end pass: %w", err)
	}
	cmd, err := pass.encoder.Finish()
	if err != nil {
		return fmt.Errorf("render: finish encoder: %w", err)
	}
	if _, err := d.queue.Submit(cmd); err != nil {
		return fmt.Errorf("render: submit: %w", err)
	}
	return nil
}

// Close releases every object the device created. The wgpu device itself
// stays with its owner.
func (d *WGPUDevice) Close() {
	for id := range d.textures {
		d.DestroyTexture(id)
	}
	clear(d.framebuffers)
	for id := range d.programs {
		d.DestroyProgram(id)
	}
	for _, buf := range d.uniforms {
		buf.Release()
	}
	d.uniforms = nil
	if d.pipelineLayout != nil {
		d.pipelineLayout.Release()
		d.pipelineLayout = nil
	}
	if d.bindLayout != nil {
		d.bindLayout.Release()
		d.bindLayout = nil
	}
	if d.vertices != nil {
		d.vertices.Release()
		d.vertices = nil
	}
	if d.sampler != nil {
		d.sampler.Release()
		d.sampler = nil
	}
}

var _ Device = (*WGPUDevice)(nil)
