//go:build !nogpu

// Package native implements gpucore.Device on top of gogpu/wgpu/hal.
package native

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderbind/gpucore"
)

var (
	// ErrNotFound is returned when an ID does not name a live object.
	ErrNotFound = errors.New("native: object not found")

	// ErrBindingArray is returned for bindings with more than one element.
	// hal bind groups bind one resource per binding index.
	ErrBindingArray = errors.New("native: binding arrays are not supported")

	// ErrNoHAL is returned when a device provider does not expose hal objects.
	ErrNoHAL = errors.New("native: provider does not expose a hal device")
)

// Device implements gpucore.Device using gogpu/wgpu/hal directly.
//
// Texture views and samplers are created by the caller and registered
// with RegisterTextureView and RegisterSampler before they can be bound.
//
// Thread Safety: Device is safe for concurrent use from multiple goroutines.
type Device struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue

	maxBufferSize uint64

	// ID generation
	nextID atomic.Uint64

	buffers          map[gpucore.BufferID]hal.Buffer
	shaderModules    map[gpucore.ShaderModuleID]hal.ShaderModule
	bindGroupLayouts map[gpucore.BindGroupLayoutID]hal.BindGroupLayout
	pipelineLayouts  map[gpucore.PipelineLayoutID]hal.PipelineLayout
	bindGroups       map[gpucore.BindGroupID]hal.BindGroup
	textureViews     map[gpucore.TextureViewID]hal.TextureView
	samplers         map[gpucore.SamplerID]hal.Sampler
}

// New wraps a hal device and queue. If limits is nil, default limits are used.
func New(device hal.Device, queue hal.Queue, limits *gputypes.Limits) *Device {
	lim := gputypes.DefaultLimits()
	if limits != nil {
		lim = *limits
	}
	d := &Device{
		device:           device,
		queue:            queue,
		maxBufferSize:    lim.MaxBufferSize,
		buffers:          make(map[gpucore.BufferID]hal.Buffer),
		shaderModules:    make(map[gpucore.ShaderModuleID]hal.ShaderModule),
		bindGroupLayouts: make(map[gpucore.BindGroupLayoutID]hal.BindGroupLayout),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID]hal.PipelineLayout),
		bindGroups:       make(map[gpucore.BindGroupID]hal.BindGroup),
		textureViews:     make(map[gpucore.TextureViewID]hal.TextureView),
		samplers:         make(map[gpucore.SamplerID]hal.Sampler),
	}

	// Start ID generation at 1 (0 is invalid)
	d.nextID.Store(1)

	return d
}

// NewFromProvider builds a Device from a host application's provider.
// The provider must also implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHAL, hp.HalQueue())
	}
	return New(device, queue, nil), nil
}

func (d *Device) newID() uint64 {
	return d.nextID.Add(1) - 1
}

// MaxBufferSize returns the maximum buffer size in bytes.
func (d *Device) MaxBufferSize() uint64 { return d.maxBufferSize }

// === Caller-owned objects ===

// RegisterTextureView makes a view bindable and returns its ID.
// The view stays owned by the caller.
func (d *Device) RegisterTextureView(view hal.TextureView) gpucore.TextureViewID {
	id := gpucore.TextureViewID(d.newID())
	d.mu.Lock()
	d.textureViews[id] = view
	d.mu.Unlock()
	return id
}

// UnregisterTextureView forgets a registered view. Bind groups already
// created with it are unaffected.
func (d *Device) UnregisterTextureView(id gpucore.TextureViewID) {
	d.mu.Lock()
	delete(d.textureViews, id)
	d.mu.Unlock()
}

// RegisterSampler makes a sampler bindable and returns its ID.
func (d *Device) RegisterSampler(s hal.Sampler) gpucore.SamplerID {
	id := gpucore.SamplerID(d.newID())
	d.mu.Lock()
	d.samplers[id] = s
	d.mu.Unlock()
	return id
}

// UnregisterSampler forgets a registered sampler.
func (d *Device) UnregisterSampler(id gpucore.SamplerID) {
	d.mu.Lock()
	delete(d.samplers, id)
	d.mu.Unlock()
}

// HalBindGroup returns the hal bind group behind id, for encoding passes.
func (d *Device) HalBindGroup(id gpucore.BindGroupID) (hal.BindGroup, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.bindGroups[id]
	return g, ok
}

// HalPipelineLayout returns the hal pipeline layout behind id.
func (d *Device) HalPipelineLayout(id gpucore.PipelineLayoutID) (hal.PipelineLayout, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	l, ok := d.pipelineLayouts[id]
	return l, ok
}

// HalShaderModule returns the hal shader module behind id.
func (d *Device) HalShaderModule(id gpucore.ShaderModuleID) (hal.ShaderModule, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.shaderModules[id]
	return m, ok
}

// === Shader Compilation ===

// CreateShaderModule creates a shader module from SPIR-V bytecode.
func (d *Device) CreateShaderModule(spirv []uint32, label string) (gpucore.ShaderModuleID, error) {
	if len(spirv) == 0 {
		return gpucore.InvalidID, fmt.Errorf("empty SPIR-V bytecode")
	}

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create shader module: %w", err)
	}

	id := gpucore.ShaderModuleID(d.newID())
	d.mu.Lock()
	d.shaderModules[id] = module
	d.mu.Unlock()
	return id, nil
}

// DestroyShaderModule releases a shader module.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	module, ok := d.shaderModules[id]
	if ok {
		delete(d.shaderModules, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyShaderModule(module)
	}
}

// === Buffer Management ===

// CreateBuffer creates a GPU buffer.
func (d *Device) CreateBuffer(size int, usage gpucore.BufferUsage, label string) (gpucore.BufferID, error) {
	if size <= 0 {
		return gpucore.InvalidID, fmt.Errorf("buffer size must be positive")
	}
	if d.maxBufferSize > 0 && uint64(size) > d.maxBufferSize {
		return gpucore.InvalidID, fmt.Errorf("buffer size %d exceeds device limit %d", size, d.maxBufferSize)
	}

	buffer, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(size),
		Usage: convertBufferUsage(usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create buffer: %w", err)
	}

	id := gpucore.BufferID(d.newID())
	d.mu.Lock()
	d.buffers[id] = buffer
	d.mu.Unlock()
	return id, nil
}

// DestroyBuffer releases a GPU buffer.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	buffer, ok := d.buffers[id]
	if ok {
		delete(d.buffers, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyBuffer(buffer)
	}
}

// WriteBuffer writes data to a buffer through the queue.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {
	d.mu.RLock()
	buffer, ok := d.buffers[id]
	d.mu.RUnlock()

	if ok && len(data) > 0 {
		d.queue.WriteBuffer(buffer, offset, data)
	}
}

// === Binding Layouts ===

// CreateBindGroupLayout creates a bind group layout.
func (d *Device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("nil bind group layout descriptor")
	}

	entries := make([]gputypes.BindGroupLayoutEntry, len(desc.Entries))
	for i, entry := range desc.Entries {
		if entry.Count > 1 {
			return gpucore.InvalidID, fmt.Errorf("%w: binding %d has %d elements", ErrBindingArray, entry.Binding, entry.Count)
		}
		entries[i] = convertBindGroupLayoutEntry(entry)
	}

	layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create bind group layout: %w", err)
	}

	id := gpucore.BindGroupLayoutID(d.newID())
	d.mu.Lock()
	d.bindGroupLayouts[id] = layout
	d.mu.Unlock()
	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.mu.Lock()
	layout, ok := d.bindGroupLayouts[id]
	if ok {
		delete(d.bindGroupLayouts, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyBindGroupLayout(layout)
	}
}

// CreatePipelineLayout creates a pipeline layout.
func (d *Device) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID, label string) (gpucore.PipelineLayoutID, error) {
	d.mu.RLock()
	halLayouts := make([]hal.BindGroupLayout, len(layouts))
	for i, id := range layouts {
		layout, ok := d.bindGroupLayouts[id]
		if !ok {
			d.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", ErrNotFound, id)
		}
		halLayouts[i] = layout
	}
	d.mu.RUnlock()

	pipelineLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: halLayouts,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	id := gpucore.PipelineLayoutID(d.newID())
	d.mu.Lock()
	d.pipelineLayouts[id] = pipelineLayout
	d.mu.Unlock()
	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	layout, ok := d.pipelineLayouts[id]
	if ok {
		delete(d.pipelineLayouts, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyPipelineLayout(layout)
	}
}

// CreateBindGroup creates a bind group.
func (d *Device) CreateBindGroup(layout gpucore.BindGroupLayoutID, entries []gpucore.BindGroupEntry, label string) (gpucore.BindGroupID, error) {
	d.mu.RLock()
	halLayout, ok := d.bindGroupLayouts[layout]
	if !ok {
		d.mu.RUnlock()
		return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", ErrNotFound, layout)
	}

	halEntries := make([]gputypes.BindGroupEntry, len(entries))
	for i, entry := range entries {
		halEntry, err := d.convertBindGroupEntry(entry)
		if err != nil {
			d.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("failed to convert bind group entry %d: %w", entry.Binding, err)
		}
		halEntries[i] = halEntry
	}
	d.mu.RUnlock()

	bindGroup, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   label,
		Layout:  halLayout,
		Entries: halEntries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create bind group: %w", err)
	}

	id := gpucore.BindGroupID(d.newID())
	d.mu.Lock()
	d.bindGroups[id] = bindGroup
	d.mu.Unlock()
	return id, nil
}

// DestroyBindGroup releases a bind group.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	group, ok := d.bindGroups[id]
	if ok {
		delete(d.bindGroups, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyBindGroup(group)
	}
}

// Live returns the number of objects created by this device and not yet
// destroyed. Registered views and samplers are not counted.
func (d *Device) Live() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.buffers) + len(d.shaderModules) + len(d.bindGroupLayouts) +
		len(d.pipelineLayouts) + len(d.bindGroups)
}

// === Type Conversion Helpers ===

func convertBufferUsage(usage gpucore.BufferUsage) gputypes.BufferUsage {
	var result gputypes.BufferUsage

	if usage&gpucore.BufferUsageCopySrc != 0 {
		result |= gputypes.BufferUsageCopySrc
	}
	if usage&gpucore.BufferUsageCopyDst != 0 {
		result |= gputypes.BufferUsageCopyDst
	}
	if usage&gpucore.BufferUsageUniform != 0 {
		result |= gputypes.BufferUsageUniform
	}
	if usage&gpucore.BufferUsageStorage != 0 {
		result |= gputypes.BufferUsageStorage
	}

	return result
}

func setVisibility(e *gputypes.BindGroupLayoutEntry, s gpucore.ShaderStage) {
	if s&gpucore.ShaderStageVertex != 0 {
		e.Visibility |= gputypes.ShaderStageVertex
	}
	if s&gpucore.ShaderStageFragment != 0 {
		e.Visibility |= gputypes.ShaderStageFragment
	}
	if s&gpucore.ShaderStageCompute != 0 {
		e.Visibility |= gputypes.ShaderStageCompute
	}
}

func textureLayout(entry gpucore.BindGroupLayoutEntry) *gputypes.TextureBindingLayout {
	t := &gputypes.TextureBindingLayout{
		SampleType:    gputypes.TextureSampleTypeFloat,
		ViewDimension: gputypes.TextureViewDimension2D,
		Multisampled:  entry.Multisampled,
	}
	switch entry.SampleType {
	case gpucore.SampleTypeDepth:
		t.SampleType = gputypes.TextureSampleTypeDepth
	case gpucore.SampleTypeSint:
		t.SampleType = gputypes.TextureSampleTypeSint
	case gpucore.SampleTypeUint:
		t.SampleType = gputypes.TextureSampleTypeUint
	}
	setViewDimension(&t.ViewDimension, entry.ViewDimension)
	return t
}

func storageLayout(entry gpucore.BindGroupLayoutEntry) *gputypes.StorageTextureBindingLayout {
	st := &gputypes.StorageTextureBindingLayout{
		Access:        gputypes.StorageTextureAccessReadWrite,
		Format:        textureFormats[entry.Format],
		ViewDimension: gputypes.TextureViewDimension2D,
	}
	switch entry.Access {
	case gpucore.StorageAccessReadOnly:
		st.Access = gputypes.StorageTextureAccessReadOnly
	case gpucore.StorageAccessWriteOnly:
		st.Access = gputypes.StorageTextureAccessWriteOnly
	}
	setViewDimension(&st.ViewDimension, entry.ViewDimension)
	return st
}

// textureFormats maps WGSL texel formats to native formats. Formats
// missing here convert to TextureFormatUndefined.
var textureFormats = map[gpucore.TexelFormat]gputypes.TextureFormat{
	"r8unorm":       gputypes.TextureFormatR8Unorm,
	"r8snorm":       gputypes.TextureFormatR8Snorm,
	"r8uint":        gputypes.TextureFormatR8Uint,
	"r8sint":        gputypes.TextureFormatR8Sint,
	"r16unorm":      gputypes.TextureFormatR16Unorm,
	"r16snorm":      gputypes.TextureFormatR16Snorm,
	"r16uint":       gputypes.TextureFormatR16Uint,
	"r16sint":       gputypes.TextureFormatR16Sint,
	"r16float":      gputypes.TextureFormatR16Float,
	"rg8unorm":      gputypes.TextureFormatRG8Unorm,
	"rg8snorm":      gputypes.TextureFormatRG8Snorm,
	"rg8uint":       gputypes.TextureFormatRG8Uint,
	"rg8sint":       gputypes.TextureFormatRG8Sint,
	"r32float":      gputypes.TextureFormatR32Float,
	"r32uint":       gputypes.TextureFormatR32Uint,
	"r32sint":       gputypes.TextureFormatR32Sint,
	"rg16unorm":     gputypes.TextureFormatRG16Unorm,
	"rg16snorm":     gputypes.TextureFormatRG16Snorm,
	"rg16uint":      gputypes.TextureFormatRG16Uint,
	"rg16sint":      gputypes.TextureFormatRG16Sint,
	"rg16float":     gputypes.TextureFormatRG16Float,
	"rgba8unorm":    gputypes.TextureFormatRGBA8Unorm,
	"rgba8snorm":    gputypes.TextureFormatRGBA8Snorm,
	"rgba8uint":     gputypes.TextureFormatRGBA8Uint,
	"rgba8sint":     gputypes.TextureFormatRGBA8Sint,
	"bgra8unorm":    gputypes.TextureFormatBGRA8Unorm,
	"rgb10a2uint":   gputypes.TextureFormatRGB10A2Uint,
	"rgb10a2unorm":  gputypes.TextureFormatRGB10A2Unorm,
	"rg11b10ufloat": gputypes.TextureFormatRG11B10Ufloat,
	"rg32float":     gputypes.TextureFormatRG32Float,
	"rg32uint":      gputypes.TextureFormatRG32Uint,
	"rg32sint":      gputypes.TextureFormatRG32Sint,
	"rgba16unorm":   gputypes.TextureFormatRGBA16Unorm,
	"rgba16snorm":   gputypes.TextureFormatRGBA16Snorm,
	"rgba16uint":    gputypes.TextureFormatRGBA16Uint,
	"rgba16sint":    gputypes.TextureFormatRGBA16Sint,
	"rgba16float":   gputypes.TextureFormatRGBA16Float,
	"rgba32float":   gputypes.TextureFormatRGBA32Float,
	"rgba32uint":    gputypes.TextureFormatRGBA32Uint,
	"rgba32sint":    gputypes.TextureFormatRGBA32Sint,
}

func setViewDimension(dst *gputypes.TextureViewDimension, v gpucore.ViewDimension) {
	switch v {
	case gpucore.ViewDimension1D:
		*dst = gputypes.TextureViewDimension1D
	case gpucore.ViewDimension2DArray:
		*dst = gputypes.TextureViewDimension2DArray
	case gpucore.ViewDimensionCube:
		*dst = gputypes.TextureViewDimensionCube
	case gpucore.ViewDimensionCubeArray:
		*dst = gputypes.TextureViewDimensionCubeArray
	case gpucore.ViewDimension3D:
		*dst = gputypes.TextureViewDimension3D
	}
}

func convertBindGroupLayoutEntry(entry gpucore.BindGroupLayoutEntry) gputypes.BindGroupLayoutEntry {
	result := gputypes.BindGroupLayoutEntry{
		Binding: entry.Binding,
	}
	setVisibility(&result, entry.Visibility)

	switch entry.Type {
	case gpucore.BindingTypeUniformBuffer:
		result.Buffer = &gputypes.BufferBindingLayout{
			Type:           gputypes.BufferBindingTypeUniform,
			MinBindingSize: entry.MinBindingSize,
		}
	case gpucore.BindingTypeStorageBuffer:
		result.Buffer = &gputypes.BufferBindingLayout{
			Type:           gputypes.BufferBindingTypeStorage,
			MinBindingSize: entry.MinBindingSize,
		}
	case gpucore.BindingTypeReadOnlyStorageBuffer:
		result.Buffer = &gputypes.BufferBindingLayout{
			Type:           gputypes.BufferBindingTypeReadOnlyStorage,
			MinBindingSize: entry.MinBindingSize,
		}
	case gpucore.BindingTypeSampler:
		result.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
		if entry.Comparison {
			result.Sampler.Type = gputypes.SamplerBindingTypeComparison
		}
	case gpucore.BindingTypeSampledTexture:
		result.Texture = textureLayout(entry)
	case gpucore.BindingTypeStorageTexture:
		result.StorageTexture = storageLayout(entry)
	}

	return result
}

// convertBindGroupEntry must be called with mu.RLock held.
func (d *Device) convertBindGroupEntry(entry gpucore.BindGroupEntry) (gputypes.BindGroupEntry, error) {
	result := gputypes.BindGroupEntry{
		Binding: entry.Binding,
	}
	if entry.Element != 0 {
		return result, fmt.Errorf("%w: element %d", ErrBindingArray, entry.Element)
	}

	switch {
	case entry.Buffer != gpucore.InvalidID:
		buffer, ok := d.buffers[entry.Buffer]
		if !ok {
			return result, fmt.Errorf("%w: buffer %d", ErrNotFound, entry.Buffer)
		}
		result.Resource = gputypes.BufferBinding{
			Buffer: buffer.NativeHandle(),
			Offset: entry.Offset,
			Size:   entry.Size,
		}
	case entry.TextureView != gpucore.InvalidID:
		view, ok := d.textureViews[entry.TextureView]
		if !ok {
			return result, fmt.Errorf("%w: texture view %d", ErrNotFound, entry.TextureView)
		}
		result.Resource = gputypes.TextureViewBinding{TextureView: view.NativeHandle()}
	case entry.Sampler != gpucore.InvalidID:
		sampler, ok := d.samplers[entry.Sampler]
		if !ok {
			return result, fmt.Errorf("%w: sampler %d", ErrNotFound, entry.Sampler)
		}
		result.Resource = gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}
	default:
		return result, fmt.Errorf("binding %d has no resource", entry.Binding)
	}

	return result, nil
}

var _ gpucore.Device = (*Device)(nil)
