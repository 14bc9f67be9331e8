// Package gputest provides a recording gpucore.Device for tests.
package gputest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/shaderbind/gpucore"
)

// ErrInjected is returned by Create calls when failure injection is on.
var ErrInjected = errors.New("gputest: injected failure")

// Write is a recorded WriteBuffer call.
type Write struct {
	Buffer gpucore.BufferID
	Offset uint64
	Data   []byte
}

// BindGroup is a recorded CreateBindGroup call.
type BindGroup struct {
	Layout  gpucore.BindGroupLayoutID
	Entries []gpucore.BindGroupEntry
	Label   string
}

// Device records every call and hands out sequential IDs starting at 1.
// Live objects are tracked so tests can check for leaks.
type Device struct {
	mu     sync.Mutex
	nextID uint64

	// Fail makes every Create call return ErrInjected.
	Fail bool

	Writes           []Write
	BindGroups       map[gpucore.BindGroupID]BindGroup
	BindGroupLayouts map[gpucore.BindGroupLayoutID]gpucore.BindGroupLayoutDesc
	Buffers          map[gpucore.BufferID][]byte
	PipelineLayouts  map[gpucore.PipelineLayoutID][]gpucore.BindGroupLayoutID
	ShaderModules    map[gpucore.ShaderModuleID][]uint32

	// Counts of Create and Destroy calls per object kind.
	Created   map[string]int
	Destroyed map[string]int
}

// NewDevice returns an empty recording device.
func NewDevice() *Device {
	return &Device{
		BindGroups:       make(map[gpucore.BindGroupID]BindGroup),
		BindGroupLayouts: make(map[gpucore.BindGroupLayoutID]gpucore.BindGroupLayoutDesc),
		Buffers:          make(map[gpucore.BufferID][]byte),
		PipelineLayouts:  make(map[gpucore.PipelineLayoutID][]gpucore.BindGroupLayoutID),
		ShaderModules:    make(map[gpucore.ShaderModuleID][]uint32),
		Created:          make(map[string]int),
		Destroyed:        make(map[string]int),
	}
}

func (d *Device) create(kind string) (uint64, error) {
	if d.Fail {
		return 0, fmt.Errorf("%w: create %s", ErrInjected, kind)
	}
	d.nextID++
	d.Created[kind]++
	return d.nextID, nil
}

// CreateShaderModule implements gpucore.Device.
func (d *Device) CreateShaderModule(spirv []uint32, _ string) (gpucore.ShaderModuleID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.create("shader")
	if err != nil {
		return 0, err
	}
	d.ShaderModules[gpucore.ShaderModuleID(id)] = spirv
	return gpucore.ShaderModuleID(id), nil
}

// DestroyShaderModule implements gpucore.Device.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.ShaderModules, id)
	d.Destroyed["shader"]++
}

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(size int, _ gpucore.BufferUsage, _ string) (gpucore.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.create("buffer")
	if err != nil {
		return 0, err
	}
	d.Buffers[gpucore.BufferID(id)] = make([]byte, size)
	return gpucore.BufferID(id), nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.Buffers, id)
	d.Destroyed["buffer"]++
}

// WriteBuffer implements gpucore.Device. Data is copied into the buffer
// contents and recorded.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Writes = append(d.Writes, Write{Buffer: id, Offset: offset, Data: append([]byte(nil), data...)})
	if buf, ok := d.Buffers[id]; ok && offset+uint64(len(data)) <= uint64(len(buf)) {
		copy(buf[offset:], data)
	}
}

// CreateBindGroupLayout implements gpucore.Device.
func (d *Device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.create("bindGroupLayout")
	if err != nil {
		return 0, err
	}
	d.BindGroupLayouts[gpucore.BindGroupLayoutID(id)] = *desc
	return gpucore.BindGroupLayoutID(id), nil
}

// DestroyBindGroupLayout implements gpucore.Device.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.BindGroupLayouts, id)
	d.Destroyed["bindGroupLayout"]++
}

// CreatePipelineLayout implements gpucore.Device.
func (d *Device) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID, _ string) (gpucore.PipelineLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.create("pipelineLayout")
	if err != nil {
		return 0, err
	}
	d.PipelineLayouts[gpucore.PipelineLayoutID(id)] = append([]gpucore.BindGroupLayoutID(nil), layouts...)
	return gpucore.PipelineLayoutID(id), nil
}

// DestroyPipelineLayout implements gpucore.Device.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.PipelineLayouts, id)
	d.Destroyed["pipelineLayout"]++
}

// CreateBindGroup implements gpucore.Device.
func (d *Device) CreateBindGroup(layout gpucore.BindGroupLayoutID, entries []gpucore.BindGroupEntry, label string) (gpucore.BindGroupID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.create("bindGroup")
	if err != nil {
		return 0, err
	}
	d.BindGroups[gpucore.BindGroupID(id)] = BindGroup{
		Layout:  layout,
		Entries: append([]gpucore.BindGroupEntry(nil), entries...),
		Label:   label,
	}
	return gpucore.BindGroupID(id), nil
}

// DestroyBindGroup implements gpucore.Device.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.BindGroups, id)
	d.Destroyed["bindGroup"]++
}

// WriteCount returns the number of WriteBuffer calls so far.
func (d *Device) WriteCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Writes)
}

// Contents returns a copy of the current contents of a buffer.
func (d *Device) Contents(id gpucore.BufferID) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.Buffers[id]...)
}

// Live returns the number of objects created and not yet destroyed.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.BindGroups) + len(d.BindGroupLayouts) + len(d.Buffers) +
		len(d.PipelineLayouts) + len(d.ShaderModules)
}

var _ gpucore.Device = (*Device)(nil)
