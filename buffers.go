package shaderbind

import (
	"encoding/binary"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/shaderbind/gpucore"
	"github.com/gogpu/shaderbind/reflection"
	"github.com/gogpu/shaderbind/varbuf"
)

// minUniformSize is the smallest uniform buffer created; empty uniform
// blocks still get a bindable buffer.
const minUniformSize = 16

// ConstantBuffer is the CPU mirror of a uniform buffer plus the device
// buffer it uploads to. The varbuf.Block setters are promoted.
type ConstantBuffer struct {
	*varbuf.Block
	ctx *Context
	id  gpucore.BufferID
}

// NewConstantBuffer creates a constant buffer for the reflected type t.
func NewConstantBuffer(ctx *Context, t *reflection.BufferTypeReflection) (*ConstantBuffer, error) {
	block := varbuf.New(t)
	size := (max(block.Size(), minUniformSize) + 15) &^ 15
	id, err := ctx.dev.CreateBuffer(size, gpucore.BufferUsageUniform|gpucore.BufferUsageCopyDst,
		fmt.Sprintf("%s cb %s", ctx.opts.label, t.Name()))
	if err != nil {
		return nil, fmt.Errorf("create constant buffer %q: %w", t.Name(), err)
	}
	block.MarkDirty()
	return &ConstantBuffer{Block: block, ctx: ctx, id: id}, nil
}

// Buffer returns the device buffer.
func (c *ConstantBuffer) Buffer() gpucore.BufferID { return c.id }

// Upload writes the changed bytes to the device buffer and returns how
// many were written.
func (c *ConstantBuffer) Upload() (int, error) {
	return c.Block.Upload(c.ctx.dev, c.id, 0, -1)
}

// Destroy queues the device buffer for release.
func (c *ConstantBuffer) Destroy() {
	if c.id == gpucore.InvalidID {
		return
	}
	id, dev := c.id, c.ctx.dev
	c.id = gpucore.InvalidID
	c.ctx.Release(func() { dev.DestroyBuffer(id) })
}

// StructuredBuffer is an array of reflected structs in a storage buffer.
type StructuredBuffer struct {
	*varbuf.Block
	ctx    *Context
	id     gpucore.BufferID
	access reflection.ShaderAccess
}

// NewStructuredBuffer creates a buffer of elementCount elements of the
// structured buffer name declared by p.
func NewStructuredBuffer(ctx *Context, p *Program, name string, elementCount uint32) (*StructuredBuffer, error) {
	desc := p.Reflection().BufferDescByName(reflection.BufferStructured, name)
	if desc == nil {
		slogger().Warn("shaderbind: structured buffer not found", "name", name)
		return nil, fmt.Errorf("%w: structured buffer %q", ErrVariableNotFound, name)
	}
	block := varbuf.NewArray(desc.Type(), elementCount)
	if block.Size() == 0 {
		return nil, fmt.Errorf("structured buffer %q has zero stride", name)
	}
	id, err := ctx.dev.CreateBuffer(block.Size(),
		gpucore.BufferUsageStorage|gpucore.BufferUsageCopyDst|gpucore.BufferUsageCopySrc,
		fmt.Sprintf("%s sb %s", ctx.opts.label, name))
	if err != nil {
		return nil, fmt.Errorf("create structured buffer %q: %w", name, err)
	}
	block.MarkDirty()
	return &StructuredBuffer{Block: block, ctx: ctx, id: id, access: desc.Access()}, nil
}

// Buffer returns the device buffer.
func (s *StructuredBuffer) Buffer() gpucore.BufferID { return s.id }

// Access returns the declared access of the buffer.
func (s *StructuredBuffer) Access() reflection.ShaderAccess { return s.access }

// Upload writes the changed elements to the device buffer.
func (s *StructuredBuffer) Upload() (int, error) {
	return s.Block.Upload(s.ctx.dev, s.id, 0, -1)
}

// Destroy queues the device buffer for release.
func (s *StructuredBuffer) Destroy() {
	if s.id == gpucore.InvalidID {
		return
	}
	id, dev := s.id, s.ctx.dev
	s.id = gpucore.InvalidID
	s.ctx.Release(func() { dev.DestroyBuffer(id) })
}

// TypedElement lists the element types a TypedBuffer holds. They have no
// padding in a storage array.
type TypedElement interface {
	float32 | int32 | uint32 |
		mgl32.Vec2 | mgl32.Vec4 |
		[2]int32 | [4]int32 | [2]uint32 | [4]uint32
}

// TypedBuffer is a storage buffer of n elements of one fixed type, as
// bound to array<T> or a typed buffer in a shader.
type TypedBuffer[T TypedElement] struct {
	ctx    *Context
	id     gpucore.BufferID
	stride int
	data   []T
	bytes  []byte

	dirtyLo, dirtyHi int
}

// NewTypedBuffer creates a typed buffer of n elements.
func NewTypedBuffer[T TypedElement](ctx *Context, n int) (*TypedBuffer[T], error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: typed buffer of %d elements", ErrOutOfBounds, n)
	}
	var zero T
	stride := binary.Size(zero)
	id, err := ctx.dev.CreateBuffer(stride*n,
		gpucore.BufferUsageStorage|gpucore.BufferUsageCopyDst,
		fmt.Sprintf("%s tb %T", ctx.opts.label, zero))
	if err != nil {
		return nil, fmt.Errorf("create typed buffer: %w", err)
	}
	return &TypedBuffer[T]{
		ctx:     ctx,
		id:      id,
		stride:  stride,
		data:    make([]T, n),
		bytes:   make([]byte, stride*n),
		dirtyLo: 0,
		dirtyHi: n,
	}, nil
}

// Len returns the number of elements.
func (b *TypedBuffer[T]) Len() int { return len(b.data) }

// Stride returns the byte size of one element.
func (b *TypedBuffer[T]) Stride() int { return b.stride }

// Buffer returns the device buffer.
func (b *TypedBuffer[T]) Buffer() gpucore.BufferID { return b.id }

// Set stores v at element i.
func (b *TypedBuffer[T]) Set(i int, v T) error {
	if i < 0 || i >= len(b.data) {
		return fmt.Errorf("%w: element %d of %d", ErrOutOfBounds, i, len(b.data))
	}
	b.data[i] = v
	if _, err := binary.Encode(b.bytes[i*b.stride:], binary.LittleEndian, v); err != nil {
		return err
	}
	if b.dirtyLo >= b.dirtyHi {
		b.dirtyLo, b.dirtyHi = i, i+1
		return nil
	}
	b.dirtyLo = min(b.dirtyLo, i)
	b.dirtyHi = max(b.dirtyHi, i+1)
	return nil
}

// Get returns element i.
func (b *TypedBuffer[T]) Get(i int) (T, error) {
	if i < 0 || i >= len(b.data) {
		var zero T
		return zero, fmt.Errorf("%w: element %d of %d", ErrOutOfBounds, i, len(b.data))
	}
	return b.data[i], nil
}

// Dirty reports whether elements changed since the last upload.
func (b *TypedBuffer[T]) Dirty() bool { return b.dirtyLo < b.dirtyHi }

// Upload writes the changed elements to the device buffer and returns
// how many bytes were written.
func (b *TypedBuffer[T]) Upload() (int, error) {
	if b.id == gpucore.InvalidID {
		return 0, fmt.Errorf("typed buffer destroyed")
	}
	if !b.Dirty() {
		return 0, nil
	}
	lo, hi := b.dirtyLo*b.stride, b.dirtyHi*b.stride
	b.ctx.dev.WriteBuffer(b.id, uint64(lo), b.bytes[lo:hi])
	b.dirtyLo, b.dirtyHi = 0, 0
	return hi - lo, nil
}

// Destroy queues the device buffer for release.
func (b *TypedBuffer[T]) Destroy() {
	if b.id == gpucore.InvalidID {
		return
	}
	id, dev := b.id, b.ctx.dev
	b.id = gpucore.InvalidID
	b.ctx.Release(func() { dev.DestroyBuffer(id) })
}
