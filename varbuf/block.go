package varbuf

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/shaderbind/gpucore"
	"github.com/gogpu/shaderbind/reflection"
)

// Block is the CPU mirror of a buffer declared in a shader: one or more
// elements laid out as the buffer type describes, plus the byte range that
// changed since the last upload.
//
// A Block has a single writer and no locking.
type Block struct {
	layout *reflection.BufferTypeReflection
	stride uint32
	count  uint32
	data   []byte

	// dirty is the half-open byte range [dirtyLo, dirtyHi); empty when
	// dirtyLo >= dirtyHi.
	dirtyLo, dirtyHi uint32

	slots map[string]Binding
}

// Binding is what a resource slot of a block is bound to. Exactly one of
// the IDs is set.
type Binding struct {
	TextureView gpucore.TextureViewID
	Sampler     gpucore.SamplerID
	Buffer      gpucore.BufferID
}

// New creates a block holding one instance of layout.
func New(layout *reflection.BufferTypeReflection) *Block {
	return NewArray(layout, 1)
}

// NewArray creates a block holding count consecutive instances of layout,
// as in a structured buffer. A count of 0 is treated as 1.
func NewArray(layout *reflection.BufferTypeReflection, count uint32) *Block {
	if count == 0 {
		count = 1
	}
	return &Block{
		layout: layout,
		stride: layout.Size(),
		count:  count,
		data:   make([]byte, int(layout.Size())*int(count)),
		slots:  make(map[string]Binding),
	}
}

// Layout returns the reflected buffer type.
func (b *Block) Layout() *reflection.BufferTypeReflection { return b.layout }

// Size returns the total byte size of the block.
func (b *Block) Size() int { return len(b.data) }

// Len returns the number of elements.
func (b *Block) Len() uint32 { return b.count }

// Bytes returns the block contents. The slice aliases the block and must
// not be modified.
func (b *Block) Bytes() []byte { return b.data }

// Dirty reports whether the block changed since the last upload.
func (b *Block) Dirty() bool { return b.dirtyLo < b.dirtyHi }

// DirtyRange returns the half-open byte range written since the last
// upload, and false if nothing was.
func (b *Block) DirtyRange() (lo, hi uint32, ok bool) {
	if !b.Dirty() {
		return 0, 0, false
	}
	return b.dirtyLo, b.dirtyHi, true
}

// MarkDirty marks the whole block for upload.
func (b *Block) MarkDirty() {
	b.touch(0, uint32(len(b.data)))
}

func (b *Block) touch(lo, hi uint32) {
	if lo >= hi {
		return
	}
	if !b.Dirty() {
		b.dirtyLo, b.dirtyHi = lo, hi
		return
	}
	b.dirtyLo = min(b.dirtyLo, lo)
	b.dirtyHi = max(b.dirtyHi, hi)
}

// Element returns a view of element i, or nil when i is out of range.
func (b *Block) Element(i uint32) *Element {
	if i >= b.count {
		return nil
	}
	return &Element{block: b, base: i * b.stride}
}

// SetVariable writes v to the named variable of element 0. Array
// variables need an explicit index: "lights[2].color".
func (b *Block) SetVariable(name string, v any) error {
	return b.set(0, name, v)
}

// SetVariableAt writes v to the variable that starts at offset in
// element 0.
func (b *Block) SetVariableAt(offset uint32, v any) error {
	vr, _, ok := b.layout.VariableAt(offset)
	if !ok {
		return b.reject(fmt.Errorf("%w: no variable at offset %d in buffer %q", reflection.ErrVariableNotFound, offset, b.layout.Name()))
	}
	return b.write(0, offset, vr, fmt.Sprintf("offset %d", offset), v)
}

// SetVariableArray writes consecutive elements of an array variable,
// starting at the given element. name may omit the last index, which
// then defaults to 0. vs must be a slice of a supported value type.
func (b *Block) SetVariableArray(name string, vs any) error {
	vr, off, err := b.layout.VariableData(name, true)
	if err != nil {
		return err
	}
	items := sliceItems(vs)
	if items == nil {
		return b.reject(fmt.Errorf("%w: %q expects a slice, got %T", ErrTypeMismatch, name, vs))
	}
	if !vr.IsArray() {
		if len(items) != 1 {
			return b.reject(fmt.Errorf("%w: %q is not an array", ErrOutOfBounds, name))
		}
		return b.write(0, off, vr, name, items[0])
	}
	var first uint32
	if vr.ArrayStride > 0 {
		first = (off - vr.Offset) / vr.ArrayStride
	}
	if first+uint32(len(items)) > vr.ArraySize {
		return b.reject(fmt.Errorf("%w: writing %d elements of %q from index %d exceeds array size %d",
			ErrOutOfBounds, len(items), name, first, vr.ArraySize))
	}
	for _, it := range items {
		if t, ok := valueType(it); !ok || t != vr.Type {
			return b.reject(mismatchErr(name, vr.Type, it))
		}
	}
	if last := off + uint32(len(items)-1)*vr.ArrayStride; !b.layout.Fits(vr, last) {
		return b.reject(overflowErr(name, vr, b.layout))
	}
	for i, it := range items {
		b.put(off+uint32(i)*vr.ArrayStride, vr, it)
	}
	return nil
}

// Variable reads the named variable of element 0 into out, which must
// point to a value of the variable's Go type.
func (b *Block) Variable(name string, out any) error {
	return b.get(0, name, out)
}

// SetBlob copies raw bytes into the block at offset.
func (b *Block) SetBlob(data []byte, offset uint32) error {
	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(b.data)) {
		return b.reject(fmt.Errorf("%w: blob of %d bytes at %d exceeds buffer size %d",
			ErrOutOfBounds, len(data), offset, len(b.data)))
	}
	copy(b.data[offset:], data)
	b.touch(offset, uint32(end))
	return nil
}

func (b *Block) set(base uint32, name string, v any) error {
	vr, off, err := b.layout.VariableData(name, false)
	if err != nil {
		return err
	}
	return b.write(base, off, vr, name, v)
}

func (b *Block) get(base uint32, name string, out any) error {
	vr, off, err := b.layout.VariableData(name, false)
	if err != nil {
		return err
	}
	if !b.layout.Fits(vr, off) {
		return overflowErr(name, vr, b.layout)
	}
	end := base + off + vr.Size()
	return decode(b.data[base+off:end], vr.Type, vr.RowMajor, out)
}

// write stores v at off within the element starting at base.
func (b *Block) write(base, off uint32, vr *reflection.Variable, name string, v any) error {
	if t, ok := valueType(v); !ok || t != vr.Type {
		return b.reject(mismatchErr(name, vr.Type, v))
	}
	if !b.layout.Fits(vr, off) {
		return b.reject(overflowErr(name, vr, b.layout))
	}
	b.put(base+off, vr, v)
	return nil
}

func (b *Block) put(off uint32, vr *reflection.Variable, v any) {
	end := off + vr.Size()
	encode(b.data[off:end], vr.Type, vr.RowMajor, v)
	b.touch(off, end)
}

func (b *Block) reject(err error) error {
	slogger().Warn("varbuf: write rejected", "buffer", b.layout.Name(), "err", err)
	return err
}

func overflowErr(name string, vr *reflection.Variable, layout *reflection.BufferTypeReflection) error {
	return fmt.Errorf("%w: %q needs %d bytes at offset %d, which overlaps the next variable or the end of buffer %q",
		ErrOutOfBounds, name, vr.Size(), vr.Offset, layout.Name())
}

func mismatchErr(name string, want reflection.VariableType, v any) error {
	got, ok := valueType(v)
	if !ok {
		return fmt.Errorf("%w: %q is %s, got unsupported %T", ErrTypeMismatch, name, want, v)
	}
	return fmt.Errorf("%w: %q is %s, got %s", ErrTypeMismatch, name, want, got)
}

// sliceItems flattens a slice of a supported value type.
func sliceItems(vs any) []any {
	switch s := vs.(type) {
	case []float32:
		return items(s)
	case []int32:
		return items(s)
	case []uint32:
		return items(s)
	case []bool:
		return items(s)
	case []mgl32.Vec2:
		return items(s)
	case []mgl32.Vec3:
		return items(s)
	case []mgl32.Vec4:
		return items(s)
	case [][4]int32:
		return items(s)
	case [][4]uint32:
		return items(s)
	case []mgl32.Mat3:
		return items(s)
	case []mgl32.Mat4:
		return items(s)
	default:
		return nil
	}
}

func items[T any](s []T) []any {
	out := make([]any, len(s))
	for i := range s {
		out[i] = s[i]
	}
	return out
}

// Upload writes the dirty part of [offset, offset+size) to the device
// buffer id at the same offset. A size of -1 means up to the end of the
// block. The uploaded part is no longer dirty; calling Upload again
// without further writes does nothing. Returns the number of bytes
// written.
func (b *Block) Upload(dev gpucore.Device, id gpucore.BufferID, offset uint32, size int) (int, error) {
	end := uint64(len(b.data))
	if size >= 0 {
		end = uint64(offset) + uint64(size)
	}
	if uint64(offset) > uint64(len(b.data)) || end > uint64(len(b.data)) {
		return 0, fmt.Errorf("%w: upload [%d, %d) of buffer %q with size %d",
			ErrOutOfBounds, offset, end, b.layout.Name(), len(b.data))
	}
	if !b.Dirty() {
		return 0, nil
	}
	lo := max(b.dirtyLo, offset)
	hi := min(b.dirtyHi, uint32(end))
	if lo >= hi {
		return 0, nil
	}
	dev.WriteBuffer(id, uint64(lo), b.data[lo:hi])

	switch {
	case lo == b.dirtyLo && hi == b.dirtyHi:
		b.dirtyLo, b.dirtyHi = 0, 0
	case lo == b.dirtyLo:
		b.dirtyLo = hi
	case hi == b.dirtyHi:
		b.dirtyHi = lo
	}
	return int(hi - lo), nil
}

// SetTexture binds a texture view to a texture slot declared in the buffer.
func (b *Block) SetTexture(name string, view gpucore.TextureViewID) error {
	return b.bind(name, reflection.KindTexture, Binding{TextureView: view})
}

// SetSampler binds a sampler to a sampler slot declared in the buffer.
func (b *Block) SetSampler(name string, s gpucore.SamplerID) error {
	return b.bind(name, reflection.KindSampler, Binding{Sampler: s})
}

// SetTextureAt binds a texture view to the texture slot at offset, the
// slot register of the embedded resource.
func (b *Block) SetTextureAt(offset uint32, view gpucore.TextureViewID) error {
	name, err := b.slotName(offset)
	if err != nil {
		return err
	}
	return b.SetTexture(name, view)
}

// SetSamplerAt binds a sampler to the sampler slot at offset.
func (b *Block) SetSamplerAt(offset uint32, s gpucore.SamplerID) error {
	name, err := b.slotName(offset)
	if err != nil {
		return err
	}
	return b.SetSampler(name, s)
}

func (b *Block) slotName(offset uint32) (string, error) {
	r, ok := b.layout.ResourceAt(offset)
	if !ok {
		return "", b.reject(fmt.Errorf("%w: no resource at offset %d in buffer %q", ErrResourceNotFound, offset, b.layout.Name()))
	}
	return r.Name, nil
}

// SetBuffer binds a buffer to a buffer slot declared in the buffer.
func (b *Block) SetBuffer(name string, buf gpucore.BufferID) error {
	r, ok := b.layout.ResourceData(name)
	if !ok {
		return b.reject(fmt.Errorf("%w: %q in buffer %q", ErrResourceNotFound, name, b.layout.Name()))
	}
	switch r.Kind {
	case reflection.KindRawBuffer, reflection.KindTypedBuffer, reflection.KindStructuredBuffer:
	default:
		return b.reject(fmt.Errorf("%w: %q is a %s, not a buffer", ErrTypeMismatch, name, r.Kind))
	}
	b.slots[name] = Binding{Buffer: buf}
	return nil
}

func (b *Block) bind(name string, kind reflection.ResourceKind, bind Binding) error {
	r, ok := b.layout.ResourceData(name)
	if !ok {
		return b.reject(fmt.Errorf("%w: %q in buffer %q", ErrResourceNotFound, name, b.layout.Name()))
	}
	if r.Kind != kind {
		return b.reject(fmt.Errorf("%w: %q is a %s, not a %s", ErrTypeMismatch, name, r.Kind, kind))
	}
	b.slots[name] = bind
	return nil
}

// Slot returns what the named resource slot is bound to.
func (b *Block) Slot(name string) (Binding, bool) {
	s, ok := b.slots[name]
	return s, ok
}

// Element is a view of one element of a Block.
type Element struct {
	block *Block
	base  uint32
}

// Offset returns the byte offset of the element in the block.
func (e *Element) Offset() uint32 { return e.base }

// SetVariable writes v to the named variable of the element.
func (e *Element) SetVariable(name string, v any) error {
	return e.block.set(e.base, name, v)
}

// Variable reads the named variable of the element into out.
func (e *Element) Variable(name string, out any) error {
	return e.block.get(e.base, name, out)
}
