package layout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/shaderbind/gpucore"
	"github.com/gogpu/shaderbind/reflection"
)

// DefaultCostBudget is the root storage budget in DWORDs.
const DefaultCostBudget = 64

// Root storage costs in DWORDs.
const (
	rootDescriptorCost = 2
	tableCost          = 1
)

// allStages is the visibility of declarations no entry point claims.
const allStages = gpucore.ShaderStageVertex | gpucore.ShaderStageFragment | gpucore.ShaderStageCompute

// Entry is one binding of a layout: the native bind group layout entry
// plus the declaration it came from.
type Entry struct {
	gpucore.BindGroupLayoutEntry

	Name  string
	Space uint32
	Kind  Kind
}

// Layout is the root layout of a program: merged register ranges per
// (space, kind), the bindings they cover and the root storage they cost.
//
// A Layout is immutable and may be shared.
type Layout struct {
	ranges  []Range
	entries []Entry
	cost    int
}

var empty = &Layout{}

// Empty returns the shared layout of programs that bind nothing.
func Empty() *Layout { return empty }

// Build derives the root layout of p. Constant buffers become root
// descriptors; textures, samplers and storage buffers are grouped into
// descriptor tables of contiguous registers. Build fails with
// ErrCapacityExceeded when the cost exceeds budget; budget <= 0 selects
// DefaultCostBudget. A layout with no bindings is Empty().
func Build(p *reflection.ProgramReflection, budget int) (*Layout, error) {
	if budget <= 0 {
		budget = DefaultCostBudget
	}

	var entries []Entry
	for _, b := range p.Buffers(reflection.BufferConstant) {
		entries = append(entries, Entry{
			Name:  b.Name(),
			Space: b.Space(),
			Kind:  KindCBV,
			BindGroupLayoutEntry: gpucore.BindGroupLayoutEntry{
				Binding:        b.Register(),
				Visibility:     visibility(b.Visibility()),
				Type:           gpucore.BindingTypeUniformBuffer,
				MinBindingSize: uint64(b.Size()),
			},
		})
	}
	for _, b := range p.Buffers(reflection.BufferStructured) {
		kind, typ := KindSRV, gpucore.BindingTypeReadOnlyStorageBuffer
		if b.Access().Writable() {
			kind, typ = KindUAV, gpucore.BindingTypeStorageBuffer
		}
		entries = append(entries, Entry{
			Name:  b.Name(),
			Space: b.Space(),
			Kind:  kind,
			BindGroupLayoutEntry: gpucore.BindGroupLayoutEntry{
				Binding:        b.Register(),
				Visibility:     visibility(b.Visibility()),
				Type:           typ,
				MinBindingSize: uint64(b.Size()),
			},
		})
	}
	for _, r := range p.Resources() {
		e, err := resourceEntry(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		slogger().Debug("layout: program binds nothing, using empty layout")
		return empty, nil
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Space != entries[j].Space {
			return entries[i].Space < entries[j].Space
		}
		return entries[i].Binding < entries[j].Binding
	})
	for i := 1; i < len(entries); i++ {
		a, b := &entries[i-1], &entries[i]
		if a.Space == b.Space && a.Binding+count(a.Count) > b.Binding {
			return nil, fmt.Errorf("%w: %q and %q both use register %d in space %d",
				ErrBindingConflict, a.Name, b.Name, b.Binding, b.Space)
		}
	}

	ranges := make([]Range, len(entries))
	for i, e := range entries {
		ranges[i] = Range{Kind: e.Kind, Space: e.Space, Base: e.Binding, Count: count(e.Count)}
	}
	l := &Layout{ranges: Merge(ranges), entries: entries}
	for _, r := range l.ranges {
		l.cost += r.Cost()
	}

	if l.cost > budget {
		msg := fmt.Sprintf("The required storage cost is %d DWORDS, which is larger then the max allowed cost of %d DWORDS", l.cost, budget)
		slogger().Error("layout: root signature over budget", "cost", l.cost, "budget", budget)
		return nil, fmt.Errorf("%w: %s", ErrCapacityExceeded, msg)
	}
	slogger().Debug("layout: built",
		"entries", len(l.entries),
		"ranges", len(l.ranges),
		"cost", l.cost)
	return l, nil
}

func resourceEntry(r *reflection.Resource) (Entry, error) {
	e := Entry{
		Name:  r.Name,
		Space: r.Space,
		BindGroupLayoutEntry: gpucore.BindGroupLayoutEntry{
			Binding:    r.Register,
			Visibility: visibility(r.Visibility),
			Count:      r.ArraySize,
		},
	}
	writable := r.Access.Writable()
	switch r.Kind {
	case reflection.KindSampler:
		e.Kind = KindSampler
		e.Type = gpucore.BindingTypeSampler
		e.Comparison = r.Comparison
		return e, nil
	case reflection.KindTexture:
		e.ViewDimension, e.Multisampled = viewDimension(r.Dimension)
		if r.Storage {
			e.Type = gpucore.BindingTypeStorageTexture
			e.Access = storageAccess(r.Access)
			e.Format = r.Format
		} else {
			e.Type = gpucore.BindingTypeSampledTexture
			e.SampleType = sampleType(r.ReturnType)
		}
	case reflection.KindRawBuffer, reflection.KindTypedBuffer, reflection.KindStructuredBuffer:
		e.Type = gpucore.BindingTypeReadOnlyStorageBuffer
		if writable {
			e.Type = gpucore.BindingTypeStorageBuffer
		}
		e.MinBindingSize = uint64(r.Stride)
	default:
		return Entry{}, fmt.Errorf("%w: %q has kind %s", ErrUnsupportedResource, r.Name, r.Kind)
	}
	e.Kind = KindSRV
	if writable {
		e.Kind = KindUAV
	}
	return e, nil
}

func storageAccess(a reflection.ShaderAccess) gpucore.StorageAccess {
	switch a {
	case reflection.AccessRead:
		return gpucore.StorageAccessReadOnly
	case reflection.AccessWrite:
		return gpucore.StorageAccessWriteOnly
	default:
		return gpucore.StorageAccessReadWrite
	}
}

func visibility(s gpucore.ShaderStage) gpucore.ShaderStage {
	if s == gpucore.ShaderStageNone {
		return allStages
	}
	return s
}

func count(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	return n
}

func viewDimension(d reflection.Dimension) (gpucore.ViewDimension, bool) {
	switch d {
	case reflection.DimTexture1D, reflection.DimTexture1DArray:
		return gpucore.ViewDimension1D, false
	case reflection.DimTexture2D:
		return gpucore.ViewDimension2D, false
	case reflection.DimTexture2DMS:
		return gpucore.ViewDimension2D, true
	case reflection.DimTexture2DArray:
		return gpucore.ViewDimension2DArray, false
	case reflection.DimTexture2DMSArray:
		return gpucore.ViewDimension2DArray, true
	case reflection.DimTexture3D:
		return gpucore.ViewDimension3D, false
	case reflection.DimTextureCube:
		return gpucore.ViewDimensionCube, false
	case reflection.DimTextureCubeArray:
		return gpucore.ViewDimensionCubeArray, false
	default:
		return gpucore.ViewDimensionUndefined, false
	}
}

func sampleType(t reflection.ReturnType) gpucore.SampleType {
	switch t {
	case reflection.ReturnSint:
		return gpucore.SampleTypeSint
	case reflection.ReturnUint:
		return gpucore.SampleTypeUint
	case reflection.ReturnDepth:
		return gpucore.SampleTypeDepth
	default:
		return gpucore.SampleTypeFloat
	}
}

// IsEmpty reports whether the layout binds nothing.
func (l *Layout) IsEmpty() bool { return len(l.entries) == 0 }

// Cost returns the root storage cost in DWORDs.
func (l *Layout) Cost() int { return l.cost }

// Ranges returns the merged ranges sorted by space, kind and base.
func (l *Layout) Ranges() []Range {
	out := make([]Range, len(l.ranges))
	copy(out, l.ranges)
	return out
}

// RangesOf returns the merged ranges of one kind in one space.
func (l *Layout) RangesOf(space uint32, kind Kind) []Range {
	var out []Range
	for _, r := range l.ranges {
		if r.Space == space && r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Entries returns the bindings sorted by space and register.
func (l *Layout) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Entry returns the binding declared at register in space.
func (l *Layout) Entry(space, register uint32) (Entry, bool) {
	for _, e := range l.entries {
		if e.Space == space && e.Binding == register {
			return e, true
		}
	}
	return Entry{}, false
}

// EntryByName returns the binding of the named declaration.
func (l *Layout) EntryByName(name string) (Entry, bool) {
	for _, e := range l.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Spaces returns the number of register spaces the layout spans: one past
// the highest space in use.
func (l *Layout) Spaces() uint32 {
	if len(l.entries) == 0 {
		return 0
	}
	return l.entries[len(l.entries)-1].Space + 1
}

// GroupEntries returns the native entries of one space.
func (l *Layout) GroupEntries(space uint32) []gpucore.BindGroupLayoutEntry {
	var out []gpucore.BindGroupLayoutEntry
	for _, e := range l.entries {
		if e.Space == space {
			out = append(out, e.BindGroupLayoutEntry)
		}
	}
	return out
}

// Signature returns a key identifying the native form of the layout.
// Layouts with equal signatures produce identical native objects.
func (l *Layout) Signature() string {
	var sb strings.Builder
	for _, e := range l.entries {
		fmt.Fprintf(&sb, "%d:%d:%d:%d:%d:%d:%d:%d:%t:%d:%s:%t;",
			e.Space, e.Binding, e.Type, e.Visibility, e.Count, e.MinBindingSize,
			e.ViewDimension, e.SampleType, e.Multisampled, e.Access, e.Format, e.Comparison)
	}
	return sb.String()
}
