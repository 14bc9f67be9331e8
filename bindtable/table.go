// Package bindtable tracks what is bound to each slot of a layout and
// turns the bindings into native bind groups.
package bindtable

import (
	"fmt"
	"sort"

	"github.com/gogpu/shaderbind/gpucore"
	"github.com/gogpu/shaderbind/layout"
)

// Releaser defers destruction of replaced bind groups until the GPU is
// done with them.
type Releaser interface {
	Release(fn func())
}

// slot is one array element of a layout entry.
type slot struct {
	entry *layout.Entry
	elem  uint32
	bound bool
	bind  gpucore.BindGroupEntry
}

// Table holds the bindings of one register space of a layout.
//
// Resources (buffers and textures) and samplers are tracked in two tables
// with separate dirty flags; each table's entries are regenerated only
// after one of its slots changed, and a new bind group is created only
// after a regeneration. A Table has a single writer and no locking.
type Table struct {
	entries     []layout.Entry
	space       uint32
	groupLayout gpucore.BindGroupLayoutID
	releaser    Releaser

	resources []slot
	samplers  []slot

	resourceDirty bool
	samplerDirty  bool
	regenerated   bool

	resourceEntries []gpucore.BindGroupEntry
	samplerEntries  []gpucore.BindGroupEntry

	group gpucore.BindGroupID

	resourceRegens int
	samplerRegens  int
}

// New creates a table for the entries of space in l. Bind groups are
// created against groupLayout; replaced groups are handed to releaser.
func New(l *layout.Layout, space uint32, groupLayout gpucore.BindGroupLayoutID, releaser Releaser) *Table {
	t := &Table{
		space:         space,
		groupLayout:   groupLayout,
		releaser:      releaser,
		resourceDirty: true,
		samplerDirty:  true,
	}
	for _, e := range l.Entries() {
		if e.Space == space {
			t.entries = append(t.entries, e)
		}
	}
	for i := range t.entries {
		e := &t.entries[i]
		n := max(e.Count, 1)
		for elem := uint32(0); elem < n; elem++ {
			s := slot{entry: e, elem: elem}
			if e.Type == gpucore.BindingTypeSampler {
				t.samplers = append(t.samplers, s)
			} else {
				t.resources = append(t.resources, s)
			}
		}
	}
	return t
}

// Space returns the register space the table binds.
func (t *Table) Space() uint32 { return t.space }

func (t *Table) find(list []slot, reg, elem uint32) (*slot, error) {
	i := sort.Search(len(list), func(i int) bool {
		s := &list[i]
		return s.entry.Binding > reg || (s.entry.Binding == reg && s.elem >= elem)
	})
	if i < len(list) && list[i].entry.Binding == reg && list[i].elem == elem {
		return &list[i], nil
	}
	return nil, fmt.Errorf("%w: register %d element %d in space %d", ErrSlotNotFound, reg, elem, t.space)
}

func (t *Table) reject(err error) error {
	slogger().Warn("bindtable: binding rejected", "space", t.space, "err", err)
	return err
}

// SetTexture binds a texture view to element elem of the texture at reg.
func (t *Table) SetTexture(reg, elem uint32, view gpucore.TextureViewID) error {
	s, err := t.find(t.resources, reg, elem)
	if err != nil {
		return t.reject(err)
	}
	if typ := s.entry.Type; typ != gpucore.BindingTypeSampledTexture && typ != gpucore.BindingTypeStorageTexture {
		return t.reject(fmt.Errorf("%w: register %d (%q) is a %s, not a texture", ErrKindMismatch, reg, s.entry.Name, typ))
	}
	t.update(s, gpucore.BindGroupEntry{Binding: reg, Element: elem, TextureView: view}, &t.resourceDirty)
	return nil
}

// SetSampler binds a sampler to element elem of the sampler at reg.
func (t *Table) SetSampler(reg, elem uint32, sampler gpucore.SamplerID) error {
	s, err := t.find(t.samplers, reg, elem)
	if err != nil {
		if _, rerr := t.find(t.resources, reg, elem); rerr == nil {
			return t.reject(fmt.Errorf("%w: register %d is not a sampler", ErrKindMismatch, reg))
		}
		return t.reject(err)
	}
	t.update(s, gpucore.BindGroupEntry{Binding: reg, Element: elem, Sampler: sampler}, &t.samplerDirty)
	return nil
}

// SetBuffer binds [offset, offset+size) of buf to the buffer at reg. kind
// must match the declared descriptor kind: KindCBV for uniform buffers,
// KindSRV for read-only and KindUAV for read-write storage. A size of 0
// binds the rest of the buffer.
func (t *Table) SetBuffer(reg uint32, kind layout.Kind, buf gpucore.BufferID, offset, size uint64) error {
	s, err := t.find(t.resources, reg, 0)
	if err != nil {
		return t.reject(err)
	}
	if !s.entry.Type.IsBuffer() || s.entry.Kind != kind {
		return t.reject(fmt.Errorf("%w: register %d (%q) is a %s %s, not a %s buffer",
			ErrKindMismatch, reg, s.entry.Name, s.entry.Kind, s.entry.Type, kind))
	}
	t.update(s, gpucore.BindGroupEntry{Binding: reg, Buffer: buf, Offset: offset, Size: size}, &t.resourceDirty)
	return nil
}

func (t *Table) update(s *slot, e gpucore.BindGroupEntry, dirty *bool) {
	if s.bound && s.bind == e {
		return
	}
	s.bind = e
	s.bound = true
	*dirty = true
}

// Bound returns what is bound at element elem of reg.
func (t *Table) Bound(reg, elem uint32) (gpucore.BindGroupEntry, bool) {
	for _, list := range [][]slot{t.resources, t.samplers} {
		if s, err := t.find(list, reg, elem); err == nil {
			return s.bind, s.bound
		}
	}
	return gpucore.BindGroupEntry{}, false
}

// ResourceDirty reports whether a buffer or texture binding changed since
// the resource entries were last generated.
func (t *Table) ResourceDirty() bool { return t.resourceDirty }

// SamplerDirty reports whether a sampler binding changed since the
// sampler entries were last generated.
func (t *Table) SamplerDirty() bool { return t.samplerDirty }

// ResourceEntries returns the bound buffer and texture entries,
// regenerating them if a resource binding changed.
func (t *Table) ResourceEntries() []gpucore.BindGroupEntry {
	if t.resourceDirty {
		t.resourceEntries = generate(t.resources)
		t.resourceDirty = false
		t.regenerated = true
		t.resourceRegens++
	}
	return t.resourceEntries
}

// SamplerEntries returns the bound sampler entries, regenerating them if a
// sampler binding changed.
func (t *Table) SamplerEntries() []gpucore.BindGroupEntry {
	if t.samplerDirty {
		t.samplerEntries = generate(t.samplers)
		t.samplerDirty = false
		t.regenerated = true
		t.samplerRegens++
	}
	return t.samplerEntries
}

// Regenerations returns how many times the resource and sampler entries
// have been generated.
func (t *Table) Regenerations() (resources, samplers int) {
	return t.resourceRegens, t.samplerRegens
}

func generate(list []slot) []gpucore.BindGroupEntry {
	out := make([]gpucore.BindGroupEntry, 0, len(list))
	for i := range list {
		if list[i].bound {
			out = append(out, list[i].bind)
		}
	}
	return out
}

// Unbound returns the registers that still have an unbound element.
func (t *Table) Unbound() []uint32 {
	var out []uint32
	for _, list := range [][]slot{t.resources, t.samplers} {
		for i := range list {
			s := &list[i]
			if !s.bound && (len(out) == 0 || out[len(out)-1] != s.entry.Binding) {
				out = append(out, s.entry.Binding)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// BindGroup returns a bind group holding the current bindings. A new
// group is created only when the entries were regenerated since the last
// call; the group it replaces is passed to the releaser. Tables with no
// slots return gpucore.InvalidID.
func (t *Table) BindGroup(dev gpucore.Device) (gpucore.BindGroupID, error) {
	if len(t.resources)+len(t.samplers) == 0 {
		return gpucore.InvalidID, nil
	}
	if unbound := t.Unbound(); len(unbound) > 0 {
		s, _ := t.slotAt(unbound[0])
		return gpucore.InvalidID, t.reject(fmt.Errorf("%w: register %d (%q) in space %d",
			ErrUnboundSlot, unbound[0], s.entry.Name, t.space))
	}

	resources := t.ResourceEntries()
	samplers := t.SamplerEntries()
	if !t.regenerated && t.group != gpucore.InvalidID {
		return t.group, nil
	}

	entries := make([]gpucore.BindGroupEntry, 0, len(resources)+len(samplers))
	entries = append(entries, resources...)
	entries = append(entries, samplers...)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Binding != entries[j].Binding {
			return entries[i].Binding < entries[j].Binding
		}
		return entries[i].Element < entries[j].Element
	})

	id, err := dev.CreateBindGroup(t.groupLayout, entries, fmt.Sprintf("shaderbind group %d", t.space))
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("create bind group: %w", err)
	}
	t.retire(dev)
	t.group = id
	t.regenerated = false
	slogger().Debug("bindtable: bind group created", "space", t.space, "entries", len(entries))
	return id, nil
}

func (t *Table) slotAt(reg uint32) (*slot, bool) {
	for _, list := range [][]slot{t.resources, t.samplers} {
		for i := range list {
			if list[i].entry.Binding == reg {
				return &list[i], true
			}
		}
	}
	return nil, false
}

// retire hands the current bind group to the releaser.
func (t *Table) retire(dev gpucore.Device) {
	old := t.group
	if old == gpucore.InvalidID {
		return
	}
	t.group = gpucore.InvalidID
	destroy := func() { dev.DestroyBindGroup(old) }
	if t.releaser == nil {
		destroy()
		return
	}
	t.releaser.Release(destroy)
}

// Destroy releases the current bind group, if any.
func (t *Table) Destroy(dev gpucore.Device) {
	t.retire(dev)
	t.regenerated = true
}
