package layout

import (
	"fmt"
	"sort"
)

// Kind is the descriptor category of a binding range.
type Kind uint8

// Descriptor kinds.
const (
	KindCBV Kind = iota
	KindSRV
	KindUAV
	KindSampler
)

func (k Kind) String() string {
	switch k {
	case KindCBV:
		return "CBV"
	case KindSRV:
		return "SRV"
	case KindUAV:
		return "UAV"
	case KindSampler:
		return "Sampler"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Range is a run of Count consecutive registers starting at Base in one
// register space.
type Range struct {
	Kind  Kind
	Space uint32
	Base  uint32
	Count uint32
}

// End returns the first register past the range.
func (r Range) End() uint32 { return r.Base + r.Count }

// Cost returns the root storage cost of the range in DWORDs: constant
// buffers are root descriptors, everything else is one table.
func (r Range) Cost() int {
	if r.Kind == KindCBV {
		return rootDescriptorCost * int(r.Count)
	}
	return tableCost
}

func (r Range) String() string {
	return fmt.Sprintf("%s(space %d, %d..%d)", r.Kind, r.Space, r.Base, r.End()-1)
}

// Merge sorts ranges and coalesces those of the same kind and space that
// touch or overlap. The input is not modified.
//
//	Merge([(0,4), (4,2), (10,1)]) == [(0,6), (10,1)]
func Merge(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Space != b.Space {
			return a.Space < b.Space
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Base != b.Base {
			return a.Base < b.Base
		}
		return a.Count > b.Count
	})

	out := []Range{sorted[0]}
	for _, next := range sorted[1:] {
		cur := &out[len(out)-1]
		if next.Space == cur.Space && next.Kind == cur.Kind && next.Base <= cur.End() {
			if next.End() > cur.End() {
				cur.Count = next.End() - cur.Base
			}
			continue
		}
		out = append(out, next)
	}
	return out
}
