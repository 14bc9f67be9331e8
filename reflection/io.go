package reflection

import (
	"fmt"

	"github.com/gogpu/naga/ir"
)

// entryPointIO collects vertex inputs and fragment outputs bound with
// @location. Builtins are skipped.
func (r *reflector) entryPointIO() error {
	for i := range r.module.EntryPoints {
		ep := &r.module.EntryPoints[i]
		fn := &ep.Function
		switch ep.Stage {
		case ir.StageVertex:
			for _, arg := range fn.Arguments {
				if err := r.locations(arg.Name, arg.Binding, arg.Type, r.out.vertexAttributes); err != nil {
					return err
				}
			}
		case ir.StageFragment:
			if fn.Result != nil {
				if err := r.locations("", fn.Result.Binding, fn.Result.Type, r.out.fragmentOutputs); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *reflector) locations(name string, b *ir.Binding, h ir.TypeHandle, dst map[string]*Attribute) error {
	inner, err := r.inner(h)
	if err != nil {
		return err
	}
	if b != nil {
		lb, ok := (*b).(ir.LocationBinding)
		if !ok {
			return nil
		}
		if name == "" {
			name = fmt.Sprintf("location%d", lb.Location)
		}
		a := &Attribute{Name: name, Location: lb.Location}
		if arr, ok := inner.(ir.ArrayType); ok && arr.Size.Constant != nil {
			a.ArraySize = *arr.Size.Constant
			if inner, err = r.inner(arr.Base); err != nil {
				return err
			}
		}
		a.Type, _ = basicType(inner)
		return addAttribute(dst, a)
	}
	st, ok := inner.(ir.StructType)
	if !ok {
		return nil
	}
	for _, m := range st.Members {
		if err := r.locations(m.Name, m.Binding, m.Type, dst); err != nil {
			return err
		}
	}
	return nil
}

func addAttribute(dst map[string]*Attribute, a *Attribute) error {
	prev, ok := dst[a.Name]
	if !ok {
		dst[a.Name] = a
		return nil
	}
	if *prev != *a {
		return fmt.Errorf("%w: attribute %q declared as @location(%d) %s and @location(%d) %s",
			ErrStageMismatch, a.Name, prev.Location, prev.Type, a.Location, a.Type)
	}
	return nil
}
