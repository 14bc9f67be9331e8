package reflection

import (
	"fmt"

	"github.com/gogpu/naga/ir"

	"github.com/gogpu/shaderbind/gpucore"
)

// Reflect builds the reflection of one compiled module. Every global in the
// module is considered visible to every stage that has an entry point in it.
func Reflect(m *ir.Module) (*ProgramReflection, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil module", ErrInvalidModule)
	}
	r := &reflector{
		module: m,
		out:    newProgramReflection(),
	}
	for _, ep := range m.EntryPoints {
		r.out.stages |= stageBit(ep.Stage)
	}
	for i := range m.GlobalVariables {
		if err := r.global(&m.GlobalVariables[i]); err != nil {
			return nil, err
		}
	}
	if err := r.entryPointIO(); err != nil {
		return nil, err
	}
	slogger().Debug("reflection: module reflected",
		"stages", r.out.stages.String(),
		"constantBuffers", r.out.buffers[BufferConstant].Len(),
		"structuredBuffers", r.out.buffers[BufferStructured].Len(),
		"resources", len(r.out.resources))
	return r.out, nil
}

func stageBit(s ir.ShaderStage) gpucore.ShaderStage {
	switch s {
	case ir.StageVertex:
		return gpucore.ShaderStageVertex
	case ir.StageFragment:
		return gpucore.ShaderStageFragment
	case ir.StageCompute:
		return gpucore.ShaderStageCompute
	default:
		return gpucore.ShaderStageNone
	}
}

// reflector walks the globals of one module.
type reflector struct {
	module *ir.Module
	out    *ProgramReflection
}

func (r *reflector) inner(h ir.TypeHandle) (ir.TypeInner, error) {
	if int(h) >= len(r.module.Types) {
		return nil, fmt.Errorf("%w: type handle %d out of range", ErrInvalidModule, h)
	}
	return r.module.Types[h].Inner, nil
}

func (r *reflector) global(gv *ir.GlobalVariable) error {
	switch gv.Space {
	case ir.SpaceUniform, ir.SpaceStorage, ir.SpaceHandle:
	default:
		return nil
	}
	if gv.Binding == nil {
		slogger().Debug("reflection: skipping global without binding", "name", gv.Name)
		return nil
	}
	if gv.Binding.Group != 0 {
		return fmt.Errorf("%w: %q is bound to group %d", ErrUnsupportedSpace, gv.Name, gv.Binding.Group)
	}

	switch gv.Space {
	case ir.SpaceUniform:
		return r.uniformGlobal(gv)
	case ir.SpaceStorage:
		return r.storageGlobal(gv)
	default:
		return r.handleGlobal(gv)
	}
}

func (r *reflector) uniformGlobal(gv *ir.GlobalVariable) error {
	vars, size, err := r.layout(gv.Name, gv.Type)
	if err != nil {
		return err
	}
	t := NewBufferTypeReflection(gv.Name, BufferConstant, size, AccessRead, vars, nil)
	buf := NewBufferReflection(t, gv.Binding.Binding, gv.Binding.Group, r.out.stages)
	return r.out.buffers[BufferConstant].Add(buf)
}

func (r *reflector) storageGlobal(gv *ir.GlobalVariable) error {
	access := AccessReadWrite
	if gv.Access == ir.StorageRead {
		access = AccessRead
	}
	inner, err := r.inner(gv.Type)
	if err != nil {
		return err
	}

	elem := gv.Type
	if arr, ok := inner.(ir.ArrayType); ok {
		base, err := r.inner(arr.Base)
		if err != nil {
			return err
		}
		if vt, ok := basicType(base); ok {
			kind := KindTypedBuffer
			if vt.Class == ClassScalar && (vt.Scalar == ScalarUint || vt.Scalar == ScalarInt) {
				kind = KindRawBuffer
			}
			return r.out.addResource(&Resource{
				Name:       gv.Name,
				Kind:       kind,
				Access:     access,
				Register:   gv.Binding.Binding,
				Space:      gv.Binding.Group,
				Visibility: r.out.stages,
				ReturnType: returnTypeOf(vt.Scalar),
				Dimension:  DimBuffer,
				Stride:     arr.Stride,
			})
		}
		elem = arr.Base
	}

	vars, size, err := r.layout(gv.Name, elem)
	if err != nil {
		return err
	}
	if arr, ok := inner.(ir.ArrayType); ok && arr.Stride > size {
		size = arr.Stride
	}
	t := NewBufferTypeReflection(gv.Name, BufferStructured, size, access, vars, nil)
	buf := NewBufferReflection(t, gv.Binding.Binding, gv.Binding.Group, r.out.stages)
	return r.out.buffers[BufferStructured].Add(buf)
}

func (r *reflector) handleGlobal(gv *ir.GlobalVariable) error {
	inner, err := r.inner(gv.Type)
	if err != nil {
		return err
	}
	var arraySize uint32
	switch arr := inner.(type) {
	case ir.ArrayType:
		if arr.Size.Constant == nil {
			return fmt.Errorf("%w: %q is a runtime-sized resource array", ErrUnsupportedType, gv.Name)
		}
		arraySize = *arr.Size.Constant
		if inner, err = r.inner(arr.Base); err != nil {
			return err
		}
	case ir.BindingArrayType:
		if arr.Size == nil {
			return fmt.Errorf("%w: %q is an unbounded binding array", ErrUnsupportedType, gv.Name)
		}
		arraySize = *arr.Size
		if inner, err = r.inner(arr.Base); err != nil {
			return err
		}
	}

	res := &Resource{
		Name:       gv.Name,
		Register:   gv.Binding.Binding,
		Space:      gv.Binding.Group,
		ArraySize:  arraySize,
		Visibility: r.out.stages,
	}
	switch t := inner.(type) {
	case ir.SamplerType:
		res.Kind = KindSampler
		res.Access = AccessRead
		res.Comparison = t.Comparison
	case ir.ImageType:
		res.Kind = KindTexture
		res.Dimension = imageDimension(t)
		switch t.Class {
		case ir.ImageClassStorage:
			res.Storage = true
			res.Access = storageTextureAccess(t.StorageAccess)
			res.Format = texelFormat(t.StorageFormat)
			res.ReturnType = sampledReturnType(t.StorageFormat.ScalarKind())
		case ir.ImageClassDepth:
			res.Access = AccessRead
			res.ReturnType = ReturnDepth
		default:
			res.Access = AccessRead
			res.ReturnType = sampledReturnType(t.SampledKind)
		}
	default:
		return fmt.Errorf("%w: %q has handle type %T", ErrUnsupportedType, gv.Name, inner)
	}
	return r.out.addResource(res)
}

// layout flattens the type at h into variables and returns them with the
// byte size of the type. Struct members are named relative to the buffer;
// a non-struct root is named after the global.
func (r *reflector) layout(global string, h ir.TypeHandle) ([]Variable, uint32, error) {
	inner, err := r.inner(h)
	if err != nil {
		return nil, 0, err
	}
	root := global
	if _, ok := inner.(ir.StructType); ok {
		root = ""
	}
	v := &visitor{r: r}
	if err := v.visit(root, 0, h); err != nil {
		return nil, 0, err
	}
	size, err := r.sizeOf(h)
	if err != nil {
		return nil, 0, err
	}
	return v.vars, size, nil
}

func (r *reflector) sizeOf(h ir.TypeHandle) (uint32, error) {
	inner, err := r.inner(h)
	if err != nil {
		return 0, err
	}
	switch t := inner.(type) {
	case ir.StructType:
		return t.Span, nil
	case ir.ArrayType:
		if t.Size.Constant == nil {
			return t.Stride, nil
		}
		return t.Stride * *t.Size.Constant, nil
	default:
		vt, _ := basicType(inner)
		return vt.Size(), nil
	}
}

// visitor flattens a type tree into variables. Each step passes down the
// fully qualified name and the byte offset accumulated along the path:
// struct member offsets plus array index times element stride.
type visitor struct {
	r    *reflector
	vars []Variable
}

func (v *visitor) visit(name string, offset uint32, h ir.TypeHandle) error {
	inner, err := v.r.inner(h)
	if err != nil {
		return err
	}
	switch t := inner.(type) {
	case ir.StructType:
		for _, m := range t.Members {
			if err := v.visit(memberName(name, m.Name), offset+m.Offset, m.Type); err != nil {
				return err
			}
		}
		return nil

	case ir.ArrayType:
		if t.Size.Constant == nil {
			slogger().Debug("reflection: runtime-sized array member skipped", "name", name)
			return nil
		}
		n := *t.Size.Constant
		base, err := v.r.inner(t.Base)
		if err != nil {
			return err
		}
		if vt, ok := basicType(base); ok {
			v.vars = append(v.vars, Variable{
				Name:        name,
				Type:        vt,
				Offset:      offset,
				ArraySize:   n,
				ArrayStride: t.Stride,
			})
			return nil
		}
		for i := uint32(0); i < n; i++ {
			if err := v.visit(fmt.Sprintf("%s[%d]", name, i), offset+i*t.Stride, t.Base); err != nil {
				return err
			}
		}
		return nil

	default:
		vt, _ := basicType(inner)
		v.vars = append(v.vars, Variable{Name: name, Type: vt, Offset: offset})
		return nil
	}
}

func memberName(parent, member string) string {
	if parent == "" {
		return member
	}
	return parent + "." + member
}

// basicType maps scalar, vector, matrix and atomic IR types to a
// VariableType. Only 32-bit components are recognized.
func basicType(inner ir.TypeInner) (VariableType, bool) {
	switch t := inner.(type) {
	case ir.ScalarType:
		k, ok := scalarKind(t)
		if !ok {
			return UnknownType, false
		}
		return Scalar(k), true
	case ir.VectorType:
		k, ok := scalarKind(t.Scalar)
		if !ok {
			return UnknownType, false
		}
		return Vector(k, uint8(t.Size)), true
	case ir.MatrixType:
		k, ok := scalarKind(t.Scalar)
		if !ok {
			return UnknownType, false
		}
		return Matrix(k, uint8(t.Columns), uint8(t.Rows)), true
	case ir.AtomicType:
		k, ok := scalarKind(t.Scalar)
		if !ok {
			return UnknownType, false
		}
		return Scalar(k), true
	default:
		return UnknownType, false
	}
}

func scalarKind(s ir.ScalarType) (ScalarKind, bool) {
	if s.Kind == ir.ScalarBool {
		return ScalarBool, true
	}
	if s.Width != 4 {
		return ScalarUnknown, false
	}
	switch s.Kind {
	case ir.ScalarSint:
		return ScalarInt, true
	case ir.ScalarUint:
		return ScalarUint, true
	case ir.ScalarFloat:
		return ScalarFloat, true
	default:
		return ScalarUnknown, false
	}
}

func returnTypeOf(k ScalarKind) ReturnType {
	switch k {
	case ScalarFloat:
		return ReturnFloat
	case ScalarInt:
		return ReturnSint
	case ScalarUint:
		return ReturnUint
	default:
		return ReturnUnknown
	}
}

func imageDimension(t ir.ImageType) Dimension {
	switch t.Dim {
	case ir.Dim1D:
		if t.Arrayed {
			return DimTexture1DArray
		}
		return DimTexture1D
	case ir.Dim2D:
		switch {
		case t.Multisampled && t.Arrayed:
			return DimTexture2DMSArray
		case t.Multisampled:
			return DimTexture2DMS
		case t.Arrayed:
			return DimTexture2DArray
		default:
			return DimTexture2D
		}
	case ir.Dim3D:
		return DimTexture3D
	case ir.DimCube:
		if t.Arrayed {
			return DimTextureCubeArray
		}
		return DimTextureCube
	default:
		return DimUnknown
	}
}
