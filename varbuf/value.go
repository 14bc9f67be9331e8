package varbuf

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/shaderbind/reflection"
)

// valueType returns the variable type a Go value encodes as.
func valueType(v any) (reflection.VariableType, bool) {
	f := reflection.ScalarFloat
	switch v.(type) {
	case float32:
		return reflection.Scalar(f), true
	case int32:
		return reflection.Scalar(reflection.ScalarInt), true
	case uint32:
		return reflection.Scalar(reflection.ScalarUint), true
	case bool:
		return reflection.Scalar(reflection.ScalarBool), true
	case mgl32.Vec2:
		return reflection.Vector(f, 2), true
	case mgl32.Vec3:
		return reflection.Vector(f, 3), true
	case mgl32.Vec4:
		return reflection.Vector(f, 4), true
	case [2]int32:
		return reflection.Vector(reflection.ScalarInt, 2), true
	case [3]int32:
		return reflection.Vector(reflection.ScalarInt, 3), true
	case [4]int32:
		return reflection.Vector(reflection.ScalarInt, 4), true
	case [2]uint32:
		return reflection.Vector(reflection.ScalarUint, 2), true
	case [3]uint32:
		return reflection.Vector(reflection.ScalarUint, 3), true
	case [4]uint32:
		return reflection.Vector(reflection.ScalarUint, 4), true
	case mgl32.Mat2:
		return reflection.Matrix(f, 2, 2), true
	case mgl32.Mat3:
		return reflection.Matrix(f, 3, 3), true
	case mgl32.Mat4:
		return reflection.Matrix(f, 4, 4), true
	// mgl32 names matrices rows x columns.
	case mgl32.Mat4x3:
		return reflection.Matrix(f, 3, 4), true
	case mgl32.Mat3x4:
		return reflection.Matrix(f, 4, 3), true
	default:
		return reflection.UnknownType, false
	}
}

// words returns the 32-bit components of v in column-major order.
func words(v any) []uint32 {
	switch x := v.(type) {
	case float32:
		return []uint32{math.Float32bits(x)}
	case int32:
		return []uint32{uint32(x)}
	case uint32:
		return []uint32{x}
	case bool:
		if x {
			return []uint32{1}
		}
		return []uint32{0}
	case mgl32.Vec2:
		return floatWords(x[:])
	case mgl32.Vec3:
		return floatWords(x[:])
	case mgl32.Vec4:
		return floatWords(x[:])
	case [2]int32:
		return intWords(x[:])
	case [3]int32:
		return intWords(x[:])
	case [4]int32:
		return intWords(x[:])
	case [2]uint32:
		return append([]uint32(nil), x[:]...)
	case [3]uint32:
		return append([]uint32(nil), x[:]...)
	case [4]uint32:
		return append([]uint32(nil), x[:]...)
	case mgl32.Mat2:
		return floatWords(x[:])
	case mgl32.Mat3:
		return floatWords(x[:])
	case mgl32.Mat4:
		return floatWords(x[:])
	case mgl32.Mat4x3:
		return floatWords(x[:])
	case mgl32.Mat3x4:
		return floatWords(x[:])
	default:
		return nil
	}
}

func floatWords(fs []float32) []uint32 {
	out := make([]uint32, len(fs))
	for i, f := range fs {
		out[i] = math.Float32bits(f)
	}
	return out
}

func intWords(is []int32) []uint32 {
	out := make([]uint32, len(is))
	for i, v := range is {
		out[i] = uint32(v)
	}
	return out
}

// vectorStride is the aligned size of an n-component vector inside a matrix.
func vectorStride(n uint8) uint32 {
	if n == 2 {
		return 8
	}
	return 16
}

// encode writes v, already checked against t, at dst. Matrix columns are
// padded to their aligned stride; row-major matrices are stored transposed.
func encode(dst []byte, t reflection.VariableType, rowMajor bool, v any) {
	w := words(v)
	if t.Class != reflection.ClassMatrix {
		for i, x := range w {
			binary.LittleEndian.PutUint32(dst[4*i:], x)
		}
		return
	}
	rows, cols := t.Rows, t.Columns
	for c := uint8(0); c < cols; c++ {
		for r := uint8(0); r < rows; r++ {
			x := w[int(c)*int(rows)+int(r)]
			off := uint32(c)*vectorStride(rows) + 4*uint32(r)
			if rowMajor {
				off = uint32(r)*vectorStride(cols) + 4*uint32(c)
			}
			binary.LittleEndian.PutUint32(dst[off:], x)
		}
	}
}

// decode reads a value of t from src into out, which must point to a
// value of the matching Go type.
func decode(src []byte, t reflection.VariableType, rowMajor bool, out any) error {
	got, ok := valueType(deref(out))
	if !ok || got != t {
		return fmt.Errorf("%w: cannot read %s into %T", ErrTypeMismatch, t, out)
	}
	n := t.Components()
	w := make([]uint32, n)
	if t.Class == reflection.ClassMatrix {
		rows, cols := t.Rows, t.Columns
		for c := uint8(0); c < cols; c++ {
			for r := uint8(0); r < rows; r++ {
				off := uint32(c)*vectorStride(rows) + 4*uint32(r)
				if rowMajor {
					off = uint32(r)*vectorStride(cols) + 4*uint32(c)
				}
				w[int(c)*int(rows)+int(r)] = binary.LittleEndian.Uint32(src[off:])
			}
		}
	} else {
		for i := range w {
			w[i] = binary.LittleEndian.Uint32(src[4*i:])
		}
	}
	store(out, w)
	return nil
}

func deref(p any) any {
	switch x := p.(type) {
	case *float32:
		return *x
	case *int32:
		return *x
	case *uint32:
		return *x
	case *bool:
		return *x
	case *mgl32.Vec2:
		return *x
	case *mgl32.Vec3:
		return *x
	case *mgl32.Vec4:
		return *x
	case *[2]int32:
		return *x
	case *[3]int32:
		return *x
	case *[4]int32:
		return *x
	case *[2]uint32:
		return *x
	case *[3]uint32:
		return *x
	case *[4]uint32:
		return *x
	case *mgl32.Mat2:
		return *x
	case *mgl32.Mat3:
		return *x
	case *mgl32.Mat4:
		return *x
	case *mgl32.Mat4x3:
		return *x
	case *mgl32.Mat3x4:
		return *x
	default:
		return nil
	}
}

func store(p any, w []uint32) {
	switch x := p.(type) {
	case *float32:
		*x = math.Float32frombits(w[0])
	case *int32:
		*x = int32(w[0])
	case *uint32:
		*x = w[0]
	case *bool:
		*x = w[0] != 0
	case *mgl32.Vec2:
		storeFloats(x[:], w)
	case *mgl32.Vec3:
		storeFloats(x[:], w)
	case *mgl32.Vec4:
		storeFloats(x[:], w)
	case *[2]int32:
		storeInts(x[:], w)
	case *[3]int32:
		storeInts(x[:], w)
	case *[4]int32:
		storeInts(x[:], w)
	case *[2]uint32:
		copy(x[:], w)
	case *[3]uint32:
		copy(x[:], w)
	case *[4]uint32:
		copy(x[:], w)
	case *mgl32.Mat2:
		storeFloats(x[:], w)
	case *mgl32.Mat3:
		storeFloats(x[:], w)
	case *mgl32.Mat4:
		storeFloats(x[:], w)
	case *mgl32.Mat4x3:
		storeFloats(x[:], w)
	case *mgl32.Mat3x4:
		storeFloats(x[:], w)
	}
}

func storeFloats(dst []float32, w []uint32) {
	for i := range dst {
		dst[i] = math.Float32frombits(w[i])
	}
}

func storeInts(dst []int32, w []uint32) {
	for i := range dst {
		dst[i] = int32(w[i])
	}
}
