package reflection

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/shaderbind/gpucore"
)

// ParseWGSL parses and lowers WGSL source.
func ParseWGSL(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse wgsl: %w", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("lower wgsl: %w", err)
	}
	return module, nil
}

// ReflectWGSL parses WGSL source and reflects the resulting module.
func ReflectWGSL(source string) (*ProgramReflection, error) {
	module, err := ParseWGSL(source)
	if err != nil {
		return nil, err
	}
	return Reflect(module)
}

var texelFormats = map[ir.StorageFormat]gpucore.TexelFormat{
	ir.StorageFormatR8Unorm:       "r8unorm",
	ir.StorageFormatR8Snorm:       "r8snorm",
	ir.StorageFormatR8Uint:        "r8uint",
	ir.StorageFormatR8Sint:        "r8sint",
	ir.StorageFormatR16Uint:       "r16uint",
	ir.StorageFormatR16Sint:       "r16sint",
	ir.StorageFormatR16Float:      "r16float",
	ir.StorageFormatR16Unorm:      "r16unorm",
	ir.StorageFormatR16Snorm:      "r16snorm",
	ir.StorageFormatRg8Unorm:      "rg8unorm",
	ir.StorageFormatRg8Snorm:      "rg8snorm",
	ir.StorageFormatRg8Uint:       "rg8uint",
	ir.StorageFormatRg8Sint:       "rg8sint",
	ir.StorageFormatR32Uint:       "r32uint",
	ir.StorageFormatR32Sint:       "r32sint",
	ir.StorageFormatR32Float:      "r32float",
	ir.StorageFormatRg16Uint:      "rg16uint",
	ir.StorageFormatRg16Sint:      "rg16sint",
	ir.StorageFormatRg16Float:     "rg16float",
	ir.StorageFormatRg16Unorm:     "rg16unorm",
	ir.StorageFormatRg16Snorm:     "rg16snorm",
	ir.StorageFormatRgba8Unorm:    "rgba8unorm",
	ir.StorageFormatRgba8Snorm:    "rgba8snorm",
	ir.StorageFormatRgba8Uint:     "rgba8uint",
	ir.StorageFormatRgba8Sint:     "rgba8sint",
	ir.StorageFormatBgra8Unorm:    "bgra8unorm",
	ir.StorageFormatRgb10a2Uint:   "rgb10a2uint",
	ir.StorageFormatRgb10a2Unorm:  "rgb10a2unorm",
	ir.StorageFormatRg11b10Ufloat: "rg11b10ufloat",
	ir.StorageFormatRg32Uint:      "rg32uint",
	ir.StorageFormatRg32Sint:      "rg32sint",
	ir.StorageFormatRg32Float:     "rg32float",
	ir.StorageFormatRgba16Uint:    "rgba16uint",
	ir.StorageFormatRgba16Sint:    "rgba16sint",
	ir.StorageFormatRgba16Float:   "rgba16float",
	ir.StorageFormatRgba16Unorm:   "rgba16unorm",
	ir.StorageFormatRgba16Snorm:   "rgba16snorm",
	ir.StorageFormatRgba32Uint:    "rgba32uint",
	ir.StorageFormatRgba32Sint:    "rgba32sint",
	ir.StorageFormatRgba32Float:   "rgba32float",
	ir.StorageFormatR64Uint:       "r64uint",
	ir.StorageFormatR64Sint:       "r64sint",
}

// texelFormat returns the WGSL name of a storage format, or "" when the
// format is unknown.
func texelFormat(f ir.StorageFormat) gpucore.TexelFormat {
	return texelFormats[f]
}

func storageTextureAccess(a ir.StorageAccess) ShaderAccess {
	switch a {
	case ir.StorageAccessRead:
		return AccessRead
	case ir.StorageAccessWrite:
		return AccessWrite
	default:
		return AccessReadWrite
	}
}

func sampledReturnType(k ir.ScalarKind) ReturnType {
	switch k {
	case ir.ScalarSint:
		return ReturnSint
	case ir.ScalarUint:
		return ReturnUint
	default:
		return ReturnFloat
	}
}
