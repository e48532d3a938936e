package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

var formatNames = map[wgpu.TextureFormat]string{
	wgpu.TextureFormatR8Unorm:      "r8unorm",
	wgpu.TextureFormatR8Snorm:      "r8snorm",
	wgpu.TextureFormatR8Uint:       "r8uint",
	wgpu.TextureFormatR8Sint:       "r8sint",
	wgpu.TextureFormatR16Uint:      "r16uint",
	wgpu.TextureFormatR16Sint:      "r16sint",
	wgpu.TextureFormatR16Float:     "r16float",
	wgpu.TextureFormatRG8Unorm:     "rg8unorm",
	wgpu.TextureFormatRG8Snorm:     "rg8snorm",
	wgpu.TextureFormatRG8Uint:      "rg8uint",
	wgpu.TextureFormatRG8Sint:      "rg8sint",
	wgpu.TextureFormatR32Float:     "r32float",
	wgpu.TextureFormatR32Uint:      "r32uint",
	wgpu.TextureFormatR32Sint:      "r32sint",
	wgpu.TextureFormatRG16Uint:     "rg16uint",
	wgpu.TextureFormatRG16Sint:     "rg16sint",
	wgpu.TextureFormatRG16Float:    "rg16float",
	wgpu.TextureFormatRGBA8Unorm:   "rgba8unorm",
	wgpu.TextureFormatRGBA8Snorm:   "rgba8snorm",
	wgpu.TextureFormatRGBA8Uint:    "rgba8uint",
	wgpu.TextureFormatRGBA8Sint:    "rgba8sint",
	wgpu.TextureFormatBGRA8Unorm:   "bgra8unorm",
	wgpu.TextureFormatRG32Float:    "rg32float",
	wgpu.TextureFormatRG32Uint:     "rg32uint",
	wgpu.TextureFormatRG32Sint:     "rg32sint",
	wgpu.TextureFormatRGBA16Uint:   "rgba16uint",
	wgpu.TextureFormatRGBA16Sint:   "rgba16sint",
	wgpu.TextureFormatRGBA16Float:  "rgba16float",
	wgpu.TextureFormatRGBA32Float:  "rgba32float",
	wgpu.TextureFormatRGBA32Uint:   "rgba32uint",
	wgpu.TextureFormatRGBA32Sint:   "rgba32sint",
	wgpu.TextureFormatRGB10A2Unorm: "rgb10a2unorm",
}

// FormatName returns the WGSL texel format name used in storage texture declarations.
func FormatName(format wgpu.TextureFormat) string {
	if name, ok := formatNames[format]; ok {
		return name
	}
	panic(fmt.Sprintf("texture format %v has no WGSL texel format", format))
}

// AccessName returns the WGSL access mode of a storage texture.
func AccessName(access wgpu.StorageTextureAccess) string {
	switch access {
	case wgpu.StorageTextureAccessReadOnly:
		return "read"
	case wgpu.StorageTextureAccessWriteOnly:
		return "write"
	case wgpu.StorageTextureAccessReadWrite:
		return "read_write"
	}
	panic(fmt.Sprintf("unknown storage texture access %v", access))
}

// DimensionName returns the WGSL suffix (1d, 2d, 3d) of a texture dimension.
func DimensionName(dim wgpu.TextureDimension) string {
	switch dim {
	case wgpu.TextureDimension1D:
		return "1d"
	case wgpu.TextureDimension2D:
		return "2d"
	case wgpu.TextureDimension3D:
		return "3d"
	}
	panic(fmt.Sprintf("unknown texture dimension %v", dim))
}

func viewDimension(dim wgpu.TextureDimension) wgpu.TextureViewDimension {
	switch dim {
	case wgpu.TextureDimension1D:
		return wgpu.TextureViewDimension1D
	case wgpu.TextureDimension3D:
		return wgpu.TextureViewDimension3D
	}
	return wgpu.TextureViewDimension2D
}

// SampleTypeName returns the WGSL component type a shader samples from the format.
func SampleTypeName(format wgpu.TextureFormat) string {
	switch format {
	case wgpu.TextureFormatR8Uint, wgpu.TextureFormatR16Uint, wgpu.TextureFormatR32Uint,
		wgpu.TextureFormatRG8Uint, wgpu.TextureFormatRG16Uint, wgpu.TextureFormatRG32Uint,
		wgpu.TextureFormatRGBA8Uint, wgpu.TextureFormatRGBA16Uint, wgpu.TextureFormatRGBA32Uint,
		wgpu.TextureFormatRGB10A2Uint:
		return "u32"
	case wgpu.TextureFormatR8Sint, wgpu.TextureFormatR16Sint, wgpu.TextureFormatR32Sint,
		wgpu.TextureFormatRG8Sint, wgpu.TextureFormatRG16Sint, wgpu.TextureFormatRG32Sint,
		wgpu.TextureFormatRGBA8Sint, wgpu.TextureFormatRGBA16Sint, wgpu.TextureFormatRGBA32Sint:
		return "i32"
	}
	return "f32"
}

func sampleType(format wgpu.TextureFormat) wgpu.TextureSampleType {
	switch SampleTypeName(format) {
	case "u32":
		return wgpu.TextureSampleTypeUint
	case "i32":
		return wgpu.TextureSampleTypeSint
	}
	switch format {
	case wgpu.TextureFormatR32Float, wgpu.TextureFormatRG32Float, wgpu.TextureFormatRGBA32Float:
		return wgpu.TextureSampleTypeUnfilterableFloat
	}
	return wgpu.TextureSampleTypeFloat
}

// BytesPerPixel returns the texel size of an uncompressed color format.
func BytesPerPixel(format wgpu.TextureFormat) uint32 {
	switch format {
	case wgpu.TextureFormatR8Unorm, wgpu.TextureFormatR8Snorm, wgpu.TextureFormatR8Uint, wgpu.TextureFormatR8Sint:
		return 1

	case wgpu.TextureFormatR16Uint, wgpu.TextureFormatR16Sint, wgpu.TextureFormatR16Float,
		wgpu.TextureFormatRG8Unorm, wgpu.TextureFormatRG8Snorm, wgpu.TextureFormatRG8Uint, wgpu.TextureFormatRG8Sint:
		return 2

	case wgpu.TextureFormatR32Float, wgpu.TextureFormatR32Uint, wgpu.TextureFormatR32Sint,
		wgpu.TextureFormatRG16Uint, wgpu.TextureFormatRG16Sint, wgpu.TextureFormatRG16Float,
		wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureFormatRGBA8Snorm,
		wgpu.TextureFormatRGBA8Uint, wgpu.TextureFormatRGBA8Sint,
		wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb,
		wgpu.TextureFormatRGB10A2Uint, wgpu.TextureFormatRGB10A2Unorm,
		wgpu.TextureFormatRG11B10Ufloat, wgpu.TextureFormatRGB9E5Ufloat:
		return 4

	case wgpu.TextureFormatRG32Float, wgpu.TextureFormatRG32Uint, wgpu.TextureFormatRG32Sint,
		wgpu.TextureFormatRGBA16Uint, wgpu.TextureFormatRGBA16Sint, wgpu.TextureFormatRGBA16Float:
		return 8

	case wgpu.TextureFormatRGBA32Float, wgpu.TextureFormatRGBA32Uint, wgpu.TextureFormatRGBA32Sint:
		return 16
	}
	panic(fmt.Sprintf("missing texel size for format %v", format))
}
