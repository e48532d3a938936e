package gpu

import (
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type RayParams struct {
	Epsilon float32
	Steps   uint32
}

type Material struct {
	Albedo    mgl32.Vec3
	Roughness float32
	Emissive  bool
}

type Scene struct {
	Materials [4]Material
	Count     uint32 `wgsl:"material_count"`
}

type Half uint32

func (Half) ShaderType() string { return "f16" }

func TestShaderTypeOf(t *testing.T) {
	cases := []struct {
		typ  reflect.Type
		want string
	}{
		{reflect.TypeFor[bool](), "u32"},
		{reflect.TypeFor[int32](), "i32"},
		{reflect.TypeFor[uint32](), "u32"},
		{reflect.TypeFor[float32](), "f32"},
		{reflect.TypeFor[mgl32.Vec2](), "vec2<f32>"},
		{reflect.TypeFor[mgl32.Vec3](), "vec3<f32>"},
		{reflect.TypeFor[mgl32.Vec4](), "vec4<f32>"},
		{reflect.TypeFor[mgl32.Mat2](), "mat2x2<f32>"},
		{reflect.TypeFor[mgl32.Mat3](), "mat3x3<f32>"},
		{reflect.TypeFor[mgl32.Mat4](), "mat4x4<f32>"},
		{reflect.TypeFor[[8]float32](), "array<f32,8>"},
		{reflect.TypeFor[[2][3]uint32](), "array<array<u32,3>,2>"},
		{reflect.TypeFor[[]mgl32.Vec4](), "array<vec4<f32>>"},
		{reflect.TypeFor[RayParams](), "RayParams"},
		{reflect.TypeFor[[]Material](), "array<Material>"},
		{reflect.TypeFor[Half](), "f16"},
	}

	for _, c := range cases {
		got, err := ShaderTypeOf(c.typ)
		require.NoError(t, err, c.typ.String())
		assert.Equal(t, c.want, got, c.typ.String())
	}
}

func TestShaderTypeOf_Unmapped(t *testing.T) {
	_, err := ShaderTypeOf(reflect.TypeFor[float64]())
	assert.Error(t, err)

	_, err = ShaderTypeOf(reflect.TypeFor[struct{ A float32 }]())
	assert.Error(t, err)

	assert.Panics(t, func() { ShaderTypeName[string]() })
}

func TestStructDefinition(t *testing.T) {
	def, err := StructDefinition(reflect.TypeFor[RayParams]())
	require.NoError(t, err)
	assert.Equal(t, "struct RayParams {\n\tepsilon: f32,\n\tsteps: u32,\n}\n", def)
}

func TestStructDefinition_Dependencies(t *testing.T) {
	def, err := StructDefinition(reflect.TypeFor[Scene]())
	require.NoError(t, err)

	want := "struct Material {\n\talbedo: vec3<f32>,\n\troughness: f32,\n\temissive: u32,\n}\n" +
		"struct Scene {\n\tmaterials: array<Material,4>,\n\tmaterial_count: u32,\n}\n"
	assert.Equal(t, want, def)
}

func TestStructDefinition_NotAStruct(t *testing.T) {
	def, err := StructDefinition(reflect.TypeFor[mgl32.Vec3]())
	require.NoError(t, err)
	assert.Empty(t, def)

	_, ok := structSource(reflect.TypeFor[float32]())
	assert.False(t, ok)
}

func TestFieldName(t *testing.T) {
	cases := map[string]string{
		"Epsilon":     "epsilon",
		"FocalLength": "focal_length",
		"ZNear":       "z_near",
		"YFov":        "y_fov",
		"InverseView": "inverse_view",
		"HTTPServer":  "http_server",
		"Pos2D":       "pos2_d",
	}
	for name, want := range cases {
		assert.Equal(t, want, fieldName(reflect.StructField{Name: name}), name)
	}

	tagged := reflect.StructField{Name: "Count", Tag: `wgsl:"n"`}
	assert.Equal(t, "n", fieldName(tagged))
}

func TestSizeOf(t *testing.T) {
	type vecThenScalar struct {
		A mgl32.Vec3
		B float32
	}
	type scalarThenVec struct {
		A float32
		B mgl32.Vec3
	}

	assert.EqualValues(t, 8, SizeOf[RayParams]())
	assert.EqualValues(t, 16, SizeOf[vecThenScalar]())
	assert.EqualValues(t, 32, SizeOf[scalarThenVec]())
	assert.EqualValues(t, 48, SizeOf[mgl32.Mat3]())
	assert.EqualValues(t, 64, SizeOf[mgl32.Mat4]())
	assert.EqualValues(t, 32*4+16, SizeOf[Scene]())
	assert.EqualValues(t, 0, SizeOf[[]float32]())
}
