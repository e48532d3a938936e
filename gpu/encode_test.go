package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32At(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func u32At(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off:])
}

func TestBytes_Scalars(t *testing.T) {
	b := Bytes(RayParams{Epsilon: 0.5, Steps: 7})
	require.Len(t, b, 8)
	assert.Equal(t, float32(0.5), f32At(b, 0))
	assert.Equal(t, uint32(7), u32At(b, 4))
}

func TestBytes_StructPadding(t *testing.T) {
	m := Material{Albedo: mgl32.Vec3{1, 2, 3}, Roughness: 0.25, Emissive: true}
	b := Bytes(&m)

	require.Len(t, b, int(SizeOf[Material]()))
	assert.Equal(t, float32(1), f32At(b, 0))
	assert.Equal(t, float32(3), f32At(b, 8))
	assert.Equal(t, float32(0.25), f32At(b, 12))
	assert.Equal(t, uint32(1), u32At(b, 16))
	assert.Equal(t, make([]byte, 12), b[20:])
}

func TestBytes_AlignedMember(t *testing.T) {
	type scalarThenVec struct {
		A float32
		B mgl32.Vec3
	}
	b := Bytes(scalarThenVec{A: 9, B: mgl32.Vec3{4, 5, 6}})

	require.Len(t, b, 32)
	assert.Equal(t, float32(9), f32At(b, 0))
	assert.Equal(t, make([]byte, 12), b[4:16])
	assert.Equal(t, float32(4), f32At(b, 16))
	assert.Equal(t, float32(6), f32At(b, 24))
}

func TestBytes_Mat3Columns(t *testing.T) {
	b := Bytes(mgl32.Mat3{1, 2, 3, 4, 5, 6, 7, 8, 9})

	require.Len(t, b, 48)
	assert.Equal(t, float32(3), f32At(b, 8))
	assert.Equal(t, uint32(0), u32At(b, 12))
	assert.Equal(t, float32(4), f32At(b, 16))
	assert.Equal(t, float32(9), f32At(b, 40))
}

func TestBytes_Mat4(t *testing.T) {
	m := mgl32.Ident4()
	b := Bytes(m)

	require.Len(t, b, 64)
	for i := 0; i < 16; i++ {
		assert.Equal(t, m[i], f32At(b, i*4))
	}
}

func TestBytes_ArrayStride(t *testing.T) {
	b := Bytes([2]mgl32.Vec3{{1, 2, 3}, {4, 5, 6}})

	require.Len(t, b, 32)
	assert.Equal(t, float32(4), f32At(b, 16))

	s := Bytes([]int32{-1, 2, 3})
	require.Len(t, s, 12)
	assert.Equal(t, uint32(math.MaxUint32), u32At(s, 0))
}

func TestBytes_Unsupported(t *testing.T) {
	assert.Panics(t, func() { Bytes(float64(1)) })
}
