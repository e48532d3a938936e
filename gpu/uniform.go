package gpu

import (
	"fmt"
	"reflect"

	"github.com/cogentcore/webgpu/wgpu"
)

const uniformUsage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst

// Uniform describes a uniform buffer holding a T, declared in WGSL as
// `var<uniform> Name: T`.
type Uniform[T any] struct {
	Name    string
	backing bufferBacking
}

// NewUniform describes a new zeroed uniform buffer sized to hold a T.
func NewUniform[T any](name string) *Uniform[T] {
	return NewUniformSized[T](name, SizeOf[T]())
}

// NewUniformSized describes a new zeroed uniform buffer of size bytes.
func NewUniformSized[T any](name string, size uint64) *Uniform[T] {
	return &Uniform[T]{Name: name, backing: bufferBacking{size: size}}
}

// UniformFromData describes a uniform buffer initialized with v.
func UniformFromData[T any](name string, v T) *Uniform[T] {
	return &Uniform[T]{Name: name, backing: bufferBacking{data: Bytes(v)}}
}

// UniformFromBuffer describes a uniform backed by an existing buffer. The
// buffer stays owned by the caller, typically so it can be updated every frame.
func UniformFromBuffer[T any](name string, buf *wgpu.Buffer) *Uniform[T] {
	return &Uniform[T]{Name: name, backing: bufferBacking{buffer: buf}}
}

// CreateUniformBuffer creates a buffer suitable for UniformFromBuffer[T].
func CreateUniformBuffer[T any](g *GPU, label string) (*wgpu.Buffer, error) {
	buf, err := g.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  SizeOf[T](),
		Usage: uniformUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't create uniform buffer %q: %w", label, err)
	}
	return buf, nil
}

func (u *Uniform[T]) Label(kind string) string {
	return fmt.Sprintf("UniformBuffer<%s> '%s' %s", ShaderTypeName[T](), u.Name, kind)
}

func (u *Uniform[T]) BindingSource(group, offset uint32) string {
	return fmt.Sprintf("@group(%d) @binding(%d) var<uniform> %s: %s;\n", group, offset, u.Name, ShaderTypeName[T]())
}

func (u *Uniform[T]) OtherSource() (string, bool) {
	return structSource(reflect.TypeFor[T]())
}

func (u *Uniform[T]) LayoutEntries(visibility wgpu.ShaderStage) []wgpu.BindGroupLayoutEntry {
	return []wgpu.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: visibility,
		Buffer: wgpu.BufferBindingLayout{
			Type: wgpu.BufferBindingTypeUniform,
		},
	}}
}

func (u *Uniform[T]) Bind(g *GPU, group uint32, visibility wgpu.ShaderStage) (*Binding, error) {
	return bindBuffer(g, u, u.backing, uniformUsage, group, visibility)
}
