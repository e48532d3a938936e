package gpu

import (
	"fmt"
	"reflect"

	"github.com/cogentcore/webgpu/wgpu"
)

const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc

// Storage describes a storage buffer holding a T. T may be a slice, which
// becomes a runtime-sized WGSL array.
type Storage[T any] struct {
	Name     string
	ReadOnly bool
	backing  bufferBacking
}

// NewStorage describes a new zeroed storage buffer. A zero size means the
// size of T, which is required for slice payloads.
func NewStorage[T any](name string, size uint64) *Storage[T] {
	if size == 0 {
		size = SizeOf[T]()
	}
	return &Storage[T]{Name: name, backing: bufferBacking{size: size}}
}

// StorageFromData describes a storage buffer initialized with v.
func StorageFromData[T any](name string, v T) *Storage[T] {
	return &Storage[T]{Name: name, backing: bufferBacking{data: Bytes(v)}}
}

// StorageFromBuffer describes a storage buffer backed by an existing buffer owned by the caller.
func StorageFromBuffer[T any](name string, buf *wgpu.Buffer) *Storage[T] {
	return &Storage[T]{Name: name, backing: bufferBacking{buffer: buf}}
}

// WithReadOnly sets the access mode and returns s.
func (s *Storage[T]) WithReadOnly(readOnly bool) *Storage[T] {
	s.ReadOnly = readOnly
	return s
}

func (s *Storage[T]) access() string {
	if s.ReadOnly {
		return "read"
	}
	return "read_write"
}

func (s *Storage[T]) Label(kind string) string {
	return fmt.Sprintf("StorageBuffer<%s, %s> '%s' %s", ShaderTypeName[T](), s.access(), s.Name, kind)
}

func (s *Storage[T]) BindingSource(group, offset uint32) string {
	return fmt.Sprintf("@group(%d) @binding(%d) var<storage, %s> %s: %s;\n", group, offset, s.access(), s.Name, ShaderTypeName[T]())
}

func (s *Storage[T]) OtherSource() (string, bool) {
	return structSource(reflect.TypeFor[T]())
}

func (s *Storage[T]) LayoutEntries(visibility wgpu.ShaderStage) []wgpu.BindGroupLayoutEntry {
	typ := wgpu.BufferBindingTypeStorage
	if s.ReadOnly {
		typ = wgpu.BufferBindingTypeReadOnlyStorage
	}
	return []wgpu.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: visibility,
		Buffer: wgpu.BufferBindingLayout{
			Type: typ,
		},
	}}
}

func (s *Storage[T]) Bind(g *GPU, group uint32, visibility wgpu.ShaderStage) (*Binding, error) {
	return bindBuffer(g, s, s.backing, storageUsage, group, visibility)
}
