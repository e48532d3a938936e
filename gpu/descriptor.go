package gpu

import (
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
)

// Descriptor is the declarative side of a GPU resource. It knows the WGSL
// declarations of the resource and how to turn itself into a Binding.
//
// Descriptors are compared by identity when a shader is composed, so they are
// always handled through pointers.
type Descriptor interface {
	// Label names the resource in diagnostics, kind says which native object is labelled.
	Label(kind string) string
	// BindingSource returns the WGSL variable declaration(s) for the resource
	// placed in group, starting at binding slot offset. The source ends with
	// a line break so that a directive can follow it.
	BindingSource(group, offset uint32) string
	// OtherSource returns declarations that must appear once next to the
	// binding, such as the struct layout of a buffer payload.
	OtherSource() (string, bool)
	// LayoutEntries returns the bind group layout entries of the resource, starting at slot 0.
	LayoutEntries(visibility wgpu.ShaderStage) []wgpu.BindGroupLayoutEntry
	// Bind materializes the resource, its bind group layout and its bind group.
	Bind(g *GPU, group uint32, visibility wgpu.ShaderStage) (*Binding, error)
}

// Binding is a descriptor realized on the device for one compiled shader.
type Binding struct {
	Group     uint32
	Layout    *wgpu.BindGroupLayout
	BindGroup *wgpu.BindGroup

	// Exactly one of Buffer and Texture is set.
	Buffer  *wgpu.Buffer
	Texture *Texture

	// owned resources were created by Bind and are released with the binding.
	owned      bool
	ownSampler *wgpu.Sampler
}

func (b *Binding) Release() {
	if b.BindGroup != nil {
		b.BindGroup.Release()
	}
	if b.Layout != nil {
		b.Layout.Release()
	}
	if b.ownSampler != nil {
		b.ownSampler.Release()
	}
	if !b.owned {
		return
	}
	if b.Buffer != nil {
		b.Buffer.Release()
	}
	if b.Texture != nil {
		b.Texture.Release()
	}
}

func bindGroup(g *GPU, d Descriptor, group uint32, visibility wgpu.ShaderStage, entries []wgpu.BindGroupEntry) (*wgpu.BindGroupLayout, *wgpu.BindGroup, error) {
	layout, err := g.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   d.Label("Bind Group Layout"),
		Entries: d.LayoutEntries(visibility),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't create %s: %w", d.Label("Bind Group Layout"), err)
	}

	bg, err := g.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   d.Label("Bind Group"),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		layout.Release()
		return nil, nil, fmt.Errorf("couldn't create %s for group %d: %w", d.Label("Bind Group"), group, err)
	}
	return layout, bg, nil
}

// bufferBacking says where the buffer of a uniform or storage descriptor comes from.
type bufferBacking struct {
	size   uint64
	data   []byte
	buffer *wgpu.Buffer
}

func (b bufferBacking) create(g *GPU, label string, usage wgpu.BufferUsage) (buf *wgpu.Buffer, owned bool, err error) {
	switch {
	case b.buffer != nil:
		return b.buffer, false, nil
	case b.data != nil:
		buf, err = g.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    label,
			Contents: b.data,
			Usage:    usage,
		})
	default:
		if b.size == 0 {
			return nil, false, fmt.Errorf("%s has zero size", label)
		}
		buf, err = g.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label,
			Size:  b.size,
			Usage: usage,
		})
	}
	if err != nil {
		return nil, false, fmt.Errorf("couldn't create %s: %w", label, err)
	}
	return buf, true, nil
}

func bindBuffer(g *GPU, d Descriptor, backing bufferBacking, usage wgpu.BufferUsage, group uint32, visibility wgpu.ShaderStage) (*Binding, error) {
	buf, owned, err := backing.create(g, d.Label("Buffer"), usage)
	if err != nil {
		return nil, err
	}

	layout, bg, err := bindGroup(g, d, group, visibility, []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: buf, Size: wgpu.WholeSize},
	})
	if err != nil {
		if owned {
			buf.Release()
		}
		return nil, err
	}

	return &Binding{
		Group:     group,
		Layout:    layout,
		BindGroup: bg,
		Buffer:    buf,
		owned:     owned,
	}, nil
}

// textureBacking says where the texture of a texture descriptor comes from.
type textureBacking struct {
	texture *Texture
	desc    TextureDescriptor
	label   string
	image   image.Image
}

func (b textureBacking) format() wgpu.TextureFormat {
	switch {
	case b.texture != nil:
		return b.texture.Format
	case b.image != nil:
		return wgpu.TextureFormatRGBA8Unorm
	}
	return b.desc.Format
}

func (b textureBacking) dimension() wgpu.TextureDimension {
	switch {
	case b.texture != nil:
		return b.texture.Dimension
	case b.image != nil:
		return wgpu.TextureDimension2D
	}
	return b.desc.Dimension
}

func (b textureBacking) create(g *GPU, usage wgpu.TextureUsage, opts *SamplerOptions) (tex *Texture, owned bool, err error) {
	switch {
	case b.texture != nil:
		return b.texture, false, nil
	case b.image != nil:
		tex, err = g.TextureFromImage(b.label, b.image, usage, opts)
	default:
		desc := b.desc
		desc.Usage |= usage
		tex, err = g.CreateTexture(desc, opts)
	}
	if err != nil {
		return nil, false, err
	}
	return tex, true, nil
}
