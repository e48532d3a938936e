package gpu

import (
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
)

// StorageTexture describes a texture the shader reads or writes texel by
// texel, declared as `var Name: texture_storage_2d<format, access>`.
type StorageTexture struct {
	Name    string
	Access  wgpu.StorageTextureAccess
	backing textureBacking
}

// StorageTextureWithBacking describes a storage texture over an existing texture owned by the caller.
func StorageTextureWithBacking(name string, access wgpu.StorageTextureAccess, tex *Texture) *StorageTexture {
	return &StorageTexture{Name: name, Access: access, backing: textureBacking{texture: tex}}
}

// NewStorageTexture describes a new texture created from desc. Storage binding usage is added.
func NewStorageTexture(name string, access wgpu.StorageTextureAccess, desc TextureDescriptor) *StorageTexture {
	return &StorageTexture{Name: name, Access: access, backing: textureBacking{desc: desc}}
}

// StorageTextureFromImage describes an rgba8unorm storage texture initialized from img.
func StorageTextureFromImage(name string, access wgpu.StorageTextureAccess, label string, img image.Image) *StorageTexture {
	return &StorageTexture{Name: name, Access: access, backing: textureBacking{label: label, image: img}}
}

func (s *StorageTexture) Label(kind string) string {
	return fmt.Sprintf("TextureBuffer %q %s", s.Name, kind)
}

func (s *StorageTexture) BindingSource(group, offset uint32) string {
	return fmt.Sprintf("@group(%d) @binding(%d) var %s: texture_storage_%s<%s, %s>;\n",
		group, offset, s.Name,
		DimensionName(s.backing.dimension()),
		FormatName(s.backing.format()),
		AccessName(s.Access),
	)
}

func (s *StorageTexture) OtherSource() (string, bool) {
	return "", false
}

func (s *StorageTexture) LayoutEntries(visibility wgpu.ShaderStage) []wgpu.BindGroupLayoutEntry {
	return []wgpu.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: visibility,
		StorageTexture: wgpu.StorageTextureBindingLayout{
			Access:        s.Access,
			Format:        s.backing.format(),
			ViewDimension: viewDimension(s.backing.dimension()),
		},
	}}
}

func (s *StorageTexture) Bind(g *GPU, group uint32, visibility wgpu.ShaderStage) (*Binding, error) {
	tex, owned, err := s.backing.create(g, wgpu.TextureUsageStorageBinding, nil)
	if err != nil {
		return nil, fmt.Errorf("couldn't create %s: %w", s.Label("Texture"), err)
	}

	layout, bg, err := bindGroup(g, s, group, visibility, []wgpu.BindGroupEntry{
		{Binding: 0, TextureView: tex.View},
	})
	if err != nil {
		if owned {
			tex.Release()
		}
		return nil, err
	}

	return &Binding{
		Group:     group,
		Layout:    layout,
		BindGroup: bg,
		Texture:   tex,
		owned:     owned,
	}, nil
}
