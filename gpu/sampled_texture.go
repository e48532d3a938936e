package gpu

import (
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
)

// SampledTexture describes a texture together with the sampler used to read
// it. The texture takes the first binding slot of its group and the sampler
// the next one.
type SampledTexture struct {
	TextureName string
	SamplerName string
	Sampler     SamplerOptions
	backing     textureBacking
}

// SampledTextureWithBacking describes a sampled texture over an existing texture
// owned by the caller. The texture's own sampler is used when it has one.
func SampledTextureWithBacking(textureName, samplerName string, tex *Texture, opts SamplerOptions) *SampledTexture {
	return &SampledTexture{
		TextureName: textureName,
		SamplerName: samplerName,
		Sampler:     opts,
		backing:     textureBacking{texture: tex},
	}
}

// NewSampledTexture describes a new texture created from desc. Texture binding usage is added.
func NewSampledTexture(textureName, samplerName string, desc TextureDescriptor, opts SamplerOptions) *SampledTexture {
	return &SampledTexture{
		TextureName: textureName,
		SamplerName: samplerName,
		Sampler:     opts,
		backing:     textureBacking{desc: desc},
	}
}

// SampledTextureFromImage describes an rgba8unorm texture initialized from img.
func SampledTextureFromImage(textureName, samplerName, label string, img image.Image, opts SamplerOptions) *SampledTexture {
	return &SampledTexture{
		TextureName: textureName,
		SamplerName: samplerName,
		Sampler:     opts,
		backing:     textureBacking{label: label, image: img},
	}
}

func (s *SampledTexture) Label(kind string) string {
	return fmt.Sprintf("TextureSamplerBuffer \"%s/%s\" %s", s.TextureName, s.SamplerName, kind)
}

func (s *SampledTexture) BindingSource(group, offset uint32) string {
	texture := fmt.Sprintf("@group(%d) @binding(%d) var %s: texture_%s<%s>;",
		group, offset, s.TextureName,
		DimensionName(s.backing.dimension()),
		SampleTypeName(s.backing.format()),
	)
	sampler := fmt.Sprintf("@group(%d) @binding(%d) var %s: sampler;\n", group, offset+1, s.SamplerName)
	return texture + "\n" + sampler
}

func (s *SampledTexture) OtherSource() (string, bool) {
	return "", false
}

func (s *SampledTexture) LayoutEntries(visibility wgpu.ShaderStage) []wgpu.BindGroupLayoutEntry {
	format := s.backing.format()
	sampler := wgpu.SamplerBindingTypeFiltering
	if sampleType(format) != wgpu.TextureSampleTypeFloat {
		sampler = wgpu.SamplerBindingTypeNonFiltering
	}

	return []wgpu.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: visibility,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    sampleType(format),
				ViewDimension: viewDimension(s.backing.dimension()),
				Multisampled:  false,
			},
		},
		{
			Binding:    1,
			Visibility: visibility,
			Sampler: wgpu.SamplerBindingLayout{
				Type: sampler,
			},
		},
	}
}

func (s *SampledTexture) Bind(g *GPU, group uint32, visibility wgpu.ShaderStage) (*Binding, error) {
	tex, owned, err := s.backing.create(g, wgpu.TextureUsageTextureBinding, &s.Sampler)
	if err != nil {
		return nil, fmt.Errorf("couldn't create %s: %w", s.Label("Texture"), err)
	}

	release := func() {
		if owned {
			tex.Release()
		}
	}

	sampler := tex.Sampler
	var ownSampler *wgpu.Sampler
	if sampler == nil {
		sampler, err = g.CreateSampler(s.Label("Sampler"), tex.Format, s.Sampler)
		if err != nil {
			release()
			return nil, fmt.Errorf("couldn't create %s: %w", s.Label("Sampler"), err)
		}
		ownSampler = sampler
	}

	layout, bg, err := bindGroup(g, s, group, visibility, []wgpu.BindGroupEntry{
		{Binding: 0, TextureView: tex.View},
		{Binding: 1, Sampler: sampler},
	})
	if err != nil {
		if ownSampler != nil {
			ownSampler.Release()
		}
		release()
		return nil, err
	}

	return &Binding{
		Group:      group,
		Layout:     layout,
		BindGroup:  bg,
		Texture:    tex,
		owned:      owned,
		ownSampler: ownSampler,
	}, nil
}
