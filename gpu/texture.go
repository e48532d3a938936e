package gpu

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/cogentcore/webgpu/wgpu"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Texture is a texture together with its default view and an optional sampler.
type Texture struct {
	Texture   *wgpu.Texture
	View      *wgpu.TextureView
	Sampler   *wgpu.Sampler
	Format    wgpu.TextureFormat
	Dimension wgpu.TextureDimension
	Size      wgpu.Extent3D
}

type TextureDescriptor struct {
	Label     string
	Size      wgpu.Extent3D
	Format    wgpu.TextureFormat
	Usage     wgpu.TextureUsage
	Dimension wgpu.TextureDimension
}

// SamplerOptions configures the sampler created alongside a texture.
type SamplerOptions struct {
	AddressMode wgpu.AddressMode
	Filter      wgpu.FilterMode
}

func (d TextureDescriptor) withDefaults() TextureDescriptor {
	if d.Size.DepthOrArrayLayers == 0 {
		d.Size.DepthOrArrayLayers = 1
	}
	return d
}

// CreateTexture creates a texture and its view, plus a sampler when opts is not nil.
func (g *GPU) CreateTexture(desc TextureDescriptor, opts *SamplerOptions) (*Texture, error) {
	desc = desc.withDefaults()

	tex, err := g.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         desc.Label,
		Size:          desc.Size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     desc.Dimension,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't create texture %q: %w", desc.Label, err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("couldn't create view of texture %q: %w", desc.Label, err)
	}

	res := &Texture{
		Texture:   tex,
		View:      view,
		Format:    desc.Format,
		Dimension: desc.Dimension,
		Size:      desc.Size,
	}

	if opts != nil {
		res.Sampler, err = g.CreateSampler(desc.Label+" sampler", desc.Format, *opts)
		if err != nil {
			res.Release()
			return nil, fmt.Errorf("couldn't create sampler of texture %q: %w", desc.Label, err)
		}
	}

	return res, nil
}

// CreateSampler creates a sampler for textures of format. Formats that cannot
// be filtered always get a nearest sampler.
func (g *GPU) CreateSampler(label string, format wgpu.TextureFormat, opts SamplerOptions) (*wgpu.Sampler, error) {
	filter := opts.Filter
	if sampleType(format) != wgpu.TextureSampleTypeFloat {
		filter = wgpu.FilterModeNearest
	}
	return g.Device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  opts.AddressMode,
		AddressModeV:  opts.AddressMode,
		AddressModeW:  opts.AddressMode,
		MagFilter:     filter,
		MinFilter:     filter,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   1,
		Compare:       wgpu.CompareFunctionUndefined,
		MaxAnisotropy: 1,
	})
}

// WriteTexture uploads tightly packed pixels covering the whole texture.
func (g *GPU) WriteTexture(tex *Texture, pixels []byte) error {
	size := tex.Size
	return g.Queue.WriteTexture(
		tex.Texture.AsImageCopy(),
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  size.Width * BytesPerPixel(tex.Format),
			RowsPerImage: size.Height,
		},
		&size,
	)
}

// TextureFromImage uploads img as an rgba8unorm texture sized to the image.
func (g *GPU) TextureFromImage(label string, img image.Image, usage wgpu.TextureUsage, opts *SamplerOptions) (*Texture, error) {
	b := img.Bounds()
	rgba := ImageToRGBA(img, b.Dx(), b.Dy())

	tex, err := g.CreateTexture(TextureDescriptor{
		Label:     label,
		Size:      wgpu.Extent3D{Width: uint32(b.Dx()), Height: uint32(b.Dy()), DepthOrArrayLayers: 1},
		Format:    wgpu.TextureFormatRGBA8Unorm,
		Usage:     usage | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
	}, opts)
	if err != nil {
		return nil, err
	}
	if err := g.WriteTexture(tex, rgba.Pix); err != nil {
		tex.Release()
		return nil, fmt.Errorf("couldn't upload image to texture %q: %w", label, err)
	}
	return tex, nil
}

func (t *Texture) Release() {
	if t.Sampler != nil {
		t.Sampler.Release()
	}
	t.View.Release()
	t.Texture.Release()
}

// LoadImage decodes png, jpeg, bmp, tiff or webp data.
func LoadImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("couldn't decode image: %w", err)
	}
	return img, nil
}

// ImageToRGBA converts img to a tightly packed RGBA image of the given size,
// scaling bilinearly when the sizes differ.
func ImageToRGBA(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	src := img.Bounds()
	if src.Dx() == width && src.Dy() == height {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	}
	return dst
}
