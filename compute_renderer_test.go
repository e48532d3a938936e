package pbrtracer

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/pbrtracer/gpu"
	"github.com/gekko3d/pbrtracer/shader"
	"github.com/gekko3d/pbrtracer/shaders"
)

func headlessOutput() *gpu.Texture {
	return &gpu.Texture{Format: OutputFormat, Dimension: wgpu.TextureDimension2D}
}

func TestComputeRenderer_DispatchSize(t *testing.T) {
	cr := &ComputeRenderer{Workgroup: [2]uint32{16, 16}, Resolution: ScreenSize{W: 1000, H: 500}}
	x, y := cr.DispatchSize()
	assert.Equal(t, uint32(63), x)
	assert.Equal(t, uint32(32), y)

	cr.Resolution = ScreenSize{W: 32, H: 16}
	x, y = cr.DispatchSize()
	assert.Equal(t, uint32(3), x, "exact multiples still get one more workgroup")
	assert.Equal(t, uint32(2), y)
}

func TestFilterModeByName(t *testing.T) {
	f, err := FilterModeByName("")
	require.NoError(t, err)
	assert.Equal(t, wgpu.FilterModeLinear, f)

	f, err = FilterModeByName("Nearest")
	require.NoError(t, err)
	assert.Equal(t, wgpu.FilterModeNearest, f)

	_, err = FilterModeByName("cubic")
	assert.Error(t, err)
}

func TestComputeRenderer_Builder(t *testing.T) {
	cr := &ComputeRenderer{
		Renderer:  DebugRenderer{},
		Workgroup: [2]uint32{8, 4},
		Output:    headlessOutput(),
		Assets:    shaders.Assets(),
	}

	comp, err := cr.Builder().BuildSource(shader.SourceBinder(), cr.Assets, 0)
	require.NoError(t, err)
	src := comp.Source

	require.Len(t, comp.Bindings, 2)
	assert.Contains(t, src, "@workgroup_size(8, 4, 1)")
	assert.Contains(t, src, "struct CameraView {")
	assert.Contains(t, src, "@group(0) @binding(0) var<uniform> camera: CameraView;")
	assert.Contains(t, src, "@group(1) @binding(0) var render_output: texture_storage_2d<rgba16float, write>;")
	assert.Contains(t, src, "fn render_pixel(")
	assert.NotContains(t, src, "#include")
	assert.NotContains(t, src, "WORKGROUP_")

	// Every call composes a fresh builder.
	again, err := cr.Builder().BuildSource(shader.SourceBinder(), cr.Assets, 0)
	require.NoError(t, err)
	assert.Equal(t, src, again.Source)
}

func TestComputeRenderer_PathTracerWithGamma(t *testing.T) {
	renderer, err := RendererByName("pathtracer", true)
	require.NoError(t, err)
	cr := &ComputeRenderer{
		Renderer:  renderer,
		Workgroup: [2]uint32{16, 16},
		Output:    headlessOutput(),
		Assets:    shaders.Assets(),
	}

	comp, err := cr.Builder().BuildSource(shader.SourceBinder(), cr.Assets, 0)
	require.NoError(t, err)
	assert.Contains(t, comp.Source, "color = post_processing_pipeline(coord, color);")
	assert.Equal(t, 1, strings.Count(comp.Source, "fn camera_ray("), "shared includes are resolved once")
}

func TestCompositeBuilder(t *testing.T) {
	comp, err := compositeBuilder(headlessOutput(), nil).BuildSource(shader.SourceBinder(), shaders.Assets(), 0)
	require.NoError(t, err)

	src := comp.Source
	assert.Contains(t, src, "@group(0) @binding(0) var render_texture: texture_2d<f32>;")
	assert.Contains(t, src, "@group(0) @binding(1) var render_sampler: sampler;")
	assert.Contains(t, src, "@group(1) @binding(0) var<uniform> viewport: ViewportInfo;")
	assert.Contains(t, src, "fn vs_main(")
	assert.Contains(t, src, "fn fs_main(")
}

func TestShippedShadersValidate(t *testing.T) {
	renderers := map[string]Renderer{
		"pathtracer":       PathTracer{},
		"pathtracer+gamma": PathTracer{PostProcessing: NewPostProcessingPipeline(GammaCorrection{})},
		"debug":            DebugRenderer{},
	}
	for name, renderer := range renderers {
		t.Run(name, func(t *testing.T) {
			cr := &ComputeRenderer{
				Renderer:  renderer,
				Workgroup: [2]uint32{16, 16},
				Output:    headlessOutput(),
				Assets:    shaders.Assets(),
			}
			comp, err := cr.Builder().BuildSource(shader.SourceBinder(), cr.Assets, 0)
			require.NoError(t, err)
			assert.NoError(t, shader.Validate(comp.Source))
		})
	}

	t.Run("composite", func(t *testing.T) {
		comp, err := compositeBuilder(headlessOutput(), nil).BuildSource(shader.SourceBinder(), shaders.Assets(), 0)
		require.NoError(t, err)
		assert.NoError(t, shader.Validate(comp.Source))
	})
}

func TestClaimRenderer(t *testing.T) {
	app := NewAppBuilder().Build()

	assert.True(t, claimRenderer(app, "pathtracer"))
	assert.False(t, claimRenderer(app, "pathtracer"), "the same renderer is already installed")
	assert.PanicsWithValue(t, "Multiple renderers installed: pathtracer and debug", func() {
		claimRenderer(app, "debug")
	})
}
