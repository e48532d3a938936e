package pbrtracer

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/pbrtracer/assets"
	"github.com/gekko3d/pbrtracer/gpu"
	"github.com/gekko3d/pbrtracer/shader"
	"github.com/gekko3d/pbrtracer/shaders"
)

// OutputFormat is the format of the compute renderer's output texture.
const OutputFormat = wgpu.TextureFormatRGBA16Float

// ComputeRenderer runs a Renderer fragment once per pixel of Resolution and
// stores the result in Output, which the composite pass samples.
type ComputeRenderer struct {
	Renderer   Renderer
	Workgroup  [2]uint32
	Resolution ScreenSize
	Output     *gpu.Texture
	Assets     assets.Assets
	// Validate checks the composed source with naga before each build.
	Validate bool

	camera   *wgpu.Buffer
	shader   *shader.CompiledShader
	layout   *wgpu.PipelineLayout
	pipeline *wgpu.ComputePipeline
}

// FilterModeByName parses "linear" or "nearest". The empty name is linear.
func FilterModeByName(name string) (wgpu.FilterMode, error) {
	switch strings.ToLower(name) {
	case "", "linear":
		return wgpu.FilterModeLinear, nil
	case "nearest":
		return wgpu.FilterModeNearest, nil
	}
	return wgpu.FilterModeLinear, fmt.Errorf("unknown filter %q", name)
}

// Builder composes the full compute shader. Every call returns a fresh
// builder, since building consumes it.
func (cr *ComputeRenderer) Builder() *shader.Builder {
	return shader.NewBuilder().
		IncludePath("/compute.wgsl").
		Include(cr.Renderer.Shader()).
		Definef("WORKGROUP_X", "%d", cr.Workgroup[0]).
		Definef("WORKGROUP_Y", "%d", cr.Workgroup[1]).
		IncludeBuffer(gpu.UniformFromBuffer[CameraView]("camera", cr.camera)).
		IncludeBuffer(gpu.StorageTextureWithBacking("render_output", wgpu.StorageTextureAccessWriteOnly, cr.Output))
}

// DispatchSize is the number of workgroups covering the resolution. It
// rounds up by always adding one; out of range invocations return early.
func (cr *ComputeRenderer) DispatchSize() (uint32, uint32) {
	return cr.Resolution.W/cr.Workgroup[0] + 1, cr.Resolution.H/cr.Workgroup[1] + 1
}

// Rebuild compiles the shader again, e.g. after its sources changed on disk.
// On failure the previous pipeline is kept.
func (cr *ComputeRenderer) Rebuild(g *gpu.GPU) error {
	compiled, err := cr.Builder().
		Validated(cr.Validate).
		Build(g, "Compute shader", cr.Assets, wgpu.ShaderStageCompute, 0)
	if err != nil {
		return err
	}

	layout, err := g.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Compute pipeline layout",
		BindGroupLayouts: compiled.Layouts(),
	})
	if err != nil {
		compiled.Release()
		return fmt.Errorf("couldn't create compute pipeline layout: %w", err)
	}

	pipeline, err := g.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "Compute pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     compiled.Module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		layout.Release()
		compiled.Release()
		return fmt.Errorf("couldn't create compute pipeline: %w", err)
	}

	cr.releasePipeline()
	cr.shader = compiled
	cr.layout = layout
	cr.pipeline = pipeline
	return nil
}

func (cr *ComputeRenderer) releasePipeline() {
	if cr.pipeline != nil {
		cr.pipeline.Release()
		cr.pipeline = nil
	}
	if cr.layout != nil {
		cr.layout.Release()
		cr.layout = nil
	}
	if cr.shader != nil {
		cr.shader.Release()
		cr.shader = nil
	}
}

func (cr *ComputeRenderer) Release() {
	cr.releasePipeline()
	if cr.Output != nil {
		cr.Output.Release()
	}
}

// ComputeRendererModule renders the scene into an offscreen texture of the
// RenderResolution. It needs CameraViewModule.
type ComputeRendererModule struct {
	Renderer  Renderer
	Workgroup [2]uint32
	// Filter is "linear" or "nearest", used when sampling the output.
	Filter string
	// Assets defaults to the embedded shaders.
	Assets assets.Assets
	// Validate checks the shader with naga before handing it to the driver.
	Validate bool
}

func (m ComputeRendererModule) Install(app *App, cmd *Commands) {
	renderer := m.Renderer
	if renderer == nil {
		renderer = PathTracer{}
	}
	if !claimRenderer(app, renderer.Name()) {
		return
	}

	workgroup := m.Workgroup
	if workgroup[0] == 0 || workgroup[1] == 0 {
		workgroup = [2]uint32{16, 16}
	}
	filter, err := FilterModeByName(m.Filter)
	if err != nil {
		panic(err)
	}
	a := m.Assets
	if a == nil {
		a = shaders.Assets()
	}

	g := MustResource[gpu.GPU](app)
	res := MustResource[RenderResolution](app)
	camera := MustResource[CameraViewBuffer](app)

	output, err := g.CreateTexture(gpu.TextureDescriptor{
		Label:     "Render output",
		Size:      wgpu.Extent3D{Width: res.Size.W, Height: res.Size.H, DepthOrArrayLayers: 1},
		Format:    OutputFormat,
		Usage:     wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
		Dimension: wgpu.TextureDimension2D,
	}, &gpu.SamplerOptions{AddressMode: wgpu.AddressModeClampToEdge, Filter: filter})
	if err != nil {
		panic(err)
	}

	cr := &ComputeRenderer{
		Renderer:   renderer,
		Workgroup:  workgroup,
		Resolution: res.Size,
		Output:     output,
		Assets:     a,
		Validate:   m.Validate,
		camera:     camera.Buffer,
	}
	if err := cr.Rebuild(g); err != nil {
		panic(err)
	}
	app.Logger().Debugf("Built %s renderer as %s with %d bindings in %v",
		renderer.Name(), cr.shader, len(cr.shader.Bindings), cr.shader.Elapsed)

	app.addResources(cr)
	app.UseSystem(
		System(renderCompute).
			InStage(Render).
			RunAlways(),
	)
}

func renderCompute(cmd *Commands, g *gpu.GPU, rt *RenderTarget, cr *ComputeRenderer) {
	if !rt.Valid() || cr.pipeline == nil {
		return
	}
	logger := cmd.app.Logger()

	encoder, err := g.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "Compute encoder"})
	if err != nil {
		logger.Errorf("Couldn't create compute encoder: %v", err)
		return
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: "Compute pass"})
	pass.SetPipeline(cr.pipeline)
	cr.shader.Apply(pass)
	x, y := cr.DispatchSize()
	pass.DispatchWorkgroups(x, y, 1)
	err = pass.End()
	pass.Release()
	if err != nil {
		logger.Errorf("Compute pass failed: %v", err)
		return
	}

	buf, err := encoder.Finish(nil)
	if err != nil {
		logger.Errorf("Couldn't finish compute encoder: %v", err)
		return
	}
	rt.Push(buf)
}
