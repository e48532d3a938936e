package pbrtracer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/pbrtracer/gpu"
	"github.com/gekko3d/pbrtracer/shader"
)

// ViewportInfo is the composite shader's `viewport` uniform.
type ViewportInfo struct {
	Size mgl32.Vec2
}

func viewportOf(size ScreenSize) ViewportInfo {
	return ViewportInfo{Size: mgl32.Vec2{float32(size.W), float32(size.H)}}
}

// CompositeRenderer stretches the compute output over the surface.
type CompositeRenderer struct {
	shader   *shader.CompiledShader
	layout   *wgpu.PipelineLayout
	pipeline *wgpu.RenderPipeline
	viewport EntityId
}

func (c *CompositeRenderer) Release() {
	if c.pipeline != nil {
		c.pipeline.Release()
	}
	if c.layout != nil {
		c.layout.Release()
	}
	if c.shader != nil {
		c.shader.Release()
	}
}

// CompositeRendererModule draws the compute output to the window in the
// Composite stage. It needs ComputeRendererModule.
type CompositeRendererModule struct{}

func (CompositeRendererModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[CompositeRenderer](app); ok {
		return
	}
	g := MustResource[gpu.GPU](app)
	rt := MustResource[RenderTarget](app)
	cr := MustResource[ComputeRenderer](app)

	buf, err := gpu.CreateUniformBuffer[ViewportInfo](g, "Viewport")
	if err != nil {
		panic(err)
	}

	compiled, err := compositeBuilder(cr.Output, buf).
		Build(g, "Composite shader", cr.Assets, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, 0)
	if err != nil {
		panic(err)
	}

	c, err := newCompositeRenderer(g, compiled, rt.Format())
	if err != nil {
		compiled.Release()
		panic(err)
	}
	c.viewport = SpawnBuffer(cmd, viewportOf(rt.Size()), buf)
	app.FlushCommands()
	app.addResources(c)

	resized := AddEvent[WindowResizedEvent](app)
	reader := &EventReader[WindowResizedEvent]{}
	app.UseSystem(
		System(func(cmd *Commands, c *CompositeRenderer) {
			size, ok := LatestResize(reader, resized)
			if !ok {
				return
			}
			MakeQuery1[ViewportInfo](cmd).Map(func(eid EntityId, v *ViewportInfo) bool {
				if eid == c.viewport {
					*v = viewportOf(size)
				}
				return true
			})
		}).
			InStage(Update).
			RunAlways(),
	)
	app.UseSystem(
		System(renderComposite).
			InStage(Composite).
			RunAlways(),
	)
}

// compositeBuilder samples output with its own sampler, so the filter is
// the one the compute renderer was configured with.
func compositeBuilder(output *gpu.Texture, viewport *wgpu.Buffer) *shader.Builder {
	return shader.NewBuilder().
		IncludePath("/composite.wgsl").
		IncludeBuffer(gpu.SampledTextureWithBacking("render_texture", "render_sampler", output, gpu.SamplerOptions{})).
		IncludeBuffer(gpu.UniformFromBuffer[ViewportInfo]("viewport", viewport))
}

func newCompositeRenderer(g *gpu.GPU, compiled *shader.CompiledShader, format wgpu.TextureFormat) (*CompositeRenderer, error) {
	layout, err := g.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Composite pipeline layout",
		BindGroupLayouts: compiled.Layouts(),
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't create composite pipeline layout: %w", err)
	}

	pipeline, err := g.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Composite pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     compiled.Module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     compiled.Module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleStrip,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		layout.Release()
		return nil, fmt.Errorf("couldn't create composite pipeline: %w", err)
	}

	return &CompositeRenderer{shader: compiled, layout: layout, pipeline: pipeline}, nil
}

func renderComposite(cmd *Commands, g *gpu.GPU, rt *RenderTarget, c *CompositeRenderer) {
	if !rt.Valid() {
		return
	}
	logger := cmd.app.Logger()

	encoder, err := g.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "Composite encoder"})
	if err != nil {
		logger.Errorf("Couldn't create composite encoder: %v", err)
		return
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Composite pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       rt.CurrentView,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	pass.SetPipeline(c.pipeline)
	c.shader.Apply(pass)
	pass.Draw(4, 1, 0, 0)
	err = pass.End()
	pass.Release()
	if err != nil {
		logger.Errorf("Composite pass failed: %v", err)
		return
	}

	buf, err := encoder.Finish(nil)
	if err != nil {
		logger.Errorf("Couldn't finish composite encoder: %v", err)
		return
	}
	rt.Push(buf)
}
