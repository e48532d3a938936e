package pbrtracer

import (
	"github.com/gekko3d/pbrtracer/gpu"
)

// Composite runs after Render so that the compute output of the frame is
// ready when it is sampled.
var Composite = Stage{Name: "Composite", Phase: PhaseRender}

// installRenderPasses wires the frame chain: acquire the surface texture in
// PreRender, let inner passes queue command buffers during Render and
// Composite, then submit and present in PostRender.
func installRenderPasses(app *App) {
	app.UseStage(Composite, AfterStage(Render))

	app.UseSystem(System(prepareRenderPass).InStage(PreRender).RunAlways())
	app.UseSystem(System(finishRenderPass).InStage(PostRender).RunAlways())
}

func prepareRenderPass(cmd *Commands, rt *RenderTarget) {
	rt.releaseFrame()
	rt.acquire(cmd.app.Logger())
}

func finishRenderPass(g *gpu.GPU, rt *RenderTarget) {
	if len(rt.CommandQueue) > 0 {
		g.Queue.Submit(rt.CommandQueue...)
		for _, buf := range rt.CommandQueue {
			buf.Release()
		}
		rt.CommandQueue = rt.CommandQueue[:0]
	}

	if rt.CurrentTexture != nil {
		rt.Surface.Present()
	}
	rt.releaseFrame()
}
