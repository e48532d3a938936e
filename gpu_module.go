package pbrtracer

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"

	"github.com/gekko3d/pbrtracer/gpu"
)

// GPUModule opens the device on the adapter presenting to the window and
// installs the RenderTarget with its frame chain. It needs WindowModule.
type GPUModule struct {
	// PresentMode is "mailbox", "immediate" or "fifo".
	PresentMode string
}

func (m GPUModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[gpu.GPU](app); ok {
		return
	}
	win, ok := Resource[Window](app)
	if !ok {
		panic("GPUModule requires WindowModule to be installed first")
	}

	preference, err := PresentModePreference(m.PresentMode)
	if err != nil {
		panic(err)
	}

	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(win.handle))

	g, err := gpu.New(instance, surface)
	if err != nil {
		panic(err)
	}

	rt := newRenderTarget(g, surface, win.Size(), preference)
	app.addResources(g, rt)
	uploads(app).Uploader = g

	app.Logger().Infof("Configured surface %dx%d, present mode %v, format %v",
		rt.Config.Width, rt.Config.Height, rt.PresentMode, rt.Config.Format)

	resized := AddEvent[WindowResizedEvent](app)
	reader := &EventReader[WindowResizedEvent]{}
	app.UseSystem(
		System(func(rt *RenderTarget) {
			if size, ok := LatestResize(reader, resized); ok {
				rt.Resize(size)
			}
		}).
			InStage(Update).
			RunAlways(),
	)

	installRenderPasses(app)
}
