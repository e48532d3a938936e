package main

import (
	"flag"
	"log"
	"runtime"
	"time"

	"github.com/gekko3d/pbrtracer"
	"github.com/gekko3d/pbrtracer/assets"
	"github.com/gekko3d/pbrtracer/gpu"
	"github.com/gekko3d/pbrtracer/shaders"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "pbrtracer.toml", "Path of the TOML config file")
	width := flag.Int("width", 0, "Window width")
	height := flag.Int("height", 0, "Window height")
	ups := flag.Float64("ups", 0, "Target updates per second")
	fps := flag.Float64("fps", 0, "Target frames per second, 0 for uncapped")
	debug := flag.Bool("debug", false, "Enable debug logging")
	shaderDir := flag.String("shaders", "", "Load shaders from this directory and reload them on change")
	flag.Parse()

	cfg, err := pbrtracer.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Window.Width = *width
		case "height":
			cfg.Window.Height = *height
		case "ups":
			cfg.Loop.TargetUPS = *ups
		case "fps":
			cfg.Loop.TargetFPS = *fps
		case "debug":
			cfg.Logging.Debug = *debug
		case "shaders":
			cfg.Shaders.WatchDir = *shaderDir
		}
	})
	if err := cfg.ExpandPaths(); err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	renderer, err := pbrtracer.RendererByName(cfg.Render.Renderer, cfg.Render.Gamma)
	if err != nil {
		log.Fatal(err)
	}

	var shaderAssets assets.Assets = shaders.Assets()
	var dir *assets.Dir
	if cfg.Shaders.WatchDir != "" {
		dir, err = assets.NewDir(cfg.Shaders.WatchDir)
		if err != nil {
			log.Fatal(err)
		}
		defer dir.Close()
		shaderAssets = assets.Overlay{dir, shaderAssets}
	}

	modules := []pbrtracer.Module{
		pbrtracer.LoggingModule{Prefix: cfg.Logging.Prefix, Debug: cfg.Logging.Debug},
		pbrtracer.GameloopModule{
			TargetUPS:              cfg.Loop.TargetUPS,
			TargetFPS:              cfg.Loop.TargetFPS,
			MaxUpdatesPerIteration: cfg.Loop.MaxUpdatesPerIteration,
		},
		pbrtracer.EventsModule{},
		pbrtracer.WindowModule{Title: cfg.Window.Title, Width: cfg.Window.Width, Height: cfg.Window.Height},
		pbrtracer.InputModule{},
		pbrtracer.GPUModule{PresentMode: cfg.Render.PresentMode},
		pbrtracer.PauseModule{},
		pbrtracer.CameraModule{},
		pbrtracer.CameraPresetModule{Path: cfg.Camera.PresetPath},
		pbrtracer.CameraViewModule{
			Resolution: pbrtracer.ScreenSize{W: cfg.Render.ResolutionWidth, H: cfg.Render.ResolutionHeight},
		},
		pbrtracer.ComputeRendererModule{
			Renderer:  renderer,
			Workgroup: [2]uint32{cfg.Render.WorkgroupX, cfg.Render.WorkgroupY},
			Filter:    cfg.Render.Filter,
			Assets:    shaderAssets,
			Validate:  cfg.Shaders.Validate,
		},
		pbrtracer.CompositeRendererModule{},
		pbrtracer.TaskPoolModule{Workers: cfg.Tasks.Workers},
	}
	if dir != nil {
		modules = append(modules, pbrtracer.ShaderReloadModule{Dir: dir, Validate: cfg.Shaders.Validate})
	}
	if cfg.Logging.StatsInterval > 0 {
		modules = append(modules, pbrtracer.ProfilerModule{
			Interval: time.Duration(cfg.Logging.StatsInterval * float64(time.Second)),
		})
	}

	app := pbrtracer.NewAppBuilder().
		UseStates(pbrtracer.StateRunning, pbrtracer.StateQuit).
		UseModule(modules...).
		Build()
	app.Run()

	release(app)
}

func release(app *pbrtracer.App) {
	if c, ok := pbrtracer.Resource[pbrtracer.CompositeRenderer](app); ok {
		c.Release()
	}
	if cr, ok := pbrtracer.Resource[pbrtracer.ComputeRenderer](app); ok {
		cr.Release()
	}
	if rt, ok := pbrtracer.Resource[pbrtracer.RenderTarget](app); ok {
		rt.Release()
	}
	if g, ok := pbrtracer.Resource[gpu.GPU](app); ok {
		g.Release()
	}
}
