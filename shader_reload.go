package pbrtracer

import (
	"path"
	"sync"

	"github.com/gekko3d/pbrtracer/assets"
	"github.com/gekko3d/pbrtracer/gpu"
	"github.com/gekko3d/pbrtracer/shader"
)

// ShaderWatcher buffers the paths reported by the file watcher goroutine
// until the main thread turns them into ShaderChangedEvent.
type ShaderWatcher struct {
	mu      sync.Mutex
	changed []string
	errs    []error
}

func (w *ShaderWatcher) Notify(p string) {
	w.mu.Lock()
	w.changed = append(w.changed, p)
	w.mu.Unlock()
}

func (w *ShaderWatcher) Fail(err error) {
	w.mu.Lock()
	w.errs = append(w.errs, err)
	w.mu.Unlock()
}

func (w *ShaderWatcher) take() ([]string, []error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	changed, errs := w.changed, w.errs
	w.changed, w.errs = nil, nil
	return changed, errs
}

// ShaderReload rebuilds the compute renderer after its sources changed. The
// new source is composed on the main thread, validated on the TaskPool and
// the pipeline is swapped in PreRender, before the next frame encodes.
type ShaderReload struct {
	Validate bool
	Rebuilds int

	compose func() (string, error)
	rebuild func() (string, error)

	stale      bool
	validating bool
	ready      bool
}

// NewShaderReload reloads with compose producing the source to validate and
// rebuild applying it. rebuild returns the name of the new shader.
func NewShaderReload(validate bool, compose func() (string, error), rebuild func() (string, error)) *ShaderReload {
	return &ShaderReload{Validate: validate, compose: compose, rebuild: rebuild}
}

// Changed marks the sources as modified.
func (r *ShaderReload) Changed() {
	r.stale = true
}

// Pending reports whether a change has not been applied yet.
func (r *ShaderReload) Pending() bool {
	return r.stale || r.validating || r.ready
}

// poll starts a validation when sources changed and none is running. Changes
// arriving meanwhile are picked up once it finished.
func (r *ShaderReload) poll(pool *TaskPool, logger Logger) {
	if !r.stale || r.validating {
		return
	}
	r.stale = false

	src, err := r.compose()
	if err != nil {
		logger.Warnf("Couldn't compose reloaded shader: %v", err)
		return
	}
	if !r.Validate {
		r.ready = true
		return
	}

	r.validating = true
	pool.Spawn(func() (any, error) {
		return nil, shader.Validate(src)
	}, func(_ any, err error) {
		r.validating = false
		if err != nil {
			logger.Warnf("Reloaded shader is invalid, keeping the previous one: %v", err)
			return
		}
		r.ready = true
	})
}

func (r *ShaderReload) apply(logger Logger) {
	if !r.ready {
		return
	}
	r.ready = false
	name, err := r.rebuild()
	if err != nil {
		logger.Warnf("Couldn't rebuild shader, keeping the previous one: %v", err)
		return
	}
	r.Rebuilds++
	logger.Infof("Reloaded compute shader %s", name)
}

// ShaderReloadModule watches Dir and hot reloads the compute renderer when a
// WGSL file below it changes. It needs ComputeRendererModule and TaskPoolModule.
type ShaderReloadModule struct {
	Dir      *assets.Dir
	Validate bool
}

func (m ShaderReloadModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[ShaderReload](app); ok {
		return
	}
	g := MustResource[gpu.GPU](app)
	cr := MustResource[ComputeRenderer](app)
	MustResource[TaskPool](app)

	reload := NewShaderReload(m.Validate,
		func() (string, error) {
			comp, err := cr.Builder().BuildSource(shader.SourceBinder(), cr.Assets, 0)
			if err != nil {
				return "", err
			}
			return comp.Source, nil
		},
		func() (string, error) {
			if err := cr.Rebuild(g); err != nil {
				return "", err
			}
			return cr.shader.String(), nil
		},
	)
	watcher := &ShaderWatcher{}
	app.addResources(reload, watcher)
	installShaderReloadSystems(app)

	if err := m.Dir.Watch(watcher.Notify, watcher.Fail); err != nil {
		panic(err)
	}
}

func installShaderReloadSystems(app *App) {
	changed := AddEvent[ShaderChangedEvent](app)
	reader := &EventReader[ShaderChangedEvent]{}

	app.UseSystem(
		System(func(cmd *Commands, w *ShaderWatcher) {
			paths, errs := w.take()
			for _, err := range errs {
				cmd.app.Logger().Warnf("Shader watcher: %v", err)
			}
			for _, p := range paths {
				SendEvent(cmd, ShaderChangedEvent{Path: p})
			}
		}).
			InStage(IterStep).
			RunAlways(),
	)
	app.UseSystem(
		System(func(cmd *Commands, r *ShaderReload, pool *TaskPool) {
			logger := cmd.app.Logger()
			for _, ev := range reader.Read(changed) {
				if path.Ext(ev.Path) != ".wgsl" {
					continue
				}
				logger.Debugf("Shader changed: %s", ev.Path)
				r.Changed()
			}
			r.poll(pool, logger)
		}).
			InStage(Update).
			RunAlways(),
	)
	app.UseSystem(
		System(func(cmd *Commands, r *ShaderReload) {
			r.apply(cmd.app.Logger())
		}).
			InStage(PreRender).
			RunAlways(),
	)
}
