package pbrtracer

import "fmt"

// RendererTag names the renderer driving the compute pass. Only one can be
// installed per App.
type RendererTag struct {
	Name string
}

// claimRenderer records name as the App's renderer. It reports false when
// the same renderer is already installed and panics when another one is.
func claimRenderer(app *App, name string) bool {
	tag, ok := Resource[RendererTag](app)
	if !ok {
		app.addResources(&RendererTag{Name: name})
		return true
	}
	if tag.Name != name {
		app.Logger().Errorf("Multiple renderers installed: %s and %s", tag.Name, name)
		panic(fmt.Sprintf("Multiple renderers installed: %s and %s", tag.Name, name))
	}
	return false
}
