// Package shaders embeds the WGSL sources of the engine's renderers.
package shaders

import (
	"embed"

	"github.com/gekko3d/pbrtracer/assets"
)

//go:embed *.wgsl raymarch/*.wgsl post_processing/*.wgsl
var files embed.FS

// Assets returns the embedded sources rooted at "/", so that
// "/post_processing/gamma.wgsl" is a valid path.
func Assets() assets.Assets {
	a, err := assets.FromFS(files, ".")
	if err != nil {
		panic(err)
	}
	return a
}
