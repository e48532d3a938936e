package pbrtracer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gekko3d/pbrtracer/shader"
)

// RenderFragment is a piece of WGSL composed into a renderer's shader.
type RenderFragment interface {
	Shader() shader.Unit
}

// Renderer is a fragment defining
//
//	fn render_pixel(coord: vec2<f32>) -> vec4<f32>
//
// called once per pixel of the compute output.
type Renderer interface {
	RenderFragment
	Name() string
}

// PostProcessingEffect is a fragment defining
//
//	fn post_processing_effect(coord: vec2<f32>, color: vec4<f32>) -> vec4<f32>
type PostProcessingEffect interface {
	RenderFragment
	EffectName() string
}

// PostProcessingPipeline chains effects into
//
//	fn post_processing_pipeline(coord: vec2<f32>, color: vec4<f32>) -> vec4<f32>
//
// Each effect's entry point is renamed so that any number of them fit in one
// module. An effect runs at most once: adding one whose EffectName is already
// present does nothing.
type PostProcessingPipeline struct {
	effects []PostProcessingEffect
}

func NewPostProcessingPipeline(effects ...PostProcessingEffect) *PostProcessingPipeline {
	p := &PostProcessingPipeline{}
	for _, effect := range effects {
		p.With(effect)
	}
	return p
}

func (p *PostProcessingPipeline) With(effect PostProcessingEffect) *PostProcessingPipeline {
	name := effect.EffectName()
	if slices.ContainsFunc(p.effects, func(e PostProcessingEffect) bool { return e.EffectName() == name }) {
		return p
	}
	p.effects = append(p.effects, effect)
	return p
}

func (p *PostProcessingPipeline) Effects() []PostProcessingEffect {
	return p.effects
}

func (p *PostProcessingPipeline) Shader() shader.Unit {
	builder := shader.NewBuilder().IncludePath("/post_processing/pipeline.wgsl")

	var calls strings.Builder
	for _, effect := range p.effects {
		unit := effect.Shader()
		name := shader.Obfuscate(&unit, "post_processing_effect")
		fmt.Fprintf(&calls, "color = %s(coord, color);\n", name)
		builder.Include(unit)
	}
	builder.Define("CALL_EFFECTS", calls.String())

	return shader.Nested(builder)
}

// GammaCorrection raises the color to 1/2.2.
type GammaCorrection struct{}

func (GammaCorrection) Shader() shader.Unit {
	return shader.Path("/post_processing/gamma.wgsl")
}

func (GammaCorrection) EffectName() string {
	return "gamma"
}

// PathTracer is a physically based path tracer over the raymarched scene,
// optionally followed by a post processing pipeline.
type PathTracer struct {
	PostProcessing *PostProcessingPipeline
}

func (PathTracer) Name() string {
	return "pathtracer"
}

func (r PathTracer) Shader() shader.Unit {
	builder := shader.NewBuilder().
		IncludePath("/pathtracer.wgsl").
		IncludePath("/raymarch/raymarch.wgsl")

	if r.PostProcessing != nil {
		builder.
			Include(r.PostProcessing.Shader()).
			Define("CALL_POST_PROCESSING_PIPELINE", "color = post_processing_pipeline(coord, color);")
	} else {
		builder.Define("CALL_POST_PROCESSING_PIPELINE", "")
	}

	return shader.Nested(builder)
}

// DebugRenderer shades hits by their normal.
type DebugRenderer struct{}

func (DebugRenderer) Name() string {
	return "debug"
}

func (DebugRenderer) Shader() shader.Unit {
	return shader.Path("/debug.wgsl")
}

// RendererByName returns the renderer configured by name. With gamma, the
// path tracer output goes through GammaCorrection.
func RendererByName(name string, gamma bool) (Renderer, error) {
	switch strings.ToLower(name) {
	case "", "pathtracer":
		r := PathTracer{}
		if gamma {
			r.PostProcessing = NewPostProcessingPipeline(GammaCorrection{})
		}
		return r, nil
	case "debug":
		return DebugRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown renderer %q", name)
}
