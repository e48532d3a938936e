package pbrtracer

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/pbrtracer/shader"
	"github.com/gekko3d/pbrtracer/shaders"
)

type invertEffect struct{}

func (invertEffect) Shader() shader.Unit {
	return shader.Source("fn post_processing_effect(coord: vec2<f32>, color: vec4<f32>) -> vec4<f32> {\n\treturn vec4<f32>(1.0 - color.rgb, color.a);\n}\n")
}

func (invertEffect) EffectName() string {
	return "invert"
}

func compose(t *testing.T, u shader.Unit) string {
	t.Helper()
	comp, err := shader.NewBuilder().Include(u).BuildSource(shader.SourceBinder(), shaders.Assets(), 0)
	require.NoError(t, err)
	return comp.Source
}

var effectCall = regexp.MustCompile(`color = ([a-zA-Z]{16})\(coord, color\);`)

func TestPostProcessingPipeline_Shader(t *testing.T) {
	pipeline := NewPostProcessingPipeline(GammaCorrection{}).With(invertEffect{})
	require.Len(t, pipeline.Effects(), 2)

	src := compose(t, pipeline.Shader())

	assert.Contains(t, src, "fn post_processing_pipeline(")
	assert.NotContains(t, src, "CALL_EFFECTS")
	assert.NotContains(t, src, "fn post_processing_effect(", "every effect entry point is renamed")
	assert.NotContains(t, src, "#define")
	assert.Contains(t, src, "1.0 / 2.2")

	calls := effectCall.FindAllStringSubmatch(src, -1)
	require.Len(t, calls, 2)
	assert.NotEqual(t, calls[0][1], calls[1][1])
	for _, call := range calls {
		assert.Contains(t, src, "fn "+call[1]+"(coord: vec2<f32>")
	}
	// Effects run in registration order: gamma first.
	gamma := strings.Index(src, "pow(color.rgb")
	first := strings.Index(src, "fn "+calls[0][1]+"(")
	assert.Less(t, first, gamma)
}

func TestPostProcessingPipeline_DuplicateEffect(t *testing.T) {
	pipeline := NewPostProcessingPipeline(GammaCorrection{}, GammaCorrection{}).With(GammaCorrection{})
	require.Len(t, pipeline.Effects(), 1)

	src := compose(t, pipeline.Shader())
	calls := effectCall.FindAllStringSubmatch(src, -1)
	require.Len(t, calls, 1)
	assert.Contains(t, src, "fn "+calls[0][1]+"(coord: vec2<f32>")
}

func TestPostProcessingPipeline_Empty(t *testing.T) {
	src := compose(t, NewPostProcessingPipeline().Shader())

	assert.Contains(t, src, "fn post_processing_pipeline(")
	assert.NotContains(t, src, "CALL_EFFECTS")
	assert.Empty(t, effectCall.FindAllString(src, -1))
}

func TestPathTracer_Shader(t *testing.T) {
	plain := compose(t, PathTracer{}.Shader())
	assert.Contains(t, plain, "fn render_pixel(")
	assert.NotContains(t, plain, "CALL_POST_PROCESSING_PIPELINE")
	assert.NotContains(t, plain, "post_processing_pipeline(")

	withGamma := compose(t, PathTracer{PostProcessing: NewPostProcessingPipeline(GammaCorrection{})}.Shader())
	assert.Contains(t, withGamma, "color = post_processing_pipeline(coord, color);")
	assert.Contains(t, withGamma, "fn post_processing_pipeline(")
}

func TestRendererByName(t *testing.T) {
	r, err := RendererByName("", false)
	require.NoError(t, err)
	assert.Equal(t, "pathtracer", r.Name())
	assert.Nil(t, r.(PathTracer).PostProcessing)

	r, err = RendererByName("PathTracer", true)
	require.NoError(t, err)
	require.NotNil(t, r.(PathTracer).PostProcessing)
	assert.Len(t, r.(PathTracer).PostProcessing.Effects(), 1)

	r, err = RendererByName("debug", true)
	require.NoError(t, err)
	assert.Equal(t, DebugRenderer{}, r)

	_, err = RendererByName("raster", false)
	assert.EqualError(t, err, `unknown renderer "raster"`)
}
