package shader

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/pbrtracer/assets"
	"github.com/gekko3d/pbrtracer/gpu"
)

func assertObfuscatedName(t *testing.T, name string) {
	t.Helper()
	require.Len(t, name, 16)
	seen := map[rune]bool{}
	for _, r := range name {
		assert.True(t, r < unicode.MaxASCII && unicode.IsLetter(r), name)
		assert.False(t, seen[r], "letters repeat in %s", name)
		seen[r] = true
	}
}

func TestObfuscate_Source(t *testing.T) {
	u := Source("fn effect(c: vec4<f32>) -> vec4<f32> { return c; }\nfn effect_helper() {}")
	name := Obfuscate(&u, "effect")

	assertObfuscatedName(t, name)
	assert.Equal(t, KindSource, u.Kind())

	src := build(t, NewBuilder().Include(u), assets.Map{})
	assert.Contains(t, src, "fn "+name+"(c: vec4<f32>)")
	assert.Contains(t, src, "fn effect_helper()")
}

func TestObfuscate_Path(t *testing.T) {
	a := assets.MapOf(map[string]string{"/gamma.wgsl": "fn effect(c: f32) -> f32 { return c; }"})

	u := Path("/gamma.wgsl")
	name := Obfuscate(&u, "effect")
	assert.Equal(t, KindBuilder, u.Kind())

	src := build(t, NewBuilder().Include(u), a)
	assert.Equal(t, "fn "+name+"(c: f32) -> f32 { return c; }", src)
}

func TestObfuscate_Builder(t *testing.T) {
	u := Nested(NewBuilder().IncludeSource("fn effect() {}\nfn main() { effect(); }"))
	name := Obfuscate(&u, "effect")

	src := build(t, NewBuilder().Include(u), assets.Map{})
	assert.Equal(t, 2, strings.Count(src, name+"("))
	assert.NotContains(t, src, "effect(")
}

func TestObfuscate_TwoInstancesDiffer(t *testing.T) {
	a := assets.MapOf(map[string]string{
		"/gamma.wgsl":    "fn effect() { gamma(); }\n",
		"/vignette.wgsl": "fn effect() { vignette(); }\n",
	})

	first, second := Path("/gamma.wgsl"), Path("/vignette.wgsl")
	n1 := Obfuscate(&first, "effect")
	n2 := Obfuscate(&second, "effect")
	require.NotEqual(t, n1, n2)

	src := build(t, NewBuilder().Include(first).Include(second), a)
	assert.Equal(t, "fn "+n1+"() { gamma(); }\nfn "+n2+"() { vignette(); }\n", src)
}

func TestObfuscate_ResourceUnchanged(t *testing.T) {
	d := gpu.NewUniform[float32]("t")
	u := Resource(d)
	Obfuscate(&u, "effect")

	assert.Equal(t, Resource(d), u)
}
