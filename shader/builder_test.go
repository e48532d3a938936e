package shader

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/pbrtracer/assets"
	"github.com/gekko3d/pbrtracer/gpu"
)

type RayParams struct {
	Epsilon float32
	Steps   uint32
}

// fakeBinder records bind calls instead of touching a device.
type fakeBinder struct {
	groups []uint32
	labels []string
	fail   error
}

func (f *fakeBinder) Bind(d gpu.Descriptor, group uint32) (*gpu.Binding, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.groups = append(f.groups, group)
	f.labels = append(f.labels, d.Label(""))
	return &gpu.Binding{Group: group}, nil
}

func build(t *testing.T, b *Builder, a assets.Assets) string {
	t.Helper()
	comp, err := b.BuildSource(&fakeBinder{}, a, 0)
	require.NoError(t, err)
	return comp.Source
}

func TestBuild_IncludeAndDefine(t *testing.T) {
	a := assets.MapOf(map[string]string{
		"/a.wgsl": "#include \"b.wgsl\"\n",
		"/b.wgsl": "#define PI 3.14159\nconst x = PI;",
	})

	src := build(t, NewBuilder().IncludePath("/a.wgsl"), a)

	assert.Contains(t, src, "const x = 3.14159;")
	assert.NotContains(t, src, "#define")
	assert.NotContains(t, src, "#include")
}

func TestBuild_SharedIncludeOnce(t *testing.T) {
	a := assets.MapOf(map[string]string{
		"/util.wgsl":   "fn util() {}\n",
		"/first.wgsl":  "#include \"util.wgsl\"\nfn first() {}\n",
		"/second.wgsl": "#include \"/util.wgsl\"\nfn second() {}\n",
	})

	b := NewBuilder().
		IncludePath("/first.wgsl").
		IncludePath("second.wgsl").
		IncludePath("/util.wgsl")

	src := build(t, b, a)
	assert.Equal(t, 1, strings.Count(src, "fn util()"))
	assert.Less(t, strings.Index(src, "fn util()"), strings.Index(src, "fn first()"))
	assert.Contains(t, src, "fn second()")
}

func TestBuilder_IncludeDeduplicates(t *testing.T) {
	b := NewBuilder().
		IncludeSource("fn a() {}").
		IncludeSource("fn a() {}").
		IncludePath("x.wgsl").
		IncludePath("/x.wgsl")
	assert.Equal(t, 2, b.Len())

	nested1 := NewBuilder().IncludeSource("fn n() {}").Define("K", "V")
	nested2 := NewBuilder().IncludeSource("fn n() {}").Define("K", "V")
	b.IncludeBuilder(nested1).IncludeBuilder(nested2)
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 0, nested1.Len())
}

func TestBuild_SiblingBuildersShareBlacklist(t *testing.T) {
	a := assets.MapOf(map[string]string{"/util.wgsl": "fn util() {}\n"})

	left := NewBuilder().IncludePath("/util.wgsl").IncludeSource("fn left() {}\n")
	right := NewBuilder().IncludePath("/util.wgsl").IncludeSource("fn right() {}\n")

	src := build(t, NewBuilder().IncludeBuilder(left).IncludeBuilder(right), a)
	assert.Equal(t, "fn util() {}\nfn left() {}\nfn right() {}\n", src)
}

func TestBuild_SpliceKeepsOrder(t *testing.T) {
	a := assets.MapOf(map[string]string{
		"/shaders/main.wgsl":       "// head\n#include \"parts/long.wgsl\"\n// middle\n#include \"parts/s.wgsl\"\n// tail\n",
		"/shaders/parts/long.wgsl": "fn long_function_name_to_shift_offsets() {}",
		"/shaders/parts/s.wgsl":    "fn s() {}",
	})

	src := build(t, NewBuilder().IncludePath("/shaders/main.wgsl"), a)
	assert.Equal(t, "// head\nfn long_function_name_to_shift_offsets() {}\n// middle\nfn s() {}\n// tail\n", src)
}

func TestBuild_IncludeRelativeToParent(t *testing.T) {
	a := assets.MapOf(map[string]string{
		"/post/pipeline.wgsl":      "#include \"effects/gamma.wgsl\"\n#include \"../common.wgsl\"",
		"/post/effects/gamma.wgsl": "gamma",
		"/common.wgsl":             "common",
	})

	src := build(t, NewBuilder().IncludePath("/post/pipeline.wgsl"), a)
	assert.Equal(t, "gamma\ncommon", src)
}

func TestBuild_IncludeFromSourceIsRooted(t *testing.T) {
	a := assets.MapOf(map[string]string{"/lib/x.wgsl": "x"})

	src := build(t, NewBuilder().IncludeSource("#include \"lib/x.wgsl\""), a)
	assert.Equal(t, "x", src)
}

func TestBuild_IncludeOnlyAtLineStart(t *testing.T) {
	src := build(t, NewBuilder().IncludeSource("// see #include \"missing.wgsl\"\n"), assets.Map{})
	assert.Equal(t, "// see #include \"missing.wgsl\"\n", src)
}

func TestBuild_DefinesStrippedAndLaterWins(t *testing.T) {
	b := NewBuilder().IncludeSource("#define STEPS 10\nlet a = STEPS;\n#define STEPS 20\nlet b = STEPS;\n")

	src := build(t, b, assets.Map{})
	assert.Equal(t, "\nlet a = 20;\n\nlet b = 20;\n", src)
}

func TestBuild_SourceDefinesOverrideBuilder(t *testing.T) {
	b := NewBuilder().
		Define("SIZE", "1").
		Define("COLOR", "red").
		IncludeSource("#define SIZE 2\nSIZE COLOR")

	assert.Equal(t, "\n2 red", build(t, b, assets.Map{}))
}

func TestBuild_LongestKeyFirst(t *testing.T) {
	b := NewBuilder().
		Define("FOO", "a").
		Define("FOOBAR", "b").
		Define("BAR", "c").
		IncludeSource("FOO FOOBAR BAR")

	assert.Equal(t, "a b c", build(t, b, assets.Map{}))
}

func TestBuild_EqualLengthKeysReverseLexical(t *testing.T) {
	// "BC" sorts before "AB", so "ABC" loses its "AB".
	b := NewBuilder().
		Define("AB", "y").
		Define("BC", "x").
		IncludeSource("ABC")

	assert.Equal(t, "Ax", build(t, b, assets.Map{}))
}

func TestBuild_ConsumesBuilder(t *testing.T) {
	b := NewBuilder().IncludeSource("fn a() {}").Define("A", "B")
	build(t, b, assets.Map{})

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, "", build(t, b, assets.Map{}))
}

func TestBuild_Errors(t *testing.T) {
	a := assets.Map{
		"/bad.wgsl": []byte{0xff, 0xfe},
		"/inc.wgsl": []byte("#include \"nope.wgsl\""),
		"/win.wgsl": []byte("#include \"dir\\x.wgsl\""),
	}

	cases := []struct {
		path string
		kind error
		msg  string
	}{
		{"/missing.wgsl", ErrFileNotFound, "File not found: /missing.wgsl"},
		{"/bad.wgsl", ErrInvalidUTF8, "Invalid UTF8 file: /bad.wgsl"},
		{"/inc.wgsl", ErrFileNotFound, "File not found: /nope.wgsl"},
		{"/win.wgsl", ErrInvalidPath, "Invalid file `dir\\x.wgsl`"},
		{"", ErrInvalidPath, "Invalid file ``"},
	}

	for _, c := range cases {
		_, err := NewBuilder().IncludePath(c.path).BuildSource(&fakeBinder{}, a, 0)
		require.Error(t, err, c.path)
		assert.ErrorIs(t, err, c.kind, c.path)
		assert.EqualError(t, err, c.msg)

		var serr *Error
		assert.True(t, errors.As(err, &serr))
	}
}

func TestBuild_ResourceGroups(t *testing.T) {
	ray := gpu.UniformFromData("ray", RayParams{Epsilon: 0.01, Steps: 32})
	view := gpu.NewUniform[mgl32.Mat4]("view")
	out := gpu.NewStorage[[]mgl32.Vec4]("out", 1024)

	b := NewBuilder().
		IncludeBuffer(ray).
		IncludeBuffer(view).
		IncludeBuffer(ray).
		Include(Resource(out)).
		IncludeSource("fn main() {}\n")

	binder := &fakeBinder{}
	comp, err := b.BuildSource(binder, assets.Map{}, 2)
	require.NoError(t, err)

	assert.Equal(t, []uint32{2, 3, 4}, binder.groups)
	require.Len(t, comp.Bindings, 3)
	for i, binding := range comp.Bindings {
		assert.EqualValues(t, 2+i, binding.Group)
	}

	assert.Contains(t, comp.Source, "struct RayParams {\n\tepsilon: f32,\n\tsteps: u32,\n}\n")
	assert.Contains(t, comp.Source, "@group(2) @binding(0) var<uniform> ray: RayParams;")
	assert.Contains(t, comp.Source, "@group(3) @binding(0) var<uniform> view: mat4x4<f32>;")
	assert.Contains(t, comp.Source, "@group(4) @binding(0) var<storage, read_write> out: array<vec4<f32>>;")
	assert.Equal(t, 1, strings.Count(comp.Source, "var<uniform> ray"))
}

func TestBuild_SameDescriptorInNestedBuilders(t *testing.T) {
	view := gpu.NewUniform[mgl32.Mat4]("view")

	left := NewBuilder().IncludeBuffer(view)
	right := NewBuilder().IncludeBuffer(view)

	binder := &fakeBinder{}
	comp, err := NewBuilder().IncludeBuilder(left).IncludeBuilder(right).BuildSource(binder, assets.Map{}, 0)
	require.NoError(t, err)

	assert.Equal(t, []uint32{0}, binder.groups)
	assert.Equal(t, 1, strings.Count(comp.Source, "var<uniform> view"))
}

func TestBuild_DistinctDescriptorsWithSameContent(t *testing.T) {
	a := gpu.NewUniform[float32]("t")
	b := gpu.NewUniform[float32]("t")

	binder := &fakeBinder{}
	_, err := NewBuilder().IncludeBuffer(a).IncludeBuffer(b).BuildSource(binder, assets.Map{}, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1}, binder.groups)
}

func TestBuild_BindingFailure(t *testing.T) {
	binder := &fakeBinder{fail: errors.New("device lost")}
	_, err := NewBuilder().IncludeBuffer(gpu.NewUniform[float32]("t")).BuildSource(binder, assets.Map{}, 0)

	assert.ErrorIs(t, err, ErrBinding)
	assert.ErrorContains(t, err, "device lost")
}

func TestBuild_DefineAfterResource(t *testing.T) {
	comp, err := NewBuilder().
		IncludeBuffer(gpu.NewUniform[float32]("t")).
		IncludeSource("#define N 3\nconst n = N;\n").
		BuildSource(&fakeBinder{}, assets.Map{}, 0)
	require.NoError(t, err)

	assert.Equal(t, "@group(0) @binding(0) var<uniform> t: f32;\n\nconst n = 3;\n", comp.Source)
	assert.NotContains(t, comp.Source, "#define")
}

func TestIncludeValue(t *testing.T) {
	b := IncludeValue(NewBuilder(), "params", RayParams{Steps: 3})
	assert.Equal(t, 2, b.Len())

	binder := &fakeBinder{}
	comp, err := b.BuildSource(binder, assets.Map{}, 1)
	require.NoError(t, err)
	assert.Contains(t, comp.Source, "@group(1) @binding(0) var<uniform> params: RayParams;")
}
