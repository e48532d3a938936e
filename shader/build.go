package shader

import (
	"maps"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/pbrtracer/assets"
	"github.com/gekko3d/pbrtracer/gpu"
)

var includeDirective = regexp.MustCompile(`(?m)^#include "(.+?)"`)

// Binder materializes resource descriptors met while composing a shader.
type Binder interface {
	Bind(d gpu.Descriptor, group uint32) (*gpu.Binding, error)
}

type deviceBinder struct {
	g          *gpu.GPU
	visibility wgpu.ShaderStage
}

// DeviceBinder binds descriptors on g, visible to the given shader stages.
func DeviceBinder(g *gpu.GPU, visibility wgpu.ShaderStage) Binder {
	return deviceBinder{g: g, visibility: visibility}
}

func (b deviceBinder) Bind(d gpu.Descriptor, group uint32) (*gpu.Binding, error) {
	return d.Bind(b.g, group, b.visibility)
}

type sourceBinder struct{}

// SourceBinder assigns bind groups without touching a device. Compositions
// built with it are only good for their source, e.g. to validate it.
func SourceBinder() Binder {
	return sourceBinder{}
}

func (sourceBinder) Bind(d gpu.Descriptor, group uint32) (*gpu.Binding, error) {
	return &gpu.Binding{Group: group}, nil
}

// Composition is the output of BuildSource: the final WGSL text and the
// bindings of every resource it declares, in group order.
type Composition struct {
	Source   string
	Bindings []*gpu.Binding
}

// state lives for one top-level build. Nested builders share it, so a unit
// resolved anywhere in the tree is never resolved again.
type state struct {
	binder    Binder
	assets    assets.Assets
	blacklist map[unitKey]bool
	group     uint32
	bindings  []*gpu.Binding
}

// BuildSource resolves the builder into WGSL source, binding every resource
// with binder. Resources get consecutive bind groups starting at start, in
// the order they are first met. The builder is left empty.
func (b *Builder) BuildSource(binder Binder, a assets.Assets, start uint32) (*Composition, error) {
	s := &state{
		binder:    binder,
		assets:    a,
		blacklist: make(map[unitKey]bool),
		group:     start,
	}

	src, err := s.build(b.take())
	if err != nil {
		for _, binding := range s.bindings {
			binding.Release()
		}
		return nil, err
	}
	return &Composition{Source: src, Bindings: s.bindings}, nil
}

func (s *state) build(b *Builder) (string, error) {
	var sb strings.Builder
	for _, u := range b.includes {
		src, err := s.resolve(u)
		if err != nil {
			return "", err
		}
		sb.WriteString(src)
	}

	src, found := extractDefines(sb.String())

	defines := make(map[string]string, len(b.defines)+len(found))
	maps.Copy(defines, b.defines)
	for _, d := range found {
		defines[d[0]] = d[1]
	}
	return applyDefines(src, defines), nil
}

func (s *state) resolve(u Unit) (string, error) {
	k := u.key()
	if s.blacklist[k] {
		return "", nil
	}
	s.blacklist[k] = true

	parent := u.parent()
	src, err := s.rawSource(u)
	if err != nil {
		return "", err
	}

	type include struct {
		target     string
		start, end int
	}
	var includes []include
	for _, m := range includeDirective.FindAllStringSubmatchIndex(src, -1) {
		includes = append(includes, include{target: src[m[2]:m[3]], start: m[0], end: m[1]})
	}

	// Splicing changes the length of src, offset shifts the ranges found before.
	offset := 0
	for _, inc := range includes {
		if !validPath(inc.target) {
			return "", &Error{Kind: ErrInvalidPath, Subject: inc.target}
		}

		included, err := s.resolve(Path(joinPath(parent, inc.target)))
		if err != nil {
			return "", err
		}

		start, end := inc.start+offset, inc.end+offset
		src = src[:start] + included + src[end:]
		offset += len(included) - (end - start)
	}

	return src, nil
}

func (s *state) rawSource(u Unit) (string, error) {
	switch u.kind {
	case KindSource:
		return u.text, nil

	case KindPath:
		if !validPath(u.text) {
			return "", &Error{Kind: ErrInvalidPath, Subject: u.text}
		}
		p := rooted(u.text)
		data, ok := s.assets.Get(p)
		if !ok {
			return "", &Error{Kind: ErrFileNotFound, Subject: p}
		}
		if !utf8.Valid(data) {
			return "", &Error{Kind: ErrInvalidUTF8, Subject: p}
		}
		return string(data), nil

	case KindBuilder:
		return s.build(u.builder)

	case KindResource:
		group := s.group
		binding, err := s.binder.Bind(u.res, group)
		if err != nil {
			return "", &Error{Kind: ErrBinding, Subject: u.String(), Err: err}
		}
		s.bindings = append(s.bindings, binding)
		s.group++
		return u.res.BindingSource(group, 0), nil
	}
	panic("unknown shader unit kind " + u.kind.String())
}

func validPath(p string) bool {
	return p != "" && !strings.ContainsAny(p, "\\\x00")
}

// joinPath resolves target against dir. Absolute targets ignore dir.
func joinPath(dir, target string) string {
	if strings.HasPrefix(target, "/") {
		return rooted(target)
	}
	return rooted(path.Join(dir, target))
}
