package shader

import (
	"fmt"
	"path"
	"strings"

	"github.com/gekko3d/pbrtracer/gpu"
)

type Kind int

const (
	KindSource Kind = iota
	KindPath
	KindBuilder
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindPath:
		return "path"
	case KindBuilder:
		return "builder"
	case KindResource:
		return "resource"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Unit is one composable piece of a shader: literal source, a path into an
// asset table, a nested builder or a GPU resource declaration.
//
// Two units are the same include when they have the same kind and content.
// Resources are the same only when they are the same descriptor.
type Unit struct {
	kind    Kind
	text    string
	builder *Builder
	res     gpu.Descriptor
}

func Source(src string) Unit {
	return Unit{kind: KindSource, text: src}
}

func Path(p string) Unit {
	return Unit{kind: KindPath, text: p}
}

// Nested wraps the contents of b into a unit, leaving b empty.
func Nested(b *Builder) Unit {
	return Unit{kind: KindBuilder, builder: b.take()}
}

// Resource wraps a descriptor. d should be a pointer, it is compared by identity.
func Resource(d gpu.Descriptor) Unit {
	return Unit{kind: KindResource, res: d}
}

func (u Unit) Kind() Kind {
	return u.kind
}

// String identifies the unit in errors and logs.
func (u Unit) String() string {
	switch u.kind {
	case KindSource:
		src := u.text
		if len(src) > 32 {
			src = src[:32] + "..."
		}
		return fmt.Sprintf("source %q", src)
	case KindPath:
		return u.text
	case KindBuilder:
		return fmt.Sprintf("builder with %d includes", len(u.builder.includes))
	case KindResource:
		return strings.TrimSpace(u.res.Label(""))
	}
	return u.kind.String()
}

// parent is the virtual directory relative includes of the unit resolve against.
func (u Unit) parent() string {
	if u.kind == KindPath {
		return path.Dir(rooted(u.text))
	}
	return "/"
}

type unitKey struct {
	kind Kind
	text string
	res  gpu.Descriptor
}

func (u Unit) key() unitKey {
	switch u.kind {
	case KindBuilder:
		var sb strings.Builder
		u.builder.serialize(&sb)
		return unitKey{kind: u.kind, text: sb.String()}
	case KindResource:
		return unitKey{kind: u.kind, res: u.res}
	case KindPath:
		if validPath(u.text) {
			return unitKey{kind: u.kind, text: rooted(u.text)}
		}
	}
	return unitKey{kind: u.kind, text: u.text}
}

// serialize writes a structural encoding of the unit, lengths prefixed so
// that no two different units encode the same.
func (u Unit) serialize(sb *strings.Builder) {
	switch u.kind {
	case KindBuilder:
		sb.WriteString("B(")
		u.builder.serialize(sb)
		sb.WriteString(")")
	case KindResource:
		fmt.Fprintf(sb, "R(%p)", u.res)
	default:
		fmt.Fprintf(sb, "%d:%d:%s", u.kind, len(u.text), u.text)
	}
}

func rooted(p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Clean("/" + p)
}
