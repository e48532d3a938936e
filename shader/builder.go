package shader

import (
	"fmt"
	"strings"

	"github.com/gekko3d/pbrtracer/gpu"
)

// Builder composes a shader out of units and macro definitions.
//
// Includes form an ordered set: including a unit that is already present does
// nothing. Building consumes the builder and leaves it empty, so a builder is
// compiled at most once.
type Builder struct {
	includes []Unit
	included map[unitKey]bool

	defineKeys []string
	defines    map[string]string

	validate bool
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Include(u Unit) *Builder {
	if b.included == nil {
		b.included = make(map[unitKey]bool)
	}
	k := u.key()
	if b.included[k] {
		return b
	}
	b.included[k] = true
	b.includes = append(b.includes, u)
	return b
}

func (b *Builder) IncludePath(p string) *Builder {
	return b.Include(Path(p))
}

func (b *Builder) IncludeSource(src string) *Builder {
	return b.Include(Source(src))
}

// IncludeBuilder nests other, leaving it empty.
func (b *Builder) IncludeBuilder(other *Builder) *Builder {
	return b.Include(Nested(other))
}

// IncludeBuffer includes the auxiliary declarations of d, if any, followed by d itself.
func (b *Builder) IncludeBuffer(d gpu.Descriptor) *Builder {
	if src, ok := d.OtherSource(); ok {
		b.Include(Source(src))
	}
	return b.Include(Resource(d))
}

// IncludeValue declares a uniform named name initialized with v.
func IncludeValue[T any](b *Builder, name string, v T) *Builder {
	return b.IncludeBuffer(gpu.UniformFromData(name, v))
}

// Define registers a macro. Defining an existing key replaces its value.
func (b *Builder) Define(key, value string) *Builder {
	if b.defines == nil {
		b.defines = make(map[string]string)
	}
	if _, ok := b.defines[key]; !ok {
		b.defineKeys = append(b.defineKeys, key)
	}
	b.defines[key] = value
	return b
}

// Definef is Define with a formatted value.
func (b *Builder) Definef(key, format string, args ...any) *Builder {
	return b.Define(key, fmt.Sprintf(format, args...))
}

// Validated makes Build check the composed source with Validate before the
// shader module is created.
func (b *Builder) Validated(validate bool) *Builder {
	b.validate = validate
	return b
}

func (b *Builder) Len() int {
	return len(b.includes)
}

func (b *Builder) take() *Builder {
	taken := *b
	*b = Builder{}
	return &taken
}

func (b *Builder) serialize(sb *strings.Builder) {
	for _, u := range b.includes {
		u.serialize(sb)
		sb.WriteByte(';')
	}
	sb.WriteByte('|')
	for _, k := range b.defineKeys {
		fmt.Fprintf(sb, "%d:%s=%d:%s;", len(k), k, len(b.defines[k]), b.defines[k])
	}
}
