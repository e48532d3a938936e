package gpu

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-gl/mathgl/mgl32"
)

// ShaderTyper lets a Go type override the WGSL type name derived by reflection.
type ShaderTyper interface {
	ShaderType() string
}

var (
	typeVec2 = reflect.TypeOf(mgl32.Vec2{})
	typeVec3 = reflect.TypeOf(mgl32.Vec3{})
	typeVec4 = reflect.TypeOf(mgl32.Vec4{})
	typeMat2 = reflect.TypeOf(mgl32.Mat2{})
	typeMat3 = reflect.TypeOf(mgl32.Mat3{})
	typeMat4 = reflect.TypeOf(mgl32.Mat4{})

	typeShaderTyper = reflect.TypeOf((*ShaderTyper)(nil)).Elem()
)

// layout is the WGSL host-shareable alignment and size of a type.
type layout struct {
	align uint64
	size  uint64
}

func roundUp(align, n uint64) uint64 {
	if align == 0 {
		return n
	}
	return (n + align - 1) / align * align
}

func customShaderType(t reflect.Type) (string, bool) {
	if t.Implements(typeShaderTyper) {
		return reflect.Zero(t).Interface().(ShaderTyper).ShaderType(), true
	}
	if reflect.PointerTo(t).Implements(typeShaderTyper) {
		return reflect.New(t).Interface().(ShaderTyper).ShaderType(), true
	}
	return "", false
}

// ShaderTypeOf returns the WGSL type name of t. Go bools map to u32.
func ShaderTypeOf(t reflect.Type) (string, error) {
	if name, ok := customShaderType(t); ok {
		return name, nil
	}

	switch t {
	case typeVec2:
		return "vec2<f32>", nil
	case typeVec3:
		return "vec3<f32>", nil
	case typeVec4:
		return "vec4<f32>", nil
	case typeMat2:
		return "mat2x2<f32>", nil
	case typeMat3:
		return "mat3x3<f32>", nil
	case typeMat4:
		return "mat4x4<f32>", nil
	}

	switch t.Kind() {
	case reflect.Int32:
		return "i32", nil
	case reflect.Bool, reflect.Uint32:
		// WGSL bool is not host-shareable, buffers carry it as 0 or 1.
		return "u32", nil
	case reflect.Float32:
		return "f32", nil
	case reflect.Array:
		elem, err := ShaderTypeOf(t.Elem())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("array<%s,%d>", elem, t.Len()), nil
	case reflect.Slice:
		elem, err := ShaderTypeOf(t.Elem())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("array<%s>", elem), nil
	case reflect.Struct:
		if t.Name() == "" {
			return "", fmt.Errorf("anonymous struct %s has no shader type name", t)
		}
		return t.Name(), nil
	}
	return "", fmt.Errorf("type %s has no shader type", t)
}

// ShaderTypeName is ShaderTypeOf for a type parameter; it panics on unmapped types.
func ShaderTypeName[T any]() string {
	name, err := ShaderTypeOf(reflect.TypeFor[T]())
	if err != nil {
		panic(err)
	}
	return name
}

func layoutOf(t reflect.Type) (layout, error) {
	switch t {
	case typeVec2:
		return layout{8, 8}, nil
	case typeVec3:
		return layout{16, 12}, nil
	case typeVec4:
		return layout{16, 16}, nil
	case typeMat2:
		return layout{8, 16}, nil
	case typeMat3:
		return layout{16, 48}, nil
	case typeMat4:
		return layout{16, 64}, nil
	}

	switch t.Kind() {
	case reflect.Bool, reflect.Int32, reflect.Uint32, reflect.Float32:
		return layout{4, 4}, nil
	case reflect.Array:
		elem, err := layoutOf(t.Elem())
		if err != nil {
			return layout{}, err
		}
		return layout{elem.align, uint64(t.Len()) * roundUp(elem.align, elem.size)}, nil
	case reflect.Slice:
		elem, err := layoutOf(t.Elem())
		if err != nil {
			return layout{}, err
		}
		return layout{elem.align, 0}, nil
	case reflect.Struct:
		var offset, align uint64 = 0, 1
		for i := 0; i < t.NumField(); i++ {
			f, err := layoutOf(t.Field(i).Type)
			if err != nil {
				return layout{}, err
			}
			offset = roundUp(f.align, offset) + f.size
			align = max(align, f.align)
		}
		return layout{align, roundUp(align, offset)}, nil
	}
	return layout{}, fmt.Errorf("type %s is not host-shareable", t)
}

// SizeOf returns the WGSL size of T. Runtime-sized arrays contribute zero.
func SizeOf[T any]() uint64 {
	l, err := layoutOf(reflect.TypeFor[T]())
	if err != nil {
		panic(err)
	}
	return l.size
}

// fieldName converts an exported Go field name to snake case unless a wgsl tag overrides it.
func fieldName(f reflect.StructField) string {
	if tag := f.Tag.Get("wgsl"); tag != "" {
		return tag
	}

	var sb strings.Builder
	runes := []rune(f.Name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower && unicode.IsUpper(runes[i-1]) {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// StructDefinition returns the WGSL declaration of struct type t, preceded by
// the declarations of every struct it depends on. Every declaration ends with
// a line break.
func StructDefinition(t reflect.Type) (string, error) {
	var defs []string
	if err := collectStructs(t, map[reflect.Type]bool{}, &defs); err != nil {
		return "", err
	}
	return strings.Join(defs, ""), nil
}

func collectStructs(t reflect.Type, seen map[reflect.Type]bool, defs *[]string) error {
	for t.Kind() == reflect.Array || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || seen[t] {
		return nil
	}
	if _, ok := customShaderType(t); ok {
		return nil
	}
	seen[t] = true

	var sb strings.Builder
	fmt.Fprintf(&sb, "struct %s {\n", t.Name())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if err := collectStructs(f.Type, seen, defs); err != nil {
			return err
		}
		typ, err := ShaderTypeOf(f.Type)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", t.Name(), f.Name, err)
		}
		fmt.Fprintf(&sb, "\t%s: %s,\n", fieldName(f), typ)
	}
	sb.WriteString("}\n")

	*defs = append(*defs, sb.String())
	return nil
}

// structSource returns the auxiliary source for a buffer payload type.
func structSource(t reflect.Type) (string, bool) {
	def, err := StructDefinition(t)
	if err != nil {
		panic(err)
	}
	return def, def != ""
}
