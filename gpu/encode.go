package gpu

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
)

// Bytes encodes v using the WGSL host-shareable memory layout, inserting the
// padding WGSL expects between struct members and array elements.
func Bytes(v any) []byte {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Pointer {
		val = val.Elem()
	}
	buf := new(bytes.Buffer)
	writeValue(val, buf)
	return buf.Bytes()
}

func pad(buf *bytes.Buffer, n uint64) {
	for i := uint64(0); i < n; i++ {
		buf.WriteByte(0)
	}
}

func writeFloats(buf *bytes.Buffer, f []float32) {
	for _, x := range f {
		binary.Write(buf, binary.LittleEndian, math.Float32bits(x))
	}
}

func floatsOf(arr reflect.Value) []float32 {
	f := make([]float32, arr.Len())
	for i := range f {
		f[i] = float32(arr.Index(i).Float())
	}
	return f
}

// writeColumns writes a square column-major matrix with each column padded to its vector alignment.
func writeColumns(buf *bytes.Buffer, m []float32, n int) {
	colAlign := uint64(8)
	if n > 2 {
		colAlign = 16
	}
	for c := 0; c < n; c++ {
		writeFloats(buf, m[c*n:(c+1)*n])
		pad(buf, roundUp(colAlign, uint64(n)*4)-uint64(n)*4)
	}
}

func writeValue(field reflect.Value, buf *bytes.Buffer) {
	switch field.Type() {
	case typeVec2, typeVec3, typeVec4:
		writeFloats(buf, floatsOf(field))
		return
	case typeMat2:
		writeColumns(buf, floatsOf(field), 2)
		return
	case typeMat3:
		writeColumns(buf, floatsOf(field), 3)
		return
	case typeMat4:
		writeColumns(buf, floatsOf(field), 4)
		return
	}

	switch field.Kind() {
	case reflect.Slice, reflect.Array:
		elem, err := layoutOf(field.Type().Elem())
		if err != nil {
			panic(err)
		}
		stride := roundUp(elem.align, elem.size)
		for i := 0; i < field.Len(); i++ {
			start := buf.Len()
			writeValue(field.Index(i), buf)
			pad(buf, stride-uint64(buf.Len()-start))
		}

	case reflect.Struct:
		l, err := layoutOf(field.Type())
		if err != nil {
			panic(err)
		}
		start := buf.Len()
		for i := 0; i < field.NumField(); i++ {
			f, err := layoutOf(field.Field(i).Type())
			if err != nil {
				panic(err)
			}
			offset := uint64(buf.Len() - start)
			pad(buf, roundUp(f.align, offset)-offset)
			writeValue(field.Field(i), buf)
		}
		if written := uint64(buf.Len() - start); written < l.size {
			pad(buf, l.size-written)
		}

	case reflect.Bool:
		var b uint32
		if field.Bool() {
			b = 1
		}
		binary.Write(buf, binary.LittleEndian, b)

	case reflect.Int32:
		binary.Write(buf, binary.LittleEndian, int32(field.Int()))

	case reflect.Uint32:
		binary.Write(buf, binary.LittleEndian, uint32(field.Uint()))

	case reflect.Float32:
		binary.Write(buf, binary.LittleEndian, math.Float32bits(float32(field.Float())))

	default:
		panic(fmt.Errorf("unsupported uniform type: %v", field.Type()))
	}
}
