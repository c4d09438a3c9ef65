// Package vecpack converts numeric vectors to and from the little-endian byte
// layout the store expects for vector fields and query parameters.
package vecpack

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vareon/searchdex/schema"
)

// Pack encodes v with the byte width of dt. The width always comes from the
// bound field spec; packing with an assumed default width is a silent
// correctness bug this package refuses to allow.
func Pack(v []float64, dt schema.VectorDataType) ([]byte, error) {
	switch dt {
	case schema.Float32:
		return PackFloat32(v), nil
	case schema.Float64:
		return PackFloat64(v), nil
	default:
		return nil, fmt.Errorf("vecpack: unknown datatype %q", dt)
	}
}

// Unpack decodes b with the byte width of dt.
func Unpack(b []byte, dt schema.VectorDataType) ([]float64, error) {
	width := dt.Width()
	if len(b)%width != 0 {
		return nil, fmt.Errorf("vecpack: %d bytes is not a multiple of %s width %d", len(b), dt, width)
	}
	switch dt {
	case schema.Float32:
		out := make([]float64, len(b)/4)
		for i := range out {
			bits := binary.LittleEndian.Uint32(b[i*4:])
			out[i] = float64(math.Float32frombits(bits))
		}
		return out, nil
	case schema.Float64:
		out := make([]float64, len(b)/8)
		for i := range out {
			bits := binary.LittleEndian.Uint64(b[i*8:])
			out[i] = math.Float64frombits(bits)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("vecpack: unknown datatype %q", dt)
	}
}

// PackFloat32 encodes v as 4-byte little-endian components.
func PackFloat32(v []float64) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(f)))
	}
	return buf
}

// PackFloat64 encodes v as 8-byte little-endian components.
func PackFloat64(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}
