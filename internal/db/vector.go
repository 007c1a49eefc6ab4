package db

import (
	"encoding/binary"
	"errors"
	"math"
)

// EncodeVector packs v as a little-endian FLOAT32 blob, the layout FT vector fields expect.
func EncodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// DecodeVector is the inverse of EncodeVector.
func DecodeVector(blob string) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, errors.New("vector blob length is not a multiple of 4")
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(blob[i*4 : i*4+4])))
	}
	return out, nil
}
